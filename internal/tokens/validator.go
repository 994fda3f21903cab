package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Mode int

const (
	// ModeAny accepts any live access token.
	ModeAny Mode = iota
	// ModeFresh additionally requires the fresh flag set by a password login.
	ModeFresh
	// ModeRefresh accepts refresh tokens only.
	ModeRefresh
)

func (m Mode) String() string {
	switch m {
	case ModeFresh:
		return "fresh"
	case ModeRefresh:
		return "refresh"
	default:
		return "any"
	}
}

type RevocationChecker interface {
	Contains(ctx context.Context, jti string) (bool, error)
}

type Validator struct {
	accessSecret  []byte
	refreshSecret []byte
	revoked       RevocationChecker
	parser        *jwt.Parser
}

func NewValidator(cfg Config, revoked RevocationChecker) *Validator {
	return &Validator{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		revoked:       revoked,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Validate checks, in order: signature and format, revocation, expiry,
// freshness and token type. A revoked jti is reported as Revoked even when
// the token has also expired.
func (v *Validator) Validate(ctx context.Context, raw string, mode Mode) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, v.keyFor)

	expired := false
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return nil, newAuthError(KindInvalid, "", err)
		}
		expired = true
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, newAuthError(KindInvalid, "", errors.New("token is missing jti or sub"))
	}

	revoked, err := v.revoked.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if revoked {
		return nil, newAuthError(KindRevoked, "", nil)
	}
	if expired {
		return nil, newAuthError(KindExpired, "", nil)
	}

	switch mode {
	case ModeFresh:
		if !claims.Fresh {
			return nil, newAuthError(KindNotFresh, "", nil)
		}
		if claims.Type != TypeAccess {
			return nil, newAuthError(KindWrongType, "Only access tokens are allowed", nil)
		}
	case ModeRefresh:
		if claims.Type != TypeRefresh {
			return nil, newAuthError(KindWrongType, "Only refresh tokens are allowed", nil)
		}
	default:
		if claims.Type != TypeAccess {
			return nil, newAuthError(KindWrongType, "Only access tokens are allowed", nil)
		}
	}

	return claims, nil
}

// keyFor picks the verification secret from the declared token type so a
// correctly signed token of the wrong type surfaces as WrongType.
func (v *Validator) keyFor(t *jwt.Token) (any, error) {
	claims, ok := t.Claims.(*Claims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	switch claims.Type {
	case TypeAccess:
		return v.accessSecret, nil
	case TypeRefresh:
		return v.refreshSecret, nil
	default:
		return nil, fmt.Errorf("unknown token type %q", claims.Type)
	}
}
