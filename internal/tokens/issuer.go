package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer mints self-contained HS256 tokens. Access and refresh tokens are
// signed with different secrets; nothing is stored server-side.
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{cfg: cfg, now: time.Now}
}

func (i *Issuer) IssueAccess(identity string, fresh bool) (string, *Claims, error) {
	claims := i.claims(identity, TypeAccess, fresh, i.cfg.AccessTTL)
	token, err := sign(claims, i.cfg.AccessSecret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// IssueRefresh never marks the token fresh.
func (i *Issuer) IssueRefresh(identity string) (string, *Claims, error) {
	claims := i.claims(identity, TypeRefresh, false, i.cfg.RefreshTTL)
	token, err := sign(claims, i.cfg.RefreshSecret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

func (i *Issuer) claims(identity string, typ Type, fresh bool, ttl time.Duration) *Claims {
	now := i.now().UTC()
	return &Claims{
		Fresh: fresh,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func sign(claims *Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
