package tokens

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInvalid Kind = iota + 1
	KindExpired
	KindRevoked
	KindNotFresh
	KindWrongType
	KindInvalidCredentials
	KindUsernameTaken
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindExpired:
		return "expired"
	case KindRevoked:
		return "revoked"
	case KindNotFresh:
		return "not_fresh"
	case KindWrongType:
		return "wrong_type"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUsernameTaken:
		return "username_taken"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) message() string {
	switch k {
	case KindInvalid:
		return "Signature verification failed"
	case KindExpired:
		return "Token has expired"
	case KindRevoked:
		return "Token has been revoked"
	case KindNotFresh:
		return "Fresh token required"
	case KindWrongType:
		return "Wrong token type"
	case KindInvalidCredentials:
		return "Invalid credentials"
	case KindUsernameTaken:
		return "Username already taken"
	default:
		return "Unauthorized"
	}
}

// AuthError is the single error type for every authentication failure.
// Two AuthErrors match under errors.Is when their kinds are equal.
type AuthError struct {
	Kind Kind
	Msg  string
	Err  error
}

var (
	ErrInvalid            = &AuthError{Kind: KindInvalid}
	ErrExpired            = &AuthError{Kind: KindExpired}
	ErrRevoked            = &AuthError{Kind: KindRevoked}
	ErrNotFresh           = &AuthError{Kind: KindNotFresh}
	ErrWrongType          = &AuthError{Kind: KindWrongType}
	ErrInvalidCredentials = &AuthError{Kind: KindInvalidCredentials}
	ErrUsernameTaken      = &AuthError{Kind: KindUsernameTaken}

	// ErrUnavailable marks failures of the validation machinery itself
	// (e.g. the revocation backend), as opposed to a bad token.
	ErrUnavailable = errors.New("token validation unavailable")
)

func (e *AuthError) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.message()
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "auth " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "auth " + e.Kind.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

func newAuthError(kind Kind, msg string, err error) *AuthError {
	return &AuthError{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the AuthError kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}
