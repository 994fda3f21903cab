package auth

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stores_api/internal/logging"
	"github.com/Skotchmaster/stores_api/internal/metrics"
	"github.com/Skotchmaster/stores_api/internal/tokens"
)

const (
	ContextKey = "claims"

	MsgMissingToken = "Missing Authorization Header"
)

type Validator interface {
	Validate(ctx context.Context, raw string, mode tokens.Mode) (*tokens.Claims, error)
}

// TokenMiddleware guards routes with bearer tokens. Each guard differs only
// in the validation mode it passes down.
type TokenMiddleware struct {
	Validator Validator
	Metrics   *metrics.Metrics
}

func (m *TokenMiddleware) RequireAccess() echo.MiddlewareFunc {
	return m.require(tokens.ModeAny)
}

func (m *TokenMiddleware) RequireFresh() echo.MiddlewareFunc {
	return m.require(tokens.ModeFresh)
}

func (m *TokenMiddleware) RequireRefresh() echo.MiddlewareFunc {
	return m.require(tokens.ModeRefresh)
}

func (m *TokenMiddleware) require(mode tokens.Mode) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			return m.Validator.Validate(c.Request().Context(), raw, mode)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return m.reject(c, mode, err)
		},
	})
}

func (m *TokenMiddleware) reject(c echo.Context, mode tokens.Mode, err error) error {
	l := logging.FromContext(c.Request().Context()).With("mw", "auth", "mode", mode.String())

	if errors.Is(err, tokens.ErrUnavailable) {
		l.Error("token check failed", "status", http.StatusInternalServerError, "error", err)
		m.Metrics.AuthEvent("validate", "unavailable")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error.")
	}

	var ae *tokens.AuthError
	if errors.As(err, &ae) {
		l.Warn("token rejected", "status", http.StatusUnauthorized, "reason", ae.Kind.String())
		m.Metrics.AuthEvent("validate", ae.Kind.String())
		return echo.NewHTTPError(http.StatusUnauthorized, ae.Message())
	}

	l.Warn("token rejected", "status", http.StatusUnauthorized, "reason", "missing token", "error", err)
	m.Metrics.AuthEvent("validate", "missing")
	return echo.NewHTTPError(http.StatusUnauthorized, MsgMissingToken)
}

// ClaimsFrom returns the claims stored by one of the guards.
func ClaimsFrom(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(ContextKey).(*tokens.Claims)
	return claims, ok && claims != nil
}
