package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stores_api/internal/service"
	"github.com/Skotchmaster/stores_api/internal/tokens"
)

// httpError maps service and auth errors onto status codes. Service errors
// are checked first: a taken username is an AuthError wrapped in a Conflict
// and must surface as 400.
func httpError(err error) *echo.HTTPError {
	var se *service.Error
	if errors.As(err, &se) {
		return echo.NewHTTPError(statusOf(se.Kind), se.Message)
	}

	var ae *tokens.AuthError
	if errors.As(err, &ae) {
		code := http.StatusUnauthorized
		if ae.Kind == tokens.KindUsernameTaken {
			code = http.StatusBadRequest
		}
		return echo.NewHTTPError(code, ae.Message())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, service.MsgInternal)
}

func statusOf(kind error) int {
	switch {
	case errors.Is(kind, service.ErrValidation), errors.Is(kind, service.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(kind, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
