package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stores_api/internal/logging"
	authmw "github.com/Skotchmaster/stores_api/internal/middleware/auth"
	"github.com/Skotchmaster/stores_api/internal/service"
	"github.com/Skotchmaster/stores_api/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}

	if _, err := h.Svc.Register(ctx, req.Username, req.Password); err != nil {
		he := httpError(err)
		l.Warn("register_error", "status", he.Code, "reason", he.Message, "error", err)
		return he
	}

	l.Info("register_successful", "username", req.Username)
	return c.JSON(http.StatusCreated, transport.MessageResponse{Message: service.MsgUserCreated})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		he := httpError(err)
		l.Warn("login_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("login_successful", "username", req.Username)
	return c.JSON(http.StatusOK, transport.TokenPair{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	claims, ok := authmw.ClaimsFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgMissingToken)
	}

	if err := h.Svc.Logout(ctx, claims); err != nil {
		he := httpError(err)
		l.Error("logout_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("logout_successful", "sub", claims.Subject)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: service.MsgLoggedOut})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	claims, ok := authmw.ClaimsFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgMissingToken)
	}

	access, err := h.Svc.Refresh(ctx, claims)
	if err != nil {
		he := httpError(err)
		l.Error("refresh_failed", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, transport.AccessTokenResponse{AccessToken: access})
}

func (h *AuthHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get")

	id, err := userID(c)
	if err != nil {
		l.Warn("get_user_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	user, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		he := httpError(err)
		l.Warn("get_user_failed", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id, err := userID(c)
	if err != nil {
		l.Warn("delete_user_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	if err := h.Svc.DeleteUser(ctx, id); err != nil {
		he := httpError(err)
		l.Warn("delete_user_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("user_deleted", "id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: service.MsgUserDeleted})
}

func userID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "'id' must be a positive integer.")
	}
	return uint(id), nil
}
