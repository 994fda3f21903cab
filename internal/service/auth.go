package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stores_api/internal/events"
	"github.com/Skotchmaster/stores_api/internal/hash"
	"github.com/Skotchmaster/stores_api/internal/logging"
	"github.com/Skotchmaster/stores_api/internal/metrics"
	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/repo"
	"github.com/Skotchmaster/stores_api/internal/revocation"
	"github.com/Skotchmaster/stores_api/internal/tokens"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type AuthService struct {
	Users   UserRepo
	Issuer  *tokens.Issuer
	Revoked revocation.Store
	Events  events.Publisher
	Metrics *metrics.Metrics
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	if strings.TrimSpace(username) == "" {
		return nil, blank("username")
	}
	if password == "" {
		return nil, blank("password")
	}
	if len(password) > hash.MaxPasswordBytes {
		return nil, tooLongPassword(nil)
	}

	taken := conflict(
		fmt.Sprintf("User with username '%s' already exists", username),
		&tokens.AuthError{Kind: tokens.KindUsernameTaken},
	)

	if _, err := s.Users.FindUserByUsername(ctx, username); err == nil {
		s.Metrics.AuthEvent("register", "conflict")
		return nil, taken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_error", "status", 500, "reason", "user lookup failed", "error", err)
		return nil, internal(MsgInternal, err)
	}

	pwHash, err := hash.HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, tooLongPassword(err)
	}
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, internal(MsgInternal, err)
	}

	user := &models.User{Username: username, PasswordHash: pwHash}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			s.Metrics.AuthEvent("register", "conflict")
			return nil, taken
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, internal(MsgInternal, err)
	}

	s.Metrics.AuthEvent("register", "ok")
	s.publish(ctx, events.New(events.UserRegistered, tokens.IdentityOf(user.ID), map[string]any{"username": username}))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if strings.TrimSpace(username) == "" {
		return nil, blank("username")
	}
	if password == "" {
		return nil, blank("password")
	}

	user, err := s.Users.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Error("login_error", "status", 500, "reason", "user lookup failed", "error", err)
			return nil, internal(MsgInternal, err)
		}
		hash.CheckAgainstDummy(password)
		l.Warn("login failed", "status", 401, "reason", "unknown user")
		s.Metrics.AuthEvent("login", tokens.KindInvalidCredentials.String())
		return nil, &tokens.AuthError{Kind: tokens.KindInvalidCredentials}
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login failed", "status", 401, "reason", "wrong password")
		s.Metrics.AuthEvent("login", tokens.KindInvalidCredentials.String())
		return nil, &tokens.AuthError{Kind: tokens.KindInvalidCredentials}
	}

	identity := tokens.IdentityOf(user.ID)
	access, _, err := s.Issuer.IssueAccess(identity, true)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, internal(MsgInternal, err)
	}
	refresh, _, err := s.Issuer.IssueRefresh(identity)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign refresh token", "error", err)
		return nil, internal(MsgInternal, err)
	}

	s.Metrics.AuthEvent("login", "ok")
	s.publish(ctx, events.New(events.UserLoggedIn, identity, nil))
	return &LoginResult{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the presented token's jti. Revoking twice is harmless.
func (s *AuthService) Logout(ctx context.Context, claims *tokens.Claims) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "sub", claims.Subject)

	if err := s.Revoked.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		l.Error("logout_error", "status", 500, "reason", "cannot revoke token", "error", err)
		return internal(MsgInternal, err)
	}

	s.Metrics.TokenRevoked()
	s.Metrics.AuthEvent("logout", "ok")
	s.publish(ctx, events.New(events.UserLoggedOut, claims.Subject, map[string]any{"jti": claims.ID}))
	return nil
}

// Refresh mints a non-fresh access token for the refresh token's identity.
// The refresh token stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, claims *tokens.Claims) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh", "sub", claims.Subject)

	access, _, err := s.Issuer.IssueAccess(claims.Subject, false)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "cannot sign access token", "error", err)
		return "", internal(MsgInternal, err)
	}
	s.Metrics.AuthEvent("refresh", "ok")
	return access, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(MsgUserNotFound, err)
		}
		logging.FromContext(ctx).Error("get_user_error", "status", 500, "error", err)
		return nil, internal(MsgInternal, err)
	}
	return user, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.Users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(MsgUserNotFound, err)
		}
		logging.FromContext(ctx).Error("delete_user_error", "status", 500, "error", err)
		return internal(MsgInternal, err)
	}
	s.publish(ctx, events.New(events.UserDeleted, tokens.IdentityOf(id), nil))
	return nil
}

func (s *AuthService) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicUsers, ev); err != nil {
		logging.FromContext(ctx).Warn("publish failed", "event", ev.Type, "error", err)
	}
}
