package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/lib/logger/sl"
	usersvc "chat_auth/internal/services/user_service"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

type TokenIssuer interface {
	Issue(subject string, roles []string) (string, time.Time, error)
	ExpirationOf(signed string) (time.Time, error)
}

type RefreshStore interface {
	Create(ctx context.Context, email string) (models.RefreshToken, error)
	FindByToken(ctx context.Context, token string) (models.RefreshToken, bool, error)
	DeleteByToken(ctx context.Context, token string) error
	VerifyExpiration(rt models.RefreshToken) bool
}

type CredentialGate interface {
	LoadByEmail(ctx context.Context, email string) (models.User, error)
	VerifyPassword(plain string, hash []byte) bool
}

// Auth drives a session through login, refresh and logout. The session lives
// only in the refresh token record and the cookie holding its key.
type Auth struct {
	log     *slog.Logger
	users   CredentialGate
	tokens  TokenIssuer
	refresh RefreshStore
}

func New(log *slog.Logger, users CredentialGate, tokens TokenIssuer, refresh RefreshStore) *Auth {
	return &Auth{
		log:     log,
		users:   users,
		tokens:  tokens,
		refresh: refresh,
	}
}

// Login checks credentials, mints an access token and persists a new refresh
// token. Earlier refresh tokens of the same user stay valid.
func (a *Auth) Login(ctx context.Context, email, password string) (*models.Session, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("attempting to login user")

	user, err := a.users.LoadByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))

			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !a.users.VerifyPassword(password, user.Password) {
		log.Info("invalid credentials")

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	access, err := a.issue(user)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rt, err := a.refresh.Create(ctx, user.Email)
	if err != nil {
		log.Error("failed to create refresh token", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully")

	return &models.Session{
		Access:  access,
		Refresh: rt,
	}, nil
}

// Refresh mints a new access token for a live refresh token. The refresh
// token itself is not rotated.
func (a *Auth) Refresh(ctx context.Context, token string) (models.ResponseToken, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	rt, found, err := a.refresh.FindByToken(ctx, token)
	if err != nil {
		log.Error("failed to find refresh token", sl.Err(err))

		return models.ResponseToken{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		log.Info("refresh token missing or unknown")

		return models.ResponseToken{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if !a.refresh.VerifyExpiration(rt) {
		log.Info("refresh token expired", slog.String("email", rt.Email))

		if err := a.refresh.DeleteByToken(ctx, token); err != nil {
			log.Error("failed to delete expired refresh token", sl.Err(err))
		}

		return models.ResponseToken{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	user, err := a.users.LoadByEmail(ctx, rt.Email)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserNotFound) {
			log.Warn("refresh token owner is gone", slog.String("email", rt.Email))

			return models.ResponseToken{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		log.Error("failed to get user", sl.Err(err))

		return models.ResponseToken{}, fmt.Errorf("%s: %w", op, err)
	}

	access, err := a.issue(user)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))

		return models.ResponseToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return access, nil
}

// Logout revokes the refresh token. Unknown or empty tokens are not an error.
func (a *Auth) Logout(ctx context.Context, token string) error {
	const op = "auth.Logout"

	if err := a.refresh.DeleteByToken(ctx, token); err != nil {
		a.log.Error("failed to delete refresh token", slog.String("op", op), sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsAuthenticated reports whether token maps to a live refresh token.
func (a *Auth) IsAuthenticated(ctx context.Context, token string) (bool, error) {
	const op = "auth.IsAuthenticated"

	rt, found, err := a.refresh.FindByToken(ctx, token)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return found && a.refresh.VerifyExpiration(rt), nil
}

func (a *Auth) issue(user models.User) (models.ResponseToken, error) {
	access, _, err := a.tokens.Issue(user.Email, user.Roles)
	if err != nil {
		return models.ResponseToken{}, err
	}

	// the client sees the expiry carried by the token itself
	expiresAt, err := a.tokens.ExpirationOf(access)
	if err != nil {
		return models.ResponseToken{}, err
	}

	return models.ResponseToken{
		AccessToken: access,
		ExpiresAt:   expiresAt,
	}, nil
}
