package repository

import (
	"context"
	"time"

	"chat_auth/internal/domain/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	User(ctx context.Context, email string) (models.User, error)
}

// RefreshTokenRepository stores refresh tokens keyed by the token string.
// SaveRefreshToken fails with storage.ErrTokenExists when the key is taken,
// RefreshToken fails with storage.ErrTokenNotFound when it is absent and
// DeleteRefreshToken is a no-op for unknown tokens.
type RefreshTokenRepository interface {
	SaveRefreshToken(ctx context.Context, token models.RefreshToken) error
	RefreshToken(ctx context.Context, token string) (models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

// ExpiredTokenPurger is implemented by backends that keep expired rows around.
type ExpiredTokenPurger interface {
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}
