package repository

import (
	"context"
	"fmt"
	"time"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/storage"

	"github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryTokenRepo is a process-local store for single-instance and local runs.
type MemoryTokenRepo struct {
	c *cache.Cache
}

func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{
		c: cache.New(cache.NoExpiration, memoryCleanupInterval),
	}
}

func (r *MemoryTokenRepo) SaveRefreshToken(_ context.Context, token models.RefreshToken) error {
	const op = "repository.memory_token_repository.SaveRefreshToken"

	ttl := token.ExpiresAt.Sub(token.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("%s: token expires before it is created", op)
	}

	if err := r.c.Add(token.Token, token, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrTokenExists)
	}

	return nil
}

func (r *MemoryTokenRepo) RefreshToken(_ context.Context, token string) (models.RefreshToken, error) {
	const op = "repository.memory_token_repository.RefreshToken"

	v, ok := r.c.Get(token)
	if !ok {
		return models.RefreshToken{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}

	return v.(models.RefreshToken), nil
}

func (r *MemoryTokenRepo) DeleteRefreshToken(_ context.Context, token string) error {
	r.c.Delete(token)
	return nil
}
