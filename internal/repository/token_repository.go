package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/storage"
	redisapp "chat_auth/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

// RedisTokenRepo keeps each refresh token under its own key; redis drops the
// key once the token expires.
type RedisTokenRepo struct {
	Client *redisapp.Client
}

func NewRedisTokenRepo(client *redisapp.Client) *RedisTokenRepo {
	return &RedisTokenRepo{Client: client}
}

func (r *RedisTokenRepo) SaveRefreshToken(ctx context.Context, token models.RefreshToken) error {
	const op = "repository.token_repository.SaveRefreshToken"

	ttl := token.ExpiresAt.Sub(token.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("%s: token expires before it is created", op)
	}

	payload, err := encodeRefreshToken(token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ok, err := r.Client.SetNX(ctx, refreshTokenKey(token.Token), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrTokenExists)
	}

	return nil
}

func (r *RedisTokenRepo) RefreshToken(ctx context.Context, token string) (models.RefreshToken, error) {
	const op = "repository.token_repository.RefreshToken"

	val, err := r.Client.Get(ctx, refreshTokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.RefreshToken{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	var stored models.RefreshToken
	if err := json.Unmarshal(val, &stored); err != nil {
		return models.RefreshToken{}, fmt.Errorf("%s: decode: %w", op, err)
	}
	stored.Token = token

	return stored, nil
}

func (r *RedisTokenRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	const op = "repository.token_repository.DeleteRefreshToken"

	if err := r.Client.Del(ctx, refreshTokenKey(token)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func encodeRefreshToken(token models.RefreshToken) (string, error) {
	b, err := json.Marshal(token)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func refreshTokenKey(token string) string {
	return "refresh:" + token
}
