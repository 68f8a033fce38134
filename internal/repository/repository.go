package repository

import (
	"errors"
	"fmt"

	redisapp "chat_auth/internal/storage/redis"

	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var ErrUnknownBackend = errors.New("unknown refresh token backend")

type Repository struct {
	User          UserRepository
	RefreshTokens RefreshTokenRepository
}

// NewRepository wires users to postgres and refresh tokens to the chosen backend.
func NewRepository(backend string, db *pgxpool.Pool, rdb *redisapp.Client) (*Repository, error) {
	const op = "repository.NewRepository"

	var tokens RefreshTokenRepository

	switch backend {
	case BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("%s: redis backend requires a redis client", op)
		}
		tokens = NewRedisTokenRepo(rdb)
	case BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("%s: postgres backend requires a connection pool", op)
		}
		tokens = NewPostgresTokenRepo(db)
	case BackendMemory:
		tokens = NewMemoryTokenRepo()
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownBackend, backend)
	}

	return &Repository{
		User:          NewUserRepository(db),
		RefreshTokens: tokens,
	}, nil
}
