//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/repository"
	"chat_auth/internal/storage"
	"chat_auth/internal/storage/postgresql"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testCtx = context.Background()

func setupTestDB(t *testing.T) *postgresql.Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf(
		"postgres://test:test@%s:%s/testdb?sslmode=disable",
		host,
		port.Port(),
	)

	st, err := postgresql.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	// migrations are idempotent
	require.NoError(t, st.Migrate(ctx))

	t.Cleanup(func() {
		st.Stop()
		_ = pgContainer.Terminate(ctx)
	})

	return st
}

func TestPostgresRepositories(t *testing.T) {
	st := setupTestDB(t)
	require.NoError(t, st.HealthCheck(testCtx))

	users := repository.NewUserRepository(st.Pool())
	tokens := repository.NewPostgresTokenRepo(st.Pool())

	t.Run("save and load user", func(t *testing.T) {
		id, err := users.SaveUser(testCtx, models.User{
			Email:    "test@naver.com",
			Password: []byte("hash"),
			Roles:    []string{models.RoleUser},
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		user, err := users.User(testCtx, "test@naver.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, []byte("hash"), user.Password)
		assert.Equal(t, []string{models.RoleUser}, user.Roles)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := users.SaveUser(testCtx, models.User{Email: "test@naver.com", Password: []byte("x")})
		assert.ErrorIs(t, err, storage.ErrUserExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := users.User(testCtx, "nobody@naver.com")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	now := time.Now().UTC().Truncate(time.Microsecond)
	live := models.RefreshToken{
		Token:     uuid.NewString(),
		Email:     "test@naver.com",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	stale := models.RefreshToken{
		Token:     uuid.NewString(),
		Email:     "test@naver.com",
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}

	t.Run("refresh token lifecycle", func(t *testing.T) {
		require.NoError(t, tokens.SaveRefreshToken(testCtx, live))
		require.NoError(t, tokens.SaveRefreshToken(testCtx, stale))
		assert.ErrorIs(t, tokens.SaveRefreshToken(testCtx, live), storage.ErrTokenExists)

		got, err := tokens.RefreshToken(testCtx, live.Token)
		require.NoError(t, err)
		assert.Equal(t, live.Email, got.Email)
		assert.True(t, live.ExpiresAt.Equal(got.ExpiresAt))

		// expired rows stay until purged
		_, err = tokens.RefreshToken(testCtx, stale.Token)
		require.NoError(t, err)

		_, err = tokens.RefreshToken(testCtx, "unknown")
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})

	t.Run("purge expired", func(t *testing.T) {
		n, err := tokens.DeleteExpiredRefreshTokens(testCtx, now)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = tokens.RefreshToken(testCtx, stale.Token)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, tokens.DeleteRefreshToken(testCtx, live.Token))
		require.NoError(t, tokens.DeleteRefreshToken(testCtx, live.Token))

		_, err := tokens.RefreshToken(testCtx, live.Token)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})
}
