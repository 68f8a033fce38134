package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/lib/logger/handlers/slogdiscard"
	"chat_auth/internal/repository"
	"chat_auth/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) SaveRefreshToken(ctx context.Context, token models.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) RefreshToken(ctx context.Context, token string) (models.RefreshToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockPurgingTokenRepository struct {
	MockTokenRepository
}

func (m *MockPurgingTokenRepository) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

var (
	testCtx   = context.Background()
	testNow   = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	testTTL   = 14 * 24 * time.Hour
	testEmail = "test@naver.com"
)

func newTestService(repo repository.RefreshTokenRepository, now *time.Time) *TokenService {
	return NewTokenService(slogdiscard.NewDiscardLogger(), repo, testTTL,
		WithClock(func() time.Time { return *now }),
		WithTokenGenerator(func() string { return "fixed-token" }),
	)
}

func TestCreate_Success(t *testing.T) {
	repo := new(MockTokenRepository)
	now := testNow
	service := newTestService(repo, &now)

	expected := models.RefreshToken{
		Token:     "fixed-token",
		Email:     testEmail,
		CreatedAt: testNow,
		ExpiresAt: testNow.Add(testTTL),
	}
	repo.On("SaveRefreshToken", testCtx, expected).Return(nil).Once()

	got, err := service.Create(testCtx, testEmail)

	require.NoError(t, err)
	assert.Equal(t, expected, got)
	repo.AssertExpectations(t)
}

func TestCreate_DefaultGeneratorIsUnique(t *testing.T) {
	repo := new(MockTokenRepository)
	service := NewTokenService(slogdiscard.NewDiscardLogger(), repo, testTTL)

	repo.On("SaveRefreshToken", testCtx, mock.AnythingOfType("models.RefreshToken")).Return(nil)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		rt, err := service.Create(testCtx, testEmail)
		require.NoError(t, err)
		assert.NotEmpty(t, rt.Token)
		assert.True(t, rt.ExpiresAt.After(time.Now()))
		seen[rt.Token] = struct{}{}
	}

	assert.Len(t, seen, 100)
}

func TestCreate_RepoError(t *testing.T) {
	repo := new(MockTokenRepository)
	now := testNow
	service := newTestService(repo, &now)

	expectedErr := errors.New("storage error")
	repo.On("SaveRefreshToken", testCtx, mock.Anything).Return(expectedErr).Once()

	_, err := service.Create(testCtx, testEmail)

	assert.ErrorIs(t, err, expectedErr)
	repo.AssertExpectations(t)
}

func TestFindByToken(t *testing.T) {
	repo := new(MockTokenRepository)
	now := testNow
	service := newTestService(repo, &now)

	stored := models.RefreshToken{Token: "fixed-token", Email: testEmail, ExpiresAt: testNow.Add(time.Hour)}

	t.Run("exact match", func(t *testing.T) {
		repo.On("RefreshToken", testCtx, "fixed-token").Return(stored, nil).Once()

		got, found, err := service.FindByToken(testCtx, "fixed-token")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, stored, got)
	})

	t.Run("not found is not an error", func(t *testing.T) {
		repo.On("RefreshToken", testCtx, "fixed-token-2").
			Return(models.RefreshToken{}, storage.ErrTokenNotFound).Once()

		_, found, err := service.FindByToken(testCtx, "fixed-token-2")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("empty token skips the store", func(t *testing.T) {
		_, found, err := service.FindByToken(testCtx, "")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		expectedErr := errors.New("redis down")
		repo.On("RefreshToken", testCtx, "boom").Return(models.RefreshToken{}, expectedErr).Once()

		_, found, err := service.FindByToken(testCtx, "boom")
		assert.ErrorIs(t, err, expectedErr)
		assert.False(t, found)
	})

	repo.AssertExpectations(t)
}

func TestDeleteByToken(t *testing.T) {
	repo := new(MockTokenRepository)
	now := testNow
	service := newTestService(repo, &now)

	repo.On("DeleteRefreshToken", testCtx, "fixed-token").Return(nil).Twice()

	assert.NoError(t, service.DeleteByToken(testCtx, "fixed-token"))
	assert.NoError(t, service.DeleteByToken(testCtx, "fixed-token"))
	assert.NoError(t, service.DeleteByToken(testCtx, ""))

	expectedErr := errors.New("delete error")
	repo.On("DeleteRefreshToken", testCtx, "other").Return(expectedErr).Once()
	assert.ErrorIs(t, service.DeleteByToken(testCtx, "other"), expectedErr)

	repo.AssertExpectations(t)
}

func TestVerifyExpiration(t *testing.T) {
	now := testNow
	service := newTestService(new(MockTokenRepository), &now)

	rt := models.RefreshToken{ExpiresAt: testNow.Add(time.Minute)}

	assert.True(t, service.VerifyExpiration(rt))

	now = rt.ExpiresAt.Add(-time.Nanosecond)
	assert.True(t, service.VerifyExpiration(rt))

	now = rt.ExpiresAt
	assert.False(t, service.VerifyExpiration(rt))

	now = rt.ExpiresAt.Add(time.Hour)
	assert.False(t, service.VerifyExpiration(rt))
}

func TestPurgeExpired(t *testing.T) {
	t.Run("backend without purge support", func(t *testing.T) {
		now := testNow
		service := newTestService(new(MockTokenRepository), &now)

		n, err := service.PurgeExpired(testCtx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("purging backend", func(t *testing.T) {
		repo := new(MockPurgingTokenRepository)
		now := testNow
		service := newTestService(repo, &now)

		repo.On("DeleteExpiredRefreshTokens", testCtx, testNow).Return(int64(3), nil).Once()

		n, err := service.PurgeExpired(testCtx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
		repo.AssertExpectations(t)
	})

	t.Run("purge error", func(t *testing.T) {
		repo := new(MockPurgingTokenRepository)
		now := testNow
		service := newTestService(repo, &now)

		expectedErr := errors.New("db error")
		repo.On("DeleteExpiredRefreshTokens", testCtx, testNow).Return(int64(0), expectedErr).Once()

		_, err := service.PurgeExpired(testCtx)
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestRunSweeper_StopsWithContext(t *testing.T) {
	repo := new(MockPurgingTokenRepository)
	now := testNow
	service := newTestService(repo, &now)

	var calls atomic.Int32
	repo.On("DeleteExpiredRefreshTokens", mock.Anything, testNow).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(int64(1), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		service.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return calls.Load() > 0
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
