package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/lib/logger/sl"
	"chat_auth/internal/repository"
	"chat_auth/internal/storage"

	"github.com/google/uuid"
)

// TokenService owns refresh token records: it mints them, looks them up and
// revokes them. It never decides whether a caller is authorized.
type TokenService struct {
	log      *slog.Logger
	repo     repository.RefreshTokenRepository
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

type Option func(*TokenService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// WithTokenGenerator replaces the opaque token source.
func WithTokenGenerator(gen func() string) Option {
	return func(s *TokenService) {
		s.newToken = gen
	}
}

func NewTokenService(log *slog.Logger, repo repository.RefreshTokenRepository, ttl time.Duration, opts ...Option) *TokenService {
	s := &TokenService{
		log:      log,
		repo:     repo,
		ttl:      ttl,
		now:      time.Now,
		newToken: uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create persists a new refresh token for email.
func (s *TokenService) Create(ctx context.Context, email string) (models.RefreshToken, error) {
	const op = "token_service.Create"

	now := s.now().UTC()
	token := models.RefreshToken{
		Token:     s.newToken(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.repo.SaveRefreshToken(ctx, token); err != nil {
		s.log.Error("failed to save refresh token", slog.String("op", op), sl.Err(err))

		return models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// FindByToken reports found=false when no record matches token exactly.
func (s *TokenService) FindByToken(ctx context.Context, token string) (models.RefreshToken, bool, error) {
	const op = "token_service.FindByToken"

	if token == "" {
		return models.RefreshToken{}, false, nil
	}

	rt, err := s.repo.RefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return models.RefreshToken{}, false, nil
		}

		return models.RefreshToken{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return rt, true, nil
}

// DeleteByToken removes the record if there is one.
func (s *TokenService) DeleteByToken(ctx context.Context, token string) error {
	const op = "token_service.DeleteByToken"

	if token == "" {
		return nil
	}

	if err := s.repo.DeleteRefreshToken(ctx, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// VerifyExpiration reports whether rt is still usable at the current time.
func (s *TokenService) VerifyExpiration(rt models.RefreshToken) bool {
	return s.now().Before(rt.ExpiresAt)
}

// PurgeExpired drops expired records from backends that do not expire them
// on their own. Other backends report zero.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	const op = "token_service.PurgeExpired"

	purger, ok := s.repo.(repository.ExpiredTokenPurger)
	if !ok {
		return 0, nil
	}

	n, err := purger.DeleteExpiredRefreshTokens(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// RunSweeper calls PurgeExpired every interval until ctx is done.
func (s *TokenService) RunSweeper(ctx context.Context, interval time.Duration) {
	const op = "token_service.RunSweeper"

	log := s.log.With(slog.String("op", op))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				log.Error("failed to purge expired refresh tokens", sl.Err(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired refresh tokens", slog.Int64("count", n))
			}
		}
	}
}
