package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/lib/logger/sl"
	"chat_auth/internal/lib/password"
	"chat_auth/internal/repository"
	"chat_auth/internal/storage"
	"chat_auth/internal/transport/http/dto"

	"github.com/google/uuid"
)

var (
	ErrUserExist    = errors.New("user already exist")
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPassword marks a password the configured hasher refuses.
	ErrInvalidPassword = errors.New("invalid password")
)

// SeedUser is an account created at startup when it does not exist yet.
type SeedUser struct {
	Email    string
	Password string
	Roles    []string
}

type UserService struct {
	log    *slog.Logger
	repo   repository.UserRepository
	hasher password.Hasher
}

func NewUserService(log *slog.Logger, repo repository.UserRepository, hasher password.Hasher) *UserService {
	return &UserService{
		log:    log,
		repo:   repo,
		hasher: hasher,
	}
}

func (s *UserService) RegisterNewUser(ctx context.Context, input dto.UserRegisterInput) (uuid.UUID, error) {
	const op = "user_service.RegisterNewUser"

	return s.register(ctx, op, input.Email, input.Password, []string{models.RoleUser})
}

// LoadByEmail returns the stored user or ErrUserNotFound.
func (s *UserService) LoadByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "user_service.LoadByEmail"

	user, err := s.repo.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		s.log.Error("failed to get user", slog.String("op", op), sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *UserService) VerifyPassword(plain string, hash []byte) bool {
	return s.hasher.Compare(hash, plain)
}

// Seed creates the given users, skipping emails that are already taken.
func (s *UserService) Seed(ctx context.Context, users []SeedUser) error {
	const op = "user_service.Seed"

	log := s.log.With(slog.String("op", op))

	for _, u := range users {
		roles := u.Roles
		if len(roles) == 0 {
			roles = []string{models.RoleUser}
		}

		_, err := s.register(ctx, op, u.Email, u.Password, roles)
		if err != nil {
			if errors.Is(err, ErrUserExist) {
				log.Debug("seed user already present", slog.String("email", u.Email))
				continue
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		log.Info("seed user created", slog.String("email", u.Email))
	}

	return nil
}

func (s *UserService) register(ctx context.Context, op, email, plain string, roles []string) (uuid.UUID, error) {
	log := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("register user")

	passHash, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			log.Warn("password rejected by hasher", sl.Err(err))

			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidPassword)
		}

		log.Error("failed to generate password hash", sl.Err(err))

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.SaveUser(ctx, models.User{
		Email:    email,
		Password: passHash,
		Roles:    roles,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exist", sl.Err(err))

			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUserExist)
		}

		log.Error("failed to save user", sl.Err(err))

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", id.String()))

	return id, nil
}
