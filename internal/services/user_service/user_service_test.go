package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/lib/logger/handlers/slogdiscard"
	"chat_auth/internal/lib/password"
	"chat_auth/internal/storage"
	"chat_auth/internal/transport/http/dto"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) User(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

const passDefaultLen = 12

var testCtx = context.Background()

func newTestService(repo *MockUserRepository) *UserService {
	return NewUserService(slogdiscard.NewDiscardLogger(), repo, password.NewBcrypt(bcrypt.MinCost))
}

func randomFakePassword() string {
	return gofakeit.Password(true, true, true, true, false, passDefaultLen)
}

func TestUserService_RegisterNewUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newTestService(mockRepo)

	input := dto.UserRegisterInput{
		Email:    gofakeit.Email(),
		Password: randomFakePassword(),
	}

	t.Run("successful registration", func(t *testing.T) {
		expectedID := uuid.New()
		mockRepo.On("SaveUser", testCtx, mock.MatchedBy(func(u models.User) bool {
			return u.Email == input.Email &&
				assert.ObjectsAreEqual([]string{models.RoleUser}, u.Roles) &&
				bcrypt.CompareHashAndPassword(u.Password, []byte(input.Password)) == nil
		})).Return(expectedID, nil).Once()

		id, err := service.RegisterNewUser(testCtx, input)
		require.NoError(t, err)
		assert.Equal(t, expectedID, id)
	})

	t.Run("user already exists", func(t *testing.T) {
		mockRepo.On("SaveUser", testCtx, mock.Anything).
			Return(uuid.Nil, storage.ErrUserExists).Once()

		_, err := service.RegisterNewUser(testCtx, input)
		assert.ErrorIs(t, err, ErrUserExist)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo.On("SaveUser", testCtx, mock.Anything).
			Return(uuid.Nil, errors.New("db error")).Once()

		_, err := service.RegisterNewUser(testCtx, input)
		assert.ErrorContains(t, err, "db error")
		assert.NotErrorIs(t, err, ErrUserExist)
	})

	t.Run("password too long for bcrypt", func(t *testing.T) {
		long := input
		long.Password = strings.Repeat("é", 72)

		_, err := service.RegisterNewUser(testCtx, long)
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	mockRepo.AssertExpectations(t)
}

func TestUserService_LoadByEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newTestService(mockRepo)

	stored := models.User{ID: uuid.New(), Email: "test@naver.com", Roles: []string{models.RoleUser}}

	t.Run("found", func(t *testing.T) {
		mockRepo.On("User", testCtx, "test@naver.com").Return(stored, nil).Once()

		user, err := service.LoadByEmail(testCtx, "test@naver.com")
		require.NoError(t, err)
		assert.Equal(t, stored, user)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.On("User", testCtx, "nobody@naver.com").
			Return(models.User{}, storage.ErrUserNotFound).Once()

		_, err := service.LoadByEmail(testCtx, "nobody@naver.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo.On("User", testCtx, "test@naver.com").
			Return(models.User{}, errors.New("db error")).Once()

		_, err := service.LoadByEmail(testCtx, "test@naver.com")
		assert.ErrorContains(t, err, "db error")
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_VerifyPassword(t *testing.T) {
	for _, algorithm := range []string{password.AlgorithmBcrypt, password.AlgorithmArgon2id} {
		t.Run(algorithm, func(t *testing.T) {
			hasher, err := password.New(algorithm, bcrypt.MinCost)
			require.NoError(t, err)

			service := NewUserService(slogdiscard.NewDiscardLogger(), new(MockUserRepository), hasher)

			hash, err := hasher.Hash("zns9dyek951956")
			require.NoError(t, err)

			assert.True(t, service.VerifyPassword("zns9dyek951956", hash))
			assert.False(t, service.VerifyPassword("zns9dyek951957", hash))
			assert.False(t, service.VerifyPassword("", hash))
		})
	}
}

func TestUserService_Seed(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newTestService(mockRepo)

	mockRepo.On("SaveUser", testCtx, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "test@naver.com"
	})).Return(uuid.New(), nil).Once()
	mockRepo.On("SaveUser", testCtx, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "test2@naver.com" && assert.ObjectsAreEqual([]string{"ROLE_ADMIN"}, u.Roles)
	})).Return(uuid.Nil, storage.ErrUserExists).Once()

	err := service.Seed(testCtx, []SeedUser{
		{Email: "test@naver.com", Password: "zns9dyek951956"},
		{Email: "test2@naver.com", Password: "zns9dyek951956", Roles: []string{"ROLE_ADMIN"}},
	})
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)

	t.Run("repository error stops seeding", func(t *testing.T) {
		repo := new(MockUserRepository)
		service := newTestService(repo)

		repo.On("SaveUser", testCtx, mock.Anything).Return(uuid.Nil, errors.New("db error")).Once()

		err := service.Seed(testCtx, []SeedUser{
			{Email: "a@naver.com", Password: "p"},
			{Email: "b@naver.com", Password: "p"},
		})
		assert.ErrorContains(t, err, "db error")
		repo.AssertExpectations(t)
	})
}
