package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/auth"
	redismocks "github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis/mocks"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	repositorymocks "github.com/honeynil/BrrowMarketplace/internal/repository/mocks"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := repositorymocks.NewMockUserRepository(ctrl)
	redisClient := redismocks.NewMockRedisClient(ctrl)
	svc := NewAuthService(userRepo, redisClient, auth.NewTokenIssuer("secret", time.Hour))
	ctx := context.Background()

	t.Run("successful register", func(t *testing.T) {
		userRepo.EXPECT().GetByUsername(gomock.Any(), "bea").Return(nil, pkgerrors.ErrUserNotFound)
		userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		user, err := svc.Register(ctx, "bea", "correct-horse", nil)
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "bea", user.Username)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
		assert.False(t, user.PayoutsEnabled)
	})

	t.Run("username exists", func(t *testing.T) {
		userRepo.EXPECT().GetByUsername(gomock.Any(), "sol").Return(&models.User{ID: "u-2", Username: "sol"}, nil)

		_, err := svc.Register(ctx, "sol", "correct-horse", nil)
		assert.ErrorIs(t, err, pkgerrors.ErrUsernameExists)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "bea", "short", nil)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
	})

	t.Run("lookup failure", func(t *testing.T) {
		userRepo.EXPECT().GetByUsername(gomock.Any(), "bea").Return(nil, errors.New("connection refused"))

		_, err := svc.Register(ctx, "bea", "correct-horse", nil)
		assert.ErrorIs(t, err, pkgerrors.ErrInternal)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := repositorymocks.NewMockUserRepository(ctrl)
	redisClient := redismocks.NewMockRedisClient(ctrl)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	svc := NewAuthService(userRepo, redisClient, issuer)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: "u-1", Username: "bea", PasswordHash: string(hash)}

	t.Run("successful login", func(t *testing.T) {
		userRepo.EXPECT().GetByUsername(gomock.Any(), "bea").Return(user, nil)
		redisClient.EXPECT().Set(gomock.Any(), "user:u-1:token", gomock.Any(), time.Hour).Return(nil)

		token, err := svc.Login(ctx, "bea", "correct-horse")
		require.NoError(t, err)

		claims, err := issuer.ValidateJWT(token)
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.Subject)
		assert.Equal(t, "bea", claims.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo.EXPECT().GetByUsername(gomock.Any(), "bea").Return(user, nil)

		token, err := svc.Login(ctx, "bea", "wrong-horse")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidCredentials)
		assert.Empty(t, token)
	})

	t.Run("unknown user", func(t *testing.T) {
		userRepo.EXPECT().GetByUsername(gomock.Any(), "ghost").Return(nil, pkgerrors.ErrUserNotFound)

		_, err := svc.Login(ctx, "ghost", "whatever1")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidCredentials)
	})

	t.Run("token store failure", func(t *testing.T) {
		userRepo.EXPECT().GetByUsername(gomock.Any(), "bea").Return(user, nil)
		redisClient.EXPECT().Set(gomock.Any(), "user:u-1:token", gomock.Any(), time.Hour).Return(errors.New("redis down"))

		_, err := svc.Login(ctx, "bea", "correct-horse")
		assert.Error(t, err)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	redisClient := redismocks.NewMockRedisClient(ctrl)
	svc := NewAuthService(repositorymocks.NewMockUserRepository(ctrl), redisClient, auth.NewTokenIssuer("secret", time.Hour))

	redisClient.EXPECT().Del(gomock.Any(), "user:u-1:token").Return(nil)
	assert.NoError(t, svc.Logout(context.Background(), "u-1"))
}
