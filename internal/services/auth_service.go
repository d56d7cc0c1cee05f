package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	stderrors "errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/auth"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, username, password string, displayName *string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, userID string) error
}

type authService struct {
	users  repository.UserRepository
	redis  redis.RedisClient
	tokens *auth.TokenIssuer
}

func NewAuthService(users repository.UserRepository, redisClient redis.RedisClient, tokens *auth.TokenIssuer) *authService {
	return &authService{users: users, redis: redisClient, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, username, password string, displayName *string) (*models.User, error) {
	ctx, span := otel.Tracer("auth-service").Start(ctx, "Register")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || len(password) < minPasswordLength {
		err := fmt.Errorf("%w: username is required and password must be at least %d characters", pkgerrors.ErrInvalidInput, minPasswordLength)
		fail(span, err, "invalid registration")
		return nil, err
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if existing != nil {
		fail(span, pkgerrors.ErrUsernameExists, "username already exists")
		slog.Warn("username already exists", "username", username, "existing_id", existing.ID)
		return nil, pkgerrors.ErrUsernameExists
	}
	if err != nil && !stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		fail(span, err, "user check failed")
		slog.Error("failed to check user existence", "username", username, "error", err)
		return nil, fmt.Errorf("%w: failed to check user existence", pkgerrors.ErrInternal)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fail(span, err, "password hashing failed")
		slog.Error("failed to hash password", "username", username, "error", err)
		return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		fail(span, err, "user creation failed")
		if stderrors.Is(err, pkgerrors.ErrUserAlreadyExists) {
			return nil, pkgerrors.ErrUsernameExists
		}
		return nil, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	slog.Info("user registered", "user_id", user.ID, "username", username)
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	ctx, span := otel.Tracer("auth-service").Start(ctx, "Login")
	defer span.End()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !stderrors.Is(err, pkgerrors.ErrUserNotFound) {
			fail(span, err, "user lookup failed")
			slog.Error("failed to look up user", "username", username, "error", err)
			return "", fmt.Errorf("%w: failed to look up user", pkgerrors.ErrInternal)
		}
		slog.Warn("login for unknown user", "username", username)
		return "", pkgerrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("invalid password", "username", username)
		return "", pkgerrors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateJWT(user.ID, user.Username)
	if err != nil {
		fail(span, err, "token generation failed")
		slog.Error("failed to generate JWT", "user_id", user.ID, "error", err)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.redis.Set(ctx, redis.TokenKey(user.ID), token, s.tokens.TTL()); err != nil {
		fail(span, err, "token store failed")
		slog.Error("failed to store JWT", "user_id", user.ID, "error", err)
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	slog.Info("user logged in", "username", username, "user_id", user.ID)
	return token, nil
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	ctx, span := otel.Tracer("auth-service").Start(ctx, "Logout")
	defer span.End()

	if err := s.redis.Del(ctx, redis.TokenKey(userID)); err != nil {
		fail(span, err, "token revoke failed")
		slog.Error("failed to revoke token", "user_id", userID, "error", err)
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	slog.Info("user logged out", "user_id", userID)
	return nil
}
