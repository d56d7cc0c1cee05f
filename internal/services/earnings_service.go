package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/pricing"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

const payoutLockTTL = 10 * time.Second

type EarningsService interface {
	Summary(ctx context.Context, userID string) (*models.EarningsSummary, error)
	ListPayouts(ctx context.Context, userID string) ([]models.Payout, error)
	RequestPayout(ctx context.Context, userID string, req models.PayoutRequest) (*models.Payout, error)
	CompleteOnboarding(ctx context.Context, userID string) error
}

type earningsService struct {
	earnings repository.EarningsRepository
	payouts  repository.PayoutRepository
	users    repository.UserRepository
	redis    redis.RedisClient
	producer kafka.KafkaProducer
	cacheTTL time.Duration
	now      func() time.Time
}

func NewEarningsService(
	earnings repository.EarningsRepository,
	payouts repository.PayoutRepository,
	users repository.UserRepository,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
	cacheTTL time.Duration,
) *earningsService {
	return &earningsService{
		earnings: earnings,
		payouts:  payouts,
		users:    users,
		redis:    redisClient,
		producer: producer,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *earningsService) Summary(ctx context.Context, userID string) (*models.EarningsSummary, error) {
	ctx, span := otel.Tracer("earnings-service").Start(ctx, "GetEarningsSummary")
	span.SetAttributes(attribute.String("user_id", userID))
	defer span.End()

	key := redis.EarningsKey(userID)
	cached, err := s.redis.Get(ctx, key)
	if err == nil {
		var summary models.EarningsSummary
		if err := json.Unmarshal([]byte(cached), &summary); err != nil {
			slog.Error("failed to unmarshal earnings summary", "user_id", userID, "error", err)
		} else {
			slog.Info("earnings summary fetched from Redis", "user_id", userID)
			return &summary, nil
		}
	} else if !stderrors.Is(err, redis.ErrKeyNotFound) {
		slog.Warn("failed to read earnings cache", "user_id", userID, "error", err)
	}

	summary, err := s.earnings.Summary(ctx, userID)
	if err != nil {
		fail(span, err, "earnings summary failed")
		return nil, err
	}

	if raw, err := json.Marshal(summary); err == nil {
		if err := s.redis.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
			slog.Error("failed to cache earnings summary", "user_id", userID, "error", err)
		}
	}

	slog.Info("earnings summary fetched from Postgres", "user_id", userID, "available", summary.AvailableBalance.StringFixed(2))
	return summary, nil
}

func (s *earningsService) ListPayouts(ctx context.Context, userID string) ([]models.Payout, error) {
	ctx, span := otel.Tracer("earnings-service").Start(ctx, "ListPayouts")
	defer span.End()

	payouts, err := s.payouts.ListByUser(ctx, userID)
	if err != nil {
		fail(span, err, "list payouts failed")
		return nil, err
	}
	return payouts, nil
}

// RequestPayout withdraws from the available balance. A per-user Redis lock
// keeps two concurrent requests from spending the same balance.
func (s *earningsService) RequestPayout(ctx context.Context, userID string, req models.PayoutRequest) (*models.Payout, error) {
	ctx, span := otel.Tracer("earnings-service").Start(ctx, "RequestPayout")
	span.SetAttributes(attribute.String("user_id", userID))
	defer span.End()

	if err := pricing.CheckPayout(req.Amount); err != nil {
		fail(span, err, "below minimum")
		return nil, err
	}
	if _, err := models.ParsePayoutMethod(string(req.Method)); err != nil {
		err = fmt.Errorf("%w: %v", pkgerrors.ErrInvalidInput, err)
		fail(span, err, "invalid method")
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		fail(span, err, "user lookup failed")
		return nil, err
	}
	if !user.PayoutsEnabled {
		fail(span, pkgerrors.ErrSellerOnboardingRequired, "onboarding required")
		return nil, pkgerrors.ErrSellerOnboardingRequired
	}

	lockKey := redis.PayoutLockKey(userID)
	ok, err := s.redis.SetNX(ctx, lockKey, "locked", payoutLockTTL)
	if err != nil {
		fail(span, err, "failed to acquire lock")
		slog.Error("failed to acquire payout lock", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to acquire payout lock: %w", err)
	}
	if !ok {
		slog.Warn("payout already in progress", "user_id", userID)
		return nil, fmt.Errorf("%w: a payout request is already in progress", pkgerrors.ErrConflict)
	}
	defer func() {
		if err := s.redis.Del(ctx, lockKey); err != nil {
			slog.Warn("failed to release payout lock", "user_id", userID, "error", err)
		}
	}()

	summary, err := s.earnings.Summary(ctx, userID)
	if err != nil {
		fail(span, err, "earnings summary failed")
		return nil, err
	}
	if summary.AvailableBalance.LessThan(req.Amount) {
		slog.Warn("insufficient funds for payout",
			"user_id", userID,
			"available", summary.AvailableBalance.StringFixed(2),
			"requested", req.Amount.StringFixed(2))
		return nil, pkgerrors.ErrInsufficientFunds
	}

	payout := &models.Payout{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: req.Amount,
		Method: req.Method,
		Status: models.PayoutPending,
	}
	if err := s.payouts.Create(ctx, payout); err != nil {
		fail(span, err, "payout creation failed")
		return nil, err
	}

	if err := s.redis.Del(ctx, redis.EarningsKey(userID)); err != nil {
		slog.Warn("failed to invalidate earnings cache", "user_id", userID, "error", err)
	}

	amount := payout.Amount
	publish(ctx, s.producer, models.TopicPayouts, models.Event{
		Type:        models.EventPayoutRequested,
		AggregateID: payout.ID,
		ActorID:     userID,
		SellerID:    userID,
		Amount:      &amount,
		Status:      string(payout.Status),
		OccurredAt:  s.now().UTC(),
	})
	slog.Info("payout requested", "payout_id", payout.ID, "user_id", userID, "amount", payout.Amount.StringFixed(2), "method", payout.Method)
	return payout, nil
}

func (s *earningsService) CompleteOnboarding(ctx context.Context, userID string) error {
	ctx, span := otel.Tracer("earnings-service").Start(ctx, "CompleteOnboarding")
	defer span.End()

	if err := s.users.SetPayoutsEnabled(ctx, userID, true); err != nil {
		fail(span, err, "onboarding failed")
		return err
	}
	slog.Info("seller onboarding completed", "user_id", userID)
	return nil
}
