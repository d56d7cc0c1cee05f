// Package payments places, captures and releases holds on buyer funds.
package payments

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
)

// Hold states.
const (
	StatusRequiresCapture = "requires_capture"
	StatusCaptured        = "captured"
	StatusCanceled        = "canceled"
)

// Intent is what the payment sheet needs to collect the buyer's card.
type Intent struct {
	ID                          string
	ClientSecret                string
	CustomerID                  string
	CustomerSessionClientSecret string
}

type Gateway interface {
	CreateIntent(ctx context.Context, buyerID string, amount decimal.Decimal, currency string) (*Intent, error)
	Capture(ctx context.Context, intentID string) error
	Cancel(ctx context.Context, intentID string) error
}

// RedisGateway keeps hold state in Redis. It backs local and staging
// deployments; a processor-backed Gateway replaces it in production.
type RedisGateway struct {
	redis redis.RedisClient
}

func NewRedisGateway(client redis.RedisClient) *RedisGateway {
	return &RedisGateway{redis: client}
}

func secret(prefix string) (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return prefix + hex.EncodeToString(b), nil
}

func (g *RedisGateway) CreateIntent(ctx context.Context, buyerID string, amount decimal.Decimal, currency string) (*Intent, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive, got %s", amount)
	}
	id := "pi_" + uuid.NewString()
	clientSecret, err := secret(id + "_secret_")
	if err != nil {
		return nil, err
	}
	sessionSecret, err := secret("cuss_")
	if err != nil {
		return nil, err
	}

	if err := g.redis.Set(ctx, redis.PaymentHoldKey(id), StatusRequiresCapture, 0); err != nil {
		slog.Error("failed to record payment hold", "intent_id", id, "error", err)
		return nil, fmt.Errorf("failed to record payment hold: %w", err)
	}

	slog.Info("payment intent created", "intent_id", id, "buyer_id", buyerID, "amount", amount.StringFixed(2), "currency", currency)
	return &Intent{
		ID:                          id,
		ClientSecret:                clientSecret,
		CustomerID:                  "cus_" + buyerID,
		CustomerSessionClientSecret: sessionSecret,
	}, nil
}

func (g *RedisGateway) move(ctx context.Context, intentID, to string) error {
	key := redis.PaymentHoldKey(intentID)
	current, err := g.redis.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("payment hold %s: %w", intentID, err)
	}
	switch {
	case current == to:
		return nil
	case current != StatusRequiresCapture:
		return fmt.Errorf("payment hold %s is %s", intentID, current)
	}
	if err := g.redis.Set(ctx, key, to, 0); err != nil {
		return fmt.Errorf("failed to update payment hold %s: %w", intentID, err)
	}
	slog.Info("payment hold updated", "intent_id", intentID, "status", to)
	return nil
}

func (g *RedisGateway) Capture(ctx context.Context, intentID string) error {
	return g.move(ctx, intentID, StatusCaptured)
}

func (g *RedisGateway) Cancel(ctx context.Context, intentID string) error {
	return g.move(ctx, intentID, StatusCanceled)
}
