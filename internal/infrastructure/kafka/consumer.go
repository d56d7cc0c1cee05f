package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/observability"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/pricing"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
)

// DLQTopic receives events that could not be applied after all retries.
const DLQTopic = "brrow-dlq"

const maxRetries = 3

// Consumer applies purchase and payout events to the seller ledger. Offsets
// are committed only after an event is applied or dead-lettered.
type Consumer struct {
	reader   *kafka.Reader
	dlq      KafkaProducer
	earnings repository.EarningsRepository
	payouts  repository.PayoutRepository
	cache    redis.RedisClient
	fees     pricing.FeeSchedule
}

func NewConsumer(brokers []string, topic, groupID string, dlq KafkaProducer, earnings repository.EarningsRepository, payouts repository.PayoutRepository, cache redis.RedisClient, fees pricing.FeeSchedule) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0,
		}),
		dlq:      dlq,
		earnings: earnings,
		payouts:  payouts,
		cache:    cache,
		fees:     fees,
	}
}

// Consume blocks until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context) {
	topic := c.reader.Config().Topic
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Kafka consumer stopped", "topic", topic)
				return
			}
			slog.Error("failed to read Kafka message", "topic", topic, "error", err)
			continue
		}

		slog.Info("Kafka message received", "topic", msg.Topic, "key", string(msg.Key))

		op := func() error { return c.Handle(ctx, msg.Value) }
		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
		if err := backoff.Retry(op, policy); err != nil {
			slog.Error("failed to apply Kafka message, routing to DLQ", "topic", msg.Topic, "key", string(msg.Key), "error", err)
			if dlqErr := c.dlq.Send(ctx, DLQTopic, string(msg.Key), msg.Value); dlqErr != nil {
				slog.Error("failed to write to DLQ", "topic", msg.Topic, "error", dlqErr)
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			slog.Error("failed to commit Kafka message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

// Handle applies one event. Malformed payloads are permanent failures and are
// not retried.
func (c *Consumer) Handle(ctx context.Context, value []byte) error {
	var ev models.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		observability.EventsConsumed.WithLabelValues(c.topic(), "unknown", "malformed").Inc()
		return backoff.Permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}

	var err error
	switch ev.Type {
	case models.EventPurchaseCompleted:
		err = c.creditSeller(ctx, ev)
	case models.EventPayoutStatusChanged:
		err = c.applyPayoutStatus(ctx, ev)
	default:
		slog.Debug("ignoring event", "event_type", ev.Type, "aggregate_id", ev.AggregateID)
		return nil
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.EventsConsumed.WithLabelValues(c.topic(), string(ev.Type), status).Inc()
	return err
}

func (c *Consumer) topic() string {
	if c.reader == nil {
		return ""
	}
	return c.reader.Config().Topic
}

func (c *Consumer) creditSeller(ctx context.Context, ev models.Event) error {
	if ev.SellerID == "" || ev.Amount == nil {
		return backoff.Permanent(fmt.Errorf("purchase_completed %s: missing seller_id or amount", ev.AggregateID))
	}

	entry := &models.EarningsEntry{
		ID:         uuid.NewString(),
		SellerID:   ev.SellerID,
		PurchaseID: ev.AggregateID,
		Amount:     c.fees.Net(*ev.Amount),
		CreatedAt:  ev.OccurredAt,
	}
	credited, err := c.earnings.Credit(ctx, entry)
	if err != nil {
		slog.Error("failed to credit seller", "seller_id", ev.SellerID, "purchase_id", ev.AggregateID, "error", err)
		return err
	}
	if !credited {
		slog.Info("purchase already credited", "purchase_id", ev.AggregateID)
		return nil
	}

	c.invalidate(ctx, ev.SellerID)
	slog.Info("seller credited", "seller_id", ev.SellerID, "purchase_id", ev.AggregateID, "amount", entry.Amount.String())
	return nil
}

func (c *Consumer) applyPayoutStatus(ctx context.Context, ev models.Event) error {
	status, err := models.ParsePayoutStatus(ev.Status)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("payout %s: %w", ev.AggregateID, err))
	}

	var processedAt *time.Time
	if status == models.PayoutCompleted || status == models.PayoutFailed {
		at := ev.OccurredAt
		processedAt = &at
	}
	if err := c.payouts.UpdateStatus(ctx, ev.AggregateID, status, processedAt); err != nil {
		slog.Error("failed to update payout status", "payout_id", ev.AggregateID, "status", status, "error", err)
		return err
	}

	if ev.SellerID != "" {
		c.invalidate(ctx, ev.SellerID)
	}
	slog.Info("payout status applied", "payout_id", ev.AggregateID, "status", status)
	return nil
}

func (c *Consumer) invalidate(ctx context.Context, userID string) {
	if err := c.cache.Del(ctx, redis.EarningsKey(userID)); err != nil {
		slog.Warn("failed to invalidate earnings cache", "user_id", userID, "error", err)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
