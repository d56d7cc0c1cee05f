package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/observability"
	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type KafkaProducer interface {
	Send(ctx context.Context, topic string, key string, value []byte) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		Async:                  true,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer}
}

func (p *Producer) Send(ctx context.Context, topic string, key string, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("failed to send Kafka message", "topic", topic, "key", key, "error", err)
		return err
	}
	slog.Info("Kafka message sent", "topic", topic, "key", key)
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		slog.Error("failed to close Kafka writer", "error", err)
		return err
	}
	slog.Info("Kafka writer closed")
	return nil
}

// Publish sends ev keyed by its aggregate so that events for one purchase,
// meetup or offer stay ordered within a partition.
func Publish(ctx context.Context, p KafkaProducer, topic string, ev models.Event) error {
	status := "success"
	defer func() {
		observability.EventsPublished.WithLabelValues(topic, status).Inc()
	}()

	value, err := json.Marshal(ev)
	if err != nil {
		status = "error"
		return fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
	}
	if err := p.Send(ctx, topic, ev.AggregateID, value); err != nil {
		status = "error"
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}
	return nil
}
