// Package service implements the marketplace use cases on top of the
// repositories, Redis, Kafka and the payment gateway.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka"
	"github.com/honeynil/BrrowMarketplace/internal/models"
)

func fail(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

// publish emits ev after the state change is committed. Delivery failures are
// logged and never undo the change.
func publish(ctx context.Context, producer kafka.KafkaProducer, topic string, ev models.Event) {
	if err := kafka.Publish(ctx, producer, topic, ev); err != nil {
		slog.Error("failed to publish event",
			"topic", topic,
			"event_type", ev.Type,
			"aggregate_id", ev.AggregateID,
			"error", err)
	}
}
