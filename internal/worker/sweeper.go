// Package worker runs background jobs alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	stderrors "errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/observability"
	"github.com/honeynil/BrrowMarketplace/internal/lifecycle"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

// Sweeper expires meetups and offers whose deadline has passed. A purchase
// whose current meetup expires goes back to AWAITING_MEETUP.
type Sweeper struct {
	meetups   repository.MeetupRepository
	offers    repository.OfferRepository
	purchases repository.PurchaseRepository
	producer  kafka.KafkaProducer
	interval  time.Duration
	now       func() time.Time
}

func NewSweeper(
	meetups repository.MeetupRepository,
	offers repository.OfferRepository,
	purchases repository.PurchaseRepository,
	producer kafka.KafkaProducer,
	interval time.Duration,
) *Sweeper {
	return &Sweeper{
		meetups:   meetups,
		offers:    offers,
		purchases: purchases,
		producer:  producer,
		interval:  interval,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		slog.Info("sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	ctx, span := otel.Tracer("sweeper").Start(ctx, "Sweep")
	defer span.End()

	now := s.now().UTC()
	meetups := s.expireMeetups(ctx, now)
	offers := s.expireOffers(ctx, now)
	span.SetAttributes(attribute.Int("meetups_expired", meetups), attribute.Int("offers_expired", offers))
}

func (s *Sweeper) expireMeetups(ctx context.Context, now time.Time) int {
	expired, err := s.meetups.ExpireDue(ctx, now)
	if err != nil {
		slog.Error("failed to expire meetups", "error", err)
		return 0
	}

	for _, m := range expired {
		observability.SweeperExpired.WithLabelValues("meetup").Inc()

		ev := models.Event{
			Type:        models.EventMeetupExpired,
			AggregateID: m.ID,
			Status:      string(models.MeetupExpired),
			OccurredAt:  now,
		}
		p, err := s.releasePurchase(ctx, m, now)
		if err != nil {
			slog.Error("failed to release purchase of expired meetup", "meetup_id", m.ID, "purchase_id", m.PurchaseID, "error", err)
		}
		if p != nil {
			ev.BuyerID, ev.SellerID = p.BuyerID, p.SellerID
		}
		s.publish(ctx, models.TopicMeetups, ev)
	}
	return len(expired)
}

// releasePurchase returns the purchase that referenced m to AWAITING_MEETUP.
// Purchases that already moved on are left alone.
func (s *Sweeper) releasePurchase(ctx context.Context, m models.ExpiredMeetup, now time.Time) (*models.Purchase, error) {
	p, err := s.purchases.GetByID(ctx, m.PurchaseID)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrPurchaseNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if p.Stage != models.StageMeetupScheduled || p.MeetupID == nil || *p.MeetupID != m.ID {
		return p, nil
	}

	u, err := lifecycle.Plan(p, lifecycle.EventMeetupExpired, now, "")
	if err != nil {
		return p, err
	}
	updated, err := s.purchases.Transition(ctx, p.ID, u)
	if stderrors.Is(err, pkgerrors.ErrStaleState) {
		slog.Warn("purchase changed while its meetup expired", "purchase_id", p.ID, "meetup_id", m.ID)
		return p, nil
	}
	if err != nil {
		return p, err
	}
	slog.Info("purchase returned to awaiting meetup", "purchase_id", p.ID, "meetup_id", m.ID)
	return updated, nil
}

func (s *Sweeper) expireOffers(ctx context.Context, now time.Time) int {
	ids, err := s.offers.ExpireDue(ctx, now)
	if err != nil {
		slog.Error("failed to expire offers", "error", err)
		return 0
	}
	for _, id := range ids {
		observability.SweeperExpired.WithLabelValues("offer").Inc()
		s.publish(ctx, models.TopicOffers, models.Event{
			Type:        models.EventOfferExpired,
			AggregateID: id,
			Status:      string(models.OfferExpired),
			OccurredAt:  now,
		})
	}
	return len(ids)
}

func (s *Sweeper) publish(ctx context.Context, topic string, ev models.Event) {
	if err := kafka.Publish(ctx, s.producer, topic, ev); err != nil {
		slog.Error("failed to publish expiry event", "topic", topic, "aggregate_id", ev.AggregateID, "error", err)
	}
}
