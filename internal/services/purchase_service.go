package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	stderrors "errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/payments"
	"github.com/honeynil/BrrowMarketplace/internal/lifecycle"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/pricing"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type PurchaseService interface {
	List(ctx context.Context, userID string) ([]models.Purchase, error)
	GetDetails(ctx context.Context, userID, purchaseID string) (*models.PurchaseDetail, error)
	Accept(ctx context.Context, userID, purchaseID string) (*models.Purchase, error)
	Decline(ctx context.Context, userID, purchaseID, reason string) (*models.Purchase, error)
	Cancel(ctx context.Context, userID, purchaseID, reason string) (*models.Purchase, error)
}

type purchaseService struct {
	purchases repository.PurchaseRepository
	listings  repository.ListingRepository
	meetups   repository.MeetupRepository
	users     repository.UserRepository
	gateway   payments.Gateway
	producer  kafka.KafkaProducer
	fees      pricing.FeeSchedule
	now       func() time.Time
}

func NewPurchaseService(
	purchases repository.PurchaseRepository,
	listings repository.ListingRepository,
	meetups repository.MeetupRepository,
	users repository.UserRepository,
	gateway payments.Gateway,
	producer kafka.KafkaProducer,
	fees pricing.FeeSchedule,
) *purchaseService {
	return &purchaseService{
		purchases: purchases,
		listings:  listings,
		meetups:   meetups,
		users:     users,
		gateway:   gateway,
		producer:  producer,
		fees:      fees,
		now:       time.Now,
	}
}

// role reports whether userID is the buyer of p. Outsiders get ErrForbidden.
func role(p *models.Purchase, userID string) (isBuyer bool, err error) {
	switch userID {
	case p.BuyerID:
		return true, nil
	case p.SellerID:
		return false, nil
	}
	return false, fmt.Errorf("%w: not a party to purchase %s", pkgerrors.ErrForbidden, p.ID)
}

func purchaseEvent(t models.EventType, p *models.Purchase, actorID string, at time.Time) models.Event {
	amount := p.Amount
	return models.Event{
		Type:        t,
		AggregateID: p.ID,
		ActorID:     actorID,
		BuyerID:     p.BuyerID,
		SellerID:    p.SellerID,
		Amount:      &amount,
		Status:      string(p.Stage),
		OccurredAt:  at,
	}
}

func (s *purchaseService) List(ctx context.Context, userID string) ([]models.Purchase, error) {
	ctx, span := otel.Tracer("purchase-service").Start(ctx, "ListPurchases")
	defer span.End()

	purchases, err := s.purchases.ListByUser(ctx, userID)
	if err != nil {
		fail(span, err, "list purchases failed")
		return nil, err
	}
	slog.Info("purchases listed", "user_id", userID, "count", len(purchases))
	return purchases, nil
}

func (s *purchaseService) GetDetails(ctx context.Context, userID, purchaseID string) (*models.PurchaseDetail, error) {
	ctx, span := otel.Tracer("purchase-service").Start(ctx, "GetPurchaseDetails")
	span.SetAttributes(attribute.String("purchase_id", purchaseID))
	defer span.End()

	p, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		fail(span, err, "purchase lookup failed")
		return nil, err
	}
	isBuyer, err := role(p, userID)
	if err != nil {
		fail(span, err, "not a party")
		slog.Warn("purchase details requested by outsider", "purchase_id", purchaseID, "user_id", userID)
		return nil, err
	}

	detail := &models.PurchaseDetail{Purchase: *p, IsBuyer: isBuyer}

	otherID := p.BuyerID
	if isBuyer {
		otherID = p.SellerID
	}
	other, err := s.users.GetByID(ctx, otherID)
	switch {
	case err == nil:
		detail.OtherParty = other.Party()
	case !stderrors.Is(err, pkgerrors.ErrUserNotFound):
		fail(span, err, "other party lookup failed")
		return nil, err
	}

	if p.ListingID != nil {
		listing, err := s.listings.GetByID(ctx, *p.ListingID)
		switch {
		case err == nil:
			detail.Listing = listing.Summary()
		case !stderrors.Is(err, pkgerrors.ErrListingNotFound):
			fail(span, err, "listing lookup failed")
			return nil, err
		}
	}

	var meetup *models.Meetup
	if p.MeetupID != nil {
		meetup, err = s.meetups.GetByID(ctx, *p.MeetupID)
		switch {
		case err == nil:
			detail.Meetup = meetup.Summary()
		case stderrors.Is(err, pkgerrors.ErrMeetupNotFound):
			// The reference outlives the meetup; clients probe it and fall back to scheduling.
			slog.Warn("purchase references missing meetup", "purchase_id", p.ID, "meetup_id", *p.MeetupID)
			detail.Meetup = &models.MeetupSummary{ID: *p.MeetupID}
		default:
			fail(span, err, "meetup lookup failed")
			return nil, err
		}
	}

	detail.Timeline = lifecycle.BuildTimeline(p, meetup)
	detail.Receipt = s.fees.Receipt(p.Amount, !isBuyer)

	slog.Info("purchase details retrieved", "purchase_id", p.ID, "user_id", userID, "stage", p.Stage)
	return detail, nil
}

func (s *purchaseService) apply(ctx context.Context, p *models.Purchase, ev lifecycle.Event, reason string) (*models.Purchase, error) {
	u, err := lifecycle.Plan(p, ev, s.now().UTC(), reason)
	if err != nil {
		return nil, err
	}
	return s.purchases.Transition(ctx, p.ID, u)
}

func (s *purchaseService) Accept(ctx context.Context, userID, purchaseID string) (*models.Purchase, error) {
	ctx, span := otel.Tracer("purchase-service").Start(ctx, "AcceptPurchase")
	span.SetAttributes(attribute.String("purchase_id", purchaseID))
	defer span.End()

	p, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		fail(span, err, "purchase lookup failed")
		return nil, err
	}
	if p.SellerID != userID {
		err = fmt.Errorf("%w: only the seller can accept", pkgerrors.ErrForbidden)
		fail(span, err, "not the seller")
		return nil, err
	}

	updated, err := s.apply(ctx, p, lifecycle.EventAccept, "")
	if err != nil {
		fail(span, err, "accept failed")
		slog.Error("failed to accept purchase", "purchase_id", purchaseID, "stage", p.Stage, "error", err)
		return nil, err
	}

	publish(ctx, s.producer, models.TopicPurchases, purchaseEvent(models.EventPurchaseAccepted, updated, userID, updated.UpdatedAt))
	slog.Info("purchase accepted", "purchase_id", purchaseID, "seller_id", userID)
	return updated, nil
}

func (s *purchaseService) Decline(ctx context.Context, userID, purchaseID, reason string) (*models.Purchase, error) {
	ctx, span := otel.Tracer("purchase-service").Start(ctx, "DeclinePurchase")
	span.SetAttributes(attribute.String("purchase_id", purchaseID))
	defer span.End()

	p, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		fail(span, err, "purchase lookup failed")
		return nil, err
	}
	if p.SellerID != userID {
		err = fmt.Errorf("%w: only the seller can decline", pkgerrors.ErrForbidden)
		fail(span, err, "not the seller")
		return nil, err
	}

	updated, err := s.apply(ctx, p, lifecycle.EventDecline, reason)
	if err != nil {
		fail(span, err, "decline failed")
		slog.Error("failed to decline purchase", "purchase_id", purchaseID, "stage", p.Stage, "error", err)
		return nil, err
	}

	s.releaseHold(ctx, updated)
	publish(ctx, s.producer, models.TopicPurchases, purchaseEvent(models.EventPurchaseDeclined, updated, userID, updated.UpdatedAt))
	slog.Info("purchase declined", "purchase_id", purchaseID, "seller_id", userID)
	return updated, nil
}

// Cancel is idempotent: cancelling an already cancelled purchase returns it
// unchanged.
func (s *purchaseService) Cancel(ctx context.Context, userID, purchaseID, reason string) (*models.Purchase, error) {
	ctx, span := otel.Tracer("purchase-service").Start(ctx, "CancelPurchase")
	span.SetAttributes(attribute.String("purchase_id", purchaseID))
	defer span.End()

	p, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		fail(span, err, "purchase lookup failed")
		return nil, err
	}
	if _, err := role(p, userID); err != nil {
		fail(span, err, "not a party")
		return nil, err
	}
	if p.Stage == models.StageCancelled {
		slog.Info("purchase already cancelled", "purchase_id", purchaseID, "user_id", userID)
		return p, nil
	}

	updated, err := s.apply(ctx, p, lifecycle.EventCancel, reason)
	if err != nil {
		fail(span, err, "cancel failed")
		slog.Error("failed to cancel purchase", "purchase_id", purchaseID, "stage", p.Stage, "payment_status", p.PaymentStatus, "error", err)
		return nil, err
	}

	s.releaseHold(ctx, updated)
	s.cancelMeetup(ctx, updated)
	publish(ctx, s.producer, models.TopicPurchases, purchaseEvent(models.EventPurchaseCancelled, updated, userID, updated.UpdatedAt))
	slog.Info("purchase cancelled", "purchase_id", purchaseID, "user_id", userID)
	return updated, nil
}

// releaseHold returns held funds to the buyer. The purchase is already
// cancelled, so a gateway failure is only logged for reconciliation.
func (s *purchaseService) releaseHold(ctx context.Context, p *models.Purchase) {
	if p.PaymentIntentID == "" {
		return
	}
	if err := s.gateway.Cancel(ctx, p.PaymentIntentID); err != nil {
		slog.Error("failed to release payment hold", "purchase_id", p.ID, "payment_intent_id", p.PaymentIntentID, "error", err)
	}
}

func (s *purchaseService) cancelMeetup(ctx context.Context, p *models.Purchase) {
	if p.MeetupID == nil {
		return
	}
	m, err := s.meetups.GetByID(ctx, *p.MeetupID)
	if err != nil {
		if !stderrors.Is(err, pkgerrors.ErrMeetupNotFound) {
			slog.Error("failed to load meetup of cancelled purchase", "purchase_id", p.ID, "meetup_id", *p.MeetupID, "error", err)
		}
		return
	}
	if !m.Status.Active() {
		return
	}
	from := m.Status
	m.Status = models.MeetupCancelled
	m.UpdatedAt = p.UpdatedAt
	if err := s.meetups.Update(ctx, m, from); err != nil {
		slog.Error("failed to cancel meetup of cancelled purchase", "purchase_id", p.ID, "meetup_id", m.ID, "error", err)
	}
}
