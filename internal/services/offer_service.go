package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka"
	"github.com/honeynil/BrrowMarketplace/internal/lifecycle"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type OfferService interface {
	Create(ctx context.Context, userID string, in models.CreateOfferInput) (*models.Offer, error)
	List(ctx context.Context, userID string, box models.OfferBox) ([]models.Offer, error)
	Get(ctx context.Context, userID, offerID string) (*models.Offer, error)
	Accept(ctx context.Context, userID, offerID string) (*models.Offer, error)
	Reject(ctx context.Context, userID, offerID string) (*models.Offer, error)
	Cancel(ctx context.Context, userID, offerID string) (*models.Offer, error)
}

type offerService struct {
	offers   repository.OfferRepository
	listings repository.ListingRepository
	producer kafka.KafkaProducer
	ttl      time.Duration
	now      func() time.Time
}

// NewOfferService builds the negotiation service. A zero ttl means offers
// stay pending until someone acts on them.
func NewOfferService(offers repository.OfferRepository, listings repository.ListingRepository, producer kafka.KafkaProducer, ttl time.Duration) *offerService {
	return &offerService{
		offers:   offers,
		listings: listings,
		producer: producer,
		ttl:      ttl,
		now:      time.Now,
	}
}

var offerEvents = map[lifecycle.OfferEvent]models.EventType{
	lifecycle.OfferEventAccept: models.EventOfferAccepted,
	lifecycle.OfferEventReject: models.EventOfferRejected,
	lifecycle.OfferEventCancel: models.EventOfferCancelled,
}

func offerEvent(t models.EventType, o *models.Offer, actorID string) models.Event {
	amount := o.Amount
	return models.Event{
		Type:        t,
		AggregateID: o.ID,
		ActorID:     actorID,
		BuyerID:     o.SenderID,
		SellerID:    o.RecipientID,
		Amount:      &amount,
		Status:      string(o.Status),
		OccurredAt:  o.UpdatedAt,
	}
}

func (s *offerService) Create(ctx context.Context, userID string, in models.CreateOfferInput) (*models.Offer, error) {
	ctx, span := otel.Tracer("offer-service").Start(ctx, "CreateOffer")
	span.SetAttributes(attribute.String("listing_id", in.ListingID))
	defer span.End()

	switch {
	case in.ListingID == "":
		err := fmt.Errorf("%w: listing is required", pkgerrors.ErrInvalidInput)
		fail(span, err, "invalid offer")
		return nil, err
	case !in.Amount.IsPositive():
		err := fmt.Errorf("%w: amount must be greater than zero", pkgerrors.ErrInvalidInput)
		fail(span, err, "invalid offer")
		return nil, err
	case in.DurationDays != nil && *in.DurationDays <= 0:
		err := fmt.Errorf("%w: duration must be a positive number of days", pkgerrors.ErrInvalidInput)
		fail(span, err, "invalid offer")
		return nil, err
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		fail(span, err, "listing lookup failed")
		return nil, err
	}
	if listing.OwnerID == userID {
		fail(span, pkgerrors.ErrOwnListing, "own listing")
		return nil, pkgerrors.ErrOwnListing
	}

	o := &models.Offer{
		ID:           uuid.NewString(),
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		SenderID:     userID,
		RecipientID:  listing.OwnerID,
		Amount:       in.Amount,
		DurationDays: in.DurationDays,
		Message:      in.Message,
		Status:       models.OfferPending,
	}
	if s.ttl > 0 {
		expires := s.now().UTC().Add(s.ttl)
		o.ExpiresAt = &expires
	}
	if err := s.offers.Create(ctx, o); err != nil {
		fail(span, err, "offer creation failed")
		return nil, err
	}

	publish(ctx, s.producer, models.TopicOffers, offerEvent(models.EventOfferCreated, o, userID))
	slog.Info("offer created", "offer_id", o.ID, "listing_id", o.ListingID, "sender_id", userID, "amount", o.Amount.StringFixed(2))
	return o, nil
}

func (s *offerService) List(ctx context.Context, userID string, box models.OfferBox) ([]models.Offer, error) {
	ctx, span := otel.Tracer("offer-service").Start(ctx, "ListOffers")
	span.SetAttributes(attribute.String("box", string(box)))
	defer span.End()

	var (
		offers []models.Offer
		err    error
	)
	switch box {
	case models.OfferBoxReceived:
		offers, err = s.offers.ListByRecipient(ctx, userID)
	case models.OfferBoxSent:
		offers, err = s.offers.ListBySender(ctx, userID)
	default:
		err = fmt.Errorf("%w: unknown offer box %q", pkgerrors.ErrInvalidInput, box)
	}
	if err != nil {
		fail(span, err, "list offers failed")
		return nil, err
	}
	return offers, nil
}

func (s *offerService) Get(ctx context.Context, userID, offerID string) (*models.Offer, error) {
	ctx, span := otel.Tracer("offer-service").Start(ctx, "GetOffer")
	span.SetAttributes(attribute.String("offer_id", offerID))
	defer span.End()

	o, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		fail(span, err, "offer lookup failed")
		return nil, err
	}
	if userID != o.SenderID && userID != o.RecipientID {
		err = fmt.Errorf("%w: not a party to offer %s", pkgerrors.ErrForbidden, offerID)
		fail(span, err, "not a party")
		return nil, err
	}
	return o, nil
}

func (s *offerService) Accept(ctx context.Context, userID, offerID string) (*models.Offer, error) {
	return s.decide(ctx, "AcceptOffer", userID, offerID, lifecycle.OfferEventAccept)
}

func (s *offerService) Reject(ctx context.Context, userID, offerID string) (*models.Offer, error) {
	return s.decide(ctx, "RejectOffer", userID, offerID, lifecycle.OfferEventReject)
}

func (s *offerService) Cancel(ctx context.Context, userID, offerID string) (*models.Offer, error) {
	return s.decide(ctx, "CancelOffer", userID, offerID, lifecycle.OfferEventCancel)
}

// decide applies ev on behalf of userID. The recipient accepts or rejects;
// only the sender may cancel.
func (s *offerService) decide(ctx context.Context, op, userID, offerID string, ev lifecycle.OfferEvent) (*models.Offer, error) {
	ctx, span := otel.Tracer("offer-service").Start(ctx, op)
	span.SetAttributes(attribute.String("offer_id", offerID))
	defer span.End()

	o, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		fail(span, err, "offer lookup failed")
		return nil, err
	}

	actor := o.RecipientID
	if ev == lifecycle.OfferEventCancel {
		actor = o.SenderID
	}
	if userID != actor {
		err = fmt.Errorf("%w: cannot %s this offer", pkgerrors.ErrForbidden, ev)
		fail(span, err, "wrong party")
		slog.Warn("offer action refused", "offer_id", offerID, "user_id", userID, "action", ev)
		return nil, err
	}

	to, err := lifecycle.NextOffer(o.Status, ev)
	if err != nil {
		fail(span, err, "offer not pending")
		return nil, err
	}
	updated, err := s.offers.UpdateStatus(ctx, o.ID, o.Status, to, s.now().UTC())
	if err != nil {
		fail(span, err, "offer update failed")
		return nil, err
	}

	publish(ctx, s.producer, models.TopicOffers, offerEvent(offerEvents[ev], updated, userID))
	slog.Info("offer updated", "offer_id", offerID, "user_id", userID, "status", updated.Status)
	return updated, nil
}
