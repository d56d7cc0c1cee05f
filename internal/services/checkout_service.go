package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/payments"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/pricing"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

const (
	requestKeyTTL   = 24 * time.Hour
	requestInFlight = "pending"
)

type CheckoutService interface {
	CreatePaymentIntent(ctx context.Context, buyerID string, in models.PaymentIntentInput) (*models.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, buyerID, intentID string) (*models.Purchase, error)
}

type checkoutService struct {
	listings  repository.ListingRepository
	users     repository.UserRepository
	offers    repository.OfferRepository
	intents   repository.PaymentIntentRepository
	purchases repository.PurchaseRepository
	gateway   payments.Gateway
	redis     redis.RedisClient
	producer  kafka.KafkaProducer
	currency  string
	now       func() time.Time
}

func NewCheckoutService(
	listings repository.ListingRepository,
	users repository.UserRepository,
	offers repository.OfferRepository,
	intents repository.PaymentIntentRepository,
	purchases repository.PurchaseRepository,
	gateway payments.Gateway,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
	currency string,
) *checkoutService {
	return &checkoutService{
		listings:  listings,
		users:     users,
		offers:    offers,
		intents:   intents,
		purchases: purchases,
		gateway:   gateway,
		redis:     redisClient,
		producer:  producer,
		currency:  currency,
		now:       time.Now,
	}
}

func displayID() string {
	return "BRW-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreatePaymentIntent prices the request from stored listing data and places a
// hold for that amount. A repeated request_id replays the first intent.
func (s *checkoutService) CreatePaymentIntent(ctx context.Context, buyerID string, in models.PaymentIntentInput) (*models.PaymentIntent, error) {
	ctx, span := otel.Tracer("checkout-service").Start(ctx, "CreatePaymentIntent")
	span.SetAttributes(
		attribute.String("listing_id", in.ListingID),
		attribute.String("transaction_type", string(in.TransactionType)),
	)
	defer span.End()

	var requestKey string
	if in.RequestID != "" {
		requestKey = redis.PaymentRequestKey(buyerID, in.RequestID)
		ok, err := s.redis.SetNX(ctx, requestKey, requestInFlight, requestKeyTTL)
		if err != nil {
			fail(span, err, "failed to set request key")
			slog.Error("failed to set request key", "request_id", in.RequestID, "error", err)
			return nil, fmt.Errorf("failed to set request key: %w", err)
		}
		if !ok {
			return s.replay(ctx, requestKey, in.RequestID)
		}
	}

	pi, err := s.createIntent(ctx, buyerID, in)
	if err != nil {
		fail(span, err, "payment intent failed")
		if requestKey != "" {
			if derr := s.redis.Del(ctx, requestKey); derr != nil {
				slog.Warn("failed to clear request key", "request_id", in.RequestID, "error", derr)
			}
		}
		return nil, err
	}

	if requestKey != "" {
		if err := s.redis.Set(ctx, requestKey, pi.TransactionID, requestKeyTTL); err != nil {
			slog.Warn("failed to record request outcome", "request_id", in.RequestID, "error", err)
		}
	}

	span.SetAttributes(attribute.String("payment_intent_id", pi.TransactionID))
	slog.Info("payment intent created",
		"payment_intent_id", pi.TransactionID,
		"buyer_id", buyerID,
		"seller_id", pi.SellerID,
		"amount", pi.Amount.StringFixed(2))
	return pi, nil
}

func (s *checkoutService) replay(ctx context.Context, requestKey, requestID string) (*models.PaymentIntent, error) {
	val, err := s.redis.Get(ctx, requestKey)
	if err != nil || val == requestInFlight {
		slog.Warn("request already processed", "request_id", requestID, "status", val)
		return nil, pkgerrors.ErrRequestAlreadyProcessed
	}
	pi, err := s.intents.GetByID(ctx, val)
	if err != nil {
		return nil, err
	}
	slog.Info("payment intent replayed", "request_id", requestID, "payment_intent_id", pi.TransactionID)
	return pi, nil
}

func (s *checkoutService) createIntent(ctx context.Context, buyerID string, in models.PaymentIntentInput) (*models.PaymentIntent, error) {
	if in.ListingID == "" {
		return nil, fmt.Errorf("%w: listing is required", pkgerrors.ErrInvalidInput)
	}
	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if in.SellerID != "" && in.SellerID != listing.OwnerID {
		return nil, fmt.Errorf("%w: seller does not own listing %s", pkgerrors.ErrInvalidInput, listing.ID)
	}
	if listing.OwnerID == buyerID {
		return nil, pkgerrors.ErrOwnListing
	}

	seller, err := s.users.GetByID(ctx, listing.OwnerID)
	if err != nil {
		return nil, err
	}
	if !seller.PayoutsEnabled {
		slog.Warn("seller has not completed onboarding", "seller_id", seller.ID, "listing_id", listing.ID)
		return nil, pkgerrors.ErrSellerOnboardingRequired
	}

	amount, err := s.price(ctx, buyerID, listing, in)
	if err != nil {
		return nil, err
	}

	delivery := in.DeliveryMethod
	if delivery == "" {
		delivery = models.DeliveryPickup
	}

	hold, err := s.gateway.CreateIntent(ctx, buyerID, amount, s.currency)
	if err != nil {
		slog.Error("failed to create payment hold", "buyer_id", buyerID, "error", err)
		return nil, fmt.Errorf("failed to create payment hold: %w", err)
	}

	pi := &models.PaymentIntent{
		TransactionID:               hold.ID,
		BuyerID:                     buyerID,
		SellerID:                    listing.OwnerID,
		ListingID:                   listing.ID,
		Type:                        in.TransactionType,
		Amount:                      amount,
		RentalStart:                 in.RentalStartDate,
		RentalEnd:                   in.RentalEndDate,
		DeliveryMethod:              delivery,
		BuyerMessage:                in.BuyerMessage,
		IncludeInsurance:            in.IncludeInsurance,
		OfferID:                     in.OfferID,
		ClientSecret:                hold.ClientSecret,
		CustomerSessionClientSecret: hold.CustomerSessionClientSecret,
		CustomerID:                  hold.CustomerID,
		Status:                      models.IntentCreated,
	}
	if err := s.intents.Create(ctx, pi); err != nil {
		if cerr := s.gateway.Cancel(ctx, hold.ID); cerr != nil {
			slog.Error("failed to release unused payment hold", "payment_intent_id", hold.ID, "error", cerr)
		}
		return nil, err
	}
	return pi, nil
}

// price is the authoritative amount for the request. Client-side quotes are
// never trusted.
func (s *checkoutService) price(ctx context.Context, buyerID string, listing *models.Listing, in models.PaymentIntentInput) (decimal.Decimal, error) {
	switch in.TransactionType {
	case models.PurchaseTypeBuyNow:
		if !listing.Price.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: listing %s is not for sale", pkgerrors.ErrInvalidInput, listing.ID)
		}
		return listing.Price, nil

	case models.PurchaseTypeRental:
		if in.RentalStartDate == nil || in.RentalEndDate == nil {
			return decimal.Zero, fmt.Errorf("%w: rental dates are required", pkgerrors.ErrInvalidInput)
		}
		if in.RentalEndDate.Before(*in.RentalStartDate) {
			return decimal.Zero, fmt.Errorf("%w: rental end is before start", pkgerrors.ErrInvalidInput)
		}
		if !listing.DailyRate.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: listing %s is not for rent", pkgerrors.ErrInvalidInput, listing.ID)
		}
		q := pricing.NewQuote(listing.DailyRate, *in.RentalStartDate, *in.RentalEndDate, in.IncludeInsurance)
		return q.TotalCost, nil

	case models.PurchaseTypeAcceptedOffer:
		if in.OfferID == nil || *in.OfferID == "" {
			return decimal.Zero, fmt.Errorf("%w: offer is required", pkgerrors.ErrInvalidInput)
		}
		offer, err := s.offers.GetByID(ctx, *in.OfferID)
		if err != nil {
			return decimal.Zero, err
		}
		if offer.ListingID != listing.ID || offer.SenderID != buyerID {
			return decimal.Zero, fmt.Errorf("%w: offer %s does not belong to this checkout", pkgerrors.ErrInvalidInput, offer.ID)
		}
		if offer.Status != models.OfferAccepted {
			return decimal.Zero, fmt.Errorf("%w: offer is %s", pkgerrors.ErrInvalidInput, offer.Status)
		}
		return offer.Amount, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown transaction type %q", pkgerrors.ErrInvalidInput, in.TransactionType)
}

// ConfirmPayment turns a completed payment sheet into a purchase awaiting the
// seller. Confirming the same intent twice returns the same purchase.
func (s *checkoutService) ConfirmPayment(ctx context.Context, buyerID, intentID string) (*models.Purchase, error) {
	ctx, span := otel.Tracer("checkout-service").Start(ctx, "ConfirmPayment")
	span.SetAttributes(attribute.String("payment_intent_id", intentID))
	defer span.End()

	pi, err := s.intents.GetByID(ctx, intentID)
	if err != nil {
		fail(span, err, "payment intent lookup failed")
		return nil, err
	}
	if pi.BuyerID != buyerID {
		err = fmt.Errorf("%w: payment intent belongs to another buyer", pkgerrors.ErrForbidden)
		fail(span, err, "wrong buyer")
		return nil, err
	}
	if pi.Status == models.IntentConfirmed && pi.PurchaseID != nil {
		slog.Info("payment already confirmed", "payment_intent_id", intentID, "purchase_id", *pi.PurchaseID)
		return s.purchases.GetByID(ctx, *pi.PurchaseID)
	}

	listingID := pi.ListingID
	p := &models.Purchase{
		ID:              uuid.NewString(),
		DisplayID:       displayID(),
		BuyerID:         pi.BuyerID,
		SellerID:        pi.SellerID,
		ListingID:       &listingID,
		Type:            pi.Type,
		Amount:          pi.Amount,
		PaymentIntentID: pi.TransactionID,
		PaymentStatus:   models.PaymentHeld,
		Stage:           models.StagePendingSellerConfirmation,
		RentalStart:     pi.RentalStart,
		RentalEnd:       pi.RentalEnd,
		DeliveryMethod:  pi.DeliveryMethod,
		BuyerMessage:    pi.BuyerMessage,
	}
	if err := s.purchases.CreateFromIntent(ctx, p, intentID); err != nil {
		if stderrors.Is(err, pkgerrors.ErrRequestAlreadyProcessed) {
			// A concurrent confirmation won the race.
			if again, gerr := s.intents.GetByID(ctx, intentID); gerr == nil && again.PurchaseID != nil {
				return s.purchases.GetByID(ctx, *again.PurchaseID)
			}
		}
		fail(span, err, "purchase creation failed")
		slog.Error("failed to confirm payment", "payment_intent_id", intentID, "error", err)
		return nil, err
	}

	publish(ctx, s.producer, models.TopicPurchases, purchaseEvent(models.EventPurchaseCreated, p, buyerID, p.CreatedAt))
	slog.Info("payment confirmed",
		"payment_intent_id", intentID,
		"purchase_id", p.ID,
		"display_id", p.DisplayID,
		"amount", p.Amount.StringFixed(2))
	return p, nil
}
