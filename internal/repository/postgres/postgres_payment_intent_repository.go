package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type PostgresPaymentIntentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentIntentRepository(db *sql.DB) *PostgresPaymentIntentRepository {
	return &PostgresPaymentIntentRepository{db: db}
}

func (r *PostgresPaymentIntentRepository) Create(ctx context.Context, pi *models.PaymentIntent) error {
	var err error
	ctx, span := otel.Tracer("payment-intent-repository").Start(ctx, "CreatePaymentIntent")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "CreatePaymentIntent", start, err) }()

	if pi == nil || pi.TransactionID == "" {
		err = fmt.Errorf("%w: payment intent id is required", pkgerrors.ErrInvalidInput)
		return err
	}
	if pi.Status == "" {
		pi.Status = models.IntentCreated
	}
	span.SetAttributes(attribute.String("payment_intent_id", pi.TransactionID), attribute.String("buyer_id", pi.BuyerID))

	query := `INSERT INTO payment_intents (id, buyer_id, seller_id, listing_id, purchase_type, amount, rental_start, rental_end,
		delivery_method, buyer_message, include_insurance, offer_id, client_secret, customer_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		pi.TransactionID, pi.BuyerID, pi.SellerID, pi.ListingID, pi.Type, pi.Amount, pi.RentalStart, pi.RentalEnd,
		pi.DeliveryMethod, pi.BuyerMessage, pi.IncludeInsurance, pi.OfferID, pi.ClientSecret, pi.CustomerID, pi.Status,
	).Scan(&pi.CreatedAt)
	if err != nil {
		slog.Error("failed to create payment intent", "method", "Create", "payment_intent_id", pi.TransactionID, "error", err)
		return fmt.Errorf("failed to create payment intent: %w", err)
	}

	slog.Info("payment intent stored", "method", "Create", "payment_intent_id", pi.TransactionID, "amount", pi.Amount.StringFixed(2))
	return nil
}

func (r *PostgresPaymentIntentRepository) GetByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var err error
	ctx, span := otel.Tracer("payment-intent-repository").Start(ctx, "GetPaymentIntentByID")
	span.SetAttributes(attribute.String("payment_intent_id", id))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "GetPaymentIntentByID", start, err) }()

	var pi models.PaymentIntent
	query := `SELECT id, buyer_id, seller_id, listing_id, purchase_type, amount, rental_start, rental_end,
		delivery_method, buyer_message, include_insurance, offer_id, client_secret, customer_id, status,
		purchase_id, created_at
		FROM payment_intents WHERE id = $1`
	err = r.db.QueryRowContext(ctx, query, id).Scan(
		&pi.TransactionID, &pi.BuyerID, &pi.SellerID, &pi.ListingID, &pi.Type, &pi.Amount, &pi.RentalStart, &pi.RentalEnd,
		&pi.DeliveryMethod, &pi.BuyerMessage, &pi.IncludeInsurance, &pi.OfferID, &pi.ClientSecret, &pi.CustomerID, &pi.Status,
		&pi.PurchaseID, &pi.CreatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrPaymentIntentNotFound
		slog.Warn("payment intent not found", "method", "GetByID", "payment_intent_id", id)
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get payment intent", "method", "GetByID", "payment_intent_id", id, "error", err)
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return &pi, nil
}
