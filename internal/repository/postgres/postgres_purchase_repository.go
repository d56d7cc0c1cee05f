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

type PostgresPurchaseRepository struct {
	db *sql.DB
}

func NewPostgresPurchaseRepository(db *sql.DB) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{db: db}
}

const purchaseColumns = `id, display_id, buyer_id, seller_id, listing_id, purchase_type, amount, payment_intent_id,
	payment_status, stage, seller_confirmed, seller_confirmed_at, meetup_id, rental_start, rental_end,
	delivery_method, buyer_message, cancellation_reason, cancelled_at, captured_at, refunded_at,
	created_at, updated_at`

func scanPurchase(row scanner) (*models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(
		&p.ID, &p.DisplayID, &p.BuyerID, &p.SellerID, &p.ListingID, &p.Type, &p.Amount, &p.PaymentIntentID,
		&p.PaymentStatus, &p.Stage, &p.SellerConfirmed, &p.SellerConfirmedAt, &p.MeetupID, &p.RentalStart, &p.RentalEnd,
		&p.DeliveryMethod, &p.BuyerMessage, &p.CancellationReason, &p.CancelledAt, &p.CapturedAt, &p.RefundedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPurchaseRepository) CreateFromIntent(ctx context.Context, p *models.Purchase, intentID string) error {
	var err error
	ctx, span := otel.Tracer("purchase-repository").Start(ctx, "CreatePurchase")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "CreatePurchase", start, err) }()

	if p == nil {
		err = pkgerrors.ErrNilPurchase
		slog.Error("failed to create purchase", "method", "CreateFromIntent", "error", err)
		return err
	}
	if p.DeliveryMethod == "" {
		p.DeliveryMethod = models.DeliveryPickup
	}
	span.SetAttributes(
		attribute.String("purchase_id", p.ID),
		attribute.String("payment_intent_id", intentID),
		attribute.String("buyer_id", p.BuyerID),
		attribute.String("seller_id", p.SellerID),
	)

	var tx *sql.Tx
	tx, err = r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "CreateFromIntent", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE payment_intents SET status = 'confirmed', purchase_id = $1 WHERE id = $2 AND status = 'created'`,
		p.ID, intentID)
	if err != nil {
		err = rollback(tx, err)
		slog.Error("failed to confirm payment intent", "method", "CreateFromIntent", "payment_intent_id", intentID, "error", err)
		return fmt.Errorf("failed to confirm payment intent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = rollback(tx, pkgerrors.ErrRequestAlreadyProcessed)
		slog.Warn("payment intent already confirmed", "method", "CreateFromIntent", "payment_intent_id", intentID)
		return err
	}

	query := `INSERT INTO purchases (id, display_id, buyer_id, seller_id, listing_id, purchase_type, amount,
		payment_intent_id, payment_status, stage, rental_start, rental_end, delivery_method, buyer_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		p.ID, p.DisplayID, p.BuyerID, p.SellerID, p.ListingID, p.Type, p.Amount,
		intentID, p.PaymentStatus, p.Stage, p.RentalStart, p.RentalEnd, p.DeliveryMethod, p.BuyerMessage,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		err = rollback(tx, err)
		slog.Error("failed to insert purchase", "method", "CreateFromIntent", "purchase_id", p.ID, "error", err)
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	if err = tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "CreateFromIntent", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.PaymentIntentID = intentID
	slog.Info("purchase created", "method", "CreateFromIntent", "purchase_id", p.ID, "display_id", p.DisplayID, "stage", p.Stage)
	return nil
}

func (r *PostgresPurchaseRepository) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	var err error
	ctx, span := otel.Tracer("purchase-repository").Start(ctx, "GetPurchaseByID")
	span.SetAttributes(attribute.String("purchase_id", id))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "GetPurchaseByID", start, err) }()

	var p *models.Purchase
	p, err = scanPurchase(r.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrPurchaseNotFound
		slog.Warn("purchase not found", "method", "GetByID", "purchase_id", id)
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get purchase", "method", "GetByID", "purchase_id", id, "error", err)
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return p, nil
}

func (r *PostgresPurchaseRepository) ListByUser(ctx context.Context, userID string) ([]models.Purchase, error) {
	var err error
	ctx, span := otel.Tracer("purchase-repository").Start(ctx, "ListPurchasesByUser")
	span.SetAttributes(attribute.String("user_id", userID))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "ListPurchasesByUser", start, err) }()

	var rows *sql.Rows
	rows, err = r.db.QueryContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE buyer_id = $1 OR seller_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		slog.Error("failed to list purchases", "method", "ListByUser", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []models.Purchase{}
	for rows.Next() {
		var p *models.Purchase
		p, err = scanPurchase(rows)
		if err != nil {
			slog.Error("failed to scan purchase", "method", "ListByUser", "user_id", userID, "error", err)
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}
	return purchases, nil
}

func (r *PostgresPurchaseRepository) Transition(ctx context.Context, id string, u models.PurchaseUpdate) (*models.Purchase, error) {
	var err error
	ctx, span := otel.Tracer("purchase-repository").Start(ctx, "TransitionPurchase")
	span.SetAttributes(
		attribute.String("purchase_id", id),
		attribute.String("from", string(u.From)),
		attribute.String("to", string(u.Stage)),
	)
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "TransitionPurchase", start, err) }()

	query := `UPDATE purchases SET
		stage = $1,
		payment_status = $2,
		seller_confirmed = seller_confirmed OR $3,
		seller_confirmed_at = COALESCE($4, seller_confirmed_at),
		meetup_id = COALESCE($5, meetup_id),
		cancellation_reason = COALESCE($6, cancellation_reason),
		cancelled_at = COALESCE($7, cancelled_at),
		captured_at = COALESCE($8, captured_at),
		refunded_at = COALESCE($9, refunded_at),
		updated_at = $10
		WHERE id = $11 AND stage = $12
		RETURNING ` + purchaseColumns

	var p *models.Purchase
	p, err = scanPurchase(r.db.QueryRowContext(ctx, query,
		u.Stage, u.PaymentStatus, u.SellerConfirmedAt != nil, u.SellerConfirmedAt, u.MeetupID,
		u.CancellationReason, u.CancelledAt, u.CapturedAt, u.RefundedAt, u.UpdatedAt,
		id, u.From,
	))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrStaleState
		slog.Warn("purchase stage changed concurrently", "method", "Transition", "purchase_id", id, "expected", u.From)
		return nil, err
	}
	if err != nil {
		slog.Error("failed to transition purchase", "method", "Transition", "purchase_id", id, "error", err)
		return nil, fmt.Errorf("failed to transition purchase: %w", err)
	}

	slog.Info("purchase transitioned", "method", "Transition", "purchase_id", id, "from", u.From, "to", p.Stage, "payment_status", p.PaymentStatus)
	return p, nil
}
