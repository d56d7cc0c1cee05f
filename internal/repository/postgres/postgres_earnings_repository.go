package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type PostgresEarningsRepository struct {
	db *sql.DB
}

func NewPostgresEarningsRepository(db *sql.DB) *PostgresEarningsRepository {
	return &PostgresEarningsRepository{db: db}
}

func (r *PostgresEarningsRepository) Credit(ctx context.Context, e *models.EarningsEntry) (bool, error) {
	var err error
	ctx, span := otel.Tracer("earnings-repository").Start(ctx, "CreditEarnings")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "CreditEarnings", start, err) }()

	if e == nil || e.SellerID == "" || e.PurchaseID == "" {
		err = fmt.Errorf("%w: seller and purchase are required", pkgerrors.ErrInvalidInput)
		return false, err
	}
	span.SetAttributes(attribute.String("seller_id", e.SellerID), attribute.String("purchase_id", e.PurchaseID))

	var res sql.Result
	res, err = r.db.ExecContext(ctx,
		`INSERT INTO earnings (id, seller_id, purchase_id, amount, created_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (purchase_id) DO NOTHING`,
		e.ID, e.SellerID, e.PurchaseID, e.Amount, e.CreatedAt)
	if err != nil {
		slog.Error("failed to credit earnings", "method", "Credit", "purchase_id", e.PurchaseID, "error", err)
		return false, fmt.Errorf("failed to credit earnings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *PostgresEarningsRepository) Summary(ctx context.Context, sellerID string) (*models.EarningsSummary, error) {
	var err error
	ctx, span := otel.Tracer("earnings-repository").Start(ctx, "GetEarningsSummary")
	span.SetAttributes(attribute.String("seller_id", sellerID))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "GetEarningsSummary", start, err) }()

	// Failed payouts return to the available balance.
	query := `
		SELECT
			COALESCE((SELECT SUM(amount) FROM earnings WHERE seller_id = $1), 0),
			COALESCE((SELECT SUM(amount) FROM payouts WHERE user_id = $1 AND status <> 'failed'), 0),
			COALESCE((SELECT SUM(amount) FROM purchases WHERE seller_id = $1 AND payment_status = 'HELD'), 0)
	`
	var s models.EarningsSummary
	err = r.db.QueryRowContext(ctx, query, sellerID).Scan(&s.TotalEarned, &s.TotalWithdrawn, &s.PendingBalance)
	if err != nil {
		slog.Error("failed to get earnings summary", "method", "Summary", "seller_id", sellerID, "error", err)
		return nil, fmt.Errorf("failed to get earnings summary: %w", err)
	}
	s.AvailableBalance = s.TotalEarned.Sub(s.TotalWithdrawn)

	slog.Info("earnings summary retrieved", "method", "Summary", "seller_id", sellerID, "available", s.AvailableBalance.StringFixed(2))
	return &s, nil
}
