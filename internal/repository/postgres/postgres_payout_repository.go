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

type PostgresPayoutRepository struct {
	db *sql.DB
}

func NewPostgresPayoutRepository(db *sql.DB) *PostgresPayoutRepository {
	return &PostgresPayoutRepository{db: db}
}

func (r *PostgresPayoutRepository) Create(ctx context.Context, p *models.Payout) error {
	var err error
	ctx, span := otel.Tracer("payout-repository").Start(ctx, "CreatePayout")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "CreatePayout", start, err) }()

	if p == nil || p.ID == "" || p.UserID == "" {
		err = fmt.Errorf("%w: payout id and user are required", pkgerrors.ErrInvalidInput)
		return err
	}
	span.SetAttributes(attribute.String("payout_id", p.ID), attribute.String("user_id", p.UserID))

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO payouts (id, user_id, amount, method, status) VALUES ($1, $2, $3, $4, $5) RETURNING requested_at`,
		p.ID, p.UserID, p.Amount, p.Method, p.Status,
	).Scan(&p.RequestedAt)
	if err != nil {
		slog.Error("failed to create payout", "method", "Create", "user_id", p.UserID, "error", err)
		return fmt.Errorf("failed to create payout: %w", err)
	}

	slog.Info("payout created", "method", "Create", "payout_id", p.ID, "user_id", p.UserID, "amount", p.Amount.StringFixed(2))
	return nil
}

func (r *PostgresPayoutRepository) ListByUser(ctx context.Context, userID string) ([]models.Payout, error) {
	var err error
	ctx, span := otel.Tracer("payout-repository").Start(ctx, "ListPayoutsByUser")
	span.SetAttributes(attribute.String("user_id", userID))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "ListPayoutsByUser", start, err) }()

	var rows *sql.Rows
	rows, err = r.db.QueryContext(ctx,
		`SELECT id, user_id, amount, method, status, requested_at, processed_at FROM payouts WHERE user_id = $1 ORDER BY requested_at DESC`,
		userID)
	if err != nil {
		slog.Error("failed to list payouts", "method", "ListByUser", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	payouts := []models.Payout{}
	for rows.Next() {
		var p models.Payout
		if err = rows.Scan(&p.ID, &p.UserID, &p.Amount, &p.Method, &p.Status, &p.RequestedAt, &p.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payouts: %w", err)
	}
	return payouts, nil
}

func (r *PostgresPayoutRepository) UpdateStatus(ctx context.Context, id string, status models.PayoutStatus, processedAt *time.Time) error {
	var err error
	ctx, span := otel.Tracer("payout-repository").Start(ctx, "UpdatePayoutStatus")
	span.SetAttributes(attribute.String("payout_id", id), attribute.String("status", string(status)))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "UpdatePayoutStatus", start, err) }()

	var res sql.Result
	res, err = r.db.ExecContext(ctx,
		`UPDATE payouts SET status = $1, processed_at = COALESCE($2, processed_at) WHERE id = $3`,
		status, processedAt, id)
	if err != nil {
		slog.Error("failed to update payout", "method", "UpdateStatus", "payout_id", id, "error", err)
		return fmt.Errorf("failed to update payout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrPayoutNotFound
		return err
	}
	slog.Info("payout status updated", "method", "UpdateStatus", "payout_id", id, "status", status)
	return nil
}
