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

type PostgresOfferRepository struct {
	db *sql.DB
}

func NewPostgresOfferRepository(db *sql.DB) *PostgresOfferRepository {
	return &PostgresOfferRepository{db: db}
}

// offerSelect joins in the listing title and both usernames.
const offerSelect = `SELECT o.id, o.listing_id, l.title, o.sender_id, s.username, o.recipient_id, rc.username,
	o.amount, o.duration, o.message, o.status, o.expires_at, o.created_at, o.updated_at
	FROM offers o
	JOIN listings l ON l.id = o.listing_id
	JOIN users s ON s.id = o.sender_id
	JOIN users rc ON rc.id = o.recipient_id`

func scanOffer(row scanner) (*models.Offer, error) {
	var (
		o        models.Offer
		duration sql.NullInt64
	)
	err := row.Scan(
		&o.ID, &o.ListingID, &o.ListingTitle, &o.SenderID, &o.SenderName, &o.RecipientID, &o.RecipientName,
		&o.Amount, &duration, &o.Message, &o.Status, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		o.DurationDays = &d
	}
	return &o, nil
}

func (r *PostgresOfferRepository) Create(ctx context.Context, o *models.Offer) error {
	var err error
	ctx, span := otel.Tracer("offer-repository").Start(ctx, "CreateOffer")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "CreateOffer", start, err) }()

	if o == nil || o.ID == "" || o.ListingID == "" {
		err = fmt.Errorf("%w: offer id and listing are required", pkgerrors.ErrInvalidInput)
		return err
	}
	span.SetAttributes(attribute.String("offer_id", o.ID), attribute.String("listing_id", o.ListingID))

	var duration sql.NullInt64
	if o.DurationDays != nil {
		duration = sql.NullInt64{Int64: int64(*o.DurationDays), Valid: true}
	}
	query := `INSERT INTO offers (id, listing_id, sender_id, recipient_id, amount, duration, message, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		o.ID, o.ListingID, o.SenderID, o.RecipientID, o.Amount, duration, o.Message, o.Status, o.ExpiresAt,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		slog.Error("failed to create offer", "method", "Create", "offer_id", o.ID, "error", err)
		return fmt.Errorf("failed to create offer: %w", err)
	}

	slog.Info("offer created", "method", "Create", "offer_id", o.ID, "listing_id", o.ListingID, "sender_id", o.SenderID)
	return nil
}

func (r *PostgresOfferRepository) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	var err error
	ctx, span := otel.Tracer("offer-repository").Start(ctx, "GetOfferByID")
	span.SetAttributes(attribute.String("offer_id", id))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "GetOfferByID", start, err) }()

	var o *models.Offer
	o, err = scanOffer(r.db.QueryRowContext(ctx, offerSelect+` WHERE o.id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrOfferNotFound
		slog.Warn("offer not found", "method", "GetByID", "offer_id", id)
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get offer", "method", "GetByID", "offer_id", id, "error", err)
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return o, nil
}

func (r *PostgresOfferRepository) list(ctx context.Context, method, where, userID string) ([]models.Offer, error) {
	var err error
	ctx, span := otel.Tracer("offer-repository").Start(ctx, method)
	span.SetAttributes(attribute.String("user_id", userID))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, method, start, err) }()

	var rows *sql.Rows
	rows, err = r.db.QueryContext(ctx, offerSelect+` WHERE `+where+` ORDER BY o.created_at DESC`, userID)
	if err != nil {
		slog.Error("failed to list offers", "method", method, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	offers := []models.Offer{}
	for rows.Next() {
		var o *models.Offer
		if o, err = scanOffer(rows); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}
	return offers, nil
}

func (r *PostgresOfferRepository) ListByRecipient(ctx context.Context, userID string) ([]models.Offer, error) {
	return r.list(ctx, "ListOffersByRecipient", "o.recipient_id = $1", userID)
}

func (r *PostgresOfferRepository) ListBySender(ctx context.Context, userID string) ([]models.Offer, error) {
	return r.list(ctx, "ListOffersBySender", "o.sender_id = $1", userID)
}

func (r *PostgresOfferRepository) UpdateStatus(ctx context.Context, id string, from, to models.OfferStatus, now time.Time) (*models.Offer, error) {
	var err error
	ctx, span := otel.Tracer("offer-repository").Start(ctx, "UpdateOfferStatus")
	span.SetAttributes(
		attribute.String("offer_id", id),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "UpdateOfferStatus", start, err) }()

	var res sql.Result
	res, err = r.db.ExecContext(ctx, `UPDATE offers SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`, to, now, id, from)
	if err != nil {
		slog.Error("failed to update offer", "method", "UpdateStatus", "offer_id", id, "error", err)
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrStaleState
		slog.Warn("offer status changed concurrently", "method", "UpdateStatus", "offer_id", id, "expected", from)
		return nil, err
	}

	var o *models.Offer
	o, err = scanOffer(r.db.QueryRowContext(ctx, offerSelect+` WHERE o.id = $1`, id))
	if err != nil {
		slog.Error("failed to reload offer", "method", "UpdateStatus", "offer_id", id, "error", err)
		return nil, fmt.Errorf("failed to reload offer: %w", err)
	}

	slog.Info("offer updated", "method", "UpdateStatus", "offer_id", id, "from", from, "to", to)
	return o, nil
}

func (r *PostgresOfferRepository) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	var err error
	ctx, span := otel.Tracer("offer-repository").Start(ctx, "ExpireDueOffers")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "ExpireDueOffers", start, err) }()

	var rows *sql.Rows
	rows, err = r.db.QueryContext(ctx,
		`UPDATE offers SET status = 'expired', updated_at = $1
		WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at < $1
		RETURNING id`, now)
	if err != nil {
		slog.Error("failed to expire offers", "method", "ExpireDue", "error", err)
		return nil, fmt.Errorf("failed to expire offers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expired offer: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired offers: %w", err)
	}
	if len(ids) > 0 {
		slog.Info("offers expired", "method", "ExpireDue", "count", len(ids))
	}
	return ids, nil
}
