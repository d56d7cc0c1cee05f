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

type PostgresMeetupRepository struct {
	db *sql.DB
}

func NewPostgresMeetupRepository(db *sql.DB) *PostgresMeetupRepository {
	return &PostgresMeetupRepository{db: db}
}

const meetupColumns = `id, purchase_id, buyer_id, seller_id, location_lat, location_lng, location_address,
	scheduled_time, status, buyer_arrived_at, seller_arrived_at, verified_at, notes, expires_at,
	created_at, updated_at`

func scanMeetup(row scanner) (*models.Meetup, error) {
	var (
		m        models.Meetup
		lat, lng sql.NullFloat64
		address  *string
	)
	err := row.Scan(
		&m.ID, &m.PurchaseID, &m.BuyerID, &m.SellerID, &lat, &lng, &address,
		&m.ScheduledTime, &m.Status, &m.BuyerArrivedAt, &m.SellerArrivedAt, &m.VerifiedAt, &m.Notes, &m.ExpiresAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		m.Location = &models.MeetupLocation{Latitude: lat.Float64, Longitude: lng.Float64, Address: address}
	}
	return &m, nil
}

func locationArgs(loc *models.MeetupLocation) (lat, lng sql.NullFloat64, address *string) {
	if loc == nil {
		return
	}
	return sql.NullFloat64{Float64: loc.Latitude, Valid: true}, sql.NullFloat64{Float64: loc.Longitude, Valid: true}, loc.Address
}

func (r *PostgresMeetupRepository) Create(ctx context.Context, m *models.Meetup) error {
	var err error
	ctx, span := otel.Tracer("meetup-repository").Start(ctx, "CreateMeetup")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "CreateMeetup", start, err) }()

	if m == nil || m.ID == "" || m.PurchaseID == "" {
		err = fmt.Errorf("%w: meetup id and purchase are required", pkgerrors.ErrInvalidInput)
		return err
	}
	span.SetAttributes(attribute.String("meetup_id", m.ID), attribute.String("purchase_id", m.PurchaseID))

	lat, lng, address := locationArgs(m.Location)
	query := `INSERT INTO meetups (id, purchase_id, buyer_id, seller_id, location_lat, location_lng, location_address,
		scheduled_time, status, notes, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		m.ID, m.PurchaseID, m.BuyerID, m.SellerID, lat, lng, address,
		m.ScheduledTime, m.Status, m.Notes, m.ExpiresAt,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		slog.Error("failed to create meetup", "method", "Create", "meetup_id", m.ID, "purchase_id", m.PurchaseID, "error", err)
		return fmt.Errorf("failed to create meetup: %w", err)
	}

	slog.Info("meetup created", "method", "Create", "meetup_id", m.ID, "purchase_id", m.PurchaseID)
	return nil
}

func (r *PostgresMeetupRepository) GetByID(ctx context.Context, id string) (*models.Meetup, error) {
	var err error
	ctx, span := otel.Tracer("meetup-repository").Start(ctx, "GetMeetupByID")
	span.SetAttributes(attribute.String("meetup_id", id))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "GetMeetupByID", start, err) }()

	var m *models.Meetup
	m, err = scanMeetup(r.db.QueryRowContext(ctx, `SELECT `+meetupColumns+` FROM meetups WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrMeetupNotFound
		slog.Warn("meetup not found", "method", "GetByID", "meetup_id", id)
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get meetup", "method", "GetByID", "meetup_id", id, "error", err)
		return nil, fmt.Errorf("failed to get meetup: %w", err)
	}
	return m, nil
}

func (r *PostgresMeetupRepository) ListByUser(ctx context.Context, userID string) ([]models.Meetup, error) {
	var err error
	ctx, span := otel.Tracer("meetup-repository").Start(ctx, "ListMeetupsByUser")
	span.SetAttributes(attribute.String("user_id", userID))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "ListMeetupsByUser", start, err) }()

	var rows *sql.Rows
	rows, err = r.db.QueryContext(ctx,
		`SELECT `+meetupColumns+` FROM meetups WHERE buyer_id = $1 OR seller_id = $1 ORDER BY scheduled_time DESC NULLS LAST`, userID)
	if err != nil {
		slog.Error("failed to list meetups", "method", "ListByUser", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list meetups: %w", err)
	}
	defer rows.Close()

	meetups := []models.Meetup{}
	for rows.Next() {
		var m *models.Meetup
		if m, err = scanMeetup(rows); err != nil {
			return nil, fmt.Errorf("failed to scan meetup: %w", err)
		}
		meetups = append(meetups, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meetups: %w", err)
	}
	return meetups, nil
}

func (r *PostgresMeetupRepository) Update(ctx context.Context, m *models.Meetup, from models.MeetupStatus) error {
	var err error
	ctx, span := otel.Tracer("meetup-repository").Start(ctx, "UpdateMeetup")
	span.SetAttributes(
		attribute.String("meetup_id", m.ID),
		attribute.String("from", string(from)),
		attribute.String("to", string(m.Status)),
	)
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "UpdateMeetup", start, err) }()

	query := `UPDATE meetups SET status = $1, buyer_arrived_at = $2, seller_arrived_at = $3, verified_at = $4, updated_at = $5
		WHERE id = $6 AND status = $7`
	var res sql.Result
	res, err = r.db.ExecContext(ctx, query,
		m.Status, m.BuyerArrivedAt, m.SellerArrivedAt, m.VerifiedAt, m.UpdatedAt, m.ID, from)
	if err != nil {
		slog.Error("failed to update meetup", "method", "Update", "meetup_id", m.ID, "error", err)
		return fmt.Errorf("failed to update meetup: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrStaleState
		slog.Warn("meetup status changed concurrently", "method", "Update", "meetup_id", m.ID, "expected", from)
		return err
	}

	slog.Info("meetup updated", "method", "Update", "meetup_id", m.ID, "from", from, "to", m.Status)
	return nil
}

func (r *PostgresMeetupRepository) ExpireDue(ctx context.Context, now time.Time) ([]models.ExpiredMeetup, error) {
	var err error
	ctx, span := otel.Tracer("meetup-repository").Start(ctx, "ExpireDueMeetups")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "ExpireDueMeetups", start, err) }()

	query := `UPDATE meetups SET status = 'EXPIRED', updated_at = $1
		WHERE status IN ('SCHEDULED', 'BUYER_ARRIVED', 'SELLER_ARRIVED', 'BOTH_ARRIVED')
		AND expires_at IS NOT NULL AND expires_at < $1
		RETURNING id, purchase_id`
	var rows *sql.Rows
	rows, err = r.db.QueryContext(ctx, query, now)
	if err != nil {
		slog.Error("failed to expire meetups", "method", "ExpireDue", "error", err)
		return nil, fmt.Errorf("failed to expire meetups: %w", err)
	}
	defer rows.Close()

	var expired []models.ExpiredMeetup
	for rows.Next() {
		var e models.ExpiredMeetup
		if err = rows.Scan(&e.ID, &e.PurchaseID); err != nil {
			return nil, fmt.Errorf("failed to scan expired meetup: %w", err)
		}
		expired = append(expired, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired meetups: %w", err)
	}

	span.SetAttributes(attribute.Int("expired", len(expired)))
	if len(expired) > 0 {
		slog.Info("meetups expired", "method", "ExpireDue", "count", len(expired))
	}
	return expired, nil
}
