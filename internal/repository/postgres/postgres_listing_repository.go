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

type PostgresListingRepository struct {
	db *sql.DB
}

func NewPostgresListingRepository(db *sql.DB) *PostgresListingRepository {
	return &PostgresListingRepository{db: db}
}

func (r *PostgresListingRepository) Create(ctx context.Context, l *models.Listing) error {
	var err error
	ctx, span := otel.Tracer("listing-repository").Start(ctx, "CreateListing")
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "CreateListing", start, err) }()

	if l == nil || l.ID == "" || l.OwnerID == "" || l.Title == "" {
		err = fmt.Errorf("%w: listing id, owner and title are required", pkgerrors.ErrInvalidInput)
		return err
	}
	if l.Status == "" {
		l.Status = models.ListingActive
	}
	span.SetAttributes(attribute.String("listing_id", l.ID), attribute.String("owner_id", l.OwnerID))

	query := `INSERT INTO listings (id, owner_id, title, price, daily_rate, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query, l.ID, l.OwnerID, l.Title, l.Price, l.DailyRate, l.Status).Scan(&l.CreatedAt)
	if err != nil {
		slog.Error("failed to create listing", "method", "Create", "listing_id", l.ID, "error", err)
		return fmt.Errorf("failed to create listing: %w", err)
	}
	slog.Info("listing created", "method", "Create", "listing_id", l.ID, "owner_id", l.OwnerID)
	return nil
}

func (r *PostgresListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var err error
	ctx, span := otel.Tracer("listing-repository").Start(ctx, "GetListingByID")
	span.SetAttributes(attribute.String("listing_id", id))
	defer span.End()
	start := time.Now()
	defer func() { observe(span, "GetListingByID", start, err) }()

	var l models.Listing
	query := `SELECT id, owner_id, title, price, daily_rate, status, created_at FROM listings WHERE id = $1`
	err = r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.OwnerID, &l.Title, &l.Price, &l.DailyRate, &l.Status, &l.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrListingNotFound
		slog.Warn("listing not found", "method", "GetByID", "listing_id", id)
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get listing", "method", "GetByID", "listing_id", id, "error", err)
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &l, nil
}
