package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/repository"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type ListingService interface {
	Create(ctx context.Context, ownerID string, in models.CreateListingInput) (*models.Listing, error)
	Get(ctx context.Context, listingID string) (*models.Listing, error)
}

type listingService struct {
	listings repository.ListingRepository
}

func NewListingService(listings repository.ListingRepository) *listingService {
	return &listingService{listings: listings}
}

func (s *listingService) Create(ctx context.Context, ownerID string, in models.CreateListingInput) (*models.Listing, error) {
	ctx, span := otel.Tracer("listing-service").Start(ctx, "CreateListing")
	defer span.End()

	title := strings.TrimSpace(in.Title)
	if title == "" || in.Price.IsNegative() || in.DailyRate.IsNegative() || (in.Price.IsZero() && in.DailyRate.IsZero()) {
		err := fmt.Errorf("%w: a title and a price or daily rate are required", pkgerrors.ErrInvalidInput)
		fail(span, err, "invalid listing")
		return nil, err
	}

	listing := &models.Listing{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Price:     in.Price,
		DailyRate: in.DailyRate,
		Status:    models.ListingActive,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		fail(span, err, "listing creation failed")
		return nil, err
	}
	slog.Info("listing created", "listing_id", listing.ID, "owner_id", ownerID)
	return listing, nil
}

func (s *listingService) Get(ctx context.Context, listingID string) (*models.Listing, error) {
	ctx, span := otel.Tracer("listing-service").Start(ctx, "GetListing")
	defer span.End()

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		fail(span, err, "listing lookup failed")
		return nil, err
	}
	return listing, nil
}
