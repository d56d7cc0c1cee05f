package repository

import (
	"context"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id string) (*models.Listing, error)
}
