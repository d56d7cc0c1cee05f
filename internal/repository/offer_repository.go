package repository

import (
	"context"
	"time"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type OfferRepository interface {
	Create(ctx context.Context, o *models.Offer) error
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	ListByRecipient(ctx context.Context, userID string) ([]models.Offer, error)
	ListBySender(ctx context.Context, userID string) ([]models.Offer, error)
	// UpdateStatus moves the offer from one status to another. A lost race
	// yields ErrStaleState.
	UpdateStatus(ctx context.Context, id string, from, to models.OfferStatus, now time.Time) (*models.Offer, error)
	ExpireDue(ctx context.Context, now time.Time) ([]string, error)
}
