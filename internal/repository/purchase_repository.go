package repository

import (
	"context"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type PurchaseRepository interface {
	// CreateFromIntent inserts p and marks the payment intent confirmed in one
	// transaction. A second confirmation of the same intent fails with
	// ErrRequestAlreadyProcessed.
	CreateFromIntent(ctx context.Context, p *models.Purchase, intentID string) error
	GetByID(ctx context.Context, id string) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]models.Purchase, error)
	// Transition applies u only while the stored stage equals u.From and
	// returns the updated row. A lost race yields ErrStaleState.
	Transition(ctx context.Context, id string, u models.PurchaseUpdate) (*models.Purchase, error)
}
