package repository

import (
	"context"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type EarningsRepository interface {
	// Credit records the seller's share of a completed purchase. It reports
	// false when the purchase was already credited.
	Credit(ctx context.Context, entry *models.EarningsEntry) (bool, error)
	Summary(ctx context.Context, sellerID string) (*models.EarningsSummary, error)
}
