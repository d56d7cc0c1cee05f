package repository

import (
	"context"
	"time"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type PayoutRepository interface {
	Create(ctx context.Context, p *models.Payout) error
	ListByUser(ctx context.Context, userID string) ([]models.Payout, error)
	UpdateStatus(ctx context.Context, id string, status models.PayoutStatus, processedAt *time.Time) error
}
