package repository

import (
	"context"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, id string) (*models.PaymentIntent, error)
}
