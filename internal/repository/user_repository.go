package repository

import (
	"context"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	SetPayoutsEnabled(ctx context.Context, id string, enabled bool) error
}
