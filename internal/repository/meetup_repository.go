package repository

import (
	"context"
	"time"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type MeetupRepository interface {
	Create(ctx context.Context, meetup *models.Meetup) error
	GetByID(ctx context.Context, id string) (*models.Meetup, error)
	ListByUser(ctx context.Context, userID string) ([]models.Meetup, error)
	// Update writes status and timestamps of meetup while the stored status equals
	// from. A lost race yields ErrStaleState.
	Update(ctx context.Context, meetup *models.Meetup, from models.MeetupStatus) error
	ExpireDue(ctx context.Context, now time.Time) ([]models.ExpiredMeetup, error)
}
