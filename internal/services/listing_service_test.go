package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	repositorymocks "github.com/honeynil/BrrowMarketplace/internal/repository/mocks"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func TestListingService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	listings := repositorymocks.NewMockListingRepository(ctrl)
	svc := NewListingService(listings)
	ctx := context.Background()

	t.Run("rental only listing", func(t *testing.T) {
		listings.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		l, err := svc.Create(ctx, "seller", models.CreateListingInput{Title: "  Drill ", DailyRate: decimal.NewFromInt(8)})
		require.NoError(t, err)
		assert.Equal(t, "Drill", l.Title)
		assert.Equal(t, "seller", l.OwnerID)
		assert.Equal(t, models.ListingActive, l.Status)
	})

	t.Run("no price at all", func(t *testing.T) {
		_, err := svc.Create(ctx, "seller", models.CreateListingInput{Title: "Drill"})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := svc.Create(ctx, "seller", models.CreateListingInput{Price: decimal.NewFromInt(8)})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
	})
}
