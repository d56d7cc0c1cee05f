package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkamocks "github.com/honeynil/BrrowMarketplace/internal/infrastructure/kafka/mocks"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	repositorymocks "github.com/honeynil/BrrowMarketplace/internal/repository/mocks"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func newOfferFixture(t *testing.T, ttl time.Duration) (*repositorymocks.MockOfferRepository, *repositorymocks.MockListingRepository, *kafkamocks.MockKafkaProducer, *offerService) {
	ctrl := gomock.NewController(t)
	offers := repositorymocks.NewMockOfferRepository(ctrl)
	listings := repositorymocks.NewMockListingRepository(ctrl)
	producer := kafkamocks.NewMockKafkaProducer(ctrl)
	svc := NewOfferService(offers, listings, producer, ttl)
	svc.now = func() time.Time { return fixedNow }
	return offers, listings, producer, svc
}

func pendingOffer() *models.Offer {
	return &models.Offer{
		ID:          "o-1",
		ListingID:   "l-1",
		SenderID:    "buyer",
		RecipientID: "seller",
		Amount:      decimal.NewFromInt(80),
		Status:      models.OfferPending,
	}
}

func TestOfferService_Create(t *testing.T) {
	ctx := context.Background()
	days := 3
	listing := &models.Listing{ID: "l-1", OwnerID: "seller", Title: "Tent", DailyRate: decimal.NewFromInt(12)}

	t.Run("offer goes to the listing owner", func(t *testing.T) {
		offers, listings, producer, svc := newOfferFixture(t, 48*time.Hour)

		listings.EXPECT().GetByID(gomock.Any(), "l-1").Return(listing, nil)
		offers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		producer.EXPECT().Send(gomock.Any(), models.TopicOffers, gomock.Any(), gomock.Any()).Return(nil)

		o, err := svc.Create(ctx, "buyer", models.CreateOfferInput{ListingID: "l-1", Amount: decimal.NewFromInt(30), DurationDays: &days})
		require.NoError(t, err)
		assert.Equal(t, "seller", o.RecipientID)
		assert.Equal(t, "buyer", o.SenderID)
		assert.Equal(t, models.OfferPending, o.Status)
		require.NotNil(t, o.ExpiresAt)
		assert.Equal(t, fixedNow.Add(48*time.Hour), *o.ExpiresAt)
	})

	t.Run("no ttl means no expiry", func(t *testing.T) {
		offers, listings, producer, svc := newOfferFixture(t, 0)

		listings.EXPECT().GetByID(gomock.Any(), "l-1").Return(listing, nil)
		offers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		producer.EXPECT().Send(gomock.Any(), models.TopicOffers, gomock.Any(), gomock.Any()).Return(nil)

		o, err := svc.Create(ctx, "buyer", models.CreateOfferInput{ListingID: "l-1", Amount: decimal.NewFromInt(30)})
		require.NoError(t, err)
		assert.Nil(t, o.ExpiresAt)
	})

	t.Run("own listing", func(t *testing.T) {
		_, listings, _, svc := newOfferFixture(t, 0)
		listings.EXPECT().GetByID(gomock.Any(), "l-1").Return(listing, nil)

		_, err := svc.Create(ctx, "seller", models.CreateOfferInput{ListingID: "l-1", Amount: decimal.NewFromInt(30)})
		assert.ErrorIs(t, err, pkgerrors.ErrOwnListing)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, _, _, svc := newOfferFixture(t, 0)
		zero := 0

		tests := []models.CreateOfferInput{
			{Amount: decimal.NewFromInt(30)},
			{ListingID: "l-1", Amount: decimal.Zero},
			{ListingID: "l-1", Amount: decimal.NewFromInt(-5)},
			{ListingID: "l-1", Amount: decimal.NewFromInt(30), DurationDays: &zero},
		}
		for _, in := range tests {
			_, err := svc.Create(ctx, "buyer", in)
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		}
	})
}

func TestOfferService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("recipient accepts", func(t *testing.T) {
		offers, _, producer, svc := newOfferFixture(t, 0)
		accepted := pendingOffer()
		accepted.Status = models.OfferAccepted

		offers.EXPECT().GetByID(gomock.Any(), "o-1").Return(pendingOffer(), nil)
		offers.EXPECT().UpdateStatus(gomock.Any(), "o-1", models.OfferPending, models.OfferAccepted, fixedNow).Return(accepted, nil)
		producer.EXPECT().Send(gomock.Any(), models.TopicOffers, "o-1", gomock.Any()).Return(nil)

		o, err := svc.Accept(ctx, "seller", "o-1")
		require.NoError(t, err)
		assert.Equal(t, models.OfferAccepted, o.Status)
	})

	t.Run("sender cancels", func(t *testing.T) {
		offers, _, producer, svc := newOfferFixture(t, 0)
		cancelled := pendingOffer()
		cancelled.Status = models.OfferCancelled

		offers.EXPECT().GetByID(gomock.Any(), "o-1").Return(pendingOffer(), nil)
		offers.EXPECT().UpdateStatus(gomock.Any(), "o-1", models.OfferPending, models.OfferCancelled, fixedNow).Return(cancelled, nil)
		producer.EXPECT().Send(gomock.Any(), models.TopicOffers, "o-1", gomock.Any()).Return(nil)

		o, err := svc.Cancel(ctx, "buyer", "o-1")
		require.NoError(t, err)
		assert.Equal(t, models.OfferCancelled, o.Status)
	})

	t.Run("sender cannot accept", func(t *testing.T) {
		offers, _, _, svc := newOfferFixture(t, 0)
		offers.EXPECT().GetByID(gomock.Any(), "o-1").Return(pendingOffer(), nil)

		_, err := svc.Accept(ctx, "buyer", "o-1")
		assert.ErrorIs(t, err, pkgerrors.ErrForbidden)
	})

	t.Run("recipient cannot cancel", func(t *testing.T) {
		offers, _, _, svc := newOfferFixture(t, 0)
		offers.EXPECT().GetByID(gomock.Any(), "o-1").Return(pendingOffer(), nil)

		_, err := svc.Cancel(ctx, "seller", "o-1")
		assert.ErrorIs(t, err, pkgerrors.ErrForbidden)
	})

	t.Run("not pending", func(t *testing.T) {
		offers, _, _, svc := newOfferFixture(t, 0)
		o := pendingOffer()
		o.Status = models.OfferExpired
		offers.EXPECT().GetByID(gomock.Any(), "o-1").Return(o, nil)

		_, err := svc.Reject(ctx, "seller", "o-1")
		assert.ErrorIs(t, err, pkgerrors.ErrOfferNotPending)
	})

	t.Run("lost race", func(t *testing.T) {
		offers, _, _, svc := newOfferFixture(t, 0)
		offers.EXPECT().GetByID(gomock.Any(), "o-1").Return(pendingOffer(), nil)
		offers.EXPECT().UpdateStatus(gomock.Any(), "o-1", models.OfferPending, models.OfferRejected, fixedNow).Return(nil, pkgerrors.ErrStaleState)

		_, err := svc.Reject(ctx, "seller", "o-1")
		assert.ErrorIs(t, err, pkgerrors.ErrStaleState)
	})
}

func TestOfferService_List(t *testing.T) {
	ctx := context.Background()
	offers, _, _, svc := newOfferFixture(t, 0)

	offers.EXPECT().ListByRecipient(gomock.Any(), "seller").Return([]models.Offer{*pendingOffer()}, nil)
	got, err := svc.List(ctx, "seller", models.OfferBoxReceived)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	offers.EXPECT().ListBySender(gomock.Any(), "buyer").Return([]models.Offer{}, nil)
	got, err = svc.List(ctx, "buyer", models.OfferBoxSent)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.List(ctx, "buyer", models.OfferBox("archived"))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}
