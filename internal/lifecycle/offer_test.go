package lifecycle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func TestNextOffer(t *testing.T) {
	got, err := NextOffer(models.OfferPending, OfferEventAccept)
	assert.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, got)

	got, err = NextOffer(models.OfferPending, OfferEventExpire)
	assert.NoError(t, err)
	assert.Equal(t, models.OfferExpired, got)

	for _, from := range []models.OfferStatus{models.OfferAccepted, models.OfferRejected, models.OfferExpired, models.OfferCancelled} {
		_, err := NextOffer(from, OfferEventReject)
		assert.ErrorIs(t, err, pkgerrors.ErrOfferNotPending, from)
	}

	_, err = NextOffer(models.OfferPending, OfferEvent("counter"))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestOfferActionsFor(t *testing.T) {
	o := &models.Offer{SenderID: "buyer", RecipientID: "seller", Status: models.OfferPending}

	assert.Equal(t, OfferActions{AcceptReject: true}, OfferActionsFor(o, "seller"))
	assert.Equal(t, OfferActions{Cancel: true}, OfferActionsFor(o, "buyer"))
	assert.Equal(t, OfferActions{}, OfferActionsFor(o, "someone-else"))

	o.Status = models.OfferAccepted
	assert.Equal(t, OfferActions{}, OfferActionsFor(o, "seller"))
}

func TestOfferDraft(t *testing.T) {
	t.Run("zero amount disables submit", func(t *testing.T) {
		d := OfferDraft{ListingID: "l-1", Amount: "0", Duration: "5"}
		assert.False(t, d.CanSubmit())
	})

	t.Run("valid draft", func(t *testing.T) {
		d := OfferDraft{ListingID: "l-1", Amount: "20", Duration: "3", Message: "  Weekend?  "}
		assert.True(t, d.CanSubmit())

		in, err := d.Validate()
		assert.NoError(t, err)
		assert.True(t, in.Amount.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, 3, *in.DurationDays)
		assert.Equal(t, "Weekend?", *in.Message)
	})

	tests := []OfferDraft{
		{ListingID: "l-1", Amount: "abc", Duration: "3"},
		{ListingID: "l-1", Amount: "-4", Duration: "3"},
		{ListingID: "l-1", Amount: "20", Duration: "0"},
		{ListingID: "l-1", Amount: "20", Duration: "2.5"},
		{ListingID: "l-1", Amount: "20", Duration: ""},
		{ListingID: " ", Amount: "20", Duration: "3"},
	}
	for _, d := range tests {
		_, err := d.Validate()
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput, "%+v", d)
	}
}
