package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewQuote(t *testing.T) {
	start := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)

	t.Run("two days with insurance", func(t *testing.T) {
		q := NewQuote(dec("10.00"), start, start.AddDate(0, 0, 2), true)
		assert.Equal(t, 2, q.RentalDays)
		assert.True(t, q.RentalCost.Equal(dec("20.00")), q.RentalCost.String())
		assert.True(t, q.InsuranceCost.Equal(dec("3.00")), q.InsuranceCost.String())
		assert.True(t, q.TotalCost.Equal(dec("23.00")), q.TotalCost.String())
	})

	t.Run("same day counts as one", func(t *testing.T) {
		q := NewQuote(dec("10.00"), start, start, false)
		assert.Equal(t, 1, q.RentalDays)
		assert.True(t, q.TotalCost.Equal(dec("10.00")))
		assert.True(t, q.InsuranceCost.IsZero())
	})

	t.Run("end before start counts as one", func(t *testing.T) {
		assert.Equal(t, 1, RentalDays(start, start.Add(-72*time.Hour)))
	})

	t.Run("partial days are truncated", func(t *testing.T) {
		assert.Equal(t, 2, RentalDays(start, start.Add(71*time.Hour)))
	})

	t.Run("daylight saving change inside the range", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Skipf("tzdata unavailable: %v", err)
		}
		for _, d := range []time.Time{
			time.Date(2024, 3, 9, 10, 0, 0, 0, ny),
			time.Date(2024, 11, 2, 10, 0, 0, 0, ny),
		} {
			q := NewQuote(dec("10"), d, d.AddDate(0, 0, 2), true)
			assert.Equal(t, 2, q.RentalDays, d.String())
			assert.True(t, q.RentalCost.Equal(dec("20.00")), q.RentalCost.String())
			assert.True(t, q.InsuranceCost.Equal(dec("3.00")), q.InsuranceCost.String())
			assert.True(t, q.TotalCost.Equal(dec("23.00")), q.TotalCost.String())
		}
	})
}

func TestPayoutGuard(t *testing.T) {
	assert.False(t, CanSubmitPayout("4.99"))
	assert.True(t, CanSubmitPayout("5.00"))
	assert.True(t, CanSubmitPayout(" 120 "))
	assert.False(t, CanSubmitPayout(""))
	assert.False(t, CanSubmitPayout("five"))

	_, err := ParsePayoutAmount("4.99")
	assert.ErrorIs(t, err, pkgerrors.ErrPayoutBelowMinimum)

	_, err = ParsePayoutAmount("x")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)

	amount, err := ParsePayoutAmount("5")
	assert.NoError(t, err)
	assert.True(t, amount.Equal(MinimumPayout))
}

func TestFeeSchedule(t *testing.T) {
	fees := DefaultFees()

	assert.True(t, fees.Fee(dec("100")).Equal(dec("3.20")))
	assert.True(t, fees.Net(dec("100")).Equal(dec("96.80")))
	assert.True(t, fees.Fee(dec("0.10")).Equal(dec("0.10")))
	assert.True(t, fees.Fee(decimal.Zero).IsZero())

	buyer := fees.Receipt(dec("100"), false)
	assert.Nil(t, buyer.ProcessingFee)
	assert.Nil(t, buyer.NetPayout)
	assert.True(t, buyer.Total.Equal(dec("100")))

	seller := fees.Receipt(dec("100"), true)
	assert.True(t, seller.ProcessingFee.Equal(dec("3.20")))
	assert.True(t, seller.NetPayout.Equal(dec("96.80")))
	assert.Equal(t, "usd", seller.Currency)
}
