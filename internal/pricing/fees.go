package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

// FeeSchedule is the card processor's charge: a percentage plus a fixed amount.
type FeeSchedule struct {
	Rate     decimal.Decimal
	Fixed    decimal.Decimal
	Currency string
}

func DefaultFees() FeeSchedule {
	return FeeSchedule{
		Rate:     decimal.RequireFromString("0.029"),
		Fixed:    decimal.RequireFromString("0.30"),
		Currency: "usd",
	}
}

// Fee is the processing fee on amount, never more than the amount itself.
func (f FeeSchedule) Fee(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	fee := amount.Mul(f.Rate).Add(f.Fixed).Round(2)
	if fee.GreaterThan(amount) {
		return amount
	}
	return fee
}

// Net is what the seller keeps from amount.
func (f FeeSchedule) Net(amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(f.Fee(amount))
}

// Receipt builds the cost breakdown. The fee and net lines are only shown to
// the seller.
func (f FeeSchedule) Receipt(amount decimal.Decimal, sellerView bool) *models.Receipt {
	r := &models.Receipt{
		Subtotal: amount,
		Total:    amount,
		Currency: f.Currency,
	}
	if sellerView {
		fee := f.Fee(amount)
		net := amount.Sub(fee)
		r.ProcessingFee = &fee
		r.NetPayout = &net
	}
	return r
}
