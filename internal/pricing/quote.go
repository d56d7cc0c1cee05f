// Package pricing computes rental quotes, processing fees and payout limits.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// InsuranceRate is the share of the rental cost charged for damage cover.
var InsuranceRate = decimal.RequireFromString("0.15")

type Quote struct {
	RentalDays    int             `json:"rental_days"`
	DailyRate     decimal.Decimal `json:"daily_rate"`
	RentalCost    decimal.Decimal `json:"rental_cost"`
	InsuranceCost decimal.Decimal `json:"insurance_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// RentalDays counts whole calendar days from start to end in start's
// location, never fewer than one. A partial day is dropped, a daylight saving
// shift is not.
func RentalDays(start, end time.Time) int {
	days := int(end.Sub(start) / (24 * time.Hour))
	for !start.AddDate(0, 0, days+1).After(end) {
		days++
	}
	for days > 0 && start.AddDate(0, 0, days).After(end) {
		days--
	}
	if days < 1 {
		return 1
	}
	return days
}

// NewQuote prices a rental. Insurance is zero unless requested.
func NewQuote(dailyRate decimal.Decimal, start, end time.Time, includeInsurance bool) Quote {
	days := RentalDays(start, end)
	cost := dailyRate.Mul(decimal.NewFromInt(int64(days)))

	insurance := decimal.Zero
	if includeInsurance {
		insurance = cost.Mul(InsuranceRate).Round(2)
	}
	return Quote{
		RentalDays:    days,
		DailyRate:     dailyRate,
		RentalCost:    cost,
		InsuranceCost: insurance,
		TotalCost:     cost.Add(insurance),
	}
}
