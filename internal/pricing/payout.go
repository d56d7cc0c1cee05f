package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

// MinimumPayout is the smallest withdrawal a seller may request.
var MinimumPayout = decimal.RequireFromString("5.00")

// ParsePayoutAmount parses user input and enforces the minimum.
func ParsePayoutAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not an amount", pkgerrors.ErrInvalidInput, s)
	}
	if err := CheckPayout(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// CheckPayout enforces the minimum on an already parsed amount.
func CheckPayout(amount decimal.Decimal) error {
	if amount.LessThan(MinimumPayout) {
		return fmt.Errorf("%w: minimum payout is $%s", pkgerrors.ErrPayoutBelowMinimum, MinimumPayout.StringFixed(2))
	}
	return nil
}

// CanSubmitPayout reports whether the payout form may be submitted.
func CanSubmitPayout(s string) bool {
	_, err := ParsePayoutAmount(s)
	return err == nil
}
