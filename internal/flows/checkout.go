package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/honeynil/BrrowMarketplace/internal/client"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/pricing"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

const (
	OnboardingRequiredMessage = "The owner needs to complete their payment setup first. Please try again later."
	ConfirmationFailedMessage = "Payment succeeded but confirmation failed. Please contact support."
)

type SheetResult int

const (
	SheetCompleted SheetResult = iota
	SheetCancelled
	SheetFailed
)

// PaymentSheet collects card details for an intent. A failed sheet returns
// SheetFailed with the processor's error.
type PaymentSheet interface {
	Present(ctx context.Context, intent *models.PaymentIntent) (SheetResult, error)
}

type CheckoutAPI interface {
	CreatePaymentIntent(ctx context.Context, in models.PaymentIntentInput) (*models.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, intentID string) (*models.Purchase, error)
}

// CheckoutOutcome is what the checkout screen shows after a run. Message is
// empty when nothing needs to be said, e.g. the buyer closed the sheet.
type CheckoutOutcome struct {
	Purchase  *models.Purchase
	Cancelled bool
	Message   string
}

type CheckoutFlow struct {
	api   CheckoutAPI
	sheet PaymentSheet
}

func NewCheckoutFlow(api CheckoutAPI, sheet PaymentSheet) *CheckoutFlow {
	return &CheckoutFlow{api: api, sheet: sheet}
}

// Quote prices a rental for display. The server recomputes the charged amount.
func (f *CheckoutFlow) Quote(dailyRate decimal.Decimal, start, end time.Time, includeInsurance bool) pricing.Quote {
	return pricing.NewQuote(dailyRate, start, end, includeInsurance)
}

// Checkout creates the payment intent, presents the sheet and confirms the
// purchase. The returned error is nil when the buyer cancels the sheet.
func (f *CheckoutFlow) Checkout(ctx context.Context, in models.PaymentIntentInput) (CheckoutOutcome, error) {
	intent, err := f.api.CreatePaymentIntent(ctx, in)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrSellerOnboardingRequired) {
			return CheckoutOutcome{Message: OnboardingRequiredMessage}, err
		}
		return CheckoutOutcome{Message: client.UserMessage(err)}, err
	}

	result, err := f.sheet.Present(ctx, intent)
	switch result {
	case SheetCancelled:
		return CheckoutOutcome{Cancelled: true}, nil
	case SheetFailed:
		if err == nil {
			err = fmt.Errorf("payment sheet failed for %s", intent.TransactionID)
		}
		return CheckoutOutcome{Message: err.Error()}, err
	}

	purchase, err := f.api.ConfirmPayment(ctx, intent.TransactionID)
	if err != nil {
		slog.Error("payment confirmation failed", "intent_id", intent.TransactionID, "error", err)
		return CheckoutOutcome{Message: ConfirmationFailedMessage}, err
	}
	return CheckoutOutcome{Purchase: purchase}, nil
}
