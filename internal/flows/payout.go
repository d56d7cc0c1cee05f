package flows

import (
	"context"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/pricing"
)

type PayoutAPI interface {
	RequestPayout(ctx context.Context, req models.PayoutRequest) (*models.Payout, error)
}

// PayoutForm holds the withdrawal amount as typed.
type PayoutForm struct {
	api    PayoutAPI
	Amount string
	Method models.PayoutMethod
}

func NewPayoutForm(api PayoutAPI) *PayoutForm {
	return &PayoutForm{api: api, Method: models.PayoutBank}
}

func (f *PayoutForm) CanSubmit() bool {
	return pricing.CanSubmitPayout(f.Amount)
}

// Submit sends the request. Balance sufficiency is left to the server.
func (f *PayoutForm) Submit(ctx context.Context) (*models.Payout, error) {
	amount, err := pricing.ParsePayoutAmount(f.Amount)
	if err != nil {
		return nil, err
	}
	return f.api.RequestPayout(ctx, models.PayoutRequest{Amount: amount, Method: f.Method})
}
