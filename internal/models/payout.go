package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutMethod string

const (
	PayoutBank   PayoutMethod = "bank"
	PayoutPayPal PayoutMethod = "paypal"
	PayoutVenmo  PayoutMethod = "venmo"
)

func ParsePayoutMethod(s string) (PayoutMethod, error) {
	return parseEnum("payout method", s, PayoutBank, PayoutPayPal, PayoutVenmo)
}

func (m *PayoutMethod) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParsePayoutMethod, m)
}

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

func ParsePayoutStatus(s string) (PayoutStatus, error) {
	return parseEnum("payout status", s, PayoutPending, PayoutProcessing, PayoutCompleted, PayoutFailed)
}

func (s *PayoutStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParsePayoutStatus, s)
}

type Payout struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PayoutMethod    `json:"method"`
	Status      PayoutStatus    `json:"status"`
	RequestedAt time.Time       `json:"requested_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

type PayoutRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method PayoutMethod    `json:"method"`
}

// EarningsEntry credits a seller for one completed purchase.
type EarningsEntry struct {
	ID         string          `json:"id"`
	SellerID   string          `json:"seller_id"`
	PurchaseID string          `json:"purchase_id"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

type EarningsSummary struct {
	TotalEarned      decimal.Decimal `json:"total_earned"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	TotalWithdrawn   decimal.Decimal `json:"total_withdrawn"`
}
