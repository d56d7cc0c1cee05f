package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type IntentStatus string

const (
	IntentCreated   IntentStatus = "created"
	IntentConfirmed IntentStatus = "confirmed"
)

func ParseIntentStatus(s string) (IntentStatus, error) {
	return parseEnum("payment intent status", s, IntentCreated, IntentConfirmed)
}

func (s *IntentStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseIntentStatus, s)
}

type PaymentIntentInput struct {
	ListingID        string         `json:"listing_id"`
	SellerID         string         `json:"seller_id"`
	TransactionType  PurchaseType   `json:"transaction_type"`
	RentalStartDate  *time.Time     `json:"rental_start_date,omitempty"`
	RentalEndDate    *time.Time     `json:"rental_end_date,omitempty"`
	DeliveryMethod   DeliveryMethod `json:"delivery_method"`
	BuyerMessage     *string        `json:"buyer_message,omitempty"`
	IncludeInsurance bool           `json:"include_insurance"`
	OfferID          *string        `json:"offer_id,omitempty"`
	RequestID        string         `json:"request_id,omitempty"`
}

type PaymentIntent struct {
	TransactionID               string          `json:"transaction_id"`
	BuyerID                     string          `json:"buyer_id"`
	SellerID                    string          `json:"seller_id"`
	ListingID                   string          `json:"listing_id"`
	Type                        PurchaseType    `json:"transaction_type"`
	Amount                      decimal.Decimal `json:"amount"`
	RentalStart                 *time.Time      `json:"rental_start_date,omitempty"`
	RentalEnd                   *time.Time      `json:"rental_end_date,omitempty"`
	DeliveryMethod              DeliveryMethod  `json:"delivery_method"`
	BuyerMessage                *string         `json:"buyer_message,omitempty"`
	IncludeInsurance            bool            `json:"include_insurance"`
	OfferID                     *string         `json:"offer_id,omitempty"`
	ClientSecret                string          `json:"client_secret"`
	CustomerSessionClientSecret string          `json:"customer_session_client_secret"`
	CustomerID                  string          `json:"customer_id"`
	Status                      IntentStatus    `json:"status"`
	PurchaseID                  *string         `json:"purchase_id,omitempty"`
	CreatedAt                   time.Time       `json:"created_at"`
}
