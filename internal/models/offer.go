package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferExpired   OfferStatus = "expired"
	OfferCancelled OfferStatus = "cancelled"
)

func ParseOfferStatus(s string) (OfferStatus, error) {
	return parseEnum("offer status", s, OfferPending, OfferAccepted, OfferRejected, OfferExpired, OfferCancelled)
}

func (s *OfferStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseOfferStatus, s)
}

type Offer struct {
	ID            string          `json:"id"`
	ListingID     string          `json:"listing_id"`
	ListingTitle  string          `json:"listing_title"`
	SenderID      string          `json:"sender_id"`
	SenderName    string          `json:"sender_name"`
	RecipientID   string          `json:"recipient_id"`
	RecipientName string          `json:"recipient_name"`
	Amount        decimal.Decimal `json:"amount"`
	DurationDays  *int            `json:"duration,omitempty"`
	Message       *string         `json:"message,omitempty"`
	Status        OfferStatus     `json:"status"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateOfferInput struct {
	ListingID    string          `json:"listing_id"`
	Amount       decimal.Decimal `json:"amount"`
	DurationDays *int            `json:"duration,omitempty"`
	Message      *string         `json:"message,omitempty"`
}

// OfferBox selects which side of the negotiation to list.
type OfferBox string

const (
	OfferBoxReceived OfferBox = "received"
	OfferBoxSent     OfferBox = "sent"
)

func ParseOfferBox(s string) (OfferBox, error) {
	return parseEnum("offer box", s, OfferBoxReceived, OfferBoxSent)
}
