package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventPurchaseCreated     EventType = "purchase_created"
	EventPurchaseAccepted    EventType = "purchase_accepted"
	EventPurchaseDeclined    EventType = "purchase_declined"
	EventPurchaseCancelled   EventType = "purchase_cancelled"
	EventPurchaseCompleted   EventType = "purchase_completed"
	EventMeetupScheduled     EventType = "meetup_scheduled"
	EventMeetupCancelled     EventType = "meetup_cancelled"
	EventMeetupExpired       EventType = "meetup_expired"
	EventMeetupVerified      EventType = "meetup_verified"
	EventOfferCreated        EventType = "offer_created"
	EventOfferAccepted       EventType = "offer_accepted"
	EventOfferRejected       EventType = "offer_rejected"
	EventOfferCancelled      EventType = "offer_cancelled"
	EventOfferExpired        EventType = "offer_expired"
	EventPayoutRequested     EventType = "payout_requested"
	EventPayoutStatusChanged EventType = "payout_status_changed"
)

// Kafka topics.
const (
	TopicPurchases = "purchases"
	TopicMeetups   = "meetups"
	TopicOffers    = "offers"
	TopicPayouts   = "payouts"
)

// Event is the envelope published to Kafka for every state change.
type Event struct {
	Type        EventType        `json:"event_type"`
	AggregateID string           `json:"aggregate_id"`
	ActorID     string           `json:"actor_id,omitempty"`
	BuyerID     string           `json:"buyer_id,omitempty"`
	SellerID    string           `json:"seller_id,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Status      string           `json:"status,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
