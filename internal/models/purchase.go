package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseType string

const (
	PurchaseTypeBuyNow        PurchaseType = "BUY_NOW"
	PurchaseTypeRental        PurchaseType = "RENTAL"
	PurchaseTypeAcceptedOffer PurchaseType = "ACCEPTED_OFFER"
)

func ParsePurchaseType(s string) (PurchaseType, error) {
	return parseEnum("purchase type", s, PurchaseTypeBuyNow, PurchaseTypeRental, PurchaseTypeAcceptedOffer)
}

func (t *PurchaseType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParsePurchaseType, t)
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentHeld      PaymentStatus = "HELD"
	PaymentCaptured  PaymentStatus = "CAPTURED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentFailed    PaymentStatus = "FAILED"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	return parseEnum("payment status", s,
		PaymentPending, PaymentHeld, PaymentCaptured, PaymentRefunded, PaymentCancelled, PaymentFailed)
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParsePaymentStatus, s)
}

// Stage is the lifecycle position of a purchase. Transitions are owned by
// the lifecycle package.
type Stage string

const (
	StagePendingSellerConfirmation Stage = "PENDING_SELLER_CONFIRMATION"
	StageAccepted                  Stage = "ACCEPTED"
	StageDeclined                  Stage = "DECLINED"
	StageAwaitingMeetup            Stage = "AWAITING_MEETUP"
	StageMeetupScheduled           Stage = "MEETUP_SCHEDULED"
	StageVerified                  Stage = "VERIFIED"
	StageCompleted                 Stage = "COMPLETED"
	StageCancelled                 Stage = "CANCELLED"
	StageRefunded                  Stage = "REFUNDED"
)

func ParseStage(s string) (Stage, error) {
	return parseEnum("purchase stage", s,
		StagePendingSellerConfirmation, StageAccepted, StageDeclined, StageAwaitingMeetup,
		StageMeetupScheduled, StageVerified, StageCompleted, StageCancelled, StageRefunded)
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseStage, s)
}

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
	DeliveryShipping DeliveryMethod = "shipping"
)

func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	return parseEnum("delivery method", s, DeliveryPickup, DeliveryDelivery, DeliveryShipping)
}

func (d *DeliveryMethod) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseDeliveryMethod, d)
}

type Purchase struct {
	ID                 string          `json:"id"`
	DisplayID          string          `json:"transaction_display_id"`
	BuyerID            string          `json:"buyer_id"`
	SellerID           string          `json:"seller_id"`
	ListingID          *string         `json:"listing_id"`
	Type               PurchaseType    `json:"purchase_type"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentIntentID    string          `json:"payment_intent_id,omitempty"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	Stage              Stage           `json:"stage"`
	SellerConfirmed    bool            `json:"seller_confirmed"`
	SellerConfirmedAt  *time.Time      `json:"seller_confirmed_at,omitempty"`
	MeetupID           *string         `json:"meetup_id,omitempty"`
	RentalStart        *time.Time      `json:"rental_start_date,omitempty"`
	RentalEnd          *time.Time      `json:"rental_end_date,omitempty"`
	DeliveryMethod     DeliveryMethod  `json:"delivery_method"`
	BuyerMessage       *string         `json:"buyer_message,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CapturedAt         *time.Time      `json:"captured_at,omitempty"`
	RefundedAt         *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PartyUser is the public view of the other side of a purchase.
type PartyUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name,omitempty"`
}

type ListingSummary struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	DailyRate decimal.Decimal `json:"daily_rate"`
}

// MeetupSummary is the meetup as embedded in a purchase detail. It may
// reference a meetup that no longer exists, in which case only ID is set.
type MeetupSummary struct {
	ID            string          `json:"id"`
	Status        MeetupStatus    `json:"status,omitempty"`
	Location      *MeetupLocation `json:"location,omitempty"`
	ScheduledTime *time.Time      `json:"scheduled_time,omitempty"`
}

type TimelineStatus string

const (
	TimelineCompleted  TimelineStatus = "completed"
	TimelineInProgress TimelineStatus = "in_progress"
	TimelinePending    TimelineStatus = "pending"
)

func ParseTimelineStatus(s string) (TimelineStatus, error) {
	return parseEnum("timeline status", s, TimelineCompleted, TimelineInProgress, TimelinePending)
}

func (s *TimelineStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseTimelineStatus, s)
}

type TimelineStep struct {
	Step            int            `json:"step"`
	Status          TimelineStatus `json:"status"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	MeetupScheduled bool           `json:"meetup_scheduled,omitempty"`
}

// Receipt is the cost breakdown. ProcessingFee and NetPayout are only
// populated for the seller.
type Receipt struct {
	Subtotal      decimal.Decimal  `json:"subtotal"`
	ProcessingFee *decimal.Decimal `json:"processing_fee,omitempty"`
	NetPayout     *decimal.Decimal `json:"net_payout,omitempty"`
	Total         decimal.Decimal  `json:"total"`
	Currency      string           `json:"currency"`
}

type PurchaseDetail struct {
	Purchase
	IsBuyer    bool            `json:"is_buyer"`
	OtherParty *PartyUser      `json:"other_party,omitempty"`
	Listing    *ListingSummary `json:"listing"`
	Meetup     *MeetupSummary  `json:"meetup"`
	Timeline   []TimelineStep  `json:"timeline"`
	Receipt    *Receipt        `json:"receipt"`
}

// PurchaseUpdate is a compare-and-set write: it applies only while the stored
// stage still equals From. Nil pointers leave the column untouched.
type PurchaseUpdate struct {
	From               Stage
	Stage              Stage
	PaymentStatus      PaymentStatus
	SellerConfirmedAt  *time.Time
	MeetupID           *string
	CancellationReason *string
	CancelledAt        *time.Time
	CapturedAt         *time.Time
	RefundedAt         *time.Time
	UpdatedAt          time.Time
}
