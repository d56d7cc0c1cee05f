package models

import "time"

type MeetupStatus string

const (
	MeetupScheduled     MeetupStatus = "SCHEDULED"
	MeetupBuyerArrived  MeetupStatus = "BUYER_ARRIVED"
	MeetupSellerArrived MeetupStatus = "SELLER_ARRIVED"
	MeetupBothArrived   MeetupStatus = "BOTH_ARRIVED"
	MeetupVerified      MeetupStatus = "VERIFIED"
	MeetupCompleted     MeetupStatus = "COMPLETED"
	MeetupCancelled     MeetupStatus = "CANCELLED"
	MeetupExpired       MeetupStatus = "EXPIRED"
)

func ParseMeetupStatus(s string) (MeetupStatus, error) {
	return parseEnum("meetup status", s,
		MeetupScheduled, MeetupBuyerArrived, MeetupSellerArrived, MeetupBothArrived,
		MeetupVerified, MeetupCompleted, MeetupCancelled, MeetupExpired)
}

func (s *MeetupStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseMeetupStatus, s)
}

// Active reports whether the meetup can still be attended, cancelled or verified.
func (s MeetupStatus) Active() bool {
	switch s {
	case MeetupScheduled, MeetupBuyerArrived, MeetupSellerArrived, MeetupBothArrived:
		return true
	}
	return false
}

type MeetupLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
}

type Meetup struct {
	ID              string          `json:"id"`
	PurchaseID      string          `json:"purchase_id"`
	BuyerID         string          `json:"buyer_id"`
	SellerID        string          `json:"seller_id"`
	Location        *MeetupLocation `json:"meetup_location,omitempty"`
	ScheduledTime   *time.Time      `json:"scheduled_time,omitempty"`
	Status          MeetupStatus    `json:"status"`
	BuyerArrivedAt  *time.Time      `json:"buyer_arrived_at,omitempty"`
	SellerArrivedAt *time.Time      `json:"seller_arrived_at,omitempty"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Summary projects the meetup into the shape embedded in purchase details.
func (m *Meetup) Summary() *MeetupSummary {
	return &MeetupSummary{
		ID:            m.ID,
		Status:        m.Status,
		Location:      m.Location,
		ScheduledTime: m.ScheduledTime,
	}
}

type ScheduleMeetupInput struct {
	PurchaseID    string          `json:"purchase_id"`
	Location      *MeetupLocation `json:"meetup_location"`
	ScheduledTime *time.Time      `json:"scheduled_time"`
	Notes         *string         `json:"notes,omitempty"`
}

type VerificationCode struct {
	MeetupID  string    `json:"meetup_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerificationResult struct {
	Verified        bool         `json:"verified"`
	MeetupStatus    MeetupStatus `json:"meetup_status"`
	PurchaseStage   Stage        `json:"purchase_stage"`
	PaymentCaptured bool         `json:"payment_captured"`
}

// ExpiredMeetup identifies a meetup the sweeper just expired.
type ExpiredMeetup struct {
	ID         string
	PurchaseID string
}
