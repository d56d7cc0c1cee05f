// Package lifecycle holds the purchase, meetup and offer state machines and
// the presentation guards derived from them. Everything here is pure so the
// server and the client flows apply identical rules.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

// Event drives a purchase from one stage to the next.
type Event string

const (
	EventAccept          Event = "accept"
	EventDecline         Event = "decline"
	EventScheduleMeetup  Event = "schedule_meetup"
	EventMeetupExpired   Event = "meetup_expired"
	EventMeetupCancelled Event = "meetup_cancelled"
	EventVerify          Event = "verify"
	EventCapture         Event = "capture"
	EventVerifyReverted  Event = "verify_reverted"
	EventCancel          Event = "cancel"
	EventRefund          Event = "refund"
)

var transitions = map[models.Stage]map[Event]models.Stage{
	models.StagePendingSellerConfirmation: {
		EventAccept:  models.StageAccepted,
		EventDecline: models.StageDeclined,
		EventCancel:  models.StageCancelled,
	},
	models.StageAccepted: {
		EventScheduleMeetup: models.StageMeetupScheduled,
		EventCancel:         models.StageCancelled,
	},
	models.StageAwaitingMeetup: {
		EventScheduleMeetup: models.StageMeetupScheduled,
		EventCancel:         models.StageCancelled,
	},
	models.StageMeetupScheduled: {
		EventMeetupExpired:   models.StageAwaitingMeetup,
		EventMeetupCancelled: models.StageAwaitingMeetup,
		EventVerify:          models.StageVerified,
		EventCancel:          models.StageCancelled,
	},
	models.StageVerified: {
		EventCapture:        models.StageCompleted,
		EventVerifyReverted: models.StageMeetupScheduled,
		EventCancel:         models.StageCancelled,
	},
	models.StageCompleted: {
		EventRefund: models.StageRefunded,
	},
}

// Next returns the stage reached by applying ev in from.
func Next(from models.Stage, ev Event) (models.Stage, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: %s in %s", pkgerrors.ErrInvalidTransition, ev, from)
}

// IsTerminal reports whether no further transition is possible except a refund
// of a completed purchase.
func IsTerminal(s models.Stage) bool {
	switch s {
	case models.StageDeclined, models.StageCancelled, models.StageCompleted, models.StageRefunded:
		return true
	}
	return false
}

// PaymentAfter is the payment status that results from ev.
func PaymentAfter(ev Event, current models.PaymentStatus) models.PaymentStatus {
	switch ev {
	case EventDecline, EventCancel:
		return models.PaymentCancelled
	case EventCapture:
		return models.PaymentCaptured
	case EventRefund:
		return models.PaymentRefunded
	}
	return current
}

// CancellationBlocked reports whether a payment status rules out cancellation.
func CancellationBlocked(s models.PaymentStatus) bool {
	switch s {
	case models.PaymentCancelled, models.PaymentCaptured, models.PaymentRefunded:
		return true
	}
	return false
}

// Plan computes the update that applying ev to p at now produces. reason is
// recorded only for cancel and decline.
func Plan(p *models.Purchase, ev Event, now time.Time, reason string) (models.PurchaseUpdate, error) {
	if p == nil {
		return models.PurchaseUpdate{}, pkgerrors.ErrNilPurchase
	}
	if ev == EventCancel && CancellationBlocked(p.PaymentStatus) {
		return models.PurchaseUpdate{}, fmt.Errorf("%w: payment is %s", pkgerrors.ErrPurchaseNotCancelable, p.PaymentStatus)
	}
	to, err := Next(p.Stage, ev)
	if err != nil {
		return models.PurchaseUpdate{}, err
	}

	u := models.PurchaseUpdate{
		From:          p.Stage,
		Stage:         to,
		PaymentStatus: PaymentAfter(ev, p.PaymentStatus),
		UpdatedAt:     now,
	}
	switch ev {
	case EventAccept:
		u.SellerConfirmedAt = &now
	case EventDecline, EventCancel:
		u.CancelledAt = &now
		if reason != "" {
			u.CancellationReason = &reason
		}
	case EventCapture:
		u.CapturedAt = &now
	case EventRefund:
		u.RefundedAt = &now
	}
	return u, nil
}
