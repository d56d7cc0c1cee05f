package lifecycle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		from models.Stage
		ev   Event
		want models.Stage
	}{
		{"accept pending", models.StagePendingSellerConfirmation, EventAccept, models.StageAccepted},
		{"decline pending", models.StagePendingSellerConfirmation, EventDecline, models.StageDeclined},
		{"schedule after accept", models.StageAccepted, EventScheduleMeetup, models.StageMeetupScheduled},
		{"reschedule after expiry", models.StageAwaitingMeetup, EventScheduleMeetup, models.StageMeetupScheduled},
		{"meetup expired", models.StageMeetupScheduled, EventMeetupExpired, models.StageAwaitingMeetup},
		{"meetup cancelled", models.StageMeetupScheduled, EventMeetupCancelled, models.StageAwaitingMeetup},
		{"verify", models.StageMeetupScheduled, EventVerify, models.StageVerified},
		{"capture", models.StageVerified, EventCapture, models.StageCompleted},
		{"refund", models.StageCompleted, EventRefund, models.StageRefunded},
		{"cancel scheduled", models.StageMeetupScheduled, EventCancel, models.StageCancelled},
		{"cancel verified", models.StageVerified, EventCancel, models.StageCancelled},
		{"verify reverted", models.StageVerified, EventVerifyReverted, models.StageMeetupScheduled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.ev)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("terminal stages reject everything but refund", func(t *testing.T) {
		for _, s := range []models.Stage{models.StageDeclined, models.StageCancelled, models.StageRefunded} {
			for _, ev := range []Event{EventAccept, EventDecline, EventCancel, EventScheduleMeetup, EventRefund} {
				_, err := Next(s, ev)
				assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransition, "%s in %s", ev, s)
			}
			assert.True(t, IsTerminal(s))
		}
	})

	t.Run("every non-terminal stage can be cancelled", func(t *testing.T) {
		for _, s := range []models.Stage{
			models.StagePendingSellerConfirmation, models.StageAccepted, models.StageDeclined,
			models.StageAwaitingMeetup, models.StageMeetupScheduled, models.StageVerified,
			models.StageCompleted, models.StageCancelled, models.StageRefunded,
		} {
			if IsTerminal(s) {
				continue
			}
			got, err := Next(s, EventCancel)
			assert.NoError(t, err, s)
			assert.Equal(t, models.StageCancelled, got, s)
		}
	})

	t.Run("seller cannot accept twice", func(t *testing.T) {
		_, err := Next(models.StageAccepted, EventAccept)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransition)
	})
}

func TestPlan(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := models.Purchase{
		ID:            "p-1",
		Amount:        decimal.NewFromInt(40),
		PaymentStatus: models.PaymentHeld,
		Stage:         models.StagePendingSellerConfirmation,
	}

	t.Run("accept records confirmation and keeps the hold", func(t *testing.T) {
		p := base
		u, err := Plan(&p, EventAccept, now, "")
		assert.NoError(t, err)
		assert.Equal(t, models.StagePendingSellerConfirmation, u.From)
		assert.Equal(t, models.StageAccepted, u.Stage)
		assert.Equal(t, models.PaymentHeld, u.PaymentStatus)
		assert.Equal(t, &now, u.SellerConfirmedAt)
		assert.Nil(t, u.CancelledAt)
	})

	t.Run("cancel releases payment and keeps reason", func(t *testing.T) {
		p := base
		u, err := Plan(&p, EventCancel, now, "changed my mind")
		assert.NoError(t, err)
		assert.Equal(t, models.StageCancelled, u.Stage)
		assert.Equal(t, models.PaymentCancelled, u.PaymentStatus)
		assert.Equal(t, "changed my mind", *u.CancellationReason)
		assert.Equal(t, &now, u.CancelledAt)
	})

	t.Run("cancel blocked after capture", func(t *testing.T) {
		p := base
		p.Stage = models.StageCompleted
		p.PaymentStatus = models.PaymentCaptured
		_, err := Plan(&p, EventCancel, now, "")
		assert.ErrorIs(t, err, pkgerrors.ErrPurchaseNotCancelable)
	})

	t.Run("capture sets captured at", func(t *testing.T) {
		p := base
		p.Stage = models.StageVerified
		u, err := Plan(&p, EventCapture, now, "")
		assert.NoError(t, err)
		assert.Equal(t, models.PaymentCaptured, u.PaymentStatus)
		assert.Equal(t, &now, u.CapturedAt)
	})

	t.Run("cancel after verification releases the hold", func(t *testing.T) {
		p := base
		p.Stage = models.StageVerified
		assert.True(t, CanBuyerCancel(true, p.PaymentStatus))
		u, err := Plan(&p, EventCancel, now, "")
		assert.NoError(t, err)
		assert.Equal(t, models.StageCancelled, u.Stage)
		assert.Equal(t, models.PaymentCancelled, u.PaymentStatus)
	})

	t.Run("reverting verification keeps the hold", func(t *testing.T) {
		p := base
		p.Stage = models.StageVerified
		u, err := Plan(&p, EventVerifyReverted, now, "")
		assert.NoError(t, err)
		assert.Equal(t, models.StageVerified, u.From)
		assert.Equal(t, models.StageMeetupScheduled, u.Stage)
		assert.Equal(t, models.PaymentHeld, u.PaymentStatus)
	})

	t.Run("nil purchase", func(t *testing.T) {
		_, err := Plan(nil, EventAccept, now, "")
		assert.ErrorIs(t, err, pkgerrors.ErrNilPurchase)
	})
}

func TestCancellationGuards(t *testing.T) {
	for _, s := range []models.PaymentStatus{models.PaymentCancelled, models.PaymentCaptured, models.PaymentRefunded} {
		assert.False(t, CanBuyerCancel(true, s), s)
	}
	for _, s := range []models.PaymentStatus{models.PaymentPending, models.PaymentHeld, models.PaymentFailed} {
		assert.True(t, CanBuyerCancel(true, s), s)
		assert.False(t, CanBuyerCancel(false, s), s)
	}
}

func TestCanSellerRespond(t *testing.T) {
	assert.True(t, CanSellerRespond(false, false))
	assert.False(t, CanSellerRespond(false, true))
	assert.False(t, CanSellerRespond(true, false))
	assert.False(t, CanSellerRespond(true, true))
}
