package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

func statuses(steps []models.TimelineStep) []models.TimelineStatus {
	out := make([]models.TimelineStatus, len(steps))
	for i, s := range steps {
		out[i] = s.Status
	}
	return out
}

func TestBuildTimeline(t *testing.T) {
	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	c, ip, pd := models.TimelineCompleted, models.TimelineInProgress, models.TimelinePending

	t.Run("awaiting seller", func(t *testing.T) {
		p := &models.Purchase{Stage: models.StagePendingSellerConfirmation, CreatedAt: created}
		steps := BuildTimeline(p, nil)
		assert.Len(t, steps, 5)
		assert.Equal(t, []models.TimelineStatus{c, ip, pd, pd, pd}, statuses(steps))
		assert.Equal(t, "Payment held", steps[0].Title)
		assert.Equal(t, &created, steps[0].CompletedAt)
		for i, s := range steps {
			assert.Equal(t, i+1, s.Step)
		}
	})

	t.Run("meetup scheduled", func(t *testing.T) {
		confirmed := created.Add(time.Hour)
		p := &models.Purchase{
			Stage:             models.StageMeetupScheduled,
			SellerConfirmed:   true,
			SellerConfirmedAt: &confirmed,
			CreatedAt:         created,
		}
		m := &models.Meetup{ID: "m", CreatedAt: created.Add(2 * time.Hour)}
		steps := BuildTimeline(p, m)
		assert.Equal(t, []models.TimelineStatus{c, c, c, ip, pd}, statuses(steps))
		assert.True(t, steps[2].MeetupScheduled)
		assert.Equal(t, m.CreatedAt, *steps[2].CompletedAt)
		assert.Equal(t, &confirmed, steps[1].CompletedAt)
	})

	t.Run("back to awaiting meetup after expiry", func(t *testing.T) {
		p := &models.Purchase{Stage: models.StageAwaitingMeetup, SellerConfirmed: true, CreatedAt: created}
		steps := BuildTimeline(p, &models.Meetup{ID: "m", Status: models.MeetupExpired})
		assert.Equal(t, []models.TimelineStatus{c, c, ip, pd, pd}, statuses(steps))
		assert.False(t, steps[2].MeetupScheduled)
		assert.Nil(t, steps[2].CompletedAt)
	})

	t.Run("completed", func(t *testing.T) {
		captured := created.Add(48 * time.Hour)
		p := &models.Purchase{Stage: models.StageCompleted, SellerConfirmed: true, CapturedAt: &captured, CreatedAt: created}
		steps := BuildTimeline(p, nil)
		assert.Equal(t, []models.TimelineStatus{c, c, c, c, c}, statuses(steps))
		assert.Equal(t, &captured, steps[4].CompletedAt)
	})
}
