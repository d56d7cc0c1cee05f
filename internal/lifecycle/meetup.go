package lifecycle

import (
	"fmt"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

// MeetupBranch is the meetup section shown on a purchase.
type MeetupBranch string

const (
	BranchTracking   MeetupBranch = "tracking"
	BranchExpired    MeetupBranch = "expired"
	BranchScheduling MeetupBranch = "scheduling"
)

// SelectMeetupBranch picks exactly one branch. Rules are evaluated in order:
// a live meetup with a location or a time is tracked, an expired one offers
// rescheduling, anything else falls back to scheduling. invalid comes from the
// meetup probe and disqualifies tracking only.
func SelectMeetupBranch(m *models.MeetupSummary, invalid bool) MeetupBranch {
	if m == nil {
		return BranchScheduling
	}
	live := m.Status != models.MeetupExpired && m.Status != models.MeetupCancelled
	if !invalid && live && (m.Location != nil || m.ScheduledTime != nil) {
		return BranchTracking
	}
	if m.Status == models.MeetupExpired {
		return BranchExpired
	}
	return BranchScheduling
}

var meetupMoves = map[models.MeetupStatus][]models.MeetupStatus{
	models.MeetupScheduled:     {models.MeetupBuyerArrived, models.MeetupSellerArrived, models.MeetupVerified, models.MeetupCancelled, models.MeetupExpired},
	models.MeetupBuyerArrived:  {models.MeetupBothArrived, models.MeetupVerified, models.MeetupCancelled, models.MeetupExpired},
	models.MeetupSellerArrived: {models.MeetupBothArrived, models.MeetupVerified, models.MeetupCancelled, models.MeetupExpired},
	models.MeetupBothArrived:   {models.MeetupVerified, models.MeetupCancelled, models.MeetupExpired},
	models.MeetupVerified:      {models.MeetupCompleted},
}

// NextMeetupStatus validates a meetup status change.
func NextMeetupStatus(from, to models.MeetupStatus) error {
	for _, s := range meetupMoves[from] {
		if s == to {
			return nil
		}
	}
	if !from.Active() {
		return fmt.Errorf("%w: meetup is %s", pkgerrors.ErrMeetupNotActive, from)
	}
	return fmt.Errorf("%w: meetup %s to %s", pkgerrors.ErrInvalidTransition, from, to)
}

// ArrivalStatus derives the meetup status from who has checked in.
func ArrivalStatus(buyerArrived, sellerArrived bool) models.MeetupStatus {
	switch {
	case buyerArrived && sellerArrived:
		return models.MeetupBothArrived
	case buyerArrived:
		return models.MeetupBuyerArrived
	case sellerArrived:
		return models.MeetupSellerArrived
	}
	return models.MeetupScheduled
}
