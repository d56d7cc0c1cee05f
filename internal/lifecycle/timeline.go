package lifecycle

import "github.com/honeynil/BrrowMarketplace/internal/models"

// progress orders the stages along the happy path. Declined and cancelled
// purchases report zero and keep only the facts recorded on the row.
var progress = map[models.Stage]int{
	models.StagePendingSellerConfirmation: 1,
	models.StageAccepted:                  2,
	models.StageAwaitingMeetup:            2,
	models.StageMeetupScheduled:           3,
	models.StageVerified:                  4,
	models.StageCompleted:                 5,
	models.StageRefunded:                  5,
}

func stepStatus(done, active bool) models.TimelineStatus {
	switch {
	case done:
		return models.TimelineCompleted
	case active:
		return models.TimelineInProgress
	}
	return models.TimelinePending
}

// BuildTimeline projects p onto the five handoff steps. m is the current
// meetup and may be nil.
func BuildTimeline(p *models.Purchase, m *models.Meetup) []models.TimelineStep {
	rank := progress[p.Stage]
	created := p.CreatedAt

	steps := []models.TimelineStep{
		{
			Step:        1,
			Status:      models.TimelineCompleted,
			Title:       "Payment held",
			Description: "The buyer's payment is held until the handoff is verified.",
			CompletedAt: &created,
		},
		{
			Step:        2,
			Status:      stepStatus(p.SellerConfirmed, rank == 1),
			Title:       "Seller confirmation",
			Description: "The seller accepts or declines the request.",
			CompletedAt: p.SellerConfirmedAt,
		},
		{
			Step:            3,
			Status:          stepStatus(rank >= 3, rank == 2),
			Title:           "Schedule meetup",
			Description:     "Agree on a time and place for the handoff.",
			MeetupScheduled: rank >= 3,
		},
		{
			Step:        4,
			Status:      stepStatus(rank >= 4, rank == 3),
			Title:       "Meet & verify",
			Description: "Meet in person and confirm the handoff with the verification code.",
		},
		{
			Step:        5,
			Status:      stepStatus(rank >= 5, rank == 4),
			Title:       "Payment released",
			Description: "The payment is released to the seller.",
			CompletedAt: p.CapturedAt,
		},
	}
	if m != nil {
		if rank >= 3 {
			at := m.CreatedAt
			steps[2].CompletedAt = &at
		}
		steps[3].CompletedAt = m.VerifiedAt
	}
	return steps
}
