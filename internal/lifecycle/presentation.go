package lifecycle

import "github.com/honeynil/BrrowMarketplace/internal/models"

// CancelledNotice replaces the timeline, receipt and meetup sections once a
// purchase is cancelled.
const CancelledNotice = "This transaction was cancelled. Any payment hold has been released and you will not be charged."

// CanBuyerCancel reports whether the cancel action is offered.
func CanBuyerCancel(isBuyer bool, status models.PaymentStatus) bool {
	return isBuyer && !CancellationBlocked(status)
}

// CanSellerRespond reports whether accept and decline are offered.
func CanSellerRespond(isBuyer, sellerConfirmed bool) bool {
	return !sellerConfirmed && !isBuyer
}

// Sections lists which parts of a purchase screen are drawn.
type Sections struct {
	Timeline        bool
	Receipt         bool
	Meetup          bool
	CancelledNotice bool
}

// SectionsFor applies the display policy for a payment status.
func SectionsFor(status models.PaymentStatus) Sections {
	if status == models.PaymentCancelled {
		return Sections{CancelledNotice: true}
	}
	return Sections{Timeline: true, Receipt: true, Meetup: true}
}

// Presentation is everything a purchase screen needs to decide what to draw.
type Presentation struct {
	Sections      Sections
	MeetupBranch  MeetupBranch
	AcceptDecline bool
	Cancel        bool
	CancelMeetup  bool
}

// Present derives the presentation of d. meetupInvalid is the probe result.
func Present(d *models.PurchaseDetail, meetupInvalid bool) Presentation {
	if d == nil {
		return Presentation{}
	}
	p := Presentation{
		Sections:      SectionsFor(d.PaymentStatus),
		AcceptDecline: CanSellerRespond(d.IsBuyer, d.SellerConfirmed),
		Cancel:        CanBuyerCancel(d.IsBuyer, d.PaymentStatus),
	}
	if p.Sections.Meetup {
		p.MeetupBranch = SelectMeetupBranch(d.Meetup, meetupInvalid)
		p.CancelMeetup = p.MeetupBranch == BranchTracking
	}
	return p
}
