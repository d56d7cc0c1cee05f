package lifecycle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

type OfferEvent string

const (
	OfferEventAccept OfferEvent = "accept"
	OfferEventReject OfferEvent = "reject"
	OfferEventCancel OfferEvent = "cancel"
	OfferEventExpire OfferEvent = "expire"
)

var offerOutcomes = map[OfferEvent]models.OfferStatus{
	OfferEventAccept: models.OfferAccepted,
	OfferEventReject: models.OfferRejected,
	OfferEventCancel: models.OfferCancelled,
	OfferEventExpire: models.OfferExpired,
}

// NextOffer applies ev to an offer. Every event requires a pending offer.
func NextOffer(from models.OfferStatus, ev OfferEvent) (models.OfferStatus, error) {
	to, ok := offerOutcomes[ev]
	if !ok {
		return "", fmt.Errorf("%w: unknown offer event %q", pkgerrors.ErrInvalidInput, ev)
	}
	if from != models.OfferPending {
		return "", fmt.Errorf("%w: offer is %s", pkgerrors.ErrOfferNotPending, from)
	}
	return to, nil
}

type OfferActions struct {
	AcceptReject bool
	Cancel       bool
}

// OfferActionsFor returns the actions viewerID may take on o.
func OfferActionsFor(o *models.Offer, viewerID string) OfferActions {
	if o == nil || o.Status != models.OfferPending {
		return OfferActions{}
	}
	return OfferActions{
		AcceptReject: viewerID == o.RecipientID,
		Cancel:       viewerID == o.SenderID,
	}
}

// OfferDraft is the raw text of an offer being composed.
type OfferDraft struct {
	ListingID string
	Amount    string
	Duration  string
	Message   string
}

// Validate parses the draft. The amount must be a positive decimal and the
// duration a positive whole number of days.
func (d OfferDraft) Validate() (*models.CreateOfferInput, error) {
	if strings.TrimSpace(d.ListingID) == "" {
		return nil, fmt.Errorf("%w: listing is required", pkgerrors.ErrInvalidInput)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount))
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", pkgerrors.ErrInvalidInput)
	}
	days, err := strconv.Atoi(strings.TrimSpace(d.Duration))
	if err != nil || days <= 0 {
		return nil, fmt.Errorf("%w: duration must be a positive number of days", pkgerrors.ErrInvalidInput)
	}

	in := &models.CreateOfferInput{
		ListingID:    strings.TrimSpace(d.ListingID),
		Amount:       amount,
		DurationDays: &days,
	}
	if msg := strings.TrimSpace(d.Message); msg != "" {
		in.Message = &msg
	}
	return in, nil
}

// CanSubmit reports whether the submit action is enabled.
func (d OfferDraft) CanSubmit() bool {
	_, err := d.Validate()
	return err == nil
}
