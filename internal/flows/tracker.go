// Package flows drives the client-side purchase, checkout, offer and payout
// screens on top of the API client. Flows own no rendering; they publish
// state snapshots that a view draws.
package flows

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/honeynil/BrrowMarketplace/internal/client"
	"github.com/honeynil/BrrowMarketplace/internal/lifecycle"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

var (
	ErrActionNotOffered = errors.New("action is not available for this purchase")
	ErrNotConfirmed     = errors.New("action was not confirmed")
)

var (
	_ PurchaseAPI = (*client.Client)(nil)
	_ CheckoutAPI = (*client.Client)(nil)
	_ OfferAPI    = (*client.Client)(nil)
	_ PayoutAPI   = (*client.Client)(nil)
)

// PurchaseAPI is the part of the API client the tracker uses.
type PurchaseAPI interface {
	GetPurchaseDetails(ctx context.Context, id string) (*models.PurchaseDetail, error)
	AcceptPurchase(ctx context.Context, id string) (string, error)
	DeclinePurchase(ctx context.Context, id, reason string) (string, error)
	CancelPurchase(ctx context.Context, id, reason string) (string, error)
	GetMeetup(ctx context.Context, id string) (*models.Meetup, error)
	CancelMeetup(ctx context.Context, id string) (string, error)
}

// TrackerState is one snapshot of a tracked purchase as a view draws it.
type TrackerState struct {
	Detail        *models.PurchaseDetail
	MeetupInvalid bool
	Presentation  lifecycle.Presentation
	// Error is the last failure, cleared by the next successful operation.
	Error string
	// Notice is the last server confirmation message.
	Notice string
}

// TransactionTracker follows one purchase. Every operation applies its result
// only after the request resolves and only while ctx is alive.
type TransactionTracker struct {
	api        PurchaseAPI
	purchaseID string

	mu      sync.Mutex
	state   TrackerState
	updates chan TrackerState
}

func NewTransactionTracker(api PurchaseAPI, purchaseID string) *TransactionTracker {
	return &TransactionTracker{
		api:        api,
		purchaseID: purchaseID,
		updates:    make(chan TrackerState, 1),
	}
}

// Updates delivers state snapshots. Only the latest unread snapshot is kept.
func (t *TransactionTracker) Updates() <-chan TrackerState {
	return t.updates
}

func (t *TransactionTracker) State() TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// commit must be called with mu held.
func (t *TransactionTracker) commit() {
	t.state.Presentation = lifecycle.Present(t.state.Detail, t.state.MeetupInvalid)
	select {
	case <-t.updates:
	default:
	}
	t.updates <- t.state
}

func (t *TransactionTracker) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Error = client.UserMessage(err)
	t.commit()
	return err
}

// Refresh reloads the purchase and re-probes its meetup.
func (t *TransactionTracker) Refresh(ctx context.Context) error {
	detail, err := t.api.GetPurchaseDetails(ctx, t.purchaseID)
	if err != nil {
		slog.Warn("failed to load purchase", "purchase_id", t.purchaseID, "error", err)
		return t.fail(ctx, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	t.mu.Lock()
	if meetupID(t.state.Detail) != meetupID(detail) {
		t.state.MeetupInvalid = false
	}
	t.state.Detail = detail
	t.state.Error = ""
	t.commit()
	t.mu.Unlock()

	if id := meetupID(detail); id != "" {
		t.probeMeetup(ctx, id)
	}
	return nil
}

func meetupID(d *models.PurchaseDetail) string {
	if d == nil || d.Meetup == nil {
		return ""
	}
	return d.Meetup.ID
}

// probeMeetup checks that the referenced meetup still resolves. A missing or
// unreadable meetup marks it invalid; other failures leave the flag alone.
func (t *TransactionTracker) probeMeetup(ctx context.Context, id string) {
	_, err := t.api.GetMeetup(ctx, id)
	if ctx.Err() != nil {
		return
	}

	var invalid bool
	switch {
	case err == nil:
		invalid = false
	case errors.Is(err, client.ErrMalformedResponse), errors.Is(err, pkgerrors.ErrNotFound):
		invalid = true
	default:
		slog.Debug("meetup probe inconclusive", "meetup_id", id, "error", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// A newer load may have replaced the meetup while the probe was in flight.
	if meetupID(t.state.Detail) != id {
		return
	}
	t.state.MeetupInvalid = invalid
	t.commit()
}

func (t *TransactionTracker) offered(pick func(lifecycle.Presentation) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Detail != nil && pick(t.state.Presentation)
}

func (t *TransactionTracker) act(ctx context.Context, call func() (string, error)) error {
	msg, err := call()
	if err != nil {
		return t.fail(ctx, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	t.mu.Lock()
	t.state.Notice = msg
	t.state.Error = ""
	t.commit()
	t.mu.Unlock()
	return t.Refresh(ctx)
}

func (t *TransactionTracker) Accept(ctx context.Context) error {
	if !t.offered(func(p lifecycle.Presentation) bool { return p.AcceptDecline }) {
		return ErrActionNotOffered
	}
	return t.act(ctx, func() (string, error) { return t.api.AcceptPurchase(ctx, t.purchaseID) })
}

func (t *TransactionTracker) Decline(ctx context.Context, reason string) error {
	if !t.offered(func(p lifecycle.Presentation) bool { return p.AcceptDecline }) {
		return ErrActionNotOffered
	}
	return t.act(ctx, func() (string, error) { return t.api.DeclinePurchase(ctx, t.purchaseID, reason) })
}

// Cancel withdraws the buyer from the purchase and releases the payment hold.
func (t *TransactionTracker) Cancel(ctx context.Context, reason string) error {
	if !t.offered(func(p lifecycle.Presentation) bool { return p.Cancel }) {
		return ErrActionNotOffered
	}
	return t.act(ctx, func() (string, error) { return t.api.CancelPurchase(ctx, t.purchaseID, reason) })
}

// CancelMeetup cancels the tracked meetup once confirm returns true. The
// purchase goes back to scheduling on success.
func (t *TransactionTracker) CancelMeetup(ctx context.Context, confirm func() bool) error {
	t.mu.Lock()
	var id string
	if t.state.Presentation.CancelMeetup {
		id = meetupID(t.state.Detail)
	}
	t.mu.Unlock()
	if id == "" {
		return ErrActionNotOffered
	}
	if confirm == nil || !confirm() {
		return ErrNotConfirmed
	}
	return t.act(ctx, func() (string, error) { return t.api.CancelMeetup(ctx, id) })
}
