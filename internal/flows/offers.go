package flows

import (
	"context"
	"sync"

	"github.com/honeynil/BrrowMarketplace/internal/client"
	"github.com/honeynil/BrrowMarketplace/internal/lifecycle"
	"github.com/honeynil/BrrowMarketplace/internal/models"
)

type OfferAPI interface {
	CreateOffer(ctx context.Context, in models.CreateOfferInput) (*models.Offer, error)
	ListOffers(ctx context.Context, box models.OfferBox) ([]models.Offer, error)
	AcceptOffer(ctx context.Context, id string) (*models.Offer, error)
	RejectOffer(ctx context.Context, id string) (*models.Offer, error)
	CancelOffer(ctx context.Context, id string) (*models.Offer, error)
}

// OfferView pairs an offer with what the viewer may do to it.
type OfferView struct {
	Offer   models.Offer
	Actions lifecycle.OfferActions
}

// OfferBoard lists one box of offers for a viewer and runs the negotiation
// actions against it.
type OfferBoard struct {
	api      OfferAPI
	viewerID string

	mu     sync.Mutex
	box    models.OfferBox
	offers []models.Offer
	err    string
}

func NewOfferBoard(api OfferAPI, viewerID string) *OfferBoard {
	return &OfferBoard{api: api, viewerID: viewerID, box: models.OfferBoxReceived}
}

func (b *OfferBoard) Load(ctx context.Context, box models.OfferBox) error {
	offers, err := b.api.ListOffers(ctx, box)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.err = client.UserMessage(err)
		return err
	}
	b.box = box
	b.offers = offers
	b.err = ""
	return nil
}

func (b *OfferBoard) Views() []OfferView {
	b.mu.Lock()
	defer b.mu.Unlock()
	views := make([]OfferView, 0, len(b.offers))
	for i := range b.offers {
		views = append(views, OfferView{
			Offer:   b.offers[i],
			Actions: lifecycle.OfferActionsFor(&b.offers[i], b.viewerID),
		})
	}
	return views
}

func (b *OfferBoard) Error() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Submit validates the draft before anything is sent.
func (b *OfferBoard) Submit(ctx context.Context, draft lifecycle.OfferDraft) (*models.Offer, error) {
	in, err := draft.Validate()
	if err != nil {
		b.setErr(client.UserMessage(err))
		return nil, err
	}
	offer, err := b.api.CreateOffer(ctx, *in)
	if err != nil {
		if ctx.Err() == nil {
			b.setErr(client.UserMessage(err))
		}
		return nil, err
	}
	return offer, b.reload(ctx)
}

func (b *OfferBoard) setErr(msg string) {
	b.mu.Lock()
	b.err = msg
	b.mu.Unlock()
}

func (b *OfferBoard) reload(ctx context.Context) error {
	b.mu.Lock()
	box := b.box
	b.mu.Unlock()
	return b.Load(ctx, box)
}

func (b *OfferBoard) find(id string) (lifecycle.OfferActions, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.offers {
		if b.offers[i].ID == id {
			return lifecycle.OfferActionsFor(&b.offers[i], b.viewerID), true
		}
	}
	return lifecycle.OfferActions{}, false
}

func (b *OfferBoard) decide(ctx context.Context, id string, allowed func(lifecycle.OfferActions) bool,
	call func(context.Context, string) (*models.Offer, error)) (*models.Offer, error) {
	actions, ok := b.find(id)
	if !ok || !allowed(actions) {
		return nil, ErrActionNotOffered
	}
	offer, err := call(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			b.setErr(client.UserMessage(err))
		}
		return nil, err
	}
	return offer, b.reload(ctx)
}

func (b *OfferBoard) Accept(ctx context.Context, id string) (*models.Offer, error) {
	return b.decide(ctx, id, func(a lifecycle.OfferActions) bool { return a.AcceptReject }, b.api.AcceptOffer)
}

func (b *OfferBoard) Reject(ctx context.Context, id string) (*models.Offer, error) {
	return b.decide(ctx, id, func(a lifecycle.OfferActions) bool { return a.AcceptReject }, b.api.RejectOffer)
}

func (b *OfferBoard) Cancel(ctx context.Context, id string) (*models.Offer, error) {
	return b.decide(ctx, id, func(a lifecycle.OfferActions) bool { return a.Cancel }, b.api.CancelOffer)
}
