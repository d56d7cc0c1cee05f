package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in models.CreateOfferInput
	if err := decode(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}
	o, err := h.offers.Create(r.Context(), userID, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Offer sent", o)
}

// ListOffers handles GET /api/offers?box=received|sent. The received box is
// the default.
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	raw := r.URL.Query().Get("box")
	if raw == "" {
		raw = string(models.OfferBoxReceived)
	}
	box, err := models.ParseOfferBox(raw)
	if err != nil {
		WriteError(w, r, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidInput, err))
		return
	}
	offers, err := h.offers.List(r.Context(), userID, box)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", offers)
}

func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	o, err := h.offers.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", o)
}

type offerAction func(ctx context.Context, userID, offerID string) (*models.Offer, error)

func (h *Handler) decideOffer(w http.ResponseWriter, r *http.Request, act offerAction, message string) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	o, err := act(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, message, o)
}

func (h *Handler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	h.decideOffer(w, r, h.offers.Accept, "Offer accepted")
}

func (h *Handler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	h.decideOffer(w, r, h.offers.Reject, "Offer rejected")
}

func (h *Handler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	h.decideOffer(w, r, h.offers.Cancel, "Offer cancelled")
}
