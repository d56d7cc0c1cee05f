package handler

import (
	"fmt"
	"net/http"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in models.PaymentIntentInput
	if err := decode(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}
	pi, err := h.checkout.CreatePaymentIntent(r.Context(), userID, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "", pi)
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	if err := decode(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.PaymentIntentID == "" {
		WriteError(w, r, fmt.Errorf("%w: payment_intent_id is required", pkgerrors.ErrInvalidInput))
		return
	}
	p, err := h.checkout.ConfirmPayment(r.Context(), userID, req.PaymentIntentID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Payment confirmed. Waiting for the seller to accept.", p)
}

func (h *Handler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	summary, err := h.earnings.Summary(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", summary)
}

func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	payouts, err := h.earnings.ListPayouts(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", payouts)
}

func (h *Handler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req models.PayoutRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	payout, err := h.earnings.RequestPayout(r.Context(), userID, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Payout requested", payout)
}

func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.earnings.CompleteOnboarding(r.Context(), userID); err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Payouts enabled", nil)
}
