package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

type reasonRequest struct {
	Reason string `json:"reason"`
}

// optionalReason decodes a reason body. An empty body means no reason.
func optionalReason(r *http.Request) (string, error) {
	if r.ContentLength == 0 {
		return "", nil
	}
	var req reasonRequest
	if err := decode(r, &req); err != nil {
		return "", err
	}
	return req.Reason, nil
}

// ListPurchases handles GET /api/purchases.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	purchases, err := h.purchases.List(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", purchases)
}

// GetPurchaseDetails handles GET /api/purchases/{id}/details.
func (h *Handler) GetPurchaseDetails(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	detail, err := h.purchases.GetDetails(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", detail)
}

// AcceptPurchase handles POST /api/purchases/{id}/accept.
func (h *Handler) AcceptPurchase(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	p, err := h.purchases.Accept(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Purchase accepted", p)
}

// DeclinePurchase handles POST /api/purchases/{id}/decline.
func (h *Handler) DeclinePurchase(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	reason, err := optionalReason(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	p, err := h.purchases.Decline(r.Context(), userID, mux.Vars(r)["id"], reason)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Purchase declined. The buyer's payment hold has been released.", p)
}

// CancelPurchase handles POST /api/purchases/{id}/cancel.
func (h *Handler) CancelPurchase(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	reason, err := optionalReason(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	p, err := h.purchases.Cancel(r.Context(), userID, mux.Vars(r)["id"], reason)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Purchase cancelled. Your payment hold has been released.", p)
}
