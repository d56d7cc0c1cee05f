package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

// ScheduleMeetup handles POST /api/meetups.
func (h *Handler) ScheduleMeetup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in models.ScheduleMeetupInput
	if err := decode(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}
	m, err := h.meetups.Schedule(r.Context(), userID, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Meetup scheduled", m)
}

// ListMeetups handles GET /api/meetups.
func (h *Handler) ListMeetups(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	meetups, err := h.meetups.ListMine(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", meetups)
}

// GetMeetup handles GET /api/meetups/{id}.
func (h *Handler) GetMeetup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	m, err := h.meetups.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", m)
}

// CancelMeetup handles POST /api/meetups/{id}/cancel.
func (h *Handler) CancelMeetup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	m, err := h.meetups.Cancel(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Meetup cancelled. You can schedule a new one.", m)
}

// ArriveAtMeetup handles POST /api/meetups/{id}/arrive.
func (h *Handler) ArriveAtMeetup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	m, err := h.meetups.Arrive(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Arrival recorded", m)
}

// GenerateVerificationCode handles POST /api/meetups/{id}/verification-code.
func (h *Handler) GenerateVerificationCode(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	code, err := h.meetups.GenerateCode(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "", code)
}

// VerifyMeetup handles POST /api/meetups/{id}/verify.
func (h *Handler) VerifyMeetup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	res, err := h.meetups.Verify(r.Context(), userID, mux.Vars(r)["id"], req.Code)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Handoff verified. Payment released to the seller.", res)
}
