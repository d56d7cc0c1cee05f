package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/auth"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	service "github.com/honeynil/BrrowMarketplace/internal/services"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

// Services bundles the use cases the HTTP layer exposes.
type Services struct {
	Auth      service.AuthService
	Listings  service.ListingService
	Purchases service.PurchaseService
	Meetups   service.MeetupService
	Offers    service.OfferService
	Checkout  service.CheckoutService
	Earnings  service.EarningsService
}

type Handler struct {
	auth      service.AuthService
	listings  service.ListingService
	purchases service.PurchaseService
	meetups   service.MeetupService
	offers    service.OfferService
	checkout  service.CheckoutService
	earnings  service.EarningsService
}

func NewHandler(s Services) *Handler {
	return &Handler{
		auth:      s.Auth,
		listings:  s.Listings,
		purchases: s.Purchases,
		meetups:   s.Meetups,
		offers:    s.Offers,
		checkout:  s.Checkout,
		earnings:  s.Earnings,
	}
}

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errorBody struct {
	Kind    pkgerrors.Kind `json:"kind"`
	Message string         `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
	Message string    `json:"message"`
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind pkgerrors.Kind) int {
	switch kind {
	case pkgerrors.KindNotFound:
		return http.StatusNotFound
	case pkgerrors.KindValidation:
		return http.StatusBadRequest
	case pkgerrors.KindConflict:
		return http.StatusConflict
	case pkgerrors.KindUnauthorized:
		return http.StatusUnauthorized
	case pkgerrors.KindForbidden:
		return http.StatusForbidden
	case pkgerrors.KindSellerOnboardingRequired:
		return http.StatusPreconditionFailed
	case pkgerrors.KindInsufficientFunds:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeOK(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, response{Success: true, Message: message, Data: data})
}

// WriteError renders err in the error envelope. Internal failures are logged
// and reported without their cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := pkgerrors.KindOf(err)
	status := StatusFor(kind)
	msg := err.Error()
	if kind == pkgerrors.KindServer {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	} else {
		slog.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: kind, Message: msg}, Message: msg})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", pkgerrors.ErrInvalidInput, err)
	}
	return nil
}

func currentUser(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", fmt.Errorf("%w: user not authenticated", pkgerrors.ErrUnauthorized)
	}
	return id, nil
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
}

func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	r.HandleFunc("/listings", h.CreateListing).Methods(http.MethodPost)
	r.HandleFunc("/listings/{id}", h.GetListing).Methods(http.MethodGet)

	r.HandleFunc("/purchases", h.ListPurchases).Methods(http.MethodGet)
	r.HandleFunc("/purchases/{id}/details", h.GetPurchaseDetails).Methods(http.MethodGet)
	r.HandleFunc("/purchases/{id}/accept", h.AcceptPurchase).Methods(http.MethodPost)
	r.HandleFunc("/purchases/{id}/decline", h.DeclinePurchase).Methods(http.MethodPost)
	r.HandleFunc("/purchases/{id}/cancel", h.CancelPurchase).Methods(http.MethodPost)

	r.HandleFunc("/meetups", h.ScheduleMeetup).Methods(http.MethodPost)
	r.HandleFunc("/meetups", h.ListMeetups).Methods(http.MethodGet)
	r.HandleFunc("/meetups/{id}", h.GetMeetup).Methods(http.MethodGet)
	r.HandleFunc("/meetups/{id}/cancel", h.CancelMeetup).Methods(http.MethodPost)
	r.HandleFunc("/meetups/{id}/arrive", h.ArriveAtMeetup).Methods(http.MethodPost)
	r.HandleFunc("/meetups/{id}/verification-code", h.GenerateVerificationCode).Methods(http.MethodPost)
	r.HandleFunc("/meetups/{id}/verify", h.VerifyMeetup).Methods(http.MethodPost)

	r.HandleFunc("/offers", h.CreateOffer).Methods(http.MethodPost)
	r.HandleFunc("/offers", h.ListOffers).Methods(http.MethodGet)
	r.HandleFunc("/offers/{id}", h.GetOffer).Methods(http.MethodGet)
	r.HandleFunc("/offers/{id}/accept", h.AcceptOffer).Methods(http.MethodPost)
	r.HandleFunc("/offers/{id}/reject", h.RejectOffer).Methods(http.MethodPost)
	r.HandleFunc("/offers/{id}/cancel", h.CancelOffer).Methods(http.MethodPost)

	r.HandleFunc("/payments/create-payment-intent", h.CreatePaymentIntent).Methods(http.MethodPost)
	r.HandleFunc("/payments/confirm", h.ConfirmPayment).Methods(http.MethodPost)

	r.HandleFunc("/earnings", h.GetEarnings).Methods(http.MethodGet)
	r.HandleFunc("/earnings/payouts", h.ListPayouts).Methods(http.MethodGet)
	r.HandleFunc("/earnings/payouts", h.RequestPayout).Methods(http.MethodPost)
	r.HandleFunc("/earnings/onboarding", h.CompleteOnboarding).Methods(http.MethodPost)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string  `json:"username"`
		Password    string  `json:"password"`
		DisplayName *string `json:"display_name"`
	}
	if err := decode(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Account created", user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", map[string]string{"token": token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.auth.Logout(r.Context(), userID); err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Logged out", nil)
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in models.CreateListingInput
	if err := decode(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	listing, err := h.listings.Create(r.Context(), userID, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Listing created", listing)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", listing)
}
