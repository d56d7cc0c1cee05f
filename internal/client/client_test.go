package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeynil/BrrowMarketplace/internal/api"
	"github.com/honeynil/BrrowMarketplace/internal/handler"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/auth"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	redismocks "github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis/mocks"
	"github.com/honeynil/BrrowMarketplace/internal/models"
	"github.com/honeynil/BrrowMarketplace/internal/services/mocks"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, nil)
}

func TestGetMeetup_WellFormed(t *testing.T) {
	c := serve(t, http.StatusOK, `{"success":true,"data":{"id":"m-1","purchase_id":"p-1","status":"SCHEDULED"}}`)

	m, err := c.GetMeetup(context.Background(), "m-1")

	require.NoError(t, err)
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, models.MeetupScheduled, m.Status)
}

func TestGetMeetup_MalformedPayloads(t *testing.T) {
	bodies := map[string]string{
		"no data":        `{"success":true}`,
		"null data":      `{"success":true,"data":null}`,
		"empty object":   `{"success":true,"data":{}}`,
		"unknown status": `{"success":true,"data":{"id":"m-1","status":"TELEPORTED"}}`,
		"not json":       `<html>oops</html>`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := serve(t, http.StatusOK, body)

			_, err := c.GetMeetup(context.Background(), "m-1")

			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestAPIError_StructuredKind(t *testing.T) {
	c := serve(t, http.StatusNotFound, `{"success":false,"error":{"kind":"not_found","message":"meetup not found"},"message":"meetup not found"}`)

	_, err := c.GetMeetup(context.Background(), "m-1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, pkgerrors.KindNotFound, apiErr.Kind)
	assert.Equal(t, "meetup not found", apiErr.Message)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestAPIError_KindWinsOverStatus(t *testing.T) {
	c := serve(t, http.StatusBadRequest, `{"success":false,"error":{"kind":"seller_onboarding_required","message":"seller onboarding required"}}`)

	_, err := c.CreatePaymentIntent(context.Background(), models.PaymentIntentInput{})

	assert.ErrorIs(t, err, pkgerrors.ErrSellerOnboardingRequired)
}

func TestAPIError_StatusFallback(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, pkgerrors.ErrNotFound},
		{http.StatusBadRequest, pkgerrors.ErrInvalidInput},
		{http.StatusUnprocessableEntity, pkgerrors.ErrInvalidInput},
		{http.StatusUnauthorized, pkgerrors.ErrUnauthorized},
		{http.StatusForbidden, pkgerrors.ErrForbidden},
		{http.StatusConflict, pkgerrors.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := serve(t, tt.status, `not json at all`)

			_, err := c.GetPurchaseDetails(context.Background(), "p-1")

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, http.StatusText(tt.status), UserMessage(err))
		})
	}
}

func TestAPIError_ServerKindHasNoSentinel(t *testing.T) {
	c := serve(t, http.StatusInternalServerError, `{"success":false,"error":{"kind":"server","message":"internal server error"}}`)

	_, err := c.GetPurchaseDetails(context.Background(), "p-1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, pkgerrors.KindServer, apiErr.Kind)
	assert.False(t, errors.Is(err, pkgerrors.ErrNotFound))
}

func TestAPIError_SuccessFalseOnOK(t *testing.T) {
	c := serve(t, http.StatusOK, `{"success":false,"message":"Purchase cannot be cancelled"}`)

	_, err := c.CancelPurchase(context.Background(), "p-1", "")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Purchase cannot be cancelled", apiErr.Message)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(url, nil)

	_, err := c.GetPurchaseDetails(context.Background(), "p-1")

	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "Network error. Please check your connection and try again.", UserMessage(err))
}

func TestListOffers_NullDataIsEmpty(t *testing.T) {
	c := serve(t, http.StatusOK, `{"success":true,"data":null}`)

	offers, err := c.ListOffers(context.Background(), models.OfferBoxSent)

	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestRequestSendsTokenAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/earnings/payouts", r.URL.Path)
		var req models.PayoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, decimal.RequireFromString("25").Equal(req.Amount))
		assert.Equal(t, models.PayoutPayPal, req.Method)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"po-1","amount":"25","method":"paypal","status":"pending"}}`)
	}))
	defer srv.Close()
	store := &MemoryTokenStore{}
	store.SetToken("tok-1")
	c := NewClient(srv.URL, store)

	payout, err := c.RequestPayout(context.Background(), models.PayoutRequest{
		Amount: decimal.RequireFromString("25"),
		Method: models.PayoutPayPal,
	})

	require.NoError(t, err)
	assert.Equal(t, "po-1", payout.ID)
}

func TestClientAgainstRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	authSvc := mocks.NewMockAuthService(ctrl)
	purchases := mocks.NewMockPurchaseService(ctrl)
	redisClient := redismocks.NewMockRedisClient(ctrl)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.GenerateJWT("u-1", "alice")
	require.NoError(t, err)

	h := handler.NewHandler(handler.Services{
		Auth:      authSvc,
		Listings:  mocks.NewMockListingService(ctrl),
		Purchases: purchases,
		Meetups:   mocks.NewMockMeetupService(ctrl),
		Offers:    mocks.NewMockOfferService(ctrl),
		Checkout:  mocks.NewMockCheckoutService(ctrl),
		Earnings:  mocks.NewMockEarningsService(ctrl),
	})
	srv := httptest.NewServer(api.SetupRouter(h, redisClient, issuer, nil))
	defer srv.Close()

	authSvc.EXPECT().Login(gomock.Any(), "alice", "secret123").Return(token, nil)
	redisClient.EXPECT().Get(gomock.Any(), redis.TokenKey("u-1")).Return(token, nil).Times(2)
	purchases.EXPECT().Cancel(gomock.Any(), "u-1", "p-1", "changed my mind").
		Return(&models.Purchase{ID: "p-1", Stage: models.StageCancelled}, nil)
	purchases.EXPECT().GetDetails(gomock.Any(), "u-1", "p-404").Return(nil, pkgerrors.ErrPurchaseNotFound)

	c := NewClient(srv.URL, nil)
	require.NoError(t, c.Login(context.Background(), "alice", "secret123"))

	msg, err := c.CancelPurchase(context.Background(), "p-1", "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, "Purchase cancelled. Your payment hold has been released.", msg)

	_, err = c.GetPurchaseDetails(context.Background(), "p-404")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	assert.Equal(t, "purchase not found", UserMessage(err))
}
