package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/honeynil/BrrowMarketplace/internal/models"
)

func (c *Client) Register(ctx context.Context, username, password string, displayName *string) (*models.User, error) {
	body := map[string]interface{}{"username": username, "password": password}
	if displayName != nil {
		body["display_name"] = *displayName
	}
	var user models.User
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login stores the issued token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return err
	}
	if out.Token == "" {
		return fmt.Errorf("%w: empty token", ErrMalformedResponse)
	}
	c.tokens.SetToken(out.Token)
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.tokens.SetToken("")
	return nil
}

func (c *Client) CreateListing(ctx context.Context, in models.CreateListingInput) (*models.Listing, error) {
	var l models.Listing
	if _, err := c.do(ctx, http.MethodPost, "/api/listings", in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if _, err := c.do(ctx, http.MethodGet, "/api/listings/"+url.PathEscape(id), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) ListPurchases(ctx context.Context) ([]models.Purchase, error) {
	var out []models.Purchase
	if err := c.list(ctx, "/api/purchases", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPurchaseDetails(ctx context.Context, id string) (*models.PurchaseDetail, error) {
	var d models.PurchaseDetail
	if _, err := c.do(ctx, http.MethodGet, "/api/purchases/"+url.PathEscape(id)+"/details", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// AcceptPurchase, DeclinePurchase and CancelPurchase return the server's
// confirmation message.
func (c *Client) AcceptPurchase(ctx context.Context, id string) (string, error) {
	return c.do(ctx, http.MethodPost, "/api/purchases/"+url.PathEscape(id)+"/accept", nil, nil)
}

func (c *Client) DeclinePurchase(ctx context.Context, id, reason string) (string, error) {
	return c.do(ctx, http.MethodPost, "/api/purchases/"+url.PathEscape(id)+"/decline", map[string]string{"reason": reason}, nil)
}

func (c *Client) CancelPurchase(ctx context.Context, id, reason string) (string, error) {
	return c.do(ctx, http.MethodPost, "/api/purchases/"+url.PathEscape(id)+"/cancel", map[string]string{"reason": reason}, nil)
}

func (c *Client) ScheduleMeetup(ctx context.Context, in models.ScheduleMeetupInput) (*models.Meetup, error) {
	var m models.Meetup
	if _, err := c.do(ctx, http.MethodPost, "/api/meetups", in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) ListMeetups(ctx context.Context) ([]models.Meetup, error) {
	var out []models.Meetup
	if err := c.list(ctx, "/api/meetups", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMeetup fails with ErrMalformedResponse when the server answers without a
// usable meetup.
func (c *Client) GetMeetup(ctx context.Context, id string) (*models.Meetup, error) {
	var m models.Meetup
	if _, err := c.do(ctx, http.MethodGet, "/api/meetups/"+url.PathEscape(id), nil, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: meetup without id", ErrMalformedResponse)
	}
	return &m, nil
}

func (c *Client) CancelMeetup(ctx context.Context, id string) (string, error) {
	return c.do(ctx, http.MethodPost, "/api/meetups/"+url.PathEscape(id)+"/cancel", nil, nil)
}

func (c *Client) ArriveAtMeetup(ctx context.Context, id string) (*models.Meetup, error) {
	var m models.Meetup
	if _, err := c.do(ctx, http.MethodPost, "/api/meetups/"+url.PathEscape(id)+"/arrive", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) GenerateVerificationCode(ctx context.Context, id string) (*models.VerificationCode, error) {
	var code models.VerificationCode
	if _, err := c.do(ctx, http.MethodPost, "/api/meetups/"+url.PathEscape(id)+"/verification-code", nil, &code); err != nil {
		return nil, err
	}
	return &code, nil
}

func (c *Client) VerifyMeetup(ctx context.Context, id, code string) (*models.VerificationResult, error) {
	var res models.VerificationResult
	if _, err := c.do(ctx, http.MethodPost, "/api/meetups/"+url.PathEscape(id)+"/verify", map[string]string{"code": code}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateOffer(ctx context.Context, in models.CreateOfferInput) (*models.Offer, error) {
	var o models.Offer
	if _, err := c.do(ctx, http.MethodPost, "/api/offers", in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) ListOffers(ctx context.Context, box models.OfferBox) ([]models.Offer, error) {
	var out []models.Offer
	if err := c.list(ctx, "/api/offers?box="+url.QueryEscape(string(box)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	var o models.Offer
	if _, err := c.do(ctx, http.MethodGet, "/api/offers/"+url.PathEscape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) offerAction(ctx context.Context, id, action string) (*models.Offer, error) {
	var o models.Offer
	if _, err := c.do(ctx, http.MethodPost, "/api/offers/"+url.PathEscape(id)+"/"+action, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) AcceptOffer(ctx context.Context, id string) (*models.Offer, error) {
	return c.offerAction(ctx, id, "accept")
}

func (c *Client) RejectOffer(ctx context.Context, id string) (*models.Offer, error) {
	return c.offerAction(ctx, id, "reject")
}

func (c *Client) CancelOffer(ctx context.Context, id string) (*models.Offer, error) {
	return c.offerAction(ctx, id, "cancel")
}

func (c *Client) CreatePaymentIntent(ctx context.Context, in models.PaymentIntentInput) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	if _, err := c.do(ctx, http.MethodPost, "/api/payments/create-payment-intent", in, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

func (c *Client) ConfirmPayment(ctx context.Context, intentID string) (*models.Purchase, error) {
	var p models.Purchase
	body := map[string]string{"payment_intent_id": intentID}
	if _, err := c.do(ctx, http.MethodPost, "/api/payments/confirm", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetEarnings(ctx context.Context) (*models.EarningsSummary, error) {
	var s models.EarningsSummary
	if _, err := c.do(ctx, http.MethodGet, "/api/earnings", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListPayouts(ctx context.Context) ([]models.Payout, error) {
	var out []models.Payout
	if err := c.list(ctx, "/api/earnings/payouts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RequestPayout(ctx context.Context, req models.PayoutRequest) (*models.Payout, error) {
	var p models.Payout
	if _, err := c.do(ctx, http.MethodPost, "/api/earnings/payouts", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CompleteOnboarding(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/earnings/onboarding", nil, nil)
	return err
}
