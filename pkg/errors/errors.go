package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrNilUser            = errors.New("user is nil")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUsernameExists     = fmt.Errorf("username already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = fmt.Errorf("internal error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = fmt.Errorf("invalid input")

	ErrListingNotFound = errors.New("listing not found")

	ErrNilPurchase           = errors.New("purchase is nil")
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrInvalidTransition     = errors.New("transition not allowed from current state")
	ErrPurchaseNotCancelable = errors.New("purchase can no longer be cancelled")
	ErrStaleState            = errors.New("purchase changed concurrently")

	ErrMeetupNotFound          = errors.New("meetup not found")
	ErrMeetupNotActive         = errors.New("meetup is not active")
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")

	ErrOfferNotFound   = errors.New("offer not found")
	ErrOfferNotPending = errors.New("offer is not pending")
	ErrOwnListing      = errors.New("cannot make an offer on your own listing")

	ErrSellerOnboardingRequired = errors.New("seller onboarding required")
	ErrPaymentIntentNotFound    = errors.New("payment intent not found")
	ErrRequestAlreadyProcessed  = errors.New("request already processed")

	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPayoutBelowMinimum = errors.New("payout amount is below the minimum")
	ErrPayoutNotFound     = errors.New("payout not found")
)

// Kind is the structured class of an error as exposed on the wire.
type Kind string

const (
	KindNotFound                 Kind = "not_found"
	KindValidation               Kind = "validation"
	KindConflict                 Kind = "conflict"
	KindUnauthorized             Kind = "unauthorized"
	KindForbidden                Kind = "forbidden"
	KindSellerOnboardingRequired Kind = "seller_onboarding_required"
	KindInsufficientFunds        Kind = "insufficient_funds"
	KindServer                   Kind = "server"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrUserNotFound, KindNotFound},
	{ErrListingNotFound, KindNotFound},
	{ErrPurchaseNotFound, KindNotFound},
	{ErrMeetupNotFound, KindNotFound},
	{ErrOfferNotFound, KindNotFound},
	{ErrPaymentIntentNotFound, KindNotFound},
	{ErrPayoutNotFound, KindNotFound},
	{ErrNotFound, KindNotFound},

	{ErrInvalidInput, KindValidation},
	{ErrNilUser, KindValidation},
	{ErrNilPurchase, KindValidation},
	{ErrOwnListing, KindValidation},
	{ErrPayoutBelowMinimum, KindValidation},
	{ErrInvalidVerificationCode, KindValidation},

	{ErrUsernameExists, KindConflict},
	{ErrUserAlreadyExists, KindConflict},
	{ErrInvalidTransition, KindConflict},
	{ErrPurchaseNotCancelable, KindConflict},
	{ErrStaleState, KindConflict},
	{ErrMeetupNotActive, KindConflict},
	{ErrOfferNotPending, KindConflict},
	{ErrRequestAlreadyProcessed, KindConflict},
	{ErrConflict, KindConflict},

	{ErrInvalidCredentials, KindUnauthorized},
	{ErrUnauthorized, KindUnauthorized},
	{ErrForbidden, KindForbidden},

	{ErrSellerOnboardingRequired, KindSellerOnboardingRequired},
	{ErrInsufficientFunds, KindInsufficientFunds},
}

// KindOf classifies err. Unknown errors are KindServer.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindServer
}

// ParseKind converts a wire value into a Kind. Unknown values map to KindServer.
func ParseKind(s string) Kind {
	switch k := Kind(s); k {
	case KindNotFound, KindValidation, KindConflict, KindUnauthorized, KindForbidden,
		KindSellerOnboardingRequired, KindInsufficientFunds, KindServer:
		return k
	}
	return KindServer
}

// Sentinel returns the canonical sentinel for a kind so callers can match
// remote errors with errors.Is. KindServer has no sentinel.
func (k Kind) Sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrInvalidInput
	case KindConflict:
		return ErrConflict
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindSellerOnboardingRequired:
		return ErrSellerOnboardingRequired
	case KindInsufficientFunds:
		return ErrInsufficientFunds
	}
	return nil
}

