package domain

import (
	"context"
	"errors"
)

// CheckoutSession is the hosted payment page handed back to the caller.
// The session metadata frozen at creation time is the only durable record
// of the purchase intent until the payment settles.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type CreateSessionRequest struct {
	PackageID string `json:"package_id"`
	Quantity  int64  `json:"quantity"`
}

// GrantOutcome reports a direct sandbox grant.
type GrantOutcome struct {
	SessionID string `json:"session_id"`
	Credits   int64  `json:"credits"`
	Balance   int64  `json:"balance"`
}

// CheckoutParams carries everything the payment processor needs to build a
// hosted session for a credit purchase.
type CheckoutParams struct {
	AccountID       string
	PackageID       string
	Quantity        int64
	UnitAmountCents int64
	SuccessURL      string
	CancelURL       string
}

// CheckoutClient creates hosted checkout sessions with the payment
// processor.
type CheckoutClient interface {
	CreateSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error)
}

type Service interface {
	// CreateSession validates the purchase against the catalog and opens a
	// hosted checkout session. Nothing is persisted locally.
	CreateSession(ctx context.Context, req CreateSessionRequest) (CheckoutSession, error)

	// GrantDirect credits the account immediately without a processor
	// session. Enabled only in sandbox environments.
	GrantDirect(ctx context.Context, req CreateSessionRequest) (GrantOutcome, error)
}

var (
	ErrInvalidAccount          = errors.New("invalid_account")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidQuantity         = errors.New("invalid_quantity")
	ErrPackageNotFound         = errors.New("package_not_found")
	ErrBelowMinimum            = errors.New("below_minimum_quantity")
	ErrEligibilityDenied       = errors.New("eligibility_denied")
	ErrPartnerLocationRequired = errors.New("partner_location_required")
	ErrSandboxDisabled         = errors.New("sandbox_disabled")
	ErrCheckoutFailed          = errors.New("checkout_failed")
)
