package domain

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
)

// GrantRequest is a settled purchase to be credited. SessionID is the
// idempotency key; a session is credited at most once no matter how many
// paths deliver it.
type GrantRequest struct {
	SessionID   string
	AccountID   snowflake.ID
	PackageID   snowflake.ID
	Quantity    int64
	AmountCents int64
	Source      string
}

// VerifyResult is the pull-path answer for a checkout session.
type VerifyResult struct {
	Paid    bool  `json:"paid"`
	Balance int64 `json:"balance"`
}

// SessionDetails is the processor's view of a checkout session, including
// the metadata frozen at session creation.
type SessionDetails struct {
	SessionID   string
	Paid        bool
	AccountID   string
	PackageID   string
	Quantity    int64
	AmountCents int64
}

// SessionFetcher retrieves a checkout session from the processor. The
// processor record is the source of truth; client-supplied state is never
// trusted.
type SessionFetcher interface {
	FetchSession(ctx context.Context, sessionID string) (SessionDetails, error)
}

// WebhookVerifier authenticates and parses processor webhook deliveries.
type WebhookVerifier interface {
	// Verify checks the delivery signature before any payload processing.
	Verify(ctx context.Context, payload []byte, headers http.Header) error

	// Parse extracts a completed, paid checkout session from the payload.
	// Events of other types return ErrEventIgnored.
	Parse(ctx context.Context, payload []byte) (SessionDetails, error)
}

type Service interface {
	// HandleWebhook is the push path: verify signature, parse the event,
	// apply the grant exactly once.
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error

	// VerifySession is the pull path: fetch the session from the
	// processor and, when paid and owned by the caller, apply the same
	// grant.
	VerifySession(ctx context.Context, sessionID string) (VerifyResult, error)

	// ApplyGrant credits a settled purchase idempotently. The returned
	// flag reports whether this call performed the credit.
	ApplyGrant(ctx context.Context, req GrantRequest) (bool, error)
}

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrInvalidMetadata  = errors.New("invalid_metadata")
	ErrEventIgnored     = errors.New("event_ignored")
	ErrSessionUnpaid    = errors.New("session_unpaid")
	ErrSessionMismatch  = errors.New("session_mismatch")
	ErrInvalidAccount   = errors.New("invalid_account")
	ErrInvalidSession   = errors.New("invalid_session")
	ErrGrantFailed      = errors.New("grant_failed")

	// ErrProcessorUnavailable covers failures reaching the payment
	// processor, as opposed to failures of our own.
	ErrProcessorUnavailable = errors.New("processor_unavailable")
)
