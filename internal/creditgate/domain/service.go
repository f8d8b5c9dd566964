package domain

import (
	"context"
	"errors"
)

// Reservation reports the balance observed when an enrichment call was
// admitted. The observed balance is advisory only; the deduction at commit
// time is conditional on the live balance.
type Reservation struct {
	Approved bool  `json:"approved"`
	Balance  int64 `json:"balance"`
}

type Service interface {
	// CheckAndReserve admits a call when the current balance covers cost.
	// It does not hold the credits; CommitDeduction settles them.
	CheckAndReserve(ctx context.Context, cost int64) (Reservation, error)

	// CommitDeduction debits cost atomically, refusing to drive the
	// balance negative even under concurrent commits.
	CommitDeduction(ctx context.Context, cost int64) error
}

var (
	ErrInvalidAccount      = errors.New("invalid_account")
	ErrNotFound            = errors.New("not_found")
	ErrInvalidCost         = errors.New("invalid_cost")
	ErrInsufficientCredits = errors.New("insufficient_credits")
)
