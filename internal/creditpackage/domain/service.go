package domain

import (
	"context"
	"errors"
)

type Service interface {
	// List returns active packages visible to the calling account,
	// filtered by the package eligibility rules.
	List(ctx context.Context) ([]CreditPackage, error)

	GetByID(ctx context.Context, id string) (CreditPackage, error)
}

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
)
