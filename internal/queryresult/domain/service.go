package domain

import (
	"context"
	"errors"
)

type RecordRequest struct {
	Kind         string
	Label        string
	Query        any
	Rows         any
	RowCount     int
	CreditsSpent int64
}

type ListRequest struct {
	Limit int
}

type Service interface {
	// Record persists a paid result for the calling account.
	Record(ctx context.Context, req RecordRequest) (QueryResult, error)

	// List returns recent result summaries without the stored payloads.
	List(ctx context.Context, req ListRequest) ([]Summary, error)

	// Get returns a stored result. Results belonging to another account
	// are reported as not found.
	Get(ctx context.Context, id string) (QueryResult, error)
}

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidKind    = errors.New("invalid_kind")
	ErrNotFound       = errors.New("not_found")
)
