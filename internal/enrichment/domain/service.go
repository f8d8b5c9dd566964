package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	KindContactAppend     = "contact-append"
	KindDemographicAppend = "demographic-append"
	KindIndividualSearch  = "individual-search"
	KindPropertySearch    = "property-search"
	KindPhoneSearch       = "phone-search"

	// KindBatchUpload is not a provider endpoint; it labels the stored
	// result of a batch run.
	KindBatchUpload = "batch-upload"
)

// Kinds lists the provider-backed enrichment kinds in a stable order.
var Kinds = []string{
	KindContactAppend,
	KindDemographicAppend,
	KindIndividualSearch,
	KindPropertySearch,
	KindPhoneSearch,
}

// EnrichmentRequest carries the normalized search subject. Empty fields are
// omitted from the provider call.
type EnrichmentRequest struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Empty reports whether no searchable field is set.
func (r EnrichmentRequest) Empty() bool {
	return r == EnrichmentRequest{}
}

// Result is the opaque provider payload plus the billing outcome.
type Result struct {
	Body         map[string]any `json:"body"`
	CreditsSpent int64          `json:"credits_spent"`
	ResultID     snowflake.ID   `json:"result_id"`
}

// Provider performs the upstream call for a kind. The response body is
// passed through untouched.
type Provider interface {
	Enrich(ctx context.Context, kind string, req EnrichmentRequest) (map[string]any, error)
}

// BatchRow is one uploaded record keyed by source column name.
type BatchRow map[string]string

// ColumnMappings maps normalized field names to source column names.
type ColumnMappings map[string]string

const (
	BatchRowProcessed = "processed"
	BatchRowFailed    = "failed"
	BatchRowSkipped   = "skipped"
)

// BatchRowOutcome records what happened to one uploaded row.
type BatchRowOutcome struct {
	Row    int            `json:"row"`
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	Body   map[string]any `json:"body,omitempty"`
}

type BatchResult struct {
	Processed    int          `json:"processed"`
	Failed       int          `json:"failed"`
	Skipped      int          `json:"skipped"`
	CreditsSpent int64        `json:"credits_spent"`
	ResultID     snowflake.ID `json:"result_id"`
}

type Service interface {
	// Invoke runs one gated enrichment call. A credit is deducted only
	// after the provider returns success. The label names the saved
	// result for later review; blank labels get a derived one.
	Invoke(ctx context.Context, kind, label string, req EnrichmentRequest) (Result, error)

	// ProcessBatch runs contact-append per uploaded row with per-row
	// gating. It stops charging when credits run out and records one
	// batch result covering every row.
	ProcessBatch(ctx context.Context, label string, rows []BatchRow, mappings ColumnMappings) (BatchResult, error)
}

var (
	ErrInvalidKind         = errors.New("invalid_kind")
	ErrEmptyRequest        = errors.New("empty_request")
	ErrEmptyBatch          = errors.New("empty_batch")
	ErrProviderUnavailable = errors.New("provider_unavailable")
)
