package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	creditgatedomain "github.com/skipscan/skipscan/internal/creditgate/domain"
	"github.com/skipscan/skipscan/internal/enrichment/domain"
	"github.com/skipscan/skipscan/internal/observability/logger"
	"github.com/skipscan/skipscan/internal/observability/metrics"
	queryresultdomain "github.com/skipscan/skipscan/internal/queryresult/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const creditsPerCall = 1

type Params struct {
	fx.In

	Log      *zap.Logger
	Gate     creditgatedomain.Service
	Provider domain.Provider
	Results  queryresultdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	gate     creditgatedomain.Service
	provider domain.Provider
	results  queryresultdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("enrichment.service"),
		gate:     p.Gate,
		provider: p.Provider,
		results:  p.Results,
		metrics:  p.Metrics,
	}
}

func (s *Service) Invoke(ctx context.Context, kind, label string, req domain.EnrichmentRequest) (domain.Result, error) {
	kind = strings.TrimSpace(kind)
	if !knownKind(kind) {
		return domain.Result{}, domain.ErrInvalidKind
	}
	if req.Empty() {
		return domain.Result{}, domain.ErrEmptyRequest
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = deriveLabel(kind, req)
	}

	if _, err := s.gate.CheckAndReserve(ctx, creditsPerCall); err != nil {
		s.recordCall(ctx, kind, "refused")
		return domain.Result{}, err
	}

	body, err := s.provider.Enrich(ctx, kind, req)
	if err != nil {
		s.recordCall(ctx, kind, "provider_error")
		return domain.Result{}, err
	}

	if err := s.gate.CommitDeduction(ctx, creditsPerCall); err != nil {
		// The balance moved after admission. The provider result is
		// discarded rather than given away unbilled.
		s.recordCall(ctx, kind, "commit_refused")
		return domain.Result{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordCreditsDebited(ctx, kind, creditsPerCall)
	}

	stored, err := s.results.Record(ctx, queryresultdomain.RecordRequest{
		Kind:         kind,
		Label:        label,
		Query:        req,
		Rows:         body,
		RowCount:     1,
		CreditsSpent: creditsPerCall,
	})
	if err != nil {
		// The call was billed and the payload is still returned; only the
		// replay copy is missing.
		logger.WithContext(ctx, s.log).Error("paid result not stored",
			zap.String("kind", kind),
			zap.Error(err),
		)
	}

	s.recordCall(ctx, kind, "success")
	return domain.Result{
		Body:         body,
		CreditsSpent: creditsPerCall,
		ResultID:     stored.ID,
	}, nil
}

func (s *Service) ProcessBatch(ctx context.Context, label string, rows []domain.BatchRow, mappings domain.ColumnMappings) (domain.BatchResult, error) {
	if len(rows) == 0 {
		return domain.BatchResult{}, domain.ErrEmptyBatch
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = fmt.Sprintf("Batch upload (%d rows)", len(rows))
	}

	outcomes := make([]domain.BatchRowOutcome, 0, len(rows))
	var result domain.BatchResult
	outOfCredits := false

	for i, row := range rows {
		if outOfCredits {
			outcomes = append(outcomes, domain.BatchRowOutcome{
				Row:    i,
				Status: domain.BatchRowSkipped,
				Error:  creditgatedomain.ErrInsufficientCredits.Error(),
			})
			result.Skipped++
			continue
		}

		req := applyMappings(row, mappings)
		if req.Empty() {
			outcomes = append(outcomes, domain.BatchRowOutcome{
				Row:    i,
				Status: domain.BatchRowFailed,
				Error:  domain.ErrEmptyRequest.Error(),
			})
			result.Failed++
			continue
		}

		if _, err := s.gate.CheckAndReserve(ctx, creditsPerCall); err != nil {
			if errors.Is(err, creditgatedomain.ErrInsufficientCredits) {
				outOfCredits = true
				outcomes = append(outcomes, domain.BatchRowOutcome{
					Row:    i,
					Status: domain.BatchRowSkipped,
					Error:  err.Error(),
				})
				result.Skipped++
				continue
			}
			return domain.BatchResult{}, err
		}

		body, err := s.provider.Enrich(ctx, domain.KindContactAppend, req)
		if err != nil {
			outcomes = append(outcomes, domain.BatchRowOutcome{
				Row:    i,
				Status: domain.BatchRowFailed,
				Error:  err.Error(),
			})
			result.Failed++
			continue
		}

		if err := s.gate.CommitDeduction(ctx, creditsPerCall); err != nil {
			if errors.Is(err, creditgatedomain.ErrInsufficientCredits) {
				outOfCredits = true
				outcomes = append(outcomes, domain.BatchRowOutcome{
					Row:    i,
					Status: domain.BatchRowSkipped,
					Error:  err.Error(),
				})
				result.Skipped++
				continue
			}
			return domain.BatchResult{}, err
		}
		if s.metrics != nil {
			s.metrics.RecordCreditsDebited(ctx, domain.KindBatchUpload, creditsPerCall)
		}

		outcomes = append(outcomes, domain.BatchRowOutcome{
			Row:    i,
			Status: domain.BatchRowProcessed,
			Body:   body,
		})
		result.Processed++
		result.CreditsSpent += creditsPerCall
	}

	stored, err := s.results.Record(ctx, queryresultdomain.RecordRequest{
		Kind:         domain.KindBatchUpload,
		Label:        label,
		Query:        mappings,
		Rows:         outcomes,
		RowCount:     len(rows),
		CreditsSpent: result.CreditsSpent,
	})
	if err != nil {
		// Rows are already billed; the outcomes still go back to the
		// caller even when the replay copy is missing.
		logger.WithContext(ctx, s.log).Error("paid batch result not stored",
			zap.Int("rows", len(rows)),
			zap.Error(err),
		)
	}
	result.ResultID = stored.ID

	s.recordCall(ctx, domain.KindBatchUpload, "success")
	logger.WithContext(ctx, s.log).Info("batch processed",
		zap.Int("rows", len(rows)),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

func (s *Service) recordCall(ctx context.Context, kind, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordEnrichmentCall(ctx, kind, outcome)
	}
}

func knownKind(kind string) bool {
	for _, known := range domain.Kinds {
		if kind == known {
			return true
		}
	}
	return false
}

// deriveLabel names an unlabeled search after its most specific input.
func deriveLabel(kind string, req domain.EnrichmentRequest) string {
	name := strings.TrimSpace(strings.Join(
		[]string{strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)}, " ",
	))
	switch {
	case name != "":
		return name
	case req.Email != "":
		return req.Email
	case req.Phone != "":
		return req.Phone
	case req.Address != "":
		return req.Address
	default:
		return kind
	}
}

func applyMappings(row domain.BatchRow, mappings domain.ColumnMappings) domain.EnrichmentRequest {
	lookup := func(field string) string {
		column, ok := mappings[field]
		if !ok || column == "" {
			column = field
		}
		return strings.TrimSpace(row[column])
	}

	return domain.EnrichmentRequest{
		FirstName: lookup("first_name"),
		LastName:  lookup("last_name"),
		Address:   lookup("address"),
		City:      lookup("city"),
		State:     lookup("state"),
		Zip:       lookup("zip"),
		Email:     lookup("email"),
		Phone:     lookup("phone"),
	}
}
