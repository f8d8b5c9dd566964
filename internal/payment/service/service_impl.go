package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sethvargo/go-retry"
	accountdomain "github.com/skipscan/skipscan/internal/account/domain"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/observability/logger"
	"github.com/skipscan/skipscan/internal/observability/metrics"
	"github.com/skipscan/skipscan/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Accounts accountdomain.Repository
	Verifier domain.WebhookVerifier
	Fetcher  domain.SessionFetcher
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	accounts accountdomain.Repository
	verifier domain.WebhookVerifier
	fetcher  domain.SessionFetcher
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		accounts: p.Accounts,
		verifier: p.Verifier,
		fetcher:  p.Fetcher,
		metrics:  p.Metrics,
	}
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.verifier.Verify(ctx, payload, headers); err != nil {
		return err
	}

	details, err := s.verifier.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, domain.ErrEventIgnored) {
			return err
		}
		// Verified delivery with an unusable payload. Logged for manual
		// reconciliation; the processor gets a 400 and will not retry.
		logger.WithContext(ctx, s.log).Error("webhook payload unusable",
			zap.Error(err),
			zap.ByteString("payload", payload),
		)
		return err
	}

	s.recordEvent(ctx, domain.SourceWebhook, "checkout.session.completed")

	if !details.Paid {
		logger.WithContext(ctx, s.log).Info("webhook session not paid",
			zap.String("session_id", details.SessionID),
		)
		return nil
	}

	grant, err := s.grantFromDetails(details, domain.SourceWebhook)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("webhook metadata unusable",
			zap.String("session_id", details.SessionID),
			zap.Error(err),
		)
		return err
	}

	if _, err := s.applyGrantWithRetry(ctx, grant); err != nil {
		return err
	}
	return nil
}

func (s *Service) VerifySession(ctx context.Context, sessionID string) (domain.VerifyResult, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.VerifyResult{}, domain.ErrInvalidAccount
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.VerifyResult{}, domain.ErrInvalidSession
	}

	details, err := s.fetcher.FetchSession(ctx, sessionID)
	if err != nil {
		return domain.VerifyResult{}, err
	}

	owner, err := snowflake.ParseString(details.AccountID)
	if err != nil || owner != accountID {
		return domain.VerifyResult{}, domain.ErrSessionMismatch
	}

	s.recordEvent(ctx, domain.SourceVerify, "checkout.session.retrieved")

	if details.Paid {
		grant, err := s.grantFromDetails(details, domain.SourceVerify)
		if err != nil {
			return domain.VerifyResult{}, err
		}
		if _, err := s.applyGrantWithRetry(ctx, grant); err != nil {
			return domain.VerifyResult{}, err
		}
	}

	account, err := s.accounts.FindByID(ctx, s.db, accountID)
	if err != nil {
		return domain.VerifyResult{}, err
	}
	if account == nil {
		return domain.VerifyResult{}, domain.ErrInvalidAccount
	}

	return domain.VerifyResult{Paid: details.Paid, Balance: account.Credits}, nil
}

func (s *Service) ApplyGrant(ctx context.Context, req domain.GrantRequest) (bool, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return false, domain.ErrInvalidSession
	}
	if req.AccountID == 0 || req.Quantity <= 0 {
		return false, domain.ErrInvalidMetadata
	}

	now := time.Now().UTC()
	marker := domain.ProcessedPayment{
		ID:          s.genID.Generate(),
		SessionID:   strings.TrimSpace(req.SessionID),
		AccountID:   req.AccountID,
		PackageID:   req.PackageID,
		Quantity:    req.Quantity,
		AmountCents: req.AmountCents,
		Source:      req.Source,
		ReceivedAt:  now,
		ProcessedAt: now,
	}

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.InsertProcessed(ctx, tx, &marker)
		if err != nil {
			return err
		}
		if !inserted {
			// Another delivery already credited this session.
			return nil
		}

		credited, err := s.accounts.Credit(ctx, tx, req.AccountID, req.Quantity)
		if err != nil {
			return err
		}
		if !credited {
			return domain.ErrInvalidAccount
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		logger.WithContext(ctx, s.log).Info("credits granted",
			zap.String("session_id", marker.SessionID),
			zap.String("account_id", req.AccountID.String()),
			zap.Int64("quantity", req.Quantity),
			zap.String("source", req.Source),
		)
		if s.metrics != nil {
			s.metrics.RecordCreditsGranted(ctx, req.Source, req.Quantity)
		}
	}

	return applied, nil
}

// applyGrantWithRetry retries transient storage failures. The payment is
// already settled upstream, so giving up means losing paid-for credits;
// after exhaustion the caller surfaces an error so the delivery is retried.
func (s *Service) applyGrantWithRetry(ctx context.Context, req domain.GrantRequest) (bool, error) {
	var applied bool
	backoff := retry.WithMaxRetries(3, retry.WithCappedDuration(2*time.Second, retry.NewExponential(100*time.Millisecond)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := s.ApplyGrant(ctx, req)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidAccount) ||
				errors.Is(err, domain.ErrInvalidSession) ||
				errors.Is(err, domain.ErrInvalidMetadata) {
				return err
			}
			return retry.RetryableError(err)
		}
		applied = result
		return nil
	})
	if err != nil {
		logger.WithContext(ctx, s.log).Error("grant not applied after retries",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrInvalidAccount) ||
			errors.Is(err, domain.ErrInvalidSession) ||
			errors.Is(err, domain.ErrInvalidMetadata) {
			return false, err
		}
		return false, domain.ErrGrantFailed
	}
	return applied, nil
}

func (s *Service) grantFromDetails(details domain.SessionDetails, source string) (domain.GrantRequest, error) {
	accountID, err := snowflake.ParseString(details.AccountID)
	if err != nil || accountID == 0 {
		return domain.GrantRequest{}, domain.ErrInvalidMetadata
	}
	packageID, err := snowflake.ParseString(details.PackageID)
	if err != nil || packageID == 0 {
		return domain.GrantRequest{}, domain.ErrInvalidMetadata
	}

	return domain.GrantRequest{
		SessionID:   details.SessionID,
		AccountID:   accountID,
		PackageID:   packageID,
		Quantity:    details.Quantity,
		AmountCents: details.AmountCents,
		Source:      source,
	}, nil
}

func (s *Service) recordEvent(ctx context.Context, source, eventType string) {
	if s.metrics != nil {
		s.metrics.RecordPaymentEvent(ctx, source, eventType)
	}
}
