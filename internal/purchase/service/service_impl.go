package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	accountdomain "github.com/skipscan/skipscan/internal/account/domain"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/config"
	creditpackagedomain "github.com/skipscan/skipscan/internal/creditpackage/domain"
	paymentdomain "github.com/skipscan/skipscan/internal/payment/domain"
	"github.com/skipscan/skipscan/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Config   config.Config
	Accounts accountdomain.Repository
	Packages creditpackagedomain.Repository
	Checkout domain.CheckoutClient
	Payments paymentdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.Config
	accounts accountdomain.Repository
	packages creditpackagedomain.Repository
	checkout domain.CheckoutClient
	payments paymentdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("purchase.service"),
		cfg:      p.Config,
		accounts: p.Accounts,
		packages: p.Packages,
		checkout: p.Checkout,
		payments: p.Payments,
	}
}

func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (domain.CheckoutSession, error) {
	account, pkg, err := s.validatePurchase(ctx, req)
	if err != nil {
		return domain.CheckoutSession{}, err
	}

	session, err := s.checkout.CreateSession(ctx, domain.CheckoutParams{
		AccountID:       account.ID.String(),
		PackageID:       pkg.ID.String(),
		Quantity:        req.Quantity,
		UnitAmountCents: pkg.PricePerCreditUSDCents,
		SuccessURL:      s.cfg.CheckoutSuccessURL,
		CancelURL:       s.cfg.CheckoutCancelURL,
	})
	if err != nil {
		return domain.CheckoutSession{}, err
	}

	s.log.Info("checkout opened",
		zap.String("account_id", account.ID.String()),
		zap.String("package_id", pkg.ID.String()),
		zap.Int64("quantity", req.Quantity),
		zap.Int64("total_cents", req.Quantity*pkg.PricePerCreditUSDCents),
	)

	return session, nil
}

func (s *Service) GrantDirect(ctx context.Context, req domain.CreateSessionRequest) (domain.GrantOutcome, error) {
	if !s.cfg.SandboxGrants {
		return domain.GrantOutcome{}, domain.ErrSandboxDisabled
	}

	account, pkg, err := s.validatePurchase(ctx, req)
	if err != nil {
		return domain.GrantOutcome{}, err
	}

	// Synthetic session ID; the grant flows through the same idempotent
	// apply as processor-backed purchases.
	sessionID := "sandbox_" + uuid.NewString()
	if _, err := s.payments.ApplyGrant(ctx, paymentdomain.GrantRequest{
		SessionID:   sessionID,
		AccountID:   account.ID,
		PackageID:   pkg.ID,
		Quantity:    req.Quantity,
		AmountCents: req.Quantity * pkg.PricePerCreditUSDCents,
		Source:      paymentdomain.SourceSandbox,
	}); err != nil {
		return domain.GrantOutcome{}, err
	}

	refreshed, err := s.accounts.FindByID(ctx, s.db, account.ID)
	if err != nil {
		return domain.GrantOutcome{}, err
	}
	if refreshed == nil {
		return domain.GrantOutcome{}, domain.ErrInvalidAccount
	}

	return domain.GrantOutcome{
		SessionID: sessionID,
		Credits:   req.Quantity,
		Balance:   refreshed.Credits,
	}, nil
}

func (s *Service) validatePurchase(ctx context.Context, req domain.CreateSessionRequest) (*accountdomain.Account, *creditpackagedomain.CreditPackage, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return nil, nil, domain.ErrInvalidAccount
	}

	account, err := s.accounts.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, domain.ErrInvalidAccount
	}

	packageID, err := snowflake.ParseString(strings.TrimSpace(req.PackageID))
	if err != nil || packageID == 0 {
		return nil, nil, domain.ErrInvalidID
	}
	if req.Quantity <= 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}

	pkg, err := s.packages.FindByID(ctx, s.db, packageID)
	if err != nil {
		return nil, nil, err
	}
	if pkg == nil || !pkg.Active {
		return nil, nil, domain.ErrPackageNotFound
	}

	if req.Quantity < pkg.MinCreditsToPurchase {
		return nil, nil, domain.ErrBelowMinimum
	}

	if !pkg.AvailableTo(account.IsPartnerCRMUser) {
		return nil, nil, domain.ErrEligibilityDenied
	}
	if pkg.Eligibility == creditpackagedomain.EligibilityRequiresAffiliation &&
		strings.TrimSpace(account.PartnerLocationID) == "" {
		return nil, nil, domain.ErrPartnerLocationRequired
	}

	return account, pkg, nil
}
