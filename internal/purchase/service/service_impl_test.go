package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountrepo "github.com/skipscan/skipscan/internal/account/repository"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/config"
	creditpackagedomain "github.com/skipscan/skipscan/internal/creditpackage/domain"
	creditpackagerepo "github.com/skipscan/skipscan/internal/creditpackage/repository"
	paymentdomain "github.com/skipscan/skipscan/internal/payment/domain"
	"github.com/skipscan/skipscan/internal/purchase/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type checkoutStub struct {
	params domain.CheckoutParams
	err    error
}

func (c *checkoutStub) CreateSession(ctx context.Context, params domain.CheckoutParams) (domain.CheckoutSession, error) {
	c.params = params
	if c.err != nil {
		return domain.CheckoutSession{}, c.err
	}
	return domain.CheckoutSession{SessionID: "cs_stub", URL: "https://checkout.example.com/cs_stub"}, nil
}

type paymentStub struct {
	grants  []paymentdomain.GrantRequest
	applyFn func(req paymentdomain.GrantRequest)
}

func (p *paymentStub) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	return nil
}

func (p *paymentStub) VerifySession(ctx context.Context, sessionID string) (paymentdomain.VerifyResult, error) {
	return paymentdomain.VerifyResult{}, nil
}

func (p *paymentStub) ApplyGrant(ctx context.Context, req paymentdomain.GrantRequest) (bool, error) {
	p.grants = append(p.grants, req)
	if p.applyFn != nil {
		p.applyFn(req)
	}
	return true, nil
}

type fixture struct {
	service  domain.Service
	db       *gorm.DB
	node     *snowflake.Node
	checkout *checkoutStub
	payments *paymentStub
}

func setupPurchase(t *testing.T, sandbox bool) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT,
			credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
			is_partner_crm_user BOOLEAN NOT NULL DEFAULT FALSE,
			partner_location_id TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credit_packages (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			price_per_credit_usd_cents INTEGER NOT NULL,
			min_credits_to_purchase INTEGER NOT NULL DEFAULT 1,
			eligibility TEXT NOT NULL DEFAULT 'unrestricted',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("prepare schema: %v", err)
		}
	}

	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	checkout := &checkoutStub{}
	payments := &paymentStub{}
	service := New(Params{
		DB:  db,
		Log: zap.NewNop(),
		Config: config.Config{
			CheckoutSuccessURL: "https://app.example.com/success",
			CheckoutCancelURL:  "https://app.example.com/cancel",
			SandboxGrants:      sandbox,
		},
		Accounts: accountrepo.Provide(),
		Packages: creditpackagerepo.Provide(),
		Checkout: checkout,
		Payments: payments,
	})

	return &fixture{service: service, db: db, node: node, checkout: checkout, payments: payments}
}

func (f *fixture) seedAccount(t *testing.T, partner bool, location string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Now().UTC()
	err := f.db.Exec(
		`INSERT INTO accounts (id, email, credits, is_partner_crm_user, partner_location_id, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?, ?, ?)`,
		id, fmt.Sprintf("%s@example.com", id.String()), partner, location, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return id
}

func (f *fixture) seedPackage(t *testing.T, eligibility creditpackagedomain.Eligibility, minQuantity int64, active bool) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Now().UTC()
	err := f.db.Exec(
		`INSERT INTO credit_packages (id, name, price_per_credit_usd_cents, min_credits_to_purchase, eligibility, active, created_at, updated_at)
		 VALUES (?, 'Test', 200, ?, ?, ?, ?, ?)`,
		id, minQuantity, eligibility, active, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed package: %v", err)
	}
	return id
}

func TestCreateSessionBuildsCheckout(t *testing.T) {
	f := setupPurchase(t, false)
	accountID := f.seedAccount(t, false, "")
	packageID := f.seedPackage(t, creditpackagedomain.EligibilityUnrestricted, 25, true)

	ctx := accountctx.WithAccountID(context.Background(), int64(accountID))
	session, err := f.service.CreateSession(ctx, domain.CreateSessionRequest{
		PackageID: packageID.String(),
		Quantity:  50,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.SessionID != "cs_stub" || session.URL == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	params := f.checkout.params
	if params.AccountID != accountID.String() || params.PackageID != packageID.String() {
		t.Fatalf("unexpected checkout identity: %+v", params)
	}
	if params.Quantity != 50 || params.UnitAmountCents != 200 {
		t.Fatalf("unexpected checkout amounts: %+v", params)
	}
	if params.SuccessURL != "https://app.example.com/success" {
		t.Fatalf("unexpected success URL: %s", params.SuccessURL)
	}
}

func TestCreateSessionValidationOrder(t *testing.T) {
	f := setupPurchase(t, false)
	accountID := f.seedAccount(t, false, "")
	ctx := accountctx.WithAccountID(context.Background(), int64(accountID))

	inactive := f.seedPackage(t, creditpackagedomain.EligibilityUnrestricted, 25, false)
	if _, err := f.service.CreateSession(ctx, domain.CreateSessionRequest{PackageID: inactive.String(), Quantity: 50}); err != domain.ErrPackageNotFound {
		t.Fatalf("expected ErrPackageNotFound for inactive package, got %v", err)
	}

	if _, err := f.service.CreateSession(ctx, domain.CreateSessionRequest{PackageID: f.node.Generate().String(), Quantity: 50}); err != domain.ErrPackageNotFound {
		t.Fatalf("expected ErrPackageNotFound for unknown package, got %v", err)
	}

	active := f.seedPackage(t, creditpackagedomain.EligibilityUnrestricted, 25, true)
	if _, err := f.service.CreateSession(ctx, domain.CreateSessionRequest{PackageID: active.String(), Quantity: 10}); err != domain.ErrBelowMinimum {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if _, err := f.service.CreateSession(ctx, domain.CreateSessionRequest{PackageID: active.String(), Quantity: 0}); err != domain.ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	partnerOnly := f.seedPackage(t, creditpackagedomain.EligibilityRequiresAffiliation, 25, true)
	if _, err := f.service.CreateSession(ctx, domain.CreateSessionRequest{PackageID: partnerOnly.String(), Quantity: 50}); err != domain.ErrEligibilityDenied {
		t.Fatalf("expected ErrEligibilityDenied, got %v", err)
	}
}

func TestCreateSessionPartnerLocationRequired(t *testing.T) {
	f := setupPurchase(t, false)
	partnerOnly := f.seedPackage(t, creditpackagedomain.EligibilityRequiresAffiliation, 25, true)

	noLocation := f.seedAccount(t, true, "")
	ctx := accountctx.WithAccountID(context.Background(), int64(noLocation))
	if _, err := f.service.CreateSession(ctx, domain.CreateSessionRequest{PackageID: partnerOnly.String(), Quantity: 50}); err != domain.ErrPartnerLocationRequired {
		t.Fatalf("expected ErrPartnerLocationRequired, got %v", err)
	}

	withLocation := f.seedAccount(t, true, "loc_42")
	ctx = accountctx.WithAccountID(context.Background(), int64(withLocation))
	if _, err := f.service.CreateSession(ctx, domain.CreateSessionRequest{PackageID: partnerOnly.String(), Quantity: 50}); err != nil {
		t.Fatalf("expected affiliated purchase allowed, got %v", err)
	}
}

func TestGrantDirectDisabledByDefault(t *testing.T) {
	f := setupPurchase(t, false)
	accountID := f.seedAccount(t, false, "")
	packageID := f.seedPackage(t, creditpackagedomain.EligibilityUnrestricted, 25, true)

	ctx := accountctx.WithAccountID(context.Background(), int64(accountID))
	if _, err := f.service.GrantDirect(ctx, domain.CreateSessionRequest{PackageID: packageID.String(), Quantity: 50}); err != domain.ErrSandboxDisabled {
		t.Fatalf("expected ErrSandboxDisabled, got %v", err)
	}
	if len(f.payments.grants) != 0 {
		t.Fatalf("expected no grants, got %d", len(f.payments.grants))
	}
}

func TestGrantDirectSandbox(t *testing.T) {
	f := setupPurchase(t, true)
	accountID := f.seedAccount(t, false, "")
	packageID := f.seedPackage(t, creditpackagedomain.EligibilityUnrestricted, 25, true)

	f.payments.applyFn = func(req paymentdomain.GrantRequest) {
		if err := f.db.Exec(`UPDATE accounts SET credits = credits + ? WHERE id = ?`, req.Quantity, req.AccountID).Error; err != nil {
			t.Fatalf("apply stub grant: %v", err)
		}
	}

	ctx := accountctx.WithAccountID(context.Background(), int64(accountID))
	outcome, err := f.service.GrantDirect(ctx, domain.CreateSessionRequest{PackageID: packageID.String(), Quantity: 50})
	if err != nil {
		t.Fatalf("grant direct: %v", err)
	}
	if !strings.HasPrefix(outcome.SessionID, "sandbox_") {
		t.Fatalf("expected synthetic session id, got %s", outcome.SessionID)
	}
	if outcome.Credits != 50 || outcome.Balance != 50 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	if len(f.payments.grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(f.payments.grants))
	}
	grant := f.payments.grants[0]
	if grant.Source != paymentdomain.SourceSandbox || grant.AmountCents != 50*200 {
		t.Fatalf("unexpected grant: %+v", grant)
	}
}
