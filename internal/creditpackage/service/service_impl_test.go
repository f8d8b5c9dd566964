package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountrepo "github.com/skipscan/skipscan/internal/account/repository"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/creditpackage/domain"
	"github.com/skipscan/skipscan/internal/creditpackage/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestListFiltersByEligibility(t *testing.T) {
	service, db, node := setupPackageService(t)

	open := seedPackage(t, db, node, "Starter", domain.EligibilityUnrestricted, true)
	partnerOnly := seedPackage(t, db, node, "Partner Bulk", domain.EligibilityRequiresAffiliation, true)
	retailOnly := seedPackage(t, db, node, "Retail", domain.EligibilityExcludesAffiliation, true)
	seedPackage(t, db, node, "Legacy", domain.EligibilityUnrestricted, false)

	partnerAccount := seedAccount(t, db, node, "partner@example.com", true)
	retailAccount := seedAccount(t, db, node, "retail@example.com", false)

	partnerCtx := accountctx.WithAccountID(context.Background(), int64(partnerAccount))
	got, err := service.List(partnerCtx)
	if err != nil {
		t.Fatalf("list partner: %v", err)
	}
	assertPackageIDs(t, got, open, partnerOnly)

	retailCtx := accountctx.WithAccountID(context.Background(), int64(retailAccount))
	got, err = service.List(retailCtx)
	if err != nil {
		t.Fatalf("list retail: %v", err)
	}
	assertPackageIDs(t, got, open, retailOnly)
}

func TestListRequiresAccountContext(t *testing.T) {
	service, _, _ := setupPackageService(t)

	if _, err := service.List(context.Background()); err != domain.ErrInvalidAccount {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	service, db, node := setupPackageService(t)
	id := seedPackage(t, db, node, "Starter", domain.EligibilityUnrestricted, true)

	pkg, err := service.GetByID(context.Background(), id.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pkg.Name != "Starter" {
		t.Fatalf("expected Starter, got %q", pkg.Name)
	}

	if _, err := service.GetByID(context.Background(), node.Generate().String()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.GetByID(context.Background(), "not-a-snowflake"); err != domain.ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func setupPackageService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
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

	node := mustNode(t)
	service := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Repo:     repository.Provide(),
		Accounts: accountrepo.Provide(),
	})

	return service, db, node
}

func seedAccount(t *testing.T, db *gorm.DB, node *snowflake.Node, email string, partner bool) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO accounts (id, email, credits, is_partner_crm_user, created_at, updated_at) VALUES (?, ?, 0, ?, ?, ?)`,
		id, email, partner, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return id
}

func seedPackage(t *testing.T, db *gorm.DB, node *snowflake.Node, name string, eligibility domain.Eligibility, active bool) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO credit_packages (id, name, price_per_credit_usd_cents, min_credits_to_purchase, eligibility, active, created_at, updated_at)
		 VALUES (?, ?, 200, 25, ?, ?, ?, ?)`,
		id, name, eligibility, active, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed package: %v", err)
	}
	return id
}

func assertPackageIDs(t *testing.T, got []domain.CreditPackage, want ...snowflake.ID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d packages, got %d", len(want), len(got))
	}
	seen := make(map[snowflake.ID]bool, len(got))
	for _, pkg := range got {
		seen[pkg.ID] = true
	}
	for _, id := range want {
		if !seen[id] {
			t.Fatalf("expected package %s in listing", id.String())
		}
	}
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}
