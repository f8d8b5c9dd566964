package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/skipscan/skipscan/internal/creditpackage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pkg *domain.CreditPackage) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO credit_packages (id, name, price_per_credit_usd_cents, min_credits_to_purchase, eligibility, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pkg.ID,
		pkg.Name,
		pkg.PricePerCreditUSDCents,
		pkg.MinCreditsToPurchase,
		pkg.Eligibility,
		pkg.Active,
		pkg.CreatedAt,
		pkg.UpdatedAt,
	).Error
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.CreditPackage, error) {
	var items []*domain.CreditPackage
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price_per_credit_usd_cents, min_credits_to_purchase, eligibility, active, created_at, updated_at
		 FROM credit_packages
		 WHERE active = ?
		 ORDER BY price_per_credit_usd_cents ASC, id ASC`,
		true,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CreditPackage, error) {
	var pkg domain.CreditPackage
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price_per_credit_usd_cents, min_credits_to_purchase, eligibility, active, created_at, updated_at
		 FROM credit_packages WHERE id = ?`,
		id,
	).Scan(&pkg).Error
	if err != nil {
		return nil, err
	}
	if pkg.ID == 0 {
		return nil, nil
	}
	return &pkg, nil
}

func (r *repo) CountAll(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM credit_packages`).Scan(&count).Error
	return count, err
}
