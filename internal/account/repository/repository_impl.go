package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skipscan/skipscan/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (id, email, display_name, credits, is_partner_crm_user, partner_location_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Email,
		account.DisplayName,
		account.Credits,
		account.IsPartnerCRMUser,
		account.PartnerLocationID,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, display_name, credits, is_partner_crm_user, partner_location_id, created_at, updated_at
		 FROM accounts WHERE id = ?`,
		id,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, display_name, credits, is_partner_crm_user, partner_location_id, created_at, updated_at
		 FROM accounts WHERE email = ?`,
		email,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) Debit(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET credits = credits - ?, updated_at = ?
		 WHERE id = ? AND credits >= ?`,
		amount,
		time.Now().UTC(),
		id,
		amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Credit(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET credits = credits + ?, updated_at = ?
		 WHERE id = ?`,
		amount,
		time.Now().UTC(),
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
