package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/skipscan/skipscan/internal/queryresult/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, result *domain.QueryResult) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO query_results (id, account_id, kind, label, query, payload, row_count, credits_spent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.AccountID,
		result.Kind,
		result.Label,
		result.Query,
		result.Rows,
		result.RowCount,
		result.CreditsSpent,
		result.CreatedAt,
	).Error
}

func (r *repo) ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit int) ([]domain.Summary, error) {
	var items []domain.Summary
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, label, row_count, credits_spent, created_at
		 FROM query_results
		 WHERE account_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		accountID,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*domain.QueryResult, error) {
	var result domain.QueryResult
	err := db.WithContext(ctx).Raw(
		`SELECT id, account_id, kind, label, query, payload, row_count, credits_spent, created_at
		 FROM query_results
		 WHERE id = ? AND account_id = ?`,
		id,
		accountID,
	).Scan(&result).Error
	if err != nil {
		return nil, err
	}
	if result.ID == 0 {
		return nil, nil
	}
	return &result, nil
}
