package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, result *QueryResult) error
	ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit int) ([]Summary, error)
	FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*QueryResult, error)
}
