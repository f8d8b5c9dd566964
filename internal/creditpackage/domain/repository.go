package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pkg *CreditPackage) error
	ListActive(ctx context.Context, db *gorm.DB) ([]*CreditPackage, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CreditPackage, error)
	CountAll(ctx context.Context, db *gorm.DB) (int64, error)
}
