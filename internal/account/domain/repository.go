package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Account, error)

	// Debit decrements credits only when the balance covers the amount.
	// Returns false when zero rows were affected (insufficient balance or
	// missing account), leaving the balance untouched.
	Debit(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) (bool, error)

	// Credit increments the balance unconditionally. Returns false when the
	// account does not exist.
	Credit(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) (bool, error)
}
