package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertProcessed records the session marker, reporting false when a
	// marker for the session already exists.
	InsertProcessed(ctx context.Context, db *gorm.DB, payment *ProcessedPayment) (bool, error)

	FindBySessionID(ctx context.Context, db *gorm.DB, sessionID string) (*ProcessedPayment, error)
}
