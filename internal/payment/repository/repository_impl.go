package repository

import (
	"context"

	"github.com/skipscan/skipscan/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertProcessed(ctx context.Context, db *gorm.DB, payment *domain.ProcessedPayment) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO processed_payments (id, session_id, account_id, package_id, quantity, amount_cents, source, received_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO NOTHING`,
		payment.ID,
		payment.SessionID,
		payment.AccountID,
		payment.PackageID,
		payment.Quantity,
		payment.AmountCents,
		payment.Source,
		payment.ReceivedAt,
		payment.ProcessedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindBySessionID(ctx context.Context, db *gorm.DB, sessionID string) (*domain.ProcessedPayment, error) {
	var payment domain.ProcessedPayment
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, account_id, package_id, quantity, amount_cents, source, received_at, processed_at
		 FROM processed_payments WHERE session_id = ?`,
		sessionID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}
