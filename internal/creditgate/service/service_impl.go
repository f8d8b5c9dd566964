package service

import (
	"context"

	accountdomain "github.com/skipscan/skipscan/internal/account/domain"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/creditgate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Accounts accountdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	accounts accountdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("creditgate.service"),
		accounts: p.Accounts,
	}
}

func (s *Service) CheckAndReserve(ctx context.Context, cost int64) (domain.Reservation, error) {
	if cost <= 0 {
		return domain.Reservation{}, domain.ErrInvalidCost
	}

	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.Reservation{}, domain.ErrInvalidAccount
	}

	account, err := s.accounts.FindByID(ctx, s.db, accountID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if account == nil {
		return domain.Reservation{}, domain.ErrNotFound
	}

	if account.Credits < cost {
		s.log.Info("enrichment call refused",
			zap.String("account_id", accountID.String()),
			zap.Int64("balance", account.Credits),
			zap.Int64("cost", cost),
		)
		return domain.Reservation{Balance: account.Credits}, domain.ErrInsufficientCredits
	}

	return domain.Reservation{Approved: true, Balance: account.Credits}, nil
}

func (s *Service) CommitDeduction(ctx context.Context, cost int64) error {
	if cost <= 0 {
		return domain.ErrInvalidCost
	}

	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.ErrInvalidAccount
	}

	debited, err := s.accounts.Debit(ctx, s.db, accountID, cost)
	if err != nil {
		return err
	}
	if !debited {
		// The balance moved between admission and settlement. The caller
		// already consumed the upstream result, so this surfaces as an
		// insufficient-credits failure rather than a silent negative balance.
		return domain.ErrInsufficientCredits
	}

	return nil
}
