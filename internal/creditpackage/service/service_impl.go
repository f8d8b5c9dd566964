package service

import (
	"context"
	"strings"

	accountdomain "github.com/skipscan/skipscan/internal/account/domain"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/creditpackage/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	Accounts accountdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	accounts accountdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("creditpackage.service"),
		repo:     p.Repo,
		accounts: p.Accounts,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.CreditPackage, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return nil, domain.ErrInvalidAccount
	}

	account, err := s.accounts.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrInvalidAccount
	}

	items, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}

	packages := make([]domain.CreditPackage, 0, len(items))
	for _, item := range items {
		if item == nil || !item.AvailableTo(account.IsPartnerCRMUser) {
			continue
		}
		packages = append(packages, *item)
	}

	return packages, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.CreditPackage, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.CreditPackage{}, domain.ErrInvalidID
	}

	pkg, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.CreditPackage{}, err
	}
	if pkg == nil {
		return domain.CreditPackage{}, domain.ErrNotFound
	}

	return *pkg, nil
}
