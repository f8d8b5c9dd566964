package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skipscan/skipscan/internal/account/domain"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.Account{}, err
	}
	if existing != nil {
		return domain.Account{}, domain.ErrEmailTaken
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:                s.genID.Generate(),
		Email:             email,
		DisplayName:       strings.TrimSpace(req.DisplayName),
		Credits:           0,
		IsPartnerCRMUser:  req.IsPartnerCRMUser,
		PartnerLocationID: strings.TrimSpace(req.PartnerLocationID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, &account); err != nil {
		// The pre-check above can lose a race with a concurrent signup.
		if db.IsDuplicateKeyErr(err) {
			return domain.Account{}, domain.ErrEmailTaken
		}
		return domain.Account{}, err
	}

	s.log.Info("account created", zap.String("account_id", account.ID.String()))
	return account, nil
}

func (s *Service) Get(ctx context.Context) (domain.Account, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.Account{}, domain.ErrInvalidAccount
	}

	item, err := s.repo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	if item == nil {
		return domain.Account{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Balance(ctx context.Context) (int64, error) {
	account, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return account.Credits, nil
}
