package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/queryresult/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultListLimit = 50

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
		log:   p.Log.Named("queryresult.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.QueryResult, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.QueryResult{}, domain.ErrInvalidAccount
	}

	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		return domain.QueryResult{}, domain.ErrInvalidKind
	}

	query, err := marshalJSON(req.Query)
	if err != nil {
		return domain.QueryResult{}, err
	}
	rows, err := marshalJSON(req.Rows)
	if err != nil {
		return domain.QueryResult{}, err
	}

	result := domain.QueryResult{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		Kind:         kind,
		Label:        strings.TrimSpace(req.Label),
		Query:        query,
		Rows:         rows,
		RowCount:     req.RowCount,
		CreditsSpent: req.CreditsSpent,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &result); err != nil {
		return domain.QueryResult{}, err
	}

	return result, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Summary, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return nil, domain.ErrInvalidAccount
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}

	return s.repo.ListByAccount(ctx, s.db, accountID, limit)
}

func (s *Service) Get(ctx context.Context, id string) (domain.QueryResult, error) {
	accountID, ok := accountctx.AccountIDFromContext(ctx)
	if !ok || accountID == 0 {
		return domain.QueryResult{}, domain.ErrInvalidAccount
	}

	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.QueryResult{}, domain.ErrInvalidID
	}

	result, err := s.repo.FindByID(ctx, s.db, accountID, parsed)
	if err != nil {
		return domain.QueryResult{}, err
	}
	if result == nil {
		return domain.QueryResult{}, domain.ErrNotFound
	}

	return *result, nil
}

func marshalJSON(value any) (datatypes.JSON, error) {
	if value == nil {
		return datatypes.JSON("null"), nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
