package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/queryresult/domain"
	"github.com/skipscan/skipscan/internal/queryresult/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRecordAndGet(t *testing.T) {
	service, node := setupResultService(t)
	accountID := node.Generate()
	ctx := accountctx.WithAccountID(context.Background(), int64(accountID))

	recorded, err := service.Record(ctx, domain.RecordRequest{
		Kind:         "contact-append",
		Label:        "Ada Lovelace",
		Query:        map[string]string{"first_name": "Ada", "last_name": "Lovelace"},
		Rows:         []map[string]any{{"phone": "+15551234567"}},
		RowCount:     1,
		CreditsSpent: 1,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := service.Get(ctx, recorded.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != "contact-append" || got.CreditsSpent != 1 || got.RowCount != 1 {
		t.Fatalf("unexpected stored result: %+v", got)
	}
	if got.Label != "Ada Lovelace" {
		t.Fatalf("expected label to survive storage, got %q", got.Label)
	}

	var rows []map[string]any
	if err := json.Unmarshal(got.Rows, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0]["phone"] != "+15551234567" {
		t.Fatalf("unexpected rows payload: %v", rows)
	}
}

func TestGetIsolatesAccounts(t *testing.T) {
	service, node := setupResultService(t)
	owner := node.Generate()
	intruder := node.Generate()

	ownerCtx := accountctx.WithAccountID(context.Background(), int64(owner))
	recorded, err := service.Record(ownerCtx, domain.RecordRequest{
		Kind:     "reverse-phone",
		Query:    map[string]string{"phone": "+15550000000"},
		Rows:     []map[string]any{},
		RowCount: 0,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	intruderCtx := accountctx.WithAccountID(context.Background(), int64(intruder))
	if _, err := service.Get(intruderCtx, recorded.ID.String()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign result, got %v", err)
	}
}

func TestListOmitsPayloads(t *testing.T) {
	service, node := setupResultService(t)
	accountID := node.Generate()
	ctx := accountctx.WithAccountID(context.Background(), int64(accountID))

	for i := 0; i < 3; i++ {
		_, err := service.Record(ctx, domain.RecordRequest{
			Kind:         "contact-append",
			Label:        fmt.Sprintf("search %d", i),
			Query:        map[string]int{"n": i},
			Rows:         []map[string]any{{"n": i}},
			RowCount:     1,
			CreditsSpent: 1,
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	summaries, err := service.List(ctx, domain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	for _, summary := range summaries {
		if summary.Kind != "contact-append" || summary.CreditsSpent != 1 {
			t.Fatalf("unexpected summary: %+v", summary)
		}
		if summary.Label == "" {
			t.Fatalf("expected summary label, got %+v", summary)
		}
	}
}

func TestRecordRejectsBlankKind(t *testing.T) {
	service, node := setupResultService(t)
	ctx := accountctx.WithAccountID(context.Background(), int64(node.Generate()))

	if _, err := service.Record(ctx, domain.RecordRequest{Kind: "  "}); err != domain.ErrInvalidKind {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func setupResultService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error

	err = db.Exec(`CREATE TABLE IF NOT EXISTS query_results (
		id INTEGER PRIMARY KEY,
		account_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		query TEXT,
		payload TEXT,
		row_count INTEGER NOT NULL DEFAULT 0,
		credits_spent INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`).Error
	if err != nil {
		t.Fatalf("prepare schema: %v", err)
	}

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	service := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	return service, node
}
