package auth

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skipscan/skipscan/internal/config"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(config.Config{AuthJWTSecret: "test-secret"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestIssueAndVerify(t *testing.T) {
	manager := newManager(t)
	node, err := snowflake.NewNode(8)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	accountID := node.Generate()

	token, err := manager.Issue(accountID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != accountID {
		t.Fatalf("expected account %s, got %s", accountID.String(), got.String())
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	manager := newManager(t)
	other, err := NewManager(config.Config{AuthJWTSecret: "other-secret"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	node, err := snowflake.NewNode(8)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	token, err := other.Issue(node.Generate())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager := newManager(t)
	manager.now = func() time.Time { return time.Now().UTC().Add(-48 * time.Hour) }

	node, err := snowflake.NewNode(8)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	token, err := manager.Issue(node.Generate())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.now = func() time.Time { return time.Now().UTC() }
	if _, err := manager.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	manager := newManager(t)
	if _, err := manager.Verify("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := manager.Verify(""); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(config.Config{}); err != ErrMissingSecret {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
