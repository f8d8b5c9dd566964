package config

import (
	"strings"
	"testing"

	"github.com/skipscan/skipscan/internal/enrichment/endpoints"
)

func TestDefaultVersiumBaseURLComposesWithEndpointPaths(t *testing.T) {
	t.Setenv("VERSIUM_BASE_URL", "")

	cfg := Load()
	base := strings.TrimRight(cfg.VersiumBaseURL, "/")

	for kind, path := range endpoints.DefaultConfig().Paths {
		url := base + path
		if strings.Count(url, "/v2/") != 1 {
			t.Fatalf("default URL for %s has a doubled version segment: %s", kind, url)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VERSIUM_BASE_URL", "https://sandbox.versium.test")
	t.Setenv("SANDBOX_GRANTS", "true")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "7")

	cfg := Load()
	if cfg.VersiumBaseURL != "https://sandbox.versium.test" {
		t.Fatalf("unexpected base URL: %s", cfg.VersiumBaseURL)
	}
	if !cfg.SandboxGrants {
		t.Fatal("expected sandbox grants enabled")
	}
	if cfg.DBMaxOpenConn != 7 {
		t.Fatalf("expected 7 open conns, got %d", cfg.DBMaxOpenConn)
	}
}
