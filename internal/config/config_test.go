package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "LEDGER_BACKEND", "FRAME_READ_SIZE", "OPERATOR_USER_IDS", "SESSION_IDLE_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.LedgerBackend != "file" {
		t.Errorf("LedgerBackend = %q, want file", cfg.LedgerBackend)
	}
	if cfg.ReadSize != 80 {
		t.Errorf("ReadSize = %d, want 80", cfg.ReadSize)
	}
	if cfg.IdleTimeout != 0 {
		t.Errorf("IdleTimeout = %v, want 0", cfg.IdleTimeout)
	}
	if len(cfg.OperatorIDs) != 0 {
		t.Errorf("OperatorIDs = %v, want none", cfg.OperatorIDs)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "Redis")
	t.Setenv("FRAME_READ_SIZE", "16")
	t.Setenv("FRAME_MAX_SIZE", "not-a-number")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("OPERATOR_USER_IDS", "1, 7,x,12")

	cfg := Load()
	if cfg.LedgerBackend != "redis" {
		t.Errorf("LedgerBackend = %q, want redis", cfg.LedgerBackend)
	}
	if cfg.ReadSize != 16 {
		t.Errorf("ReadSize = %d, want 16", cfg.ReadSize)
	}
	if cfg.MaxFrameSize != 4096 {
		t.Errorf("MaxFrameSize = %d, want fallback 4096", cfg.MaxFrameSize)
	}
	if cfg.IdleTimeout != 90*time.Second {
		t.Errorf("IdleTimeout = %v, want 90s", cfg.IdleTimeout)
	}
	if diff := cmp.Diff([]int{1, 7, 12}, cfg.OperatorIDs); diff != "" {
		t.Errorf("OperatorIDs mismatch (-want +got):\n%s", diff)
	}
	if !cfg.IsOperator(7) || cfg.IsOperator(2) {
		t.Errorf("IsOperator gave wrong answers for %v", cfg.OperatorIDs)
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BORDRAIL_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BORDRAIL_TEST_VALUE", "")
	os.Unsetenv("BORDRAIL_TEST_VALUE")
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("BORDRAIL_TEST_VALUE"); got != "from-file" {
		t.Errorf("BORDRAIL_TEST_VALUE = %q, want from-file", got)
	}
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("TTL = %v, want 10s", cfg.TTL)
	}
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head,")
	cfg := LoadCacheConfig()
	if diff := cmp.Diff(map[string]bool{"GET": true, "HEAD": true}, cfg.Methods); diff != "" {
		t.Errorf("Methods mismatch (-want +got):\n%s", diff)
	}
}
