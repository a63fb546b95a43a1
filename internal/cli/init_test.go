package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"subtrack/internal/config"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("SUBTRACK_CLI_TEST_FROM_FILE=file\nSUBTRACK_CLI_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUBTRACK_CLI_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("SUBTRACK_CLI_TEST_FROM_FILE") })

	if err := LoadEnvFile(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("SUBTRACK_CLI_TEST_FROM_FILE"); got != "file" {
		t.Errorf("from file = %q, want file", got)
	}
	if got := os.Getenv("SUBTRACK_CLI_TEST_PRESET"); got != "env" {
		t.Errorf("preset variable was overridden: %q", got)
	}
}

func TestLoadEnvFileWithoutFiles(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "none.env")); err != nil {
		t.Fatalf("missing files should be skipped, got %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug", "reminder")
	if logger.Component() != "reminder" {
		t.Errorf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
	if slog.Default() != logger.Logger {
		t.Error("logger should be installed as the slog default")
	}
}

func TestNewRatesService(t *testing.T) {
	cfg := &config.Config{
		ExchangeRateURL:   "http://127.0.0.1:0/latest",
		HTTPClientTimeout: 100 * time.Millisecond,
		RatesCacheTTL:     time.Minute,
	}
	r := NewRatesService(cfg).Latest(context.Background())
	if r.Rates["KRW"] <= 0 {
		t.Errorf("unreachable provider should yield fallback rates, got %+v", r)
	}
}
