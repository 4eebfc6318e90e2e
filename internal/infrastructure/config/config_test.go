package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iho/stripe-datev/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STRIPE_API_KEY", "")

	cfg, err := config.LoadWithDotenv()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "" {
		t.Fatalf("expected archive to be disabled by default, got %q", cfg.DatabaseURL)
	}

	if cfg.ConfigFile != "config.toml" || cfg.OutDir != "out" {
		t.Fatalf("unexpected file defaults: %s, %s", cfg.ConfigFile, cfg.OutDir)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.PeriodMinYear != 2015 || cfg.PeriodMaxYear != 0 {
		t.Fatalf("unexpected period bounds %d..%d", cfg.PeriodMinYear, cfg.PeriodMaxYear)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STRIPE_API_KEY", "sk_test_123")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("PERIOD_MAX_YEAR", "2030")

	cfg, err := config.LoadWithDotenv()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.PeriodMaxYear != 2030 {
		t.Fatalf("expected period max year override, got %d", cfg.PeriodMaxYear)
	}

	if !cfg.IsTestMode() {
		t.Fatalf("expected sk_test_ key to be test mode")
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("OUT_DIR=from-dotenv\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Setenv("LOG_LEVEL", "warn")
	os.Unsetenv("OUT_DIR")
	t.Cleanup(func() { os.Unsetenv("OUT_DIR") })

	cfg, err := config.LoadWithDotenv(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.OutDir != "from-dotenv" {
		t.Fatalf("expected dotenv value, got %s", cfg.OutDir)
	}

	if cfg.LogLevel != "warn" {
		t.Fatalf("environment should win over dotenv, got %s", cfg.LogLevel)
	}
}

const validBook = `
[company]
timezone = "Europe/Berlin"

[datev]
berater_nr = "1001"
mandenten_nr = "42"

[accounts]
bank = "1200"
stripe_fees = "4970"
prap = ""
revenue_reverse_charge_eu = "8338"
account_reverse_charge_world = "8336"
revenue_german_vat = "8400"
sammel_debitor = "10000"
transit = "1360"
contributions = "6300"
external_services = "3100"
datev_tax_key_germany = "9"
datev_tax_key_reverse = "94"
`

func TestLoadBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(validBook), 0o600); err != nil {
		t.Fatalf("write book: %v", err)
	}

	book, err := config.LoadBook(path)
	if err != nil {
		t.Fatalf("unexpected error loading book: %v", err)
	}

	if book.Datev.Client() != "42" {
		t.Fatalf("expected legacy client number, got %q", book.Datev.Client())
	}

	loc, err := book.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Fatalf("unexpected location %v, err=%v", loc, err)
	}

	chart := book.ChartOfAccounts()
	if chart.Fees != "4970" || chart.CollectiveDebtor != "10000" || chart.RevenueReverseChargeWorld != "8336" {
		t.Fatalf("unexpected chart %+v", chart)
	}

	if chart.DeferralEnabled() {
		t.Fatalf("empty prap should disable deferral")
	}
}

func TestParseBookValidation(t *testing.T) {
	broken := strings.Replace(validBook, `bank = "1200"`, `bank = ""`, 1)

	_, err := config.ParseBook(broken)
	if !errors.Is(err, config.ErrInvalidBook) {
		t.Fatalf("expected ErrInvalidBook, got %v", err)
	}
	if !strings.Contains(err.Error(), "accounts.bank") {
		t.Fatalf("error should name the missing key: %v", err)
	}

	_, err = config.ParseBook(strings.Replace(validBook, "Europe/Berlin", "Mars/Olympus", 1))
	if !errors.Is(err, config.ErrInvalidBook) {
		t.Fatalf("expected ErrInvalidBook for unknown zone, got %v", err)
	}

	if _, err := config.ParseBook("[company"); err == nil {
		t.Fatal("expected decode error")
	}
}
