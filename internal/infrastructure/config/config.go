package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all process configuration.
type Config struct {
	// Stripe
	StripeAPIKey string `env:"STRIPE_API_KEY"`

	// Files
	ConfigFile  string `env:"CONFIG_FILE"  envDefault:"config.toml"`
	OutDir      string `env:"OUT_DIR"      envDefault:"out"`
	MetricsFile string `env:"METRICS_FILE"`

	// Recognition
	PeriodMinYear int `env:"PERIOD_MIN_YEAR" envDefault:"2015"`
	PeriodMaxYear int `env:"PERIOD_MAX_YEAR"`

	// Archive database (optional - leave empty to disable)
	DatabaseURL      string        `env:"DATABASE_URL"`
	DatabaseMaxConns int           `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns int           `env:"DATABASE_MIN_CONNS" envDefault:"1"`
	DatabaseTimeout  time.Duration `env:"DATABASE_TIMEOUT"   envDefault:"30s"`
	MigrationsPath   string        `env:"MIGRATIONS_PATH"    envDefault:"internal/infrastructure/postgres/migrations"`

	// Lookup cache (optional - leave empty to cache in memory)
	RedisURL string `env:"REDIS_URL"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first; variables already set take precedence.
func Load() (*Config, error) {
	return LoadWithDotenv(".env")
}

// LoadWithDotenv loads configuration after reading the given dotenv files.
// Missing files are skipped.
func LoadWithDotenv(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsTestMode reports whether the Stripe key belongs to test mode.
func (c *Config) IsTestMode() bool {
	return len(c.StripeAPIKey) >= 8 && c.StripeAPIKey[:8] == "sk_test_"
}
