package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/stripe-datev/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/stripe-datev/internal/adapter/repository/redis"
	"github.com/iho/stripe-datev/internal/adapter/stripe"
	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/infrastructure/config"
	"github.com/iho/stripe-datev/internal/infrastructure/logger"
	"github.com/iho/stripe-datev/internal/infrastructure/redis"
	"github.com/iho/stripe-datev/internal/usecase"
)

var errMissingAPIKey = errors.New("STRIPE_API_KEY is not set")

// app holds the collaborators shared by all commands of one invocation.
type app struct {
	cfg    *config.Config
	book   *config.Book
	loc    *time.Location
	logger zerolog.Logger
	runID  string
	stripe *stripe.Client

	redisClient *goredis.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if configFile != "" {
		cfg.ConfigFile = configFile
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	book, err := config.LoadBook(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	loc, err := book.Location()
	if err != nil {
		return nil, err
	}

	if cfg.StripeAPIKey == "" {
		return nil, errMissingAPIKey
	}

	a := &app{
		cfg:    cfg,
		book:   book,
		loc:    loc,
		logger: log,
		runID:  postgresRepo.NewULIDGenerator().Generate(),
	}

	var cache stripe.LookupCache
	if cfg.RedisURL != "" {
		a.redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		cache = redisRepo.NewLookupCache(a.redisClient, a.runID, redisRepo.DefaultLookupTTL)
		log.Debug().Str("run_id", a.runID).Msg("caching lookups in redis")
	}

	stripeLog := logger.WithComponent(log, "stripe")
	a.stripe = stripe.NewClient(
		stripe.NewAPI(cfg.StripeAPIKey),
		stripe.NewRetrier(stripeLog),
		cache,
		stripeLog,
	)

	return a, nil
}

func (a *app) Close() {
	if a.redisClient != nil {
		a.redisClient.Close()
	}
}

// outDir is the output root; test mode output is kept apart from live exports.
func (a *app) outDir() string {
	if a.cfg.IsTestMode() {
		return filepath.Join(a.cfg.OutDir, "test")
	}
	return a.cfg.OutDir
}

func (a *app) exportUseCase() *usecase.ExportUseCase {
	return usecase.NewExportUseCase(usecase.ExportConfig{
		Accounts: a.book.ChartOfAccounts(),
		Location: a.loc,
		MinYear:  a.cfg.PeriodMinYear,
		MaxYear:  a.cfg.PeriodMaxYear,
	}, a.stripe, a.stripe)
}

func (a *app) customerUseCase() *usecase.CustomerUseCase {
	return usecase.NewCustomerUseCase(a.stripe, usecase.NewTaxClassifier(a.book.ChartOfAccounts()))
}

// logDiagnostics reports advisories at warn level.
func logDiagnostics(log zerolog.Logger, diags []domain.Diagnostic) {
	for _, d := range diags {
		event := log.Warn()
		if d.Severity == domain.SeverityFatal {
			event = log.Error()
		}
		event.
			Str("code", string(d.Code)).
			Str("source_id", d.SourceID).
			Msg(d.Message)
	}
}
