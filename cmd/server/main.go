package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/stripe-datev/internal/adapter/http"
	"github.com/iho/stripe-datev/internal/adapter/http/handler"
	postgresRepo "github.com/iho/stripe-datev/internal/adapter/repository/postgres"
	"github.com/iho/stripe-datev/internal/infrastructure/config"
	"github.com/iho/stripe-datev/internal/infrastructure/logger"
	"github.com/iho/stripe-datev/internal/infrastructure/metrics"
	"github.com/iho/stripe-datev/internal/infrastructure/postgres"
	"github.com/iho/stripe-datev/internal/infrastructure/redis"
	"github.com/iho/stripe-datev/internal/usecase"
)

var errNoDatabase = errors.New("DATABASE_URL is required by the archive server")

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errNoDatabase
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger.WithComponent(log, "migrate")); err != nil {
		return err
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	health := handler.NewHealthHandler().With("postgres", pool)

	// Redis only backs the exporter's lookup cache; it is checked when configured.
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
		health.With("redis", redisPinger(redisClient))
	}

	archive := usecase.NewArchiveUseCase(
		postgresRepo.NewArchiveRepository(pool, postgresRepo.NewRetrier(logger.WithComponent(log, "archive"))),
		postgresRepo.NewULIDGenerator(),
	)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BatchHandler:  handler.NewBatchHandler(archive),
		HealthHandler: health,
		Metrics:       metrics.New().WithRuntime(),
		Logger:        logger.WithComponent(log, "http"),
	})

	server := newServer(cfg, router)
	return serve(ctx, server, cfg, log)
}

func redisPinger(client *goredis.Client) handler.Pinger {
	return handler.PingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// serve runs server until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, cfg *config.Config, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
