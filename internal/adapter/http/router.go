package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/stripe-datev/internal/adapter/http/handler"
	"github.com/iho/stripe-datev/internal/adapter/http/middleware"
	"github.com/iho/stripe-datev/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BatchHandler  *handler.BatchHandler
	HealthHandler *handler.HealthHandler
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(middleware.Recovery(cfg.Logger))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/batches", func(r chi.Router) {
			r.Get("/", cfg.BatchHandler.List)
			r.Get("/{id}", cfg.BatchHandler.Get)
			r.Get("/{id}/records", cfg.BatchHandler.Records)
		})
	})

	return r
}
