package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/adapter/http/handler"
	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/infrastructure/metrics"
	"github.com/iho/stripe-datev/internal/usecase"
	"github.com/iho/stripe-datev/internal/usecase/mocks"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_ServesArchive(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batches/file-1/records", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var records []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(records) != 1 || records[0]["account"] != "10001" {
		t.Fatalf("unexpected records: %+v", records)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batches/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown batch, got %d", rec.Code)
	}
}

func TestNewRouter_ExposesMetrics(t *testing.T) {
	router := NewRouter(newRouterConfig())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/batches/", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `stripe_datev_http_requests_total{method="GET",path="/api/v1/batches/",status="200"} 1`) {
		t.Fatalf("expected request counter in metrics output, got:\n%s", rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /api/v1/batches/",
		"GET /api/v1/batches/{id}",
		"GET /api/v1/batches/{id}/records",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := mocks.NewArchiveStore()
	_ = store.Save(context.Background(), &domain.ExportedFile{
		ID:          "file-1",
		RunID:       "run-1",
		Kind:        domain.RecordKindRevenue,
		Month:       "2021-05",
		FileName:    "EXTF_2021_05_Revenue.csv",
		RecordCount: 1,
		CreatedAt:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		Records: []domain.Record{{
			Date:           time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC),
			Amount:         decimal.RequireFromString("119"),
			Side:           domain.SideDebit,
			Currency:       "EUR",
			Account:        "10001",
			CounterAccount: "8400",
			Text:           "RE-1",
		}},
	})
	archive := usecase.NewArchiveUseCase(store, &mocks.SequenceIDGenerator{Prefix: "file"})

	cfg := RouterConfig{
		BatchHandler:  handler.NewBatchHandler(archive),
		HealthHandler: handler.NewHealthHandler(),
		Metrics:       metrics.New(),
		Logger:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
