package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/stripe-datev/internal/usecase"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Registry *prometheus.Registry

	// Export metrics
	RevenueItems *prometheus.CounterVec
	Records      *prometheus.CounterVec
	Diagnostics  *prometheus.CounterVec
	FilesWritten prometheus.Counter
	RunDuration  prometheus.Gauge
	LastRun      prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Archive metrics
	ArchivedFiles *prometheus.CounterVec
}

// New creates all metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,

		// Export metrics
		RevenueItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stripe_datev_revenue_items_total",
				Help: "Revenue items built, by source document",
			},
			[]string{"source"},
		),
		Records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stripe_datev_records_total",
				Help: "Ledger records generated, by file kind",
			},
			[]string{"kind"},
		),
		Diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stripe_datev_diagnostics_total",
				Help: "Diagnostics raised, by severity and code",
			},
			[]string{"severity", "code"},
		),
		FilesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "stripe_datev_files_written_total",
			Help: "DATEV files written",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stripe_datev_run_duration_seconds",
			Help: "Duration of the last export run",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stripe_datev_last_run_timestamp_seconds",
			Help: "Unix time the last export run finished",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stripe_datev_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stripe_datev_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stripe_datev_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),

		// Archive metrics
		ArchivedFiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stripe_datev_archived_files_total",
				Help: "Files stored in the archive, by kind",
			},
			[]string{"kind"},
		),
	}
}

// WithRuntime adds the Go runtime and process collectors.
func (m *Metrics) WithRuntime() *Metrics {
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records the outcome of an export run.
func (m *Metrics) ObserveRun(result *usecase.ExportResult, duration time.Duration, finished time.Time) {
	for _, item := range result.RevenueItems {
		m.RevenueItems.WithLabelValues(string(item.Source)).Inc()
	}
	for _, f := range result.Files {
		m.Records.WithLabelValues(string(f.Kind)).Add(float64(len(f.Records)))
	}
	for _, d := range result.Diagnostics {
		m.Diagnostics.WithLabelValues(string(d.Severity), string(d.Code)).Inc()
	}
	m.RunDuration.Set(duration.Seconds())
	m.LastRun.Set(float64(finished.Unix()))
}

// WriteToTextfile writes the registry in the text exposition format, for
// collection through the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
