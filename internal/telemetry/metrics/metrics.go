// Package metrics holds the Prometheus instrumentation for StockRun.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles all StockRun metrics with the Prometheus registry
// they are registered on.
type Registry struct {
	// Warm-up pipeline
	WarmupProcessed prometheus.Counter
	WarmupSkipped   *prometheus.CounterVec
	FetchDuration   prometheus.Histogram

	// Ask-reply bridge
	AskTimeouts *prometheus.CounterVec

	// Registry population
	CellCount prometheus.Gauge

	prom *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default returns the process-wide metrics registry, creating it on
// first use.
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a metrics registry with all StockRun collectors
// registered. Tests create their own to avoid duplicate registration.
func NewRegistry() *Registry {
	r := &Registry{
		WarmupProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stockrun_warmup_processed_total",
				Help: "Total number of universe listings the warm-up pipeline finished, success or skip",
			},
		),

		WarmupSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrun_warmup_skipped_total",
				Help: "Total number of listings skipped during warm-up by reason",
			},
			[]string{"reason"},
		),

		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockrun_profile_fetch_duration_seconds",
				Help:    "Duration of outbound profile fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),

		AskTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrun_ask_timeouts_total",
				Help: "Total number of cell asks that hit the reply timeout",
			},
			[]string{"op"},
		),

		CellCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockrun_registry_cells",
				Help: "Current number of symbol cells in the registry",
			},
		),

		prom: prometheus.NewRegistry(),
	}

	r.prom.MustRegister(
		r.WarmupProcessed,
		r.WarmupSkipped,
		r.FetchDuration,
		r.AskTimeouts,
		r.CellCount,
	)

	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}
