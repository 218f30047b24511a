// Package warmup populates symbol cells from the provider universe at
// startup: one rate-limited, bounded-concurrency enrichment pass that
// never blocks process readiness.
package warmup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sawpanic/stockrun/internal/cell"
	"github.com/sawpanic/stockrun/internal/domain"
	"github.com/sawpanic/stockrun/internal/telemetry/metrics"
)

// MarketClient is the slice of the provider client the pipeline needs.
type MarketClient interface {
	ListSymbols(ctx context.Context) ([]domain.Listing, error)
	FetchProfile(ctx context.Context, symbol string) (domain.Profile, error)
}

// Config tunes the warm-up run.
type Config struct {
	// RateLimit is the token-bucket rate for outbound profile fetches,
	// in permits per second.
	RateLimit float64
	// Burst is the token-bucket burst capacity.
	Burst int
	// MaxParallelFetches bounds concurrent outbound profile fetches.
	MaxParallelFetches int
}

// DefaultConfig matches the deployment defaults: one fetch per second,
// eight workers.
func DefaultConfig() Config {
	return Config{
		RateLimit:          1.0,
		Burst:              1,
		MaxParallelFetches: 8,
	}
}

// Pipeline is the one-shot warm-up runner.
type Pipeline struct {
	client   MarketClient
	registry *cell.Registry
	progress *Progress
	limiter  *rate.Limiter
	parallel int
	metrics  *metrics.Registry
}

// NewPipeline wires a pipeline. Zero or negative config values fall
// back to defaults.
func NewPipeline(client MarketClient, registry *cell.Registry, progress *Progress, cfg Config, m *metrics.Registry) *Pipeline {
	def := DefaultConfig()
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxParallelFetches <= 0 {
		cfg.MaxParallelFetches = def.MaxParallelFetches
	}
	if m == nil {
		m = metrics.Default()
	}

	return &Pipeline{
		client:   client,
		registry: registry,
		progress: progress,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		parallel: cfg.MaxParallelFetches,
		metrics:  m,
	}
}

// Run executes the warm-up to completion. Individual symbol failures
// are logged and skipped; only a universe listing failure aborts the
// run. The service stays live either way, so callers run this in a
// background goroutine once the HTTP surface is accepting connections.
func (p *Pipeline) Run(ctx context.Context) {
	p.progress.Start()
	start := time.Now()

	listings, err := p.client.ListSymbols(ctx)
	if err != nil {
		log.Error().Err(err).Msg("warm-up aborted: universe listing failed")
		p.progress.Complete()
		return
	}

	p.progress.SetTotal(len(listings))
	log.Info().Int("total", len(listings)).Msg("warm-up started")

	sem := make(chan struct{}, p.parallel)
	var wg sync.WaitGroup

	for _, listing := range listings {
		sem <- struct{}{}
		wg.Add(1)

		go func(listing domain.Listing) {
			defer func() {
				<-sem
				wg.Done()
			}()
			p.enrich(ctx, listing)
			p.progress.IncProcessed()
			p.metrics.WarmupProcessed.Inc()
		}(listing)
	}

	wg.Wait()
	p.progress.Complete()

	snap := p.progress.Snapshot()
	log.Info().
		Int("total", snap.Total).
		Int("processed", snap.Processed).
		Int("skipped", snap.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("warm-up completed")
}

// enrich fetches one profile under the rate limit and initializes the
// symbol's cell. Errors skip the symbol; the cell is left untouched so
// a later read still gets the minimum-viable answer.
func (p *Pipeline) enrich(ctx context.Context, listing domain.Listing) {
	if err := p.limiter.Wait(ctx); err != nil {
		p.progress.IncSkipped()
		p.metrics.WarmupSkipped.WithLabelValues("canceled").Inc()
		return
	}

	fetchStart := time.Now()
	profile, err := p.client.FetchProfile(ctx, listing.Symbol)
	p.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())

	if err != nil {
		p.progress.IncSkipped()
		p.metrics.WarmupSkipped.WithLabelValues(skipReason(err)).Inc()
		log.Warn().Str("symbol", listing.Symbol).Err(err).Msg("warm-up skipping symbol")
		return
	}

	p.registry.Get(listing.Symbol).Initialize(listing, profile)
	p.metrics.CellCount.Set(float64(p.registry.Count()))
}

func skipReason(err error) string {
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Retryable() {
			return "upstream_5xx"
		}
		return "upstream_4xx"
	}
	return "transport"
}
