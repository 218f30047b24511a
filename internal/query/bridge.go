// Package query bridges synchronous HTTP handlers to asynchronous
// cell asks with per-call timeouts, and exposes warm-up progress as a
// readiness report.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stockrun/internal/cell"
	"github.com/sawpanic/stockrun/internal/domain"
	"github.com/sawpanic/stockrun/internal/telemetry/metrics"
)

// DefaultAskTimeout bounds how long a single cell ask may wait for a
// reply.
const DefaultAskTimeout = 5 * time.Second

// Bridge translates get-one / get-all requests into cell asks.
type Bridge struct {
	registry *cell.Registry
	timeout  time.Duration
	metrics  *metrics.Registry
}

// NewBridge wires a bridge. A non-positive timeout falls back to
// DefaultAskTimeout.
func NewBridge(registry *cell.Registry, timeout time.Duration, m *metrics.Registry) *Bridge {
	if timeout <= 0 {
		timeout = DefaultAskTimeout
	}
	if m == nil {
		m = metrics.Default()
	}
	return &Bridge{
		registry: registry,
		timeout:  timeout,
		metrics:  m,
	}
}

// AskOne canonicalizes the symbol, obtains its cell (creating a
// placeholder if absent) and asks it for its current stock. Unknown
// symbols answer with the minimum-viable stock rather than not-found.
// Returns domain.ErrAskTimeout if the cell does not reply in time; the
// cell itself is unaffected by the timeout.
func (b *Bridge) AskOne(ctx context.Context, symbol string) (domain.Stock, error) {
	askCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	stock, err := b.registry.Get(symbol).Read(askCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			b.metrics.AskTimeouts.WithLabelValues("ask_one").Inc()
			return domain.Stock{}, domain.ErrAskTimeout
		}
		return domain.Stock{}, err
	}
	return stock, nil
}

// AskAll snapshots the registry and asks every cell concurrently, each
// under its own timeout. Cells that time out are logged and omitted so
// one slow cell cannot fail the whole response. The result is finite
// and unordered.
func (b *Bridge) AskAll(ctx context.Context) []domain.Stock {
	cells := b.registry.All()

	results := make(chan domain.Stock, len(cells))
	var wg sync.WaitGroup

	for _, c := range cells {
		wg.Add(1)
		go func(c *cell.Cell) {
			defer wg.Done()

			askCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			stock, err := c.Read(askCtx)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					b.metrics.AskTimeouts.WithLabelValues("ask_all").Inc()
				}
				log.Warn().Str("symbol", c.Symbol()).Err(err).Msg("omitting cell from all-stocks reply")
				return
			}
			results <- stock
		}(c)
	}

	wg.Wait()
	close(results)

	stocks := make([]domain.Stock, 0, len(cells))
	for stock := range results {
		stocks = append(stocks, stock)
	}
	return stocks
}
