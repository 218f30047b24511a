// Package cell holds per-symbol state behind a serialization boundary:
// each cell processes its messages one at a time on a dedicated
// goroutine, so reads and writes for a symbol never interleave while
// distinct symbols proceed in full parallelism.
package cell

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stockrun/internal/domain"
)

// State is the lifecycle position of a cell.
type State int

const (
	// Uninitialized cells have never stored a stock. Reads synthesize
	// a minimum-viable record without changing state.
	Uninitialized State = iota
	// Populated cells hold an enriched stock.
	Populated
	// Failed cells recorded an error; a prior stock, if any, is kept
	// as the last-known value, and reads without one synthesize a
	// minimum-viable answer. A later Initialize recovers.
	Failed
)

func (s State) String() string {
	switch s {
	case Populated:
		return "populated"
	case Failed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// inbox capacity. Message handling is a pure in-memory state update,
// so the consumer drains far faster than any realistic producer.
const mailboxSize = 64

type readMsg struct {
	reply chan domain.Stock
}

type initMsg struct {
	listing domain.Listing
	profile domain.Profile
}

type failMsg struct {
	reason error
}

type stateMsg struct {
	reply chan State
}

// Cell is the serialized state holder for one canonical symbol.
// Cells are created by the Registry and live for the process lifetime.
type Cell struct {
	symbol string
	inbox  chan any
}

func newCell(symbol string) *Cell {
	c := &Cell{
		symbol: symbol,
		inbox:  make(chan any, mailboxSize),
	}
	go c.run()
	return c
}

// Symbol returns the cell's canonical key.
func (c *Cell) Symbol() string {
	return c.symbol
}

// run is the cell's mailbox loop. All state lives in this goroutine;
// messages are handled to completion in arrival order.
func (c *Cell) run() {
	var (
		state State
		stock domain.Stock
	)

	for msg := range c.inbox {
		switch m := msg.(type) {
		case readMsg:
			// A failed cell that never stored a stock answers the same
			// way an uninitialized one does. Initialize always sets the
			// symbol, so an empty symbol means nothing was ever stored.
			if state == Uninitialized || stock.Symbol == "" {
				m.reply <- domain.MinimumViable(c.symbol)
				continue
			}
			m.reply <- stock

		case initMsg:
			next := domain.Combine(m.listing, m.profile)
			next.Symbol = c.symbol
			if next.LastUpdated.Before(stock.LastUpdated.Time) {
				next.LastUpdated = stock.LastUpdated
			}
			stock = next
			state = Populated

		case failMsg:
			// Last-known stock is preserved for reads.
			state = Failed
			log.Warn().Str("symbol", c.symbol).Err(m.reason).Msg("cell marked failed")

		case stateMsg:
			m.reply <- state
		}
	}
}

// Read asks the cell for its current stock. An uninitialized cell
// answers with a minimum-viable stock and stays uninitialized; a
// failed cell answers with its last-known stock, or a minimum-viable
// one if it never stored any. The context bounds
// the wait; a reply arriving after cancellation is discarded.
func (c *Cell) Read(ctx context.Context) (domain.Stock, error) {
	if err := ctx.Err(); err != nil {
		return domain.Stock{}, err
	}
	reply := make(chan domain.Stock, 1)
	select {
	case c.inbox <- readMsg{reply: reply}:
	case <-ctx.Done():
		return domain.Stock{}, ctx.Err()
	}
	select {
	case stock := <-reply:
		return stock, nil
	case <-ctx.Done():
		return domain.Stock{}, ctx.Err()
	}
}

// Initialize combines the listing and profile and stores the result as
// the cell's populated state. Overwrites any prior state; never fails.
// Delivery is asynchronous.
func (c *Cell) Initialize(listing domain.Listing, profile domain.Profile) {
	c.inbox <- initMsg{listing: listing, profile: profile}
}

// MarkFailure transitions the cell to failed, keeping any prior stock
// as the last-known value.
func (c *Cell) MarkFailure(reason error) {
	c.inbox <- failMsg{reason: reason}
}

// CurrentState reports the cell's state. Advisory: the state may move
// as soon as the reply is read.
func (c *Cell) CurrentState(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	select {
	case c.inbox <- stateMsg{reply: reply}:
	case <-ctx.Done():
		return Uninitialized, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Uninitialized, ctx.Err()
	}
}
