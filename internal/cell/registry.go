package cell

import (
	"sync"

	"github.com/sawpanic/stockrun/internal/domain"
)

// Registry maps canonicalized symbols to cells, creating them lazily
// on first reference. A coarse RWMutex is plenty for the cardinalities
// involved (at most a few thousand symbols).
type Registry struct {
	mu    sync.RWMutex
	cells map[string]*Cell
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		cells: make(map[string]*Cell),
	}
}

// Get returns the cell for the symbol, creating it if absent.
// Concurrent calls for the same symbol always yield the same cell.
// The key is canonicalized before lookup.
func (r *Registry) Get(symbol string) *Cell {
	key := domain.Canonicalize(symbol)

	r.mu.RLock()
	c, ok := r.cells[key]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock.
	if c, ok := r.cells[key]; ok {
		return c
	}
	c = newCell(key)
	r.cells[key] = c
	return c
}

// All returns a snapshot of every cell currently in the registry.
// A concurrent Get may create a cell the snapshot misses; callers
// tolerate staleness.
func (r *Registry) All() []*Cell {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cells := make([]*Cell, 0, len(r.cells))
	for _, c := range r.cells {
		cells = append(cells, c)
	}
	return cells
}

// Count reports the current number of cells. Advisory.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cells)
}
