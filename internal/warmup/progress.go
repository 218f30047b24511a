package warmup

import (
	"sync/atomic"
)

// Progress tracks the warm-up run with lock-free counters. Readers may
// observe slightly stale values across fields; each counter on its own
// is monotonic.
type Progress struct {
	started   atomic.Bool
	completed atomic.Bool
	total     atomic.Int64
	processed atomic.Int64
	skipped   atomic.Int64
}

// NewProgress returns a zeroed progress tracker.
func NewProgress() *Progress {
	return &Progress{}
}

// Start marks the warm-up as begun.
func (p *Progress) Start() {
	p.started.Store(true)
}

// SetTotal records the universe size. Set exactly once, before any
// processed increment.
func (p *Progress) SetTotal(n int) {
	p.total.Store(int64(n))
}

// IncProcessed counts one finished listing, success or skip.
func (p *Progress) IncProcessed() {
	p.processed.Add(1)
}

// IncSkipped counts one listing skipped on error.
func (p *Progress) IncSkipped() {
	p.skipped.Add(1)
}

// Complete marks the warm-up as finished with whatever counters stand.
func (p *Progress) Complete() {
	p.completed.Store(true)
}

// Snapshot is a point-in-time copy of the warm-up counters.
type Snapshot struct {
	Started   bool
	Completed bool
	Total     int
	Processed int
	Skipped   int
}

// Percent reports processed as a share of total, 100 for an empty
// universe.
func (s Snapshot) Percent() int {
	if s.Total <= 0 {
		if s.Completed {
			return 100
		}
		return 0
	}
	return s.Processed * 100 / s.Total
}

// Snapshot reads the counters without locking.
func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Started:   p.started.Load(),
		Completed: p.completed.Load(),
		Total:     int(p.total.Load()),
		Processed: int(p.processed.Load()),
		Skipped:   int(p.skipped.Load()),
	}
}
