package query

import (
	"github.com/sawpanic/stockrun/internal/warmup"
)

// Readiness states, in lifecycle order.
const (
	StateStarting = "starting" // process up, warm-up not yet begun
	StateWarming  = "warming"  // serving partial data while cells populate
	StateDegraded = "degraded" // warm-up finished but not every listing was processed
	StateReady    = "ready"    // all listings processed
)

// Report is the health snapshot served to callers. Counters may be
// slightly stale relative to one another; each is monotonic.
type Report struct {
	State     string
	Started   bool
	Completed bool
	Total     int
	Processed int
	Skipped   int
	Percent   int
}

// ReadinessReporter derives the observable health state from warm-up
// progress. Read-only and lock-free.
type ReadinessReporter struct {
	progress *warmup.Progress
}

// NewReadinessReporter wires a reporter over the given progress.
func NewReadinessReporter(progress *warmup.Progress) *ReadinessReporter {
	return &ReadinessReporter{progress: progress}
}

// Report snapshots the warm-up counters and maps them to one of the
// four readiness states.
func (r *ReadinessReporter) Report() Report {
	snap := r.progress.Snapshot()

	state := StateStarting
	switch {
	case snap.Completed && snap.Processed >= snap.Total:
		state = StateReady
	case snap.Completed:
		state = StateDegraded
	case snap.Started:
		state = StateWarming
	}

	return Report{
		State:     state,
		Started:   snap.Started,
		Completed: snap.Completed,
		Total:     snap.Total,
		Processed: snap.Processed,
		Skipped:   snap.Skipped,
		Percent:   snap.Percent(),
	}
}
