package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/stockrun/internal/warmup"
)

func TestReadinessReporter_States(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(p *warmup.Progress)
		state     string
		percent   int
	}{
		{
			name:    "starting_before_warmup",
			setup:   func(p *warmup.Progress) {},
			state:   StateStarting,
			percent: 0,
		},
		{
			name: "warming_in_progress",
			setup: func(p *warmup.Progress) {
				p.Start()
				p.SetTotal(10)
				p.IncProcessed()
			},
			state:   StateWarming,
			percent: 10,
		},
		{
			name: "ready_all_processed",
			setup: func(p *warmup.Progress) {
				p.Start()
				p.SetTotal(2)
				p.IncProcessed()
				p.IncProcessed()
				p.Complete()
			},
			state:   StateReady,
			percent: 100,
		},
		{
			name: "ready_empty_universe",
			setup: func(p *warmup.Progress) {
				p.Start()
				p.SetTotal(0)
				p.Complete()
			},
			state:   StateReady,
			percent: 100,
		},
		{
			name: "degraded_incomplete_processing",
			setup: func(p *warmup.Progress) {
				p.Start()
				p.SetTotal(10)
				p.IncProcessed()
				p.Complete()
			},
			state:   StateDegraded,
			percent: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := warmup.NewProgress()
			tt.setup(progress)

			report := NewReadinessReporter(progress).Report()
			assert.Equal(t, tt.state, report.State)
			assert.Equal(t, tt.percent, report.Percent)
		})
	}
}
