// ABOUTME: Per-request state tracking for the orchestrator
// ABOUTME: Records each transition and observes the time spent in the state left
package pipeline

import (
	"time"

	"github.com/harper/retail-nlp/internal/metrics"
	"github.com/harper/retail-nlp/internal/models"
)

type run struct {
	now         func() time.Time
	state       models.State
	entered     time.Time
	transitions []models.Transition
}

func newRun(now func() time.Time) *run {
	return &run{now: now, state: models.StateStart, entered: now()}
}

// to moves the run to next. Timestamps never go backwards even if the clock does.
func (r *run) to(next models.State) {
	at := r.now()
	if at.Before(r.entered) {
		at = r.entered
	}
	metrics.ObserveStage(string(r.state), at.Sub(r.entered))
	r.transitions = append(r.transitions, models.Transition{From: r.state, To: next, At: at})
	r.state = next
	r.entered = at
}
