// ABOUTME: Pipeline result aggregate and state machine transition records
// ABOUTME: A PipelineResult is built once per request and never mutated
package models

import "time"

// PipelineResult is the externally visible outcome of one request
type PipelineResult struct {
	Intent         Intent            `json:"intent"`
	Slots          map[string]string `json:"slots"`
	DefaultedSlots []string          `json:"defaulted_slots,omitempty"`
	RoutedEndpoint string            `json:"routed_endpoint"`
	ResponseText   string            `json:"response_text"`
	Confidence     float64           `json:"confidence"`
	Sources        []string          `json:"sources"`
	Blocked        bool              `json:"blocked"`
	BlockReason    GuardrailReason   `json:"block_reason,omitempty"`
}

// Clone returns a deep copy so cached results can be handed out safely
func (r PipelineResult) Clone() PipelineResult {
	out := r
	out.Slots = make(map[string]string, len(r.Slots))
	for k, v := range r.Slots {
		out.Slots[k] = v
	}
	if r.DefaultedSlots != nil {
		out.DefaultedSlots = append([]string(nil), r.DefaultedSlots...)
	}
	out.Sources = append([]string{}, r.Sources...)
	return out
}

// State is a node of the orchestrator state machine
type State string

const (
	StateStart           State = "start"
	StateInputGuardrail  State = "input_guardrail"
	StateClassify        State = "classify"
	StateSlotFill        State = "slot_fill"
	StateRoute           State = "route"
	StateRetrieve        State = "retrieve"
	StateGenerate        State = "generate"
	StateOutputGuardrail State = "output_guardrail"
	StateBlocked         State = "blocked"
	StateDone            State = "done"
)

// Terminal reports whether no transition leaves the state
func (s State) Terminal() bool {
	return s == StateBlocked || s == StateDone
}

// Transition records one state change for latency accounting
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}
