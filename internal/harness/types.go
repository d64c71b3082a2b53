package harness

import (
	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/store"
)

// TraceEntry is one handled event and what it changed.
type TraceEntry struct {
	Seq       int64            `json:"seq"`
	Kind      string           `json:"kind"`
	Payload   string           `json:"payload"`
	Mutations []store.Mutation `json:"mutations"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every assertion held and every event behaved as
	// expected.
	Pass bool `json:"pass"`

	// Session is the journal session the run wrote.
	Session string `json:"session"`

	// Trace is the journal of the run in seq order.
	Trace []TraceEntry `json:"trace"`

	// Errors describes each failure. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Generators holds the final step map of every generator.
	Generators map[string]map[int][]string `json:"generators"`

	// Connections holds the final connectors on the canvas.
	Connections []canvas.Connection `json:"connections"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Trace:       []TraceEntry{},
		Errors:      []string{},
		Generators:  make(map[string]map[int][]string),
		Connections: []canvas.Connection{},
	}
}

// AddError records a failure.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
