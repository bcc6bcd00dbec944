package harness

import "github.com/roach88/offload/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step outcome and assertion matched.
	Pass bool `json:"pass"`

	// Buffer is the final rendered buffer.
	Buffer string `json:"buffer"`

	// Entries is the final ledger.
	Entries []ir.Entry `json:"entries"`

	// Trace is the session journal, read back from the store.
	Trace []ir.JournalEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Entries: []ir.Entry{},
		Trace:   []ir.JournalEvent{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
