package harness

import "fmt"

// Trace step names.
const (
	StepVerify     = "verify"
	StepLoad       = "load"
	StepReset      = "reset"
	StepTransition = "transition"
)

// TraceEvent is one entry of a scenario trace: a flow step with its outcome,
// or a gate transition reported to the observer.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	Step       string `json:"step"`
	Outcome    string `json:"outcome"`
	MachineID  string `json:"machine_id,omitempty"`
	Navigation string `json:"navigation,omitempty"`
}

// Key is the "step:outcome" form used by trace assertions.
func (e TraceEvent) Key() string {
	return fmt.Sprintf("%s:%s", e.Step, e.Outcome)
}

// FinalState is the gate state after the flow.
type FinalState struct {
	Status    string `json:"status"`
	MachineID string `json:"machine_id,omitempty"`
	Attempts  int    `json:"attempts"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
	State  FinalState   `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}
