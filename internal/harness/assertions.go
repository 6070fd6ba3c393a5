package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event.Key())
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertAttempts:
		return assertAttempts(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func matches(ev TraceEvent, a Assertion) bool {
	return ev.Step == a.Event && (a.Outcome == "" || ev.Outcome == a.Outcome)
}

func describe(a Assertion) string {
	if a.Outcome == "" {
		return a.Event
	}
	return a.Event + ":" + a.Outcome
}

// assertTraceContains checks the trace holds at least one matching event.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if matches(ev, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that events appear in the specified order.
// Events don't need to be consecutive; each one is matched after the
// previous match.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for _, want := range a.Events {
		found := false
		for pos < len(trace) {
			key := trace[pos].Key()
			pos++
			if key == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Events),
				Actual:   fmt.Sprintf("%s not found in order", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the number of matching events.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matches(ev, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s exactly %d time(s)", describe(a), a.Count),
			Actual:   fmt.Sprintf("%d time(s)", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalState(result *Result, a Assertion) error {
	got := result.State
	if got.Status != a.Status {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: "status " + a.Status,
			Actual:   "status " + got.Status,
			Trace:    result.Trace,
		}
	}
	if a.MachineID != nil && got.MachineID != *a.MachineID {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("machine_id %q", *a.MachineID),
			Actual:   fmt.Sprintf("machine_id %q", got.MachineID),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertAttempts(result *Result, a Assertion) error {
	if result.State.Attempts != a.Count {
		return &AssertionError{
			Type:     AssertAttempts,
			Expected: fmt.Sprintf("%d attempt(s)", a.Count),
			Actual:   fmt.Sprintf("%d attempt(s)", result.State.Attempts),
			Trace:    result.Trace,
		}
	}
	return nil
}
