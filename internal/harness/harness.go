package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/lwgate/internal/gate"
	"github.com/roach88/lwgate/internal/license"
	"github.com/roach88/lwgate/internal/store"
	"github.com/roach88/lwgate/internal/testutil"
)

// defaultSession is the session id used when a scenario names none.
const defaultSession = "scenario"

// epoch is the fixed start time of every scenario clock.
var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness runs one scenario against a gate backed by a fresh store.
type Harness struct {
	store     *store.Store
	gate      *gate.Gate
	clock     *testutil.ManualClock
	sessionID string
	result    *Result
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
// 1. Create fresh in-memory database with a fixed clock
// 2. Execute flow steps, checking expect clauses
// 3. Evaluate assertions against the trace, final state and audit log
func Run(scenario *Scenario) (*Result, error) {
	clock := testutil.NewManualClock(epoch)
	st, err := store.Open(":memory:", store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	sessionID := scenario.Session
	if sessionID == "" {
		sessionID = defaultSession
	}

	h := &Harness{
		store:     st,
		clock:     clock,
		sessionID: sessionID,
		result:    NewResult(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in scenarios
	}
	h.gate = gate.New(st.Session(sessionID),
		gate.WithLogger(h.logger),
		gate.WithObserver(h.observe),
	)

	ctx := context.Background()

	if err := h.executeFlow(ctx, scenario.Flow); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	final, err := h.finalState(ctx)
	if err != nil {
		return nil, err
	}
	h.result.State = final

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}

	return h.result, nil
}

func (h *Harness) observe(st gate.State) {
	h.result.addTrace(TraceEvent{
		Step:      StepTransition,
		Outcome:   st.Status().String(),
		MachineID: st.MachineID,
	})
}

// executeFlow runs all flow steps and checks expect clauses. Every step
// advances the clock by one second.
func (h *Harness) executeFlow(ctx context.Context, flow []Step) error {
	for i, step := range flow {
		h.clock.Advance(time.Second)

		var (
			ev     TraceEvent
			status gate.Status
			reason string
			err    error
		)

		switch {
		case step.Verify != nil:
			ev, status, reason, err = h.verify(ctx, step.Verify)
		case step.Load != "":
			ev, status, err = h.load(ctx, step.Load)
		case step.Reset:
			ev, status, err = h.reset(ctx)
		}
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		h.result.addTrace(ev)
		h.logger.Info("flow step completed", "step", i, "event", ev.Key())

		if step.Expect == nil {
			continue
		}
		if got := status.String(); got != step.Expect.Status {
			h.result.AddError(fmt.Sprintf("flow[%d]: expected status %s, got %s", i, step.Expect.Status, got))
		}
		if step.Expect.Reason != "" && step.Expect.Reason != reason {
			h.result.AddError(fmt.Sprintf("flow[%d]: expected reason %s, got %q", i, step.Expect.Reason, reason))
		}
	}
	return nil
}

func (h *Harness) verify(ctx context.Context, v *VerifyStep) (TraceEvent, gate.Status, string, error) {
	code := v.Code
	if v.Derive {
		code = license.DeriveCode(v.MC)
	}

	st, err := h.gate.Verify(ctx, v.MC, code)

	var (
		verr    *gate.VerifyError
		outcome = "ok"
		reason  string
	)
	switch {
	case err == nil:
	case errors.As(err, &verr):
		reason = string(verr.Reason)
		outcome = reason
	default:
		return TraceEvent{}, 0, "", err
	}

	if err := h.store.RecordAttempt(ctx, h.sessionID, v.MC, err == nil, reason); err != nil {
		return TraceEvent{}, 0, "", err
	}

	ev := TraceEvent{Step: StepVerify, Outcome: outcome, MachineID: v.MC}
	return ev, st.Status(), reason, nil
}

func (h *Harness) load(ctx context.Context, navType string) (TraceEvent, gate.Status, error) {
	nav := gate.ParseNavigation(navType)
	st, err := h.gate.Load(ctx, nav)
	if err != nil {
		return TraceEvent{}, 0, err
	}
	ev := TraceEvent{Step: StepLoad, Outcome: st.Status().String(), Navigation: nav.String()}
	return ev, st.Status(), nil
}

func (h *Harness) reset(ctx context.Context) (TraceEvent, gate.Status, error) {
	if err := h.gate.Reset(ctx); err != nil {
		return TraceEvent{}, 0, err
	}
	return TraceEvent{Step: StepReset, Outcome: gate.StatusLocked.String()}, gate.StatusLocked, nil
}

func (h *Harness) finalState(ctx context.Context) (FinalState, error) {
	st := h.gate.State(ctx)
	attempts, err := h.store.Attempts(ctx, h.sessionID)
	if err != nil {
		return FinalState{}, fmt.Errorf("reading attempts: %w", err)
	}
	return FinalState{
		Status:    st.Status().String(),
		MachineID: st.MachineID,
		Attempts:  len(attempts),
	}, nil
}
