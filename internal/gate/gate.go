package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/lwgate/internal/license"
)

// Observer is notified after every transition with the new state.
type Observer func(State)

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(g *Gate) {
		if o != nil {
			g.observers = append(g.observers, o)
		}
	}
}

// Gate is the state machine for one session.
//
// A Gate carries no state of its own beyond its collaborators; the session
// record lives in the Store, so any number of Gates may be built over the same
// store (one per request, for example).
type Gate struct {
	store     Store
	logger    *slog.Logger
	observers []Observer
}

// New returns a gate over store. A store with no entries is Locked.
func New(store Store, opts ...Option) *Gate {
	g := &Gate{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current session record. Load failures read as Locked.
func (g *Gate) State(ctx context.Context) State {
	s, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warn("gate state unavailable, treating as locked", "error", err)
		return State{}
	}
	return s
}

// Status returns the current gate status.
func (g *Gate) Status(ctx context.Context) Status {
	return g.State(ctx).Status()
}

// Verify attempts the Locked → Unlocked transition.
//
// The transition fires iff license.DeriveCode(mc) is not the ERROR sentinel and
// equals code exactly. On success both values are stored and observers are
// notified. A refusal returns a *VerifyError and leaves the store untouched.
func (g *Gate) Verify(ctx context.Context, mc, code string) (State, error) {
	expected := license.DeriveCode(mc)
	if expected == license.ErrorCode {
		g.logger.Info("verification refused", "machine_id", mc, "reason", ReasonMalformed)
		return g.State(ctx), &VerifyError{MachineID: mc, Reason: ReasonMalformed}
	}
	if expected != code {
		g.logger.Info("verification refused", "machine_id", mc, "reason", ReasonMismatch)
		return g.State(ctx), &VerifyError{MachineID: mc, Reason: ReasonMismatch}
	}

	next := State{Authorized: true, MachineID: mc, Code: code}
	if err := g.store.Save(ctx, next); err != nil {
		return g.State(ctx), fmt.Errorf("save gate state: %w", err)
	}

	g.logger.Info("gate unlocked", "machine_id", mc)
	g.notify(next)
	return next, nil
}

// Load is the page-load hook. It must run before anything renders gated
// state. A reload clears the session (Unlocked → Locked); every other
// navigation leaves it as it is.
func (g *Gate) Load(ctx context.Context, nav Navigation) (State, error) {
	if nav != NavigationReload {
		return g.State(ctx), nil
	}

	prev, err := g.reset(ctx)
	if err != nil {
		return State{}, err
	}
	if prev.Authorized {
		g.logger.Info("gate locked on reload", "machine_id", prev.MachineID)
	}
	return State{}, nil
}

// Reset clears all three session entries. Observers are notified only when
// the session was Unlocked.
func (g *Gate) Reset(ctx context.Context) error {
	_, err := g.reset(ctx)
	return err
}

func (g *Gate) reset(ctx context.Context) (State, error) {
	prev := g.State(ctx)
	if err := g.store.Clear(ctx); err != nil {
		return State{}, fmt.Errorf("clear gate state: %w", err)
	}
	if prev.Authorized {
		g.notify(State{})
	}
	return prev, nil
}

func (g *Gate) notify(s State) {
	for _, o := range g.observers {
		o(s)
	}
}
