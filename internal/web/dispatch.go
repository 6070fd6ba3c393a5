package web

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/roach88/lwgate/internal/catalog"
	"github.com/roach88/lwgate/internal/gate"
)

// Affordance ids handled by the dispatcher.
const (
	ActionContact   = "contact"
	ActionClose     = "close"
	ActionGatedLink = "gated-link"
	ActionVerify    = "verify"
)

// ErrUnknownAction is returned when no handler is registered for an id.
var ErrUnknownAction = errors.New("unknown action")

// Request is what a dispatched handler gets to work with.
type Request struct {
	SessionID string
	Gate      *gate.Gate
	Form      url.Values
}

// Outcome is the result of a dispatched action.
type Outcome struct {
	// Prompt opens the gate prompt.
	Prompt bool
	// Redirect, when set, sends the browser to another location.
	Redirect string
	// Message is a user-facing notice.
	Message string
	// Verified is set by a successful verification.
	Verified bool
	State    gate.State
	// Items holds the catalog fetched after a successful verification.
	Items []catalog.Item
}

// Handler runs one affordance.
type Handler func(ctx context.Context, req Request) (Outcome, error)

// Dispatcher maps affordance ids to handlers.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds id to h, replacing any earlier binding.
func (d *Dispatcher) Register(id string, h Handler) {
	d.handlers[id] = h
}

// Dispatch runs the handler bound to id.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, req Request) (Outcome, error) {
	h, ok := d.handlers[id]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	return h(ctx, req)
}

// IDs returns the registered ids in sorted order.
func (d *Dispatcher) IDs() []string {
	ids := make([]string, 0, len(d.handlers))
	for id := range d.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
