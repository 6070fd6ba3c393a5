package gate

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Session entry keys, shared by every Store implementation.
const (
	KeyAuthorized = "lw_license_ok"
	KeyMachineID  = "lw_license_mc"
	KeyCode       = "lw_license_code"
)

// Status is the gate's externally visible state.
type Status int

const (
	StatusLocked Status = iota
	StatusUnlocked
)

func (s Status) String() string {
	if s == StatusUnlocked {
		return "unlocked"
	}
	return "locked"
}

// State is the session record behind a gate.
// The zero value is a fresh, Locked session.
type State struct {
	Authorized bool   `json:"authorized"`
	MachineID  string `json:"machine_id,omitempty"`
	Code       string `json:"code,omitempty"`
}

// Status maps the record to a gate status.
func (s State) Status() Status {
	if s.Authorized {
		return StatusUnlocked
	}
	return StatusLocked
}

// Entries renders the record as the three session entries. A Locked state has
// no entries.
func (s State) Entries() map[string]string {
	if !s.Authorized {
		return map[string]string{}
	}
	return map[string]string{
		KeyAuthorized: "true",
		KeyMachineID:  s.MachineID,
		KeyCode:       s.Code,
	}
}

// StateFromEntries is the inverse of State.Entries. Only the exact value
// "true" counts as authorized.
func StateFromEntries(entries map[string]string) State {
	if entries[KeyAuthorized] != "true" {
		return State{}
	}
	return State{
		Authorized: true,
		MachineID:  entries[KeyMachineID],
		Code:       entries[KeyCode],
	}
}

// Navigation classifies how a page load happened.
type Navigation int

const (
	NavigationNavigate Navigation = iota
	NavigationReload
	NavigationBackForward
	NavigationPrerender
)

func (n Navigation) String() string {
	switch n {
	case NavigationReload:
		return "reload"
	case NavigationBackForward:
		return "back_forward"
	case NavigationPrerender:
		return "prerender"
	default:
		return "navigate"
	}
}

// ParseNavigation reads a navigation-timing type name. Unknown names are
// treated as a plain navigation.
func ParseNavigation(s string) Navigation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reload":
		return NavigationReload
	case "back_forward", "back-forward":
		return NavigationBackForward
	case "prerender":
		return NavigationPrerender
	default:
		return NavigationNavigate
	}
}

// Store persists one session's gate entries.
//
// Save writes all three entries at once and Clear removes all three; partial
// updates are never visible.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps a session's entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore returns an empty (Locked) store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]string{}}
}

func (m *MemoryStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return StateFromEntries(m.entries), nil
}

func (m *MemoryStore) Save(ctx context.Context, s State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Authorized {
		return fmt.Errorf("save: refusing to store a locked state, use Clear")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = s.Entries()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]string{}
	return nil
}

// Len reports how many entries are stored (0 or 3).
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
