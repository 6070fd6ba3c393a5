package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/roach88/lwgate/internal/gate"
)

// sessionKeyID is the cookie value holding the browsing session id.
const sessionKeyID = "sid"

// SessionIDGenerator produces browsing session ids.
type SessionIDGenerator interface {
	Generate() string
}

// UUIDGenerator generates UUIDv7 session ids.
type UUIDGenerator struct{}

// Generate returns a new UUIDv7 string, falling back to v4 if the clock
// source fails.
func (UUIDGenerator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SessionStores hands out the gate.Store for a browsing session.
// *store.Store satisfies it.
type SessionStores interface {
	Session(sessionID string) gate.Store
}

// AttemptRecorder is implemented by session stores that keep an audit log.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, sessionID, machineID string, ok bool, reason string) error
}

// MemorySessions keeps one gate.MemoryStore per session id in process memory.
type MemorySessions struct {
	mu     sync.Mutex
	stores map[string]*gate.MemoryStore
}

// NewMemorySessions creates an empty MemorySessions.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{stores: make(map[string]*gate.MemoryStore)}
}

// Session returns the store for sessionID, creating it on first use.
func (m *MemorySessions) Session(sessionID string) gate.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[sessionID]
	if !ok {
		st = gate.NewMemoryStore()
		m.stores[sessionID] = st
	}
	return st
}

// newCookieStore builds the signed session cookie store. MaxAge 0 makes the
// cookie last for the browser session only.
func newCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return cs
}

// sessionID returns the browsing session id for r, issuing a new cookie when
// the request carries none. It must run before the response header is written.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := s.cookies.Get(r, s.cfg.Session.CookieName)
	if err != nil {
		// A cookie signed with another secret decodes with an error but still
		// yields a fresh session, which is what we want.
		s.logger.Debug("discarding undecodable session cookie", "error", err)
	}

	if id, ok := sess.Values[sessionKeyID].(string); ok && id != "" {
		return id, nil
	}

	id := s.ids.Generate()
	sess.Values[sessionKeyID] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save session cookie: %w", err)
	}
	s.logger.Debug("issued session", "session_id", id)
	return id, nil
}

// gateFor returns the gate for the request's browsing session.
func (s *Server) gateFor(w http.ResponseWriter, r *http.Request) (*gate.Gate, string, error) {
	id, err := s.sessionID(w, r)
	if err != nil {
		return nil, "", err
	}
	g := gate.New(s.stores.Session(id),
		gate.WithLogger(s.logger.With("session_id", id)),
		gate.WithObserver(s.observe),
	)
	return g, id, nil
}

func (s *Server) observe(st gate.State) {
	if !st.Authorized {
		s.metrics.GateResets.Inc()
	}
}
