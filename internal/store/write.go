package store

import (
	"context"
	"fmt"

	"github.com/roach88/lwgate/internal/gate"
)

// Session returns the gate.Store for one browsing session.
func (s *Store) Session(sessionID string) gate.Store {
	return &sessionStore{store: s, id: sessionID}
}

type sessionStore struct {
	store *Store
	id    string
}

// Load reads the session and, for an Unlocked row, refreshes updated_at so
// Sweep only removes sessions that have gone idle.
func (ss *sessionStore) Load(ctx context.Context) (gate.State, error) {
	st, err := ss.store.readSession(ctx, ss.id)
	if err != nil || !st.Authorized {
		return st, err
	}
	_, err = ss.store.db.ExecContext(ctx,
		`UPDATE gate_sessions SET updated_at = ? WHERE session_id = ?`,
		ss.store.now().Unix(), ss.id)
	if err != nil {
		return gate.State{}, fmt.Errorf("touch session %s: %w", ss.id, err)
	}
	return st, nil
}

// Save writes all three entries in one row. Uses ON CONFLICT DO UPDATE so a
// repeated verification refreshes the row.
func (ss *sessionStore) Save(ctx context.Context, st gate.State) error {
	if !st.Authorized {
		return fmt.Errorf("save session %s: refusing to store a locked state", ss.id)
	}
	_, err := ss.store.db.ExecContext(ctx, `
		INSERT INTO gate_sessions (session_id, authorized, machine_id, license_code, updated_at)
		VALUES (?, 1, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			authorized = excluded.authorized,
			machine_id = excluded.machine_id,
			license_code = excluded.license_code,
			updated_at = excluded.updated_at
	`, ss.id, st.MachineID, st.Code, ss.store.now().Unix())
	if err != nil {
		return fmt.Errorf("save session %s: %w", ss.id, err)
	}
	return nil
}

// Clear deletes the session row; a missing row is not an error.
func (ss *sessionStore) Clear(ctx context.Context) error {
	_, err := ss.store.db.ExecContext(ctx, `DELETE FROM gate_sessions WHERE session_id = ?`, ss.id)
	if err != nil {
		return fmt.Errorf("clear session %s: %w", ss.id, err)
	}
	return nil
}

// RecordAttempt appends a verification attempt to the audit log.
func (s *Store) RecordAttempt(ctx context.Context, sessionID, machineID string, ok bool, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verify_attempts (session_id, machine_id, ok, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, machineID, boolToInt(ok), reason, s.now().Unix())
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
