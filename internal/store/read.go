package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/lwgate/internal/gate"
)

// Attempt is one row of the verification audit log.
type Attempt struct {
	Seq       int64
	SessionID string
	MachineID string
	OK        bool
	Reason    string
	CreatedAt time.Time
}

// readSession loads a session row. No row means a Locked session.
func (s *Store) readSession(ctx context.Context, sessionID string) (gate.State, error) {
	var (
		authorized int
		st         gate.State
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT authorized, machine_id, license_code
		FROM gate_sessions
		WHERE session_id = ?
	`, sessionID).Scan(&authorized, &st.MachineID, &st.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return gate.State{}, nil
	}
	if err != nil {
		return gate.State{}, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	if authorized != 1 {
		return gate.State{}, nil
	}
	st.Authorized = true
	return st, nil
}

// Attempts returns the audit log for a session ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) Attempts(ctx context.Context, sessionID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, session_id, machine_id, ok, reason, created_at
		FROM verify_attempts
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []Attempt{}
	for rows.Next() {
		var (
			a       Attempt
			ok      int
			created int64
		)
		if err := rows.Scan(&a.Seq, &a.SessionID, &a.MachineID, &ok, &a.Reason, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.OK = ok == 1
		a.CreatedAt = time.Unix(created, 0).UTC()
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// SessionCount returns the number of stored (Unlocked) sessions.
func (s *Store) SessionCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gate_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
