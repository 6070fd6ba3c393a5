// Package store provides SQLite-backed storage for gate sessions.
//
// The store holds two tables:
//   - gate_sessions: the three gate entries per session, written or deleted as one row
//   - verify_attempts: an append-only log of verification attempts
//
// Session rows only live as long as the browsing session that owns them: the
// session cookie carrying the id expires with the browser session, and Sweep
// deletes rows that have been idle past the configured TTL.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Attempts are ordered by seq (INTEGER PRIMARY KEY), never by timestamp.
package store
