package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/lwgate/internal/gate"
	"github.com/roach88/lwgate/internal/testutil"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"gate_sessions", "verify_attempts"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	pragmas := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
	}
	for name, want := range pragmas {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_verify_attempts_session'",
	).Scan(&name)
	if err != nil {
		t.Errorf("v1 index missing: %v", err)
	}
}

func TestSession_SaveLoadClear(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := s.Session("sess-1")

	st, err := sess.Load(ctx)
	if err != nil {
		t.Fatalf("Load() on empty session failed: %v", err)
	}
	if st.Authorized {
		t.Fatal("fresh session must be locked")
	}

	want := gate.State{Authorized: true, MachineID: "100-200", Code: "013148-070273-74377"}
	if err := sess.Save(ctx, want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := sess.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	// Other sessions are isolated.
	other, err := s.Session("sess-2").Load(ctx)
	if err != nil {
		t.Fatalf("Load() other failed: %v", err)
	}
	if other.Authorized {
		t.Error("sessions must not share entries")
	}

	if err := sess.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	got, _ = sess.Load(ctx)
	if got != (gate.State{}) {
		t.Errorf("after Clear() = %+v, want zero state", got)
	}

	// Clearing twice is fine.
	if err := sess.Clear(ctx); err != nil {
		t.Errorf("second Clear() failed: %v", err)
	}
}

func TestSession_SaveRefusesLockedState(t *testing.T) {
	s := createTestStore(t)
	if err := s.Session("x").Save(context.Background(), gate.State{}); err == nil {
		t.Error("expected error saving a locked state")
	}
}

func TestSession_SaveOverwrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := s.Session("sess")

	first := gate.State{Authorized: true, MachineID: "1-2", Code: "a"}
	second := gate.State{Authorized: true, MachineID: "3-4", Code: "b"}
	if err := sess.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := sess.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, _ := sess.Load(ctx)
	if got != second {
		t.Errorf("Load() = %+v, want %+v", got, second)
	}
	n, _ := s.SessionCount(ctx)
	if n != 1 {
		t.Errorf("SessionCount() = %d, want 1", n)
	}
}

func TestSession_DrivesGate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g := gate.New(s.Session("browser-tab"))

	if _, err := g.Verify(ctx, "100-200", "013148-070273-74377"); err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if g.Status(ctx) != gate.StatusUnlocked {
		t.Fatal("gate should be unlocked")
	}

	if _, err := g.Load(ctx, gate.NavigationReload); err != nil {
		t.Fatalf("Load(reload) failed: %v", err)
	}
	n, _ := s.SessionCount(ctx)
	if n != 0 {
		t.Errorf("reload should delete the session row, %d left", n)
	}
}

func TestAttempts(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	s := createTestStore(t, WithClock(clock.Now))
	ctx := context.Background()

	if err := s.RecordAttempt(ctx, "sess", "100-200", false, "CODE_MISMATCH"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Minute)
	if err := s.RecordAttempt(ctx, "sess", "100-200", true, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordAttempt(ctx, "other", "1-1", true, ""); err != nil {
		t.Fatal(err)
	}

	attempts, err := s.Attempts(ctx, "sess")
	if err != nil {
		t.Fatalf("Attempts() failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("len(attempts) = %d, want 2", len(attempts))
	}
	if attempts[0].OK || attempts[0].Reason != "CODE_MISMATCH" {
		t.Errorf("first attempt = %+v", attempts[0])
	}
	if !attempts[1].OK {
		t.Errorf("second attempt should be ok")
	}
	if attempts[0].Seq >= attempts[1].Seq {
		t.Error("attempts must be ordered by seq")
	}
	if !attempts[1].CreatedAt.Equal(clock.Now()) {
		t.Errorf("CreatedAt = %v, want %v", attempts[1].CreatedAt, clock.Now())
	}

	none, err := s.Attempts(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("Attempts() for unknown session = %v, want empty slice", none)
	}
}

func TestSweep(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := createTestStore(t, WithClock(clock.Now))
	ctx := context.Background()
	st := gate.State{Authorized: true, MachineID: "1-2", Code: "c"}

	if err := s.Session("old").Save(ctx, st); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Hour)
	if err := s.Session("fresh").Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	n, err := s.Sweep(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Sweep() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep() removed %d, want 1", n)
	}

	old, _ := s.Session("old").Load(ctx)
	fresh, _ := s.Session("fresh").Load(ctx)
	if old.Authorized || !fresh.Authorized {
		t.Errorf("old=%+v fresh=%+v", old, fresh)
	}
}

func TestSweep_KeepsActiveSessions(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := createTestStore(t, WithClock(clock.Now))
	ctx := context.Background()
	g := gate.New(s.Session("browsing"))

	if _, err := g.Verify(ctx, "100-200", "013148-070273-74377"); err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}

	// 13h of page loads every 30 minutes, sweeping with a 12h ttl.
	for i := 0; i < 26; i++ {
		clock.Advance(30 * time.Minute)
		if _, err := g.Load(ctx, gate.NavigationNavigate); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if _, err := s.Sweep(ctx, 12*time.Hour); err != nil {
			t.Fatalf("Sweep() failed: %v", err)
		}
	}

	if g.Status(ctx) != gate.StatusUnlocked {
		t.Error("an active session must stay unlocked across sweeps")
	}

	clock.Advance(13 * time.Hour)
	n, err := s.Sweep(ctx, 12*time.Hour)
	if err != nil {
		t.Fatalf("Sweep() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep() removed %d idle sessions, want 1", n)
	}
}

func TestSweep_PrunesOldAttempts(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := createTestStore(t, WithClock(clock.Now))
	ctx := context.Background()

	if err := s.RecordAttempt(ctx, "sess", "1-2", false, "CODE_MISMATCH"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Hour)
	if err := s.RecordAttempt(ctx, "sess", "1-2", true, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Sweep(ctx, time.Hour); err != nil {
		t.Fatalf("Sweep() failed: %v", err)
	}

	attempts, err := s.Attempts(ctx, "sess")
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 || !attempts[0].OK {
		t.Errorf("attempts after sweep = %+v, want only the recent one", attempts)
	}
}
