package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lwgate/internal/license"
)

const (
	testMC   = "100-200"
	testCode = "013148-070273-74377"
)

func newTestGate(t *testing.T, opts ...Option) (*Gate, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(store, opts...), store
}

func TestNew_StartsLocked(t *testing.T) {
	g, store := newTestGate(t)
	ctx := context.Background()

	assert.Equal(t, StatusLocked, g.Status(ctx))
	assert.Equal(t, State{}, g.State(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestVerify_Unlocks(t *testing.T) {
	var seen []State
	g, store := newTestGate(t, WithObserver(func(s State) { seen = append(seen, s) }))
	ctx := context.Background()

	require.Equal(t, testCode, license.DeriveCode(testMC))

	st, err := g.Verify(ctx, testMC, testCode)
	require.NoError(t, err)
	assert.Equal(t, State{Authorized: true, MachineID: testMC, Code: testCode}, st)
	assert.Equal(t, StatusUnlocked, g.Status(ctx))
	assert.Equal(t, 3, store.Len())

	require.Len(t, seen, 1, "observers refresh once per transition")
	assert.True(t, seen[0].Authorized)
}

func TestVerify_RefusesWrongCode(t *testing.T) {
	var notified int
	g, store := newTestGate(t, WithObserver(func(State) { notified++ }))
	ctx := context.Background()

	wrong := []string{"", "013148-070273-74378", license.ErrorCode, " " + testCode}
	for _, code := range wrong {
		_, err := g.Verify(ctx, testMC, code)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidLicense))
		assert.False(t, IsMalformed(err))
	}

	assert.Equal(t, StatusLocked, g.Status(ctx))
	assert.Equal(t, 0, store.Len())
	assert.Zero(t, notified)
}

func TestVerify_RefusesMalformedIdentifier(t *testing.T) {
	g, _ := newTestGate(t)
	ctx := context.Background()

	_, err := g.Verify(ctx, "12-34-56", license.ErrorCode)
	require.Error(t, err)
	assert.True(t, IsMalformed(err))

	var ve *VerifyError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "12-34-56", ve.MachineID)
	assert.Equal(t, StatusLocked, g.Status(ctx))
}

func TestVerify_RefusalWhileUnlockedKeepsSession(t *testing.T) {
	g, _ := newTestGate(t)
	ctx := context.Background()

	_, err := g.Verify(ctx, testMC, testCode)
	require.NoError(t, err)

	st, err := g.Verify(ctx, testMC, "nope")
	require.Error(t, err)
	assert.True(t, st.Authorized)
	assert.Equal(t, StatusUnlocked, g.Status(ctx))
}

func TestLoad_ReloadClearsSession(t *testing.T) {
	var last State
	g, store := newTestGate(t, WithObserver(func(s State) { last = s }))
	ctx := context.Background()

	_, err := g.Verify(ctx, testMC, testCode)
	require.NoError(t, err)
	require.True(t, last.Authorized)

	st, err := g.Load(ctx, NavigationReload)
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
	assert.Equal(t, StatusLocked, g.Status(ctx))
	assert.Equal(t, 0, store.Len(), "all three entries are cleared together")
	assert.False(t, last.Authorized)
}

func TestLoad_NonReloadKeepsSession(t *testing.T) {
	for _, nav := range []Navigation{NavigationNavigate, NavigationBackForward, NavigationPrerender} {
		t.Run(nav.String(), func(t *testing.T) {
			g, store := newTestGate(t)
			ctx := context.Background()

			_, err := g.Verify(ctx, testMC, testCode)
			require.NoError(t, err)

			st, err := g.Load(ctx, nav)
			require.NoError(t, err)
			assert.True(t, st.Authorized)
			assert.Equal(t, 3, store.Len())
		})
	}
}

func TestLoad_ReloadWhileLocked(t *testing.T) {
	notified := 0
	g, _ := newTestGate(t, WithObserver(func(State) { notified++ }))
	st, err := g.Load(context.Background(), NavigationReload)
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, st.Status())
	assert.Zero(t, notified, "a locked session has no transition to report")

	require.NoError(t, g.Reset(context.Background()))
	assert.Zero(t, notified)
}

func TestGatesShareStore(t *testing.T) {
	store := NewMemoryStore()
	logger := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := New(store, logger).Verify(ctx, testMC, testCode)
	require.NoError(t, err)
	assert.Equal(t, StatusUnlocked, New(store, logger).Status(ctx))
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context) (State, error) { return State{}, f.err }
func (f failingStore) Save(context.Context, State) error   { return f.err }
func (f failingStore) Clear(context.Context) error         { return f.err }

func TestGate_StoreFailures(t *testing.T) {
	boom := errors.New("disk on fire")
	g := New(failingStore{err: boom}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx := context.Background()

	assert.Equal(t, StatusLocked, g.Status(ctx), "unreadable session reads as locked")

	_, err := g.Verify(ctx, testMC, testCode)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrInvalidLicense))

	_, err = g.Load(ctx, NavigationReload)
	assert.ErrorIs(t, err, boom)
}
