package carousel

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var quiet = WithRotatorLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func TestNewRotator_RejectsSubSecondInterval(t *testing.T) {
	_, err := NewRotator(New(threeSlides()), 500*time.Millisecond, quiet)
	assert.Error(t, err)
}

func TestRotator_Tick(t *testing.T) {
	var seen []int
	c := New(threeSlides())
	r, err := NewRotator(c, DefaultInterval, quiet, OnTick(func(idx int) { seen = append(seen, idx) }))
	require.NoError(t, err)

	r.Tick()
	r.Tick()
	r.Tick()
	assert.Equal(t, []int{1, 2, 0}, seen)
	assert.Equal(t, 0, c.Index())
}

func TestRotator_TickWithoutSlides(t *testing.T) {
	called := false
	r, err := NewRotator(New(nil), DefaultInterval, quiet, OnTick(func(int) { called = true }))
	require.NoError(t, err)

	r.Tick()
	assert.False(t, called)
}

func TestRotator_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ticks := make(chan int, 8)
	c := New(threeSlides())
	r, err := NewRotator(c, time.Second, quiet, OnTick(func(idx int) { ticks <- idx }))
	require.NoError(t, err)

	r.Start()
	select {
	case idx := <-ticks:
		assert.Equal(t, 1, idx)
	case <-time.After(5 * time.Second):
		t.Fatal("rotator never ticked")
	}
	r.Stop()
}
