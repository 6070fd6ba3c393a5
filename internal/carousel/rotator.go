package carousel

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultInterval is the time each slide stays on screen.
const DefaultInterval = 3 * time.Second

// Rotator advances a carousel on a fixed interval.
type Rotator struct {
	carousel *Carousel
	cron     *cron.Cron
	onTick   func(idx int)
	logger   *slog.Logger
}

// RotatorOption configures a Rotator.
type RotatorOption func(*Rotator)

// OnTick registers a callback run after every advance with the new index.
func OnTick(fn func(idx int)) RotatorOption {
	return func(r *Rotator) { r.onTick = fn }
}

// WithRotatorLogger sets the logger. Defaults to slog.Default().
func WithRotatorLogger(l *slog.Logger) RotatorOption {
	return func(r *Rotator) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRotator schedules c to advance every interval. Intervals below one
// second are rejected because the schedule has second granularity.
func NewRotator(c *Carousel, interval time.Duration, opts ...RotatorOption) (*Rotator, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("carousel interval %s is below 1s", interval)
	}

	r := &Rotator{
		carousel: c,
		cron:     cron.New(cron.WithSeconds()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval), r.Tick); err != nil {
		return nil, fmt.Errorf("schedule carousel: %w", err)
	}
	return r, nil
}

// Tick advances the carousel once. Zero slides is a no-op.
func (r *Rotator) Tick() {
	if r.carousel.Len() == 0 {
		return
	}
	idx := r.carousel.Advance()
	r.logger.Debug("carousel advanced", "index", idx)
	if r.onTick != nil {
		r.onTick(idx)
	}
}

// Start begins rotating in the background.
func (r *Rotator) Start() {
	r.cron.Start()
}

// Stop halts rotation and waits for a running tick to finish.
func (r *Rotator) Stop() {
	<-r.cron.Stop().Done()
}
