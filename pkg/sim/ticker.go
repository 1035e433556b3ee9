package sim

import (
	"context"
	"time"
)

// DefaultTickInterval is the real-time cadence of a simulation.
const DefaultTickInterval = 50 * time.Millisecond

// TickSource paces a simulation. Wait blocks until the next tick or until ctx
// is done.
type TickSource interface {
	Wait(ctx context.Context) error
	Stop()
}

// TimerTicks fires on a fixed wall-clock interval.
type TimerTicks struct {
	t *time.Ticker
}

// NewTimerTicks starts a ticker. A non-positive interval uses DefaultTickInterval.
func NewTimerTicks(interval time.Duration) *TimerTicks {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TimerTicks{t: time.NewTicker(interval)}
}

func (tt *TimerTicks) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tt.t.C:
		return nil
	}
}

func (tt *TimerTicks) Stop() {
	tt.t.Stop()
}

// ManualTicks fires immediately. Used by tests and batch runs.
type ManualTicks struct{}

func (ManualTicks) Wait(ctx context.Context) error {
	return ctx.Err()
}

func (ManualTicks) Stop() {}
