package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualTicks(t *testing.T) {
	var ts TickSource = ManualTicks{}
	defer ts.Stop()

	assert.NoError(t, ts.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ts.Wait(ctx), context.Canceled)
}

func TestTimerTicks(t *testing.T) {
	ts := NewTimerTicks(time.Millisecond)
	defer ts.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		assert.NoError(t, ts.Wait(ctx))
	}
}

func TestTimerTicks_Canceled(t *testing.T) {
	ts := NewTimerTicks(time.Hour)
	defer ts.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ts.Wait(ctx), context.Canceled)
}

func TestTimerTicks_DefaultInterval(t *testing.T) {
	ts := NewTimerTicks(0)
	defer ts.Stop()

	start := time.Now()
	assert.NoError(t, ts.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), DefaultTickInterval/2)
}
