package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff_LedgerSchedule(t *testing.T) {
	b := DefaultExponentialBackoff()
	b.Jitter = 0

	want := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		160 * time.Millisecond,
		320 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}
	for attempt, d := range want {
		assert.Equal(t, d, b.NextDelay(attempt), "attempt %d", attempt)
	}
	assert.Equal(t, b.BaseDelay, b.NextDelay(-1))
}

func TestExponentialBackoff_JitterStaysInBand(t *testing.T) {
	b := DefaultExponentialBackoff()

	seen := map[time.Duration]bool{}
	for i := 0; i < 200; i++ {
		d := b.NextDelay(2)
		assert.GreaterOrEqual(t, d, 32*time.Millisecond)
		assert.LessOrEqual(t, d, 48*time.Millisecond)
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1, "concurrent writers must not retry in lockstep")
}

// A refund or webhook that keeps losing the version check gives up well inside the
// handler budget
func TestExponentialBackoff_LedgerRetryBudget(t *testing.T) {
	const ledgerMaxRetries = 5
	b := DefaultExponentialBackoff()

	var worst time.Duration
	for attempt := 0; attempt < ledgerMaxRetries; attempt++ {
		worst += time.Duration(float64(b.NextDelay(attempt)) * (1 + b.Jitter))
	}
	assert.Less(t, worst, DefaultTimeoutConfig().HTTPHandler/10)
}

func TestFixedBackoff(t *testing.T) {
	b := &FixedBackoff{Delay: time.Millisecond}
	for _, attempt := range []int{-1, 0, 3, 100} {
		assert.Equal(t, time.Millisecond, b.NextDelay(attempt))
	}
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}
