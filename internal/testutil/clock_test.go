package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prathap331/SB-Next/internal/logging"
)

func TestFakeClockSleepAdvances(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)

	require.NoError(t, clk.Sleep(context.Background(), 5*time.Second))
	require.NoError(t, clk.Sleep(context.Background(), 5*time.Second))

	assert.Equal(t, start.Add(10*time.Second), clk.Now())
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clk.Sleeps())
}

func TestFakeClockSleepCancelled(t *testing.T) {
	t.Parallel()

	clk := NewFakeClock(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := clk.Sleep(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, clk.Sleeps())
}

func TestNewTestContextCapturesLogs(t *testing.T) {
	t.Parallel()

	ctx, logs := NewTestContext(t)
	logging.Get(ctx).Info().Msg("captured")

	assert.Contains(t, logs(), "captured")
}
