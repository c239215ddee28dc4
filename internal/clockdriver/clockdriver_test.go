package clockdriver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Akira-11-20/hilsim/internal/clockdriver"
)

func TestTicker_NextDeadline(t *testing.T) {
	ticker := clockdriver.New(100 * time.Millisecond)
	start := time.Now()
	require.Equal(t, start.Add(100*time.Millisecond), ticker.NextDeadline(start))
}

func TestTicker_SleepUntil_WaitsForFutureDeadline(t *testing.T) {
	ticker := clockdriver.New(50 * time.Millisecond)
	deadline := time.Now().Add(30 * time.Millisecond)

	start := time.Now()
	overrun, missed := ticker.SleepUntil(context.Background(), deadline)
	elapsed := time.Since(start)

	require.False(t, missed)
	require.Zero(t, overrun)
	require.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
}

func TestTicker_SleepUntil_DetectsMissedDeadline(t *testing.T) {
	ticker := clockdriver.New(10 * time.Millisecond)
	deadline := time.Now().Add(-5 * time.Millisecond)

	overrun, missed := ticker.SleepUntil(context.Background(), deadline)
	require.True(t, missed)
	require.Greater(t, overrun, time.Duration(0))
}

func TestTicker_SleepUntil_HonorsCancellation(t *testing.T) {
	ticker := clockdriver.New(time.Second)
	deadline := time.Now().Add(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		ticker.SleepUntil(ctx, deadline)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SleepUntil did not return promptly after cancellation")
	}
}
