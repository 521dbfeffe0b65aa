package ai_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"polyglot/internal/service/ai"
)

func TestRateLimiter_Limits(t *testing.T) {
	rl := ai.NewRateLimiter(0)
	require.Equal(t, ai.DefaultRateLimit, rl.GetLimit())
	rl.SetLimit(3)
	require.Equal(t, 3, rl.GetLimit())
}

func TestRateLimiter_WaitGivesUpWithSession(t *testing.T) {
	rl := ai.NewRateLimiter(1)
	require.NoError(t, rl.Wait(context.Background(), "english"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, rl.Wait(ctx, "english"), context.Canceled)
}

func TestRateLimiter_WaitQueuesPastBurst(t *testing.T) {
	rl := ai.NewRateLimiter(20)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	for range 21 {
		require.NoError(t, rl.Wait(ctx, "french"))
	}
	require.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}
