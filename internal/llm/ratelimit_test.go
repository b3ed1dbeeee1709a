package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("nil limiter never blocks", func(t *testing.T) {
		var rl *rateLimiter
		assert.NoError(t, rl.wait(context.Background()))
		assert.Nil(t, newRateLimiter(0))
	})

	t.Run("consumes burst then waits for refill", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := newRateLimiter(60)
		rl.now = func() time.Time { return now }
		rl.last = now

		for i := 0; i < 60; i++ {
			_, ok := rl.reserve()
			require.True(t, ok, "token %d", i)
		}

		delay, ok := rl.reserve()
		assert.False(t, ok)
		assert.InDelta(t, time.Second, delay, float64(10*time.Millisecond))

		now = now.Add(time.Second)
		_, ok = rl.reserve()
		assert.True(t, ok)
	})

	t.Run("wait honors cancellation", func(t *testing.T) {
		now := time.Now()
		rl := newRateLimiter(1)
		rl.now = func() time.Time { return now }
		rl.last = now
		_, _ = rl.reserve()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.Error(t, rl.wait(ctx))
	})
}
