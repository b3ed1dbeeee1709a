package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled lazily on each acquire.
// A nil *rateLimiter never blocks.
type rateLimiter struct {
	last     time.Time
	now      func() time.Time
	tokens   float64
	capacity float64
	perSec   float64
	mu       sync.Mutex
}

// newRateLimiter allows requestsPerMinute calls per minute. Zero or negative
// disables limiting.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return &rateLimiter{
		tokens:   float64(requestsPerMinute),
		capacity: float64(requestsPerMinute),
		perSec:   float64(requestsPerMinute) / 60,
		last:     time.Now(),
		now:      time.Now,
	}
}

// reserve takes a token if one is available, otherwise reports how long
// until the next one.
func (rl *rateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens += now.Sub(rl.last).Seconds() * rl.perSec
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.last = now

	if rl.tokens >= 1 {
		rl.tokens--
		return 0, true
	}
	return time.Duration((1 - rl.tokens) / rl.perSec * float64(time.Second)), false
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	for {
		delay, ok := rl.reserve()
		if ok {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
