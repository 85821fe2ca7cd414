package resilience

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(cfg RateLimitConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)}
	return NewRateLimiter(cfg).WithClock(clock.Now, clock.Sleep), clock
}

func TestRateLimiter_MinInterval(t *testing.T) {
	t.Parallel()

	limiter, clock := newTestLimiter(RateLimitConfig{MinInterval: 500 * time.Millisecond})
	ctx := context.Background()

	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if len(clock.slept) != 0 {
		t.Fatalf("first call must not sleep, slept=%v", clock.slept)
	}

	clock.now = clock.now.Add(200 * time.Millisecond)
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 300*time.Millisecond {
		t.Fatalf("expected one 300ms sleep, got=%v", clock.slept)
	}
	if limiter.Calls() != 2 {
		t.Fatalf("expected 2 calls, got=%d", limiter.Calls())
	}
}

func TestRateLimiter_HourlyBudgetSleepsUntilRollover(t *testing.T) {
	t.Parallel()

	limiter, clock := newTestLimiter(RateLimitConfig{HourlyBudget: 3})
	ctx := context.Background()
	start := clock.now

	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
		clock.now = clock.now.Add(time.Minute)
	}
	if remaining := limiter.Remaining(); remaining != 0 {
		t.Fatalf("expected budget spent, remaining=%d", remaining)
	}

	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("wait after budget: %v", err)
	}
	if len(clock.slept) != 1 {
		t.Fatalf("expected one rollover sleep, got=%v", clock.slept)
	}
	if !clock.now.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected to resume at window rollover, got=%s", clock.now)
	}
	if remaining := limiter.Remaining(); remaining != 2 {
		t.Fatalf("expected fresh window with 2 remaining, got=%d", remaining)
	}
}

func TestRateLimiter_IndependentInstances(t *testing.T) {
	t.Parallel()

	a, clockA := newTestLimiter(RateLimitConfig{MinInterval: time.Second})
	b, clockB := newTestLimiter(RateLimitConfig{MinInterval: time.Second})
	ctx := context.Background()

	_ = a.Wait(ctx)
	_ = b.Wait(ctx)
	if len(clockA.slept) != 0 || len(clockB.slept) != 0 {
		t.Fatalf("limiters must not share state")
	}
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(RateLimitConfig{MinInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	cancel()
	if err := limiter.Wait(ctx); err == nil {
		t.Fatalf("expected cancelled wait to fail")
	}
}
