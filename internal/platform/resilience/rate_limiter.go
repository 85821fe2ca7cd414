package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces calls to one upstream provider and enforces an hourly
// budget. When the budget is spent Wait sleeps until the window rolls over
// instead of failing. Each provider client owns its own limiter.
type RateLimiter struct {
	mu  sync.Mutex
	cfg RateLimitConfig

	lastCall    time.Time
	windowStart time.Time
	windowCalls int
	totalCalls  int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.HourlyBudget < 0 {
		cfg.HourlyBudget = 0
	}
	return &RateLimiter{
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// WithClock replaces the time source and sleeper. Intended for tests.
func (l *RateLimiter) WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now != nil {
		l.now = now
	}
	if sleep != nil {
		l.sleep = sleep
	}
	return l
}

// Wait blocks until the next call is allowed and reserves it.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		delay := l.delayLocked(l.now())
		if delay <= 0 {
			break
		}
		if err := l.sleep(ctx, delay); err != nil {
			return err
		}
	}

	now := l.now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= time.Hour {
		l.windowStart = now
		l.windowCalls = 0
	}
	l.windowCalls++
	l.totalCalls++
	l.lastCall = now
	return nil
}

func (l *RateLimiter) delayLocked(now time.Time) time.Duration {
	var delay time.Duration
	if !l.lastCall.IsZero() && l.cfg.MinInterval > 0 {
		if wait := l.cfg.MinInterval - now.Sub(l.lastCall); wait > delay {
			delay = wait
		}
	}
	if l.cfg.HourlyBudget > 0 && !l.windowStart.IsZero() && l.windowCalls >= l.cfg.HourlyBudget {
		if wait := time.Hour - now.Sub(l.windowStart); wait > delay {
			delay = wait
		}
	}
	return delay
}

// Calls returns the number of calls reserved since the limiter was created.
func (l *RateLimiter) Calls() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalCalls
}

// Remaining returns the calls left in the current hourly window, or -1
// when no budget is configured.
func (l *RateLimiter) Remaining() int {
	if l == nil || l.cfg.HourlyBudget <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.windowStart.IsZero() || l.now().Sub(l.windowStart) >= time.Hour {
		return l.cfg.HourlyBudget
	}
	return l.cfg.HourlyBudget - l.windowCalls
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
