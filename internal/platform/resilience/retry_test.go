package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
		nil,
		func(context.Context, int) error {
			calls++
			if calls < 3 {
				return errFlaky
			}
			return nil
		}, nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got=%d", calls)
	}
}

func TestRetry_StopsAtLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	notified := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond},
		nil,
		func(context.Context, int) error {
			calls++
			return errFlaky
		},
		func(error, time.Duration) { notified++ })
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 1 attempt plus 2 retries, got=%d", calls)
	}
	if notified != 2 {
		t.Fatalf("expected 2 notifications, got=%d", notified)
	}
}

func TestRetry_PermanentErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	errBad := errors.New("bad request")
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 5, InitialBackoff: time.Millisecond},
		func(err error) bool { return !errors.Is(err, errBad) },
		func(context.Context, int) error {
			calls++
			return errBad
		}, nil)
	if !errors.Is(err, errBad) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got=%d", calls)
	}
}
