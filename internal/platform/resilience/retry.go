package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry runs op until it succeeds, returns an error rejected by retryable,
// or the retry budget is spent. Backoff is exponential without jitter so
// runs are reproducible.
func Retry(ctx context.Context, cfg RetryConfig, retryable func(error) bool, op func(ctx context.Context, attempt int) error, notify func(err error, wait time.Duration)) error {
	cfg = NormalizeRetryConfig(cfg)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialBackoff
	policy.MaxInterval = cfg.MaxBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	attempt := 0
	operation := func() (struct{}, error) {
		err := op(ctx, attempt)
		attempt++
		if err == nil {
			return struct{}{}, nil
		}
		if retryable != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(cfg.MaxRetries + 1)),
		backoff.WithMaxElapsedTime(0),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(notify))
	}

	_, err := backoff.Retry(ctx, operation, opts...)
	return err
}
