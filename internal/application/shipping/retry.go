package shipping

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/venpus/mjshop-sub003/internal/domain/shared"
)

// RetryPolicy controls how transient ledger failures (lock timeout, deadlock, version
// conflict) are retried. Every attempt starts a fresh transaction.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the default retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Do runs op until it succeeds, fails with a non-transient error, or attempts run out.
// onRetry is called before each new attempt and may be nil.
func (p RetryPolicy) Do(ctx context.Context, op func() error, onRetry func(err error, wait time.Duration)) error {
	if p.MaxAttempts <= 1 {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if shared.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy, onRetry)
}
