// Package retry provides a bounded exponential-backoff policy for calls to
// external collaborators. It is a thin wrapper around cenkalti/backoff so
// domain code depends on a small policy type rather than the library.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds how a failing call is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts uint
	// InitialDelay is the delay before the first retry; subsequent delays
	// grow exponentially with jitter up to MaxDelay.
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultPolicy matches the persistence-path policy of the storefront:
// three attempts starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     8 * time.Second,
	}
}

// Do runs op until it succeeds, the policy is exhausted, or ctx is done.
// The last error is returned. Wrap an error with Permanent to stop early.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialDelay
	bo.MaxInterval = p.MaxDelay

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op(ctx)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(p.MaxAttempts))
	return err
}

// Permanent marks err as non-retryable so Do returns immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
