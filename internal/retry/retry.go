// Package retry provides a bounded exponential-backoff combinator.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Retry combinator for remote state fetches.
 *
 * Do wraps an arbitrary operation with bounded retry and exponential
 * backoff, independent of the fetch calls themselves so the policy is
 * unit-testable in isolation from network code.
 *
 * Backoff: delay starts at BaseDelay and multiplies by Multiplier after
 * each failed attempt, capped at MaxDelay when set. Sleeps respect context
 * cancellation.
 *
 * Non-retryable errors: some failures are terminal by meaning, not by
 * transport (a missing subscription record is an answer, not an outage).
 * Errors matching NonRetryable abort immediately and propagate unchanged.
 *
 * Exhaustion: when MaxAttempts consecutive attempts fail, Do returns the
 * last error wrapped with types.ErrRetryExhausted and the attempt count.
 */

// Policy configures the retry behaviour for an operation wrapped with Do.
// Zero values produce sensible defaults (see withDefaults).
type Policy struct {
	// MaxAttempts is the maximum number of times the operation is called.
	// Defaults to types.MaxFetchAttempts.
	MaxAttempts int

	// BaseDelay is the wait time before the second attempt.
	// Defaults to types.FetchBaseDelay.
	BaseDelay time.Duration

	// Multiplier scales the delay after each failure.
	// 1.0 = constant interval, 2.0 = exponential backoff. Defaults to 2.0.
	Multiplier float64

	// MaxDelay caps the wait time between attempts. 0 means uncapped.
	MaxDelay time.Duration

	// NonRetryable lists errors that abort the retry loop immediately,
	// even when MaxAttempts has not been reached.
	NonRetryable []error

	// OnRetry is invoked before each re-attempt with the 1-based number of
	// the attempt that just failed, its error, and the upcoming delay.
	// Diagnostics only; must not block.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = types.MaxFetchAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = types.FetchBaseDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	return p
}

// Do calls fn until it succeeds, a non-retryable error occurs, the context
// is cancelled, or MaxAttempts is reached.
func Do(ctx context.Context, fn func(ctx context.Context) error, policy Policy) error {
	policy = policy.withDefaults()
	delay := policy.BaseDelay

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		for _, nr := range policy.NonRetryable {
			if errors.Is(err, nr) {
				return err
			}
		}

		if attempt >= policy.MaxAttempts {
			return fmt.Errorf("%w (attempts=%d): %w", types.ErrRetryExhausted, attempt, err)
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err, delay)
		}

		// Wait before the next attempt, but respect context cancellation.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		next := time.Duration(float64(delay) * policy.Multiplier)
		if policy.MaxDelay > 0 && next > policy.MaxDelay {
			next = policy.MaxDelay
		}
		delay = next
	}
}
