// internal/engine/fetch.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/waykeeper/internal/retry"
	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Remote state fetcher.
 *
 * Retrieves the subscription and setup records for an identity
 * concurrently, each wrapped in the retry combinator with exponential
 * backoff and a per-retry diagnostics callback.
 *
 * NotFound is data, not failure: a missing record is a meaningful state
 * ("no plan", "setup not provisioned"), mapped to a nil record and never
 * retried. Only transport and service errors count against the attempt
 * ceiling.
 *
 * The fetcher reads only; it must not mutate session flags.
 */

// remoteState is the fetched snapshot input for one decision cycle.
type remoteState struct {
	subscription *types.SubscriptionRecord
	setup        *types.SetupRecord
}

// fetchRemoteState loads both records for the identity, retrying transient
// failures per the engine's retry policy. Requires a non-empty identity id.
func (e *Engine) fetchRemoteState(ctx context.Context, id types.IdentityID, cycle types.CycleID) (remoteState, error) {
	if id == "" {
		return remoteState{}, types.ErrEmptyIdentity
	}

	var state remoteState
	subErr := make(chan error, 1)

	// Subscription and setup fetches are independent; issue them together.
	go func() {
		subErr <- retry.Do(ctx, func(ctx context.Context) error {
			rec, err := e.subscriptions.GetSubscription(ctx, id)
			if errors.Is(err, types.ErrSubscriptionNotFound) {
				state.subscription = nil
				return nil
			}
			if err != nil {
				return err
			}
			state.subscription = rec
			return nil
		}, e.retryPolicy(cycle, "subscription"))
	}()

	setupErr := retry.Do(ctx, func(ctx context.Context) error {
		rec, err := e.setups.GetSetup(ctx, id)
		if errors.Is(err, types.ErrSetupNotFound) {
			state.setup = nil
			return nil
		}
		if err != nil {
			return err
		}
		state.setup = rec
		return nil
	}, e.retryPolicy(cycle, "setup"))

	if err := errors.Join(<-subErr, setupErr); err != nil {
		return remoteState{}, fmt.Errorf("fetch remote state: %w", err)
	}
	return state, nil
}

// retryPolicy builds the per-fetch retry policy with retry diagnostics
// tagged by cycle and record kind.
func (e *Engine) retryPolicy(cycle types.CycleID, kind string) retry.Policy {
	return retry.Policy{
		MaxAttempts: e.cfg.FetchMaxAttempts,
		BaseDelay:   e.cfg.FetchBaseDelay,
		Multiplier:  2.0,
		MaxDelay:    e.cfg.FetchMaxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			e.logger.Warn("fetch retry",
				"cycle", cycle,
				"record", kind,
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
		},
	}
}
