package types

import "errors"

// Sentinel errors for Waykeeper operations.
var (
	// ErrSubscriptionNotFound indicates the identity has no subscription
	// record. A valid terminal state for the fetcher, never retried.
	ErrSubscriptionNotFound = errors.New("subscription record not found")

	// ErrSetupNotFound indicates the identity has no setup record
	// (setup not yet provisioned). Terminal, never retried.
	ErrSetupNotFound = errors.New("setup record not found")

	// ErrAccountNotFound indicates no account exists for the identity.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmptyIdentity indicates a fetch was requested without an identity id.
	ErrEmptyIdentity = errors.New("identity id is empty")

	// ErrRetryExhausted indicates an operation failed on every permitted attempt.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrEngineClosed indicates the engine was torn down; in-flight cycle
	// continuations observing this become no-ops.
	ErrEngineClosed = errors.New("engine closed")

	// ErrCycleInFlight indicates a decision cycle is already running and the
	// new trigger was dropped, not queued.
	ErrCycleInFlight = errors.New("decision cycle already in flight")
)
