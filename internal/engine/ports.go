// Package engine implements the navigation decision engine: after every
// identity or route change it decides which single screen the user must be
// looking at and safely transitions there.
package engine

import (
	"context"
	"log/slog"

	"github.com/solatis/waykeeper/internal/types"
)

// IdentityProvider exposes the current authenticated principal, or none.
// The engine must not run a decision cycle while Initializing reports true.
type IdentityProvider interface {
	// Current returns the authenticated identity and whether one exists.
	Current() (types.Identity, bool)

	// Initializing reports whether the provider is still resolving the
	// initial auth state.
	Initializing() bool

	// Subscribe registers a callback invoked on identity changes and
	// returns its cancel function.
	Subscribe(fn func()) (cancel func())
}

// Router exposes the current location and performs transitions.
type Router interface {
	// CurrentPath returns the current route path.
	CurrentPath() string

	// Replace performs a history-replacing transition (never additive), so
	// the user cannot navigate back into a state the engine invalidated.
	Replace(target types.Route, params types.Params) error

	// Subscribe registers a callback invoked on route changes and returns
	// its cancel function.
	Subscribe(fn func()) (cancel func())
}

// SubscriptionStore retrieves the billing record for an identity.
// Returns types.ErrSubscriptionNotFound when no record exists - a valid
// state, never retried.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, id types.IdentityID) (*types.SubscriptionRecord, error)
}

// SetupStore retrieves the provisioning record for an identity.
// Returns types.ErrSetupNotFound when setup was never provisioned.
type SetupStore interface {
	GetSetup(ctx context.Context, id types.IdentityID) (*types.SetupRecord, error)
}

// Reporter receives engine errors for observability. Fire-and-forget:
// implementations must never panic back into the engine.
type Reporter interface {
	Report(err error, context map[string]any)
}

// LogReporter forwards reports to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

// Report logs the error with its context attributes at error level.
func (r LogReporter) Report(err error, context map[string]any) {
	if r.Logger == nil || err == nil {
		return
	}
	attrs := make([]any, 0, len(context)*2+2)
	attrs = append(attrs, "error", err)
	for k, v := range context {
		attrs = append(attrs, k, v)
	}
	r.Logger.Error("engine error", attrs...)
}

// NopReporter discards all reports. Useful in tests.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(err error, context map[string]any) {}
