// Package types provides domain models shared across Waykeeper components.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library so embedding hosts pay no transitive cost for the domain model.
// ID utilities in ids.go import uuid but are isolated for selective inclusion.
//
// Separation from storage: row structs with db tags live in internal/core/db.
// This package contains hand-written types for concepts the engine itself
// owns (decisions, session flags) or only observes (identity, subscription,
// setup records).
package types

import "time"

// Plan identifies the subscription tier attached to an identity.
type Plan string

// Subscription tiers. PlanNone marks a record that exists but has no
// finalized plan selection (newly-registered accounts).
const (
	PlanNone    Plan = "none"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
)

// SubscriptionStatus is the lifecycle state of a subscription record.
type SubscriptionStatus string

// Subscription lifecycle states, mirroring the billing provider's vocabulary.
const (
	StatusIncomplete SubscriptionStatus = "incomplete"
	StatusTrialing   SubscriptionStatus = "trialing"
	StatusActive     SubscriptionStatus = "active"
	StatusPastDue    SubscriptionStatus = "past_due"
	StatusUnpaid     SubscriptionStatus = "unpaid"
	StatusInactive   SubscriptionStatus = "inactive"
	StatusCancelled  SubscriptionStatus = "cancelled"
)

// Identity is the authenticated principal as exposed by the identity
// provider. Read-only to the engine; absence of an Identity is itself a
// decidable state (routes to sign-in).
type Identity struct {
	ID            IdentityID
	Email         string
	EmailVerified bool
}

// SubscriptionRecord is the per-identity billing state fetched from the
// subscription store. A nil record is a valid, meaningful state ("no plan
// selected yet"), distinct from a record with PlanNone.
type SubscriptionRecord struct {
	Plan             Plan
	Status           SubscriptionStatus
	IsActive         bool
	TrialEndsAt      *time.Time
	CurrentPeriodEnd *time.Time
}

// TrialEndingWithin reports whether the subscription is trialing and the
// trial expires inside the given window from now.
func (s *SubscriptionRecord) TrialEndingWithin(window time.Duration, now time.Time) bool {
	if s == nil || s.Status != StatusTrialing || s.TrialEndsAt == nil {
		return false
	}
	return s.TrialEndsAt.After(now) && s.TrialEndsAt.Sub(now) <= window
}

// SetupRecord is the per-identity provisioning state. A nil record means
// setup has not been provisioned yet, which the rule table treats the same
// as FirstTimeSetup=true.
type SetupRecord struct {
	FirstTimeSetup bool
	ShowOnboarding bool
}

// Route is a normalized route path ("/billing/payment"). String alias
// enables type safety while keeping routes trivially comparable.
type Route string

// Params carries optional route parameters for a transition.
type Params map[string]string

// Decision is the output of one rule evaluation pass. Ephemeral; never
// stored.
type Decision struct {
	Target Route  `json:"target"`
	Params Params `json:"params,omitempty"`
	Rule   string `json:"rule"`
}

// SessionFlags is the process-lifetime key/value overlay owned exclusively
// by the engine. Never persisted; reset on process restart. Mutated only
// through FlagPatch merges produced by rule side-effects.
type SessionFlags map[string]any

// FlagPatch is a set of session-flag updates returned by a rule's OnMatch.
// Merged into SessionFlags after the decision is taken, so a patch becomes
// visible to subsequent cycles only.
type FlagPatch map[string]any

// Bool reads a flag as a boolean. Missing or non-boolean values read false.
func (f SessionFlags) Bool(key string) bool {
	v, ok := f[key].(bool)
	return ok && v
}

// Clone returns an independent copy for snapshotting. Values are copied
// shallowly; flags hold scalars by convention.
func (f SessionFlags) Clone() SessionFlags {
	out := make(SessionFlags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge applies a patch in place. Nil patches are no-ops.
func (f SessionFlags) Merge(p FlagPatch) {
	for k, v := range p {
		f[k] = v
	}
}

// Well-known session flags set by rule side-effects.
const (
	// FlagOnboardingShown marks that the onboarding redirect already fired
	// this session; the onboarding band skips once set.
	FlagOnboardingShown = "onboarding_shown"

	// FlagTrialWarningShown marks that the trial-expiry informational
	// redirect already fired this session.
	FlagTrialWarningShown = "trial_warning_shown"
)

// Engine limits and defaults. Single source of truth; config defaults in
// internal/core/config reference these.
const (
	// MaxFetchAttempts bounds remote state retrieval. Five attempts with
	// doubling delays keeps worst-case stall under ~16s of backoff.
	MaxFetchAttempts = 5

	// FetchBaseDelay is the wait before the second fetch attempt; doubles
	// each subsequent attempt.
	FetchBaseDelay = 500 * time.Millisecond

	// NavCooldown is the window after a transition during which further
	// transitions are suppressed. Absorbs closely-spaced duplicate triggers
	// (identity update followed immediately by the route update it causes).
	NavCooldown = 400 * time.Millisecond

	// TrialWarningWindow is how close to trial expiry the informational
	// redirect activates.
	TrialWarningWindow = 72 * time.Hour
)
