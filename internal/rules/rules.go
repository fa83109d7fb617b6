// internal/rules/rules.go
package rules

import (
	"context"
	"time"

	"github.com/solatis/waykeeper/internal/nav"
	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Domain types for routing-rule evaluation.
 *
 * A Rule is a named, prioritized (condition -> target) mapping with an
 * optional side-effect. Rules are declared once at startup and immutable
 * thereafter; the evaluator orders them by descending priority with
 * declaration order breaking ties.
 *
 * Conditions are closures over a Snapshot rather than an expression
 * language: the rule table is data, the evaluator stays branch-free, and
 * priority changes, additions, and tests remain localized.
 *
 * Side-effects (OnMatch) return a session-flag patch and may perform
 * background work (first-run provisioning). A failed side-effect never
 * fails the decision it belongs to.
 */

// Snapshot is the read-only state a condition evaluates against. Built
// fresh per decision cycle; Flags is a copy, so conditions cannot observe
// mutations made later in the same cycle.
type Snapshot struct {
	Identity      *types.Identity
	Subscription  *types.SubscriptionRecord
	Setup         *types.SetupRecord
	Flags         types.SessionFlags
	Path          string
	Nav           nav.State
	ActiveContext map[string]string
	Now           time.Time
}

// Authenticated reports whether an identity is present.
func (s Snapshot) Authenticated() bool {
	return s.Identity != nil
}

// SubscriptionStatus returns the subscription lifecycle state, or empty
// when no record exists.
func (s Snapshot) SubscriptionStatus() types.SubscriptionStatus {
	if s.Subscription == nil {
		return ""
	}
	return s.Subscription.Status
}

// SubscriptionPlan returns the subscription tier, or PlanNone when no
// record exists.
func (s Snapshot) SubscriptionPlan() types.Plan {
	if s.Subscription == nil {
		return types.PlanNone
	}
	return s.Subscription.Plan
}

// NeedsSetup reports whether the first-time setup wizard is still pending.
// An absent setup record means setup was never provisioned.
func (s Snapshot) NeedsSetup() bool {
	return s.Setup == nil || s.Setup.FirstTimeSetup
}

// OnboardingPending reports whether the product onboarding flow should be
// offered, honoring the once-per-session flag.
func (s Snapshot) OnboardingPending() bool {
	return s.Setup != nil && s.Setup.ShowOnboarding && !s.Flags.Bool(types.FlagOnboardingShown)
}

// Condition is a predicate over the state snapshot. A nil Condition is
// unconditional and marks the totality fallback.
type Condition func(s Snapshot) bool

// SideEffect runs when its rule is the first match. The returned patch is
// merged into session flags after the decision, visible to subsequent
// cycles only. Errors are non-fatal to the decision: reported, not thrown.
type SideEffect func(ctx context.Context, s Snapshot) (types.FlagPatch, error)

// Rule is one declarative routing rule. Immutable after declaration.
type Rule struct {
	Name      string
	Priority  int
	Condition Condition
	Target    types.Route
	Params    types.Params
	OnMatch   SideEffect
}

// Provisioner performs fire-and-forget first-run provisioning from rule
// side-effects (populating default records for a newly-activated account).
// Implemented by *db.Store (production) and test fakes.
type Provisioner interface {
	ProvisionDefaults(ctx context.Context, id types.IdentityID) error
}
