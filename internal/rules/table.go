// internal/rules/table.go
package rules

import (
	"context"

	"github.com/solatis/waykeeper/internal/nav"
	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Default routing-rule table.
 *
 * Priority bands, highest first, each one non-negotiable business
 * precondition:
 *
 *   1100 signed out
 *   1000 email verification required
 *    950 billing blocked (unpaid)
 *    900 no subscription selected yet
 *    850 newly registered without a finalized plan
 *    800 trial ending soon (informational, once per session)
 *    750 subscription inactive
 *    700 subscription past due
 *    650 subscription cancelled
 *    600 product onboarding, pro variant
 *    590 product onboarding, generic
 *    550 first-time setup wizard
 *      0 fallback to main app
 *
 * Within a band, more specific conditions carry strictly higher priority
 * than general ones (onboarding-pro above onboarding), so matches are never
 * ambiguous.
 *
 * Side-effects: the trial and onboarding bands patch session flags so the
 * redirect fires once per app session; the setup band triggers background
 * provisioning when no setup record exists yet.
 */

// DefaultTable declares the production rule table. The provisioner backs
// the first-time-setup side-effect and may be nil (no provisioning).
func DefaultTable(prov Provisioner) []Rule {
	return []Rule{
		{
			Name:     "signed-out",
			Priority: 1100,
			Condition: func(s Snapshot) bool {
				return !s.Authenticated()
			},
			Target: nav.RouteSignIn,
		},
		{
			Name:     "email-verification-required",
			Priority: 1000,
			Condition: func(s Snapshot) bool {
				return s.Authenticated() && !s.Identity.EmailVerified
			},
			Target: nav.RouteVerifyEmail,
		},
		{
			Name:     "billing-blocked",
			Priority: 950,
			Condition: func(s Snapshot) bool {
				return s.SubscriptionStatus() == types.StatusUnpaid
			},
			Target: nav.RoutePayment,
		},
		{
			Name:     "plan-selection-required",
			Priority: 900,
			Condition: func(s Snapshot) bool {
				return s.Subscription == nil
			},
			Target: nav.RoutePlans,
		},
		{
			Name:     "plan-not-finalized",
			Priority: 850,
			Condition: func(s Snapshot) bool {
				return s.SubscriptionPlan() == types.PlanNone ||
					s.SubscriptionStatus() == types.StatusIncomplete
			},
			Target: nav.RoutePlans,
		},
		{
			Name:     "trial-ending-soon",
			Priority: 800,
			Condition: func(s Snapshot) bool {
				return s.Subscription.TrialEndingWithin(types.TrialWarningWindow, s.Now) &&
					!s.Flags.Bool(types.FlagTrialWarningShown)
			},
			Target: nav.RouteTrialEnding,
			OnMatch: func(ctx context.Context, s Snapshot) (types.FlagPatch, error) {
				return types.FlagPatch{types.FlagTrialWarningShown: true}, nil
			},
		},
		{
			Name:     "subscription-inactive",
			Priority: 750,
			Condition: func(s Snapshot) bool {
				return s.SubscriptionStatus() == types.StatusInactive
			},
			Target: nav.RoutePayment,
		},
		{
			Name:     "subscription-past-due",
			Priority: 700,
			Condition: func(s Snapshot) bool {
				return s.SubscriptionStatus() == types.StatusPastDue
			},
			Target: nav.RoutePayment,
		},
		{
			Name:     "subscription-cancelled",
			Priority: 650,
			Condition: func(s Snapshot) bool {
				return s.SubscriptionStatus() == types.StatusCancelled
			},
			Target: nav.RouteReactivate,
		},
		{
			Name:     "onboarding-pro",
			Priority: 600,
			Condition: func(s Snapshot) bool {
				return s.OnboardingPending() && s.SubscriptionPlan() == types.PlanPro
			},
			Target: nav.RouteOnboardingPro,
			OnMatch: func(ctx context.Context, s Snapshot) (types.FlagPatch, error) {
				return types.FlagPatch{types.FlagOnboardingShown: true}, nil
			},
		},
		{
			Name:     "onboarding",
			Priority: 590,
			Condition: func(s Snapshot) bool {
				return s.OnboardingPending()
			},
			Target: nav.RouteOnboardingStarter,
			OnMatch: func(ctx context.Context, s Snapshot) (types.FlagPatch, error) {
				return types.FlagPatch{types.FlagOnboardingShown: true}, nil
			},
		},
		{
			Name:     "first-time-setup",
			Priority: 550,
			Condition: func(s Snapshot) bool {
				return s.NeedsSetup()
			},
			Target: nav.RouteSetupWelcome,
			OnMatch: func(ctx context.Context, s Snapshot) (types.FlagPatch, error) {
				// Provision defaults only when setup was never created;
				// failure is reported by the caller, the redirect stands.
				if s.Setup != nil || prov == nil || s.Identity == nil {
					return nil, nil
				}
				return nil, prov.ProvisionDefaults(ctx, s.Identity.ID)
			},
		},
		{
			Name:     "fallback-main-app",
			Priority: 0,
			Target:   nav.RouteProjects,
		},
	}
}
