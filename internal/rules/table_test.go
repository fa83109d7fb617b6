package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/waykeeper/internal/nav"
	"github.com/solatis/waykeeper/internal/types"
)

type fakeProvisioner struct {
	calls []types.IdentityID
	err   error
}

func (p *fakeProvisioner) ProvisionDefaults(ctx context.Context, id types.IdentityID) error {
	p.calls = append(p.calls, id)
	return p.err
}

func verifiedIdentity() *types.Identity {
	return &types.Identity{ID: types.NewIdentityID(), Email: "user@example.com", EmailVerified: true}
}

func mustEvaluator(t *testing.T, prov Provisioner) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator(DefaultTable(prov))
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	return ev
}

func TestDefaultTable_Scenarios(t *testing.T) {
	now := time.Now()
	soon := now.Add(24 * time.Hour)
	far := now.Add(240 * time.Hour)

	tests := []struct {
		name     string
		snap     Snapshot
		wantRule string
	}{
		{
			name:     "signed out routes to sign-in",
			snap:     Snapshot{Flags: types.SessionFlags{}, Now: now},
			wantRule: "signed-out",
		},
		{
			name: "unverified email outranks active subscription",
			snap: Snapshot{
				Identity:     &types.Identity{ID: types.NewIdentityID(), Email: "u@e.c", EmailVerified: false},
				Subscription: &types.SubscriptionRecord{Plan: types.PlanPro, Status: types.StatusActive, IsActive: true},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "email-verification-required",
		},
		{
			name: "no subscription record routes to plans",
			snap: Snapshot{
				Identity: verifiedIdentity(),
				Setup:    &types.SetupRecord{},
				Flags:    types.SessionFlags{},
				Now:      now,
			},
			wantRule: "plan-selection-required",
		},
		{
			name: "unpaid blocks before plan checks",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanNone, Status: types.StatusUnpaid},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "billing-blocked",
		},
		{
			name: "record without finalized plan routes to plans",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanNone, Status: types.StatusActive},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "plan-not-finalized",
		},
		{
			name: "trial ending soon fires once",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanPro, Status: types.StatusTrialing, IsActive: true, TrialEndsAt: &soon},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "trial-ending-soon",
		},
		{
			name: "trial warning suppressed by session flag",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanPro, Status: types.StatusTrialing, IsActive: true, TrialEndsAt: &soon},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{types.FlagTrialWarningShown: true},
				Now:          now,
			},
			wantRule: "fallback-main-app",
		},
		{
			name: "trial far from expiry does not warn",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanPro, Status: types.StatusTrialing, IsActive: true, TrialEndsAt: &far},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "fallback-main-app",
		},
		{
			name: "inactive subscription outranks onboarding",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusInactive},
				Setup:        &types.SetupRecord{ShowOnboarding: true},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "subscription-inactive",
		},
		{
			name: "past due routes to payment",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusPastDue},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "subscription-past-due",
		},
		{
			name: "cancelled routes to reactivate",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusCancelled},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "subscription-cancelled",
		},
		{
			name: "pro plan gets pro onboarding",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanPro, Status: types.StatusActive, IsActive: true},
				Setup:        &types.SetupRecord{ShowOnboarding: true},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "onboarding-pro",
		},
		{
			name: "starter plan gets generic onboarding",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusActive, IsActive: true},
				Setup:        &types.SetupRecord{ShowOnboarding: true},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "onboarding",
		},
		{
			name: "onboarding suppressed by session flag",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusActive, IsActive: true},
				Setup:        &types.SetupRecord{ShowOnboarding: true},
				Flags:        types.SessionFlags{types.FlagOnboardingShown: true},
				Now:          now,
			},
			wantRule: "fallback-main-app",
		},
		{
			name: "pending first-time setup routes to wizard",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusActive, IsActive: true},
				Setup:        &types.SetupRecord{FirstTimeSetup: true},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "first-time-setup",
		},
		{
			name: "healthy account falls through to main app",
			snap: Snapshot{
				Identity:     verifiedIdentity(),
				Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusActive, IsActive: true},
				Setup:        &types.SetupRecord{},
				Flags:        types.SessionFlags{},
				Now:          now,
			},
			wantRule: "fallback-main-app",
		},
	}

	ev := mustEvaluator(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, _, err := ev.Evaluate(context.Background(), tt.snap)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if decision.Rule != tt.wantRule {
				t.Errorf("Evaluate() rule = %s (target %s), want %s", decision.Rule, decision.Target, tt.wantRule)
			}
		})
	}
}

func TestDefaultTable_SetupProvisionsWhenRecordMissing(t *testing.T) {
	prov := &fakeProvisioner{}
	ev := mustEvaluator(t, prov)

	id := verifiedIdentity()
	snap := Snapshot{
		Identity:     id,
		Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusActive, IsActive: true},
		Setup:        nil,
		Flags:        types.SessionFlags{},
		Now:          time.Now(),
	}

	decision, _, err := ev.Evaluate(context.Background(), snap)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if decision.Target != nav.RouteSetupWelcome {
		t.Errorf("Evaluate() target = %s, want %s", decision.Target, nav.RouteSetupWelcome)
	}
	if len(prov.calls) != 1 || prov.calls[0] != id.ID {
		t.Errorf("ProvisionDefaults calls = %v, want one call with %s", prov.calls, id.ID)
	}
}

func TestDefaultTable_SetupDoesNotProvisionWhenRecordExists(t *testing.T) {
	prov := &fakeProvisioner{}
	ev := mustEvaluator(t, prov)

	snap := Snapshot{
		Identity:     verifiedIdentity(),
		Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusActive, IsActive: true},
		Setup:        &types.SetupRecord{FirstTimeSetup: true},
		Flags:        types.SessionFlags{},
		Now:          time.Now(),
	}

	if _, _, err := ev.Evaluate(context.Background(), snap); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(prov.calls) != 0 {
		t.Errorf("ProvisionDefaults calls = %d, want 0 when a setup record already exists", len(prov.calls))
	}
}

func TestDefaultTable_ProvisionFailureKeepsRedirect(t *testing.T) {
	prov := &fakeProvisioner{err: errors.New("insert failed")}
	ev := mustEvaluator(t, prov)

	snap := Snapshot{
		Identity:     verifiedIdentity(),
		Subscription: &types.SubscriptionRecord{Plan: types.PlanStarter, Status: types.StatusActive, IsActive: true},
		Flags:        types.SessionFlags{},
		Now:          time.Now(),
	}

	decision, _, err := ev.Evaluate(context.Background(), snap)
	if err == nil {
		t.Fatalf("Evaluate() error = nil, want provisioning failure surfaced")
	}
	if decision.Target != nav.RouteSetupWelcome {
		t.Errorf("Evaluate() target = %s, want %s despite side-effect failure", decision.Target, nav.RouteSetupWelcome)
	}
}

// Property-based test: the table is total over arbitrary account states
func TestDefaultTable_PropertyTotality(t *testing.T) {
	ev := mustEvaluator(t, nil)

	statuses := []types.SubscriptionStatus{
		types.StatusIncomplete, types.StatusTrialing, types.StatusActive,
		types.StatusPastDue, types.StatusUnpaid, types.StatusInactive,
		types.StatusCancelled,
	}
	plans := []types.Plan{types.PlanNone, types.PlanStarter, types.PlanPro}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("every state resolves to a non-empty target", prop.ForAll(
		func(hasIdentity, verified, hasSub, hasSetup, firstTime, showOnboarding, trialShown, onboardShown bool, statusIdx, planIdx int) bool {
			snap := Snapshot{
				Flags: types.SessionFlags{
					types.FlagTrialWarningShown: trialShown,
					types.FlagOnboardingShown:   onboardShown,
				},
				Now: time.Now(),
			}
			if hasIdentity {
				snap.Identity = &types.Identity{ID: types.NewIdentityID(), Email: "p@q.r", EmailVerified: verified}
			}
			if hasSub {
				snap.Subscription = &types.SubscriptionRecord{
					Plan:   plans[planIdx%len(plans)],
					Status: statuses[statusIdx%len(statuses)],
				}
			}
			if hasSetup {
				snap.Setup = &types.SetupRecord{FirstTimeSetup: firstTime, ShowOnboarding: showOnboarding}
			}

			decision, _, err := ev.Evaluate(context.Background(), snap)
			return err == nil && decision.Target != "" && decision.Rule != ""
		},
		gen.Bool(), gen.Bool(), gen.Bool(), gen.Bool(), gen.Bool(),
		gen.Bool(), gen.Bool(), gen.Bool(),
		gen.IntRange(0, 6), gen.IntRange(0, 2),
	))

	properties.Property("signed-out always wins regardless of remote state", prop.ForAll(
		func(hasSub bool, statusIdx int) bool {
			snap := Snapshot{Flags: types.SessionFlags{}, Now: time.Now()}
			if hasSub {
				snap.Subscription = &types.SubscriptionRecord{
					Plan:   types.PlanPro,
					Status: statuses[statusIdx%len(statuses)],
				}
			}
			decision, _, err := ev.Evaluate(context.Background(), snap)
			return err == nil && decision.Target == nav.RouteSignIn
		},
		gen.Bool(), gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}
