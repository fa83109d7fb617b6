package nav

import "github.com/solatis/waykeeper/internal/types"

// Canonical routes the rule table can target. Groups are derived from the
// first path segment by Classify; adding a route to an existing group needs
// no classifier change.
const (
	RouteSignIn      types.Route = "/auth/sign-in"
	RouteVerifyEmail types.Route = "/auth/verify-email"

	RoutePlans       types.Route = "/plans"
	RoutePayment     types.Route = "/billing/payment"
	RouteTrialEnding types.Route = "/billing/trial-ending"
	RouteReactivate  types.Route = "/billing/reactivate"

	RouteOnboardingStarter types.Route = "/onboarding/starter"
	RouteOnboardingPro     types.Route = "/onboarding/pro"

	RouteSetupWelcome types.Route = "/setup/welcome"

	RouteProjects types.Route = "/projects"
)
