// internal/engine/executor.go
package engine

import (
	"github.com/solatis/waykeeper/internal/nav"
	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Navigation executor.
 *
 * Given a decision and the current location, issues at most one transition
 * per decision cycle:
 *
 *   - No-op suppression: when the current path classifies into the same
 *     group as the decided target, the user is already in the right place.
 *     Sub-routes within the target's group satisfy the decision, so being
 *     on any setup screen satisfies a setup decision. This is what stops
 *     redirect loops and flicker.
 *   - One-shot: the navigation guard admits one transition per cooldown
 *     window, absorbing closely-spaced duplicate triggers.
 *   - Replace, not push: transitions replace history so back navigation
 *     cannot re-enter a state the engine just invalidated.
 *
 * Router failures are reported, never propagated; the decision loop must
 * not crash on a navigation error.
 */

// execute applies the decision against the current path.
// Returns true when a transition was issued.
func (e *Engine) execute(decision types.Decision, currentPath string, cycle types.CycleID) bool {
	if nav.SameGroup(decision.Target, types.Route(currentPath)) {
		e.logger.Debug("transition suppressed: already in target group",
			"cycle", cycle,
			"target", decision.Target,
			"path", currentPath,
			"rule", decision.Rule,
		)
		return false
	}

	if !e.navG.tryNavigate() {
		e.logger.Debug("transition suppressed: cooldown active",
			"cycle", cycle,
			"target", decision.Target,
			"rule", decision.Rule,
		)
		return false
	}

	if err := e.router.Replace(decision.Target, decision.Params); err != nil {
		e.reporter.Report(err, map[string]any{
			"cycle":  cycle,
			"rule":   decision.Rule,
			"target": decision.Target,
		})
		return false
	}

	e.logger.Info("navigated",
		"cycle", cycle,
		"target", decision.Target,
		"rule", decision.Rule,
	)
	return true
}
