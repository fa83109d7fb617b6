// Package nav derives navigation state from raw route paths.
package nav

import (
	"strings"

	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Location classification.
 *
 * Maps a raw route path to a coarse Group plus the boolean projection the
 * rule table conditions read. Classification is a pure function of the
 * path: no stored state, no side effects, idempotent by construction.
 *
 * Group granularity: the executor suppresses transitions when the decided
 * target's group equals the current group, so groups define "functionally
 * the same place". Sub-routes inside a group (/setup/welcome vs
 * /setup/workspace) never force a transition.
 *
 * Malformed input policy: classification never fails. Empty paths, missing
 * leading slashes, repeated separators, and unknown prefixes all classify
 * as GroupUnknown, which only the unconditional fallback rule can act on.
 */

// Group is the coarse location bucket a path belongs to.
type Group string

// Location groups, keyed by the first path segment.
const (
	GroupAuth       Group = "auth"
	GroupOnboarding Group = "onboarding"
	GroupSetup      Group = "setup"
	GroupPayment    Group = "payment"
	GroupApp        Group = "app"
	GroupUnknown    Group = "unknown"
)

// State is the derived navigation projection for one path. Recomputed every
// cycle; never stored.
type State struct {
	Group        Group
	InAuth       bool
	InOnboarding bool
	InSetup      bool
	InPayment    bool
	InApp        bool
	Unclassified bool
}

// groupBySegment maps a leading path segment to its group. Both plan
// selection and billing screens belong to the payment group: a user parked
// anywhere in billing already satisfies a payment-targeted decision.
var groupBySegment = map[string]Group{
	"auth":       GroupAuth,
	"onboarding": GroupOnboarding,
	"setup":      GroupSetup,
	"plans":      GroupPayment,
	"billing":    GroupPayment,
	"projects":   GroupApp,
}

// Classify derives the navigation state for a route path.
// Pure and total: any string input yields a valid State without error.
func Classify(path string) State {
	group := GroupUnknown
	if seg := firstSegment(path); seg != "" {
		if g, ok := groupBySegment[seg]; ok {
			group = g
		}
	}

	return State{
		Group:        group,
		InAuth:       group == GroupAuth,
		InOnboarding: group == GroupOnboarding,
		InSetup:      group == GroupSetup,
		InPayment:    group == GroupPayment,
		InApp:        group == GroupApp,
		Unclassified: group == GroupUnknown,
	}
}

// SameGroup reports whether two routes classify into the same known group.
// Two unclassified routes are never "the same place": the engine must not
// suppress a transition just because both locations are unrecognized.
func SameGroup(a, b types.Route) bool {
	ga := Classify(string(a)).Group
	gb := Classify(string(b)).Group
	return ga == gb && ga != GroupUnknown
}

// firstSegment extracts the first non-empty path segment, tolerating
// missing leading slashes and repeated separators.
func firstSegment(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}
