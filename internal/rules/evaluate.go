// internal/rules/evaluate.go
package rules

import (
	"context"
	"fmt"
	"sort"

	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Rule evaluation orchestration.
 *
 * The evaluator holds an immutable rule table ordered by descending
 * priority (stable sort, so equal priorities keep declaration order) and
 * returns the first satisfied rule's decision.
 *
 * Totality: construction rejects tables without an unconditional rule, so
 * Evaluate never needs a "no match" branch. Given that invariant, the loop
 * always terminates with a decision.
 *
 * Side-effect handling: the matched rule's OnMatch runs before the decision
 * is returned. Its flag patch is handed back to the caller (the engine owns
 * session flags and merges it after the cycle), and its error is returned
 * alongside a still-valid decision - side-effect failure is diagnostic,
 * never decision-fatal.
 */

// Evaluator evaluates an immutable, priority-ordered rule table.
type Evaluator struct {
	rules []Rule // descending priority; declaration order within ties
}

// NewEvaluator validates and orders the rule table.
// Rules are copied to prevent external mutation from breaking the ordering
// invariant. Returns an error for empty tables, duplicate names, or tables
// without an unconditional fallback (totality requirement).
func NewEvaluator(table []Rule) (*Evaluator, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}

	seen := make(map[string]bool, len(table))
	hasFallback := false
	for _, r := range table {
		if r.Name == "" {
			return nil, fmt.Errorf("rule with empty name")
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule name: %s", r.Name)
		}
		seen[r.Name] = true
		if r.Target == "" {
			return nil, fmt.Errorf("rule %s: empty target route", r.Name)
		}
		if r.Condition == nil {
			hasFallback = true
		}
	}
	if !hasFallback {
		return nil, fmt.Errorf("rule table has no unconditional fallback rule")
	}

	rules := make([]Rule, len(table))
	copy(rules, table)

	// Stable sort: equal priorities keep declaration order (significant and tested).
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	return &Evaluator{rules: rules}, nil
}

// Evaluate returns the first matching rule's decision.
//
// The returned patch carries the matched rule's session-flag updates; the
// caller merges it after the decision so the effect is visible to
// subsequent cycles, not the current one. The returned error is the
// side-effect's failure, if any - the decision is valid regardless.
func (e *Evaluator) Evaluate(ctx context.Context, snap Snapshot) (types.Decision, types.FlagPatch, error) {
	for _, r := range e.rules {
		if r.Condition != nil && !r.Condition(snap) {
			continue
		}

		decision := types.Decision{
			Target: r.Target,
			Params: r.Params,
			Rule:   r.Name,
		}

		if r.OnMatch == nil {
			return decision, nil, nil
		}

		patch, err := r.OnMatch(ctx, snap)
		if err != nil {
			err = fmt.Errorf("rule %s side-effect: %w", r.Name, err)
		}
		return decision, patch, err
	}

	// Unreachable: NewEvaluator guarantees an unconditional rule exists.
	last := e.rules[len(e.rules)-1]
	return types.Decision{Target: last.Target, Params: last.Params, Rule: last.Name}, nil, nil
}

// Rules returns the table in evaluation order.
// Used for introspection and the CLI rules listing.
func (e *Evaluator) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}
