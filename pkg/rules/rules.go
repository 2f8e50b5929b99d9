// Package rules builds, validates, orders, and serializes formatting rules.
//
// Everything here is editor-side bookkeeping: it prepares rule lists for
// the compiler but never touches compilation or rendering. Validation is
// advisory — an invalid rule is still allowed through to compilation,
// where a broken expression degrades to a predicate that never matches.
package rules

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/parser"
)

// CopySuffix is appended to a duplicated rule's name.
const CopySuffix = " (Copy)"

// newID mints a rule identity.
func newID() string {
	return uuid.New().String()
}

// New returns a fresh rule: unique id, enabled, priority placed after the
// current maximum in existing, and a minimal default style so the rule has
// a visible effect as soon as its expression matches.
func New(name string, existing []core.Rule) core.Rule {
	if name == "" {
		name = "New Rule"
	}
	return core.Rule{
		ID:       newID(),
		Name:     name,
		Enabled:  true,
		Priority: NextPriority(existing),
		Formatting: core.Formatting{
			Style: core.StyleDecl{"backgroundColor": "#fff9c4"},
		},
		Scope: core.Scope{Target: core.TargetCell},
	}
}

// Duplicate copies a rule under a fresh id, suffixes its name, and places
// it after the current maximum priority. Everything else carries over.
func Duplicate(rule core.Rule, existing []core.Rule) core.Rule {
	out := rule.Clone()
	out.ID = newID()
	out.Name = rule.Name + CopySuffix
	out.Priority = NextPriority(existing)
	return out
}

// NextPriority returns one past the highest priority in the list, so new
// and duplicated rules are appended to the application order. An empty
// list starts at 1.
func NextPriority(rules []core.Rule) int {
	max := 0
	for _, r := range rules {
		if r.Priority > max {
			max = r.Priority
		}
	}
	return max + 1
}

// Validate reports structural problems with a rule. The result is advisory:
// editors use it to gate "apply", but compilation accepts invalid rules
// and neutralizes them instead of failing.
func Validate(rule core.Rule) core.ValidationResult {
	var errs []string

	if rule.Name == "" {
		errs = append(errs, "rule name must not be empty")
	}
	if rule.Expression == "" {
		errs = append(errs, "rule expression must not be empty")
	} else if _, err := parser.Parse(rule.Expression); err != nil {
		errs = append(errs, fmt.Sprintf("rule expression does not parse: %v", err))
	}
	if rule.Priority < 1 {
		errs = append(errs, fmt.Sprintf("rule priority must be at least 1, got %d", rule.Priority))
	}
	if !rule.Formatting.HasEffect() {
		errs = append(errs, "rule has no formatting effect: set a style, class, or icon")
	}

	return core.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateAll validates each rule in order, returning one result per rule.
func ValidateAll(rules []core.Rule) []core.ValidationResult {
	results := make([]core.ValidationResult, len(rules))
	for i, r := range rules {
		results[i] = Validate(r)
	}
	return results
}

// SortByPriority returns the rules stably ordered by (priority, original
// index). The input is not modified.
func SortByPriority(rules []core.Rule) []core.Rule {
	out := make([]core.Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Reprioritize rewrites priorities to 1..N in the list's current order,
// collapsing gaps after a drag-reorder. The input is not modified.
func Reprioritize(rules []core.Rule) []core.Rule {
	out := make([]core.Rule, len(rules))
	copy(out, rules)
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}
