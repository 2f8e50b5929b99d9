// Package compiler turns an ordered rule set into the artifacts the
// rendering boundary consumes: style entries (generated class name plus
// normalized declaration) and predicate entries (parsed expression bound to
// its class), partitioned by scope and column.
//
// Compilation is total: a rule whose expression does not parse compiles to
// an always-false predicate and is reported once in the compilation's
// Errors — a broken rule is visually inert, never a reason to fail the
// grid. Expressions are parsed here exactly once; per-cell evaluation
// re-uses the parsed form.
package compiler

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/eval"
	"github.com/gridstack-labs/gridstyle/pkg/parser"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
	"github.com/gridstack-labs/gridstyle/pkg/style"
)

// RuleError is a per-rule compile-time failure, surfaced once per
// compilation rather than per evaluation.
type RuleError struct {
	RuleID string
	Name   string
	Err    error
}

func (e RuleError) Error() string {
	return fmt.Sprintf("rule %q (%s): %v", e.Name, e.RuleID, e.Err)
}

func (e RuleError) Unwrap() error {
	return e.Err
}

// Compilation is the compiled form of one rule set for one grid instance.
// It is immutable once built; the registry swaps whole Compilations on
// update.
type Compilation struct {
	instanceID string

	styles       []core.StyleEntry
	cellWildcard []core.PredicateEntry
	cellByColumn map[string][]core.PredicateEntry
	row          []core.RowPredicateEntry

	// Errors holds the rules that failed to parse, in application order.
	Errors []RuleError
}

// Compile builds the artifacts for one grid instance from the given rules.
// Disabled rules are skipped entirely. Rules are applied in ascending
// (priority, input order); later entries win style conflicts. The logger
// receives one warning per rule the first time its evaluation fails; nil
// means discard.
func Compile(instanceID string, ruleList []core.Rule, logger *slog.Logger) *Compilation {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Compilation{
		instanceID:   instanceID,
		cellByColumn: make(map[string][]core.PredicateEntry),
	}

	enabled := make([]core.Rule, 0, len(ruleList))
	for _, r := range ruleList {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	ordered := rules.SortByPriority(enabled)

	for seq, rule := range ordered {
		className := style.ClassName(instanceID, rule.ID)

		if len(rule.Formatting.Style) > 0 || len(rule.Formatting.CellClass) > 0 {
			c.styles = append(c.styles, core.StyleEntry{
				RuleID:    rule.ID,
				ClassName: className,
				Style:     style.Normalize(rule.Formatting.Style),
			})
		}

		entry := core.PredicateEntry{
			RuleID:    rule.ID,
			ClassName: className,
			Priority:  rule.Priority,
			Seq:       seq,
			Predicate: c.compilePredicate(rule, logger),
		}
		if len(rule.Formatting.CellClass) > 0 {
			entry.ExtraClasses = append([]string(nil), rule.Formatting.CellClass...)
		}
		if rule.Formatting.Icon != nil {
			icon := *rule.Formatting.Icon
			entry.Icon = &icon
		}
		if rule.Formatting.ValueTransform != nil {
			vt := *rule.Formatting.ValueTransform
			entry.Transform = &vt
		}

		if rule.Scope.Target == core.TargetRow {
			c.row = append(c.row, core.RowPredicateEntry{
				PredicateEntry: entry,
				WholeRow:       rule.Scope.HighlightEntireRow,
				Columns:        append([]string(nil), rule.Scope.ApplyToColumns...),
			})
			continue
		}

		if len(rule.Scope.ApplyToColumns) == 0 {
			c.cellWildcard = append(c.cellWildcard, entry)
			continue
		}
		for _, col := range rule.Scope.ApplyToColumns {
			c.cellByColumn[col] = append(c.cellByColumn[col], entry)
		}
	}

	return c
}

// compilePredicate parses the rule's expression once. A parse failure is
// recorded on the compilation and yields a predicate that never matches.
// Evaluation failures at paint time read as "no match" and are logged the
// first time only, not per row.
func (c *Compilation) compilePredicate(rule core.Rule, logger *slog.Logger) core.Predicate {
	expr, err := parser.Parse(rule.Expression)
	if err != nil {
		c.Errors = append(c.Errors, RuleError{RuleID: rule.ID, Name: rule.Name, Err: err})
		return neverMatch
	}

	var logOnce sync.Once
	return func(rc core.RowContext) bool {
		matched, err := eval.Predicate(expr, rc)
		if err != nil {
			logOnce.Do(func() {
				logger.Warn("rule evaluation failed, treating as no match",
					"rule_id", rule.ID,
					"rule", rule.Name,
					"error", err)
			})
			return false
		}
		return matched
	}
}

func neverMatch(core.RowContext) bool {
	return false
}

// InstanceID returns the grid-instance namespace this compilation was
// built for.
func (c *Compilation) InstanceID() string {
	return c.instanceID
}

// Styles returns the compiled style entries in application order.
func (c *Compilation) Styles() []core.StyleEntry {
	out := make([]core.StyleEntry, len(c.styles))
	copy(out, c.styles)
	return out
}

// Stylesheet renders the compiled styles as a CSS sheet.
func (c *Compilation) Stylesheet() *style.Sheet {
	return style.FromEntries(c.styles)
}

// CellPredicates returns the cell-scoped predicate entries that apply to
// the given column — rules restricted to it plus rules that apply to all
// columns — in application order.
func (c *Compilation) CellPredicates(column string) []core.PredicateEntry {
	exact := c.cellByColumn[column]
	out := make([]core.PredicateEntry, 0, len(c.cellWildcard)+len(exact))

	// Both inputs are Seq-ascending; merge preserves the total order.
	i, j := 0, 0
	for i < len(c.cellWildcard) && j < len(exact) {
		if c.cellWildcard[i].Seq < exact[j].Seq {
			out = append(out, c.cellWildcard[i])
			i++
		} else {
			out = append(out, exact[j])
			j++
		}
	}
	out = append(out, c.cellWildcard[i:]...)
	out = append(out, exact[j:]...)
	return out
}

// RowPredicates returns the row-scoped predicate entries in application
// order.
func (c *Compilation) RowPredicates() []core.RowPredicateEntry {
	out := make([]core.RowPredicateEntry, len(c.row))
	copy(out, c.row)
	return out
}
