package grid

import (
	"sort"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/eval"
	"github.com/gridstack-labs/gridstyle/pkg/style"
)

// CellStyle is the fully resolved presentation of one cell: the raw value,
// the display text after any value transform, the merged style
// declaration, the class names in application order, and the winning icon.
type CellStyle struct {
	Value   any
	Display string
	Style   core.StyleDecl
	Classes []string
	Icon    *core.IconSpec
}

// Styled reports whether any rule contributed to the cell.
func (c CellStyle) Styled() bool {
	return len(c.Classes) > 0
}

// RowStyles resolves every cell of one row in a single pass. Row-scoped
// predicates are evaluated once for the row, then merged with each
// column's cell-scoped matches in application order. Out-of-range rows
// yield nil.
func (g *Grid) RowStyles(rowIdx int) []CellStyle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if rowIdx < 0 || rowIdx >= len(g.rows) {
		return nil
	}
	row := g.rows[rowIdx]

	rowMatches := g.matchRowLocked(row, rowIdx, "")
	styles := g.styleIndexLocked()

	out := make([]CellStyle, len(g.columns))
	for i, col := range g.columns {
		out[i] = g.resolveCellLocked(row, rowIdx, col.ID, rowMatches, styles)
	}
	return out
}

// CellAt resolves a single cell. Prefer RowStyles when painting whole
// rows; CellAt re-evaluates the row-scoped predicates for each call.
func (g *Grid) CellAt(rowIdx int, columnID string) CellStyle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if rowIdx < 0 || rowIdx >= len(g.rows) {
		return CellStyle{}
	}
	row := g.rows[rowIdx]
	rowMatches := g.matchRowLocked(row, rowIdx, columnID)
	return g.resolveCellLocked(row, rowIdx, columnID, rowMatches, g.styleIndexLocked())
}

// Paint resolves the whole grid, one cell slice per row, in row order.
func (g *Grid) Paint() [][]CellStyle {
	n := g.RowCount()
	out := make([][]CellStyle, n)
	for i := range out {
		out[i] = g.RowStyles(i)
	}
	return out
}

// matchRowLocked evaluates the row-scoped predicates against the row.
// A non-empty onlyColumn skips entries that cannot touch that column
// before paying for evaluation.
func (g *Grid) matchRowLocked(row map[string]any, rowIdx int, onlyColumn string) []core.RowPredicateEntry {
	if g.registry == nil {
		return nil
	}
	rc := core.RowContext{
		Row:        row,
		RowIndex:   rowIdx,
		Aggregates: g.stats,
	}
	var matches []core.RowPredicateEntry
	for _, entry := range g.registry.RowPredicates(g.instanceID) {
		if onlyColumn != "" && !entry.AppliesToColumn(onlyColumn) {
			continue
		}
		if entry.Predicate(rc) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// resolveCellLocked merges the matching rules for one cell. Cell- and
// row-scoped matches are interleaved by compiled sequence so priority
// order holds across scopes; later matches overwrite conflicting style
// properties, and the last icon and transform win outright.
func (g *Grid) resolveCellLocked(row map[string]any, rowIdx int, columnID string, rowMatches []core.RowPredicateEntry, styles map[string]core.StyleDecl) CellStyle {
	value := row[columnID]
	cell := CellStyle{Value: value}

	var matched []core.PredicateEntry
	if g.registry != nil {
		rc := core.RowContext{
			Value:      value,
			Row:        row,
			RowIndex:   rowIdx,
			Column:     columnID,
			Aggregates: g.stats,
		}
		for _, entry := range g.registry.CellPredicates(g.instanceID, columnID) {
			if entry.Predicate(rc) {
				matched = append(matched, entry)
			}
		}
	}
	for _, entry := range rowMatches {
		if entry.AppliesToColumn(columnID) {
			matched = append(matched, entry.PredicateEntry)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Seq < matched[j].Seq })

	var vt *core.ValueTransform
	for _, entry := range matched {
		cell.Classes = append(cell.Classes, entry.ClassName)
		cell.Classes = append(cell.Classes, entry.ExtraClasses...)
		if decl, ok := styles[entry.ClassName]; ok {
			cell.Style = style.Merge(cell.Style, decl)
		}
		if entry.Icon != nil {
			icon := *entry.Icon
			cell.Icon = &icon
		}
		if entry.Transform != nil {
			vt = entry.Transform
		}
	}

	cell.Display = eval.FormatValue(value)
	if vt != nil {
		cell.Display = g.transforms.Apply(vt, cell.Display, value, row)
	}
	return cell
}

// styleIndexLocked maps generated class names to their declarations for
// the grid's instance.
func (g *Grid) styleIndexLocked() map[string]core.StyleDecl {
	if g.registry == nil {
		return nil
	}
	entries := g.registry.Styles(g.instanceID)
	idx := make(map[string]core.StyleDecl, len(entries))
	for _, e := range entries {
		idx[e.ClassName] = e.Style
	}
	return idx
}
