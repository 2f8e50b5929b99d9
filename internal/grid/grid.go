// Package grid is the rendering boundary bundled with the engine: it holds
// a tabular data feed, answers the column-statistics queries rule
// expressions ask for, and resolves the final presentation of every cell
// from the compiled rule set. The CLI preview, the TUI, and the HTTP
// preview endpoint all render through it.
package grid

import (
	"log/slog"
	"sync"

	"github.com/gridstack-labs/gridstyle/pkg/compiler"
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/runtime"
	"github.com/gridstack-labs/gridstyle/pkg/transform"
)

// Column describes one displayed column. Calc marks columns materialized
// from a calculated-column definition rather than the feed.
type Column struct {
	ID    string
	Title string
	Calc  bool
}

// Config carries the grid's dependencies. Registry may be nil for a bare
// data view; Transforms and Logger default when nil.
type Config struct {
	InstanceID string
	Registry   *runtime.Registry
	Transforms *transform.Engine
	Logger     *slog.Logger
}

// Grid binds one data feed to one registry instance. Data swaps are
// whole-sale: loading a feed or changing the calculated columns rebuilds
// the column statistics, so aggregate results never mix refreshes.
type Grid struct {
	instanceID string
	registry   *runtime.Registry
	transforms *transform.Engine
	logger     *slog.Logger

	mu          sync.RWMutex
	baseColumns []Column
	columns     []Column // base + calculated, rebuilt on refresh
	rows        []map[string]any
	calc        []compiler.CalcEntry
	stats       *columnStats
}

// New creates a grid for the given instance. An empty InstanceID defaults
// to "grid"; a nil Logger means discard.
func New(cfg Config) *Grid {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = "grid"
	}
	transforms := cfg.Transforms
	if transforms == nil {
		transforms = transform.New(logger)
	}
	return &Grid{
		instanceID: instanceID,
		registry:   cfg.Registry,
		transforms: transforms,
		logger:     logger,
		stats:      newColumnStats(nil),
	}
}

// InstanceID returns the registry instance this grid paints under.
func (g *Grid) InstanceID() string {
	return g.instanceID
}

// SetData replaces the grid's columns and rows. The grid takes ownership
// of the row maps; calculated columns are re-evaluated against the new
// rows and the statistics cache is rebuilt.
func (g *Grid) SetData(columns []Column, rows []map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.baseColumns = append([]Column(nil), columns...)
	g.rows = rows
	g.refreshLocked()
}

// SetCalcColumns replaces the calculated-column definitions and evaluates
// them against the current rows. Definitions that fail to parse are
// reported and yield null cells; the rest still materialize.
func (g *Grid) SetCalcColumns(cols []core.CalcColumn) []compiler.RuleError {
	entries, errs := compiler.CompileCalc(cols, g.logger)

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, old := range g.calc {
		kept := false
		for _, e := range entries {
			if e.ID == old.ID {
				kept = true
				break
			}
		}
		if !kept {
			for _, row := range g.rows {
				delete(row, old.ID)
			}
		}
	}
	g.calc = entries
	g.refreshLocked()
	return errs
}

// refreshLocked materializes calculated columns into the row maps and
// rebuilds the statistics cache. Calculated columns are evaluated in
// definition order against a statistics snapshot taken before any of them
// fill in, so a later column can aggregate over an earlier one but none
// can see its own partial fill through a base-column aggregate.
func (g *Grid) refreshLocked() {
	if len(g.calc) > 0 {
		pre := newColumnStats(g.rows)
		for _, entry := range g.calc {
			for i, row := range g.rows {
				row[entry.ID] = entry.Eval(core.RowContext{
					Row:        row,
					RowIndex:   i,
					Aggregates: pre,
				})
			}
		}
	}

	g.columns = make([]Column, 0, len(g.baseColumns)+len(g.calc))
	g.columns = append(g.columns, g.baseColumns...)
	for _, entry := range g.calc {
		title := entry.Name
		if title == "" {
			title = entry.ID
		}
		g.columns = append(g.columns, Column{ID: entry.ID, Title: title, Calc: true})
	}

	g.stats = newColumnStats(g.rows)

	g.logger.Debug("grid data refreshed",
		"instance", g.instanceID,
		"rows", len(g.rows),
		"columns", len(g.columns))
}

// Columns returns the displayed columns, feed columns first, calculated
// columns after, in definition order.
func (g *Grid) Columns() []Column {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Column(nil), g.columns...)
}

// RowCount returns the number of data rows.
func (g *Grid) RowCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rows)
}

// Row returns the live row map at index i, nil when out of range. Callers
// must treat it as read-only.
func (g *Grid) Row(i int) map[string]any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if i < 0 || i >= len(g.rows) {
		return nil
	}
	return g.rows[i]
}

// ValueAt returns the raw cell value, nil for unknown columns or rows out
// of range.
func (g *Grid) ValueAt(rowIdx int, columnID string) any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if rowIdx < 0 || rowIdx >= len(g.rows) {
		return nil
	}
	return g.rows[rowIdx][columnID]
}

// Context returns the evaluation context for one cell, wired to the
// grid's data and statistics. RowIdx out of range yields a context with a
// nil row. Used by the one-shot eval command and the REPL.
func (g *Grid) Context(rowIdx int, columnID string) core.RowContext {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rc := core.RowContext{
		RowIndex:   rowIdx,
		Column:     columnID,
		Aggregates: g.stats,
	}
	if rowIdx >= 0 && rowIdx < len(g.rows) {
		rc.Row = g.rows[rowIdx]
		rc.Value = rc.Row[columnID]
	}
	return rc
}

// Aggregates exposes the current statistics snapshot.
func (g *Grid) Aggregates() core.Aggregates {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stats
}
