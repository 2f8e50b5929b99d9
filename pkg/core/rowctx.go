package core

// Aggregates is the column-statistics capability the rendering boundary
// injects into evaluation. Implementations are expected to amortize cost
// (recompute per data refresh, not per cell); the evaluator treats every
// call as O(1) and never scans rows itself.
type Aggregates interface {
	// Avg returns the mean of the column's numeric values.
	Avg(column string) (float64, error)
	// Percentile returns the p-th percentile (p in [0,1]) of the column's
	// numeric values.
	Percentile(column string, p float64) (float64, error)
	// CountIf counts rows whose value in column equals value under the
	// language's loose equality.
	CountIf(column string, value any) (int, error)
}

// RowContext is the evaluation input for one cell or row. It is supplied by
// the rendering boundary per evaluation and never retained by the engine.
type RowContext struct {
	// Value is the current cell value (nil for row-scoped evaluation).
	Value any
	// Row maps field names to current values for the whole row.
	Row map[string]any
	// RowIndex is the zero-based row position.
	RowIndex int
	// Column is the column identifier being painted (empty for row scope).
	Column string
	// Aggregates provides column-wide statistics; may be nil, in which
	// case aggregate functions evaluate to an error (and the predicate
	// to false).
	Aggregates Aggregates
}

// Field returns the row's value for the named field. A reference to a field
// the row does not carry resolves to nil, never an error.
func (rc RowContext) Field(name string) any {
	if rc.Row == nil {
		return nil
	}
	return rc.Row[name]
}
