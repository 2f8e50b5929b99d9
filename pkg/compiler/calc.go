package compiler

import (
	"log/slog"
	"sync"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/eval"
	"github.com/gridstack-labs/gridstyle/pkg/parser"
)

// CalcEntry is a compiled calculated column: the parsed expression bound
// to an evaluation function. Eval returns the scalar for one row, or nil
// when evaluation fails — a calculated cell degrades to empty, it never
// breaks the row.
type CalcEntry struct {
	ID   string
	Name string
	Eval func(core.RowContext) any
}

// CompileCalc compiles calculated-column definitions. Columns whose
// expression fails to parse yield an always-nil entry and one RuleError;
// evaluation failures are logged on first occurrence per column.
func CompileCalc(cols []core.CalcColumn, logger *slog.Logger) ([]CalcEntry, []RuleError) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	entries := make([]CalcEntry, 0, len(cols))
	var errs []RuleError

	for _, col := range cols {
		expr, err := parser.Parse(col.Expression)
		if err != nil {
			errs = append(errs, RuleError{RuleID: col.ID, Name: col.Name, Err: err})
			entries = append(entries, CalcEntry{ID: col.ID, Name: col.Name, Eval: alwaysNil})
			continue
		}

		var logOnce sync.Once
		entries = append(entries, CalcEntry{
			ID:   col.ID,
			Name: col.Name,
			Eval: func(rc core.RowContext) any {
				v, err := eval.Evaluate(expr, rc)
				if err != nil {
					logOnce.Do(func() {
						logger.Warn("calculated column evaluation failed, treating as null",
							"column_id", col.ID,
							"column", col.Name,
							"error", err)
					})
					return nil
				}
				return v
			},
		})
	}

	return entries, errs
}

func alwaysNil(core.RowContext) any {
	return nil
}
