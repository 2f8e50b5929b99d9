package grid

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/gridstack-labs/gridstyle/pkg/eval"
)

// columnStats implements core.Aggregates over one row snapshot. Numeric
// extraction runs once per column on first use; CountIf results are
// memoized per probe, so a rule evaluated across every cell costs one row
// scan per refresh, not one per cell. A snapshot is never updated in
// place: data refreshes build a new one.
type columnStats struct {
	rows []map[string]any

	mu      sync.Mutex
	numeric map[string]*numericColumn
	counts  map[string]int
}

type numericColumn struct {
	sorted []float64
	sum    float64
}

func newColumnStats(rows []map[string]any) *columnStats {
	return &columnStats{
		rows:    rows,
		numeric: make(map[string]*numericColumn),
		counts:  make(map[string]int),
	}
}

// column extracts and caches the column's numeric values. Cells that do
// not coerce to a number are ignored. Callers must hold s.mu.
func (s *columnStats) column(name string) *numericColumn {
	col, ok := s.numeric[name]
	if !ok {
		col = &numericColumn{}
		for _, row := range s.rows {
			if n, ok := eval.ToNumber(row[name]); ok {
				col.sorted = append(col.sorted, n)
				col.sum += n
			}
		}
		sort.Float64s(col.sorted)
		s.numeric[name] = col
	}
	return col
}

// Avg returns the mean of the column's numeric values. A column with no
// numeric values is an error, which the evaluator reads as no-match.
func (s *columnStats) Avg(column string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.column(column)
	if len(col.sorted) == 0 {
		return 0, fmt.Errorf("column %q has no numeric values", column)
	}
	return col.sum / float64(len(col.sorted)), nil
}

// Percentile returns the p-th percentile of the column's numeric values,
// with p in [0, 1], using linear interpolation between closest ranks.
func (s *columnStats) Percentile(column string, p float64) (float64, error) {
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("percentile %v out of range [0, 1]", p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.column(column)
	if len(col.sorted) == 0 {
		return 0, fmt.Errorf("column %q has no numeric values", column)
	}

	rank := p * float64(len(col.sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return col.sorted[lo], nil
	}
	frac := rank - float64(lo)
	return col.sorted[lo]*(1-frac) + col.sorted[hi]*frac, nil
}

// CountIf counts rows whose value in the column equals the probe under the
// language's loose equality. Unknown columns read as all-null, so a null
// probe counts every row there.
func (s *columnStats) CountIf(column string, value any) (int, error) {
	key := column + "\x00" + probeKey(value)

	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.counts[key]; ok {
		return n, nil
	}
	n := 0
	for _, row := range s.rows {
		if eval.LooseEqual(row[column], value) {
			n++
		}
	}
	s.counts[key] = n
	return n, nil
}

// probeKey distinguishes probe values that loose equality treats
// differently: the number 42 matches the cell "042" but the string "42"
// does not, so the probe's Go type goes into the key alongside its
// rendered form.
func probeKey(v any) string {
	return fmt.Sprintf("%T\x00%s", v, eval.FormatValue(v))
}
