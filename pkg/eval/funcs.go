package eval

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gridstack-labs/gridstyle/pkg/core"
)

// builtinFunc describes one function of the condition language: its arity
// bounds and its implementation. Implementations receive the raw argument
// expressions so aggregate functions can read column references without
// evaluating them.
type builtinFunc struct {
	minArgs int
	maxArgs int // -1 = no upper bound
	call    func(args []core.Expr, rc core.RowContext) (any, error)
}

var builtins = map[string]builtinFunc{
	"ISNULL":     {1, 1, builtinIsNull},
	"CONTAINS":   {2, 2, builtinContains},
	"COUNTIF":    {2, 2, builtinCountIf},
	"AVG":        {1, 1, builtinAvg},
	"PERCENTILE": {2, 2, builtinPercentile},
	"TODAY":      {0, 0, builtinToday},
	"DATEFORMAT": {2, 2, builtinDateFormat},
	"ABS":        {1, 1, builtinAbs},
	"ROUND":      {1, 2, builtinRound},
	"UPPER":      {1, 1, builtinUpper},
	"LOWER":      {1, 1, builtinLower},
	"LEN":        {1, 1, builtinLen},
	"MIN":        {1, -1, builtinMin},
	"MAX":        {1, -1, builtinMax},
}

// KnownFunctions returns the names of all condition-language functions,
// sorted. Used for editor completion and validation hints.
func KnownFunctions() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnownFunction reports whether name (case-insensitive) is a
// condition-language function.
func IsKnownFunction(name string) bool {
	_, ok := builtins[strings.ToUpper(name)]
	return ok
}

func evalFuncCall(e *core.FuncCall, rc core.RowContext) (any, error) {
	fn, ok := builtins[e.Name]
	if !ok {
		return nil, fmt.Errorf("unknown function %s", e.Name)
	}

	if len(e.Args) < fn.minArgs {
		return nil, fmt.Errorf("%s expects at least %d arguments, got %d", e.Name, fn.minArgs, len(e.Args))
	}
	if fn.maxArgs >= 0 && len(e.Args) > fn.maxArgs {
		return nil, fmt.Errorf("%s expects at most %d arguments, got %d", e.Name, fn.maxArgs, len(e.Args))
	}

	return fn.call(e.Args, rc)
}

// evalArgs evaluates every argument expression in order.
func evalArgs(args []core.Expr, rc core.RowContext) ([]any, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		v, err := Evaluate(arg, rc)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// columnArg extracts a column name from an aggregate function's first
// argument: either a field reference like [qty] or a string literal.
func columnArg(name string, arg core.Expr) (string, error) {
	switch a := arg.(type) {
	case *core.FieldRef:
		return a.Name, nil
	case *core.Literal:
		if a.Type == core.LiteralString {
			return a.Value, nil
		}
	}
	return "", fmt.Errorf("%s requires a column reference as its first argument", name)
}

// aggregatesFor returns the row context's aggregate capability or an error
// when the caller did not supply one.
func aggregatesFor(name string, rc core.RowContext) (core.Aggregates, error) {
	if rc.Aggregates == nil {
		return nil, fmt.Errorf("%s requires column statistics, which are not available here", name)
	}
	return rc.Aggregates, nil
}

func builtinIsNull(args []core.Expr, rc core.RowContext) (any, error) {
	v, err := Evaluate(args[0], rc)
	if err != nil {
		return nil, err
	}
	return v == nil, nil
}

func builtinContains(args []core.Expr, rc core.RowContext) (any, error) {
	values, err := evalArgs(args, rc)
	if err != nil {
		return nil, err
	}
	return strings.Contains(formatValue(values[0]), formatValue(values[1])), nil
}

func builtinCountIf(args []core.Expr, rc core.RowContext) (any, error) {
	column, err := columnArg("COUNTIF", args[0])
	if err != nil {
		return nil, err
	}
	agg, err := aggregatesFor("COUNTIF", rc)
	if err != nil {
		return nil, err
	}
	value, err := Evaluate(args[1], rc)
	if err != nil {
		return nil, err
	}
	count, err := agg.CountIf(column, value)
	if err != nil {
		return nil, fmt.Errorf("COUNTIF(%s): %w", column, err)
	}
	return float64(count), nil
}

func builtinAvg(args []core.Expr, rc core.RowContext) (any, error) {
	column, err := columnArg("AVG", args[0])
	if err != nil {
		return nil, err
	}
	agg, err := aggregatesFor("AVG", rc)
	if err != nil {
		return nil, err
	}
	avg, err := agg.Avg(column)
	if err != nil {
		return nil, fmt.Errorf("AVG(%s): %w", column, err)
	}
	return avg, nil
}

func builtinPercentile(args []core.Expr, rc core.RowContext) (any, error) {
	column, err := columnArg("PERCENTILE", args[0])
	if err != nil {
		return nil, err
	}
	agg, err := aggregatesFor("PERCENTILE", rc)
	if err != nil {
		return nil, err
	}
	pv, err := Evaluate(args[1], rc)
	if err != nil {
		return nil, err
	}
	p, ok := toNumber(pv)
	if !ok || p < 0 || p > 1 {
		return nil, fmt.Errorf("PERCENTILE requires a fraction between 0 and 1, got %s", formatValue(pv))
	}
	result, err := agg.Percentile(column, p)
	if err != nil {
		return nil, fmt.Errorf("PERCENTILE(%s): %w", column, err)
	}
	return result, nil
}

func builtinToday(_ []core.Expr, _ core.RowContext) (any, error) {
	return today(), nil
}

func builtinDateFormat(args []core.Expr, rc core.RowContext) (any, error) {
	values, err := evalArgs(args, rc)
	if err != nil {
		return nil, err
	}
	t, ok := toTime(values[0])
	if !ok {
		return nil, fmt.Errorf("DATEFORMAT cannot interpret %s as a date", formatValue(values[0]))
	}
	pattern := formatValue(values[1])
	return t.Format(translateDatePattern(pattern)), nil
}

func builtinAbs(args []core.Expr, rc core.RowContext) (any, error) {
	n, err := numericArg("ABS", args[0], rc)
	if err != nil {
		return nil, err
	}
	return math.Abs(n), nil
}

func builtinRound(args []core.Expr, rc core.RowContext) (any, error) {
	n, err := numericArg("ROUND", args[0], rc)
	if err != nil {
		return nil, err
	}
	digits := 0.0
	if len(args) == 2 {
		digits, err = numericArg("ROUND", args[1], rc)
		if err != nil {
			return nil, err
		}
	}
	scale := math.Pow(10, math.Trunc(digits))
	return math.Round(n*scale) / scale, nil
}

func builtinUpper(args []core.Expr, rc core.RowContext) (any, error) {
	v, err := Evaluate(args[0], rc)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(formatValue(v)), nil
}

func builtinLower(args []core.Expr, rc core.RowContext) (any, error) {
	v, err := Evaluate(args[0], rc)
	if err != nil {
		return nil, err
	}
	return strings.ToLower(formatValue(v)), nil
}

func builtinLen(args []core.Expr, rc core.RowContext) (any, error) {
	v, err := Evaluate(args[0], rc)
	if err != nil {
		return nil, err
	}
	return float64(utf8.RuneCountInString(formatValue(v))), nil
}

func builtinMin(args []core.Expr, rc core.RowContext) (any, error) {
	return foldNumeric("MIN", args, rc, math.Min)
}

func builtinMax(args []core.Expr, rc core.RowContext) (any, error) {
	return foldNumeric("MAX", args, rc, math.Max)
}

// numericArg evaluates one argument and coerces it to a number.
func numericArg(name string, arg core.Expr, rc core.RowContext) (float64, error) {
	v, err := Evaluate(arg, rc)
	if err != nil {
		return 0, err
	}
	n, ok := toNumber(v)
	if !ok {
		return 0, fmt.Errorf("%s requires a numeric argument, got %s", name, typeName(v))
	}
	return n, nil
}

// foldNumeric reduces variadic numeric arguments with the given combiner.
func foldNumeric(name string, args []core.Expr, rc core.RowContext, combine func(float64, float64) float64) (any, error) {
	result, err := numericArg(name, args[0], rc)
	if err != nil {
		return nil, err
	}
	for _, arg := range args[1:] {
		n, err := numericArg(name, arg, rc)
		if err != nil {
			return nil, err
		}
		result = combine(result, n)
	}
	return result, nil
}
