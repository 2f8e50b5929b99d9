package eval

import (
	"strconv"
	"strings"
	"time"

	"github.com/gridstack-labs/gridstyle/pkg/token"
)

// normalizeValue folds the integer types a data feed can deliver into the
// evaluator's float64 numeric domain. Strings, bools, times, and nil pass
// through; anything else is kept as-is and will fail the coercions that
// matter for it.
func normalizeValue(v any) any {
	if n, ok := toFloat64(v); ok {
		return n
	}
	return v
}

// toFloat64 converts numeric types to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}

// toNumber is the language's numeric coercion: numbers pass through,
// numeric strings parse, bools count as 1 and 0. Everything else — nil
// included — does not coerce.
func toNumber(v any) (float64, bool) {
	if n, ok := toFloat64(v); ok {
		return n, true
	}
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// truthy reduces a value to the language's truth semantics: nil is false,
// numbers are true when non-zero, strings are true unless empty, "false",
// or "0". truthy never fails; unknown types are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && !strings.EqualFold(t, "false") && t != "0"
	case time.Time:
		return !t.IsZero()
	}
	return false
}

// looseEqual implements `=` and `!=`. Null equals only null. Numbers and
// numeric strings compare numerically; a string that does not coerce is
// unequal to any number. Bools compare as 1 and 0 against numbers. Times
// compare by instant, against other times or parseable date values.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if at, aok := a.(time.Time); aok {
		if bt, ok := toTime(b); ok {
			return at.Equal(bt)
		}
		return false
	}
	if bt, bok := b.(time.Time); bok {
		if at, ok := toTime(a); ok {
			return at.Equal(bt)
		}
		return false
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}

	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}

	return false
}

// compareOrdered implements the ordering operators. A nil operand makes the
// comparison false. Mixed string/number comparisons coerce the string; a
// failed coercion makes the comparison false rather than an error. Two
// strings compare lexicographically.
func compareOrdered(op token.TokenType, a, b any) bool {
	if a == nil || b == nil {
		return false
	}

	if at, aok := a.(time.Time); aok {
		bt, ok := toTime(b)
		if !ok {
			return false
		}
		return orderedResult(op, compareTimes(at, bt))
	}
	if bt, bok := b.(time.Time); bok {
		at, ok := toTime(a)
		if !ok {
			return false
		}
		return orderedResult(op, compareTimes(at, bt))
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return orderedResult(op, strings.Compare(as, bs))
	}

	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if !aok || !bok {
		return false
	}
	switch {
	case an < bn:
		return orderedResult(op, -1)
	case an > bn:
		return orderedResult(op, 1)
	default:
		return orderedResult(op, 0)
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// orderedResult maps a three-way comparison to the requested operator.
func orderedResult(op token.TokenType, cmp int) bool {
	switch op {
	case token.LT:
		return cmp < 0
	case token.LE:
		return cmp <= 0
	case token.GT:
		return cmp > 0
	case token.GE:
		return cmp >= 0
	}
	return false
}

// formatValue renders a value as the string the language would display:
// nil is empty, numbers drop insignificant trailing zeros, times render
// as RFC 3339.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return ""
}

// typeName names a value's language-level type for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "bool"
	case time.Time:
		return "date"
	}
	return "value"
}

// The exported coercion surface below exists for rendering boundaries that
// must agree with the language: a grid counting matches or averaging a
// column has to coerce exactly the way COUNTIF and AVG do.

// LooseEqual reports whether a and b are equal under the language's loose
// equality.
func LooseEqual(a, b any) bool {
	return looseEqual(normalizeValue(a), normalizeValue(b))
}

// ToNumber applies the language's numeric coercion to v.
func ToNumber(v any) (float64, bool) {
	return toNumber(normalizeValue(v))
}

// FormatValue renders v the way the language displays values: nil is
// empty, numbers drop insignificant trailing zeros, times are RFC 3339.
func FormatValue(v any) string {
	return formatValue(normalizeValue(v))
}
