package eval

import (
	"strings"
	"time"
)

// Layouts tried, in order, when a string is used where a date is expected.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// toTime coerces a value to a time. Times pass through; strings try the
// accepted layouts; numbers are Unix epoch milliseconds (the convention of
// the data feeds this engine sits on).
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	}
	if n, ok := toFloat64(v); ok {
		return time.UnixMilli(int64(n)), true
	}
	return time.Time{}, false
}

// today returns the current date at midnight local time.
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// datePatternTokens maps display-pattern tokens to Go reference-time
// fragments. Scanning is longest-match-first so YYYY wins over YY.
var datePatternTokens = []struct {
	pattern string
	layout  string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// translateDatePattern converts a display pattern such as "YYYY-MM-DD" into
// a Go time layout. Characters outside the token table copy through
// unchanged, so separators and literal text survive.
func translateDatePattern(pattern string) string {
	var layout strings.Builder
	for i := 0; i < len(pattern); {
		matched := false
		for _, tok := range datePatternTokens {
			if strings.HasPrefix(pattern[i:], tok.pattern) {
				layout.WriteString(tok.layout)
				i += len(tok.pattern)
				matched = true
				break
			}
		}
		if !matched {
			layout.WriteByte(pattern[i])
			i++
		}
	}
	return layout.String()
}
