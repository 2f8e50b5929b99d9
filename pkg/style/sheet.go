package style

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gridstack-labs/gridstyle/pkg/core"
)

// classRule is one class selector with its declarations.
type classRule struct {
	class string
	decl  core.StyleDecl
}

// Sheet is an ordered collection of class rules that renders to CSS text.
// Rules keep insertion order; properties within a rule are written sorted,
// so the same sheet always renders to the same bytes.
type Sheet struct {
	rules []classRule
	index map[string]int
}

// NewSheet returns an empty stylesheet.
func NewSheet() *Sheet {
	return &Sheet{index: make(map[string]int)}
}

// FromEntries builds a sheet from compiled style entries, in order. Entries
// without declarations still claim their class name (an empty rule body),
// so a class referenced by the grid always exists in the sheet.
func FromEntries(entries []core.StyleEntry) *Sheet {
	s := NewSheet()
	for _, e := range entries {
		s.Add(e.ClassName, e.Style)
	}
	return s
}

// Add inserts a class rule, replacing the declarations of an existing class
// with the same name without disturbing its position.
func (s *Sheet) Add(class string, decl core.StyleDecl) {
	if class == "" {
		return
	}
	if i, ok := s.index[class]; ok {
		s.rules[i].decl = decl
		return
	}
	s.index[class] = len(s.rules)
	s.rules = append(s.rules, classRule{class: class, decl: decl})
}

// Len returns the number of class rules in the sheet.
func (s *Sheet) Len() int {
	return len(s.rules)
}

// WriteTo writes the sheet as CSS in insertion order, implementing
// io.WriterTo. Property order within a rule is sorted for deterministic
// output.
func (s *Sheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, rule := range s.rules {
		n, err := writeClassRule(w, rule)
		total += int64(n)
		if err != nil {
			return total, err
		}

		if i < len(s.rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the sheet.
func (s *Sheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeClassRule writes a single class rule to w.
func writeClassRule(w io.Writer, rule classRule) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, ".%s {\n", rule.class)
	total += n
	if err != nil {
		return total, err
	}

	names := make([]string, 0, len(rule.decl))
	for name := range rule.decl {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n, err = fmt.Fprintf(w, "  %s: %s;\n", name, rule.decl[name])
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
