package core

// Predicate is a compiled rule condition, ready to evaluate against one row
// context without re-parsing. Predicates never panic; any evaluation error
// reads as "no match".
type Predicate func(RowContext) bool

// StyleEntry is a compiled style artifact: one generated class name and its
// style declaration, derived from a rule that carries a non-empty style or
// class list. Declarations are already normalized to hyphenated CSS names.
// Ephemeral; rebuilt wholesale on every compilation.
type StyleEntry struct {
	RuleID    string
	ClassName string
	Style     StyleDecl
}

// PredicateEntry is a compiled predicate artifact bound to its generated
// class name. Seq is the entry's position in the compiled application
// order, so merging any two entry lists by ascending Seq reproduces the
// (priority, input order) total order.
//
// The non-CSS effects ride along so the rendering boundary can apply them
// from the match alone: ExtraClasses are the rule's own class tokens, Icon
// and Transform are single-valued effects taken from the last matching
// entry in application order.
type PredicateEntry struct {
	RuleID       string
	ClassName    string
	Priority     int
	Seq          int
	Predicate    Predicate
	ExtraClasses []string
	Icon         *IconSpec
	Transform    *ValueTransform
}

// RowPredicateEntry is a row-scoped predicate artifact. The predicate is
// evaluated once per row; WholeRow applies the style to every cell in a
// matching row, otherwise only the named Columns receive it. WholeRow
// false with no Columns is a valid rule that paints nothing.
type RowPredicateEntry struct {
	PredicateEntry
	WholeRow bool
	Columns  []string
}

// AppliesToColumn reports whether a matching row entry styles the given
// column.
func (e RowPredicateEntry) AppliesToColumn(column string) bool {
	if e.WholeRow {
		return true
	}
	for _, c := range e.Columns {
		if c == column {
			return true
		}
	}
	return false
}
