package core

// ScopeTarget says whether a rule formats individual cells or whole rows.
type ScopeTarget string

// Scope target constants.
const (
	TargetCell ScopeTarget = "cell"
	TargetRow  ScopeTarget = "row"
)

// IconPosition places a rule's icon relative to the cell value.
type IconPosition string

// Icon position constants.
const (
	IconStart IconPosition = "start"
	IconEnd   IconPosition = "end"
)

// TransformType identifies how a matching rule rewrites the displayed value.
type TransformType string

// Value transform type constants.
const (
	TransformPrefix  TransformType = "prefix"
	TransformSuffix  TransformType = "suffix"
	TransformReplace TransformType = "replace"
	TransformCustom  TransformType = "custom"
)

// StyleDecl is a style declaration: property name to value.
// Property names are written in camelCase (backgroundColor) and normalized
// to their hyphenated form only when CSS text is emitted.
type StyleDecl map[string]string

// Clone returns a copy of the declaration.
func (s StyleDecl) Clone() StyleDecl {
	if s == nil {
		return nil
	}
	out := make(StyleDecl, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// IconSpec describes an icon effect attached to a matching cell.
type IconSpec struct {
	Name     string       `json:"name"`
	Position IconPosition `json:"position"`
	Color    string       `json:"color,omitempty"`
}

// ValueTransform rewrites the displayed value of a matching cell.
// Value carries the prefix/suffix/replacement text; FunctionBody carries the
// script source for TransformCustom.
type ValueTransform struct {
	Type         TransformType `json:"type"`
	Value        string        `json:"value,omitempty"`
	FunctionBody string        `json:"functionBody,omitempty"`
}

// Formatting bundles the optional effects a rule applies when it matches.
type Formatting struct {
	// Style is an inline style declaration merged into the cell's styling.
	Style StyleDecl `json:"style,omitempty"`
	// CellClass lists extra class-name tokens applied alongside the
	// generated class.
	CellClass []string `json:"cellClass,omitempty"`
	// Icon, when set, decorates the cell with a named icon.
	Icon *IconSpec `json:"icon,omitempty"`
	// ValueTransform, when set, rewrites the displayed value.
	ValueTransform *ValueTransform `json:"valueTransform,omitempty"`
}

// HasEffect reports whether any visible effect is configured.
// Rules without one validate as incomplete but still compile.
func (f Formatting) HasEffect() bool {
	return len(f.Style) > 0 || len(f.CellClass) > 0 || f.Icon != nil
}

// Clone returns a deep copy of the formatting bundle.
func (f Formatting) Clone() Formatting {
	out := Formatting{Style: f.Style.Clone()}
	if f.CellClass != nil {
		out.CellClass = append([]string(nil), f.CellClass...)
	}
	if f.Icon != nil {
		icon := *f.Icon
		out.Icon = &icon
	}
	if f.ValueTransform != nil {
		vt := *f.ValueTransform
		out.ValueTransform = &vt
	}
	return out
}

// Scope restricts where a rule applies.
type Scope struct {
	// Target selects cell-level or row-level application.
	Target ScopeTarget `json:"target"`
	// ApplyToColumns restricts the affected columns. Empty means every
	// column for cell scope; for row scope it names the columns that
	// receive the row's style when HighlightEntireRow is false.
	ApplyToColumns []string `json:"applyToColumns,omitempty"`
	// HighlightEntireRow applies a row rule's style to every cell in the
	// row regardless of ApplyToColumns.
	HighlightEntireRow bool `json:"highlightEntireRow,omitempty"`
}

// Clone returns a copy of the scope.
func (s Scope) Clone() Scope {
	out := s
	if s.ApplyToColumns != nil {
		out.ApplyToColumns = append([]string(nil), s.ApplyToColumns...)
	}
	return out
}

// Rule is the unit of conditional formatting: a prioritized, scoped,
// expression-gated styling instruction.
type Rule struct {
	// ID is the unique, stable identity. Generated at creation, never reused.
	ID string `json:"id"`
	// Name is the display label. Not required to be unique.
	Name string `json:"name"`
	// Description is an optional free-form note.
	Description string `json:"description,omitempty"`
	// Enabled excludes the rule from compilation entirely when false.
	Enabled bool `json:"enabled"`
	// Priority orders application. Lower values apply first; ties are
	// broken by stable input order. Later-applied rules win style
	// conflicts.
	Priority int `json:"priority"`
	// Expression is the condition in the grid expression language. It
	// must evaluate to a boolean for the rule to match.
	Expression string `json:"expression"`
	// Formatting holds the effects applied when the expression matches.
	Formatting Formatting `json:"formatting"`
	// Scope restricts the rule to cells or rows and to specific columns.
	Scope Scope `json:"scope"`
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	out := r
	out.Formatting = r.Formatting.Clone()
	out.Scope = r.Scope.Clone()
	return out
}

// CalcColumn defines a derived column: an expression evaluated per row to a
// scalar. Evaluation errors yield null for that row.
type CalcColumn struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// ValidationResult reports advisory structural problems with a rule.
// An invalid rule still compiles; validation gates "apply" in editors,
// never compilation.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}
