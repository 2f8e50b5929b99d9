// Package style turns rule formatting into CSS artifacts: property-name
// normalization, declaration blocks, deterministic class names, and a
// writable stylesheet.
//
// Rule authors write style keys the way grid configuration does
// (backgroundColor, fontWeight); everything leaving this package is
// hyphenated CSS. Output order is deterministic everywhere so repeated
// compilations of the same rules emit byte-identical CSS.
package style

import (
	"sort"
	"strings"

	"github.com/gridstack-labs/gridstyle/pkg/core"
)

// classPrefix namespaces every generated class so grid instances cannot
// collide with application CSS or each other.
const classPrefix = "gs"

// NormalizeProperty converts a camelCase style key to its hyphenated CSS
// form: backgroundColor becomes background-color. Names that are already
// hyphenated pass through unchanged.
func NormalizeProperty(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name) + 4)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteByte(c - 'A' + 'a')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Normalize returns a copy of the declaration with every property name in
// hyphenated form and values trimmed. Entries with an empty name or value
// are dropped. On duplicate names after normalization the
// lexicographically-last original key wins, keeping the result independent
// of map iteration order.
func Normalize(decl core.StyleDecl) core.StyleDecl {
	if len(decl) == 0 {
		return nil
	}

	keys := make([]string, 0, len(decl))
	for k := range decl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(core.StyleDecl, len(decl))
	for _, k := range keys {
		name := NormalizeProperty(k)
		value := strings.TrimSpace(decl[k])
		if name == "" || value == "" {
			continue
		}
		out[name] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge overlays src onto a copy of base; src wins on collision. Either
// side may be nil.
func Merge(base, overlay core.StyleDecl) core.StyleDecl {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	out := make(core.StyleDecl, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// DeclarationBlock renders a declaration as a single-line CSS block body,
// properties sorted: "background-color: red; color: white". Suitable for
// inline style attributes.
func DeclarationBlock(decl core.StyleDecl) string {
	if len(decl) == 0 {
		return ""
	}

	names := make([]string, 0, len(decl))
	for name := range decl {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(decl[name])
	}
	return b.String()
}

// ClassName builds the deterministic CSS class for one rule in one grid
// instance: gs-<instance>-<rule>. Both parts are sanitized to CSS
// identifier characters; the same inputs always produce the same class.
func ClassName(instanceID, ruleID string) string {
	inst := sanitizeToken(instanceID)
	rule := sanitizeToken(ruleID)
	switch {
	case inst == "" && rule == "":
		return classPrefix
	case inst == "":
		return classPrefix + "-" + rule
	case rule == "":
		return classPrefix + "-" + inst
	}
	return classPrefix + "-" + inst + "-" + rule
}

// sanitizeToken reduces an arbitrary identifier to CSS class characters:
// letters, digits, hyphen, underscore. Runs of other characters collapse
// to a single hyphen; leading and trailing hyphens are stripped.
func sanitizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		ok := c >= 'a' && c <= 'z' ||
			c >= 'A' && c <= 'Z' ||
			c >= '0' && c <= '9' ||
			c == '_' || c == '-'
		if !ok {
			if b.Len() > 0 {
				pendingDash = true
			}
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteByte(c)
	}
	return strings.Trim(b.String(), "-")
}
