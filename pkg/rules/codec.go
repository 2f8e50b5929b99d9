package rules

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gridstack-labs/gridstyle/pkg/core"
)

// The wire types mirror the persisted rule document but tolerate the
// shapes older builds wrote: a bare string where cellClass is now a list,
// a rule-level styles map predating formatting.style, and absent enabled
// flags. Decoding normalizes everything into the canonical core.Rule so
// no legacy shape travels past this boundary.

type wireRule struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Enabled     *bool             `json:"enabled"`
	Priority    int               `json:"priority"`
	Expression  string            `json:"expression"`
	Formatting  *wireFormatting   `json:"formatting"`
	Scope       *wireScope        `json:"scope"`
	Styles      map[string]string `json:"styles"`
}

type wireFormatting struct {
	Style          map[string]string    `json:"style"`
	CellClass      stringList           `json:"cellClass"`
	Icon           *core.IconSpec       `json:"icon"`
	ValueTransform *core.ValueTransform `json:"valueTransform"`
}

type wireScope struct {
	Target             string   `json:"target"`
	ApplyToColumns     []string `json:"applyToColumns"`
	HighlightEntireRow bool     `json:"highlightEntireRow"`
}

// stringList accepts both "a" and ["a", "b"] in JSON.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*s = nil
			return nil
		}
		*s = stringList{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = stringList(many)
	return nil
}

// toRule normalizes one wire entry: absent enabled means enabled, absent
// scope means cell scope, and a legacy rule-level styles map backfills
// formatting.style when the canonical field is empty.
func (w wireRule) toRule() core.Rule {
	r := core.Rule{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Enabled:     w.Enabled == nil || *w.Enabled,
		Priority:    w.Priority,
		Expression:  w.Expression,
	}

	if w.Formatting != nil {
		r.Formatting = core.Formatting{
			Style:     core.StyleDecl(w.Formatting.Style).Clone(),
			CellClass: append([]string(nil), w.Formatting.CellClass...),
		}
		if w.Formatting.Icon != nil {
			icon := *w.Formatting.Icon
			r.Formatting.Icon = &icon
		}
		if w.Formatting.ValueTransform != nil {
			vt := *w.Formatting.ValueTransform
			r.Formatting.ValueTransform = &vt
		}
	}

	if len(r.Formatting.Style) == 0 && len(w.Styles) > 0 {
		r.Formatting.Style = core.StyleDecl(w.Styles).Clone()
	}

	if w.Scope != nil {
		r.Scope = core.Scope{
			Target:             core.ScopeTarget(w.Scope.Target),
			ApplyToColumns:     append([]string(nil), w.Scope.ApplyToColumns...),
			HighlightEntireRow: w.Scope.HighlightEntireRow,
		}
	}
	if r.Scope.Target == "" {
		r.Scope.Target = core.TargetCell
	}

	return r
}

// Export serializes the rule list to the canonical document form. A nil
// list exports as an empty array.
func Export(rules []core.Rule) ([]byte, error) {
	if rules == nil {
		rules = []core.Rule{}
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export rules: %w", err)
	}
	return data, nil
}

// Decode parses a rule document, applying defaults and legacy migration
// per entry. The payload must be a JSON array; anything else — including
// null — is an error. Decoded rules keep their stored ids.
func Decode(data []byte) ([]core.Rule, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("rule payload is not an array")
	}

	var raw []wireRule
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rule payload: %w", err)
	}

	out := make([]core.Rule, 0, len(raw))
	for _, w := range raw {
		out = append(out, w.toRule())
	}
	return out, nil
}

// Import parses an exported document and assigns every rule a fresh id so
// imported rules can never collide with existing ones. All other fields
// are trusted as-is. A payload that is not a rule array imports as nil —
// import never fails outward.
func Import(data []byte) []core.Rule {
	decoded, err := Decode(data)
	if err != nil {
		return nil
	}
	for i := range decoded {
		decoded[i].ID = newID()
	}
	return decoded
}

// DropIncomplete removes entries that lack an id, name, or expression —
// the minimum a stored rule needs to be usable. Order is preserved.
func DropIncomplete(rules []core.Rule) []core.Rule {
	out := make([]core.Rule, 0, len(rules))
	for _, r := range rules {
		if r.ID == "" || r.Name == "" || r.Expression == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
