// Package templates holds the canned-rule gallery: ready-made formatting
// rules users instantiate instead of authoring from scratch. Built-in
// templates are embedded; a user directory can add more or override a
// built-in by reusing its id. One YAML file holds one template.
//
// A template is a prototype, not a rule: instantiating it mints a fresh id
// and places the copy after the profile's current priorities, so applying
// the same template twice yields two independent rules.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

//go:embed gallery/*.yaml
var galleryFS embed.FS

// Template is one gallery entry: metadata plus the rule prototype that
// instantiation copies.
type Template struct {
	ID          string
	Name        string
	Description string
	Category    string
	Rule        core.Rule
	// Builtin is false for templates loaded from the user directory.
	Builtin bool
}

// Instantiate returns a fresh rule built from the template prototype: new
// id, enabled, priority placed after the current maximum in existing.
func (t Template) Instantiate(existing []core.Rule) core.Rule {
	r := t.Rule.Clone()
	r.ID = uuid.New().String()
	if r.Name == "" {
		r.Name = t.Name
	}
	r.Enabled = true
	r.Priority = rules.NextPriority(existing)
	if r.Scope.Target == "" {
		r.Scope.Target = core.TargetCell
	}
	return r
}

// Library is the merged set of built-in and user templates.
type Library struct {
	byID   map[string]Template
	logger *slog.Logger
}

// Load builds the library from the embedded gallery plus userDir. A missing
// or empty userDir is fine. A malformed user file is skipped with a warning;
// a user template reusing a built-in id replaces it.
func Load(userDir string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lib := &Library{byID: make(map[string]Template), logger: logger}

	entries, err := fs.ReadDir(galleryFS, "gallery")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded gallery: %w", err)
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(galleryFS, "gallery/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded template %s: %w", entry.Name(), err)
		}
		tpl, err := parseTemplate(data, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("embedded template %s: %w", entry.Name(), err)
		}
		tpl.Builtin = true
		lib.byID[tpl.ID] = tpl
	}

	if userDir != "" {
		if err := lib.loadUserDir(userDir); err != nil {
			return nil, err
		}
	}

	return lib, nil
}

// loadUserDir overlays templates from a user directory. Unreadable or
// malformed files are skipped, not fatal: one bad template must not take
// the gallery down.
func (l *Library) loadUserDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read templates directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable template file", "path", path, "error", err)
			continue
		}
		tpl, err := parseTemplate(data, entry.Name())
		if err != nil {
			l.logger.Warn("skipping malformed template file", "path", path, "error", err)
			continue
		}
		if _, ok := l.byID[tpl.ID]; ok {
			l.logger.Debug("user template overrides built-in", "id", tpl.ID)
		}
		l.byID[tpl.ID] = tpl
	}
	return nil
}

// All returns every template ordered by (category, id).
func (l *Library) All() []Template {
	out := make([]Template, 0, len(l.byID))
	for _, t := range l.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get looks a template up by id.
func (l *Library) Get(id string) (Template, bool) {
	t, ok := l.byID[id]
	return t, ok
}

// Internal YAML types; the exported surface stays on core types.

type templateYAML struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Category    string           `yaml:"category"`
	Rule        templateRuleYAML `yaml:"rule"`
}

type templateRuleYAML struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Expression  string         `yaml:"expression"`
	Formatting  formattingYAML `yaml:"formatting"`
	Scope       scopeYAML      `yaml:"scope"`
}

type formattingYAML struct {
	Style     map[string]string   `yaml:"style"`
	CellClass []string            `yaml:"cellClass"`
	Icon      *iconYAML           `yaml:"icon"`
	Transform *valueTransformYAML `yaml:"valueTransform"`
}

type iconYAML struct {
	Name     string `yaml:"name"`
	Position string `yaml:"position"`
	Color    string `yaml:"color"`
}

type scopeYAML struct {
	Target             string   `yaml:"target"`
	ApplyToColumns     []string `yaml:"applyToColumns"`
	HighlightEntireRow bool     `yaml:"highlightEntireRow"`
}

type valueTransformYAML struct {
	Type         string `yaml:"type"`
	Value        string `yaml:"value"`
	FunctionBody string `yaml:"functionBody"`
}

func parseTemplate(data []byte, filename string) (Template, error) {
	var raw templateYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Template{}, fmt.Errorf("invalid YAML: %w", err)
	}

	if raw.ID == "" {
		raw.ID = strings.TrimSuffix(strings.TrimSuffix(filename, ".yaml"), ".yml")
	}
	if raw.Rule.Expression == "" {
		return Template{}, fmt.Errorf("template %q has no rule expression", raw.ID)
	}

	tpl := Template{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Category:    raw.Category,
		Rule: core.Rule{
			Name:        raw.Rule.Name,
			Description: raw.Rule.Description,
			Expression:  raw.Rule.Expression,
			Formatting: core.Formatting{
				Style:     core.StyleDecl(raw.Rule.Formatting.Style).Clone(),
				CellClass: append([]string(nil), raw.Rule.Formatting.CellClass...),
			},
			Scope: core.Scope{
				Target:             core.ScopeTarget(raw.Rule.Scope.Target),
				ApplyToColumns:     append([]string(nil), raw.Rule.Scope.ApplyToColumns...),
				HighlightEntireRow: raw.Rule.Scope.HighlightEntireRow,
			},
		},
	}
	if raw.Rule.Formatting.Icon != nil {
		tpl.Rule.Formatting.Icon = &core.IconSpec{
			Name:     raw.Rule.Formatting.Icon.Name,
			Position: core.IconPosition(raw.Rule.Formatting.Icon.Position),
			Color:    raw.Rule.Formatting.Icon.Color,
		}
	}
	if raw.Rule.Formatting.Transform != nil {
		tpl.Rule.Formatting.ValueTransform = &core.ValueTransform{
			Type:         core.TransformType(raw.Rule.Formatting.Transform.Type),
			Value:        raw.Rule.Formatting.Transform.Value,
			FunctionBody: raw.Rule.Formatting.Transform.FunctionBody,
		}
	}
	if tpl.Name == "" {
		tpl.Name = tpl.ID
	}
	return tpl, nil
}
