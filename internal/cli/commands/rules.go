package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/cli/output"
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Scope   string // Filter by scope target: cell, row
	Verbose bool   // Show descriptions and formatting
	Format  string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List and manage formatting rules",
		Long: `List the rules in the active profile, or show one rule in detail.

Rules are grouped by scope (cell or row) and ordered by priority. Use
--verbose to include descriptions and formatting summaries.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules in the active profile
  gridstyle rules

  # Show details for a specific rule
  gridstyle rules 4f8b2c1a

  # List row rules only
  gridstyle rules --scope row

  # Output as JSON
  gridstyle rules --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Scope, "scope", "", "Filter by scope target: cell, row")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show descriptions and formatting")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	cmd.AddCommand(newRulesCreateCommand())
	cmd.AddCommand(newRulesDuplicateCommand())
	cmd.AddCommand(newRulesDeleteCommand())
	cmd.AddCommand(newRulesValidateCommand())

	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	ruleList, err := cmdCtx.Engine.Store().Load(cmd.Context(), cmdCtx.Cfg.Profile)
	if err != nil {
		return err
	}

	// Apply scope filter, then order by priority
	ruleList = filterRulesByScope(ruleList, opts.Scope)
	ruleList = rules.SortByPriority(ruleList)

	mode := r.EffectiveMode()
	switch mode {
	case output.ModeJSON:
		return listRulesJSON(r, cmdCtx.Cfg.Profile, ruleList)
	case output.ModeMarkdown:
		return listRulesMarkdown(r, cmdCtx.Cfg.Profile, ruleList, opts.Verbose)
	default:
		return listRulesText(r, cmdCtx.Cfg.Profile, ruleList, opts.Verbose)
	}
}

func filterRulesByScope(ruleList []core.Rule, scope string) []core.Rule {
	if scope == "" {
		return ruleList
	}

	var filtered []core.Rule
	for _, rule := range ruleList {
		if string(rule.Scope.Target) != scope {
			continue
		}
		filtered = append(filtered, rule)
	}
	return filtered
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	ruleList, err := cmdCtx.Engine.Store().Load(cmd.Context(), cmdCtx.Cfg.Profile)
	if err != nil {
		return err
	}

	idx, err := findRuleIndex(ruleList, ruleID)
	if err != nil {
		return err
	}
	rule := ruleList[idx]

	mode := r.EffectiveMode()
	switch mode {
	case output.ModeJSON:
		return showRuleJSON(r, rule)
	case output.ModeMarkdown:
		return showRuleMarkdown(r, rule)
	default:
		return showRuleText(r, rule)
	}
}

// findRuleIndex resolves a rule by full id, unique id prefix, or exact name.
func findRuleIndex(ruleList []core.Rule, idOrName string) (int, error) {
	matches := make([]int, 0, 1)
	for i, rule := range ruleList {
		if rule.ID == idOrName {
			return i, nil
		}
		if strings.HasPrefix(rule.ID, idOrName) || rule.Name == idOrName {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("rule %q not found", idOrName)
	case 1:
		return matches[0], nil
	default:
		return 0, fmt.Errorf("rule %q is ambiguous (%d matches); use the full id", idOrName, len(matches))
	}
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, profile string, ruleList []core.Rule, verbose bool) error {
	styles := r.Styles()

	enabled := 0
	for _, rule := range ruleList {
		if rule.Enabled {
			enabled++
		}
	}

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Rules in %q (%d total, %d enabled)", profile, len(ruleList), enabled)))
	r.Println("")

	if len(ruleList) == 0 {
		r.Println(styles.Muted.Render("  No rules. Create one with 'gridstyle rules create'."))
		r.Println("")
		return nil
	}

	currentScope := core.ScopeTarget("")
	for _, target := range []core.ScopeTarget{core.TargetCell, core.TargetRow} {
		for _, rule := range ruleList {
			if rule.Scope.Target != target {
				continue
			}

			// Scope header
			if rule.Scope.Target != currentScope {
				currentScope = rule.Scope.Target
				scopeLabel := "Cell Rules"
				if currentScope == core.TargetRow {
					scopeLabel = "Row Rules"
				}
				r.Println(styles.Header2.Render(scopeLabel))
				r.Println("")
			}

			// Rule line
			status := styles.StatusSuccess.String()
			if !rule.Enabled {
				status = styles.Muted.Render("-")
			}
			r.Printf("  %s %s  p%-3d %s - %s\n",
				status,
				styles.Muted.Render(shortID(rule.ID)),
				rule.Priority,
				rule.Name,
				styles.Muted.Render(truncateOneLine(rule.Expression, 48)),
			)

			if verbose {
				if rule.Description != "" {
					r.Println(styles.Muted.Render("        " + rule.Description))
				}
				r.Println(styles.Muted.Render("        " + formatEffects(rule.Formatting) + "; " + formatScope(rule.Scope)))
				r.Println("")
			}
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'gridstyle rules <rule-id>' for details"))
	r.Println("")

	return nil
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, profile string, ruleList []core.Rule, verbose bool) error {
	r.Printf("# Rules in %s\n", profile)
	r.Println("")

	currentScope := core.ScopeTarget("")
	for _, target := range []core.ScopeTarget{core.TargetCell, core.TargetRow} {
		for _, rule := range ruleList {
			if rule.Scope.Target != target {
				continue
			}

			if rule.Scope.Target != currentScope {
				currentScope = rule.Scope.Target
				scopeLabel := "Cell Rules"
				if currentScope == core.TargetRow {
					scopeLabel = "Row Rules"
				}
				r.Println("## " + scopeLabel)
				r.Println("")
			}

			state := "enabled"
			if !rule.Enabled {
				state = "disabled"
			}
			r.Printf("- **%s** (p%d, %s) - `%s`\n", rule.Name, rule.Priority, state, rule.Expression)
			if verbose {
				if rule.Description != "" {
					r.Println("  " + rule.Description)
				}
				r.Printf("  > %s; %s\n", formatEffects(rule.Formatting), formatScope(rule.Scope))
			}
		}
	}

	r.Println("")
	return nil
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Profile string      `json:"profile"`
	Rules   []core.Rule `json:"rules"`
	Count   struct {
		Enabled  int `json:"enabled"`
		Disabled int `json:"disabled"`
		Total    int `json:"total"`
	} `json:"count"`
}

// listRulesJSON outputs rules in JSON format.
func listRulesJSON(r *output.Renderer, profile string, ruleList []core.Rule) error {
	jsonOutput := RulesJSONOutput{
		Profile: profile,
		Rules:   ruleList,
	}

	for _, rule := range ruleList {
		if rule.Enabled {
			jsonOutput.Count.Enabled++
		} else {
			jsonOutput.Count.Disabled++
		}
	}
	jsonOutput.Count.Total = len(ruleList)

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput)
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, rule core.Rule) error {
	styles := r.Styles()

	state := "enabled"
	if !rule.Enabled {
		state = "disabled"
	}

	r.Println("")
	r.Println(styles.Header1.Render(rule.Name))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("ID"), rule.ID)
	r.Printf("  %s: %d\n", styles.Bold.Render("Priority"), rule.Priority)
	r.Printf("  %s: %s\n", styles.Bold.Render("State"), state)
	r.Printf("  %s: %s\n", styles.Bold.Render("Scope"), formatScope(rule.Scope))
	r.Println("")

	r.Println(styles.Bold.Render("Expression"))
	r.Println("  " + rule.Expression)
	r.Println("")

	if rule.Description != "" {
		r.Println(styles.Bold.Render("Description"))
		r.Println("  " + rule.Description)
		r.Println("")
	}

	r.Println(styles.Bold.Render("Formatting"))
	if len(rule.Formatting.Style) > 0 {
		for _, prop := range sortedKeys(rule.Formatting.Style) {
			r.Printf("  %s: %s\n", prop, rule.Formatting.Style[prop])
		}
	}
	if len(rule.Formatting.CellClass) > 0 {
		r.Printf("  classes: %s\n", strings.Join(rule.Formatting.CellClass, " "))
	}
	if rule.Formatting.Icon != nil {
		r.Printf("  icon: %s (%s)\n", rule.Formatting.Icon.Name, rule.Formatting.Icon.Position)
	}
	if rule.Formatting.ValueTransform != nil {
		r.Printf("  transform: %s\n", rule.Formatting.ValueTransform.Type)
	}
	if !rule.Formatting.HasEffect() {
		r.Println(styles.Muted.Render("  (no visible effect)"))
	}
	r.Println("")

	return nil
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, rule core.Rule) error {
	state := "enabled"
	if !rule.Enabled {
		state = "disabled"
	}

	r.Printf("# %s\n\n", rule.Name)
	r.Printf("**ID:** `%s` | **Priority:** %d | **State:** %s\n\n", rule.ID, rule.Priority, state)
	r.Printf("**Scope:** %s\n\n", formatScope(rule.Scope))
	r.Println("## Expression")
	r.Println("")
	r.Println("```")
	r.Println(rule.Expression)
	r.Println("```")
	r.Println("")

	if rule.Description != "" {
		r.Println(rule.Description)
		r.Println("")
	}

	r.Println("## Formatting")
	r.Println("")
	r.Println(formatEffects(rule.Formatting))
	r.Println("")
	return nil
}

// showRuleJSON displays detailed rule info in JSON format.
func showRuleJSON(r *output.Renderer, rule core.Rule) error {
	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(rule)
}

// Helper functions

// shortID returns the first id segment, enough to address a rule on the CLI.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatScope(scope core.Scope) string {
	switch {
	case scope.Target == core.TargetRow && scope.HighlightEntireRow:
		return "row (entire row)"
	case scope.Target == core.TargetRow && len(scope.ApplyToColumns) > 0:
		return "row (columns: " + strings.Join(scope.ApplyToColumns, ", ") + ")"
	case scope.Target == core.TargetRow:
		return "row"
	case len(scope.ApplyToColumns) > 0:
		return "cell (columns: " + strings.Join(scope.ApplyToColumns, ", ") + ")"
	default:
		return "cell (all columns)"
	}
}

func formatEffects(f core.Formatting) string {
	var parts []string
	for _, prop := range sortedKeys(f.Style) {
		parts = append(parts, prop+"="+f.Style[prop])
	}
	if len(f.CellClass) > 0 {
		parts = append(parts, "classes "+strings.Join(f.CellClass, " "))
	}
	if f.Icon != nil {
		parts = append(parts, "icon "+f.Icon.Name)
	}
	if f.ValueTransform != nil {
		parts = append(parts, "transform "+string(f.ValueTransform.Type))
	}
	if len(parts) == 0 {
		return "no visible effect"
	}
	return strings.Join(parts, ", ")
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sortedKeys returns a map's keys in sorted order for stable output.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
