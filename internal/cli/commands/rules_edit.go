package commands

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/cli/output"
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

// RuleCreateOptions holds options for the rules create command.
type RuleCreateOptions struct {
	Name        string
	Expression  string
	Description string
	Priority    int
	Disabled    bool

	Background string
	Color      string
	Bold       bool
	Italic     bool
	Underline  bool
	Classes    []string
	Icon       string
	IconPos    string

	Scope     string
	Columns   []string
	EntireRow bool

	Format string
}

func newRulesCreateCommand() *cobra.Command {
	opts := &RuleCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a rule in the active profile",
		Long: `Create a rule and append it to the active profile.

The rule is enabled and placed after the current highest priority unless
--priority is given. Without any style flags the rule gets a default
highlight so it has a visible effect immediately.`,
		Example: `  # Color negative changes red
  gridstyle rules create --name "Negative change" \
    --expression "[change] < 0" --color "#c62828" --columns change

  # Highlight halted rows
  gridstyle rules create --name "Halted" --expression '[status] == "halted"' \
    --scope row --entire-row --background "#fff3e0"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return createRule(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Rule name")
	cmd.Flags().StringVarP(&opts.Expression, "expression", "e", "", "Rule expression, e.g. '[price] > 100'")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Optional description")
	cmd.Flags().IntVar(&opts.Priority, "priority", 0, "Priority (default: after the current highest)")
	cmd.Flags().BoolVar(&opts.Disabled, "disabled", false, "Create the rule disabled")
	cmd.Flags().StringVar(&opts.Background, "background", "", "Background color, e.g. '#c62828'")
	cmd.Flags().StringVar(&opts.Color, "color", "", "Text color")
	cmd.Flags().BoolVar(&opts.Bold, "bold", false, "Bold text")
	cmd.Flags().BoolVar(&opts.Italic, "italic", false, "Italic text")
	cmd.Flags().BoolVar(&opts.Underline, "underline", false, "Underlined text")
	cmd.Flags().StringSliceVar(&opts.Classes, "class", nil, "Extra class-name tokens")
	cmd.Flags().StringVar(&opts.Icon, "icon", "", "Icon name")
	cmd.Flags().StringVar(&opts.IconPos, "icon-position", "start", "Icon position: start, end")
	cmd.Flags().StringVar(&opts.Scope, "scope", "cell", "Scope target: cell, row")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Columns the rule applies to")
	cmd.Flags().BoolVar(&opts.EntireRow, "entire-row", false, "Apply a row rule's style to every cell")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

func createRule(cmd *cobra.Command, opts *RuleCreateOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	if opts.Expression == "" {
		return fmt.Errorf("--expression is required")
	}
	if opts.Scope != string(core.TargetCell) && opts.Scope != string(core.TargetRow) {
		return fmt.Errorf("invalid scope %q: must be cell or row", opts.Scope)
	}
	if opts.IconPos != string(core.IconStart) && opts.IconPos != string(core.IconEnd) {
		return fmt.Errorf("invalid icon position %q: must be start or end", opts.IconPos)
	}

	ctx := cmd.Context()
	st := cmdCtx.Engine.Store()
	profile := cmdCtx.Cfg.Profile

	ruleList, err := st.Load(ctx, profile)
	if err != nil {
		return err
	}

	rule := rules.New(opts.Name, ruleList)
	rule.Expression = opts.Expression
	rule.Description = opts.Description
	rule.Enabled = !opts.Disabled
	if opts.Priority > 0 {
		rule.Priority = opts.Priority
	}

	if style := buildStyle(opts); len(style) > 0 {
		rule.Formatting.Style = style
	}
	rule.Formatting.CellClass = opts.Classes
	if opts.Icon != "" {
		rule.Formatting.Icon = &core.IconSpec{
			Name:     opts.Icon,
			Position: core.IconPosition(opts.IconPos),
		}
	}

	rule.Scope = core.Scope{
		Target:             core.ScopeTarget(opts.Scope),
		ApplyToColumns:     opts.Columns,
		HighlightEntireRow: opts.EntireRow,
	}

	ruleList = append(ruleList, rule)
	if err := st.Save(ctx, profile, ruleList); err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(rule)
	}

	r.Success(fmt.Sprintf("Created rule %q (%s) in profile %q", rule.Name, shortID(rule.ID), profile))
	if result := rules.Validate(rule); !result.IsValid {
		for _, msg := range result.Errors {
			r.Warning(msg)
		}
	}
	return nil
}

// buildStyle assembles a style declaration from the create flags.
func buildStyle(opts *RuleCreateOptions) core.StyleDecl {
	style := core.StyleDecl{}
	if opts.Background != "" {
		style["backgroundColor"] = opts.Background
	}
	if opts.Color != "" {
		style["color"] = opts.Color
	}
	if opts.Bold {
		style["fontWeight"] = "bold"
	}
	if opts.Italic {
		style["fontStyle"] = "italic"
	}
	if opts.Underline {
		style["textDecoration"] = "underline"
	}
	return style
}

func newRulesDuplicateCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "duplicate <rule-id>",
		Short: "Duplicate a rule under a fresh id",
		Long: `Copy a rule under a fresh id. The copy keeps the original's expression,
formatting, and scope, gets " (Copy)" appended to its name, and is placed
after the current highest priority.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return duplicateRule(cmd, args[0], format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json, markdown")
	return cmd
}

func duplicateRule(cmd *cobra.Command, ruleID, format string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	if format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(format))
	}

	ctx := cmd.Context()
	st := cmdCtx.Engine.Store()
	profile := cmdCtx.Cfg.Profile

	ruleList, err := st.Load(ctx, profile)
	if err != nil {
		return err
	}

	idx, err := findRuleIndex(ruleList, ruleID)
	if err != nil {
		return err
	}

	copied := rules.Duplicate(ruleList[idx], ruleList)
	ruleList = append(ruleList, copied)
	if err := st.Save(ctx, profile, ruleList); err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(copied)
	}

	r.Success(fmt.Sprintf("Duplicated rule %q as %q (%s)", ruleList[idx].Name, copied.Name, shortID(copied.ID)))
	return nil
}

func newRulesDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a rule from the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteRule(cmd, args[0])
		},
	}
	return cmd
}

func deleteRule(cmd *cobra.Command, ruleID string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	ctx := cmd.Context()
	st := cmdCtx.Engine.Store()
	profile := cmdCtx.Cfg.Profile

	ruleList, err := st.Load(ctx, profile)
	if err != nil {
		return err
	}

	idx, err := findRuleIndex(ruleList, ruleID)
	if err != nil {
		return err
	}

	name := ruleList[idx].Name
	ruleList = slices.Delete(ruleList, idx, idx+1)
	if err := st.Save(ctx, profile, ruleList); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Deleted rule %q from profile %q", name, profile))
	return nil
}

// RuleValidationJSONOutput is the JSON output structure for rules validate.
type RuleValidationJSONOutput struct {
	Profile string                 `json:"profile"`
	Results []RuleValidationResult `json:"results"`
	Valid   int                    `json:"valid"`
	Invalid int                    `json:"invalid"`
}

// RuleValidationResult pairs a rule with its validation outcome.
type RuleValidationResult struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

func newRulesValidateCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the rules in the active profile",
		Long: `Check every rule in the active profile for structural problems: missing
name or expression, non-positive priority, no formatting effect.

Validation is advisory. Invalid rules still compile; their broken
expressions degrade to predicates that never match.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validateRules(cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json, markdown")
	return cmd
}

func validateRules(cmd *cobra.Command, format string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	if format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(format))
	}

	profile := cmdCtx.Cfg.Profile
	ruleList, err := cmdCtx.Engine.Store().Load(cmd.Context(), profile)
	if err != nil {
		return err
	}

	results := rules.ValidateAll(ruleList)
	invalid := 0
	for _, res := range results {
		if !res.IsValid {
			invalid++
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		jsonOutput := RuleValidationJSONOutput{
			Profile: profile,
			Valid:   len(results) - invalid,
			Invalid: invalid,
		}
		for i, res := range results {
			jsonOutput.Results = append(jsonOutput.Results, RuleValidationResult{
				ID:      ruleList[i].ID,
				Name:    ruleList[i].Name,
				IsValid: res.IsValid,
				Errors:  res.Errors,
			})
		}
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonOutput); err != nil {
			return err
		}
	} else {
		styles := r.Styles()
		r.Println("")
		for i, res := range results {
			if res.IsValid {
				r.Printf("  %s %s\n", styles.StatusSuccess.String(), ruleList[i].Name)
				continue
			}
			r.Printf("  %s %s\n", styles.StatusFailed.String(), ruleList[i].Name)
			for _, msg := range res.Errors {
				r.Println(styles.Muted.Render("      " + msg))
			}
		}
		r.Println("")
		if invalid == 0 {
			r.Success(fmt.Sprintf("All %d rules are valid", len(results)))
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d rules failed validation", invalid, len(results))
	}
	return nil
}
