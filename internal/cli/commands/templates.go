package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/cli/output"
	"github.com/gridstack-labs/gridstyle/internal/templates"
)

// TemplatesOptions holds options for the templates command.
type TemplatesOptions struct {
	Format string // Output format
}

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand() *cobra.Command {
	opts := &TemplatesOptions{}
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List and apply canned rule templates",
		Long: `Work with the rule template gallery.

Built-in templates ship with gridstyle; files in the configured templates
directory add more, or override a built-in by reusing its id. Applying a
template copies its rule into the active profile under a fresh id.`,
		Example: `  # Browse the gallery
  gridstyle templates

  # Apply one to the active profile
  gridstyle templates apply negative-red`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listTemplates(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	cmd.AddCommand(newTemplatesApplyCommand())

	return cmd
}

// TemplateJSONEntry is one gallery entry in JSON output.
type TemplateJSONEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Expression  string `json:"expression"`
	Builtin     bool   `json:"builtin"`
}

func listTemplates(cmd *cobra.Command, opts *TemplatesOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	lib, err := templates.Load(cmdCtx.Cfg.TemplatesDir, cmdCtx.Logger)
	if err != nil {
		return err
	}
	all := lib.All()

	mode := r.EffectiveMode()
	switch mode {
	case output.ModeJSON:
		entries := make([]TemplateJSONEntry, 0, len(all))
		for _, tpl := range all {
			entries = append(entries, TemplateJSONEntry{
				ID:          tpl.ID,
				Name:        tpl.Name,
				Description: tpl.Description,
				Category:    tpl.Category,
				Expression:  tpl.Rule.Expression,
				Builtin:     tpl.Builtin,
			})
		}
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"templates": entries})
	case output.ModeMarkdown:
		return listTemplatesMarkdown(r, all)
	default:
		return listTemplatesText(r, all)
	}
}

func listTemplatesText(r *output.Renderer, all []templates.Template) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Rule Templates (%d)", len(all))))
	r.Println("")

	currentCategory := ""
	for _, tpl := range all {
		if tpl.Category != currentCategory {
			currentCategory = tpl.Category
			r.Println(styles.Bold.Render("  " + capitalizeFirst(currentCategory)))
		}

		source := ""
		if !tpl.Builtin {
			source = styles.Info.Render(" (user)")
		}
		r.Printf("    %s  %s%s - %s\n",
			styles.Muted.Render(tpl.ID),
			tpl.Name,
			source,
			styles.Muted.Render(truncateOneLine(tpl.Rule.Expression, 48)),
		)
		if tpl.Description != "" {
			r.Println(styles.Muted.Render("        " + tpl.Description))
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'gridstyle templates apply <id>' to add one to the active profile"))
	r.Println("")

	return nil
}

func listTemplatesMarkdown(r *output.Renderer, all []templates.Template) error {
	r.Println("# Rule Templates")
	r.Println("")

	currentCategory := ""
	for _, tpl := range all {
		if tpl.Category != currentCategory {
			currentCategory = tpl.Category
			r.Println("## " + capitalizeFirst(currentCategory))
			r.Println("")
		}
		r.Printf("- **%s** (`%s`) - `%s`\n", tpl.Name, tpl.ID, tpl.Rule.Expression)
		if tpl.Description != "" {
			r.Println("  " + tpl.Description)
		}
	}

	r.Println("")
	return nil
}

func newTemplatesApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <template-id>",
		Short: "Apply a template to the active profile",
		Long: `Copy a template's rule into the active profile.

The copy gets a fresh id and is placed after the profile's current
priorities; applying the same template twice yields two independent
rules.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyTemplate(cmd, args[0])
		},
	}
	return cmd
}

func applyTemplate(cmd *cobra.Command, templateID string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	lib, err := templates.Load(cmdCtx.Cfg.TemplatesDir, cmdCtx.Logger)
	if err != nil {
		return err
	}
	tpl, ok := lib.Get(templateID)
	if !ok {
		return fmt.Errorf("template %q not found (run 'gridstyle templates' to browse)", templateID)
	}

	ctx := cmd.Context()
	st := cmdCtx.Engine.Store()
	profile := cmdCtx.Cfg.Profile

	ruleList, err := st.Load(ctx, profile)
	if err != nil {
		return err
	}

	rule := tpl.Instantiate(ruleList)
	ruleList = append(ruleList, rule)
	if err := st.Save(ctx, profile, ruleList); err != nil {
		return err
	}

	r.Success(fmt.Sprintf("Applied template %q as rule %q (%s)", tpl.Name, rule.Name, shortID(rule.ID)))
	return nil
}
