package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/cli/output"
	"github.com/gridstack-labs/gridstyle/pkg/compiler"
	"github.com/gridstack-labs/gridstyle/pkg/core"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	CSSOut string // Write the stylesheet to this file
	Quiet  bool   // Suppress the class map, print CSS only
	Format string // Output format
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the active profile to CSS and a class map",
		Long: `Compile the active profile: skip disabled rules, parse expressions,
and emit the generated stylesheet plus the rule-to-class-name map.

Rules whose expressions fail to parse are reported but do not fail the
compilation; they compile to predicates that never match.`,
		Example: `  # Print the class map and stylesheet
  gridstyle compile

  # Write the stylesheet to a file
  gridstyle compile --css grid.css

  # Raw CSS on stdout, nothing else
  gridstyle compile --quiet

  # Machine-readable artifacts
  gridstyle compile --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.CSSOut, "css", "", "Write the stylesheet to a file")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Print raw CSS only")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

// ClassMapEntry maps one rule to its generated class name.
type ClassMapEntry struct {
	RuleID    string `json:"ruleId"`
	RuleName  string `json:"ruleName"`
	ClassName string `json:"className"`
}

// CompileJSONOutput is the JSON output structure for the compile command.
type CompileJSONOutput struct {
	Profile    string          `json:"profile"`
	InstanceID string          `json:"instanceId"`
	Rules      int             `json:"rules"`
	Compiled   int             `json:"compiled"`
	Classes    []ClassMapEntry `json:"classes"`
	CSS        string          `json:"css"`
	Errors     []string        `json:"errors,omitempty"`
}

func runCompile(cmd *cobra.Command, opts *CompileOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	profile := cmdCtx.Cfg.Profile
	ruleList, err := cmdCtx.Engine.Store().Load(cmd.Context(), profile)
	if err != nil {
		return err
	}

	comp := compiler.Compile(cmdCtx.Cfg.InstanceID, ruleList, cmdCtx.Logger)
	css := comp.Stylesheet().String()

	if opts.CSSOut != "" {
		if err := os.WriteFile(opts.CSSOut, []byte(css), 0o644); err != nil {
			return fmt.Errorf("failed to write stylesheet: %w", err)
		}
	}

	if opts.Quiet {
		r.Printf("%s", css)
		return nil
	}

	enabled := 0
	for _, rule := range ruleList {
		if rule.Enabled {
			enabled++
		}
	}

	mode := r.EffectiveMode()
	switch mode {
	case output.ModeJSON:
		return compileJSON(r, comp, profile, cmdCtx.Cfg.InstanceID, ruleList, enabled, css)
	case output.ModeMarkdown:
		return compileMarkdown(r, comp, profile, ruleList, enabled, css, opts)
	default:
		return compileText(r, comp, profile, ruleList, enabled, css, opts)
	}
}

// ruleNameByID builds the id-to-name index used by the class map output.
func ruleNameByID(ruleList []core.Rule) map[string]string {
	names := make(map[string]string, len(ruleList))
	for _, rule := range ruleList {
		names[rule.ID] = rule.Name
	}
	return names
}

func compileText(r *output.Renderer, comp *compiler.Compilation, profile string, ruleList []core.Rule, enabled int, css string, opts *CompileOptions) error {
	styles := r.Styles()
	names := ruleNameByID(ruleList)

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Compiled profile %q (%d of %d rules enabled)", profile, enabled, len(ruleList))))
	r.Println("")

	if entries := comp.Styles(); len(entries) > 0 {
		r.Println(styles.Header2.Render("Class Map"))
		r.Println("")
		for _, entry := range entries {
			r.Printf("  %s  %s\n", styles.Info.Render(entry.ClassName), names[entry.RuleID])
		}
		r.Println("")
	}

	if len(comp.Errors) > 0 {
		r.Println(styles.Header2.Render("Compile Errors"))
		r.Println("")
		for _, ce := range comp.Errors {
			r.Printf("  %s %s\n", styles.StatusFailed.String(), ce.Error())
		}
		r.Println("")
	}

	if opts.CSSOut != "" {
		r.Success(fmt.Sprintf("Wrote stylesheet to %s", opts.CSSOut))
		return nil
	}

	r.Println(styles.Header2.Render("Stylesheet"))
	r.Println("")
	r.Printf("%s", css)
	r.Println("")
	return nil
}

func compileMarkdown(r *output.Renderer, comp *compiler.Compilation, profile string, ruleList []core.Rule, enabled int, css string, opts *CompileOptions) error {
	names := ruleNameByID(ruleList)

	r.Printf("# Compiled %s\n\n", profile)
	r.Printf("%d of %d rules enabled\n\n", enabled, len(ruleList))

	if entries := comp.Styles(); len(entries) > 0 {
		r.Println("## Class Map")
		r.Println("")
		for _, entry := range entries {
			r.Printf("- `%s` - %s\n", entry.ClassName, names[entry.RuleID])
		}
		r.Println("")
	}

	if len(comp.Errors) > 0 {
		r.Println("## Compile Errors")
		r.Println("")
		for _, ce := range comp.Errors {
			r.Println("- " + ce.Error())
		}
		r.Println("")
	}

	if opts.CSSOut == "" {
		r.Println("## Stylesheet")
		r.Println("")
		r.Println("```css")
		r.Printf("%s", css)
		r.Println("```")
		r.Println("")
	}
	return nil
}

func compileJSON(r *output.Renderer, comp *compiler.Compilation, profile, instanceID string, ruleList []core.Rule, enabled int, css string) error {
	names := ruleNameByID(ruleList)

	jsonOutput := CompileJSONOutput{
		Profile:    profile,
		InstanceID: instanceID,
		Rules:      len(ruleList),
		Compiled:   enabled,
		CSS:        css,
	}
	for _, entry := range comp.Styles() {
		jsonOutput.Classes = append(jsonOutput.Classes, ClassMapEntry{
			RuleID:    entry.RuleID,
			RuleName:  names[entry.RuleID],
			ClassName: entry.ClassName,
		})
	}
	for _, ce := range comp.Errors {
		jsonOutput.Errors = append(jsonOutput.Errors, ce.Error())
	}

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput)
}
