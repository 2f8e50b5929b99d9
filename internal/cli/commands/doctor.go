package commands

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/cli/output"
	"github.com/gridstack-labs/gridstyle/internal/grid"
	"github.com/gridstack-labs/gridstyle/internal/templates"
	"github.com/gridstack-labs/gridstyle/pkg/compiler"
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/parser"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a comprehensive project health check",
		Long: `Analyze your GridStyle project for potential issues.

The doctor command checks the profile store, the active profile's rules,
the data feed, and the template gallery, and provides a report including:
- Project summary (profiles, rules, feed, store backend)
- Health checks grouped by category
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  gridstyle doctor

  # Output as JSON
  gridstyle doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProfileSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProfileSummary contains project-level statistics.
type ProfileSummary struct {
	StoreBackend string `json:"store_backend"`
	Profiles     int    `json:"profiles"`
	Profile      string `json:"profile"`
	Rules        int    `json:"rules"`
	Enabled      int    `json:"enabled"`
	FeedRows     int    `json:"feed_rows"`
	FeedColumns  int    `json:"feed_columns"`
	Templates    int    `json:"templates"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	CheckID    string   `json:"check_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
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

	doctorOutput := buildDoctorOutput(cmd, cmdCtx)

	// Render based on mode
	effectiveMode := r.EffectiveMode()
	switch effectiveMode {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

func buildDoctorOutput(cmd *cobra.Command, cmdCtx *CommandContext) *DoctorOutput {
	ctx := cmd.Context()
	cfg := cmdCtx.Cfg
	eng := cmdCtx.Engine

	summary := ProfileSummary{
		StoreBackend: cfg.Store.Backend,
		Profile:      cfg.Profile,
	}
	var checks []HealthCheck

	// Store checks
	profiles, err := eng.Store().List(ctx)
	if err != nil {
		checks = append(checks, HealthCheck{
			CheckID: "ST01", Name: "Profile store reachable", Group: "store",
			Status: "error", IssueCount: 1, Details: []string{err.Error()},
		})
	} else {
		summary.Profiles = len(profiles)
		checks = append(checks, HealthCheck{
			CheckID: "ST01", Name: "Profile store reachable", Group: "store", Status: "pass",
		})

		found := false
		for _, p := range profiles {
			if p.Key == cfg.Profile {
				found = true
				break
			}
		}
		check := HealthCheck{CheckID: "ST02", Name: "Active profile exists", Group: "store", Status: "pass"}
		if !found {
			check.Status = "warn"
			check.IssueCount = 1
			check.Details = []string{fmt.Sprintf("profile %q has never been saved; it loads as an empty rule set", cfg.Profile)}
		}
		checks = append(checks, check)
	}

	// Rule checks
	ruleList, err := eng.Store().Load(ctx, cfg.Profile)
	if err != nil {
		checks = append(checks, HealthCheck{
			CheckID: "RL01", Name: "Active profile loads", Group: "rules",
			Status: "error", IssueCount: 1, Details: []string{err.Error()},
		})
	} else {
		summary.Rules = len(ruleList)
		for _, rule := range ruleList {
			if rule.Enabled {
				summary.Enabled++
			}
		}
		checks = append(checks, HealthCheck{
			CheckID: "RL01", Name: "Active profile loads", Group: "rules", Status: "pass",
		})
		checks = append(checks, validationCheck(ruleList))
		comp := compiler.Compile(cfg.InstanceID, ruleList, cmdCtx.Logger)
		checks = append(checks, compilationCheck(comp))
		checks = append(checks, priorityTieCheck(ruleList))
	}

	// Feed checks
	if cfg.FeedPath == "" {
		checks = append(checks, HealthCheck{
			CheckID: "FD01", Name: "Data feed configured", Group: "feed",
			Status: "warn", IssueCount: 1,
			Details: []string{"no feed configured; preview and watch need one"},
		})
	} else {
		checks = append(checks, HealthCheck{
			CheckID: "FD01", Name: "Data feed configured", Group: "feed", Status: "pass",
		})
		if err := eng.EnsureFeed(); err != nil {
			checks = append(checks, HealthCheck{
				CheckID: "FD02", Name: "Data feed loads", Group: "feed",
				Status: "error", IssueCount: 1, Details: []string{err.Error()},
			})
		} else {
			g := eng.Grid()
			summary.FeedRows = g.RowCount()
			summary.FeedColumns = len(g.Columns())
			checks = append(checks, HealthCheck{
				CheckID: "FD02", Name: "Data feed loads", Group: "feed", Status: "pass",
			})
			checks = append(checks, unknownFieldsCheck(ruleList, g.Columns()))
		}
	}

	// Template checks
	lib, err := templates.Load(cfg.TemplatesDir, cmdCtx.Logger)
	if err != nil {
		checks = append(checks, HealthCheck{
			CheckID: "TP01", Name: "Template gallery loads", Group: "templates",
			Status: "error", IssueCount: 1, Details: []string{err.Error()},
		})
	} else {
		summary.Templates = len(lib.All())
		checks = append(checks, HealthCheck{
			CheckID: "TP01", Name: "Template gallery loads", Group: "templates", Status: "pass",
		})
	}

	// Sort health checks by group then by check ID
	sort.Slice(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].CheckID < checks[j].CheckID
	})

	issueCount := 0
	for _, check := range checks {
		issueCount += check.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks, summary.Rules),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issueCount,
	}
}

func validationCheck(ruleList []core.Rule) HealthCheck {
	check := HealthCheck{CheckID: "RL02", Name: "Rules pass validation", Group: "rules", Status: "pass"}
	for i, result := range rules.ValidateAll(ruleList) {
		if result.IsValid {
			continue
		}
		check.IssueCount++
		for _, msg := range result.Errors {
			check.Details = append(check.Details, fmt.Sprintf("%s: %s", ruleList[i].Name, msg))
		}
	}
	if check.IssueCount > 0 {
		check.Status = "warn"
	}
	return check
}

func compilationCheck(comp *compiler.Compilation) HealthCheck {
	check := HealthCheck{CheckID: "RL03", Name: "Expressions compile", Group: "rules", Status: "pass"}
	for _, ce := range comp.Errors {
		check.IssueCount++
		check.Details = append(check.Details, ce.Error())
	}
	if check.IssueCount > 0 {
		// A broken expression never matches; the rule is silently inert.
		check.Status = "error"
	}
	return check
}

func priorityTieCheck(ruleList []core.Rule) HealthCheck {
	check := HealthCheck{CheckID: "RL04", Name: "Priorities are unique", Group: "rules", Status: "pass"}
	byPriority := make(map[int][]string)
	for _, rule := range ruleList {
		if !rule.Enabled {
			continue
		}
		byPriority[rule.Priority] = append(byPriority[rule.Priority], rule.Name)
	}
	priorities := make([]int, 0, len(byPriority))
	for p := range byPriority {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)
	for _, p := range priorities {
		names := byPriority[p]
		if len(names) < 2 {
			continue
		}
		check.IssueCount++
		check.Details = append(check.Details,
			fmt.Sprintf("priority %d is shared by %s; ties resolve by stored order", p, strings.Join(names, ", ")))
	}
	if check.IssueCount > 0 {
		check.Status = "warn"
	}
	return check
}

// unknownFieldsCheck flags rules whose expressions reference fields the
// feed does not carry. Such references resolve to null, so the rule may
// never match.
func unknownFieldsCheck(ruleList []core.Rule, cols []grid.Column) HealthCheck {
	check := HealthCheck{CheckID: "FD03", Name: "Rule fields exist in feed", Group: "feed", Status: "pass"}

	known := make(map[string]bool, len(cols))
	for _, col := range cols {
		known[col.ID] = true
	}

	for _, rule := range ruleList {
		expr, err := parser.Parse(rule.Expression)
		if err != nil {
			continue // RL03 already reports parse failures
		}
		refs := make(map[string]bool)
		collectFieldRefs(expr, refs)
		var unknown []string
		for name := range refs {
			if !known[name] {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) == 0 {
			continue
		}
		sort.Strings(unknown)
		check.IssueCount++
		check.Details = append(check.Details,
			fmt.Sprintf("%s references unknown [%s]", rule.Name, strings.Join(unknown, "], [")))
	}
	if check.IssueCount > 0 {
		check.Status = "warn"
	}
	return check
}

// collectFieldRefs records every [field] name reachable from expr.
func collectFieldRefs(expr core.Expr, into map[string]bool) {
	switch e := expr.(type) {
	case *core.FieldRef:
		into[e.Name] = true
	case *core.UnaryExpr:
		collectFieldRefs(e.Expr, into)
	case *core.BinaryExpr:
		collectFieldRefs(e.Left, into)
		collectFieldRefs(e.Right, into)
	case *core.TernaryExpr:
		collectFieldRefs(e.Cond, into)
		collectFieldRefs(e.Then, into)
		collectFieldRefs(e.Else, into)
	case *core.FuncCall:
		for _, arg := range e.Args {
			collectFieldRefs(arg, into)
		}
	case *core.ParenExpr:
		collectFieldRefs(e.Expr, into)
	}
}

func calculateHealthScore(checks []HealthCheck, ruleCount int) int {
	if len(checks) == 0 {
		return 100
	}

	// Base score starts at 100
	score := 100.0

	// With more rules, each individual issue has less impact
	basePenalty := 5.0
	if ruleCount > 10 {
		basePenalty = 3.0
	}
	if ruleCount > 50 {
		basePenalty = 2.0
	}
	if ruleCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * basePenalty * 2 // Errors count double
		case "warn":
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	// Clamp to 0-100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}

		rec := getRecommendation(check.CheckID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	// Limit to top 5 recommendations
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}

	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(checkID string) string {
	switch checkID {
	case "ST01":
		return "Fix the store configuration (store.backend, store.path, store.dsn) so profiles can load"
	case "ST02":
		return "Save the profile once (gridstyle rules create, import, or templates apply) to create it"
	case "RL01":
		return "Repair or replace the stored profile document"
	case "RL02":
		return "Run 'gridstyle rules validate' and fill in the missing names, expressions, and effects"
	case "RL03":
		return "Fix the listed expressions; a rule that fails to parse never matches"
	case "RL04":
		return "Give rules distinct priorities so the application order is explicit"
	case "FD01":
		return "Point feed at a CSV or JSON file to enable preview and watch"
	case "FD02":
		return "Fix the feed file; see the parse error for details"
	case "FD03":
		return "Align rule field references with the feed's column names"
	case "TP01":
		return "Fix or remove the malformed files in the templates directory"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header1.Render("GridStyle Project Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	// Project Summary
	r.Println(styles.Header2.Render("Project Summary"))
	r.Printf("   Store: %s | Profiles: %d | Active: %s\n", out.Summary.StoreBackend, out.Summary.Profiles, out.Summary.Profile)
	r.Printf("   Rules: %d (%d enabled) | Feed: %d rows x %d columns | Templates: %d\n",
		out.Summary.Rules, out.Summary.Enabled, out.Summary.FeedRows, out.Summary.FeedColumns, out.Summary.Templates)
	r.Println("")

	// Health Checks grouped by category
	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.CheckID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		// Show first 3 details for issues
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	// Health Score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# GridStyle Project Health Report")
	r.Println("")

	// Project Summary
	r.Println("## Project Summary")
	r.Println("")
	r.Printf("- **Store**: %s\n", out.Summary.StoreBackend)
	r.Printf("- **Profiles**: %d\n", out.Summary.Profiles)
	r.Printf("- **Active Profile**: %s\n", out.Summary.Profile)
	r.Printf("- **Rules**: %d (%d enabled)\n", out.Summary.Rules, out.Summary.Enabled)
	r.Printf("- **Feed**: %d rows x %d columns\n", out.Summary.FeedRows, out.Summary.FeedColumns)
	r.Printf("- **Templates**: %d\n", out.Summary.Templates)
	r.Println("")

	// Health Checks
	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s: %s", status, check.CheckID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	// Health Score
	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
