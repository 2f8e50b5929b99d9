package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/cli/output"
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/eval"
	"github.com/gridstack-labs/gridstyle/pkg/parser"
)

// EvalOptions holds options for the eval command.
type EvalOptions struct {
	Feed   string // Feed file override
	Row    int    // Evaluate against a single row
	Limit  int    // Maximum rows to evaluate
	Format string // Output format
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	opts := &EvalOptions{}
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against the data feed",
		Long: `Parse and evaluate one expression.

With a data feed configured the expression runs against every row and the
per-row results are printed. Without a feed it runs once with an empty
row, which is enough for arithmetic and date functions.

Field references resolve against the row ([price], [change]); references
to fields the row does not carry evaluate to null, never an error.`,
		Example: `  # Evaluate against every feed row
  gridstyle eval '[change] < 0'

  # Evaluate against one row
  gridstyle eval --row 2 'ABS([change]) > AVG([change])'

  # No feed needed
  gridstyle eval 'DATEFORMAT(TODAY(), "yyyy-MM-dd")'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Feed, "feed", "", "Feed file to evaluate against (overrides config)")
	cmd.Flags().IntVar(&opts.Row, "row", -1, "Evaluate against this row only")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum rows to evaluate (0 = all)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

// EvalRowResult is one row's evaluation outcome.
type EvalRowResult struct {
	Row    int    `json:"row"`
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// EvalJSONOutput is the JSON output structure for the eval command.
type EvalJSONOutput struct {
	Expression string          `json:"expression"`
	Results    []EvalRowResult `json:"results"`
}

func runEval(cmd *cobra.Command, expression string, opts *EvalOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	expr, err := parser.Parse(expression)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	eng := cmdCtx.Engine
	feedConfigured := opts.Feed != "" || cmdCtx.Cfg.FeedPath != ""
	if opts.Feed != "" {
		if err := eng.LoadFeed(opts.Feed); err != nil {
			return err
		}
	} else if feedConfigured {
		if err := eng.EnsureFeed(); err != nil {
			return err
		}
	}

	// Without a feed, evaluate once against an empty row.
	if !feedConfigured {
		value, err := eval.Evaluate(expr, core.RowContext{})
		if err != nil {
			return err
		}
		r.Println(eval.FormatValue(value))
		return nil
	}

	g := eng.Grid()
	start, end := 0, g.RowCount()
	if opts.Row >= 0 {
		if opts.Row >= end {
			return fmt.Errorf("row %d out of range (feed has %d rows)", opts.Row, end)
		}
		start, end = opts.Row, opts.Row+1
	}
	if opts.Limit > 0 && end-start > opts.Limit {
		end = start + opts.Limit
	}

	results := make([]EvalRowResult, 0, end-start)
	for i := start; i < end; i++ {
		res := EvalRowResult{Row: i}
		value, err := eval.Evaluate(expr, g.Context(i, ""))
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Result = value
		}
		results = append(results, res)
	}

	mode := r.EffectiveMode()
	switch mode {
	case output.ModeJSON:
		jsonOutput := EvalJSONOutput{Expression: expression, Results: results}
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(jsonOutput)
	case output.ModeMarkdown:
		r.Println("| row | result |")
		r.Println("| --- | --- |")
		for _, res := range results {
			if res.Error != "" {
				r.Printf("| %d | error: %s |\n", res.Row, res.Error)
				continue
			}
			r.Printf("| %d | %s |\n", res.Row, eval.FormatValue(res.Result))
		}
		return nil
	default:
		styles := r.Styles()
		for _, res := range results {
			if res.Error != "" {
				r.Printf("  [%d] %s\n", res.Row, styles.Error.Render(res.Error))
				continue
			}
			r.Printf("  [%d] %s\n", res.Row, eval.FormatValue(res.Result))
		}
		return nil
	}
}
