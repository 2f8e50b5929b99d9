package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/cli/output"
)

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	Feed   string // Feed file override
	Limit  int    // Maximum rows to render
	Format string // Output format
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the data feed with the active profile applied",
		Long: `Load the configured data feed, apply the active profile's rules, and
render the formatted grid.

In a terminal, matching cells are styled with their compiled colors and
icons. Piped output falls back to a plain markdown table; use --format
to force csv or json for scripting.`,
		Example: `  # Preview the configured feed
  gridstyle preview

  # Preview a specific feed with a specific profile
  gridstyle preview --feed quotes.csv -p trading

  # First 20 rows as JSON, including resolved styles
  gridstyle preview -n 20 --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Feed, "feed", "", "Feed file to render (overrides config)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum rows to render (0 = all)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, markdown")

	return cmd
}

func runPreview(cmd *cobra.Command, opts *PreviewOptions) error {
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

	eng := cmdCtx.Engine
	if opts.Feed != "" {
		if err := eng.LoadFeed(opts.Feed); err != nil {
			return err
		}
	} else if err := eng.EnsureFeed(); err != nil {
		return err
	}

	comp, _, err := eng.ActivateProfile(cmd.Context(), "")
	if err != nil {
		return err
	}
	for _, ce := range comp.Errors {
		r.Warning(fmt.Sprintf("rule failed to compile: %v", ce))
	}

	return renderGrid(r.Writer(), r.Adapter(), eng.Grid(), string(r.EffectiveMode()), opts.Limit)
}
