package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the active profile's rules as JSON",
		Long: `Serialize the active profile's rules to the canonical document form.

Without a file argument the document goes to stdout, ready to pipe into
'gridstyle import' elsewhere.`,
		Example: `  # Print the rule document
  gridstyle export

  # Write it to a file
  gridstyle export trading-rules.json

  # Move a profile between projects
  gridstyle export | gridstyle import --replace -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runExport(cmd, path)
		},
	}
	return cmd
}

func runExport(cmd *cobra.Command, path string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	profile := cmdCtx.Cfg.Profile
	ruleList, err := cmdCtx.Engine.Store().Load(cmd.Context(), profile)
	if err != nil {
		return err
	}

	data, err := rules.Export(ruleList)
	if err != nil {
		return err
	}

	if path == "" || path == "-" {
		r.Printf("%s\n", data)
		return nil
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	r.Success(fmt.Sprintf("Exported %d rules from profile %q to %s", len(ruleList), profile, path))
	return nil
}
