package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Replace bool // Replace the profile instead of appending
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import rules into the active profile",
		Long: `Import an exported rule document into the active profile.

Every imported rule gets a fresh id, so importing the same document twice
duplicates its rules rather than overwriting anything. By default the
imported rules are appended; --replace swaps the whole profile.

Pass - to read the document from stdin.`,
		Example: `  # Append rules from a file
  gridstyle import trading-rules.json

  # Replace the profile wholesale
  gridstyle import --replace trading-rules.json

  # From stdin
  gridstyle export -p staging | gridstyle import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "Replace the profile instead of appending")

	return cmd
}

func runImport(cmd *cobra.Command, path string, opts *ImportOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}
	}

	imported := rules.Import(data)
	if imported == nil {
		return fmt.Errorf("%s is not a rule export (expected a JSON array)", path)
	}

	ctx := cmd.Context()
	st := cmdCtx.Engine.Store()
	profile := cmdCtx.Cfg.Profile

	ruleList := imported
	if !opts.Replace {
		existing, err := st.Load(ctx, profile)
		if err != nil {
			return err
		}
		ruleList = append(existing, imported...)
	}

	if err := st.Save(ctx, profile, ruleList); err != nil {
		return err
	}

	verb := "Appended"
	if opts.Replace {
		verb = "Imported"
	}
	r.Success(fmt.Sprintf("%s %d rules into profile %q (%d total)", verb, len(imported), profile, len(ruleList)))
	return nil
}
