package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/engine"
	"github.com/gridstack-labs/gridstyle/pkg/eval"
	"github.com/gridstack-labs/gridstyle/pkg/parser"
)

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive expression REPL",
		Long: `Start an interactive REPL for trying out rule expressions.

Expressions are evaluated against one feed row at a time; switch rows
with .row. Tab completion covers field references, function names, and
dot-commands. History is kept next to the profile store.`,
		Example: `  gridstyle repl
  gridstyle> [change] < 0
  false
  gridstyle> .row 1
  gridstyle> ABS([change]) > AVG([change])
  true`,
		RunE: runRepl,
	}
	return cmd
}

func runRepl(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	eng := cmdCtx.Engine

	// Load the feed if one is configured; the REPL still works without
	// one, with field references resolving to null.
	hasFeed := cmdCtx.Cfg.FeedPath != ""
	if hasFeed {
		if err := eng.EnsureFeed(); err != nil {
			return err
		}
	}

	// History lives next to the profile store
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.Store.Path), "repl_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gridstyle> ",
		HistoryFile:     historyFile,
		AutoComplete:    newExprCompleter(eng),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "GridStyle Expression REPL (profile: %s)\n", eng.ActiveProfile())
	if !hasFeed {
		_, _ = fmt.Fprintln(out, "No feed loaded; field references resolve to null")
	}
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	currentRow := 0
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := handleReplCommand(cmd, eng, line, &currentRow); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Evaluate the expression against the current row
		expr, err := parser.Parse(line)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Parse error: %v\n", err)
			continue
		}
		value, err := eval.Evaluate(expr, eng.Grid().Context(currentRow, ""))
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		_, _ = fmt.Fprintln(out, eval.FormatValue(value))
	}

	return nil
}

func handleReplCommand(cmd *cobra.Command, eng *engine.Engine, line string, currentRow *int) bool {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printReplHelp(out)
		return true

	case ".columns":
		g := eng.Grid()
		cols := g.Columns()
		if len(cols) == 0 {
			_, _ = fmt.Fprintln(out, "(no feed loaded)")
			return true
		}
		for _, col := range cols {
			value := g.ValueAt(*currentRow, col.ID)
			_, _ = fmt.Fprintf(out, "  [%s] = %s\n", col.ID, eval.FormatValue(value))
		}
		return true

	case ".row":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "Current row: %d of %d\n", *currentRow, eng.Grid().RowCount())
			return true
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 || n >= eng.Grid().RowCount() {
			_, _ = fmt.Fprintf(errOut, "Invalid row (feed has %d rows)\n", eng.Grid().RowCount())
			return true
		}
		*currentRow = n
		for k, v := range eng.Grid().Row(n) {
			_, _ = fmt.Fprintf(out, "  [%s] = %s\n", k, eval.FormatValue(v))
		}
		return true

	case ".rules":
		ruleList, err := eng.Store().Load(cmd.Context(), eng.ActiveProfile())
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return true
		}
		if len(ruleList) == 0 {
			_, _ = fmt.Fprintln(out, "(no rules in profile)")
			return true
		}
		for _, rule := range ruleList {
			marker := " "
			if !rule.Enabled {
				marker = "-"
			}
			_, _ = fmt.Fprintf(out, "  %s p%-3d %s: %s\n", marker, rule.Priority, rule.Name, rule.Expression)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printReplHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .columns        List feed columns with current-row values
  .row [n]        Show or switch the evaluation row
  .rules          List the active profile's rules
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - Reference fields as [name]: [price] > 100
  - Use arrow keys to navigate history
  - Tab completion works for fields and functions
`
	_, _ = fmt.Fprintln(w, help)
}

// newExprCompleter creates a readline completer for field references,
// function names, and dot-commands.
func newExprCompleter(eng *engine.Engine) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, col := range eng.Grid().Columns() {
		items = append(items, readline.PcItem("["+col.ID+"]"))
	}
	for _, name := range eval.KnownFunctions() {
		items = append(items, readline.PcItem(name+"("))
	}

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".columns"),
		readline.PcItem(".row"),
		readline.PcItem(".rules"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
