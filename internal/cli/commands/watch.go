package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridstack-labs/gridstyle/internal/render"
	"github.com/gridstack-labs/gridstyle/internal/tui"
	"github.com/gridstack-labs/gridstyle/internal/watch"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Feed string // Feed file override
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of the formatted grid",
		Long: `Open a live terminal view of the data feed with the active profile
applied.

Profile files and the feed are watched for changes; edits recompile and
repaint without restarting. Press ? inside the view for key bindings.`,
		Example: `  # Watch the configured feed
  gridstyle watch

  # Watch a specific feed with a specific profile
  gridstyle watch --feed quotes.csv -p trading`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Feed, "feed", "", "Feed file to watch (overrides config)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	eng := cmdCtx.Engine

	// The watcher derives its paths from the engine config, so a feed
	// override has to land there before watch.New reads it.
	if opts.Feed != "" {
		if err := eng.LoadFeed(opts.Feed); err != nil {
			return err
		}
		cmdCtx.Cfg.FeedPath = opts.Feed
	} else if cmdCtx.Cfg.FeedPath != "" {
		if err := eng.EnsureFeed(); err != nil {
			return err
		}
	}

	comp, ruleList, err := eng.ActivateProfile(cmd.Context(), "")
	if err != nil {
		return err
	}

	// A watcher is optional: with a non-file store and no feed there is
	// nothing to watch, and the view still works with manual reloads.
	watcher, err := watch.New(watch.Config{Engine: eng, Logger: cmdCtx.Logger})
	if err != nil {
		watcher = nil
		cmdCtx.Logger.Debug("running without file watching", "reason", err)
	}

	model, err := tui.New(tui.Config{
		Engine:        eng,
		Watcher:       watcher,
		ColorProfile:  render.Profile(cmdCtx.Cfg.Color, os.Stdout),
		Rules:         len(ruleList),
		CompileErrors: len(comp.Errors),
		Logger:        cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	if err := tui.Run(cmd.Context(), model); err != nil {
		return fmt.Errorf("watch session failed: %w", err)
	}
	return nil
}
