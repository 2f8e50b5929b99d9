package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// Run drives the program and, when the model carries a watcher, the
// watcher's reload loop. Either side exiting stops the other.
func Run(ctx context.Context, m Model) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egctx := errgroup.WithContext(ctx)
	m.ctx = egctx

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(egctx))

	if m.watcher != nil {
		eg.Go(func() error {
			return m.watcher.Run(egctx)
		})
	}
	eg.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	})
	return eg.Wait()
}
