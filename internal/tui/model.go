// Package tui is the live terminal view behind gridstyle watch: the loaded
// feed rendered with the active profile's formatting, repainted as the
// watcher reloads rules or data.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/gridstack-labs/gridstyle/internal/engine"
	"github.com/gridstack-labs/gridstyle/internal/grid"
	"github.com/gridstack-labs/gridstyle/internal/render"
	"github.com/gridstack-labs/gridstyle/internal/watch"
)

// repaintInterval is how often the grid repaints without a file change.
// Keeps date-gated rules and the "updated" stamp current.
const repaintInterval = 10 * time.Second

// Config assembles a Model. Engine is required and should already have its
// feed loaded and profile activated; Watcher is optional and, when set,
// its Run loop is driven by the caller (see Run).
type Config struct {
	Engine  *engine.Engine
	Watcher *watch.Watcher
	// ColorProfile bounds styling for the output terminal.
	ColorProfile termenv.Profile
	// Rules and CompileErrors seed the header counts from the activation
	// the caller just performed.
	Rules         int
	CompileErrors int
	Logger        *slog.Logger
}

// Model is the bubbletea model for the watch view.
type Model struct {
	eng     *engine.Engine
	watcher *watch.Watcher
	adapter *render.Adapter
	styles  *render.Styles
	logger  *slog.Logger
	ctx     context.Context

	keys keyMap
	help help.Model
	spin spinner.Model

	columns []grid.Column
	cells   [][]string // rendered cell text, row-major
	widths  []int      // visible column widths, header included

	cursor int
	offset int
	width  int
	height int

	profile       string
	ruleCount     int
	compileErrors int
	lastReload    time.Time
	status        string
	errText       string
}

// watchEventMsg wraps a completed watcher reload.
type watchEventMsg watch.Event

// watcherClosedMsg reports that the watcher's event channel closed.
type watcherClosedMsg struct{}

// repaintMsg is the periodic repaint tick.
type repaintMsg time.Time

// reloadDoneMsg reports a manual reload triggered from the keyboard.
type reloadDoneMsg struct {
	rules         int
	compileErrors int
	err           error
}

// New builds the model from an engine that already holds data.
func New(cfg Config) (Model, error) {
	if cfg.Engine == nil {
		return Model{}, fmt.Errorf("tui: engine is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	adapter := render.NewAdapter(os.Stdout, cfg.ColorProfile)
	st := adapter.Styles()

	m := Model{
		eng:           cfg.Engine,
		watcher:       cfg.Watcher,
		adapter:       adapter,
		styles:        st,
		logger:        logger,
		ctx:           context.Background(),
		keys:          defaultKeyMap(),
		help:          help.New(),
		spin:          spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(st.Info)),
		ruleCount:     cfg.Rules,
		compileErrors: cfg.CompileErrors,
		lastReload:    time.Now(),
	}
	m.refreshData()
	return m, nil
}

// Init starts the repaint tick and, when watching, the event pump and the
// liveness spinner.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{repaintCmd()}
	if m.watcher != nil {
		cmds = append(cmds, m.spin.Tick, waitForEvent(m.watcher.Events()))
	}
	return tea.Batch(cmds...)
}

// Update advances the model. Engine work runs in commands; the model only
// snapshots grid state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampViewport()
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case watchEventMsg:
		ev := watch.Event(msg)
		if ev.Err != nil {
			m.errText = fmt.Sprintf("%s reload: %v", ev.Kind, ev.Err)
		} else {
			m.errText = ""
			m.status = fmt.Sprintf("%s reloaded", ev.Kind)
		}
		if ev.Kind == watch.KindProfile && ev.Err == nil {
			m.ruleCount = ev.Rules
			m.compileErrors = ev.CompileErrors
		}
		m.lastReload = time.Now()
		m.refreshData()
		if m.watcher == nil {
			return m, nil
		}
		return m, waitForEvent(m.watcher.Events())

	case watcherClosedMsg:
		m.status = "watcher stopped"
		return m, nil

	case reloadDoneMsg:
		if msg.err != nil {
			m.errText = fmt.Sprintf("reload: %v", msg.err)
		} else {
			m.errText = ""
			m.status = "reloaded"
			m.ruleCount = msg.rules
			m.compileErrors = msg.compileErrors
		}
		m.lastReload = time.Now()
		m.refreshData()
		return m, nil

	case repaintMsg:
		m.refreshData()
		return m, repaintCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.clampViewport()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.visibleRows())
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.visibleRows())
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-len(m.cells))
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.cells))
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.status = "reloading"
		return m, m.reloadCmd()
	}
	return m, nil
}

// refreshData re-renders every cell from the grid's current paint. Widths
// are visible widths, so styled text pads correctly.
func (m *Model) refreshData() {
	g := m.eng.Grid()
	m.columns = g.Columns()
	m.profile = m.eng.ActiveProfile()

	m.widths = make([]int, len(m.columns))
	for i, col := range m.columns {
		m.widths[i] = lipgloss.Width(col.Title)
	}
	painted := g.Paint()
	m.cells = make([][]string, len(painted))
	for r, row := range painted {
		line := make([]string, len(row))
		for c, cell := range row {
			s := m.adapter.Cell(cell)
			line[c] = s
			if c < len(m.widths) {
				if w := lipgloss.Width(s); w > m.widths[c] {
					m.widths[c] = w
				}
			}
		}
		m.cells[r] = line
	}
	if m.cursor >= len(m.cells) {
		m.cursor = len(m.cells) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampViewport()
}

func (m *Model) moveCursor(delta int) {
	m.cursor = boundedCursor(m.cursor, len(m.cells), delta)
	m.clampViewport()
}

// boundedCursor moves cur by delta within [0, n).
func boundedCursor(cur, n, delta int) int {
	if n == 0 {
		return 0
	}
	cur += delta
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

// clampViewport keeps the cursor inside the visible window.
func (m *Model) clampViewport() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// visibleRows is the row budget after the header, status, and help chrome.
func (m Model) visibleRows() int {
	chrome := 6
	if m.help.ShowAll {
		chrome += 3
	}
	v := m.height - chrome
	if v < 1 {
		v = 1
	}
	return v
}

func waitForEvent(events <-chan watch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watcherClosedMsg{}
		}
		return watchEventMsg(ev)
	}
}

func repaintCmd() tea.Cmd {
	return tea.Tick(repaintInterval, func(t time.Time) tea.Msg {
		return repaintMsg(t)
	})
}

// reloadCmd re-activates the profile and re-reads the feed off the Update
// loop, reporting back with a reloadDoneMsg.
func (m Model) reloadCmd() tea.Cmd {
	eng := m.eng
	ctx := m.ctx
	return func() tea.Msg {
		comp, ruleList, err := eng.ActivateProfile(ctx, "")
		if err != nil {
			return reloadDoneMsg{err: err}
		}
		done := reloadDoneMsg{rules: len(ruleList)}
		if comp != nil {
			done.compileErrors = len(comp.Errors)
		}
		if feed := eng.Config().FeedPath; feed != "" {
			if err := eng.LoadFeed(feed); err != nil {
				done.err = err
			}
		}
		return done
	}
}
