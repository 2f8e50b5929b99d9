package tui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstack-labs/gridstyle/internal/config"
	"github.com/gridstack-labs/gridstyle/internal/engine"
	"github.com/gridstack-labs/gridstyle/internal/watch"
)

const negRuleDoc = `[
  {"id": "r1", "name": "Neg", "enabled": true, "priority": 1,
   "expression": "[change] < 0",
   "formatting": {"style": {"color": "#c62828"}},
   "scope": {"target": "cell", "applyToColumns": ["change"]}}
]`

func testModel(t *testing.T, withWatcher bool) Model {
	t.Helper()
	dir := t.TempDir()
	profiles := filepath.Join(dir, "profiles")
	require.NoError(t, os.MkdirAll(profiles, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "default.json"), []byte(negRuleDoc), 0o600))
	feed := filepath.Join(dir, "feed.csv")
	require.NoError(t, os.WriteFile(feed, []byte("symbol,change\nAAPL,1.5\nMSFT,-2\nNVDA,3.25\n"), 0o600))

	cfg := &config.Config{
		ProjectRoot: dir,
		Profile:     "default",
		InstanceID:  "blotter",
		FeedPath:    feed,
		Store:       config.StoreConfig{Backend: "file", Path: profiles},
	}
	eng, err := engine.New(t.Context(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	require.NoError(t, eng.EnsureFeed())

	comp, ruleList, err := eng.ActivateProfile(t.Context(), "")
	require.NoError(t, err)

	mcfg := Config{
		Engine:       eng,
		ColorProfile: termenv.Ascii,
		Rules:        len(ruleList),
	}
	if comp != nil {
		mcfg.CompileErrors = len(comp.Errors)
	}
	if withWatcher {
		w, err := watch.New(watch.Config{Engine: eng})
		require.NoError(t, err)
		mcfg.Watcher = w
	}

	m, err := New(mcfg)
	require.NoError(t, err)
	return m
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine is required")
}

func TestNew_SnapshotsGrid(t *testing.T) {
	m := testModel(t, false)

	require.Len(t, m.columns, 2)
	assert.Equal(t, "symbol", m.columns[0].ID)
	assert.Equal(t, "change", m.columns[1].ID)
	assert.Len(t, m.cells, 3)
	assert.Equal(t, 1, m.ruleCount)
	assert.Equal(t, "default", m.profile)
	assert.GreaterOrEqual(t, m.widths[0], len("symbol"))
}

func TestUpdate_CursorNavigation(t *testing.T) {
	var mdl tea.Model = testModel(t, false)
	mdl, _ = mdl.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	mdl, _ = mdl.Update(keyRune('j'))
	assert.Equal(t, 1, mdl.(Model).cursor)

	for range 10 {
		mdl, _ = mdl.Update(keyRune('j'))
	}
	assert.Equal(t, 2, mdl.(Model).cursor, "cursor clamps at the last row")

	mdl, _ = mdl.Update(keyRune('k'))
	assert.Equal(t, 1, mdl.(Model).cursor)

	mdl, _ = mdl.Update(keyRune('g'))
	assert.Equal(t, 0, mdl.(Model).cursor)

	mdl, _ = mdl.Update(keyRune('G'))
	assert.Equal(t, 2, mdl.(Model).cursor)
}

func TestUpdate_QuitKey(t *testing.T) {
	m := testModel(t, false)

	_, cmd := m.Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_HelpToggle(t *testing.T) {
	var mdl tea.Model = testModel(t, false)

	mdl, _ = mdl.Update(keyRune('?'))
	assert.True(t, mdl.(Model).help.ShowAll)
	mdl, _ = mdl.Update(keyRune('?'))
	assert.False(t, mdl.(Model).help.ShowAll)
}

func TestUpdate_WatchEvent(t *testing.T) {
	m := testModel(t, true)

	mdl, cmd := m.Update(watchEventMsg(watch.Event{Kind: watch.KindProfile, Rules: 5, CompileErrors: 1}))
	got := mdl.(Model)
	assert.Equal(t, 5, got.ruleCount)
	assert.Equal(t, 1, got.compileErrors)
	assert.Equal(t, "profile reloaded", got.status)
	assert.NotNil(t, cmd, "event pump should re-arm")

	mdl, _ = got.Update(watchEventMsg(watch.Event{Kind: watch.KindFeed, Err: errors.New("boom")}))
	got = mdl.(Model)
	assert.Contains(t, got.errText, "feed reload")
	assert.Contains(t, got.errText, "boom")
	assert.Equal(t, 5, got.ruleCount, "error events leave the counts alone")
}

func TestUpdate_ReloadDone(t *testing.T) {
	m := testModel(t, false)

	mdl, _ := m.Update(reloadDoneMsg{rules: 2})
	got := mdl.(Model)
	assert.Equal(t, 2, got.ruleCount)
	assert.Equal(t, "reloaded", got.status)
	assert.Empty(t, got.errText)

	mdl, _ = got.Update(reloadDoneMsg{err: errors.New("no such feed")})
	got = mdl.(Model)
	assert.Contains(t, got.errText, "no such feed")
}

func TestReloadCmd_ReactivatesProfile(t *testing.T) {
	m := testModel(t, false)

	msg := m.reloadCmd()()
	done, ok := msg.(reloadDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.Equal(t, 1, done.rules)
	assert.Zero(t, done.compileErrors)
}

func TestView_RendersGridWindow(t *testing.T) {
	var mdl tea.Model = testModel(t, false)
	mdl, _ = mdl.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := mdl.(Model).View()

	assert.Contains(t, view, "gridstyle watch")
	assert.Contains(t, view, "profile default")
	assert.Contains(t, view, "1 rules")
	assert.Contains(t, view, "symbol")
	assert.Contains(t, view, "AAPL")
	assert.Contains(t, view, "-2")
	assert.Contains(t, view, "> AAPL", "cursor marker sits on the first row")
}

func TestView_ScrollsToKeepCursorVisible(t *testing.T) {
	var mdl tea.Model = testModel(t, false)
	// Height 8 leaves a two-row window.
	mdl, _ = mdl.Update(tea.WindowSizeMsg{Width: 100, Height: 8})
	mdl, _ = mdl.Update(keyRune('G'))
	view := mdl.(Model).View()

	assert.NotContains(t, view, "AAPL", "first row scrolled out")
	assert.Contains(t, view, "MSFT")
	assert.Contains(t, view, "> NVDA")
}

func TestView_NoFeed(t *testing.T) {
	dir := t.TempDir()
	profiles := filepath.Join(dir, "profiles")
	require.NoError(t, os.MkdirAll(profiles, 0o750))

	cfg := &config.Config{
		ProjectRoot: dir,
		Profile:     "default",
		InstanceID:  "blotter",
		Store:       config.StoreConfig{Backend: "file", Path: profiles},
	}
	eng, err := engine.New(t.Context(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	m, err := New(Config{Engine: eng, ColorProfile: termenv.Ascii})
	require.NoError(t, err)
	m.width = 80
	m.height = 24

	assert.Contains(t, m.View(), "no feed loaded")
}

func TestBoundedCursor(t *testing.T) {
	assert.Equal(t, 0, boundedCursor(0, 0, 1))
	assert.Equal(t, 0, boundedCursor(0, 5, -1))
	assert.Equal(t, 4, boundedCursor(3, 5, 10))
	assert.Equal(t, 2, boundedCursor(1, 5, 1))
}
