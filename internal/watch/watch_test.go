package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstack-labs/gridstyle/internal/config"
	"github.com/gridstack-labs/gridstyle/internal/engine"
)

const oneRuleDoc = `[
  {"id": "r1", "name": "Neg", "enabled": true, "priority": 1,
   "expression": "[change] < 0",
   "formatting": {"style": {"color": "#c62828"}},
   "scope": {"target": "cell"}}
]`

const twoRuleDoc = `[
  {"id": "r1", "name": "Neg", "enabled": true, "priority": 1,
   "expression": "[change] < 0",
   "formatting": {"style": {"color": "#c62828"}},
   "scope": {"target": "cell"}},
  {"id": "r2", "name": "Pos", "enabled": true, "priority": 2,
   "expression": "[change] > 0",
   "formatting": {"style": {"color": "#2e7d32"}},
   "scope": {"target": "cell"}}
]`

func testEngine(t *testing.T, withFeed bool) (*engine.Engine, string, string) {
	t.Helper()
	dir := t.TempDir()
	profiles := filepath.Join(dir, "profiles")
	require.NoError(t, os.MkdirAll(profiles, 0o750))

	cfg := &config.Config{
		ProjectRoot: dir,
		Profile:     "default",
		InstanceID:  "blotter",
		Store:       config.StoreConfig{Backend: "file", Path: profiles},
	}

	feed := ""
	if withFeed {
		feed = filepath.Join(dir, "feed.csv")
		require.NoError(t, os.WriteFile(feed, []byte("symbol,change\nAAPL,1.5\nMSFT,-2.0\n"), 0o600))
		cfg.FeedPath = feed
	}

	eng, err := engine.New(t.Context(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng, profiles, feed
}

func TestNew_NothingToWatch(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		ProjectRoot: dir,
		Profile:     "default",
		InstanceID:  "blotter",
		Store:       config.StoreConfig{Backend: "sqlite", Path: ":memory:"},
	}
	eng, err := engine.New(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	_, err = New(Config{Engine: eng})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to watch")
}

func TestWatchedPaths(t *testing.T) {
	eng, profiles, feed := testEngine(t, true)

	w, err := New(Config{Engine: eng})
	require.NoError(t, err)
	assert.Equal(t, []string{profiles, feed}, w.WatchedPaths())
}

func TestClassify(t *testing.T) {
	eng, profiles, feed := testEngine(t, true)

	w, err := New(Config{Engine: eng})
	require.NoError(t, err)

	tests := []struct {
		name  string
		event fsnotify.Event
		kind  Kind
		match bool
	}{
		{
			name:  "active profile write",
			event: fsnotify.Event{Name: filepath.Join(profiles, "default.json"), Op: fsnotify.Write},
			kind:  KindProfile,
			match: true,
		},
		{
			name:  "active profile atomic create",
			event: fsnotify.Event{Name: filepath.Join(profiles, "default.json"), Op: fsnotify.Create},
			kind:  KindProfile,
			match: true,
		},
		{
			name:  "other profile ignored",
			event: fsnotify.Event{Name: filepath.Join(profiles, "scratch.json"), Op: fsnotify.Write},
			match: false,
		},
		{
			name:  "non-json ignored",
			event: fsnotify.Event{Name: filepath.Join(profiles, "default.json.swp"), Op: fsnotify.Write},
			match: false,
		},
		{
			name:  "feed write",
			event: fsnotify.Event{Name: feed, Op: fsnotify.Write},
			kind:  KindFeed,
			match: true,
		},
		{
			name:  "sibling of feed ignored",
			event: fsnotify.Event{Name: filepath.Join(filepath.Dir(feed), "other.csv"), Op: fsnotify.Write},
			match: false,
		},
		{
			name:  "chmod ignored",
			event: fsnotify.Event{Name: feed, Op: fsnotify.Chmod},
			match: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, match := w.classify(tt.event)
			require.Equal(t, tt.match, match)
			if tt.match {
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestRun_ReloadsProfileAndFeed(t *testing.T) {
	eng, profiles, feed := testEngine(t, true)

	profilePath := filepath.Join(profiles, "default.json")
	require.NoError(t, os.WriteFile(profilePath, []byte(oneRuleDoc), 0o600))

	_, ruleList, err := eng.ActivateProfile(t.Context(), "")
	require.NoError(t, err)
	require.Len(t, ruleList, 1)

	w, err := New(Config{Engine: eng, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the inotify registrations a moment before touching files.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(profilePath, []byte(twoRuleDoc), 0o600))
	ev := waitEvent(t, w.Events(), KindProfile)
	require.NoError(t, ev.Err)
	assert.Equal(t, 2, ev.Rules)
	assert.Zero(t, ev.CompileErrors)
	assert.Len(t, eng.Registry().CellPredicates("blotter", "change"), 2)

	require.NoError(t, os.WriteFile(feed, []byte("symbol,change\nAAPL,1.5\nMSFT,-2.0\nTSLA,0.4\n"), 0o600))
	ev = waitEvent(t, w.Events(), KindFeed)
	require.NoError(t, ev.Err)
	assert.Equal(t, 3, eng.Grid().RowCount())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

// waitEvent drains the channel until an event of the wanted kind arrives.
func waitEvent(t *testing.T, events <-chan Event, want Kind) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event within deadline", want)
			return Event{}
		}
	}
}
