// Package watch reloads the engine when its rule or feed files change on
// disk. Profile changes re-activate the current profile (recompiling and
// swapping the registry); feed changes reload the grid's data. Both paths
// are debounced so editor write bursts collapse into one reload, and every
// completed reload is announced on the event channel for live consumers.
//
// Only the file store backend has watchable rule files; with sqlite or
// postgres the watcher covers the feed alone.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gridstack-labs/gridstyle/internal/engine"
)

// defaultDebounce is the quiet window after a burst of file events.
const defaultDebounce = 100 * time.Millisecond

// Kind says what a change event reloaded.
type Kind int

// Event kinds.
const (
	KindProfile Kind = iota
	KindFeed
)

func (k Kind) String() string {
	if k == KindFeed {
		return "feed"
	}
	return "profile"
}

// Event reports one completed reload. Err carries the reload failure, if
// any; Rules and CompileErrors are set for profile reloads.
type Event struct {
	Kind          Kind
	Path          string
	Err           error
	Rules         int
	CompileErrors int
}

// Config configures a Watcher.
type Config struct {
	Engine *engine.Engine
	// Debounce is the quiet window before a reload runs. Zero means 100ms.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher drives engine reloads from filesystem events.
type Watcher struct {
	eng      *engine.Engine
	debounce time.Duration
	logger   *slog.Logger

	// profileDir is the file-store directory, empty for other backends.
	profileDir string
	// feedPath is the configured feed file, empty when none is set.
	feedPath string

	events chan Event
}

// New derives the watched paths from the engine's configuration. It fails
// when neither a file-backed profile directory nor a feed path exists —
// there would be nothing to watch.
func New(cfg Config) (*Watcher, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("watch: engine is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		eng:      cfg.Engine,
		debounce: debounce,
		logger:   logger,
		events:   make(chan Event, 8),
	}

	engCfg := cfg.Engine.Config()
	if engCfg.Store.Backend == "file" || engCfg.Store.Backend == "" {
		w.profileDir = filepath.Clean(engCfg.Store.Path)
	}
	if engCfg.FeedPath != "" {
		w.feedPath = filepath.Clean(engCfg.FeedPath)
	}

	if w.profileDir == "" && w.feedPath == "" {
		return nil, fmt.Errorf("nothing to watch: store backend %q has no rule files and no feed is configured", engCfg.Store.Backend)
	}
	return w, nil
}

// Events returns the reload notification channel. Notifications are dropped
// when the consumer lags; the engine state is current either way.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// WatchedPaths lists the paths Run will watch, for logging.
func (w *Watcher) WatchedPaths() []string {
	var paths []string
	if w.profileDir != "" {
		paths = append(paths, w.profileDir)
	}
	if w.feedPath != "" {
		paths = append(paths, w.feedPath)
	}
	return paths
}

// Run blocks, reloading on file changes until the context is cancelled.
// The fsnotify watcher lives only for the duration of the call.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watching := 0
	if w.profileDir != "" {
		if err := fw.Add(w.profileDir); err != nil {
			w.logger.Warn("cannot watch profile directory", "path", w.profileDir, "error", err)
		} else {
			watching++
		}
	}
	if w.feedPath != "" {
		// Watch the parent so atomic save-and-rename editors are seen.
		if err := fw.Add(filepath.Dir(w.feedPath)); err != nil {
			w.logger.Warn("cannot watch feed directory", "path", filepath.Dir(w.feedPath), "error", err)
		} else {
			watching++
		}
	}
	if watching == 0 {
		return fmt.Errorf("no watchable paths")
	}

	// The debounce timer runs inside the loop rather than via AfterFunc so
	// a cancelled Run can never fire a reload against a closed engine.
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[Kind]string)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			kind, match := w.classify(ev)
			if !match {
				continue
			}
			pending[kind] = filepath.Clean(ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Stop()
				timer.Reset(w.debounce)
			}

		case <-timerC:
			for kind, path := range pending {
				w.reload(ctx, kind, path)
			}
			clear(pending)
			timer, timerC = nil, nil

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// classify decides whether a filesystem event concerns the active profile
// file or the feed.
func (w *Watcher) classify(ev fsnotify.Event) (Kind, bool) {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return 0, false
	}
	name := filepath.Clean(ev.Name)

	if w.feedPath != "" && name == w.feedPath {
		return KindFeed, true
	}

	if w.profileDir != "" && filepath.Dir(name) == w.profileDir {
		base := filepath.Base(name)
		if !strings.HasSuffix(base, ".json") {
			return 0, false
		}
		if strings.TrimSuffix(base, ".json") == w.eng.ActiveProfile() {
			return KindProfile, true
		}
	}
	return 0, false
}

func (w *Watcher) reload(ctx context.Context, kind Kind, path string) {
	event := Event{Kind: kind, Path: path}

	switch kind {
	case KindProfile:
		comp, ruleList, err := w.eng.ActivateProfile(ctx, w.eng.ActiveProfile())
		event.Err = err
		if err == nil {
			event.Rules = len(ruleList)
			event.CompileErrors = len(comp.Errors)
		}
	case KindFeed:
		event.Err = w.eng.LoadFeed(path)
	}

	if event.Err != nil {
		w.logger.Error("reload failed", "kind", kind.String(), "path", path, "error", event.Err)
	} else {
		w.logger.Debug("reloaded", "kind", kind.String(), "path", path)
	}

	select {
	case w.events <- event:
	default:
		// Consumer lagging; state is already current.
	}
}
