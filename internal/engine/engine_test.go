package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstack-labs/gridstyle/internal/config"
	"github.com/gridstack-labs/gridstyle/pkg/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ProjectRoot: dir,
		Profile:     "default",
		InstanceID:  "blotter",
		Store: config.StoreConfig{
			Backend: "file",
			Path:    filepath.Join(dir, "profiles"),
		},
	}
}

func sampleRules() []core.Rule {
	return []core.Rule{
		{
			ID:         "pos",
			Name:       "positive",
			Enabled:    true,
			Priority:   1,
			Expression: "[value] > 0",
			Formatting: core.Formatting{Style: core.StyleDecl{"color": "green"}},
			Scope:      core.Scope{Target: core.TargetCell, ApplyToColumns: []string{"change"}},
		},
	}
}

func TestNew_FileBackend(t *testing.T) {
	e, err := New(t.Context(), testConfig(t), nil)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "blotter", e.Grid().InstanceID())
	assert.Equal(t, "default", e.ActiveProfile())
	require.NotNil(t, e.Store())
	require.NotNil(t, e.Registry())
	require.NotNil(t, e.Transforms())
}

func TestNew_SQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "sqlite"
	cfg.Store.Path = ":memory:"

	e, err := New(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Store().Save(t.Context(), "main", sampleRules()))
	loaded, err := e.Store().Load(t.Context(), "main")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "etcd"

	_, err := New(t.Context(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store backend "etcd"`)
}

func TestActivateProfile(t *testing.T) {
	e, err := New(t.Context(), testConfig(t), nil)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Store().Save(t.Context(), "trading", sampleRules()))

	comp, ruleList, err := e.ActivateProfile(t.Context(), "trading")
	require.NoError(t, err)
	require.NotNil(t, comp)
	assert.Empty(t, comp.Errors)
	assert.Len(t, ruleList, 1)
	assert.Equal(t, "trading", e.ActiveProfile())

	// The compiled rules are live on the registry.
	assert.Len(t, e.Registry().CellPredicates("blotter", "change"), 1)
	assert.Contains(t, e.Registry().CSS("blotter"), "gs-blotter-pos")
}

func TestActivateProfile_MissingActivatesEmpty(t *testing.T) {
	e, err := New(t.Context(), testConfig(t), nil)
	require.NoError(t, err)
	defer e.Close()

	comp, ruleList, err := e.ActivateProfile(t.Context(), "never-saved")
	require.NoError(t, err)
	assert.Empty(t, comp.Errors)
	assert.Empty(t, ruleList)
	assert.Empty(t, e.Registry().CellPredicates("blotter", "change"))
}

func TestActivateProfile_DefaultKey(t *testing.T) {
	e, err := New(t.Context(), testConfig(t), nil)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Store().Save(t.Context(), "default", sampleRules()))

	_, ruleList, err := e.ActivateProfile(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, ruleList, 1)
	assert.Equal(t, "default", e.ActiveProfile())
}

func TestEnsureFeed(t *testing.T) {
	cfg := testConfig(t)
	e, err := New(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	err = e.EnsureFeed()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data feed configured")

	feed := filepath.Join(t.TempDir(), "feed.csv")
	writeFile(t, feed, "change\n1.5\n-2\n")
	cfg.FeedPath = feed

	require.NoError(t, e.EnsureFeed())
	assert.Equal(t, 2, e.Grid().RowCount())

	// Second call is a no-op.
	require.NoError(t, e.EnsureFeed())
}

func TestLoadFeedAndPaint(t *testing.T) {
	e, err := New(t.Context(), testConfig(t), nil)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Store().Save(t.Context(), "default", sampleRules()))
	_, _, err = e.ActivateProfile(t.Context(), "")
	require.NoError(t, err)

	feed := filepath.Join(t.TempDir(), "feed.csv")
	writeFile(t, feed, "symbol,change\nAAPL,1.5\nMSFT,-2\n")
	require.NoError(t, e.LoadFeed(feed))

	styles := e.Grid().RowStyles(0)
	require.Len(t, styles, 2)
	assert.True(t, styles[1].Styled())

	down := e.Grid().RowStyles(1)
	assert.False(t, down[1].Styled())
}
