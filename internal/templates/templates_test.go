package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstack-labs/gridstyle/pkg/core"
)

func TestLoad_Builtins(t *testing.T) {
	lib, err := Load("", nil)
	require.NoError(t, err)

	for _, id := range []string{
		"negative-red", "positive-green", "big-move", "null-muted",
		"halted-row", "today-flag", "currency-prefix",
	} {
		tpl, ok := lib.Get(id)
		require.True(t, ok, "built-in template %s missing", id)
		assert.True(t, tpl.Builtin)
		assert.NotEmpty(t, tpl.Rule.Expression)
	}
}

func TestLoad_AllOrdering(t *testing.T) {
	lib, err := Load("", nil)
	require.NoError(t, err)

	all := lib.All()
	require.Len(t, all, 7)

	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.Category == cur.Category {
			assert.Less(t, prev.ID, cur.ID)
		} else {
			assert.Less(t, prev.Category, cur.Category)
		}
	}
}

func TestLoad_UserOverride(t *testing.T) {
	dir := t.TempDir()
	override := `id: negative-red
name: House negative style
category: numbers
rule:
  expression: "[value] < 0"
  formatting:
    style:
      color: "#b71c1c"
      fontWeight: bold
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "negative-red.yaml"), []byte(override), 0o600))

	lib, err := Load(dir, nil)
	require.NoError(t, err)

	tpl, ok := lib.Get("negative-red")
	require.True(t, ok)
	assert.False(t, tpl.Builtin)
	assert.Equal(t, "House negative style", tpl.Name)
	assert.Equal(t, "bold", tpl.Rule.Formatting.Style["fontWeight"])

	// The rest of the gallery is untouched.
	assert.Len(t, lib.All(), 7)
}

func TestLoad_UserAddition(t *testing.T) {
	dir := t.TempDir()
	extra := `name: Watchlist marker
description: Stars symbols on the watch list.
category: status
rule:
  expression: '[watch] == true'
  formatting:
    icon:
      name: star
      position: end
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "watchlist.yaml"), []byte(extra), 0o600))

	lib, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Len(t, lib.All(), 8)

	// The id defaults to the filename stem.
	tpl, ok := lib.Get("watchlist")
	require.True(t, ok)
	assert.Equal(t, "Watchlist marker", tpl.Name)
	require.NotNil(t, tpl.Rule.Formatting.Icon)
	assert.Equal(t, core.IconPosition("end"), tpl.Rule.Formatting.Icon.Position)
}

func TestLoad_SkipsMalformedUserFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("id: [unclosed"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "no-expr.yaml"), []byte("id: no-expr\nname: x\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a template"), 0o600))

	lib, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Len(t, lib.All(), 7)

	_, ok := lib.Get("no-expr")
	assert.False(t, ok)
}

func TestLoad_MissingUserDir(t *testing.T) {
	lib, err := Load(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, err)
	assert.Len(t, lib.All(), 7)
}

func TestInstantiate(t *testing.T) {
	lib, err := Load("", nil)
	require.NoError(t, err)

	tpl, ok := lib.Get("halted-row")
	require.True(t, ok)

	existing := []core.Rule{{ID: "a", Priority: 3}, {ID: "b", Priority: 1}}
	r := tpl.Instantiate(existing)

	assert.NotEmpty(t, r.ID)
	assert.True(t, r.Enabled)
	assert.Equal(t, 4, r.Priority)
	assert.Equal(t, core.TargetRow, r.Scope.Target)
	assert.True(t, r.Scope.HighlightEntireRow)
	assert.Equal(t, `[status] == "halted"`, r.Expression)

	// A second instantiation is an independent rule.
	r2 := tpl.Instantiate(append(existing, r))
	assert.NotEqual(t, r.ID, r2.ID)
	assert.Equal(t, 5, r2.Priority)

	// Mutating one copy's formatting must not leak into the prototype.
	r.Formatting.Style["backgroundColor"] = "#000000"
	fresh, _ := lib.Get("halted-row")
	assert.Equal(t, "#ffebee", fresh.Rule.Formatting.Style["backgroundColor"])
}

func TestInstantiate_NameFallsBackToTemplate(t *testing.T) {
	tpl := Template{
		ID:   "bare",
		Name: "Bare template",
		Rule: core.Rule{Expression: "[value] > 0"},
	}
	r := tpl.Instantiate(nil)
	assert.Equal(t, "Bare template", r.Name)
	assert.Equal(t, 1, r.Priority)
	assert.Equal(t, core.TargetCell, r.Scope.Target)
}
