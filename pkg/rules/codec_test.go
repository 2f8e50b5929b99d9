package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

func sampleRules() []core.Rule {
	return []core.Rule{
		{
			ID:         "r1",
			Name:       "Positive",
			Enabled:    true,
			Priority:   1,
			Expression: "[value] > 0",
			Formatting: core.Formatting{Style: core.StyleDecl{"backgroundColor": "#c8e6c9"}},
			Scope:      core.Scope{Target: core.TargetCell},
		},
		{
			ID:         "r2",
			Name:       "Completed rows",
			Enabled:    false,
			Priority:   2,
			Expression: `[Status] = "Completed"`,
			Formatting: core.Formatting{
				CellClass: []string{"done"},
				Icon:      &core.IconSpec{Name: "check", Position: core.IconEnd, Color: "green"},
			},
			Scope: core.Scope{Target: core.TargetRow, HighlightEntireRow: true},
		},
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	orig := sampleRules()

	data, err := rules.Export(orig)
	require.NoError(t, err)

	imported := rules.Import(data)
	require.Len(t, imported, len(orig))

	for i := range orig {
		assert.NotEqual(t, orig[i].ID, imported[i].ID, "imported rules get fresh ids")
		assert.NotEmpty(t, imported[i].ID)
		assert.Equal(t, orig[i].Name, imported[i].Name)
		assert.Equal(t, orig[i].Enabled, imported[i].Enabled)
		assert.Equal(t, orig[i].Priority, imported[i].Priority)
		assert.Equal(t, orig[i].Expression, imported[i].Expression)
		assert.Equal(t, orig[i].Formatting, imported[i].Formatting)
		assert.Equal(t, orig[i].Scope, imported[i].Scope)
	}
}

func TestExport_EmptyList(t *testing.T) {
	data, err := rules.Export(nil)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestImport_RejectsNonArrays(t *testing.T) {
	payloads := []struct {
		name string
		data string
	}{
		{"object", `{"id": "r1"}`},
		{"null", "null"},
		{"number", "42"},
		{"string", `"rules"`},
		{"garbage", "not json at all"},
		{"empty", ""},
		{"truncated array", `[{"id": "r1"`},
	}

	for _, tt := range payloads {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, rules.Import([]byte(tt.data)))
		})
	}
}

func TestImport_EmptyArray(t *testing.T) {
	got := rules.Import([]byte("[]"))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecode_Defaults(t *testing.T) {
	t.Run("missing enabled defaults to true", func(t *testing.T) {
		got, err := rules.Decode([]byte(`[{"id":"r1","name":"n","expression":"[a] > 0"}]`))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Enabled)
	})

	t.Run("explicit false stays false", func(t *testing.T) {
		got, err := rules.Decode([]byte(`[{"id":"r1","name":"n","expression":"[a]","enabled":false}]`))
		require.NoError(t, err)
		assert.False(t, got[0].Enabled)
	})

	t.Run("missing scope defaults to cell", func(t *testing.T) {
		got, err := rules.Decode([]byte(`[{"id":"r1","name":"n","expression":"[a]"}]`))
		require.NoError(t, err)
		assert.Equal(t, core.TargetCell, got[0].Scope.Target)
	})

	t.Run("missing priority defaults to zero", func(t *testing.T) {
		got, err := rules.Decode([]byte(`[{"id":"r1","name":"n","expression":"[a]"}]`))
		require.NoError(t, err)
		assert.Equal(t, 0, got[0].Priority)
	})

	t.Run("stored ids are preserved", func(t *testing.T) {
		got, err := rules.Decode([]byte(`[{"id":"keep-me","name":"n","expression":"[a]"}]`))
		require.NoError(t, err)
		assert.Equal(t, "keep-me", got[0].ID)
	})
}

func TestDecode_LegacyStylesField(t *testing.T) {
	t.Run("legacy styles backfills formatting.style", func(t *testing.T) {
		payload := `[{"id":"r1","name":"n","expression":"[a]","styles":{"backgroundColor":"red"}}]`
		got, err := rules.Decode([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, core.StyleDecl{"backgroundColor": "red"}, got[0].Formatting.Style)
	})

	t.Run("canonical formatting.style wins over legacy", func(t *testing.T) {
		payload := `[{
			"id": "r1", "name": "n", "expression": "[a]",
			"styles": {"backgroundColor": "red"},
			"formatting": {"style": {"backgroundColor": "blue"}}
		}]`
		got, err := rules.Decode([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, core.StyleDecl{"backgroundColor": "blue"}, got[0].Formatting.Style)
	})
}

func TestDecode_CellClassShapes(t *testing.T) {
	t.Run("single string", func(t *testing.T) {
		payload := `[{"id":"r1","name":"n","expression":"[a]","formatting":{"cellClass":"hot"}}]`
		got, err := rules.Decode([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, []string{"hot"}, got[0].Formatting.CellClass)
	})

	t.Run("array of strings", func(t *testing.T) {
		payload := `[{"id":"r1","name":"n","expression":"[a]","formatting":{"cellClass":["hot","flash"]}}]`
		got, err := rules.Decode([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, []string{"hot", "flash"}, got[0].Formatting.CellClass)
	})

	t.Run("null", func(t *testing.T) {
		payload := `[{"id":"r1","name":"n","expression":"[a]","formatting":{"cellClass":null}}]`
		got, err := rules.Decode([]byte(payload))
		require.NoError(t, err)
		assert.Empty(t, got[0].Formatting.CellClass)
	})
}

func TestDropIncomplete(t *testing.T) {
	input := []core.Rule{
		{ID: "r1", Name: "ok", Expression: "[a] > 0"},
		{ID: "", Name: "no id", Expression: "[a]"},
		{ID: "r3", Name: "", Expression: "[a]"},
		{ID: "r4", Name: "no expr", Expression: ""},
		{ID: "r5", Name: "also ok", Expression: "[b] < 1"},
	}

	got := rules.DropIncomplete(input)

	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "r5", got[1].ID)
}
