package grid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/runtime"
)

func cellRule(id, expr string, priority int, styleDecl core.StyleDecl, columns ...string) core.Rule {
	return core.Rule{
		ID:         id,
		Name:       id,
		Enabled:    true,
		Priority:   priority,
		Expression: expr,
		Formatting: core.Formatting{Style: styleDecl},
		Scope:      core.Scope{Target: core.TargetCell, ApplyToColumns: columns},
	}
}

func paintGrid(t *testing.T, ruleList []core.Rule) *Grid {
	t.Helper()
	reg := runtime.NewRegistry(runtime.NewMemorySink(), nil)
	comp := reg.Initialize("blotter", ruleList)
	require.Empty(t, comp.Errors)

	g := New(Config{InstanceID: "blotter", Registry: reg})
	g.SetData(
		[]Column{
			{ID: "symbol", Title: "Symbol"},
			{ID: "price", Title: "Price"},
			{ID: "change", Title: "Change"},
			{ID: "status", Title: "Status"},
		},
		[]map[string]any{
			{"symbol": "AAPL", "price": 182.5, "change": 1.2, "status": "open"},
			{"symbol": "MSFT", "price": 99.0, "change": -3.4, "status": "open"},
			{"symbol": "TSLA", "price": 250.0, "change": 0.0, "status": "halted"},
		},
	)
	return g
}

func cellFor(t *testing.T, g *Grid, rowIdx int, columnID string) CellStyle {
	t.Helper()
	cols := g.Columns()
	styles := g.RowStyles(rowIdx)
	require.Len(t, styles, len(cols))
	for i, col := range cols {
		if col.ID == columnID {
			return styles[i]
		}
	}
	t.Fatalf("column %q not found", columnID)
	return CellStyle{}
}

func TestRowStyles_PositiveNegativeColoring(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("pos", "[value] > 0", 10, core.StyleDecl{"color": "#2e7d32"}, "change"),
		cellRule("neg", "[value] < 0", 10, core.StyleDecl{"color": "#c62828"}, "change"),
	})

	up := cellFor(t, g, 0, "change")
	assert.Equal(t, "#2e7d32", up.Style["color"])
	assert.Equal(t, []string{"gs-blotter-pos"}, up.Classes)
	assert.True(t, up.Styled())

	down := cellFor(t, g, 1, "change")
	assert.Equal(t, "#c62828", down.Style["color"])

	flat := cellFor(t, g, 2, "change")
	assert.Empty(t, flat.Classes)
	assert.Nil(t, flat.Style)
	assert.False(t, flat.Styled())
}

func TestRowStyles_PriorityOverride(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("red", "[value] > 0", 1, core.StyleDecl{"color": "red"}, "price"),
		cellRule("blue", "[value] > 0", 2, core.StyleDecl{"color": "blue"}, "price"),
	})

	cell := cellFor(t, g, 0, "price")
	// Both match; the later-applied rule wins the conflicting property.
	assert.Equal(t, "blue", cell.Style["color"])
	assert.Equal(t, []string{"gs-blotter-red", "gs-blotter-blue"}, cell.Classes)
}

func TestRowStyles_MergeKeepsDistinctProperties(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("grn", "[value] > 100", 1, core.StyleDecl{"color": "green"}, "price"),
		cellRule("bold", "[value] > 150", 2, core.StyleDecl{"fontWeight": "bold"}, "price"),
	})

	cell := cellFor(t, g, 0, "price")
	assert.Equal(t, "green", cell.Style["color"])
	assert.Equal(t, "bold", cell.Style["fontWeight"])

	low := cellFor(t, g, 1, "price")
	assert.Empty(t, low.Style["fontWeight"])
	assert.Equal(t, "green", low.Style["color"])
}

func TestRowStyles_ScopeIsolation(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("pricey", "[value] > 0", 10, core.StyleDecl{"color": "green"}, "price"),
	})

	assert.True(t, cellFor(t, g, 0, "price").Styled())
	assert.False(t, cellFor(t, g, 0, "change").Styled())
	assert.False(t, cellFor(t, g, 0, "symbol").Styled())
}

func TestRowStyles_WildcardColumns(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("any-null", "ISNULL([value])", 10, core.StyleDecl{"backgroundColor": "#eee"}),
	})
	g.SetData(
		[]Column{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}},
		[]map[string]any{{"a": nil, "b": 1.0}},
	)

	assert.True(t, cellFor(t, g, 0, "a").Styled())
	assert.False(t, cellFor(t, g, 0, "b").Styled())
}

func TestRowStyles_RowHighlight(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		{
			ID:         "halt",
			Name:       "halted rows",
			Enabled:    true,
			Priority:   5,
			Expression: `[status] = "halted"`,
			Formatting: core.Formatting{Style: core.StyleDecl{"backgroundColor": "#fff3e0"}},
			Scope:      core.Scope{Target: core.TargetRow, HighlightEntireRow: true},
		},
	})

	for _, col := range []string{"symbol", "price", "change", "status"} {
		cell := cellFor(t, g, 2, col)
		assert.Equal(t, "#fff3e0", cell.Style["backgroundColor"], col)
		assert.Equal(t, []string{"gs-blotter-halt"}, cell.Classes, col)
	}
	assert.False(t, cellFor(t, g, 0, "status").Styled())
}

func TestRowStyles_RowLimitedToColumns(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		{
			ID:         "halt",
			Name:       "halted status",
			Enabled:    true,
			Priority:   5,
			Expression: `[status] = "halted"`,
			Formatting: core.Formatting{Style: core.StyleDecl{"backgroundColor": "#fff3e0"}},
			Scope:      core.Scope{Target: core.TargetRow, ApplyToColumns: []string{"status"}},
		},
	})

	assert.True(t, cellFor(t, g, 2, "status").Styled())
	assert.False(t, cellFor(t, g, 2, "symbol").Styled())
	assert.False(t, cellFor(t, g, 2, "price").Styled())
}

func TestRowStyles_CrossScopePriority(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		{
			ID:         "row-low",
			Name:       "row base",
			Enabled:    true,
			Priority:   1,
			Expression: `[status] = "halted"`,
			Formatting: core.Formatting{Style: core.StyleDecl{"color": "gray", "backgroundColor": "#fafafa"}},
			Scope:      core.Scope{Target: core.TargetRow, HighlightEntireRow: true},
		},
		cellRule("cell-high", "[value] >= 0", 2, core.StyleDecl{"color": "black"}, "change"),
	})

	cell := cellFor(t, g, 2, "change")
	// The higher-priority cell rule overwrites the row rule's color but not
	// its background.
	assert.Equal(t, "black", cell.Style["color"])
	assert.Equal(t, "#fafafa", cell.Style["backgroundColor"])
	assert.Equal(t, []string{"gs-blotter-row-low", "gs-blotter-cell-high"}, cell.Classes)
}

func TestRowStyles_ExtraClassesAndIcon(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		{
			ID:         "hot",
			Name:       "hot price",
			Enabled:    true,
			Priority:   10,
			Expression: "[value] > 200",
			Formatting: core.Formatting{
				CellClass: []string{"pulse", "alert"},
				Icon:      &core.IconSpec{Name: "flame", Position: core.IconEnd, Color: "#ff5722"},
			},
			Scope: core.Scope{Target: core.TargetCell, ApplyToColumns: []string{"price"}},
		},
	})

	cell := cellFor(t, g, 2, "price")
	assert.Equal(t, []string{"gs-blotter-hot", "pulse", "alert"}, cell.Classes)
	require.NotNil(t, cell.Icon)
	assert.Equal(t, "flame", cell.Icon.Name)
	assert.Equal(t, core.IconEnd, cell.Icon.Position)

	assert.Nil(t, cellFor(t, g, 0, "price").Icon)
}

func TestRowStyles_LastIconWins(t *testing.T) {
	flag := func(name string) *core.IconSpec { return &core.IconSpec{Name: name, Position: core.IconStart} }
	g := paintGrid(t, []core.Rule{
		{
			ID: "first", Name: "first", Enabled: true, Priority: 1,
			Expression: "[value] > 0",
			Formatting: core.Formatting{Icon: flag("dot")},
			Scope:      core.Scope{Target: core.TargetCell, ApplyToColumns: []string{"price"}},
		},
		{
			ID: "second", Name: "second", Enabled: true, Priority: 2,
			Expression: "[value] > 100",
			Formatting: core.Formatting{Icon: flag("star")},
			Scope:      core.Scope{Target: core.TargetCell, ApplyToColumns: []string{"price"}},
		},
	})

	require.NotNil(t, cellFor(t, g, 0, "price").Icon)
	assert.Equal(t, "star", cellFor(t, g, 0, "price").Icon.Name)
	// Only the first matches for the cheaper row.
	assert.Equal(t, "dot", cellFor(t, g, 1, "price").Icon.Name)
}

func TestRowStyles_ValueTransform(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		{
			ID: "usd", Name: "dollar prefix", Enabled: true, Priority: 1,
			Expression: "[value] > 0",
			Formatting: core.Formatting{
				Style:          core.StyleDecl{"color": "green"},
				ValueTransform: &core.ValueTransform{Type: core.TransformPrefix, Value: "$"},
			},
			Scope: core.Scope{Target: core.TargetCell, ApplyToColumns: []string{"price"}},
		},
	})

	cell := cellFor(t, g, 0, "price")
	assert.Equal(t, "$182.5", cell.Display)
	assert.Equal(t, 182.5, cell.Value)
}

func TestRowStyles_EvaluationSafety(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("ghost", "[nonexistent] > 0", 10, core.StyleDecl{"color": "red"}, "price"),
	})

	assert.False(t, cellFor(t, g, 0, "price").Styled())
}

func TestRowStyles_AggregateRule(t *testing.T) {
	// Mean price is (182.5 + 99 + 250) / 3 = 177.16...
	g := paintGrid(t, []core.Rule{
		cellRule("above-avg", `[value] > AVG("price")`, 10, core.StyleDecl{"fontWeight": "bold"}, "price"),
	})

	assert.True(t, cellFor(t, g, 0, "price").Styled())
	assert.False(t, cellFor(t, g, 1, "price").Styled())
	assert.True(t, cellFor(t, g, 2, "price").Styled())
}

func TestRowStyles_DisabledRuleIsInert(t *testing.T) {
	rule := cellRule("pos", "[value] > 0", 10, core.StyleDecl{"color": "green"}, "price")
	rule.Enabled = false

	g := paintGrid(t, []core.Rule{rule})
	assert.False(t, cellFor(t, g, 0, "price").Styled())
}

func TestRowStyles_OutOfRange(t *testing.T) {
	g := paintGrid(t, nil)
	assert.Nil(t, g.RowStyles(-1))
	assert.Nil(t, g.RowStyles(99))
	assert.Equal(t, CellStyle{}, g.CellAt(99, "price"))
}

func TestCellAt_MatchesRowStyles(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("pos", "[value] > 0", 10, core.StyleDecl{"color": "green"}, "change"),
		{
			ID: "halt", Name: "halt", Enabled: true, Priority: 1,
			Expression: `[status] = "halted"`,
			Formatting: core.Formatting{Style: core.StyleDecl{"backgroundColor": "#fff3e0"}},
			Scope:      core.Scope{Target: core.TargetRow, HighlightEntireRow: true},
		},
	})

	for row := 0; row < g.RowCount(); row++ {
		for _, col := range g.Columns() {
			assert.Equal(t, cellFor(t, g, row, col.ID), g.CellAt(row, col.ID), "row %d col %s", row, col.ID)
		}
	}
}

func TestPaint(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("pos", "[value] > 0", 10, core.StyleDecl{"color": "green"}, "change"),
	})

	painted := g.Paint()
	require.Len(t, painted, 3)
	for _, row := range painted {
		require.Len(t, row, 4)
	}
	assert.Equal(t, "AAPL", painted[0][0].Display)
	assert.Equal(t, "182.5", painted[0][1].Display)
}

func TestRowStyles_NoRegistry(t *testing.T) {
	g := New(Config{})
	require.NoError(t, g.ReadCSV(strings.NewReader("n\n7\n")))

	styles := g.RowStyles(0)
	require.Len(t, styles, 1)
	assert.Equal(t, "7", styles[0].Display)
	assert.False(t, styles[0].Styled())
}

func TestRowStyles_CalcColumnRule(t *testing.T) {
	g := paintGrid(t, []core.Rule{
		cellRule("wide", "[value] > 2", 10, core.StyleDecl{"color": "purple"}, "swing"),
	})
	require.Empty(t, g.SetCalcColumns([]core.CalcColumn{
		{ID: "swing", Name: "Swing", Expression: "[change] * [change]"},
	}))

	// change -3.4 squares to 11.56.
	assert.True(t, cellFor(t, g, 1, "swing").Styled())
	assert.False(t, cellFor(t, g, 0, "swing").Styled())
}

func TestRowStyles_RegistryUpdateSwapsBehavior(t *testing.T) {
	reg := runtime.NewRegistry(runtime.NewMemorySink(), nil)
	reg.Initialize("blotter", []core.Rule{
		cellRule("pos", "[value] > 0", 10, core.StyleDecl{"color": "green"}, "change"),
	})

	g := New(Config{InstanceID: "blotter", Registry: reg})
	g.SetData(
		[]Column{{ID: "change", Title: "Change"}},
		[]map[string]any{{"change": 2.0}},
	)
	assert.True(t, g.RowStyles(0)[0].Styled())

	reg.Update("blotter", nil)
	assert.False(t, g.RowStyles(0)[0].Styled())
}
