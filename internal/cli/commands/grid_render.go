package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gridstack-labs/gridstyle/internal/grid"
	"github.com/gridstack-labs/gridstyle/internal/render"
	"github.com/gridstack-labs/gridstyle/pkg/core"
)

// renderGrid renders the painted grid in the requested format. Table mode
// styles cells through the adapter; the other formats emit plain display
// text so piped output stays free of escape codes.
func renderGrid(w io.Writer, adapter *render.Adapter, g *grid.Grid, format string, limit int) error {
	cols := g.Columns()
	painted := g.Paint()
	total := len(painted)
	if limit > 0 && len(painted) > limit {
		painted = painted[:limit]
	}

	switch format {
	case "json":
		return renderGridJSON(w, cols, painted)
	case "csv":
		return renderGridCSV(w, cols, painted)
	case "md", "markdown":
		return renderGridMarkdown(w, cols, painted)
	default:
		return renderGridTable(w, adapter, cols, painted, total)
	}
}

func renderGridTable(w io.Writer, adapter *render.Adapter, cols []grid.Column, painted [][]grid.CellStyle, total int) error {
	if len(painted) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	// Header
	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col.Title
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, rowCells := range painted {
		row := make(table.Row, len(cols))
		for i, cell := range rowCells {
			row[i] = adapter.Cell(cell)
		}
		t.AppendRow(row)
	}

	t.Render()
	if len(painted) < total {
		_, _ = fmt.Fprintf(w, "(%d of %d rows)\n", len(painted), total)
		return nil
	}
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(painted))
	return nil
}

// GridColumnJSON describes one column of the rendered grid.
type GridColumnJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Calc  bool   `json:"calc,omitempty"`
}

// GridCellJSON is one painted cell with its resolved formatting.
type GridCellJSON struct {
	Value   any            `json:"value"`
	Display string         `json:"display"`
	Classes []string       `json:"classes,omitempty"`
	Style   core.StyleDecl `json:"style,omitempty"`
	Icon    *core.IconSpec `json:"icon,omitempty"`
}

// GridJSONOutput is the JSON output structure for rendered grids.
type GridJSONOutput struct {
	Columns []GridColumnJSON `json:"columns"`
	Rows    [][]GridCellJSON `json:"rows"`
}

func renderGridJSON(w io.Writer, cols []grid.Column, painted [][]grid.CellStyle) error {
	jsonOutput := GridJSONOutput{
		Columns: make([]GridColumnJSON, len(cols)),
		Rows:    make([][]GridCellJSON, len(painted)),
	}
	for i, col := range cols {
		jsonOutput.Columns[i] = GridColumnJSON{ID: col.ID, Title: col.Title, Calc: col.Calc}
	}
	for i, rowCells := range painted {
		row := make([]GridCellJSON, len(rowCells))
		for j, cell := range rowCells {
			row[j] = GridCellJSON{
				Value:   cell.Value,
				Display: cell.Display,
				Classes: cell.Classes,
				Style:   cell.Style,
				Icon:    cell.Icon,
			}
		}
		jsonOutput.Rows[i] = row
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput)
}

func renderGridCSV(w io.Writer, cols []grid.Column, painted [][]grid.CellStyle) error {
	// Header
	ids := make([]string, len(cols))
	for i, col := range cols {
		ids[i] = escapeCSV(col.ID)
	}
	_, _ = fmt.Fprintln(w, strings.Join(ids, ","))

	// Rows
	for _, rowCells := range painted {
		values := make([]string, len(rowCells))
		for i, cell := range rowCells {
			values[i] = escapeCSV(cell.Display)
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderGridMarkdown(w io.Writer, cols []grid.Column, painted [][]grid.CellStyle) error {
	if len(painted) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	// Header
	titles := make([]string, len(cols))
	for i, col := range cols {
		titles[i] = col.Title
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(titles, " | "))
	// Separator
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	// Rows
	for _, rowCells := range painted {
		values := make([]string, len(rowCells))
		for i, cell := range rowCells {
			values[i] = cell.Display
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
