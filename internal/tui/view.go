package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the screen: header, grid window, status line, help footer.
func (m Model) View() string {
	if m.width == 0 {
		return "starting..."
	}
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.gridView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	parts := []string{
		m.styles.Header1.Render("gridstyle watch"),
		m.styles.Muted.Render(m.eng.Grid().InstanceID()),
		m.styles.Muted.Render(fmt.Sprintf("profile %s", m.profile)),
		m.styles.Muted.Render(fmt.Sprintf("%d rules", m.ruleCount)),
		m.styles.Muted.Render(fmt.Sprintf("%d rows", len(m.cells))),
	}
	if m.compileErrors > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("%d failed to compile", m.compileErrors)))
	}
	if m.watcher != nil {
		parts = append(parts, m.spin.View()+m.styles.Muted.Render(" watching"))
	}
	return clipLine(strings.Join(parts, "  "), m.width)
}

func (m Model) gridView() string {
	if len(m.columns) == 0 {
		return m.styles.Muted.Render("no feed loaded; pass --feed or set feed in the config")
	}

	hdr := make([]string, len(m.columns))
	for i, col := range m.columns {
		hdr[i] = padCell(m.styles.Bold.Render(col.Title), m.widths[i])
	}
	lines := []string{clipLine("   "+strings.Join(hdr, "  "), m.width)}

	if len(m.cells) == 0 {
		lines = append(lines, m.styles.Muted.Render("   (no rows)"))
		return strings.Join(lines, "\n")
	}

	end := m.offset + m.visibleRows()
	if end > len(m.cells) {
		end = len(m.cells)
	}
	for r := m.offset; r < end; r++ {
		marker := "  "
		if r == m.cursor {
			marker = m.styles.Info.Render("> ")
		}
		row := m.cells[r]
		out := make([]string, len(row))
		for c, cell := range row {
			w := 0
			if c < len(m.widths) {
				w = m.widths[c]
			}
			out[c] = padCell(cell, w)
		}
		lines = append(lines, clipLine(" "+marker+strings.Join(out, "  "), m.width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusView() string {
	var parts []string
	if m.errText != "" {
		parts = append(parts, m.styles.Error.Render(m.errText))
	} else if m.status != "" {
		parts = append(parts, m.styles.Muted.Render(m.status))
	}
	if !m.lastReload.IsZero() {
		parts = append(parts, m.styles.Muted.Render(fmt.Sprintf("updated %s ago", time.Since(m.lastReload).Round(time.Second))))
	}
	return clipLine(strings.Join(parts, "  "), m.width)
}

// padCell pads styled text to width by its visible width.
func padCell(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// clipLine truncates a styled line to the terminal width.
func clipLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
