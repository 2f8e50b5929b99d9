package render

import "github.com/charmbracelet/lipgloss"

// Styles are the semantic text styles shared by CLI and TUI output:
// headers, success/error/warning lines, muted detail, and status glyphs.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style

	// StatusSuccess and StatusFailed carry their glyphs; render them
	// with String().
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// Styles builds the semantic set on the adapter's color profile.
func (a *Adapter) Styles() *Styles {
	base := a.renderer.NewStyle()
	return &Styles{
		Header1: base.Bold(true).Underline(true),
		Header2: base.Bold(true),
		Bold:    base.Bold(true),
		Success: base.Foreground(lipgloss.Color("2")),
		Error:   base.Foreground(lipgloss.Color("1")).Bold(true),
		Warning: base.Foreground(lipgloss.Color("3")),
		Info:    base.Foreground(lipgloss.Color("4")),
		Muted:   base.Faint(true),

		StatusSuccess: base.Foreground(lipgloss.Color("2")).SetString("✓"),
		StatusFailed:  base.Foreground(lipgloss.Color("1")).SetString("✗"),
	}
}
