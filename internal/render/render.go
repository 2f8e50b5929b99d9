// Package render adapts compiled style declarations to terminal output.
// Grid cells carry CSS-shaped declarations; this package maps the subset
// that makes sense in a terminal onto lipgloss styles and icon glyphs.
package render

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/gridstack-labs/gridstyle/internal/grid"
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/style"
)

// Adapter turns style declarations into lipgloss styles bound to one
// output's color profile.
type Adapter struct {
	renderer *lipgloss.Renderer
}

// NewAdapter creates an adapter writing to out with the given profile.
func NewAdapter(out io.Writer, profile termenv.Profile) *Adapter {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(profile)
	return &Adapter{renderer: r}
}

// Style maps a declaration onto a lipgloss style. Property names may be
// camelCase or hyphenated; properties a terminal cannot express (borders,
// fonts, sizes) are ignored.
func (a *Adapter) Style(decl core.StyleDecl) lipgloss.Style {
	s := a.renderer.NewStyle()
	for name, value := range decl {
		value = strings.TrimSpace(value)
		switch style.NormalizeProperty(name) {
		case "color":
			if c, ok := terminalColor(value); ok {
				s = s.Foreground(c)
			}
		case "background-color":
			if c, ok := terminalColor(value); ok {
				s = s.Background(c)
			}
		case "font-weight":
			if isBoldWeight(value) {
				s = s.Bold(true)
			} else if value == "lighter" {
				s = s.Faint(true)
			}
		case "font-style":
			if value == "italic" || value == "oblique" {
				s = s.Italic(true)
			}
		case "text-decoration":
			for _, part := range strings.Fields(value) {
				switch part {
				case "underline":
					s = s.Underline(true)
				case "line-through":
					s = s.Strikethrough(true)
				}
			}
		}
	}
	return s
}

// Cell renders one painted cell: the display text styled by the merged
// declaration, with the icon glyph attached on its configured side.
func (a *Adapter) Cell(cell grid.CellStyle) string {
	text := cell.Display
	if cell.Icon != nil {
		if glyph, ok := iconGlyphs[cell.Icon.Name]; ok {
			if cell.Icon.Position == core.IconStart {
				text = glyph + " " + text
			} else {
				text = text + " " + glyph
			}
		}
	}
	if len(cell.Style) == 0 {
		return text
	}
	return a.Style(cell.Style).Render(text)
}

func isBoldWeight(value string) bool {
	switch value {
	case "bold", "bolder":
		return true
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n >= 600
	}
	return false
}

// iconGlyphs maps the icon vocabulary rules use onto terminal glyphs.
// Unknown names render no glyph rather than a placeholder.
var iconGlyphs = map[string]string{
	"arrow-up":   "↑",
	"arrow-down": "↓",
	"check":      "✓",
	"cross":      "✗",
	"dot":        "●",
	"flag":       "⚑",
	"flame":      "▲",
	"star":       "★",
	"warning":    "⚠",
}

// cssNamedColors covers the color keywords that show up in rule styles.
// Everything else is expected to be hex or an ANSI index, which lipgloss
// parses directly.
var cssNamedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"gold":    "#ffd700",
}

func terminalColor(value string) (lipgloss.TerminalColor, bool) {
	v := strings.ToLower(value)
	if hex, ok := cssNamedColors[v]; ok {
		return lipgloss.Color(hex), true
	}
	if strings.HasPrefix(v, "#") {
		return lipgloss.Color(v), true
	}
	if _, err := strconv.Atoi(v); err == nil {
		return lipgloss.Color(v), true
	}
	return lipgloss.NoColor{}, false
}
