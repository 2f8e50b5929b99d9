// Package output handles rendering CLI output in table, JSON, CSV, and
// markdown modes with automatic terminal detection.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/gridstack-labs/gridstyle/internal/render"
)

// Mode is the output rendering mode.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeTable    Mode = "table"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeMarkdown Mode = "markdown"
)

// normalize maps flag spellings onto modes. Unknown values fall back to
// auto-detection.
func normalize(m Mode) Mode {
	switch m {
	case ModeTable, ModeJSON, ModeCSV, ModeMarkdown:
		return m
	case "md":
		return ModeMarkdown
	case "text":
		return ModeTable
	default:
		return ModeAuto
	}
}

// Renderer writes command output in one mode, with styles bound to the
// destination terminal's color capabilities.
type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	mode    Mode
	adapter *render.Adapter
	styles  *render.Styles
	isTTY   bool
}

// NewRenderer creates a renderer with automatic color detection.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithColor(out, errOut, mode, "auto")
}

// NewRendererWithColor creates a renderer with an explicit color mode:
// "auto", "always", or "never".
func NewRendererWithColor(out, errOut io.Writer, mode Mode, color string) *Renderer {
	f, _ := out.(*os.File)
	adapter := render.NewAdapter(out, render.Profile(color, f))
	return &Renderer{
		out:     out,
		errOut:  errOut,
		mode:    normalize(mode),
		adapter: adapter,
		styles:  adapter.Styles(),
		isTTY:   f != nil && term.IsTerminal(int(f.Fd())),
	}
}

// NewRendererWithTTY creates a renderer with a forced terminal state, for
// tests that need deterministic mode resolution and styling.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	color := "never"
	if isTTY {
		color = "always"
	}
	f, _ := out.(*os.File)
	adapter := render.NewAdapter(out, render.Profile(color, f))
	return &Renderer{
		out:     out,
		errOut:  errOut,
		mode:    normalize(mode),
		adapter: adapter,
		styles:  adapter.Styles(),
		isTTY:   isTTY,
	}
}

// Writer returns the primary output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Mode returns the configured mode, which may be auto.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// EffectiveMode resolves auto: table on a terminal, markdown when piped.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeTable
	}
	return ModeMarkdown
}

// Styles returns the semantic styles for the output terminal.
func (r *Renderer) Styles() *render.Styles {
	return r.styles
}

// Adapter returns the style adapter, used to paint rule styles inline.
func (r *Renderer) Adapter() *render.Adapter {
	return r.adapter
}

// Println writes a line to the primary output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the primary output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Errorf writes formatted text to the error output.
func (r *Renderer) Errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.errOut, format, a...)
}

// Success writes a success-styled line to the primary output.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(msg))
}

// Warning writes a warning-styled line to the primary output.
func (r *Renderer) Warning(msg string) {
	r.Println(r.styles.Warning.Render(msg))
}

// Error writes an error-styled line to the error output.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(msg))
}

// JSON writes v as indented JSON to the primary output.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
