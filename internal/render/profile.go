package render

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Profile resolves a color mode ("auto", "always", "never") against the
// output stream. Auto means colors only when out is a terminal; always
// forces at least ANSI256 so piped output still carries color codes.
func Profile(mode string, out *os.File) termenv.Profile {
	switch mode {
	case "never":
		return termenv.Ascii
	case "always":
		p := termenv.EnvColorProfile()
		if p == termenv.Ascii {
			p = termenv.ANSI256
		}
		return p
	default:
		if out == nil || !term.IsTerminal(int(out.Fd())) {
			return termenv.Ascii
		}
		return termenv.EnvColorProfile()
	}
}
