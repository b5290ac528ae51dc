package render

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DetectColor reports whether w is a terminal that should receive colored
// output. NO_COLOR and CLICOLOR=0 disable color.
func DetectColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return !termenv.EnvNoColor()
}
