package render

import (
	"fmt"
	"io"
	"strings"
)

func renderMarkdown(w io.Writer, g *grid) error {
	if len(g.rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	// Header
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(escapeAll(g.headers), " | "))
	// Separator
	seps := make([]string, len(g.headers))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	// Rows
	values := make([]string, len(g.headers))
	for _, row := range g.rows {
		for i, f := range row {
			values[i] = escapeMarkdown(f.text)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func escapeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = escapeMarkdown(v)
	}
	return out
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
