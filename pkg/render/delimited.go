package render

import (
	"bufio"
	"io"
	"strings"
)

func renderDelimited(w io.Writer, g *grid, opts Options) error {
	bw := bufio.NewWriter(w)

	if opts.Header {
		writeRecord(bw, g.headers, opts.Delimiter)
	}
	values := make([]string, len(g.headers))
	for _, row := range g.rows {
		for i, f := range row {
			values[i] = f.text
		}
		writeRecord(bw, values, opts.Delimiter)
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, values []string, delim string) {
	for i, v := range values {
		if i > 0 {
			_, _ = w.WriteString(delim)
		}
		_, _ = w.WriteString(escapeField(v, delim))
	}
	_ = w.WriteByte('\n')
}

func escapeField(s, delim string) string {
	if strings.Contains(s, delim) || strings.ContainsAny(s, "\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
