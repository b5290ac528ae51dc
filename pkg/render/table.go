package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/muesli/termenv"

	"github.com/leapstack-labs/evaltable/pkg/batch"
)

// styles colors the sentinel tokens of table output.
type styles struct {
	failed lipgloss.Style
	nan    lipgloss.Style
	input  lipgloss.Style
}

func newStyles(w io.Writer, color bool) *styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &styles{
		failed: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		nan:    r.NewStyle().Foreground(lipgloss.Color("3")),
		input:  r.NewStyle().Faint(true),
	}
}

func renderTable(w io.Writer, g *grid, opts Options) error {
	if len(g.rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	st := newStyles(w, opts.Color)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(g.headers))
	for i, h := range g.headers {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range g.rows {
		r := make(table.Row, len(row))
		for i, f := range row {
			r[i] = st.paint(f)
		}
		t.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(g.headers))
	for i := g.inputs; i < len(g.headers); i++ {
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(g.rows))
	return nil
}

func (s *styles) paint(f field) string {
	switch {
	case f.input:
		return s.input.Render(f.text)
	case f.status == batch.Failed:
		return s.failed.Render(f.text)
	case f.status == batch.DomainError:
		return s.nan.Render(f.text)
	default:
		return f.text
	}
}
