// Package render writes batch output as delimited text, an aligned table,
// JSON or Markdown.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leapstack-labs/evaltable/pkg/batch"
	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/table"
)

// Format selects the output layout.
type Format string

// Output formats.
const (
	FormatDelimited Format = "delimited"
	FormatTable     Format = "table"
	FormatJSON      Format = "json"
	FormatMarkdown  Format = "markdown"
)

// Formats lists the accepted format names.
var Formats = []string{"delimited", "csv", "tsv", "table", "json", "markdown", "md"}

// ParseFormat converts a format name. "csv" and "tsv" are delimited output;
// the returned delimiter is non-empty when the name implies one.
func ParseFormat(s string) (Format, string, error) {
	switch strings.ToLower(s) {
	case "", "delimited":
		return FormatDelimited, "", nil
	case "csv":
		return FormatDelimited, ",", nil
	case "tsv":
		return FormatDelimited, "\t", nil
	case "table":
		return FormatTable, "", nil
	case "json":
		return FormatJSON, "", nil
	case "markdown", "md":
		return FormatMarkdown, "", nil
	default:
		return "", "", fmt.Errorf("unknown output format %q (valid: %s)", s, strings.Join(Formats, ", "))
	}
}

// Default tokens.
const (
	DefaultDelimiter    = ","
	DefaultFailureToken = "ERR"
	DefaultNaNToken     = "nan"
)

// Options controls rendering.
type Options struct {
	Format    Format
	Delimiter string
	// Header writes column names first in delimited output. Other formats
	// always name their columns.
	Header bool
	// DisplayInput puts the input table's columns before the output columns.
	DisplayInput bool
	Input        *table.Table
	// Names overrides the program column names when it has one entry per
	// program.
	Names []string
	// FailureToken marks cells whose evaluation failed.
	FailureToken string
	// NaNToken marks domain-error cells.
	NaNToken string
	// Color styles failure and NaN tokens in table output.
	Color bool
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = FormatDelimited
	}
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	if o.FailureToken == "" {
		o.FailureToken = DefaultFailureToken
	}
	if o.NaNToken == "" {
		o.NaNToken = DefaultNaNToken
	}
	return o
}

// field is one rendered cell.
type field struct {
	text   string
	status batch.CellStatus
	input  bool
}

// grid is the output laid out row by row, input columns first.
type grid struct {
	headers []string
	inputs  int
	rows    [][]field
}

func buildGrid(out *batch.Output, opts Options) (*grid, error) {
	g := &grid{}

	names := out.Programs
	if len(opts.Names) == len(out.Programs) {
		names = opts.Names
	}

	var in *table.Table
	if opts.DisplayInput && opts.Input != nil {
		in = opts.Input
		if in.RowCount() != out.Rows {
			return nil, fmt.Errorf("input table has %d rows, output has %d", in.RowCount(), out.Rows)
		}
		g.headers = append(g.headers, in.Labels()...)
		g.inputs = in.ColumnCount()
	}
	g.headers = append(g.headers, names...)

	g.rows = make([][]field, out.Rows)
	for r := 0; r < out.Rows; r++ {
		row := make([]field, 0, len(g.headers))
		if in != nil {
			for c := 0; c < in.ColumnCount(); c++ {
				row = append(row, field{text: in.Raw(r, c), input: true})
			}
		}
		for p := range out.Columns {
			cell := out.Cell(p, r)
			row = append(row, field{text: formatCell(cell, opts), status: cell.Status})
		}
		g.rows[r] = row
	}
	return g, nil
}

// formatCell renders a result. Booleans use the truth-table convention 1/0.
func formatCell(c batch.Cell, opts Options) string {
	switch c.Status {
	case batch.Failed:
		return opts.FailureToken
	case batch.DomainError:
		return opts.NaNToken
	}
	return FormatValue(c.Value)
}

// FormatValue renders a value the way delimited output writes it.
func FormatValue(v core.Value) string {
	if v.IsMissing() {
		return "?"
	}
	switch v.Type() {
	case core.Boolean:
		if v.AsBool() {
			return "1"
		}
		return "0"
	case core.Continuous:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	default:
		return v.String()
	}
}

// Render writes out to w.
func Render(w io.Writer, out *batch.Output, opts Options) error {
	opts = opts.withDefaults()

	g, err := buildGrid(out, opts)
	if err != nil {
		return err
	}

	switch opts.Format {
	case FormatDelimited:
		return renderDelimited(w, g, opts)
	case FormatTable:
		return renderTable(w, g, opts)
	case FormatJSON:
		return renderJSON(w, out, g, opts)
	case FormatMarkdown:
		return renderMarkdown(w, g)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}
