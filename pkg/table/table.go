// Package table holds the typed, column-oriented input data that combo
// programs are evaluated against.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// MalformedTableError reports input that cannot form a rectangular table.
type MalformedTableError struct {
	Line    int // 1-based input line, 0 when unknown
	Message string
}

func (e *MalformedTableError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed table at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("malformed table: %s", e.Message)
}

// Column is one typed column. Every cell is a value of Type or missing.
type Column struct {
	Label string
	Type  core.DataType
	cells []core.Value
	raw   []string
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.cells) }

// Value returns the typed cell at row.
func (c *Column) Value(row int) core.Value { return c.cells[row] }

// Raw returns the original text of the cell at row.
func (c *Column) Raw(row int) string { return c.raw[row] }

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.cells {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// DistinctCount returns the number of distinct non-missing cell texts.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{})
	for i, v := range c.cells {
		if !v.IsMissing() {
			seen[strings.TrimSpace(c.raw[i])] = struct{}{}
		}
	}
	return len(seen)
}

// Table is an immutable set of equally long typed columns. Column order
// defines placeholder indices: #1 is Column(0).
type Table struct {
	columns   []*Column
	rows      int
	hasHeader bool
	target    int
}

// Parse reads delimited text. Blank lines and lines starting with '#' after
// the header are skipped.
func Parse(r io.Reader, opts Options) (*Table, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var header []string
	var records [][]string
	var lines []int

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &MalformedTableError{Line: pe.Line, Message: pe.Err.Error()}
			}
			return nil, &MalformedTableError{Message: err.Error()}
		}
		line, _ := cr.FieldPos(0)

		if opts.HasHeader && header == nil {
			header = rec
			continue
		}
		if isComment(rec) {
			continue
		}
		records = append(records, rec)
		lines = append(lines, line)
	}

	if opts.HasHeader && header == nil {
		return nil, &MalformedTableError{Message: "missing header row"}
	}
	return build(header, records, lines, opts)
}

// FromRecords builds a table from records that are already split into
// fields. A nil header means the columns are unlabeled.
func FromRecords(header []string, records [][]string, opts Options) (*Table, error) {
	opts = opts.withDefaults()
	if header != nil {
		opts.HasHeader = true
	}

	offset := 1
	if opts.HasHeader {
		offset = 2
	}
	lines := make([]int, len(records))
	for i := range records {
		lines[i] = i + offset
	}
	return build(header, records, lines, opts)
}

func isComment(rec []string) bool {
	return len(rec) > 0 && strings.HasPrefix(rec[0], "#")
}

func build(header []string, records [][]string, lines []int, opts Options) (*Table, error) {
	width := len(header)
	if header == nil && len(records) > 0 {
		width = len(records[0])
	}
	if width == 0 {
		return nil, &MalformedTableError{Line: 1, Message: "table has no columns"}
	}

	if header != nil {
		seen := make(map[string]int, len(header))
		for i, l := range header {
			l = strings.TrimSpace(l)
			if l == "" {
				return nil, &MalformedTableError{Line: 1, Message: fmt.Sprintf("empty label for column %d", i+1)}
			}
			if prev, dup := seen[l]; dup {
				return nil, &MalformedTableError{Line: 1, Message: fmt.Sprintf("duplicate label %q in columns %d and %d", l, prev, i+1)}
			}
			seen[l] = i + 1
		}
	}

	for i, rec := range records {
		if len(rec) != width {
			return nil, &MalformedTableError{
				Line:    lines[i],
				Message: fmt.Sprintf("expected %d fields, got %d", width, len(rec)),
			}
		}
	}

	if opts.Target < 0 || opts.Target >= width {
		return nil, &MalformedTableError{Message: fmt.Sprintf("target column %d out of range 1..%d", opts.Target+1, width)}
	}

	missing := opts.missingFunc()
	t := &Table{
		columns:   make([]*Column, width),
		rows:      len(records),
		hasHeader: header != nil,
		target:    opts.Target,
	}

	raw := make([]string, len(records))
	for c := 0; c < width; c++ {
		for r, rec := range records {
			raw[r] = rec[c]
		}
		col := &Column{
			Type:  InferColumnType(raw, missing, opts.EnumRatio),
			cells: make([]core.Value, len(records)),
			raw:   make([]string, len(records)),
		}
		if header != nil {
			col.Label = strings.TrimSpace(header[c])
		}
		if col.Type == core.Unknown {
			return nil, &core.UnsupportedTypeError{
				Column: c + 1,
				Label:  col.Label,
				Type:   core.Unknown,
				Reason: "values are not boolean or numeric and have too many distinct values to be categorical",
			}
		}
		copy(col.raw, raw)
		for r := range raw {
			col.cells[r] = parseCell(raw[r], col.Type, missing)
		}
		t.columns[c] = col
	}

	return t, nil
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return t.rows }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.columns) }

// HasHeader reports whether the columns carry labels.
func (t *Table) HasHeader() bool { return t.hasHeader }

// Target returns the 0-based index of the dispatch column.
func (t *Table) Target() int { return t.target }

// Column returns the column at 0-based index i.
func (t *Table) Column(i int) *Column { return t.columns[i] }

// ValueAt returns the typed cell at (row, col), both 0-based.
func (t *Table) ValueAt(row, col int) core.Value { return t.columns[col].cells[row] }

// Raw returns the original text of the cell at (row, col).
func (t *Table) Raw(row, col int) string { return t.columns[col].raw[row] }

// Row copies the typed cells of one row.
func (t *Table) Row(row int) []core.Value {
	out := make([]core.Value, len(t.columns))
	for c, col := range t.columns {
		out[c] = col.cells[row]
	}
	return out
}

// Labels returns the column labels. Unlabeled tables return placeholder
// names ("#1", "#2", ...) so callers always have something to display.
func (t *Table) Labels() []string {
	out := make([]string, len(t.columns))
	for i, col := range t.columns {
		if col.Label != "" {
			out[i] = col.Label
		} else {
			out[i] = fmt.Sprintf("#%d", i+1)
		}
	}
	return out
}

// Header returns the raw header labels, or nil for unlabeled tables.
func (t *Table) Header() []string {
	if !t.hasHeader {
		return nil
	}
	out := make([]string, len(t.columns))
	for i, col := range t.columns {
		out[i] = col.Label
	}
	return out
}

// Types returns the inferred type of every column.
func (t *Table) Types() []core.DataType {
	out := make([]core.DataType, len(t.columns))
	for i, col := range t.columns {
		out[i] = col.Type
	}
	return out
}

// DispatchType returns the target column's type, which selects the
// evaluator for a whole batch. Only Boolean and Continuous are accepted.
func (t *Table) DispatchType() (core.DataType, error) {
	col := t.columns[t.target]
	if !col.Type.IsDispatchable() {
		return col.Type, &core.UnsupportedTypeError{
			Column: t.target + 1,
			Label:  col.Label,
			Type:   col.Type,
			Reason: "the target column must be boolean or continuous",
		}
	}
	return col.Type, nil
}
