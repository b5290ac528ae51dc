package table_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/table"
)

func parse(t *testing.T, text string, opts table.Options) *table.Table {
	t.Helper()
	tbl, err := table.Parse(strings.NewReader(text), opts)
	require.NoError(t, err)
	return tbl
}

func TestParseBooleanTable(t *testing.T) {
	tbl := parse(t, "a,b\n1,0\n0,0\n1,1\n", table.Options{HasHeader: true})

	assert.Equal(t, 3, tbl.RowCount())
	assert.Equal(t, 2, tbl.ColumnCount())
	assert.Equal(t, []string{"a", "b"}, tbl.Labels())
	assert.Equal(t, []core.DataType{core.Boolean, core.Boolean}, tbl.Types())

	assert.Equal(t, core.Bool(true), tbl.ValueAt(0, 0))
	assert.Equal(t, core.Bool(false), tbl.ValueAt(0, 1))
	assert.Equal(t, "1", tbl.Raw(2, 1))
	assert.Equal(t, []core.Value{core.Bool(false), core.Bool(false)}, tbl.Row(1))

	typ, err := tbl.DispatchType()
	require.NoError(t, err)
	assert.Equal(t, core.Boolean, typ)
}

func TestParseContinuousTable(t *testing.T) {
	tbl := parse(t, "x\n2.0\n-1.0\n", table.Options{HasHeader: true})

	require.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, core.Continuous, tbl.Column(0).Type)
	assert.Equal(t, 2.0, tbl.ValueAt(0, 0).AsFloat())
	assert.Equal(t, -1.0, tbl.ValueAt(1, 0).AsFloat())
}

func TestParseWithoutHeader(t *testing.T) {
	tbl := parse(t, "1\t0\n0\t1\n", table.Options{Delimiter: '\t'})

	assert.False(t, tbl.HasHeader())
	assert.Nil(t, tbl.Header())
	assert.Equal(t, []string{"#1", "#2"}, tbl.Labels())
	assert.Equal(t, 2, tbl.RowCount())
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	tbl := parse(t, "a,b\n# generated\n1,0\n\n0,1\n", table.Options{HasHeader: true})
	assert.Equal(t, 2, tbl.RowCount())
}

func TestParseMissingValues(t *testing.T) {
	tbl := parse(t, "x,y\n1.5,true\n?,NA\n,null\n", table.Options{HasHeader: true})

	assert.Equal(t, core.Continuous, tbl.Column(0).Type)
	assert.Equal(t, core.Boolean, tbl.Column(1).Type)
	assert.True(t, tbl.ValueAt(1, 0).IsMissing())
	assert.True(t, tbl.ValueAt(2, 1).IsMissing())
	assert.Equal(t, 2, tbl.Column(0).MissingCount())
	assert.Equal(t, 1, tbl.Column(1).DistinctCount())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		opts     table.Options
		wantLine int
		wantMsg  string
	}{
		{"ragged row", "a,b\n1,0\n1\n", table.Options{HasHeader: true}, 3, "expected 2 fields, got 1"},
		{"duplicate label", "a,a\n1,0\n", table.Options{HasHeader: true}, 1, `duplicate label "a"`},
		{"empty label", "a,\n1,0\n", table.Options{HasHeader: true}, 1, "empty label for column 2"},
		{"empty input", "", table.Options{}, 1, "no columns"},
		{"missing header", "", table.Options{HasHeader: true}, 0, "missing header"},
		{"bare quote", "a\nx\"y\n", table.Options{HasHeader: true}, 2, "bare"},
		{"target out of range", "a\n1\n", table.Options{HasHeader: true, Target: 3}, 0, "target column 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.Parse(strings.NewReader(tt.text), tt.opts)
			require.Error(t, err)

			var malformed *table.MalformedTableError
			require.True(t, errors.As(err, &malformed), "got %T: %v", err, err)
			assert.Equal(t, tt.wantLine, malformed.Line)
			assert.Contains(t, malformed.Message, tt.wantMsg)
		})
	}
}

func TestParseUnknownColumn(t *testing.T) {
	_, err := table.Parse(strings.NewReader("name\nalice\nbob\ncarol\n"), table.Options{HasHeader: true})

	var unsupported *core.UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, 1, unsupported.Column)
	assert.Equal(t, "name", unsupported.Label)
	assert.Equal(t, core.Unknown, unsupported.Type)
}

func TestDispatchType(t *testing.T) {
	tbl := parse(t, "color,x\nred,1\nred,0\nblue,1\nblue,1\n", table.Options{HasHeader: true})
	assert.Equal(t, core.Enumerated, tbl.Column(0).Type)

	_, err := tbl.DispatchType()
	var unsupported *core.UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, 1, unsupported.Column)

	tbl = parse(t, "color,x\nred,1\nred,0\nblue,1\nblue,1\n", table.Options{HasHeader: true, Target: 1})
	typ, err := tbl.DispatchType()
	require.NoError(t, err)
	assert.Equal(t, core.Boolean, typ)
}

func TestFromRecords(t *testing.T) {
	tbl, err := table.FromRecords([]string{"p", "q"}, [][]string{{"t", "0.5"}, {"F", "2"}}, table.Options{})
	require.NoError(t, err)

	assert.True(t, tbl.HasHeader())
	assert.Equal(t, []core.DataType{core.Boolean, core.Continuous}, tbl.Types())
	assert.Equal(t, core.Bool(false), tbl.ValueAt(1, 0))

	_, err = table.FromRecords([]string{"p", "q"}, [][]string{{"t", "0.5"}, {"F"}}, table.Options{})
	var malformed *table.MalformedTableError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 3, malformed.Line)
}

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want core.DataType
	}{
		{"booleans", []string{"true", "False", "T", "f"}, core.Boolean},
		{"zero one", []string{"0", "1", "1"}, core.Boolean},
		{"zero one with missing", []string{"0", "?", "1"}, core.Boolean},
		{"all missing", []string{"?", "NA", ""}, core.Boolean},
		{"no cells", nil, core.Boolean},
		{"reals", []string{"0", "1", "2.5"}, core.Continuous},
		{"scientific", []string{"1e-3", "-4"}, core.Continuous},
		{"categories", []string{"a", "b", "a", "b"}, core.Enumerated},
		{"free text", []string{"a", "b", "c", "d"}, core.Unknown},
		{"mixed numbers and text", []string{"1", "x", "1", "x", "1", "x"}, core.Enumerated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.InferColumnType(tt.raw, nil, 0))
		})
	}
}

func TestInferCustomMissingTokens(t *testing.T) {
	tbl := parse(t, "x\n-\n3\n", table.Options{HasHeader: true, MissingTokens: []string{"-"}})
	assert.Equal(t, core.Continuous, tbl.Column(0).Type)
	assert.True(t, tbl.ValueAt(0, 0).IsMissing())
	assert.False(t, math.IsNaN(tbl.ValueAt(1, 0).AsFloat()))
}
