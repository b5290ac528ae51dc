package label_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/label"
	"github.com/leapstack-labs/evaltable/pkg/parser"
)

func TestTranslate(t *testing.T) {
	header := []string{"a", "b", "ab", "x.1", "7"}

	tests := []struct {
		name    string
		program string
		want    string
	}{
		{"simple", "and(#a #b)", "and(#1 #2)"},
		{"prefix label is whole token", "or(#ab #a)", "or(#3 #1)"},
		{"negation", "and(!#a #b)", "and(!#1 #2)"},
		{"commas", "or(#a,#b)", "or(#1,#2)"},
		{"punctuated label", "0<(#x.1)", "0<(#4)"},
		{"digit label wins", "not(#7)", "not(#5)"},
		{"positional passes through", "and(#a #2)", "and(#1 #2)"},
		{"no placeholders", "rand", "rand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := label.Translate(tt.program, header)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateUnknownLabel(t *testing.T) {
	_, err := label.Translate("and(#a #c)", []string{"a", "b"})
	require.Error(t, err)

	var unknown *label.UnknownLabelError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "c", unknown.Label)
	assert.Equal(t, 7, unknown.Offset)
}

func TestTranslateNoPartialMatch(t *testing.T) {
	// "abc" starts with the label "ab" but is not a label itself.
	_, err := label.Translate("not(#abc)", []string{"ab"})

	var unknown *label.UnknownLabelError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "abc", unknown.Label)
}

func TestTranslateRoundTrip(t *testing.T) {
	header := []string{"age", "income", "owner"}

	tests := []struct {
		labelled   string
		positional string
	}{
		{"and(#owner !#age)", "and(#3 not(#1))"},
		{"contin_if(0<(#income) #age 0)", "contin_if(0<(#2) #1 0)"},
		{"or(#owner #owner)", "or(#3 #3)"},
	}

	for _, tt := range tests {
		t.Run(tt.labelled, func(t *testing.T) {
			translated, err := label.Translate(tt.labelled, header)
			require.NoError(t, err)

			got, err := parser.Parse(translated, nil)
			require.NoError(t, err)
			want, err := parser.Parse(tt.positional, nil)
			require.NoError(t, err)

			assert.True(t, core.Equal(want, got), "%s != %s", core.Format(want), core.Format(got))
		})
	}
}

func TestUntranslate(t *testing.T) {
	header := []string{"a", "b"}

	assert.Equal(t, "and(#a #b)", label.Untranslate("and(#1 #2)", header))
	assert.Equal(t, "and(#a #3)", label.Untranslate("and(#1 #3)", header))
	assert.Equal(t, "not(#x)", label.Untranslate("not(#x)", header))

	back, err := label.Translate(label.Untranslate("or(#2 !#1)", header), header)
	require.NoError(t, err)
	assert.Equal(t, "or(#2 !#1)", back)
}

func TestReferences(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, label.References("and(#a or(#b #a))"))
	assert.Empty(t, label.References("rand"))
}
