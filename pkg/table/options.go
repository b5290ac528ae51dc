package table

import "strings"

// DefaultEnumRatio is the largest distinct/non-missing ratio for which a
// free-form column is still considered Enumerated.
const DefaultEnumRatio = 0.5

// DefaultMissingTokens are the cell texts read as missing values.
// Matching is case-insensitive after trimming surrounding spaces.
var DefaultMissingTokens = []string{"", "?", "NA", "N/A", "null"}

// Options controls how raw text becomes a Table.
type Options struct {
	// HasHeader treats the first record as column labels.
	HasHeader bool
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// Target is the 0-based index of the column whose type selects the
	// evaluator for the whole batch.
	Target int
	// EnumRatio bounds distinct/non-missing for Enumerated columns.
	// Zero means DefaultEnumRatio.
	EnumRatio float64
	// MissingTokens replaces DefaultMissingTokens when non-nil.
	MissingTokens []string
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.EnumRatio <= 0 {
		o.EnumRatio = DefaultEnumRatio
	}
	if o.MissingTokens == nil {
		o.MissingTokens = DefaultMissingTokens
	}
	return o
}

// missingFunc returns a predicate matching the configured missing tokens.
func (o Options) missingFunc() func(string) bool {
	tokens := make(map[string]bool, len(o.MissingTokens))
	for _, t := range o.MissingTokens {
		tokens[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return func(s string) bool {
		return tokens[strings.ToLower(strings.TrimSpace(s))]
	}
}
