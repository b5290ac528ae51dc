package table

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// InferColumnType decides the type of a column from its raw cells.
//
// A column is Boolean when every non-missing cell is a boolean token, else
// Continuous when every non-missing cell is a real number, else Enumerated
// when its distinct values are few relative to the non-missing cells, else
// Unknown. A column with no non-missing cells is Boolean.
func InferColumnType(raw []string, missing func(string) bool, enumRatio float64) core.DataType {
	if missing == nil {
		missing = Options{}.withDefaults().missingFunc()
	}
	if enumRatio <= 0 {
		enumRatio = DefaultEnumRatio
	}

	isBool, isFloat := true, true
	distinct := make(map[string]struct{})
	nonMissing := 0

	for _, cell := range raw {
		if missing(cell) {
			continue
		}
		nonMissing++
		s := strings.TrimSpace(cell)
		distinct[s] = struct{}{}

		if isBool {
			if _, ok := parseBool(s); !ok {
				isBool = false
			}
		}
		if isFloat {
			if _, ok := parseFloat(s); !ok {
				isFloat = false
			}
		}
	}

	switch {
	case isBool:
		return core.Boolean
	case isFloat:
		return core.Continuous
	case float64(len(distinct)) <= enumRatio*float64(nonMissing):
		return core.Enumerated
	default:
		return core.Unknown
	}
}

// parseBool accepts true/false/t/f/1/0 in any case.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "t", "1":
		return true, true
	case "false", "f", "0":
		return false, true
	}
	return false, false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseCell converts raw text to a value of the column type.
func parseCell(raw string, t core.DataType, missing func(string) bool) core.Value {
	if missing(raw) {
		return core.Missing(t)
	}
	s := strings.TrimSpace(raw)
	switch t {
	case core.Boolean:
		b, _ := parseBool(s)
		return core.Bool(b)
	case core.Continuous:
		f, _ := parseFloat(s)
		return core.Float(f)
	case core.Enumerated:
		return core.Enum(s)
	default:
		return core.Missing(t)
	}
}
