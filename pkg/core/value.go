package core

import (
	"math"
	"strconv"
)

// Value is a typed scalar: a table cell, a constant or an evaluation result.
// The zero Value is a missing value of unknown type.
type Value struct {
	typ     DataType
	missing bool
	b       bool
	f       float64
	s       string
}

// Bool returns a Boolean value.
func Bool(b bool) Value {
	return Value{typ: Boolean, b: b}
}

// Float returns a Continuous value.
func Float(f float64) Value {
	return Value{typ: Continuous, f: f}
}

// Enum returns an Enumerated value.
func Enum(s string) Value {
	return Value{typ: Enumerated, s: s}
}

// Missing returns a missing value of the given column type.
func Missing(t DataType) Value {
	return Value{typ: t, missing: true}
}

// Type returns the value's data type.
func (v Value) Type() DataType { return v.typ }

// IsMissing reports whether the value stands for a missing cell.
func (v Value) IsMissing() bool { return v.missing }

// AsBool returns the boolean payload. Only meaningful for Boolean values.
func (v Value) AsBool() bool { return v.b }

// AsFloat returns the continuous payload. Only meaningful for Continuous values.
func (v Value) AsFloat() float64 { return v.f }

// AsString returns the enumerated payload. Only meaningful for Enumerated values.
func (v Value) AsString() string { return v.s }

// IsNaN reports whether v is a Continuous NaN.
func (v Value) IsNaN() bool {
	return v.typ == Continuous && !v.missing && math.IsNaN(v.f)
}

// String formats the value the way it is written in program text.
func (v Value) String() string {
	if v.missing {
		return "?"
	}
	switch v.typ {
	case Boolean:
		if v.b {
			return "true"
		}
		return "false"
	case Continuous:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Enumerated:
		return v.s
	default:
		return "?"
	}
}

// Equal reports whether two values are identical. NaN equals NaN so that
// repeated evaluations compare equal.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ || v.missing != o.missing {
		return false
	}
	if v.missing {
		return true
	}
	switch v.typ {
	case Boolean:
		return v.b == o.b
	case Continuous:
		if math.IsNaN(v.f) && math.IsNaN(o.f) {
			return true
		}
		return v.f == o.f
	case Enumerated:
		return v.s == o.s
	default:
		return true
	}
}
