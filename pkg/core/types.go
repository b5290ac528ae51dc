package core

import "strings"

// =============================================================================
// DataType
// =============================================================================

// DataType is the inferred type of a table column or of a value.
type DataType int

// Data types. The set is closed.
const (
	// Unknown is a column whose values fit no supported type.
	Unknown DataType = iota
	// Boolean values are true or false.
	Boolean
	// Continuous values are IEEE-754 double precision reals.
	Continuous
	// Enumerated values are free-form categorical strings.
	Enumerated
)

// String returns the string representation of the data type.
func (t DataType) String() string {
	switch t {
	case Boolean:
		return "boolean"
	case Continuous:
		return "continuous"
	case Enumerated:
		return "enumerated"
	default:
		return "unknown"
	}
}

// ParseDataType converts a string to a DataType.
// Accepts the combo short names "bool" and "contin" as aliases.
func ParseDataType(s string) (DataType, bool) {
	switch strings.ToLower(s) {
	case "boolean", "bool":
		return Boolean, true
	case "continuous", "contin", "float":
		return Continuous, true
	case "enumerated", "enum":
		return Enumerated, true
	default:
		return Unknown, false
	}
}

// IsDispatchable reports whether an evaluator specialization exists for t.
func (t DataType) IsDispatchable() bool {
	return t == Boolean || t == Continuous
}
