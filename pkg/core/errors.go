package core

import "fmt"

// UnsupportedTypeError reports a column whose type no evaluator can process.
type UnsupportedTypeError struct {
	Column int // 1-based column index
	Label  string
	Type   DataType
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	name := fmt.Sprintf("#%d", e.Column)
	if e.Label != "" {
		name = fmt.Sprintf("#%d (%s)", e.Column, e.Label)
	}
	if e.Reason != "" {
		return fmt.Sprintf("unsupported type %s for column %s: %s", e.Type, name, e.Reason)
	}
	return fmt.Sprintf("unsupported type %s for column %s", e.Type, name)
}
