package eval

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// ResultOperator names the tree root in TypeMismatchError when the program's
// final value is outside the evaluator's domain.
const ResultOperator = "<result>"

// UnboundPlaceholderError is returned when a placeholder index exceeds the
// width of the environment.
type UnboundPlaceholderError struct {
	Index int
	Width int
}

func (e *UnboundPlaceholderError) Error() string {
	return fmt.Sprintf("placeholder #%d is unbound: the table has %d column(s)", e.Index, e.Width)
}

// TypeMismatchError is returned when a value's runtime type disagrees with
// the declared type. Arg is the 1-based argument position, or 0 for the
// operator's own result.
type TypeMismatchError struct {
	Operator string
	Arg      int
	Want     core.DataType
	Got      core.DataType
}

func (e *TypeMismatchError) Error() string {
	switch {
	case e.Operator == ResultOperator:
		return fmt.Sprintf("type mismatch: program yields %s, evaluator expects %s", e.Got, e.Want)
	case e.Arg == 0:
		return fmt.Sprintf("type mismatch: operator %q returned %s, declared %s", e.Operator, e.Got, e.Want)
	default:
		return fmt.Sprintf("type mismatch: argument %d of %q is %s, want %s", e.Arg, e.Operator, e.Got, e.Want)
	}
}

// MissingValueError is returned when a program reads a missing cell.
type MissingValueError struct {
	Index int
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("placeholder #%d reads a missing value", e.Index)
}

// DomainError is returned under the NaNFail policy when an operator yields
// NaN, e.g. log of a non-positive number.
type DomainError struct {
	Operator string
	Args     []core.Value
}

func (e *DomainError) Error() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("domain error: %s(%s) is undefined", e.Operator, strings.Join(args, " "))
}
