package parser

import "fmt"

// SyntaxError represents malformed program text with position information.
type SyntaxError struct {
	Pos     Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken   = "unexpected token %s, expected %s"
	ErrUnexpectedEOF     = "unexpected end of program"
	ErrUnclosedParen     = "unbalanced parentheses: missing ')' for %q"
	ErrUnopenedParen     = "unbalanced parentheses: unexpected ')'"
	ErrUnknownOperator   = "unknown operator %q"
	ErrArityMismatch     = "operator %q takes %s argument(s), got %d"
	ErrMissingArguments  = "operator %q takes %s argument(s) and must be followed by '('"
	ErrInvalidNumber     = "invalid number literal %q"
	ErrInvalidIndex      = "placeholder %q must be '#' followed by an index >= 1"
	ErrLabelPlaceholder  = "label %q used where a positional placeholder is expected"
	ErrTrailingToken     = "unexpected trailing token %s"
	ErrIllegalCharacter  = "illegal character %q"
	ErrNegationUndefined = "'!' requires a registered \"not\" operator"
)
