// Package token defines the token types for combo program lexing.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	NAME        // and, +, 0<, contin_if
	NUMBER      // 1, -2.5, 1e10
	PLACEHOLDER // #1, #large
	TRUE        // true
	FALSE       // false

	// Punctuation
	LPAREN // (
	RPAREN // )
	COMMA  // ,
	BANG   // ! (literal negation)
)

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:         "EOF",
	ILLEGAL:     "ILLEGAL",
	NAME:        "NAME",
	NUMBER:      "NUMBER",
	PLACEHOLDER: "PLACEHOLDER",
	TRUE:        "true",
	FALSE:       "false",
	LPAREN:      "(",
	RPAREN:      ")",
	COMMA:       ",",
	BANG:        "!",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// String returns the literal when present, the token type otherwise.
func (t Token) String() string {
	if t.Literal != "" {
		return fmt.Sprintf("%q", t.Literal)
	}
	return t.Type.String()
}

// PlaceholderPrefix introduces a placeholder or a label in program text.
const PlaceholderPrefix = '#'

// IsSeparator reports whether c ends a word in program text.
// Separators are whitespace, parentheses and commas.
func IsSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v', '(', ')', ',':
		return true
	}
	return false
}

// LookupWord classifies a bare word that is not a placeholder.
func LookupWord(word string) TokenType {
	switch word {
	case "true":
		return TRUE
	case "false":
		return FALSE
	}
	return NAME
}
