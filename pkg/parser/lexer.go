package parser

import (
	"strconv"

	"github.com/leapstack-labs/evaltable/pkg/token"
)

// Lexer tokenizes combo program text.
//
// A word is a maximal run of non-separator characters. Words starting with
// '#' are placeholders, words that read as numbers are NUMBER, true/false are
// boolean literals and everything else is an operator NAME ("and", "0<", "+").
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// currentPos returns the current position.
func (l *Lexer) currentPos() Position {
	return Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.currentPos()

	switch l.ch {
	case 0:
		if l.pos >= len(l.input) {
			return Token{Type: token.EOF, Pos: pos}
		}
		l.readChar()
		return Token{Type: token.ILLEGAL, Literal: "\x00", Pos: pos}
	case '(':
		l.readChar()
		return Token{Type: token.LPAREN, Literal: "(", Pos: pos}
	case ')':
		l.readChar()
		return Token{Type: token.RPAREN, Literal: ")", Pos: pos}
	case ',':
		l.readChar()
		return Token{Type: token.COMMA, Literal: ",", Pos: pos}
	case '!':
		l.readChar()
		return Token{Type: token.BANG, Literal: "!", Pos: pos}
	case token.PlaceholderPrefix:
		return Token{Type: token.PLACEHOLDER, Literal: l.readWord(), Pos: pos}
	}

	word := l.readWord()
	switch {
	case token.LookupWord(word) != token.NAME:
		return Token{Type: token.LookupWord(word), Literal: word, Pos: pos}
	case looksNumeric(word):
		return Token{Type: token.NUMBER, Literal: word, Pos: pos}
	default:
		return Token{Type: token.NAME, Literal: word, Pos: pos}
	}
}

// Tokens lexes the whole input, EOF excluded.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' || l.ch == '\v' {
		l.readChar()
	}
}

func (l *Lexer) readWord() string {
	start := l.pos
	for l.pos < len(l.input) && !token.IsSeparator(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// looksNumeric reports whether word is meant as a number. Words such as "0<"
// begin with a digit but are operator names, and "inf" parses as a float but
// is not a combo literal.
func looksNumeric(word string) bool {
	s := word
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	if s == "" || !(isDigit(s[0]) || (s[0] == '.' && len(s) > 1 && isDigit(s[1]))) {
		return false
	}
	_, err := strconv.ParseFloat(word, 64)
	return err == nil
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
