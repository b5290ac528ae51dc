// Package parser turns combo program text into expression trees.
//
// # Usage
//
//	tree, err := parser.Parse("and(#1 not(#2))", operator.Default())
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// Programs use fully parenthesized prefix notation:
//
//	program → expr EOF
//	expr    → NAME '(' [expr {[','] expr}] ')'
//	        | NAME                  (operators of arity 0, e.g. rand)
//	        | '!' expr              (literal negation, same as not(expr))
//	        | NUMBER | PLACEHOLDER | 'true' | 'false'
//
// Children are separated by whitespace and/or commas. Operator names, arity
// and shape are checked against the registry at parse time; value types are
// checked later by the evaluator.
package parser

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/evaltable/pkg/core"
	"github.com/leapstack-labs/evaltable/pkg/operator"
	"github.com/leapstack-labs/evaltable/pkg/token"
)

// Parser parses combo program text into a core.Node tree.
type Parser struct {
	lexer    *Lexer
	token    Token // current token
	peek     Token // lookahead token
	errors   []error
	registry *operator.Registry
}

// NewParser creates a new parser for the given program text.
// A nil registry means operator.Default().
func NewParser(text string, reg *operator.Registry) *Parser {
	if reg == nil {
		reg = operator.Default()
	}
	p := &Parser{
		lexer:    NewLexer(text),
		registry: reg,
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single program. The first error is returned as a *SyntaxError.
func Parse(text string, reg *operator.Registry) (core.Node, error) {
	p := NewParser(text, reg)
	node := p.parseProgram()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return node, nil
}

// ParseAll parses every program in order. The first failure aborts and is
// wrapped with its 1-based program number.
func ParseAll(texts []string, reg *operator.Registry) ([]core.Node, error) {
	if reg == nil {
		reg = operator.Default()
	}
	nodes := make([]core.Node, len(texts))
	for i, text := range texts {
		node, err := Parse(text, reg)
		if err != nil {
			return nil, fmt.Errorf("program %d: %w", i+1, err)
		}
		nodes[i] = node
	}
	return nodes, nil
}

// Errors returns all errors collected so far.
func (p *Parser) Errors() []error {
	return p.errors
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// addError adds a syntax error at the current token.
func (p *Parser) addError(msg string) {
	p.addErrorAt(p.token.Pos, msg)
}

func (p *Parser) addErrorAt(pos Position, msg string) {
	p.errors = append(p.errors, &SyntaxError{
		Pos:     pos,
		Message: msg,
	})
}

// ---------- Grammar ----------

// parseProgram parses: expr EOF
func (p *Parser) parseProgram() core.Node {
	if p.check(token.EOF) {
		p.addError(ErrUnexpectedEOF)
		return nil
	}
	node := p.parseExpr()
	if len(p.errors) > 0 {
		return nil
	}
	if !p.check(token.EOF) {
		if p.check(token.RPAREN) {
			p.addError(ErrUnopenedParen)
		} else {
			p.addError(fmt.Sprintf(ErrTrailingToken, p.token))
		}
		return nil
	}
	return node
}

// parseExpr parses one expression. On error it records the error and
// returns nil; callers stop at the first error.
func (p *Parser) parseExpr() core.Node {
	tok := p.token

	switch tok.Type {
	case token.NAME:
		return p.parseCall()
	case token.BANG:
		return p.parseNegation()
	case token.NUMBER:
		p.nextToken()
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addErrorAt(tok.Pos, fmt.Sprintf(ErrInvalidNumber, tok.Literal))
			return nil
		}
		return core.Constant{Value: core.Float(f)}
	case token.TRUE:
		p.nextToken()
		return core.Constant{Value: core.Bool(true)}
	case token.FALSE:
		p.nextToken()
		return core.Constant{Value: core.Bool(false)}
	case token.PLACEHOLDER:
		p.nextToken()
		return p.placeholder(tok)
	case token.EOF:
		p.addError(ErrUnexpectedEOF)
	case token.RPAREN:
		p.addError(ErrUnopenedParen)
	case token.ILLEGAL:
		p.addError(fmt.Sprintf(ErrIllegalCharacter, tok.Literal))
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, tok, "expression"))
	}
	return nil
}

// parseCall parses: NAME ['(' args ')']
func (p *Parser) parseCall() core.Node {
	tok := p.token
	op, ok := p.registry.Lookup(tok.Literal)
	if !ok {
		p.addError(fmt.Sprintf(ErrUnknownOperator, tok.Literal))
		return nil
	}
	p.nextToken()

	if !p.match(token.LPAREN) {
		// Bare operator name, only legal when it takes no children.
		if !op.Arity.Accepts(0) {
			p.addErrorAt(tok.Pos, fmt.Sprintf(ErrMissingArguments, op.Name, op.Arity))
			return nil
		}
		return &core.Call{Op: op}
	}

	var args []core.Node
	for !p.check(token.RPAREN) {
		if p.match(token.COMMA) {
			continue
		}
		if p.check(token.EOF) {
			p.addError(fmt.Sprintf(ErrUnclosedParen, op.Name))
			return nil
		}
		arg := p.parseExpr()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}
	p.nextToken() // consume ')'

	if !op.Arity.Accepts(len(args)) {
		p.addErrorAt(tok.Pos, fmt.Sprintf(ErrArityMismatch, op.Name, op.Arity, len(args)))
		return nil
	}
	return &core.Call{Op: op, Args: args}
}

// parseNegation parses: '!' expr
func (p *Parser) parseNegation() core.Node {
	pos := p.token.Pos
	p.nextToken()

	not, ok := p.registry.Lookup("not")
	if !ok || !not.Arity.Accepts(1) {
		p.addErrorAt(pos, ErrNegationUndefined)
		return nil
	}
	child := p.parseExpr()
	if child == nil {
		return nil
	}
	return &core.Call{Op: not, Args: []core.Node{child}}
}

func (p *Parser) placeholder(tok Token) core.Node {
	digits := tok.Literal[1:]
	if digits == "" {
		p.addErrorAt(tok.Pos, fmt.Sprintf(ErrInvalidIndex, tok.Literal))
		return nil
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			p.addErrorAt(tok.Pos, fmt.Sprintf(ErrLabelPlaceholder, tok.Literal))
			return nil
		}
	}
	idx, err := strconv.Atoi(digits)
	if err != nil || idx < 1 {
		p.addErrorAt(tok.Pos, fmt.Sprintf(ErrInvalidIndex, tok.Literal))
		return nil
	}
	return core.InputRef{Index: idx}
}
