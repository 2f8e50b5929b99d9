// Package parser parses the grid condition language into expression ASTs.
//
// # Usage
//
//	expr, err := parser.Parse(`[price] > 100 AND [status] = "Open"`)
//	if err != nil {
//	    // handle error
//	}
//
// Parsing happens once per rule, at compile time; the resulting AST is
// reused across all row evaluations.
//
// # Grammar Overview
//
// The parser implements a Pratt (precedence-climbing) parser:
//
//	expression → ternary
//	ternary    → or ["?" expression ":" ternary]
//	or         → and {("OR" | "||") and}
//	and        → cmp {("AND" | "&&") cmp}
//	cmp        → add {("=" | "==" | "!=" | "<>" | "<" | ">" | "<=" | ">=") add}
//	add        → mul {("+" | "-") mul}
//	mul        → unary {("*" | "/") unary}
//	unary      → ("-" | "!" | "NOT") unary | primary
//	primary    → NUMBER | STRING | TRUE | FALSE | NULL | FIELDREF
//	           | IDENT "(" [expression {"," expression}] ")"
//	           | "(" expression ")"
package parser

import (
	"fmt"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/token"
)

// Parser parses a condition expression into an AST.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given expression source.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the expression and returns the AST. The whole input must be
// one expression; trailing tokens are an error, so an incomplete condition
// like "[value] >" fails here rather than matching nothing at runtime.
func Parse(input string) (core.Expr, error) {
	return NewParser(input).ParseExpression()
}

// ParseExpression parses the full input as a single expression.
func (p *Parser) ParseExpression() (core.Expr, error) {
	expr := p.parseExpression()
	if expr != nil && !p.check(token.EOF) && len(p.errors) == 0 {
		p.addError(fmt.Sprintf(ErrTrailingInput, p.token.Type))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return expr, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, t))
	return false
}

// addError adds a parse error.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}
