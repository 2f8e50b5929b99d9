package parser

import (
	"fmt"
	"strings"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/token"
)

// Primary expression parsing: literals, field references, function calls.
//
// Grammar:
//
//	primary    → literal | field_ref | func_call | paren_expr
//	literal    → NUMBER | STRING | TRUE | FALSE | NULL
//	field_ref  → "[" name "]"
//	func_call  → identifier "(" [expr_list] ")"

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() core.Expr {
	switch p.token.Type {
	case token.NUMBER:
		lit := &core.Literal{Type: core.LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.STRING:
		lit := &core.Literal{Type: core.LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.TRUE:
		p.nextToken()
		return &core.Literal{Type: core.LiteralBool, Value: "true"}

	case token.FALSE:
		p.nextToken()
		return &core.Literal{Type: core.LiteralBool, Value: "false"}

	case token.NULL:
		p.nextToken()
		return &core.Literal{Type: core.LiteralNull, Value: "null"}

	case token.FIELDREF:
		ref := &core.FieldRef{Name: p.token.Literal}
		p.nextToken()
		return ref

	case token.IDENT:
		return p.parseIdentifierExpr()

	case token.LPAREN:
		return p.parseParenExpr()

	default:
		p.addError(fmt.Sprintf(ErrUnexpectedInExpr, p.token.Type))
		p.nextToken()
		return nil
	}
}

// parseIdentifierExpr parses an identifier, which must be a function call.
// The language has no bare identifiers: fields are referenced in brackets.
func (p *Parser) parseIdentifierExpr() core.Expr {
	name := p.token.Literal

	if !p.checkPeek(token.LPAREN) {
		p.addError(fmt.Sprintf(ErrBareIdentifier, name, name))
		p.nextToken()
		return nil
	}

	p.nextToken()
	return p.parseFuncCall(name)
}

// parseFuncCall parses a function call. Names are stored uppercased; the
// built-in library matches case-insensitively.
func (p *Parser) parseFuncCall(name string) core.Expr {
	fn := &core.FuncCall{Name: strings.ToUpper(name)}

	p.expect(token.LPAREN)

	if !p.check(token.RPAREN) {
		for {
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			fn.Args = append(fn.Args, arg)

			if !p.match(token.COMMA) {
				break
			}
		}
	}

	if !p.expect(token.RPAREN) {
		return nil
	}

	return fn
}

// parseParenExpr parses a parenthesized expression.
func (p *Parser) parseParenExpr() core.Expr {
	p.nextToken() // consume '('

	expr := p.parseExpression()
	if expr == nil {
		return nil
	}

	if !p.expect(token.RPAREN) {
		return nil
	}

	return &core.ParenExpr{Expr: expr}
}
