package parser

import (
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels (from pkg/core):
//
//	PrecedenceNone       = 0
//	PrecedenceTernary    = 1  (?: right-associative)
//	PrecedenceOr         = 2  (OR, ||)
//	PrecedenceAnd        = 3  (AND, &&)
//	PrecedenceComparison = 4  (=, ==, !=, <>, <, >, <=, >=)
//	PrecedenceAddition   = 5  (+, -)
//	PrecedenceMultiply   = 6  (*, /)
//	PrecedenceUnary      = 7  (-, !, NOT)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() core.Expr {
	return p.parseExpressionWithPrecedence(core.PrecedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) core.Expr {
	// Parse prefix (unary operators and primary expressions)
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	// Parse infix operators while their precedence is >= minPrecedence
	for {
		prec := p.getInfixPrecedence()
		if prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() core.Expr {
	switch p.token.Type {
	case token.NOT:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(core.PrecedenceUnary)
		if expr == nil {
			return nil
		}
		return &core.UnaryExpr{Op: token.NOT, Expr: expr}

	case token.MINUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(core.PrecedenceUnary)
		if expr == nil {
			return nil
		}
		return &core.UnaryExpr{Op: token.MINUS, Expr: expr}

	default:
		return p.parsePrimary()
	}
}

// getInfixPrecedence returns the precedence of the current token as an infix
// operator, or PrecedenceNone if the token is not an infix operator.
func (p *Parser) getInfixPrecedence() int {
	switch p.token.Type {
	case token.QUESTION:
		return core.PrecedenceTernary
	case token.OR:
		return core.PrecedenceOr
	case token.AND:
		return core.PrecedenceAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
		return core.PrecedenceComparison
	case token.PLUS, token.MINUS:
		return core.PrecedenceAddition
	case token.STAR, token.SLASH:
		return core.PrecedenceMultiply
	default:
		return core.PrecedenceNone
	}
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left core.Expr, prec int) core.Expr {
	if p.token.Type == token.QUESTION {
		return p.parseTernaryExpr(left)
	}

	op := p.token
	p.nextToken()

	// Parse right operand with higher precedence (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)
	if right == nil {
		return nil
	}

	return &core.BinaryExpr{Left: left, Op: op.Type, Right: right}
}

// parseTernaryExpr parses cond ? then : else. The else branch re-enters at
// ternary precedence, making the operator right-associative.
func (p *Parser) parseTernaryExpr(cond core.Expr) core.Expr {
	p.nextToken() // consume '?'

	then := p.parseExpression()
	if then == nil {
		return nil
	}

	if !p.expect(token.COLON) {
		return nil
	}

	els := p.parseExpressionWithPrecedence(core.PrecedenceTernary)
	if els == nil {
		return nil
	}

	return &core.TernaryExpr{Cond: cond, Then: then, Else: els}
}
