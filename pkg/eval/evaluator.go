// Package eval implements the tree-walking evaluator for parsed condition
// expressions.
//
// Evaluation is pure: the same expression, row context, and aggregate
// snapshot always produce the same result, and nothing in the row is
// mutated. Runtime values are normalized to a small domain — nil, float64,
// string, bool, and time.Time — before any operator sees them.
//
// Errors are ordinary error values, not panics. Callers that evaluate rule
// conditions treat an evaluation error as "rule does not match"; callers
// that evaluate calculated columns treat it as a null cell.
package eval

import (
	"fmt"
	"strconv"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/token"
)

// Evaluate walks the expression tree and returns its value.
//
// The result is one of nil, float64, string, bool, or time.Time.
func Evaluate(expr core.Expr, rc core.RowContext) (any, error) {
	switch e := expr.(type) {
	case *core.Literal:
		return evalLiteral(e)
	case *core.FieldRef:
		return normalizeValue(rc.Field(e.Name)), nil
	case *core.ParenExpr:
		return Evaluate(e.Expr, rc)
	case *core.UnaryExpr:
		return evalUnary(e, rc)
	case *core.BinaryExpr:
		return evalBinary(e, rc)
	case *core.TernaryExpr:
		return evalTernary(e, rc)
	case *core.FuncCall:
		return evalFuncCall(e, rc)
	case nil:
		return nil, fmt.Errorf("cannot evaluate nil expression")
	default:
		return nil, fmt.Errorf("cannot evaluate expression of type %T", expr)
	}
}

// Predicate evaluates the expression and reduces the result to a truth
// value. An evaluation error is returned alongside false so callers can
// decide whether to surface it.
func Predicate(expr core.Expr, rc core.RowContext) (bool, error) {
	v, err := Evaluate(expr, rc)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func evalLiteral(lit *core.Literal) (any, error) {
	switch lit.Type {
	case core.LiteralNumber:
		n, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric literal %q", lit.Value)
		}
		return n, nil
	case core.LiteralString:
		return lit.Value, nil
	case core.LiteralBool:
		return lit.Value == "true", nil
	case core.LiteralNull:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown literal type %d", lit.Type)
	}
}

func evalUnary(e *core.UnaryExpr, rc core.RowContext) (any, error) {
	v, err := Evaluate(e.Expr, rc)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.NOT:
		return !truthy(v), nil
	case token.MINUS:
		n, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("cannot negate %s", typeName(v))
		}
		return -n, nil
	default:
		return nil, fmt.Errorf("unknown unary operator %s", e.Op)
	}
}

func evalBinary(e *core.BinaryExpr, rc core.RowContext) (any, error) {
	// AND and OR short-circuit: the right side is not evaluated (and cannot
	// fail) when the left side already decides the result.
	switch e.Op {
	case token.AND:
		left, err := Evaluate(e.Left, rc)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return false, nil
		}
		right, err := Evaluate(e.Right, rc)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil

	case token.OR:
		left, err := Evaluate(e.Left, rc)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return true, nil
		}
		right, err := Evaluate(e.Right, rc)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	}

	left, err := Evaluate(e.Left, rc)
	if err != nil {
		return nil, err
	}
	right, err := Evaluate(e.Right, rc)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.PLUS:
		return evalAdd(left, right)
	case token.MINUS, token.STAR, token.SLASH:
		return evalArithmetic(e.Op, left, right)
	case token.EQ:
		return looseEqual(left, right), nil
	case token.NE:
		return !looseEqual(left, right), nil
	case token.LT, token.LE, token.GT, token.GE:
		return compareOrdered(e.Op, left, right), nil
	default:
		return nil, fmt.Errorf("unknown binary operator %s", e.Op)
	}
}

// evalAdd is numeric-first: when both operands coerce to numbers the result
// is their sum, otherwise a string operand turns the operation into
// concatenation.
func evalAdd(left, right any) (any, error) {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if lok && rok {
		return ln + rn, nil
	}

	if _, ok := left.(string); ok {
		return formatValue(left) + formatValue(right), nil
	}
	if _, ok := right.(string); ok {
		return formatValue(left) + formatValue(right), nil
	}

	return nil, fmt.Errorf("cannot add %s and %s", typeName(left), typeName(right))
}

func evalArithmetic(op token.TokenType, left, right any) (any, error) {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %s requires numeric operands, got %s and %s",
			op, typeName(left), typeName(right))
	}

	switch op {
	case token.MINUS:
		return ln - rn, nil
	case token.STAR:
		return ln * rn, nil
	case token.SLASH:
		if rn == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return ln / rn, nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %s", op)
	}
}

func evalTernary(e *core.TernaryExpr, rc core.RowContext) (any, error) {
	cond, err := Evaluate(e.Cond, rc)
	if err != nil {
		return nil, err
	}
	// Only the taken branch is evaluated.
	if truthy(cond) {
		return Evaluate(e.Then, rc)
	}
	return Evaluate(e.Else, rc)
}
