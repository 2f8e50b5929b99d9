package parser

import (
	"fmt"

	"github.com/gridstack-labs/gridstyle/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken  = "unexpected token %s, expected %s"
	ErrUnexpectedInExpr = "unexpected token in expression: %s"
	ErrBareIdentifier   = "unexpected identifier %q (field references are written in brackets: [%s])"
	ErrTrailingInput    = "unexpected trailing input starting at %s"
)
