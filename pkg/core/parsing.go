package core

// Precedence constants for operator precedence parsing.
const (
	PrecedenceNone       = 0
	PrecedenceTernary    = 1 // cond ? a : b (right-associative)
	PrecedenceOr         = 2 // OR, ||
	PrecedenceAnd        = 3 // AND, &&
	PrecedenceComparison = 4 // =, !=, <>, <, >, <=, >=
	PrecedenceAddition   = 5 // +, -
	PrecedenceMultiply   = 6 // *, /
	PrecedenceUnary      = 7 // -x, !x, NOT x
)
