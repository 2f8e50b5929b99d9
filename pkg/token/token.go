// Package token defines the lexical tokens of the condition language.
//
// The language is deliberately small: field references in square brackets,
// number/string/bool/null literals, arithmetic and comparison operators,
// boolean connectives, the ternary operator, and function calls. The set is
// fixed; there is no dialect or extension mechanism.
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

	// Literals and references
	IDENT    // function names: ISNULL, CONTAINS, ...
	NUMBER   // 123, 45.67, 1e10
	STRING   // "hello"
	FIELDREF // [Price], [Bid Size]

	// Operators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	EQ       // = or ==
	NE       // != or <>
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	QUESTION // ?
	COLON    // :
	COMMA    // ,
	LPAREN   // (
	RPAREN   // )

	// Keywords. The symbol spellings && || ! are canonicalized to AND/OR/NOT
	// by the lexer, mirroring how != and <> share NE.
	AND
	OR
	NOT
	TRUE
	FALSE
	NULL
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:    "IDENT",
	NUMBER:   "NUMBER",
	STRING:   "STRING",
	FIELDREF: "FIELDREF",

	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	EQ:       "=",
	NE:       "!=",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	QUESTION: "?",
	COLON:    ":",
	COMMA:    ",",
	LPAREN:   "(",
	RPAREN:   ")",

	AND:   "AND",
	OR:    "OR",
	NOT:   "NOT",
	TRUE:  "TRUE",
	FALSE: "FALSE",
	NULL:  "NULL",
}

// keywords maps lowercase keyword strings to their token types.
// Keywords are matched case-insensitively by the lexer.
var keywords = map[string]TokenType{
	"and":   AND,
	"or":    OR,
	"not":   NOT,
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,
}

// LookupIdent returns the token type for the given identifier.
// If the identifier (lowercased) is a keyword, the keyword token type is
// returned. Otherwise, IDENT is returned.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= AND && t <= NULL
}

// IsOperator returns true if the token type is an operator.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= RPAREN
}

// IsComparison returns true for the comparison operator tokens.
func IsComparison(t TokenType) bool {
	return t >= EQ && t <= GE
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}
