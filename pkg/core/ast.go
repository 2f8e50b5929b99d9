package core

// Expr is the marker interface for expression AST nodes.
//
// The condition language produces a closed set of node types; evaluators
// type-switch over them. New node kinds are not an extension point.
type Expr interface {
	exprNode() // Marker method to distinguish expressions
}
