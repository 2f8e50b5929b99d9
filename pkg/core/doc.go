// Package core defines the shared language of the gridstyle system.
//
// This package contains:
//   - Domain entities (Rule, Formatting, Scope, CalcColumn)
//   - Evaluation contracts (RowContext, Aggregates)
//   - Compiled artifacts (StyleEntry, PredicateEntry)
//   - Service interfaces (Store)
//   - Expression AST node types
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
