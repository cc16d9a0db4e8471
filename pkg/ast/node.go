// Package ast defines the normalized AST produced by pkg/normalizer from the
// raw pkg/sexp input and consumed by every later pipeline stage. Node shapes
// are deliberately plain structs — no symbol resolution machinery lives
// here; pkg/scope and pkg/types attach their own side tables (free/captured
// sets, inferred Kinds) keyed by Node identity rather than mutating these
// structs in place.
package ast

import "github.com/latticec/wasmc/pkg/sexp"

// Node is implemented by every expression and statement.
type Node interface {
	// Span returns the source range this node was parsed from, for
	// diagnostics.
	Span() sexp.Span
}

// base is embedded by every concrete node to provide Span() once. It is
// exported (despite the lowercase convention being more usual) because
// pkg/normalizer, which lives in a different package, constructs nodes
// directly via each type's exported constructor function, which in turn
// populates this field — callers never build a base literal themselves.
type base struct {
	span sexp.Span
}

// Span returns the source range this node was parsed from.
func (n base) Span() sexp.Span { return n.span }
