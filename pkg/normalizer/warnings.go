package normalizer

import (
	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/sexp"
)

// pushScope/popScope/declare track the lexically-nested block structure just
// well enough to support the two scope-adjacent warnings below; the
// authoritative capture analysis lives in pkg/scope.
func (n *Normalizer) pushScope() { n.scopes = append(n.scopes, map[string]bool{}) }

func (n *Normalizer) popScope() { n.scopes = n.scopes[:len(n.scopes)-1] }

func (n *Normalizer) currentScope() map[string]bool { return n.scopes[len(n.scopes)-1] }

// declare records name as bound in the current block, warning on
// redeclaration within that same block.
func (n *Normalizer) declare(span sexp.Span, name string) {
	top := n.currentScope()

	if top[name] {
		n.Warnings.Warn(span, "%q is already declared in this scope", name)
	}

	top[name] = true
	n.seen[name] = true
}

// warnVarUsage flags `var` bindings, which are accepted but discouraged in
// favour of let/const.
func (n *Normalizer) warnVarUsage(span sexp.Span, kind ast.DeclKind) {
	if kind == ast.DeclVar {
		n.Warnings.Warn(span, "var is accepted but deprecated; prefer let or const")
	}
}

// warnImplicitGlobal flags an assignment to an identifier never declared by
// any enclosing let/const/var/param/function binding seen so far.
func (n *Normalizer) warnImplicitGlobal(span sexp.Span, ident *ast.Ident) {
	if !n.seen[ident.Name] {
		n.Warnings.Warn(span, "assignment to undeclared identifier %q creates an implicit global", ident.Name)
	}
}

// warnNaNComparison flags `x === NaN`/`x !== NaN` style comparisons, which
// are never true/always true respectively since NaN does not equal itself.
func (n *Normalizer) warnNaNComparison(span sexp.Span, op string, left, right ast.Expr) {
	if op != "==" && op != "===" && op != "!=" && op != "!==" {
		return
	}

	if isNaNIdent(left) || isNaNIdent(right) {
		n.Warnings.Warn(span, "comparing against NaN with %q is always false (except !=/!==, which are always true); use Number.isNaN instead", op)
	}
}

func isNaNIdent(e ast.Expr) bool {
	ident, ok := e.(*ast.Ident)
	return ok && ident.Name == "NaN"
}

// warnNullishEquality flags `== null`/`== undefined`, which (under this
// language's strict-equality-only semantics) do not implicitly match the
// other nullish value the way loose JS equality would; spelling out the
// intent with `??` or an explicit check avoids the ambiguity.
func (n *Normalizer) warnNullishEquality(span sexp.Span, op string, left, right ast.Expr) {
	if op != "==" && op != "!=" {
		return
	}

	if isNullish(left) || isNullish(right) {
		n.Warnings.Warn(span, "%q against null/undefined does not coalesce the two; use ?? or an explicit check", op)
	}
}

func isNullish(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && (lit.Kind == ast.LitNull || lit.Kind == ast.LitUndefined)
}

// warnParseIntRadix flags a parseInt call with no explicit radix argument,
// since the language fixes no default and a missing radix is a frequent
// source of octal/hex surprises in the source language this subset mirrors.
func (n *Normalizer) warnParseIntRadix(span sexp.Span, callee ast.Expr, args []ast.Expr) {
	ident, ok := callee.(*ast.Ident)
	if !ok || ident.Name != "parseInt" {
		return
	}

	if len(args) < 2 {
		n.Warnings.Warn(span, "parseInt called without an explicit radix")
	}
}
