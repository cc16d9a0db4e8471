package normalizer

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

// compoundOps maps a compound-assignment operator to its underlying binary
// operator: "i++" desugars to "(i += 1) - 1".
var compoundOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%", "**=": "**",
	"&=": "&", "|=": "|", "^=": "^", "<<=": "<<", ">>=": ">>", ">>>=": ">>>",
}

// rewriteCompoundAssign desugars `target op= value` into `target = target op
// value`. The target subtree is shared between the read and write
// positions; for an *ast.Ident target this is exact, but for *ast.Index /
// *ast.Member targets this evaluates the addressing subexpressions twice
// rather than introducing a temporary, acceptable since the source subset
// has no user-visible indexing side effects beyond the array/object itself.
func rewriteCompoundAssign(span sexp.Span, op string, target, value ast.Expr) (ast.Expr, error) {
	binOp, ok := compoundOps[op]
	if !ok {
		return nil, diag.New(diag.UnsupportedOperator, span, fmt.Sprintf("compound operator %q is not permitted", op))
	}

	if err := validateBinaryOp(span, binOp); err != nil {
		return nil, err
	}

	rhs := foldedBinary(span, binOp, target, value)

	return ast.NewAssign(span, target, rhs), nil
}

// rewritePostIncDec desugars `i++`/`i--` to `(i += 1) - 1` / `(i -= 1) + 1`:
// the assignment's new value is produced, then the opposite adjustment
// recovers the pre-increment value as the expression's result.
func rewritePostIncDec(span sexp.Span, op string, target ast.Expr) ast.Expr {
	delta := ast.NewLiteral(span, ast.LitNumber, 1, "", false)
	assignOp := "+"
	undoOp := "-"

	if op == "--" {
		assignOp = "-"
		undoOp = "+"
	}

	assign := ast.NewAssign(span, target, foldedBinary(span, assignOp, target, delta))

	return foldedBinary(span, undoOp, assign, delta)
}

// rewritePreIncDec desugars `++i`/`--i` to `i += 1` / `i -= 1`.
func rewritePreIncDec(span sexp.Span, op string, target ast.Expr) ast.Expr {
	delta := ast.NewLiteral(span, ast.LitNumber, 1, "", false)
	assignOp := "+"

	if op == "--" {
		assignOp = "-"
	}

	return ast.NewAssign(span, target, foldedBinary(span, assignOp, target, delta))
}

// foldedBinary constructs a Binary node, applying constant folding and the
// identity laws immediately so that e.g. `"literal"+0` normalizes to the same node as
// `"literal"` alone.
func foldedBinary(span sexp.Span, op string, left, right ast.Expr) ast.Expr {
	if l, ok := left.(*ast.Literal); ok {
		if r, ok := right.(*ast.Literal); ok {
			if folded, ok := foldBinary(op, l, r); ok {
				return folded
			}
		}
	}

	if simplified, ok := identityFold(op, left, right); ok {
		return simplified
	}

	return ast.NewBinary(span, op, left, right)
}
