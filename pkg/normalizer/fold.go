package normalizer

import (
	"math"

	"github.com/latticec/wasmc/pkg/ast"
)

// foldBinary implements constant folding over two numeric literals:
// arithmetic uses double precision, bitwise ops truncate both operands to
// 32-bit signed integers first (mirroring the source language's standard
// semantics), matching the behaviour pkg/types/pkg/codegen apply at runtime
// for non-constant operands.
func foldBinary(op string, l, r *ast.Literal) (*ast.Literal, bool) {
	if l.Kind != ast.LitNumber || r.Kind != ast.LitNumber {
		return nil, false
	}

	span := l.Span()
	a, b := l.Num, r.Num

	switch op {
	case "+":
		return ast.NewLiteral(span, ast.LitNumber, a+b, "", false), true
	case "-":
		return ast.NewLiteral(span, ast.LitNumber, a-b, "", false), true
	case "*":
		return ast.NewLiteral(span, ast.LitNumber, a*b, "", false), true
	case "/":
		return ast.NewLiteral(span, ast.LitNumber, a/b, "", false), true
	case "%":
		return ast.NewLiteral(span, ast.LitNumber, math.Mod(a, b), "", false), true
	case "**":
		return ast.NewLiteral(span, ast.LitNumber, floatPow(a, b), "", false), true
	case "&", "|", "^", "<<", ">>", ">>>":
		return ast.NewLiteral(span, ast.LitNumber, foldInt32Op(op, a, b), "", false), true
	default:
		return nil, false
	}
}

// toInt32 truncates a double to a 32-bit signed integer the way the
// bitwise operators do.
func toInt32(f float64) int32 {
	if f != f { // NaN
		return 0
	}

	return int32(int64(f))
}

func foldInt32Op(op string, a, b float64) float64 {
	x, y := toInt32(a), toInt32(b)

	switch op {
	case "&":
		return float64(x & y)
	case "|":
		return float64(x | y)
	case "^":
		return float64(x ^ y)
	case "<<":
		return float64(x << (uint32(y) & 0x1F))
	case ">>":
		return float64(x >> (uint32(y) & 0x1F))
	case ">>>":
		return float64(uint32(x) >> (uint32(y) & 0x1F))
	}

	return 0
}

func floatPow(a, b float64) float64 {
	// pow(0,0) == 1; math.Pow already agrees,
	// but the special case is called out here since it's load-bearing for
	// a testable property.
	if a == 0 && b == 0 {
		return 1
	}

	return math.Pow(a, b)
}

// identityFold applies the identity laws x+0->x, x-0->x, x*1->x, x/1->x,
// and the symmetric forms for literal 0/1 on the left.
// Returns the simplified expression and whether a simplification applied.
func identityFold(op string, left, right ast.Expr) (ast.Expr, bool) {
	lLit, lOk := left.(*ast.Literal)
	rLit, rOk := right.(*ast.Literal)

	isZero := func(e *ast.Literal, ok bool) bool { return ok && e.Kind == ast.LitNumber && e.Num == 0 }
	isOne := func(e *ast.Literal, ok bool) bool { return ok && e.Kind == ast.LitNumber && e.Num == 1 }

	switch op {
	case "+":
		if isZero(rLit, rOk) {
			return left, true
		}

		if isZero(lLit, lOk) {
			return right, true
		}
	case "-":
		if isZero(rLit, rOk) {
			return left, true
		}
	case "*":
		if isOne(rLit, rOk) {
			return left, true
		}

		if isOne(lLit, lOk) {
			return right, true
		}
	case "/":
		if isOne(rLit, rOk) {
			return left, true
		}
	}

	return nil, false
}
