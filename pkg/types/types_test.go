package types

import (
	"testing"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/value"
)

func ident(name string) *ast.Ident { return ast.NewIdent(zeroSpan(), name) }

func num(n float64) *ast.Literal { return ast.NewLiteral(zeroSpan(), ast.LitNumber, n, "", false) }

func str(s string) *ast.Literal { return ast.NewLiteral(zeroSpan(), ast.LitString, 0, s, false) }

func boolLit(b bool) *ast.Literal { return ast.NewLiteral(zeroSpan(), ast.LitBool, 0, "", b) }

func letStmt(name string, init ast.Expr) *ast.LetDecl {
	return ast.NewLetDecl(zeroSpan(), ast.DeclLet, []ast.Binding{{Name: name, Init: init}})
}

func exprStmt(e ast.Expr) *ast.ExprStmt { return ast.NewExprStmt(zeroSpan(), e) }

func returnStmt(e ast.Expr) *ast.Return { return ast.NewReturn(zeroSpan(), e) }

func program(stmts ...ast.Stmt) *ast.Program { return ast.NewProgram(zeroSpan(), stmts) }

func CheckOk(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func CheckErr(t *testing.T, err error, wantKind diag.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", wantKind)
	}

	de, ok := err.(*diag.Error)
	if !ok {
		t.Fatalf("expected *diag.Error, got %T (%v)", err, err)
	}

	if de.Kind() != wantKind {
		t.Fatalf("expected kind %s, got %s (%v)", wantKind, de.Kind(), de)
	}
}

func TestInfer_IntegerLiteralIsI32(t *testing.T) {
	e := num(3)

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindI32 {
		t.Fatalf("expected KindI32, got %s", info.Expr[e])
	}
}

func TestInfer_FractionalLiteralIsF64(t *testing.T) {
	e := num(3.5)

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindF64 {
		t.Fatalf("expected KindF64, got %s", info.Expr[e])
	}
}

func TestInfer_StringLiteralIsString(t *testing.T) {
	e := str("hi")

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindString {
		t.Fatalf("expected KindString, got %s", info.Expr[e])
	}
}

func TestInfer_BoolLiteralIsI32(t *testing.T) {
	e := boolLit(true)

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindI32 {
		t.Fatalf("expected KindI32, got %s", info.Expr[e])
	}
}

func TestInfer_AdditionOfTwoInts(t *testing.T) {
	e := ast.NewBinary(zeroSpan(), "+", num(1), num(2))

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindI32 {
		t.Fatalf("expected KindI32, got %s", info.Expr[e])
	}
}

func TestInfer_AdditionPromotesToF64(t *testing.T) {
	e := ast.NewBinary(zeroSpan(), "+", num(1), num(2.5))

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindF64 {
		t.Fatalf("expected KindF64, got %s", info.Expr[e])
	}
}

func TestInfer_AdditionOfReferenceIsNonsenseCoercion(t *testing.T) {
	arr := ast.NewArrayLit(zeroSpan(), nil)
	e := ast.NewBinary(zeroSpan(), "+", arr, num(1))

	_, err := Infer(program(exprStmt(e)))
	CheckErr(t, err, diag.NonsenseCoercion)
}

func TestInfer_DivisionAlwaysF64(t *testing.T) {
	e := ast.NewBinary(zeroSpan(), "/", num(4), num(2))

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindF64 {
		t.Fatalf("expected KindF64, got %s", info.Expr[e])
	}
}

func TestInfer_BitwiseAlwaysI32(t *testing.T) {
	e := ast.NewBinary(zeroSpan(), "&", num(6), num(3))

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindI32 {
		t.Fatalf("expected KindI32, got %s", info.Expr[e])
	}
}

func TestInfer_ComparisonAlwaysI32(t *testing.T) {
	e := ast.NewBinary(zeroSpan(), "<", str("a"), str("b"))

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindI32 {
		t.Fatalf("expected KindI32, got %s", info.Expr[e])
	}
}

func TestInfer_NullishReturnsLeftWhenNotReference(t *testing.T) {
	e := ast.NewNullish(zeroSpan(), num(1), str("fallback"))

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindI32 {
		t.Fatalf("expected KindI32 (left operand, not a reference), got %s", info.Expr[e])
	}
}

func TestInfer_NullishReturnsRightWhenLeftIsReference(t *testing.T) {
	left := ast.NewLiteral(zeroSpan(), ast.LitNull, 0, "", false)
	e := ast.NewNullish(zeroSpan(), left, str("fallback"))

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindString {
		t.Fatalf("expected KindString (right operand), got %s", info.Expr[e])
	}
}

func TestInfer_TernaryConciliatesArms(t *testing.T) {
	e := ast.NewTernary(zeroSpan(), boolLit(true), num(1), num(2.5))

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindF64 {
		t.Fatalf("expected KindF64 (conciliated), got %s", info.Expr[e])
	}
}

func TestInfer_TernaryIrreconcilableArmsFails(t *testing.T) {
	e := ast.NewTernary(zeroSpan(), boolLit(true), num(1), str("x"))

	_, err := Infer(program(exprStmt(e)))
	CheckErr(t, err, diag.NonsenseCoercion)
}

// let x = 1; x = 2.5; — x widens from i32 to f64.
func TestInfer_LocalWidensFromI32ToF64(t *testing.T) {
	reassign := ast.NewAssign(zeroSpan(), ident("x"), num(2.5))

	prog := program(
		letStmt("x", num(1)),
		exprStmt(reassign),
	)

	info, err := Infer(prog)
	CheckOk(t, err)

	if info.Globals["x"] != value.KindF64 {
		t.Fatalf("expected x widened to KindF64, got %s", info.Globals["x"])
	}
}

// let x = 1; x = [1,2,3]; — conflicting kind categories is an error.
func TestInfer_LocalConflictingKindsFails(t *testing.T) {
	reassign := ast.NewAssign(zeroSpan(), ident("x"), ast.NewArrayLit(zeroSpan(), []ast.Expr{num(1)}))

	prog := program(
		letStmt("x", num(1)),
		exprStmt(reassign),
	)

	_, err := Infer(prog)
	CheckErr(t, err, diag.NonsenseCoercion)
}

// function f(x = 1) { return x + 1; } — return type join of the single
// return. x carries a default so its kind is bound before the body runs,
// rather than falling back to the unconstrained-read default.
func TestInfer_FunctionReturnType(t *testing.T) {
	fn := ast.NewArrow(zeroSpan(), "f", []ast.Param{{Name: "x", Default: num(1)}}, ast.NewBlock(zeroSpan(), []ast.Stmt{
		returnStmt(ast.NewBinary(zeroSpan(), "+", ident("x"), num(1))),
	}), nil)

	decl := ast.NewFuncDecl(zeroSpan(), fn)

	info, err := Infer(program(decl))
	CheckOk(t, err)

	if info.Returns[fn] != value.KindI32 {
		t.Fatalf("expected KindI32 return, got %s", info.Returns[fn])
	}
}

// function f() { return 1; return 2.5; } — return type is the join across
// every return statement.
func TestInfer_FunctionReturnTypeJoinsAcrossReturns(t *testing.T) {
	fn := ast.NewArrow(zeroSpan(), "f", nil, ast.NewBlock(zeroSpan(), []ast.Stmt{
		ast.NewIf(zeroSpan(), boolLit(true), returnStmt(num(1)), nil),
		returnStmt(num(2.5)),
	}), nil)

	decl := ast.NewFuncDecl(zeroSpan(), fn)

	info, err := Infer(program(decl))
	CheckOk(t, err)

	if info.Returns[fn] != value.KindF64 {
		t.Fatalf("expected KindF64 (joined), got %s", info.Returns[fn])
	}
}

// function answer() { return 6 * 7; } answer(); — a direct call site
// resolves the callee's inferred return kind.
func TestInfer_DirectCallResolvesCalleeReturnKind(t *testing.T) {
	fn := ast.NewArrow(zeroSpan(), "answer", nil, ast.NewBlock(zeroSpan(), []ast.Stmt{
		returnStmt(ast.NewBinary(zeroSpan(), "*", num(6), num(7))),
	}), nil)

	call := ast.NewCall(zeroSpan(), ident("answer"), nil)

	prog := program(
		ast.NewFuncDecl(zeroSpan(), fn),
		exprStmt(call),
	)

	info, err := Infer(prog)
	CheckOk(t, err)

	if info.Expr[call] != value.KindI32 {
		t.Fatalf("expected call to resolve to KindI32, got %s", info.Expr[call])
	}
}

// A call site appearing before its callee's textual declaration still
// resolves correctly once the fixed-point loop reaches a second pass.
func TestInfer_ForwardReferencedCallResolves(t *testing.T) {
	call := ast.NewCall(zeroSpan(), ident("answer"), nil)

	fn := ast.NewArrow(zeroSpan(), "answer", nil, ast.NewBlock(zeroSpan(), []ast.Stmt{
		returnStmt(ast.NewBinary(zeroSpan(), "*", num(6), num(7))),
	}), nil)

	prog := program(
		exprStmt(call),
		ast.NewFuncDecl(zeroSpan(), fn),
	)

	info, err := Infer(prog)
	CheckOk(t, err)

	if info.Expr[call] != value.KindI32 {
		t.Fatalf("expected forward-referenced call to resolve to KindI32, got %s", info.Expr[call])
	}
}

func TestInfer_ArrayLiteralIsArrayKind(t *testing.T) {
	e := ast.NewArrayLit(zeroSpan(), []ast.Expr{num(1), num(2)})

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindArray {
		t.Fatalf("expected KindArray, got %s", info.Expr[e])
	}
}

func TestInfer_ObjectLiteralIsObjectKind(t *testing.T) {
	e := ast.NewObjectLit(zeroSpan(), []ast.ObjectProp{{Name: "a", Value: num(1)}})

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindObject {
		t.Fatalf("expected KindObject, got %s", info.Expr[e])
	}
}

func TestInfer_MathPIIsF64(t *testing.T) {
	e := ast.NewMember(zeroSpan(), ident("Math"), "PI")

	info, err := Infer(program(exprStmt(e)))
	CheckOk(t, err)

	if info.Expr[e] != value.KindF64 {
		t.Fatalf("expected KindF64, got %s", info.Expr[e])
	}
}

func TestInfer_LengthMemberIsI32(t *testing.T) {
	e := ast.NewMember(zeroSpan(), ident("arr"), "length")

	prog := program(
		letStmt("arr", ast.NewArrayLit(zeroSpan(), nil)),
		exprStmt(e),
	)

	info, err := Infer(prog)
	CheckOk(t, err)

	if info.Expr[e] != value.KindI32 {
		t.Fatalf("expected KindI32, got %s", info.Expr[e])
	}
}

func TestJoin_SameKind(t *testing.T) {
	k, err := Join(value.KindI32, value.KindI32)
	CheckOk(t, err)

	if k != value.KindI32 {
		t.Fatalf("expected KindI32, got %s", k)
	}
}

func TestJoin_NumericWidensToF64(t *testing.T) {
	k, err := Join(value.KindI32, value.KindF64)
	CheckOk(t, err)

	if k != value.KindF64 {
		t.Fatalf("expected KindF64, got %s", k)
	}

	k, err = Join(value.KindF64, value.KindI32)
	CheckOk(t, err)

	if k != value.KindF64 {
		t.Fatalf("expected KindF64, got %s", k)
	}
}

func TestJoin_ReferenceMismatchFails(t *testing.T) {
	_, err := Join(value.KindArray, value.KindString)
	CheckErr(t, err, diag.NonsenseCoercion)
}

func TestJoin_NumericAgainstReferenceFails(t *testing.T) {
	_, err := Join(value.KindI32, value.KindObject)
	CheckErr(t, err, diag.NonsenseCoercion)
}
