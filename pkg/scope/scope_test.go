package scope

import (
	"testing"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

func sp() sexp.Span { return sexp.NewSpan(0, 0) }

func ident(name string) *ast.Ident { return ast.NewIdent(sp(), name) }

func num(n float64) *ast.Literal { return ast.NewLiteral(sp(), ast.LitNumber, n, "", false) }

func param(name string) ast.Param { return ast.Param{Name: name} }

func block(stmts ...ast.Stmt) *ast.Block { return ast.NewBlock(sp(), stmts) }

func letStmt(kind ast.DeclKind, name string, init ast.Expr) *ast.LetDecl {
	return ast.NewLetDecl(sp(), kind, []ast.Binding{{Name: name, Init: init}})
}

func exprStmt(e ast.Expr) *ast.ExprStmt { return ast.NewExprStmt(sp(), e) }

func returnStmt(e ast.Expr) *ast.Return { return ast.NewReturn(sp(), e) }

func arrow(name string, params []ast.Param, body *ast.Block) *ast.Arrow {
	return ast.NewArrow(sp(), name, params, body, nil)
}

func program(stmts ...ast.Stmt) *ast.Program { return ast.NewProgram(sp(), stmts) }

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

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}

	return false
}

// f(x) { return x + 1; } — a function with no free variables at all.
func TestAnalyze_NoCapture(t *testing.T) {
	fn := arrow("f", []ast.Param{param("x")}, block(
		returnStmt(ast.NewBinary(sp(), "+", ident("x"), num(1))),
	))

	mod, err := Analyze(program(ast.NewFuncDecl(sp(), fn)))
	CheckOk(t, err)

	if len(mod.Functions) != 1 {
		t.Fatalf("expected 1 top-level function, got %d", len(mod.Functions))
	}

	info := mod.Functions[0]

	if len(info.Free) != 0 {
		t.Fatalf("expected no free names, got %v", info.Free)
	}

	if !contains(info.Defined, "x") {
		t.Fatalf("expected x in Defined, got %v", info.Defined)
	}
}

// function outer() { let x = 1; function inner() { return x; } }
// inner captures x; outer hoists x.
func TestAnalyze_SimpleCapture(t *testing.T) {
	inner := arrow("inner", nil, block(returnStmt(ident("x"))))

	outer := arrow("outer", nil, block(
		letStmt(ast.DeclLet, "x", num(1)),
		ast.NewFuncDecl(sp(), inner),
	))

	mod, err := Analyze(program(ast.NewFuncDecl(sp(), outer)))
	CheckOk(t, err)

	outerInfo := mod.Functions[0]

	if !contains(outerInfo.Hoisted, "x") {
		t.Fatalf("expected outer to hoist x, got %v", outerInfo.Hoisted)
	}

	if len(outerInfo.Inner) != 1 {
		t.Fatalf("expected 1 inner function, got %d", len(outerInfo.Inner))
	}

	innerInfo := outerInfo.Inner[0]

	if !contains(innerInfo.Captured, "x") {
		t.Fatalf("expected inner to capture x, got %v", innerInfo.Captured)
	}

	if len(innerInfo.Free) != 0 {
		t.Fatalf("expected inner to have no free names left after capture, got %v", innerInfo.Free)
	}
}

// function outer() { let x = 1; function inner() { x = 2; } } must fail:
// inner mutates a captured outer local.
func TestAnalyze_MutatingCapturedLocalFails(t *testing.T) {
	inner := arrow("inner", nil, block(
		exprStmt(ast.NewAssign(sp(), ident("x"), num(2))),
	))

	outer := arrow("outer", nil, block(
		letStmt(ast.DeclLet, "x", num(1)),
		ast.NewFuncDecl(sp(), inner),
	))

	_, err := Analyze(program(ast.NewFuncDecl(sp(), outer)))
	CheckErr(t, err, diag.CannotMutateCapturedLocal)
}

// function f() { return y; } with y never declared anywhere must fail.
func TestAnalyze_UnknownIdentifierInFunction(t *testing.T) {
	fn := arrow("f", nil, block(returnStmt(ident("y"))))

	_, err := Analyze(program(ast.NewFuncDecl(sp(), fn)))
	CheckErr(t, err, diag.UnknownIdentifier)
}

// A bare top-level reference to an undeclared name must also fail, not just
// one reached through a function body.
func TestAnalyze_UnknownIdentifierAtTopLevel(t *testing.T) {
	_, err := Analyze(program(exprStmt(ident("neverDeclared"))))
	CheckErr(t, err, diag.UnknownIdentifier)
}

// A top-level let declaration makes a module global resolvable from within
// any function, without being "captured" (module scope is not a closure
// boundary).
func TestAnalyze_ModuleGlobalResolvesAndIsNotCaptured(t *testing.T) {
	fn := arrow("f", nil, block(returnStmt(ident("g"))))

	mod, err := Analyze(program(
		letStmt(ast.DeclLet, "g", num(1)),
		ast.NewFuncDecl(sp(), fn),
	))
	CheckOk(t, err)

	if !contains(mod.Globals, "g") {
		t.Fatalf("expected g in Globals, got %v", mod.Globals)
	}

	info := mod.Functions[0]

	if len(info.Captured) != 0 {
		t.Fatalf("expected no captures for a module global, got %v", info.Captured)
	}

	if !contains(info.Free, "g") {
		t.Fatalf("expected g in Free (resolved against module scope), got %v", info.Free)
	}
}

// Builtins (Math, NaN, parseInt, ...) never appear in Free and never need a
// module-level declaration.
func TestAnalyze_BuiltinsResolveWithoutDeclaration(t *testing.T) {
	fn := arrow("f", nil, block(
		returnStmt(ast.NewCall(sp(), ast.NewMember(sp(), ident("Math"), "sqrt"), []ast.Expr{num(4)})),
	))

	mod, err := Analyze(program(ast.NewFuncDecl(sp(), fn)))
	CheckOk(t, err)

	info := mod.Functions[0]

	if contains(info.Free, "Math") {
		t.Fatalf("expected Math not to appear in Free, got %v", info.Free)
	}
}

// function outer() { let x = 1; function mid() { function inner() { return
// x; } } } — x is free in inner, bubbles through mid (which neither defines
// nor assigns it), and resolves as captured at outer, the actual defining
// ancestor two levels up.
func TestAnalyze_CaptureAcrossTwoLevels(t *testing.T) {
	inner := arrow("inner", nil, block(returnStmt(ident("x"))))
	mid := arrow("mid", nil, block(ast.NewFuncDecl(sp(), inner)))

	outer := arrow("outer", nil, block(
		letStmt(ast.DeclLet, "x", num(1)),
		ast.NewFuncDecl(sp(), mid),
	))

	mod, err := Analyze(program(ast.NewFuncDecl(sp(), outer)))
	CheckOk(t, err)

	outerInfo := mod.Functions[0]

	if !contains(outerInfo.Hoisted, "x") {
		t.Fatalf("expected outer to hoist x, got %v", outerInfo.Hoisted)
	}

	midInfo := outerInfo.Inner[0]

	if !contains(midInfo.Captured, "x") {
		t.Fatalf("expected mid to capture x (it must thread it through to inner), got %v", midInfo.Captured)
	}

	if len(midInfo.Free) != 0 {
		t.Fatalf("expected mid to have no free names left, got %v", midInfo.Free)
	}

	innerInfo := midInfo.Inner[0]

	if !contains(innerInfo.Free, "x") {
		t.Fatalf("expected inner to still see x as free (resolved one level further up than mid), got %v", innerInfo.Free)
	}
}

// function outer() { let x = 1; function mid() { function inner() { x = 2;
// } } } must fail even though the assignment happens two levels down from
// outer, the function that actually defines x.
func TestAnalyze_MutatingCapturedLocalAcrossTwoLevelsFails(t *testing.T) {
	inner := arrow("inner", nil, block(
		exprStmt(ast.NewAssign(sp(), ident("x"), num(2))),
	))
	mid := arrow("mid", nil, block(ast.NewFuncDecl(sp(), inner)))

	outer := arrow("outer", nil, block(
		letStmt(ast.DeclLet, "x", num(1)),
		ast.NewFuncDecl(sp(), mid),
	))

	_, err := Analyze(program(ast.NewFuncDecl(sp(), outer)))
	CheckErr(t, err, diag.CannotMutateCapturedLocal)
}

// Reassigning a parameter from within its own function body is ordinary
// local mutation, not a capture violation.
func TestAnalyze_AssigningOwnParamIsFine(t *testing.T) {
	fn := arrow("f", []ast.Param{param("x")}, block(
		exprStmt(ast.NewAssign(sp(), ident("x"), num(2))),
	))

	_, err := Analyze(program(ast.NewFuncDecl(sp(), fn)))
	CheckOk(t, err)
}
