package normalizer

import (
	"testing"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

// sym and L are small constructors for building S-expression fixtures
// directly, since the stand-in parser has no textual notation for the
// vacant-operator literal slot.
func sym(v string) *sexp.Symbol { return &sexp.Symbol{Value: v} }

func L(elems ...sexp.SExp) *sexp.List { return &sexp.List{Elements: elems} }

func lit(text string) *sexp.List { return L(nil, sym(text)) }

func prog(stmts ...sexp.SExp) *sexp.List { return L(stmts...) }

func exprStmt(e sexp.SExp) *sexp.List { return L(sym("expr"), e) }

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

func TestNormalize_LiteralFolding(t *testing.T) {
	p := prog(exprStmt(L(sym("+"), lit("1"), lit("2"))))

	out, err := New().Normalize(p)
	CheckOk(t, err)

	es := out.Stmts[0].(*ast.ExprStmt)
	got, ok := es.Expr.(*ast.Literal)

	if !ok || got.Kind != ast.LitNumber || got.Num != 3 {
		t.Fatalf("expected folded literal 3, got %#v", es.Expr)
	}
}

func TestNormalize_IdentityFold(t *testing.T) {
	p := prog(exprStmt(L(sym("+"), sym("x"), lit("0"))))

	n := New()
	n.declare(zeroSpan(), "x")

	out, err := n.Normalize(p)
	CheckOk(t, err)

	es := out.Stmts[0].(*ast.ExprStmt)

	ident, ok := es.Expr.(*ast.Ident)
	if !ok || ident.Name != "x" {
		t.Fatalf("expected identity-folded ident x, got %#v", es.Expr)
	}
}

func TestNormalize_ProhibitedForm(t *testing.T) {
	p := prog(exprStmt(L(sym("this"))))

	_, err := New().Normalize(p)
	CheckErr(t, err, diag.Prohibited)
}

func TestNormalize_ProhibitedIdentifier(t *testing.T) {
	p := prog(exprStmt(sym("eval")))

	_, err := New().Normalize(p)
	CheckErr(t, err, diag.Prohibited)
}

func TestNormalize_UnsupportedOperator(t *testing.T) {
	p := prog(exprStmt(L(sym("%%"), lit("1"), lit("2"))))

	_, err := New().Normalize(p)
	CheckErr(t, err, diag.UnsupportedOperator)
}

func TestNormalize_NewConstructorWhitelist(t *testing.T) {
	ok := prog(exprStmt(L(sym("new"), sym("Array"), lit("4"))))
	_, err := New().Normalize(ok)
	CheckOk(t, err)

	bad := prog(exprStmt(L(sym("new"), sym("Date"))))
	_, err = New().Normalize(bad)
	CheckErr(t, err, diag.ProhibitedConstructor)
}

func TestNormalize_NamespaceMember(t *testing.T) {
	ok := prog(exprStmt(L(sym("call"), L(sym("."), sym("Math"), sym("sqrt")), lit("4"))))
	_, err := New().Normalize(ok)
	CheckOk(t, err)

	bad := prog(exprStmt(L(sym("."), sym("Math"), sym("bogus"))))
	_, err = New().Normalize(bad)
	CheckErr(t, err, diag.UnknownNamespaceMember)
}

func TestNormalize_CompoundAssignDesugars(t *testing.T) {
	p := prog(
		L(sym("let"), L(sym("x"), lit("1"))),
		exprStmt(L(sym("+="), sym("x"), lit("2"))),
	)

	out, err := New().Normalize(p)
	CheckOk(t, err)

	es := out.Stmts[1].(*ast.ExprStmt)
	assign, ok := es.Expr.(*ast.Assign)

	if !ok {
		t.Fatalf("expected Assign, got %#v", es.Expr)
	}

	if _, ok := assign.Target.(*ast.Ident); !ok {
		t.Fatalf("expected Ident target, got %#v", assign.Target)
	}
}

func TestNormalize_PostIncDec(t *testing.T) {
	p := prog(
		L(sym("let"), L(sym("x"), lit("1"))),
		exprStmt(L(sym("post++"), sym("x"))),
	)

	out, err := New().Normalize(p)
	CheckOk(t, err)

	es := out.Stmts[1].(*ast.ExprStmt)

	if _, ok := es.Expr.(*ast.Binary); !ok {
		t.Fatalf("expected the post++ desugaring to produce a Binary, got %#v", es.Expr)
	}
}

func TestNormalize_LetDeclAndRedeclarationWarning(t *testing.T) {
	p := prog(
		L(sym("let"), L(sym("x"), lit("1"))),
		L(sym("let"), L(sym("x"), lit("2"))),
	)

	n := New()

	_, err := n.Normalize(p)
	CheckOk(t, err)

	if len(n.Warnings.Warnings()) != 1 {
		t.Fatalf("expected exactly one redeclaration warning, got %d: %v", len(n.Warnings.Warnings()), n.Warnings.Warnings())
	}
}

func TestNormalize_VarUsageWarning(t *testing.T) {
	p := prog(L(sym("var"), L(sym("x"), lit("1"))))

	n := New()

	_, err := n.Normalize(p)
	CheckOk(t, err)

	if len(n.Warnings.Warnings()) != 1 {
		t.Fatalf("expected exactly one var-usage warning, got %d", len(n.Warnings.Warnings()))
	}
}

func TestNormalize_ParseIntRadixWarning(t *testing.T) {
	p := prog(exprStmt(L(sym("call"), sym("parseInt"), lit(`"10"`))))

	n := New()

	_, err := n.Normalize(p)
	CheckOk(t, err)

	if len(n.Warnings.Warnings()) != 1 {
		t.Fatalf("expected exactly one parseInt radix warning, got %d", len(n.Warnings.Warnings()))
	}
}

func TestNormalize_NaNComparisonWarning(t *testing.T) {
	p := prog(exprStmt(L(sym("==="), sym("NaN"), sym("NaN"))))

	n := New()
	n.declare(zeroSpan(), "NaN")

	_, err := n.Normalize(p)
	CheckOk(t, err)

	if len(n.Warnings.Warnings()) != 1 {
		t.Fatalf("expected exactly one NaN comparison warning, got %d", len(n.Warnings.Warnings()))
	}
}

func TestNormalize_ArrowFunctionAndParams(t *testing.T) {
	p := prog(
		L(sym("let"), L(sym("f"),
			L(sym("arrow"),
				L(sym("a"), sym("b")),
				L(sym("block"), L(sym("return"), L(sym("+"), sym("a"), sym("b")))),
			),
		)),
	)

	out, err := New().Normalize(p)
	CheckOk(t, err)

	decl := out.Stmts[0].(*ast.LetDecl)
	arrow, ok := decl.Bindings[0].Init.(*ast.Arrow)

	if !ok {
		t.Fatalf("expected Arrow init, got %#v", decl.Bindings[0].Init)
	}

	if len(arrow.Params) != 2 || arrow.Params[0].Name != "a" || arrow.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %#v", arrow.Params)
	}

	if arrow.Body == nil || len(arrow.Body.Stmts) != 1 {
		t.Fatalf("expected a one-statement block body, got %#v", arrow.Body)
	}
}

func TestNormalize_DestructuringArrayPattern(t *testing.T) {
	p := prog(
		L(sym("let"), L(
			L(sym("arrpat"), sym("a"), sym("b")),
			L(sym("array"), lit("1"), lit("2")),
		)),
	)

	out, err := New().Normalize(p)
	CheckOk(t, err)

	decl := out.Stmts[0].(*ast.LetDecl)

	if decl.Bindings[0].Pattern == nil || len(decl.Bindings[0].Pattern.Elems) != 2 {
		t.Fatalf("expected a two-element array pattern, got %#v", decl.Bindings[0].Pattern)
	}
}

func TestNormalize_IfWhileFor(t *testing.T) {
	p := prog(
		L(sym("let"), L(sym("i"), lit("0"))),
		L(sym("if"), sym("true"),
			L(sym("block"), exprStmt(L(sym("post++"), sym("i")))),
		),
		L(sym("while"), L(sym("<"), sym("i"), lit("10")),
			L(sym("block"), exprStmt(L(sym("post++"), sym("i")))),
		),
		L(sym("for"), nil, nil, nil,
			L(sym("block"), L(sym("break"))),
		),
	)

	out, err := New().Normalize(p)
	CheckOk(t, err)

	if len(out.Stmts) != 4 {
		t.Fatalf("expected 4 top-level statements, got %d", len(out.Stmts))
	}

	if _, ok := out.Stmts[1].(*ast.If); !ok {
		t.Fatalf("expected If, got %#v", out.Stmts[1])
	}

	if _, ok := out.Stmts[2].(*ast.While); !ok {
		t.Fatalf("expected While, got %#v", out.Stmts[2])
	}

	forStmt, ok := out.Stmts[3].(*ast.For)
	if !ok {
		t.Fatalf("expected For, got %#v", out.Stmts[3])
	}

	if forStmt.Init != nil || forStmt.Cond != nil || forStmt.Step != nil {
		t.Fatalf("expected a fully-empty for header, got %#v", forStmt)
	}
}

func TestNormalize_FunctionDeclAndExport(t *testing.T) {
	p := prog(
		L(sym("export"), L(sym("function"), sym("add"),
			L(sym("a"), sym("b")),
			L(sym("block"), L(sym("return"), L(sym("+"), sym("a"), sym("b")))),
		)),
	)

	out, err := New().Normalize(p)
	CheckOk(t, err)

	exp, ok := out.Stmts[0].(*ast.ExportDecl)
	if !ok {
		t.Fatalf("expected ExportDecl, got %#v", out.Stmts[0])
	}

	fd, ok := exp.Decl.(*ast.FuncDecl)
	if !ok || fd.Fn.Name != "add" {
		t.Fatalf("expected named FuncDecl 'add', got %#v", exp.Decl)
	}
}

func TestNormalize_AssignToUndeclaredWarnsImplicitGlobal(t *testing.T) {
	p := prog(exprStmt(L(sym("="), sym("g"), lit("1"))))

	n := New()

	_, err := n.Normalize(p)
	CheckOk(t, err)

	if len(n.Warnings.Warnings()) != 1 {
		t.Fatalf("expected exactly one implicit-global warning, got %d", len(n.Warnings.Warnings()))
	}
}

func TestNormalize_AssignTargetMustBeReference(t *testing.T) {
	p := prog(exprStmt(L(sym("="), lit("1"), lit("2"))))

	_, err := New().Normalize(p)
	CheckErr(t, err, diag.AssignmentTargetNotIdentifier)
}

func TestNormalize_DivisionAndPowFolding(t *testing.T) {
	p := prog(exprStmt(L(sym("**"), lit("0"), lit("0"))))

	out, err := New().Normalize(p)
	CheckOk(t, err)

	es := out.Stmts[0].(*ast.ExprStmt)
	got := es.Expr.(*ast.Literal)

	if got.Num != 1 {
		t.Fatalf("expected 0**0 == 1, got %v", got.Num)
	}

	p = prog(exprStmt(L(sym("/"), lit("7"), lit("2"))))

	out, err = New().Normalize(p)
	CheckOk(t, err)

	got = out.Stmts[0].(*ast.ExprStmt).Expr.(*ast.Literal)

	if got.Num != 3.5 {
		t.Fatalf("expected 7/2 == 3.5, got %v", got.Num)
	}
}

func TestNormalize_BitwiseTruncatesToInt32(t *testing.T) {
	p := prog(exprStmt(L(sym(">>>"), lit("-1"), lit("28"))))

	out, err := New().Normalize(p)
	CheckOk(t, err)

	es := out.Stmts[0].(*ast.ExprStmt)
	got := es.Expr.(*ast.Literal)

	if got.Num != 15 {
		t.Fatalf("expected -1 >>> 28 == 15, got %v", got.Num)
	}
}
