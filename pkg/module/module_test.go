package module_test

import (
	"strings"
	"testing"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/codegen"
	"github.com/latticec/wasmc/pkg/module"
	"github.com/latticec/wasmc/pkg/scope"
	"github.com/latticec/wasmc/pkg/sexp"
	"github.com/latticec/wasmc/pkg/types"
)

var z = sexp.Span{}

func num(n float64) *ast.Literal                       { return ast.NewLiteral(z, ast.LitNumber, n, "", false) }
func id(name string) *ast.Ident                        { return ast.NewIdent(z, name) }
func bin(op string, l, r ast.Expr) *ast.Binary         { return ast.NewBinary(z, op, l, r) }
func exprStmt(e ast.Expr) *ast.ExprStmt                { return ast.NewExprStmt(z, e) }
func block(stmts ...ast.Stmt) *ast.Block               { return ast.NewBlock(z, stmts) }
func returnStmt(e ast.Expr) *ast.Return                { return ast.NewReturn(z, e) }
func call(callee ast.Expr, args ...ast.Expr) *ast.Call { return ast.NewCall(z, callee, args) }
func member(obj ast.Expr, name string) *ast.Member     { return ast.NewMember(z, obj, name) }
func arrayLit(els ...ast.Expr) *ast.ArrayLit           { return ast.NewArrayLit(z, els) }
func letDecl(kind ast.DeclKind, name string, init ast.Expr) *ast.LetDecl {
	return ast.NewLetDecl(z, kind, []ast.Binding{{Name: name, Init: init}})
}
func funcDecl(name string, params []ast.Param, body *ast.Block) *ast.FuncDecl {
	return ast.NewFuncDecl(z, ast.NewArrow(z, name, params, body, nil))
}
func exportDecl(s ast.Stmt) *ast.ExportDecl  { return ast.NewExportDecl(z, s) }
func program(stmts ...ast.Stmt) *ast.Program { return ast.NewProgram(z, stmts) }

// buildFixture compiles a small program exercising: a plain numeric
// exported function, an array-param/array-return exported function (so
// the jz:sig path has something to report), an exported top-level const,
// and one plain (non-exported) global - enough surface for Build to
// exercise every section it writes.
func buildFixture(t *testing.T) (*ast.Program, *types.Info, *codegen.Program) {
	t.Helper()

	add := funcDecl("add", []ast.Param{{Name: "a"}, {Name: "b"}}, block(
		returnStmt(bin("+", id("a"), id("b"))),
	))

	useArray := funcDecl("useArray", []ast.Param{{Name: "arr", Default: arrayLit()}}, block(
		exprStmt(call(member(id("arr"), "push"), num(1))),
		returnStmt(id("arr")),
	))

	prog := program(
		exportDecl(add),
		exportDecl(useArray),
		exportDecl(letDecl(ast.DeclConst, "version", num(1))),
		letDecl(ast.DeclLet, "counter", num(0)),
	)

	mod, err := scope.Analyze(prog)
	if err != nil {
		t.Fatalf("scope.Analyze: %v", err)
	}

	info, err := types.Infer(prog)
	if err != nil {
		t.Fatalf("types.Infer: %v", err)
	}

	cprog, err := codegen.Compile(prog, info, mod)
	if err != nil {
		t.Fatalf("codegen.Compile: %v", err)
	}

	return prog, info, cprog
}

func TestBuild_WatContainsExportsAndStart(t *testing.T) {
	prog, info, cprog := buildFixture(t)

	res, err := module.Build(prog, info, cprog, module.Config{Format: module.FormatWat}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, want := range []string{
		`(export "add" (func $fn_add))`,
		`(export "useArray" (func $fn_useArray))`,
		`(export "version" (global $g_version))`,
		`(start $init)`,
		`(export "_memory" (memory $memory))`,
		`(export "_alloc")`,
	} {
		if !strings.Contains(res.WAT, want) {
			t.Errorf("expected WAT to contain %q, got:\n%s", want, res.WAT)
		}
	}

	if res.Wasm != nil {
		t.Fatalf("expected no assembled binary for Format: wat, got %d bytes", len(res.Wasm))
	}

	for _, unwanted := range []string{"$g_add", "$g_useArray"} {
		if strings.Contains(res.WAT, unwanted) {
			t.Errorf("top-level function names should not get a global, found %q in:\n%s", unwanted, res.WAT)
		}
	}
}

func TestBuild_SigMarksArrayParamAndReturn(t *testing.T) {
	prog, info, cprog := buildFixture(t)

	res, err := module.Build(prog, info, cprog, module.Config{Format: module.FormatWat}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	entry, ok := res.Sig["useArray"]
	if !ok {
		t.Fatalf("expected a jz:sig entry for useArray, got %v", res.Sig)
	}

	if len(entry.ArrayParams) != 1 || !entry.ArrayParams[0] {
		t.Errorf("expected useArray's sole parameter marked array, got %v", entry.ArrayParams)
	}

	if !entry.ArrayReturn {
		t.Errorf("expected useArray's return marked array")
	}

	if _, ok := res.Sig["add"]; ok {
		t.Errorf("add has no array param/return, should not have a jz:sig entry")
	}
}

func TestBuild_GCSuppressesMemoryExports(t *testing.T) {
	prog, info, cprog := buildFixture(t)

	res, err := module.Build(prog, info, cprog, module.Config{Format: module.FormatWat, GC: true}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if strings.Contains(res.WAT, `"_memory"`) || strings.Contains(res.WAT, `"_alloc"`) {
		t.Errorf("expected GC:true to suppress _memory/_alloc exports, got:\n%s", res.WAT)
	}
}

func TestBuild_BinaryFormatRequiresAssembler(t *testing.T) {
	prog, info, cprog := buildFixture(t)

	if _, err := module.Build(prog, info, cprog, module.Config{}, nil); err == nil {
		t.Fatalf("expected an error when no Assembler is configured for binary output")
	}
}

func TestBuild_FakeAssemblerRoundTrips(t *testing.T) {
	prog, info, cprog := buildFixture(t)

	res, err := module.Build(prog, info, cprog, module.Config{}, &module.FakeAssembler{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(res.Wasm) == 0 {
		t.Fatalf("expected a non-empty fake artifact")
	}

	wat, err := module.DecodeFakeArtifact(res.Wasm)
	if err != nil {
		t.Fatalf("DecodeFakeArtifact: %v", err)
	}

	if wat != res.WAT {
		t.Errorf("expected the round-tripped WAT to match the original")
	}
}

func TestBuild_AssemblerFailureWrapsError(t *testing.T) {
	prog, info, cprog := buildFixture(t)

	fail := &module.FakeAssembler{FailWith: errBoom}

	if _, err := module.Build(prog, info, cprog, module.Config{}, fail); err == nil {
		t.Fatalf("expected Build to surface the Assembler's failure")
	}
}

var errBoom = &stubError{"boom"}

type stubError struct{ msg string }

func (e *stubError) Error() string { return e.msg }

func TestBuild_InternedStringGetsDataSegmentAndGlobal(t *testing.T) {
	greetFn := funcDecl("greet", nil, block(
		returnStmt(ast.NewLiteral(z, ast.LitString, 0, "a rather long greeting string", false)),
	))

	prog := program(exportDecl(greetFn))

	mod, err := scope.Analyze(prog)
	if err != nil {
		t.Fatalf("scope.Analyze: %v", err)
	}

	info, err := types.Infer(prog)
	if err != nil {
		t.Fatalf("types.Infer: %v", err)
	}

	cprog, err := codegen.Compile(prog, info, mod)
	if err != nil {
		t.Fatalf("codegen.Compile: %v", err)
	}

	res, err := module.Build(prog, info, cprog, module.Config{Format: module.FormatWat}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.Contains(res.WAT, "(global $str_0 f64 (f64.const nan:") {
		t.Errorf("expected a precomputed string global, got:\n%s", res.WAT)
	}

	if !strings.Contains(res.WAT, "(data (i32.const 0)") {
		t.Errorf("expected a data segment for the interned literal, got:\n%s", res.WAT)
	}
}
