package codegen

import (
	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/scope"
	"github.com/latticec/wasmc/pkg/sexp"
	"github.com/latticec/wasmc/pkg/types"
)

// Small AST-builder helpers for constructing fixtures directly, bypassing
// pkg/normalizer/pkg/sexp entirely (codegen's inputs are an already-analyzed
// *ast.Program, not source text). Span values are never inspected by
// codegen, so every node below carries the zero Span.

var z = sexp.Span{}

func num(n float64) *ast.Literal  { return ast.NewLiteral(z, ast.LitNumber, n, "", false) }
func str(s string) *ast.Literal   { return ast.NewLiteral(z, ast.LitString, 0, s, false) }
func boolLit(b bool) *ast.Literal { return ast.NewLiteral(z, ast.LitBool, 0, "", b) }
func id(name string) *ast.Ident   { return ast.NewIdent(z, name) }
func bin(op string, l, r ast.Expr) *ast.Binary {
	return ast.NewBinary(z, op, l, r)
}

func exprStmt(e ast.Expr) *ast.ExprStmt { return ast.NewExprStmt(z, e) }

func letStmt(kind ast.DeclKind, name string, init ast.Expr) *ast.LetDecl {
	return ast.NewLetDecl(z, kind, []ast.Binding{{Name: name, Init: init}})
}

func block(stmts ...ast.Stmt) *ast.Block { return ast.NewBlock(z, stmts) }

func ifStmt(cond ast.Expr, then, els ast.Stmt) *ast.If {
	return ast.NewIf(z, cond, then, els)
}

func returnStmt(e ast.Expr) *ast.Return { return ast.NewReturn(z, e) }

func call(callee ast.Expr, args ...ast.Expr) *ast.Call {
	return ast.NewCall(z, callee, args)
}

func member(obj ast.Expr, name string) *ast.Member { return ast.NewMember(z, obj, name) }

func arrow(name string, params []string, body *ast.Block) *ast.Arrow {
	ps := make([]ast.Param, len(params))
	for i, p := range params {
		ps[i] = ast.Param{Name: p}
	}
	return ast.NewArrow(z, name, ps, body, nil)
}

func funcDecl(fn *ast.Arrow) *ast.FuncDecl { return ast.NewFuncDecl(z, fn) }

func program(stmts ...ast.Stmt) *ast.Program { return ast.NewProgram(z, stmts) }

// analyzed runs the scope/type analysis stages a real pipeline would run
// before handing prog to Compile/CompileFunction, returning the pieces
// Context needs.
func analyzed(t interface{ Fatalf(string, ...any) }, prog *ast.Program) (*scope.Module, *types.Info) {
	mod, err := scope.Analyze(prog)
	if err != nil {
		t.Fatalf("scope.Analyze: %v", err)
	}
	info, err := types.Infer(prog)
	if err != nil {
		t.Fatalf("types.Infer: %v", err)
	}
	return mod, info
}
