package codegen

import (
	"strings"
	"testing"

	"github.com/latticec/wasmc/pkg/ast"
)

func indexOf(s, substr string) int { return strings.Index(s, substr) }

func TestCompileFunction_LiteralReturn(t *testing.T) {
	prog := program(returnStmt(num(42)))
	mod, info := analyzed(t, prog)

	cf, err := CompileFunction(NewContext(info, mod), nil, prog.Stmts)
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	if indexOf(cf.Text, "f64.const 42") < 0 {
		t.Fatalf("expected a literal 42 constant, got:\n%s", cf.Text)
	}
}

func TestCompileFunction_BinaryArithmetic(t *testing.T) {
	prog := program(
		letStmt(ast.DeclLet, "a", num(1)),
		letStmt(ast.DeclLet, "b", num(2)),
		returnStmt(bin("+", id("a"), id("b"))),
	)
	mod, info := analyzed(t, prog)

	cf, err := CompileFunction(NewContext(info, mod), nil, prog.Stmts)
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	if indexOf(cf.Text, "f64.add") < 0 {
		t.Fatalf("expected f64.add in emitted text, got:\n%s", cf.Text)
	}
}

func TestCompileFunction_If(t *testing.T) {
	prog := program(
		letStmt(ast.DeclLet, "a", num(1)),
		ifStmt(bin(">", id("a"), num(0)),
			block(returnStmt(num(1))),
			block(returnStmt(num(0))),
		),
	)
	mod, info := analyzed(t, prog)

	cf, err := CompileFunction(NewContext(info, mod), nil, prog.Stmts)
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	if indexOf(cf.Text, "(if") < 0 {
		t.Fatalf("expected an (if ...) in emitted text, got:\n%s", cf.Text)
	}
}

func TestCompile_FunctionCall(t *testing.T) {
	double := arrow("double", []string{"x"}, block(returnStmt(bin("*", id("x"), num(2)))))

	prog := program(
		funcDecl(double),
		exprStmt(call(id("double"), num(21))),
	)
	mod, info := analyzed(t, prog)

	out, err := Compile(prog, info, mod)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if len(out.Functions) != 1 || out.Functions[0].Name == "" {
		t.Fatalf("expected exactly one named compiled function, got %+v", out.Functions)
	}

	if indexOf(out.Init.Text, "call") < 0 {
		t.Fatalf("expected the init function to call double, got:\n%s", out.Init.Text)
	}
}

func TestCompile_ArrayPush(t *testing.T) {
	prog := program(
		letStmt(ast.DeclLet, "a", ast.NewArrayLit(z, []ast.Expr{num(1), num(2)})),
		exprStmt(call(member(id("a"), "push"), num(3))),
	)
	mod, info := analyzed(t, prog)

	out, err := Compile(prog, info, mod)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if indexOf(out.Init.Text, "$array_push") < 0 {
		t.Fatalf("expected a.push(3) to lower to a call $array_push, got:\n%s", out.Init.Text)
	}
}

// TestCompile_NestedClosureEnvChain builds a three-level-deep nesting
// (outer -> middle -> inner) where only inner actually references outer's
// parameter, so pkg/scope marks it Captured on middle (the level directly
// below outer) and again on inner (the level directly below middle) per the
// one-hop-at-a-time invariant documented in context.go/function.go. Both the
// middle and inner compiled functions must therefore each contain their own
// env-copy sequence — neither can skip straight to outer's record.
func TestCompile_NestedClosureEnvChain(t *testing.T) {
	inner := arrow("", nil, block(returnStmt(id("x"))))
	middle := arrow("middle", nil, block(returnStmt(call(arrowExprWrap(inner)))))
	outer := arrow("outer", []string{"x"}, block(returnStmt(call(arrowExprWrap(middle)))))

	prog := program(funcDecl(outer))
	mod, info := analyzed(t, prog)

	out, err := Compile(prog, info, mod)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	var middleText, innerText string
	for _, cf := range out.Functions {
		if strings.Contains(cf.Text, "$env_self") && strings.Contains(cf.Text, "(param $env f64)") {
			if middleText == "" {
				middleText = cf.Text
			} else {
				innerText = cf.Text
			}
		}
	}

	if middleText == "" {
		t.Fatalf("expected at least one nested function with an incoming $env and its own $env_self, got: %+v", out.Functions)
	}

	for _, name := range []string{"$env_self", "local.set $env_self"} {
		if indexOf(middleText, name) < 0 {
			t.Fatalf("expected middle's allocated env record (%s) in:\n%s", name, middleText)
		}
	}

	if innerText == "" {
		t.Fatalf("expected a second nested function (inner) with an incoming $env and its own $env_self, got: %+v", out.Functions)
	}

	for _, name := range []string{"$env_self", "local.set $env_self"} {
		if indexOf(innerText, name) < 0 {
			t.Fatalf("expected inner's allocated env record (%s) in:\n%s", name, innerText)
		}
	}
}

// arrowExprWrap lets a nested function literal be used directly as a call
// callee in these fixtures without needing a full let-binding + ident
// round-trip; it returns the Arrow itself since ast.Arrow is a valid Expr.
func arrowExprWrap(fn *ast.Arrow) ast.Expr { return fn }
