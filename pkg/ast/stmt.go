package ast

import "github.com/latticec/wasmc/pkg/sexp"

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

func (*ExprStmt) stmtNode()   {}
func (*LetDecl) stmtNode()    {}
func (*Block) stmtNode()      {}
func (*If) stmtNode()         {}
func (*For) stmtNode()        {}
func (*While) stmtNode()      {}
func (*Return) stmtNode()     {}
func (*Break) stmtNode()      {}
func (*Continue) stmtNode()   {}
func (*FuncDecl) stmtNode()   {}
func (*ExportDecl) stmtNode() {}

// ExprStmt wraps an expression evaluated for effect.
type ExprStmt struct {
	base
	Expr Expr
}

// NewExprStmt constructs an ExprStmt node.
func NewExprStmt(span sexp.Span, expr Expr) *ExprStmt {
	return &ExprStmt{base{span}, expr}
}

// DeclKind distinguishes let/const/var bindings.
type DeclKind uint8

// Declaration kinds.
const (
	DeclLet DeclKind = iota
	DeclConst
	DeclVar
)

// Binding is one `name = init` pair within a LetDecl, or a destructuring
// pattern bound against init.
type Binding struct {
	Name    string
	Pattern *Pattern
	Init    Expr
}

// LetDecl is `let/const/var x = v, ...;`, normalized to `["let", ["=", name,
// value]]` per binding.
type LetDecl struct {
	base
	Kind     DeclKind
	Bindings []Binding
}

// NewLetDecl constructs a LetDecl node.
func NewLetDecl(span sexp.Span, kind DeclKind, bindings []Binding) *LetDecl {
	return &LetDecl{base{span}, kind, bindings}
}

// Block is `{ stmt... }`.
type Block struct {
	base
	Stmts []Stmt
}

// NewBlock constructs a Block node.
func NewBlock(span sexp.Span, stmts []Stmt) *Block {
	return &Block{base{span}, stmts}
}

// If is `if (cond) then else els`; els is nil when absent.
type If struct {
	base
	Cond      Expr
	Then, Els Stmt
}

// NewIf constructs an If node.
func NewIf(span sexp.Span, cond Expr, then, els Stmt) *If {
	return &If{base{span}, cond, then, els}
}

// For is a C-style `for (init; cond; step) body`; any of init/cond/step may
// be nil.
type For struct {
	base
	Init Stmt
	Cond Expr
	Step Expr
	Body Stmt
	// Label is the loop's own synthesized label pair, filled in by
	// pkg/codegen when it allocates `$loop`/`$end` names; not set by the
	// normalizer.
	Label string
}

// NewFor constructs a For node.
func NewFor(span sexp.Span, init Stmt, cond, step Expr, body Stmt) *For {
	return &For{base: base{span}, Init: init, Cond: cond, Step: step, Body: body}
}

// While is `while (cond) body`.
type While struct {
	base
	Cond  Expr
	Body  Stmt
	Label string
}

// NewWhile constructs a While node.
func NewWhile(span sexp.Span, cond Expr, body Stmt) *While {
	return &While{base: base{span}, Cond: cond, Body: body}
}

// Return is `return expr;`; Value is nil for a bare `return;`.
type Return struct {
	base
	Value Expr
}

// NewReturn constructs a Return node.
func NewReturn(span sexp.Span, value Expr) *Return {
	return &Return{base{span}, value}
}

// Break is `break;`. Labeled statements are rejected by the normalizer, so
// Break always targets the nearest enclosing loop.
type Break struct{ base }

// NewBreak constructs a Break node.
func NewBreak(span sexp.Span) *Break { return &Break{base{span}} }

// Continue is `continue;`, analogous to Break.
type Continue struct{ base }

// NewContinue constructs a Continue node.
func NewContinue(span sexp.Span) *Continue { return &Continue{base{span}} }

// FuncDecl is a named `function f(...) { ... }` declaration, normalized to
// carry the same Arrow shape as an expression-level arrow function.
type FuncDecl struct {
	base
	Fn *Arrow
}

// NewFuncDecl constructs a FuncDecl node.
func NewFuncDecl(span sexp.Span, fn *Arrow) *FuncDecl {
	return &FuncDecl{base{span}, fn}
}

// ExportDecl wraps any declaration marked `export`; the wrapped binding's
// name becomes a WebAssembly export.
type ExportDecl struct {
	base
	Decl Stmt
}

// NewExportDecl constructs an ExportDecl node.
func NewExportDecl(span sexp.Span, decl Stmt) *ExportDecl {
	return &ExportDecl{base{span}, decl}
}

// Program is the root of a normalized compilation unit: a flat sequence of
// top-level statements.
type Program struct {
	base
	Stmts []Stmt
}

// NewProgram constructs a Program node.
func NewProgram(span sexp.Span, stmts []Stmt) *Program {
	return &Program{base{span}, stmts}
}
