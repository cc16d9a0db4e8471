package scope

import "github.com/latticec/wasmc/pkg/ast"

// collectDefined gathers every name a Binding/function declaration
// introduces directly within stmts, recursing into nested blocks/if/for/
// while bodies but never crossing into a nested function's own body (that
// boundary is where a new local scope begins).
func collectDefined(stmts []ast.Stmt, into map[string]bool) {
	for _, s := range stmts {
		collectDefinedStmt(s, into)
	}
}

func collectDefinedStmt(s ast.Stmt, into map[string]bool) {
	switch st := s.(type) {
	case nil:
		return
	case *ast.LetDecl:
		for _, b := range st.Bindings {
			if b.Name != "" {
				into[b.Name] = true
			}

			if b.Pattern != nil {
				collectPatternNames(b.Pattern, into)
			}
		}
	case *ast.Block:
		collectDefined(st.Stmts, into)
	case *ast.If:
		collectDefinedStmt(st.Then, into)
		collectDefinedStmt(st.Els, into)
	case *ast.For:
		collectDefinedStmt(st.Init, into)
		collectDefinedStmt(st.Body, into)
	case *ast.While:
		collectDefinedStmt(st.Body, into)
	case *ast.FuncDecl:
		into[st.Fn.Name] = true
	case *ast.ExportDecl:
		collectDefinedStmt(st.Decl, into)
	}
}

func collectPatternNames(p *ast.Pattern, into map[string]bool) {
	for _, e := range p.Elems {
		if e.Name != "" {
			into[e.Name] = true
		}

		if e.Nested != nil {
			collectPatternNames(e.Nested, into)
		}
	}
}

// identVisitor is called for every Ident reference reachable without
// crossing a nested-function boundary; assigned is true when the Ident
// occupies the target position of an Assign.
type identVisitor struct {
	onIdent func(name string, assigned bool)
	onArrow func(*ast.Arrow)
}

func (v *identVisitor) walkStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		v.walkStmt(s)
	}
}

func (v *identVisitor) walkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case nil:
		return
	case *ast.ExprStmt:
		v.walkExpr(st.Expr)
	case *ast.LetDecl:
		for _, b := range st.Bindings {
			if b.Init != nil {
				v.walkExpr(b.Init)
			}

			if b.Pattern != nil {
				v.walkPatternDefaults(b.Pattern)
			}
		}
	case *ast.Block:
		v.walkStmts(st.Stmts)
	case *ast.If:
		v.walkExpr(st.Cond)
		v.walkStmt(st.Then)
		v.walkStmt(st.Els)
	case *ast.For:
		v.walkStmt(st.Init)

		if st.Cond != nil {
			v.walkExpr(st.Cond)
		}

		if st.Step != nil {
			v.walkExpr(st.Step)
		}

		v.walkStmt(st.Body)
	case *ast.While:
		v.walkExpr(st.Cond)
		v.walkStmt(st.Body)
	case *ast.Return:
		if st.Value != nil {
			v.walkExpr(st.Value)
		}
	case *ast.Break, *ast.Continue:
		return
	case *ast.FuncDecl:
		v.onArrow(st.Fn)
	case *ast.ExportDecl:
		v.walkStmt(st.Decl)
	}
}

func (v *identVisitor) walkPatternDefaults(p *ast.Pattern) {
	for _, e := range p.Elems {
		if e.Default != nil {
			v.walkExpr(e.Default)
		}

		if e.Nested != nil {
			v.walkPatternDefaults(e.Nested)
		}
	}
}

func (v *identVisitor) walkExpr(e ast.Expr) {
	switch ex := e.(type) {
	case nil:
		return
	case *ast.Literal:
		return
	case *ast.Ident:
		v.onIdent(ex.Name, false)
	case *ast.Unary:
		v.walkExpr(ex.Operand)
	case *ast.Binary:
		v.walkExpr(ex.Left)
		v.walkExpr(ex.Right)
	case *ast.Logical:
		v.walkExpr(ex.Left)
		v.walkExpr(ex.Right)
	case *ast.Nullish:
		v.walkExpr(ex.Left)
		v.walkExpr(ex.Right)
	case *ast.Ternary:
		v.walkExpr(ex.Cond)
		v.walkExpr(ex.Then)
		v.walkExpr(ex.Else)
	case *ast.Assign:
		v.walkAssignTarget(ex.Target)
		v.walkExpr(ex.Value)
	case *ast.Sequence:
		for _, sub := range ex.Exprs {
			v.walkExpr(sub)
		}
	case *ast.ArrayLit:
		for _, sub := range ex.Elements {
			v.walkExpr(sub)
		}
	case *ast.ObjectLit:
		for _, p := range ex.Props {
			v.walkExpr(p.Value)
		}
	case *ast.Member:
		v.walkExpr(ex.Object)
	case *ast.Index:
		v.walkExpr(ex.Object)
		v.walkExpr(ex.Key)
	case *ast.OptChain:
		v.walkExpr(ex.Object)

		if ex.Key != nil {
			v.walkExpr(ex.Key)
		}
	case *ast.Call:
		v.walkExpr(ex.Callee)

		for _, a := range ex.Args {
			v.walkExpr(a)
		}
	case *ast.NewExpr:
		for _, a := range ex.Args {
			v.walkExpr(a)
		}
	case *ast.Arrow:
		v.onArrow(ex)
	case *ast.RegexLit:
		return
	case *ast.SpreadExpr:
		v.walkExpr(ex.Operand)
	}
}

// walkAssignTarget visits an assignment target: an Ident target is reported
// as an assigned reference (for the captured-mutation check); an Index/
// Member target's Object/Key subexpressions are ordinary reads.
func (v *identVisitor) walkAssignTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Ident:
		v.onIdent(t.Name, true)
	case *ast.Index:
		v.walkExpr(t.Object)
		v.walkExpr(t.Key)
	case *ast.Member:
		v.walkExpr(t.Object)
	}
}
