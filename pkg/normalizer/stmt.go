package normalizer

import (
	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

// declKeywords maps the three declaration head symbols to their DeclKind.
var declKeywords = map[string]ast.DeclKind{
	"let": ast.DeclLet, "const": ast.DeclConst, "var": ast.DeclVar,
}

func (n *Normalizer) normalizeStmt(s sexp.SExp) (ast.Stmt, error) {
	span := zeroSpan()

	l, ok := s.(*sexp.List)
	if !ok {
		return nil, diag.New(diag.UnsupportedLiteral, span, "statement must be a list")
	}

	head := l.Head()
	if head == "" {
		return nil, diag.New(diag.UnsupportedLiteral, span, "statement list does not begin with an operator symbol")
	}

	if err := validateForm(span, head); err != nil {
		return nil, err
	}

	if kind, ok := declKeywords[head]; ok {
		return n.normalizeLetDecl(span, kind, l.Elements[1:])
	}

	switch head {
	case "expr":
		return n.normalizeExprStmt(span, l.Elements[1:])
	case "block":
		return n.normalizeBlockList(l)
	case "if":
		return n.normalizeIf(span, l.Elements[1:])
	case "for":
		return n.normalizeFor(span, l.Elements[1:])
	case "while":
		return n.normalizeWhile(span, l.Elements[1:])
	case "return":
		return n.normalizeReturn(span, l.Elements[1:])
	case "break":
		return ast.NewBreak(span), nil
	case "continue":
		return ast.NewContinue(span), nil
	case "function":
		return n.normalizeFuncDecl(span, l.Elements[1:])
	case "export":
		return n.normalizeExportDecl(span, l.Elements[1:])
	}

	return nil, diag.New(diag.UnsupportedOperator, span, "unrecognised statement form "+head)
}

func (n *Normalizer) normalizeExprStmt(span sexp.Span, args []sexp.SExp) (ast.Stmt, error) {
	if len(args) != 1 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "expression statement requires exactly one expression")
	}

	e, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	return ast.NewExprStmt(span, e), nil
}

// normalizeLetDecl handles `["let"|"const"|"var", binding...]` where each
// binding is `[name, init]` or `[pattern, init]`.
func (n *Normalizer) normalizeLetDecl(span sexp.Span, kind ast.DeclKind, args []sexp.SExp) (ast.Stmt, error) {
	n.warnVarUsage(span, kind)

	bindings := make([]ast.Binding, 0, len(args))

	for _, a := range args {
		bl, ok := a.(*sexp.List)
		if !ok || bl.Len() != 2 {
			return nil, diag.New(diag.UnsupportedLiteral, span, "malformed binding")
		}

		var init ast.Expr

		if bl.Elements[1] != nil {
			e, err := n.normalizeExpr(bl.Elements[1])
			if err != nil {
				return nil, err
			}

			init = e
		}

		if sym, ok := bl.Elements[0].(*sexp.Symbol); ok {
			if err := validateIdentifier(span, sym.Value); err != nil {
				return nil, err
			}

			n.declare(span, sym.Value)
			bindings = append(bindings, ast.Binding{Name: sym.Value, Init: init})

			continue
		}

		pat, err := n.normalizePattern(bl.Elements[0])
		if err != nil {
			return nil, err
		}

		for _, elem := range pat.Elems {
			if elem.Name != "" {
				n.declare(span, elem.Name)
			}
		}

		bindings = append(bindings, ast.Binding{Pattern: pat, Init: init})
	}

	return ast.NewLetDecl(span, kind, bindings), nil
}

func (n *Normalizer) normalizeBlockList(l *sexp.List) (*ast.Block, error) {
	span := zeroSpan()

	n.pushScope()
	defer n.popScope()

	stmts := make([]ast.Stmt, 0, l.Len()-1)

	for _, a := range l.Elements[1:] {
		s, err := n.normalizeStmt(a)
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, s)
	}

	return ast.NewBlock(span, stmts), nil
}

func (n *Normalizer) normalizeIf(span sexp.Span, args []sexp.SExp) (ast.Stmt, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "if requires a condition, a then-branch, and an optional else-branch")
	}

	cond, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	then, err := n.normalizeStmt(args[1])
	if err != nil {
		return nil, err
	}

	var els ast.Stmt

	if len(args) == 3 {
		els, err = n.normalizeStmt(args[2])
		if err != nil {
			return nil, err
		}
	}

	return ast.NewIf(span, cond, then, els), nil
}

func (n *Normalizer) normalizeFor(span sexp.Span, args []sexp.SExp) (ast.Stmt, error) {
	if len(args) != 4 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "for requires init, cond, step, and body")
	}

	n.pushScope()
	defer n.popScope()

	var init ast.Stmt
	var err error

	if args[0] != nil {
		init, err = n.normalizeStmt(args[0])
		if err != nil {
			return nil, err
		}
	}

	var cond ast.Expr

	if args[1] != nil {
		cond, err = n.normalizeExpr(args[1])
		if err != nil {
			return nil, err
		}
	}

	var step ast.Expr

	if args[2] != nil {
		step, err = n.normalizeExpr(args[2])
		if err != nil {
			return nil, err
		}
	}

	body, err := n.normalizeStmt(args[3])
	if err != nil {
		return nil, err
	}

	return ast.NewFor(span, init, cond, step, body), nil
}

func (n *Normalizer) normalizeWhile(span sexp.Span, args []sexp.SExp) (ast.Stmt, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "while requires a condition and a body")
	}

	cond, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	body, err := n.normalizeStmt(args[1])
	if err != nil {
		return nil, err
	}

	return ast.NewWhile(span, cond, body), nil
}

func (n *Normalizer) normalizeReturn(span sexp.Span, args []sexp.SExp) (ast.Stmt, error) {
	if len(args) == 0 || args[0] == nil {
		return ast.NewReturn(span, nil), nil
	}

	if len(args) != 1 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "return accepts at most one value")
	}

	value, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	return ast.NewReturn(span, value), nil
}

// normalizeFuncDecl handles `["function", name, params, body]`.
func (n *Normalizer) normalizeFuncDecl(span sexp.Span, args []sexp.SExp) (ast.Stmt, error) {
	if len(args) != 3 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "function declaration requires a name, a parameter list, and a body")
	}

	nameSym, ok := args[0].(*sexp.Symbol)
	if !ok {
		return nil, diag.New(diag.UnsupportedLiteral, span, "function name must be a symbol")
	}

	if err := validateIdentifier(span, nameSym.Value); err != nil {
		return nil, err
	}

	n.declare(span, nameSym.Value)

	fn, err := n.normalizeArrow(span, nameSym.Value, args[1:])
	if err != nil {
		return nil, err
	}

	return ast.NewFuncDecl(span, fn), nil
}

func (n *Normalizer) normalizeExportDecl(span sexp.Span, args []sexp.SExp) (ast.Stmt, error) {
	if len(args) != 1 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "export requires exactly one declaration")
	}

	decl, err := n.normalizeStmt(args[0])
	if err != nil {
		return nil, err
	}

	return ast.NewExportDecl(span, decl), nil
}
