package normalizer

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

// normalizeExpr translates one S-expression into a normalized ast.Expr,
// applying rewrites and constant folding as it goes.
func (n *Normalizer) normalizeExpr(s sexp.SExp) (ast.Expr, error) {
	switch e := s.(type) {
	case *sexp.Symbol:
		return n.normalizeAtom(e)
	case *sexp.List:
		return n.normalizeExprList(e)
	default:
		return nil, diag.New(diag.UnsupportedLiteral, zeroSpan(), "malformed expression node")
	}
}

func (n *Normalizer) normalizeAtom(sym *sexp.Symbol) (ast.Expr, error) {
	span := zeroSpan()

	switch sym.Value {
	case "true":
		return ast.NewLiteral(span, ast.LitBool, 0, "", true), nil
	case "false":
		return ast.NewLiteral(span, ast.LitBool, 0, "", false), nil
	case "null":
		return ast.NewLiteral(span, ast.LitNull, 0, "", false), nil
	case "undefined":
		return ast.NewLiteral(span, ast.LitUndefined, 0, "", false), nil
	}

	if err := validateIdentifier(span, sym.Value); err != nil {
		return nil, err
	}

	return ast.NewIdent(span, sym.Value), nil
}

func (n *Normalizer) normalizeExprList(l *sexp.List) (ast.Expr, error) {
	span := zeroSpan()

	if isLiteralList(l) {
		return n.normalizeLiteral(l)
	}

	head := l.Head()
	if head == "" {
		return nil, diag.New(diag.UnsupportedLiteral, span, "list does not begin with an operator symbol")
	}

	if err := validateForm(span, head); err != nil {
		return nil, err
	}

	args := l.Elements[1:]

	switch {
	case allowedUnaryOps[head]:
		return n.normalizeUnary(span, head, args)
	case allowedBinaryOps[head]:
		return n.normalizeBinary(span, head, args)
	case allowedLogicalOps[head]:
		return n.normalizeLogical(span, head, args)
	case compoundOps[head] != "":
		return n.normalizeCompoundAssign(span, head, args)
	}

	switch head {
	case "post++", "post--":
		return n.normalizeIncDec(span, head[4:], args, false)
	case "pre++", "pre--":
		return n.normalizeIncDec(span, head[3:], args, true)
	case "??":
		return n.normalizeNullish(span, args)
	case "?:":
		return n.normalizeTernary(span, args)
	case "=":
		return n.normalizeAssign(span, args)
	case "seq":
		return n.normalizeSequence(span, args)
	case "array":
		return n.normalizeArrayLit(span, args)
	case "object":
		return n.normalizeObjectLit(span, args)
	case ".":
		return n.normalizeMember(span, args)
	case "idx":
		return n.normalizeIndex(span, args)
	case "?.":
		return n.normalizeOptMember(span, args)
	case "?idx":
		return n.normalizeOptIndex(span, args)
	case "call":
		return n.normalizeCall(span, args)
	case "new":
		return n.normalizeNew(span, args)
	case "arrow":
		return n.normalizeArrow(span, "", args)
	case "regex":
		return n.normalizeRegex(span, args)
	case "spread":
		return n.normalizeSpread(span, args)
	}

	return nil, diag.New(diag.UnsupportedOperator, span, fmt.Sprintf("unrecognised operator %q", head))
}

// normalizeLiteral handles the `[, value]` vacant-operator literal shape.
func (n *Normalizer) normalizeLiteral(l *sexp.List) (ast.Expr, error) {
	span := zeroSpan()

	sym, ok := l.Elements[1].(*sexp.Symbol)
	if !ok {
		return nil, diag.New(diag.UnsupportedLiteral, span, "literal payload must be a symbol")
	}

	text := sym.Value

	if isQuoted(text) {
		return ast.NewLiteral(span, ast.LitString, 0, unquote(text), false), nil
	}

	f, exceeds, err := parseNumberLiteral(text)
	if err != nil {
		return nil, diag.New(diag.UnsupportedLiteral, span, fmt.Sprintf("malformed numeric literal %q", text))
	}

	if exceeds {
		n.Warnings.Warn(span, "integer literal %s exceeds the safe-integer range", text)
	}

	return ast.NewLiteral(span, ast.LitNumber, f, "", false), nil
}

func (n *Normalizer) normalizeUnary(span sexp.Span, op string, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 1 {
		return nil, diag.New(diag.UnsupportedOperator, span, "unary operator requires exactly one operand")
	}

	if err := validateUnaryOp(span, op); err != nil {
		return nil, err
	}

	operand, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	// Fold u+x / u-x against a numeric literal.
	if lit, ok := operand.(*ast.Literal); ok && lit.Kind == ast.LitNumber {
		switch op {
		case "u+":
			return lit, nil
		case "u-":
			return ast.NewLiteral(span, ast.LitNumber, -lit.Num, "", false), nil
		}
	}

	return ast.NewUnary(span, op, operand), nil
}

func (n *Normalizer) normalizeBinary(span sexp.Span, op string, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "binary operator requires exactly two operands")
	}

	left, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	right, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	n.warnNaNComparison(span, op, left, right)
	n.warnNullishEquality(span, op, left, right)

	return foldedBinary(span, op, left, right), nil
}

func (n *Normalizer) normalizeLogical(span sexp.Span, op string, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "logical operator requires exactly two operands")
	}

	left, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	right, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	return ast.NewLogical(span, op, left, right), nil
}

func (n *Normalizer) normalizeNullish(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "?? requires exactly two operands")
	}

	left, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	right, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	return ast.NewNullish(span, left, right), nil
}

func (n *Normalizer) normalizeTernary(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 3 {
		return nil, diag.New(diag.UnsupportedOperator, span, "?: requires exactly three operands")
	}

	cond, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	then, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	els, err := n.normalizeExpr(args[2])
	if err != nil {
		return nil, err
	}

	return ast.NewTernary(span, cond, then, els), nil
}

func (n *Normalizer) normalizeAssign(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "assignment requires exactly two operands")
	}

	target, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	if err := validateAssignTarget(span, target); err != nil {
		return nil, err
	}

	value, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	if ident, ok := target.(*ast.Ident); ok {
		n.warnImplicitGlobal(span, ident)

		if _, isArrayAlias := value.(*ast.Ident); isArrayAlias {
			n.Warnings.Warn(span, "assigning %q aliases the same array/object rather than copying it", ident.Name)
		}
	}

	return ast.NewAssign(span, target, value), nil
}

func validateAssignTarget(span sexp.Span, target ast.Expr) error {
	switch target.(type) {
	case *ast.Ident, *ast.Index, *ast.Member:
		return nil
	default:
		return diag.New(diag.AssignmentTargetNotIdentifier, span, "assignment target must be an identifier, index, or member access")
	}
}

func (n *Normalizer) normalizeCompoundAssign(span sexp.Span, op string, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "compound assignment requires exactly two operands")
	}

	target, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	if err := validateAssignTarget(span, target); err != nil {
		return nil, err
	}

	value, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	return rewriteCompoundAssign(span, op, target, value)
}

func (n *Normalizer) normalizeIncDec(span sexp.Span, op string, args []sexp.SExp, pre bool) (ast.Expr, error) {
	if len(args) != 1 {
		return nil, diag.New(diag.UnsupportedOperator, span, "increment/decrement requires exactly one operand")
	}

	target, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	if err := validateAssignTarget(span, target); err != nil {
		return nil, err
	}

	if pre {
		return rewritePreIncDec(span, op, target), nil
	}

	return rewritePostIncDec(span, op, target), nil
}

func (n *Normalizer) normalizeSequence(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	exprs := make([]ast.Expr, 0, len(args))

	for _, a := range args {
		e, err := n.normalizeExpr(a)
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, e)
	}

	return ast.NewSequence(span, exprs), nil
}

func (n *Normalizer) normalizeArrayLit(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	elems := make([]ast.Expr, 0, len(args))

	for _, a := range args {
		e, err := n.normalizeExpr(a)
		if err != nil {
			return nil, err
		}

		elems = append(elems, e)
	}

	return ast.NewArrayLit(span, elems), nil
}

func (n *Normalizer) normalizeObjectLit(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	props := make([]ast.ObjectProp, 0, len(args))

	for _, a := range args {
		pl, ok := a.(*sexp.List)
		if !ok || pl.Len() != 2 {
			return nil, diag.New(diag.UnsupportedLiteral, span, "malformed object property")
		}

		nameSym, ok := pl.Elements[0].(*sexp.Symbol)
		if !ok {
			return nil, diag.New(diag.UnsupportedLiteral, span, "object property name must be a symbol")
		}

		value, err := n.normalizeExpr(pl.Elements[1])
		if err != nil {
			return nil, err
		}

		props = append(props, ast.ObjectProp{Name: nameSym.Value, Value: value})
	}

	return ast.NewObjectLit(span, props), nil
}

func (n *Normalizer) normalizeMember(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "member access requires object and name")
	}

	nameSym, ok := args[1].(*sexp.Symbol)
	if !ok {
		return nil, diag.New(diag.UnsupportedLiteral, span, "member access name must be a symbol")
	}

	// Namespaced access (Math.sqrt, JSON.parse, ...) must use a listed
	// member.
	if objSym, ok := args[0].(*sexp.Symbol); ok && isNamespace(objSym.Value) {
		if err := validateNamespaceMember(span, objSym.Value, nameSym.Value); err != nil {
			return nil, err
		}
	}

	object, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	return ast.NewMember(span, object, nameSym.Value), nil
}

func (n *Normalizer) normalizeIndex(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "index access requires object and key")
	}

	object, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	key, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	return ast.NewIndex(span, object, key), nil
}

func (n *Normalizer) normalizeOptMember(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "optional member access requires object and name")
	}

	nameSym, ok := args[1].(*sexp.Symbol)
	if !ok {
		return nil, diag.New(diag.UnsupportedLiteral, span, "optional member name must be a symbol")
	}

	object, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	return ast.NewOptChain(span, object, nameSym.Value, nil), nil
}

func (n *Normalizer) normalizeOptIndex(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedOperator, span, "optional index requires object and key")
	}

	object, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	key, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	return ast.NewOptChain(span, object, "", key), nil
}

func (n *Normalizer) normalizeCall(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) == 0 {
		return nil, diag.New(diag.UnsupportedOperator, span, "call requires a callee")
	}

	callee, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	callArgs := make([]ast.Expr, 0, len(args)-1)

	for _, a := range args[1:] {
		e, err := n.normalizeExpr(a)
		if err != nil {
			return nil, err
		}

		callArgs = append(callArgs, e)
	}

	n.warnParseIntRadix(span, callee, callArgs)

	return ast.NewCall(span, callee, callArgs), nil
}

func (n *Normalizer) normalizeNew(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) == 0 {
		return nil, diag.New(diag.ProhibitedConstructor, span, "new requires a constructor name")
	}

	ctorSym, ok := args[0].(*sexp.Symbol)
	if !ok {
		return nil, diag.New(diag.ProhibitedConstructor, span, "constructor must be a bare name")
	}

	if err := validateConstructor(span, ctorSym.Value); err != nil {
		return nil, err
	}

	ctorArgs := make([]ast.Expr, 0, len(args)-1)

	for _, a := range args[1:] {
		e, err := n.normalizeExpr(a)
		if err != nil {
			return nil, err
		}

		ctorArgs = append(ctorArgs, e)
	}

	return ast.NewNewExpr(span, ctorSym.Value, ctorArgs), nil
}

func (n *Normalizer) normalizeRegex(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "regex literal requires pattern and flags")
	}

	pat, ok1 := args[0].(*sexp.Symbol)
	flags, ok2 := args[1].(*sexp.Symbol)

	if !ok1 || !ok2 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "regex literal pattern/flags must be symbols")
	}

	return ast.NewRegexLit(span, pat.Value, flags.Value), nil
}

func (n *Normalizer) normalizeSpread(span sexp.Span, args []sexp.SExp) (ast.Expr, error) {
	if len(args) != 1 {
		return nil, diag.New(diag.UnsupportedOperator, span, "spread requires exactly one operand")
	}

	operand, err := n.normalizeExpr(args[0])
	if err != nil {
		return nil, err
	}

	return ast.NewSpreadExpr(span, operand), nil
}
