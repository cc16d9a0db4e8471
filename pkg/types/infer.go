package types

import (
	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/value"
)

// inferencer walks one function's (or the module's) statements for a single
// fixed-point pass, widening env and recording info.Expr as it goes.
type inferencer struct {
	info *Info
	env  *env

	changed    bool
	returnSeen bool
	returnKind value.Kind

	funcsByName map[string]*ast.Arrow
}

// record stores e's inferred kind, and — since a node re-inferred on a
// later fixed-point pass may resolve differently once an env it read from
// has finished widening, or once a forward-referenced function's return
// kind becomes known — flags the pass as having changed something whenever
// the recorded kind differs from the prior pass's.
func (inf *inferencer) record(e ast.Expr, k value.Kind) value.Kind {
	// A brand-new entry counts as a change too, not just an overwrite: a
	// forward-referenced call's first guess (the numeric fallback below) can
	// land on the right answer for the wrong reason, or the wrong answer
	// outright, and either way the only way to know is to force one more
	// pass once the callee's real return kind has been recorded.
	if prev, ok := inf.info.Expr[e]; !ok || prev != k {
		inf.changed = true
	}

	inf.info.Expr[e] = k

	return k
}

func (inf *inferencer) bindAssign(name string, k value.Kind) error {
	changed, err := inf.env.widen(name, k)
	if err != nil {
		return err
	}

	if changed {
		inf.changed = true
	}

	return nil
}

func (inf *inferencer) walkStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := inf.walkStmt(s); err != nil {
			return err
		}
	}

	return nil
}

func (inf *inferencer) walkStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case nil:
		return nil
	case *ast.ExprStmt:
		_, err := inf.infer(st.Expr)
		return err
	case *ast.LetDecl:
		return inf.walkLetDecl(st)
	case *ast.Block:
		return inf.walkStmts(st.Stmts)
	case *ast.If:
		if _, err := inf.infer(st.Cond); err != nil {
			return err
		}

		if err := inf.walkStmt(st.Then); err != nil {
			return err
		}

		return inf.walkStmt(st.Els)
	case *ast.For:
		if err := inf.walkStmt(st.Init); err != nil {
			return err
		}

		if st.Cond != nil {
			if _, err := inf.infer(st.Cond); err != nil {
				return err
			}
		}

		if st.Step != nil {
			if _, err := inf.infer(st.Step); err != nil {
				return err
			}
		}

		return inf.walkStmt(st.Body)
	case *ast.While:
		if _, err := inf.infer(st.Cond); err != nil {
			return err
		}

		return inf.walkStmt(st.Body)
	case *ast.Return:
		return inf.walkReturn(st)
	case *ast.Break, *ast.Continue:
		return nil
	case *ast.FuncDecl:
		_, err := inf.inferFunctionLiteral(st.Fn)
		return err
	case *ast.ExportDecl:
		return inf.walkStmt(st.Decl)
	}

	return nil
}

func (inf *inferencer) walkLetDecl(st *ast.LetDecl) error {
	for _, b := range st.Bindings {
		var k value.Kind

		var err error

		if b.Init != nil {
			k, err = inf.infer(b.Init)
			if err != nil {
				return err
			}
		}

		if b.Name != "" && b.Init != nil {
			if err := inf.bindAssign(b.Name, k); err != nil {
				return err
			}
		}

		if b.Pattern != nil {
			if err := inf.walkPatternDefaults(b.Pattern); err != nil {
				return err
			}
		}
	}

	return nil
}

func (inf *inferencer) walkPatternDefaults(p *ast.Pattern) error {
	for _, el := range p.Elems {
		if el.Default != nil {
			k, err := inf.infer(el.Default)
			if err != nil {
				return err
			}

			if el.Name != "" {
				if err := inf.bindAssign(el.Name, k); err != nil {
					return err
				}
			}
		}

		if el.Nested != nil {
			if err := inf.walkPatternDefaults(el.Nested); err != nil {
				return err
			}
		}
	}

	return nil
}

func (inf *inferencer) walkReturn(st *ast.Return) error {
	if st.Value == nil {
		return nil
	}

	k, err := inf.infer(st.Value)
	if err != nil {
		return err
	}

	if !inf.returnSeen {
		inf.returnSeen = true
		inf.returnKind = k

		return nil
	}

	joined, err := Join(inf.returnKind, k)
	if err != nil {
		return err
	}

	inf.returnKind = joined

	return nil
}

// infer computes e's element kind, recording it in info.Expr.
func (inf *inferencer) infer(e ast.Expr) (value.Kind, error) {
	switch ex := e.(type) {
	case nil:
		return 0, nil
	case *ast.Literal:
		return inf.record(ex, literalKind(ex)), nil
	case *ast.Ident:
		return inf.inferIdent(ex)
	case *ast.Unary:
		return inf.inferUnary(ex)
	case *ast.Binary:
		return inf.inferBinary(ex)
	case *ast.Logical:
		return inf.inferLogical(ex)
	case *ast.Nullish:
		return inf.inferNullish(ex)
	case *ast.Ternary:
		return inf.inferTernary(ex)
	case *ast.Assign:
		return inf.inferAssign(ex)
	case *ast.Sequence:
		return inf.inferSequence(ex)
	case *ast.ArrayLit:
		for _, el := range ex.Elements {
			if _, err := inf.infer(el); err != nil {
				return 0, err
			}
		}

		return inf.record(ex, value.KindArray), nil
	case *ast.ObjectLit:
		for _, p := range ex.Props {
			if _, err := inf.infer(p.Value); err != nil {
				return 0, err
			}
		}

		return inf.record(ex, value.KindObject), nil
	case *ast.Member:
		return inf.inferMember(ex)
	case *ast.Index:
		if _, err := inf.infer(ex.Object); err != nil {
			return 0, err
		}

		if _, err := inf.infer(ex.Key); err != nil {
			return 0, err
		}

		return inf.record(ex, value.KindRef), nil
	case *ast.OptChain:
		if _, err := inf.infer(ex.Object); err != nil {
			return 0, err
		}

		if ex.Key != nil {
			if _, err := inf.infer(ex.Key); err != nil {
				return 0, err
			}
		}

		return inf.record(ex, value.KindRef), nil
	case *ast.Call:
		return inf.inferCall(ex)
	case *ast.NewExpr:
		for _, a := range ex.Args {
			if _, err := inf.infer(a); err != nil {
				return 0, err
			}
		}

		return inf.record(ex, newExprKind(ex.Constructor)), nil
	case *ast.Arrow:
		return inf.inferFunctionLiteral(ex)
	case *ast.RegexLit:
		return inf.record(ex, value.KindObject), nil
	case *ast.SpreadExpr:
		return inf.infer(ex.Operand)
	}

	return 0, nil
}

func literalKind(l *ast.Literal) value.Kind {
	switch l.Kind {
	case ast.LitNumber:
		if l.IsSafeInteger() {
			return value.KindI32
		}

		return value.KindF64
	case ast.LitString:
		return value.KindString
	case ast.LitBool:
		return value.KindI32
	default: // LitNull, LitUndefined
		return value.KindRef
	}
}

// newExprKind maps a whitelisted `new` constructor name to the element kind
// it produces.
func newExprKind(ctor string) value.Kind {
	switch ctor {
	case "Array":
		return value.KindArray
	case "String":
		return value.KindString
	case "Number", "Boolean":
		return value.KindF64
	default: // Set, Map, RegExp, the typed-array family
		return value.KindObject
	}
}

func (inf *inferencer) inferIdent(ex *ast.Ident) (value.Kind, error) {
	switch ex.Name {
	case "NaN", "Infinity", "t":
		return inf.record(ex, value.KindF64), nil
	}

	if k, ok := inf.env.lookup(ex.Name); ok {
		return inf.record(ex, k), nil
	}

	// Not yet widened by any assignment seen so far in this pass — most
	// commonly a parameter that is only ever read, never reassigned, so
	// bindAssign never runs for it. Numeric is the safe default: it lets
	// arithmetic on an unconstrained parameter type-check, and a later pass
	// refines it the moment any assignment (including a default value)
	// widens the name in env.
	return inf.record(ex, value.KindF64), nil
}

func (inf *inferencer) inferUnary(ex *ast.Unary) (value.Kind, error) {
	k, err := inf.infer(ex.Operand)
	if err != nil {
		return 0, err
	}

	switch ex.Op {
	case "u+", "u-":
		if k.IsReference() {
			return 0, diag.New(diag.NonsenseCoercion, zeroSpan(), "cannot apply unary "+ex.Op+" to a reference")
		}

		return inf.record(ex, k), nil
	case "!":
		return inf.record(ex, value.KindI32), nil
	case "~":
		return inf.record(ex, value.KindI32), nil
	case "typeof":
		return inf.record(ex, value.KindString), nil
	}

	return inf.record(ex, k), nil
}

var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "%": true}
var alwaysF64Ops = map[string]bool{"/": true, "**": true}
var bitwiseOps = map[string]bool{"&": true, "|": true, "^": true, "<<": true, ">>": true, ">>>": true}
var comparisonOps = map[string]bool{
	"==": true, "===": true, "!=": true, "!==": true,
	"<": true, "<=": true, ">": true, ">=": true,
}

func (inf *inferencer) inferBinary(ex *ast.Binary) (value.Kind, error) {
	lk, err := inf.infer(ex.Left)
	if err != nil {
		return 0, err
	}

	rk, err := inf.infer(ex.Right)
	if err != nil {
		return 0, err
	}

	switch {
	case comparisonOps[ex.Op]:
		return inf.record(ex, value.KindI32), nil
	case bitwiseOps[ex.Op]:
		if lk.IsReference() || rk.IsReference() {
			return 0, diag.New(diag.NonsenseCoercion, zeroSpan(), "bitwise operator "+ex.Op+" requires numeric operands")
		}

		return inf.record(ex, value.KindI32), nil
	case alwaysF64Ops[ex.Op]:
		if lk.IsReference() || rk.IsReference() {
			return 0, diag.New(diag.NonsenseCoercion, zeroSpan(), "operator "+ex.Op+" requires numeric operands")
		}

		return inf.record(ex, value.KindF64), nil
	case arithmeticOps[ex.Op]:
		if lk.IsReference() || rk.IsReference() {
			return 0, diag.New(diag.NonsenseCoercion, zeroSpan(), "operator "+ex.Op+" on a reference operand is a nonsense coercion")
		}

		if lk == value.KindI32 && rk == value.KindI32 {
			return inf.record(ex, value.KindI32), nil
		}

		return inf.record(ex, value.KindF64), nil
	}

	return inf.record(ex, value.KindF64), nil
}

// conciliate is the common-type rule shared by &&/||/?: arms: equal kinds
// stay put, i32/f64 promote to f64, anything else is irreconcilable.
func conciliate(a, b value.Kind) (value.Kind, error) {
	return Join(a, b)
}

func (inf *inferencer) inferLogical(ex *ast.Logical) (value.Kind, error) {
	lk, err := inf.infer(ex.Left)
	if err != nil {
		return 0, err
	}

	rk, err := inf.infer(ex.Right)
	if err != nil {
		return 0, err
	}

	k, err := conciliate(lk, rk)
	if err != nil {
		return 0, err
	}

	return inf.record(ex, k), nil
}

func (inf *inferencer) inferNullish(ex *ast.Nullish) (value.Kind, error) {
	lk, err := inf.infer(ex.Left)
	if err != nil {
		return 0, err
	}

	if !lk.IsReference() {
		return inf.record(ex, lk), nil
	}

	rk, err := inf.infer(ex.Right)
	if err != nil {
		return 0, err
	}

	return inf.record(ex, rk), nil
}

func (inf *inferencer) inferTernary(ex *ast.Ternary) (value.Kind, error) {
	if _, err := inf.infer(ex.Cond); err != nil {
		return 0, err
	}

	thenK, err := inf.infer(ex.Then)
	if err != nil {
		return 0, err
	}

	elseK, err := inf.infer(ex.Else)
	if err != nil {
		return 0, err
	}

	k, err := conciliate(thenK, elseK)
	if err != nil {
		return 0, err
	}

	return inf.record(ex, k), nil
}

func (inf *inferencer) inferAssign(ex *ast.Assign) (value.Kind, error) {
	vk, err := inf.infer(ex.Value)
	if err != nil {
		return 0, err
	}

	switch t := ex.Target.(type) {
	case *ast.Ident:
		if err := inf.bindAssign(t.Name, vk); err != nil {
			return 0, err
		}

		inf.record(t, vk)
	case *ast.Index:
		if _, err := inf.infer(t.Object); err != nil {
			return 0, err
		}

		if _, err := inf.infer(t.Key); err != nil {
			return 0, err
		}
	case *ast.Member:
		if _, err := inf.infer(t.Object); err != nil {
			return 0, err
		}
	}

	return inf.record(ex, vk), nil
}

func (inf *inferencer) inferSequence(ex *ast.Sequence) (value.Kind, error) {
	var last value.Kind

	for _, sub := range ex.Exprs {
		k, err := inf.infer(sub)
		if err != nil {
			return 0, err
		}

		last = k
	}

	return inf.record(ex, last), nil
}

func (inf *inferencer) inferMember(ex *ast.Member) (value.Kind, error) {
	if _, err := inf.infer(ex.Object); err != nil {
		return 0, err
	}

	if obj, ok := ex.Object.(*ast.Ident); ok {
		if k, ok := namespaceMemberKind(obj.Name, ex.Name); ok {
			return inf.record(ex, k), nil
		}
	}

	if ex.Name == "length" {
		return inf.record(ex, value.KindI32), nil
	}

	return inf.record(ex, value.KindRef), nil
}

// namespaceMemberKind special-cases the handful of namespace members that
// are constants rather than callable methods.
func namespaceMemberKind(namespace, member string) (value.Kind, bool) {
	switch namespace {
	case "Math":
		if member == "PI" || member == "E" {
			return value.KindF64, true
		}
	case "Number":
		switch member {
		case "MAX_SAFE_INTEGER", "MIN_SAFE_INTEGER", "POSITIVE_INFINITY", "NEGATIVE_INFINITY":
			return value.KindF64, true
		}
	}

	return 0, false
}

func (inf *inferencer) inferCall(ex *ast.Call) (value.Kind, error) {
	if _, err := inf.infer(ex.Callee); err != nil {
		return 0, err
	}

	for _, a := range ex.Args {
		if _, err := inf.infer(a); err != nil {
			return 0, err
		}
	}

	if ident, ok := ex.Callee.(*ast.Ident); ok {
		if fn, ok := inf.funcsByName[ident.Name]; ok {
			if k, ok := inf.info.Returns[fn]; ok {
				return inf.record(ex, k), nil
			}
		}
	}

	// Stdlib methods and not-yet-resolved direct calls default to a numeric
	// result; pkg/codegen's per-type method table pins the exact kind for
	// every stdlib method it recognises, using the receiver type already
	// recorded for ex.Callee's Member.Object rather than this fallback.
	return inf.record(ex, value.KindF64), nil
}

// inferFunctionLiteral analyzes fn as a nested scope: a fresh env chained to
// the enclosing one, its own fixed-point pass loop, and a KindRef result
// (closures are boxed function/env pairs, a reference kind).
func (inf *inferencer) inferFunctionLiteral(fn *ast.Arrow) (value.Kind, error) {
	child := newEnv(inf.env)

	for _, p := range fn.Params {
		declareParam(child, p)
	}

	var bodyStmts []ast.Stmt

	if fn.Body != nil {
		declareStmts(child, fn.Body.Stmts)
		bodyStmts = fn.Body.Stmts
	}

	childInf := &inferencer{info: inf.info, env: child, funcsByName: inf.funcsByName}

	for pass := 0; pass < maxFixedPointPasses; pass++ {
		childInf.changed = false
		childInf.returnSeen = false
		childInf.returnKind = 0

		if err := childInf.walkParams(fn.Params); err != nil {
			return 0, err
		}

		if err := childInf.walkStmts(bodyStmts); err != nil {
			return 0, err
		}

		if fn.ExprBody != nil {
			k, err := childInf.infer(fn.ExprBody)
			if err != nil {
				return 0, err
			}

			childInf.returnSeen = true
			childInf.returnKind = k
		}

		if childInf.returnSeen {
			prev, had := inf.info.Returns[fn]
			if !had {
				inf.info.Returns[fn] = childInf.returnKind
				childInf.changed = true
			} else {
				joined, err := Join(prev, childInf.returnKind)
				if err != nil {
					return 0, err
				}

				if joined != prev {
					inf.info.Returns[fn] = joined
					childInf.changed = true
				}
			}
		}

		if !childInf.changed {
			break
		}
	}

	inf.info.Locals[fn] = child.snapshot()

	if fn.Name == "" {
		return inf.record(fn, value.KindRef), nil
	}

	// A named function declaration is a statement, not a value-producing
	// expression; still record a kind for any expression-position reference
	// that later resolves through pkg/scope rather than this walk.
	return value.KindRef, nil
}

func (inf *inferencer) walkParams(params []ast.Param) error {
	for _, p := range params {
		if p.Default != nil {
			k, err := inf.infer(p.Default)
			if err != nil {
				return err
			}

			if p.Name != "" {
				if err := inf.bindAssign(p.Name, k); err != nil {
					return err
				}
			}
		}

		if p.Pattern != nil {
			if err := inf.walkPatternDefaults(p.Pattern); err != nil {
				return err
			}
		}
	}

	return nil
}

func declareParam(e *env, p ast.Param) {
	if p.Name != "" {
		e.declare(p.Name)
	}

	if p.Pattern != nil {
		declarePatternNames(e, p.Pattern)
	}
}
