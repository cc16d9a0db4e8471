package scope

import (
	"sort"

	"github.com/samber/lo"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

// FuncInfo is the result of analyzing one function literal: its free,
// locally-defined and captured-from-outer variable sets, which of its own
// locals must be hoisted into an environment record because some inner
// function captures them, and the nested functions found directly in its
// body.
type FuncInfo struct {
	Fn       *ast.Arrow
	Free     []string // names resolved outside this function and not captured from its direct parent
	Defined  []string // params plus locally declared names
	Captured []string // free names resolved against an enclosing function's Defined set
	Hoisted  []string // own Defined names captured by some Inner function
	Inner    []*FuncInfo

	definedSet  map[string]bool
	freeSet     map[string]bool
	capturedSet map[string]bool
	hoistedSet  map[string]bool
	assignedSet map[string]bool // free names this function itself assigns
}

// Module is the whole-program analysis result: every name bound at module
// scope (and thus represented as a WebAssembly global), plus the top-level
// functions (reachable transitively via FuncInfo.Inner for nested ones).
type Module struct {
	Globals   []string
	Functions []*FuncInfo
}

// Analyze walks prog and returns the closure analysis, or the first
// diag.Error encountered (an UnknownIdentifier or CannotMutateCapturedLocal
// violation); there is no partial result on error.
func Analyze(prog *ast.Program) (*Module, error) {
	globalSet := map[string]bool{}
	collectDefined(prog.Stmts, globalSet)

	var fns []*FuncInfo

	var analyzeErr error

	v := &identVisitor{
		onIdent: func(name string, assigned bool) {
			_ = assigned // top-level assignment targets are globals, never an error here

			if analyzeErr != nil || globalSet[name] || isBuiltin(name) {
				return
			}

			analyzeErr = diag.New(diag.UnknownIdentifier, zeroSpan(), "unknown identifier "+name)
		},
	}

	v.onArrow = func(fn *ast.Arrow) {
		if analyzeErr != nil {
			return
		}

		info, err := analyzeFunction(fn)
		if err != nil {
			analyzeErr = err
			return
		}

		fns = append(fns, info)
	}

	v.walkStmts(prog.Stmts)

	if analyzeErr != nil {
		return nil, analyzeErr
	}

	// Any name left free after resolving against nested-function chains and
	// builtins must exist at module scope, or it is unresolvable.
	for _, fn := range fns {
		for _, name := range fn.Free {
			if !globalSet[name] && !isBuiltin(name) {
				return nil, diag.New(diag.UnknownIdentifier, zeroSpan(), "unknown identifier "+name)
			}
		}
	}

	globals := sortedKeys(globalSet)

	return &Module{Globals: globals, Functions: fns}, nil
}

// analyzeFunction computes fn's FuncInfo. A name left free after this
// function's own defined set is resolved bubbles up through freeSet/
// assignedSet to be checked again at each enclosing function's own
// onArrow boundary, so no explicit enclosing-scope stack needs to be
// threaded through here.
func analyzeFunction(fn *ast.Arrow) (*FuncInfo, error) {
	info := &FuncInfo{
		Fn:          fn,
		definedSet:  map[string]bool{},
		freeSet:     map[string]bool{},
		capturedSet: map[string]bool{},
		hoistedSet:  map[string]bool{},
		assignedSet: map[string]bool{},
	}

	for _, p := range fn.Params {
		if p.Name != "" {
			info.definedSet[p.Name] = true
		}

		if p.Pattern != nil {
			collectPatternNames(p.Pattern, info.definedSet)
		}
	}

	var bodyStmts []ast.Stmt

	if fn.Body != nil {
		collectDefined(fn.Body.Stmts, info.definedSet)
		bodyStmts = fn.Body.Stmts
	}

	var analyzeErr error

	v := &identVisitor{
		onIdent: func(name string, assigned bool) {
			if analyzeErr != nil || info.definedSet[name] || isBuiltin(name) {
				return
			}

			info.freeSet[name] = true

			if assigned {
				info.assignedSet[name] = true
			}
		},
	}

	v.onArrow = func(nested *ast.Arrow) {
		if analyzeErr != nil {
			return
		}

		child, err := analyzeFunction(nested)
		if err != nil {
			analyzeErr = err
			return
		}

		info.Inner = append(info.Inner, child)

		for name := range child.freeSet {
			if info.definedSet[name] {
				child.capturedSet[name] = true
				info.hoistedSet[name] = true

				if child.assignedSet[name] {
					analyzeErr = diag.New(diag.CannotMutateCapturedLocal, zeroSpan(),
						"cannot mutate captured variable "+name)
					return
				}

				continue
			}

			info.freeSet[name] = true

			if child.assignedSet[name] {
				info.assignedSet[name] = true
			}
		}
	}

	for _, p := range fn.Params {
		if p.Default != nil {
			v.walkExpr(p.Default)
		}

		if p.Pattern != nil {
			v.walkPatternDefaults(p.Pattern)
		}
	}

	v.walkStmts(bodyStmts)

	if fn.ExprBody != nil {
		v.walkExpr(fn.ExprBody)
	}

	if analyzeErr != nil {
		return nil, analyzeErr
	}

	// freeSet/definedSet/capturedSet/hoistedSet are fully settled now;
	// freeze them into the exported, deterministically ordered fields.
	info.Free = sortedKeys(info.freeSet)
	info.Defined = sortedKeys(info.definedSet)
	info.Captured = sortedKeys(info.capturedSet)
	info.Hoisted = sortedKeys(info.hoistedSet)

	for _, child := range info.Inner {
		child.Captured = sortedKeys(child.capturedSet)

		free := child.Free[:0]
		for _, name := range child.Free {
			if !child.capturedSet[name] {
				free = append(free, name)
			}
		}
		child.Free = free
	}

	return info, nil
}

func sortedKeys(m map[string]bool) []string {
	out := lo.Keys(m)
	sort.Strings(out)

	return out
}

func zeroSpan() sexp.Span { return sexp.NewSpan(0, 0) }
