// Package types infers, per expression, the WebAssembly-level element kind
// it produces — one of i32, f64, ref, array, string, object (pkg/value.Kind)
// — and records a local's declared kind as the join of every value ever
// assigned to it. The result is a side table keyed by AST node identity,
// consulted by pkg/codegen instead of re-deriving kinds during emission.
package types

import (
	"sort"

	"github.com/samber/lo"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/value"
)

// Info is the whole-program inference result.
type Info struct {
	// Expr maps every expression node to its inferred element kind.
	Expr map[ast.Expr]value.Kind
	// Locals maps a function's local/parameter name to its declared kind,
	// keyed by the owning *ast.Arrow (nil for module-scope bindings).
	Locals map[*ast.Arrow]map[string]value.Kind
	// Globals is the module-scope equivalent of Locals.
	Globals map[string]value.Kind
	// Returns maps a function to the join of all its `return` expression
	// kinds. A function that never returns a value has no entry, so a
	// lookup yields the zero Kind (value.KindI32).
	Returns map[*ast.Arrow]value.Kind
}

func newInfo() *Info {
	return &Info{
		Expr:    map[ast.Expr]value.Kind{},
		Locals:  map[*ast.Arrow]map[string]value.Kind{},
		Globals: map[string]value.Kind{},
		Returns: map[*ast.Arrow]value.Kind{},
	}
}

// maxFixedPointPasses bounds the join iteration: each local widens at most
// once (i32->f64) before either stabilizing or erroring, so a handful of
// passes always reaches a fixed point for realistic function sizes.
const maxFixedPointPasses = 8

// Infer walks prog and returns the whole-program type table, or the first
// diag.Error encountered (NonsenseCoercion on an illegal kind join).
func Infer(prog *ast.Program) (*Info, error) {
	info := newInfo()

	module := newEnv(nil)
	declareStmts(module, prog.Stmts)

	inf := &inferencer{info: info, env: module, funcsByName: topLevelFuncs(prog.Stmts)}

	for pass := 0; pass < maxFixedPointPasses; pass++ {
		inf.changed = false

		if err := inf.walkStmts(prog.Stmts); err != nil {
			return nil, err
		}

		if !inf.changed {
			break
		}
	}

	info.Globals = module.snapshot()

	return info, nil
}

// topLevelFuncs indexes every module-scope named function declaration by
// name, so a direct call site can resolve the callee's inferred return kind
// without a second whole-program pass.
func topLevelFuncs(stmts []ast.Stmt) map[string]*ast.Arrow {
	out := map[string]*ast.Arrow{}

	for _, s := range stmts {
		if ed, ok := s.(*ast.ExportDecl); ok {
			s = ed.Decl
		}

		if fd, ok := s.(*ast.FuncDecl); ok {
			out[fd.Fn.Name] = fd.Fn
		}
	}

	return out
}

// SortedNames returns kinds' keys in deterministic order, for callers (the
// codegen local-index allocator, tests) that need to iterate a Locals/
// Globals map reproducibly.
func SortedNames(kinds map[string]value.Kind) []string {
	out := lo.Keys(kinds)
	sort.Strings(out)

	return out
}
