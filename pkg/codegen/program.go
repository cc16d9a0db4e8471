package codegen

import (
	"fmt"
	"strings"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/regexp"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/scope"
	"github.com/latticec/wasmc/pkg/types"
	"github.com/latticec/wasmc/pkg/value"
)

// Program is the complete result of compiling one whole program: every
// lowered function plus the side tables pkg/module needs to place memory,
// globals, imports, and the indirect-call table around them. Assembling
// these pieces into one WebAssembly module's final text is pkg/module's
// job, not this package's: data-segment placement for interned strings and
// the resulting $bump_ptr starting value depend on decisions (memory page
// count, import ordering) this package has no business making.
type Program struct {
	// Init is the synthetic function holding the program's top-level
	// statements; pkg/module exports (or wraps) it as the module's entry
	// point.
	Init *CompiledFunc
	// Functions holds every named or anonymous function reachable from
	// mod.Functions, parent before any of its own nested children.
	Functions []*CompiledFunc

	// PreludeText is every pkg/runtime helper this compilation required,
	// already resolved to its transitive dependency closure.
	PreludeText string
	// LeafHelperText holds the small helpers this package defines itself
	// rather than through pkg/runtime's Prelude ($fmod and the ASCII
	// case/whitespace helpers String's methods call into) - emitted only
	// when some compiled function actually set the matching Needs* flag.
	LeafHelperText string
	// RegexFuncText holds every pkg/regexp-compiled matcher function (and
	// its supporting globals) for each distinct regex literal the program
	// referenced, in assignment-order concatenation.
	RegexFuncText string

	Globals        []string
	StringLiterals []string
	Table          []string
	RegexLiterals  []RegexLiteral
	// NeedsHostPow reports whether $pow's fractional-exponent path is live,
	// so pkg/module knows whether to declare the $host_pow import.
	NeedsHostPow bool
	// Exports lists every top-level `export` binding, source name paired
	// with its compiled WebAssembly symbol and inferred kind(s); pkg/module
	// turns each into an `(export ...)` clause and, for a function export
	// with any array-kind param or return, a jz:sig custom-section entry.
	Exports []Export
}

// Export describes one exported binding. Func is false for `export const`/
// `export let` (Symbol then names the WebAssembly global holding it, Params
// empty, Result its value.Kind); true for `export function`, in which case
// Symbol is the callable's compiled function name and Params holds its
// parameters' kinds in declaration order.
type Export struct {
	Name   string
	Symbol string
	Func   bool
	Params []value.Kind
	Result value.Kind
}

// RegexLiteral is exported so pkg/module and pkg/regexp can both consume
// Context's internal regexLiteral shape without importing it directly.
type RegexLiteral struct {
	Pattern, Flags string
}

// Compile lowers prog's whole statement list plus every function info's mod
// describes into WebAssembly text fragments. Functions are compiled
// strictly outside-in (a FuncInfo's own CompileFunction call, which
// registers its frame, always runs before any of its Inner children's):
// a nested function's prologue needs its immediate parent's frame already
// recorded in Context to copy captured names out of the parent's env
// record.
func Compile(prog *ast.Program, info *types.Info, mod *scope.Module) (*Program, error) {
	ctx := NewContext(info, mod)

	// $alloc is required unconditionally: pkg/module's synthetic `_alloc`
	// export wraps it regardless of whether this particular program
	// allocates anything of its own.
	ctx.Prelude.Require(runtime.HelperAlloc)

	var fns []*CompiledFunc

	var walk func([]*scope.FuncInfo) error
	walk = func(infos []*scope.FuncInfo) error {
		for _, fi := range infos {
			cf, err := CompileFunction(ctx, fi.Fn, arrowBody(fi.Fn))
			if err != nil {
				return err
			}
			fns = append(fns, cf)

			if err := walk(fi.Inner); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(mod.Functions); err != nil {
		return nil, err
	}

	initFn, err := CompileFunction(ctx, nil, prog.Stmts)
	if err != nil {
		return nil, err
	}

	needsFmod, needsSpace, needsCase := initFn.NeedsFmod, initFn.NeedsIsAsciiSpace, initFn.NeedsAsciiCaseShift
	for _, cf := range fns {
		needsFmod = needsFmod || cf.NeedsFmod
		needsSpace = needsSpace || cf.NeedsIsAsciiSpace
		needsCase = needsCase || cf.NeedsAsciiCaseShift
	}

	var leaf strings.Builder
	if needsFmod {
		leaf.WriteString(fmodText())
	}
	if needsSpace {
		leaf.WriteString(isAsciiSpaceText())
	}
	if needsCase {
		leaf.WriteString(asciiCaseShiftText())
	}

	literals := ctx.RegexLiterals()
	regexes := make([]RegexLiteral, len(literals))

	var regexText strings.Builder
	for i, r := range literals {
		regexes[i] = RegexLiteral(r)

		pat, err := regexp.Parse(r.Pattern, r.Flags)
		if err != nil {
			return nil, fmt.Errorf("codegen: regex literal %d: %w", i, err)
		}

		text, err := regexp.Compile(i, pat)
		if err != nil {
			return nil, fmt.Errorf("codegen: regex literal %d: %w", i, err)
		}
		regexText.WriteString(text)
	}

	if len(literals) > 0 {
		ctx.Prelude.Require(runtime.HelperUnboxOffset)
	}

	return &Program{
		Init:           initFn,
		Functions:      fns,
		PreludeText:    ctx.Prelude.Emit(),
		LeafHelperText: leaf.String(),
		RegexFuncText:  regexText.String(),
		Globals:        variableGlobals(mod),
		StringLiterals: ctx.Strings.Literals(),
		Table:          ctx.Table(),
		RegexLiterals:  regexes,
		NeedsHostPow:   ctx.Prelude.NeedsHostPow(),
		Exports:        collectExports(prog, ctx, info),
	}, nil
}

// variableGlobals filters mod.Globals (module scope's name set, which
// scope.Analyze deliberately also populates with top-level function names
// so identifier resolution treats a bare call to one uniformly with a
// variable reference) down to the names that actually need a WebAssembly
// global: a top-level function is called directly by its compiled symbol,
// never read through `global.get`, so it has no business getting one.
func variableGlobals(mod *scope.Module) []string {
	topFuncs := map[string]bool{}
	for _, fi := range mod.Functions {
		topFuncs[fi.Fn.Name] = true
	}

	out := make([]string, 0, len(mod.Globals))
	for _, name := range mod.Globals {
		if !topFuncs[name] {
			out = append(out, name)
		}
	}

	return out
}

// collectExports walks prog's top-level statements for `export` wrappers,
// pairing each exported source name with the WebAssembly symbol codegen
// already assigned it.
func collectExports(prog *ast.Program, ctx *Context, info *types.Info) []Export {
	var exports []Export

	for _, s := range prog.Stmts {
		ed, ok := s.(*ast.ExportDecl)
		if !ok {
			continue
		}

		switch d := ed.Decl.(type) {
		case *ast.FuncDecl:
			params := make([]value.Kind, len(d.Fn.Params))
			locals := info.Locals[d.Fn]
			for i, p := range d.Fn.Params {
				params[i] = locals[p.Name]
			}

			exports = append(exports, Export{
				Name:   d.Fn.Name,
				Symbol: ctx.ArrowName(d.Fn),
				Func:   true,
				Params: params,
				Result: info.Returns[d.Fn],
			})
		case *ast.LetDecl:
			for _, b := range d.Bindings {
				if b.Name == "" {
					continue
				}

				exports = append(exports, Export{
					Name:   b.Name,
					Symbol: globalName(b.Name),
					Result: info.Globals[b.Name],
				})
			}
		}
	}

	return exports
}

// arrowBody returns fn's statement list, synthesizing a single-statement
// Return for a concise-body arrow (`(x) => x + 1`, never a Block).
func arrowBody(fn *ast.Arrow) []ast.Stmt {
	if fn.Body != nil {
		return fn.Body.Stmts
	}

	return []ast.Stmt{ast.NewReturn(fn.Span(), fn.ExprBody)}
}

// fmodText defines $fmod(a:f64, b:f64) -> f64: JS's `%` is a floating-point
// remainder (truncating division, sign follows the dividend), which
// WebAssembly's f64 type has no instruction for.
func fmodText() string {
	return `(func $fmod (param $a f64) (param $b f64) (result f64)
  (local $q f64)
  (local.set $q (f64.div (local.get $a) (local.get $b)))
  (local.set $q (f64.trunc (local.get $q)))
  (f64.sub (local.get $a) (f64.mul (local.get $q) (local.get $b)))
)
`
}

// isAsciiSpaceText defines $is_ascii_space(unit:i32) -> i32, matching the
// JS trim() whitespace set restricted to the ASCII subset: space, tab,
// newline, carriage return, vertical tab, form feed.
func isAsciiSpaceText() string {
	return `(func $is_ascii_space (param $u i32) (result i32)
  (i32.or
    (i32.or
      (i32.eq (local.get $u) (i32.const 32))
      (i32.eq (local.get $u) (i32.const 9)))
    (i32.or
      (i32.or
        (i32.eq (local.get $u) (i32.const 10))
        (i32.eq (local.get $u) (i32.const 13)))
      (i32.or
        (i32.eq (local.get $u) (i32.const 11))
        (i32.eq (local.get $u) (i32.const 12)))))
)
`
}

// asciiCaseShiftText defines $ascii_to_upper/$ascii_to_lower(unit:i32) ->
// i32: shift a code unit within the ASCII a-z/A-Z range, pass anything else
// through unchanged. Non-ASCII code units are a documented simplification
// (no full Unicode case folding).
func asciiCaseShiftText() string {
	return `(func $ascii_to_upper (param $u i32) (result i32)
  (if (result i32) (i32.and (i32.ge_u (local.get $u) (i32.const 97)) (i32.le_u (local.get $u) (i32.const 122)))
    (then (i32.sub (local.get $u) (i32.const 32)))
    (else (local.get $u)))
)
(func $ascii_to_lower (param $u i32) (result i32)
  (if (result i32) (i32.and (i32.ge_u (local.get $u) (i32.const 65)) (i32.le_u (local.get $u) (i32.const 90)))
    (then (i32.add (local.get $u) (i32.const 32)))
    (else (local.get $u)))
)
`
}
