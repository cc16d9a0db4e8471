package codegen

import (
	"sort"

	"github.com/samber/lo"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/scope"
	"github.com/latticec/wasmc/pkg/types"
	"github.com/latticec/wasmc/pkg/value"
)

// frame is the per-function compilation state: the WebAssembly local/param
// declarations this function's body compiles against, and the env-record
// layout (if any) that lets its nested functions capture from it.
//
// A name is either a plain WebAssembly local (the common case) or a slot in
// this function's env record. A name is hoisted into the env record when
// scope.FuncInfo says some nested function captures it, or when this
// function itself captured it from its own parent — re-exposing a captured
// upvalue in this function's own record is what lets a function two or more
// lexical levels down read it, one env-chain hop per level (scope.FuncInfo
// only ever marks Captured one level below the name's true definer; see
// DESIGN.md's "Multi-level closure env-chain" note).
type frame struct {
	fn   *ast.Arrow // nil for the module-level frame
	info *scope.FuncInfo

	kinds map[string]value.Kind // declared kind of every param/local, hoisted or not

	hoisted    map[string]bool
	envOrder   []string // hoisted names, sorted, fixed slot order
	envSchema  *value.Schema
	hasEnvRec  bool
	needsEnvIn bool // true when this function reads its own $env parameter
}

// newFrame builds the frame for fn (nil for the module-level frame), given
// its closure analysis and inferred local kinds.
func newFrame(fn *ast.Arrow, info *scope.FuncInfo, kinds map[string]value.Kind, schemas *value.SchemaTable) *frame {
	f := &frame{fn: fn, info: info, kinds: kinds, hoisted: map[string]bool{}}

	if info != nil {
		for _, n := range info.Hoisted {
			f.hoisted[n] = true
		}

		for _, n := range info.Captured {
			f.hoisted[n] = true
		}

		f.needsEnvIn = len(info.Captured) > 0
	}

	f.envOrder = lo.Keys(f.hoisted)
	sort.Strings(f.envOrder)
	f.hasEnvRec = len(f.envOrder) > 0

	if f.hasEnvRec {
		kindList := make([]value.Kind, len(f.envOrder))
		for i, n := range f.envOrder {
			kindList[i] = f.kindOf(n)
		}

		schema, err := schemas.Intern(f.envOrder, kindList)
		if err == nil { // schema-limit overflow degrades to no env record; caller already compiled without closures in that case
			f.envSchema = schema
		}
	}

	return f
}

// kindOf returns name's declared element kind, defaulting to KindF64 for a
// name this frame doesn't otherwise know about (matches pkg/types'
// unconstrained-read fallback).
func (f *frame) kindOf(name string) value.Kind {
	if k, ok := f.kinds[name]; ok {
		return k
	}

	return value.KindF64
}

// isLocal reports whether name is an ordinary WebAssembly local/param in
// this frame (as opposed to a slot in the env record).
func (f *frame) isLocal(name string) bool {
	_, known := f.kinds[name]
	return known && !f.hoisted[name]
}

// isHoisted reports whether name lives in this frame's own env record.
func (f *frame) isHoisted(name string) bool {
	return f.hoisted[name]
}

// isCaptured reports whether name is read from the parent's env record via
// this frame's $env parameter (rather than being hoisted from this frame's
// own locals).
func (f *frame) isCaptured(name string) bool {
	if f.info == nil {
		return false
	}

	for _, n := range f.info.Captured {
		if n == name {
			return true
		}
	}

	return false
}

// envOffset returns name's schema slot offset within this frame's env
// record, panicking if name isn't hoisted here (a codegen invariant
// violation, not a user error).
func (f *frame) envOffset(name string) int {
	off, ok := f.envSchema.Offset(name)
	if !ok {
		panic("codegen: " + name + " is not hoisted in this frame's env record")
	}

	return off
}

// wasmLocalName is the WebAssembly local/param name a plain (non-hoisted)
// binding named n compiles to. Prefixed to avoid colliding with the
// synthesized names (env, loop labels) codegen also introduces.
func wasmLocalName(n string) string {
	return "$l_" + n
}

// localsForFunc resolves the declared-kind map and closure info for fn
// (nil for the module frame) from a whole-program types.Info/scope.Module,
// and builds its frame.
func localsForFunc(ctx *Context, fn *ast.Arrow) *frame {
	var kinds map[string]value.Kind

	if fn == nil {
		kinds = ctx.Info.Globals
	} else {
		kinds = ctx.Info.Locals[fn]
	}

	return newFrame(fn, ctx.FuncInfo(fn), kinds, ctx.Schema)
}

// allLocalDecls returns every non-hoisted name that needs a WebAssembly
// `(local ...)` declaration, in deterministic order, excluding names that
// are parameters (params are declared separately by the caller).
func (f *frame) allLocalDecls(paramNames map[string]bool) []string {
	names := types.SortedNames(f.kinds)

	out := make([]string, 0, len(names))

	for _, n := range names {
		if f.hoisted[n] || paramNames[n] {
			continue
		}

		out = append(out, n)
	}

	return out
}
