package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/scope"
	"github.com/latticec/wasmc/pkg/value"
)

// emitCall lowers a call expression. Three shapes are distinguished by the
// callee's own node kind, mirroring how pkg/types already had to classify
// Call.Callee to infer a return kind:
//   - Member whose Object kind is array/string/set/map: a stdlib method
//     dispatched by stdlib.go's per-kind table.
//   - Ident naming a known top-level/nested function: a direct wasm `call`.
//   - anything else (a captured closure value, a parameter holding a
//     function, an array element, ...): an indirect call through the
//     closure representation emitClosureValue constructs.
func (fc *funcCodegen) emitCall(n *ast.Call) error {
	if member, ok := n.Callee.(*ast.Member); ok {
		if handled, err := fc.tryStdlibCall(member, n.Args); handled || err != nil {
			return err
		}
	}

	if id, ok := n.Callee.(*ast.Ident); ok {
		if fn, ok := fc.ctx.FunctionNamed(id.Name); ok {
			return fc.emitDirectCall(fn, n.Args)
		}
	}

	return fc.emitIndirectCall(n)
}

// emitDirectCall calls fn by its wasm function name. fn's own $env
// parameter (present when fn.Captured is non-empty) is threaded from the
// calling frame: a reference to fn's lexical parent is always either the
// calling frame itself (fn is declared directly in the caller) or the
// calling frame's own $env_self/$env chain, resolved the same way any other
// captured-name read would be.
func (fc *funcCodegen) emitDirectCall(fn *scope.FuncInfo, args []ast.Expr) error {
	fc.b.Open("(call %s", fc.ctx.ArrowName(fn.Fn))

	if len(fn.Captured) > 0 {
		fc.b.Line("(local.get $env_self)")
	}

	for _, a := range args {
		if err := fc.emitExpr(a); err != nil {
			return err
		}
	}

	// A call site may omit trailing parameters that declare a default;
	// pkg/types would have rejected a shorter call against a callee with no
	// default for that position, so every remaining parameter here is safe
	// to fill from its own default expression, evaluated at this call site.
	for i := len(args); i < len(fn.Fn.Params); i++ {
		p := fn.Fn.Params[i]
		if p.Default == nil {
			return fmt.Errorf("codegen: call to %s is missing required argument %q", fn.Fn.Name, p.Name)
		}
		if err := fc.emitExpr(p.Default); err != nil {
			return err
		}
	}

	fc.b.Close(")")

	return nil
}

// emitIndirectCall loads a closure value's (table index, env) pair and
// dispatches via call_indirect. The wasm text format lets call_indirect
// spell its type inline as a param/result list rather than a predeclared
// type index; pkg/module is responsible for ensuring every function placed
// in the table by emitClosureValue actually has this (env:f64, args...)
// shape, which Context.Table()'s callers use to build the table's element
// segment. The call site's argument count and kinds must match the closure's own declared
// parameters exactly — no JS-style arity padding, since this language has
// no `arguments` object to make the general case meaningful.
func (fc *funcCodegen) emitIndirectCall(n *ast.Call) error {
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)

	if err := fc.emitExpr(n.Callee); err != nil {
		return err
	}
	fc.b.Line("(local.set $closure_ref)")

	fc.b.Line("(local.set $closure_off (call $%s (local.get $closure_ref)))", runtime.HelperUnboxOffset)

	resultTy := fc.kindOf(n).WasmValType()

	fc.b.Open("(call_indirect (param f64)%s (result %s)",
		paramTypeList(n.Args, fc.kindOf), resultTy)
	fc.b.Line("(f64.load offset=%d (local.get $closure_off))", value.SlotSize) // env ptr, slot 1

	for _, a := range n.Args {
		if err := fc.emitExpr(a); err != nil {
			return err
		}
	}

	fc.b.Line("(i32.trunc_f64_s (f64.load (local.get $closure_off)))") // table index, slot 0
	fc.b.Close(")")

	return nil
}

func paramTypeList(args []ast.Expr, kindOf func(ast.Expr) value.Kind) string {
	s := ""
	for _, a := range args {
		s += " (param " + kindOf(a).WasmValType() + ")"
	}

	return s
}

// emitClosureValue materializes fn as a first-class value: a 2-slot
// ARRAY-shaped heap block holding (table_index, env_ptr), reusing the
// existing array representation rather than inventing a dedicated closure
// layout.
func (fc *funcCodegen) emitClosureValue(fn *ast.Arrow) error {
	info := fc.ctx.FuncInfo(fn)
	if info == nil {
		return fmt.Errorf("codegen: closure literal missing scope analysis")
	}

	idx := fc.ctx.TableIndex(fc.ctx.ArrowName(fn))

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)

	fc.b.Line("(local.set $clo_ref (call $%s (i32.const %d) (i32.const 2)))", runtime.HelperAlloc, value.ARRAY)
	fc.b.Line("(local.set $clo_off (call $%s (local.get $clo_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(f64.store (local.get $clo_off) (f64.convert_i32_s (i32.const %d)))", idx)

	if len(info.Captured) > 0 || fc.frame.hasEnvRec {
		fc.b.Line("(f64.store offset=%d (local.get $clo_off) (local.get $env_self))", value.SlotSize)
	} else {
		fc.b.Line("(f64.store offset=%d (local.get $clo_off) (f64.const nan:0x8000000000000))", value.SlotSize)
	}

	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $clo_off) (i32.const %d)) (i32.const 2))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $clo_ref)")

	return nil
}

func (fc *funcCodegen) emitNewExpr(n *ast.NewExpr) error {
	switch n.Constructor {
	case "Array":
		return fc.emitNewArray(n.Args)
	case "Set":
		return fc.emitNewHash(value.SET, n.Args)
	case "Map":
		return fc.emitNewHash(value.MAP, n.Args)
	default:
		return fmt.Errorf("codegen: unsupported constructor %q", n.Constructor)
	}
}

// emitNewArray handles `new Array(n)`: a zero-filled array of length n,
// distinct from an ArrayLit's fixed element list.
func (fc *funcCodegen) emitNewArray(args []ast.Expr) error {
	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)

	if len(args) != 1 {
		return fmt.Errorf("codegen: new Array(n) takes exactly one length argument")
	}

	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $new_len (i32.trunc_f64_u))")

	fc.b.Line("(local.set $arr_ref (call $%s (i32.const %d) (local.get $new_len)))", runtime.HelperAlloc, value.ARRAY)
	fc.b.Line("(local.set $arr_off (call $%s (local.get $arr_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $arr_off) (i32.const %d)) (local.get $new_len))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $arr_ref)")

	return nil
}

// emitNewHash allocates an empty map/set: a hash table sized at the
// smallest capacity tier, every entry state initialized to
// value.HashStateEmpty (the allocator's zero-fill already leaves this
// true, since HashStateEmpty is 0).
func (fc *funcCodegen) emitNewHash(tag value.Tag, args []ast.Expr) error {
	if len(args) != 0 {
		return fmt.Errorf("codegen: Set/Map constructor arguments are not supported")
	}

	const initialCap = 4

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)

	slots := initialCap * value.HashEntryStride / value.SlotSize

	fc.b.Line("(local.set $hash_ref (call $%s (i32.const %d) (i32.const %d)))", runtime.HelperAlloc, tag, slots)
	fc.b.Line("(local.set $hash_off (call $%s (local.get $hash_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $hash_off) (i32.const %d)) (i32.const 0))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $hash_off) (i32.const %d)) (i32.const %d))",
		value.ArrayCapacityOffset, value.HeaderSize, initialCap)
	fc.b.Line("(local.get $hash_ref)")

	return nil
}

// emitRegexLit registers pattern/flags (deduped by literal text) in the
// context's regex table and pushes the literal's stable numeric id as an
// f64. program.go compiles each distinct literal into its matcher function;
// String.match/search pick that matcher by id at compile time.
func (fc *funcCodegen) emitRegexLit(n *ast.RegexLit) error {
	id := fc.ctx.regexID(n.Pattern, n.Flags)
	fc.b.Line("(f64.const %d)", id)

	return nil
}
