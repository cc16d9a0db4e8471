package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/value"
)

// tryStdlibCall lowers member(args) when member.Object resolves to a
// built-in array, string, set, or map method, reporting handled=false so
// emitCall can fall through to a direct/indirect function call for any
// other member expression (a function value stored as an object property).
func (fc *funcCodegen) tryStdlibCall(member *ast.Member, args []ast.Expr) (bool, error) {
	switch fc.kindOf(member.Object) {
	case value.KindArray:
		return fc.tryArrayMethod(member, args)
	case value.KindString:
		return fc.tryStringMethod(member, args)
	}

	if tag, ok := fc.ctx.collTag(member.Object); ok {
		switch tag {
		case value.SET:
			return fc.trySetMethod(member, args)
		case value.MAP:
			return fc.tryMapMethod(member, args)
		}
	}

	return false, nil
}

// loadArrayRefOffset evaluates obj (an array-kinded expression) once into
// $arr_ref/$arr_off, the receiver every array method below reads from.
func (fc *funcCodegen) loadArrayRefOffset(obj ast.Expr) error {
	if err := fc.emitExpr(obj); err != nil {
		return err
	}
	fc.b.Line("(local.set $arr_ref)")
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $arr_off (call $%s (local.get $arr_ref)))", runtime.HelperUnboxOffset)
	return nil
}

func (fc *funcCodegen) loadArrayLen() {
	fc.b.Line("(local.set $iter_len (i32.load offset=%d (i32.sub (local.get $arr_off) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
}

// writebackIfIdent re-stores refLocal into obj when obj is a plain variable,
// since push/unshift may reallocate the backing block: a call through any
// other expression shape (an array literal element, a property) leaves the
// original binding stale, a documented limitation of not threading an
// lvalue through these call sites generally.
func (fc *funcCodegen) writebackIfIdent(obj ast.Expr, refLocal string) error {
	id, ok := obj.(*ast.Ident)
	if !ok {
		return nil
	}

	fc.b.Line("(local.get %s)", refLocal)
	return fc.storeName(id.Name)
}

func (fc *funcCodegen) pushArrayLengthResult() {
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $arr_off (call $%s (local.get $arr_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(f64.convert_i32_s (i32.load offset=%d (i32.sub (local.get $arr_off) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
}

func (fc *funcCodegen) tryArrayMethod(member *ast.Member, args []ast.Expr) (bool, error) {
	switch member.Name {
	case "push":
		return true, fc.emitArrayPush(member, args)
	case "pop":
		return true, fc.emitArrayPop(member, args)
	case "shift":
		return true, fc.emitArrayShift(member, args)
	case "unshift":
		return true, fc.emitArrayUnshift(member, args)
	case "slice":
		return true, fc.emitArraySlice(member, args)
	case "concat":
		return true, fc.emitArrayConcat(member, args)
	case "indexOf":
		return true, fc.emitArrayIndexOf(member, args, false)
	case "includes":
		return true, fc.emitArrayIndexOf(member, args, true)
	case "reverse":
		return true, fc.emitArrayReverse(member, args)
	case "forEach":
		return true, fc.emitArrayForEach(member, args)
	case "map":
		return true, fc.emitArrayMap(member, args)
	case "filter":
		return true, fc.emitArrayFilter(member, args)
	case "find":
		return true, fc.emitArrayFind(member, args, false)
	case "findIndex":
		return true, fc.emitArrayFind(member, args, true)
	case "some":
		return true, fc.emitArrayAnyAll(member, args, false)
	case "every":
		return true, fc.emitArrayAnyAll(member, args, true)
	case "reduce":
		return true, fc.emitArrayReduce(member, args)
	case "flat":
		return true, fc.emitArrayFlat(member, args)
	default:
		return false, nil
	}
}

func (fc *funcCodegen) emitArrayPush(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.push takes exactly one argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")

	fc.ctx.Prelude.Require(runtime.HelperArrayPush)
	fc.b.Line("(local.set $arr_ref (call $%s (local.get $arr_ref) (local.get $arr_off) (i32.const 0) (local.get $tmp_a)))",
		runtime.HelperArrayPush)

	if err := fc.writebackIfIdent(member.Object, "$arr_ref"); err != nil {
		return err
	}

	fc.pushArrayLengthResult()
	return nil
}

func (fc *funcCodegen) emitArrayPop(member *ast.Member, args []ast.Expr) error {
	if len(args) != 0 {
		return fmt.Errorf("codegen: Array.pop takes no arguments")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}

	fc.ctx.Prelude.Require(runtime.HelperArrayPop)
	fc.b.Line("(call $%s (local.get $arr_off))", runtime.HelperArrayPop)
	return nil
}

func (fc *funcCodegen) emitArrayShift(member *ast.Member, args []ast.Expr) error {
	if len(args) != 0 {
		return fmt.Errorf("codegen: Array.shift takes no arguments")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}

	fc.ctx.Prelude.Require(runtime.HelperArrayShift)
	fc.b.Line("(call $%s (local.get $arr_off))", runtime.HelperArrayShift)
	return nil
}

func (fc *funcCodegen) emitArrayUnshift(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.unshift takes exactly one argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")

	fc.ctx.Prelude.Require(runtime.HelperArrayUnshift)
	fc.b.Line("(local.set $arr_ref (call $%s (local.get $arr_ref) (local.get $arr_off) (i32.const 0) (local.get $tmp_a)))",
		runtime.HelperArrayUnshift)

	if err := fc.writebackIfIdent(member.Object, "$arr_ref"); err != nil {
		return err
	}

	fc.pushArrayLengthResult()
	return nil
}

// emitArraySlice supports the zero/one/two-argument forms with non-negative
// bounds; negative indices (counting from the end) are not yet supported.
func (fc *funcCodegen) emitArraySlice(member *ast.Member, args []ast.Expr) error {
	if len(args) > 2 {
		return fmt.Errorf("codegen: Array.slice takes at most two arguments")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()

	if len(args) > 0 {
		if err := fc.emitExpr(args[0]); err != nil {
			return err
		}
		fc.b.Line("(local.set $tmp_a_off (i32.trunc_f64_s))")
	} else {
		fc.b.Line("(local.set $tmp_a_off (i32.const 0))")
	}

	if len(args) > 1 {
		if err := fc.emitExpr(args[1]); err != nil {
			return err
		}
		fc.b.Line("(local.set $tmp_b_off (i32.trunc_f64_s))")
	} else {
		fc.b.Line("(local.set $tmp_b_off (local.get $iter_len))")
	}

	fc.ctx.Prelude.Require(runtime.HelperArraySlice)
	fc.b.Line("(call $%s (local.get $arr_off) (local.get $tmp_a_off) (local.get $tmp_b_off))", runtime.HelperArraySlice)
	return nil
}

// emitArrayConcat allocates a fresh array holding this array's elements
// followed by other's, for a single array-valued argument (the common
// case; concat's variadic/non-array-argument JS forms are not supported).
func (fc *funcCodegen) emitArrayConcat(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.concat takes exactly one array argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()
	fc.b.Line("(local.set $tmp_a_off (local.get $iter_len))") // a's length, stashed before b overwrites $iter_len

	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $result_ref)")
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $tmp_b_off (i32.load offset=%d (i32.sub (local.get $result_off) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.b.Line("(local.set $iter_ref (call $%s (i32.const %d) (i32.add (local.get $tmp_a_off) (local.get $tmp_b_off))))",
		runtime.HelperAlloc, value.ARRAY)
	fc.b.Line("(local.set $iter_off (call $%s (local.get $iter_ref)))", runtime.HelperUnboxOffset)

	fc.ctx.Prelude.Require(runtime.HelperMemcopy)
	fc.b.Line("(call $%s (local.get $arr_off) (local.get $iter_off) (local.get $tmp_a_off))", runtime.HelperMemcopy)
	fc.b.Line("(call $%s (local.get $result_off) (i32.add (local.get $iter_off) (i32.mul (local.get $tmp_a_off) (i32.const %d))) (local.get $tmp_b_off))",
		runtime.HelperMemcopy, value.SlotSize)

	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $iter_off) (i32.const %d)) (i32.add (local.get $tmp_a_off) (local.get $tmp_b_off)))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $iter_ref)")
	return nil
}

// emitArrayIndexOf (and includes, sharing this body) compares elements by
// raw bit pattern: exact for numbers and booleans, reference identity for
// heap values. Two distinct heap strings with identical contents compare
// unequal here, a documented limitation of not carrying a per-element kind
// through generic array methods.
func (fc *funcCodegen) emitArrayIndexOf(member *ast.Member, args []ast.Expr, wantBool bool) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.indexOf/includes takes exactly one argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()

	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")

	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $found_i (i32.const -1))")

	end := fc.ctx.Label("idxof_end")
	loop := fc.ctx.Label("idxof_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)

	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)
	fc.b.Open("(if (i64.eq (i64.reinterpret_f64 (local.get $iter_elem)) (i64.reinterpret_f64 (local.get $tmp_a)))")
	fc.b.Line("(then (local.set $found_i (local.get $iter_i)) (br %s))", end)
	fc.b.Close(")")

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	if wantBool {
		fc.b.Line("(i32.ge_s (local.get $found_i) (i32.const 0))")
	} else {
		fc.b.Line("(f64.convert_i32_s (local.get $found_i))")
	}
	return nil
}

func (fc *funcCodegen) emitArrayReverse(member *ast.Member, args []ast.Expr) error {
	if len(args) != 0 {
		return fmt.Errorf("codegen: Array.reverse takes no arguments")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()

	fc.b.Line("(local.set $iter_i (i32.const 0))")

	end := fc.ctx.Label("reverse_end")
	loop := fc.ctx.Label("reverse_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (i32.mul (local.get $iter_i) (i32.const 2)) (local.get $iter_len)))", end)

	fc.b.Line("(local.set $tmp_a (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)
	fc.b.Line("(local.set $found_i (i32.sub (i32.sub (local.get $iter_len) (i32.const 1)) (local.get $iter_i)))")
	fc.b.Line("(local.set $tmp_b (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $found_i) (i32.const %d)))))", value.SlotSize)
	fc.b.Line("(f64.store (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d))) (local.get $tmp_b))", value.SlotSize)
	fc.b.Line("(f64.store (i32.add (local.get $arr_off) (i32.mul (local.get $found_i) (i32.const %d))) (local.get $tmp_a))", value.SlotSize)

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(local.get $arr_ref)")
	return nil
}

// loadCallback evaluates a closure-valued expression once into $cb_ref/
// $cb_off, the table index and env pointer every emitCallbackIndirect call
// below reads from.
func (fc *funcCodegen) loadCallback(cb ast.Expr) error {
	if err := fc.emitExpr(cb); err != nil {
		return err
	}
	fc.b.Line("(local.set $cb_ref)")
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $cb_off (call $%s (local.get $cb_ref)))", runtime.HelperUnboxOffset)
	return nil
}

// emitCallbackIndirect calls the closure staged by loadCallback with
// (element:f64, index:f64) and leaves its f64 result on the stack; array
// callbacks in this language always take and return f64 values (element
// kind is not tracked per-array, the same simplification emitArrayIndexOf
// documents above).
func (fc *funcCodegen) emitCallbackIndirect() {
	fc.b.Open("(call_indirect (param f64) (param f64) (param f64) (result f64)")
	fc.b.Line("(f64.load offset=%d (local.get $cb_off))", value.SlotSize)
	fc.b.Line("(local.get $iter_elem)")
	fc.b.Line("(f64.convert_i32_s (local.get $iter_i))")
	fc.b.Line("(i32.trunc_f64_s (f64.load (local.get $cb_off)))")
	fc.b.Close(")")
}

func (fc *funcCodegen) emitArrayForEach(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.forEach takes exactly one callback argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()
	if err := fc.loadCallback(args[0]); err != nil {
		return err
	}

	fc.b.Line("(local.set $iter_i (i32.const 0))")

	end := fc.ctx.Label("foreach_end")
	loop := fc.ctx.Label("foreach_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)

	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)
	fc.emitCallbackIndirect()
	fc.b.Line("(drop)")

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(f64.const nan:0x8000000000000)")
	return nil
}

func (fc *funcCodegen) emitArrayMap(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.map takes exactly one callback argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()
	if err := fc.loadCallback(args[0]); err != nil {
		return err
	}

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.b.Line("(local.set $result_ref (call $%s (i32.const %d) (local.get $iter_len)))", runtime.HelperAlloc, value.ARRAY)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)

	fc.b.Line("(local.set $iter_i (i32.const 0))")

	end := fc.ctx.Label("map_end")
	loop := fc.ctx.Label("map_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)

	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)
	fc.emitCallbackIndirect()
	fc.b.Line("(f64.store (i32.add (local.get $result_off) (i32.mul (local.get $iter_i) (i32.const %d))))", value.SlotSize)

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $result_off) (i32.const %d)) (local.get $iter_len))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $result_ref)")
	return nil
}

// emitArrayFilter allocates its result at the source's own length (a safe
// upper bound on matches) and writes only kept elements contiguously,
// setting the result's final header length to the count actually kept —
// the same over-allocate-then-shrink-the-header trick emitNewArray's
// sibling helpers already rely on.
func (fc *funcCodegen) emitArrayFilter(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.filter takes exactly one callback argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()
	if err := fc.loadCallback(args[0]); err != nil {
		return err
	}

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.b.Line("(local.set $result_ref (call $%s (i32.const %d) (local.get $iter_len)))", runtime.HelperAlloc, value.ARRAY)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)

	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $result_len (i32.const 0))")

	end := fc.ctx.Label("filter_end")
	loop := fc.ctx.Label("filter_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)

	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)
	fc.emitCallbackIndirect()
	fc.b.Line("(local.set $acc)")

	fc.b.Open("(if (i32.ne (i64.reinterpret_f64 (local.get $acc)) (i64.const 0))")
	fc.b.Open("(then")
	fc.b.Line("(f64.store (i32.add (local.get $result_off) (i32.mul (local.get $result_len) (i32.const %d))) (local.get $iter_elem))", value.SlotSize)
	fc.b.Line("(local.set $result_len (i32.add (local.get $result_len) (i32.const 1)))")
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $result_off) (i32.const %d)) (local.get $result_len))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $result_ref)")
	return nil
}

func (fc *funcCodegen) emitArrayFind(member *ast.Member, args []ast.Expr, wantIndex bool) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.find/findIndex takes exactly one callback argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()
	if err := fc.loadCallback(args[0]); err != nil {
		return err
	}

	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $found_i (i32.const -1))")

	end := fc.ctx.Label("find_end")
	loop := fc.ctx.Label("find_loop")
	fc.b.Open("(block %s (result f64)", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (f64.const nan:0x8000000000000) (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)

	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)
	fc.emitCallbackIndirect()
	fc.b.Line("(local.set $acc)")

	fc.b.Open("(if (i32.ne (i64.reinterpret_f64 (local.get $acc)) (i64.const 0))")
	fc.b.Line("(then (local.set $found_i (local.get $iter_i)) (br %s (local.get $iter_elem)))", end)
	fc.b.Close(")")

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	if wantIndex {
		fc.b.Line("(drop)")
		fc.b.Line("(f64.convert_i32_s (local.get $found_i))")
	}
	return nil
}

func (fc *funcCodegen) emitArrayAnyAll(member *ast.Member, args []ast.Expr, wantEvery bool) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Array.some/every takes exactly one callback argument")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()
	if err := fc.loadCallback(args[0]); err != nil {
		return err
	}

	fc.b.Line("(local.set $iter_i (i32.const 0))")

	end := fc.ctx.Label("anyall_end")
	loop := fc.ctx.Label("anyall_loop")
	defaultResult := 0
	if wantEvery {
		defaultResult = 1
	}
	fc.b.Open("(block %s (result i32)", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.const %d) (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end, defaultResult)

	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)
	fc.emitCallbackIndirect()
	fc.b.Line("(local.set $acc)")

	if wantEvery {
		fc.b.Open("(if (i32.eq (i64.reinterpret_f64 (local.get $acc)) (i64.const 0))")
		fc.b.Line("(then (br %s (i32.const 0)))", end)
		fc.b.Close(")")
	} else {
		fc.b.Open("(if (i32.ne (i64.reinterpret_f64 (local.get $acc)) (i64.const 0))")
		fc.b.Line("(then (br %s (i32.const 1)))", end)
		fc.b.Close(")")
	}

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	return nil
}

// emitArrayReduce requires an explicit initial accumulator; the no-initial-
// value JS form (seed from the first element) is not supported.
func (fc *funcCodegen) emitArrayReduce(member *ast.Member, args []ast.Expr) error {
	if len(args) != 2 {
		return fmt.Errorf("codegen: Array.reduce requires a callback and an initial value")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()
	if err := fc.loadCallback(args[0]); err != nil {
		return err
	}

	if err := fc.emitExpr(args[1]); err != nil {
		return err
	}
	fc.b.Line("(local.set $acc)")

	fc.b.Line("(local.set $iter_i (i32.const 0))")

	end := fc.ctx.Label("reduce_end")
	loop := fc.ctx.Label("reduce_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)

	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)

	fc.b.Open("(call_indirect (param f64) (param f64) (param f64) (result f64)")
	fc.b.Line("(f64.load offset=%d (local.get $cb_off))", value.SlotSize)
	fc.b.Line("(local.get $acc)")
	fc.b.Line("(local.get $iter_elem)")
	fc.b.Line("(i32.trunc_f64_s (f64.load (local.get $cb_off)))")
	fc.b.Close(")")
	fc.b.Line("(local.set $acc)")

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(local.get $acc)")
	return nil
}

// emitArrayFlat supports only the default (depth 1) shallow flatten: each
// source element that is itself an array contributes its own elements;
// anything else is kept as-is. The result is sized exactly: the source is
// walked twice, once to sum the output length and once to copy.
func (fc *funcCodegen) emitArrayFlat(member *ast.Member, args []ast.Expr) error {
	if len(args) != 0 {
		return fmt.Errorf("codegen: Array.flat only supports the default depth-1 form")
	}

	if err := fc.loadArrayRefOffset(member.Object); err != nil {
		return err
	}
	fc.loadArrayLen()

	// An ARRAY-tagged pointer has exactly these bits above TagShift.
	arrayTop := (value.QNaNMask | uint64(value.ARRAY)<<value.TagShift) >> value.TagShift

	// Pass 1: total output length.
	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $result_len (i32.const 0))")

	sizeEnd := fc.ctx.Label("flat_size_end")
	sizeLoop := fc.ctx.Label("flat_size_loop")
	fc.b.Open("(block %s", sizeEnd)
	fc.b.Open("(loop %s", sizeLoop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", sizeEnd)
	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)

	fc.b.Open("(if (i64.eq (i64.shr_u (i64.reinterpret_f64 (local.get $iter_elem)) (i64.const %d)) (i64.const 0x%x))", value.TagShift, arrayTop)
	fc.b.Open("(then")
	fc.b.Line("(local.set $tmp_b_off (call $%s (local.get $iter_elem)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $result_len (i32.add (local.get $result_len) (i32.load offset=%d (i32.sub (local.get $tmp_b_off) (i32.const %d)))))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Close(")")
	fc.b.Open("(else")
	fc.b.Line("(local.set $result_len (i32.add (local.get $result_len) (i32.const 1)))")
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", sizeLoop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.b.Line("(local.set $result_ref (call $%s (i32.const %d) (local.get $result_len)))", runtime.HelperAlloc, value.ARRAY)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)

	// Pass 2: copy, flattening one level.
	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $found_i (i32.const 0))") // next write index into result

	copyEnd := fc.ctx.Label("flat_copy_end")
	copyLoop := fc.ctx.Label("flat_copy_loop")
	fc.b.Open("(block %s", copyEnd)
	fc.b.Open("(loop %s", copyLoop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", copyEnd)
	fc.b.Line("(local.set $iter_elem (f64.load (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const %d)))))", value.SlotSize)

	fc.b.Open("(if (i64.eq (i64.shr_u (i64.reinterpret_f64 (local.get $iter_elem)) (i64.const %d)) (i64.const 0x%x))", value.TagShift, arrayTop)
	fc.b.Open("(then")
	fc.b.Line("(local.set $tmp_b_off (call $%s (local.get $iter_elem)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $tmp_a_off (i32.load offset=%d (i32.sub (local.get $tmp_b_off) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(call $%s (local.get $tmp_b_off) (i32.add (local.get $result_off) (i32.mul (local.get $found_i) (i32.const %d))) (local.get $tmp_a_off))",
		runtime.HelperMemcopy, value.SlotSize)
	fc.b.Line("(local.set $found_i (i32.add (local.get $found_i) (local.get $tmp_a_off)))")
	fc.b.Close(")")
	fc.b.Open("(else")
	fc.b.Line("(f64.store (i32.add (local.get $result_off) (i32.mul (local.get $found_i) (i32.const %d))) (local.get $iter_elem))", value.SlotSize)
	fc.b.Line("(local.set $found_i (i32.add (local.get $found_i) (i32.const 1)))")
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", copyLoop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.ctx.Prelude.Require(runtime.HelperMemcopy)
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $result_off) (i32.const %d)) (local.get $result_len))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $result_ref)")
	return nil
}
