package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/value"
)

// loadHashRefOffset evaluates obj once into $hash_ref/$hash_off and reads
// its used-count/capacity header fields into $hash_used/$hash_cap, the
// state every set/map method below starts from.
func (fc *funcCodegen) loadHashRefOffset(obj ast.Expr) error {
	if err := fc.emitExpr(obj); err != nil {
		return err
	}
	fc.b.Line("(local.set $hash_ref)")
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $hash_off (call $%s (local.get $hash_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $hash_used (i32.load offset=%d (i32.sub (local.get $hash_off) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.set $hash_cap (i32.load offset=%d (i32.sub (local.get $hash_off) (i32.const %d))))",
		value.ArrayCapacityOffset, value.HeaderSize)
	return nil
}

// growHashIfNeeded grows the table and re-points $hash_ref/$hash_off/$hash_cap
// once used+1 would cross the load factor threshold, writing the new ref
// back to obj when obj is a plain variable (the same reallocation-may-move
// caveat push/unshift's writebackIfIdent documents).
func (fc *funcCodegen) growHashIfNeeded(obj ast.Expr, tag value.Tag) error {
	fc.b.Open("(if (i32.ge_u (i32.mul (i32.add (local.get $hash_used) (i32.const 1)) (i32.const %d)) (i32.mul (local.get $hash_cap) (i32.const %d)))",
		value.HashLoadFactorDen, value.HashLoadFactorNum)
	fc.b.Open("(then")
	fc.ctx.Prelude.Require(runtime.HelperHashGrow)
	fc.b.Line("(local.set $hash_ref (call $%s (i32.const %d) (local.get $hash_off) (local.get $hash_cap) (local.get $hash_used)))",
		runtime.HelperHashGrow, tag)
	fc.b.Line("(local.set $hash_off (call $%s (local.get $hash_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $hash_cap (i32.mul (local.get $hash_cap) (i32.const 2)))")
	fc.b.Close(")")
	fc.b.Close(")")

	return fc.writebackIfIdent(obj, "$hash_ref")
}

func (fc *funcCodegen) trySetMethod(member *ast.Member, args []ast.Expr) (bool, error) {
	switch member.Name {
	case "add":
		return true, fc.emitSetAdd(member, args)
	case "has":
		return true, fc.emitHashHas(member, args, value.SET)
	case "delete":
		return true, fc.emitHashDelete(member, args, value.SET)
	case "clear":
		return true, fc.emitHashClear(member, args)
	default:
		return false, nil
	}
}

func (fc *funcCodegen) tryMapMethod(member *ast.Member, args []ast.Expr) (bool, error) {
	switch member.Name {
	case "set":
		return true, fc.emitMapSet(member, args)
	case "get":
		return true, fc.emitMapGet(member, args)
	case "has":
		return true, fc.emitHashHas(member, args, value.MAP)
	case "delete":
		return true, fc.emitHashDelete(member, args, value.MAP)
	case "clear":
		return true, fc.emitHashClear(member, args)
	default:
		return false, nil
	}
}

func (fc *funcCodegen) emitSetAdd(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Set.add takes exactly one argument")
	}

	if err := fc.loadHashRefOffset(member.Object); err != nil {
		return err
	}
	if err := fc.growHashIfNeeded(member.Object, value.SET); err != nil {
		return err
	}

	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")

	fc.ctx.Prelude.Require(runtime.HelperHashFind)
	fc.b.Line("(local.set $found_i (call $%s (local.get $hash_off) (local.get $hash_cap) (local.get $tmp_a)))", runtime.HelperHashFind)

	fc.b.Open("(if (i32.ne (i32.load8_u offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d)))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateUsed)
	fc.b.Open("(then")
	fc.b.Line("(f64.store offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d))) (local.get $tmp_a))",
		value.HashEntryKeyOffset, value.HashEntryStride)
	fc.b.Line("(i32.store8 offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateUsed)
	fc.b.Line("(local.set $hash_used (i32.add (local.get $hash_used) (i32.const 1)))")
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $hash_off) (i32.const %d)) (local.get $hash_used))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(local.get $hash_ref)")
	return nil
}

func (fc *funcCodegen) emitMapSet(member *ast.Member, args []ast.Expr) error {
	if len(args) != 2 {
		return fmt.Errorf("codegen: Map.set takes exactly two arguments")
	}

	if err := fc.loadHashRefOffset(member.Object); err != nil {
		return err
	}
	if err := fc.growHashIfNeeded(member.Object, value.MAP); err != nil {
		return err
	}

	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")
	if err := fc.emitExpr(args[1]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_b)")

	fc.ctx.Prelude.Require(runtime.HelperHashFind)
	fc.b.Line("(local.set $found_i (call $%s (local.get $hash_off) (local.get $hash_cap) (local.get $tmp_a)))", runtime.HelperHashFind)

	fc.b.Open("(if (i32.ne (i32.load8_u offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d)))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateUsed)
	fc.b.Open("(then")
	fc.b.Line("(local.set $hash_used (i32.add (local.get $hash_used) (i32.const 1)))")
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $hash_off) (i32.const %d)) (local.get $hash_used))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(f64.store offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d))) (local.get $tmp_a))",
		value.HashEntryKeyOffset, value.HashEntryStride)
	fc.b.Line("(f64.store offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d))) (local.get $tmp_b))",
		value.HashEntryValueOffset, value.HashEntryStride)
	fc.b.Line("(i32.store8 offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateUsed)

	fc.b.Line("(local.get $hash_ref)")
	return nil
}

func (fc *funcCodegen) emitMapGet(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Map.get takes exactly one argument")
	}

	if err := fc.loadHashRefOffset(member.Object); err != nil {
		return err
	}
	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")

	fc.ctx.Prelude.Require(runtime.HelperHashFind)
	fc.b.Line("(local.set $found_i (call $%s (local.get $hash_off) (local.get $hash_cap) (local.get $tmp_a)))", runtime.HelperHashFind)

	fc.b.Open("(if (result f64) (i32.eq (i32.load8_u offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d)))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateUsed)
	fc.b.Line("(then (f64.load offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d)))))",
		value.HashEntryValueOffset, value.HashEntryStride)
	fc.b.Line("(else (f64.const nan:0x8000000000000))")
	fc.b.Close(")")
	return nil
}

func (fc *funcCodegen) emitHashHas(member *ast.Member, args []ast.Expr, _ value.Tag) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Set/Map.has takes exactly one argument")
	}

	if err := fc.loadHashRefOffset(member.Object); err != nil {
		return err
	}
	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")

	fc.ctx.Prelude.Require(runtime.HelperHashFind)
	fc.b.Line("(local.set $found_i (call $%s (local.get $hash_off) (local.get $hash_cap) (local.get $tmp_a)))", runtime.HelperHashFind)
	fc.b.Line("(i32.eq (i32.load8_u offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d)))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateUsed)
	return nil
}

func (fc *funcCodegen) emitHashDelete(member *ast.Member, args []ast.Expr, _ value.Tag) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: Set/Map.delete takes exactly one argument")
	}

	if err := fc.loadHashRefOffset(member.Object); err != nil {
		return err
	}
	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")

	fc.ctx.Prelude.Require(runtime.HelperHashFind)
	fc.b.Line("(local.set $found_i (call $%s (local.get $hash_off) (local.get $hash_cap) (local.get $tmp_a)))", runtime.HelperHashFind)

	fc.b.Open("(if (result i32) (i32.eq (i32.load8_u offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d)))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateUsed)
	fc.b.Open("(then")
	fc.b.Line("(i32.store8 offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $found_i) (i32.const %d))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateDeleted)
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $hash_off) (i32.const %d)) (i32.sub (local.get $hash_used) (i32.const 1)))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(i32.const 1)")
	fc.b.Close(")")
	fc.b.Line("(else (i32.const 0))")
	fc.b.Close(")")
	return nil
}

// emitHashClear resets every entry's state to Empty in place rather than
// reallocating, leaving capacity unchanged.
func (fc *funcCodegen) emitHashClear(member *ast.Member, args []ast.Expr) error {
	if len(args) != 0 {
		return fmt.Errorf("codegen: Set/Map.clear takes no arguments")
	}

	if err := fc.loadHashRefOffset(member.Object); err != nil {
		return err
	}

	fc.b.Line("(local.set $iter_i (i32.const 0))")
	end := fc.ctx.Label("hclear_end")
	loop := fc.ctx.Label("hclear_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $hash_cap)))", end)
	fc.b.Line("(i32.store8 offset=%d (i32.add (local.get $hash_off) (i32.mul (local.get $iter_i) (i32.const %d))) (i32.const %d))",
		value.HashEntryStateOffset, value.HashEntryStride, value.HashStateEmpty)
	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $hash_off) (i32.const %d)) (i32.const 0))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(f64.const nan:0x8000000000000)")
	return nil
}
