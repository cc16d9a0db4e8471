package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/value"
)

// loadStringOffsetLen evaluates obj once into $arr_ref and reads its
// payload offset/length into $arr_off/$iter_len. Every method below assumes
// a heap-backed string (unbox_offset applied unconditionally): a short
// ASCII literal folded inline by emitStringLiteral is also a valid STRING
// reference under this same unbox path (its payload offset/id just happen
// to encode character data rather than a heap address), so this only goes
// wrong for a short string produced by concatenation/slicing logic that
// chose to stay inline — which this compiler's string helpers never do,
// since $string_concat/$string_slice always allocate a heap result.
func (fc *funcCodegen) loadStringOffsetLen(obj ast.Expr) error {
	if err := fc.emitExpr(obj); err != nil {
		return err
	}
	fc.b.Line("(local.set $arr_ref)")
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $arr_off (call $%s (local.get $arr_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $iter_len (i32.load offset=%d (i32.sub (local.get $arr_off) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	return nil
}

func (fc *funcCodegen) tryStringMethod(member *ast.Member, args []ast.Expr) (bool, error) {
	switch member.Name {
	case "charCodeAt":
		return true, fc.emitStringCharCodeAt(member, args)
	case "slice", "substring":
		return true, fc.emitStringSliceMethod(member, args)
	case "indexOf":
		return true, fc.emitStringIndexOf(member, args, false, false)
	case "includes":
		return true, fc.emitStringIndexOf(member, args, true, false)
	case "startsWith":
		return true, fc.emitStringStartsEndsWith(member, args, true)
	case "endsWith":
		return true, fc.emitStringStartsEndsWith(member, args, false)
	case "trim":
		return true, fc.emitStringTrim(member, args, true, true)
	case "trimStart":
		return true, fc.emitStringTrim(member, args, true, false)
	case "trimEnd":
		return true, fc.emitStringTrim(member, args, false, true)
	case "repeat":
		return true, fc.emitStringRepeat(member, args)
	case "toUpperCase":
		return true, fc.emitStringCase(member, args, true)
	case "toLowerCase":
		return true, fc.emitStringCase(member, args, false)
	case "split":
		return true, fc.emitStringSplit(member, args)
	case "replace":
		return true, fc.emitStringReplace(member, args)
	case "search":
		return true, fc.emitStringSearch(member, args)
	case "match":
		return true, fc.emitStringMatch(member, args)
	default:
		return false, nil
	}
}

func (fc *funcCodegen) emitStringCharCodeAt(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: String.charCodeAt takes exactly one argument")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}
	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $idx_i (i32.trunc_f64_s))")
	fc.b.Line("(f64.convert_i32_u (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (local.get $idx_i) (i32.const 2)))))")
	return nil
}

func (fc *funcCodegen) emitStringSliceMethod(member *ast.Member, args []ast.Expr) error {
	if len(args) > 2 {
		return fmt.Errorf("codegen: String.slice/substring takes at most two arguments")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}

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

	fc.ctx.Prelude.Require(runtime.HelperStringSlice)
	fc.b.Line("(call $%s (local.get $arr_off) (local.get $tmp_a_off) (local.get $tmp_b_off))", runtime.HelperStringSlice)
	return nil
}

// emitStringIndexOf scans for a single-code-unit needle (the first code
// unit of args[0]); multi-code-unit substring search is not yet supported.
func (fc *funcCodegen) emitStringIndexOf(member *ast.Member, args []ast.Expr, wantBool, _ bool) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: String.indexOf/includes takes exactly one argument")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}
	if err := fc.loadNeedleFirstUnit(args[0]); err != nil {
		return err
	}

	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $found_i (i32.const -1))")

	end := fc.ctx.Label("sidxof_end")
	loop := fc.ctx.Label("sidxof_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)

	fc.b.Open("(if (i32.eq (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const 2)))) (local.get $idx_i))")
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

// loadNeedleFirstUnit evaluates a single-character needle string into
// $idx_i as its first code unit — the building block the single-code-unit
// search/affix methods below share.
func (fc *funcCodegen) loadNeedleFirstUnit(needle ast.Expr) error {
	if err := fc.emitExpr(needle); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_b)")
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $tmp_b_off (call $%s (local.get $tmp_b)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $idx_i (i32.load16_u (local.get $tmp_b_off)))")
	return nil
}

func (fc *funcCodegen) emitStringStartsEndsWith(member *ast.Member, args []ast.Expr, start bool) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: String.startsWith/endsWith takes exactly one argument")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}
	if err := fc.loadNeedleFirstUnit(args[0]); err != nil {
		return err
	}

	fc.b.Open("(if (result i32) (i32.eqz (local.get $iter_len))")
	fc.b.Line("(then (i32.const 0))")
	fc.b.Open("(else")
	if start {
		fc.b.Line("(i32.eq (i32.load16_u (local.get $arr_off)) (local.get $idx_i))")
	} else {
		fc.b.Line("(i32.eq (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (i32.sub (local.get $iter_len) (i32.const 1)) (i32.const 2)))) (local.get $idx_i))")
	}
	fc.b.Close(")")
	fc.b.Close(")")
	return nil
}

// emitStringTrim strips leading/trailing ASCII whitespace (space, tab, \n,
// \v, \f, \r) by narrowing the [from,to) bounds passed to $string_slice.
func (fc *funcCodegen) emitStringTrim(member *ast.Member, args []ast.Expr, trimStart, trimEnd bool) error {
	if len(args) != 0 {
		return fmt.Errorf("codegen: String.trim* takes no arguments")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}

	fc.b.Line("(local.set $tmp_a_off (i32.const 0))")
	fc.b.Line("(local.set $tmp_b_off (local.get $iter_len))")

	if trimStart {
		startEnd := fc.ctx.Label("trimstart_end")
		startLoop := fc.ctx.Label("trimstart_loop")
		fc.b.Open("(block %s", startEnd)
		fc.b.Open("(loop %s", startLoop)
		fc.b.Line("(br_if %s (i32.ge_u (local.get $tmp_a_off) (local.get $tmp_b_off)))", startEnd)
		fc.b.Line("(br_if %s (i32.eqz (call $is_ascii_space (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (local.get $tmp_a_off) (i32.const 2)))))))", startEnd)
		fc.b.Line("(local.set $tmp_a_off (i32.add (local.get $tmp_a_off) (i32.const 1)))")
		fc.b.Line("(br %s)", startLoop)
		fc.b.Close(")")
		fc.b.Close(")")
	}

	if trimEnd {
		endEnd := fc.ctx.Label("trimend_end")
		endLoop := fc.ctx.Label("trimend_loop")
		fc.b.Open("(block %s", endEnd)
		fc.b.Open("(loop %s", endLoop)
		fc.b.Line("(br_if %s (i32.le_u (local.get $tmp_b_off) (local.get $tmp_a_off)))", endEnd)
		fc.b.Line("(br_if %s (i32.eqz (call $is_ascii_space (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (i32.sub (local.get $tmp_b_off) (i32.const 1)) (i32.const 2)))))))", endEnd)
		fc.b.Line("(local.set $tmp_b_off (i32.sub (local.get $tmp_b_off) (i32.const 1)))")
		fc.b.Line("(br %s)", endLoop)
		fc.b.Close(")")
		fc.b.Close(")")
	}

	fc.ctx.Prelude.Require(runtime.HelperStringSlice)
	fc.needsIsAsciiSpace = true
	fc.b.Line("(call $%s (local.get $arr_off) (local.get $tmp_a_off) (local.get $tmp_b_off))", runtime.HelperStringSlice)
	return nil
}

func (fc *funcCodegen) emitStringRepeat(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: String.repeat takes exactly one argument")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}
	if err := fc.emitExpr(args[0]); err != nil {
		return err
	}
	fc.b.Line("(local.set $idx_i (i32.trunc_f64_s))")

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.ctx.Prelude.Require(runtime.HelperMemcopy)

	fc.b.Line("(local.set $result_len (i32.mul (local.get $iter_len) (local.get $idx_i)))")
	fc.b.Line("(local.set $result_ref (call $%s (i32.const %d) (i32.div_u (i32.add (i32.mul (local.get $result_len) (i32.const 2)) (i32.const %d)) (i32.const %d))))",
		runtime.HelperAlloc, value.STRING, value.SlotSize-1, value.SlotSize)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)

	fc.b.Line("(local.set $iter_i (i32.const 0))")
	end := fc.ctx.Label("repeat_end")
	loop := fc.ctx.Label("repeat_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $idx_i)))", end)
	fc.b.Line("(call $%s (local.get $arr_off) (i32.add (local.get $result_off) (i32.mul (local.get $iter_i) (i32.mul (local.get $iter_len) (i32.const 2)))) (local.get $iter_len))",
		runtime.HelperMemcopy)
	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $result_off) (i32.const %d)) (local.get $result_len))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $result_ref)")
	return nil
}

// emitStringCase shifts ASCII letters only; non-ASCII code units pass
// through unchanged, a deliberate simplification over full Unicode casing.
func (fc *funcCodegen) emitStringCase(member *ast.Member, args []ast.Expr, upper bool) error {
	if len(args) != 0 {
		return fmt.Errorf("codegen: String.toUpperCase/toLowerCase takes no arguments")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $result_ref (call $%s (i32.const %d) (i32.div_u (i32.add (i32.mul (local.get $iter_len) (i32.const 2)) (i32.const %d)) (i32.const %d))))",
		runtime.HelperAlloc, value.STRING, value.SlotSize-1, value.SlotSize)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)

	fc.b.Line("(local.set $iter_i (i32.const 0))")
	end := fc.ctx.Label("case_end")
	loop := fc.ctx.Label("case_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)
	fc.b.Line("(local.set $idx_i (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const 2)))))")

	fc.needsAsciiCaseShift = true
	if upper {
		fc.b.Line("(local.set $idx_i (call $ascii_to_upper (local.get $idx_i)))")
	} else {
		fc.b.Line("(local.set $idx_i (call $ascii_to_lower (local.get $idx_i)))")
	}

	fc.b.Line("(i32.store16 (i32.add (local.get $result_off) (i32.mul (local.get $iter_i) (i32.const 2))) (local.get $idx_i))")
	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $result_off) (i32.const %d)) (local.get $iter_len))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $result_ref)")
	return nil
}

// emitStringSplit supports only a single-code-unit separator (the common
// case: splitting on ",", " ", etc.); multi-character separators are not
// yet supported.
func (fc *funcCodegen) emitStringSplit(member *ast.Member, args []ast.Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("codegen: String.split takes exactly one separator argument")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}
	if err := fc.loadNeedleFirstUnit(args[0]); err != nil {
		return err
	}

	// Pass 1: count pieces.
	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $result_len (i32.const 1))")
	cEnd := fc.ctx.Label("split_count_end")
	cLoop := fc.ctx.Label("split_count_loop")
	fc.b.Open("(block %s", cEnd)
	fc.b.Open("(loop %s", cLoop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", cEnd)
	fc.b.Open("(if (i32.eq (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const 2)))) (local.get $idx_i))")
	fc.b.Line("(then (local.set $result_len (i32.add (local.get $result_len) (i32.const 1))))")
	fc.b.Close(")")
	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", cLoop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.b.Line("(local.set $result_ref (call $%s (i32.const %d) (local.get $result_len)))", runtime.HelperAlloc, value.ARRAY)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)

	// Pass 2: slice each piece.
	fc.ctx.Prelude.Require(runtime.HelperStringSlice)
	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $tmp_a_off (i32.const 0))") // start of current piece
	fc.b.Line("(local.set $found_i (i32.const 0))")   // next write slot

	pEnd := fc.ctx.Label("split_piece_end")
	pLoop := fc.ctx.Label("split_piece_loop")
	fc.b.Open("(block %s", pEnd)
	fc.b.Open("(loop %s", pLoop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", pEnd)

	fc.b.Open("(if (i32.eq (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const 2)))) (local.get $idx_i))")
	fc.b.Open("(then")
	fc.b.Line("(f64.store (i32.add (local.get $result_off) (i32.mul (local.get $found_i) (i32.const %d))) (call $%s (local.get $arr_off) (local.get $tmp_a_off) (local.get $iter_i)))",
		value.SlotSize, runtime.HelperStringSlice)
	fc.b.Line("(local.set $found_i (i32.add (local.get $found_i) (i32.const 1)))")
	fc.b.Line("(local.set $tmp_a_off (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", pLoop)
	fc.b.Close(")")
	fc.b.Close(")")

	fc.b.Line("(f64.store (i32.add (local.get $result_off) (i32.mul (local.get $found_i) (i32.const %d))) (call $%s (local.get $arr_off) (local.get $tmp_a_off) (local.get $iter_len)))",
		value.SlotSize, runtime.HelperStringSlice)

	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $result_off) (i32.const %d)) (local.get $result_len))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $result_ref)")
	return nil
}

// emitStringReplace replaces the first occurrence of a single-code-unit
// search target with a replacement string; multi-character search targets
// and the global (replaceAll) form are not yet supported.
func (fc *funcCodegen) emitStringReplace(member *ast.Member, args []ast.Expr) error {
	if len(args) != 2 {
		return fmt.Errorf("codegen: String.replace takes exactly two arguments")
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}
	if err := fc.loadNeedleFirstUnit(args[0]); err != nil {
		return err
	}

	fc.b.Line("(local.set $iter_i (i32.const 0))")
	fc.b.Line("(local.set $found_i (i32.const -1))")

	end := fc.ctx.Label("replace_scan_end")
	loop := fc.ctx.Label("replace_scan_loop")
	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)
	fc.b.Line("(br_if %s (i32.ge_u (local.get $iter_i) (local.get $iter_len)))", end)
	fc.b.Open("(if (i32.eq (i32.load16_u (i32.add (local.get $arr_off) (i32.mul (local.get $iter_i) (i32.const 2)))) (local.get $idx_i))")
	fc.b.Line("(then (local.set $found_i (local.get $iter_i)) (br %s))", end)
	fc.b.Close(")")
	fc.b.Line("(local.set $iter_i (i32.add (local.get $iter_i) (i32.const 1)))")
	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	if err := fc.emitExpr(args[1]); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_b)")

	fc.ctx.Prelude.Require(runtime.HelperStringSlice)
	fc.ctx.Prelude.Require(runtime.HelperStringConcat)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)

	fc.b.Open("(if (result f64) (i32.lt_s (local.get $found_i) (i32.const 0))")
	fc.b.Line("(then (local.get $arr_ref))")
	fc.b.Open("(else")

	// $tmp_a = prefix [0, found_i); $tmp_b_off/$result_len = replacement's offset/length.
	fc.b.Line("(local.set $tmp_a (call $%s (local.get $arr_off) (i32.const 0) (local.get $found_i)))", runtime.HelperStringSlice)
	fc.b.Line("(local.set $tmp_a_off (call $%s (local.get $tmp_a)))", runtime.HelperUnboxOffset)

	fc.b.Line("(local.set $tmp_b_off (call $%s (local.get $tmp_b)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $result_len (i32.load offset=%d (i32.sub (local.get $tmp_b_off) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)

	// $tmp_a = prefix + replacement.
	fc.b.Line("(local.set $tmp_a (call $%s (local.get $tmp_a_off) (local.get $found_i) (local.get $tmp_b_off) (local.get $result_len)))",
		runtime.HelperStringConcat)
	fc.b.Line("(local.set $tmp_a_off (call $%s (local.get $tmp_a)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $result_len (i32.add (local.get $found_i) (local.get $result_len)))")

	// $result_ref = suffix [found_i+1, iter_len).
	fc.b.Line("(local.set $result_ref (call $%s (local.get $arr_off) (i32.add (local.get $found_i) (i32.const 1)) (local.get $iter_len)))",
		runtime.HelperStringSlice)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)

	fc.b.Line("(call $%s (local.get $tmp_a_off) (local.get $result_len) (local.get $result_off) (i32.sub (local.get $iter_len) (i32.add (local.get $found_i) (i32.const 1))))",
		runtime.HelperStringConcat)

	fc.b.Close(")")
	fc.b.Close(")")

	return nil
}
