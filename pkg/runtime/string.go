package runtime

import "github.com/latticec/wasmc/pkg/value"

// String payloads are sequences of 16-bit code units (UTF-16-ish, per the
// heap layout in value's doc comment); short (<=6 ASCII units) strings never
// reach these helpers since pkg/codegen inlines value.EncodeShortString's
// bit-packing directly at the literal/result site.

// emitStringEq emits $string_eq(a:f64, b:f64) -> i32: bits-equal fast path
// (covers identical interned literals and identical short-string payloads),
// falling back to length+code-unit comparison for two distinct heap
// strings.
func emitStringEq(b *Builder) {
	b.Open("(func $%s (param $a f64) (param $b f64) (result i32)", HelperStringEq)
	b.Line("(local $bits_a i64)")
	b.Line("(local $bits_b i64)")
	b.Line("(local $off_a i32)")
	b.Line("(local $off_b i32)")
	b.Line("(local $len i32)")
	b.Line("(local $i i32)")

	b.Line("(local.set $bits_a (i64.reinterpret_f64 (local.get $a)))")
	b.Line("(local.set $bits_b (i64.reinterpret_f64 (local.get $b)))")

	b.Open("(if (result i32) (i64.eq (local.get $bits_a) (local.get $bits_b))")
	b.Line("(then (i32.const 1))")
	b.Open("(else")
	b.Line("(local.set $off_a (i32.wrap_i64 (i64.and (local.get $bits_a) (i64.const 0x%x))))", value.OffsetMask)
	b.Line("(local.set $off_b (i32.wrap_i64 (i64.and (local.get $bits_b) (i64.const 0x%x))))", value.OffsetMask)
	b.Line("(local.set $len (i32.load offset=%d (i32.sub (local.get $off_a) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)

	b.Open("(if (result i32) (i32.ne (local.get $len) (i32.load offset=%d (i32.sub (local.get $off_b) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(then (i32.const 0))")
	b.Open("(else")
	b.Open("(block $done (result i32)")
	b.Open("(loop $next")
	b.Line("(br_if $done (i32.ge_u (local.get $i) (local.get $len)))")
	b.Line("(br_if $done (i32.ne")
	b.Line("  (i32.load16_u (i32.add (local.get $off_a) (i32.mul (local.get $i) (i32.const 2))))")
	b.Line("  (i32.load16_u (i32.add (local.get $off_b) (i32.mul (local.get $i) (i32.const 2))))))")
	b.Line("(local.set $i (i32.add (local.get $i) (i32.const 1)))")
	b.Line("(br $next)")
	b.Close(")")
	b.Line("(i32.eq (local.get $i) (local.get $len))")
	b.Close(")")
	b.Close(")")
	b.Close(")")
	b.Close(")")
	b.Close(")")
	b.Close(")")
}

// emitStringConcat emits $string_concat(a_off:i32, a_len:i32, b_off:i32,
// b_len:i32) -> f64: a fresh heap string holding a's code units followed by
// b's.
func emitStringConcat(b *Builder) {
	b.Open("(func $%s (param $a_off i32) (param $a_len i32) (param $b_off i32) (param $b_len i32) (result f64)", HelperStringConcat)
	b.Line("(local $n i32)")
	b.Line("(local $words i32)")
	b.Line("(local $new_ref f64)")
	b.Line("(local $new_offset i32)")

	b.Line("(local.set $n (i32.add (local.get $a_len) (local.get $b_len)))")
	b.Line("(local.set $words (i32.div_u (i32.add (i32.mul (local.get $n) (i32.const 2)) (i32.const %d)) (i32.const %d)))", value.SlotSize-1, value.SlotSize)
	b.Line("(local.set $new_ref (call $%s (i32.const %d) (local.get $words)))", HelperAlloc, value.STRING)
	b.Line("(local.set $new_offset (call $%s (local.get $new_ref)))", HelperUnboxOffset)

	b.Line("(memory.copy (local.get $new_offset) (local.get $a_off) (i32.mul (local.get $a_len) (i32.const 2)))")
	b.Line("(memory.copy (i32.add (local.get $new_offset) (i32.mul (local.get $a_len) (i32.const 2))) (local.get $b_off) (i32.mul (local.get $b_len) (i32.const 2)))")
	b.Line("(i32.store offset=%d (i32.sub (local.get $new_offset) (i32.const %d)) (local.get $n))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $new_ref)")
	b.Close(")")
}

// emitStringSlice emits $string_slice(off:i32, from:i32, to:i32) -> f64: a
// fresh heap string copying code units [from,to). pkg/codegen checks the
// result length against value.MaxShortStringUnits at the call site and
// emits a short-string pack instead when it fits, so this helper always
// produces a heap string.
func emitStringSlice(b *Builder) {
	b.Open("(func $%s (param $off i32) (param $from i32) (param $to i32) (result f64)", HelperStringSlice)
	b.Line("(local $n i32)")
	b.Line("(local $words i32)")
	b.Line("(local $new_ref f64)")
	b.Line("(local $new_offset i32)")

	b.Line("(local.set $n (i32.sub (local.get $to) (local.get $from)))")
	b.Line("(local.set $words (i32.div_u (i32.add (i32.mul (local.get $n) (i32.const 2)) (i32.const %d)) (i32.const %d)))", value.SlotSize-1, value.SlotSize)
	b.Line("(local.set $new_ref (call $%s (i32.const %d) (local.get $words)))", HelperAlloc, value.STRING)
	b.Line("(local.set $new_offset (call $%s (local.get $new_ref)))", HelperUnboxOffset)

	b.Line("(memory.copy (local.get $new_offset) (i32.add (local.get $off) (i32.mul (local.get $from) (i32.const 2))) (i32.mul (local.get $n) (i32.const 2)))")
	b.Line("(i32.store offset=%d (i32.sub (local.get $new_offset) (i32.const %d)) (local.get $n))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $new_ref)")
	b.Close(")")
}

func init() {
	deps[HelperStringConcat] = append(deps[HelperStringConcat], HelperUnboxOffset)
	deps[HelperStringSlice] = append(deps[HelperStringSlice], HelperUnboxOffset)
}
