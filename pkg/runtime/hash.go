package runtime

import "github.com/latticec/wasmc/pkg/value"

// Map and set both lower to the same open-addressed table; pkg/codegen
// passes a hasValue flag distinguishing "store the paired value" (map)
// from "ignore it" (set) at call sites, but the probing/growth helpers
// here are shared.

// emitHashMix emits $hash_mix(bits:i64) -> i32: a 64-bit avalanche mix of a
// key's raw bit pattern (same function for numbers, pointers, and short
// strings, all of which already carry their whole identity in one i64),
// folded down to a 32-bit probe seed.
func emitHashMix(b *Builder) {
	b.Open("(func $%s (param $bits i64) (result i32)", HelperHashMix)
	b.Line("(local $h i64)")
	b.Line("(local.set $h (local.get $bits))")
	b.Line("(local.set $h (i64.xor (local.get $h) (i64.shr_u (local.get $h) (i64.const 33))))")
	b.Line("(local.set $h (i64.mul (local.get $h) (i64.const 0xff51afd7ed558ccd)))")
	b.Line("(local.set $h (i64.xor (local.get $h) (i64.shr_u (local.get $h) (i64.const 33))))")
	b.Line("(local.set $h (i64.mul (local.get $h) (i64.const 0xc4ceb9fe1a85ec53)))")
	b.Line("(local.set $h (i64.xor (local.get $h) (i64.shr_u (local.get $h) (i64.const 33))))")
	b.Line("(i32.wrap_i64 (local.get $h))")
	b.Close(")")
}

// emitHashFind emits $hash_find(offset:i32, cap:i32, key:f64) -> i32: the
// slot index holding key if present, or else the first tombstone probed (or,
// with none, the empty slot that ended the probe) for a subsequent insert to
// claim, found by linear probing from the key's mixed hash modulo cap; -1
// when the whole table was probed and neither exists. Bit equality decides
// a primitive or pointer key; when both keys are heap strings it falls back
// to $string_eq so two distinct heap strings with identical contents match.
func emitHashFind(b *Builder) {
	b.Open("(func $%s (param $offset i32) (param $cap i32) (param $key f64) (result i32)", HelperHashFind)
	b.Line("(local $start i32)")
	b.Line("(local $i i32)")
	b.Line("(local $probed i32)")
	b.Line("(local $entry i32)")
	b.Line("(local $state i32)")
	b.Line("(local $candidate f64)")
	b.Line("(local $tomb i32)")

	// A heap string is STRING-tagged with the short-string bit clear, so
	// its top 17 bits equal heapStr.
	heapStr := (value.QNaNMask | uint64(value.STRING)<<value.TagShift) >> (value.IDShift + 15)

	b.Line("(local.set $start (i32.and (call $%s (i64.reinterpret_f64 (local.get $key))) (i32.sub (local.get $cap) (i32.const 1))))", HelperHashMix)
	b.Line("(local.set $i (i32.const 0))")
	b.Line("(local.set $tomb (i32.const -1))")

	b.Open("(block $done (result i32)")
	b.Open("(loop $next")
	b.Line("(br_if $done (local.get $tomb) (i32.ge_u (local.get $i) (local.get $cap)))")

	b.Line("(local.set $probed (i32.and (i32.add (local.get $start) (local.get $i)) (i32.sub (local.get $cap) (i32.const 1))))")
	b.Line("(local.set $entry (i32.add (local.get $offset) (i32.mul (local.get $probed) (i32.const %d))))", value.HashEntryStride)
	b.Line("(local.set $state (i32.load8_u offset=%d (local.get $entry)))", value.HashEntryStateOffset)

	b.Line("(br_if $done (select (local.get $tomb) (local.get $probed) (i32.ge_s (local.get $tomb) (i32.const 0))) (i32.eq (local.get $state) (i32.const %d)))", value.HashStateEmpty)

	b.Open("(if (i32.eq (local.get $state) (i32.const %d))", value.HashStateUsed)
	b.Open("(then")
	b.Line("(local.set $candidate (f64.load offset=%d (local.get $entry)))", value.HashEntryKeyOffset)
	b.Open("(if (i64.eq (i64.reinterpret_f64 (local.get $candidate)) (i64.reinterpret_f64 (local.get $key)))")
	b.Line("(then (br $done (local.get $probed)))")
	b.Close(")")
	b.Open("(if (i32.and (i64.eq (i64.shr_u (i64.reinterpret_f64 (local.get $candidate)) (i64.const 47)) (i64.const 0x%x)) (i64.eq (i64.shr_u (i64.reinterpret_f64 (local.get $key)) (i64.const 47)) (i64.const 0x%x)))", heapStr, heapStr)
	b.Line("(then (if (call $%s (local.get $candidate) (local.get $key)) (then (br $done (local.get $probed)))))", HelperStringEq)
	b.Close(")")
	b.Close(")")
	b.Close(")")

	b.Open("(if (i32.and (i32.eq (local.get $state) (i32.const %d)) (i32.lt_s (local.get $tomb) (i32.const 0)))", value.HashStateDeleted)
	b.Line("(then (local.set $tomb (local.get $probed)))")
	b.Close(")")

	b.Line("(local.set $i (i32.add (local.get $i) (i32.const 1)))")
	b.Line("(br $next)")
	b.Close(")")
	b.Close(")")
	b.Close(")")
}

// emitHashGrow emits $hash_grow(tag:i32, offset:i32, cap:i32, used:i32) ->
// f64: doubles capacity and rehashes every used entry into a freshly
// allocated table carrying tag; pkg/codegen calls it once used+1 reaches
// the load-factor threshold. Tombstones are dropped during rehash, never
// copied forward.
func emitHashGrow(b *Builder) {
	b.Open("(func $%s (param $tag i32) (param $offset i32) (param $cap i32) (param $used i32) (result f64)", HelperHashGrow)
	b.Line("(local $new_cap i32)")
	b.Line("(local $new_ref f64)")
	b.Line("(local $new_offset i32)")
	b.Line("(local $i i32)")
	b.Line("(local $entry i32)")
	b.Line("(local $slot i32)")
	b.Line("(local $new_entry i32)")

	b.Line("(local.set $new_cap (i32.mul (local.get $cap) (i32.const 2)))")
	b.Line("(local.set $new_ref (call $%s (local.get $tag) (i32.mul (local.get $new_cap) (i32.const %d))))",
		HelperAlloc, value.HashEntryStride/value.SlotSize)
	b.Line("(local.set $new_offset (call $%s (local.get $new_ref)))", HelperUnboxOffset)
	b.Line("(i32.store offset=%d (i32.sub (local.get $new_offset) (i32.const %d)) (local.get $new_cap))",
		value.ArrayCapacityOffset, value.HeaderSize)

	b.Line("(local.set $i (i32.const 0))")
	b.Open("(block $done_scan")
	b.Open("(loop $scan")
	b.Line("(br_if $done_scan (i32.ge_u (local.get $i) (local.get $cap)))")
	b.Line("(local.set $entry (i32.add (local.get $offset) (i32.mul (local.get $i) (i32.const %d))))", value.HashEntryStride)

	b.Open("(if (i32.eq (i32.load8_u offset=%d (local.get $entry)) (i32.const %d))",
		value.HashEntryStateOffset, value.HashStateUsed)
	b.Open("(then")
	b.Line("(local.set $slot (call $%s (local.get $new_offset) (local.get $new_cap) (f64.load offset=%d (local.get $entry))))",
		HelperHashFind, value.HashEntryKeyOffset)
	b.Line("(local.set $new_entry (i32.add (local.get $new_offset) (i32.mul (local.get $slot) (i32.const %d))))", value.HashEntryStride)
	b.Line("(f64.store offset=%d (local.get $new_entry) (f64.load offset=%d (local.get $entry)))",
		value.HashEntryKeyOffset, value.HashEntryKeyOffset)
	b.Line("(f64.store offset=%d (local.get $new_entry) (f64.load offset=%d (local.get $entry)))",
		value.HashEntryValueOffset, value.HashEntryValueOffset)
	b.Line("(i32.store8 offset=%d (local.get $new_entry) (i32.const %d))", value.HashEntryStateOffset, value.HashStateUsed)
	b.Close(")")
	b.Close(")")

	b.Line("(local.set $i (i32.add (local.get $i) (i32.const 1)))")
	b.Line("(br $scan)")
	b.Close(")")
	b.Close(")")

	b.Line("(i32.store offset=%d (i32.sub (local.get $new_offset) (i32.const %d)) (local.get $used))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $new_ref)")
	b.Close(")")
}

func init() {
	deps[HelperHashFind] = append(deps[HelperHashFind], HelperStringEq)
	deps[HelperHashGrow] = append(deps[HelperHashGrow], HelperUnboxOffset)
}
