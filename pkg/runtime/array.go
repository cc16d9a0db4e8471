package runtime

import "github.com/latticec/wasmc/pkg/value"

// All array helpers take and return an f64 NaN-boxed array/ring reference
// plus an i32 payload offset the caller has already unboxed (pkg/codegen
// extracts it with a call to $unbox_offset, HelperUnboxOffset below).

// emitArrayPush emits $array_push(ref:f64, offset:i32, id:i32, v:f64) ->
// f64: mutates in place when capacity allows, else reallocates the next
// tier and copies, per the flat/ring layout of value.Kind's array family.
func emitArrayPush(b *Builder) {
	b.Open("(func $%s (param $ref f64) (param $offset i32) (param $id i32) (param $v f64) (result f64)", HelperArrayPush)
	b.Line("(local $len i32)")
	b.Line("(local $cap i32)")
	b.Line("(local $new_ref f64)")
	b.Line("(local $new_offset i32)")

	b.Line("(local.set $len (i32.load offset=%d (i32.sub (local.get $offset) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.set $cap (i32.load offset=%d (i32.sub (local.get $offset) (i32.const %d))))",
		value.ArrayCapacityOffset, value.HeaderSize)

	b.Open("(if (result f64) (i32.lt_u (local.get $len) (local.get $cap))")
	b.Open("(then")
	b.Line("(f64.store (i32.add (local.get $offset) (i32.mul (local.get $len) (i32.const %d))) (local.get $v))", value.SlotSize)
	b.Line("(i32.store offset=%d (i32.sub (local.get $offset) (i32.const %d)) (i32.add (local.get $len) (i32.const 1)))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $ref)")
	b.Close(")")
	b.Open("(else")
	// Next tier, as value.NextTier: 4 below 4, else double.
	b.Line("(local.set $new_ref (call $%s (i32.const %d) (select (i32.const 4) (i32.mul (local.get $cap) (i32.const 2)) (i32.lt_u (local.get $cap) (i32.const 4)))))", HelperAlloc, value.ARRAY)
	b.Line("(local.set $new_offset (call $%s (local.get $new_ref)))", HelperUnboxOffset)
	b.Line("(call $%s (local.get $offset) (local.get $new_offset) (local.get $len))", HelperMemcopy)
	b.Line("(f64.store (i32.add (local.get $new_offset) (i32.mul (local.get $len) (i32.const %d))) (local.get $v))", value.SlotSize)
	b.Line("(i32.store offset=%d (i32.sub (local.get $new_offset) (i32.const %d)) (i32.add (local.get $len) (i32.const 1)))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $new_ref)")
	b.Close(")")
	b.Close(")")
	b.Close(")")
}

// emitArrayPop emits $array_pop(offset:i32) -> f64: O(1), only length
// changes (capacity is never reduced, per the array invariants).
func emitArrayPop(b *Builder) {
	b.Open("(func $%s (param $offset i32) (result f64)", HelperArrayPop)
	b.Line("(local $len i32)")
	b.Line("(local $v f64)")

	b.Line("(local.set $len (i32.load offset=%d (i32.sub (local.get $offset) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.set $len (i32.sub (local.get $len) (i32.const 1)))")
	b.Line("(local.set $v (f64.load (i32.add (local.get $offset) (i32.mul (local.get $len) (i32.const %d)))))", value.SlotSize)
	b.Line("(i32.store offset=%d (i32.sub (local.get $offset) (i32.const %d)) (local.get $len))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $v)")
	b.Close(")")
}

// emitArrayShift emits $array_shift(offset:i32) -> f64: returns element 0
// and moves every remaining element down one slot, an O(n) compaction on
// every call. There is no RING/head path: no block carries a head field.
func emitArrayShift(b *Builder) {
	b.Open("(func $%s (param $offset i32) (result f64)", HelperArrayShift)
	b.Line("(local $len i32)")
	b.Line("(local $v f64)")
	b.Line("(local $i i32)")

	b.Line("(local.set $len (i32.load offset=%d (i32.sub (local.get $offset) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.set $v (f64.load (local.get $offset)))")

	b.Open("(block $done")
	b.Open("(loop $next")
	b.Line("(br_if $done (i32.ge_u (local.get $i) (i32.sub (local.get $len) (i32.const 1))))")
	b.Line("(f64.store (i32.add (local.get $offset) (i32.mul (local.get $i) (i32.const %d)))", value.SlotSize)
	b.Line("  (f64.load (i32.add (local.get $offset) (i32.mul (i32.add (local.get $i) (i32.const 1)) (i32.const %d)))))", value.SlotSize)
	b.Line("(local.set $i (i32.add (local.get $i) (i32.const 1)))")
	b.Line("(br $next)")
	b.Close(")")
	b.Close(")")

	b.Line("(i32.store offset=%d (i32.sub (local.get $offset) (i32.const %d)) (i32.sub (local.get $len) (i32.const 1)))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $v)")
	b.Close(")")
}

// emitArrayUnshift emits $array_unshift(ref:f64, offset:i32, id:i32, v:f64)
// -> f64: moves every existing element up one slot and stores v at index 0,
// an O(n) shift on every call; a full block is handed to $array_grow_front.
// The array stays flat: nothing sets the RING tag or a head field.
func emitArrayUnshift(b *Builder) {
	b.Open("(func $%s (param $ref f64) (param $offset i32) (param $id i32) (param $v f64) (result f64)", HelperArrayUnshift)
	b.Line("(local $len i32)")
	b.Line("(local $cap i32)")
	b.Line("(local $i i32)")

	b.Line("(local.set $len (i32.load offset=%d (i32.sub (local.get $offset) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.set $cap (i32.load offset=%d (i32.sub (local.get $offset) (i32.const %d))))",
		value.ArrayCapacityOffset, value.HeaderSize)

	b.Open("(if (i32.ge_u (local.get $len) (local.get $cap))")
	b.Line("(return (call $%s (local.get $ref) (local.get $offset) (local.get $id) (local.get $v)))", HelperArrayGrowFront)
	b.Close(")")

	b.Line("(local.set $i (local.get $len))")
	b.Open("(block $done")
	b.Open("(loop $next")
	b.Line("(br_if $done (i32.eqz (local.get $i)))")
	b.Line("(f64.store (i32.add (local.get $offset) (i32.mul (local.get $i) (i32.const %d)))", value.SlotSize)
	b.Line("  (f64.load (i32.add (local.get $offset) (i32.mul (i32.sub (local.get $i) (i32.const 1)) (i32.const %d)))))", value.SlotSize)
	b.Line("(local.set $i (i32.sub (local.get $i) (i32.const 1)))")
	b.Line("(br $next)")
	b.Close(")")
	b.Close(")")

	b.Line("(f64.store (local.get $offset) (local.get $v))")
	b.Line("(i32.store offset=%d (i32.sub (local.get $offset) (i32.const %d)) (i32.add (local.get $len) (i32.const 1)))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $ref)")
	b.Close(")")
}

// HelperArrayGrowFront is array_unshift's own overflow path: the next
// capacity tier, with the new element at index 0 and the old contents
// linearized after it.
const HelperArrayGrowFront = "array_grow_front"

func init() {
	deps[HelperArrayUnshift] = append(deps[HelperArrayUnshift], HelperArrayGrowFront)
	deps[HelperArrayGrowFront] = []string{HelperAlloc}
	emitters[HelperArrayGrowFront] = emitArrayGrowFront
}

func emitArrayGrowFront(b *Builder) {
	b.Open("(func $%s (param $ref f64) (param $offset i32) (param $id i32) (param $v f64) (result f64)", HelperArrayGrowFront)
	b.Line("(local $len i32)")
	b.Line("(local $cap i32)")
	b.Line("(local $new_ref f64)")
	b.Line("(local $new_offset i32)")
	b.Line("(local $i i32)")

	b.Line("(local.set $len (i32.load offset=%d (i32.sub (local.get $offset) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.set $cap (i32.load offset=%d (i32.sub (local.get $offset) (i32.const %d))))",
		value.ArrayCapacityOffset, value.HeaderSize)

	b.Line("(local.set $new_ref (call $%s (i32.const %d) (select (i32.const 4) (i32.mul (local.get $cap) (i32.const 2)) (i32.lt_u (local.get $cap) (i32.const 4)))))", HelperAlloc, value.ARRAY)
	b.Line("(local.set $new_offset (call $%s (local.get $new_ref)))", HelperUnboxOffset)

	b.Line("(f64.store (local.get $new_offset) (local.get $v))")

	b.Open("(block $done")
	b.Open("(loop $next")
	b.Line("(br_if $done (i32.ge_u (local.get $i) (local.get $len)))")
	b.Line("(f64.store (i32.add (local.get $new_offset) (i32.mul (i32.add (local.get $i) (i32.const 1)) (i32.const %d)))", value.SlotSize)
	b.Line("  (f64.load (i32.add (local.get $offset) (i32.mul (local.get $i) (i32.const %d)))))", value.SlotSize)
	b.Line("(local.set $i (i32.add (local.get $i) (i32.const 1)))")
	b.Line("(br $next)")
	b.Close(")")
	b.Close(")")

	b.Line("(i32.store offset=%d (i32.sub (local.get $new_offset) (i32.const %d)) (i32.add (local.get $len) (i32.const 1)))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $new_ref)")
	b.Close(")")
}

// emitArraySlice emits $array_slice(offset:i32, from:i32, to:i32) -> f64: a
// fresh flat array sized exactly to (to-from), elements copied by value.
func emitArraySlice(b *Builder) {
	b.Open("(func $%s (param $offset i32) (param $from i32) (param $to i32) (result f64)", HelperArraySlice)
	b.Line("(local $n i32)")
	b.Line("(local $new_ref f64)")
	b.Line("(local $new_offset i32)")

	b.Line("(local.set $n (i32.sub (local.get $to) (local.get $from)))")
	b.Line("(local.set $new_ref (call $%s (i32.const %d) (local.get $n)))", HelperAlloc, value.ARRAY)
	b.Line("(local.set $new_offset (call $%s (local.get $new_ref)))", HelperUnboxOffset)

	b.Line("(call $%s (i32.add (local.get $offset) (i32.mul (local.get $from) (i32.const %d))) (local.get $new_offset) (local.get $n))",
		HelperMemcopy, value.SlotSize)
	b.Line("(i32.store offset=%d (i32.sub (local.get $new_offset) (i32.const %d)) (local.get $n))",
		value.ArrayLengthOffset, value.HeaderSize)
	b.Line("(local.get $new_ref)")
	b.Close(")")
}

// HelperUnboxOffset and HelperMemcopy are small shared utilities every
// allocating array/string helper above needs: extracting the payload offset
// back out of a freshly boxed reference, and copying n f64 slots.
const (
	HelperUnboxOffset = "unbox_offset"
	HelperMemcopy      = "memcopy_slots"
)

func init() {
	deps[HelperUnboxOffset] = nil
	emitters[HelperUnboxOffset] = emitUnboxOffset

	deps[HelperMemcopy] = nil
	emitters[HelperMemcopy] = emitMemcopy

	deps[HelperArrayPush] = append(deps[HelperArrayPush], HelperUnboxOffset, HelperMemcopy)
	deps[HelperArraySlice] = append(deps[HelperArraySlice], HelperUnboxOffset, HelperMemcopy)
	deps[HelperArrayGrowFront] = append(deps[HelperArrayGrowFront], HelperUnboxOffset)
	deps[HelperArrayUnshift] = append(deps[HelperArrayUnshift], HelperUnboxOffset)
}

func emitUnboxOffset(b *Builder) {
	b.Open("(func $%s (param $ref f64) (result i32)", HelperUnboxOffset)
	b.Line("(i32.wrap_i64 (i64.and (i64.reinterpret_f64 (local.get $ref)) (i64.const 0x%x)))", value.OffsetMask)
	b.Close(")")
}

func emitMemcopy(b *Builder) {
	b.Open("(func $%s (param $src i32) (param $dst i32) (param $n i32)", HelperMemcopy)
	b.Line("(memory.copy (local.get $dst) (local.get $src) (i32.mul (local.get $n) (i32.const %d)))", value.SlotSize)
	b.Close(")")
}
