package runtime

import "github.com/latticec/wasmc/pkg/value"

// emitAlloc emits the bump allocator: $alloc(tag:i32, slots:i32) -> f64,
// returning a NaN-boxed pointer to a freshly carved block. slots is the
// payload size in 8-byte words; the header occupies the HeaderSize bytes at
// the old bump pointer with the payload right after it, and the bump
// pointer is advanced past both before the header is written.
//
// $bump_ptr is a mutable global, initialized by pkg/module past the
// reserved interned-string/schema prelude region. $next_id hands out a
// monotonically increasing identity, one counter shared by every tag, used
// only as the NaN-box id field (distinct live blocks get distinct ids so
// reference equality never aliases two different allocations).
func emitAlloc(b *Builder) {
	b.Open("(func $%s (param $tag i32) (param $slots i32) (result f64)", HelperAlloc)
	b.Line("(local $payload i32)")
	b.Line("(local $bytes i32)")
	b.Line("(local $id i32)")

	b.Line("(local.set $bytes (i32.add (i32.mul (local.get $slots) (i32.const %d)) (i32.const %d)))",
		value.SlotSize, value.HeaderSize)
	b.Line("(local.set $payload (i32.add (global.get $bump_ptr) (i32.const %d)))", value.HeaderSize)

	b.Line("(global.set $bump_ptr (i32.add (global.get $bump_ptr) (local.get $bytes)))")
	b.Line("(call $%s)", HelperGrow)

	b.Line("(i32.store (i32.sub (local.get $payload) (i32.const %d)) (i32.const 0))", value.HeaderSize)
	b.Line("(i32.store offset=%d (i32.sub (local.get $payload) (i32.const %d)) (local.get $slots))",
		value.ArrayCapacityOffset, value.HeaderSize)

	b.Line("(local.set $id (global.get $next_id))")
	b.Line("(global.set $next_id (i32.add (local.get $id) (i32.const 1)))")

	b.Line("(call $%s (local.get $tag) (local.get $id) (local.get $payload))", HelperBox)
	b.Close(")")
}

// emitGrow emits $grow: ensures linear memory covers the current bump
// pointer plus a safety margin, growing by whole pages as needed. Called by
// $alloc right after every bump, so a fresh block is always inside linear
// memory before its header is stored.
func emitGrow(b *Builder) {
	const pageSize = 65536

	b.Open("(func $%s", HelperGrow)
	b.Line("(local $needed i32)")
	b.Line("(local $have i32)")

	b.Line("(local.set $needed (i32.add (global.get $bump_ptr) (i32.const %d)))", pageSize)
	b.Line("(local.set $have (i32.mul (memory.size) (i32.const %d)))", pageSize)

	b.Open("(if (i32.gt_u (local.get $needed) (local.get $have))")
	b.Line("(drop (memory.grow (i32.add (i32.div_u (i32.sub (local.get $needed) (local.get $have)) (i32.const %d)) (i32.const 1))))", pageSize)
	b.Close(")")
	b.Close(")")
}
