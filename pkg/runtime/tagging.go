package runtime

import "github.com/latticec/wasmc/pkg/value"

// HelperBox and HelperIsPtr are unconditionally required by anything that
// allocates or inspects a reference; emitAlloc pulls HelperBox in via deps,
// and pkg/codegen requires HelperIsPtr directly wherever truthiness,
// optional chaining, or nullish coalesce needs to test a value's tag.
const (
	HelperBox   = "box"
	HelperIsPtr = "is_ptr"
)

func init() {
	deps[HelperBox] = nil
	emitters[HelperBox] = emitBox

	deps[HelperIsPtr] = nil
	emitters[HelperIsPtr] = emitIsPtr

	deps[HelperAlloc] = append(deps[HelperAlloc], HelperBox)
}

// emitBox emits $box(tag:i32, id:i32, offset:i32) -> f64, packing the three
// fields into the NaN-boxed bit pattern value.Encode computes in Go —
// shifted into the same QNaN-prefixed i64 layout, then reinterpreted as f64.
func emitBox(b *Builder) {
	b.Open("(func $%s (param $tag i32) (param $id i32) (param $offset i32) (result f64)", HelperBox)
	b.Line("(f64.reinterpret_i64")
	b.Line("  (i64.or")
	b.Line("    (i64.const 0x%x)", value.QNaNMask)
	b.Line("    (i64.or")
	b.Line("      (i64.shl (i64.extend_i32_u (local.get $tag)) (i64.const %d))", value.TagShift)
	b.Line("      (i64.or")
	b.Line("        (i64.shl (i64.extend_i32_u (local.get $id)) (i64.const %d))", value.IDShift)
	b.Line("        (i64.extend_i32_u (local.get $offset))))))")
	b.Close(")")
}

// emitIsPtr emits $is_ptr(v:f64) -> i32: true iff v's bits carry the
// quiet-NaN prefix and aren't exactly canonical NaN.
func emitIsPtr(b *Builder) {
	b.Open("(func $%s (param $v f64) (result i32)", HelperIsPtr)
	b.Line("(local $bits i64)")
	b.Line("(local.set $bits (i64.reinterpret_f64 (local.get $v)))")
	b.Line("(i32.and")
	b.Line("  (i64.eq (i64.and (local.get $bits) (i64.const 0x%x)) (i64.const 0x%x))", value.QNaNMask, value.QNaNMask)
	b.Line("  (i64.ne (local.get $bits) (i64.const 0x%x)))", value.CanonicalNaN)
	b.Close(")")
}
