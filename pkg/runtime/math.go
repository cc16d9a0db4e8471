package runtime

// emitPow emits $pow(base:f64, exp:f64) -> f64: `**` always produces a
// float result regardless of its operands' kinds, and WebAssembly has no
// pow instruction, so every `**` call site requires this helper. Integer
// exponents (the common case: loop counters, small powers) use repeated
// squaring and stay exact without leaving the module; a fractional or very
// large exponent delegates to $host_pow, an import pkg/module declares
// against the embedding host's math library whenever this helper is
// required. pow(0,0) is defined as 1, matching that host library's
// documented boundary behavior.
func emitPow(b *Builder) {
	b.Open("(func $%s (param $base f64) (param $exp f64) (result f64)", HelperPow)
	b.Line("(local $result f64)")
	b.Line("(local $b f64)")
	b.Line("(local $n i64)")
	b.Line("(local $neg i32)")

	b.Open("(if (result f64) (f64.eq (local.get $exp) (f64.const 0))")
	b.Line("(then (f64.const 1))")
	b.Open("(else")
	b.Open("(if (result f64)")
	b.Line("  (i32.and")
	b.Line("    (f64.eq (local.get $exp) (f64.trunc (local.get $exp)))")
	b.Line("    (f64.lt (f64.abs (local.get $exp)) (f64.const 1e15)))")
	b.Open("(then")
	b.Line("(local.set $neg (f64.lt (local.get $exp) (f64.const 0)))")
	b.Line("(local.set $n (i64.trunc_f64_s (f64.abs (local.get $exp))))")
	b.Line("(local.set $b (local.get $base))")
	b.Line("(local.set $result (f64.const 1))")

	b.Open("(block $done")
	b.Open("(loop $next")
	b.Line("(br_if $done (i64.eqz (local.get $n)))")
	b.Open("(if (i64.eq (i64.and (local.get $n) (i64.const 1)) (i64.const 1))")
	b.Line("(then (local.set $result (f64.mul (local.get $result) (local.get $b))))")
	b.Close(")")
	b.Line("(local.set $b (f64.mul (local.get $b) (local.get $b)))")
	b.Line("(local.set $n (i64.shr_u (local.get $n) (i64.const 1)))")
	b.Line("(br $next)")
	b.Close(")")
	b.Close(")")

	b.Open("(if (result f64) (local.get $neg)")
	b.Line("(then (f64.div (f64.const 1) (local.get $result)))")
	b.Line("(else (local.get $result))")
	b.Close(")")
	b.Close(")")
	b.Open("(else")
	b.Line("(call $host_pow (local.get $base) (local.get $exp))")
	b.Close(")")
	b.Close(")")
	b.Close(")")
	b.Close(")")
	b.Close(")")
}
