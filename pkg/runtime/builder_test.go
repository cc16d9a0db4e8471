package runtime

import "testing"

func TestBuilder_OpenCloseIndents(t *testing.T) {
	b := NewBuilder()
	b.Open("(module")
	b.Open("(func $f")
	b.Line("(local.get $x)")
	b.Close(")")
	b.Close(")")

	want := "(module\n  (func $f\n    (local.get $x)\n  )\n)\n"
	if got := b.String(); got != want {
		t.Errorf("Builder output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestI32ConstF64Const(t *testing.T) {
	if i32Const(42) != "(i32.const 42)" {
		t.Errorf("i32Const(42) = %q", i32Const(42))
	}
	if f64Const(7) != "(f64.const 7)" {
		t.Errorf("f64Const(7) = %q", f64Const(7))
	}
}
