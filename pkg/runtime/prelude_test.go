package runtime

import "testing"

func TestPrelude_RequirePullsTransitiveDeps(t *testing.T) {
	p := NewPrelude()
	p.Require(HelperArrayPush)

	for _, want := range []string{HelperArrayPush, HelperAlloc, HelperGrow, HelperBox, HelperUnboxOffset, HelperMemcopy} {
		if !p.Requires(want) {
			t.Errorf("Require(%s) should transitively pull in %s", HelperArrayPush, want)
		}
	}

	if p.Requires(HelperHashFind) {
		t.Error("requiring array_push should not pull in unrelated hash helpers")
	}
}

func TestPrelude_RequireIdempotent(t *testing.T) {
	p := NewPrelude()
	p.Require(HelperAlloc)
	p.Require(HelperAlloc)

	n := 0
	for _, name := range p.order {
		if name == HelperAlloc {
			n++
		}
	}
	if n != 1 {
		t.Errorf("HelperAlloc appears %d times in required order, want 1", n)
	}
}

func TestPrelude_EmitEachHelperOnce(t *testing.T) {
	p := NewPrelude()
	p.Require(HelperArrayUnshift)
	p.Require(HelperHashGrow)
	p.Require(HelperStringConcat)
	p.Require(HelperPow)

	out := p.Emit()

	for name := range p.required {
		def := "(func $" + name + " "
		if indexOf(out, def) < 0 {
			def = "(func $" + name + "\n" // a helper with no params or result
		}
		first := indexOf(out, def)
		if first < 0 {
			t.Fatalf("Emit() missing definition for %s", name)
		}
		if indexOf(out[first+1:], def) >= 0 {
			t.Errorf("Emit() defines %s more than once", name)
		}
	}
}

func TestPrelude_NeedsHostPow(t *testing.T) {
	p := NewPrelude()
	if p.NeedsHostPow() {
		t.Error("fresh Prelude should not need host_pow")
	}

	p.Require(HelperPow)
	if !p.NeedsHostPow() {
		t.Error("requiring pow should report NeedsHostPow")
	}
}

func TestPrelude_UnrelatedHelpersStayOut(t *testing.T) {
	p := NewPrelude()
	p.Require(HelperStringEq)

	if p.Requires(HelperHashMix) || p.Requires(HelperArrayPush) {
		t.Error("requiring string_eq alone should not pull in array/hash helpers")
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
