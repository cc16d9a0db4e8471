package regexp

import "testing"

func TestCompile_EmitsExecEntryPoint(t *testing.T) {
	pat, err := Parse("ab", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	text, err := Compile(0, pat)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if name := FuncName(0); indexOf(text, name) < 0 {
		t.Fatalf("expected entry point %s in emitted text, got:\n%s", name, text)
	}
}

func TestCompile_GroupDeclaresCaptureGlobals(t *testing.T) {
	pat, err := Parse("(a)(b)", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	text, err := Compile(1, pat)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for _, name := range []string{"$re1_cap1_start", "$re1_cap1_end", "$re1_cap2_start", "$re1_cap2_end"} {
		if indexOf(text, name) < 0 {
			t.Fatalf("expected capture global %s in emitted text, got:\n%s", name, text)
		}
	}
}

func TestCompile_BackreferenceReadsOwnGroup(t *testing.T) {
	pat, err := Parse(`(a+)\1`, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	text, err := Compile(2, pat)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if indexOf(text, "$re2_cap1_start") < 0 {
		t.Fatalf("expected the backreference to read group 1's captured span, got:\n%s", text)
	}
}

func TestCompile_AlternationTriesBothBranches(t *testing.T) {
	pat, err := Parse("cat|dog", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	text, err := Compile(3, pat)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// Three literal-chain functions per branch plus the Alt dispatcher
	// itself all reference (call ...); a crude lower bound that the
	// emitted text actually contains more than the entry point alone.
	if len(text) < 200 {
		t.Fatalf("expected a non-trivial amount of emitted text for cat|dog, got %d bytes", len(text))
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
