package regexp

import "testing"

func TestParse_LiteralConcat(t *testing.T) {
	pat, err := Parse("abc", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	seq, ok := pat.Root.(*Concat)
	if !ok || len(seq.Items) != 3 {
		t.Fatalf("expected a 3-item Concat, got %#v", pat.Root)
	}
}

func TestParse_Alternation(t *testing.T) {
	pat, err := Parse("cat|dog", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if _, ok := pat.Root.(*Alt); !ok {
		t.Fatalf("expected root Alt, got %#v", pat.Root)
	}
}

func TestParse_GroupAssignsSequentialIndices(t *testing.T) {
	pat, err := Parse("(a)(b(c))", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if pat.NumGroups != 3 {
		t.Fatalf("expected 3 capturing groups, got %d", pat.NumGroups)
	}
}

func TestParse_NonCapturingGroupNotCounted(t *testing.T) {
	pat, err := Parse("(?:ab)(c)", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if pat.NumGroups != 1 {
		t.Fatalf("expected 1 capturing group, got %d", pat.NumGroups)
	}
}

func TestParse_Quantifiers(t *testing.T) {
	cases := map[string]func(Node) bool{
		"a*": func(n Node) bool { _, ok := n.(*Star); return ok },
		"a+": func(n Node) bool { _, ok := n.(*Plus); return ok },
		"a?": func(n Node) bool { _, ok := n.(*Opt); return ok },
		"a{2,4}": func(n Node) bool {
			r, ok := n.(*Repeat)
			return ok && r.Min == 2 && r.Max == 4
		},
		"a{2,}": func(n Node) bool {
			r, ok := n.(*Repeat)
			return ok && r.Min == 2 && r.Max == -1
		},
	}

	for src, check := range cases {
		pat, err := Parse(src, "")
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		if !check(pat.Root) {
			t.Fatalf("Parse(%q) produced unexpected root %#v", src, pat.Root)
		}
	}
}

func TestParse_LazyQuantifier(t *testing.T) {
	pat, err := Parse("a*?", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	star, ok := pat.Root.(*Star)
	if !ok || !star.Lazy {
		t.Fatalf("expected a lazy Star, got %#v", pat.Root)
	}
}

func TestParse_CharClassRange(t *testing.T) {
	pat, err := Parse("[a-zA-Z0-9_]", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cls, ok := pat.Root.(*CharClass)
	if !ok || len(cls.Items) != 4 {
		t.Fatalf("expected a 4-item CharClass (three ranges plus '_'), got %#v", pat.Root)
	}
}

func TestParse_NegatedCharClass(t *testing.T) {
	pat, err := Parse("[^0-9]", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cls, ok := pat.Root.(*CharClass)
	if !ok || !cls.Negate {
		t.Fatalf("expected a negated CharClass, got %#v", pat.Root)
	}
}

func TestParse_Lookaround(t *testing.T) {
	cases := map[string]struct{ behind, negate bool }{
		"(?=a)":  {false, false},
		"(?!a)":  {false, true},
		"(?<=a)": {true, false},
		"(?<!a)": {true, true},
	}

	for src, want := range cases {
		pat, err := Parse(src, "")
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		look, ok := pat.Root.(*Look)
		if !ok || look.Behind != want.behind || look.Negate != want.negate {
			t.Fatalf("Parse(%q) = %#v, want behind=%v negate=%v", src, pat.Root, want.behind, want.negate)
		}
	}
}

func TestParse_Backreference(t *testing.T) {
	pat, err := Parse(`(a)\1`, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	seq, ok := pat.Root.(*Concat)
	if !ok || len(seq.Items) != 2 {
		t.Fatalf("expected a 2-item Concat, got %#v", pat.Root)
	}

	ref, ok := seq.Items[1].(*Backref)
	if !ok || ref.Index != 1 {
		t.Fatalf("expected Backref{Index: 1}, got %#v", seq.Items[1])
	}
}

func TestParse_Flags(t *testing.T) {
	pat, err := Parse("a", "gims")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !pat.Global || !pat.IgnoreCase || !pat.Multiline || !pat.DotAll {
		t.Fatalf("expected every flag set, got %+v", pat)
	}
}

func TestParse_UnknownFlagRejected(t *testing.T) {
	if _, err := Parse("a", "x"); err == nil {
		t.Fatalf("expected an error for an unsupported flag")
	}
}

func TestParse_UnterminatedGroupRejected(t *testing.T) {
	if _, err := Parse("(ab", ""); err == nil {
		t.Fatalf("expected an error for an unterminated group")
	}
}
