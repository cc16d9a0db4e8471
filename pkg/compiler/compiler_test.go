package compiler_test

import (
	"strings"
	"testing"

	"github.com/latticec/wasmc/pkg/compiler"
)

const addSource = `((export (function add (a b) (block (return (+ a b))))))`

func TestCompile_WatFormatProducesExportedFunction(t *testing.T) {
	res, err := compiler.Compile(addSource, compiler.CompilationConfig{Format: "wat"}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if !strings.Contains(res.WAT, `(export "add" (func $fn_add))`) {
		t.Errorf("expected WAT to export add, got:\n%s", res.WAT)
	}

	if res.Wasm != nil {
		t.Fatalf("expected no assembled binary for wat format, got %d bytes", len(res.Wasm))
	}
}

func TestCompile_BinaryFormatUsesAssembler(t *testing.T) {
	res, err := compiler.Compile(addSource, compiler.CompilationConfig{}, &fakeAssembler{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if len(res.Wasm) == 0 {
		t.Fatalf("expected a non-empty assembled artifact")
	}
}

func TestCompile_SyntaxErrorPropagates(t *testing.T) {
	if _, err := compiler.Compile("(", compiler.CompilationConfig{Format: "wat"}, nil); err == nil {
		t.Fatalf("expected a parse error for malformed source")
	}
}

func TestCompile_DebugDoesNotAffectOutput(t *testing.T) {
	res, err := compiler.Compile(addSource, compiler.CompilationConfig{Format: "wat", Debug: true}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if !strings.Contains(res.WAT, `(start $init)`) {
		t.Errorf("expected a start section regardless of Debug, got:\n%s", res.WAT)
	}
}

type fakeAssembler struct{}

func (f *fakeAssembler) Assemble(wat string) ([]byte, error) {
	return []byte(wat), nil
}
