package module

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// gobArtifact is the payload a FakeAssembler round-trips: just enough to
// let a test assert the WAT text it was given made it through unmodified,
// without this package depending on a real WAT-to-wasm encoder.
type gobArtifact struct {
	WAT string
}

// FakeAssembler stands in for the real Assembler collaborator (an external
// WAT-to-wasm encoder this package deliberately does not implement or
// depend on): it serializes the WAT text via encoding/gob rather than
// producing an actual binary module, the same shape of shipped-artifact
// stand-in the teacher project's JSON bin-file reader (its cmd/main.go, not
// part of this repository) used for already-assembled output. Tests exercising Build's binary-format path use this instead of
// a real toolchain.
type FakeAssembler struct {
	// FailWith, if set, makes Assemble return this error instead of
	// encoding anything - exercises Build's AssemblerFailed wrapping.
	FailWith error
}

// Assemble implements Assembler.
func (f *FakeAssembler) Assemble(wat string) ([]byte, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobArtifact{WAT: wat}); err != nil {
		return nil, fmt.Errorf("module: gob-encoding fake artifact: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeFakeArtifact reverses FakeAssembler.Assemble, recovering the WAT
// text a fake binary was built from - used by tests asserting Build's
// output survived the Assembler round trip unchanged.
func DecodeFakeArtifact(wasm []byte) (string, error) {
	var art gobArtifact
	if err := gob.NewDecoder(bytes.NewReader(wasm)).Decode(&art); err != nil {
		return "", fmt.Errorf("module: gob-decoding fake artifact: %w", err)
	}

	return art.WAT, nil
}
