// Package module performs final module assembly: it takes pkg/codegen's
// compiled fragments (functions, prelude/leaf/regex helper text, interned
// strings, the indirect-call table, export metadata) plus the top-level
// type information pkg/types inferred and stitches them into one complete
// WebAssembly text module, laying out linear memory for interned string
// data and the bump allocator's starting point the way pkg/runtime's
// $alloc doc comment describes ("initialized by pkg/module past the
// reserved interned-string/schema prelude region").
//
// This package owns everything pkg/codegen explicitly declines to decide:
// data-segment placement, global initial values, the indirect-call table's
// element segment, the synthetic `_memory`/`_alloc` exports, and the
// `jz:sig` custom section a host uses to tell an array-typed export
// parameter or return apart from a plain number. It also owns the thin
// Assembler seam: turning finished WAT text into a `.wasm` binary is left
// to a collaborator outside this package, following the same
// shipped-artifact pattern the teacher project's bin-file reader (its
// cmd/main.go, not part of this repository) used for already-assembled
// output.
package module

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/codegen"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
	"github.com/latticec/wasmc/pkg/types"
	"github.com/latticec/wasmc/pkg/value"
)

// Config carries the two compile-time options spec.md's external interface
// exposes: Format picks the output encoding, GC toggles the synthetic
// linear-memory exports a host embedding its own garbage collector would
// not want. Structural wasm-gc codegen is out of scope (see DESIGN.md);
// GC:true only suppresses `_memory`/`_alloc`, the underlying
// representation is the bump-allocated linear memory either way.
type Config struct {
	// Format is "binary" (default, zero value) or "wat".
	Format string
	GC     bool
}

// FormatWat requests textual WebAssembly output instead of an assembled
// binary.
const FormatWat = "wat"

// Result is module assembly's finished output.
type Result struct {
	// WAT is always populated: the complete module text, whether or not
	// the caller asked for a binary.
	WAT string
	// Wasm holds the assembled binary, nil when Config.Format was "wat".
	Wasm []byte
	// Sig is the `jz:sig` custom-section payload, keyed by export name;
	// empty when no export has an array-kind parameter or return.
	Sig map[string]SigEntry
}

// SigEntry records which of an exported function's parameters, and whether
// its return, carry array-kind values - the one piece of ABI information a
// host can't recover just by decoding a NaN-boxed double's tag bits inline,
// since it needs to know the arity/shape before the call even happens.
type SigEntry struct {
	ArrayParams []bool `json:"arrayParams"`
	ArrayReturn bool   `json:"arrayReturn"`
}

// Assembler turns finished WAT text into a WebAssembly binary. The
// concrete implementation (shelling out to an external toolchain, linking
// a WAT parser, whatever the embedding host prefers) lives outside this
// package; Build only needs the seam.
type Assembler interface {
	Assemble(wat string) ([]byte, error)
}

// Build assembles prog's compiled output into a finished module. info
// supplies the declared kinds of top-level (non-exported) globals; an
// exported binding's kind travels on its own cprog.Exports entry already.
func Build(prog *ast.Program, info *types.Info, cprog *codegen.Program, cfg Config, asm Assembler) (*Result, error) {
	layout := layoutStrings(cprog.StringLiterals)

	var b strings.Builder
	fmt.Fprintln(&b, "(module")

	writeImports(&b, cprog)
	writeMemory(&b, layout, cfg)
	writeTable(&b, cprog)
	writeGlobals(&b, cprog, info, layout)
	writeFunctions(&b, cprog)
	writeDataSegments(&b, layout)
	writeExports(&b, cprog, cfg)

	sig := buildSig(cprog.Exports)
	if len(sig) > 0 {
		writeSigSection(&b, sig)
	}

	fmt.Fprintln(&b, ")")

	res := &Result{WAT: b.String(), Sig: sig}

	if cfg.Format == FormatWat {
		return res, nil
	}

	if asm == nil {
		return nil, diag.New(diag.AssemblerFailed, sexp.Span{}, "no Assembler configured for binary output")
	}

	wasm, err := asm.Assemble(res.WAT)
	if err != nil {
		return nil, diag.New(diag.AssemblerFailed, sexp.Span{},
			fmt.Sprintf("assembling generated module: %v", err))
	}

	res.Wasm = wasm

	return res, nil
}

// writeImports declares the one host import a compilation might need:
// $host_pow, pulled in only when $pow's fractional-exponent fallback is
// live.
func writeImports(b *strings.Builder, cprog *codegen.Program) {
	if !cprog.NeedsHostPow {
		return
	}

	fmt.Fprintln(b, `  (import "env" "host_pow" (func $host_pow (param f64 f64) (result f64)))`)
}

// writeMemory declares linear memory sized to cover the interned-string
// data segment plus a one-page margin, and exports it as `_memory` unless
// the host says it is bringing its own GC.
func writeMemory(b *strings.Builder, layout *stringLayout, cfg Config) {
	const pageSize = 65536

	pages := (layout.BumpStart + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	pages++ // safety margin; $grow takes over from here at runtime

	fmt.Fprintf(b, "  (memory $memory %d)\n", pages)

	if !cfg.GC {
		fmt.Fprintln(b, `  (export "_memory" (memory $memory))`)
	}
}

// writeTable declares the indirect-call table and its element segment from
// cprog.Table, the ordered function-name list Context.TableIndex assigned
// slots from as closure values were first referenced.
func writeTable(b *strings.Builder, cprog *codegen.Program) {
	if len(cprog.Table) == 0 {
		return
	}

	fmt.Fprintf(b, "  (table $itable %d funcref)\n", len(cprog.Table))
	fmt.Fprintf(b, "  (elem (i32.const 0)")
	for _, name := range cprog.Table {
		fmt.Fprintf(b, " %s", name)
	}
	fmt.Fprintln(b, ")")
}

// writeGlobals declares every mutable global a compilation needs: the bump
// allocator's cursor and next-id counter (seeded past the static string
// region), one mutable f64 global per top-level `let`/`const`/`var` name,
// and one immutable f64 global per interned string literal, already
// carrying that literal's precomputed NaN-boxed pointer since its heap
// location is fully known at assembly time.
func writeGlobals(b *strings.Builder, cprog *codegen.Program, info *types.Info, layout *stringLayout) {
	fmt.Fprintf(b, "  (global $bump_ptr (mut i32) (i32.const %d))\n", layout.BumpStart)
	fmt.Fprintf(b, "  (global $next_id (mut i32) (i32.const %d))\n", len(layout.Strings))

	names := append([]string(nil), cprog.Globals...)
	sort.Strings(names)

	for _, name := range names {
		valType := info.Globals[name].WasmValType()
		zero := "f64.const 0"
		if valType == "i32" {
			zero = "i32.const 0"
		}

		fmt.Fprintf(b, "  (global $g_%s (mut %s) (%s))\n", name, valType, zero)
	}

	for i, s := range layout.Strings {
		fmt.Fprintf(b, "  (global %s f64 (f64.const nan:0x%x))\n", codegen.StringGlobal(i), s.Bits&mantissaMask)
	}
}

// mantissaMask isolates the 52 low bits (sign + exponent excluded) a
// `nan:0x...` literal's payload names; value.Encode never sets the sign
// bit and always sets the exponent to all-ones via QNaNMask, so this mask
// recovers exactly the tag/id/offset bits packed into a NaN-boxed double.
const mantissaMask = 0x000F_FFFF_FFFF_FFFF

// writeFunctions concatenates every WebAssembly function definition this
// compilation produced, prelude helpers first so a reader sees shared
// infrastructure before the program-specific code that calls it.
func writeFunctions(b *strings.Builder, cprog *codegen.Program) {
	b.WriteString(cprog.PreludeText)
	b.WriteString(cprog.LeafHelperText)
	b.WriteString(cprog.RegexFuncText)
	b.WriteString(cprog.Init.Text)

	for _, fn := range cprog.Functions {
		b.WriteString(fn.Text)
	}
}

// writeExports emits one `(export ...)` clause per cprog.Exports entry,
// `(start $init)` so the top-level statement list runs at instantiation
// before any export is reachable, and the synthetic `_alloc` wrapper
// around the bump allocator unless the host supplies its own GC.
func writeExports(b *strings.Builder, cprog *codegen.Program, cfg Config) {
	fmt.Fprintln(b, "  (start $init)")

	for _, e := range cprog.Exports {
		kind := "global"
		if e.Func {
			kind = "func"
		}

		fmt.Fprintf(b, "  (export %q (%s %s))\n", e.Name, kind, e.Symbol)
	}

	if !cfg.GC {
		fmt.Fprintln(b, `  (func $_alloc (export "_alloc") (param $type i32) (param $length i32) (result f64)`)
		fmt.Fprintln(b, `    (call $alloc (local.get $type) (local.get $length)))`)
	}
}

// writeDataSegments emits one `(data ...)` clause per interned string,
// each byte escaped as a two-digit hex pair so the output never depends on
// the host's handling of control or non-ASCII bytes embedded in a WAT
// string literal.
func writeDataSegments(b *strings.Builder, layout *stringLayout) {
	for _, s := range layout.Strings {
		fmt.Fprintf(b, "  (data (i32.const %d) \"%s\")\n", s.HeaderOffset, escapeBytes(s.Bytes))
	}
}

func escapeBytes(data []byte) string {
	var sb strings.Builder
	for _, by := range data {
		fmt.Fprintf(&sb, "\\%02x", by)
	}
	return sb.String()
}

// buildSig collects the jz:sig entry for every exported function with at
// least one array-kind parameter or an array-kind return; an export with
// none is left out of the map entirely, matching "whenever array-typed
// params/returns exist" rather than emitting a trivial all-false entry for
// every export.
func buildSig(exports []codegen.Export) map[string]SigEntry {
	sig := map[string]SigEntry{}

	for _, e := range exports {
		if !e.Func {
			continue
		}

		arrayParams := make([]bool, len(e.Params))
		anyArray := e.Result == value.KindArray

		for i, p := range e.Params {
			if p == value.KindArray {
				arrayParams[i] = true
				anyArray = true
			}
		}

		if anyArray {
			sig[e.Name] = SigEntry{ArrayParams: arrayParams, ArrayReturn: e.Result == value.KindArray}
		}
	}

	return sig
}

// writeSigSection embeds the jz:sig payload as a WAT custom-section
// annotation (the wabt-style `(@custom ...)` extension): the assembled
// binary carries it as an ordinary custom section a host reads without
// executing any module code.
func writeSigSection(b *strings.Builder, sig map[string]SigEntry) {
	fmt.Fprintf(b, "  (@custom \"jz:sig\" (after last) \"%s\")\n", escapeBytes(encodeSigJSON(sig)))
}

// encodeSigJSON marshals sig to its wire form; encoding/json sorts map
// keys alphabetically, so this is deterministic across builds.
func encodeSigJSON(sig map[string]SigEntry) []byte {
	out, err := json.Marshal(sig)
	if err != nil {
		// SigEntry is a plain struct of bools/slices; Marshal cannot fail
		// on it. Fall back to an empty object rather than panicking on an
		// assembly-time best-effort payload.
		return []byte("{}")
	}

	return out
}
