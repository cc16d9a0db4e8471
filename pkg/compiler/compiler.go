// Package compiler wires every pipeline stage together behind one call:
// parse, normalize, analyze scope, infer types, generate code, assemble
// module. It is the orchestration layer the teacher's own
// pkg/corset/compiler.go plays for its constraint-system compiler —
// CompileSourceFiles there is the same shape this package's Compile takes,
// a flat options struct threaded through a fixed stage order, returning
// accumulated warnings alongside the final artifact rather than stopping at
// the first one.
package compiler

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/latticec/wasmc/pkg/codegen"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/module"
	"github.com/latticec/wasmc/pkg/normalizer"
	"github.com/latticec/wasmc/pkg/scope"
	"github.com/latticec/wasmc/pkg/sexp"
	"github.com/latticec/wasmc/pkg/types"
)

// CompilationConfig mirrors the teacher's corset.CompilationConfig: a flat
// struct of independent options, populated from CLI flags and passed by
// value through every stage that needs one of them.
type CompilationConfig struct {
	// Format is "binary" (default) or "wat" - see module.Config.Format.
	Format string
	// GC suppresses the synthetic _memory/_alloc exports - see
	// module.Config.GC.
	GC bool
	// Debug raises logrus to DebugLevel for the duration of Compile,
	// emitting one per-stage timing line.
	Debug bool
	// Strict promotes every collected warning to a fatal error: the first
	// warning in emission order is returned as the compile error instead
	// of being surfaced alongside a successful Result.
	Strict bool
}

// Result is a finished compilation: module.Build's output plus the
// warnings the normalizer collected along the way.
type Result struct {
	WAT      string
	Wasm     []byte
	Sig      map[string]module.SigEntry
	Warnings []diag.Warning
}

// Compile runs source (the external parser collaborator's S-expression text,
// see spec.md §6) through every stage in order, stopping at the first
// diagnostic error. asm is forwarded to module.Build unchanged; it may be
// nil when cfg.Format is "wat".
func Compile(source string, cfg CompilationConfig, asm module.Assembler) (*Result, error) {
	if cfg.Debug {
		prevLevel := log.GetLevel()
		log.SetLevel(log.DebugLevel)
		defer log.SetLevel(prevLevel)
	}

	started := time.Now()

	parsed, err := sexp.Parse(source)
	logStage("parse", started)
	if err != nil {
		return nil, err
	}

	n := normalizer.New()

	started = time.Now()
	prog, err := n.Normalize(parsed)
	logStage("normalize", started)
	if err != nil {
		return nil, err
	}

	if cfg.Strict {
		if warnings := n.Warnings.Warnings(); len(warnings) > 0 {
			return nil, diag.New(diag.Prohibited, warnings[0].Span(), warnings[0].String())
		}
	}

	started = time.Now()
	mod, err := scope.Analyze(prog)
	logStage("scope", started)
	if err != nil {
		return nil, err
	}

	started = time.Now()
	info, err := types.Infer(prog)
	logStage("types", started)
	if err != nil {
		return nil, err
	}

	started = time.Now()
	cprog, err := codegen.Compile(prog, info, mod)
	logStage("codegen", started)
	if err != nil {
		return nil, err
	}

	mcfg := module.Config{Format: cfg.Format, GC: cfg.GC}

	started = time.Now()
	mres, err := module.Build(prog, info, cprog, mcfg, asm)
	logStage("module", started)
	if err != nil {
		return nil, err
	}

	return &Result{
		WAT:      mres.WAT,
		Wasm:     mres.Wasm,
		Sig:      mres.Sig,
		Warnings: n.Warnings.Warnings(),
	}, nil
}

// logStage logs name's wall-clock duration since started at debug level -
// the teacher's own CompileSourceFiles logs one line per phase the same
// way.
func logStage(name string, started time.Time) {
	log.Debugf("compiler: %s took %s", name, time.Since(started))
}
