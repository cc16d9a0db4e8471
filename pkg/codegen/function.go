package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/value"
)

// funcCodegen is the lowering state for one *ast.Arrow (nil for the
// synthetic module-init function): the instruction Builder its body
// appends to, the frame describing its locals/env layout, and the loop
// stack break/continue resolve against.
type funcCodegen struct {
	ctx   *Context
	frame *frame
	b     *runtime.Builder

	loops []loopTarget

	// needsFmod is set the first time `%` is lowered in this function;
	// program.go emits one shared $fmod helper into the module when any
	// function sets it. needsIsAsciiSpace/needsAsciiCaseShift are the same
	// shape of flag for the small ASCII helpers String.trim*/toUpperCase/
	// toLowerCase call into — leaf utilities with no natural home in
	// pkg/runtime's Prelude dependency graph, same documented inconsistency
	// as $fmod.
	needsFmod           bool
	needsIsAsciiSpace   bool
	needsAsciiCaseShift bool
}

type loopTarget struct {
	end, cont string
}

func (fc *funcCodegen) pushLoop(end, cont string) {
	fc.loops = append(fc.loops, loopTarget{end, cont})
}

func (fc *funcCodegen) popLoop() {
	fc.loops = fc.loops[:len(fc.loops)-1]
}

func (fc *funcCodegen) loopEnd() string {
	return fc.loops[len(fc.loops)-1].end
}

func (fc *funcCodegen) loopContinue() string {
	return fc.loops[len(fc.loops)-1].cont
}

// CompiledFunc is one function.go's finished output: its WebAssembly text
// plus the bits program.go needs to place it (export name, table slot).
type CompiledFunc struct {
	Name                string
	Text                string
	NeedsFmod           bool
	NeedsIsAsciiSpace   bool
	NeedsAsciiCaseShift bool
}

// CompileFunction lowers fn (nil for the module-level statement list) into
// a complete `(func ...)` definition.
func CompileFunction(ctx *Context, fn *ast.Arrow, body []ast.Stmt) (*CompiledFunc, error) {
	fr := localsForFunc(ctx, fn)

	fc := &funcCodegen{ctx: ctx, frame: fr, b: runtime.NewBuilder()}

	ctx.rememberFrame(fn, fr)

	name := "$init"
	if fn != nil {
		name = ctx.ArrowName(fn)
	}

	paramNames := map[string]bool{}

	fc.b.Open("(func %s", name)

	if fr.needsEnvIn {
		fc.b.Line("(param $env f64)")
	}

	if fn != nil {
		for _, p := range fn.Params {
			paramNames[p.Name] = true
			fc.b.Line("(param %s %s)", wasmLocalName(p.Name), fr.kindOf(p.Name).WasmValType())
		}
	}

	resultKind := value.KindF64
	if fn != nil {
		resultKind = ctx.Info.Returns[fn]
	}
	fc.b.Line("(result %s)", resultKind.WasmValType())

	for _, name := range fr.allLocalDecls(paramNames) {
		fc.b.Line("(local %s %s)", wasmLocalName(name), fr.kindOf(name).WasmValType())
	}

	fc.declareScratchLocals()

	if err := fc.emitPrologue(fn); err != nil {
		return nil, err
	}

	for _, s := range body {
		if err := fc.emitStmt(s); err != nil {
			return nil, err
		}
	}

	fc.emitImplicitReturn(resultKind)

	fc.b.Close(")")

	return &CompiledFunc{
		Name:                name,
		Text:                fc.b.String(),
		NeedsFmod:           fc.needsFmod,
		NeedsIsAsciiSpace:   fc.needsIsAsciiSpace,
		NeedsAsciiCaseShift: fc.needsAsciiCaseShift,
	}, nil
}

// declareScratchLocals declares every fixed-name temporary the expression/
// statement emitters above reach for inline (rather than threading a fresh
// name through every call), matching how a single-pass emitter without a
// separate register allocator has to over-declare a small fixed set of
// scratch slots. Unused declarations are harmless; WebAssembly locals are
// zero-initialized and cost nothing when never touched.
func (fc *funcCodegen) declareScratchLocals() {
	f64Scratch := []string{
		"$assign_tmp", "$assign_val", "$logic_tmp", "$optchain_tmp",
		"$tmp_a", "$tmp_b", "$arr_ref", "$obj_ref", "$mem_ref", "$idx_ref",
		"$clo_ref", "$closure_ref", "$hash_ref", "$destruct_src", "$env_self",
		"$iter_ref", "$iter_elem", "$cb_ref", "$result_ref", "$acc",
	}
	i32Scratch := []string{
		"$arr_off", "$obj_off", "$idx_i", "$env_off", "$tmp_a_off", "$tmp_b_off",
		"$clo_off", "$closure_off", "$hash_off", "$destruct_off", "$new_len",
		"$iter_off", "$iter_i", "$iter_len", "$cb_off", "$result_off", "$result_len",
		"$found_i", "$hash_cap", "$hash_used",
	}

	for _, n := range f64Scratch {
		fc.b.Line("(local %s f64)", n)
	}

	for _, n := range i32Scratch {
		fc.b.Line("(local %s i32)", n)
	}
}

// emitPrologue allocates this function's own env record (if it hoists
// anything), copies in every hoisted parameter's initial value, and
// re-exposes every name this function captures from an ancestor by copying
// it from the incoming $env parameter (the immediate lexical parent's own
// record) into this function's own $env_self.
//
// pkg/scope only ever marks a name as Captured on the function exactly one
// lexical level below its true definer, never on any function in between.
// Re-copying a captured value into every intermediate function's own record
// one hop at a time is what makes an arbitrarily deep chain of nested
// functions still resolve a name defined several levels up: each function
// only ever needs to know about its immediate parent's record.
func (fc *funcCodegen) emitPrologue(fn *ast.Arrow) error {
	if !fc.frame.hasEnvRec {
		return nil
	}

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.b.Line("(local.set $env_self (call $%s (i32.const %d) (i32.const %d)))",
		runtime.HelperAlloc, value.OBJECT, fc.frame.envSchema.Size())

	if fn == nil {
		return nil
	}

	for _, p := range fn.Params {
		if !fc.frame.isHoisted(p.Name) {
			continue
		}

		fc.b.Line("(local.get %s)", wasmLocalName(p.Name))
		fc.b.Line("(local.set $assign_tmp)")
		fc.writeEnvSlot("$env_self", fc.frame, p.Name)
	}

	info := fc.ctx.FuncInfo(fn)
	if info == nil || len(info.Captured) == 0 {
		return nil
	}

	parent := fc.ctx.ParentArrow(fn)
	parentFrame := fc.ctx.frameOf(parent)
	if parentFrame == nil {
		return fmt.Errorf("codegen: %s captures a name but its enclosing function has no recorded frame", fn.Name)
	}

	for _, name := range info.Captured {
		if err := fc.readEnvSlot("$env", parentFrame, name); err != nil {
			return err
		}
		fc.b.Line("(local.set $assign_tmp)")
		fc.writeEnvSlot("$env_self", fc.frame, name)
	}

	return nil
}

// emitImplicitReturn supplies a typed zero so a function body that falls
// off the end (every branch already returned, or the body genuinely has no
// trailing return) still produces a value of the declared result kind.
func (fc *funcCodegen) emitImplicitReturn(kind value.Kind) {
	if kind == value.KindI32 {
		fc.b.Line("(i32.const 0)")
	} else {
		fc.b.Line("(f64.const nan:0x8000000000000)")
	}
}
