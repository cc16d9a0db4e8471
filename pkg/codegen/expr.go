package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/value"
)

// emitExpr lowers ex, leaving exactly one value of ex's inferred kind on
// the stack.
func (fc *funcCodegen) emitExpr(ex ast.Expr) error {
	switch n := ex.(type) {
	case *ast.Literal:
		return fc.emitLiteral(n)
	case *ast.Ident:
		return fc.emitIdentRead(n)
	case *ast.Unary:
		return fc.emitUnary(n)
	case *ast.Binary:
		return fc.emitBinary(n)
	case *ast.Logical:
		return fc.emitLogical(n)
	case *ast.Nullish:
		return fc.emitNullish(n)
	case *ast.Ternary:
		return fc.emitTernary(n)
	case *ast.Assign:
		return fc.emitAssign(n)
	case *ast.Sequence:
		return fc.emitSequence(n)
	case *ast.ArrayLit:
		return fc.emitArrayLit(n)
	case *ast.ObjectLit:
		return fc.emitObjectLit(n)
	case *ast.Member:
		return fc.emitMemberRead(n)
	case *ast.Index:
		return fc.emitIndexRead(n)
	case *ast.OptChain:
		return fc.emitOptChain(n)
	case *ast.Call:
		return fc.emitCall(n)
	case *ast.NewExpr:
		return fc.emitNewExpr(n)
	case *ast.Arrow:
		return fc.emitClosureValue(n)
	case *ast.RegexLit:
		return fc.emitRegexLit(n)
	case *ast.SpreadExpr:
		return fmt.Errorf("codegen: spread only valid inside an array literal or call argument list")
	default:
		return fmt.Errorf("codegen: unhandled expression node %T", ex)
	}
}

func (fc *funcCodegen) kindOf(ex ast.Expr) value.Kind {
	if k, ok := fc.ctx.Info.Expr[ex]; ok {
		return k
	}

	return value.KindF64
}

func (fc *funcCodegen) emitLiteral(n *ast.Literal) error {
	switch n.Kind {
	case ast.LitNumber:
		fc.b.Line("(f64.const %s)", formatFloat(n.Num))
	case ast.LitBool:
		if n.Bool {
			fc.b.Line("(i32.const 1)")
		} else {
			fc.b.Line("(i32.const 0)")
		}
	case ast.LitNull, ast.LitUndefined:
		fc.b.Line("(f64.const nan:0x8000000000000)")
	case ast.LitString:
		return fc.emitStringLiteral(n.Str)
	default:
		return fmt.Errorf("codegen: unhandled literal kind %d", n.Kind)
	}

	return nil
}

// emitStringLiteral packs a short ASCII literal directly as an
// f64.const (value.EncodeShortString, computed at compile time in Go); a
// longer or non-ASCII literal is interned and read from its global, which
// pkg/module initializes with the literal's precomputed heap pointer.
func (fc *funcCodegen) emitStringLiteral(s string) error {
	if isShortASCII(s) {
		bits := value.EncodeShortString([]byte(s))
		fc.b.Line("(f64.reinterpret_i64 (i64.const 0x%x))", bitsOf(bits))
		return nil
	}

	i := fc.ctx.Strings.Intern(s)
	fc.b.Line("(global.get %s)", StringGlobal(i))

	return nil
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}

	return fmt.Sprintf("%g", f)
}

func bitsOf(u uint64) uint64 { return u }

func (fc *funcCodegen) emitIdentRead(n *ast.Ident) error {
	return fc.readName(n.Name)
}

// readName pushes the current value of a binding, resolving it as a plain
// local, a slot of this function's own env record (hoisted or captured),
// or a module global, in that order.
func (fc *funcCodegen) readName(name string) error {
	if fc.frame.isLocal(name) {
		fc.b.Line("(local.get %s)", wasmLocalName(name))
		return nil
	}

	if fc.frame.isHoisted(name) {
		return fc.readEnvSlot("$env_self", fc.frame, name)
	}

	if fc.isGlobal(name) {
		fc.b.Line("(global.get %s)", globalName(name))
		return nil
	}

	return fmt.Errorf("codegen: unresolved identifier %q", name)
}

func (fc *funcCodegen) isGlobal(name string) bool {
	_, ok := fc.ctx.Info.Globals[name]
	return ok
}

func globalName(name string) string { return "$g_" + name }

// readEnvSlot loads name out of the env record referenced by envLocal
// (already on no stack position — envLocal is a WebAssembly local name
// holding the record's f64 reference), using f the owning frame's schema.
func (fc *funcCodegen) readEnvSlot(envLocal string, f *frame, name string) error {
	off := f.envOffset(name) * value.SlotSize
	kind := f.kindOf(name)

	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $env_off (call $%s (local.get %s)))", runtime.HelperUnboxOffset, envLocal)

	if kind == value.KindI32 {
		fc.b.Line("(i32.trunc_f64_s (f64.load offset=%d (local.get $env_off)))", off)
	} else {
		fc.b.Line("(f64.load offset=%d (local.get $env_off))", off)
	}

	return nil
}

func (fc *funcCodegen) writeEnvSlot(envLocal string, f *frame, name string) {
	off := f.envOffset(name) * value.SlotSize
	kind := f.kindOf(name)

	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $env_off (call $%s (local.get %s)))", runtime.HelperUnboxOffset, envLocal)

	if kind == value.KindI32 {
		fc.b.Line("(f64.store offset=%d (local.get $env_off) (f64.convert_i32_s (local.get $assign_tmp)))", off)
	} else {
		fc.b.Line("(f64.store offset=%d (local.get $env_off) (local.get $assign_tmp))", off)
	}
}

func (fc *funcCodegen) emitUnary(n *ast.Unary) error {
	switch n.Op {
	case "-":
		if err := fc.emitExpr(n.Operand); err != nil {
			return err
		}
		fc.b.Line("(f64.neg)")
	case "+":
		return fc.emitExpr(n.Operand)
	case "!":
		if err := fc.emitExpr(n.Operand); err != nil {
			return err
		}
		fc.emitTruthToBool(n.Operand)
		fc.b.Line("(i32.eqz)")
	case "~":
		if err := fc.emitExpr(n.Operand); err != nil {
			return err
		}
		fc.b.Line("(f64.convert_i32_s (i32.xor (i32.trunc_f64_s) (i32.const -1)))")
	case "typeof":
		return fc.emitTypeof(n.Operand)
	default:
		return fmt.Errorf("codegen: unsupported unary operator %q", n.Op)
	}

	return nil
}

// emitTruthToBool replaces the reference/number value already on the stack
// (of operand's kind) with an i32 boolean, consuming it.
func (fc *funcCodegen) emitTruthToBool(operand ast.Expr) {
	switch fc.kindOf(operand) {
	case value.KindI32:
		fc.b.Line("(i32.ne (i32.const 0))")
	case value.KindF64:
		fc.b.Line("(f64.ne (f64.const 0))")
	default:
		fc.ctx.Prelude.Require(runtime.HelperIsPtr)
		fc.b.Line("(call $%s)", runtime.HelperIsPtr)
	}
}

func (fc *funcCodegen) emitTypeof(operand ast.Expr) error {
	kind := fc.kindOf(operand)

	if err := fc.emitExpr(operand); err != nil {
		return err
	}

	fc.b.Line("(drop)")

	switch kind {
	case value.KindI32, value.KindF64:
		return fc.emitStringLiteral("number")
	case value.KindString:
		return fc.emitStringLiteral("string")
	default:
		return fc.emitStringLiteral("object")
	}
}

func (fc *funcCodegen) emitBinary(n *ast.Binary) error {
	switch n.Op {
	case "+":
		return fc.emitPlus(n)
	case "-", "*", "/", "%", "**":
		return fc.emitArith(n)
	case "<", "<=", ">", ">=":
		return fc.emitCompare(n)
	case "==", "!=":
		return fc.emitEquality(n)
	case "&", "|", "^", "<<", ">>", ">>>":
		return fc.emitBitwise(n)
	default:
		return fmt.Errorf("codegen: unsupported binary operator %q", n.Op)
	}
}

// emitPlus handles both numeric addition and string concatenation,
// dispatching on the statically inferred operand kind (mixed-kind `+` is
// rejected earlier, by pkg/types).
func (fc *funcCodegen) emitPlus(n *ast.Binary) error {
	if fc.kindOf(n.Left) == value.KindString {
		return fc.emitStringConcat(n)
	}

	return fc.emitArith(n)
}

// emitStringConcat evaluates both operands, then assembles the
// $string_concat(a_off, a_len, b_off, b_len) call, reading each string's
// length out of its heap header.
func (fc *funcCodegen) emitStringConcat(n *ast.Binary) error {
	fc.ctx.Prelude.Require(runtime.HelperStringConcat)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)

	if err := fc.emitExpr(n.Left); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_a)")

	if err := fc.emitExpr(n.Right); err != nil {
		return err
	}
	fc.b.Line("(local.set $tmp_b)")

	fc.b.Line("(local.set $tmp_a_off (call $%s (local.get $tmp_a)))", runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $tmp_b_off (call $%s (local.get $tmp_b)))", runtime.HelperUnboxOffset)

	fc.b.Open("(call $%s", runtime.HelperStringConcat)
	fc.b.Line("(local.get $tmp_a_off)")
	fc.b.Line("(i32.load offset=%d (i32.sub (local.get $tmp_a_off) (i32.const %d)))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Line("(local.get $tmp_b_off)")
	fc.b.Line("(i32.load offset=%d (i32.sub (local.get $tmp_b_off) (i32.const %d)))",
		value.ArrayLengthOffset, value.HeaderSize)
	fc.b.Close(")")

	return nil
}

func (fc *funcCodegen) emitArith(n *ast.Binary) error {
	if err := fc.emitExpr(n.Left); err != nil {
		return err
	}
	if err := fc.emitExpr(n.Right); err != nil {
		return err
	}

	switch n.Op {
	case "-":
		fc.b.Line("(f64.sub)")
	case "*":
		fc.b.Line("(f64.mul)")
	case "/":
		fc.b.Line("(f64.div)")
	case "%":
		fc.b.Line("(call $fmod)")
		fc.requireFmod()
	case "**":
		fc.ctx.Prelude.Require(runtime.HelperPow)
		fc.b.Line("(call $%s)", runtime.HelperPow)
	case "+":
		fc.b.Line("(f64.add)")
	}

	return nil
}

// requireFmod records that this module needs the $fmod helper. It is kept
// distinct from Prelude.Require: fmod has no natural home in pkg/runtime's
// dependency graph (it's a single leaf helper with no further deps), so
// program.go emits it directly into every module that uses `%` rather than
// routing it through the Prelude.
func (fc *funcCodegen) requireFmod() {
	fc.needsFmod = true
}

func (fc *funcCodegen) emitCompare(n *ast.Binary) error {
	if err := fc.emitExpr(n.Left); err != nil {
		return err
	}
	if err := fc.emitExpr(n.Right); err != nil {
		return err
	}

	switch n.Op {
	case "<":
		fc.b.Line("(f64.lt)")
	case "<=":
		fc.b.Line("(f64.le)")
	case ">":
		fc.b.Line("(f64.gt)")
	case ">=":
		fc.b.Line("(f64.ge)")
	}

	return nil
}

func (fc *funcCodegen) emitEquality(n *ast.Binary) error {
	leftKind := fc.kindOf(n.Left)

	if err := fc.emitExpr(n.Left); err != nil {
		return err
	}
	if err := fc.emitExpr(n.Right); err != nil {
		return err
	}

	if leftKind == value.KindString {
		fc.ctx.Prelude.Require(runtime.HelperStringEq)
		fc.b.Line("(call $%s)", runtime.HelperStringEq)
	} else if leftKind == value.KindI32 {
		if n.Op == "==" {
			fc.b.Line("(i32.eq)")
		} else {
			fc.b.Line("(i32.ne)")
		}
		return nil
	} else {
		if n.Op == "==" {
			fc.b.Line("(f64.eq)")
		} else {
			fc.b.Line("(f64.ne)")
		}
		return nil
	}

	if n.Op == "!=" {
		fc.b.Line("(i32.eqz)")
	}

	return nil
}

func (fc *funcCodegen) emitBitwise(n *ast.Binary) error {
	if err := fc.emitExpr(n.Left); err != nil {
		return err
	}
	fc.b.Line("(i32.trunc_f64_s)")
	if err := fc.emitExpr(n.Right); err != nil {
		return err
	}
	fc.b.Line("(i32.trunc_f64_s)")

	switch n.Op {
	case "&":
		fc.b.Line("(i32.and)")
	case "|":
		fc.b.Line("(i32.or)")
	case "^":
		fc.b.Line("(i32.xor)")
	case "<<":
		fc.b.Line("(i32.shl)")
	case ">>":
		fc.b.Line("(i32.shr_s)")
	case ">>>":
		fc.b.Line("(i32.shr_u)")
	}

	fc.b.Line("(f64.convert_i32_s)")

	return nil
}

// emitLogical lowers && / || to an if/else of conciliated kind, short-
// circuiting the right operand's evaluation.
func (fc *funcCodegen) emitLogical(n *ast.Logical) error {
	kind := fc.kindOf(n)
	wasmTy := kind.WasmValType()

	if err := fc.emitExpr(n.Left); err != nil {
		return err
	}
	fc.b.Line("(local.set $logic_tmp)")
	fc.b.Line("(local.get $logic_tmp)")

	leftBool := "(local.get $logic_tmp)"
	_ = leftBool

	fc.emitTruthToBool(n.Left)

	if n.Op == "||" {
		fc.b.Open("(if (result %s)", wasmTy)
		fc.b.Line("(then (local.get $logic_tmp))")
		fc.b.Open("(else")
		if err := fc.emitExpr(n.Right); err != nil {
			return err
		}
		fc.b.Close(")")
		fc.b.Close(")")
		return nil
	}

	fc.b.Open("(if (result %s)", wasmTy)
	fc.b.Open("(then")
	if err := fc.emitExpr(n.Right); err != nil {
		return err
	}
	fc.b.Close(")")
	fc.b.Line("(else (local.get $logic_tmp))")
	fc.b.Close(")")

	return nil
}

// emitNullish lowers `??`: the left arm only short-circuits out of a
// literal null/undefined, not falsy-but-defined values like 0 or "".
func (fc *funcCodegen) emitNullish(n *ast.Nullish) error {
	wasmTy := fc.kindOf(n).WasmValType()

	if err := fc.emitExpr(n.Left); err != nil {
		return err
	}
	fc.b.Line("(local.set $logic_tmp)")

	fc.b.Line("(i64.eq (i64.reinterpret_f64 (local.get $logic_tmp)) (i64.const 0x%x))", value.CanonicalNaN)
	fc.b.Open("(if (result %s)", wasmTy)
	fc.b.Open("(then")
	if err := fc.emitExpr(n.Right); err != nil {
		return err
	}
	fc.b.Close(")")
	fc.b.Line("(else (local.get $logic_tmp))")
	fc.b.Close(")")

	return nil
}

func (fc *funcCodegen) emitTernary(n *ast.Ternary) error {
	wasmTy := fc.kindOf(n).WasmValType()

	if err := fc.emitExpr(n.Cond); err != nil {
		return err
	}
	fc.emitTruthToBool(n.Cond)

	fc.b.Open("(if (result %s)", wasmTy)
	fc.b.Open("(then")
	if err := fc.emitExpr(n.Then); err != nil {
		return err
	}
	fc.b.Close(")")
	fc.b.Open("(else")
	if err := fc.emitExpr(n.Else); err != nil {
		return err
	}
	fc.b.Close(")")
	fc.b.Close(")")

	return nil
}

func (fc *funcCodegen) emitSequence(n *ast.Sequence) error {
	for i, e := range n.Exprs {
		if i > 0 {
			fc.b.Line("(drop)")
		}
		if err := fc.emitExpr(e); err != nil {
			return err
		}
	}

	return nil
}

func (fc *funcCodegen) emitAssign(n *ast.Assign) error {
	if err := fc.emitExpr(n.Value); err != nil {
		return err
	}

	switch target := n.Target.(type) {
	case *ast.Ident:
		fc.b.Line("(local.tee $assign_tmp)")
		return fc.writeName(target.Name)
	case *ast.Index:
		return fc.emitIndexWrite(target)
	case *ast.Member:
		return fc.emitMemberWrite(target)
	default:
		return diag.New(diag.AssignmentTargetNotIdentifier, n.Span(),
			"assignment target must be an identifier, array index, or object property")
	}
}

func (fc *funcCodegen) writeName(name string) error {
	if fc.frame.isLocal(name) {
		fc.b.Line("(local.set %s (local.get $assign_tmp))", wasmLocalName(name))
		return nil
	}

	if fc.frame.isHoisted(name) {
		fc.writeEnvSlot("$env_self", fc.frame, name)
		return nil
	}

	if fc.isGlobal(name) {
		fc.b.Line("(global.set %s (local.get $assign_tmp))", globalName(name))
		return nil
	}

	return fmt.Errorf("codegen: unresolved assignment target %q", name)
}

func (fc *funcCodegen) emitArrayLit(n *ast.ArrayLit) error {
	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)

	fc.b.Line("(local.set $arr_ref (call $%s (i32.const %d) (i32.const %d)))",
		runtime.HelperAlloc, value.ARRAY, len(n.Elements))
	fc.b.Line("(local.set $arr_off (call $%s (local.get $arr_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $arr_off) (i32.const %d)) (i32.const %d))",
		value.ArrayLengthOffset, value.HeaderSize, len(n.Elements))

	for i, el := range n.Elements {
		if err := fc.emitExpr(el); err != nil {
			return err
		}
		fc.b.Line("(f64.store (i32.add (local.get $arr_off) (i32.const %d)))", i*value.SlotSize)
	}

	fc.b.Line("(local.get $arr_ref)")

	return nil
}

func (fc *funcCodegen) emitObjectLit(n *ast.ObjectLit) error {
	props := make([]string, len(n.Props))
	kinds := make([]value.Kind, len(n.Props))

	for i, p := range n.Props {
		props[i] = p.Name
		kinds[i] = fc.kindOf(p.Value)
	}

	schema, err := fc.ctx.Schema.Intern(props, kinds)
	if err != nil {
		return err
	}

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)

	fc.b.Line("(local.set $obj_ref (call $%s (i32.const %d) (i32.const %d)))",
		runtime.HelperAlloc, value.OBJECT, schema.Size())
	fc.b.Line("(local.set $obj_off (call $%s (local.get $obj_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(i32.store16 offset=%d (i32.sub (local.get $obj_off) (i32.const %d)) (i32.const %d))",
		value.ObjectSchemaIDOffset, value.HeaderSize, schema.ID)

	for _, p := range n.Props {
		off, _ := schema.Offset(p.Name)
		if err := fc.emitExpr(p.Value); err != nil {
			return err
		}
		fc.b.Line("(f64.store (i32.add (local.get $obj_off) (i32.const %d)))", off*value.SlotSize)
	}

	fc.b.Line("(local.get $obj_ref)")

	return nil
}

// emitMemberRead handles `a.b`: the Math/Number namespace constants (folded
// away earlier by pkg/types when possible), `.length` on arrays/strings,
// and a fixed schema-offset object property load.
func (fc *funcCodegen) emitMemberRead(n *ast.Member) error {
	if id, ok := n.Object.(*ast.Ident); ok && (id.Name == "Math" || id.Name == "Number") {
		return fc.emitNamespaceConst(id.Name, n.Name)
	}

	if n.Name == "length" {
		return fc.emitLengthRead(n.Object)
	}

	objKind := fc.kindOf(n.Object)
	if err := fc.emitExpr(n.Object); err != nil {
		return err
	}

	if objKind != value.KindObject {
		return fmt.Errorf("codegen: property access on non-object kind %s", objKind)
	}

	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $mem_ref)")

	schema := fc.schemaForMember(n)
	if schema == nil {
		return fmt.Errorf("codegen: no schema recorded for property access %q", n.Name)
	}

	off, ok := schema.Offset(n.Name)
	if !ok {
		return fmt.Errorf("codegen: schema has no property %q", n.Name)
	}

	fc.b.Line("(f64.load offset=%d (call $%s (local.get $mem_ref)))", off*value.SlotSize, runtime.HelperUnboxOffset)

	return nil
}

// schemaForMember resolves the schema the inferencer already pinned for
// this member expression's receiver; pkg/types attaches the receiver's own
// inferred ObjectLit literal when it can be tracked at a single allocation
// site, which is the only shape stdlib-free object property access needs to
// support.
func (fc *funcCodegen) schemaForMember(n *ast.Member) *value.Schema {
	if lit, ok := n.Object.(*ast.ObjectLit); ok {
		props := make([]string, len(lit.Props))
		kinds := make([]value.Kind, len(lit.Props))

		for i, p := range lit.Props {
			props[i] = p.Name
			kinds[i] = fc.kindOf(p.Value)
		}

		s, _ := fc.ctx.Schema.Intern(props, kinds)
		return s
	}

	return fc.ctx.schemaHint(n.Object)
}

func (fc *funcCodegen) emitLengthRead(obj ast.Expr) error {
	if err := fc.emitExpr(obj); err != nil {
		return err
	}

	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(f64.convert_i32_s (i32.load offset=%d (i32.sub (call $%s) (i32.const %d))))",
		value.ArrayLengthOffset, runtime.HelperUnboxOffset, value.HeaderSize)

	return nil
}

func (fc *funcCodegen) emitNamespaceConst(ns, name string) error {
	switch ns + "." + name {
	case "Math.PI":
		fc.b.Line("(f64.const 3.141592653589793)")
	case "Math.E":
		fc.b.Line("(f64.const 2.718281828459045)")
	case "Number.MAX_SAFE_INTEGER":
		fc.b.Line("(f64.const 9007199254740991)")
	case "Number.MIN_SAFE_INTEGER":
		fc.b.Line("(f64.const -9007199254740991)")
	case "Number.EPSILON":
		fc.b.Line("(f64.const 2.220446049250313e-16)")
	default:
		return fmt.Errorf("codegen: unknown namespace constant %s.%s", ns, name)
	}

	return nil
}

func (fc *funcCodegen) emitIndexRead(n *ast.Index) error {
	if err := fc.emitExpr(n.Object); err != nil {
		return err
	}

	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $idx_ref)")

	if err := fc.emitExpr(n.Key); err != nil {
		return err
	}
	fc.b.Line("(i32.trunc_f64_s)")
	fc.b.Line("(local.set $idx_i)")

	kind := fc.kindOf(n)
	fc.b.Line("(f64.load (i32.add (call $%s (local.get $idx_ref)) (i32.mul (local.get $idx_i) (i32.const %d))))",
		runtime.HelperUnboxOffset, value.SlotSize)

	if kind == value.KindI32 {
		fc.b.Line("(i32.trunc_f64_s)")
	}

	return nil
}

func (fc *funcCodegen) emitIndexWrite(n *ast.Index) error {
	fc.b.Line("(local.set $assign_val)")

	if err := fc.emitExpr(n.Object); err != nil {
		return err
	}
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $idx_ref)")

	if err := fc.emitExpr(n.Key); err != nil {
		return err
	}
	fc.b.Line("(i32.trunc_f64_s)")
	fc.b.Line("(local.set $idx_i)")

	fc.b.Line("(f64.store (i32.add (call $%s (local.get $idx_ref)) (i32.mul (local.get $idx_i) (i32.const %d))) (local.get $assign_val))",
		runtime.HelperUnboxOffset, value.SlotSize)
	fc.b.Line("(local.get $assign_val)")

	return nil
}

func (fc *funcCodegen) emitMemberWrite(n *ast.Member) error {
	fc.b.Line("(local.set $assign_val)")

	schema := fc.schemaForMember(n)
	if schema == nil {
		return fmt.Errorf("codegen: no schema recorded for property write %q", n.Name)
	}

	off, ok := schema.Offset(n.Name)
	if !ok {
		return fmt.Errorf("codegen: schema has no property %q", n.Name)
	}

	if err := fc.emitExpr(n.Object); err != nil {
		return err
	}
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(f64.store (i32.add (call $%s) (i32.const %d)) (local.get $assign_val))",
		runtime.HelperUnboxOffset, off*value.SlotSize)
	fc.b.Line("(local.get $assign_val)")

	return nil
}

// emitOptChain lowers `a?.b`/`a?.[i]`: a typed zero when Object is the
// canonical-NaN null/undefined sentinel, otherwise the normal member/index
// read. Object is evaluated exactly once, into $optchain_tmp, since it may
// carry side effects.
func (fc *funcCodegen) emitOptChain(n *ast.OptChain) error {
	wasmTy := fc.kindOf(n).WasmValType()

	if err := fc.emitExpr(n.Object); err != nil {
		return err
	}
	fc.b.Line("(local.set $optchain_tmp)")

	fc.b.Line("(i64.eq (i64.reinterpret_f64 (local.get $optchain_tmp)) (i64.const 0x%x))", value.CanonicalNaN)
	fc.b.Open("(if (result %s)", wasmTy)
	fc.b.Line("(then (%s))", zeroFor(wasmTy))
	fc.b.Open("(else")

	var err error
	if n.Key != nil {
		err = fc.emitOptChainIndex(n)
	} else {
		err = fc.emitOptChainMember(n)
	}

	fc.b.Close(")")
	fc.b.Close(")")

	return err
}

// emitOptChainIndex/emitOptChainMember are emitIndexRead/emitMemberRead's
// bodies specialized to an Object already evaluated into $optchain_tmp.
func (fc *funcCodegen) emitOptChainIndex(n *ast.OptChain) error {
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $idx_ref (local.get $optchain_tmp))")

	if err := fc.emitExpr(n.Key); err != nil {
		return err
	}
	fc.b.Line("(i32.trunc_f64_s)")
	fc.b.Line("(local.set $idx_i)")

	kind := fc.kindOf(n)
	fc.b.Line("(f64.load (i32.add (call $%s (local.get $idx_ref)) (i32.mul (local.get $idx_i) (i32.const %d))))",
		runtime.HelperUnboxOffset, value.SlotSize)

	if kind == value.KindI32 {
		fc.b.Line("(i32.trunc_f64_s)")
	}

	return nil
}

func (fc *funcCodegen) emitOptChainMember(n *ast.OptChain) error {
	if n.Name == "length" {
		fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
		fc.b.Line("(f64.convert_i32_s (i32.load offset=%d (i32.sub (call $%s (local.get $optchain_tmp)) (i32.const %d))))",
			value.ArrayLengthOffset, runtime.HelperUnboxOffset, value.HeaderSize)
		return nil
	}

	schema := fc.ctx.schemaHint(n.Object)
	if schema == nil {
		return fmt.Errorf("codegen: no schema recorded for optional property access %q", n.Name)
	}

	off, ok := schema.Offset(n.Name)
	if !ok {
		return fmt.Errorf("codegen: schema has no property %q", n.Name)
	}

	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(f64.load offset=%d (call $%s (local.get $optchain_tmp)))", off*value.SlotSize, runtime.HelperUnboxOffset)

	return nil
}

func zeroFor(wasmTy string) string {
	if wasmTy == "i32" {
		return "i32.const 0"
	}

	return "f64.const nan:0x8000000000000"
}
