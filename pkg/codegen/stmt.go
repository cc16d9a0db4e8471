package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/value"
)

// emitStmt lowers one statement, leaving nothing on the value stack.
func (fc *funcCodegen) emitStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		if err := fc.emitExpr(n.Expr); err != nil {
			return err
		}
		fc.b.Line("(drop)")
		return nil
	case *ast.LetDecl:
		return fc.emitLetDecl(n)
	case *ast.Block:
		return fc.emitBlock(n)
	case *ast.If:
		return fc.emitIf(n)
	case *ast.For:
		return fc.emitFor(n)
	case *ast.While:
		return fc.emitWhile(n)
	case *ast.Return:
		return fc.emitReturn(n)
	case *ast.Break:
		fc.b.Line("(br %s)", fc.loopEnd())
		return nil
	case *ast.Continue:
		fc.b.Line("(br %s)", fc.loopContinue())
		return nil
	case *ast.FuncDecl:
		// Nested named function declarations are emitted as their own
		// top-level wasm functions by program.go's whole-program walk, not
		// inline where they're declared; nothing to do at the use site
		// beyond registering the closure-table slot if it's ever taken as a
		// value, which emitClosureValue/emitDirectCall handle lazily.
		return nil
	case *ast.ExportDecl:
		return fc.emitStmt(n.Decl)
	default:
		return fmt.Errorf("codegen: unhandled statement node %T", s)
	}
}

func (fc *funcCodegen) emitBlock(n *ast.Block) error {
	for _, s := range n.Stmts {
		if err := fc.emitStmt(s); err != nil {
			return err
		}
	}

	return nil
}

// emitLetDecl initializes each binding. A destructuring pattern is expanded
// element-by-element against a temporary holding the initializer; a plain
// name bound directly from an object literal also registers that literal's
// schema, so later property reads through the name resolve without
// re-deriving the literal's shape.
func (fc *funcCodegen) emitLetDecl(n *ast.LetDecl) error {
	for _, bind := range n.Bindings {
		if bind.Pattern != nil {
			if err := fc.emitPatternBinding(bind.Pattern, bind.Init); err != nil {
				return err
			}
			continue
		}

		if n, ok := bind.Init.(*ast.NewExpr); ok {
			if tag, ok := fc.ctx.collTag(n); ok {
				fc.ctx.rememberCollTag(bind.Name, tag)
			}
		}

		if lit, ok := bind.Init.(*ast.ObjectLit); ok {
			props := make([]string, len(lit.Props))
			kinds := make([]value.Kind, len(lit.Props))
			for i, p := range lit.Props {
				props[i] = p.Name
				kinds[i] = fc.kindOf(p.Value)
			}
			if schema, err := fc.ctx.Schema.Intern(props, kinds); err == nil {
				fc.ctx.rememberSchema(bind.Name, schema)
			}
		}

		if err := fc.emitExpr(bind.Init); err != nil {
			return err
		}

		if err := fc.storeName(bind.Name); err != nil {
			return err
		}
	}

	return nil
}

// storeName writes the value already on the stack into a freshly
// initialized binding (a local, an env slot of this function, or a module
// global — the same three homes readName resolves from).
func (fc *funcCodegen) storeName(name string) error {
	if fc.frame.isLocal(name) {
		fc.b.Line("(local.set %s)", wasmLocalName(name))
		return nil
	}

	if fc.frame.isHoisted(name) {
		fc.b.Line("(local.set $assign_tmp)")
		fc.writeEnvSlot("$env_self", fc.frame, name)
		return nil
	}

	if fc.isGlobal(name) {
		fc.b.Line("(global.set %s)", globalName(name))
		return nil
	}

	return fmt.Errorf("codegen: unresolved declaration target %q", name)
}

// emitPatternBinding expands an array/object destructuring pattern against
// init, evaluated once into a temporary. A nil init means the source
// reference is already sitting in $destruct_src (a nested sub-pattern
// recursing from bindPatternElem).
func (fc *funcCodegen) emitPatternBinding(pat *ast.Pattern, init ast.Expr) error {
	var objSchema *value.Schema

	if init != nil {
		if pat.Kind == ast.PatternObject {
			objSchema = fc.schemaOfExpr(init)
		}

		if err := fc.emitExpr(init); err != nil {
			return err
		}
		fc.b.Line("(local.set $destruct_src)")
	}

	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.b.Line("(local.set $destruct_off (call $%s (local.get $destruct_src)))", runtime.HelperUnboxOffset)

	switch pat.Kind {
	case ast.PatternArray:
		return fc.emitArrayPatternElems(pat.Elems)
	case ast.PatternObject:
		return fc.emitObjectPatternElems(pat.Elems, objSchema)
	default:
		return fmt.Errorf("codegen: unhandled pattern kind %d", pat.Kind)
	}
}

// schemaOfExpr derives an object literal's own schema directly, or falls
// back to Context's last-assignment hint for a plain identifier.
func (fc *funcCodegen) schemaOfExpr(ex ast.Expr) *value.Schema {
	if lit, ok := ex.(*ast.ObjectLit); ok {
		props := make([]string, len(lit.Props))
		kinds := make([]value.Kind, len(lit.Props))
		for i, p := range lit.Props {
			props[i] = p.Name
			kinds[i] = fc.kindOf(p.Value)
		}
		s, _ := fc.ctx.Schema.Intern(props, kinds)
		return s
	}

	return fc.ctx.schemaHint(ex)
}

func (fc *funcCodegen) emitArrayPatternElems(elems []ast.PatternElem) error {
	for i, el := range elems {
		if el.Rest {
			return fmt.Errorf("codegen: rest elements in destructuring are not yet supported")
		}

		fc.b.Line("(f64.load (i32.add (local.get $destruct_off) (i32.const %d)))", i*value.SlotSize)

		if err := fc.bindPatternElem(el); err != nil {
			return err
		}
	}

	return nil
}

func (fc *funcCodegen) emitObjectPatternElems(elems []ast.PatternElem, schema *value.Schema) error {
	for _, el := range elems {
		if el.Rest {
			return fmt.Errorf("codegen: rest properties in destructuring are not yet supported")
		}

		if schema == nil {
			return fmt.Errorf("codegen: object destructuring needs a known source schema")
		}

		off, ok := schema.Offset(el.Key)
		if !ok {
			return fmt.Errorf("codegen: schema has no property %q", el.Key)
		}

		fc.b.Line("(f64.load (i32.add (local.get $destruct_off) (i32.const %d)))", off*value.SlotSize)

		if err := fc.bindPatternElem(el); err != nil {
			return err
		}
	}

	return nil
}

func (fc *funcCodegen) bindPatternElem(el ast.PatternElem) error {
	if el.Nested != nil {
		fc.b.Line("(local.set $destruct_src)")
		return fc.emitPatternBinding(el.Nested, nil)
	}

	return fc.storeName(el.Name)
}

func (fc *funcCodegen) emitIf(n *ast.If) error {
	if err := fc.emitExpr(n.Cond); err != nil {
		return err
	}
	fc.emitTruthToBool(n.Cond)

	if n.Els == nil {
		fc.b.Open("(if")
		fc.b.Open("(then")
		if err := fc.emitStmt(n.Then); err != nil {
			return err
		}
		fc.b.Close(")")
		fc.b.Close(")")
		return nil
	}

	fc.b.Open("(if")
	fc.b.Open("(then")
	if err := fc.emitStmt(n.Then); err != nil {
		return err
	}
	fc.b.Close(")")
	fc.b.Open("(else")
	if err := fc.emitStmt(n.Els); err != nil {
		return err
	}
	fc.b.Close(")")
	fc.b.Close(")")

	return nil
}

// emitWhile/emitFor both lower to a block/loop pair: the outer `block`
// is `break`'s target, the inner `loop` re-enters on a true condition and
// is `continue`'s target for `while` (a `for` loop's continue instead
// targets a dedicated step label, since the step clause must still run).
func (fc *funcCodegen) emitWhile(n *ast.While) error {
	end := fc.ctx.Label("while_end")
	loop := fc.ctx.Label("while_loop")
	n.Label = loop

	fc.pushLoop(end, loop)
	defer fc.popLoop()

	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)

	if err := fc.emitExpr(n.Cond); err != nil {
		return err
	}
	fc.emitTruthToBool(n.Cond)
	fc.b.Line("(i32.eqz)")
	fc.b.Line("(br_if %s)", end)

	if err := fc.emitStmt(n.Body); err != nil {
		return err
	}

	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	return nil
}

// emitFor wraps the body in its own inner `block`, used as `continue`'s
// target: `continue` compiles to a forward `br` out of that block, which
// lands right before the step clause and the loop's back-edge, exactly
// where a C-style for loop's continue needs to resume.
func (fc *funcCodegen) emitFor(n *ast.For) error {
	end := fc.ctx.Label("for_end")
	loop := fc.ctx.Label("for_loop")
	cont := fc.ctx.Label("for_continue")
	n.Label = loop

	if n.Init != nil {
		if err := fc.emitStmt(n.Init); err != nil {
			return err
		}
	}

	fc.pushLoop(end, cont)
	defer fc.popLoop()

	fc.b.Open("(block %s", end)
	fc.b.Open("(loop %s", loop)

	if n.Cond != nil {
		if err := fc.emitExpr(n.Cond); err != nil {
			return err
		}
		fc.emitTruthToBool(n.Cond)
		fc.b.Line("(i32.eqz)")
		fc.b.Line("(br_if %s)", end)
	}

	fc.b.Open("(block %s", cont)
	if err := fc.emitStmt(n.Body); err != nil {
		return err
	}
	fc.b.Close(")")

	if n.Step != nil {
		if err := fc.emitExpr(n.Step); err != nil {
			return err
		}
		fc.b.Line("(drop)")
	}

	fc.b.Line("(br %s)", loop)
	fc.b.Close(")")
	fc.b.Close(")")

	return nil
}

func (fc *funcCodegen) emitReturn(n *ast.Return) error {
	if n.Value == nil {
		fc.b.Line("(return)")
		return nil
	}

	if err := fc.emitExpr(n.Value); err != nil {
		return err
	}
	fc.b.Line("(return)")

	return nil
}
