package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/regexp"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/value"
)

// regexArg resolves args[0] to its (pattern, flags, id) triple: only a
// literal `/pattern/flags` argument is supported, since the matcher
// function a call site dispatches to is chosen at compile time by id, not
// carried at runtime by the f64 handle emitRegexLit assigns a regex value.
func (fc *funcCodegen) regexArg(args []ast.Expr, method string) (*regexp.Pattern, int, error) {
	if len(args) != 1 {
		return nil, 0, fmt.Errorf("codegen: String.%s takes exactly one argument", method)
	}

	lit, ok := args[0].(*ast.RegexLit)
	if !ok {
		return nil, 0, fmt.Errorf("codegen: String.%s requires a literal regex argument, not a value passed through a variable", method)
	}

	pat, err := regexp.Parse(lit.Pattern, lit.Flags)
	if err != nil {
		return nil, 0, fmt.Errorf("codegen: %w", err)
	}

	return pat, fc.ctx.regexID(lit.Pattern, lit.Flags), nil
}

// emitStringSearch lowers `str.search(/re/)` to the matcher's absolute
// match-start offset, or -1 when nothing matched.
func (fc *funcCodegen) emitStringSearch(member *ast.Member, args []ast.Expr) error {
	_, id, err := fc.regexArg(args, "search")
	if err != nil {
		return err
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}

	fc.b.Line("(local.set $found_i (call %s (local.get $arr_ref) (i32.const 0)))", regexp.FuncName(id))
	fc.b.Open("(if (result f64) (i32.ge_s (local.get $found_i) (i32.const 0))")
	fc.b.Line("(then (f64.convert_i32_s (global.get $re%d_match_start)))", id)
	fc.b.Line("(else (f64.const -1))")
	fc.b.Close(")")

	return nil
}

// emitStringMatch lowers `str.match(/re/)` to an array holding the full
// match text followed by each capture group's text (an unmatched optional
// group yields undefined-as-NaN), or canonical NaN when nothing matched.
// The non-global (no `g` flag) single-match form only; a global match
// returning every occurrence is not supported.
func (fc *funcCodegen) emitStringMatch(member *ast.Member, args []ast.Expr) error {
	pat, id, err := fc.regexArg(args, "match")
	if err != nil {
		return err
	}

	if err := fc.loadStringOffsetLen(member.Object); err != nil {
		return err
	}

	fc.b.Line("(local.set $found_i (call %s (local.get $arr_ref) (i32.const 0)))", regexp.FuncName(id))
	fc.b.Open("(if (result f64) (i32.ge_s (local.get $found_i) (i32.const 0))")
	fc.b.Open("(then")

	fc.ctx.Prelude.Require(runtime.HelperAlloc)
	fc.ctx.Prelude.Require(runtime.HelperUnboxOffset)
	fc.ctx.Prelude.Require(runtime.HelperStringSlice)

	n := pat.NumGroups + 1
	fc.b.Line("(local.set $result_ref (call $%s (i32.const %d) (i32.const %d)))", runtime.HelperAlloc, value.ARRAY, n)
	fc.b.Line("(local.set $result_off (call $%s (local.get $result_ref)))", runtime.HelperUnboxOffset)
	fc.b.Line("(i32.store offset=%d (i32.sub (local.get $result_off) (i32.const %d)) (i32.const %d))",
		value.ArrayLengthOffset, value.HeaderSize, n)

	fc.b.Line("(call $%s (local.get $arr_off) (global.get $re%d_match_start) (global.get $re%d_match_end))",
		runtime.HelperStringSlice, id, id)
	fc.b.Line("(f64.store (i32.add (local.get $result_off) (i32.const 0)))")

	for g := 1; g <= pat.NumGroups; g++ {
		fc.b.Open("(if (i32.ge_s (global.get $re%d_cap%d_start) (i32.const 0))", id, g)
		fc.b.Open("(then")
		fc.b.Line("(call $%s (local.get $arr_off) (global.get $re%d_cap%d_start) (global.get $re%d_cap%d_end))",
			runtime.HelperStringSlice, id, g, id, g)
		fc.b.Line("(f64.store (i32.add (local.get $result_off) (i32.const %d)))", g*value.SlotSize)
		fc.b.Close(")")
		fc.b.Open("(else")
		fc.b.Line("(f64.store (i32.add (local.get $result_off) (i32.const %d)) (f64.const nan:0x8000000000000))", g*value.SlotSize)
		fc.b.Close(")")
		fc.b.Close(")")
	}

	fc.b.Line("(local.get $result_ref)")
	fc.b.Close(")")
	fc.b.Line("(else (f64.const nan:0x8000000000000))")
	fc.b.Close(")")

	return nil
}
