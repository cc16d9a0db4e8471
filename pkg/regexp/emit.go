package regexp

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/value"
)

// FuncName returns the exported matcher entry point's WebAssembly name for
// the id-th distinct regex literal a compilation referenced (ids are
// assigned in first-use order by pkg/codegen's Context.regexID, so
// pkg/codegen can reference $re<id>_exec before this package has compiled
// anything, as long as it agrees on the same id).
func FuncName(id int) string { return fmt.Sprintf("$re%d_exec", id) }

// Compile lowers pat into a standalone matcher function `$re<id>_exec(str:
// f64, start: i32) -> i32` plus its supporting globals and internal helper
// functions. The entry point tries the compiled pattern at every code-unit
// offset from start through the string's length (earliest match wins,
// matching search/match's "leftmost" semantics) and returns the absolute
// end offset of the first match, or -1. Capture boundaries and the overall
// match's start offset are left in this pattern's own dedicated globals
// ($re<id>_match_start, $re<id>_capN_start/$re<id>_capN_end) for the
// caller to read immediately afterward — valid until the next call into
// this same $re<id>_exec, the same single-match-in-flight restriction the
// rest of this runtime's cooperative, non-reentrant execution model
// assumes elsewhere.
//
// Each node compiles, in continuation-passing style, to its own recursive
// WebAssembly function: compiling node with continuation function name K
// produces a function that tries to match node starting at its $pos
// parameter, and on success tail-calls K with the position just past the
// match, returning whatever K returns; on failure it returns -1 without
// calling K at all. Concatenation is right-to-left composition of these
// functions (compile the tail first, then use its function name as the
// head's continuation); alternation tries its left function and falls back
// to its right one; a quantifier's own function recurses into itself for
// "one more repetition" and falls back to its continuation for "stop here".
// This uses the WebAssembly call stack itself as the backtracking save
// stack the pattern's alternatives/quantifiers unwind through on failure —
// a structural substitution for the explicit linear-memory save stack a
// bytecode-interpreted matcher would need, made possible by compiling a
// fixed, statically-known continuation chain per literal rather than an
// interpreted program.
func Compile(id int, pat *Pattern) (string, error) {
	e := &emitter{id: id, b: runtime.NewBuilder(), declared: map[int]bool{}, dotAll: pat.DotAll}

	e.emitGlobals()
	e.emitCharHelpers()

	finalK := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", finalK)
	e.b.Line("(global.set $re%d_match_end (local.get $pos))", id)
	e.b.Line("(local.get $pos)")
	e.b.Close(")")

	rootFn, err := e.compile(pat.Root, finalK)
	if err != nil {
		return "", err
	}

	e.emitExec(rootFn)

	return e.b.String(), nil
}

type emitter struct {
	id       int
	b        *runtime.Builder
	counter  int
	declared map[int]bool // groups whose capture globals are declared
	maxCap   int          // highest declared group index
	dotAll   bool
}

func (e *emitter) newFuncName() string {
	e.counter++
	return fmt.Sprintf("$re%d_f%d", e.id, e.counter)
}

func (e *emitter) emitGlobals() {
	e.b.Line("(global $re%d_str_off (mut i32) (i32.const 0))", e.id)
	e.b.Line("(global $re%d_str_len (mut i32) (i32.const 0))", e.id)
	e.b.Line("(global $re%d_match_start (mut i32) (i32.const -1))", e.id)
	e.b.Line("(global $re%d_match_end (mut i32) (i32.const -1))", e.id)
}

// capGlobal returns the i32 global name backing group idx's start or end
// (endSide=true) boundary. Declared lazily, once per group, by
// declareCapGlobal when the first Group or Backref node naming it is
// compiled, since a pattern may use fewer groups than another literal in
// the same program.
func (e *emitter) capGlobal(idx int, endSide bool) string {
	side := "start"
	if endSide {
		side = "end"
	}
	return fmt.Sprintf("$re%d_cap%d_%s", e.id, idx, side)
}

// emitCharHelpers defines $re<id>_char(pos) -> code unit at pos, and
// $re<id>_is_word(c) -> 1 iff c is an ASCII word character ([A-Za-z0-9_]),
// the two small primitives every atom-level matcher function above reads
// through rather than re-deriving the load/range-check inline.
func (e *emitter) emitCharHelpers() {
	e.b.Open("(func $re%d_char (param $pos i32) (result i32)", e.id)
	e.b.Line("(i32.load16_u offset=0 (i32.add (global.get $re%d_str_off) (i32.mul (local.get $pos) (i32.const 2))))", e.id)
	e.b.Close(")")

	e.b.Open("(func $re%d_is_word (param $c i32) (result i32)", e.id)
	e.b.Line("(i32.or (i32.or (i32.and (i32.ge_u (local.get $c) (i32.const 97)) (i32.le_u (local.get $c) (i32.const 122))) (i32.and (i32.ge_u (local.get $c) (i32.const 65)) (i32.le_u (local.get $c) (i32.const 90)))) (i32.or (i32.and (i32.ge_u (local.get $c) (i32.const 48)) (i32.le_u (local.get $c) (i32.const 57))) (i32.eq (local.get $c) (i32.const 95))))")
	e.b.Close(")")
}

func (e *emitter) declareCapGlobal(idx int) {
	if e.declared[idx] {
		return
	}
	e.declared[idx] = true
	if idx > e.maxCap {
		e.maxCap = idx
	}

	e.b.Line("(global %s (mut i32) (i32.const -1))", e.capGlobal(idx, false))
	e.b.Line("(global %s (mut i32) (i32.const -1))", e.capGlobal(idx, true))
}

// emitExec emits the scanning entry point that tries rootFn at every start
// offset, resetting per-attempt capture state so a failed attempt's stale
// writes never leak into a later, successful one.
func (e *emitter) emitExec(rootFn string) {
	e.b.Open("(func %s (param $str f64) (param $start i32) (result i32)", FuncName(e.id))
	e.b.Line("(local $off i32)")
	e.b.Line("(local $len i32)")
	e.b.Line("(local $i i32)")
	e.b.Line("(local $r i32)")

	e.b.Line("(local.set $off (call $%s (local.get $str)))", runtime.HelperUnboxOffset)
	e.b.Line("(global.set $re%d_str_off (local.get $off))", e.id)
	e.b.Line("(local.set $len (i32.load offset=%d (i32.sub (local.get $off) (i32.const %d))))",
		value.ArrayLengthOffset, value.HeaderSize)
	e.b.Line("(global.set $re%d_str_len (local.get $len))", e.id)

	e.b.Line("(local.set $i (local.get $start))")
	e.b.Open("(block $done")
	e.b.Open("(loop $scan")
	e.b.Line("(global.set $re%d_match_start (local.get $i))", e.id)
	for idx := 0; idx <= e.maxCap; idx++ {
		if e.declared[idx] {
			e.b.Line("(global.set %s (i32.const -1))", e.capGlobal(idx, false))
			e.b.Line("(global.set %s (i32.const -1))", e.capGlobal(idx, true))
		}
	}
	e.b.Line("(local.set $r (call %s (local.get $i)))", rootFn)
	e.b.Open("(if (i32.ge_s (local.get $r) (i32.const 0))")
	e.b.Line("(then (return (local.get $r)))")
	e.b.Close(")")
	e.b.Line("(local.set $i (i32.add (local.get $i) (i32.const 1)))")
	e.b.Open("(if (i32.le_s (local.get $i) (local.get $len))")
	e.b.Line("(then (br $scan))")
	e.b.Close(")")
	e.b.Close(")")
	e.b.Close(")")
	e.b.Line("(i32.const -1)")
	e.b.Close(")")
}

// compile lowers node into a fresh function that matches node then tail-
// calls k, returning that function's name.
func (e *emitter) compile(node Node, k string) (string, error) {
	switch n := node.(type) {
	case *Concat:
		return e.compileConcat(n, k)
	case *Alt:
		return e.compileAlt(n, k)
	case *Star:
		return e.compileStar(n, k)
	case *Plus:
		// a+ == a then a*, sharing the same continuation.
		star := &Star{Body: n.Body, Lazy: n.Lazy}
		return e.compile(&Concat{Items: []Node{n.Body, star}}, k)
	case *Opt:
		return e.compileOpt(n, k)
	case *Repeat:
		return e.compileRepeat(n, k)
	case *Group:
		return e.compileGroup(n, k)
	case *Look:
		return e.compileLook(n, k)
	case *Literal:
		return e.compileLiteral(n, k)
	case *AnyChar:
		return e.compileAnyChar(k)
	case *CharClass:
		return e.compileClass(n, k)
	case *AnchorStart:
		return e.compileAnchorStart(k)
	case *AnchorEnd:
		return e.compileAnchorEnd(k)
	case *WordBoundary:
		return e.compileWordBoundary(n, k)
	case *Backref:
		return e.compileBackref(n, k)
	}

	return "", fmt.Errorf("regexp: unhandled node %T", node)
}

// compileConcat composes items right-to-left: the continuation for item i
// is the compiled function for items[i+1:].
func (e *emitter) compileConcat(n *Concat, k string) (string, error) {
	if len(n.Items) == 0 {
		return k, nil
	}

	tail := k
	for i := len(n.Items) - 1; i >= 0; i-- {
		fn, err := e.compile(n.Items[i], tail)
		if err != nil {
			return "", err
		}
		tail = fn
	}

	return tail, nil
}

func (e *emitter) compileAlt(n *Alt, k string) (string, error) {
	leftFn, err := e.compile(n.Left, k)
	if err != nil {
		return "", err
	}
	rightFn, err := e.compile(n.Right, k)
	if err != nil {
		return "", err
	}

	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(local $r i32)")
	e.b.Line("(local.set $r (call %s (local.get $pos)))", leftFn)
	e.b.Open("(if (result i32) (i32.ge_s (local.get $r) (i32.const 0))")
	e.b.Line("(then (local.get $r))")
	e.b.Line("(else (call %s (local.get $pos)))", rightFn)
	e.b.Close(")")
	e.b.Close(")")

	return name, nil
}

// compileStar builds a recursive "match one more, else stop" function. The
// zero-width guard (pos2==pos, with the repetition's start kept in a
// per-star global saved and restored around each body call) prevents
// infinite recursion on a star body that can match without consuming input
// — it refuses a repetition that ends where it began, falling through to
// the continuation instead, the same behavior most engines apply to
// `(a*)*`-style patterns.
func (e *emitter) compileStar(n *Star, k string) (string, error) {
	name := e.newFuncName()
	from := name + "_from"
	afterBody := e.newFuncName()

	e.b.Line("(global %s (mut i32) (i32.const -1))", from)
	e.b.Open("(func %s (param $pos i32) (result i32)", afterBody)
	e.b.Line("(if (result i32) (i32.eq (local.get $pos) (global.get %s)) (then (i32.const -1)) (else (call %s (local.get $pos))))", from, name)
	e.b.Close(")")

	bodyFn, err := e.compile(n.Body, afterBody)
	if err != nil {
		return "", err
	}

	tryBody := fmt.Sprintf("(local.set $saved (global.get %s)) (global.set %s (local.get $pos)) (local.set $r (call %s (local.get $pos))) (global.set %s (local.get $saved))",
		from, from, bodyFn, from)

	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(local $r i32)")
	e.b.Line("(local $saved i32)")

	if n.Lazy {
		e.b.Line("(local.set $r (call %s (local.get $pos)))", k)
		e.b.Open("(if (result i32) (i32.ge_s (local.get $r) (i32.const 0))")
		e.b.Line("(then (local.get $r))")
		e.b.Line("(else %s (local.get $r))", tryBody)
		e.b.Close(")")
	} else {
		e.b.Line("%s", tryBody)
		e.b.Open("(if (result i32) (i32.ge_s (local.get $r) (i32.const 0))")
		e.b.Line("(then (local.get $r))")
		e.b.Line("(else (call %s (local.get $pos)))", k)
		e.b.Close(")")
	}

	e.b.Close(")")

	return name, nil
}

func (e *emitter) compileOpt(n *Opt, k string) (string, error) {
	bodyFn, err := e.compile(n.Body, k)
	if err != nil {
		return "", err
	}

	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(local $r i32)")

	first, second := bodyFn, k
	if n.Lazy {
		first, second = k, bodyFn
	}

	e.b.Line("(local.set $r (call %s (local.get $pos)))", first)
	e.b.Open("(if (result i32) (i32.ge_s (local.get $r) (i32.const 0))")
	e.b.Line("(then (local.get $r))")
	e.b.Line("(else (call %s (local.get $pos)))", second)
	e.b.Close(")")
	e.b.Close(")")

	return name, nil
}

// compileRepeat desugars {min,max} into an explicit chain: min mandatory
// copies of Body followed by (max-min) optional copies (or a trailing Star
// when max is unbounded), each built from the already-implemented
// Concat/Opt/Star compilers rather than a fresh case.
func (e *emitter) compileRepeat(n *Repeat, k string) (string, error) {
	var tail Node = nil

	if n.Max < 0 {
		tail = &Star{Body: n.Body, Lazy: n.Lazy}
	} else {
		for i := 0; i < n.Max-n.Min; i++ {
			if tail == nil {
				tail = &Opt{Body: n.Body, Lazy: n.Lazy}
			} else {
				tail = &Concat{Items: []Node{&Opt{Body: n.Body, Lazy: n.Lazy}, tail}}
			}
		}
	}

	items := make([]Node, 0, n.Min+1)
	for i := 0; i < n.Min; i++ {
		items = append(items, n.Body)
	}
	if tail != nil {
		items = append(items, tail)
	}

	return e.compile(&Concat{Items: items}, k)
}

// compileGroup records the match's start/end offsets into this group's
// capture globals before tail-calling k, so a later backreference or the
// exec entry point's caller can read them back.
func (e *emitter) compileGroup(n *Group, k string) (string, error) {
	e.declareCapGlobal(n.Index)

	recordEnd := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", recordEnd)
	e.b.Line("(global.set %s (local.get $pos))", e.capGlobal(n.Index, true))
	e.b.Line("(call %s (local.get $pos))", k)
	e.b.Close(")")

	bodyFn, err := e.compile(n.Body, recordEnd)
	if err != nil {
		return "", err
	}

	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(global.set %s (local.get $pos))", e.capGlobal(n.Index, false))
	e.b.Line("(call %s (local.get $pos))", bodyFn)
	e.b.Close(")")

	return name, nil
}

// compileLook saves $pos, runs the sub-pattern with a continuation that
// discards whatever position the sub-pattern reached and reports success
// without consuming input, then branches on (negated) success/failure
// before tail-calling k from the original, unconsumed position.
func (e *emitter) compileLook(n *Look, k string) (string, error) {
	succeed := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", succeed)
	e.b.Line("(local.get $pos)")
	e.b.Close(")")

	bodyFn, err := e.compile(n.Body, succeed)
	if err != nil {
		return "", err
	}

	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(local $r i32)")

	if n.Behind {
		// Fixed-width-only lookbehind: probe every start candidate from
		// pos down to 0 and accept if the sub-pattern's own match reaches
		// exactly pos. Variable-length lookbehind is not supported.
		e.b.Line("(local $i i32)")
		e.b.Line("(local.set $i (local.get $pos))")
		e.b.Open("(block $found (result i32)")
		e.b.Open("(loop $back")
		e.b.Line("(local.set $r (call %s (local.get $i)))", bodyFn)
		e.b.Open("(if (i32.eq (local.get $r) (local.get $pos))")
		e.b.Line("(then (br $found (i32.const 1)))")
		e.b.Close(")")
		e.b.Open("(if (i32.gt_s (local.get $i) (i32.const 0))")
		e.b.Open("(then")
		e.b.Line("(local.set $i (i32.sub (local.get $i) (i32.const 1)))")
		e.b.Line("(br $back)")
		e.b.Close(")")
		e.b.Close(")")
		e.b.Line("(br $found (i32.const 0))")
		e.b.Close(")")
		e.b.Close(")")
		e.b.Line("(local.set $r)")
	} else {
		e.b.Line("(local.set $r (call %s (local.get $pos)))", bodyFn)
		e.b.Line("(local.set $r (i32.ge_s (local.get $r) (i32.const 0)))")
	}

	if n.Negate {
		e.b.Line("(local.set $r (i32.eqz (local.get $r)))")
	}

	e.b.Open("(if (result i32) (local.get $r)")
	e.b.Line("(then (call %s (local.get $pos)))", k)
	e.b.Line("(else (i32.const -1))")
	e.b.Close(")")
	e.b.Close(")")

	return name, nil
}

func (e *emitter) compileLiteral(n *Literal, k string) (string, error) {
	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.emitBoundsOk(1)
	e.b.Open("(if (result i32) (i32.eq (call $re%d_char (local.get $pos)) (i32.const %d))", e.id, n.Rune)
	e.b.Line("(then (call %s (i32.add (local.get $pos) (i32.const 1))))", k)
	e.b.Line("(else (i32.const -1))")
	e.b.Close(")")
	e.b.Close(")")

	return name, nil
}

func (e *emitter) compileAnyChar(k string) (string, error) {
	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(local $c i32)")
	e.emitBoundsOk(1)
	if !e.dotAll {
		// Line terminators: \n, \r, U+2028, U+2029.
		e.b.Line("(local.set $c (call $re%d_char (local.get $pos)))", e.id)
		e.b.Line("(if (i32.or (i32.or (i32.eq (local.get $c) (i32.const 10)) (i32.eq (local.get $c) (i32.const 13))) (i32.eq (i32.or (local.get $c) (i32.const 1)) (i32.const 0x2029))) (then (return (i32.const -1))))")
	}
	e.b.Line("(call %s (i32.add (local.get $pos) (i32.const 1)))", k)
	e.b.Close(")")

	return name, nil
}

// emitBoundsOk emits `(if (bounds fail) (then (return (i32.const -1))))`
// guarding that need code units remain from $pos.
func (e *emitter) emitBoundsOk(need int) {
	e.b.Open("(if (i32.gt_s (i32.add (local.get $pos) (i32.const %d)) (global.get $re%d_str_len))", need, e.id)
	e.b.Line("(then (return (i32.const -1)))")
	e.b.Close(")")
}

func (e *emitter) compileClass(n *CharClass, k string) (string, error) {
	items := n.Items
	switch n.Kind {
	case ClassDigit:
		items = digitRanges()
	case ClassWord:
		items = wordRanges()
	case ClassSpace:
		items = spaceRanges()
	}

	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(local $c i32)")
	e.emitBoundsOk(1)
	e.b.Line("(local.set $c (call $re%d_char (local.get $pos)))", e.id)

	cond := "(i32.const 0)"
	for _, it := range items {
		cond = fmt.Sprintf("(i32.or %s (i32.and (i32.ge_u (local.get $c) (i32.const %d)) (i32.le_u (local.get $c) (i32.const %d))))",
			cond, it.Lo, it.Hi)
	}
	if n.Negate {
		cond = fmt.Sprintf("(i32.eqz %s)", cond)
	}

	e.b.Open("(if (result i32) %s", cond)
	e.b.Line("(then (call %s (i32.add (local.get $pos) (i32.const 1))))", k)
	e.b.Line("(else (i32.const -1))")
	e.b.Close(")")
	e.b.Close(")")

	return name, nil
}

func (e *emitter) compileAnchorStart(k string) (string, error) {
	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Open("(if (result i32) (i32.eq (local.get $pos) (i32.const 0))")
	e.b.Line("(then (call %s (local.get $pos)))", k)
	e.b.Line("(else (i32.const -1))")
	e.b.Close(")")
	e.b.Close(")")

	return name, nil
}

func (e *emitter) compileAnchorEnd(k string) (string, error) {
	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Open("(if (result i32) (i32.eq (local.get $pos) (global.get $re%d_str_len))", e.id)
	e.b.Line("(then (call %s (local.get $pos)))", k)
	e.b.Line("(else (i32.const -1))")
	e.b.Close(")")
	e.b.Close(")")

	return name, nil
}

// compileWordBoundary compares word-ness of the code unit just before $pos
// against word-ness at $pos, matching \b iff exactly one side is a word
// character.
func (e *emitter) compileWordBoundary(n *WordBoundary, k string) (string, error) {
	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(local $before i32)")
	e.b.Line("(local $after i32)")
	e.b.Open("(if (i32.gt_s (local.get $pos) (i32.const 0))")
	e.b.Line("(then (local.set $before (call $re%d_is_word (call $re%d_char (i32.sub (local.get $pos) (i32.const 1))))))", e.id, e.id)
	e.b.Close(")")
	e.b.Open("(if (i32.lt_s (local.get $pos) (global.get $re%d_str_len))", e.id)
	e.b.Line("(then (local.set $after (call $re%d_is_word (call $re%d_char (local.get $pos)))))", e.id, e.id)
	e.b.Close(")")

	cond := "(i32.ne (local.get $before) (local.get $after))"
	if n.Negate {
		cond = "(i32.eq (local.get $before) (local.get $after))"
	}

	e.b.Open("(if (result i32) %s", cond)
	e.b.Line("(then (call %s (local.get $pos)))", k)
	e.b.Line("(else (i32.const -1))")
	e.b.Close(")")
	e.b.Close(")")

	return name, nil
}

// compileBackref re-matches the code units last captured by group n.Index,
// one at a time, against the input starting at $pos; an unmatched group
// (start<0) matches the empty string, per common engine behavior.
func (e *emitter) compileBackref(n *Backref, k string) (string, error) {
	e.declareCapGlobal(n.Index)

	name := e.newFuncName()
	e.b.Open("(func %s (param $pos i32) (result i32)", name)
	e.b.Line("(local $s i32)")
	e.b.Line("(local $len i32)")
	e.b.Line("(local $i i32)")
	e.b.Line("(local $p i32)")

	e.b.Line("(local.set $s (global.get %s))", e.capGlobal(n.Index, false))
	e.b.Open("(if (i32.lt_s (local.get $s) (i32.const 0))")
	e.b.Line("(then (return (call %s (local.get $pos))))", k)
	e.b.Close(")")

	e.b.Line("(local.set $len (i32.sub (global.get %s) (local.get $s)))", e.capGlobal(n.Index, true))
	e.emitBoundsOkN("$len")

	e.b.Line("(local.set $i (i32.const 0))")
	e.b.Line("(local.set $p (local.get $pos))")
	e.b.Open("(block $fail")
	e.b.Open("(loop $cmp")
	e.b.Open("(if (i32.lt_s (local.get $i) (local.get $len))")
	e.b.Open("(then")
	e.b.Open("(if (i32.ne (call $re%d_char (i32.add (local.get $s) (local.get $i))) (call $re%d_char (local.get $p)))", e.id, e.id)
	e.b.Line("(then (br $fail))")
	e.b.Close(")")
	e.b.Line("(local.set $i (i32.add (local.get $i) (i32.const 1)))")
	e.b.Line("(local.set $p (i32.add (local.get $p) (i32.const 1)))")
	e.b.Line("(br $cmp)")
	e.b.Close(")")
	e.b.Close(")")
	e.b.Close(")")
	e.b.Line("(return (call %s (local.get $p)))", k)
	e.b.Close(")")
	e.b.Line("(i32.const -1)")
	e.b.Close(")")

	return name, nil
}

// emitBoundsOkN is emitBoundsOk's variable-length cousin, used by backrefs
// whose captured span length isn't known until runtime.
func (e *emitter) emitBoundsOkN(lenLocal string) {
	e.b.Open("(if (i32.gt_s (i32.add (local.get $pos) (local.get %s)) (global.get $re%d_str_len))", lenLocal, e.id)
	e.b.Line("(then (return (i32.const -1)))")
	e.b.Close(")")
}
