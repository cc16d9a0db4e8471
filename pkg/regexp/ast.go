// Package regexp parses the restricted pattern grammar documented for the
// language's regex literals and compiles each distinct literal into a
// standalone WebAssembly backtracking matcher function, grounded the same
// way pkg/sexp/parser.go and pkg/asm's own hand-rolled recursive-descent
// parsers are: no parser-combinator or regex-engine dependency, just a
// small top-down parser over a rune slice.
package regexp

// Node is implemented by every pattern AST node.
type Node interface {
	nodeKind()
}

// Concat is an ordered sequence of sub-patterns that must all match in
// turn, each starting where the previous one left off.
type Concat struct{ Items []Node }

// Alt tries Left first; only on failure (including failure of whatever
// comes after it) does it retry with Right from the same starting position.
type Alt struct{ Left, Right Node }

// Star is `Body*`: zero or more repetitions, greedy unless Lazy.
type Star struct {
	Body Node
	Lazy bool
}

// Plus is `Body+`: one or more repetitions, greedy unless Lazy.
type Plus struct {
	Body Node
	Lazy bool
}

// Opt is `Body?`: zero or one repetition, greedy unless Lazy.
type Opt struct {
	Body Node
	Lazy bool
}

// Repeat is `Body{Min,Max}`; Max<0 means unbounded (`{Min,}`).
type Repeat struct {
	Body     Node
	Min, Max int
	Lazy     bool
}

// Group is a capturing `(...)` (Index>0, 1-based, matching \N backreference
// numbering) or a non-capturing `(?:...)` (Index==0).
type Group struct {
	Body  Node
	Index int
}

// Look is a zero-width lookaround: (?=...) (?!...) (?<=...) (?<!...).
type Look struct {
	Body   Node
	Behind bool
	Negate bool
}

// Literal matches a single exact rune.
type Literal struct{ Rune rune }

// AnyChar is `.`: any rune other than line terminators, unless DotAll.
type AnyChar struct{}

// ClassItem is one member of a CharClass: either a single rune (Lo==Hi) or
// an inclusive rune range.
type ClassItem struct{ Lo, Hi rune }

// ClassKind distinguishes a literal [...] class from a \d/\w/\s shorthand,
// so the emitter can special-case the common shorthands instead of
// expanding them into a huge explicit range list.
type ClassKind uint8

const (
	ClassExplicit ClassKind = iota
	ClassDigit
	ClassWord
	ClassSpace
)

// CharClass is `[...]`/`[^...]` or a \d/\D/\w/\W/\s/\S shorthand; Negate
// inverts either form.
type CharClass struct {
	Kind   ClassKind
	Items  []ClassItem
	Negate bool
}

// AnchorStart/AnchorEnd are `^`/`$`.
type AnchorStart struct{}
type AnchorEnd struct{}

// WordBoundary is `\b` (Negate=false) or `\B` (Negate=true).
type WordBoundary struct{ Negate bool }

// Backref is `\1`..`\9`: re-match the text last captured by group Index.
type Backref struct{ Index int }

func (*Concat) nodeKind()       {}
func (*Alt) nodeKind()          {}
func (*Star) nodeKind()         {}
func (*Plus) nodeKind()         {}
func (*Opt) nodeKind()          {}
func (*Repeat) nodeKind()       {}
func (*Group) nodeKind()        {}
func (*Look) nodeKind()         {}
func (*Literal) nodeKind()      {}
func (*AnyChar) nodeKind()      {}
func (*CharClass) nodeKind()    {}
func (*AnchorStart) nodeKind()  {}
func (*AnchorEnd) nodeKind()    {}
func (*WordBoundary) nodeKind() {}
func (*Backref) nodeKind()      {}

// Pattern is one parsed literal: its root node plus the flags and group
// count the emitter needs to size its capture-slot globals.
type Pattern struct {
	Root       Node
	NumGroups  int
	IgnoreCase bool
	Multiline  bool
	DotAll     bool
	Global     bool
}
