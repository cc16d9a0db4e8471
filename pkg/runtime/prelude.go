package runtime

// helper names, used both as Require keys and as the emitted WebAssembly
// function names (dollar-prefixed at the call site by pkg/codegen).
const (
	HelperAlloc       = "alloc"
	HelperGrow        = "grow"
	HelperArrayPush   = "array_push"
	HelperArrayPop    = "array_pop"
	HelperArrayShift  = "array_shift"
	HelperArrayUnshift = "array_unshift"
	HelperArraySlice  = "array_slice"
	HelperStringEq    = "string_eq"
	HelperStringConcat = "string_concat"
	HelperStringSlice = "string_slice"
	HelperHashMix     = "hash_mix"
	HelperHashFind    = "hash_find"
	HelperHashGrow    = "hash_grow"
	HelperPow         = "pow"
)

// deps lists, for each helper, the other helpers it calls directly. Prelude
// resolves the transitive closure so codegen only ever has to Require the
// helper it's emitting a call to.
var deps = map[string][]string{
	HelperAlloc:        {HelperGrow},
	HelperArrayPush:    {HelperAlloc, HelperGrow},
	HelperArrayPop:     {},
	HelperArrayShift:   {},
	HelperArrayUnshift: {HelperAlloc, HelperGrow},
	HelperArraySlice:   {HelperAlloc},
	HelperStringEq:     {},
	HelperStringConcat: {HelperAlloc},
	HelperStringSlice:  {HelperAlloc},
	HelperHashMix:      {},
	HelperHashFind:     {HelperHashMix},
	HelperHashGrow:     {HelperAlloc, HelperHashMix, HelperHashFind},
	HelperPow:          {},
}

// emitters maps a helper name to the function that writes its WebAssembly
// text definition into a Builder.
var emitters = map[string]func(*Builder){
	HelperAlloc:        emitAlloc,
	HelperGrow:         emitGrow,
	HelperArrayPush:    emitArrayPush,
	HelperArrayPop:     emitArrayPop,
	HelperArrayShift:   emitArrayShift,
	HelperArrayUnshift: emitArrayUnshift,
	HelperArraySlice:   emitArraySlice,
	HelperStringEq:     emitStringEq,
	HelperStringConcat: emitStringConcat,
	HelperStringSlice:  emitStringSlice,
	HelperHashMix:      emitHashMix,
	HelperHashFind:     emitHashFind,
	HelperHashGrow:     emitHashGrow,
	HelperPow:          emitPow,
}

// Prelude tracks which runtime helpers a single compilation needs and emits
// exactly those (plus their transitive dependencies) as WebAssembly function
// definitions.
type Prelude struct {
	required map[string]bool
	order    []string
}

// NewPrelude constructs an empty Prelude.
func NewPrelude() *Prelude {
	return &Prelude{required: map[string]bool{}}
}

// Require marks name (and everything it transitively depends on) as needed
// in the final prelude text. Safe to call repeatedly for the same name.
func (p *Prelude) Require(name string) {
	if p.required[name] {
		return
	}

	p.required[name] = true
	p.order = append(p.order, name)

	for _, dep := range deps[name] {
		p.Require(dep)
	}
}

// Requires reports whether name has been requested (directly or
// transitively), for callers that need to conditionally emit a call site.
func (p *Prelude) Requires(name string) bool {
	return p.required[name]
}

// NeedsHostPow reports whether $pow's fractional-exponent fallback is live
// in this compilation, so pkg/module knows whether to declare the
// $host_pow import the emitted helper text calls.
func (p *Prelude) NeedsHostPow() bool {
	return p.Requires(HelperPow)
}

// Emit returns the WebAssembly text for every required helper, each exactly
// once, in first-required order. WebAssembly function calls resolve by name
// across the whole module regardless of textual order, so a dependency
// appearing after its dependent in the output is not a forward-reference
// problem the way it would be in C.
func (p *Prelude) Emit() string {
	b := NewBuilder()

	seen := map[string]bool{}

	for _, name := range p.order {
		if seen[name] {
			continue
		}

		seen[name] = true

		emitters[name](b)
	}

	return b.String()
}
