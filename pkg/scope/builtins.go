// Package scope implements the closure/capture analyzer: for each function
// literal it computes the free, locally-defined, and captured variable sets,
// determines which locals must be hoisted into an environment record, and
// enforces the two scope-level invariants (no mutating a captured outer
// local from an inner function, no reading an identifier that resolves
// nowhere).
package scope

// builtins is the set of identifiers that resolve without a declaration:
// the global namespace objects, the global NaN/Infinity constants, and the
// free-standing conversion functions. true/false/null/undefined never
// reach here as Ident nodes — the normalizer folds them to Literal.
var builtins = map[string]bool{
	"Math": true, "Number": true, "Array": true, "Object": true, "JSON": true,
	"String": true, "Boolean": true, "Set": true, "Map": true, "RegExp": true,
	"Int8Array": true, "Uint8Array": true, "Int16Array": true, "Uint16Array": true,
	"Int32Array": true, "Uint32Array": true, "Float32Array": true, "Float64Array": true,
	"NaN": true, "Infinity": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
}

func isBuiltin(name string) bool { return builtins[name] }
