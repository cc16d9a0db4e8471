package normalizer

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

// allowedBinaryOps is the operator allow-list.
var allowedBinaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "===": true, "!=": true, "!==": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, ">>>": true,
}

var allowedUnaryOps = map[string]bool{
	"u+": true, "u-": true, "!": true, "~": true, "typeof": true,
}

var allowedLogicalOps = map[string]bool{"&&": true, "||": true}

// prohibitedIdentifiers is the prohibited-identifier set.
var prohibitedIdentifiers = map[string]bool{
	"arguments": true, "eval": true, "Function": true, "Proxy": true,
	"Reflect": true, "WeakMap": true, "WeakSet": true, "Promise": true,
}

// prohibitedForms names the prohibited constructs recognised as a leading
// symbol of an S-expression list: async/await, class, this, super, yield,
// delete, in, instanceof, with, dynamic import(), and labeled statements.
var prohibitedForms = map[string]bool{
	"async": true, "await": true, "class": true, "this": true, "super": true,
	"yield": true, "delete": true, "in": true, "instanceof": true,
	"with": true, "import": true, "label": true,
}

// newConstructorWhitelist is the fixed set of constructors `new` may invoke.
var newConstructorWhitelist = map[string]bool{
	"Array": true, "Set": true, "Map": true, "RegExp": true, "String": true,
	"Number": true, "Boolean": true,
	"Int8Array": true, "Uint8Array": true, "Int16Array": true, "Uint16Array": true,
	"Int32Array": true, "Uint32Array": true, "Float32Array": true, "Float64Array": true,
}

// namespaceMembers is the allow-list of namespaced member accesses: Math.sqrt,
// Number.isNaN, Array.isArray, Object.keys, JSON.stringify/parse, and so on.
var namespaceMembers = map[string]map[string]bool{
	"Math": {
		"sqrt": true, "abs": true, "floor": true, "ceil": true, "round": true,
		"trunc": true, "min": true, "max": true, "pow": true, "random": true,
		"sign": true, "log": true, "log2": true, "exp": true, "sin": true,
		"cos": true, "tan": true, "PI": true, "E": true,
	},
	"Number": {
		"isNaN": true, "isInteger": true, "isFinite": true, "isSafeInteger": true,
		"parseFloat": true, "parseInt": true, "MAX_SAFE_INTEGER": true,
		"MIN_SAFE_INTEGER": true, "POSITIVE_INFINITY": true, "NEGATIVE_INFINITY": true,
	},
	"Array":  {"isArray": true, "from": true, "of": true},
	"Object": {"keys": true, "values": true, "entries": true, "assign": true, "freeze": true},
	"JSON":   {"stringify": true, "parse": true},
}

func validateBinaryOp(span sexp.Span, op string) error {
	if !allowedBinaryOps[op] && !allowedLogicalOps[op] {
		return diag.New(diag.UnsupportedOperator, span, fmt.Sprintf("operator %q is not permitted", op))
	}

	return nil
}

func validateUnaryOp(span sexp.Span, op string) error {
	if !allowedUnaryOps[op] {
		return diag.New(diag.UnsupportedOperator, span, fmt.Sprintf("unary operator %q is not permitted", op))
	}

	return nil
}

func validateIdentifier(span sexp.Span, name string) error {
	if prohibitedIdentifiers[name] {
		return diag.New(diag.Prohibited, span, fmt.Sprintf("identifier %q is prohibited", name))
	}

	return nil
}

func validateForm(span sexp.Span, head string) error {
	if prohibitedForms[head] {
		return diag.New(diag.Prohibited, span, fmt.Sprintf("construct %q is prohibited", head))
	}

	return nil
}

func validateConstructor(span sexp.Span, name string) error {
	if !newConstructorWhitelist[name] {
		return diag.New(diag.ProhibitedConstructor, span, fmt.Sprintf("constructor %q is not permitted", name))
	}

	return nil
}

func validateNamespaceMember(span sexp.Span, namespace, member string) error {
	members, ok := namespaceMembers[namespace]
	if !ok || !members[member] {
		return diag.New(diag.UnknownNamespaceMember, span,
			fmt.Sprintf("%s.%s is not a recognised namespace member", namespace, member))
	}

	return nil
}

// isNamespace reports whether name is one of the recognised namespace
// objects (Math, Number, Array, Object, JSON) which are never ordinary
// identifiers.
func isNamespace(name string) bool {
	_, ok := namespaceMembers[name]
	return ok
}
