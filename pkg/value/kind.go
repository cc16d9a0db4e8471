package value

import "errors"

// Kind is the low-level element type a local, slot or sub-expression is
// compiled to: one of i32, f64, ref, array, string, object. ref
// is the generic "tagged pointer" kind; array/string/object further refine
// which stdlib method table and representation apply once a value's
// concrete shape is known, but at the WebAssembly-local level all four
// reference kinds share the same f64 storage class.
type Kind uint8

// The fixed element-type set.
const (
	KindI32 Kind = iota
	KindF64
	KindRef
	KindArray
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindF64:
		return "f64"
	case KindRef:
		return "ref"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "?"
	}
}

// IsReference reports whether values of this kind are NaN-boxed pointers
// (i.e. everything except i32/f64).
func (k Kind) IsReference() bool {
	return k != KindI32 && k != KindF64
}

// WasmValType returns the WebAssembly value type used to store a value of
// this kind in a local/global: i32 for KindI32, f64 for everything else
// (numbers and all reference kinds alike, since references are NaN-boxed
// f64s).
func (k Kind) WasmValType() string {
	if k == KindI32 {
		return "i32"
	}

	return "f64"
}

// Tag returns the heap Tag corresponding to a reference Kind, or false if k
// is not a reference kind (i32/f64 have no heap tag).
func (k Kind) Tag() (Tag, bool) {
	switch k {
	case KindArray:
		return ARRAY, true
	case KindString:
		return STRING, true
	case KindObject:
		return OBJECT, true
	case KindRef:
		return 0, false
	default:
		return 0, false
	}
}

var errSchemaLimitExceeded = errors.New("schema limit exceeded: maximum 65536 schemas per module")
