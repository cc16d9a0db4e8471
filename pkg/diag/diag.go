// Package diag defines the compiler's diagnostic taxonomy: the
// compile-time error kinds raised by the normalizer, scope analyzer, type
// inferencer and codegen, plus the non-fatal warning list that travels
// alongside a successful compilation. The shape mirrors sexp.SyntaxError (a
// byte-range Span plus a message), generalised with a Kind so callers can
// switch on failure mode without parsing text.
package diag

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/sexp"
)

// Kind enumerates the compile-time failure modes.
type Kind int

// Failure modes, grouped by the pipeline stage that raises them.
const (
	// Syntactic rejection, raised by the normalizer.
	UnsupportedOperator Kind = iota
	UnsupportedLiteral
	Prohibited
	UnknownNamespaceMember
	InvalidDestructuring
	// Semantic rejection, raised by the scope analyzer / type inferencer.
	UnknownIdentifier
	CannotMutateCapturedLocal
	SchemaLimitExceeded
	ProhibitedConstructor
	// Codegen rejection.
	NonsenseCoercion
	ConstReassignment
	AssignmentTargetNotIdentifier
	// Collaborator failure.
	AssemblerFailed
)

func (k Kind) String() string {
	switch k {
	case UnsupportedOperator:
		return "UnsupportedOperator"
	case UnsupportedLiteral:
		return "UnsupportedLiteral"
	case Prohibited:
		return "Prohibited"
	case UnknownNamespaceMember:
		return "UnknownNamespaceMember"
	case InvalidDestructuring:
		return "InvalidDestructuring"
	case UnknownIdentifier:
		return "UnknownIdentifier"
	case CannotMutateCapturedLocal:
		return "CannotMutateCapturedLocal"
	case SchemaLimitExceeded:
		return "SchemaLimitExceeded"
	case ProhibitedConstructor:
		return "ProhibitedConstructor"
	case NonsenseCoercion:
		return "NonsenseCoercion"
	case ConstReassignment:
		return "ConstReassignment"
	case AssignmentTargetNotIdentifier:
		return "AssignmentTargetNotIdentifier"
	case AssemblerFailed:
		return "AssemblerFailed"
	default:
		return "UnknownKind"
	}
}

// Error is a structured compile-time diagnostic. Compilation aborts at the
// point of the first Error discovered; there is no
// partial-output mode.
type Error struct {
	kind Kind
	span sexp.Span
	msg  string
}

// New constructs a diagnostic Error of the given Kind at the given span.
func New(kind Kind, span sexp.Span, msg string) *Error {
	return &Error{kind, span, msg}
}

// Kind returns the failure mode of this diagnostic.
func (e *Error) Kind() Kind { return e.kind }

// Span returns the source span this diagnostic refers to.
func (e *Error) Span() sexp.Span { return e.span }

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Warning is a non-fatal diagnostic collected during compilation and
// returned alongside the output.
type Warning struct {
	span sexp.Span
	msg  string
}

// NewWarning constructs a Warning at the given span.
func NewWarning(span sexp.Span, msg string) Warning {
	return Warning{span, msg}
}

// Span returns the source span this warning refers to.
func (w Warning) Span() sexp.Span { return w.span }

// String implements fmt.Stringer.
func (w Warning) String() string {
	return fmt.Sprintf("warning: %s", w.msg)
}

// Bag accumulates warnings during a single compilation. It is owned by the
// normalizer.Normalizer (its Warnings field) and discarded at the end of the
// invocation.
type Bag struct {
	warnings []Warning
}

// Warn appends a new warning to the bag.
func (b *Bag) Warn(span sexp.Span, format string, args ...any) {
	b.warnings = append(b.warnings, NewWarning(span, fmt.Sprintf(format, args...)))
}

// Warnings returns all warnings collected so far, in emission order.
func (b *Bag) Warnings() []Warning {
	return b.warnings
}
