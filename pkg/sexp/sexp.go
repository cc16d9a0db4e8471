// Package sexp defines the S-expression wire format produced by the external
// tokenizer/parser collaborator and consumed by pkg/normalizer. A
// literal is represented as a two-element list whose first slot is empty
// (`[, value]`); everything else is `[op, ...args]`.
package sexp

// SExp is either a List of zero or more S-Expressions, or a Symbol.
type SExp interface {
	// IsList checks whether this S-Expression is a list.
	IsList() bool
	// IsSymbol checks whether this S-Expression is a symbol.
	IsSymbol() bool
	// String generates a string representation.
	String() string
}

// ===================================================================
// List
// ===================================================================

// List represents a list of zero or more S-Expressions, e.g. `(op arg1 arg2)`.
type List struct {
	Elements []SExp
}

// IsList always returns true for a List.
func (*List) IsList() bool { return true }

// IsSymbol always returns false for a List.
func (*List) IsSymbol() bool { return false }

// Len returns the number of elements in this list.
func (l *List) Len() int { return len(l.Elements) }

func (l *List) String() string {
	s := "("
	for i, e := range l.Elements {
		if i != 0 {
			s += " "
		}
		s += e.String()
	}

	return s + ")"
}

// Get returns the ith element of this list, or nil if out of bounds.
func (l *List) Get(i int) SExp {
	if i < 0 || i >= len(l.Elements) {
		return nil
	}

	return l.Elements[i]
}

// MatchSymbols matches a list which starts with at least n symbols, of which
// the first len(symbols) match the given strings.
func (l *List) MatchSymbols(n int, symbols ...string) bool {
	if len(l.Elements) < n || len(symbols) > n {
		return false
	}

	for i := 0; i < len(symbols); i++ {
		sym, ok := l.Elements[i].(*Symbol)
		if !ok || sym.Value != symbols[i] {
			return false
		}
	}

	return true
}

// Head returns the leading symbol of this list (the operator), or "" if the
// list is empty or does not begin with a symbol.
func (l *List) Head() string {
	if len(l.Elements) == 0 {
		return ""
	}

	if sym, ok := l.Elements[0].(*Symbol); ok {
		return sym.Value
	}

	return ""
}

// ===================================================================
// Symbol
// ===================================================================

// Symbol is a terminating token: an identifier, keyword, operator, or literal
// payload rendered as text.
type Symbol struct {
	Value string
}

// IsList always returns false for a Symbol.
func (*Symbol) IsList() bool { return false }

// IsSymbol always returns true for a Symbol.
func (*Symbol) IsSymbol() bool { return true }

func (p *Symbol) String() string { return p.Value }

// AsList type-asserts this SExp as a *List, returning nil if it is not one.
func AsList(s SExp) *List {
	if l, ok := s.(*List); ok {
		return l
	}

	return nil
}

// AsSymbol type-asserts this SExp as a *Symbol, returning nil if it is not one.
func AsSymbol(s SExp) *Symbol {
	if sym, ok := s.(*Symbol); ok {
		return sym
	}

	return nil
}
