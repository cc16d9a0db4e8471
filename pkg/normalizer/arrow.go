package normalizer

import (
	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/diag"
	"github.com/latticec/wasmc/pkg/sexp"
)

// normalizeArrow handles both `["arrow", params, body]` and a named
// `function` declaration (name is non-empty in the latter case). body is
// either `["block", stmt...]` or a bare expression for a concise-body arrow.
func (n *Normalizer) normalizeArrow(span sexp.Span, name string, args []sexp.SExp) (*ast.Arrow, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.UnsupportedLiteral, span, "function requires a parameter list and a body")
	}

	paramList, ok := args[0].(*sexp.List)
	if !ok {
		return nil, diag.New(diag.UnsupportedLiteral, span, "parameter list must be a list")
	}

	n.pushScope()
	defer n.popScope()

	params := make([]ast.Param, 0, paramList.Len())

	for _, p := range paramList.Elements {
		param, err := n.normalizeParam(p)
		if err != nil {
			return nil, err
		}

		if param.Name != "" {
			n.declare(span, param.Name)
		}

		for _, elem := range paramPatternNames(param) {
			n.declare(span, elem)
		}

		params = append(params, param)
	}

	if bodyList, ok := args[1].(*sexp.List); ok && bodyList.Head() == "block" {
		block, err := n.normalizeBlockList(bodyList)
		if err != nil {
			return nil, err
		}

		return ast.NewArrow(span, name, params, block, nil), nil
	}

	exprBody, err := n.normalizeExpr(args[1])
	if err != nil {
		return nil, err
	}

	return ast.NewArrow(span, name, params, nil, exprBody), nil
}

// normalizeParam handles a bare name, `["rest", name]`, `["default", name,
// expr]`, or a destructuring pattern wrapped in `["pat", pattern]` /
// `["patdefault", pattern, expr]`.
func (n *Normalizer) normalizeParam(s sexp.SExp) (ast.Param, error) {
	span := zeroSpan()

	if sym, ok := s.(*sexp.Symbol); ok {
		if err := validateIdentifier(span, sym.Value); err != nil {
			return ast.Param{}, err
		}

		return ast.Param{Name: sym.Value}, nil
	}

	l, ok := s.(*sexp.List)
	if !ok {
		return ast.Param{}, diag.New(diag.UnsupportedLiteral, span, "malformed parameter")
	}

	switch l.Head() {
	case "rest":
		if l.Len() != 2 {
			return ast.Param{}, diag.New(diag.UnsupportedLiteral, span, "rest parameter requires a name")
		}

		sym, ok := l.Elements[1].(*sexp.Symbol)
		if !ok {
			return ast.Param{}, diag.New(diag.UnsupportedLiteral, span, "rest parameter name must be a symbol")
		}

		return ast.Param{Name: sym.Value, Rest: true}, nil

	case "default":
		if l.Len() != 3 {
			return ast.Param{}, diag.New(diag.UnsupportedLiteral, span, "default parameter requires a name and a default expression")
		}

		sym, ok := l.Elements[1].(*sexp.Symbol)
		if !ok {
			return ast.Param{}, diag.New(diag.UnsupportedLiteral, span, "default parameter name must be a symbol")
		}

		def, err := n.normalizeExpr(l.Elements[2])
		if err != nil {
			return ast.Param{}, err
		}

		return ast.Param{Name: sym.Value, Default: def}, nil

	case "pat":
		if l.Len() != 2 {
			return ast.Param{}, diag.New(diag.InvalidDestructuring, span, "destructuring parameter requires a pattern")
		}

		pat, err := n.normalizePattern(l.Elements[1])
		if err != nil {
			return ast.Param{}, err
		}

		return ast.Param{Pattern: pat}, nil

	case "patdefault":
		if l.Len() != 3 {
			return ast.Param{}, diag.New(diag.InvalidDestructuring, span, "destructuring parameter with default requires a pattern and a default expression")
		}

		pat, err := n.normalizePattern(l.Elements[1])
		if err != nil {
			return ast.Param{}, err
		}

		def, err := n.normalizeExpr(l.Elements[2])
		if err != nil {
			return ast.Param{}, err
		}

		return ast.Param{Pattern: pat, Default: def}, nil
	}

	return ast.Param{}, diag.New(diag.InvalidDestructuring, span, "unrecognised parameter form")
}

// paramPatternNames collects the bound names introduced by a destructuring
// parameter, for scope tracking.
func paramPatternNames(p ast.Param) []string {
	if p.Pattern == nil {
		return nil
	}

	var names []string

	var walk func(pat *ast.Pattern)

	walk = func(pat *ast.Pattern) {
		for _, elem := range pat.Elems {
			if elem.Name != "" {
				names = append(names, elem.Name)
			}

			if elem.Nested != nil {
				walk(elem.Nested)
			}
		}
	}

	walk(p.Pattern)

	return names
}

// normalizePattern handles `["arrpat", elem...]` and `["objpat", elem...]`
// destructuring forms.
func (n *Normalizer) normalizePattern(s sexp.SExp) (*ast.Pattern, error) {
	span := zeroSpan()

	l, ok := s.(*sexp.List)
	if !ok {
		return nil, diag.New(diag.InvalidDestructuring, span, "pattern must be a list")
	}

	switch l.Head() {
	case "arrpat":
		elems := make([]ast.PatternElem, 0, l.Len()-1)

		for _, e := range l.Elements[1:] {
			elem, err := n.normalizePatternElem(e, false)
			if err != nil {
				return nil, err
			}

			elems = append(elems, elem)
		}

		return &ast.Pattern{Kind: ast.PatternArray, Elems: elems}, nil

	case "objpat":
		elems := make([]ast.PatternElem, 0, l.Len()-1)

		for _, e := range l.Elements[1:] {
			elem, err := n.normalizePatternElem(e, true)
			if err != nil {
				return nil, err
			}

			elems = append(elems, elem)
		}

		return &ast.Pattern{Kind: ast.PatternObject, Elems: elems}, nil
	}

	return nil, diag.New(diag.InvalidDestructuring, span, "unrecognised pattern form")
}

func (n *Normalizer) normalizePatternElem(s sexp.SExp, object bool) (ast.PatternElem, error) {
	span := zeroSpan()

	if sym, ok := s.(*sexp.Symbol); ok {
		return ast.PatternElem{Key: sym.Value, Name: sym.Value}, nil
	}

	l, ok := s.(*sexp.List)
	if !ok {
		return ast.PatternElem{}, diag.New(diag.InvalidDestructuring, span, "malformed destructuring element")
	}

	switch l.Head() {
	case "rest":
		sym, ok := l.Elements[1].(*sexp.Symbol)
		if !ok {
			return ast.PatternElem{}, diag.New(diag.InvalidDestructuring, span, "rest element name must be a symbol")
		}

		return ast.PatternElem{Name: sym.Value, Rest: true}, nil

	case "default":
		nameSym, ok := l.Elements[1].(*sexp.Symbol)
		if !ok {
			return ast.PatternElem{}, diag.New(diag.InvalidDestructuring, span, "default element name must be a symbol")
		}

		def, err := n.normalizeExpr(l.Elements[2])
		if err != nil {
			return ast.PatternElem{}, err
		}

		return ast.PatternElem{Key: nameSym.Value, Name: nameSym.Value, Default: def}, nil

	case "key":
		// object-pattern rename: ["key", propName, localName] or
		// ["key", propName, localName, default]
		if !object {
			return ast.PatternElem{}, diag.New(diag.InvalidDestructuring, span, "keyed rename is only valid in an object pattern")
		}

		propSym, ok1 := l.Elements[1].(*sexp.Symbol)
		nameSym, ok2 := l.Elements[2].(*sexp.Symbol)

		if !ok1 || !ok2 {
			return ast.PatternElem{}, diag.New(diag.InvalidDestructuring, span, "keyed rename requires two symbols")
		}

		elem := ast.PatternElem{Key: propSym.Value, Name: nameSym.Value}

		if l.Len() == 4 {
			def, err := n.normalizeExpr(l.Elements[3])
			if err != nil {
				return ast.PatternElem{}, err
			}

			elem.Default = def
		}

		return elem, nil

	case "nested":
		nested, err := n.normalizePattern(l.Elements[1])
		if err != nil {
			return ast.PatternElem{}, err
		}

		return ast.PatternElem{Nested: nested}, nil
	}

	return ast.PatternElem{}, diag.New(diag.InvalidDestructuring, span, "unrecognised destructuring element form")
}
