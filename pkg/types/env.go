package types

import (
	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/value"
)

// env holds the declared kind of every local/parameter name owned by one
// function (or, when parent is nil, the module). Names are flat per
// function rather than nested per block: two sibling blocks binding the
// same name share one WebAssembly local and therefore one widened kind,
// mirroring how pkg/scope already flattens hoisting decisions to function
// granularity.
type env struct {
	parent *env
	kinds  map[string]value.Kind
	known  map[string]bool
}

func newEnv(parent *env) *env {
	return &env{parent: parent, kinds: map[string]value.Kind{}, known: map[string]bool{}}
}

// declare registers name as owned by this env with no kind yet.
func (e *env) declare(name string) {
	e.known[name] = true
}

// owner returns the nearest env (this one or an ancestor) that declares
// name, or nil if name is free all the way up (a builtin or a bug already
// caught by pkg/scope).
func (e *env) owner(name string) *env {
	for cur := e; cur != nil; cur = cur.parent {
		if _, declared := cur.known[name]; declared {
			return cur
		}
	}

	return nil
}

// widen joins k into name's declared kind, recording whether the kind
// changed so the fixed-point loop knows whether another pass is needed.
func (e *env) widen(name string, k value.Kind) (changed bool, err error) {
	owner := e.owner(name)
	if owner == nil {
		// Declared neither here nor in any enclosing env, module env
		// included (a builtin, or a name pkg/scope rejects) — nothing to
		// widen.
		return false, nil
	}

	cur, has := owner.kinds[name]
	if !has {
		owner.kinds[name] = k

		return true, nil
	}

	joined, err := Join(cur, k)
	if err != nil {
		return false, err
	}

	if joined == cur {
		return false, nil
	}

	owner.kinds[name] = joined

	return true, nil
}

// lookup returns name's current declared kind and whether it has been
// assigned one yet.
func (e *env) lookup(name string) (value.Kind, bool) {
	owner := e.owner(name)
	if owner == nil {
		return 0, false
	}

	k, ok := owner.kinds[name]

	return k, ok
}

func (e *env) snapshot() map[string]value.Kind {
	out := make(map[string]value.Kind, len(e.kinds))

	for k, v := range e.kinds {
		out[k] = v
	}

	return out
}

// declareStmts pre-registers every name a statement list binds directly,
// recursing into nested blocks/if/for/while but never into a nested
// function's own body.
func declareStmts(e *env, stmts []ast.Stmt) {
	for _, s := range stmts {
		declareStmt(e, s)
	}
}

func declareStmt(e *env, s ast.Stmt) {
	switch st := s.(type) {
	case nil:
		return
	case *ast.LetDecl:
		for _, b := range st.Bindings {
			if b.Name != "" {
				e.declare(b.Name)
			}

			if b.Pattern != nil {
				declarePatternNames(e, b.Pattern)
			}
		}
	case *ast.Block:
		for _, inner := range st.Stmts {
			declareStmt(e, inner)
		}
	case *ast.If:
		declareStmt(e, st.Then)
		declareStmt(e, st.Els)
	case *ast.For:
		declareStmt(e, st.Init)
		declareStmt(e, st.Body)
	case *ast.While:
		declareStmt(e, st.Body)
	case *ast.FuncDecl:
		e.declare(st.Fn.Name)
	case *ast.ExportDecl:
		declareStmt(e, st.Decl)
	}
}

func declarePatternNames(e *env, p *ast.Pattern) {
	for _, el := range p.Elems {
		if el.Name != "" {
			e.declare(el.Name)
		}

		if el.Nested != nil {
			declarePatternNames(e, el.Nested)
		}
	}
}
