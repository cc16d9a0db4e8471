// Package codegen lowers a normalized, type-inferred, closure-analyzed
// program (pkg/ast + pkg/types.Info + pkg/scope.Module) into WebAssembly
// text: one function per top-level or nested *ast.Arrow, plus the module
// globals, env-record layouts, and stdlib method-dispatch sequences its
// bodies call into. pkg/runtime supplies the shared allocator/array/string/
// hash helpers; this package only emits the code specific to one program.
package codegen

import (
	"fmt"

	"github.com/latticec/wasmc/pkg/ast"
	"github.com/latticec/wasmc/pkg/runtime"
	"github.com/latticec/wasmc/pkg/scope"
	"github.com/latticec/wasmc/pkg/types"
	"github.com/latticec/wasmc/pkg/value"
)

// Context is shared, mutable state for one whole-program compilation: the
// schema table every object literal interns into, the runtime Prelude every
// emitted call into a helper Requires from, and the counters that hand out
// fresh label/local names. A single Context is used start-to-finish for one
// Compile call and discarded afterward (SPEC_FULL.md's shared-resource
// policy: sequential, not concurrent, mutation).
type Context struct {
	Info   *types.Info
	Scope  *scope.Module
	Schema *value.SchemaTable

	Prelude *runtime.Prelude
	Strings *StringTable

	labelCounter int
	tableSlots   []string // function names assigned an indirect-call table index, in order
	tableIndex   map[string]int

	funcInfoByArrow map[*ast.Arrow]*scope.FuncInfo
	funcsByName     map[string]*scope.FuncInfo
	parentArrow     map[*ast.Arrow]*ast.Arrow // nil entry for a top-level function

	// frames caches each function's own frame once CompileFunction builds
	// it, so a nested function's prologue can look up its parent's env
	// schema (offsets are only known once the parent's own frame exists).
	frames map[*ast.Arrow]*frame

	// identSchema remembers, for a variable last assigned directly from an
	// object literal, which schema that literal interned. Property reads
	// through a plain identifier (obj.prop, not a re-derived expression)
	// resolve against this instead of re-inferring the literal's shape.
	identSchema map[string]*value.Schema

	// identCollTag remembers, for a variable last bound directly from a
	// `new Set(...)`/`new Map(...)` expression, which heap Tag it holds.
	// value.Kind has no separate Set/Map member (both are KindObject at the
	// type-inference level), so stdlib dispatch for their methods resolves
	// the concrete collection kind through this hint instead, the same
	// documented-simplification shape as identSchema/schemaHint below.
	identCollTag map[string]value.Tag

	regexOrder []regexLiteral
	regexIndex map[string]int

	arrowNames     map[*ast.Arrow]string
	arrowNameTaken map[string]bool
}

// regexLiteral is one distinct (pattern, flags) pair a program's source
// referenced; pkg/regexp compiles one matcher function per entry, in this
// order.
type regexLiteral struct {
	Pattern, Flags string
}

// NewContext constructs a Context for one compilation.
func NewContext(info *types.Info, mod *scope.Module) *Context {
	c := &Context{
		Info:            info,
		Scope:           mod,
		Schema:          value.NewSchemaTable(),
		Prelude:         runtime.NewPrelude(),
		Strings:         newStringTable(),
		tableIndex:      map[string]int{},
		funcInfoByArrow: map[*ast.Arrow]*scope.FuncInfo{},
		funcsByName:     map[string]*scope.FuncInfo{},
		identSchema:     map[string]*value.Schema{},
		identCollTag:    map[string]value.Tag{},
		regexIndex:      map[string]int{},
		arrowNames:      map[*ast.Arrow]string{},
		parentArrow:     map[*ast.Arrow]*ast.Arrow{},
		frames:          map[*ast.Arrow]*frame{},
	}

	indexFuncInfos(c.funcInfoByArrow, c.funcsByName, c.parentArrow, nil, mod.Functions)

	return c
}

func indexFuncInfos(byArrow map[*ast.Arrow]*scope.FuncInfo, byName map[string]*scope.FuncInfo,
	parentArrow map[*ast.Arrow]*ast.Arrow, parent *ast.Arrow, fns []*scope.FuncInfo) {
	for _, fn := range fns {
		byArrow[fn.Fn] = fn
		parentArrow[fn.Fn] = parent
		if fn.Fn.Name != "" {
			byName[fn.Fn.Name] = fn
		}
		indexFuncInfos(byArrow, byName, parentArrow, fn.Fn, fn.Inner)
	}
}

// ParentArrow returns fn's immediately enclosing function, or nil for a
// top-level function.
func (c *Context) ParentArrow(fn *ast.Arrow) *ast.Arrow {
	return c.parentArrow[fn]
}

// rememberFrame caches fn's built frame so a nested function's prologue can
// later resolve offsets into fn's own env record.
func (c *Context) rememberFrame(fn *ast.Arrow, fr *frame) {
	c.frames[fn] = fr
}

// frameOf returns fn's cached frame, built earlier in program.go's
// outside-in compilation order (a function is always compiled before the
// functions nested inside it).
func (c *Context) frameOf(fn *ast.Arrow) *frame {
	return c.frames[fn]
}

// FunctionNamed looks up a named function declaration, for a Call whose
// callee is a plain identifier referring to it directly (as opposed to a
// closure value flowing through a parameter or array element).
func (c *Context) FunctionNamed(name string) (*scope.FuncInfo, bool) {
	fn, ok := c.funcsByName[name]
	return fn, ok
}

// regexID returns pattern/flags' stable index among this compilation's
// distinct regex literals, assigning a fresh one the first time it's seen.
func (c *Context) regexID(pattern, flags string) int {
	key := pattern + "\x00" + flags
	if i, ok := c.regexIndex[key]; ok {
		return i
	}

	i := len(c.regexOrder)
	c.regexOrder = append(c.regexOrder, regexLiteral{pattern, flags})
	c.regexIndex[key] = i

	return i
}

// RegexLiterals returns every distinct regex literal referenced by the
// program, in assignment order.
func (c *Context) RegexLiterals() []regexLiteral {
	return c.regexOrder
}

// ArrowName returns fn's stable WebAssembly function name: the program's own
// declared name when fn is a named declaration (disambiguated if reused, as
// two distinct nested functions may share a surface name across different
// scopes), or a synthesized "$closure_N" for an anonymous arrow.
func (c *Context) ArrowName(fn *ast.Arrow) string {
	if name, ok := c.arrowNames[fn]; ok {
		return name
	}

	var name string
	if fn.Name != "" {
		name = "$fn_" + fn.Name
		if _, taken := c.arrowNameTaken[name]; taken {
			name = fmt.Sprintf("%s_%d", name, len(c.arrowNames))
		}
	} else {
		name = fmt.Sprintf("$closure_%d", len(c.arrowNames))
	}

	if c.arrowNameTaken == nil {
		c.arrowNameTaken = map[string]bool{}
	}
	c.arrowNameTaken[name] = true
	c.arrowNames[fn] = name

	return name
}

// Label returns a fresh, module-unique label base name (used for loop
// begin/end pairs and if/else blocks that need a branch target).
func (c *Context) Label(prefix string) string {
	c.labelCounter++
	return fmt.Sprintf("$%s_%d", prefix, c.labelCounter)
}

// TableIndex assigns fn a slot in the module's indirect-call table the
// first time it's referenced as a closure value, returning the same index
// on every subsequent call for the same name.
func (c *Context) TableIndex(fnName string) int {
	if i, ok := c.tableIndex[fnName]; ok {
		return i
	}

	i := len(c.tableSlots)
	c.tableSlots = append(c.tableSlots, fnName)
	c.tableIndex[fnName] = i

	return i
}

// Table returns the indirect-call table contents assigned so far, function
// names in table-index order.
func (c *Context) Table() []string {
	return c.tableSlots
}

// FuncInfo looks up fn's closure analysis (free/captured/hoisted sets).
func (c *Context) FuncInfo(fn *ast.Arrow) *scope.FuncInfo {
	return c.funcInfoByArrow[fn]
}

// rememberSchema records that name currently holds an instance of schema,
// called by statement lowering whenever a plain identifier is bound
// directly from an object literal.
func (c *Context) rememberSchema(name string, schema *value.Schema) {
	c.identSchema[name] = schema
}

// schemaHint resolves obj's object schema when obj is a plain identifier
// last bound from an object literal; property access on any other
// expression shape must route through a schema it can derive structurally
// (an inline ObjectLit) instead.
func (c *Context) schemaHint(obj ast.Expr) *value.Schema {
	id, ok := obj.(*ast.Ident)
	if !ok {
		return nil
	}

	return c.identSchema[id.Name]
}

// rememberCollTag records that name currently holds a Set/Map instance,
// called by statement lowering whenever a plain identifier is bound
// directly from a `new Set(...)`/`new Map(...)` expression.
func (c *Context) rememberCollTag(name string, tag value.Tag) {
	c.identCollTag[name] = tag
}

// collTag resolves obj's collection tag: directly from an inline NewExpr,
// or from the last-assignment hint for a plain identifier.
func (c *Context) collTag(obj ast.Expr) (value.Tag, bool) {
	if n, ok := obj.(*ast.NewExpr); ok {
		switch n.Constructor {
		case "Set":
			return value.SET, true
		case "Map":
			return value.MAP, true
		}
		return 0, false
	}

	id, ok := obj.(*ast.Ident)
	if !ok {
		return 0, false
	}

	tag, ok := c.identCollTag[id.Name]
	return tag, ok
}
