package ast

import "github.com/latticec/wasmc/pkg/sexp"

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

func (*Literal) exprNode()    {}
func (*Ident) exprNode()      {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Logical) exprNode()    {}
func (*Nullish) exprNode()    {}
func (*Ternary) exprNode()    {}
func (*Assign) exprNode()     {}
func (*Sequence) exprNode()   {}
func (*ArrayLit) exprNode()   {}
func (*ObjectLit) exprNode()  {}
func (*Member) exprNode()     {}
func (*Index) exprNode()      {}
func (*OptChain) exprNode()   {}
func (*Call) exprNode()       {}
func (*NewExpr) exprNode()    {}
func (*Arrow) exprNode()      {}
func (*RegexLit) exprNode()   {}
func (*SpreadExpr) exprNode() {}

// LiteralKind distinguishes the payload type of a Literal node.
type LiteralKind uint8

// Literal payload kinds.
const (
	LitNumber LiteralKind = iota
	LitString
	LitBool
	LitNull
	LitUndefined
)

// Literal is a folded constant: a number, string, boolean, null or
// undefined.
type Literal struct {
	base
	Kind LiteralKind
	Num  float64
	Str  string
	Bool bool
}

// NewLiteral constructs a Literal node.
func NewLiteral(span sexp.Span, kind LiteralKind, num float64, str string, b bool) *Literal {
	return &Literal{base{span}, kind, num, str, b}
}

// IsSafeInteger reports whether Num is an integer within the language's safe
// range.
func (l *Literal) IsSafeInteger() bool {
	const maxSafeInteger = 1<<53 - 1
	return l.Kind == LitNumber && l.Num == float64(int64(l.Num)) &&
		l.Num >= -maxSafeInteger && l.Num <= maxSafeInteger
}

// Ident is a variable reference, possibly one of the built-in constants
// (true/false/null/undefined are represented as Literal, not Ident — see
// pkg/normalizer).
type Ident struct {
	base
	Name string
}

// NewIdent constructs an Ident node.
func NewIdent(span sexp.Span, name string) *Ident {
	return &Ident{base{span}, name}
}

// Unary is a unary operator application: -x, +x, !x, ~x, typeof x.
type Unary struct {
	base
	Op      string
	Operand Expr
}

// NewUnary constructs a Unary node.
func NewUnary(span sexp.Span, op string, operand Expr) *Unary {
	return &Unary{base{span}, op, operand}
}

// Binary is a binary operator application; operands evaluate left-to-right.
type Binary struct {
	base
	Op          string
	Left, Right Expr
}

// NewBinary constructs a Binary node.
func NewBinary(span sexp.Span, op string, left, right Expr) *Binary {
	return &Binary{base{span}, op, left, right}
}

// Logical is && or ||, lowered by codegen to an if/else of conciliated type.
type Logical struct {
	base
	Op          string // "&&" or "||"
	Left, Right Expr
}

// NewLogical constructs a Logical node.
func NewLogical(span sexp.Span, op string, left, right Expr) *Logical {
	return &Logical{base{span}, op, left, right}
}

// Nullish is the `??` operator.
type Nullish struct {
	base
	Left, Right Expr
}

// NewNullish constructs a Nullish node.
func NewNullish(span sexp.Span, left, right Expr) *Nullish {
	return &Nullish{base{span}, left, right}
}

// Ternary is `cond ? then : else`; both arms must conciliate to a common
// type.
type Ternary struct {
	base
	Cond, Then, Else Expr
}

// NewTernary constructs a Ternary node.
func NewTernary(span sexp.Span, cond, then, els Expr) *Ternary {
	return &Ternary{base{span}, cond, then, els}
}

// Assign is `target = value` or a compound form already desugared by the
// normalizer to a plain `=` over a folded binary.
type Assign struct {
	base
	Target Expr // *Ident, *Index, or *Member
	Value  Expr
}

// NewAssign constructs an Assign node.
func NewAssign(span sexp.Span, target, value Expr) *Assign {
	return &Assign{base{span}, target, value}
}

// Sequence is a comma expression; its value is the last operand, but all
// side effects occur in left-to-right order.
type Sequence struct {
	base
	Exprs []Expr
}

// NewSequence constructs a Sequence node.
func NewSequence(span sexp.Span, exprs []Expr) *Sequence {
	return &Sequence{base{span}, exprs}
}

// ArrayLit is an array literal; elements are stored at fixed indices.
type ArrayLit struct {
	base
	Elements []Expr
}

// NewArrayLit constructs an ArrayLit node.
func NewArrayLit(span sexp.Span, elements []Expr) *ArrayLit {
	return &ArrayLit{base{span}, elements}
}

// ObjectProp is one `name: value` pair in an object literal.
type ObjectProp struct {
	Name  string
	Value Expr
}

// ObjectLit is an object literal; its schema is declared once per ordered
// property set.
type ObjectLit struct {
	base
	Props []ObjectProp
}

// NewObjectLit constructs an ObjectLit node.
func NewObjectLit(span sexp.Span, props []ObjectProp) *ObjectLit {
	return &ObjectLit{base{span}, props}
}

// Member is `object.name` property access, compiled to a fixed schema
// offset or a namespaced stdlib reference (e.g. Math.sqrt).
type Member struct {
	base
	Object Expr
	Name   string
}

// NewMember constructs a Member node.
func NewMember(span sexp.Span, object Expr, name string) *Member {
	return &Member{base{span}, object, name}
}

// Index is `array[i]` element access, bounds-checked by codegen.
type Index struct {
	base
	Object Expr
	Key    Expr
}

// NewIndex constructs an Index node.
func NewIndex(span sexp.Span, object, key Expr) *Index {
	return &Index{base{span}, object, key}
}

// OptChain is `a?.b` or `a?.[i]`: returns a typed zero if Object is a null
// reference, rather than trapping.
type OptChain struct {
	base
	Object Expr
	// Exactly one of Name/Key is set.
	Name string
	Key  Expr
}

// NewOptChain constructs an OptChain node.
func NewOptChain(span sexp.Span, object Expr, name string, key Expr) *OptChain {
	return &OptChain{base{span}, object, name, key}
}

// Call is a direct or closure-indirect function invocation; arguments evaluate left to right.
type Call struct {
	base
	Callee Expr
	Args   []Expr
}

// NewCall constructs a Call node.
func NewCall(span sexp.Span, callee Expr, args []Expr) *Call {
	return &Call{base{span}, callee, args}
}

// NewExpr is `new Constructor(args)`, restricted to a fixed whitelist;
// Constructor is stored as its bare name since the normalizer has already
// rejected anything not on the whitelist.
type NewExpr struct {
	base
	Constructor string
	Args        []Expr
}

// NewNewExpr constructs a NewExpr node.
func NewNewExpr(span sexp.Span, ctor string, args []Expr) *NewExpr {
	return &NewExpr{base{span}, ctor, args}
}

// Param is one formal parameter of an Arrow, possibly with a default value
// and/or destructuring pattern.
type Param struct {
	Name    string
	Default Expr
	Pattern *Pattern // non-nil when this parameter destructures its argument
	Rest    bool
}

// PatternKind distinguishes array-destructuring from object-destructuring.
type PatternKind uint8

// Pattern kinds.
const (
	PatternArray PatternKind = iota
	PatternObject
)

// PatternElem is one binding within a destructuring Pattern.
type PatternElem struct {
	// Key is the source property name (object patterns) or empty (array
	// patterns, where position is the key).
	Key     string
	Name    string
	Default Expr
	Nested  *Pattern
	Rest    bool
}

// Pattern is an array or object destructuring pattern, preserved
// structurally so codegen can expand it against the right-hand side.
type Pattern struct {
	Kind  PatternKind
	Elems []PatternElem
}

// Arrow is an arrow function or `function` expression/declaration. Captured
// locals are discovered later by pkg/scope; this node only carries the
// syntactic shape.
type Arrow struct {
	base
	Name   string // non-empty for a named function declaration
	Params []Param
	Body   *Block
	// ExprBody holds a concise-body arrow's single expression, mutually
	// exclusive with Body.
	ExprBody Expr
}

// NewArrow constructs an Arrow node.
func NewArrow(span sexp.Span, name string, params []Param, body *Block, exprBody Expr) *Arrow {
	return &Arrow{base{span}, name, params, body, exprBody}
}

// RegexLit is a `/pattern/flags` literal; pkg/regexp compiles one matcher
// function per distinct literal, shared across call sites.
type RegexLit struct {
	base
	Pattern string
	Flags   string
}

// NewRegexLit constructs a RegexLit node.
func NewRegexLit(span sexp.Span, pattern, flags string) *RegexLit {
	return &RegexLit{base{span}, pattern, flags}
}

// SpreadExpr is `...expr` used inside an array literal or call argument
// list.
type SpreadExpr struct {
	base
	Operand Expr
}

// NewSpreadExpr constructs a SpreadExpr node.
func NewSpreadExpr(span sexp.Span, operand Expr) *SpreadExpr {
	return &SpreadExpr{base{span}, operand}
}
