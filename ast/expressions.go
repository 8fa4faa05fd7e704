package ast

import (
	"strings"

	"github.com/juniper-lang/juniper/internal/token"
)

// Prefix is a unary expression where the operator precedes the operand,
// e.g. `!x`, `-x`, `typeof x`, `void x`, `delete x`.
type Prefix struct {
	OpPos token.Position
	Op    string
	X     Expr
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.X.End() }
func (x *Prefix) String() string      { return "(" + x.Op + x.X.String() + ")" }

// Update is `++`/`--` applied to an assignable target, either as a prefix
// (`++x`) or postfix (`x++`) operator.
type Update struct {
	OpPos  token.Position
	Op     string // "++" or "--"
	X      Expr
	Prefix bool
}

func (x *Update) exprNode() {}

func (x *Update) Pos() token.Position {
	if x.Prefix {
		return x.OpPos
	}
	return x.X.Pos()
}
func (x *Update) End() token.Position {
	if x.Prefix {
		return x.X.End()
	}
	return x.OpPos.Advance(2)
}
func (x *Update) String() string {
	if x.Prefix {
		return "(" + x.Op + x.X.String() + ")"
	}
	return "(" + x.X.String() + x.Op + ")"
}

// Infix is a binary operator expression, e.g. `x + y`, `x === y`, `x & y`.
type Infix struct {
	X     Expr
	OpPos token.Position
	Op    string
	Y     Expr
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.X.Pos() }
func (x *Infix) End() token.Position { return x.Y.End() }
func (x *Infix) String() string {
	return "(" + x.X.String() + " " + x.Op + " " + x.Y.String() + ")"
}

// Logical is `&&`, `||`, or `??`, kept distinct from Infix because these
// operators short-circuit: the right operand is not evaluated unless
// needed, which the compiler lowers with jumps rather than an eager
// op.BinaryOp.
type Logical struct {
	X     Expr
	OpPos token.Position
	Op    string // "&&", "||", "??"
	Y     Expr
}

func (x *Logical) exprNode() {}

func (x *Logical) Pos() token.Position { return x.X.Pos() }
func (x *Logical) End() token.Position { return x.Y.End() }
func (x *Logical) String() string {
	return "(" + x.X.String() + " " + x.Op + " " + x.Y.String() + ")"
}

// Conditional is the ternary expression `cond ? then : else`.
type Conditional struct {
	Cond   Expr
	Then   Expr
	Else   Expr
	EndPos token.Position
}

func (x *Conditional) exprNode() {}

func (x *Conditional) Pos() token.Position { return x.Cond.Pos() }
func (x *Conditional) End() token.Position { return x.Else.End() }
func (x *Conditional) String() string {
	return "(" + x.Cond.String() + " ? " + x.Then.String() + " : " + x.Else.String() + ")"
}

// Assign is an assignment expression: `target op= value`, where target is
// an Ident, a GetAttr (plain or computed), or a destructuring pattern (ArrayLit/ObjectLit
// reinterpreted as a pattern for `[a, b] = arr`).
type Assign struct {
	Target Expr
	OpPos  token.Position
	Op     string // "=", "+=", "-=", "&&=", "??=", etc.
	Value  Expr
}

func (x *Assign) exprNode() {}

func (x *Assign) Pos() token.Position { return x.Target.Pos() }
func (x *Assign) End() token.Position { return x.Value.End() }
func (x *Assign) String() string {
	return "(" + x.Target.String() + " " + x.Op + " " + x.Value.String() + ")"
}

// Sequence is the comma operator: `a, b, c` evaluates each in order and
// yields the last.
type Sequence struct {
	Exprs []Expr
}

func (x *Sequence) exprNode() {}

func (x *Sequence) Pos() token.Position { return x.Exprs[0].Pos() }
func (x *Sequence) End() token.Position { return x.Exprs[len(x.Exprs)-1].End() }
func (x *Sequence) String() string {
	parts := make([]string, len(x.Exprs))
	for i, e := range x.Exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Spread represents a spread expression (`...expr`) used in array literals,
// call arguments, and object literals.
type Spread struct {
	Ellipsis token.Position
	X        Expr
}

func (x *Spread) exprNode() {}

func (x *Spread) Pos() token.Position { return x.Ellipsis }
func (x *Spread) End() token.Position { return x.X.End() }
func (x *Spread) String() string      { return "..." + x.X.String() }

// Call is a function invocation: `fun(args...)`. Optional marks the
// `fun?.(args...)` form, which short-circuits to undefined when fun is
// nullish.
type Call struct {
	Fun      Expr
	Lparen   token.Position
	Args     []Expr // may contain *Spread
	Rparen   token.Position
	Optional bool
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fun.Pos() }
func (x *Call) End() token.Position { return x.Rparen.Advance(1) }
func (x *Call) String() string {
	args := make([]string, len(x.Args))
	for i, a := range x.Args {
		args[i] = a.String()
	}
	return x.Fun.String() + "(" + strings.Join(args, ", ") + ")"
}

// New is a construction expression: `new Ctor(args...)`.
type New struct {
	NewPos token.Position
	Callee Expr
	Args   []Expr
	EndPos token.Position
}

func (x *New) exprNode() {}

func (x *New) Pos() token.Position { return x.NewPos }
func (x *New) End() token.Position { return x.EndPos }
func (x *New) String() string {
	args := make([]string, len(x.Args))
	for i, a := range x.Args {
		args[i] = a.String()
	}
	return "new " + x.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// GetAttr is member access: `x.attr`, `x?.attr`, or computed `x[expr]`/
// `x?.[expr]`.
type GetAttr struct {
	X        Expr
	Period   token.Position // position of "." or "["
	Attr     *Ident         // non-nil when not Computed
	Prop     Expr           // non-nil when Computed
	Computed bool
	Optional bool // true for optional chaining (?. or ?.[)
	EndPos   token.Position
}

func (x *GetAttr) exprNode() {}

func (x *GetAttr) Pos() token.Position { return x.X.Pos() }
func (x *GetAttr) End() token.Position { return x.EndPos }
func (x *GetAttr) String() string {
	sep := "."
	if x.Optional {
		sep = "?."
	}
	if x.Computed {
		return x.X.String() + sep + "[" + x.Prop.String() + "]"
	}
	return x.X.String() + sep + x.Attr.Name
}

// This is the `this` expression.
type This struct {
	ThisPos token.Position
}

func (x *This) exprNode()           {}
func (x *This) Pos() token.Position { return x.ThisPos }
func (x *This) End() token.Position { return x.ThisPos.Advance(4) } // len("this")
func (x *This) String() string      { return "this" }

// Super is the `super` expression, valid only inside a derived class's
// constructor or methods (`super(...)`, `super.method()`).
type Super struct {
	SuperPos token.Position
}

func (x *Super) exprNode()           {}
func (x *Super) Pos() token.Position { return x.SuperPos }
func (x *Super) End() token.Position { return x.SuperPos.Advance(5) } // len("super")
func (x *Super) String() string      { return "super" }

// ArrayLit builds an array from a list of elements. A nil entry is an
// elision (`[1, , 3]`); an element may also be a *Spread.
type ArrayLit struct {
	Lbrack   token.Position
	Elements []Expr
	Rbrack   token.Position
}

func (x *ArrayLit) exprNode() {}

func (x *ArrayLit) Pos() token.Position { return x.Lbrack }
func (x *ArrayLit) End() token.Position { return x.Rbrack.Advance(1) }
func (x *ArrayLit) String() string {
	parts := make([]string, len(x.Elements))
	for i, e := range x.Elements {
		if e != nil {
			parts[i] = e.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// PropertyKind distinguishes the flavor of an ObjectLit property.
type PropertyKind int

const (
	PropertyInit PropertyKind = iota
	PropertyGet
	PropertySet
	PropertyMethod
	PropertySpread
)

// ObjectProp is one property in an ObjectLit.
type ObjectProp struct {
	Key       Expr // nil for PropertySpread
	Computed  bool
	Value     Expr // for PropertySpread, the spread expression itself
	Kind      PropertyKind
	Shorthand bool
}

// ObjectLit builds an object from a list of properties, methods,
// accessors, and spreads.
type ObjectLit struct {
	Lbrace token.Position
	Props  []ObjectProp
	Rbrace token.Position
}

func (x *ObjectLit) exprNode() {}

func (x *ObjectLit) Pos() token.Position { return x.Lbrace }
func (x *ObjectLit) End() token.Position { return x.Rbrace.Advance(1) }
func (x *ObjectLit) String() string {
	parts := make([]string, len(x.Props))
	for i, p := range x.Props {
		switch {
		case p.Kind == PropertySpread:
			parts[i] = "..." + p.Value.String()
		case p.Shorthand:
			parts[i] = p.Value.String()
		default:
			parts[i] = p.Key.String() + ": " + p.Value.String()
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FunctionLit is a function expression or declaration, covering plain
// functions, generators (`function*`), async functions, and methods.
type FunctionLit struct {
	FuncPos     token.Position
	Name        *Ident // nil for anonymous function expressions
	Params      []Pattern
	RestParam   Pattern // non-nil for a trailing `...rest` parameter
	Body        *Block
	IsGenerator bool
	IsAsync     bool
}

func (x *FunctionLit) exprNode() {}
func (x *FunctionLit) stmtNode() {} // a named function literal also doubles as a declaration

func (x *FunctionLit) Pos() token.Position { return x.FuncPos }
func (x *FunctionLit) End() token.Position { return x.Body.End() }
func (x *FunctionLit) String() string {
	params := make([]string, len(x.Params))
	for i, p := range x.Params {
		params[i] = p.String()
	}
	if x.RestParam != nil {
		params = append(params, "..."+x.RestParam.String())
	}
	var out strings.Builder
	if x.IsAsync {
		out.WriteString("async ")
	}
	out.WriteString("function")
	if x.IsGenerator {
		out.WriteString("*")
	}
	if x.Name != nil {
		out.WriteString(" " + x.Name.Name)
	}
	out.WriteString("(" + strings.Join(params, ", ") + ") ")
	out.WriteString(x.Body.String())
	return out.String()
}

// ArrowFunctionLit is an arrow function expression. Unlike FunctionLit, it
// never binds its own `this`/`arguments`/`super` — those are captured from
// the enclosing scope — and its Body may be a single expression instead of
// a block (`x => x + 1`).
type ArrowFunctionLit struct {
	Params    []Pattern
	RestParam Pattern
	Arrow     token.Position
	Body      Node // *Block or an Expr
	IsAsync   bool
}

func (x *ArrowFunctionLit) exprNode() {}

func (x *ArrowFunctionLit) Pos() token.Position {
	if len(x.Params) > 0 {
		return x.Params[0].Pos()
	}
	return x.Arrow
}
func (x *ArrowFunctionLit) End() token.Position { return x.Body.End() }
func (x *ArrowFunctionLit) String() string {
	params := make([]string, len(x.Params))
	for i, p := range x.Params {
		params[i] = p.String()
	}
	if x.RestParam != nil {
		params = append(params, "..."+x.RestParam.String())
	}
	prefix := ""
	if x.IsAsync {
		prefix = "async "
	}
	return prefix + "(" + strings.Join(params, ", ") + ") => " + x.Body.String()
}

// ClassMemberKind distinguishes the flavor of a ClassLit member.
type ClassMemberKind int

const (
	ClassMethod ClassMemberKind = iota
	ClassGetter
	ClassSetter
	ClassField
)

// ClassMember is one member of a class body: a method, accessor, or field.
type ClassMember struct {
	Key      Expr
	Computed bool
	Kind     ClassMemberKind
	Static   bool
	Fn       *FunctionLit // set for ClassMethod/ClassGetter/ClassSetter
	Init     Expr         // set for ClassField (may be nil: `x;`)
}

// ClassLit is a class expression or declaration.
type ClassLit struct {
	ClassPos token.Position
	Name     *Ident // nil for anonymous class expressions
	Super    Expr   // non-nil for `extends`
	Body     []ClassMember
	EndPos   token.Position
}

func (x *ClassLit) exprNode() {}
func (x *ClassLit) stmtNode() {}

func (x *ClassLit) Pos() token.Position { return x.ClassPos }
func (x *ClassLit) End() token.Position { return x.EndPos }
func (x *ClassLit) String() string {
	var out strings.Builder
	out.WriteString("class")
	if x.Name != nil {
		out.WriteString(" " + x.Name.Name)
	}
	if x.Super != nil {
		out.WriteString(" extends " + x.Super.String())
	}
	out.WriteString(" { ")
	for _, m := range x.Body {
		if m.Static {
			out.WriteString("static ")
		}
		switch m.Kind {
		case ClassGetter:
			out.WriteString("get ")
		case ClassSetter:
			out.WriteString("set ")
		}
		out.WriteString(m.Key.String())
		if m.Kind == ClassField {
			if m.Init != nil {
				out.WriteString(" = " + m.Init.String())
			}
			out.WriteString("; ")
		} else {
			out.WriteString(m.Fn.String() + " ")
		}
	}
	out.WriteString("}")
	return out.String()
}

// Yield is `yield expr` or `yield* expr` inside a generator body.
type Yield struct {
	YieldPos token.Position
	Arg      Expr // nil for a bare `yield`
	Delegate bool // true for `yield*`
}

func (x *Yield) exprNode() {}

func (x *Yield) Pos() token.Position { return x.YieldPos }
func (x *Yield) End() token.Position {
	if x.Arg != nil {
		return x.Arg.End()
	}
	return x.YieldPos.Advance(5) // len("yield")
}
func (x *Yield) String() string {
	star := ""
	if x.Delegate {
		star = "*"
	}
	if x.Arg == nil {
		return "yield" + star
	}
	return "yield" + star + " " + x.Arg.String()
}

// Await is `await expr` inside an async function body.
type Await struct {
	AwaitPos token.Position
	Arg      Expr
}

func (x *Await) exprNode() {}

func (x *Await) Pos() token.Position { return x.AwaitPos }
func (x *Await) End() token.Position { return x.Arg.End() }
func (x *Await) String() string      { return "await " + x.Arg.String() }
