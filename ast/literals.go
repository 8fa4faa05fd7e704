package ast

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/juniper-lang/juniper/internal/token"
)

// Ident is an expression node that refers to a binding by name. It also
// implements Pattern, since a bare identifier is the simplest binding
// target in a variable declaration, parameter list, or assignment.
type Ident struct {
	NamePos token.Position
	Name    string
}

func (x *Ident) exprNode()    {}
func (x *Ident) patternNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }
func (x *Ident) String() string      { return x.Name }

// NumberLit is an expression node that holds a numeric literal. ECMAScript
// numbers are IEEE-754 doubles, so Value is always a float64 even for
// literals written without a decimal point.
type NumberLit struct {
	ValuePos token.Position
	Raw      string
	Value    float64
}

func (x *NumberLit) exprNode() {}

func (x *NumberLit) Pos() token.Position { return x.ValuePos }
func (x *NumberLit) End() token.Position { return x.ValuePos.Advance(len(x.Raw)) }
func (x *NumberLit) String() string      { return x.Raw }

// BigIntLit is an expression node that holds an arbitrary-precision
// integer literal, written with a trailing `n` (e.g. `9007199254740993n`).
type BigIntLit struct {
	ValuePos token.Position
	Raw      string // includes the trailing "n"
	Value    *big.Int
}

func (x *BigIntLit) exprNode() {}

func (x *BigIntLit) Pos() token.Position { return x.ValuePos }
func (x *BigIntLit) End() token.Position { return x.ValuePos.Advance(len(x.Raw)) }
func (x *BigIntLit) String() string      { return x.Raw }

// StringLit is an expression node that holds a single- or double-quoted
// string literal (already unescaped into Value).
type StringLit struct {
	ValuePos token.Position
	Raw      string
	Value    string
}

func (x *StringLit) exprNode() {}

func (x *StringLit) Pos() token.Position { return x.ValuePos }
func (x *StringLit) End() token.Position { return x.ValuePos.Advance(len(x.Raw)) }
func (x *StringLit) String() string      { return fmt.Sprintf("%q", x.Value) }

// BoolLit is an expression node that holds a boolean literal.
type BoolLit struct {
	ValuePos token.Position
	Value    bool
}

func (x *BoolLit) exprNode() {}

func (x *BoolLit) Pos() token.Position { return x.ValuePos }
func (x *BoolLit) End() token.Position {
	if x.Value {
		return x.ValuePos.Advance(4) // len("true")
	}
	return x.ValuePos.Advance(5) // len("false")
}
func (x *BoolLit) String() string {
	if x.Value {
		return "true"
	}
	return "false"
}

// NullLit is an expression node for the `null` literal.
type NullLit struct {
	ValuePos token.Position
}

func (x *NullLit) exprNode()           {}
func (x *NullLit) Pos() token.Position { return x.ValuePos }
func (x *NullLit) End() token.Position { return x.ValuePos.Advance(4) } // len("null")
func (x *NullLit) String() string      { return "null" }

// UndefinedLit is an expression node for the `undefined` literal.
type UndefinedLit struct {
	ValuePos token.Position
}

func (x *UndefinedLit) exprNode()           {}
func (x *UndefinedLit) Pos() token.Position { return x.ValuePos }
func (x *UndefinedLit) End() token.Position { return x.ValuePos.Advance(9) } // len("undefined")
func (x *UndefinedLit) String() string      { return "undefined" }

// RegexLit is an expression node for a regular expression literal, e.g.
// `/ab+c/gi`.
type RegexLit struct {
	ValuePos token.Position
	Pattern  string
	Flags    string
}

func (x *RegexLit) exprNode() {}

func (x *RegexLit) Pos() token.Position { return x.ValuePos }
func (x *RegexLit) End() token.Position {
	return x.ValuePos.Advance(len(x.Pattern) + len(x.Flags) + 2)
}
func (x *RegexLit) String() string { return "/" + x.Pattern + "/" + x.Flags }

// TemplateLit is an expression node for a template literal: the literal
// string pieces (Quasis, one more than len(Exprs)) interleaved with the
// embedded expressions.
type TemplateLit struct {
	Backtick token.Position
	Quasis   []string
	Exprs    []Expr
	EndPos   token.Position
}

func (x *TemplateLit) exprNode() {}

func (x *TemplateLit) Pos() token.Position { return x.Backtick }
func (x *TemplateLit) End() token.Position { return x.EndPos }

func (x *TemplateLit) String() string {
	var out strings.Builder
	out.WriteString("`")
	for i, q := range x.Quasis {
		out.WriteString(q)
		if i < len(x.Exprs) {
			out.WriteString("${")
			out.WriteString(x.Exprs[i].String())
			out.WriteString("}")
		}
	}
	out.WriteString("`")
	return out.String()
}

// TaggedTemplate is an expression node for a tagged template literal:
// tag`...`.
type TaggedTemplate struct {
	Tag      Expr
	Template *TemplateLit
}

func (x *TaggedTemplate) exprNode() {}

func (x *TaggedTemplate) Pos() token.Position { return x.Tag.Pos() }
func (x *TaggedTemplate) End() token.Position { return x.Template.End() }
func (x *TaggedTemplate) String() string      { return x.Tag.String() + x.Template.String() }

// AssignmentPattern wraps a binding Target with a Default value, used for
// default parameter values and destructuring defaults (e.g. `{a = 1}`).
type AssignmentPattern struct {
	Target  Pattern
	Eq      token.Position
	Default Expr
}

func (x *AssignmentPattern) patternNode() {}

func (x *AssignmentPattern) Pos() token.Position { return x.Target.Pos() }
func (x *AssignmentPattern) End() token.Position { return x.Default.End() }
func (x *AssignmentPattern) String() string {
	return x.Target.String() + " = " + x.Default.String()
}

// RestElement wraps a binding Target that collects the remaining elements
// of an array pattern or the remaining properties of an object pattern
// (e.g. `...rest`), and also backs rest parameters in a function signature.
type RestElement struct {
	Ellipsis token.Position
	Target   Pattern
}

func (x *RestElement) patternNode() {}

func (x *RestElement) Pos() token.Position { return x.Ellipsis }
func (x *RestElement) End() token.Position { return x.Target.End() }
func (x *RestElement) String() string      { return "..." + x.Target.String() }

// ArrayPattern is a destructuring pattern that binds array elements
// positionally, e.g. `[a, , b = 1, ...rest]`. A nil entry in Elements is a
// hole (`[a, , c]`) and is skipped during destructuring.
type ArrayPattern struct {
	Lbrack   token.Position
	Elements []Pattern
	Rbrack   token.Position
}

func (x *ArrayPattern) patternNode() {}

func (x *ArrayPattern) Pos() token.Position { return x.Lbrack }
func (x *ArrayPattern) End() token.Position { return x.Rbrack.Advance(1) }

func (x *ArrayPattern) String() string {
	parts := make([]string, len(x.Elements))
	for i, e := range x.Elements {
		if e != nil {
			parts[i] = e.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjectPatternProp is one property binding within an ObjectPattern.
type ObjectPatternProp struct {
	Key       Expr // Ident or computed key expression
	Computed  bool
	Value     Pattern // may itself be an AssignmentPattern for a default
	Shorthand bool    // true for `{a}` as opposed to `{a: b}`
}

// ObjectPattern is a destructuring pattern that binds object properties by
// name, e.g. `{a, b: c, ...rest}`.
type ObjectPattern struct {
	Lbrace token.Position
	Props  []ObjectPatternProp
	Rest   *RestElement // non-nil for a trailing `...rest`
	Rbrace token.Position
}

func (x *ObjectPattern) patternNode() {}

func (x *ObjectPattern) Pos() token.Position { return x.Lbrace }
func (x *ObjectPattern) End() token.Position { return x.Rbrace.Advance(1) }

func (x *ObjectPattern) String() string {
	parts := make([]string, 0, len(x.Props)+1)
	for _, p := range x.Props {
		if p.Shorthand {
			parts = append(parts, p.Value.String())
		} else {
			parts = append(parts, p.Key.String()+": "+p.Value.String())
		}
	}
	if x.Rest != nil {
		parts = append(parts, x.Rest.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
