package ast

import (
	"strings"

	"github.com/juniper-lang/juniper/internal/token"
)

// ExprStmt wraps an expression evaluated for its side effects, e.g. a bare
// call `foo()` or assignment `x = 1`.
type ExprStmt struct {
	X Expr
}

func (x *ExprStmt) stmtNode()           {}
func (x *ExprStmt) Pos() token.Position { return x.X.Pos() }
func (x *ExprStmt) End() token.Position { return x.X.End() }
func (x *ExprStmt) String() string      { return x.X.String() }

// DeclKind distinguishes `var`, `let`, and `const` declarations. Only `var`
// declarations are hoisted function-wide with an undefined initial value;
// `let`/`const` start in the temporal dead zone until their declaration
// statement executes.
type DeclKind int

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclVar:
		return "var"
	case DeclConst:
		return "const"
	default:
		return "let"
	}
}

// Declarator is one `name = init` (or destructuring pattern) entry within a
// VarDecl.
type Declarator struct {
	Target Pattern
	Init   Expr // nil for `let x;` with no initializer
}

// VarDecl is a `var`/`let`/`const` declaration statement, possibly declaring
// several bindings at once (`let a = 1, b = 2`).
type VarDecl struct {
	DeclPos token.Position
	Kind    DeclKind
	Decls   []Declarator
	EndPos  token.Position
}

func (x *VarDecl) stmtNode() {}

func (x *VarDecl) Pos() token.Position { return x.DeclPos }
func (x *VarDecl) End() token.Position { return x.EndPos }

func (x *VarDecl) String() string {
	parts := make([]string, len(x.Decls))
	for i, d := range x.Decls {
		s := d.Target.String()
		if d.Init != nil {
			s += " = " + d.Init.String()
		}
		parts[i] = s
	}
	return x.Kind.String() + " " + strings.Join(parts, ", ")
}

// Block is a node that holds a sequence of statements, e.g. a function or
// loop body.
type Block struct {
	Lbrace token.Position
	Stmts  []Node
	Rbrace token.Position
}

func (x *Block) stmtNode() {}

func (x *Block) Pos() token.Position { return x.Lbrace }
func (x *Block) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Block) String() string {
	var out strings.Builder
	out.WriteString("{ ")
	for i, s := range x.Stmts {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(s.String())
	}
	out.WriteString(" }")
	return out.String()
}

// If is an `if`/`else` statement. Else is nil when there is no else clause;
// it holds another *If for an `else if` chain.
type If struct {
	IfPos token.Position
	Cond  Expr
	Then  Stmt
	Else  Stmt
}

func (x *If) stmtNode() {}

func (x *If) Pos() token.Position { return x.IfPos }
func (x *If) End() token.Position {
	if x.Else != nil {
		return x.Else.End()
	}
	return x.Then.End()
}

func (x *If) String() string {
	s := "if (" + x.Cond.String() + ") " + x.Then.String()
	if x.Else != nil {
		s += " else " + x.Else.String()
	}
	return s
}

// While is a `while` loop.
type While struct {
	WhilePos token.Position
	Cond     Expr
	Body     Stmt
}

func (x *While) stmtNode() {}

func (x *While) Pos() token.Position { return x.WhilePos }
func (x *While) End() token.Position { return x.Body.End() }
func (x *While) String() string {
	return "while (" + x.Cond.String() + ") " + x.Body.String()
}

// DoWhile is a `do { ... } while (cond)` loop.
type DoWhile struct {
	DoPos  token.Position
	Body   Stmt
	Cond   Expr
	EndPos token.Position
}

func (x *DoWhile) stmtNode() {}

func (x *DoWhile) Pos() token.Position { return x.DoPos }
func (x *DoWhile) End() token.Position { return x.EndPos }
func (x *DoWhile) String() string {
	return "do " + x.Body.String() + " while (" + x.Cond.String() + ")"
}

// For is a C-style `for (init; cond; post) body` loop. Init may be a
// *VarDecl, an Expr, or nil; Cond and Post may be nil.
type For struct {
	ForPos token.Position
	Init   Node
	Cond   Expr
	Post   Expr
	Body   Stmt
}

func (x *For) stmtNode() {}

func (x *For) Pos() token.Position { return x.ForPos }
func (x *For) End() token.Position { return x.Body.End() }
func (x *For) String() string {
	var out strings.Builder
	out.WriteString("for (")
	if x.Init != nil {
		out.WriteString(x.Init.String())
	}
	out.WriteString("; ")
	if x.Cond != nil {
		out.WriteString(x.Cond.String())
	}
	out.WriteString("; ")
	if x.Post != nil {
		out.WriteString(x.Post.String())
	}
	out.WriteString(") ")
	out.WriteString(x.Body.String())
	return out.String()
}

// ForIn is a `for (left in right) body` loop iterating enumerable keys.
// Left is either a fresh declaration (IsDecl true, with Kind and a single
// Target pattern) or an existing assignable Expr held in LHS.
type ForIn struct {
	ForPos token.Position
	IsDecl bool
	Kind   DeclKind // valid only when IsDecl
	Target Pattern  // valid only when IsDecl
	LHS    Expr     // valid only when !IsDecl
	Right  Expr
	Body   Stmt
}

func (x *ForIn) stmtNode() {}

func (x *ForIn) Pos() token.Position { return x.ForPos }
func (x *ForIn) End() token.Position { return x.Body.End() }
func (x *ForIn) String() string {
	left := x.LHS
	var leftStr string
	if x.IsDecl {
		leftStr = x.Kind.String() + " " + x.Target.String()
	} else {
		leftStr = left.String()
	}
	return "for (" + leftStr + " in " + x.Right.String() + ") " + x.Body.String()
}

// ForOf is a `for (left of right) body` loop driving the iterator protocol,
// including `for await (left of right)`.
type ForOf struct {
	ForPos  token.Position
	IsAwait bool
	IsDecl  bool
	Kind    DeclKind
	Target  Pattern
	LHS     Expr
	Right   Expr
	Body    Stmt
}

func (x *ForOf) stmtNode() {}

func (x *ForOf) Pos() token.Position { return x.ForPos }
func (x *ForOf) End() token.Position { return x.Body.End() }
func (x *ForOf) String() string {
	var leftStr string
	if x.IsDecl {
		leftStr = x.Kind.String() + " " + x.Target.String()
	} else {
		leftStr = x.LHS.String()
	}
	prefix := "for ("
	if x.IsAwait {
		prefix = "for await ("
	}
	return prefix + leftStr + " of " + x.Right.String() + ") " + x.Body.String()
}

// Return is a `return` statement. Value is nil for a bare `return`.
type Return struct {
	ReturnPos token.Position
	Value     Expr
}

func (x *Return) stmtNode() {}

func (x *Return) Pos() token.Position { return x.ReturnPos }
func (x *Return) End() token.Position {
	if x.Value != nil {
		return x.Value.End()
	}
	return x.ReturnPos.Advance(6) // len("return")
}
func (x *Return) String() string {
	if x.Value != nil {
		return "return " + x.Value.String()
	}
	return "return"
}

// Break is a `break` or `break label` statement.
type Break struct {
	BreakPos token.Position
	Label    *Ident // nil for a bare break
}

func (x *Break) stmtNode() {}

func (x *Break) Pos() token.Position { return x.BreakPos }
func (x *Break) End() token.Position {
	if x.Label != nil {
		return x.Label.End()
	}
	return x.BreakPos.Advance(5) // len("break")
}
func (x *Break) String() string {
	if x.Label != nil {
		return "break " + x.Label.Name
	}
	return "break"
}

// Continue is a `continue` or `continue label` statement.
type Continue struct {
	ContinuePos token.Position
	Label       *Ident
}

func (x *Continue) stmtNode() {}

func (x *Continue) Pos() token.Position { return x.ContinuePos }
func (x *Continue) End() token.Position {
	if x.Label != nil {
		return x.Label.End()
	}
	return x.ContinuePos.Advance(8) // len("continue")
}
func (x *Continue) String() string {
	if x.Label != nil {
		return "continue " + x.Label.Name
	}
	return "continue"
}

// Labeled attaches Label to Stmt so `break`/`continue` elsewhere in the tree
// can target it by name.
type Labeled struct {
	Label *Ident
	Colon token.Position
	Stmt  Stmt
}

func (x *Labeled) stmtNode() {}

func (x *Labeled) Pos() token.Position { return x.Label.Pos() }
func (x *Labeled) End() token.Position { return x.Stmt.End() }
func (x *Labeled) String() string      { return x.Label.Name + ": " + x.Stmt.String() }

// SwitchCase is one `case expr:` (Test non-nil) or `default:` (Test nil)
// arm of a Switch.
type SwitchCase struct {
	CasePos token.Position
	Test    Expr
	Body    []Node
}

func (x *SwitchCase) Pos() token.Position { return x.CasePos }
func (x *SwitchCase) End() token.Position {
	if n := len(x.Body); n > 0 {
		return x.Body[n-1].End()
	}
	if x.Test != nil {
		return x.Test.End()
	}
	return x.CasePos
}
func (x *SwitchCase) String() string {
	var out strings.Builder
	if x.Test != nil {
		out.WriteString("case " + x.Test.String() + ": ")
	} else {
		out.WriteString("default: ")
	}
	for i, s := range x.Body {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

// Switch is a `switch (disc) { case ...: ... default: ... }` statement.
type Switch struct {
	SwitchPos token.Position
	Disc      Expr
	Cases     []*SwitchCase
	EndPos    token.Position
}

func (x *Switch) stmtNode() {}

func (x *Switch) Pos() token.Position { return x.SwitchPos }
func (x *Switch) End() token.Position { return x.EndPos }
func (x *Switch) String() string {
	var out strings.Builder
	out.WriteString("switch (" + x.Disc.String() + ") { ")
	for _, c := range x.Cases {
		out.WriteString(c.String())
		out.WriteString("; ")
	}
	out.WriteString("}")
	return out.String()
}

// Try represents a try/catch/finally statement. CatchBlock and
// FinallyBlock are nil when the corresponding clause is absent; a
// `try {} catch {}` with no binding leaves CatchTarget nil but CatchBlock
// non-nil.
type Try struct {
	TryPos       token.Position
	Body         *Block
	CatchPos     token.Position
	CatchTarget  Pattern // nil for `catch { }` (no binding) or no catch at all
	CatchBlock   *Block
	FinallyPos   token.Position
	FinallyBlock *Block
}

func (x *Try) stmtNode() {}

func (x *Try) Pos() token.Position { return x.TryPos }
func (x *Try) End() token.Position {
	if x.FinallyBlock != nil {
		return x.FinallyBlock.End()
	}
	if x.CatchBlock != nil {
		return x.CatchBlock.End()
	}
	return x.Body.End()
}
func (x *Try) String() string {
	var out strings.Builder
	out.WriteString("try " + x.Body.String())
	if x.CatchBlock != nil {
		out.WriteString(" catch ")
		if x.CatchTarget != nil {
			out.WriteString("(" + x.CatchTarget.String() + ") ")
		}
		out.WriteString(x.CatchBlock.String())
	}
	if x.FinallyBlock != nil {
		out.WriteString(" finally " + x.FinallyBlock.String())
	}
	return out.String()
}

// Throw represents a `throw expr` statement.
type Throw struct {
	ThrowPos token.Position
	Value    Expr
}

func (x *Throw) stmtNode() {}

func (x *Throw) Pos() token.Position { return x.ThrowPos }
func (x *Throw) End() token.Position { return x.Value.End() }
func (x *Throw) String() string      { return "throw " + x.Value.String() }

// Debugger is a `debugger;` statement. The compiler lowers it to a no-op;
// no debugger protocol is implemented.
type Debugger struct {
	DebuggerPos token.Position
}

func (x *Debugger) stmtNode()           {}
func (x *Debugger) Pos() token.Position { return x.DebuggerPos }
func (x *Debugger) End() token.Position { return x.DebuggerPos.Advance(8) } // len("debugger")
func (x *Debugger) String() string      { return "debugger" }

// Empty is a lone `;` with no statement.
type Empty struct {
	Semi token.Position
}

func (x *Empty) stmtNode()           {}
func (x *Empty) Pos() token.Position { return x.Semi }
func (x *Empty) End() token.Position { return x.Semi.Advance(1) }
func (x *Empty) String() string      { return ";" }

// ImportSpecifier binds one named export from a module: `{ Imported as
// Local }`, or just `{ Imported }` when Local == Imported.
type ImportSpecifier struct {
	Imported *Ident
	Local    *Ident
}

// ImportDecl is an `import ... from "module"` declaration. Only parsing is
// in scope; codegen emits RESOLVE_MODULE for a host loader to resolve.
type ImportDecl struct {
	ImportPos token.Position
	Default   *Ident // nil if no default import
	Namespace *Ident // nil if no `* as ns` import
	Named     []ImportSpecifier
	Source    *StringLit
	EndPos    token.Position
}

func (x *ImportDecl) stmtNode() {}

func (x *ImportDecl) Pos() token.Position { return x.ImportPos }
func (x *ImportDecl) End() token.Position { return x.EndPos }
func (x *ImportDecl) String() string {
	return "import ... from " + x.Source.String()
}

// ExportSpecifier names one re-exported binding: `{ Local as Exported }`.
type ExportSpecifier struct {
	Local    *Ident
	Exported *Ident
}

// ExportDecl is an `export ...` declaration: a wrapped declaration
// (`export let x = 1`, `export function f() {}`, `export default expr`),
// or a named/re-export list (`export { a, b as c }` optionally `from`).
type ExportDecl struct {
	ExportPos  token.Position
	IsDefault  bool
	Decl       Stmt // non-nil for `export <decl>` / `export default <decl-or-expr>`
	DefaultExp Expr // set instead of Decl for `export default <expr>`
	Named      []ExportSpecifier
	Source     *StringLit // non-nil for `export {...} from "module"`
	EndPos     token.Position
}

func (x *ExportDecl) stmtNode() {}

func (x *ExportDecl) Pos() token.Position { return x.ExportPos }
func (x *ExportDecl) End() token.Position { return x.EndPos }
func (x *ExportDecl) String() string {
	if x.Decl != nil {
		return "export " + x.Decl.String()
	}
	if x.DefaultExp != nil {
		return "export default " + x.DefaultExp.String()
	}
	return "export { ... }"
}
