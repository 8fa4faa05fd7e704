package ast

import "iter"

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor is
// used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// children returns the direct child nodes of n, in source order, skipping
// any nil slots. It is the single source of truth for tree shape, used by
// both Walk and Preorder so the two traversals can never drift apart.
func children(n Node) []Node {
	switch n := n.(type) {
	case *Program:
		out := make([]Node, len(n.Stmts))
		for i, s := range n.Stmts {
			out[i] = s
		}
		return out
	case *BadExpr, *BadStmt, *Ident, *NumberLit, *BigIntLit, *StringLit,
		*BoolLit, *NullLit, *UndefinedLit, *RegexLit, *This, *Super,
		*Empty, *Debugger, *Break, *Continue:
		return nil

	case *ExprStmt:
		return []Node{n.X}
	case *VarDecl:
		var out []Node
		for _, d := range n.Decls {
			out = append(out, d.Target)
			if d.Init != nil {
				out = append(out, d.Init)
			}
		}
		return out
	case *Block:
		return n.Stmts
	case *If:
		out := []Node{n.Cond, n.Then}
		if n.Else != nil {
			out = append(out, n.Else)
		}
		return out
	case *While:
		return []Node{n.Cond, n.Body}
	case *DoWhile:
		return []Node{n.Body, n.Cond}
	case *For:
		var out []Node
		if n.Init != nil {
			out = append(out, n.Init)
		}
		if n.Cond != nil {
			out = append(out, n.Cond)
		}
		if n.Post != nil {
			out = append(out, n.Post)
		}
		return append(out, n.Body)
	case *ForIn:
		var out []Node
		if n.IsDecl {
			out = append(out, n.Target)
		} else {
			out = append(out, n.LHS)
		}
		return append(out, n.Right, n.Body)
	case *ForOf:
		var out []Node
		if n.IsDecl {
			out = append(out, n.Target)
		} else {
			out = append(out, n.LHS)
		}
		return append(out, n.Right, n.Body)
	case *Return:
		if n.Value != nil {
			return []Node{n.Value}
		}
		return nil
	case *Labeled:
		return []Node{n.Label, n.Stmt}
	case *SwitchCase:
		var out []Node
		if n.Test != nil {
			out = append(out, n.Test)
		}
		return append(out, n.Body...)
	case *Switch:
		out := []Node{n.Disc}
		for _, c := range n.Cases {
			out = append(out, c)
		}
		return out
	case *Try:
		out := []Node{n.Body}
		if n.CatchTarget != nil {
			out = append(out, n.CatchTarget)
		}
		if n.CatchBlock != nil {
			out = append(out, n.CatchBlock)
		}
		if n.FinallyBlock != nil {
			out = append(out, n.FinallyBlock)
		}
		return out
	case *Throw:
		return []Node{n.Value}
	case *ImportDecl:
		return nil
	case *ExportDecl:
		if n.Decl != nil {
			return []Node{n.Decl}
		}
		if n.DefaultExp != nil {
			return []Node{n.DefaultExp}
		}
		return nil

	case *Prefix:
		return []Node{n.X}
	case *Update:
		return []Node{n.X}
	case *Infix:
		return []Node{n.X, n.Y}
	case *Logical:
		return []Node{n.X, n.Y}
	case *Conditional:
		return []Node{n.Cond, n.Then, n.Else}
	case *Assign:
		return []Node{n.Target, n.Value}
	case *Sequence:
		out := make([]Node, len(n.Exprs))
		for i, e := range n.Exprs {
			out[i] = e
		}
		return out
	case *Spread:
		return []Node{n.X}
	case *Call:
		out := []Node{n.Fun}
		for _, a := range n.Args {
			out = append(out, a)
		}
		return out
	case *New:
		out := []Node{n.Callee}
		for _, a := range n.Args {
			out = append(out, a)
		}
		return out
	case *GetAttr:
		out := []Node{n.X}
		if n.Computed {
			out = append(out, n.Prop)
		} else {
			out = append(out, n.Attr)
		}
		return out
	case *ArrayLit:
		var out []Node
		for _, e := range n.Elements {
			if e != nil {
				out = append(out, e)
			}
		}
		return out
	case *ObjectLit:
		var out []Node
		for _, p := range n.Props {
			if p.Key != nil {
				out = append(out, p.Key)
			}
			out = append(out, p.Value)
		}
		return out
	case *FunctionLit:
		var out []Node
		if n.Name != nil {
			out = append(out, n.Name)
		}
		for _, p := range n.Params {
			out = append(out, p)
		}
		if n.RestParam != nil {
			out = append(out, n.RestParam)
		}
		return append(out, n.Body)
	case *ArrowFunctionLit:
		var out []Node
		for _, p := range n.Params {
			out = append(out, p)
		}
		if n.RestParam != nil {
			out = append(out, n.RestParam)
		}
		return append(out, n.Body)
	case *ClassLit:
		var out []Node
		if n.Name != nil {
			out = append(out, n.Name)
		}
		if n.Super != nil {
			out = append(out, n.Super)
		}
		for _, m := range n.Body {
			if m.Key != nil {
				out = append(out, m.Key)
			}
			if m.Fn != nil {
				out = append(out, m.Fn)
			}
			if m.Init != nil {
				out = append(out, m.Init)
			}
		}
		return out
	case *Yield:
		if n.Arg != nil {
			return []Node{n.Arg}
		}
		return nil
	case *Await:
		return []Node{n.Arg}
	case *TemplateLit:
		out := make([]Node, len(n.Exprs))
		for i, e := range n.Exprs {
			out[i] = e
		}
		return out
	case *TaggedTemplate:
		return []Node{n.Tag, n.Template}

	case *AssignmentPattern:
		return []Node{n.Target, n.Default}
	case *RestElement:
		return []Node{n.Target}
	case *ArrayPattern:
		var out []Node
		for _, e := range n.Elements {
			if e != nil {
				out = append(out, e)
			}
		}
		return out
	case *ObjectPattern:
		var out []Node
		for _, p := range n.Props {
			if p.Key != nil {
				out = append(out, p.Key)
			}
			out = append(out, p.Value)
		}
		if n.Rest != nil {
			out = append(out, n.Rest)
		}
		return out
	}
	return nil
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}
	for _, c := range children(node) {
		Walk(v, c)
	}
}

// Inspect traverses an AST in depth-first order, calling f(node) for each
// node. If f returns true, Inspect recurses into that node's children.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Preorder returns an iterator over all nodes of the AST rooted at node, in
// depth-first preorder.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var visit func(Node) bool
		visit = func(n Node) bool {
			if n == nil {
				return true
			}
			if !yield(n) {
				return false
			}
			for _, c := range children(n) {
				if !visit(c) {
					return false
				}
			}
			return true
		}
		visit(root)
	}
}
