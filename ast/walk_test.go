package ast_test

import (
	"testing"

	"github.com/juniper-lang/juniper/ast"
	"github.com/stretchr/testify/require"
)

func TestWalkVisitsAllIdents(t *testing.T) {
	// for (let i = 0; i < n; i++) sum += i;
	loop := &ast.For{
		Init: &ast.VarDecl{
			Kind:  ast.DeclLet,
			Decls: []ast.Declarator{{Target: ident("i"), Init: &ast.NumberLit{Raw: "0"}}},
		},
		Cond: &ast.Infix{X: ident("i"), Op: "<", Y: ident("n")},
		Post: &ast.Update{X: ident("i"), Op: "++"},
		Body: &ast.ExprStmt{X: &ast.Assign{Target: ident("sum"), Op: "+=", Value: ident("i")}},
	}

	var names []string
	ast.Inspect(loop, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			names = append(names, id.Name)
		}
		return true
	})
	require.Equal(t, []string{"i", "i", "n", "i", "sum", "i"}, names)
}

func TestPreorderMatchesWalk(t *testing.T) {
	prog := &ast.Program{
		Stmts: []ast.Stmt{
			&ast.If{
				Cond: ident("a"),
				Then: &ast.Block{Stmts: []ast.Node{&ast.ExprStmt{X: ident("b")}}},
				Else: &ast.Block{Stmts: []ast.Node{&ast.ExprStmt{X: ident("c")}}},
			},
		},
	}

	var walked []ast.Node
	ast.Walk(visitorFunc(func(n ast.Node) bool { walked = append(walked, n); return true }), prog)

	var preorder []ast.Node
	for n := range ast.Preorder(prog) {
		preorder = append(preorder, n)
	}

	require.Equal(t, walked, preorder)
	// Program, If, a, then-block, b stmt, b, else-block, c stmt, c
	require.Len(t, walked, 9)
}

type visitorFunc func(ast.Node) bool

func (f visitorFunc) Visit(n ast.Node) ast.Visitor {
	if f(n) {
		return f
	}
	return nil
}

func TestWalkStopsWhenVisitorReturnsNil(t *testing.T) {
	prog := &ast.Program{
		Stmts: []ast.Stmt{&ast.ExprStmt{X: ident("x")}},
	}
	visited := 0
	ast.Walk(visitorFunc(func(n ast.Node) bool {
		visited++
		return false // never descend
	}), prog)
	require.Equal(t, 1, visited)
}
