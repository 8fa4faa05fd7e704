package ast_test

import (
	"testing"

	"github.com/juniper-lang/juniper/ast"
	"github.com/juniper-lang/juniper/internal/token"
	"github.com/stretchr/testify/require"
)

func ident(name string) *ast.Ident {
	return &ast.Ident{Name: name}
}

func TestProgramString(t *testing.T) {
	prog := &ast.Program{
		Filename: "main.js",
		Stmts: []ast.Stmt{
			&ast.VarDecl{
				Kind: ast.DeclLet,
				Decls: []ast.Declarator{
					{Target: ident("x"), Init: &ast.NumberLit{Raw: "1", Value: 1}},
				},
			},
			&ast.Return{Value: ident("x")},
		},
	}
	require.Equal(t, "let x = 1\nreturn x", prog.String())
}

func TestOptionalChainString(t *testing.T) {
	expr := &ast.GetAttr{
		X:        ident("a"),
		Attr:     ident("b"),
		Optional: true,
	}
	require.Equal(t, "a?.b", expr.String())
}

func TestTemplateLitString(t *testing.T) {
	lit := &ast.TemplateLit{
		Quasis: []string{"hello ", "!"},
		Exprs:  []ast.Expr{ident("name")},
	}
	require.Equal(t, "`hello ${name}!`", lit.String())
}

func TestArrowFunctionLitString(t *testing.T) {
	fn := &ast.ArrowFunctionLit{
		Params: []ast.Pattern{ident("x")},
		Body:   &ast.Infix{X: ident("x"), Op: "+", Y: &ast.NumberLit{Raw: "1", Value: 1}},
	}
	require.Equal(t, "(x) => (x + 1)", fn.String())
}

func TestClassLitString(t *testing.T) {
	class := &ast.ClassLit{
		Name:  ident("Point"),
		Super: ident("Base"),
		Body: []ast.ClassMember{
			{Key: ident("constructor"), Kind: ast.ClassMethod, Fn: &ast.FunctionLit{Body: &ast.Block{}}},
		},
	}
	require.Contains(t, class.String(), "class Point extends Base")
}

func TestBadNodesHaveSpans(t *testing.T) {
	from := token.Position{Char: 1}
	to := token.Position{Char: 5}
	bx := &ast.BadExpr{From: from, To: to}
	require.Equal(t, from, bx.Pos())
	require.Equal(t, to, bx.End())

	bs := &ast.BadStmt{From: from, To: to}
	require.Equal(t, from, bs.Pos())
	require.Equal(t, to, bs.End())
}

func TestDestructuringPatternString(t *testing.T) {
	pat := &ast.ObjectPattern{
		Props: []ast.ObjectPatternProp{
			{Key: ident("a"), Value: ident("a"), Shorthand: true},
			{Key: ident("b"), Value: &ast.AssignmentPattern{
				Target:  ident("b"),
				Default: &ast.NumberLit{Raw: "2", Value: 2},
			}},
		},
		Rest: &ast.RestElement{Target: ident("rest")},
	}
	require.Equal(t, "{a, b: b = 2, ...rest}", pat.String())
}
