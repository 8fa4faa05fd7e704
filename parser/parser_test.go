package parser

import (
	"context"
	"testing"

	"github.com/juniper-lang/juniper/ast"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := Parse(context.Background(), input)
	require.NoError(t, err)
	return program
}

func parseError(t *testing.T, input string) error {
	t.Helper()
	_, err := Parse(context.Background(), input)
	require.Error(t, err)
	return err
}

func firstStmt(t *testing.T, input string) ast.Stmt {
	t.Helper()
	program := parse(t, input)
	require.NotEmpty(t, program.Stmts)
	return program.Stmts[0]
}

func firstExpr(t *testing.T, input string) ast.Expr {
	t.Helper()
	stmt, ok := firstStmt(t, input).(*ast.ExprStmt)
	require.True(t, ok, "expected expression statement")
	return stmt.X
}

func TestVarDeclarations(t *testing.T) {
	stmt, ok := firstStmt(t, "let a = 1, b = 2;").(*ast.VarDecl)
	require.True(t, ok)
	require.Equal(t, ast.DeclLet, stmt.Kind)
	require.Len(t, stmt.Decls, 2)
	require.Equal(t, "a", stmt.Decls[0].Target.String())

	stmt, ok = firstStmt(t, "const x = 5;").(*ast.VarDecl)
	require.True(t, ok)
	require.Equal(t, ast.DeclConst, stmt.Kind)

	stmt, ok = firstStmt(t, "var v;").(*ast.VarDecl)
	require.True(t, ok)
	require.Equal(t, ast.DeclVar, stmt.Kind)
	require.Nil(t, stmt.Decls[0].Init)
}

func TestConstRequiresInitializer(t *testing.T) {
	parseError(t, "const x;")
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a + b - c", "((a + b) - c)"},
		{"a * b / c", "((a * b) / c)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"-a * b", "((-a) * b)"},
		{"!a === b", "((!a) === b)"},
		{"a < b === c > d", "((a < b) === (c > d))"},
		{"a & b | c ^ d", "((a & b) | (c ^ d))"},
		{"a && b || c", "((a && b) || c)"},
		{"a ?? b ?? c", "((a ?? b) ?? c)"},
		{"a << 2 + 1", "(a << (2 + 1))"},
		{"a in b", "(a in b)"},
		{"a instanceof B", "(a instanceof B)"},
	}
	for _, tt := range tests {
		expr := firstExpr(t, tt.input)
		require.Equal(t, tt.expected, expr.String(), "input: %s", tt.input)
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	expr, ok := firstExpr(t, "a = b = 1").(*ast.Assign)
	require.True(t, ok)
	_, ok = expr.Value.(*ast.Assign)
	require.True(t, ok)
}

func TestCompoundAssignmentOperators(t *testing.T) {
	for _, op := range []string{"+=", "-=", "*=", "/=", "%=", "**=", "&=", "|=", "^=", "<<=", ">>=", ">>>=", "&&=", "||=", "??="} {
		expr, ok := firstExpr(t, "a "+op+" 1").(*ast.Assign)
		require.True(t, ok, "operator %s", op)
		require.Equal(t, op, expr.Op)
	}
}

func TestConditionalExpression(t *testing.T) {
	expr, ok := firstExpr(t, "a ? b : c").(*ast.Conditional)
	require.True(t, ok)
	require.Equal(t, "a", expr.Cond.String())
	require.Equal(t, "c", expr.Else.String())
}

func TestCallAndMemberChains(t *testing.T) {
	expr, ok := firstExpr(t, "a.b.c(1, 2)[3]").(*ast.GetAttr)
	require.True(t, ok)
	require.True(t, expr.Computed)
	call, ok := expr.X.(*ast.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
}

func TestOptionalChainForms(t *testing.T) {
	attr, ok := firstExpr(t, "a?.b").(*ast.GetAttr)
	require.True(t, ok)
	require.True(t, attr.Optional)

	call, ok := firstExpr(t, "f?.(1)").(*ast.Call)
	require.True(t, ok)
	require.True(t, call.Optional)

	idx, ok := firstExpr(t, "a?.[k]").(*ast.GetAttr)
	require.True(t, ok)
	require.True(t, idx.Optional)
	require.True(t, idx.Computed)
}

func TestNewExpressions(t *testing.T) {
	expr, ok := firstExpr(t, "new Point(1, 2)").(*ast.New)
	require.True(t, ok)
	require.Len(t, expr.Args, 2)

	// new a.b.C(x): member access binds into the callee
	expr, ok = firstExpr(t, "new a.b.C(x)").(*ast.New)
	require.True(t, ok)
	_, ok = expr.Callee.(*ast.GetAttr)
	require.True(t, ok)
}

func TestArrowFunctions(t *testing.T) {
	arrow, ok := firstExpr(t, "x => x + 1").(*ast.ArrowFunctionLit)
	require.True(t, ok)
	require.Len(t, arrow.Params, 1)
	_, isExpr := arrow.Body.(ast.Expr)
	require.True(t, isExpr)

	arrow, ok = firstExpr(t, "(a, b = 2, ...rest) => { return a; }").(*ast.ArrowFunctionLit)
	require.True(t, ok)
	require.Len(t, arrow.Params, 2)
	require.NotNil(t, arrow.RestParam)
	_, isBlock := arrow.Body.(*ast.Block)
	require.True(t, isBlock)

	arrow, ok = firstExpr(t, "async x => x").(*ast.ArrowFunctionLit)
	require.True(t, ok)
	require.True(t, arrow.IsAsync)
}

func TestParenthesizedExprIsNotArrow(t *testing.T) {
	_, ok := firstExpr(t, "(a + b) * c").(*ast.Infix)
	require.True(t, ok)
	// A grouped sequence stays a sequence.
	_, ok = firstExpr(t, "(a, b)").(*ast.Sequence)
	require.True(t, ok)
}

func TestFunctionForms(t *testing.T) {
	fn, ok := firstStmt(t, "function f(a, b) { return a; }").(*ast.FunctionLit)
	require.True(t, ok)
	require.Equal(t, "f", fn.Name.Name)
	require.Len(t, fn.Params, 2)
	require.False(t, fn.IsGenerator)

	gen, ok := firstStmt(t, "function* g() { yield 1; }").(*ast.FunctionLit)
	require.True(t, ok)
	require.True(t, gen.IsGenerator)

	asyncFn, ok := firstStmt(t, "async function a() { await b; }").(*ast.FunctionLit)
	require.True(t, ok)
	require.True(t, asyncFn.IsAsync)
}

func TestYieldOutsideGeneratorFails(t *testing.T) {
	parseError(t, "function f() { yield 1; }")
}

func TestAwaitOutsideAsyncFails(t *testing.T) {
	parseError(t, "function f() { await x; }")
}

func TestYieldDelegate(t *testing.T) {
	program := parse(t, "function* g() { yield* other(); }")
	fn := program.Stmts[0].(*ast.FunctionLit)
	stmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	y := stmt.X.(*ast.Yield)
	require.True(t, y.Delegate)
}

func TestObjectLiteralForms(t *testing.T) {
	obj, ok := firstExpr(t, "({a: 1, b, 'c d': 2, [k]: 3, m() {}, get p() {}, set p(v) {}, ...rest})").(*ast.ObjectLit)
	require.True(t, ok)
	require.Len(t, obj.Props, 8)
	require.True(t, obj.Props[1].Shorthand)
	require.True(t, obj.Props[3].Computed)
	require.Equal(t, ast.PropertyMethod, obj.Props[4].Kind)
	require.Equal(t, ast.PropertyGet, obj.Props[5].Kind)
	require.Equal(t, ast.PropertySet, obj.Props[6].Kind)
	require.Equal(t, ast.PropertySpread, obj.Props[7].Kind)
}

func TestArrayLiteralWithHolesAndSpread(t *testing.T) {
	arr, ok := firstExpr(t, "[1, , 3, ...rest]").(*ast.ArrayLit)
	require.True(t, ok)
	require.Len(t, arr.Elements, 4)
	require.Nil(t, arr.Elements[1])
	_, isSpread := arr.Elements[3].(*ast.Spread)
	require.True(t, isSpread)
}

func TestDestructuringDeclarations(t *testing.T) {
	decl := firstStmt(t, "const {a, b: c, d = 1, ...rest} = obj;").(*ast.VarDecl)
	pattern, ok := decl.Decls[0].Target.(*ast.ObjectPattern)
	require.True(t, ok)
	require.Len(t, pattern.Props, 3)
	require.NotNil(t, pattern.Rest)

	decl = firstStmt(t, "let [x, , y = 2, ...more] = arr;").(*ast.VarDecl)
	arrPattern, ok := decl.Decls[0].Target.(*ast.ArrayPattern)
	require.True(t, ok)
	require.Len(t, arrPattern.Elements, 4)
	require.Nil(t, arrPattern.Elements[1])
}

func TestForVariants(t *testing.T) {
	_, ok := firstStmt(t, "for (let i = 0; i < 3; i++) {}").(*ast.For)
	require.True(t, ok)

	forOf, ok := firstStmt(t, "for (const x of xs) {}").(*ast.ForOf)
	require.True(t, ok)
	require.True(t, forOf.IsDecl)
	require.False(t, forOf.IsAwait)

	forIn, ok := firstStmt(t, "for (const k in obj) {}").(*ast.ForIn)
	require.True(t, ok)
	require.True(t, forIn.IsDecl)

	_, ok = firstStmt(t, "for (;;) { break; }").(*ast.For)
	require.True(t, ok)

	lvalue, ok := firstStmt(t, "for (x of xs) {}").(*ast.ForOf)
	require.True(t, ok)
	require.False(t, lvalue.IsDecl)
}

func TestForAwaitOf(t *testing.T) {
	program := parse(t, "async function f() { for await (const x of xs) {} }")
	fn := program.Stmts[0].(*ast.FunctionLit)
	forOf := fn.Body.Stmts[0].(*ast.ForOf)
	require.True(t, forOf.IsAwait)
}

func TestTryForms(t *testing.T) {
	try := firstStmt(t, "try { a(); } catch (e) { b(); } finally { c(); }").(*ast.Try)
	require.NotNil(t, try.CatchBlock)
	require.NotNil(t, try.CatchTarget)
	require.NotNil(t, try.FinallyBlock)

	try = firstStmt(t, "try { a(); } catch { b(); }").(*ast.Try)
	require.Nil(t, try.CatchTarget)
	require.NotNil(t, try.CatchBlock)

	try = firstStmt(t, "try { a(); } catch ({message}) { b(); }").(*ast.Try)
	_, ok := try.CatchTarget.(*ast.ObjectPattern)
	require.True(t, ok)
}

func TestTryRequiresCatchOrFinally(t *testing.T) {
	parseError(t, "try { a(); }")
}

func TestSwitchStatement(t *testing.T) {
	sw := firstStmt(t, `
		switch (x) {
		case 1: a(); break;
		case 2:
		case 3: b(); break;
		default: c();
		}
	`).(*ast.Switch)
	require.Len(t, sw.Cases, 4)
	require.Nil(t, sw.Cases[3].Test)
	require.Empty(t, sw.Cases[1].Body)
}

func TestDuplicateDefaultFails(t *testing.T) {
	parseError(t, "switch (x) { default: a(); default: b(); }")
}

func TestLabeledStatements(t *testing.T) {
	labeled := firstStmt(t, "outer: for (;;) { break outer; }").(*ast.Labeled)
	require.Equal(t, "outer", labeled.Label.Name)
	_, ok := labeled.Stmt.(*ast.For)
	require.True(t, ok)
}

func TestClassDeclaration(t *testing.T) {
	class := firstStmt(t, `
		class Dog extends Animal {
			legs = 4;
			static kind = "canine";
			constructor(name) { super(name); }
			speak() { return "woof"; }
			get size() { return 1; }
			static create() { return new Dog("x"); }
		}
	`).(*ast.ClassLit)
	require.Equal(t, "Dog", class.Name.Name)
	require.NotNil(t, class.Super)
	require.Len(t, class.Body, 6)
	require.Equal(t, ast.ClassField, class.Body[0].Kind)
	require.True(t, class.Body[1].Static)
	require.Equal(t, ast.ClassGetter, class.Body[4].Kind)
	require.True(t, class.Body[5].Static)
}

func TestTemplateLiterals(t *testing.T) {
	tmpl, ok := firstExpr(t, "`a${x}b${y}c`").(*ast.TemplateLit)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, tmpl.Quasis)
	require.Len(t, tmpl.Exprs, 2)

	tagged, ok := firstExpr(t, "tag`x${1}y`").(*ast.TaggedTemplate)
	require.True(t, ok)
	require.Equal(t, "tag", tagged.Tag.String())
}

func TestRegexLiteral(t *testing.T) {
	re, ok := firstExpr(t, "/ab+c/gi").(*ast.RegexLit)
	require.True(t, ok)
	require.Equal(t, "ab+c", re.Pattern)
	require.Equal(t, "gi", re.Flags)
}

func TestAutomaticSemicolonInsertion(t *testing.T) {
	// Newlines terminate statements.
	program := parse(t, "let a = 1\nlet b = 2\na + b")
	require.Len(t, program.Stmts, 3)

	// A same-line statement without a separator is an error.
	parseError(t, "let a = 1 let b = 2")

	// return followed by a newline returns undefined.
	fn := parse(t, "function f() { return\n1; }").Stmts[0].(*ast.FunctionLit)
	ret := fn.Body.Stmts[0].(*ast.Return)
	require.Nil(t, ret.Value)
}

func TestPostfixRequiresSameLine(t *testing.T) {
	program := parse(t, "a\n++b")
	require.Len(t, program.Stmts, 2)
	_, ok := program.Stmts[1].(*ast.ExprStmt).X.(*ast.Update)
	require.True(t, ok)
}

func TestImportForms(t *testing.T) {
	imp := firstStmt(t, `import def from "mod";`).(*ast.ImportDecl)
	require.Equal(t, "def", imp.Default.Name)
	require.Equal(t, "mod", imp.Source.Value)

	imp = firstStmt(t, `import { a, b as c } from "mod";`).(*ast.ImportDecl)
	require.Len(t, imp.Named, 2)
	require.Equal(t, "c", imp.Named[1].Local.Name)

	imp = firstStmt(t, `import * as ns from "mod";`).(*ast.ImportDecl)
	require.Equal(t, "ns", imp.Namespace.Name)

	imp = firstStmt(t, `import "side-effect";`).(*ast.ImportDecl)
	require.Nil(t, imp.Default)
}

func TestExportForms(t *testing.T) {
	exp := firstStmt(t, "export const x = 1;").(*ast.ExportDecl)
	require.NotNil(t, exp.Decl)

	exp = firstStmt(t, "export default 42;").(*ast.ExportDecl)
	require.True(t, exp.IsDefault)
	require.NotNil(t, exp.DefaultExp)

	exp = firstStmt(t, `export { a, b as c } from "mod";`).(*ast.ExportDecl)
	require.Len(t, exp.Named, 2)
	require.NotNil(t, exp.Source)
}

func TestSyntaxErrorsCarryLocation(t *testing.T) {
	err := parseError(t, "let x = ;")
	errs, ok := err.(*Errors)
	require.True(t, ok)
	first := errs.First()
	require.Equal(t, 1, first.Location.Line)
	require.Contains(t, first.FriendlyErrorMessage(), "^")
}

func TestErrorRecoveryCollectsMultiple(t *testing.T) {
	err := parseError(t, "let x = ;\nlet y = ;")
	errs, ok := err.(*Errors)
	require.True(t, ok)
	require.GreaterOrEqual(t, errs.Count(), 2)
}

func TestDeepNestingIsBounded(t *testing.T) {
	var b []byte
	for i := 0; i < 2000; i++ {
		b = append(b, '(')
	}
	b = append(b, '1')
	for i := 0; i < 2000; i++ {
		b = append(b, ')')
	}
	parseError(t, string(b))
}

func TestKeywordsAsPropertyNames(t *testing.T) {
	expr, ok := firstExpr(t, "obj.delete").(*ast.GetAttr)
	require.True(t, ok)
	require.Equal(t, "delete", expr.Attr.Name)

	obj, ok := firstExpr(t, "({for: 1, class: 2})").(*ast.ObjectLit)
	require.True(t, ok)
	require.Len(t, obj.Props, 2)
}

func TestSequenceInStatement(t *testing.T) {
	seq, ok := firstExpr(t, "a = 1, b = 2").(*ast.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Exprs, 2)
}

func TestParseRenderReparse(t *testing.T) {
	// Rendering the tree and parsing the rendering reaches a fixed
	// point: the second render is identical to the first.
	sources := []string{
		"let x = 1 + 2 * 3",
		"const o = {a: 1, b: [1, 2, 3]}",
		"function f(a, b = 2) { return a + b }",
		"x => x * 2",
		"for (let i = 0; i < 10; i++) total += i",
		"for (const item of items) use(item)",
		"if (a && b) { c() } else { d() }",
		"try { f() } catch (e) { g(e) } finally { h() }",
		"a?.b?.[c]",
		"`sum: ${a + b}`",
		"while (ready()) step()",
		"switch (k) { case 1: one(); break; default: other() }",
	}
	for _, source := range sources {
		first := parse(t, source)
		rendered := first.String()
		second, err := Parse(context.Background(), rendered)
		require.NoError(t, err, "reparse of %q -> %q", source, rendered)
		require.Equal(t, rendered, second.String(), "source: %q", source)
	}
}

func TestForAwaitOutsideAsyncFails(t *testing.T) {
	parseError(t, "for await (const x of xs) {}")
	parseError(t, "function f() { for await (const x of xs) {} }")
}

func TestAsyncGeneratorFunction(t *testing.T) {
	fn, ok := firstStmt(t, "async function* g() { yield await x; }").(*ast.FunctionLit)
	require.True(t, ok)
	require.True(t, fn.IsAsync)
	require.True(t, fn.IsGenerator)
}
