package compiler

import (
	"context"
	"testing"

	"github.com/juniper-lang/juniper/ast"
	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/op"
	"github.com/juniper-lang/juniper/parser"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, source string) *bytecode.Code {
	t.Helper()
	code, err := tryCompile(source)
	require.NoError(t, err)
	return code
}

func tryCompile(source string) (*bytecode.Code, error) {
	program, err := parser.Parse(context.Background(), source)
	if err != nil {
		return nil, err
	}
	return Compile(program, &Config{Source: source})
}

// opcodes flattens a code block's instruction stream into opcode-only
// form, skipping operands.
func opcodes(code *bytecode.Code) []op.Code {
	var out []op.Code
	offset := 0
	for offset < code.InstructionCount() {
		opcode := code.InstructionAt(offset)
		out = append(out, opcode)
		offset += 1 + op.GetInfo(opcode).OperandCount
	}
	return out
}

func containsOpcode(code *bytecode.Code, target op.Code) bool {
	for _, opcode := range opcodes(code) {
		if opcode == target {
			return true
		}
	}
	return false
}

func TestCompileSimpleExpression(t *testing.T) {
	code := compileSource(t, "1 + 2")
	ops := opcodes(code)
	require.Equal(t, []op.Code{op.LoadConst, op.LoadConst, op.BinaryOp}, ops)
}

func TestConstantPoolDeduplication(t *testing.T) {
	// k occurrences of the same literal share one pool entry.
	code := compileSource(t, `let a = "dup"; let b = "dup"; let c = "dup";`)
	count := 0
	for i := 0; i < code.ConstantCount(); i++ {
		if s, ok := code.ConstantAt(i).(string); ok && s == "dup" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestNumberConstantsDeduplicate(t *testing.T) {
	code := compileSource(t, "1.5 + 1.5 + 1.5")
	count := 0
	for i := 0; i < code.ConstantCount(); i++ {
		if f, ok := code.ConstantAt(i).(float64); ok && f == 1.5 {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestGlobalDeclarations(t *testing.T) {
	code := compileSource(t, "let x = 1; const y = 2; var z = 3;")
	names := code.GlobalNames()
	require.Contains(t, names, "x")
	require.Contains(t, names, "y")
	require.Contains(t, names, "z")
}

func TestFunctionCompilesToChildCode(t *testing.T) {
	code := compileSource(t, "function add(a, b) { return a + b; }")
	require.Equal(t, 1, code.ChildCount())
	child := code.ChildAt(0)
	require.Equal(t, "add", child.Name())
	require.Equal(t, 2, child.LocalCount())
	require.True(t, containsOpcode(child, op.ReturnValue))
}

func TestClosureEmitsCells(t *testing.T) {
	code := compileSource(t, `
		function outer() {
			let captured = 1;
			return function inner() { return captured; };
		}
	`)
	outer := code.ChildAt(0)
	require.True(t, containsOpcode(outer, op.MakeCell))
	require.True(t, containsOpcode(outer, op.LoadClosure))
	inner := outer.ChildAt(0)
	require.True(t, containsOpcode(inner, op.LoadFree))
}

func TestTransitiveCaptureUsesFreeCell(t *testing.T) {
	code := compileSource(t, `
		function a() {
			let x = 1;
			function b() {
				function c() { return x; }
				return c;
			}
			return b;
		}
	`)
	b := code.ChildAt(0).ChildAt(0)
	// b passes its own captured cell down to c rather than reaching two
	// frames up.
	require.True(t, containsOpcode(b, op.PushFreeCell))
}

func TestTryCompilesHandlerRecord(t *testing.T) {
	code := compileSource(t, "try { risky(); } catch (e) { handle(e); } finally { done(); }")
	require.Equal(t, 1, code.ExceptionHandlerCount())
	handler := code.ExceptionHandlerAt(0)
	require.Greater(t, handler.CatchStart, handler.TryStart)
	require.Greater(t, handler.FinallyStart, handler.CatchStart)
	require.True(t, containsOpcode(code, op.PushExcept))
	require.True(t, containsOpcode(code, op.PopExcept))
	require.True(t, containsOpcode(code, op.EndFinally))
}

func TestThrowCompiles(t *testing.T) {
	code := compileSource(t, "try { throw 1; } catch {}")
	require.True(t, containsOpcode(code, op.Throw))
}

func TestOptionalChainEmitsNilJumps(t *testing.T) {
	code := compileSource(t, "let a = null; a?.b.c;")
	require.True(t, containsOpcode(code, op.JumpForwardIfNil))
}

func TestForOfEmitsIteratorProtocol(t *testing.T) {
	code := compileSource(t, "for (const x of [1, 2]) {}")
	require.True(t, containsOpcode(code, op.GetIter))
	require.True(t, containsOpcode(code, op.ForIter))
}

func TestForInEmitsGetKeys(t *testing.T) {
	code := compileSource(t, "for (const k in {a: 1}) {}")
	require.True(t, containsOpcode(code, op.GetKeys))
}

func TestGeneratorFlagOnTemplate(t *testing.T) {
	code := compileSource(t, "function* g() { yield 1; }")
	var fn *bytecode.Function
	for i := 0; i < code.ConstantCount(); i++ {
		if f, ok := code.ConstantAt(i).(*bytecode.Function); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.True(t, fn.IsGenerator())
	require.True(t, containsOpcode(fn.Code(), op.Yield))
}

func TestAsyncAwaitCompiles(t *testing.T) {
	code := compileSource(t, "async function f() { await g(); }")
	fn := code.ChildAt(0)
	require.True(t, containsOpcode(fn, op.Await))
}

func TestClassCompilesToTemplate(t *testing.T) {
	code := compileSource(t, `
		class Point {
			x = 0;
			constructor(x) { this.x = x; }
			len() { return this.x; }
			static origin() { return new Point(0); }
		}
	`)
	require.True(t, containsOpcode(code, op.BuildClass))
	var class *bytecode.Class
	for i := 0; i < code.ConstantCount(); i++ {
		if c, ok := code.ConstantAt(i).(*bytecode.Class); ok {
			class = c
		}
	}
	require.NotNil(t, class)
	require.Equal(t, "Point", class.Name())
	require.True(t, class.HasExplicitConstructor())
	require.Equal(t, 2, class.MethodCount())
	require.Equal(t, 1, class.FieldCount())
	require.False(t, class.HasParent())
}

func TestSuperCompilesToSuperOps(t *testing.T) {
	code := compileSource(t, `
		class A { m() { return 1; } }
		class B extends A {
			constructor() { super(); }
			m() { return super.m(); }
		}
	`)
	found := false
	for _, child := range code.Flatten() {
		if containsOpcode(child, op.SuperCall) {
			found = true
		}
	}
	require.True(t, found)
	foundMember := false
	for _, child := range code.Flatten() {
		if containsOpcode(child, op.SuperMemberCall) {
			foundMember = true
		}
	}
	require.True(t, foundMember)
}

func TestMemberCallEmitsReceiverAndKey(t *testing.T) {
	code := compileSource(t, "let o = {m(){}}; o.m(1);")
	require.True(t, containsOpcode(code, op.MemberCall))
}

func TestSpreadCallUsesCallSpread(t *testing.T) {
	code := compileSource(t, "let f = x => x; let a = [1]; f(...a);")
	require.True(t, containsOpcode(code, op.CallSpread))
}

func TestDestructuringEmitsRestOps(t *testing.T) {
	code := compileSource(t, "const {a, ...rest} = {a: 1, b: 2};")
	require.True(t, containsOpcode(code, op.RestObject))

	code = compileSource(t, "const [x, ...more] = [1, 2, 3];")
	require.True(t, containsOpcode(code, op.ListExtend))
}

func TestConstReassignmentIsCompileError(t *testing.T) {
	_, err := tryCompile("const x = 1; x = 2;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "constant")
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	_, err := tryCompile("break;")
	require.Error(t, err)
}

func TestContinueOutsideLoopIsCompileError(t *testing.T) {
	_, err := tryCompile("continue;")
	require.Error(t, err)
}

func TestUnknownLabelIsCompileError(t *testing.T) {
	_, err := tryCompile("for (;;) { break missing; }")
	require.Error(t, err)
}

func TestReturnOutsideFunctionIsCompileError(t *testing.T) {
	_, err := tryCompile("return 1;")
	require.Error(t, err)
}

func TestDeleteUnqualifiedNameIsCompileError(t *testing.T) {
	_, err := tryCompile("let x = 1; delete x;")
	require.Error(t, err)
}

func TestDuplicateLetIsCompileError(t *testing.T) {
	_, err := tryCompile("let x = 1; let x = 2;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already been declared")
}

func TestDebuggerCompilesToNop(t *testing.T) {
	code := compileSource(t, "debugger;")
	require.True(t, containsOpcode(code, op.Nop))
}

func TestSourceMapRecordsLocations(t *testing.T) {
	code := compileSource(t, "let x = 1;\nlet y = 2;")
	// The second declaration's store must carry a line-2 location.
	found := false
	for ip := 0; ip < code.LocationCount(); ip++ {
		if code.LocationAt(ip).Line == 2 {
			found = true
		}
	}
	require.True(t, found)
}

func TestLabeledLoopCompiles(t *testing.T) {
	code := compileSource(t, `
		outer: for (let i = 0; i < 2; i++) {
			for (let j = 0; j < 2; j++) { continue outer; }
		}
	`)
	require.Greater(t, code.InstructionCount(), 0)
}

func TestHoistedFunctionsCompileInAnyOrder(t *testing.T) {
	code := compileSource(t, `
		function a() { return b(); }
		function b() { return 1; }
	`)
	require.Equal(t, 2, code.ChildCount())
}

func TestImportEmitsResolveModule(t *testing.T) {
	code := compileSource(t, `import { x } from "mod";`)
	require.True(t, containsOpcode(code, op.ResolveModule))
}

func TestGlobalNamesIncludeHostGlobals(t *testing.T) {
	program, err := parser.Parse(context.Background(), "console.log(1);")
	require.NoError(t, err)
	code, err := Compile(program, &Config{GlobalNames: []string{"console"}})
	require.NoError(t, err)
	require.Contains(t, code.GlobalNames(), "console")
	require.True(t, containsOpcode(code, op.LoadGlobal))
}

func TestUnresolvedNameCompilesToLateBinding(t *testing.T) {
	code := compileSource(t, "missing;")
	require.True(t, containsOpcode(code, op.LoadName))
}

func TestTypeofUnresolvedUsesUndefinedFallback(t *testing.T) {
	code := compileSource(t, "typeof missing;")
	require.True(t, containsOpcode(code, op.LoadNameOrUndefined))
}

func TestCompileSyntaxErrorInputFails(t *testing.T) {
	program := &ast.Program{Stmts: []ast.Stmt{&ast.BadStmt{}}}
	_, err := Compile(program, &Config{})
	require.Error(t, err)
}

func TestCompilationIsDeterministic(t *testing.T) {
	// Resolving the same tree twice yields the same bytecode: symbol
	// binding has no hidden ordering dependence.
	source := `
		let total = 0;
		function weigh(items) {
			let sum = 0;
			for (const item of items) sum += item.weight ?? 0;
			return sum;
		}
		total = weigh([{weight: 1}, {}]);
	`
	first := compileSource(t, source)
	second := compileSource(t, source)
	require.Equal(t, first.InstructionCount(), second.InstructionCount())
	for i := 0; i < first.InstructionCount(); i++ {
		require.Equal(t, first.InstructionAt(i), second.InstructionAt(i), "instruction %d", i)
	}
}

func TestForAwaitEmitsAsyncProtocol(t *testing.T) {
	code := compileSource(t, `
		async function collect(src) {
			for await (const x of src) { use(x); }
		}
	`)
	fn := code.ChildAt(0)
	require.True(t, containsOpcode(fn, op.GetAsyncIter))
	require.True(t, containsOpcode(fn, op.Await))
	require.False(t, containsOpcode(fn, op.ForIter))
}

func TestAsyncGeneratorFlagsOnTemplate(t *testing.T) {
	code := compileSource(t, "async function* g() { yield await h(); }")
	var fn *bytecode.Function
	for i := 0; i < code.ConstantCount(); i++ {
		if f, ok := code.ConstantAt(i).(*bytecode.Function); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.True(t, fn.IsGenerator())
	require.True(t, fn.IsAsync())
	require.True(t, containsOpcode(fn.Code(), op.Yield))
	require.True(t, containsOpcode(fn.Code(), op.Await))
}
