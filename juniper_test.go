package juniper_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/juniper-lang/juniper"
	"github.com/juniper-lang/juniper/builtins"
	"github.com/juniper-lang/juniper/object"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	result, err := juniper.Eval(context.Background(), "1 + 2 * 3")
	require.NoError(t, err)
	require.Equal(t, 7.0, result.(*object.Number).Value())
}

func TestEvalUsesDefaultGlobals(t *testing.T) {
	result, err := juniper.Eval(context.Background(), "Math.max(1, 2) + parseInt('10')")
	require.NoError(t, err)
	require.Equal(t, 12.0, result.(*object.Number).Value())
}

func TestEvalWithCustomGlobal(t *testing.T) {
	result, err := juniper.Eval(context.Background(), "base * 2", juniper.WithGlobal("base", 21))
	require.NoError(t, err)
	require.Equal(t, 42.0, result.(*object.Number).Value())
}

func TestWithoutDefaultGlobals(t *testing.T) {
	_, err := juniper.Eval(context.Background(), "Math.floor(1.5)", juniper.WithoutDefaultGlobals())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Math is not defined")
}

func TestCompileOnceRunTwice(t *testing.T) {
	program, err := juniper.Compile(context.Background(), "let n = 0; for (let i = 1; i <= 4; i++) n += i; n")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		result, err := program.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, 10.0, result.(*object.Number).Value())
	}
}

func TestParseReturnsAST(t *testing.T) {
	program, err := juniper.Parse(context.Background(), "let x = 1;", juniper.WithFilename("a.js"))
	require.NoError(t, err)
	require.Len(t, program.Stmts, 1)
	require.Equal(t, "a.js", program.Filename)
}

func TestSyntaxErrorsReportFilename(t *testing.T) {
	_, err := juniper.Eval(context.Background(), "let = ;", juniper.WithFilename("bad.js"))
	require.Error(t, err)
}

func TestRuntimeErrorsSurfaceAsExceptions(t *testing.T) {
	_, err := juniper.Eval(context.Background(), "null.x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "TypeError")
}

func TestConsoleOutputCapture(t *testing.T) {
	var out, errOut bytes.Buffer
	_, err := juniper.Eval(context.Background(), "console.log('hi', 1 + 1)",
		juniper.WithoutDefaultGlobals(),
		juniper.WithGlobals(builtins.WithOutput(&out, &errOut)))
	require.NoError(t, err)
	require.Equal(t, "hi 2\n", out.String())
}

func TestEndToEndProgram(t *testing.T) {
	source := `
		function* fib() {
			let [a, b] = [0, 1];
			while (true) {
				yield a;
				[a, b] = [b, a + b];
			}
		}
		const seq = fib();
		const out = [];
		for (let i = 0; i < 8; i++) out.push(seq.next().value);
		out.join(",")
	`
	result, err := juniper.Eval(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, "0,1,1,2,3,5,8,13", result.(*object.String).Value())
}

func TestStatsExposesBytecodeShape(t *testing.T) {
	program, err := juniper.Compile(context.Background(), "function f() {} f();")
	require.NoError(t, err)
	stats := program.Stats()
	require.Greater(t, stats.InstructionCount, 0)
	require.Equal(t, 1, stats.FunctionCount)
}
