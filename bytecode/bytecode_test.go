package bytecode

import (
	"testing"

	"github.com/juniper-lang/juniper/op"
	"github.com/stretchr/testify/require"
)

func TestCodeAccessors(t *testing.T) {
	code := NewCode(CodeParams{
		ID:           "main",
		Instructions: []op.Code{op.LoadConst, 0, op.ReturnValue},
		Constants:    []any{int64(42)},
		Source:       "return 42;",
		Filename:     "a.js",
		Locations:    []SourceLocation{{Line: 1, Column: 1}, {}, {Line: 1, Column: 8}},
		LocalCount:   2,
	})
	require.Equal(t, 3, code.InstructionCount())
	require.Equal(t, int64(42), code.ConstantAt(0))
	require.Equal(t, "return 42;", code.Source())
	require.Equal(t, 2, code.LocalCount())
	require.Equal(t, "1:1", code.LocationAt(0).String())
}

func TestFunctionRequiredArgsCount(t *testing.T) {
	fn := NewFunction(FunctionParams{
		Name:       "greet",
		Parameters: []string{"name", "greeting"},
		Defaults:   []any{nil, "hello"},
		Code:       NewCode(CodeParams{Source: "return greeting + name;"}),
	})
	require.Equal(t, 1, fn.RequiredArgsCount())
	require.Equal(t, "hello", fn.Default(1))
}

func TestFunctionGeneratorFlag(t *testing.T) {
	fn := NewFunction(FunctionParams{
		Name:        "gen",
		IsGenerator: true,
		Code:        NewCode(CodeParams{Source: "yield 1;"}),
	})
	require.True(t, fn.IsGenerator())
	require.Contains(t, fn.String(), "function*")
}

func TestFunctionArrowDoesNotRequireName(t *testing.T) {
	fn := NewFunction(FunctionParams{
		IsArrow: true,
		Code:    NewCode(CodeParams{Source: "x + 1"}),
	})
	require.True(t, fn.IsArrow())
	require.Equal(t, "", fn.Name())
}

func TestClassWithoutParent(t *testing.T) {
	ctor := NewFunction(FunctionParams{Name: "constructor", Code: NewCode(CodeParams{})})
	method := NewFunction(FunctionParams{Name: "speak", Code: NewCode(CodeParams{})})
	class := NewClass(ClassParams{
		Name:        "Animal",
		Constructor: ctor,
		HasCtor:     true,
		Methods:     []Method{{Name: "speak", Fn: method}},
		FieldNames:  []string{"name"},
		FieldInits:  []*Function{nil},
	})
	require.Equal(t, "Animal", class.Name())
	require.True(t, class.HasExplicitConstructor())
	require.False(t, class.HasParent())
	require.Equal(t, 1, class.MethodCount())
	require.Equal(t, "speak", class.MethodAt(0).Name)
	require.Equal(t, "name", class.FieldNameAt(0))
}

func TestExceptionHandlerFields(t *testing.T) {
	h := ExceptionHandler{TryStart: 0, TryEnd: 10, CatchStart: 5, FinallyStart: 8, CatchVarIdx: 1}
	require.Equal(t, 5, h.CatchStart)
}

func TestCodeStats(t *testing.T) {
	fn := NewFunction(FunctionParams{Name: "f", Code: NewCode(CodeParams{})})
	code := NewCode(CodeParams{
		Instructions: []op.Code{op.Nop},
		Constants:    []any{fn, int64(1)},
		Source:       "function f() {}",
	})
	stats := code.Stats()
	require.Equal(t, 1, stats.FunctionCount)
	require.Equal(t, 2, stats.ConstantCount)
}
