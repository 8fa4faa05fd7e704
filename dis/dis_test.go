package dis_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/juniper-lang/juniper/compiler"
	"github.com/juniper-lang/juniper/dis"
	"github.com/juniper-lang/juniper/parser"
	"github.com/stretchr/testify/require"
)

func TestDisassembleSimpleProgram(t *testing.T) {
	program, err := parser.Parse(context.Background(), "let x = 1 + 2; x")
	require.NoError(t, err)
	code, err := compiler.Compile(program, &compiler.Config{})
	require.NoError(t, err)

	instructions, err := dis.Disassemble(code)
	require.NoError(t, err)
	require.NotEmpty(t, instructions)

	var names []string
	for _, instr := range instructions {
		names = append(names, instr.Name)
	}
	require.Contains(t, names, "LOAD_CONST")
	require.Contains(t, names, "BINARY_OP")
	require.Contains(t, names, "STORE_GLOBAL")

	// Offsets advance by one plus the operand count.
	require.Equal(t, 0, instructions[0].Offset)
	require.Greater(t, instructions[1].Offset, 0)
}

func TestDisassembleAnnotatesNamesAndConstants(t *testing.T) {
	program, err := parser.Parse(context.Background(), `let greeting = "hello"; greeting`)
	require.NoError(t, err)
	code, err := compiler.Compile(program, &compiler.Config{})
	require.NoError(t, err)

	instructions, err := dis.Disassemble(code)
	require.NoError(t, err)

	foundConst := false
	foundGlobal := false
	for _, instr := range instructions {
		if instr.Name == "LOAD_CONST" && instr.Constant == "hello" {
			foundConst = true
		}
		if instr.Name == "LOAD_GLOBAL" && instr.Annotation == "greeting" {
			foundGlobal = true
		}
	}
	require.True(t, foundConst)
	require.True(t, foundGlobal)
}

func TestPrintCodeListsNestedFunctions(t *testing.T) {
	program, err := parser.Parse(context.Background(), "function add(a, b) { return a + b; }")
	require.NoError(t, err)
	code, err := compiler.Compile(program, &compiler.Config{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, dis.PrintCode(code, &out))
	listing := out.String()
	require.Contains(t, listing, "<main>")
	require.Contains(t, listing, "add:")
	require.Contains(t, listing, "RETURN_VALUE")
}
