package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(LoadClosure)
	require.Equal(t, "LOAD_CLOSURE", info.Name)
	require.Equal(t, 2, info.OperandCount)
	require.Equal(t, LoadClosure, info.Code)
}

func TestBinaryOpString(t *testing.T) {
	require.Equal(t, "+", Add.String())
	require.Equal(t, "??", Nullish.String())
}

func TestCompareOpString(t *testing.T) {
	require.Equal(t, "===", StrictEqual.String())
	require.Equal(t, "!=", NotEqual.String())
}

func TestExceptionOpcodesRegistered(t *testing.T) {
	for _, c := range []Code{PushExcept, PopExcept, Throw, EndFinally} {
		info := GetInfo(c)
		require.NotEmpty(t, info.Name)
	}
}
