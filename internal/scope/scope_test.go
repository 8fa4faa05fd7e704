package scope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAndCount(t *testing.T) {
	table := New()
	require.Nil(t, table.Parent())
	require.Equal(t, uint16(0), table.Count())

	a, err := table.Insert("a", KindVar, true)
	require.NoError(t, err)
	require.Equal(t, uint16(0), a.Index())
	require.Equal(t, "a", a.Name())

	b, err := table.Insert("b", KindLet, false)
	require.NoError(t, err)
	require.Equal(t, uint16(1), b.Index())
	require.True(t, b.InTDZ())

	require.Equal(t, uint16(2), table.Count())
	require.True(t, table.IsDefined("a"))
	require.True(t, table.IsDefined("b"))
}

func TestBlockSharesFunctionIndexSpace(t *testing.T) {
	fn := New().NewChild()
	block := fn.NewBlock()

	_, err := block.Insert("a", KindLet, false)
	require.NoError(t, err)

	require.Equal(t, uint16(1), fn.Count())
}

func TestDuplicateDeclarationErrors(t *testing.T) {
	table := New()
	_, err := table.Insert("a", KindVar, true)
	require.NoError(t, err)
	_, err = table.Insert("a", KindLet, false)
	require.Error(t, err)
}

func TestBlankIdentifierIsDiscarded(t *testing.T) {
	table := New()
	sym, err := table.Insert(BlankIdentifier, KindVar, true)
	require.NoError(t, err)
	require.Nil(t, sym)
	_, found := table.Resolve(BlankIdentifier)
	require.False(t, found)
}

func TestResolveLocalAndGlobal(t *testing.T) {
	global := New()
	global.Insert("g", KindVar, true)

	fn := global.NewChild()
	fn.Insert("local", KindLet, true)

	res, ok := fn.Resolve("local")
	require.True(t, ok)
	require.Equal(t, Local, res.ScopeKind)

	res, ok = fn.Resolve("g")
	require.True(t, ok)
	require.Equal(t, Global, res.ScopeKind)

	_, ok = fn.Resolve("missing")
	require.False(t, ok)
}

func TestResolveFreeVariable(t *testing.T) {
	main := New()
	outer := main.NewChild()
	inner := outer.NewChild()

	outer.Insert("a", KindLet, true)

	res, found := inner.Resolve("a")
	require.True(t, found)
	require.Equal(t, Free, res.ScopeKind)
	require.Equal(t, 1, res.Depth)
	require.Equal(t, uint16(1), inner.FreeCount())
	require.Equal(t, uint16(0), outer.FreeCount())

	// Resolving again reuses the cached free-variable slot.
	res2, _ := inner.Resolve("a")
	require.Same(t, res, res2)
	require.Equal(t, uint16(1), inner.FreeCount())
}

func TestFreeVariableAcrossBlocks(t *testing.T) {
	main := New()
	outerFn := main.NewChild()
	outerBlock := outerFn.NewBlock()
	innerFn := outerBlock.NewChild()
	innerBlock := innerFn.NewBlock()

	outerFn.Insert("a", KindVar, true)

	res, found := innerBlock.Resolve("a")
	require.True(t, found)
	require.Equal(t, Free, res.ScopeKind)
	require.Equal(t, uint16(1), innerFn.FreeCount())
	require.Equal(t, uint16(0), outerBlock.FreeCount())
}

func TestTransitiveCapture(t *testing.T) {
	main := New()
	outer := main.NewChild()
	middle := outer.NewChild()
	inner := middle.NewChild()

	outer.Insert("x", KindVar, true)

	res, found := inner.Resolve("x")
	require.True(t, found)
	require.Equal(t, Free, res.ScopeKind)
	require.Equal(t, 2, res.Depth)

	// Every function between the use and the declaration captures x, so
	// the closure builder only ever reaches one frame outward.
	require.Equal(t, uint16(1), middle.FreeCount())
	require.Equal(t, uint16(1), inner.FreeCount())
	require.NotNil(t, res.Parent)
	require.Equal(t, Free, res.Parent.ScopeKind)
	require.Equal(t, Local, res.Parent.Parent.ScopeKind)
}

func TestFunctionDepthIgnoresBlocks(t *testing.T) {
	main := New()
	fn := main.NewChild()
	block := fn.NewBlock()
	nestedFn := block.NewChild()

	require.Equal(t, 1, fn.FunctionDepth())
	require.Equal(t, 1, block.FunctionDepth())
	require.Equal(t, 2, nestedFn.FunctionDepth())
}

func TestClearTDZ(t *testing.T) {
	table := New()
	sym, _ := table.Insert("x", KindLet, false)
	require.True(t, sym.InTDZ())
	sym.ClearTDZ()
	require.False(t, sym.InTDZ())
}

func TestAllNamesWalksAncestors(t *testing.T) {
	main := New()
	main.Insert("g", KindVar, true)
	fn := main.NewChild()
	fn.Insert("local", KindLet, true)

	names := fn.AllNames()
	require.Contains(t, names, "g")
	require.Contains(t, names, "local")
}
