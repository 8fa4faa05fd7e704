package object

import (
	"context"
	"math"
	"math/big"
	"testing"

	"github.com/juniper-lang/juniper/op"
	"github.com/stretchr/testify/require"
)

func TestTypeofMapping(t *testing.T) {
	tests := []struct {
		obj      Object
		expected string
	}{
		{Undefined, "undefined"},
		{Null, "object"}, // the legacy quirk
		{True, "boolean"},
		{NewNumber(1), "number"},
		{NewBigIntFromInt64(1), "bigint"},
		{NewString("x"), "string"},
		{NewSymbol("s"), "symbol"},
		{NewEmptyMap(), "object"},
		{NewList(nil), "object"},
		{NewBuiltin("f", nil), "function"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, Typeof(tt.obj))
	}
}

func TestStrictEquals(t *testing.T) {
	require.True(t, StrictEquals(NewNumber(1), NewNumber(1)))
	require.False(t, StrictEquals(NewNumber(1), NewString("1")))
	require.False(t, StrictEquals(NewNaN(), NewNaN()))
	require.True(t, StrictEquals(Undefined, Undefined))
	require.False(t, StrictEquals(Undefined, Null))
	m := NewEmptyMap()
	require.True(t, StrictEquals(m, m))
	require.False(t, StrictEquals(m, NewEmptyMap()))
}

func TestLooseEquals(t *testing.T) {
	require.True(t, LooseEquals(NewNumber(1), NewString("1")))
	require.True(t, LooseEquals(Null, Undefined))
	require.False(t, LooseEquals(Null, NewNumber(0)))
	require.True(t, LooseEquals(True, NewNumber(1)))
	require.True(t, LooseEquals(NewBigIntFromInt64(5), NewNumber(5)))
}

func TestTruthiness(t *testing.T) {
	for _, falsy := range []Object{Undefined, Null, False, NewNumber(0), NewNaN(), NewString("")} {
		require.False(t, falsy.IsTruthy(), "%s should be falsy", falsy.Inspect())
	}
	for _, truthy := range []Object{True, NewNumber(1), NewString("0"), NewEmptyMap(), NewList(nil)} {
		require.True(t, truthy.IsTruthy(), "%s should be truthy", truthy.Inspect())
	}
}

func TestBinaryOpStringCoercion(t *testing.T) {
	result, err := BinaryOp(op.Add, NewNumber(1), NewString("2"))
	require.NoError(t, err)
	require.Equal(t, "12", result.(*String).Value())
}

func TestBinaryOpNumericCoercion(t *testing.T) {
	result, err := BinaryOp(op.Subtract, NewString("5"), True)
	require.NoError(t, err)
	require.Equal(t, 4.0, result.(*Number).Value())
}

func TestBigIntMixingIsTypeError(t *testing.T) {
	_, err := BinaryOp(op.Add, NewBigIntFromInt64(1), NewNumber(1))
	require.Error(t, err)
}

func TestNumberInspect(t *testing.T) {
	require.Equal(t, "3", NewNumber(3).Inspect())
	require.Equal(t, "3.5", NewNumber(3.5).Inspect())
	require.Equal(t, "NaN", NewNaN().Inspect())
	require.Equal(t, "Infinity", NewInfinity(false).Inspect())
	require.Equal(t, "-Infinity", NewInfinity(true).Inspect())
}

func TestStringCodeUnits(t *testing.T) {
	s := NewString("héllo")
	require.Equal(t, 5, s.Length())
	require.Equal(t, "é", s.CharAt(1))
	// Astral characters occupy two code units.
	astral := NewString("a\U0001F600b")
	require.Equal(t, 4, astral.Length())
}

func TestMapPropertyOrder(t *testing.T) {
	m := NewEmptyMap()
	require.NoError(t, m.Set("z", NewNumber(1)))
	require.NoError(t, m.Set("a", NewNumber(2)))
	require.NoError(t, m.Set("m", NewNumber(3)))
	require.Equal(t, []string{"z", "a", "m"}, m.EnumerableKeys())
}

func TestMapPrototypeChain(t *testing.T) {
	proto := NewEmptyMap()
	require.NoError(t, proto.Set("shared", NewString("yes")))
	child := NewEmptyMap()
	child.SetProto(proto)

	v, found := child.Get("shared")
	require.True(t, found)
	require.Equal(t, "yes", v.(*String).Value())

	_, own := child.GetOwn("shared")
	require.False(t, own)
}

func TestMapFreeze(t *testing.T) {
	m := NewEmptyMap()
	require.NoError(t, m.Set("a", NewNumber(1)))
	m.Freeze()
	require.True(t, m.IsFrozen())
	require.Error(t, m.Set("a", NewNumber(2)))
	require.Error(t, m.Set("b", NewNumber(3)))
	require.False(t, m.Delete("a"))
}

func TestMapSealAllowsWrites(t *testing.T) {
	m := NewEmptyMap()
	require.NoError(t, m.Set("a", NewNumber(1)))
	m.Seal()
	require.NoError(t, m.Set("a", NewNumber(2)))
	require.Error(t, m.Set("b", NewNumber(3)))
}

func TestMapSymbolKeys(t *testing.T) {
	m := NewEmptyMap()
	sym := NewSymbol("key")
	require.NoError(t, m.SetSymbol(sym, NewNumber(42)))
	pd, found := m.LookupSymbol(sym)
	require.True(t, found)
	require.Equal(t, 42.0, pd.Value.(*Number).Value())
	// A different symbol with the same description is a different key.
	_, found = m.LookupSymbol(NewSymbol("key"))
	require.False(t, found)
}

func TestMapCopyWithout(t *testing.T) {
	m := NewEmptyMap()
	m.Set("a", NewNumber(1))
	m.Set("b", NewNumber(2))
	m.Set("c", NewNumber(3))
	rest := m.CopyWithout([]string{"a"})
	require.Equal(t, []string{"b", "c"}, rest.EnumerableKeys())
}

func TestListIndexing(t *testing.T) {
	l := NewList([]Object{NewNumber(1)})
	require.Equal(t, Undefined, l.GetIndex(5))
	require.NoError(t, l.SetIndex(3, NewNumber(9)))
	require.Equal(t, 4, l.Len())
	require.Equal(t, Undefined, l.GetIndex(1))
}

func TestListIterator(t *testing.T) {
	l := NewList([]Object{NewNumber(1), NewNumber(2)})
	iter := l.Iter()
	v, ok := iter.Next(nil)
	require.True(t, ok)
	require.Equal(t, 1.0, v.(*Number).Value())
	_, ok = iter.Next(nil)
	require.True(t, ok)
	_, ok = iter.Next(nil)
	require.False(t, ok)
}

func TestCellSharesSlot(t *testing.T) {
	var slot Object = NewNumber(1)
	cell := NewCell(&slot)
	cell.Set(NewNumber(2))
	require.Equal(t, 2.0, slot.(*Number).Value())
	slot = NewNumber(3)
	require.Equal(t, 3.0, cell.Value().(*Number).Value())
}

func TestHeapSweepReclaimsUnreachable(t *testing.T) {
	heap := NewHeap()
	var a, b, c Object = NewNumber(1), NewNumber(2), NewNumber(3)
	cellA := NewCell(&a)
	cellB := NewCell(&b)
	cellC := NewCell(&c)
	heap.Track(cellA)
	heap.Track(cellB)
	heap.Track(cellC)
	heap.AddRoot(cellA)
	cellA.AddChild(cellB)

	reclaimed := heap.Sweep()
	require.Equal(t, 1, reclaimed) // only cellC was unreachable
	require.Equal(t, 2, heap.Len())

	heap.RemoveRoot(cellA)
	reclaimed = heap.Sweep()
	require.Equal(t, 2, reclaimed)
	require.Equal(t, 0, heap.Len())
}

func TestHeapInternalCellsAreRoots(t *testing.T) {
	heap := NewHeap()
	var v Object = NewNumber(1)
	cell := NewCell(&v)
	heap.Track(cell)
	heap.MarkInternal(cell)
	require.Equal(t, 0, heap.Sweep())
}

func TestExceptionCarriesTarget(t *testing.T) {
	thrown := Thrown(NewString("oops"))
	require.Equal(t, "oops", thrown.Target().(*String).Value())
	// Wrapping an exception is the identity.
	require.Same(t, thrown, Thrown(thrown))
}

func TestExceptionAsError(t *testing.T) {
	exc := TypeErrorf("bad %s", "thing")
	err := exc.AsError()
	require.Contains(t, err.Error(), "TypeError: bad thing")
	require.Same(t, exc, ExceptionFromError(err))
}

func TestTaskCarriesValueAndResume(t *testing.T) {
	task := NewTask(NewNumber(5), 42)
	require.Equal(t, 5.0, task.Value().(*Number).Value())
	require.Equal(t, 42, task.ResumePC())
}

func TestPromiseSettlement(t *testing.T) {
	// A manual FIFO queue stands in for the VM's microtask queue.
	var queue []func(ctx context.Context)
	schedule := func(task func(ctx context.Context)) {
		queue = append(queue, task)
	}
	drain := func() {
		for len(queue) > 0 {
			task := queue[0]
			queue = queue[1:]
			task(context.Background())
		}
	}

	p := NewPromise(schedule, nil)
	var got Object
	p.OnSettled(func(ctx context.Context, v Object) { got = v }, nil)
	require.Equal(t, PromisePending, p.Status())

	p.Resolve(NewNumber(7))
	require.Equal(t, PromiseFulfilled, p.Status())
	require.Nil(t, got) // reactions wait for the microtask queue
	drain()
	require.Equal(t, 7.0, got.(*Number).Value())

	// Settling twice is a no-op.
	p.Reject(NewString("late"))
	require.Equal(t, PromiseFulfilled, p.Status())
}

func TestPromiseResolveWithPromiseChains(t *testing.T) {
	var queue []func(ctx context.Context)
	schedule := func(task func(ctx context.Context)) {
		queue = append(queue, task)
	}
	inner := NewPromise(schedule, nil)
	outer := NewPromise(schedule, nil)
	outer.Resolve(inner)
	require.Equal(t, PromisePending, outer.Status())
	inner.Resolve(NewNumber(1))
	for len(queue) > 0 {
		task := queue[0]
		queue = queue[1:]
		task(context.Background())
	}
	require.Equal(t, PromiseFulfilled, outer.Status())
}

func TestBigIntOps(t *testing.T) {
	a := NewBigInt(big.NewInt(10))
	b := NewBigInt(big.NewInt(3))
	sum, err := a.RunOperation(op.Add, b)
	require.NoError(t, err)
	require.Equal(t, "13", sum.(*BigInt).Value().String())
	quo, err := a.RunOperation(op.Divide, b)
	require.NoError(t, err)
	require.Equal(t, "3", quo.(*BigInt).Value().String())
	_, err = a.RunOperation(op.Divide, NewBigIntFromInt64(0))
	require.Error(t, err)
}

func TestToNumberValue(t *testing.T) {
	f, err := ToNumberValue(NewString(" 42 "))
	require.NoError(t, err)
	require.Equal(t, 42.0, f)
	f, err = ToNumberValue(Undefined)
	require.NoError(t, err)
	require.True(t, math.IsNaN(f))
	_, err = ToNumberValue(NewSymbol("s"))
	require.Error(t, err)
}

func TestFromGoValue(t *testing.T) {
	obj, err := FromGoValue(map[string]any{"a": 1, "b": []any{"x", true}})
	require.NoError(t, err)
	m := obj.(*Map)
	v, _ := m.Get("a")
	require.Equal(t, 1.0, v.(*Number).Value())
	list, _ := m.Get("b")
	require.Equal(t, 2, list.(*List).Len())
}
