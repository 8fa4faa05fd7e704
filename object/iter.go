package object

import (
	"context"

	"github.com/juniper-lang/juniper/op"
)

// Iterator is the engine-level iteration driver: Next returns the next
// element and true, or (nil, false) once exhausted. Script-defined
// iterators (objects with a `next` method) are adapted to this interface
// by the VM, which is the only place calls back into bytecode can happen.
type Iterator interface {
	Object

	// Next returns the next value in the sequence, or false when done.
	Next(ctx context.Context) (Object, bool)
}

// Iterable is implemented by entity kinds with built-in iteration
// behavior: arrays, strings, arguments objects, and generators.
type Iterable interface {
	// Iter returns an Iterator over this value's element sequence.
	Iter() Iterator
}

// NewIterResult builds the `{value, done}` object the iterator protocol
// hands to script code from next()/return()/throw().
func NewIterResult(value Object, done bool) *Map {
	if value == nil {
		value = Undefined
	}
	result := NewEmptyMap()
	result.Set("value", value)
	result.Set("done", NewBool(done))
	return result
}

// stringIterator yields one code-point substring per step, matching
// for-of over a string.
type stringIterator struct {
	base
	runes []rune
	pos   int
}

// Iter returns an iterator over the string's code points.
func (s *String) Iter() Iterator {
	return &stringIterator{runes: []rune(s.value)}
}

func (it *stringIterator) Type() Type               { return OBJECT }
func (it *stringIterator) Inspect() string          { return "[string iterator]" }
func (it *stringIterator) Interface() interface{}   { return nil }
func (it *stringIterator) Equals(other Object) bool { return other == it }

func (it *stringIterator) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for string iterator", opType)
}

func (it *stringIterator) Next(ctx context.Context) (Object, bool) {
	if it.pos >= len(it.runes) {
		return nil, false
	}
	r := it.runes[it.pos]
	it.pos++
	return NewString(string(r)), true
}

// keysIterator yields a fixed sequence of strings; GET_KEYS uses it for
// for-in enumeration.
type keysIterator struct {
	base
	keys []string
	pos  int
}

// NewKeysIterator returns an iterator over the given key strings.
func NewKeysIterator(keys []string) Iterator {
	return &keysIterator{keys: keys}
}

func (it *keysIterator) Type() Type               { return OBJECT }
func (it *keysIterator) Inspect() string          { return "[keys iterator]" }
func (it *keysIterator) Interface() interface{}   { return nil }
func (it *keysIterator) Equals(other Object) bool { return other == it }

func (it *keysIterator) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for keys iterator", opType)
}

func (it *keysIterator) Next(ctx context.Context) (Object, bool) {
	if it.pos >= len(it.keys) {
		return nil, false
	}
	k := it.keys[it.pos]
	it.pos++
	return NewString(k), true
}
