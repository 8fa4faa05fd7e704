package object

import (
	"strings"

	"github.com/juniper-lang/juniper/op"
)

// Arguments is the argument-object entity kind: an array-like snapshot of
// the values a function was called with, bound to `arguments` in
// non-arrow function bodies.
type Arguments struct {
	items []Object
}

// NewArguments snapshots the given call arguments.
func NewArguments(items []Object) *Arguments {
	copied := make([]Object, len(items))
	copy(copied, items)
	return &Arguments{items: copied}
}

func (a *Arguments) Type() Type { return ARGUMENTS }

// Len returns the argument count.
func (a *Arguments) Len() int { return len(a.items) }

// GetIndex returns the argument at i, or Undefined when out of range.
func (a *Arguments) GetIndex(i int) Object {
	if i < 0 || i >= len(a.items) {
		return Undefined
	}
	return a.items[i]
}

// Values returns the underlying argument slice.
func (a *Arguments) Values() []Object { return a.items }

func (a *Arguments) Inspect() string {
	parts := make([]string, len(a.items))
	for i, item := range a.items {
		parts[i] = item.Inspect()
	}
	return "[arguments: " + strings.Join(parts, ", ") + "]"
}

func (a *Arguments) String() string { return "[object Arguments]" }

func (a *Arguments) Interface() interface{} {
	out := make([]interface{}, len(a.items))
	for i, item := range a.items {
		out[i] = item.Interface()
	}
	return out
}

func (a *Arguments) IsTruthy() bool { return true }

func (a *Arguments) Equals(other Object) bool { return other == a }

func (a *Arguments) GetAttr(name string) (Object, bool) {
	if name == "length" {
		return NewNumber(float64(len(a.items))), true
	}
	return nil, false
}

func (a *Arguments) SetAttr(name string, value Object) error {
	return TypeErrorf("cannot set property %q on arguments", name).AsError()
}

func (a *Arguments) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for arguments", opType)
}

// Iter makes the arguments object iterable, so `...arguments` works.
func (a *Arguments) Iter() Iterator {
	return &listIterator{list: NewList(a.items)}
}
