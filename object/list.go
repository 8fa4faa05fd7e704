package object

import (
	"context"
	"strings"

	"github.com/juniper-lang/juniper/op"
)

// List is the array entity kind: an object plus an ordered list of element
// slots. The `length` property is computed from the slot list rather than
// stored.
type List struct {
	items []Object
	props *Map // lazily created storage for non-index own properties
}

// NewList wraps the given elements as an array entity. items is not copied.
func NewList(items []Object) *List {
	return &List{items: items}
}

func (l *List) Type() Type { return ARRAY }

// Value returns the underlying element slice.
func (l *List) Value() []Object { return l.items }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// Append adds an element at the end.
func (l *List) Append(item Object) {
	l.items = append(l.items, item)
}

// GetIndex returns the element at i, or Undefined when out of range.
func (l *List) GetIndex(i int) Object {
	if i < 0 || i >= len(l.items) {
		return Undefined
	}
	if l.items[i] == nil {
		return Undefined
	}
	return l.items[i]
}

// SetIndex writes the element at i, growing the array with undefined
// entries as needed (assignment past the end extends length, as in the surface
// language).
func (l *List) SetIndex(i int, value Object) error {
	if i < 0 {
		return RangeErrorf("invalid array index: %d", i).AsError()
	}
	for len(l.items) <= i {
		l.items = append(l.items, Undefined)
	}
	l.items[i] = value
	return nil
}

func (l *List) Inspect() string {
	var b strings.Builder
	b.WriteString("[")
	for i, item := range l.items {
		if i > 0 {
			b.WriteString(", ")
		}
		if item == nil {
			continue
		}
		b.WriteString(item.Inspect())
	}
	b.WriteString("]")
	return b.String()
}

// String renders the array the way ToString does: elements joined by
// commas, with null/undefined as empty entries.
func (l *List) String() string {
	parts := make([]string, len(l.items))
	for i, item := range l.items {
		if item == nil || item == Undefined || item == Null {
			continue
		}
		parts[i] = ToStringValue(item)
	}
	return strings.Join(parts, ",")
}

func (l *List) Interface() interface{} {
	out := make([]interface{}, len(l.items))
	for i, item := range l.items {
		if item != nil {
			out[i] = item.Interface()
		}
	}
	return out
}

func (l *List) IsTruthy() bool { return true }

func (l *List) Equals(other Object) bool {
	o, ok := other.(*List)
	return ok && o == l
}

func (l *List) GetAttr(name string) (Object, bool) {
	if name == "length" {
		return NewNumber(float64(len(l.items))), true
	}
	if method, ok := l.listMethod(name); ok {
		return method, true
	}
	if l.props != nil {
		return l.props.Get(name)
	}
	return nil, false
}

func (l *List) SetAttr(name string, value Object) error {
	if name == "length" {
		n, ok := value.(*Number)
		if !ok {
			return RangeErrorf("invalid array length").AsError()
		}
		target := int(n.Value())
		if target < 0 || float64(target) != n.Value() {
			return RangeErrorf("invalid array length").AsError()
		}
		for len(l.items) > target {
			l.items = l.items[:len(l.items)-1]
		}
		for len(l.items) < target {
			l.items = append(l.items, Undefined)
		}
		return nil
	}
	if l.props == nil {
		l.props = NewEmptyMap()
	}
	return l.props.Set(name, value)
}

func (l *List) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.Add:
		if s, ok := right.(*String); ok {
			return NewString(l.String() + s.Value()), nil
		}
	case op.And:
		return right, nil
	case op.Or:
		return l, nil
	case op.Nullish:
		return l, nil
	}
	return nil, TypeErrorf("unsupported operation %s for array", opType)
}

// Iter returns an iterator over the elements, for for-of, spread, and
// array destructuring.
func (l *List) Iter() Iterator {
	return &listIterator{list: l}
}

type listIterator struct {
	base
	list *List
	pos  int
}

func (it *listIterator) Type() Type               { return OBJECT }
func (it *listIterator) Inspect() string          { return "[array iterator]" }
func (it *listIterator) Interface() interface{}   { return nil }
func (it *listIterator) Equals(other Object) bool { return other == it }

func (it *listIterator) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for array iterator", opType)
}

func (it *listIterator) Next(ctx context.Context) (Object, bool) {
	if it.pos >= it.list.Len() {
		return nil, false
	}
	item := it.list.GetIndex(it.pos)
	it.pos++
	return item, true
}
