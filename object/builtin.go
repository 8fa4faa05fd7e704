package object

import (
	"context"

	"github.com/juniper-lang/juniper/op"
)

// BuiltinFunction is the host function contract: a Go callback receiving
// the execution context, the `this` value, and the argument values. A
// returned *Exception is treated by the VM as a raised error; any other
// return value is the call result.
type BuiltinFunction func(ctx context.Context, this Object, args ...Object) Object

// Builtin is the native-function entity kind: a Go callback with a display
// name, an optional bound `this`, and expando property storage.
type Builtin struct {
	name      string
	fn        BuiltinFunction
	boundThis Object
	hasThis   bool
	props     *Map
}

// NewBuiltin wraps a Go callback as a native function with the given
// display name.
func NewBuiltin(name string, fn BuiltinFunction) *Builtin {
	return &Builtin{name: name, fn: fn}
}

func (b *Builtin) Type() Type { return NATIVE_FUNC }

// Name returns the display name.
func (b *Builtin) Name() string { return b.name }

// Call invokes the callback. A bound `this` always replaces the supplied
// one; a nil `this` becomes undefined.
func (b *Builtin) Call(ctx context.Context, this Object, args ...Object) Object {
	if b.hasThis {
		this = b.boundThis
	}
	if this == nil {
		this = Undefined
	}
	return b.fn(ctx, this, args...)
}

// WithBoundThis returns a copy of b with `this` fixed to the given value.
func (b *Builtin) WithBoundThis(this Object) *Builtin {
	clone := *b
	clone.boundThis = this
	clone.hasThis = true
	return &clone
}

func (b *Builtin) Inspect() string { return "[function " + b.name + " (native)]" }

func (b *Builtin) String() string { return b.Inspect() }

func (b *Builtin) Interface() interface{} { return b.fn }

func (b *Builtin) IsTruthy() bool { return true }

func (b *Builtin) Equals(other Object) bool {
	o, ok := other.(*Builtin)
	return ok && o == b
}

func (b *Builtin) GetAttr(name string) (Object, bool) {
	if name == "name" {
		return NewString(b.name), true
	}
	if b.props != nil {
		return b.props.Get(name)
	}
	return nil, false
}

func (b *Builtin) SetAttr(name string, value Object) error {
	if b.props == nil {
		b.props = NewEmptyMap()
	}
	return b.props.Set(name, value)
}

func (b *Builtin) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.And:
		return right, nil
	case op.Or:
		return b, nil
	case op.Nullish:
		return b, nil
	}
	return nil, TypeErrorf("unsupported operation %s for native function", opType)
}
