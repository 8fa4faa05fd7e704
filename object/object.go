// Package object defines the runtime entity kinds described by the data
// model: a closed set of tagged variants (undefined, null, boolean, number,
// string, bigint, symbol, object, array, function, native-function,
// exception, task, argument, promise) reached by type assertion from the
// Object interface.
//
// For example:
//
//	switch v := v.(type) {
//	case *object.String:
//		// do something with v.Value()
//	case *object.Number:
//		// do something with v.Value()
//	}
package object

import (
	"sort"

	"github.com/juniper-lang/juniper/op"
)

// Type identifies the entity kind of an Object as a string.
type Type string

// Type constants, one per entity kind in the closed set.
const (
	UNDEFINED   Type = "undefined"
	NULL        Type = "null"
	BOOL        Type = "boolean"
	NUMBER      Type = "number"
	BIGINT      Type = "bigint"
	STRING      Type = "string"
	SYMBOL      Type = "symbol"
	OBJECT      Type = "object"
	ARRAY       Type = "array"
	FUNCTION    Type = "function"
	NATIVE_FUNC Type = "native function"
	GENERATOR   Type = "generator"
	EXCEPTION   Type = "exception"
	TASK        Type = "task"
	ARGUMENTS   Type = "arguments"
	PROMISE     Type = "promise"
	CELL        Type = "cell"
)

// Object is the interface that every runtime entity kind implements.
type Object interface {
	// Type returns the entity kind tag for this value.
	Type() Type

	// Inspect returns a debug representation of the value.
	Inspect() string

	// Interface converts the value to a native Go value, for host interop.
	Interface() interface{}

	// Equals reports whether other is loosely/referentially equal to this
	// value, per the semantics of the concrete kind.
	Equals(other Object) bool

	// IsTruthy reports whether the value is truthy per ToBoolean.
	IsTruthy() bool

	// GetAttr reads a named property. Concrete kinds that carry no own
	// properties (undefined, null, boolean, number) always return false.
	GetAttr(name string) (Object, bool)

	// SetAttr writes a named property, or returns a TypeError-kind error
	// for values that cannot carry properties.
	SetAttr(name string, value Object) error

	// RunOperation evaluates a binary operator against this value (as the
	// left operand) and right.
	RunOperation(opType op.BinaryOpType, right Object) (Object, error)
}

// Singletons for the kinds that have no payload.
var (
	Undefined = &UndefinedType{}
	Null      = &NullType{}
	True      = &Bool{value: true}
	False     = &Bool{value: false}
)

// Bool returns the canonical True/False singleton for b.
func NewBool(b bool) *Bool {
	if b {
		return True
	}
	return False
}

// base implements the property and truthiness defaults shared by entity
// kinds that don't carry their own property storage.
type base struct{}

func (b *base) GetAttr(name string) (Object, bool) {
	return nil, false
}

func (b *base) SetAttr(name string, value Object) error {
	return TypeErrorf("cannot set property %q on this value", name)
}

func (b *base) IsTruthy() bool {
	return true
}

// Keys returns the keys of a string-keyed object map, sorted.
func Keys(m map[string]Object) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CompareTypes orders two objects by their Type tag, for use as a
// fallback ordering when values aren't otherwise comparable.
func CompareTypes(a, b Object) int {
	at, bt := a.Type(), b.Type()
	switch {
	case at < bt:
		return -1
	case at > bt:
		return 1
	default:
		return 0
	}
}
