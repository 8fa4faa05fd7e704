package object

import "github.com/juniper-lang/juniper/op"

// UndefinedType is the entity kind produced by an unassigned binding, a
// missing argument, or a property that doesn't exist. There is exactly one
// instance per runtime root: Undefined.
type UndefinedType struct{ base }

func (u *UndefinedType) Type() Type             { return UNDEFINED }
func (u *UndefinedType) Inspect() string        { return "undefined" }
func (u *UndefinedType) String() string         { return "undefined" }
func (u *UndefinedType) Interface() interface{} { return nil }
func (u *UndefinedType) IsTruthy() bool         { return false }
func (u *UndefinedType) Equals(other Object) bool {
	_, ok := other.(*UndefinedType)
	return ok
}

func (u *UndefinedType) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	if opType == op.Nullish {
		return right, nil
	}
	return nil, TypeErrorf("cannot perform %s on undefined", opType)
}

// NullType is the entity kind produced by the `null` literal. There is
// exactly one instance per runtime root: Null.
type NullType struct{ base }

func (n *NullType) Type() Type             { return NULL }
func (n *NullType) Inspect() string        { return "null" }
func (n *NullType) String() string         { return "null" }
func (n *NullType) Interface() interface{} { return nil }
func (n *NullType) IsTruthy() bool         { return false }
func (n *NullType) Equals(other Object) bool {
	_, ok := other.(*NullType)
	return ok
}

func (n *NullType) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	if opType == op.Nullish {
		return right, nil
	}
	return nil, TypeErrorf("cannot perform %s on null", opType)
}
