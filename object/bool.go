package object

import "github.com/juniper-lang/juniper/op"

// Bool is the boolean entity kind: a single bit. There are exactly two
// instances, True and False.
type Bool struct {
	base
	value bool
}

func (b *Bool) Type() Type { return BOOL }

func (b *Bool) Value() bool { return b.value }

func (b *Bool) Inspect() string {
	if b.value {
		return "true"
	}
	return "false"
}

func (b *Bool) String() string { return b.Inspect() }

func (b *Bool) Interface() interface{} { return b.value }

func (b *Bool) IsTruthy() bool { return b.value }

func (b *Bool) Equals(other Object) bool {
	o, ok := other.(*Bool)
	return ok && o.value == b.value
}

func (b *Bool) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.And:
		if !b.value {
			return b, nil
		}
		return right, nil
	case op.Or:
		if b.value {
			return b, nil
		}
		return right, nil
	case op.Nullish:
		return b, nil
	}
	return nil, TypeErrorf("unsupported operation %s for boolean", opType)
}
