package object

import (
	"math"
	"strconv"

	"github.com/juniper-lang/juniper/op"
)

// Number is the entity kind backing ordinary numeric literals and
// arithmetic results: an IEEE-754 double. NaN and Infinity are not
// separate Go types — they are Numbers whose Value() is math.NaN() or
// +/-math.Inf(1) — but NewNaN/NewInfinity below expose the singleton
// construction the data model describes, and IsNaN/IsInfinity let callers
// recognize them without repeating the math package calls.
type Number struct {
	base
	value float64
}

// NewNumber wraps a float64 as a Number entity.
func NewNumber(value float64) *Number {
	return &Number{value: value}
}

// NewNaN returns the NaN entity kind.
func NewNaN() *Number {
	return &Number{value: math.NaN()}
}

// NewInfinity returns the Infinity entity kind, signed per sign.
func NewInfinity(negative bool) *Number {
	if negative {
		return &Number{value: math.Inf(-1)}
	}
	return &Number{value: math.Inf(1)}
}

func (n *Number) Type() Type { return NUMBER }

// Value returns the underlying double.
func (n *Number) Value() float64 { return n.value }

// IsNaN reports whether this Number is the NaN entity.
func (n *Number) IsNaN() bool { return math.IsNaN(n.value) }

// IsInfinity reports whether this Number is the Infinity entity (either sign).
func (n *Number) IsInfinity() bool { return math.IsInf(n.value, 0) }

func (n *Number) Inspect() string {
	switch {
	case math.IsNaN(n.value):
		return "NaN"
	case math.IsInf(n.value, 1):
		return "Infinity"
	case math.IsInf(n.value, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n.value, 'g', -1, 64)
}

func (n *Number) String() string { return n.Inspect() }

func (n *Number) Interface() interface{} { return n.value }

func (n *Number) IsTruthy() bool {
	return n.value != 0 && !math.IsNaN(n.value)
}

func (n *Number) Equals(other Object) bool {
	o, ok := other.(*Number)
	return ok && o.value == n.value
}

func (n *Number) Compare(other Object) (int, error) {
	o, ok := other.(*Number)
	if !ok {
		return 0, TypeErrorf("cannot compare number and %s", other.Type())
	}
	switch {
	case n.value < o.value:
		return -1, nil
	case n.value > o.value:
		return 1, nil
	default:
		return 0, nil
	}
}

// toInt32 implements the ECMAScript ToInt32 abstract operation, used by
// the bitwise operators.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(f)))
}

func (n *Number) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	rn, ok := right.(*Number)
	if !ok {
		if s, ok := right.(*String); ok && opType == op.Add {
			return NewString(n.Inspect() + s.Value()), nil
		}
		if opType == op.Nullish {
			return n, nil
		}
		return nil, TypeErrorf("unsupported operation %s between number and %s", opType, right.Type())
	}
	l, r := n.value, rn.value
	switch opType {
	case op.Add:
		return NewNumber(l + r), nil
	case op.Subtract:
		return NewNumber(l - r), nil
	case op.Multiply:
		return NewNumber(l * r), nil
	case op.Divide:
		return NewNumber(l / r), nil
	case op.Modulo:
		return NewNumber(math.Mod(l, r)), nil
	case op.Power:
		return NewNumber(math.Pow(l, r)), nil
	case op.LShift:
		return NewNumber(float64(toInt32(l) << (uint32(toInt32(r)) & 31))), nil
	case op.RShift:
		return NewNumber(float64(toInt32(l) >> (uint32(toInt32(r)) & 31))), nil
	case op.URShift:
		return NewNumber(float64(uint32(toInt32(l)) >> (uint32(toInt32(r)) & 31))), nil
	case op.BitwiseAnd:
		return NewNumber(float64(toInt32(l) & toInt32(r))), nil
	case op.BitwiseOr:
		return NewNumber(float64(toInt32(l) | toInt32(r))), nil
	case op.Xor:
		return NewNumber(float64(toInt32(l) ^ toInt32(r))), nil
	case op.And:
		if !n.IsTruthy() {
			return n, nil
		}
		return right, nil
	case op.Or:
		if n.IsTruthy() {
			return n, nil
		}
		return right, nil
	case op.Nullish:
		return n, nil
	}
	return nil, TypeErrorf("unsupported operation %s for number", opType)
}
