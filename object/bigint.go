package object

import (
	"math/big"

	"github.com/juniper-lang/juniper/op"
)

// BigInt is the arbitrary-precision signed integer entity kind, produced
// by an integer literal immediately followed by `n`.
type BigInt struct {
	base
	value *big.Int
}

// NewBigInt wraps a *big.Int as a BigInt entity. value is not copied.
func NewBigInt(value *big.Int) *BigInt {
	return &BigInt{value: value}
}

// NewBigIntFromInt64 constructs a BigInt from a Go int64.
func NewBigIntFromInt64(v int64) *BigInt {
	return &BigInt{value: big.NewInt(v)}
}

func (b *BigInt) Type() Type { return BIGINT }

// Value returns the underlying *big.Int. Callers must not mutate it.
func (b *BigInt) Value() *big.Int { return b.value }

func (b *BigInt) Inspect() string { return b.value.String() + "n" }

func (b *BigInt) String() string { return b.value.String() }

func (b *BigInt) Interface() interface{} { return b.value }

func (b *BigInt) IsTruthy() bool { return b.value.Sign() != 0 }

func (b *BigInt) Equals(other Object) bool {
	o, ok := other.(*BigInt)
	return ok && o.value.Cmp(b.value) == 0
}

func (b *BigInt) Compare(other Object) (int, error) {
	o, ok := other.(*BigInt)
	if !ok {
		return 0, TypeErrorf("cannot compare bigint and %s", other.Type())
	}
	return b.value.Cmp(o.value), nil
}

func (b *BigInt) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	o, ok := right.(*BigInt)
	if !ok {
		if s, ok := right.(*String); ok && opType == op.Add {
			return NewString(b.String() + s.Value()), nil
		}
		if opType == op.Nullish {
			return b, nil
		}
		return nil, TypeErrorf("cannot mix bigint and %s in operation", right.Type())
	}
	result := new(big.Int)
	switch opType {
	case op.Add:
		return NewBigInt(result.Add(b.value, o.value)), nil
	case op.Subtract:
		return NewBigInt(result.Sub(b.value, o.value)), nil
	case op.Multiply:
		return NewBigInt(result.Mul(b.value, o.value)), nil
	case op.Divide:
		if o.value.Sign() == 0 {
			return nil, RangeErrorf("division by zero")
		}
		return NewBigInt(result.Quo(b.value, o.value)), nil
	case op.Modulo:
		if o.value.Sign() == 0 {
			return nil, RangeErrorf("division by zero")
		}
		return NewBigInt(result.Rem(b.value, o.value)), nil
	case op.Power:
		return NewBigInt(result.Exp(b.value, o.value, nil)), nil
	case op.BitwiseAnd:
		return NewBigInt(result.And(b.value, o.value)), nil
	case op.BitwiseOr:
		return NewBigInt(result.Or(b.value, o.value)), nil
	case op.Xor:
		return NewBigInt(result.Xor(b.value, o.value)), nil
	case op.LShift:
		return NewBigInt(result.Lsh(b.value, uint(o.value.Uint64()))), nil
	case op.RShift:
		return NewBigInt(result.Rsh(b.value, uint(o.value.Uint64()))), nil
	case op.Nullish:
		return b, nil
	}
	return nil, TypeErrorf("unsupported operation %s for bigint", opType)
}
