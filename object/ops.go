package object

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/juniper-lang/juniper/op"
)

// BinaryOp evaluates a binary operator against two values, applying the
// abstract coercions the surface language defines: `+` with a string
// operand concatenates, everything else dispatches on the left operand's
// kind.
func BinaryOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	if opType == op.Add {
		_, aStr := a.(*String)
		_, bStr := b.(*String)
		if aStr || bStr {
			return NewString(ToStringValue(a) + ToStringValue(b)), nil
		}
		// Numeric addition with ToNumber coercion for booleans and nullish
		// operands, unless either side is a bigint (mixing is an error).
		_, aBig := a.(*BigInt)
		_, bBig := b.(*BigInt)
		if !aBig && !bBig {
			if an, aok := coerceNumber(a); aok {
				if bn, bok := coerceNumber(b); bok {
					return NewNumber(an + bn), nil
				}
			}
		}
	}
	if opType == op.Nullish {
		if IsNullish(a) {
			return b, nil
		}
		return a, nil
	}
	switch opType {
	case op.Subtract, op.Multiply, op.Divide, op.Modulo, op.Power,
		op.LShift, op.RShift, op.URShift, op.BitwiseAnd, op.BitwiseOr, op.Xor:
		// Arithmetic on coercible non-numbers goes through ToNumber first.
		_, aBig := a.(*BigInt)
		_, bBig := b.(*BigInt)
		if !aBig && !bBig {
			_, aNum := a.(*Number)
			_, bNum := b.(*Number)
			if !aNum || !bNum {
				an, aok := coerceNumber(a)
				bn, bok := coerceNumber(b)
				if aok && bok {
					return NewNumber(an).RunOperation(opType, NewNumber(bn))
				}
			}
		}
	}
	return a.RunOperation(opType, b)
}

// coerceNumber implements the ToNumber coercions the arithmetic operators
// apply: booleans become 0/1, null becomes 0, undefined becomes NaN, and
// numeric strings parse. Symbols and bigints report false, which makes the
// operation a TypeError at the call site.
func coerceNumber(obj Object) (float64, bool) {
	switch obj := obj.(type) {
	case *Number:
		return obj.Value(), true
	case *Bool:
		if obj.Value() {
			return 1, true
		}
		return 0, true
	case *NullType:
		return 0, true
	case *UndefinedType:
		return math.NaN(), true
	case *String:
		trimmed := strings.TrimSpace(obj.Value())
		if trimmed == "" {
			return 0, true
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f, true
		}
		return math.NaN(), true
	}
	return 0, false
}

// ToNumberValue applies the ToNumber abstract operation, returning a
// TypeError for symbols and bigints.
func ToNumberValue(obj Object) (float64, error) {
	if _, ok := obj.(*Symbol); ok {
		return 0, TypeErrorf("cannot convert a symbol to a number").AsError()
	}
	if _, ok := obj.(*BigInt); ok {
		return 0, TypeErrorf("cannot convert a bigint to a number").AsError()
	}
	if f, ok := coerceNumber(obj); ok {
		return f, nil
	}
	return math.NaN(), nil
}

// ToStringValue applies the ToString abstract operation. Note symbols
// cannot be implicitly stringified in script code; callers that reach
// here explicitly (Inspect paths) still get the symbol's display form.
func ToStringValue(obj Object) string {
	switch obj := obj.(type) {
	case *String:
		return obj.Value()
	case fmt.Stringer:
		return obj.String()
	default:
		return obj.Inspect()
	}
}

// IsNullish reports whether obj is null or undefined.
func IsNullish(obj Object) bool {
	switch obj.(type) {
	case *NullType, *UndefinedType:
		return true
	}
	return false
}

// Typeof implements the typeof operator's kind-name mapping. Note the
// legacy quirk: typeof null is "object".
func Typeof(obj Object) string {
	switch obj.(type) {
	case *UndefinedType:
		return "undefined"
	case *NullType:
		return "object"
	case *Bool:
		return "boolean"
	case *Number:
		return "number"
	case *BigInt:
		return "bigint"
	case *String:
		return "string"
	case *Symbol:
		return "symbol"
	case *Function, *Builtin:
		return "function"
	default:
		return "object"
	}
}

// StrictEquals implements the === comparison: same kind, same value, with
// reference identity for objects, arrays, and functions.
func StrictEquals(a, b Object) bool {
	switch a := a.(type) {
	case *Number:
		bn, ok := b.(*Number)
		return ok && a.Value() == bn.Value() // NaN !== NaN falls out of Go float equality
	case *String:
		bs, ok := b.(*String)
		return ok && a.Value() == bs.Value()
	case *Bool:
		bb, ok := b.(*Bool)
		return ok && a.Value() == bb.Value()
	case *BigInt:
		bi, ok := b.(*BigInt)
		return ok && a.Value().Cmp(bi.Value()) == 0
	case *UndefinedType:
		_, ok := b.(*UndefinedType)
		return ok
	case *NullType:
		_, ok := b.(*NullType)
		return ok
	default:
		return a == b
	}
}

// LooseEquals implements the == comparison: strict equality within a kind,
// null == undefined, and numeric coercion across number/string/boolean.
func LooseEquals(a, b Object) bool {
	if a.Type() == b.Type() {
		return StrictEquals(a, b)
	}
	if IsNullish(a) && IsNullish(b) {
		return true
	}
	if IsNullish(a) || IsNullish(b) {
		return false
	}
	// bigint == number/string compares numerically when exact.
	if ab, ok := a.(*BigInt); ok {
		if bn, ok := b.(*Number); ok {
			return bigIntEqualsFloat(ab, bn.Value())
		}
	}
	if bb, ok := b.(*BigInt); ok {
		if an, ok := a.(*Number); ok {
			return bigIntEqualsFloat(bb, an.Value())
		}
	}
	an, aok := coerceNumber(a)
	bn, bok := coerceNumber(b)
	return aok && bok && an == bn
}

func bigIntEqualsFloat(b *BigInt, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	i, _ := big.NewFloat(f).Int(nil)
	return b.Value().Cmp(i) == 0
}

// Compare evaluates a comparison operator against two values.
func Compare(opType op.CompareOpType, a, b Object) (Object, error) {
	switch opType {
	case op.StrictEqual:
		return NewBool(StrictEquals(a, b)), nil
	case op.StrictNotEqual:
		return NewBool(!StrictEquals(a, b)), nil
	case op.Equal:
		return NewBool(LooseEquals(a, b)), nil
	case op.NotEqual:
		return NewBool(!LooseEquals(a, b)), nil
	}
	// Relational: string/string compares lexicographically, everything else
	// numerically (with NaN making every relation false).
	if as, ok := a.(*String); ok {
		if bs, ok := b.(*String); ok {
			return relational(opType, float64(strings.Compare(as.Value(), bs.Value())), 0)
		}
	}
	if ab, ok := a.(*BigInt); ok {
		if bb, ok := b.(*BigInt); ok {
			return relational(opType, float64(ab.Value().Cmp(bb.Value())), 0)
		}
	}
	an, err := ToNumberValue(a)
	if err != nil {
		return nil, err
	}
	bn, err := ToNumberValue(b)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(an) || math.IsNaN(bn) {
		return False, nil
	}
	return relational(opType, an, bn)
}

func relational(opType op.CompareOpType, a, b float64) (Object, error) {
	switch opType {
	case op.LessThan:
		return NewBool(a < b), nil
	case op.LessThanOrEqual:
		return NewBool(a <= b), nil
	case op.GreaterThan:
		return NewBool(a > b), nil
	case op.GreaterThanOrEqual:
		return NewBool(a >= b), nil
	}
	return nil, InternalErrorf("unknown comparison operator: %d", opType).AsError()
}

// AsObjects converts a map of Go values to engine values, for wiring host
// globals into a VM.
func AsObjects(in map[string]any) (map[string]Object, error) {
	out := make(map[string]Object, len(in))
	for name, value := range in {
		obj, err := FromGoValue(value)
		if err != nil {
			return nil, fmt.Errorf("invalid global %q: %w", name, err)
		}
		out[name] = obj
	}
	return out, nil
}

// FromGoValue converts a native Go value to the corresponding entity kind.
func FromGoValue(value any) (Object, error) {
	switch value := value.(type) {
	case nil:
		return Null, nil
	case Object:
		return value, nil
	case bool:
		return NewBool(value), nil
	case string:
		return NewString(value), nil
	case int:
		return NewNumber(float64(value)), nil
	case int32:
		return NewNumber(float64(value)), nil
	case int64:
		return NewNumber(float64(value)), nil
	case float32:
		return NewNumber(float64(value)), nil
	case float64:
		return NewNumber(value), nil
	case BuiltinFunction:
		return NewBuiltin("", value), nil
	case []any:
		items := make([]Object, len(value))
		for i, item := range value {
			obj, err := FromGoValue(item)
			if err != nil {
				return nil, err
			}
			items[i] = obj
		}
		return NewList(items), nil
	case map[string]any:
		m := NewEmptyMap()
		for _, k := range anyKeys(value) {
			obj, err := FromGoValue(value[k])
			if err != nil {
				return nil, err
			}
			if err := m.Set(k, obj); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func anyKeys(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
