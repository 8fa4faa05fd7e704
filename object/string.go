package object

import (
	"strconv"
	"strings"

	"github.com/juniper-lang/juniper/op"
)

// String is the entity kind backing string literals and template results:
// a Unicode character sequence, stored as a Go string (Go's UTF-8 encoding
// stands in for the data model's "wide" character sequence; indexing
// operations below work in UTF-16 code-unit terms to match the surface
// language rather than Go's byte or rune indexing).
type String struct {
	base
	value string
	units []uint16 // lazily computed UTF-16 code units, for indexing/length
}

// NewString wraps a Go string as a String entity.
func NewString(value string) *String {
	return &String{value: value}
}

func (s *String) Type() Type { return STRING }

// Value returns the underlying Go string.
func (s *String) Value() string { return s.value }

func (s *String) Inspect() string {
	return strconv.Quote(s.value)
}

func (s *String) String() string { return s.value }

func (s *String) Interface() interface{} { return s.value }

func (s *String) IsTruthy() bool { return len(s.value) > 0 }

func (s *String) Equals(other Object) bool {
	o, ok := other.(*String)
	return ok && o.value == s.value
}

func (s *String) Compare(other Object) (int, error) {
	o, ok := other.(*String)
	if !ok {
		return 0, TypeErrorf("cannot compare string and %s", other.Type())
	}
	return strings.Compare(s.value, o.value), nil
}

// codeUnits returns the UTF-16 code units of the string, computing and
// caching them on first use.
func (s *String) codeUnits() []uint16 {
	if s.units == nil {
		s.units = utf16Encode(s.value)
	}
	return s.units
}

// Length returns the UTF-16 code-unit length, matching the surface
// language's `.length` semantics.
func (s *String) Length() int {
	return len(s.codeUnits())
}

// CharAt returns the single-code-unit substring at index i, or "" if out
// of range.
func (s *String) CharAt(i int) string {
	units := s.codeUnits()
	if i < 0 || i >= len(units) {
		return ""
	}
	return utf16Decode(units[i : i+1])
}

func (s *String) GetAttr(name string) (Object, bool) {
	if name == "length" {
		return NewNumber(float64(s.Length())), true
	}
	return s.stringMethod(name)
}

func (s *String) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.Add:
		switch r := right.(type) {
		case *String:
			return NewString(s.value + r.value), nil
		case *Number:
			return NewString(s.value + r.Inspect()), nil
		case *BigInt:
			return NewString(s.value + r.String()), nil
		default:
			return NewString(s.value + right.Inspect()), nil
		}
	case op.And:
		if !s.IsTruthy() {
			return s, nil
		}
		return right, nil
	case op.Or:
		if s.IsTruthy() {
			return s, nil
		}
		return right, nil
	case op.Nullish:
		return s, nil
	}
	return nil, TypeErrorf("unsupported operation %s for string", opType)
}

// utf16Encode converts a UTF-8 Go string to UTF-16 code units, matching
// ECMAScript string indexing.
func utf16Encode(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r <= 0xFFFF {
			units = append(units, uint16(r))
			continue
		}
		r -= 0x10000
		units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
	}
	return units
}

// utf16Decode converts UTF-16 code units back to a Go (UTF-8) string.
func utf16Decode(units []uint16) string {
	var b strings.Builder
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(units) {
			lo := rune(units[i+1])
			if lo >= 0xDC00 && lo <= 0xDFFF {
				r = ((r - 0xD800) << 10) + (lo - 0xDC00) + 0x10000
				i++
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
