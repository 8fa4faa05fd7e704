package object

import "github.com/juniper-lang/juniper/op"

// Symbol is the symbol entity kind: a description string with identity
// equality (two symbols with the same description are distinct values).
type Symbol struct {
	base
	desc string
}

// NewSymbol creates a fresh, unique symbol with the given description.
func NewSymbol(desc string) *Symbol {
	return &Symbol{desc: desc}
}

// Well-known symbols, shared by every runtime.
var (
	SymbolIterator      = NewSymbol("Symbol.iterator")
	SymbolAsyncIterator = NewSymbol("Symbol.asyncIterator")
)

func (s *Symbol) Type() Type { return SYMBOL }

// Description returns the symbol's description string.
func (s *Symbol) Description() string { return s.desc }

func (s *Symbol) Inspect() string { return "Symbol(" + s.desc + ")" }

func (s *Symbol) String() string { return s.Inspect() }

func (s *Symbol) Interface() interface{} { return s.Inspect() }

func (s *Symbol) Equals(other Object) bool {
	o, ok := other.(*Symbol)
	return ok && o == s
}

func (s *Symbol) GetAttr(name string) (Object, bool) {
	if name == "description" {
		return NewString(s.desc), true
	}
	return nil, false
}

func (s *Symbol) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("cannot convert a symbol to a %s", "primitive")
}
