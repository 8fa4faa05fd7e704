package object

import (
	"fmt"
	"strings"

	"github.com/juniper-lang/juniper/op"
)

// PropertyDescriptor describes one property of a Map. It is a two-arm
// variant: a data descriptor carries Value and Writable, an accessor
// descriptor carries Getter/Setter. Enumerable and Configurable are common
// to both arms.
type PropertyDescriptor struct {
	Value        Object
	Getter       Object
	Setter       Object
	IsAccessor   bool
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// NewDataDescriptor returns a plain writable, enumerable, configurable
// data descriptor for value, the shape produced by an object literal.
func NewDataDescriptor(value Object) *PropertyDescriptor {
	return &PropertyDescriptor{
		Value:        value,
		Writable:     true,
		Enumerable:   true,
		Configurable: true,
	}
}

// Map is the object entity kind: a prototype link, an ordered map from
// string keys to property descriptors, an ordered map from symbol keys to
// property descriptors, and the extensible/sealed/frozen flags.
type Map struct {
	proto      *Map
	keys       []string
	props      map[string]*PropertyDescriptor
	symKeys    []*Symbol
	symProps   map[*Symbol]*PropertyDescriptor
	extensible bool
	sealed     bool
	frozen     bool
}

// NewMap creates an object holding the given string-keyed values as plain
// data properties, in sorted key order. Use NewEmptyMap plus Set to control
// insertion order explicitly.
func NewMap(items map[string]Object) *Map {
	m := NewEmptyMap()
	for _, k := range Keys(items) {
		m.Set(k, items[k])
	}
	return m
}

// NewEmptyMap creates an empty, extensible object with no prototype.
func NewEmptyMap() *Map {
	return &Map{
		props:      map[string]*PropertyDescriptor{},
		symProps:   map[*Symbol]*PropertyDescriptor{},
		extensible: true,
	}
}

func (m *Map) Type() Type { return OBJECT }

// Proto returns the prototype object, or nil.
func (m *Map) Proto() *Map { return m.proto }

// SetProto replaces the prototype link.
func (m *Map) SetProto(proto *Map) { m.proto = proto }

// GetOwn returns the descriptor for an own string-keyed property.
func (m *Map) GetOwn(name string) (*PropertyDescriptor, bool) {
	pd, ok := m.props[name]
	return pd, ok
}

// Lookup walks the prototype chain for name and returns the first
// descriptor found. Accessor invocation is the caller's job, since running
// a getter requires the VM.
func (m *Map) Lookup(name string) (*PropertyDescriptor, bool) {
	for obj := m; obj != nil; obj = obj.proto {
		if pd, ok := obj.props[name]; ok {
			return pd, true
		}
	}
	return nil, false
}

// LookupSymbol walks the prototype chain for a symbol-keyed property.
func (m *Map) LookupSymbol(sym *Symbol) (*PropertyDescriptor, bool) {
	for obj := m; obj != nil; obj = obj.proto {
		if pd, ok := obj.symProps[sym]; ok {
			return pd, true
		}
	}
	return nil, false
}

// Get returns the data value for name from the object or its prototype
// chain. Accessor properties yield their Getter unevaluated; use the VM's
// member-read path when getter invocation is required.
func (m *Map) Get(name string) (Object, bool) {
	pd, ok := m.Lookup(name)
	if !ok {
		return nil, false
	}
	if pd.IsAccessor {
		if pd.Getter == nil {
			return Undefined, true
		}
		return pd.Getter, true
	}
	return pd.Value, true
}

// Set writes a plain data property, honoring the frozen flag, per-property
// writability, and extensibility for new keys.
func (m *Map) Set(name string, value Object) error {
	if pd, ok := m.props[name]; ok {
		if m.frozen || (!pd.IsAccessor && !pd.Writable) {
			return TypeErrorf("cannot assign to read only property %q", name).AsError()
		}
		if pd.IsAccessor {
			// Caller should have routed through the setter; storing here
			// would silently shadow it.
			return TypeErrorf("cannot assign to accessor property %q", name).AsError()
		}
		pd.Value = value
		return nil
	}
	if !m.extensible || m.sealed || m.frozen {
		return TypeErrorf("cannot add property %q, object is not extensible", name).AsError()
	}
	m.keys = append(m.keys, name)
	m.props[name] = NewDataDescriptor(value)
	return nil
}

// SetDescriptor installs or replaces a property descriptor under name.
func (m *Map) SetDescriptor(name string, pd *PropertyDescriptor) error {
	if _, ok := m.props[name]; !ok {
		if !m.extensible || m.sealed || m.frozen {
			return TypeErrorf("cannot define property %q, object is not extensible", name).AsError()
		}
		m.keys = append(m.keys, name)
	}
	m.props[name] = pd
	return nil
}

// SetAccessor attaches a getter (getter == true) or setter to name,
// merging with an existing accessor descriptor so `get x` and `set x` in
// one literal share a slot.
func (m *Map) SetAccessor(name string, fn Object, getter bool) error {
	pd, ok := m.props[name]
	if !ok || !pd.IsAccessor {
		pd = &PropertyDescriptor{IsAccessor: true, Enumerable: true, Configurable: true}
		if err := m.SetDescriptor(name, pd); err != nil {
			return err
		}
	}
	if getter {
		pd.Getter = fn
	} else {
		pd.Setter = fn
	}
	return nil
}

// SetSymbol writes a symbol-keyed data property.
func (m *Map) SetSymbol(sym *Symbol, value Object) error {
	if pd, ok := m.symProps[sym]; ok {
		if m.frozen || !pd.Writable {
			return TypeErrorf("cannot assign to read only property %s", sym.Inspect()).AsError()
		}
		pd.Value = value
		return nil
	}
	if !m.extensible || m.sealed || m.frozen {
		return TypeErrorf("cannot add property %s, object is not extensible", sym.Inspect()).AsError()
	}
	m.symKeys = append(m.symKeys, sym)
	m.symProps[sym] = NewDataDescriptor(value)
	return nil
}

// Delete removes an own string-keyed property, reporting whether the key
// is absent afterwards (true also for keys that never existed).
func (m *Map) Delete(name string) bool {
	pd, ok := m.props[name]
	if !ok {
		return true
	}
	if m.sealed || m.frozen || !pd.Configurable {
		return false
	}
	delete(m.props, name)
	for i, k := range m.keys {
		if k == name {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// EnumerableKeys returns the own enumerable string keys in insertion order.
func (m *Map) EnumerableKeys() []string {
	out := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		if pd := m.props[k]; pd != nil && pd.Enumerable {
			out = append(out, k)
		}
	}
	return out
}

// OwnKeys returns all own string keys in insertion order.
func (m *Map) OwnKeys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// PreventExtensions clears the extensible flag.
func (m *Map) PreventExtensions() { m.extensible = false }

// Seal marks the object sealed (no adds or deletes).
func (m *Map) Seal() {
	m.extensible = false
	m.sealed = true
}

// Freeze marks the object frozen (no adds, deletes, or writes).
func (m *Map) Freeze() {
	m.Seal()
	m.frozen = true
}

// IsExtensible reports whether new properties may be added.
func (m *Map) IsExtensible() bool { return m.extensible }

// IsSealed reports whether the object is sealed.
func (m *Map) IsSealed() bool { return m.sealed }

// IsFrozen reports whether the object is frozen.
func (m *Map) IsFrozen() bool { return m.frozen }

// Merge copies the own enumerable data properties of src into m, the
// behavior of spread in an object literal.
func (m *Map) Merge(src *Map) error {
	for _, k := range src.EnumerableKeys() {
		v, _ := src.Get(k)
		if err := m.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// CopyWithout returns a new object holding m's own enumerable data
// properties except the excluded names, the behavior of object rest
// (`...rest`) in a destructuring pattern.
func (m *Map) CopyWithout(excluded []string) *Map {
	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}
	out := NewEmptyMap()
	for _, k := range m.EnumerableKeys() {
		if skip[k] {
			continue
		}
		v, _ := m.Get(k)
		out.Set(k, v)
	}
	return out
}

func (m *Map) Inspect() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range m.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		pd := m.props[k]
		if pd.IsAccessor {
			fmt.Fprintf(&b, "%s: [accessor]", k)
		} else {
			fmt.Fprintf(&b, "%s: %s", k, pd.Value.Inspect())
		}
	}
	b.WriteString("}")
	return b.String()
}

func (m *Map) String() string { return "[object Object]" }

func (m *Map) Interface() interface{} {
	out := make(map[string]interface{}, len(m.keys))
	for _, k := range m.EnumerableKeys() {
		if v, ok := m.Get(k); ok {
			out[k] = v.Interface()
		}
	}
	return out
}

func (m *Map) IsTruthy() bool { return true }

func (m *Map) Equals(other Object) bool {
	o, ok := other.(*Map)
	return ok && o == m
}

func (m *Map) GetAttr(name string) (Object, bool) {
	return m.Get(name)
}

func (m *Map) SetAttr(name string, value Object) error {
	return m.Set(name, value)
}

func (m *Map) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.Add:
		if s, ok := right.(*String); ok {
			return NewString(m.String() + s.Value()), nil
		}
	case op.And:
		return right, nil
	case op.Or:
		return m, nil
	case op.Nullish:
		return m, nil
	}
	return nil, TypeErrorf("unsupported operation %s for object", opType)
}
