package object

import (
	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/op"
)

// Function is the script function entity kind: an immutable compiled
// template plus the per-instance state a closure carries at runtime — the
// captured free-variable cells, a bound `this` (for arrows and methods),
// the `super` binding for class methods, and function-as-object property
// storage (most importantly `prototype`).
type Function struct {
	fn        *bytecode.Function
	freeVars  []*Cell
	boundThis Object
	hasThis   bool
	superCtor *Function       // parent class constructor, set on derived-class methods
	class     *bytecode.Class // set when this function is a class constructor
	props     *Map            // lazily created: prototype and expando properties
	name      string          // display-name override (inferred names, bound fns)

	// Instance-field initializers, set on class constructors: each name
	// pairs with a zero-arg thunk closure (nil for bare declarations).
	fieldNames []string
	fieldInits []*Function
}

// NewFunction wraps a compiled function template with no captured
// variables.
func NewFunction(fn *bytecode.Function) *Function {
	return &Function{fn: fn, name: fn.Name()}
}

// NewClosure wraps a compiled function template together with the cells it
// captured from enclosing scopes.
func NewClosure(fn *bytecode.Function, freeVars []*Cell) *Function {
	return &Function{fn: fn, freeVars: freeVars, name: fn.Name()}
}

func (f *Function) Type() Type { return FUNCTION }

// Template returns the immutable compiled function.
func (f *Function) Template() *bytecode.Function { return f.fn }

// Code returns the compiled body.
func (f *Function) Code() *bytecode.Code { return f.fn.Code() }

// Name returns the function's display name.
func (f *Function) Name() string { return f.name }

// SetName overrides the display name (used for inferred names, e.g.
// `const f = () => {}`).
func (f *Function) SetName(name string) {
	if f.name == "" {
		f.name = name
	}
}

// FreeVars returns the captured closure cells.
func (f *Function) FreeVars() []*Cell { return f.freeVars }

// IsGenerator reports whether calling this function creates a generator.
func (f *Function) IsGenerator() bool { return f.fn.IsGenerator() }

// IsAsync reports whether calling this function returns a promise.
func (f *Function) IsAsync() bool { return f.fn.IsAsync() }

// IsArrow reports whether this is an arrow function.
func (f *Function) IsArrow() bool { return f.fn.IsArrow() }

// BoundThis returns the captured `this` and whether one was captured.
// Arrow functions capture `this` at creation; bound functions at bind time.
func (f *Function) BoundThis() (Object, bool) { return f.boundThis, f.hasThis }

// WithBoundThis returns a copy of f with `this` fixed to the given value.
func (f *Function) WithBoundThis(this Object) *Function {
	clone := *f
	clone.boundThis = this
	clone.hasThis = true
	return &clone
}

// Super returns the parent-class constructor available to this function's
// body via `super`, or nil.
func (f *Function) Super() *Function { return f.superCtor }

// SetSuper installs the parent-class constructor for `super` resolution.
func (f *Function) SetSuper(parent *Function) { f.superCtor = parent }

// Class returns the class template when this function is a class
// constructor, or nil for ordinary functions.
func (f *Function) Class() *bytecode.Class { return f.class }

// SetClass marks this function as the constructor of the given class.
func (f *Function) SetClass(class *bytecode.Class) { f.class = class }

// SetFields installs the instance-field initializer thunks run during
// construction.
func (f *Function) SetFields(names []string, inits []*Function) {
	f.fieldNames = names
	f.fieldInits = inits
}

// Fields returns the instance-field names and their initializer thunks.
func (f *Function) Fields() ([]string, []*Function) {
	return f.fieldNames, f.fieldInits
}

// Prototype returns the function's `prototype` object, creating the
// default `{constructor: f}` shape on first access, as construction and
// class fabrication require.
func (f *Function) Prototype() *Map {
	if f.props == nil {
		f.props = NewEmptyMap()
	}
	if v, ok := f.props.Get("prototype"); ok {
		if proto, ok := v.(*Map); ok {
			return proto
		}
	}
	proto := NewEmptyMap()
	proto.SetDescriptor("constructor", &PropertyDescriptor{
		Value: f, Writable: true, Configurable: true,
	})
	f.props.Set("prototype", proto)
	return proto
}

// SetPrototype replaces the function's `prototype` object.
func (f *Function) SetPrototype(proto *Map) {
	if f.props == nil {
		f.props = NewEmptyMap()
	}
	if _, ok := f.props.Get("prototype"); ok {
		f.props.Delete("prototype")
	}
	f.props.Set("prototype", proto)
}

func (f *Function) Inspect() string {
	if f.name != "" {
		return "[function " + f.name + "]"
	}
	return "[function (anonymous)]"
}

func (f *Function) String() string { return f.fn.String() }

func (f *Function) Interface() interface{} { return f }

func (f *Function) IsTruthy() bool { return true }

func (f *Function) Equals(other Object) bool {
	o, ok := other.(*Function)
	return ok && o == f
}

func (f *Function) GetAttr(name string) (Object, bool) {
	switch name {
	case "name":
		return NewString(f.name), true
	case "length":
		return NewNumber(float64(f.fn.RequiredArgsCount())), true
	case "prototype":
		return f.Prototype(), true
	}
	if f.props != nil {
		return f.props.Get(name)
	}
	return nil, false
}

func (f *Function) SetAttr(name string, value Object) error {
	if f.props == nil {
		f.props = NewEmptyMap()
	}
	return f.props.Set(name, value)
}

func (f *Function) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch opType {
	case op.And:
		return right, nil
	case op.Or:
		return f, nil
	case op.Nullish:
		return f, nil
	}
	return nil, TypeErrorf("unsupported operation %s for function", opType)
}
