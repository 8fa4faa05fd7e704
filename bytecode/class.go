package bytecode

// Method is one named entry in a class's method or accessor table.
type Method struct {
	Name     string
	Fn       *Function
	IsStatic bool
	IsGetter bool
	IsSetter bool
}

// Class is an immutable class template produced by the compiler for a
// `class` declaration or expression. At runtime BUILD_CLASS combines a
// Class template with the parent class constructor (if any, resolved from
// the stack for `extends`) to fabricate the constructor function and its
// prototype object.
type Class struct {
	name        string
	constructor *Function // synthesized default constructor if the class declared none
	hasCtor     bool
	methods     []Method
	fieldNames  []string    // instance field names, initialized in declaration order
	fieldInits  []*Function // zero-arg thunks evaluating each field's initializer, parallel to fieldNames
	hasParent   bool        // true if `extends` was present; parent class is read off the stack
}

// ClassParams contains parameters for creating a new Class.
type ClassParams struct {
	Name        string
	Constructor *Function
	HasCtor     bool
	Methods     []Method
	FieldNames  []string
	FieldInits  []*Function
	HasParent   bool
}

// NewClass creates a new immutable Class from the given parameters.
func NewClass(params ClassParams) *Class {
	methods := make([]Method, len(params.Methods))
	copy(methods, params.Methods)
	return &Class{
		name:        params.Name,
		constructor: params.Constructor,
		hasCtor:     params.HasCtor,
		methods:     methods,
		fieldNames:  copyStrings(params.FieldNames),
		fieldInits:  append([]*Function(nil), params.FieldInits...),
		hasParent:   params.HasParent,
	}
}

// Name returns the class name, or empty string for an anonymous class expression.
func (c *Class) Name() string { return c.name }

// Constructor returns the class's constructor function, synthesized by the
// compiler as an empty function when the class declared none (the VM then
// forwards construction to the parent class, if any).
func (c *Class) Constructor() *Function { return c.constructor }

// HasExplicitConstructor reports whether the source declared a constructor.
func (c *Class) HasExplicitConstructor() bool { return c.hasCtor }

// MethodCount returns the number of methods and accessors declared.
func (c *Class) MethodCount() int { return len(c.methods) }

// MethodAt returns the method or accessor at the given index.
func (c *Class) MethodAt(index int) Method { return c.methods[index] }

// FieldCount returns the number of instance field declarations.
func (c *Class) FieldCount() int { return len(c.fieldNames) }

// FieldNameAt returns the name of the instance field at the given index.
func (c *Class) FieldNameAt(index int) string { return c.fieldNames[index] }

// FieldInitAt returns the zero-arg initializer thunk for the instance field
// at the given index, or nil if the field has no initializer.
func (c *Class) FieldInitAt(index int) *Function { return c.fieldInits[index] }

// HasParent reports whether this class has an `extends` clause. When true,
// BUILD_CLASS expects the parent class constructor on the stack below the
// class's own pieces.
func (c *Class) HasParent() bool { return c.hasParent }
