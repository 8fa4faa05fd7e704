package compiler

import (
	"fmt"
	"strings"

	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/internal/scope"
	"github.com/juniper-lang/juniper/op"
)

// ExceptionHandler describes a try/catch/finally block for exception
// handling, in the mutable form the compiler builds up. It converts to
// bytecode.ExceptionHandler.
type ExceptionHandler struct {
	TryStart     int // IP where try block starts
	TryEnd       int // IP where the entire try/catch/finally construct ends
	CatchStart   int // IP of catch block (0 if none)
	FinallyStart int // IP of finally block (0 if none)
	CatchVarIdx  int // Local index for catch var (-1 if none)
}

// Code is the mutable code object the compiler emits into while walking
// the AST. Once a code block is complete, ToBytecode converts the whole
// tree, bottom-up, into the immutable bytecode.Code the VM executes. The
// split keeps backpatchable jump targets and the in-progress handler
// stack out of the type that is shared read-only across VM instances.
type Code struct {
	id           string
	name         string
	isNamed      bool
	parent       *Code
	children     []*Code
	symbols      *scope.Table
	instructions []op.Code
	constants    []any
	names        []string
	source       string
	functionID   string
	filename     string

	// Source map: one location per instruction for error reporting
	locations []bytecode.SourceLocation

	// Metadata for VM optimizations (computed during compilation)
	maxCallArgs uint16

	exceptionHandlers []*ExceptionHandler
}

func (c *Code) ID() string {
	return c.id
}

func (c *Code) CodeName() string {
	return c.name
}

func (c *Code) addName(name string) uint16 {
	for i, existing := range c.names {
		if existing == name {
			return uint16(i)
		}
	}
	c.names = append(c.names, name)
	return uint16(len(c.names) - 1)
}

func (c *Code) IsNamed() bool {
	return c.isNamed
}

func (c *Code) Parent() *Code {
	return c.parent
}

func (c *Code) newChild(name, source, funcID string) *Code {
	child := &Code{
		id:         fmt.Sprintf("%s.%d", c.id, len(c.children)),
		name:       name,
		isNamed:    name != "",
		parent:     c,
		symbols:    c.symbols.NewChild(),
		source:     source,
		functionID: funcID,
		filename:   c.filename,
	}
	c.children = append(c.children, child)
	return child
}

func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

func (c *Code) Instruction(index int) op.Code {
	return c.instructions[index]
}

func (c *Code) ConstantsCount() int {
	return len(c.constants)
}

func (c *Code) Constant(index int) any {
	return c.constants[index]
}

func (c *Code) Source() string {
	return c.source
}

func (c *Code) LocalsCount() int {
	return int(c.symbols.LocalTable().Count())
}

func (c *Code) GlobalsCount() int {
	return int(rootTable(c.symbols).Count())
}

func rootTable(t *scope.Table) *scope.Table {
	cur := t
	for cur.Parent() != nil {
		cur = cur.Parent()
	}
	return cur
}

func (c *Code) GlobalNames() []string {
	root := rootTable(c.symbols)
	count := root.Count()
	names := make([]string, count)
	for i := uint16(0); i < count; i++ {
		if s := root.Symbol(i); s != nil {
			names[i] = s.Name()
		}
	}
	return names
}

func (c *Code) LocalNames() []string {
	local := c.symbols.LocalTable()
	count := local.Count()
	names := make([]string, count)
	for i := uint16(0); i < count; i++ {
		if s := local.Symbol(i); s != nil {
			names[i] = s.Name()
		}
	}
	return names
}

func (c *Code) Root() *Code {
	curr := c
	for curr.parent != nil {
		curr = curr.parent
	}
	return curr
}

func (c *Code) IsRoot() bool {
	return c.parent == nil
}

func (c *Code) Filename() string {
	return c.filename
}

// LocationAt returns the source location for the instruction at the given
// index. If no location is recorded, a zero SourceLocation is returned.
func (c *Code) LocationAt(ip int) bytecode.SourceLocation {
	if ip < 0 || ip >= len(c.locations) {
		return bytecode.SourceLocation{}
	}
	return c.locations[ip]
}

// GetSourceLine returns the source code line at the given 1-based line
// number, or an empty string when out of range.
func (c *Code) GetSourceLine(lineNum int) string {
	source := c.Root().source
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// AddExceptionHandler records a try/catch/finally region.
func (c *Code) AddExceptionHandler(handler *ExceptionHandler) {
	c.exceptionHandlers = append(c.exceptionHandlers, handler)
}

// Function is the compiler's mutable function template, holding a
// reference to the mutable Code for its body. Converted to the immutable
// bytecode.Function by ToBytecode.
type Function struct {
	id          string
	name        string
	parameters  []string
	restParam   string
	code        *Code
	isGenerator bool
	isAsync     bool
	isArrow     bool
}

// FunctionOpts configures a new compiler Function.
type FunctionOpts struct {
	ID          string
	Name        string
	Parameters  []string
	RestParam   string
	Code        *Code
	IsGenerator bool
	IsAsync     bool
	IsArrow     bool
}

// NewFunction creates a mutable function template.
func NewFunction(opts FunctionOpts) *Function {
	return &Function{
		id:          opts.ID,
		name:        opts.Name,
		parameters:  opts.Parameters,
		restParam:   opts.RestParam,
		code:        opts.Code,
		isGenerator: opts.IsGenerator,
		isAsync:     opts.IsAsync,
		isArrow:     opts.IsArrow,
	}
}

// Code returns the function body's mutable code.
func (f *Function) Code() *Code { return f.code }

// Name returns the function's declared name, if any.
func (f *Function) Name() string { return f.name }

// classMethod is one method or accessor entry of a mutable Class.
type classMethod struct {
	name     string
	fn       *Function
	isStatic bool
	isGetter bool
	isSetter bool
}

// Class is the compiler's mutable class template, converted to
// bytecode.Class by ToBytecode. The constructor, methods, and field
// initializer thunks are emitted as closures on the stack ahead of the
// BUILD_CLASS instruction; the template records their order and roles.
type Class struct {
	name       string
	ctor       *Function
	hasCtor    bool
	methods    []classMethod
	fieldNames []string
	fieldInits []*Function
	hasParent  bool
}

// ToBytecode converts this mutable Code to an immutable bytecode.Code,
// recursively converting all child code blocks and the Function/Class
// constants that reference them. The conversion is bottom-up so children
// are fully constructed before their parents.
func (c *Code) ToBytecode() *bytecode.Code {
	codeMap := make(map[*Code]*bytecode.Code)
	return c.toBytecodeWithMap(codeMap)
}

func (c *Code) toBytecodeWithMap(codeMap map[*Code]*bytecode.Code) *bytecode.Code {
	children := make([]*bytecode.Code, len(c.children))
	for i, child := range c.children {
		children[i] = child.toBytecodeWithMap(codeMap)
	}

	handlers := make([]bytecode.ExceptionHandler, len(c.exceptionHandlers))
	for i, h := range c.exceptionHandlers {
		handlers[i] = bytecode.ExceptionHandler{
			TryStart:     h.TryStart,
			TryEnd:       h.TryEnd,
			CatchStart:   h.CatchStart,
			FinallyStart: h.FinallyStart,
			CatchVarIdx:  h.CatchVarIdx,
		}
	}

	constants := make([]any, len(c.constants))
	for i, constant := range c.constants {
		switch constant := constant.(type) {
		case *Function:
			constants[i] = convertFunction(constant, codeMap)
		case *Class:
			constants[i] = convertClass(constant, codeMap)
		default:
			constants[i] = constant
		}
	}

	bc := bytecode.NewCode(bytecode.CodeParams{
		ID:                c.id,
		Name:              c.name,
		IsNamed:           c.isNamed,
		Children:          children,
		Instructions:      c.instructions,
		Constants:         constants,
		Names:             c.names,
		Source:            c.source,
		Filename:          c.filename,
		FunctionID:        c.functionID,
		Locations:         c.locations,
		MaxCallArgs:       int(c.maxCallArgs),
		LocalCount:        c.LocalsCount(),
		GlobalCount:       c.GlobalsCount(),
		GlobalNames:       c.GlobalNames(),
		LocalNames:        c.LocalNames(),
		ExceptionHandlers: handlers,
	})
	codeMap[c] = bc
	return bc
}

func convertFunction(fn *Function, codeMap map[*Code]*bytecode.Code) *bytecode.Function {
	fnCode, exists := codeMap[fn.code]
	if !exists {
		panic("compile error: function body was not converted before its parent")
	}
	return bytecode.NewFunction(bytecode.FunctionParams{
		ID:          fn.id,
		Name:        fn.name,
		Parameters:  fn.parameters,
		RestParam:   fn.restParam,
		Code:        fnCode,
		IsGenerator: fn.isGenerator,
		IsAsync:     fn.isAsync,
		IsArrow:     fn.isArrow,
	})
}

func convertClass(class *Class, codeMap map[*Code]*bytecode.Code) *bytecode.Class {
	methods := make([]bytecode.Method, len(class.methods))
	for i, m := range class.methods {
		methods[i] = bytecode.Method{
			Name:     m.name,
			Fn:       convertFunction(m.fn, codeMap),
			IsStatic: m.isStatic,
			IsGetter: m.isGetter,
			IsSetter: m.isSetter,
		}
	}
	fieldInits := make([]*bytecode.Function, len(class.fieldInits))
	for i, thunk := range class.fieldInits {
		if thunk != nil {
			fieldInits[i] = convertFunction(thunk, codeMap)
		}
	}
	var ctor *bytecode.Function
	if class.ctor != nil {
		ctor = convertFunction(class.ctor, codeMap)
	}
	return bytecode.NewClass(bytecode.ClassParams{
		Name:        class.name,
		Constructor: ctor,
		HasCtor:     class.hasCtor,
		Methods:     methods,
		FieldNames:  class.fieldNames,
		FieldInits:  fieldInits,
		HasParent:   class.hasParent,
	})
}
