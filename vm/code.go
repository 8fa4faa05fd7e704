package vm

import (
	"fmt"
	"math/big"

	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/op"
)

// loadedCode wraps an immutable bytecode.Code in the form the eval loop
// reads directly: flat instruction and name slices, constants converted
// to runtime entities, and the globals slot array (owned by the root,
// shared by children).
type loadedCode struct {
	*bytecode.Code
	Instructions []op.Code
	Constants    []object.Object
	Globals      []object.Object
	Names        []string
	Handlers     []bytecode.ExceptionHandler
}

func wrapCode(cc *bytecode.Code) *loadedCode {
	// Note that this does NOT set the Globals field.
	c := &loadedCode{
		Code:         cc,
		Instructions: make([]op.Code, cc.InstructionCount()),
		Constants:    make([]object.Object, cc.ConstantCount()),
		Names:        make([]string, cc.NameCount()),
		Handlers:     make([]bytecode.ExceptionHandler, cc.ExceptionHandlerCount()),
	}
	for i := 0; i < cc.InstructionCount(); i++ {
		c.Instructions[i] = cc.InstructionAt(i)
	}
	for i := 0; i < cc.NameCount(); i++ {
		c.Names[i] = cc.NameAt(i)
	}
	for i := 0; i < cc.ExceptionHandlerCount(); i++ {
		c.Handlers[i] = cc.ExceptionHandlerAt(i)
	}
	for i := 0; i < cc.ConstantCount(); i++ {
		constant := cc.ConstantAt(i)
		switch constant := constant.(type) {
		case float64:
			c.Constants[i] = object.NewNumber(constant)
		case string:
			c.Constants[i] = object.NewString(constant)
		case bool:
			c.Constants[i] = object.NewBool(constant)
		case *big.Int:
			c.Constants[i] = object.NewBigInt(constant)
		case *bytecode.Function:
			// Function templates stay as templates; LoadConst and
			// LoadClosure wrap them in fresh closure objects at run time.
			c.Constants[i] = nil
		case *bytecode.Class:
			c.Constants[i] = nil
		case nil:
			c.Constants[i] = object.Null
		default:
			panic(fmt.Sprintf("unsupported constant type: %T", constant))
		}
	}
	return c
}

// FunctionConstant returns the function template at the given constant
// index.
func (c *loadedCode) FunctionConstant(index int) (*bytecode.Function, bool) {
	fn, ok := c.ConstantAt(index).(*bytecode.Function)
	return fn, ok
}

// ClassConstant returns the class template at the given constant index.
func (c *loadedCode) ClassConstant(index int) (*bytecode.Class, bool) {
	class, ok := c.ConstantAt(index).(*bytecode.Class)
	return class, ok
}

func loadChildCode(root *loadedCode, cc *bytecode.Code) *loadedCode {
	c := wrapCode(cc)
	c.Globals = root.Globals
	return c
}

func loadRootCode(cc *bytecode.Code, globals map[string]object.Object) *loadedCode {
	c := wrapCode(cc)
	globalNames := cc.GlobalNames()
	c.Globals = make([]object.Object, len(globalNames))
	for i, name := range globalNames {
		if value, found := globals[name]; found {
			c.Globals[i] = value
		}
	}
	return c
}
