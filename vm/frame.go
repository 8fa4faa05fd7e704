package vm

import (
	"github.com/juniper-lang/juniper/object"
)

// frame is one call-stack entry: the executing code, its local variable
// slots, the `this` binding, the saved caller position, and the cells
// this frame allocated for closures (roots until the frame is torn down).
type frame struct {
	returnAddr int
	returnSp   int
	callSiteIP int // IP of the call instruction in the caller's code (for stack traces)
	fn         *object.Function
	code       *loadedCode
	locals     []object.Object
	this       object.Object
	args       []object.Object
	cells      []*object.Cell
}

// ActivateCode prepares the frame to run a code block with no function
// context (the program entrypoint).
func (f *frame) ActivateCode(code *loadedCode) {
	f.code = code
	f.fn = nil
	f.returnAddr = 0
	f.returnSp = -1
	f.callSiteIP = 0
	f.this = object.Undefined
	f.args = nil
	f.cells = nil
	// Locals always live on a fresh heap slice: captured cells alias the
	// slots, so the storage must survive the frame and never be reused.
	f.locals = make([]object.Object, code.LocalCount())
}

// ActivateFunction prepares the frame for a function call, copying the
// initial local values (parameters, rest, self-binding) into place.
func (f *frame) ActivateFunction(
	fn *object.Function,
	code *loadedCode,
	returnAddr, returnSp int,
	localValues []object.Object,
	this object.Object,
	args []object.Object,
) {
	f.ActivateCode(code)
	f.fn = fn
	f.returnAddr = returnAddr
	f.returnSp = returnSp
	f.callSiteIP = returnAddr
	f.this = this
	f.args = args
	copy(f.locals, localValues)
}

// Locals returns the frame's local variable slots.
func (f *frame) Locals() []object.Object {
	return f.locals
}

// Name returns a display name for stack traces.
func (f *frame) Name() string {
	if f.fn != nil {
		if name := f.fn.Name(); name != "" {
			return name
		}
		return "<anonymous>"
	}
	if f.code != nil && f.code.Name() != "" {
		return f.code.Name()
	}
	return "<main>"
}
