// Package vm provides a VirtualMachine that executes compiled bytecode.
package vm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/errz"
	"github.com/juniper-lang/juniper/object"
	"github.com/rs/zerolog"
)

const (
	MaxArgs       = 255
	MaxFrameDepth = 1024
	MaxStackDepth = 2048
	StopSignal    = -1

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

var ErrGlobalNotFound = errors.New("global not found")

// ModuleResolver loads a module by name for RESOLVE_MODULE. Import
// resolution beyond this hook is out of the engine core.
type ModuleResolver func(ctx context.Context, name string) (object.Object, error)

// handlerState tracks which region of a try construct a handler is in.
type handlerState uint8

const (
	handlerInTry handlerState = iota
	handlerInCatch
	handlerInFinally
)

// tryHandler is one active error frame: where catch and finally live,
// which call frame and stack depth it protects, and the exception pending
// delivery after the finally body runs.
type tryHandler struct {
	catchPC   int // absolute, 0 = no catch clause
	finallyPC int // absolute, 0 = no finally clause
	fp        int
	sp        int
	state     handlerState
	pending   *object.Exception
}

// yieldSignal carries a suspension out of the eval loop: the task marker
// holds the yielded value and the resume address.
type yieldSignal struct {
	task *object.Task
}

func (s *yieldSignal) Error() string { return "yield outside of a generator" }

// awaitSignal suspends an async function until the awaited value settles.
type awaitSignal struct {
	value object.Object
}

func (s *awaitSignal) Error() string { return "await outside of an async function" }

// VirtualMachine executes compiled bytecode against a value stack, a call
// frame stack, an error-frame stack, and a heap of closure cells.
type VirtualMachine struct {
	ip          int // instruction pointer
	sp          int // stack pointer
	fp          int // frame pointer
	stack       []object.Object
	frames      []frame
	handlers    []tryHandler
	activeFrame *frame
	activeCode  *loadedCode

	halt         int32
	startCount   int64
	main         *bytecode.Code
	inputGlobals map[string]any
	globals      map[string]object.Object
	loadedCode   map[*bytecode.Code]*loadedCode
	running      bool
	runMutex     sync.Mutex

	microtasks []func(ctx context.Context)

	heap   *object.Heap
	logger zerolog.Logger

	moduleResolver ModuleResolver

	contextCheckInterval int

	observer Observer
}

// New creates a new Virtual Machine for the given compiled entrypoint.
func New(main *bytecode.Code, options ...Option) (*VirtualMachine, error) {
	vm := &VirtualMachine{
		sp:                   -1,
		stack:                make([]object.Object, MaxStackDepth),
		frames:               make([]frame, MaxFrameDepth),
		main:                 main,
		inputGlobals:         map[string]any{},
		globals:              map[string]object.Object{},
		loadedCode:           map[*bytecode.Code]*loadedCode{},
		heap:                 object.NewHeap(),
		logger:               zerolog.Nop(),
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	var err error
	vm.globals, err = object.AsObjects(vm.inputGlobals)
	if err != nil {
		return nil, fmt.Errorf("invalid global provided: %w", err)
	}
	return vm, nil
}

func (vm *VirtualMachine) start(ctx context.Context) error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	vm.startCount++
	vm.halt = 0
	if doneChan := ctx.Done(); doneChan != nil {
		go func() {
			<-doneChan
			atomic.StoreInt32(&vm.halt, 1)
		}()
	}
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
}

// Run executes the main code to completion, then drains the microtask
// queue. The result of the program's final expression is left on the
// stack; read it with TOS.
func (vm *VirtualMachine) Run(ctx context.Context) (err error) {
	if vm.main == nil {
		return fmt.Errorf("no main code available")
	}
	if err := vm.start(ctx); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()

	codeObj := vm.load(vm.main)
	vm.activateCode(0, 0, codeObj)
	ctx = vm.initContext(ctx)
	vm.logger.Debug().
		Str("filename", vm.main.Filename()).
		Int("instructions", vm.main.InstructionCount()).
		Msg("run start")
	if err := vm.eval(ctx); err != nil {
		return err
	}
	err = vm.drainMicrotasks(ctx)
	vm.logger.Debug().Int("heap_cells", vm.heap.Len()).Msg("run complete")
	return err
}

// Heap returns the cell heap backing this VM's closures.
func (vm *VirtualMachine) Heap() *object.Heap {
	return vm.heap
}

// Get returns a global variable by name.
func (vm *VirtualMachine) Get(name string) (object.Object, error) {
	code := vm.activeCode
	if code == nil {
		return nil, errors.New("no active code")
	}
	for i, globalName := range code.GlobalNames() {
		if globalName == name {
			if value := code.Globals[i]; value != nil {
				return value, nil
			}
			return object.Undefined, nil
		}
	}
	if value, ok := vm.globals[name]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrGlobalNotFound, name)
}

// TOS returns the top-of-stack object if there is one, without modifying
// the stack. This only works on a stopped VM.
func (vm *VirtualMachine) TOS() (object.Object, bool) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if !vm.running && vm.sp >= 0 {
		return vm.stack[vm.sp], true
	}
	return nil, false
}

func (vm *VirtualMachine) initContext(ctx context.Context) context.Context {
	ctx = object.WithCallFunc(ctx, vm.callAny)
	return object.WithScheduler(ctx, vm.schedule)
}

// callAny is the host-callback contract: invoke any callable value with
// an explicit `this` and argument list.
func (vm *VirtualMachine) callAny(
	ctx context.Context,
	fn object.Object,
	this object.Object,
	args []object.Object,
) (object.Object, error) {
	switch fn := fn.(type) {
	case *object.Function:
		switch {
		case fn.IsGenerator() && fn.IsAsync():
			return vm.createAsyncGenerator(fn, this, args), nil
		case fn.IsGenerator():
			return vm.createGenerator(fn, this, args), nil
		case fn.IsAsync():
			return vm.runAsync(ctx, fn, this, args), nil
		}
		return vm.callFunction(ctx, fn, this, args)
	case *object.Builtin:
		result := fn.Call(ctx, this, args...)
		if exc, ok := result.(*object.Exception); ok {
			return nil, exc
		}
		return result, nil
	default:
		return nil, vm.typeError("%s is not a function", fn.Type())
	}
}

// schedule enqueues a microtask. Microtasks run in FIFO order after the
// current synchronous run completes.
func (vm *VirtualMachine) schedule(task func(ctx context.Context)) {
	vm.microtasks = append(vm.microtasks, task)
}

func (vm *VirtualMachine) drainMicrotasks(ctx context.Context) error {
	for len(vm.microtasks) > 0 {
		task := vm.microtasks[0]
		vm.microtasks = vm.microtasks[1:]
		task(ctx)
		if atomic.LoadInt32(&vm.halt) == 1 {
			return ctx.Err()
		}
	}
	return nil
}

// load wraps the entrypoint code for execution, owning the globals slot
// array. Function bodies load through loadFunctionCode, which shares the
// entrypoint's globals.
func (vm *VirtualMachine) load(cc *bytecode.Code) *loadedCode {
	if code, ok := vm.loadedCode[cc]; ok {
		return code
	}
	c := loadRootCode(cc, vm.globals)
	vm.loadedCode[cc] = c
	return c
}

// loadFunctionCode wraps a function body, sharing the root's globals.
func (vm *VirtualMachine) loadFunctionCode(cc *bytecode.Code) *loadedCode {
	if code, ok := vm.loadedCode[cc]; ok {
		return code
	}
	rootLoaded, ok := vm.loadedCode[vm.main]
	var c *loadedCode
	if ok {
		c = loadChildCode(rootLoaded, cc)
	} else {
		c = loadRootCode(cc, vm.globals)
	}
	vm.loadedCode[cc] = c
	return c
}

func (vm *VirtualMachine) push(obj object.Object) {
	vm.sp++
	if vm.sp >= len(vm.stack) {
		vm.stack = append(vm.stack, make([]object.Object, MaxStackDepth)...)
	}
	vm.stack[vm.sp] = obj
}

func (vm *VirtualMachine) pop() object.Object {
	obj := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	vm.sp--
	return obj
}

func (vm *VirtualMachine) peek() object.Object {
	return vm.stack[vm.sp]
}

func (vm *VirtualMachine) swap(pos int) {
	otherIndex := vm.sp - pos
	vm.stack[otherIndex], vm.stack[vm.sp] = vm.stack[vm.sp], vm.stack[otherIndex]
}

// truncateStack drops stack entries above sp.
func (vm *VirtualMachine) truncateStack(sp int) {
	for i := vm.sp; i > sp; i-- {
		vm.stack[i] = nil
	}
	vm.sp = sp
}

func (vm *VirtualMachine) fetch() uint16 {
	ip := vm.ip
	vm.ip++
	return uint16(vm.activeCode.Instructions[ip])
}

// activateCode begins running a code block in the given frame slot.
func (vm *VirtualMachine) activateCode(fp, ip int, code *loadedCode) *frame {
	vm.fp = fp
	vm.ip = ip
	vm.activeFrame = &vm.frames[fp]
	vm.activeFrame.ActivateCode(code)
	vm.activeCode = code
	return vm.activeFrame
}

// activateFunction begins running a function call in the given frame slot.
func (vm *VirtualMachine) activateFunction(
	fp, ip int,
	fn *object.Function,
	locals []object.Object,
	this object.Object,
	args []object.Object,
) *frame {
	code := vm.loadFunctionCode(fn.Code())
	returnAddr := vm.ip
	returnSp := vm.sp
	vm.fp = fp
	vm.ip = ip
	vm.activeFrame = &vm.frames[fp]
	vm.activeFrame.ActivateFunction(fn, code, returnAddr, returnSp, locals, this, args)
	vm.activeCode = code
	return vm.activeFrame
}

// resumeFrame restores the caller's frame after a return, releasing the
// popped frames' cell roots and sweeping the heap: scope teardown is the
// only reclamation trigger.
func (vm *VirtualMachine) resumeFrame(fp, ip, sp int) *frame {
	var frameResult object.Object
	if vm.sp > sp {
		frameResult = vm.pop()
	}
	vm.truncateStack(sp)
	if frameResult != nil {
		vm.push(frameResult)
	}
	sweep := false
	for i := vm.fp; i > fp && i >= 0; i-- {
		f := &vm.frames[i]
		for _, cell := range f.cells {
			vm.heap.RemoveRoot(cell)
			sweep = true
		}
		f.cells = nil
	}
	if sweep {
		vm.heap.Sweep()
	}
	vm.fp = fp
	vm.ip = ip
	if fp >= 0 {
		vm.activeFrame = &vm.frames[fp]
		vm.activeCode = vm.activeFrame.code
	}
	return vm.activeFrame
}

// buildLocals assembles a function call's initial local values: the
// declared parameters (missing arguments become undefined), the rest
// parameter's array, and the function's own name binding for recursion.
func (vm *VirtualMachine) buildLocals(fn *object.Function, args []object.Object) []object.Object {
	template := fn.Template()
	paramCount := template.ParameterCount()
	count := paramCount
	if template.HasRestParam() {
		count++
	}
	if fn.Code().IsNamed() {
		count++
	}
	locals := make([]object.Object, count)
	slot := 0
	for i := 0; i < paramCount; i++ {
		if i < len(args) {
			locals[slot] = args[i]
		} else {
			locals[slot] = object.Undefined
		}
		slot++
	}
	if template.HasRestParam() {
		var rest []object.Object
		if len(args) > paramCount {
			rest = append(rest, args[paramCount:]...)
		}
		locals[slot] = object.NewList(rest)
		slot++
	}
	if fn.Code().IsNamed() {
		locals[slot] = fn
	}
	return locals
}

// resolveThis applies arrow/bound `this` capture.
func resolveThis(fn *object.Function, this object.Object) object.Object {
	if bound, ok := fn.BoundThis(); ok {
		return bound
	}
	if this == nil {
		return object.Undefined
	}
	return this
}

// callFunction calls a plain compiled function synchronously and returns
// its result. Generator and async functions go through callAny.
func (vm *VirtualMachine) callFunction(
	ctx context.Context,
	fn *object.Function,
	this object.Object,
	args []object.Object,
) (object.Object, error) {
	if len(args) > MaxArgs {
		return nil, vm.rangeError("max args limit of %d exceeded (got %d)", MaxArgs, len(args))
	}
	if vm.fp+1 >= len(vm.frames) {
		return nil, vm.rangeError("maximum call stack size exceeded")
	}

	baseFP := vm.fp
	baseIP := vm.ip
	baseSP := vm.sp
	defer vm.resumeFrame(baseFP, baseIP, baseSP)

	locals := vm.buildLocals(fn, args)
	vm.activateFunction(vm.fp+1, 0, fn, locals, resolveThis(fn, this), args)

	if vm.observer != nil {
		event := CallEvent{
			FunctionName: fn.Name(),
			ArgCount:     len(args),
			Location:     vm.getCurrentLocation(),
			FrameDepth:   vm.fp + 1,
		}
		if !vm.observer.OnCall(event) {
			return nil, fmt.Errorf("execution halted by observer")
		}
	}

	// Setting StopSignal as the return address makes eval stop when the
	// function returns.
	vm.activeFrame.returnAddr = StopSignal

	if err := vm.eval(ctx); err != nil {
		return nil, err
	}
	return vm.pop(), nil
}

// callObject applies any callable with the given `this`, pushing the call
// result onto the stack.
func (vm *VirtualMachine) callObject(
	ctx context.Context,
	fn object.Object,
	this object.Object,
	args []object.Object,
) error {
	result, err := vm.callAny(ctx, fn, this, args)
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// raise transfers control to the innermost matching error frame for the
// current call frame. It reports false when no handler in this frame can
// take the exception, in which case the exception crosses up into the
// caller as its call result.
func (vm *VirtualMachine) raise(exc *object.Exception) bool {
	for len(vm.handlers) > 0 {
		h := &vm.handlers[len(vm.handlers)-1]
		if h.fp != vm.fp {
			return false
		}
		if h.state == handlerInTry && h.catchPC > 0 {
			h.state = handlerInCatch
			vm.truncateStack(h.sp)
			value := exc.Target()
			if value == nil {
				value = exc
			}
			vm.push(value)
			vm.ip = h.catchPC
			return true
		}
		if h.finallyPC > 0 && h.state != handlerInFinally {
			h.state = handlerInFinally
			h.pending = exc
			vm.truncateStack(h.sp)
			vm.ip = h.finallyPC
			return true
		}
		vm.handlers = vm.handlers[:len(vm.handlers)-1]
	}
	return false
}

// dropFrameHandlers discards error frames belonging to the current call
// frame, used when the frame exits.
func (vm *VirtualMachine) dropFrameHandlers() {
	for len(vm.handlers) > 0 && vm.handlers[len(vm.handlers)-1].fp == vm.fp {
		vm.handlers = vm.handlers[:len(vm.handlers)-1]
	}
}

// prepareException decorates an error with the current source location
// and call stack if it does not already carry them.
func (vm *VirtualMachine) prepareException(err error) *object.Exception {
	exc := object.ExceptionFromError(err)
	if e := exc.Err(); e != nil {
		if e.Location.IsZero() {
			loc := vm.getCurrentLocation()
			e.Location = errz.SourceLocation{
				Filename: vm.activeCode.Filename(),
				Line:     loc.Line,
				Column:   loc.Column,
				Source:   vm.activeCode.GetSourceLine(loc.Line),
			}
		}
		if e.Stack == nil {
			e.Stack = vm.captureStack()
		}
	}
	return exc
}

// captureStack builds a stack trace from the live call frames.
func (vm *VirtualMachine) captureStack() []errz.StackFrame {
	var frames []errz.StackFrame
	for i := vm.fp; i >= 0; i-- {
		f := &vm.frames[i]
		if f.code == nil {
			continue
		}
		ip := f.callSiteIP - 1
		if i == vm.fp {
			ip = vm.ip - 1
		}
		if ip < 0 {
			ip = 0
		}
		loc := f.code.LocationAt(ip)
		frames = append(frames, errz.StackFrame{
			Function: f.Name(),
			Location: errz.SourceLocation{
				Filename: f.code.Filename(),
				Line:     loc.Line,
				Column:   loc.Column,
			},
		})
	}
	return frames
}

func (vm *VirtualMachine) getCurrentLocation() bytecode.SourceLocation {
	if vm.activeCode == nil {
		return bytecode.SourceLocation{}
	}
	ip := vm.ip - 1
	if ip < 0 {
		ip = 0
	}
	return vm.activeCode.LocationAt(ip)
}

func (vm *VirtualMachine) runtimeError(kind errz.Kind, format string, args ...any) *object.Exception {
	loc := vm.getCurrentLocation()
	source := ""
	filename := ""
	if vm.activeCode != nil {
		source = vm.activeCode.GetSourceLine(loc.Line)
		filename = vm.activeCode.Filename()
	}
	return object.NewException(errz.Newf(kind, errz.SourceLocation{
		Filename: filename,
		Line:     loc.Line,
		Column:   loc.Column,
		Source:   source,
	}, vm.captureStack(), format, args...))
}

func (vm *VirtualMachine) typeError(format string, args ...any) *object.Exception {
	return vm.runtimeError(errz.Type, format, args...)
}

func (vm *VirtualMachine) referenceError(format string, args ...any) *object.Exception {
	return vm.runtimeError(errz.Reference, format, args...)
}

func (vm *VirtualMachine) rangeError(format string, args ...any) *object.Exception {
	return vm.runtimeError(errz.Range, format, args...)
}

func (vm *VirtualMachine) evalError(format string, args ...any) *object.Exception {
	return vm.runtimeError(errz.Internal, format, args...)
}
