package vm

import (
	"context"

	"github.com/juniper-lang/juniper/object"
)

const (
	coroutineFrameDepth = 128
	coroutineStackDepth = 256
)

// execState is a saved execution context: the evaluation stack, the call
// frames, the error-frame stack, and the position registers. Suspending a
// coroutine captures one; resuming swaps it in for the VM's live context
// and swaps it back out at the next suspension point.
type execState struct {
	ip          int
	sp          int
	fp          int
	stack       []object.Object
	frames      []frame
	handlers    []tryHandler
	activeFrame *frame
	activeCode  *loadedCode
}

func (vm *VirtualMachine) captureState() execState {
	return execState{
		ip:          vm.ip,
		sp:          vm.sp,
		fp:          vm.fp,
		stack:       vm.stack,
		frames:      vm.frames,
		handlers:    vm.handlers,
		activeFrame: vm.activeFrame,
		activeCode:  vm.activeCode,
	}
}

func (vm *VirtualMachine) installState(s execState) {
	vm.ip = s.ip
	vm.sp = s.sp
	vm.fp = s.fp
	vm.stack = s.stack
	vm.frames = s.frames
	vm.handlers = s.handlers
	vm.activeFrame = s.activeFrame
	vm.activeCode = s.activeCode
}

// coroutine is one suspendable function activation backing a generator or
// async function.
type coroutine struct {
	state   execState
	started bool
	done    bool
	running bool
}

// newCoroutine sets up a suspended activation of fn, positioned at the
// first instruction of its body. Frame zero is a guard frame the
// function's return lands in, which makes eval stop cleanly.
func (vm *VirtualMachine) newCoroutine(fn *object.Function, this object.Object, args []object.Object) *coroutine {
	saved := vm.captureState()
	vm.stack = make([]object.Object, coroutineStackDepth)
	vm.frames = make([]frame, coroutineFrameDepth)
	vm.handlers = nil
	vm.sp = -1
	vm.fp = 0
	locals := vm.buildLocals(fn, args)
	vm.activateFunction(1, 0, fn, locals, resolveThis(fn, this), args)
	vm.activeFrame.returnAddr = StopSignal
	vm.activeFrame.returnSp = -1
	co := &coroutine{state: vm.captureState()}
	vm.installState(saved)
	return co
}

// suspension classifies how a coroutine left the interpreter: ran to
// completion, paused at a yield, or paused at an await.
type suspension int

const (
	coroutineDone suspension = iota
	coroutineYield
	coroutineAwait
)

// resumeCoroutine swaps the coroutine's saved context in, runs it until
// the next suspension point or completion, and swaps back. It returns the
// produced value (the yielded task's value, the awaited value, or the
// final result) and how the coroutine stopped.
func (vm *VirtualMachine) resumeCoroutine(
	ctx context.Context,
	co *coroutine,
	sent object.Object,
	mode object.ResumeMode,
) (object.Object, suspension, error) {
	if co.running {
		return nil, coroutineDone, vm.typeError("coroutine is already running")
	}
	if co.done {
		return object.Undefined, coroutineDone, nil
	}
	if mode == object.ResumeReturn {
		co.done = true
		return sent, coroutineDone, nil
	}

	co.running = true
	saved := vm.captureState()
	vm.installState(co.state)
	finish := func() {
		co.state = vm.captureState()
		vm.installState(saved)
		co.running = false
	}

	if !co.started {
		co.started = true
	} else if mode == object.ResumeNext {
		// The sent value becomes the result of the paused yield/await.
		vm.push(sent)
	}
	if mode == object.ResumeThrow {
		exc := vm.prepareException(object.Thrown(sent))
		if !vm.raise(exc) {
			co.done = true
			finish()
			return nil, coroutineDone, exc
		}
	}

	err := vm.eval(ctx)
	switch signal := err.(type) {
	case nil:
		var value object.Object = object.Undefined
		if vm.sp >= 0 {
			value = vm.pop()
		}
		co.done = true
		finish()
		return value, coroutineDone, nil
	case *yieldSignal:
		finish()
		return signal.task.Value(), coroutineYield, nil
	case *awaitSignal:
		finish()
		return signal.value, coroutineAwait, nil
	default:
		co.done = true
		finish()
		return nil, coroutineDone, err
	}
}

// createGenerator wraps a generator-function call as a suspended
// coroutine behind a Generator object; nothing runs until next().
func (vm *VirtualMachine) createGenerator(fn *object.Function, this object.Object, args []object.Object) *object.Generator {
	co := vm.newCoroutine(fn, this, args)
	return object.NewGenerator(fn.Name(), func(ctx context.Context, sent object.Object, mode object.ResumeMode) (object.Object, bool, error) {
		value, kind, err := vm.resumeCoroutine(ctx, co, sent, mode)
		if err != nil {
			return nil, true, err
		}
		// A plain generator never awaits; the parser rejects await
		// outside async functions.
		return value, kind == coroutineDone, nil
	})
}

// runAsync drives an async function: the body runs synchronously until
// its first await, then resumes via the microtask queue as each awaited
// value settles. The returned promise settles with the function's result.
func (vm *VirtualMachine) runAsync(
	ctx context.Context,
	fn *object.Function,
	this object.Object,
	args []object.Object,
) *object.Promise {
	co := vm.newCoroutine(fn, this, args)
	promise := object.NewPromise(vm.schedule, vm.callAny)

	var step func(ctx context.Context, sent object.Object, mode object.ResumeMode)
	step = func(ctx context.Context, sent object.Object, mode object.ResumeMode) {
		value, kind, err := vm.resumeCoroutine(ctx, co, sent, mode)
		if err != nil {
			promise.Reject(rejectionValue(err))
			return
		}
		if kind == coroutineDone {
			promise.Resolve(value)
			return
		}
		// An async function's only suspension is await.
		if awaited, ok := value.(*object.Promise); ok {
			awaited.OnSettled(
				func(ctx context.Context, v object.Object) { step(ctx, v, object.ResumeNext) },
				func(ctx context.Context, v object.Object) { step(ctx, v, object.ResumeThrow) },
			)
			return
		}
		// Awaiting a plain value resumes on the next microtask tick.
		vm.schedule(func(ctx context.Context) { step(ctx, value, object.ResumeNext) })
	}
	step(ctx, object.Undefined, object.ResumeNext)
	return promise
}

// createAsyncGenerator wraps an async-generator-function call as a
// suspended coroutine behind an AsyncGenerator object. Each next/return/
// throw drives the body to its next yield or completion, resolving the
// step's promise with {value, done}; awaits inside the body are serviced
// internally, keeping the same step promise pending until the next yield.
func (vm *VirtualMachine) createAsyncGenerator(fn *object.Function, this object.Object, args []object.Object) *object.AsyncGenerator {
	co := vm.newCoroutine(fn, this, args)
	stepInFlight := false

	var drive func(ctx context.Context, sent object.Object, mode object.ResumeMode, p *object.Promise)
	drive = func(ctx context.Context, sent object.Object, mode object.ResumeMode, p *object.Promise) {
		value, kind, err := vm.resumeCoroutine(ctx, co, sent, mode)
		if err != nil {
			stepInFlight = false
			p.Reject(rejectionValue(err))
			return
		}
		switch kind {
		case coroutineDone:
			stepInFlight = false
			p.Resolve(object.NewIterResult(value, true))
		case coroutineYield:
			stepInFlight = false
			p.Resolve(object.NewIterResult(value, false))
		case coroutineAwait:
			if awaited, ok := value.(*object.Promise); ok {
				awaited.OnSettled(
					func(ctx context.Context, v object.Object) { drive(ctx, v, object.ResumeNext, p) },
					func(ctx context.Context, v object.Object) { drive(ctx, v, object.ResumeThrow, p) },
				)
				return
			}
			vm.schedule(func(ctx context.Context) { drive(ctx, value, object.ResumeNext, p) })
		}
	}

	return object.NewAsyncGenerator(fn.Name(), func(ctx context.Context, sent object.Object, mode object.ResumeMode) *object.Promise {
		p := object.NewPromise(vm.schedule, vm.callAny)
		if stepInFlight {
			p.Reject(vm.typeError("async generator is already running"))
			return p
		}
		stepInFlight = true
		drive(ctx, sent, mode, p)
		return p
	})
}

// rejectionValue extracts the script-level value an error should reject
// with: the originally thrown value when there was one.
func rejectionValue(err error) object.Object {
	exc := object.ExceptionFromError(err)
	if target := exc.Target(); target != nil {
		return target
	}
	return exc
}
