package object

import (
	"context"

	"github.com/juniper-lang/juniper/op"
)

// ResumeMode selects how a suspended coroutine is re-entered.
type ResumeMode int

const (
	// ResumeNext resumes normally, delivering a value to the paused yield.
	ResumeNext ResumeMode = iota
	// ResumeThrow injects an exception at the paused yield.
	ResumeThrow
	// ResumeReturn forces completion with the given value.
	ResumeReturn
)

// ResumeFunc re-enters a suspended coroutine and runs it to its next
// suspension point or completion, returning the produced value and whether
// the coroutine is done. The VM supplies this when it creates a generator;
// keeping it a callback means the object package never needs to call back
// into bytecode directly.
type ResumeFunc func(ctx context.Context, sent Object, mode ResumeMode) (Object, bool, error)

// Generator is the coroutine object a generator function call returns. It
// drives the saved execution state through its resume callback and exposes
// the script-level next/return/throw methods.
type Generator struct {
	name   string
	resume ResumeFunc
	done   bool
}

// NewGenerator creates a generator object for the named function, backed
// by the given resume callback.
func NewGenerator(name string, resume ResumeFunc) *Generator {
	return &Generator{name: name, resume: resume}
}

func (g *Generator) Type() Type { return GENERATOR }

// Name returns the generator function's name.
func (g *Generator) Name() string { return g.name }

// Done reports whether the coroutine has completed.
func (g *Generator) Done() bool { return g.done }

// Resume re-enters the coroutine. Once the coroutine has completed, every
// further resume reports done with an undefined value, except a throw
// resume, which returns the sent value as a thrown error.
func (g *Generator) Resume(ctx context.Context, sent Object, mode ResumeMode) (Object, bool, error) {
	if g.done {
		if mode == ResumeThrow {
			return nil, true, Thrown(sent).AsError()
		}
		return Undefined, true, nil
	}
	value, done, err := g.resume(ctx, sent, mode)
	if done || err != nil {
		g.done = true
	}
	return value, done, err
}

func (g *Generator) Inspect() string {
	return "[generator " + g.name + "]"
}

func (g *Generator) String() string { return g.Inspect() }

func (g *Generator) Interface() interface{} { return nil }

func (g *Generator) IsTruthy() bool { return true }

func (g *Generator) Equals(other Object) bool { return other == g }

func (g *Generator) GetAttr(name string) (Object, bool) {
	switch name {
	case "next":
		return NewBuiltin("next", func(ctx context.Context, this Object, args ...Object) Object {
			var sent Object = Undefined
			if len(args) > 0 {
				sent = args[0]
			}
			value, done, err := g.Resume(ctx, sent, ResumeNext)
			if err != nil {
				return ExceptionFromError(err)
			}
			return NewIterResult(value, done)
		}), true
	case "return":
		return NewBuiltin("return", func(ctx context.Context, this Object, args ...Object) Object {
			var value Object = Undefined
			if len(args) > 0 {
				value = args[0]
			}
			result, done, err := g.Resume(ctx, value, ResumeReturn)
			if err != nil {
				return ExceptionFromError(err)
			}
			return NewIterResult(result, done)
		}), true
	case "throw":
		return NewBuiltin("throw", func(ctx context.Context, this Object, args ...Object) Object {
			var value Object = Undefined
			if len(args) > 0 {
				value = args[0]
			}
			result, done, err := g.Resume(ctx, value, ResumeThrow)
			if err != nil {
				return ExceptionFromError(err)
			}
			return NewIterResult(result, done)
		}), true
	}
	return nil, false
}

func (g *Generator) SetAttr(name string, value Object) error {
	return TypeErrorf("cannot set property %q on generator", name).AsError()
}

func (g *Generator) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for generator", opType)
}

// Iter makes a generator directly iterable: for-of over a generator
// drives the generator itself.
func (g *Generator) Iter() Iterator {
	return &generatorIterator{gen: g}
}

type generatorIterator struct {
	base
	gen *Generator
	err error
}

func (it *generatorIterator) Type() Type               { return OBJECT }
func (it *generatorIterator) Inspect() string          { return "[generator iterator]" }
func (it *generatorIterator) Interface() interface{}   { return nil }
func (it *generatorIterator) Equals(other Object) bool { return other == it }

func (it *generatorIterator) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for generator iterator", opType)
}

// Err returns the error raised by the generator body during iteration, if
// any; the VM checks it after a for-of loop step reports done.
func (it *generatorIterator) Err() error { return it.err }

func (it *generatorIterator) Next(ctx context.Context) (Object, bool) {
	if it.gen.Done() || it.err != nil {
		return nil, false
	}
	value, done, err := it.gen.Resume(ctx, Undefined, ResumeNext)
	if err != nil {
		it.err = err
		return nil, false
	}
	if done {
		return nil, false
	}
	return value, true
}

// AsyncStepFunc drives an async generator one protocol step, returning a
// promise of the step's {value, done} result. The VM supplies it when an
// async generator function is called.
type AsyncStepFunc func(ctx context.Context, sent Object, mode ResumeMode) *Promise

// AsyncGenerator is the coroutine object an async generator function
// call returns: like Generator, but every next/return/throw resolves
// through a promise, and iteration goes through @@asyncIterator.
type AsyncGenerator struct {
	name string
	step AsyncStepFunc
}

// NewAsyncGenerator creates an async generator object for the named
// function, backed by the given step callback.
func NewAsyncGenerator(name string, step AsyncStepFunc) *AsyncGenerator {
	return &AsyncGenerator{name: name, step: step}
}

func (g *AsyncGenerator) Type() Type { return GENERATOR }

// Name returns the async generator function's name.
func (g *AsyncGenerator) Name() string { return g.name }

// Step drives one protocol step, returning a promise of {value, done}.
func (g *AsyncGenerator) Step(ctx context.Context, sent Object, mode ResumeMode) *Promise {
	return g.step(ctx, sent, mode)
}

func (g *AsyncGenerator) Inspect() string {
	return "[async generator " + g.name + "]"
}

func (g *AsyncGenerator) String() string { return g.Inspect() }

func (g *AsyncGenerator) Interface() interface{} { return nil }

func (g *AsyncGenerator) IsTruthy() bool { return true }

func (g *AsyncGenerator) Equals(other Object) bool { return other == g }

func (g *AsyncGenerator) GetAttr(name string) (Object, bool) {
	var mode ResumeMode
	switch name {
	case "next":
		mode = ResumeNext
	case "return":
		mode = ResumeReturn
	case "throw":
		mode = ResumeThrow
	default:
		return nil, false
	}
	return NewBuiltin(name, func(ctx context.Context, this Object, args ...Object) Object {
		var sent Object = Undefined
		if len(args) > 0 {
			sent = args[0]
		}
		return g.step(ctx, sent, mode)
	}), true
}

func (g *AsyncGenerator) SetAttr(name string, value Object) error {
	return TypeErrorf("cannot set property %q on async generator", name).AsError()
}

func (g *AsyncGenerator) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for async generator", opType)
}
