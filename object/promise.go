package object

import (
	"context"

	"github.com/juniper-lang/juniper/op"
)

// PromiseStatus is the settlement state of a promise.
type PromiseStatus int

const (
	PromisePending PromiseStatus = iota
	PromiseFulfilled
	PromiseRejected
)

func (s PromiseStatus) String() string {
	switch s {
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Scheduler enqueues a microtask. The VM provides its FIFO microtask
// queue; promise reactions always run through it, never inline, so
// settlement ordering matches the concurrency model.
type Scheduler func(task func(ctx context.Context))

// Promise is the promise entity kind: a settlement status, the settled
// value, and the pending reaction callbacks registered before settlement.
type Promise struct {
	base
	status      PromiseStatus
	value       Object
	onFulfilled []func(ctx context.Context, value Object)
	onRejected  []func(ctx context.Context, value Object)
	onFinally   []func(ctx context.Context)
	schedule    Scheduler
	callFn      CallFunc
}

// NewPromise creates a pending promise wired to the given microtask
// scheduler and script-function call hook.
func NewPromise(schedule Scheduler, callFn CallFunc) *Promise {
	return &Promise{schedule: schedule, callFn: callFn}
}

// NewResolvedPromise creates an already-fulfilled promise.
func NewResolvedPromise(schedule Scheduler, callFn CallFunc, value Object) *Promise {
	p := NewPromise(schedule, callFn)
	p.Resolve(value)
	return p
}

// NewRejectedPromise creates an already-rejected promise.
func NewRejectedPromise(schedule Scheduler, callFn CallFunc, value Object) *Promise {
	p := NewPromise(schedule, callFn)
	p.Reject(value)
	return p
}

func (p *Promise) Type() Type { return PROMISE }

// Status returns the settlement state.
func (p *Promise) Status() PromiseStatus { return p.status }

// Value returns the settled value (nil while pending).
func (p *Promise) Value() Object { return p.value }

// Resolve fulfills the promise, scheduling every registered reaction as a
// microtask. Resolving with another promise chains to its settlement.
func (p *Promise) Resolve(value Object) {
	if p.status != PromisePending {
		return
	}
	if inner, ok := value.(*Promise); ok {
		inner.OnSettled(
			func(ctx context.Context, v Object) { p.Resolve(v) },
			func(ctx context.Context, v Object) { p.Reject(v) },
		)
		return
	}
	if value == nil {
		value = Undefined
	}
	p.status = PromiseFulfilled
	p.value = value
	for _, cb := range p.onFulfilled {
		cb := cb
		p.schedule(func(ctx context.Context) { cb(ctx, value) })
	}
	p.flushFinally()
	p.onFulfilled, p.onRejected = nil, nil
}

// Reject rejects the promise, scheduling every registered rejection
// reaction as a microtask.
func (p *Promise) Reject(value Object) {
	if p.status != PromisePending {
		return
	}
	if value == nil {
		value = Undefined
	}
	p.status = PromiseRejected
	p.value = value
	for _, cb := range p.onRejected {
		cb := cb
		p.schedule(func(ctx context.Context) { cb(ctx, value) })
	}
	p.flushFinally()
	p.onFulfilled, p.onRejected = nil, nil
}

func (p *Promise) flushFinally() {
	for _, cb := range p.onFinally {
		cb := cb
		p.schedule(func(ctx context.Context) { cb(ctx) })
	}
	p.onFinally = nil
}

// OnSettled registers host-level reactions. If the promise is already
// settled, the matching reaction is scheduled immediately.
func (p *Promise) OnSettled(
	onFulfilled func(ctx context.Context, value Object),
	onRejected func(ctx context.Context, value Object),
) {
	switch p.status {
	case PromiseFulfilled:
		if onFulfilled != nil {
			value := p.value
			p.schedule(func(ctx context.Context) { onFulfilled(ctx, value) })
		}
	case PromiseRejected:
		if onRejected != nil {
			value := p.value
			p.schedule(func(ctx context.Context) { onRejected(ctx, value) })
		}
	default:
		if onFulfilled != nil {
			p.onFulfilled = append(p.onFulfilled, onFulfilled)
		}
		if onRejected != nil {
			p.onRejected = append(p.onRejected, onRejected)
		}
	}
}

// reaction wires a script callback into a derived promise's settlement.
func (p *Promise) reaction(derived *Promise, fn Object, settleOnNil func(Object)) func(ctx context.Context, value Object) {
	return func(ctx context.Context, value Object) {
		if !Callable(fn) {
			settleOnNil(value)
			return
		}
		result, err := p.callFn(ctx, fn, Undefined, []Object{value})
		if err != nil {
			derived.Reject(errorValue(err))
			return
		}
		derived.Resolve(result)
	}
}

func errorValue(err error) Object {
	exc := ExceptionFromError(err)
	if target := exc.Target(); target != nil {
		return target
	}
	return exc
}

// Then registers fulfillment/rejection handlers and returns the derived
// promise, implementing the script-visible `then`.
func (p *Promise) Then(onFulfilled, onRejected Object) *Promise {
	derived := NewPromise(p.schedule, p.callFn)
	p.OnSettled(
		p.reaction(derived, onFulfilled, func(v Object) { derived.Resolve(v) }),
		p.reaction(derived, onRejected, func(v Object) { derived.Reject(v) }),
	)
	return derived
}

// Finally registers a handler run on settlement either way, passing the
// original settlement through to the derived promise.
func (p *Promise) Finally(fn Object) *Promise {
	derived := NewPromise(p.schedule, p.callFn)
	p.onFinallyOrNow(func(ctx context.Context) {
		if Callable(fn) {
			if _, err := p.callFn(ctx, fn, Undefined, nil); err != nil {
				derived.Reject(errorValue(err))
				return
			}
		}
		if p.status == PromiseFulfilled {
			derived.Resolve(p.value)
		} else {
			derived.Reject(p.value)
		}
	})
	return derived
}

func (p *Promise) onFinallyOrNow(cb func(ctx context.Context)) {
	if p.status != PromisePending {
		p.schedule(cb)
		return
	}
	p.onFinally = append(p.onFinally, cb)
}

func (p *Promise) Inspect() string {
	if p.status == PromisePending {
		return "[promise pending]"
	}
	return "[promise " + p.status.String() + ": " + p.value.Inspect() + "]"
}

func (p *Promise) String() string { return p.Inspect() }

func (p *Promise) Interface() interface{} { return nil }

func (p *Promise) Equals(other Object) bool { return other == p }

func (p *Promise) GetAttr(name string) (Object, bool) {
	switch name {
	case "then":
		return NewBuiltin("then", func(ctx context.Context, this Object, args ...Object) Object {
			var onFulfilled, onRejected Object
			if len(args) > 0 {
				onFulfilled = args[0]
			}
			if len(args) > 1 {
				onRejected = args[1]
			}
			return p.Then(onFulfilled, onRejected)
		}), true
	case "catch":
		return NewBuiltin("catch", func(ctx context.Context, this Object, args ...Object) Object {
			var onRejected Object
			if len(args) > 0 {
				onRejected = args[0]
			}
			return p.Then(nil, onRejected)
		}), true
	case "finally":
		return NewBuiltin("finally", func(ctx context.Context, this Object, args ...Object) Object {
			var fn Object
			if len(args) > 0 {
				fn = args[0]
			}
			return p.Finally(fn)
		}), true
	}
	return nil, false
}

func (p *Promise) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for promise", opType)
}
