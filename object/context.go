package object

import "context"

// CallFunc invokes a callable script value with an explicit `this` and
// argument list. The VM installs its implementation into the context so
// host code (builtins, promise reactions) can call back into bytecode
// without the object package importing the vm package.
type CallFunc func(ctx context.Context, fn Object, this Object, args []Object) (Object, error)

type contextKey string

const (
	callFuncKey  = contextKey("juniper:call")
	schedulerKey = contextKey("juniper:scheduler")
)

// WithCallFunc returns a context carrying a function-call hook.
func WithCallFunc(ctx context.Context, fn CallFunc) context.Context {
	return context.WithValue(ctx, callFuncKey, fn)
}

// GetCallFunc returns the function-call hook stored on the context.
func GetCallFunc(ctx context.Context) (CallFunc, bool) {
	fn, ok := ctx.Value(callFuncKey).(CallFunc)
	return fn, ok
}

// WithScheduler returns a context carrying the VM's microtask enqueuer,
// so host-created promises settle through the same FIFO queue as
// engine-created ones.
func WithScheduler(ctx context.Context, schedule Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey, schedule)
}

// GetScheduler returns the microtask enqueuer stored on the context.
func GetScheduler(ctx context.Context) (Scheduler, bool) {
	s, ok := ctx.Value(schedulerKey).(Scheduler)
	return s, ok
}

// Callable reports whether obj can be invoked as a function.
func Callable(obj Object) bool {
	switch obj.(type) {
	case *Function, *Builtin:
		return true
	default:
		return false
	}
}
