package vm

import "github.com/rs/zerolog"

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine)

// WithGlobals provides host global variables with the given names. Values
// are converted to engine entities with object.FromGoValue.
func WithGlobals(globals map[string]any) Option {
	return func(vm *VirtualMachine) {
		for name, value := range globals {
			vm.inputGlobals[name] = value
		}
	}
}

// WithContextCheckInterval sets how often the VM checks ctx.Done() during
// execution, in instructions. A value of 0 disables deterministic
// checking, relying only on the background goroutine that monitors the
// context. The default is DefaultContextCheckInterval (1000).
func WithContextCheckInterval(interval int) Option {
	return func(vm *VirtualMachine) {
		vm.contextCheckInterval = interval
	}
}

// WithObserver sets an observer for VM execution events: instruction
// steps, function calls, and returns. Returning false from any observer
// method halts execution immediately.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}

// WithLogger attaches a structured logger; run start and completion trace
// at debug level. Heap sweeps do not use it: they trace through the global
// zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VirtualMachine) {
		vm.logger = logger
	}
}

// WithModuleResolver installs the host hook RESOLVE_MODULE calls to load
// an imported module. Without one, import statements fail at run time.
func WithModuleResolver(resolver ModuleResolver) Option {
	return func(vm *VirtualMachine) {
		vm.moduleResolver = resolver
	}
}
