// Package bytecode provides immutable representations of compiled
// ECMAScript code: the output of the compiler and the input to the VM.
//
// This package defines pure data structures that represent compiled
// bytecode, function templates, and class templates. These types are
// created once during compilation and are safe to share across multiple
// goroutines and VM instances, so the same compiled Code can back many
// concurrent executions (e.g. a request-scoped VM pool).
//
// # Key Types
//
//   - [Code]: An immutable compiled code block (module, function body, or
//     class method body)
//   - [Function]: An immutable function template: parameters, defaults,
//     rest parameter, generator/async flags, and a Code reference
//   - [Class]: An immutable class template: a constructor Function, its
//     instance/static method and accessor tables, and a parent-class slot
//     for `extends`
//   - [ExceptionHandler]: Describes a try/catch/finally block (value type)
//   - [SourceLocation]: Maps bytecode to source positions (value type)
//
// # Immutability Guarantees
//
// All types in this package are immutable after construction:
//
//   - No mutation methods exist on any type
//   - All fields are unexported
//   - Constructors copy input slices to prevent caller mutation
//   - Accessors return values or immutable pointers, never mutable slices
//
// Index-based access is used for all collections:
//
//	// Correct: index-based access
//	code.InstructionAt(0)
//	code.ConstantAt(i)
//	code.ChildAt(j)
//
//	// NOT provided: methods that return slices
//	// code.Instructions() - does not exist
//
// # Package Dependencies
//
// This package depends only on the op package, to avoid a circular
// dependency with the object package. Constants are stored as []any and
// converted to object.Object by the VM at load time.
//
// The compiler builds up a mutable compiler.Code tree as it walks the AST,
// then converts it to an immutable bytecode.Code tree in one pass once a
// function body is fully compiled. That separation keeps the mutable
// bookkeeping the compiler needs (backpatchable jump targets, an in-progress
// exception-handler stack) out of the type the VM executes.
package bytecode
