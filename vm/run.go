package vm

import (
	"context"

	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/object"
)

// Run the given code in a new Virtual Machine and return the result of
// its final expression.
func Run(ctx context.Context, main *bytecode.Code, options ...Option) (object.Object, error) {
	machine, err := New(main, options...)
	if err != nil {
		return nil, err
	}
	if err := machine.Run(ctx); err != nil {
		return nil, err
	}
	if result, exists := machine.TOS(); exists {
		return result, nil
	}
	return object.Undefined, nil
}
