package juniper

import (
	"context"

	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/vm"
)

// Program is the compiled representation of a source file: the bytecode
// tree plus the configuration it was compiled against. It is immutable
// after creation; each Run executes on a fresh VM.
type Program struct {
	code     *bytecode.Code
	source   string
	filename string
	cfg      *config
}

// Source returns the original source code that was compiled.
func (p *Program) Source() string {
	return p.source
}

// Filename returns the filename associated with this program, if any.
func (p *Program) Filename() string {
	return p.filename
}

// Code returns the compiled bytecode.
func (p *Program) Code() *bytecode.Code {
	return p.code
}

// GlobalNames returns the names of all global variables the program
// declares or consumes.
func (p *Program) GlobalNames() []string {
	return p.code.GlobalNames()
}

// Stats returns bytecode statistics, useful for auditing a script before
// execution.
func (p *Program) Stats() bytecode.Stats {
	return p.code.Stats()
}

// Run executes the program on a fresh VM and returns the value of its
// final expression.
func (p *Program) Run(ctx context.Context, opts ...Option) (object.Object, error) {
	cfg := p.cfg
	if len(opts) > 0 {
		merged := *p.cfg
		extra := newConfig(opts)
		combined := map[string]any{}
		for k, v := range p.cfg.globals {
			combined[k] = v
		}
		for k, v := range extra.globals {
			combined[k] = v
		}
		merged.globals = combined
		if extra.observer != nil {
			merged.observer = extra.observer
		}
		if extra.moduleResolver != nil {
			merged.moduleResolver = extra.moduleResolver
		}
		cfg = &merged
	}
	return vm.Run(ctx, p.code, cfg.vmOpts(cfg.allGlobals())...)
}
