// Package juniper is a from-scratch ECMAScript execution engine: a lexer
// and parser producing a typed syntax tree, a bytecode compiler, and a
// stack virtual machine with closures, exceptions, generators, and
// promise-backed async functions.
//
// The simplest entrypoint evaluates source text in one call:
//
//	result, err := juniper.Eval(ctx, "1 + 2")
//
// Compile once and run many times with a Program:
//
//	program, err := juniper.Compile(ctx, source)
//	result, err := program.Run(ctx)
package juniper

import (
	"context"
	"maps"
	"slices"

	"github.com/juniper-lang/juniper/ast"
	"github.com/juniper-lang/juniper/builtins"
	"github.com/juniper-lang/juniper/compiler"
	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/parser"
	"github.com/juniper-lang/juniper/vm"
)

// Option configures an evaluation.
type Option func(*config)

type config struct {
	globals               map[string]any
	filename              string
	withoutDefaultGlobals bool
	observer              vm.Observer
	moduleResolver        vm.ModuleResolver
}

func newConfig(opts []Option) *config {
	cfg := &config{globals: map[string]any{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (cfg *config) allGlobals() map[string]any {
	combined := map[string]any{}
	if !cfg.withoutDefaultGlobals {
		maps.Copy(combined, builtins.Defaults())
	}
	maps.Copy(combined, cfg.globals)
	return combined
}

func (cfg *config) vmOpts(globals map[string]any) []vm.Option {
	opts := []vm.Option{vm.WithGlobals(globals)}
	if cfg.observer != nil {
		opts = append(opts, vm.WithObserver(cfg.observer))
	}
	if cfg.moduleResolver != nil {
		opts = append(opts, vm.WithModuleResolver(cfg.moduleResolver))
	}
	return opts
}

// WithGlobals provides host global variables to the evaluation. This
// option is additive; if the same name is supplied multiple times, the
// last value wins.
func WithGlobals(globals map[string]any) Option {
	return func(cfg *config) {
		for k, v := range globals {
			cfg.globals[k] = v
		}
	}
}

// WithGlobal supplies a single named global.
func WithGlobal(name string, value any) Option {
	return func(cfg *config) {
		cfg.globals[name] = value
	}
}

// WithoutDefaultGlobals opts out of the default host bindings (console,
// Math, JSON, the error constructors, and the rest).
func WithoutDefaultGlobals() Option {
	return func(cfg *config) {
		cfg.withoutDefaultGlobals = true
	}
}

// WithFilename sets the filename reported in error locations.
func WithFilename(filename string) Option {
	return func(cfg *config) {
		cfg.filename = filename
	}
}

// WithObserver attaches a VM execution observer.
func WithObserver(observer vm.Observer) Option {
	return func(cfg *config) {
		cfg.observer = observer
	}
}

// WithModuleResolver installs the hook that loads imported modules.
func WithModuleResolver(resolver vm.ModuleResolver) Option {
	return func(cfg *config) {
		cfg.moduleResolver = resolver
	}
}

// Parse tokenizes and parses the given source, returning the typed
// syntax tree.
func Parse(ctx context.Context, source string, opts ...Option) (*ast.Program, error) {
	cfg := newConfig(opts)
	var parserOpts []parser.Option
	if cfg.filename != "" {
		parserOpts = append(parserOpts, parser.WithFilename(cfg.filename))
	}
	return parser.Parse(ctx, source, parserOpts...)
}

// Compile parses and compiles the given source into a reusable Program.
func Compile(ctx context.Context, source string, opts ...Option) (*Program, error) {
	cfg := newConfig(opts)
	program, err := Parse(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	globals := cfg.allGlobals()
	code, err := compiler.Compile(program, &compiler.Config{
		GlobalNames: slices.Sorted(maps.Keys(globals)),
		Filename:    cfg.filename,
		Source:      source,
	})
	if err != nil {
		return nil, err
	}
	return &Program{
		code:     code,
		source:   source,
		filename: cfg.filename,
		cfg:      cfg,
	}, nil
}

// Eval parses, compiles, and runs the given source, returning the value
// of its final expression.
func Eval(ctx context.Context, source string, opts ...Option) (object.Object, error) {
	program, err := Compile(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	return program.Run(ctx)
}
