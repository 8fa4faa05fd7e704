// Package builtins installs the host-level global bindings: `console`,
// the value-conversion functions, the error constructors, and the
// `Object`/`Array`/`JSON`/`Symbol`/`Math`/`Promise`/`RegExp` namespaces.
// Each binding is a thin installer of properties on the root scope; none
// of them is part of the engine core.
package builtins

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/juniper-lang/juniper/object"
)

// Defaults returns the default global bindings, writing console output to
// standard out/err.
func Defaults() map[string]any {
	return WithOutput(os.Stdout, os.Stderr)
}

// WithOutput returns the default global bindings with console output
// redirected, which test code uses to capture logs.
func WithOutput(stdout, stderr io.Writer) map[string]any {
	return map[string]any{
		"console":        Console(stdout, stderr),
		"Math":           Math(),
		"JSON":           JSON(),
		"Object":         ObjectNamespace(),
		"Array":          ArrayNamespace(),
		"Symbol":         SymbolNamespace(),
		"Promise":        PromiseNamespace(),
		"RegExp":         RegExpConstructor(),
		"Error":          ErrorConstructor("Error"),
		"TypeError":      ErrorConstructor("TypeError"),
		"RangeError":     ErrorConstructor("RangeError"),
		"SyntaxError":    ErrorConstructor("SyntaxError"),
		"ReferenceError": ErrorConstructor("ReferenceError"),
		"URIError":       ErrorConstructor("URIError"),
		"AggregateError": ErrorConstructor("AggregateError"),
		"String":         object.NewBuiltin("String", toStringBuiltin),
		"Number":         object.NewBuiltin("Number", toNumberBuiltin),
		"Boolean":        object.NewBuiltin("Boolean", toBooleanBuiltin),
		"BigInt":         object.NewBuiltin("BigInt", toBigIntBuiltin),
		"parseInt":       object.NewBuiltin("parseInt", parseIntBuiltin),
		"parseFloat":     object.NewBuiltin("parseFloat", parseFloatBuiltin),
		"isNaN":          object.NewBuiltin("isNaN", isNaNBuiltin),
		"isFinite":       object.NewBuiltin("isFinite", isFiniteBuiltin),
	}
}

// Console builds the console object with log/error/warn/info writing one
// space-joined line per call.
func Console(stdout, stderr io.Writer) *object.Map {
	write := func(w io.Writer) object.BuiltinFunction {
		return func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
			parts := make([]string, len(args))
			for i, arg := range args {
				if s, ok := arg.(*object.String); ok {
					parts[i] = s.Value()
				} else {
					parts[i] = arg.Inspect()
				}
			}
			fmt.Fprintln(w, strings.Join(parts, " "))
			return object.Undefined
		}
	}
	console := object.NewEmptyMap()
	console.Set("log", object.NewBuiltin("log", write(stdout)))
	console.Set("info", object.NewBuiltin("info", write(stdout)))
	console.Set("warn", object.NewBuiltin("warn", write(stderr)))
	console.Set("error", object.NewBuiltin("error", write(stderr)))
	return console
}

// ErrorConstructor builds one of the error-hierarchy constructors. The
// produced value is a plain object carrying name/message/stack, which the
// VM wraps into an exception entity when thrown.
func ErrorConstructor(name string) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		message := ""
		if len(args) > 0 {
			message = object.ToStringValue(args[0])
		}
		errObj := object.NewEmptyMap()
		errObj.Set("name", object.NewString(name))
		errObj.Set("message", object.NewString(message))
		errObj.Set("stack", object.NewString(name+": "+message))
		if name == "AggregateError" && len(args) > 1 {
			errObj.Set("errors", args[0])
			errObj.Set("message", object.NewString(object.ToStringValue(args[1])))
		}
		return errObj
	})
}

// ObjectNamespace builds the Object global: keys/values/entries/assign
// and the extensibility controls.
func ObjectNamespace() *object.Map {
	ns := object.NewEmptyMap()
	ns.Set("keys", object.NewBuiltin("keys", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		m, ok := firstMapArg(args)
		if !ok {
			return object.NewList(nil)
		}
		keys := m.EnumerableKeys()
		items := make([]object.Object, len(keys))
		for i, k := range keys {
			items[i] = object.NewString(k)
		}
		return object.NewList(items)
	}))
	ns.Set("values", object.NewBuiltin("values", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		m, ok := firstMapArg(args)
		if !ok {
			return object.NewList(nil)
		}
		var items []object.Object
		for _, k := range m.EnumerableKeys() {
			v, _ := m.Get(k)
			items = append(items, v)
		}
		return object.NewList(items)
	}))
	ns.Set("entries", object.NewBuiltin("entries", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		m, ok := firstMapArg(args)
		if !ok {
			return object.NewList(nil)
		}
		var items []object.Object
		for _, k := range m.EnumerableKeys() {
			v, _ := m.Get(k)
			items = append(items, object.NewList([]object.Object{object.NewString(k), v}))
		}
		return object.NewList(items)
	}))
	ns.Set("assign", object.NewBuiltin("assign", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.TypeErrorf("Object.assign requires a target")
		}
		target, ok := args[0].(*object.Map)
		if !ok {
			return object.TypeErrorf("Object.assign target is not an object")
		}
		for _, src := range args[1:] {
			if srcMap, ok := src.(*object.Map); ok {
				if err := target.Merge(srcMap); err != nil {
					return object.ExceptionFromError(err)
				}
			}
		}
		return target
	}))
	ns.Set("freeze", object.NewBuiltin("freeze", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if m, ok := firstMapArg(args); ok {
			m.Freeze()
			return m
		}
		if len(args) > 0 {
			return args[0]
		}
		return object.Undefined
	}))
	ns.Set("isFrozen", object.NewBuiltin("isFrozen", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if m, ok := firstMapArg(args); ok {
			return object.NewBool(m.IsFrozen())
		}
		return object.True
	}))
	ns.Set("seal", object.NewBuiltin("seal", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if m, ok := firstMapArg(args); ok {
			m.Seal()
			return m
		}
		if len(args) > 0 {
			return args[0]
		}
		return object.Undefined
	}))
	ns.Set("isSealed", object.NewBuiltin("isSealed", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if m, ok := firstMapArg(args); ok {
			return object.NewBool(m.IsSealed())
		}
		return object.True
	}))
	ns.Set("preventExtensions", object.NewBuiltin("preventExtensions", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if m, ok := firstMapArg(args); ok {
			m.PreventExtensions()
			return m
		}
		if len(args) > 0 {
			return args[0]
		}
		return object.Undefined
	}))
	ns.Set("isExtensible", object.NewBuiltin("isExtensible", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if m, ok := firstMapArg(args); ok {
			return object.NewBool(m.IsExtensible())
		}
		return object.False
	}))
	ns.Set("getPrototypeOf", object.NewBuiltin("getPrototypeOf", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if m, ok := firstMapArg(args); ok {
			if proto := m.Proto(); proto != nil {
				return proto
			}
		}
		return object.Null
	}))
	return ns
}

func firstMapArg(args []object.Object) (*object.Map, bool) {
	if len(args) == 0 {
		return nil, false
	}
	m, ok := args[0].(*object.Map)
	return m, ok
}

// ArrayNamespace builds the Array global.
func ArrayNamespace() *object.Map {
	ns := object.NewEmptyMap()
	ns.Set("isArray", object.NewBuiltin("isArray", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.False
		}
		_, ok := args[0].(*object.List)
		return object.NewBool(ok)
	}))
	ns.Set("of", object.NewBuiltin("of", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		return object.NewList(append([]object.Object{}, args...))
	}))
	ns.Set("from", object.NewBuiltin("from", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.NewList(nil)
		}
		iterable, ok := args[0].(object.Iterable)
		if !ok {
			return object.TypeErrorf("%s is not iterable", args[0].Type())
		}
		iter := iterable.Iter()
		var items []object.Object
		for {
			item, ok := iter.Next(ctx)
			if !ok {
				break
			}
			items = append(items, item)
		}
		return object.NewList(items)
	}))
	return ns
}

// SymbolNamespace builds the Symbol global: a factory for fresh symbols
// plus the well-known symbols.
func SymbolNamespace() *object.Map {
	ns := object.NewEmptyMap()
	ns.Set("iterator", object.SymbolIterator)
	ns.Set("asyncIterator", object.SymbolAsyncIterator)
	ns.Set("for", object.NewBuiltin("for", symbolFor()))
	ns.Set("make", object.NewBuiltin("make", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		desc := ""
		if len(args) > 0 {
			desc = object.ToStringValue(args[0])
		}
		return object.NewSymbol(desc)
	}))
	return ns
}

// symbolFor maintains the global symbol registry.
func symbolFor() object.BuiltinFunction {
	registry := map[string]*object.Symbol{}
	return func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		key := ""
		if len(args) > 0 {
			key = object.ToStringValue(args[0])
		}
		if sym, ok := registry[key]; ok {
			return sym
		}
		sym := object.NewSymbol(key)
		registry[key] = sym
		return sym
	}
}

// PromiseNamespace builds the Promise global. Reactions schedule through
// the scheduler hook on the context, so promises created here settle in
// the VM's microtask order.
func PromiseNamespace() *object.Map {
	ns := object.NewEmptyMap()
	ns.Set("resolve", object.NewBuiltin("resolve", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		var value object.Object = object.Undefined
		if len(args) > 0 {
			value = args[0]
		}
		callFn, _ := object.GetCallFunc(ctx)
		return object.NewResolvedPromise(contextScheduler(ctx), callFn, value)
	}))
	ns.Set("reject", object.NewBuiltin("reject", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		var value object.Object = object.Undefined
		if len(args) > 0 {
			value = args[0]
		}
		callFn, _ := object.GetCallFunc(ctx)
		return object.NewRejectedPromise(contextScheduler(ctx), callFn, value)
	}))
	return ns
}

// contextScheduler returns the VM's microtask enqueuer, falling back to
// running reactions inline when no VM is attached to the context.
func contextScheduler(ctx context.Context) object.Scheduler {
	if schedule, ok := object.GetScheduler(ctx); ok {
		return schedule
	}
	return func(task func(ctx context.Context)) {
		task(ctx)
	}
}

func toStringBuiltin(ctx context.Context, this object.Object, args ...object.Object) object.Object {
	if len(args) == 0 {
		return object.NewString("")
	}
	if sym, ok := args[0].(*object.Symbol); ok {
		return object.NewString(sym.Inspect())
	}
	return object.NewString(object.ToStringValue(args[0]))
}

func toNumberBuiltin(ctx context.Context, this object.Object, args ...object.Object) object.Object {
	if len(args) == 0 {
		return object.NewNumber(0)
	}
	f, err := object.ToNumberValue(args[0])
	if err != nil {
		return object.ExceptionFromError(err)
	}
	return object.NewNumber(f)
}

func toBooleanBuiltin(ctx context.Context, this object.Object, args ...object.Object) object.Object {
	if len(args) == 0 {
		return object.False
	}
	return object.NewBool(args[0].IsTruthy())
}

func toBigIntBuiltin(ctx context.Context, this object.Object, args ...object.Object) object.Object {
	if len(args) == 0 {
		return object.TypeErrorf("cannot convert undefined to a bigint")
	}
	switch arg := args[0].(type) {
	case *object.BigInt:
		return arg
	case *object.Number:
		f := arg.Value()
		if f != math.Trunc(f) || math.IsNaN(f) || math.IsInf(f, 0) {
			return object.RangeErrorf("cannot convert %s to a bigint", arg.Inspect())
		}
		i, _ := big.NewFloat(f).Int(nil)
		return object.NewBigInt(i)
	case *object.String:
		i, ok := new(big.Int).SetString(strings.TrimSpace(arg.Value()), 10)
		if !ok {
			return object.SyntaxErrorf("cannot convert %q to a bigint", arg.Value())
		}
		return object.NewBigInt(i)
	case *object.Bool:
		if arg.Value() {
			return object.NewBigIntFromInt64(1)
		}
		return object.NewBigIntFromInt64(0)
	default:
		return object.TypeErrorf("cannot convert a %s to a bigint", args[0].Type())
	}
}

func parseIntBuiltin(ctx context.Context, this object.Object, args ...object.Object) object.Object {
	if len(args) == 0 {
		return object.NewNaN()
	}
	s := strings.TrimSpace(object.ToStringValue(args[0]))
	base := 10
	if len(args) > 1 {
		if n, ok := args[1].(*object.Number); ok && n.Value() != 0 {
			base = int(n.Value())
		}
	}
	// Consume the longest valid prefix, the way parseInt does.
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) {
		if _, err := strconv.ParseInt(s[:end+1], base, 64); err != nil {
			break
		}
		end++
	}
	v, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return object.NewNaN()
	}
	return object.NewNumber(float64(v))
}

func parseFloatBuiltin(ctx context.Context, this object.Object, args ...object.Object) object.Object {
	if len(args) == 0 {
		return object.NewNaN()
	}
	s := strings.TrimSpace(object.ToStringValue(args[0]))
	end := len(s)
	for end > 0 {
		if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
			break
		}
		end--
	}
	if end == 0 {
		return object.NewNaN()
	}
	f, _ := strconv.ParseFloat(s[:end], 64)
	return object.NewNumber(f)
}

func isNaNBuiltin(ctx context.Context, this object.Object, args ...object.Object) object.Object {
	if len(args) == 0 {
		return object.True
	}
	f, err := object.ToNumberValue(args[0])
	if err != nil {
		return object.ExceptionFromError(err)
	}
	return object.NewBool(math.IsNaN(f))
}

func isFiniteBuiltin(ctx context.Context, this object.Object, args ...object.Object) object.Object {
	if len(args) == 0 {
		return object.False
	}
	f, err := object.ToNumberValue(args[0])
	if err != nil {
		return object.ExceptionFromError(err)
	}
	return object.NewBool(!math.IsNaN(f) && !math.IsInf(f, 0))
}
