package object

import (
	"context"
	"sort"
	"strings"
)

// listMethod returns the built-in array method with the given name, bound
// to l. Callback-taking methods reach back into the VM through the
// call hook carried on the context.
func (l *List) listMethod(name string) (Object, bool) {
	switch name {
	case "push":
		return NewBuiltin("push", func(ctx context.Context, this Object, args ...Object) Object {
			for _, arg := range args {
				l.Append(arg)
			}
			return NewNumber(float64(l.Len()))
		}), true
	case "pop":
		return NewBuiltin("pop", func(ctx context.Context, this Object, args ...Object) Object {
			if l.Len() == 0 {
				return Undefined
			}
			last := l.items[l.Len()-1]
			l.items = l.items[:l.Len()-1]
			return last
		}), true
	case "shift":
		return NewBuiltin("shift", func(ctx context.Context, this Object, args ...Object) Object {
			if l.Len() == 0 {
				return Undefined
			}
			first := l.items[0]
			l.items = l.items[1:]
			return first
		}), true
	case "unshift":
		return NewBuiltin("unshift", func(ctx context.Context, this Object, args ...Object) Object {
			l.items = append(append([]Object{}, args...), l.items...)
			return NewNumber(float64(l.Len()))
		}), true
	case "join":
		return NewBuiltin("join", func(ctx context.Context, this Object, args ...Object) Object {
			sep := ","
			if len(args) > 0 {
				sep = ToStringValue(args[0])
			}
			parts := make([]string, l.Len())
			for i, item := range l.items {
				if item == nil || IsNullish(item) {
					continue
				}
				parts[i] = ToStringValue(item)
			}
			return NewString(strings.Join(parts, sep))
		}), true
	case "indexOf":
		return NewBuiltin("indexOf", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) == 0 {
				return NewNumber(-1)
			}
			for i, item := range l.items {
				if item != nil && StrictEquals(item, args[0]) {
					return NewNumber(float64(i))
				}
			}
			return NewNumber(-1)
		}), true
	case "includes":
		return NewBuiltin("includes", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) == 0 {
				return False
			}
			for _, item := range l.items {
				if item != nil && StrictEquals(item, args[0]) {
					return True
				}
			}
			return False
		}), true
	case "slice":
		return NewBuiltin("slice", func(ctx context.Context, this Object, args ...Object) Object {
			start, end := sliceBounds(l.Len(), args)
			out := make([]Object, 0, end-start)
			for i := start; i < end; i++ {
				out = append(out, l.GetIndex(i))
			}
			return NewList(out)
		}), true
	case "concat":
		return NewBuiltin("concat", func(ctx context.Context, this Object, args ...Object) Object {
			out := append([]Object{}, l.items...)
			for _, arg := range args {
				if other, ok := arg.(*List); ok {
					out = append(out, other.items...)
				} else {
					out = append(out, arg)
				}
			}
			return NewList(out)
		}), true
	case "reverse":
		return NewBuiltin("reverse", func(ctx context.Context, this Object, args ...Object) Object {
			for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
				l.items[i], l.items[j] = l.items[j], l.items[i]
			}
			return l
		}), true
	case "sort":
		return NewBuiltin("sort", func(ctx context.Context, this Object, args ...Object) Object {
			callFn, _ := GetCallFunc(ctx)
			var sortErr Object
			sort.SliceStable(l.items, func(i, j int) bool {
				a, b := l.GetIndex(i), l.GetIndex(j)
				if len(args) > 0 && callFn != nil && Callable(args[0]) {
					result, err := callFn(ctx, args[0], Undefined, []Object{a, b})
					if err != nil {
						sortErr = ExceptionFromError(err)
						return false
					}
					n, ok := result.(*Number)
					return ok && n.Value() < 0
				}
				return ToStringValue(a) < ToStringValue(b)
			})
			if sortErr != nil {
				return sortErr
			}
			return l
		}), true
	case "map":
		return l.callbackMethod("map", func(ctx context.Context, callFn CallFunc, cb Object) Object {
			out := make([]Object, l.Len())
			for i, item := range l.items {
				result, err := callFn(ctx, cb, Undefined, []Object{orUndefined(item), NewNumber(float64(i)), l})
				if err != nil {
					return ExceptionFromError(err)
				}
				out[i] = result
			}
			return NewList(out)
		}), true
	case "filter":
		return l.callbackMethod("filter", func(ctx context.Context, callFn CallFunc, cb Object) Object {
			var out []Object
			for i, item := range l.items {
				result, err := callFn(ctx, cb, Undefined, []Object{orUndefined(item), NewNumber(float64(i)), l})
				if err != nil {
					return ExceptionFromError(err)
				}
				if result.IsTruthy() {
					out = append(out, orUndefined(item))
				}
			}
			return NewList(out)
		}), true
	case "forEach":
		return l.callbackMethod("forEach", func(ctx context.Context, callFn CallFunc, cb Object) Object {
			for i, item := range l.items {
				if _, err := callFn(ctx, cb, Undefined, []Object{orUndefined(item), NewNumber(float64(i)), l}); err != nil {
					return ExceptionFromError(err)
				}
			}
			return Undefined
		}), true
	case "find":
		return l.callbackMethod("find", func(ctx context.Context, callFn CallFunc, cb Object) Object {
			for i, item := range l.items {
				result, err := callFn(ctx, cb, Undefined, []Object{orUndefined(item), NewNumber(float64(i)), l})
				if err != nil {
					return ExceptionFromError(err)
				}
				if result.IsTruthy() {
					return orUndefined(item)
				}
			}
			return Undefined
		}), true
	case "some":
		return l.callbackMethod("some", func(ctx context.Context, callFn CallFunc, cb Object) Object {
			for i, item := range l.items {
				result, err := callFn(ctx, cb, Undefined, []Object{orUndefined(item), NewNumber(float64(i)), l})
				if err != nil {
					return ExceptionFromError(err)
				}
				if result.IsTruthy() {
					return True
				}
			}
			return False
		}), true
	case "every":
		return l.callbackMethod("every", func(ctx context.Context, callFn CallFunc, cb Object) Object {
			for i, item := range l.items {
				result, err := callFn(ctx, cb, Undefined, []Object{orUndefined(item), NewNumber(float64(i)), l})
				if err != nil {
					return ExceptionFromError(err)
				}
				if !result.IsTruthy() {
					return False
				}
			}
			return True
		}), true
	case "reduce":
		return NewBuiltin("reduce", func(ctx context.Context, this Object, args ...Object) Object {
			callFn, ok := GetCallFunc(ctx)
			if !ok || len(args) == 0 || !Callable(args[0]) {
				return TypeErrorf("reduce requires a callback function")
			}
			start := 0
			var acc Object
			if len(args) > 1 {
				acc = args[1]
			} else {
				if l.Len() == 0 {
					return TypeErrorf("reduce of empty array with no initial value")
				}
				acc = l.GetIndex(0)
				start = 1
			}
			for i := start; i < l.Len(); i++ {
				result, err := callFn(ctx, args[0], Undefined, []Object{acc, l.GetIndex(i), NewNumber(float64(i)), l})
				if err != nil {
					return ExceptionFromError(err)
				}
				acc = result
			}
			return acc
		}), true
	}
	return nil, false
}

// callbackMethod builds a one-callback array method with shared argument
// checking.
func (l *List) callbackMethod(name string, run func(ctx context.Context, callFn CallFunc, cb Object) Object) *Builtin {
	return NewBuiltin(name, func(ctx context.Context, this Object, args ...Object) Object {
		callFn, ok := GetCallFunc(ctx)
		if !ok || len(args) == 0 || !Callable(args[0]) {
			return TypeErrorf("%s requires a callback function", name)
		}
		return run(ctx, callFn, args[0])
	})
}

func orUndefined(obj Object) Object {
	if obj == nil {
		return Undefined
	}
	return obj
}

// sliceBounds clamps optional start/end arguments to the collection
// length, handling negative offsets.
func sliceBounds(length int, args []Object) (int, int) {
	start, end := 0, length
	resolve := func(arg Object, def int) int {
		n, ok := arg.(*Number)
		if !ok {
			return def
		}
		i := int(n.Value())
		if i < 0 {
			i += length
		}
		if i < 0 {
			i = 0
		}
		if i > length {
			i = length
		}
		return i
	}
	if len(args) > 0 {
		start = resolve(args[0], 0)
	}
	if len(args) > 1 {
		end = resolve(args[1], length)
	}
	if end < start {
		end = start
	}
	return start, end
}
