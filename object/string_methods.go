package object

import (
	"context"
	"strings"
)

// stringMethod returns the built-in string method with the given name,
// bound to s. Indexing methods work in UTF-16 code-unit terms to match
// the surface language.
func (s *String) stringMethod(name string) (Object, bool) {
	switch name {
	case "charAt":
		return NewBuiltin("charAt", func(ctx context.Context, this Object, args ...Object) Object {
			idx := 0
			if len(args) > 0 {
				if n, ok := args[0].(*Number); ok {
					idx = int(n.Value())
				}
			}
			return NewString(s.CharAt(idx))
		}), true
	case "charCodeAt":
		return NewBuiltin("charCodeAt", func(ctx context.Context, this Object, args ...Object) Object {
			idx := 0
			if len(args) > 0 {
				if n, ok := args[0].(*Number); ok {
					idx = int(n.Value())
				}
			}
			units := s.codeUnits()
			if idx < 0 || idx >= len(units) {
				return NewNaN()
			}
			return NewNumber(float64(units[idx]))
		}), true
	case "indexOf":
		return NewBuiltin("indexOf", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) == 0 {
				return NewNumber(-1)
			}
			return NewNumber(float64(strings.Index(s.value, ToStringValue(args[0]))))
		}), true
	case "includes":
		return NewBuiltin("includes", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) == 0 {
				return False
			}
			return NewBool(strings.Contains(s.value, ToStringValue(args[0])))
		}), true
	case "startsWith":
		return NewBuiltin("startsWith", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) == 0 {
				return False
			}
			return NewBool(strings.HasPrefix(s.value, ToStringValue(args[0])))
		}), true
	case "endsWith":
		return NewBuiltin("endsWith", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) == 0 {
				return False
			}
			return NewBool(strings.HasSuffix(s.value, ToStringValue(args[0])))
		}), true
	case "slice", "substring":
		return NewBuiltin(name, func(ctx context.Context, this Object, args ...Object) Object {
			units := s.codeUnits()
			start, end := sliceBounds(len(units), args)
			return NewString(utf16Decode(units[start:end]))
		}), true
	case "toUpperCase":
		return NewBuiltin("toUpperCase", func(ctx context.Context, this Object, args ...Object) Object {
			return NewString(strings.ToUpper(s.value))
		}), true
	case "toLowerCase":
		return NewBuiltin("toLowerCase", func(ctx context.Context, this Object, args ...Object) Object {
			return NewString(strings.ToLower(s.value))
		}), true
	case "trim":
		return NewBuiltin("trim", func(ctx context.Context, this Object, args ...Object) Object {
			return NewString(strings.TrimSpace(s.value))
		}), true
	case "split":
		return NewBuiltin("split", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) == 0 {
				return NewList([]Object{s})
			}
			parts := strings.Split(s.value, ToStringValue(args[0]))
			items := make([]Object, len(parts))
			for i, part := range parts {
				items[i] = NewString(part)
			}
			return NewList(items)
		}), true
	case "repeat":
		return NewBuiltin("repeat", func(ctx context.Context, this Object, args ...Object) Object {
			count := 0
			if len(args) > 0 {
				if n, ok := args[0].(*Number); ok {
					count = int(n.Value())
				}
			}
			if count < 0 {
				return RangeErrorf("invalid count value: %d", count)
			}
			return NewString(strings.Repeat(s.value, count))
		}), true
	case "replace":
		return NewBuiltin("replace", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) < 2 {
				return s
			}
			return NewString(strings.Replace(s.value, ToStringValue(args[0]), ToStringValue(args[1]), 1))
		}), true
	case "replaceAll":
		return NewBuiltin("replaceAll", func(ctx context.Context, this Object, args ...Object) Object {
			if len(args) < 2 {
				return s
			}
			return NewString(strings.ReplaceAll(s.value, ToStringValue(args[0]), ToStringValue(args[1])))
		}), true
	case "padStart":
		return NewBuiltin("padStart", func(ctx context.Context, this Object, args ...Object) Object {
			return s.pad(args, true)
		}), true
	case "padEnd":
		return NewBuiltin("padEnd", func(ctx context.Context, this Object, args ...Object) Object {
			return s.pad(args, false)
		}), true
	case "toString":
		return NewBuiltin("toString", func(ctx context.Context, this Object, args ...Object) Object {
			return s
		}), true
	}
	return nil, false
}

func (s *String) pad(args []Object, atStart bool) Object {
	target := 0
	if len(args) > 0 {
		if n, ok := args[0].(*Number); ok {
			target = int(n.Value())
		}
	}
	fill := " "
	if len(args) > 1 {
		fill = ToStringValue(args[1])
	}
	length := s.Length()
	if target <= length || fill == "" {
		return s
	}
	var pad strings.Builder
	for pad.Len() < target-length {
		pad.WriteString(fill)
	}
	padding := pad.String()[:target-length]
	if atStart {
		return NewString(padding + s.value)
	}
	return NewString(s.value + padding)
}
