package builtins

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/op"
)

// REGEXP is the host-level regular expression kind. Regex literals
// compile to a RegExp construction, so the core engine carries no regex
// machinery of its own.
const REGEXP object.Type = "regexp"

// Regexp wraps a compiled Go regexp along with the source pattern and
// flags it was constructed from.
type Regexp struct {
	value  *regexp.Regexp
	source string
	flags  string
	global bool
}

func (r *Regexp) Type() object.Type {
	return REGEXP
}

func (r *Regexp) Inspect() string {
	return "/" + r.source + "/" + r.flags
}

func (r *Regexp) String() string {
	return r.Inspect()
}

func (r *Regexp) Interface() interface{} {
	return r.value
}

func (r *Regexp) Equals(other object.Object) bool {
	o, ok := other.(*Regexp)
	return ok && o == r
}

func (r *Regexp) IsTruthy() bool {
	return true
}

func (r *Regexp) RunOperation(opType op.BinaryOpType, right object.Object) (object.Object, error) {
	return nil, object.TypeErrorf("unsupported operation %s for regexp", opType)
}

func (r *Regexp) SetAttr(name string, value object.Object) error {
	return object.TypeErrorf("cannot set property %q on regexp", name).AsError()
}

func (r *Regexp) GetAttr(name string) (object.Object, bool) {
	switch name {
	case "source":
		return object.NewString(r.source), true
	case "flags":
		return object.NewString(r.flags), true
	case "global":
		return object.NewBool(r.global), true
	case "test":
		return object.NewBuiltin("test", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
			if len(args) == 0 {
				return object.False
			}
			return object.NewBool(r.value.MatchString(object.ToStringValue(args[0])))
		}), true
	case "exec":
		return object.NewBuiltin("exec", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
			if len(args) == 0 {
				return object.Null
			}
			input := object.ToStringValue(args[0])
			match := r.value.FindStringSubmatchIndex(input)
			if match == nil {
				return object.Null
			}
			groups := r.value.FindStringSubmatch(input)
			items := make([]object.Object, len(groups))
			for i, g := range groups {
				items[i] = object.NewString(g)
			}
			result := object.NewList(items)
			result.SetAttr("index", object.NewNumber(float64(len([]rune(input[:match[0]]))))) //nolint:errcheck
			result.SetAttr("input", object.NewString(input))                                  //nolint:errcheck
			return result
		}), true
	}
	return nil, false
}

// RegExpConstructor builds the RegExp host constructor. JS regex syntax
// is translated to Go's RE2 on a best-effort basis; unsupported
// constructs (backreferences, lookaround) produce a SyntaxError.
func RegExpConstructor() *object.Builtin {
	return object.NewBuiltin("RegExp", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.SyntaxErrorf("RegExp requires a pattern")
		}
		if re, ok := args[0].(*Regexp); ok {
			return re
		}
		pattern := object.ToStringValue(args[0])
		flags := ""
		if len(args) > 1 {
			if _, undef := args[1].(*object.UndefinedType); !undef {
				flags = object.ToStringValue(args[1])
			}
		}
		goPattern := pattern
		var prefix string
		if strings.ContainsRune(flags, 'i') {
			prefix += "i"
		}
		if strings.ContainsRune(flags, 's') {
			prefix += "s"
		}
		if strings.ContainsRune(flags, 'm') {
			prefix += "m"
		}
		if prefix != "" {
			goPattern = fmt.Sprintf("(?%s)%s", prefix, goPattern)
		}
		compiled, err := regexp.Compile(goPattern)
		if err != nil {
			return object.SyntaxErrorf("invalid regular expression /%s/%s: %s", pattern, flags, err)
		}
		return &Regexp{
			value:  compiled,
			source: pattern,
			flags:  flags,
			global: strings.ContainsRune(flags, 'g'),
		}
	})
}
