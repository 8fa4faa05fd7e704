package builtins

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/juniper-lang/juniper/object"
)

// JSON builds the JSON namespace with stringify and parse.
func JSON() *object.Map {
	ns := object.NewEmptyMap()
	ns.Set("stringify", object.NewBuiltin("stringify", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.Undefined
		}
		indent := ""
		if len(args) > 2 {
			switch spacer := args[2].(type) {
			case *object.Number:
				indent = strings.Repeat(" ", int(spacer.Value()))
			case *object.String:
				indent = spacer.Value()
			}
		}
		var sb strings.Builder
		ok := writeJSON(&sb, args[0], indent, "")
		if !ok {
			return object.Undefined
		}
		return object.NewString(sb.String())
	}))
	ns.Set("parse", object.NewBuiltin("parse", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.SyntaxErrorf("unexpected end of JSON input")
		}
		var decoded any
		if err := json.Unmarshal([]byte(object.ToStringValue(args[0])), &decoded); err != nil {
			return object.SyntaxErrorf("invalid JSON: %s", err)
		}
		return fromJSONValue(decoded)
	}))
	return ns
}

// writeJSON serializes the serializable kinds; functions, symbols, and
// undefined report false so callers can drop them the way stringify does.
func writeJSON(sb *strings.Builder, obj object.Object, indent, prefix string) bool {
	switch obj := obj.(type) {
	case *object.UndefinedType, *object.Function, *object.Builtin, *object.Symbol:
		return false
	case *object.NullType:
		sb.WriteString("null")
	case *object.Bool:
		if obj.Value() {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case *object.Number:
		if math.IsNaN(obj.Value()) || math.IsInf(obj.Value(), 0) {
			sb.WriteString("null")
		} else {
			sb.WriteString(obj.Inspect())
		}
	case *object.String:
		encoded, _ := json.Marshal(obj.Value())
		sb.Write(encoded)
	case *object.List:
		writeJSONArray(sb, obj, indent, prefix)
	case *object.Map:
		writeJSONObject(sb, obj, indent, prefix)
	default:
		sb.WriteString("null")
	}
	return true
}

func writeJSONArray(sb *strings.Builder, list *object.List, indent, prefix string) {
	if list.Len() == 0 {
		sb.WriteString("[]")
		return
	}
	inner := prefix + indent
	sb.WriteString("[")
	for i := 0; i < list.Len(); i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		if indent != "" {
			sb.WriteString("\n" + inner)
		}
		if !writeJSON(sb, list.GetIndex(i), indent, inner) {
			sb.WriteString("null")
		}
	}
	if indent != "" {
		sb.WriteString("\n" + prefix)
	}
	sb.WriteString("]")
}

func writeJSONObject(sb *strings.Builder, m *object.Map, indent, prefix string) {
	keys := m.EnumerableKeys()
	var parts []string
	inner := prefix + indent
	for _, k := range keys {
		v, _ := m.Get(k)
		var part strings.Builder
		if !writeJSON(&part, v, indent, inner) {
			continue
		}
		encoded, _ := json.Marshal(k)
		sep := ":"
		if indent != "" {
			sep = ": "
		}
		parts = append(parts, string(encoded)+sep+part.String())
	}
	if len(parts) == 0 {
		sb.WriteString("{}")
		return
	}
	if indent == "" {
		sb.WriteString("{" + strings.Join(parts, ",") + "}")
		return
	}
	sb.WriteString("{\n" + inner + strings.Join(parts, ",\n"+inner) + "\n" + prefix + "}")
}

func fromJSONValue(value any) object.Object {
	switch value := value.(type) {
	case nil:
		return object.Null
	case bool:
		return object.NewBool(value)
	case float64:
		return object.NewNumber(value)
	case string:
		return object.NewString(value)
	case []any:
		items := make([]object.Object, len(value))
		for i, item := range value {
			items[i] = fromJSONValue(item)
		}
		return object.NewList(items)
	case map[string]any:
		m := object.NewEmptyMap()
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, fromJSONValue(value[k]))
		}
		return m
	default:
		return object.Null
	}
}
