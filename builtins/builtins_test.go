package builtins

import (
	"bytes"
	"context"
	"testing"

	"github.com/juniper-lang/juniper/object"
	"github.com/stretchr/testify/require"
)

func callMember(t *testing.T, ns *object.Map, name string, args ...object.Object) object.Object {
	t.Helper()
	fn, found := ns.Get(name)
	require.True(t, found, "missing member %q", name)
	builtin, ok := fn.(*object.Builtin)
	require.True(t, ok)
	return builtin.Call(context.Background(), object.Undefined, args...)
}

func TestConsoleLogJoinsWithSpaces(t *testing.T) {
	var out, errOut bytes.Buffer
	console := Console(&out, &errOut)
	callMember(t, console, "log", object.NewString("a"), object.NewNumber(1))
	require.Equal(t, "a 1\n", out.String())
	callMember(t, console, "error", object.NewString("boom"))
	require.Equal(t, "boom\n", errOut.String())
}

func TestErrorConstructorShape(t *testing.T) {
	ctor := ErrorConstructor("TypeError")
	errObj := ctor.Call(context.Background(), object.Undefined, object.NewString("bad")).(*object.Map)
	name, _ := errObj.Get("name")
	message, _ := errObj.Get("message")
	require.Equal(t, "TypeError", name.(*object.String).Value())
	require.Equal(t, "bad", message.(*object.String).Value())
}

func TestMathNamespace(t *testing.T) {
	ns := Math()
	result := callMember(t, ns, "floor", object.NewNumber(2.7))
	require.Equal(t, 2.0, result.(*object.Number).Value())
	result = callMember(t, ns, "max", object.NewNumber(1), object.NewNumber(5), object.NewNumber(3))
	require.Equal(t, 5.0, result.(*object.Number).Value())
	pi, found := ns.Get("PI")
	require.True(t, found)
	require.InDelta(t, 3.14159, pi.(*object.Number).Value(), 0.001)
}

func TestJSONStringify(t *testing.T) {
	ns := JSON()
	m := object.NewEmptyMap()
	m.Set("a", object.NewNumber(1))
	m.Set("b", object.NewList([]object.Object{object.True, object.Null}))
	m.Set("skip", object.Undefined) // undefined values drop out
	result := callMember(t, ns, "stringify", m)
	require.Equal(t, `{"a":1,"b":[true,null]}`, result.(*object.String).Value())
}

func TestJSONParse(t *testing.T) {
	ns := JSON()
	result := callMember(t, ns, "parse", object.NewString(`{"n": [1, 2]}`))
	m := result.(*object.Map)
	list, _ := m.Get("n")
	require.Equal(t, 2, list.(*object.List).Len())
}

func TestJSONParseInvalidIsSyntaxError(t *testing.T) {
	ns := JSON()
	result := callMember(t, ns, "parse", object.NewString("{nope"))
	_, isExc := result.(*object.Exception)
	require.True(t, isExc)
}

func TestParseIntPrefixes(t *testing.T) {
	result := parseIntBuiltin(context.Background(), object.Undefined, object.NewString("42px"))
	require.Equal(t, 42.0, result.(*object.Number).Value())
	result = parseIntBuiltin(context.Background(), object.Undefined, object.NewString("ff"), object.NewNumber(16))
	require.Equal(t, 255.0, result.(*object.Number).Value())
	result = parseIntBuiltin(context.Background(), object.Undefined, object.NewString("nope"))
	require.True(t, result.(*object.Number).IsNaN())
}

func TestRegExpConstructor(t *testing.T) {
	ctor := RegExpConstructor()
	re := ctor.Call(context.Background(), object.Undefined,
		object.NewString("ab+c"), object.NewString("i")).(*Regexp)
	test, _ := re.GetAttr("test")
	result := test.(*object.Builtin).Call(context.Background(), re, object.NewString("xABBBcy"))
	require.Equal(t, object.True, result)
}

func TestRegExpInvalidPattern(t *testing.T) {
	ctor := RegExpConstructor()
	result := ctor.Call(context.Background(), object.Undefined, object.NewString("a(b"))
	_, isExc := result.(*object.Exception)
	require.True(t, isExc)
}

func TestSymbolForRegistry(t *testing.T) {
	ns := SymbolNamespace()
	a := callMember(t, ns, "for", object.NewString("k"))
	b := callMember(t, ns, "for", object.NewString("k"))
	require.Same(t, a, b)
	fresh := callMember(t, ns, "make", object.NewString("k"))
	require.NotSame(t, a, fresh)
}

func TestDefaultsIncludeCoreBindings(t *testing.T) {
	defaults := Defaults()
	for _, name := range []string{
		"console", "Math", "JSON", "Object", "Array", "Symbol", "Promise",
		"RegExp", "Error", "TypeError", "parseInt", "isNaN",
	} {
		require.Contains(t, defaults, name)
	}
}
