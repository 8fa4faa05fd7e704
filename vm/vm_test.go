package vm_test

import (
	"context"
	"maps"
	"slices"
	"testing"

	"github.com/juniper-lang/juniper/builtins"
	"github.com/juniper-lang/juniper/compiler"
	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/parser"
	"github.com/juniper-lang/juniper/vm"
	"github.com/stretchr/testify/require"
)

// run parses, compiles, and executes source with the default host
// bindings, returning the value of the final expression.
func run(t *testing.T, source string) object.Object {
	t.Helper()
	result, err := tryRun(source)
	require.NoError(t, err)
	return result
}

func tryRun(source string) (object.Object, error) {
	ctx := context.Background()
	program, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	globals := builtins.Defaults()
	code, err := compiler.Compile(program, &compiler.Config{
		GlobalNames: slices.Sorted(maps.Keys(globals)),
		Source:      source,
	})
	if err != nil {
		return nil, err
	}
	return vm.Run(context.Background(), code, vm.WithGlobals(globals))
}

func requireNumber(t *testing.T, obj object.Object, expected float64) {
	t.Helper()
	n, ok := obj.(*object.Number)
	require.True(t, ok, "expected number, got %s (%s)", obj.Type(), obj.Inspect())
	require.Equal(t, expected, n.Value())
}

func requireString(t *testing.T, obj object.Object, expected string) {
	t.Helper()
	s, ok := obj.(*object.String)
	require.True(t, ok, "expected string, got %s (%s)", obj.Type(), obj.Inspect())
	require.Equal(t, expected, s.Value())
}

func requireBool(t *testing.T, obj object.Object, expected bool) {
	t.Helper()
	b, ok := obj.(*object.Bool)
	require.True(t, ok, "expected boolean, got %s (%s)", obj.Type(), obj.Inspect())
	require.Equal(t, expected, b.Value())
}

func requireList(t *testing.T, obj object.Object) *object.List {
	t.Helper()
	list, ok := obj.(*object.List)
	require.True(t, ok, "expected array, got %s (%s)", obj.Type(), obj.Inspect())
	return list
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1 + 2", 3},
		{"2 * 3 + 4", 10},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"7 % 3", 1},
		{"2 ** 10", 1024},
		{"2 ** 3 ** 2", 512}, // right-associative
		{"-5 + 3", -2},
		{"1 << 4", 16},
		{"255 >> 4", 15},
		{"-1 >>> 28", 15},
		{"12 & 10", 8},
		{"12 | 10", 14},
		{"12 ^ 10", 6},
		{"~5", -6},
		{"+\"42\"", 42},
	}
	for _, tt := range tests {
		requireNumber(t, run(t, tt.input), tt.expected)
	}
}

func TestStringConcat(t *testing.T) {
	requireString(t, run(t, `"a" + "b" + "c"`), "abc")
	requireString(t, run(t, `"n=" + 42`), "n=42")
	requireString(t, run(t, `1 + "2"`), "12")
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"1 === 1", true},
		{"1 !== 1", false},
		{`1 == "1"`, true},
		{`1 === "1"`, false},
		{"null == undefined", true},
		{"null === undefined", false},
		{"NaN === NaN", false},
		{`"a" < "b"`, true},
		{"10n === 10n", true},
		{"10n == 10", true},
	}
	for _, tt := range tests {
		requireBool(t, run(t, tt.input), tt.expected)
	}
}

func TestVariablesAndScope(t *testing.T) {
	requireNumber(t, run(t, "let x = 5; x = x + 1; x"), 6)
	requireNumber(t, run(t, "var a = 1; { var a = 2; } a"), 2)
	requireNumber(t, run(t, "let b = 1; { let b = 2; } b"), 1)
	requireNumber(t, run(t, "const c = 7; c"), 7)
}

func TestConstReassignmentFails(t *testing.T) {
	_, err := tryRun("const x = 1; x = 2;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "constant")
}

func TestTemporalDeadZone(t *testing.T) {
	_, err := tryRun("x; let x = 1;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ReferenceError")
}

func TestUndefinedNameSuggestions(t *testing.T) {
	_, err := tryRun("parseInr(5)")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parseInr is not defined")
}

func TestVarHoisting(t *testing.T) {
	// var reads as undefined before its declaration statement runs.
	requireString(t, run(t, `typeof v + ""; var v = 1; typeof v`), "number")
	requireBool(t, run(t, `let before = v === undefined; var v = 3; before`), true)
}

func TestFunctionDeclarationHoisting(t *testing.T) {
	requireBool(t, run(t, `
		function isEven(n) { return n === 0 || isOdd(n - 1) }
		function isOdd(n) { return n !== 0 && isEven(n - 1) }
		isEven(10)
	`), true)
}

func TestForLoopAccumulates(t *testing.T) {
	// Spec scenario 1
	requireNumber(t, run(t, "let x = 0; for (let i = 0; i < 3; i++) x += i; x"), 3)
}

func TestGeneratorSequence(t *testing.T) {
	// Spec scenario 2
	result := run(t, "function* g(){ yield 1; yield 2; } const it = g(); [it.next().value, it.next().value, it.next().done]")
	list := requireList(t, result)
	require.Equal(t, 3, list.Len())
	requireNumber(t, list.GetIndex(0), 1)
	requireNumber(t, list.GetIndex(1), 2)
	requireBool(t, list.GetIndex(2), true)
}

func TestTryCatchFinally(t *testing.T) {
	// Spec scenario 3
	requireString(t, run(t, "let s=''; try { throw 'e' } catch(e) { s+='c:'+e } finally { s+=';f' } s"), "c:e;f")
}

func TestOptionalChainShortCircuit(t *testing.T) {
	// Spec scenario 4
	result := run(t, "const o = { a: { b: 1 } }; [o?.a?.b, o?.x?.b, o?.x?.b ?? 7]")
	list := requireList(t, result)
	requireNumber(t, list.GetIndex(0), 1)
	require.Equal(t, object.Undefined, list.GetIndex(1))
	requireNumber(t, list.GetIndex(2), 7)
}

func TestOptionalChainIsStrictlyUndefined(t *testing.T) {
	// a?.b.c with a === null is undefined, not null.
	result := run(t, "const a = null; a?.b.c")
	require.Equal(t, object.Undefined, result)
}

func TestObjectDestructuringWithRest(t *testing.T) {
	// Spec scenario 5
	result := run(t, "const {a, b=2, ...rest} = {a:1, c:3, d:4}; [a, b, rest.c, rest.d]")
	list := requireList(t, result)
	requireNumber(t, list.GetIndex(0), 1)
	requireNumber(t, list.GetIndex(1), 2)
	requireNumber(t, list.GetIndex(2), 3)
	requireNumber(t, list.GetIndex(3), 4)
}

func TestLabeledContinue(t *testing.T) {
	// Spec scenario 6
	requireNumber(t, run(t, `
		let acc=0;
		outer: for (let i=0;i<3;i++)
			for (let j=0;j<3;j++){ if(j===2) continue outer; acc += 1 }
		acc
	`), 6)
}

func TestLabeledBreak(t *testing.T) {
	requireNumber(t, run(t, `
		let n = 0;
		outer: for (let i = 0; i < 10; i++) {
			for (let j = 0; j < 10; j++) {
				if (i * j > 6) break outer;
				n++;
			}
		}
		n
	`), 17)
}

func TestWhileAndDoWhile(t *testing.T) {
	requireNumber(t, run(t, "let i = 0; while (i < 5) i++; i"), 5)
	requireNumber(t, run(t, "let i = 10; do { i++ } while (false); i"), 11)
}

func TestClosureCounter(t *testing.T) {
	requireNumber(t, run(t, `
		function makeCounter() {
			let count = 0;
			return { inc: () => ++count, get: () => count };
		}
		const c = makeCounter();
		c.inc(); c.inc(); c.inc();
		c.get()
	`), 3)
}

func TestClosureSharedCell(t *testing.T) {
	// Two sibling closures observe each other's writes.
	requireNumber(t, run(t, `
		function pair() {
			let value = 0;
			return [v => { value = v }, () => value];
		}
		const [set, get] = pair();
		set(42);
		get()
	`), 42)
}

func TestTransitiveCapture(t *testing.T) {
	requireNumber(t, run(t, `
		function outer() {
			let x = 7;
			function middle() {
				function inner() { return x; }
				return inner;
			}
			return middle();
		}
		outer()()
	`), 7)
}

func TestRecursion(t *testing.T) {
	requireNumber(t, run(t, `
		function fib(n) { return n < 2 ? n : fib(n-1) + fib(n-2) }
		fib(10)
	`), 55)
	// A named function expression can recurse through its own name.
	requireNumber(t, run(t, `
		const f = function fact(n) { return n <= 1 ? 1 : n * fact(n - 1) };
		f(5)
	`), 120)
}

func TestDefaultParameters(t *testing.T) {
	requireNumber(t, run(t, "function f(a, b = 10) { return a + b } f(1)"), 11)
	requireNumber(t, run(t, "function f(a, b = 10) { return a + b } f(1, 2)"), 3)
	requireNumber(t, run(t, "function f(a, b = a * 2) { return a + b } f(3)"), 9)
	// null does not trigger a default; only undefined does.
	requireBool(t, run(t, "function f(x = 5) { return x === null } f(null)"), true)
}

func TestRestParameters(t *testing.T) {
	requireNumber(t, run(t, `
		function sum(first, ...rest) {
			let total = first;
			for (const n of rest) total += n;
			return total;
		}
		sum(1, 2, 3, 4)
	`), 10)
}

func TestArgumentsObject(t *testing.T) {
	requireNumber(t, run(t, "function f() { return arguments.length } f(1, 2, 3)"), 3)
	requireNumber(t, run(t, "function f() { return arguments[1] } f(10, 20)"), 20)
}

func TestSpreadCall(t *testing.T) {
	requireNumber(t, run(t, `
		function add3(a, b, c) { return a + b + c }
		const args = [1, 2, 3];
		add3(...args)
	`), 6)
}

func TestArraySpreadLiteral(t *testing.T) {
	result := run(t, "const a = [2, 3]; [1, ...a, 4]")
	list := requireList(t, result)
	require.Equal(t, 4, list.Len())
	requireNumber(t, list.GetIndex(3), 4)
}

func TestObjectSpreadLiteral(t *testing.T) {
	requireNumber(t, run(t, "const a = {x: 1}; const b = {...a, y: 2}; b.x + b.y"), 3)
}

func TestArrayDestructuring(t *testing.T) {
	result := run(t, "const [a, , b = 9, ...rest] = [1, 2, undefined, 4, 5]; [a, b, rest.length]")
	list := requireList(t, result)
	requireNumber(t, list.GetIndex(0), 1)
	requireNumber(t, list.GetIndex(1), 9)
	requireNumber(t, list.GetIndex(2), 2)
}

func TestNestedDestructuring(t *testing.T) {
	requireNumber(t, run(t, "const {a: {b}} = {a: {b: 5}}; b"), 5)
}

func TestForOfIteratesArray(t *testing.T) {
	requireNumber(t, run(t, "let sum = 0; for (const n of [1, 2, 3, 4]) sum += n; sum"), 10)
}

func TestForOfIteratesString(t *testing.T) {
	requireString(t, run(t, "let out = ''; for (const ch of 'abc') out = ch + out; out"), "cba")
}

func TestForOfIteratesGenerator(t *testing.T) {
	requireNumber(t, run(t, `
		function* squares(n) { for (let i = 1; i <= n; i++) yield i * i; }
		let total = 0;
		for (const sq of squares(4)) total += sq;
		total
	`), 30)
}

func TestForOfCustomIterable(t *testing.T) {
	// Iterator protocol fidelity: anything conforming to
	// { [Symbol.iterator]() -> { next() -> {value, done} } } iterates.
	requireNumber(t, run(t, `
		const range = {
			[Symbol.iterator]() {
				let i = 0;
				return { next: () => i < 3 ? {value: i++, done: false} : {value: undefined, done: true} };
			}
		};
		let sum = 0;
		for (const v of range) sum += v;
		sum
	`), 3)
}

func TestForInEnumeratesKeys(t *testing.T) {
	requireString(t, run(t, "let keys = ''; for (const k in {a: 1, b: 2}) keys += k; keys"), "ab")
}

func TestSwitchDispatch(t *testing.T) {
	requireString(t, run(t, `
		function pick(x) {
			switch (x) {
			case 1: return "one";
			case 2: return "two";
			default: return "many";
			}
		}
		pick(2)
	`), "two")
	requireString(t, run(t, `
		function pick(x) {
			switch (x) {
			case 1: return "one";
			default: return "many";
			}
		}
		pick(9)
	`), "many")
}

func TestSwitchFallthroughAndBreak(t *testing.T) {
	requireString(t, run(t, `
		let s = "";
		switch (1) {
		case 1: s += "a";
		case 2: s += "b"; break;
		case 3: s += "c";
		}
		s
	`), "ab")
}

func TestSwitchStrictComparison(t *testing.T) {
	requireString(t, run(t, `
		let s = "none";
		switch ("1") {
		case 1: s = "number"; break;
		case "1": s = "string"; break;
		}
		s
	`), "string")
}

func TestTernaryAndLogical(t *testing.T) {
	requireString(t, run(t, `true ? "y" : "n"`), "y")
	requireNumber(t, run(t, "0 || 5"), 5)
	requireNumber(t, run(t, "3 && 4"), 4)
	requireNumber(t, run(t, "0 ?? 5"), 0)
	requireNumber(t, run(t, "null ?? 5"), 5)
	requireNumber(t, run(t, "let x = null; x ??= 3; x"), 3)
	requireNumber(t, run(t, "let x = 1; x ||= 9; x"), 1)
	requireNumber(t, run(t, "let x = 1; x &&= 9; x"), 9)
}

func TestShortCircuitSkipsEffects(t *testing.T) {
	requireNumber(t, run(t, `
		let calls = 0;
		function bump() { calls++; return true; }
		false && bump();
		true || bump();
		calls
	`), 0)
}

func TestTemplateLiterals(t *testing.T) {
	requireString(t, run(t, "const name = 'world'; `hello ${name}!`"), "hello world!")
	requireString(t, run(t, "`a${1 + 1}b${'c'}`"), "a2bc")
	requireString(t, run(t, "`${ {a: 'x'}.a }`"), "x")
}

func TestTaggedTemplate(t *testing.T) {
	requireString(t, run(t, `
		function tag(strings, a, b) { return strings[0] + a + strings[1] + b + strings[2]; }
		tag`+"`one ${1} two ${2} end`"+`
	`), "one 1 two 2 end")
}

func TestObjectLiterals(t *testing.T) {
	requireNumber(t, run(t, "const o = {a: 1, 'b c': 2, [1+1]: 3}; o.a + o['b c'] + o[2]"), 6)
	requireNumber(t, run(t, "const x = 4; const o = {x}; o.x"), 4)
	requireNumber(t, run(t, "const o = {m() { return 7 }}; o.m()"), 7)
}

func TestObjectAccessors(t *testing.T) {
	requireNumber(t, run(t, `
		const o = {
			_v: 1,
			get v() { return this._v },
			set v(nv) { this._v = nv * 2 },
		};
		o.v = 5;
		o.v
	`), 10)
}

func TestThisBinding(t *testing.T) {
	requireNumber(t, run(t, "const o = {n: 3, get2() { return this.n }}; o.get2()"), 3)
	// Arrow functions capture this from the enclosing function.
	requireNumber(t, run(t, `
		const o = {
			n: 5,
			wrap() { return (() => this.n)(); },
		};
		o.wrap()
	`), 5)
}

func TestConstructors(t *testing.T) {
	requireNumber(t, run(t, `
		function Point(x, y) { this.x = x; this.y = y; }
		const p = new Point(3, 4);
		p.x + p.y
	`), 7)
}

func TestPrototypeMethods(t *testing.T) {
	requireNumber(t, run(t, `
		function Counter() { this.n = 0; }
		Counter.prototype.bump = function() { return ++this.n; };
		const c = new Counter();
		c.bump(); c.bump();
		c.bump()
	`), 3)
}

func TestInstanceof(t *testing.T) {
	requireBool(t, run(t, "function A() {}; new A() instanceof A"), true)
	requireBool(t, run(t, "function A() {}; function B() {}; new A() instanceof B"), false)
}

func TestClasses(t *testing.T) {
	requireString(t, run(t, `
		class Animal {
			constructor(name) { this.name = name; }
			speak() { return this.name + " makes a sound"; }
		}
		new Animal("cat").speak()
	`), "cat makes a sound")
}

func TestClassInheritance(t *testing.T) {
	requireString(t, run(t, `
		class Animal {
			constructor(name) { this.name = name; }
			speak() { return this.name + " makes a sound"; }
		}
		class Dog extends Animal {
			constructor(name) { super(name); }
			speak() { return super.speak() + ": woof"; }
		}
		new Dog("rex").speak()
	`), "rex makes a sound: woof")
}

func TestClassFieldsAndStatics(t *testing.T) {
	requireNumber(t, run(t, `
		class Box {
			size = 3;
			static version() { return 2; }
			area() { return this.size * this.size; }
		}
		new Box().area() + Box.version()
	`), 11)
}

func TestClassGetter(t *testing.T) {
	requireNumber(t, run(t, `
		class Temp {
			constructor(c) { this.c = c; }
			get f() { return this.c * 9 / 5 + 32; }
		}
		new Temp(100).f
	`), 212)
}

func TestInstanceofWithClasses(t *testing.T) {
	requireBool(t, run(t, `
		class A {}
		class B extends A {}
		new B() instanceof A
	`), true)
}

func TestTypeof(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"typeof undefined", "undefined"},
		{"typeof null", "object"},
		{"typeof true", "boolean"},
		{"typeof 1.5", "number"},
		{"typeof 'hi'", "string"},
		{"typeof 10n", "bigint"},
		{"typeof {}", "object"},
		{"typeof []", "object"},
		{"typeof (() => 1)", "function"},
		{"typeof totallyMissing", "undefined"},
	}
	for _, tt := range tests {
		requireString(t, run(t, tt.input), tt.expected)
	}
}

func TestDeleteProperty(t *testing.T) {
	requireBool(t, run(t, "const o = {a: 1}; delete o.a; 'a' in o"), false)
	requireBool(t, run(t, "const o = {a: 1}; delete o['a']"), true)
}

func TestInOperator(t *testing.T) {
	requireBool(t, run(t, "'a' in {a: 1}"), true)
	requireBool(t, run(t, "'b' in {a: 1}"), false)
	requireBool(t, run(t, "0 in [9]"), true)
}

func TestVoidOperator(t *testing.T) {
	require.Equal(t, object.Undefined, run(t, "void 0"))
}

func TestBigIntArithmetic(t *testing.T) {
	result := run(t, "(9007199254740993n + 1n) * 2n")
	b, ok := result.(*object.BigInt)
	require.True(t, ok)
	require.Equal(t, "18014398509481988", b.Value().String())
}

func TestBigIntMixingFails(t *testing.T) {
	_, err := tryRun("1n + 1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "TypeError")
}

func TestSequenceExpression(t *testing.T) {
	requireNumber(t, run(t, "let x = (1, 2, 3); x"), 3)
}

func TestUpdateExpressions(t *testing.T) {
	requireNumber(t, run(t, "let x = 5; const old = x++; old * 10 + x"), 56)
	requireNumber(t, run(t, "let x = 5; const now = ++x; now * 10 + x"), 66)
	requireNumber(t, run(t, "const o = {n: 1}; o.n++; ++o.n; o.n"), 3)
	requireNumber(t, run(t, "const a = [1]; a[0]++; a[0]"), 2)
}

func TestCompoundMemberAssignment(t *testing.T) {
	requireNumber(t, run(t, "const o = {n: 10}; o.n += 5; o.n"), 15)
	requireNumber(t, run(t, "const a = [1, 2]; a[1] *= 10; a[1]"), 20)
}

func TestArrayMethods(t *testing.T) {
	requireNumber(t, run(t, "[1, 2, 3].map(x => x * 2).reduce((a, b) => a + b, 0)"), 12)
	requireNumber(t, run(t, "[1, 2, 3, 4].filter(x => x % 2 === 0).length"), 2)
	requireString(t, run(t, "['a', 'b'].join('-')"), "a-b")
	requireBool(t, run(t, "[1, 2, 3].includes(2)"), true)
	requireNumber(t, run(t, "[5, 6].indexOf(6)"), 1)
	requireNumber(t, run(t, "const a = []; a.push(1, 2); a.length"), 2)
}

func TestStringMethods(t *testing.T) {
	requireString(t, run(t, "'hello'.toUpperCase()"), "HELLO")
	requireString(t, run(t, "'a,b,c'.split(',')[1]"), "b")
	requireBool(t, run(t, "'hello'.startsWith('he')"), true)
	requireNumber(t, run(t, "'hello'.length"), 5)
	requireString(t, run(t, "'  x  '.trim()"), "x")
	requireString(t, run(t, "'abcdef'.slice(1, 3)"), "bc")
}

func TestExceptionsPropagosateThroughCalls(t *testing.T) {
	requireString(t, run(t, `
		function inner() { throw new TypeError("boom"); }
		function outer() { inner(); }
		let msg = "";
		try { outer(); } catch (e) { msg = e.message; }
		msg
	`), "boom")
}

func TestUncaughtExceptionSurfacesAsError(t *testing.T) {
	_, err := tryRun("throw 'fatal'")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fatal")
}

func TestCallingNonCallableFails(t *testing.T) {
	_, err := tryRun("const x = 5; x()")
	require.Error(t, err)
	require.Contains(t, err.Error(), "TypeError")
}

func TestGeneratorSendsValues(t *testing.T) {
	requireNumber(t, run(t, `
		function* echo() {
			const received = yield 1;
			yield received * 10;
		}
		const it = echo();
		it.next();
		it.next(4).value
	`), 40)
}

func TestGeneratorReturnCompletes(t *testing.T) {
	requireBool(t, run(t, `
		function* g() { yield 1; yield 2; }
		const it = g();
		it.next();
		it.return(99);
		it.next().done
	`), true)
}

func TestGeneratorDeterminism(t *testing.T) {
	// A pure generator yields the same sequence on every fresh run.
	requireBool(t, run(t, `
		function* g() { for (let i = 0; i < 5; i++) yield i * 3; }
		function collect() {
			const out = [];
			for (const v of g()) out.push(v);
			return out.join(",");
		}
		collect() === collect()
	`), true)
}

func TestYieldDelegation(t *testing.T) {
	requireString(t, run(t, `
		function* inner() { yield "a"; yield "b"; }
		function* outer() { yield "start"; yield* inner(); yield "end"; }
		const out = [];
		for (const v of outer()) out.push(v);
		out.join(",")
	`), "start,a,b,end")
}

func TestFinallyRunsOnReturn(t *testing.T) {
	requireString(t, run(t, `
		let log = "";
		function f() {
			try { return "r"; } finally { log += "f"; }
		}
		f() + log
	`), "rf")
}

func TestFinallyRunsOnBreakAndContinue(t *testing.T) {
	requireString(t, run(t, `
		let log = "";
		for (let i = 0; i < 3; i++) {
			try {
				if (i === 1) continue;
				if (i === 2) break;
				log += "b" + i;
			} finally { log += "f" + i; }
		}
		log
	`), "b0f0f1f2")
}

func TestNestedFinallyOrder(t *testing.T) {
	// Nested finalizers unwind innermost-first.
	requireString(t, run(t, `
		let log = "";
		try {
			try {
				throw "x";
			} finally { log += "inner;"; }
		} catch (e) { log += "caught;"; } finally { log += "outer"; }
		log
	`), "inner;caught;outer")
}

func TestRethrowFromCatch(t *testing.T) {
	requireString(t, run(t, `
		let log = "";
		try {
			try { throw "first"; } catch (e) { throw "second"; } finally { log += "f;"; }
		} catch (e) { log += e; }
		log
	`), "f;second")
}

func TestCatchBindingDestructuring(t *testing.T) {
	requireString(t, run(t, `
		let got = "";
		try { throw {code: "E42", detail: "nope"}; } catch ({code}) { got = code; }
		got
	`), "E42")
}

func TestCatchWithoutBinding(t *testing.T) {
	requireNumber(t, run(t, "let n = 0; try { throw 1 } catch { n = 5 } n"), 5)
}

func TestExceptionInsideLoop(t *testing.T) {
	requireNumber(t, run(t, `
		let count = 0;
		for (let i = 0; i < 5; i++) {
			try { if (i % 2 === 0) throw i; } catch (e) { count++; }
		}
		count
	`), 3)
}

// runAndGet executes source, then reads a global after the microtask
// queue has drained — the only way to observe effects of async
// completions, which happen after the program's final expression.
func runAndGet(t *testing.T, source, name string) object.Object {
	t.Helper()
	ctx := context.Background()
	program, err := parser.Parse(ctx, source)
	require.NoError(t, err)
	globals := builtins.Defaults()
	code, err := compiler.Compile(program, &compiler.Config{
		GlobalNames: slices.Sorted(maps.Keys(globals)),
		Source:      source,
	})
	require.NoError(t, err)
	machine, err := vm.New(code, vm.WithGlobals(globals))
	require.NoError(t, err)
	require.NoError(t, machine.Run(ctx))
	value, err := machine.Get(name)
	require.NoError(t, err)
	return value
}

func TestAsyncFunctionResolves(t *testing.T) {
	result := runAndGet(t, `
		let result = 0;
		async function work() { return 42; }
		work().then(v => { result = v; });
	`, "result")
	requireNumber(t, result, 42)
}

func TestAwaitSequencing(t *testing.T) {
	// The async body runs synchronously until the first await; the rest
	// resumes from the microtask queue after the synchronous code.
	log := runAndGet(t, `
		let log = "";
		async function work() {
			log += "a";
			const v = await 1;
			log += "b" + v + ";";
			return v + 1;
		}
		work().then(v => { log += "c" + v; });
		log += "sync;";
	`, "log")
	requireString(t, log, "async;b1;c2")
}

func TestAsyncRejectionCaught(t *testing.T) {
	got := runAndGet(t, `
		let got = "";
		async function boom() { throw "bad"; }
		boom().catch(e => { got = e; });
	`, "got")
	requireString(t, got, "bad")
}

func TestAwaitUnwrapsPromise(t *testing.T) {
	got := runAndGet(t, `
		let got = 0;
		async function inner() { return 5; }
		async function outer() { return (await inner()) * 3; }
		outer().then(v => { got = v; });
	`, "got")
	requireNumber(t, got, 15)
}

func TestPromiseChain(t *testing.T) {
	got := runAndGet(t, `
		let got = 0;
		Promise.resolve(5).then(v => v * 2).then(v => { got = v; });
	`, "got")
	requireNumber(t, got, 10)
}

func TestMicrotaskOrdering(t *testing.T) {
	log := runAndGet(t, `
		let log = "";
		Promise.resolve(1).then(() => { log += "m1;" });
		Promise.resolve(2).then(() => { log += "m2;" });
		log += "sync;";
	`, "log")
	requireString(t, log, "sync;m1;m2;")
}

func TestRegexLiteral(t *testing.T) {
	requireBool(t, run(t, `/ab+c/.test("xabbbcy")`), true)
	requireBool(t, run(t, `/HELLO/i.test("hello")`), true)
	requireString(t, run(t, `/a(b)c/.exec("abc")[1]`), "b")
}

func TestGlobalFunctions(t *testing.T) {
	requireNumber(t, run(t, "parseInt('42px')"), 42)
	requireNumber(t, run(t, "parseFloat('3.5x')"), 3.5)
	requireBool(t, run(t, "isNaN('abc')"), true)
	requireBool(t, run(t, "isFinite(1 / 0)"), false)
	requireNumber(t, run(t, "Math.max(1, 9, 4)"), 9)
	requireNumber(t, run(t, "Math.floor(2.9)"), 2)
}

func TestJSONRoundTrip(t *testing.T) {
	requireString(t, run(t, `JSON.stringify({b: [1, true, null], a: "x"})`), `{"b":[1,true,null],"a":"x"}`)
	requireNumber(t, run(t, `JSON.parse('{"n": 7}').n`), 7)
}

func TestObjectNamespace(t *testing.T) {
	requireString(t, run(t, "Object.keys({a: 1, b: 2}).join('')"), "ab")
	requireBool(t, run(t, "const o = Object.freeze({a: 1}); Object.isFrozen(o)"), true)
}

func TestFrozenObjectWriteFails(t *testing.T) {
	_, err := tryRun("const o = Object.freeze({a: 1}); o.a = 2;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "TypeError")
}

func TestSymbolKeys(t *testing.T) {
	requireNumber(t, run(t, `
		const k = Symbol.make("secret");
		const o = {};
		o[k] = 9;
		o[k]
	`), 9)
	requireBool(t, run(t, `Symbol.for("a") === Symbol.for("a")`), true)
	requireBool(t, run(t, `Symbol.make("a") === Symbol.make("a")`), false)
}

func TestErrorObjects(t *testing.T) {
	requireString(t, run(t, `
		const e = new TypeError("nope");
		e.name + ":" + e.message
	`), "TypeError:nope")
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	program, err := parser.Parse(context.Background(), "while (true) {}")
	require.NoError(t, err)
	code, err := compiler.Compile(program, &compiler.Config{})
	require.NoError(t, err)
	_, err = vm.Run(ctx, code, vm.WithContextCheckInterval(10))
	require.Error(t, err)
}

func TestObserverSeesSteps(t *testing.T) {
	program, err := parser.Parse(context.Background(), "1 + 2")
	require.NoError(t, err)
	code, err := compiler.Compile(program, &compiler.Config{})
	require.NoError(t, err)

	steps := 0
	observer := &countingObserver{onStep: func() { steps++ }}
	_, err = vm.Run(context.Background(), code, vm.WithObserver(observer))
	require.NoError(t, err)
	require.Greater(t, steps, 0)
}

type countingObserver struct {
	vm.NoOpObserver
	onStep func()
}

func (o *countingObserver) OnStep(event vm.StepEvent) bool {
	o.onStep()
	return true
}

func TestHeapSweepsOnScopeTeardown(t *testing.T) {
	// A closure cell that escapes stays alive; frame teardown triggers a
	// reachability sweep of the rest.
	program, err := parser.Parse(context.Background(), `
		function waste() { let x = 1; const f = () => x; f(); }
		waste(); waste();
		function keep() { let y = 2; return () => y; }
		const kept = keep();
		kept()
	`)
	require.NoError(t, err)
	code, err := compiler.Compile(program, &compiler.Config{})
	require.NoError(t, err)
	machine, err := vm.New(code)
	require.NoError(t, err)
	require.NoError(t, machine.Run(context.Background()))
	result, ok := machine.TOS()
	require.True(t, ok)
	n, ok := result.(*object.Number)
	require.True(t, ok)
	require.Equal(t, 2.0, n.Value())
}

func TestForAwaitOverSyncIterable(t *testing.T) {
	// Plain iterables step through the async protocol too, with each
	// element awaited — including elements that are promises.
	log := runAndGet(t, `
		let log = "";
		async function collect() {
			for await (const v of [1, 2, Promise.resolve(3)]) { log += v + ";"; }
			log += "done";
		}
		collect();
		log += "sync;";
	`, "log")
	requireString(t, log, "sync;1;2;3;done")
}

func TestForAwaitOverAsyncIterator(t *testing.T) {
	got := runAndGet(t, `
		let got = "";
		const source = {
			[Symbol.asyncIterator]() {
				let i = 0;
				return {
					next: async () => i < 3 ? {value: i++, done: false} : {value: undefined, done: true},
				};
			}
		};
		async function collect() {
			for await (const v of source) got += v;
			got += "!";
		}
		collect();
	`, "got")
	requireString(t, got, "012!")
}

func TestForAwaitBreakPopsIterator(t *testing.T) {
	got := runAndGet(t, `
		let got = "";
		async function collect() {
			for await (const v of [1, 2, 3, 4]) {
				if (v === 3) break;
				got += v;
			}
			got += ".";
		}
		collect();
	`, "got")
	requireString(t, got, "12.")
}

func TestAsyncGeneratorYieldsThroughPromises(t *testing.T) {
	first := runAndGet(t, `
		let first = 0;
		async function* g() { yield 7; }
		g().next().then(r => { first = r.value; });
	`, "first")
	requireNumber(t, first, 7)
}

func TestAsyncGeneratorAwaitsBetweenYields(t *testing.T) {
	out := runAndGet(t, `
		let out = "";
		async function* gen() {
			yield 1;
			const v = await Promise.resolve(2);
			yield v;
		}
		async function collect() {
			for await (const x of gen()) out += x;
			out += ".";
		}
		collect();
	`, "out")
	requireString(t, out, "12.")
}

func TestAsyncGeneratorCompletes(t *testing.T) {
	done := runAndGet(t, `
		let done = false;
		async function* g() { yield 1; }
		const it = g();
		it.next().then(() => it.next()).then(r => { done = r.done; });
	`, "done")
	requireBool(t, done, true)
}

func TestAsyncGeneratorRejectionPropagates(t *testing.T) {
	got := runAndGet(t, `
		let got = "";
		async function* g() { throw "agx"; }
		g().next().catch(e => { got = e; });
	`, "got")
	requireString(t, got, "agx")
}
