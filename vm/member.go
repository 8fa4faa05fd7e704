package vm

import (
	"context"

	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/op"
)

// getMember implements the member-read path: prototype-chain lookup with
// accessor invocation for objects, and the built-in method surfaces of
// the primitive kinds.
func (vm *VirtualMachine) getMember(ctx context.Context, obj object.Object, name string) (object.Object, error) {
	if object.IsNullish(obj) {
		return nil, vm.typeError("cannot read properties of %s (reading %q)", obj.Type(), name)
	}
	switch obj := obj.(type) {
	case *object.Map:
		pd, found := obj.Lookup(name)
		if !found {
			if value, ok := objectProtoMember(obj, name); ok {
				return value, nil
			}
			return object.Undefined, nil
		}
		if pd.IsAccessor {
			if pd.Getter == nil {
				return object.Undefined, nil
			}
			return vm.callAny(ctx, pd.Getter, obj, nil)
		}
		return pd.Value, nil
	default:
		if value, found := obj.GetAttr(name); found {
			return value, nil
		}
		return object.Undefined, nil
	}
}

// objectProtoMember supplies the handful of Object.prototype methods
// every plain object responds to.
func objectProtoMember(m *object.Map, name string) (object.Object, bool) {
	switch name {
	case "hasOwnProperty":
		return object.NewBuiltin("hasOwnProperty", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
			if len(args) == 0 {
				return object.False
			}
			_, ok := m.GetOwn(object.ToStringValue(args[0]))
			return object.NewBool(ok)
		}), true
	case "toString":
		return object.NewBuiltin("toString", func(ctx context.Context, this object.Object, args ...object.Object) object.Object {
			return object.NewString(m.String())
		}), true
	}
	return nil, false
}

// setMember implements the member-write path, routing through setters in
// the prototype chain.
func (vm *VirtualMachine) setMember(ctx context.Context, obj object.Object, name string, value object.Object) error {
	if object.IsNullish(obj) {
		return vm.typeError("cannot set properties of %s (setting %q)", obj.Type(), name)
	}
	if m, ok := obj.(*object.Map); ok {
		if pd, found := m.Lookup(name); found && pd.IsAccessor {
			if pd.Setter == nil {
				return vm.typeError("cannot set property %q, it has only a getter", name)
			}
			_, err := vm.callAny(ctx, pd.Setter, m, []object.Object{value})
			return err
		}
		return m.Set(name, value)
	}
	return obj.SetAttr(name, value)
}

// deleteMember removes an own property, reporting whether the property is
// absent afterwards.
func (vm *VirtualMachine) deleteMember(obj object.Object, name string) bool {
	if m, ok := obj.(*object.Map); ok {
		return m.Delete(name)
	}
	return true
}

// getItem implements subscript reads: numeric indexing for arrays,
// strings, and argument objects; symbol and string keys for objects.
func (vm *VirtualMachine) getItem(ctx context.Context, obj, key object.Object) (object.Object, error) {
	if object.IsNullish(obj) {
		return nil, vm.typeError("cannot read properties of %s (reading %q)",
			obj.Type(), object.ToStringValue(key))
	}
	if sym, ok := key.(*object.Symbol); ok {
		if m, ok := obj.(*object.Map); ok {
			if pd, found := m.LookupSymbol(sym); found {
				if pd.IsAccessor {
					return vm.callAny(ctx, pd.Getter, m, nil)
				}
				return pd.Value, nil
			}
		}
		return object.Undefined, nil
	}
	if idx, isIndex := asIndex(key); isIndex {
		switch obj := obj.(type) {
		case *object.List:
			return obj.GetIndex(idx), nil
		case *object.String:
			if s := obj.CharAt(idx); s != "" {
				return object.NewString(s), nil
			}
			return object.Undefined, nil
		case *object.Arguments:
			return obj.GetIndex(idx), nil
		}
	}
	return vm.getMember(ctx, obj, object.ToStringValue(key))
}

// setItem implements subscript writes.
func (vm *VirtualMachine) setItem(ctx context.Context, obj, key, value object.Object) error {
	if object.IsNullish(obj) {
		return vm.typeError("cannot set properties of %s", obj.Type())
	}
	if sym, ok := key.(*object.Symbol); ok {
		if m, ok := obj.(*object.Map); ok {
			return m.SetSymbol(sym, value)
		}
		return vm.typeError("cannot set a symbol property on a %s", obj.Type())
	}
	if idx, isIndex := asIndex(key); isIndex {
		if list, ok := obj.(*object.List); ok {
			return list.SetIndex(idx, value)
		}
	}
	return vm.setMember(ctx, obj, object.ToStringValue(key), value)
}

// setMapEntry writes one object-literal entry, handling symbol keys.
func (vm *VirtualMachine) setMapEntry(ctx context.Context, m *object.Map, key, value object.Object) error {
	if sym, ok := key.(*object.Symbol); ok {
		return m.SetSymbol(sym, value)
	}
	return m.Set(object.ToStringValue(key), value)
}

// asIndex reports whether key is a valid non-negative integer index.
func asIndex(key object.Object) (int, bool) {
	n, ok := key.(*object.Number)
	if !ok {
		return 0, false
	}
	f := n.Value()
	i := int(f)
	if float64(i) != f || i < 0 {
		return 0, false
	}
	return i, true
}

// containsKey implements the `in` operator.
func (vm *VirtualMachine) containsKey(container, key object.Object) (bool, error) {
	switch container := container.(type) {
	case *object.Map:
		if sym, ok := key.(*object.Symbol); ok {
			_, found := container.LookupSymbol(sym)
			return found, nil
		}
		_, found := container.Lookup(object.ToStringValue(key))
		return found, nil
	case *object.List:
		if idx, ok := asIndex(key); ok {
			return idx < container.Len(), nil
		}
		if s, ok := key.(*object.String); ok && s.Value() == "length" {
			return true, nil
		}
		return false, nil
	default:
		return false, vm.typeError("cannot use 'in' operator to search in a %s", container.Type())
	}
}

// instanceOf walks the value's prototype chain, comparing against the
// constructor's prototype object.
func (vm *VirtualMachine) instanceOf(value, ctor object.Object) (bool, error) {
	fn, ok := ctor.(*object.Function)
	if !ok {
		if _, isBuiltin := ctor.(*object.Builtin); isBuiltin {
			return false, nil
		}
		return false, vm.typeError("right-hand side of 'instanceof' is not callable")
	}
	m, ok := value.(*object.Map)
	if !ok {
		return false, nil
	}
	target := fn.Prototype()
	for proto := m.Proto(); proto != nil; proto = proto.Proto() {
		if proto == target {
			return true, nil
		}
	}
	return false, nil
}

// scriptIterator adapts a script-defined iterator object (anything with
// a callable `next` returning `{value, done}`) to the engine's Iterator
// interface. Typed failures surface through Err.
type scriptIterator struct {
	vm     *VirtualMachine
	target object.Object
	next   object.Object
	err    error
	done   bool
}

func (it *scriptIterator) Type() object.Type           { return object.OBJECT }
func (it *scriptIterator) Inspect() string             { return "[iterator]" }
func (it *scriptIterator) String() string              { return "[iterator]" }
func (it *scriptIterator) Interface() interface{}      { return nil }
func (it *scriptIterator) IsTruthy() bool              { return true }
func (it *scriptIterator) Equals(o object.Object) bool { return o == it }

func (it *scriptIterator) GetAttr(name string) (object.Object, bool) { return nil, false }

func (it *scriptIterator) SetAttr(name string, value object.Object) error {
	return object.TypeErrorf("cannot set property %q on iterator", name).AsError()
}

func (it *scriptIterator) RunOperation(opType op.BinaryOpType, right object.Object) (object.Object, error) {
	return nil, object.TypeErrorf("unsupported operation for iterator")
}

func (it *scriptIterator) Err() error { return it.err }

func (it *scriptIterator) Next(ctx context.Context) (object.Object, bool) {
	if it.done || it.err != nil {
		return nil, false
	}
	result, err := it.vm.callAny(ctx, it.next, it.target, nil)
	if err != nil {
		it.err = err
		return nil, false
	}
	entry, ok := result.(*object.Map)
	if !ok {
		it.err = it.vm.typeError("iterator result is not an object (got %s)", result.Type())
		return nil, false
	}
	doneValue, _ := it.vm.getMember(ctx, entry, "done")
	if doneValue != nil && doneValue.IsTruthy() {
		it.done = true
		return nil, false
	}
	value, err := it.vm.getMember(ctx, entry, "value")
	if err != nil {
		it.err = err
		return nil, false
	}
	return value, true
}

// getIterator implements the iterator-protocol driver's setup step: the
// built-in iterable kinds iterate directly; an object iterates through
// its @@iterator method (or is used as an iterator itself when it has a
// `next` method); everything else is a typed failure.
func (vm *VirtualMachine) getIterator(ctx context.Context, obj object.Object) (object.Iterator, error) {
	switch obj := obj.(type) {
	case object.Iterator:
		return obj, nil
	case object.Iterable:
		return obj.Iter(), nil
	case *object.Map:
		if pd, found := obj.LookupSymbol(object.SymbolIterator); found && !pd.IsAccessor {
			if !object.Callable(pd.Value) {
				return nil, vm.typeError("@@iterator is not a function")
			}
			iterObj, err := vm.callAny(ctx, pd.Value, obj, nil)
			if err != nil {
				return nil, err
			}
			return vm.wrapIteratorObject(ctx, iterObj)
		}
		if next, found := obj.Get("next"); found && object.Callable(next) {
			return &scriptIterator{vm: vm, target: obj, next: next}, nil
		}
		return nil, vm.typeError("object is not iterable")
	default:
		return nil, vm.typeError("%s is not iterable", obj.Type())
	}
}

// wrapIteratorObject adapts the object returned by an @@iterator call.
func (vm *VirtualMachine) wrapIteratorObject(ctx context.Context, iterObj object.Object) (object.Iterator, error) {
	if iter, ok := iterObj.(object.Iterator); ok {
		return iter, nil
	}
	if iter, ok := iterObj.(object.Iterable); ok {
		return iter.Iter(), nil
	}
	m, ok := iterObj.(*object.Map)
	if !ok {
		return nil, vm.typeError("@@iterator did not return an object (got %s)", iterObj.Type())
	}
	next, found := m.Get("next")
	if !found || !object.Callable(next) {
		return nil, vm.typeError("iterator has no next method")
	}
	return &scriptIterator{vm: vm, target: m, next: next}, nil
}

// getKeysIterator drives for-in: an iterator over enumerable own string
// keys. Nullish sources iterate zero times.
func (vm *VirtualMachine) getKeysIterator(obj object.Object) (object.Iterator, error) {
	switch obj := obj.(type) {
	case *object.Map:
		return object.NewKeysIterator(obj.EnumerableKeys()), nil
	case *object.List:
		keys := make([]string, obj.Len())
		for i := range keys {
			keys[i] = formatIndex(i)
		}
		return object.NewKeysIterator(keys), nil
	case *object.String:
		keys := make([]string, obj.Length())
		for i := range keys {
			keys[i] = formatIndex(i)
		}
		return object.NewKeysIterator(keys), nil
	case *object.NullType, *object.UndefinedType:
		return object.NewKeysIterator(nil), nil
	default:
		return object.NewKeysIterator(nil), nil
	}
}

func formatIndex(i int) string {
	return object.NewNumber(float64(i)).Inspect()
}

// construct implements `new`: fabricate the instance, wire its prototype,
// and run the constructor chain against it.
func (vm *VirtualMachine) construct(ctx context.Context, ctor object.Object, args []object.Object) error {
	switch ctor := ctor.(type) {
	case *object.Builtin:
		// Host constructors fabricate and return their own instance.
		result := ctor.Call(ctx, object.Undefined, args...)
		if exc, ok := result.(*object.Exception); ok {
			return exc
		}
		vm.push(result)
		return nil
	case *object.Function:
		instance := object.NewEmptyMap()
		instance.SetProto(ctor.Prototype())
		result, err := vm.initInstance(ctx, ctor, instance, args)
		if err != nil {
			return err
		}
		// A constructor explicitly returning an object overrides `this`.
		if m, ok := result.(*object.Map); ok {
			vm.push(m)
			return nil
		}
		vm.push(instance)
		return nil
	default:
		return vm.typeError("%s is not a constructor", ctor.Type())
	}
}

// initInstance runs a constructor (and, for classes, the parent chain and
// field initializers) against an existing instance.
func (vm *VirtualMachine) initInstance(
	ctx context.Context,
	ctor *object.Function,
	instance *object.Map,
	args []object.Object,
) (object.Object, error) {
	class := ctor.Class()
	if class == nil {
		return vm.callFunction(ctx, ctor, instance, args)
	}
	// An implicit constructor in a derived class forwards construction to
	// the parent with the same arguments.
	if !class.HasExplicitConstructor() && ctor.Super() != nil {
		if _, err := vm.initInstance(ctx, ctor.Super(), instance, args); err != nil {
			return nil, err
		}
	}
	// Instance fields initialize in declaration order.
	names, inits := ctor.Fields()
	for i, name := range names {
		var value object.Object = object.Undefined
		if init := inits[i]; init != nil {
			v, err := vm.callFunction(ctx, init, instance, nil)
			if err != nil {
				return nil, err
			}
			value = v
		}
		if err := instance.Set(name, value); err != nil {
			return nil, err
		}
	}
	if class.HasExplicitConstructor() {
		return vm.callFunction(ctx, ctor, instance, args)
	}
	return object.Undefined, nil
}

// buildClass fabricates a class from the closures stacked beneath the
// BUILD_CLASS instruction: field-initializer thunks on top, then methods,
// the constructor, and (for `extends`) the parent class constructor.
func (vm *VirtualMachine) buildClass(constIndex int) error {
	template, ok := vm.activeCode.ClassConstant(constIndex)
	if !ok {
		return vm.evalError("invalid class constant")
	}

	fieldInits := make([]*object.Function, template.FieldCount())
	for i := template.FieldCount() - 1; i >= 0; i-- {
		fn, ok := vm.pop().(*object.Function)
		if !ok {
			return vm.evalError("expected field initializer closure")
		}
		fieldInits[i] = fn
	}
	methods := make([]*object.Function, template.MethodCount())
	for i := template.MethodCount() - 1; i >= 0; i-- {
		fn, ok := vm.pop().(*object.Function)
		if !ok {
			return vm.evalError("expected method closure")
		}
		methods[i] = fn
	}
	ctor, ok := vm.pop().(*object.Function)
	if !ok {
		return vm.evalError("expected constructor closure")
	}
	var parent *object.Function
	if template.HasParent() {
		parentObj := vm.pop()
		parent, ok = parentObj.(*object.Function)
		if !ok {
			return vm.typeError("class extends value is not a constructor (got %s)", parentObj.Type())
		}
	}

	ctor.SetClass(template)
	ctor.SetSuper(parent)
	fieldNames := make([]string, template.FieldCount())
	for i := range fieldNames {
		fieldNames[i] = template.FieldNameAt(i)
	}
	ctor.SetFields(fieldNames, fieldInits)

	proto := ctor.Prototype()
	if parent != nil {
		proto.SetProto(parent.Prototype())
	}

	for i := 0; i < template.MethodCount(); i++ {
		m := template.MethodAt(i)
		fn := methods[i]
		fn.SetSuper(parent)
		switch {
		case m.IsStatic:
			if err := ctor.SetAttr(m.Name, fn); err != nil {
				return err
			}
		case m.IsGetter, m.IsSetter:
			if err := proto.SetAccessor(m.Name, fn, m.IsGetter); err != nil {
				return err
			}
		default:
			if err := proto.SetDescriptor(m.Name, &object.PropertyDescriptor{
				Value: fn, Writable: true, Configurable: true,
			}); err != nil {
				return err
			}
		}
	}
	vm.push(ctor)
	return nil
}

// asyncStepIterator adapts a source of async-iteration steps to the
// engine's Iterator interface: each Next returns the raw result of one
// protocol step — a promise of {value, done} for async iterators, a
// plain {value, done} object for wrapped sync iterables — and the
// compiled loop awaits and unwraps it. Next never reports exhaustion;
// the `done` test lives in the bytecode.
type asyncStepIterator struct {
	step func(ctx context.Context) (object.Object, error)
	err  error
}

func (it *asyncStepIterator) Type() object.Type           { return object.OBJECT }
func (it *asyncStepIterator) Inspect() string             { return "[async iterator]" }
func (it *asyncStepIterator) String() string              { return "[async iterator]" }
func (it *asyncStepIterator) Interface() interface{}      { return nil }
func (it *asyncStepIterator) IsTruthy() bool              { return true }
func (it *asyncStepIterator) Equals(o object.Object) bool { return o == it }

func (it *asyncStepIterator) GetAttr(name string) (object.Object, bool) { return nil, false }

func (it *asyncStepIterator) SetAttr(name string, value object.Object) error {
	return object.TypeErrorf("cannot set property %q on iterator", name).AsError()
}

func (it *asyncStepIterator) RunOperation(opType op.BinaryOpType, right object.Object) (object.Object, error) {
	return nil, object.TypeErrorf("unsupported operation for async iterator")
}

func (it *asyncStepIterator) Err() error { return it.err }

func (it *asyncStepIterator) Next(ctx context.Context) (object.Object, bool) {
	if it.err != nil {
		return nil, false
	}
	result, err := it.step(ctx)
	if err != nil {
		it.err = err
		return nil, false
	}
	return result, true
}

// getAsyncIterator implements the async-iteration setup step: async
// generators step through their own resume machinery, objects go through
// @@asyncIterator, and any plain iterable falls back to sync stepping
// with each element wrapped in a {value, done} result.
func (vm *VirtualMachine) getAsyncIterator(ctx context.Context, obj object.Object) (object.Iterator, error) {
	switch obj := obj.(type) {
	case *object.AsyncGenerator:
		return &asyncStepIterator{step: func(ctx context.Context) (object.Object, error) {
			return obj.Step(ctx, object.Undefined, object.ResumeNext), nil
		}}, nil
	case *object.Map:
		pd, found := obj.LookupSymbol(object.SymbolAsyncIterator)
		if found && !pd.IsAccessor {
			if !object.Callable(pd.Value) {
				return nil, vm.typeError("@@asyncIterator is not a function")
			}
			iterObj, err := vm.callAny(ctx, pd.Value, obj, nil)
			if err != nil {
				return nil, err
			}
			next, err := vm.getMember(ctx, iterObj, "next")
			if err != nil {
				return nil, err
			}
			if !object.Callable(next) {
				return nil, vm.typeError("async iterator has no next method")
			}
			return &asyncStepIterator{step: func(ctx context.Context) (object.Object, error) {
				return vm.callAny(ctx, next, iterObj, nil)
			}}, nil
		}
	}
	iter, err := vm.getIterator(ctx, obj)
	if err != nil {
		return nil, err
	}
	return &asyncStepIterator{step: func(ctx context.Context) (object.Object, error) {
		value, more := iter.Next(ctx)
		if !more {
			if err := iteratorErr(iter); err != nil {
				return nil, err
			}
			return object.NewIterResult(nil, true), nil
		}
		return object.NewIterResult(value, false), nil
	}}, nil
}
