package vm

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/juniper-lang/juniper/errz"
	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/op"
)

// eval runs the active code until it completes, returns, suspends, or
// fails with an unhandled exception. The caller must have initialized
// vm.ip, vm.fp, vm.activeCode, and vm.activeFrame.
//
// An exception raised by any opcode transfers control to the innermost
// matching error frame; when none exists in the current call frame, the
// exception is returned as the eval error and crosses up into the caller
// as its call result.
func (vm *VirtualMachine) eval(ctx context.Context) error {
	var instructionCount int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()

	for vm.ip < len(vm.activeCode.Instructions) {
		if atomic.LoadInt32(&vm.halt) == 1 {
			return ctx.Err()
		}
		if checkInterval > 0 && doneChan != nil {
			instructionCount++
			if instructionCount >= checkInterval {
				instructionCount = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return ctx.Err()
				default:
				}
			}
		}

		opcode := vm.activeCode.Instructions[vm.ip]

		if vm.observer != nil {
			event := StepEvent{
				IP:         vm.ip,
				Opcode:     opcode,
				OpcodeName: op.GetInfo(opcode).Name,
				Location:   vm.activeCode.LocationAt(vm.ip),
				StackDepth: vm.sp + 1,
				FrameDepth: vm.fp + 1,
			}
			if !vm.observer.OnStep(event) {
				return fmt.Errorf("execution halted by observer")
			}
		}

		// The instruction pointer advances before execution; jump
		// instructions compute targets from the opcode's own position.
		base := vm.ip
		vm.ip++

		var opErr error

		switch opcode {
		case op.Nop:

		case op.Halt:
			return nil

		// ----- constants and loads -----

		case op.LoadConst:
			idx := int(vm.fetch())
			if obj := vm.activeCode.Constants[idx]; obj != nil {
				vm.push(obj)
				break
			}
			if template, ok := vm.activeCode.FunctionConstant(idx); ok {
				fn := object.NewFunction(template)
				if template.IsArrow() {
					fn = fn.WithBoundThis(vm.activeFrame.this)
				}
				vm.push(fn)
				break
			}
			opErr = vm.evalError("invalid constant at index %d", idx)

		case op.LoadUndefined:
			vm.push(object.Undefined)
		case op.Nil:
			vm.push(object.Null)
		case op.True:
			vm.push(object.True)
		case op.False:
			vm.push(object.False)
		case op.NaNConst:
			vm.push(object.NewNaN())
		case op.Infinity:
			vm.push(object.NewInfinity(false))
		case op.LoadThis:
			vm.push(vm.activeFrame.this)
		case op.LoadArguments:
			vm.push(object.NewArguments(vm.activeFrame.args))

		case op.LoadFast:
			idx := vm.fetch()
			obj := vm.activeFrame.locals[idx]
			if obj == nil {
				opErr = vm.referenceError("cannot access %q before initialization",
					vm.activeCode.LocalNameAt(int(idx)))
				break
			}
			vm.push(obj)

		case op.LoadGlobal:
			idx := vm.fetch()
			obj := vm.activeCode.Globals[idx]
			if obj == nil {
				opErr = vm.referenceError("cannot access %q before initialization",
					vm.activeCode.GlobalNameAt(int(idx)))
				break
			}
			vm.push(obj)

		case op.LoadFree:
			idx := vm.fetch()
			vm.push(vm.activeFrame.fn.FreeVars()[idx].Value())

		case op.LoadName:
			name := vm.activeCode.Names[vm.fetch()]
			if value, ok := vm.globals[name]; ok {
				vm.push(value)
				break
			}
			opErr = vm.undefinedNameError(name)

		case op.LoadNameOrUndefined:
			name := vm.activeCode.Names[vm.fetch()]
			if value, ok := vm.globals[name]; ok {
				vm.push(value)
			} else {
				vm.push(object.Undefined)
			}

		// ----- stores -----

		case op.StoreFast:
			vm.activeFrame.locals[vm.fetch()] = vm.pop()
		case op.StoreGlobal:
			vm.activeCode.Globals[vm.fetch()] = vm.pop()
		case op.StoreFree:
			vm.activeFrame.fn.FreeVars()[vm.fetch()].Set(vm.pop())

		// ----- stack shuffling -----

		case op.PopTop:
			vm.pop()
		case op.Copy:
			offset := vm.fetch()
			vm.push(vm.stack[vm.sp-int(offset)])
		case op.Swap:
			vm.swap(int(vm.fetch()))

		// ----- jumps -----

		case op.JumpForward:
			delta := int(vm.fetch())
			vm.ip = base + delta
		case op.JumpBackward:
			delta := int(vm.fetch())
			vm.ip = base - delta
		case op.PopJumpForwardIfTrue:
			delta := int(vm.fetch())
			if vm.pop().IsTruthy() {
				vm.ip = base + delta
			}
		case op.PopJumpForwardIfFalse:
			delta := int(vm.fetch())
			if !vm.pop().IsTruthy() {
				vm.ip = base + delta
			}
		case op.PopJumpForwardIfNil:
			delta := int(vm.fetch())
			if object.IsNullish(vm.pop()) {
				vm.ip = base + delta
			}
		case op.PopJumpForwardIfNotNil:
			delta := int(vm.fetch())
			if !object.IsNullish(vm.pop()) {
				vm.ip = base + delta
			}
		case op.PopJumpForwardIfNotUndefined:
			delta := int(vm.fetch())
			if vm.pop() != object.Undefined {
				vm.ip = base + delta
			}
		case op.JumpForwardIfNil:
			delta := int(vm.fetch())
			if object.IsNullish(vm.peek()) {
				vm.ip = base + delta
			}

		// ----- operators -----

		case op.BinaryOp:
			opType := op.BinaryOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				opErr = err
				break
			}
			vm.push(result)

		case op.CompareOp:
			opType := op.CompareOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			result, err := object.Compare(opType, a, b)
			if err != nil {
				opErr = err
				break
			}
			vm.push(result)

		case op.UnaryNot:
			vm.push(object.NewBool(!vm.pop().IsTruthy()))

		case op.UnaryNegative:
			obj := vm.pop()
			if b, ok := obj.(*object.BigInt); ok {
				vm.push(object.NewBigInt(new(big.Int).Neg(b.Value())))
				break
			}
			f, err := object.ToNumberValue(obj)
			if err != nil {
				opErr = err
				break
			}
			vm.push(object.NewNumber(-f))

		case op.UnaryPlus:
			obj := vm.pop()
			if n, ok := obj.(*object.Number); ok {
				vm.push(n)
				break
			}
			f, err := object.ToNumberValue(obj)
			if err != nil {
				opErr = err
				break
			}
			vm.push(object.NewNumber(f))

		case op.UnaryBitwiseNot:
			f, err := object.ToNumberValue(vm.pop())
			if err != nil {
				opErr = err
				break
			}
			vm.push(object.NewNumber(float64(^toInt32(f))))

		case op.UnaryTypeof:
			vm.push(object.NewString(object.Typeof(vm.pop())))

		case op.InstanceOf:
			ctor := vm.pop()
			value := vm.pop()
			result, err := vm.instanceOf(value, ctor)
			if err != nil {
				opErr = err
				break
			}
			vm.push(object.NewBool(result))

		case op.ContainsOp:
			vm.fetch() // invert flag, reserved
			container := vm.pop()
			key := vm.pop()
			result, err := vm.containsKey(container, key)
			if err != nil {
				opErr = err
				break
			}
			vm.push(object.NewBool(result))

		// ----- builders -----

		case op.BuildList:
			count := int(vm.fetch())
			items := make([]object.Object, count)
			for i := count - 1; i >= 0; i-- {
				items[i] = vm.pop()
			}
			vm.push(object.NewList(items))

		case op.BuildMap:
			count := int(vm.fetch())
			m := object.NewEmptyMap()
			// Pairs were pushed key-then-value in order.
			pairs := make([]object.Object, count*2)
			for i := count*2 - 1; i >= 0; i-- {
				pairs[i] = vm.pop()
			}
			for i := 0; i < count; i++ {
				key := pairs[i*2]
				value := pairs[i*2+1]
				if err := vm.setMapEntry(ctx, m, key, value); err != nil {
					opErr = err
					break
				}
			}
			if opErr == nil {
				vm.push(m)
			}

		case op.MapSet:
			value := vm.pop()
			key := vm.pop()
			m, ok := vm.peek().(*object.Map)
			if !ok {
				opErr = vm.evalError("MAP_SET target is not an object")
				break
			}
			opErr = vm.setMapEntry(ctx, m, key, value)

		case op.MapMerge:
			src := vm.pop()
			dst, ok := vm.peek().(*object.Map)
			if !ok {
				opErr = vm.evalError("MAP_MERGE target is not an object")
				break
			}
			if object.IsNullish(src) {
				break // spreading null/undefined adds nothing
			}
			srcMap, ok := src.(*object.Map)
			if !ok {
				opErr = vm.typeError("cannot spread a %s into an object", src.Type())
				break
			}
			opErr = dst.Merge(srcMap)

		case op.SetAccessor:
			isGetter := vm.fetch() == 1
			fn := vm.pop()
			key := vm.pop()
			m, ok := vm.peek().(*object.Map)
			if !ok {
				opErr = vm.evalError("SET_ACCESSOR target is not an object")
				break
			}
			opErr = m.SetAccessor(object.ToStringValue(key), fn, isGetter)

		case op.ListAppend:
			item := vm.pop()
			list, ok := vm.peek().(*object.List)
			if !ok {
				opErr = vm.evalError("LIST_APPEND target is not an array")
				break
			}
			list.Append(item)

		case op.ListExtend:
			iterable := vm.pop()
			list, ok := vm.peek().(*object.List)
			if !ok {
				opErr = vm.evalError("LIST_EXTEND target is not an array")
				break
			}
			iter, err := vm.getIterator(ctx, iterable)
			if err != nil {
				opErr = err
				break
			}
			for {
				item, ok := iter.Next(ctx)
				if !ok {
					break
				}
				list.Append(item)
			}
			opErr = iteratorErr(iter)

		case op.BuildString:
			count := int(vm.fetch())
			parts := make([]string, count)
			for i := count - 1; i >= 0; i-- {
				obj := vm.pop()
				if _, ok := obj.(*object.Symbol); ok {
					opErr = vm.typeError("cannot convert a symbol to a string")
				}
				parts[i] = object.ToStringValue(obj)
			}
			if opErr == nil {
				vm.push(object.NewString(strings.Join(parts, "")))
			}

		case op.RestObject:
			count := int(vm.fetch())
			excluded := make([]string, count)
			for i := count - 1; i >= 0; i-- {
				excluded[i] = object.ToStringValue(vm.pop())
			}
			src, ok := vm.pop().(*object.Map)
			if !ok {
				opErr = vm.typeError("cannot collect rest properties of a non-object")
				break
			}
			vm.push(src.CopyWithout(excluded))

		// ----- property access -----

		case op.LoadAttr:
			name := vm.activeCode.Names[vm.fetch()]
			obj := vm.pop()
			value, err := vm.getMember(ctx, obj, name)
			if err != nil {
				opErr = err
				break
			}
			vm.push(value)

		case op.LoadAttrOrNil:
			name := vm.activeCode.Names[vm.fetch()]
			obj := vm.pop()
			if object.IsNullish(obj) {
				vm.push(object.Undefined)
				break
			}
			value, err := vm.getMember(ctx, obj, name)
			if err != nil {
				opErr = err
				break
			}
			vm.push(value)

		case op.StoreAttr:
			name := vm.activeCode.Names[vm.fetch()]
			obj := vm.pop()
			value := vm.pop()
			opErr = vm.setMember(ctx, obj, name, value)

		case op.DeleteAttr:
			name := vm.activeCode.Names[vm.fetch()]
			obj := vm.pop()
			vm.push(object.NewBool(vm.deleteMember(obj, name)))

		case op.DeleteSubscr:
			key := vm.pop()
			obj := vm.pop()
			vm.push(object.NewBool(vm.deleteMember(obj, object.ToStringValue(key))))

		case op.BinarySubscr:
			key := vm.pop()
			obj := vm.pop()
			value, err := vm.getItem(ctx, obj, key)
			if err != nil {
				opErr = err
				break
			}
			vm.push(value)

		case op.StoreSubscr:
			key := vm.pop()
			obj := vm.pop()
			value := vm.pop()
			opErr = vm.setItem(ctx, obj, key, value)

		// ----- iteration -----

		case op.GetIter:
			iter, err := vm.getIterator(ctx, vm.pop())
			if err != nil {
				opErr = err
				break
			}
			vm.push(iter)

		case op.GetAsyncIter:
			iter, err := vm.getAsyncIterator(ctx, vm.pop())
			if err != nil {
				opErr = err
				break
			}
			vm.push(iter)

		case op.GetKeys:
			iter, err := vm.getKeysIterator(vm.pop())
			if err != nil {
				opErr = err
				break
			}
			vm.push(iter)

		case op.ForIter:
			delta := int(vm.fetch())
			vm.fetch() // name count, fixed at one value per step
			iter, ok := vm.peek().(object.Iterator)
			if !ok {
				opErr = vm.evalError("FOR_ITER target is not an iterator")
				break
			}
			value, more := iter.Next(ctx)
			if !more {
				vm.pop()
				if err := iteratorErr(iter); err != nil {
					opErr = err
					break
				}
				vm.ip = base + delta
				break
			}
			vm.push(value)

		case op.IterNext:
			iter, ok := vm.pop().(object.Iterator)
			if !ok {
				opErr = vm.evalError("ITER_NEXT target is not an iterator")
				break
			}
			value, more := iter.Next(ctx)
			if !more {
				if err := iteratorErr(iter); err != nil {
					opErr = err
					break
				}
				vm.push(object.Undefined)
				break
			}
			vm.push(value)

		// ----- calls -----

		case op.Call:
			argc := int(vm.fetch())
			args := vm.popArgs(argc)
			fn := vm.pop()
			opErr = vm.callObject(ctx, fn, object.Undefined, args)

		case op.CallThis:
			argc := int(vm.fetch())
			args := vm.popArgs(argc)
			this := vm.pop()
			fn := vm.pop()
			opErr = vm.callObject(ctx, fn, this, args)

		case op.MemberCall:
			argc := int(vm.fetch())
			args := vm.popArgs(argc)
			key := vm.pop()
			recv := vm.pop()
			fn, err := vm.getItem(ctx, recv, key)
			if err != nil {
				opErr = err
				break
			}
			if object.IsNullish(fn) {
				opErr = vm.typeError("%s.%s is not a function",
					recv.Type(), object.ToStringValue(key))
				break
			}
			opErr = vm.callObject(ctx, fn, recv, args)

		case op.CallSpread:
			argList, ok := vm.pop().(*object.List)
			if !ok {
				opErr = vm.evalError("CALL_SPREAD arguments are not an array")
				break
			}
			this := vm.pop()
			fn := vm.pop()
			opErr = vm.callObject(ctx, fn, this, argList.Value())

		case op.New:
			argc := int(vm.fetch())
			args := vm.popArgs(argc)
			ctor := vm.pop()
			opErr = vm.construct(ctx, ctor, args)

		case op.SuperCall:
			argc := int(vm.fetch())
			args := vm.popArgs(argc)
			parent := vm.activeFrame.fn.Super()
			if parent == nil {
				opErr = vm.typeError("'super' keyword unexpected here")
				break
			}
			this, ok := vm.activeFrame.this.(*object.Map)
			if !ok {
				opErr = vm.typeError("'super' requires an object context")
				break
			}
			if _, err := vm.initInstance(ctx, parent, this, args); err != nil {
				opErr = err
				break
			}
			vm.push(object.Undefined)

		case op.SuperMemberCall:
			name := vm.activeCode.Names[vm.fetch()]
			argc := int(vm.fetch())
			args := vm.popArgs(argc)
			parent := vm.activeFrame.fn.Super()
			if parent == nil {
				opErr = vm.typeError("'super' keyword unexpected here")
				break
			}
			method, found := parent.Prototype().Get(name)
			if !found || !object.Callable(method) {
				opErr = vm.typeError("super.%s is not a function", name)
				break
			}
			opErr = vm.callObject(ctx, method, vm.activeFrame.this, args)

		case op.ReturnValue:
			activeFrame := vm.activeFrame
			if vm.observer != nil {
				event := ReturnEvent{
					FunctionName: activeFrame.Name(),
					Location:     vm.getCurrentLocation(),
					FrameDepth:   vm.fp,
				}
				if !vm.observer.OnReturn(event) {
					return fmt.Errorf("execution halted by observer")
				}
			}
			vm.dropFrameHandlers()
			returnAddr := activeFrame.returnAddr
			returnSp := activeFrame.returnSp
			vm.resumeFrame(vm.fp-1, returnAddr, returnSp)
			if returnAddr == StopSignal {
				return nil
			}

		// ----- closures -----

		case op.MakeCell:
			symbolIndex := vm.fetch()
			framesBack := int(vm.fetch())
			frameIndex := vm.fp - framesBack
			if frameIndex < 0 {
				opErr = vm.evalError("no frame at depth %d", framesBack)
				break
			}
			f := &vm.frames[frameIndex]
			cell := object.NewCell(&f.locals[symbolIndex])
			vm.heap.Track(cell)
			vm.heap.AddRoot(cell)
			f.cells = append(f.cells, cell)
			vm.push(cell)

		case op.PushFreeCell:
			idx := vm.fetch()
			vm.push(vm.activeFrame.fn.FreeVars()[idx])

		case op.LoadClosure:
			constIndex := int(vm.fetch())
			freeCount := int(vm.fetch())
			free := make([]*object.Cell, freeCount)
			for i := freeCount - 1; i >= 0; i-- {
				cell, ok := vm.pop().(*object.Cell)
				if !ok {
					opErr = vm.evalError("expected cell")
					break
				}
				free[i] = cell
			}
			if opErr != nil {
				break
			}
			template, ok := vm.activeCode.FunctionConstant(constIndex)
			if !ok {
				opErr = vm.evalError("invalid closure constant")
				break
			}
			closure := object.NewClosure(template, free)
			if template.IsArrow() {
				closure = closure.WithBoundThis(vm.activeFrame.this)
			}
			// Cells held by a closure stay reachable regardless of the
			// creating scope's lifetime.
			for _, cell := range free {
				vm.heap.MarkInternal(cell)
			}
			vm.push(closure)

		case op.BuildClass:
			opErr = vm.buildClass(int(vm.fetch()))

		// ----- exceptions -----

		case op.PushExcept:
			catchOff := int(vm.fetch())
			finallyOff := int(vm.fetch())
			h := tryHandler{fp: vm.fp, sp: vm.sp, state: handlerInTry}
			if catchOff > 0 {
				h.catchPC = base + catchOff
			}
			if finallyOff > 0 {
				h.finallyPC = base + finallyOff
			}
			vm.handlers = append(vm.handlers, h)

		case op.PopExcept:
			if len(vm.handlers) == 0 {
				opErr = vm.evalError("POP_EXCEPT with no active handler")
				break
			}
			vm.handlers = vm.handlers[:len(vm.handlers)-1]

		case op.Throw:
			exc := vm.prepareException(object.Thrown(vm.pop()))
			if !vm.raise(exc) {
				return exc
			}

		case op.EndFinally:
			if len(vm.handlers) == 0 {
				opErr = vm.evalError("END_FINALLY with no active handler")
				break
			}
			h := vm.handlers[len(vm.handlers)-1]
			vm.handlers = vm.handlers[:len(vm.handlers)-1]
			if h.pending != nil {
				if !vm.raise(h.pending) {
					return h.pending
				}
			}

		// ----- coroutines -----

		case op.Yield:
			value := vm.pop()
			return &yieldSignal{task: object.NewTask(value, vm.ip)}

		case op.YieldDelegate:
			value := vm.pop()
			return &yieldSignal{task: object.NewTask(value, vm.ip)}

		case op.Await:
			return &awaitSignal{value: vm.pop()}

		// ----- modules -----

		case op.ResolveModule:
			idx := int(vm.fetch())
			name, _ := vm.activeCode.Constants[idx].(*object.String)
			if vm.moduleResolver == nil {
				opErr = vm.typeError("module imports are disabled")
				break
			}
			module, err := vm.moduleResolver(ctx, name.Value())
			if err != nil {
				opErr = err
				break
			}
			vm.push(module)

		default:
			opErr = vm.evalError("unknown opcode: %d", opcode)
		}

		if opErr != nil {
			exc := vm.prepareException(opErr)
			if !vm.raise(exc) {
				vm.dropFrameHandlers()
				return exc
			}
		}
	}
	return nil
}

func (vm *VirtualMachine) popArgs(argc int) []object.Object {
	args := make([]object.Object, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	return args
}

// undefinedNameError builds a ReferenceError with "did you mean"
// suggestions drawn from the host globals and the program's own globals.
func (vm *VirtualMachine) undefinedNameError(name string) *object.Exception {
	candidates := make([]string, 0, len(vm.globals))
	for candidate := range vm.globals {
		candidates = append(candidates, candidate)
	}
	if vm.activeCode != nil {
		candidates = append(candidates, vm.activeCode.GlobalNames()...)
	}
	exc := vm.referenceError("%s is not defined", name)
	if suggestions := errz.SuggestSimilar(name, candidates); len(suggestions) > 0 {
		exc.Err().Message += ". " + errz.FormatSuggestions(suggestions)
	}
	return exc
}

// iteratorErr surfaces an error captured by an iterator whose underlying
// producer (e.g. a generator body) failed mid-iteration.
func iteratorErr(iter object.Iterator) error {
	if e, ok := iter.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(f)))
}
