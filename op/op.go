// Package op defines the opcodes emitted by the compiler and executed by
// the virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop             Code = 1
	Halt            Code = 2
	Call            Code = 3
	ReturnValue     Code = 4
	SuperCall       Code = 5  // Call the parent-class constructor with the current `this`
	SuperMemberCall Code = 6  // Call a parent-prototype method with the current `this`
	CallSpread      Code = 7  // Call with args from a list on the stack; `this` beneath the callee
	CallThis        Code = 19 // Call with an explicit `this` pushed between callee and args
	New             Code = 8  // Construct: TOS-n..TOS-1 are args, TOS-n-1 is constructor
	MemberCall      Code = 9  // Call with `this` bound: receiver and key pushed ahead of args

	// Jump
	JumpBackward                 Code = 10
	JumpForward                  Code = 11
	PopJumpForwardIfFalse        Code = 12
	PopJumpForwardIfTrue         Code = 13
	PopJumpForwardIfNotNil       Code = 14 // "nil" here means null or undefined (nullish)
	PopJumpForwardIfNil          Code = 15
	JumpForwardIfNil             Code = 16 // Like PopJumpForwardIfNil but does not pop (optional-chain short circuit)
	PopJumpForwardIfNotUndefined Code = 17 // Destructuring/parameter defaults trigger on undefined only

	// Load
	LoadAttr            Code = 20
	LoadFast            Code = 21
	LoadFree            Code = 22
	LoadGlobal          Code = 23
	LoadConst           Code = 24
	LoadAttrOrNil       Code = 25 // Like LoadAttr but pushes undefined instead of failing
	LoadUndefined       Code = 26
	LoadThis            Code = 27
	LoadName            Code = 28 // Late-bound host-global lookup; ReferenceError when absent
	LoadNameOrUndefined Code = 29 // Same but pushes undefined when absent (typeof operand)
	LoadArguments       Code = 18 // Push the active frame's arguments object

	// Store
	StoreAttr    Code = 30
	StoreFast    Code = 31
	StoreFree    Code = 32
	StoreGlobal  Code = 33
	DeleteAttr   Code = 34
	DeleteSubscr Code = 35 // delete obj[key]; pushes a boolean

	// Operations
	BinaryOp        Code = 40
	CompareOp       Code = 41
	UnaryNegative   Code = 42
	UnaryNot        Code = 43
	UnaryTypeof     Code = 44
	UnaryBitwiseNot Code = 45
	UnaryPlus       Code = 46 // ToNumber coercion
	InstanceOf      Code = 47

	// Build
	BuildList   Code = 50
	BuildMap    Code = 51
	BuildString Code = 53
	ListAppend  Code = 54 // Append TOS to list at TOS-1
	ListExtend  Code = 55 // Extend list at TOS-1 with iterable at TOS
	MapMerge    Code = 56 // Spread map at TOS into map at TOS-1
	MapSet      Code = 57 // Set key (TOS-1) to value (TOS) in map at TOS-2
	SetAccessor Code = 58 // Attach accessor (TOS) under key (TOS-1) on map at TOS-2; operand 1=getter 0=setter
	BuildClass  Code = 59 // Fabricate a class from stacked closures and a class template constant

	// Containers
	BinarySubscr Code = 60
	StoreSubscr  Code = 61
	ContainsOp   Code = 62 // `in` operator: property membership
	GetKeys      Code = 66 // Iterator over enumerable own keys, for for-in
	RestObject   Code = 67 // Copy TOS-n object minus n excluded key names into a fresh object

	// Stack
	Swap   Code = 70
	Copy   Code = 71
	PopTop Code = 72

	// Push constants
	Nil      Code = 80 // the null entity
	False    Code = 81
	True     Code = 82
	NaNConst Code = 83
	Infinity Code = 84

	// Iteration (iterator-protocol driven for-of / for-in / spread / rest)
	ForIter      Code = 90
	GetIter      Code = 91
	GetAsyncIter Code = 92 // Async-iteration setup: prefers @@asyncIterator, wraps sync iterables
	IterNext     Code = 93 // Drive one step of the iterator protocol; pushes undefined when exhausted

	// Closures
	LoadClosure  Code = 120
	MakeCell     Code = 121
	PushFreeCell Code = 122 // Re-push an already-captured cell from the active closure

	// Exception handling. PushExcept's operands are the catch offset and
	// the finally offset, relative to the PushExcept instruction (either
	// may be zero to mean "none").
	PushExcept Code = 140
	PopExcept  Code = 141
	Throw      Code = 142
	EndFinally Code = 143

	// Coroutines
	Yield         Code = 150 // Suspend, yielding TOS; resumes with the value passed to next()
	YieldDelegate Code = 151 // The suspension inside a compiled yield* delegation loop
	Await         Code = 153 // Suspend until the awaited promise settles

	// Modules (import/export parse only; resolution is a host hook)
	ResolveModule Code = 160
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add        BinaryOpType = 1
	Subtract   BinaryOpType = 2
	Multiply   BinaryOpType = 3
	Divide     BinaryOpType = 4
	Modulo     BinaryOpType = 5
	And        BinaryOpType = 6
	Or         BinaryOpType = 7
	Xor        BinaryOpType = 8
	Power      BinaryOpType = 9
	LShift     BinaryOpType = 10
	RShift     BinaryOpType = 11
	URShift    BinaryOpType = 12
	BitwiseAnd BinaryOpType = 13
	BitwiseOr  BinaryOpType = 14
	Nullish    BinaryOpType = 15
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case And:
		return "&&"
	case Or:
		return "||"
	case Xor:
		return "^"
	case Power:
		return "**"
	case LShift:
		return "<<"
	case RShift:
		return ">>"
	case URShift:
		return ">>>"
	case BitwiseAnd:
		return "&"
	case BitwiseOr:
		return "|"
	case Nullish:
		return "??"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
	StrictEqual        CompareOpType = 7
	StrictNotEqual     CompareOpType = 8
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case StrictEqual:
		return "==="
	case StrictNotEqual:
		return "!=="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{Await, "AWAIT", 0},
		{BinaryOp, "BINARY_OP", 1},
		{BinarySubscr, "BINARY_SUBSCR", 0},
		{BuildClass, "BUILD_CLASS", 1},
		{BuildList, "BUILD_LIST", 1},
		{BuildMap, "BUILD_MAP", 1},
		{BuildString, "BUILD_STRING", 1},
		{Call, "CALL", 1},
		{CallSpread, "CALL_SPREAD", 0},
		{CallThis, "CALL_THIS", 1},
		{CompareOp, "COMPARE_OP", 1},
		{ContainsOp, "CONTAINS_OP", 1},
		{Copy, "COPY", 1},
		{DeleteAttr, "DELETE_ATTR", 1},
		{DeleteSubscr, "DELETE_SUBSCR", 0},
		{EndFinally, "END_FINALLY", 0},
		{False, "FALSE", 0},
		{ForIter, "FOR_ITER", 2},
		{GetAsyncIter, "GET_ASYNC_ITER", 0},
		{GetIter, "GET_ITER", 0},
		{GetKeys, "GET_KEYS", 0},
		{Halt, "HALT", 0},
		{Infinity, "INFINITY", 0},
		{InstanceOf, "INSTANCEOF", 0},
		{IterNext, "ITER_NEXT", 0},
		{JumpBackward, "JUMP_BACKWARD", 1},
		{JumpForward, "JUMP_FORWARD", 1},
		{JumpForwardIfNil, "JUMP_FORWARD_IF_NIL", 1},
		{ListAppend, "LIST_APPEND", 0},
		{ListExtend, "LIST_EXTEND", 0},
		{LoadArguments, "LOAD_ARGUMENTS", 0},
		{LoadAttr, "LOAD_ATTR", 1},
		{LoadAttrOrNil, "LOAD_ATTR_OR_NIL", 1},
		{LoadClosure, "LOAD_CLOSURE", 2},
		{LoadConst, "LOAD_CONST", 1},
		{LoadFast, "LOAD_FAST", 1},
		{LoadFree, "LOAD_FREE", 1},
		{LoadGlobal, "LOAD_GLOBAL", 1},
		{LoadName, "LOAD_NAME", 1},
		{LoadNameOrUndefined, "LOAD_NAME_OR_UNDEFINED", 1},
		{LoadThis, "LOAD_THIS", 0},
		{LoadUndefined, "LOAD_UNDEFINED", 0},
		{MakeCell, "MAKE_CELL", 2},
		{MapMerge, "MAP_MERGE", 0},
		{MapSet, "MAP_SET", 0},
		{MemberCall, "MEMBER_CALL", 1},
		{NaNConst, "NAN", 0},
		{New, "NEW", 1},
		{Nil, "NIL", 0},
		{Nop, "NOP", 0},
		{PopExcept, "POP_EXCEPT", 0},
		{PopJumpForwardIfFalse, "POP_JUMP_FORWARD_IF_FALSE", 1},
		{PopJumpForwardIfNil, "POP_JUMP_FORWARD_IF_NIL", 1},
		{PopJumpForwardIfNotNil, "POP_JUMP_FORWARD_IF_NOT_NIL", 1},
		{PopJumpForwardIfNotUndefined, "POP_JUMP_FORWARD_IF_NOT_UNDEFINED", 1},
		{PopJumpForwardIfTrue, "POP_JUMP_FORWARD_IF_TRUE", 1},
		{PopTop, "POP_TOP", 0},
		{PushExcept, "PUSH_EXCEPT", 2},
		{PushFreeCell, "PUSH_FREE_CELL", 1},
		{ResolveModule, "RESOLVE_MODULE", 1},
		{RestObject, "REST_OBJECT", 1},
		{ReturnValue, "RETURN_VALUE", 0},
		{SetAccessor, "SET_ACCESSOR", 1},
		{StoreAttr, "STORE_ATTR", 1},
		{StoreFast, "STORE_FAST", 1},
		{StoreFree, "STORE_FREE", 1},
		{StoreGlobal, "STORE_GLOBAL", 1},
		{StoreSubscr, "STORE_SUBSCR", 0},
		{SuperCall, "SUPER_CALL", 1},
		{SuperMemberCall, "SUPER_MEMBER_CALL", 2},
		{Swap, "SWAP", 1},
		{Throw, "THROW", 0},
		{True, "TRUE", 0},
		{UnaryBitwiseNot, "UNARY_BITWISE_NOT", 0},
		{UnaryNegative, "UNARY_NEGATIVE", 0},
		{UnaryNot, "UNARY_NOT", 0},
		{UnaryPlus, "UNARY_PLUS", 0},
		{UnaryTypeof, "UNARY_TYPEOF", 0},
		{Yield, "YIELD", 0},
		{YieldDelegate, "YIELD_DELEGATE", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}
