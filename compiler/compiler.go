// Package compiler lowers an abstract syntax tree (AST) into the
// corresponding bytecode.
//
// # Declaration Hoisting
//
// Each function (and the program root) is compiled with a hoisting
// preamble, matching the surface language's declaration semantics:
//
//   - `var` names are collected from the whole function body (without
//     descending into nested functions), declared in the function's
//     symbol table, and initialized to undefined up front.
//   - Function declarations are compiled and stored at the top of their
//     enclosing block, so mutually recursive functions can call each
//     other regardless of their order in the source.
//   - `let`/`const` names are declared where their statement appears and
//     start in the temporal dead zone: their storage slot stays empty
//     until the declaration executes, and the VM raises a ReferenceError
//     for a load from an empty slot.
//
// # Symbol Scopes
//
// The compiler tracks three variable scopes:
//
//   - Global: module-level variables, accessed via LoadGlobal/StoreGlobal
//   - Local: function-local variables, accessed via LoadFast/StoreFast
//   - Free: captured closure variables, accessed via LoadFree/StoreFree
//
// The scope table handles resolution and records which variables are
// captured by nested functions. Captures are transitive: every function
// between a reference and its declaration captures the variable, so the
// MakeCell/PushFreeCell pair emitted at closure-creation time only ever
// reaches one frame outward.
package compiler

import (
	"fmt"
	"math"

	"github.com/juniper-lang/juniper/ast"
	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/errz"
	"github.com/juniper-lang/juniper/internal/scope"
	"github.com/juniper-lang/juniper/internal/token"
	"github.com/juniper-lang/juniper/op"
)

const (
	// MaxArgs is the maximum number of arguments a function can have.
	MaxArgs = 255

	// Placeholder is a temporary operand written during compilation,
	// always replaced before compilation is complete.
	Placeholder = uint16(math.MaxUint16)
)

// Compiler lowers an AST into its corresponding bytecode.
type Compiler struct {
	// The entrypoint code we are compiling. This remains fixed throughout
	// the compilation process.
	main *Code

	// The current code we are compiling into. This changes as we enter
	// and leave functions.
	current *Code

	// Names of globals available during compilation
	globalNames []string

	// Increments with each function compiled
	funcIndex int

	filename string
	source   string

	// Current AST node being compiled (used for source-map tracking)
	currentNode ast.Node

	// Innermost-last stack of breakable constructs (loops, switches,
	// labelled statements).
	breakables []*breakable

	// Innermost-last stack of enclosing try regions in the current
	// function, used to inline finally bodies on break/continue/return.
	tryRegions []*tryRegion

	// Optional-chain context; non-nil while compiling inside a chain.
	chain *chainContext
}

type breakable struct {
	label         string
	isLoop        bool
	hasIterator   bool // an iterator lives on the stack for this loop's duration
	breakJumps    []int
	continueJumps []int
	tryDepth      int
}

type tryRegion struct {
	finallyBlock *ast.Block
}

type chainContext struct {
	// nilJumps are JumpForwardIfNil positions whose shared cleanup pops
	// the nullish base and pushes undefined.
	nilJumps []int
	// doneJumps jump straight to the chain end with the result already
	// on the stack.
	doneJumps []int
}

// Config holds compiler configuration options.
type Config struct {
	// GlobalNames are the names of global variables available during
	// compilation, typically the keys of the globals map given to the VM.
	GlobalNames []string

	// Filename is the source filename, used for error messages.
	Filename string

	// Source is the original source code, used for error messages and
	// function source slices.
	Source string
}

// Compile compiles an AST in one call and returns the immutable bytecode.
func Compile(node *ast.Program, cfg *Config) (*bytecode.Code, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	code, err := c.CompileAST(node)
	if err != nil {
		return nil, err
	}
	return code.ToBytecode(), nil
}

// New creates a Compiler with the given configuration.
func New(cfg *Config) (*Compiler, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	symbols := scope.New()
	for _, name := range cfg.GlobalNames {
		if !symbols.IsDefined(name) {
			if _, err := symbols.Insert(name, scope.KindVar, true); err != nil {
				return nil, err
			}
		}
	}
	main := &Code{
		id:       "root",
		symbols:  symbols,
		source:   cfg.Source,
		filename: cfg.Filename,
	}
	return &Compiler{
		main:        main,
		current:     main,
		globalNames: cfg.GlobalNames,
		filename:    cfg.Filename,
		source:      cfg.Source,
	}, nil
}

// Code returns the mutable entrypoint code.
func (c *Compiler) Code() *Code {
	return c.main
}

// CompileAST compiles the program into the entrypoint code. The value of
// the program's final expression statement is left on the stack as the
// run result.
func (c *Compiler) CompileAST(program *ast.Program) (*Code, error) {
	nodes := make([]ast.Node, len(program.Stmts))
	for i, s := range program.Stmts {
		nodes[i] = s
	}
	if err := c.hoistVars(nodes); err != nil {
		return nil, err
	}
	if err := c.compileStatementNodes(nodes, true); err != nil {
		return nil, err
	}
	return c.main, nil
}

// compileStatementNodes compiles a statement list with hoisting: function
// declarations are compiled and stored before the other statements run,
// so mutually recursive functions work regardless of source order. When
// keepLast is set (program root), the final expression statement's value
// stays on the stack.
func (c *Compiler) compileStatementNodes(list []ast.Node, keepLast bool) error {
	// Hoist function declarations for this block.
	hoisted := map[ast.Node]bool{}
	for _, node := range list {
		fn, ok := node.(*ast.FunctionLit)
		if !ok || fn.Name == nil {
			continue
		}
		if !c.current.symbols.IsDefined(fn.Name.Name) {
			if _, err := c.current.symbols.Insert(fn.Name.Name, scope.KindFunction, true); err != nil {
				return c.formatError(err.Error(), fn.Pos())
			}
		}
	}
	for _, node := range list {
		fn, ok := node.(*ast.FunctionLit)
		if !ok || fn.Name == nil {
			continue
		}
		if err := c.compileFunctionDecl(fn); err != nil {
			return err
		}
		hoisted[node] = true
	}

	lastValueIdx := -1
	if keepLast {
		for i := len(list) - 1; i >= 0; i-- {
			if hoisted[list[i]] {
				continue
			}
			if _, ok := list[i].(*ast.ExprStmt); ok {
				lastValueIdx = i
			}
			break
		}
	}

	for i, node := range list {
		if hoisted[node] {
			continue
		}
		if expr, ok := node.(*ast.ExprStmt); ok {
			if err := c.compile(expr.X); err != nil {
				return err
			}
			if i != lastValueIdx {
				c.emit(op.PopTop)
			}
			continue
		}
		// A named class in statement position is a declaration.
		if class, ok := node.(*ast.ClassLit); ok && class.Name != nil {
			if err := c.declareName(class.Name.Name, ast.DeclLet, class.Pos()); err != nil {
				return err
			}
			if err := c.compile(class); err != nil {
				return err
			}
			if err := c.storeName(class.Name.Name, class.Pos(), true); err != nil {
				return err
			}
			continue
		}
		if err := c.compile(node); err != nil {
			return err
		}
	}
	return nil
}

// compile dispatches on the node kind. Expressions leave exactly one
// value on the stack; statements leave none.
func (c *Compiler) compile(node ast.Node) error {
	prev := c.currentNode
	c.currentNode = node
	defer func() { c.currentNode = prev }()

	switch node := node.(type) {
	// Literals
	case *ast.NumberLit:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.BigIntLit:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.StringLit:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.BoolLit:
		if node.Value {
			c.emit(op.True)
		} else {
			c.emit(op.False)
		}
	case *ast.NullLit:
		c.emit(op.Nil)
	case *ast.UndefinedLit:
		c.emit(op.LoadUndefined)
	case *ast.RegexLit:
		return c.compileRegex(node)
	case *ast.TemplateLit:
		return c.compileTemplate(node)
	case *ast.TaggedTemplate:
		return c.compileTaggedTemplate(node)
	case *ast.Ident:
		return c.compileIdent(node, false)
	case *ast.This:
		c.emit(op.LoadThis)
	case *ast.Super:
		return c.formatError("super is only valid in method calls", node.Pos())
	case *ast.ArrayLit:
		return c.compileArrayLit(node)
	case *ast.ObjectLit:
		return c.compileObjectLit(node)
	case *ast.FunctionLit:
		return c.compileFunctionValue(node, "")
	case *ast.ArrowFunctionLit:
		return c.compileArrowValue(node, "")
	case *ast.ClassLit:
		return c.compileClassValue(node)

	// Expressions
	case *ast.Prefix:
		return c.compilePrefix(node)
	case *ast.Update:
		return c.compileUpdate(node)
	case *ast.Infix:
		return c.compileInfix(node)
	case *ast.Logical:
		return c.compileLogical(node)
	case *ast.Conditional:
		return c.compileConditional(node)
	case *ast.Assign:
		return c.compileAssign(node)
	case *ast.Sequence:
		return c.compileSequence(node)
	case *ast.Call:
		return c.compileCall(node)
	case *ast.New:
		return c.compileNew(node)
	case *ast.GetAttr:
		return c.compileGetAttr(node)
	case *ast.Yield:
		return c.compileYield(node)
	case *ast.Await:
		return c.compileAwait(node)
	case *ast.Spread:
		return c.formatError("unexpected spread element", node.Pos())

	// Statements
	case *ast.ExprStmt:
		if err := c.compile(node.X); err != nil {
			return err
		}
		c.emit(op.PopTop)
	case *ast.VarDecl:
		return c.compileVarDecl(node)
	case *ast.Block:
		return c.compileBlock(node)
	case *ast.If:
		return c.compileIf(node)
	case *ast.While:
		return c.compileWhile(node, "")
	case *ast.DoWhile:
		return c.compileDoWhile(node, "")
	case *ast.For:
		return c.compileFor(node, "")
	case *ast.ForIn:
		return c.compileForIn(node, "")
	case *ast.ForOf:
		return c.compileForOf(node, "")
	case *ast.Return:
		return c.compileReturn(node)
	case *ast.Break:
		return c.compileBreak(node)
	case *ast.Continue:
		return c.compileContinue(node)
	case *ast.Labeled:
		return c.compileLabeled(node)
	case *ast.Switch:
		return c.compileSwitch(node, "")
	case *ast.Try:
		return c.compileTry(node)
	case *ast.Throw:
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.Throw)
	case *ast.Debugger:
		c.emit(op.Nop)
	case *ast.Empty:
		// nothing
	case *ast.ImportDecl:
		return c.compileImport(node)
	case *ast.ExportDecl:
		return c.compileExport(node)
	case *ast.BadStmt, *ast.BadExpr:
		return c.formatError("cannot compile code containing syntax errors", node.Pos())
	default:
		return c.formatError(fmt.Sprintf("unknown ast node type: %T", node), node.Pos())
	}
	return nil
}

func (c *Compiler) currentPosition() int {
	return len(c.current.instructions)
}

// ---------------------------------------------------------------------------
// Identifiers, loads, and stores

func (c *Compiler) compileIdent(node *ast.Ident, forTypeof bool) error {
	name := node.Name
	resolution, found := c.current.symbols.Resolve(name)
	if found {
		c.emitLoad(resolution)
		return nil
	}
	switch name {
	case "arguments":
		if !c.current.IsRoot() {
			c.emit(op.LoadArguments)
			return nil
		}
	case "NaN":
		c.emit(op.NaNConst)
		return nil
	case "Infinity":
		c.emit(op.Infinity)
		return nil
	}
	// Late-bound host global: resolved by name at run time, raising a
	// ReferenceError (with suggestions) when absent.
	if forTypeof {
		c.emit(op.LoadNameOrUndefined, c.current.addName(name))
	} else {
		c.emit(op.LoadName, c.current.addName(name))
	}
	return nil
}

func (c *Compiler) emitLoad(resolution *scope.Resolution) {
	sym := resolution.Symbol
	switch resolution.ScopeKind {
	case scope.Global:
		c.emit(op.LoadGlobal, sym.Index())
	case scope.Local:
		c.emit(op.LoadFast, sym.Index())
	case scope.Free:
		c.emit(op.LoadFree, uint16(resolution.FreeIndex))
	}
}

func (c *Compiler) emitStore(resolution *scope.Resolution) {
	sym := resolution.Symbol
	switch resolution.ScopeKind {
	case scope.Global:
		c.emit(op.StoreGlobal, sym.Index())
	case scope.Local:
		c.emit(op.StoreFast, sym.Index())
	case scope.Free:
		c.emit(op.StoreFree, uint16(resolution.FreeIndex))
	}
}

// storeName resolves and stores TOS into an existing binding, enforcing
// const immutability.
func (c *Compiler) storeName(name string, pos token.Position, isInit bool) error {
	if scope.IsBlankIdentifier(name) {
		c.emit(op.PopTop)
		return nil
	}
	resolution, found := c.current.symbols.Resolve(name)
	if !found {
		// Assignment to an undeclared name creates a global, the way
		// sloppy-mode assignment does.
		sym, err := rootTable(c.current.symbols).Insert(name, scope.KindVar, true)
		if err != nil {
			return c.formatError(err.Error(), pos)
		}
		c.emit(op.StoreGlobal, sym.Index())
		return nil
	}
	if resolution.Symbol.IsConstant() && !isInit {
		return c.formatError(
			fmt.Sprintf("assignment to constant variable %q", name), pos)
	}
	c.emitStore(resolution)
	return nil
}

// ---------------------------------------------------------------------------
// Declarations

func (c *Compiler) compileVarDecl(node *ast.VarDecl) error {
	for _, decl := range node.Decls {
		switch target := decl.Target.(type) {
		case *ast.Ident:
			if err := c.declareName(target.Name, node.Kind, target.Pos()); err != nil {
				return err
			}
			if decl.Init == nil {
				if node.Kind != ast.DeclVar {
					// let x; initializes to undefined (ends the TDZ)
					c.emit(op.LoadUndefined)
					if err := c.storeName(target.Name, target.Pos(), true); err != nil {
						return err
					}
				}
				continue
			}
			if err := c.compileNamed(decl.Init, target.Name); err != nil {
				return err
			}
			if err := c.storeName(target.Name, target.Pos(), true); err != nil {
				return err
			}
		default:
			// Destructuring declaration: declare every bound leaf, then
			// evaluate the initializer and destructure into them.
			if err := c.declarePatternNames(decl.Target, node.Kind); err != nil {
				return err
			}
			if err := c.compile(decl.Init); err != nil {
				return err
			}
			if err := c.compileDestructure(decl.Target, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) declareName(name string, kind ast.DeclKind, pos token.Position) error {
	table := c.current.symbols
	if kind == ast.DeclVar {
		table = table.LocalTable()
		if table.IsDefined(name) {
			return nil // var redeclaration is legal
		}
	}
	symKind := scope.KindVar
	initialized := true
	switch kind {
	case ast.DeclLet:
		symKind, initialized = scope.KindLet, false
	case ast.DeclConst:
		symKind, initialized = scope.KindConst, false
	}
	if _, err := table.Insert(name, symKind, initialized); err != nil {
		return c.formatError(err.Error(), pos)
	}
	return nil
}

func (c *Compiler) declarePatternNames(pattern ast.Pattern, kind ast.DeclKind) error {
	for _, ident := range patternIdents(pattern) {
		if err := c.declareName(ident.Name, kind, ident.Pos()); err != nil {
			return err
		}
	}
	return nil
}

// patternIdents returns the identifiers a pattern binds, in source order.
func patternIdents(pattern ast.Pattern) []*ast.Ident {
	var out []*ast.Ident
	switch p := pattern.(type) {
	case *ast.Ident:
		out = append(out, p)
	case *ast.AssignmentPattern:
		out = append(out, patternIdents(p.Target)...)
	case *ast.RestElement:
		out = append(out, patternIdents(p.Target)...)
	case *ast.ArrayPattern:
		for _, elem := range p.Elements {
			if elem != nil {
				out = append(out, patternIdents(elem)...)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range p.Props {
			out = append(out, patternIdents(prop.Value)...)
		}
		if p.Rest != nil {
			out = append(out, patternIdents(p.Rest.Target)...)
		}
	}
	return out
}

// compileNamed compiles an initializer expression, naming anonymous
// function and class values after their binding.
func (c *Compiler) compileNamed(init ast.Expr, name string) error {
	switch init := init.(type) {
	case *ast.FunctionLit:
		if init.Name == nil {
			return c.compileFunctionValue(init, name)
		}
	case *ast.ArrowFunctionLit:
		return c.compileArrowValue(init, name)
	}
	return c.compile(init)
}

// ---------------------------------------------------------------------------
// Destructuring
//
// compileDestructure consumes the value on TOS and stores it into the
// pattern's targets. When declaring is true, Ident leaves bind their
// (already-declared) symbols; otherwise they resolve as assignments.

func (c *Compiler) compileDestructure(pattern ast.Pattern, declaring bool) error {
	switch p := pattern.(type) {
	case *ast.Ident:
		return c.storeName(p.Name, p.Pos(), declaring)
	case *ast.AssignmentPattern:
		// Replace undefined with the default before storing.
		c.emit(op.Copy, 0)
		jump := c.emit(op.PopJumpForwardIfNotUndefined, Placeholder)
		c.emit(op.PopTop)
		if err := c.compile(p.Default); err != nil {
			return err
		}
		c.patchJump(jump)
		return c.compileDestructure(p.Target, declaring)
	case *ast.ArrayPattern:
		return c.compileArrayDestructure(p, declaring)
	case *ast.ObjectPattern:
		return c.compileObjectDestructure(p, declaring)
	default:
		return c.formatError("invalid destructuring target", pattern.Pos())
	}
}

func (c *Compiler) compileArrayDestructure(p *ast.ArrayPattern, declaring bool) error {
	c.emit(op.GetIter)
	for _, elem := range p.Elements {
		if rest, ok := elem.(*ast.RestElement); ok {
			// Drain the remaining elements into a fresh array.
			c.emit(op.BuildList, 0)
			c.emit(op.Swap, 1)
			c.emit(op.ListExtend)
			return c.compileDestructure(rest.Target, declaring)
		}
		c.emit(op.Copy, 0)
		c.emit(op.IterNext)
		if elem == nil {
			c.emit(op.PopTop) // elision skips the element
			continue
		}
		if err := c.compileDestructure(elem, declaring); err != nil {
			return err
		}
	}
	c.emit(op.PopTop) // discard the iterator
	return nil
}

func (c *Compiler) compileObjectDestructure(p *ast.ObjectPattern, declaring bool) error {
	var plainKeys []string
	for _, prop := range p.Props {
		c.emit(op.Copy, 0)
		if prop.Computed {
			if err := c.compile(prop.Key); err != nil {
				return err
			}
		} else {
			name, err := propertyKeyName(prop.Key)
			if err != nil {
				return c.formatError(err.Error(), prop.Key.Pos())
			}
			plainKeys = append(plainKeys, name)
			c.emit(op.LoadConst, c.constant(name))
		}
		c.emit(op.BinarySubscr)
		if err := c.compileDestructure(prop.Value, declaring); err != nil {
			return err
		}
	}
	if p.Rest != nil {
		for _, name := range plainKeys {
			c.emit(op.LoadConst, c.constant(name))
		}
		c.emit(op.RestObject, uint16(len(plainKeys)))
		return c.compileDestructure(p.Rest.Target, declaring)
	}
	c.emit(op.PopTop) // discard the source object
	return nil
}

// propertyKeyName extracts the literal name of a non-computed key.
func propertyKeyName(key ast.Expr) (string, error) {
	switch key := key.(type) {
	case *ast.Ident:
		return key.Name, nil
	case *ast.StringLit:
		return key.Value, nil
	case *ast.NumberLit:
		return key.Raw, nil
	default:
		return "", fmt.Errorf("invalid property key")
	}
}

// ---------------------------------------------------------------------------
// Operators

func (c *Compiler) compilePrefix(node *ast.Prefix) error {
	switch node.Op {
	case "typeof":
		if ident, ok := node.X.(*ast.Ident); ok {
			if err := c.compileIdent(ident, true); err != nil {
				return err
			}
		} else if err := c.compile(node.X); err != nil {
			return err
		}
		c.emit(op.UnaryTypeof)
		return nil
	case "void":
		if err := c.compile(node.X); err != nil {
			return err
		}
		c.emit(op.PopTop)
		c.emit(op.LoadUndefined)
		return nil
	case "delete":
		return c.compileDelete(node)
	}
	if err := c.compile(node.X); err != nil {
		return err
	}
	switch node.Op {
	case "!":
		c.emit(op.UnaryNot)
	case "-":
		c.emit(op.UnaryNegative)
	case "+":
		c.emit(op.UnaryPlus)
	case "~":
		c.emit(op.UnaryBitwiseNot)
	default:
		return c.formatError(fmt.Sprintf("unknown prefix operator %q", node.Op), node.Pos())
	}
	return nil
}

func (c *Compiler) compileDelete(node *ast.Prefix) error {
	attr, ok := node.X.(*ast.GetAttr)
	if !ok {
		return c.formatError("cannot delete an unqualified name", node.Pos())
	}
	if err := c.compile(attr.X); err != nil {
		return err
	}
	if attr.Computed {
		if err := c.compileOperand(attr.Prop); err != nil {
			return err
		}
		c.emit(op.DeleteSubscr)
		return nil
	}
	c.emit(op.DeleteAttr, c.current.addName(attr.Attr.Name))
	return nil
}

var binaryOps = map[string]op.BinaryOpType{
	"+": op.Add, "-": op.Subtract, "*": op.Multiply, "/": op.Divide,
	"%": op.Modulo, "**": op.Power, "<<": op.LShift, ">>": op.RShift,
	">>>": op.URShift, "&": op.BitwiseAnd, "|": op.BitwiseOr, "^": op.Xor,
}

var compareOps = map[string]op.CompareOpType{
	"<": op.LessThan, "<=": op.LessThanOrEqual, ">": op.GreaterThan,
	">=": op.GreaterThanOrEqual, "==": op.Equal, "!=": op.NotEqual,
	"===": op.StrictEqual, "!==": op.StrictNotEqual,
}

func (c *Compiler) compileInfix(node *ast.Infix) error {
	if node.Op == "in" {
		if err := c.compile(node.X); err != nil {
			return err
		}
		if err := c.compile(node.Y); err != nil {
			return err
		}
		c.emit(op.ContainsOp, 0)
		return nil
	}
	if node.Op == "instanceof" {
		if err := c.compile(node.X); err != nil {
			return err
		}
		if err := c.compile(node.Y); err != nil {
			return err
		}
		c.emit(op.InstanceOf)
		return nil
	}
	if err := c.compile(node.X); err != nil {
		return err
	}
	if err := c.compile(node.Y); err != nil {
		return err
	}
	if bop, ok := binaryOps[node.Op]; ok {
		c.emit(op.BinaryOp, uint16(bop))
		return nil
	}
	if cop, ok := compareOps[node.Op]; ok {
		c.emit(op.CompareOp, uint16(cop))
		return nil
	}
	return c.formatError(fmt.Sprintf("unknown operator %q", node.Op), node.Pos())
}

// compileLogical lowers the short-circuiting operators with jumps so the
// right operand only evaluates when needed.
func (c *Compiler) compileLogical(node *ast.Logical) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	c.emit(op.Copy, 0)
	var jump int
	switch node.Op {
	case "&&":
		jump = c.emit(op.PopJumpForwardIfFalse, Placeholder)
	case "||":
		jump = c.emit(op.PopJumpForwardIfTrue, Placeholder)
	case "??":
		jump = c.emit(op.PopJumpForwardIfNotNil, Placeholder)
	default:
		return c.formatError(fmt.Sprintf("unknown logical operator %q", node.Op), node.Pos())
	}
	c.emit(op.PopTop)
	if err := c.compile(node.Y); err != nil {
		return err
	}
	c.patchJump(jump)
	return nil
}

func (c *Compiler) compileConditional(node *ast.Conditional) error {
	if err := c.compile(node.Cond); err != nil {
		return err
	}
	elseJump := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	if err := c.compile(node.Then); err != nil {
		return err
	}
	endJump := c.emit(op.JumpForward, Placeholder)
	c.patchJump(elseJump)
	if err := c.compile(node.Else); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}

func (c *Compiler) compileSequence(node *ast.Sequence) error {
	for i, expr := range node.Exprs {
		if err := c.compile(expr); err != nil {
			return err
		}
		if i < len(node.Exprs)-1 {
			c.emit(op.PopTop)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Assignment

func (c *Compiler) compileAssign(node *ast.Assign) error {
	switch node.Op {
	case "=":
		return c.compileSimpleAssign(node)
	case "&&=", "||=", "??=":
		return c.compileLogicalAssign(node)
	}
	// Compound arithmetic: target op= value
	bop, ok := binaryOps[node.Op[:len(node.Op)-1]]
	if !ok {
		return c.formatError(fmt.Sprintf("unknown assignment operator %q", node.Op), node.Pos())
	}
	switch target := node.Target.(type) {
	case *ast.Ident:
		if err := c.compileIdent(target, false); err != nil {
			return err
		}
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.BinaryOp, uint16(bop))
		c.emit(op.Copy, 0)
		return c.storeName(target.Name, target.Pos(), false)
	case *ast.GetAttr:
		// [obj]; dup; read; compute; store back, leaving the new value.
		if err := c.compile(target.X); err != nil {
			return err
		}
		c.emit(op.Copy, 0)
		if err := c.emitMemberRead(target); err != nil {
			return err
		}
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.BinaryOp, uint16(bop)) // [obj, new]
		c.emit(op.Copy, 0)               // [obj, new, new]
		c.emit(op.Swap, 2)               // [new, new, obj]
		return c.emitMemberWrite(target) // [new]
	default:
		return c.formatError("invalid assignment target", node.Pos())
	}
}

func (c *Compiler) compileSimpleAssign(node *ast.Assign) error {
	switch target := node.Target.(type) {
	case *ast.Ident:
		if err := c.compileNamed(node.Value, target.Name); err != nil {
			return err
		}
		c.emit(op.Copy, 0)
		return c.storeName(target.Name, target.Pos(), false)
	case *ast.GetAttr:
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.Copy, 0) // keep the assigned value as the expression result
		if err := c.compile(target.X); err != nil {
			return err
		}
		return c.emitMemberWrite(target)
	case *ast.ArrayLit, *ast.ObjectLit:
		// Destructuring assignment: reinterpret the literal as a pattern.
		pattern, err := exprToPattern(node.Target)
		if err != nil {
			return c.formatError(err.Error(), node.Target.Pos())
		}
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.Copy, 0)
		return c.compileDestructure(pattern, false)
	default:
		return c.formatError("invalid assignment target", node.Pos())
	}
}

// emitMemberRead expects [.., obj] and replaces it with the member value.
func (c *Compiler) emitMemberRead(target *ast.GetAttr) error {
	if target.Computed {
		if err := c.compile(target.Prop); err != nil {
			return err
		}
		c.emit(op.BinarySubscr)
		return nil
	}
	c.emit(op.LoadAttr, c.current.addName(target.Attr.Name))
	return nil
}

// emitMemberWrite expects [.., value, obj] and stores value into the
// member, popping both.
func (c *Compiler) emitMemberWrite(target *ast.GetAttr) error {
	if target.Computed {
		if err := c.compile(target.Prop); err != nil {
			return err
		}
		c.emit(op.StoreSubscr)
		return nil
	}
	c.emit(op.StoreAttr, c.current.addName(target.Attr.Name))
	return nil
}

func (c *Compiler) compileLogicalAssign(node *ast.Assign) error {
	target, ok := node.Target.(*ast.Ident)
	if !ok {
		return c.formatError("invalid logical assignment target", node.Pos())
	}
	if err := c.compileIdent(target, false); err != nil {
		return err
	}
	c.emit(op.Copy, 0)
	var jump int
	switch node.Op {
	case "&&=":
		jump = c.emit(op.PopJumpForwardIfFalse, Placeholder)
	case "||=":
		jump = c.emit(op.PopJumpForwardIfTrue, Placeholder)
	default: // ??=
		jump = c.emit(op.PopJumpForwardIfNotNil, Placeholder)
	}
	c.emit(op.PopTop)
	if err := c.compile(node.Value); err != nil {
		return err
	}
	c.emit(op.Copy, 0)
	if err := c.storeName(target.Name, target.Pos(), false); err != nil {
		return err
	}
	c.patchJump(jump)
	return nil
}

func (c *Compiler) compileUpdate(node *ast.Update) error {
	bop := op.Add
	if node.Op == "--" {
		bop = op.Subtract
	}
	one := c.constant(float64(1))
	switch target := node.X.(type) {
	case *ast.Ident:
		if err := c.compileIdent(target, false); err != nil {
			return err
		}
		if node.Prefix {
			c.emit(op.UnaryPlus)
			c.emit(op.LoadConst, one)
			c.emit(op.BinaryOp, uint16(bop))
			c.emit(op.Copy, 0)
			return c.storeName(target.Name, target.Pos(), false)
		}
		c.emit(op.UnaryPlus) // the result is the old numeric value
		c.emit(op.Copy, 0)
		c.emit(op.LoadConst, one)
		c.emit(op.BinaryOp, uint16(bop))
		return c.storeName(target.Name, target.Pos(), false)
	case *ast.GetAttr:
		if err := c.compile(target.X); err != nil {
			return err
		}
		c.emit(op.Copy, 0)
		if err := c.emitMemberRead(target); err != nil {
			return err
		}
		c.emit(op.UnaryPlus) // [obj, old]
		if node.Prefix {
			c.emit(op.LoadConst, one)
			c.emit(op.BinaryOp, uint16(bop)) // [obj, new]
			c.emit(op.Copy, 0)               // [obj, new, new]
			c.emit(op.Swap, 2)               // [new, new, obj]
			return c.emitMemberWrite(target) // [new]
		}
		c.emit(op.Swap, 1)               // [old, obj]
		c.emit(op.Copy, 1)               // [old, obj, old]
		c.emit(op.LoadConst, one)        // [old, obj, old, 1]
		c.emit(op.BinaryOp, uint16(bop)) // [old, obj, new]
		c.emit(op.Swap, 1)               // [old, new, obj]
		return c.emitMemberWrite(target) // [old]
	default:
		return c.formatError(fmt.Sprintf("invalid %s operand", node.Op), node.Pos())
	}
}

// ---------------------------------------------------------------------------
// Member access and optional chains
//
// All the segments of one optional chain share a single short-circuit
// target: when any `?.` base is nullish, the whole chain evaluates to
// undefined (strictly undefined, not the nullish base value).

// chainSpineOptional reports whether the member/call spine rooted at node
// contains an optional segment.
func chainSpineOptional(node ast.Expr) bool {
	for {
		switch n := node.(type) {
		case *ast.GetAttr:
			if n.Optional {
				return true
			}
			node = n.X
		case *ast.Call:
			if n.Optional {
				return true
			}
			node = n.Fun
		default:
			return false
		}
	}
}

// openChain starts an optional-chain context at the outermost member/call
// of a chain. It returns nil when the subtree has no optional segment or
// a chain is already open.
func (c *Compiler) openChain(node ast.Expr) *chainContext {
	if c.chain != nil || !chainSpineOptional(node) {
		return nil
	}
	c.chain = &chainContext{}
	return c.chain
}

// closeChain patches the chain's short-circuit jumps. The value of the
// chain (or undefined) ends up on the stack.
func (c *Compiler) closeChain(chain *chainContext) {
	if chain == nil {
		return
	}
	c.chain = nil
	if len(chain.nilJumps) == 0 && len(chain.doneJumps) == 0 {
		return
	}
	endJump := c.emit(op.JumpForward, Placeholder)
	for _, pos := range chain.nilJumps {
		c.patchJump(pos)
	}
	c.emit(op.PopTop)
	c.emit(op.LoadUndefined)
	c.patchJump(endJump)
	for _, pos := range chain.doneJumps {
		c.patchJump(pos)
	}
}

func (c *Compiler) compileGetAttr(node *ast.GetAttr) error {
	chain := c.openChain(node)
	if err := c.compile(node.X); err != nil {
		return err
	}
	if node.Optional {
		pos := c.emit(op.JumpForwardIfNil, Placeholder)
		c.chain.nilJumps = append(c.chain.nilJumps, pos)
	}
	if node.Computed {
		if err := c.compileOperand(node.Prop); err != nil {
			return err
		}
		c.emit(op.BinarySubscr)
	} else {
		c.emit(op.LoadAttr, c.current.addName(node.Attr.Name))
	}
	c.closeChain(chain)
	return nil
}

// ---------------------------------------------------------------------------
// Calls

func hasSpreadArg(args []ast.Expr) bool {
	for _, arg := range args {
		if _, ok := arg.(*ast.Spread); ok {
			return true
		}
	}
	return false
}

// compileOperand compiles a subexpression that is not part of the
// enclosing optional chain's spine (arguments, computed keys): any chain
// it contains is its own, with its own short-circuit target.
func (c *Compiler) compileOperand(expr ast.Expr) error {
	saved := c.chain
	c.chain = nil
	err := c.compile(expr)
	c.chain = saved
	return err
}

func (c *Compiler) compileArgs(args []ast.Expr) error {
	if len(args) > MaxArgs {
		return c.formatError(fmt.Sprintf("call exceeded argument limit of %d", MaxArgs), c.currentNode.Pos())
	}
	for _, arg := range args {
		if err := c.compileOperand(arg); err != nil {
			return err
		}
	}
	return nil
}

// compileArgsList builds an argument array on the stack for spread calls.
func (c *Compiler) compileArgsList(args []ast.Expr) error {
	c.emit(op.BuildList, 0)
	for _, arg := range args {
		if spread, ok := arg.(*ast.Spread); ok {
			if err := c.compileOperand(spread.X); err != nil {
				return err
			}
			c.emit(op.ListExtend)
			continue
		}
		if err := c.compileOperand(arg); err != nil {
			return err
		}
		c.emit(op.ListAppend)
	}
	return nil
}

func (c *Compiler) trackCallArgs(argc int) {
	if uint16(argc) > c.current.maxCallArgs {
		c.current.maxCallArgs = uint16(argc)
	}
}

func (c *Compiler) compileCall(node *ast.Call) error {
	// super(...) runs the parent constructor against the current `this`.
	if _, ok := node.Fun.(*ast.Super); ok {
		if err := c.compileArgs(node.Args); err != nil {
			return err
		}
		c.trackCallArgs(len(node.Args))
		c.emit(op.SuperCall, uint16(len(node.Args)))
		return nil
	}
	// super.m(...) calls a parent-prototype method with the current `this`.
	if attr, ok := node.Fun.(*ast.GetAttr); ok {
		if _, isSuper := attr.X.(*ast.Super); isSuper && !attr.Computed {
			if err := c.compileArgs(node.Args); err != nil {
				return err
			}
			c.trackCallArgs(len(node.Args))
			c.emit(op.SuperMemberCall, c.current.addName(attr.Attr.Name), uint16(len(node.Args)))
			return nil
		}
	}

	chain := c.openChain(node)
	spread := hasSpreadArg(node.Args)

	if attr, ok := node.Fun.(*ast.GetAttr); ok {
		if err := c.compileMemberCall(node, attr, spread); err != nil {
			return err
		}
		c.closeChain(chain)
		return nil
	}

	if err := c.compile(node.Fun); err != nil {
		return err
	}
	if node.Optional {
		pos := c.emit(op.JumpForwardIfNil, Placeholder)
		c.chain.nilJumps = append(c.chain.nilJumps, pos)
	}
	if spread {
		c.emit(op.LoadUndefined) // `this` for a plain spread call
		c.emit(op.Swap, 1)
		if err := c.compileArgsList(node.Args); err != nil {
			return err
		}
		c.emit(op.CallSpread)
	} else {
		if err := c.compileArgs(node.Args); err != nil {
			return err
		}
		c.trackCallArgs(len(node.Args))
		c.emit(op.Call, uint16(len(node.Args)))
	}
	c.closeChain(chain)
	return nil
}

// compileMemberCall lowers `recv.m(args)` so the VM sees both the
// receiver (for `this` binding) and the key without a separate property
// fetch.
func (c *Compiler) compileMemberCall(node *ast.Call, attr *ast.GetAttr, spread bool) error {
	if err := c.compile(attr.X); err != nil {
		return err
	}
	if attr.Optional {
		pos := c.emit(op.JumpForwardIfNil, Placeholder)
		c.chain.nilJumps = append(c.chain.nilJumps, pos)
	}

	if node.Optional || spread {
		// Fetch the member, keeping the receiver for `this`.
		c.emit(op.Copy, 0)
		if attr.Computed {
			if err := c.compileOperand(attr.Prop); err != nil {
				return err
			}
			c.emit(op.BinarySubscr)
		} else {
			c.emit(op.LoadConst, c.constant(attr.Attr.Name))
			c.emit(op.BinarySubscr)
		}
		// [recv, fn]
		if node.Optional {
			c.emit(op.Copy, 0)
			cont := c.emit(op.PopJumpForwardIfNotNil, Placeholder)
			c.emit(op.PopTop)
			c.emit(op.PopTop)
			c.emit(op.LoadUndefined)
			done := c.emit(op.JumpForward, Placeholder)
			c.chain.doneJumps = append(c.chain.doneJumps, done)
			c.patchJump(cont)
		}
		c.emit(op.Swap, 1) // [fn, recv]
		if spread {
			if err := c.compileArgsList(node.Args); err != nil {
				return err
			}
			c.emit(op.CallSpread)
		} else {
			if err := c.compileArgs(node.Args); err != nil {
				return err
			}
			c.trackCallArgs(len(node.Args))
			c.emit(op.CallThis, uint16(len(node.Args)))
		}
		return nil
	}

	if attr.Computed {
		if err := c.compileOperand(attr.Prop); err != nil {
			return err
		}
	} else {
		c.emit(op.LoadConst, c.constant(attr.Attr.Name))
	}
	if err := c.compileArgs(node.Args); err != nil {
		return err
	}
	c.trackCallArgs(len(node.Args))
	c.emit(op.MemberCall, uint16(len(node.Args)))
	return nil
}

func (c *Compiler) compileNew(node *ast.New) error {
	if hasSpreadArg(node.Args) {
		return c.formatError("spread arguments are not supported in new expressions", node.Pos())
	}
	if err := c.compile(node.Callee); err != nil {
		return err
	}
	if err := c.compileArgs(node.Args); err != nil {
		return err
	}
	c.trackCallArgs(len(node.Args))
	c.emit(op.New, uint16(len(node.Args)))
	return nil
}

// ---------------------------------------------------------------------------
// Literals

func (c *Compiler) compileRegex(node *ast.RegexLit) error {
	// The regex kind is a host-level object; construction goes through
	// the RegExp host binding so the core stays free of a regex engine.
	c.emit(op.LoadName, c.current.addName("RegExp"))
	c.emit(op.LoadConst, c.constant(node.Pattern))
	c.emit(op.LoadConst, c.constant(node.Flags))
	c.trackCallArgs(2)
	c.emit(op.New, 2)
	return nil
}

func (c *Compiler) compileTemplate(node *ast.TemplateLit) error {
	count := 0
	for i, quasi := range node.Quasis {
		if quasi != "" {
			c.emit(op.LoadConst, c.constant(quasi))
			count++
		}
		if i < len(node.Exprs) {
			if err := c.compile(node.Exprs[i]); err != nil {
				return err
			}
			count++
		}
	}
	if count == 0 {
		c.emit(op.LoadConst, c.constant(""))
		return nil
	}
	c.emit(op.BuildString, uint16(count))
	return nil
}

func (c *Compiler) compileTaggedTemplate(node *ast.TaggedTemplate) error {
	if err := c.compile(node.Tag); err != nil {
		return err
	}
	for _, quasi := range node.Template.Quasis {
		c.emit(op.LoadConst, c.constant(quasi))
	}
	c.emit(op.BuildList, uint16(len(node.Template.Quasis)))
	if err := c.compileArgs(node.Template.Exprs); err != nil {
		return err
	}
	argc := 1 + len(node.Template.Exprs)
	c.trackCallArgs(argc)
	c.emit(op.Call, uint16(argc))
	return nil
}

func (c *Compiler) compileArrayLit(node *ast.ArrayLit) error {
	hasSpread := false
	hasHole := false
	for _, elem := range node.Elements {
		if elem == nil {
			hasHole = true
		} else if _, ok := elem.(*ast.Spread); ok {
			hasSpread = true
		}
	}
	if !hasSpread && !hasHole {
		for _, elem := range node.Elements {
			if err := c.compile(elem); err != nil {
				return err
			}
		}
		c.emit(op.BuildList, uint16(len(node.Elements)))
		return nil
	}
	c.emit(op.BuildList, 0)
	for _, elem := range node.Elements {
		if elem == nil {
			c.emit(op.LoadUndefined)
			c.emit(op.ListAppend)
			continue
		}
		if spread, ok := elem.(*ast.Spread); ok {
			if err := c.compile(spread.X); err != nil {
				return err
			}
			c.emit(op.ListExtend)
			continue
		}
		if err := c.compile(elem); err != nil {
			return err
		}
		c.emit(op.ListAppend)
	}
	return nil
}

func (c *Compiler) compileObjectLit(node *ast.ObjectLit) error {
	c.emit(op.BuildMap, 0)
	for _, prop := range node.Props {
		switch prop.Kind {
		case ast.PropertySpread:
			if err := c.compile(prop.Value); err != nil {
				return err
			}
			c.emit(op.MapMerge)
		case ast.PropertyGet, ast.PropertySet:
			if err := c.compileObjectKey(prop); err != nil {
				return err
			}
			name := ""
			if !prop.Computed {
				name, _ = propertyKeyName(prop.Key)
			}
			if err := c.compileFunctionValue(prop.Value.(*ast.FunctionLit), name); err != nil {
				return err
			}
			flag := uint16(0)
			if prop.Kind == ast.PropertyGet {
				flag = 1
			}
			c.emit(op.SetAccessor, flag)
		case ast.PropertyMethod:
			if err := c.compileObjectKey(prop); err != nil {
				return err
			}
			name := ""
			if !prop.Computed {
				name, _ = propertyKeyName(prop.Key)
			}
			if err := c.compileFunctionValue(prop.Value.(*ast.FunctionLit), name); err != nil {
				return err
			}
			c.emit(op.MapSet)
		default:
			if err := c.compileObjectKey(prop); err != nil {
				return err
			}
			name := ""
			if !prop.Computed {
				name, _ = propertyKeyName(prop.Key)
			}
			if err := c.compileNamed(prop.Value, name); err != nil {
				return err
			}
			c.emit(op.MapSet)
		}
	}
	return nil
}

func (c *Compiler) compileObjectKey(prop ast.ObjectProp) error {
	if prop.Computed {
		return c.compile(prop.Key)
	}
	name, err := propertyKeyName(prop.Key)
	if err != nil {
		return c.formatError(err.Error(), prop.Key.Pos())
	}
	c.emit(op.LoadConst, c.constant(name))
	return nil
}

// ---------------------------------------------------------------------------
// Functions

// compileFunctionDecl compiles a named function declaration, storing the
// closure under its hoisted symbol.
func (c *Compiler) compileFunctionDecl(node *ast.FunctionLit) error {
	// The declared name lives in the enclosing scope, so no self slot.
	if err := c.compileFunctionBody(functionSpec{
		name:        node.Name.Name,
		params:      node.Params,
		restParam:   node.RestParam,
		body:        node.Body.Stmts,
		isGenerator: node.IsGenerator,
		isAsync:     node.IsAsync,
		pos:         node.Pos(),
		end:         node.End(),
	}); err != nil {
		return err
	}
	return c.storeName(node.Name.Name, node.Pos(), true)
}

// compileFunctionValue compiles a function literal, leaving the closure
// value on the stack.
func (c *Compiler) compileFunctionValue(node *ast.FunctionLit, nameHint string) error {
	name := nameHint
	if node.Name != nil {
		name = node.Name.Name
	}
	return c.compileFunctionBody(functionSpec{
		name:        name,
		selfName:    node.Name,
		params:      node.Params,
		restParam:   node.RestParam,
		body:        node.Body.Stmts,
		isGenerator: node.IsGenerator,
		isAsync:     node.IsAsync,
		pos:         node.Pos(),
		end:         node.End(),
	})
}

// compileArrowValue compiles an arrow function, leaving the closure value
// on the stack. Arrows never bind their own `this` or `arguments`; the VM
// captures the creating frame's `this` when the closure is built.
func (c *Compiler) compileArrowValue(node *ast.ArrowFunctionLit, nameHint string) error {
	var body []ast.Node
	if block, ok := node.Body.(*ast.Block); ok {
		body = block.Stmts
	} else {
		body = []ast.Node{&ast.Return{ReturnPos: node.Arrow, Value: node.Body.(ast.Expr)}}
	}
	return c.compileFunctionBody(functionSpec{
		name:      nameHint,
		params:    node.Params,
		restParam: node.RestParam,
		body:      body,
		isAsync:   node.IsAsync,
		isArrow:   true,
		pos:       node.Pos(),
		end:       node.End(),
	})
}

type functionSpec struct {
	name        string
	selfName    *ast.Ident // non-nil for named function expressions (self-recursion)
	params      []ast.Pattern
	restParam   ast.Pattern
	body        []ast.Node
	isGenerator bool
	isAsync     bool
	isArrow     bool
	pos         token.Position
	end         token.Position
}

func (c *Compiler) compileFunctionBody(spec functionSpec) error {
	if len(spec.params) > MaxArgs {
		return c.formatError(fmt.Sprintf("function exceeded parameter limit of %d", MaxArgs), spec.pos)
	}
	c.funcIndex++
	functionID := fmt.Sprintf("%d", c.funcIndex)
	code := c.current.newChild(spec.name, c.sourceSlice(spec.pos, spec.end), functionID)
	// Only a named function EXPRESSION binds its own name as a local
	// (for self-recursion); a display name alone claims no slot.
	code.isNamed = spec.selfName != nil
	c.current = code

	// Break/continue and finally-inlining contexts never cross a function
	// boundary.
	savedBreakables := c.breakables
	savedTryRegions := c.tryRegions
	c.breakables = nil
	c.tryRegions = nil
	defer func() {
		c.breakables = savedBreakables
		c.tryRegions = savedTryRegions
	}()

	// Parameter slots come first: simple names bind directly; patterns
	// bind a synthetic slot destructured in the preamble.
	type patternParam struct {
		pattern ast.Pattern
		index   int
	}
	var patternParams []patternParam
	var defaultParams []struct {
		expr  ast.Expr
		index int
	}
	paramNames := make([]string, len(spec.params))
	for i, p := range spec.params {
		target := p
		if ap, ok := p.(*ast.AssignmentPattern); ok {
			defaultParams = append(defaultParams, struct {
				expr  ast.Expr
				index int
			}{ap.Default, i})
			target = ap.Target
		}
		if ident, ok := target.(*ast.Ident); ok {
			paramNames[i] = ident.Name
			if _, err := code.symbols.Insert(ident.Name, scope.KindArgument, true); err != nil {
				return c.formatError(err.Error(), spec.pos)
			}
			continue
		}
		syntheticName := fmt.Sprintf("__destructure_%d", i)
		paramNames[i] = syntheticName
		if _, err := code.symbols.Insert(syntheticName, scope.KindArgument, true); err != nil {
			return c.formatError(err.Error(), spec.pos)
		}
		patternParams = append(patternParams, patternParam{pattern: target, index: i})
	}

	// The rest parameter's slot follows the regular parameters.
	restName := ""
	var restPattern ast.Pattern
	if spec.restParam != nil {
		if ident, ok := spec.restParam.(*ast.Ident); ok {
			restName = ident.Name
			if _, err := code.symbols.Insert(restName, scope.KindArgument, true); err != nil {
				return c.formatError(err.Error(), spec.pos)
			}
		} else {
			restName = "__rest"
			if _, err := code.symbols.Insert(restName, scope.KindArgument, true); err != nil {
				return c.formatError(err.Error(), spec.pos)
			}
			restPattern = spec.restParam
		}
	}

	// A named function expression binds its own name for recursion.
	if spec.selfName != nil && !code.symbols.IsDefined(spec.selfName.Name) {
		if _, err := code.symbols.Insert(spec.selfName.Name, scope.KindFunction, true); err != nil {
			return c.formatError(err.Error(), spec.pos)
		}
	}

	// Preamble: parameter defaults, then parameter destructuring, then
	// var hoisting.
	for _, dp := range defaultParams {
		sym, ok := code.symbols.Get(paramNames[dp.index])
		if !ok {
			continue
		}
		c.emit(op.LoadFast, sym.Index())
		skip := c.emit(op.PopJumpForwardIfNotUndefined, Placeholder)
		if err := c.compile(dp.expr); err != nil {
			return err
		}
		c.emit(op.StoreFast, sym.Index())
		c.patchJump(skip)
	}
	for _, pp := range patternParams {
		sym, _ := code.symbols.Get(paramNames[pp.index])
		if err := c.declarePatternNames(pp.pattern, ast.DeclLet); err != nil {
			return err
		}
		c.emit(op.LoadFast, sym.Index())
		if err := c.compileDestructure(pp.pattern, true); err != nil {
			return err
		}
	}
	if restPattern != nil {
		sym, _ := code.symbols.Get(restName)
		if err := c.declarePatternNames(restPattern, ast.DeclLet); err != nil {
			return err
		}
		c.emit(op.LoadFast, sym.Index())
		if err := c.compileDestructure(restPattern, true); err != nil {
			return err
		}
	}
	if err := c.hoistVars(spec.body); err != nil {
		return err
	}

	if err := c.compileStatementNodes(spec.body, false); err != nil {
		return err
	}

	// Every fall-through path returns undefined.
	c.emit(op.LoadUndefined)
	c.emit(op.ReturnValue)

	c.current = c.current.parent

	fn := NewFunction(FunctionOpts{
		ID:          functionID,
		Name:        spec.name,
		Parameters:  paramNames,
		RestParam:   restName,
		Code:        code,
		IsGenerator: spec.isGenerator,
		IsAsync:     spec.isAsync,
		IsArrow:     spec.isArrow,
	})
	c.emitClosure(fn, code)
	return nil
}

// emitClosure pushes the function value, materializing capture cells for
// its free variables. Captured locals of the current frame become fresh
// cells; variables the current function itself captured re-push the
// existing cell so every closure level shares one slot.
func (c *Compiler) emitClosure(fn *Function, code *Code) {
	freeCount := code.symbols.FreeCount()
	if freeCount == 0 {
		c.emit(op.LoadConst, c.constant(fn))
		return
	}
	for i := uint16(0); i < freeCount; i++ {
		resolution := code.symbols.Free(i)
		parent := resolution.Parent
		if parent != nil && parent.ScopeKind == scope.Free {
			c.emit(op.PushFreeCell, uint16(parent.FreeIndex))
		} else {
			c.emit(op.MakeCell, resolution.Symbol.Index(), 0)
		}
	}
	c.emit(op.LoadClosure, c.constant(fn), freeCount)
}

// hoistVars declares every var-bound name in the current function's body
// and initializes it to undefined, without descending into nested
// functions.
func (c *Compiler) hoistVars(body []ast.Node) error {
	names := collectVarNames(body)
	table := c.current.symbols.LocalTable()
	for _, ident := range names {
		if table.IsDefined(ident.Name) {
			continue
		}
		sym, err := table.Insert(ident.Name, scope.KindVar, true)
		if err != nil {
			return c.formatError(err.Error(), ident.Pos())
		}
		if sym == nil {
			continue
		}
		c.emit(op.LoadUndefined)
		if table.IsGlobal() {
			c.emit(op.StoreGlobal, sym.Index())
		} else {
			c.emit(op.StoreFast, sym.Index())
		}
	}
	return nil
}

func collectVarNames(nodes []ast.Node) []*ast.Ident {
	var out []*ast.Ident
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch n := n.(type) {
		case *ast.FunctionLit, *ast.ArrowFunctionLit, *ast.ClassLit:
			return
		case *ast.VarDecl:
			if n.Kind == ast.DeclVar {
				for _, d := range n.Decls {
					out = append(out, patternIdents(d.Target)...)
				}
			}
			return
		case *ast.ForIn:
			if n.IsDecl && n.Kind == ast.DeclVar {
				out = append(out, patternIdents(n.Target)...)
			}
		case *ast.ForOf:
			if n.IsDecl && n.Kind == ast.DeclVar {
				out = append(out, patternIdents(n.Target)...)
			}
		}
		ast.Inspect(n, func(child ast.Node) bool {
			if child == n {
				return true
			}
			switch child.(type) {
			case *ast.FunctionLit, *ast.ArrowFunctionLit, *ast.ClassLit:
				return false
			case *ast.VarDecl:
				walk(child)
				return false
			case *ast.ForIn, *ast.ForOf:
				walk(child)
				return true
			}
			return true
		})
	}
	for _, n := range nodes {
		walk(n)
	}
	return out
}

// sourceSlice extracts the source text between two positions for the
// function's toString slice.
func (c *Compiler) sourceSlice(start, end token.Position) string {
	if c.source == "" {
		return ""
	}
	from, to := start.Char, end.Char
	if from < 0 || to > len(c.source) || from >= to {
		return ""
	}
	return c.source[from:to]
}

// ---------------------------------------------------------------------------
// Control flow

func (c *Compiler) compileBlock(node *ast.Block) error {
	saved := c.current.symbols
	c.current.symbols = saved.NewBlock()
	defer func() { c.current.symbols = saved }()
	return c.compileStatementNodes(node.Stmts, false)
}

// compileBody compiles a loop or branch body statement, giving blocks
// their own lexical scope.
func (c *Compiler) compileBody(stmt ast.Stmt) error {
	return c.compile(stmt)
}

func (c *Compiler) compileIf(node *ast.If) error {
	if err := c.compile(node.Cond); err != nil {
		return err
	}
	elseJump := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	if err := c.compileBody(node.Then); err != nil {
		return err
	}
	if node.Else == nil {
		c.patchJump(elseJump)
		return nil
	}
	endJump := c.emit(op.JumpForward, Placeholder)
	c.patchJump(elseJump)
	if err := c.compileBody(node.Else); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}

func (c *Compiler) pushBreakable(label string, isLoop bool) *breakable {
	b := &breakable{label: label, isLoop: isLoop, tryDepth: len(c.tryRegions)}
	c.breakables = append(c.breakables, b)
	return b
}

func (c *Compiler) popBreakable(b *breakable, breakTarget int, continueTarget int) {
	c.breakables = c.breakables[:len(c.breakables)-1]
	for _, pos := range b.breakJumps {
		c.patchJumpTo(pos, breakTarget)
	}
	for _, pos := range b.continueJumps {
		c.patchJumpTo(pos, continueTarget)
	}
}

func (c *Compiler) compileWhile(node *ast.While, label string) error {
	head := c.currentPosition()
	if err := c.compile(node.Cond); err != nil {
		return err
	}
	exitJump := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	b := c.pushBreakable(label, true)
	if err := c.compileBody(node.Body); err != nil {
		return err
	}
	continueTarget := c.currentPosition()
	c.emitJumpBackward(head)
	c.patchJump(exitJump)
	end := c.currentPosition()
	c.popBreakable(b, end, continueTarget)
	return nil
}

func (c *Compiler) compileDoWhile(node *ast.DoWhile, label string) error {
	head := c.currentPosition()
	b := c.pushBreakable(label, true)
	if err := c.compileBody(node.Body); err != nil {
		return err
	}
	continueTarget := c.currentPosition()
	if err := c.compile(node.Cond); err != nil {
		return err
	}
	exitJump := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	c.emitJumpBackward(head)
	c.patchJump(exitJump)
	end := c.currentPosition()
	c.popBreakable(b, end, continueTarget)
	return nil
}

func (c *Compiler) compileFor(node *ast.For, label string) error {
	savedSymbols := c.current.symbols
	c.current.symbols = savedSymbols.NewBlock()
	defer func() { c.current.symbols = savedSymbols }()

	if node.Init != nil {
		switch init := node.Init.(type) {
		case *ast.ExprStmt:
			if err := c.compile(init.X); err != nil {
				return err
			}
			c.emit(op.PopTop)
		default:
			if err := c.compile(init); err != nil {
				return err
			}
		}
	}
	head := c.currentPosition()
	exitJump := -1
	if node.Cond != nil {
		if err := c.compile(node.Cond); err != nil {
			return err
		}
		exitJump = c.emit(op.PopJumpForwardIfFalse, Placeholder)
	}
	b := c.pushBreakable(label, true)
	if err := c.compileBody(node.Body); err != nil {
		return err
	}
	continueTarget := c.currentPosition()
	if node.Post != nil {
		if err := c.compile(node.Post); err != nil {
			return err
		}
		c.emit(op.PopTop)
	}
	c.emitJumpBackward(head)
	if exitJump >= 0 {
		c.patchJump(exitJump)
	}
	end := c.currentPosition()
	c.popBreakable(b, end, continueTarget)
	return nil
}

// compileForOf drives the iterator protocol: GET_ITER fetches the
// iterator, FOR_ITER advances one step per pass and exits the loop when
// the sequence reports done. The `for await` form lowers to the async
// protocol instead.
func (c *Compiler) compileForOf(node *ast.ForOf, label string) error {
	if node.IsAwait {
		return c.compileForAwaitOf(node, label)
	}
	if err := c.compile(node.Right); err != nil {
		return err
	}
	c.emit(op.GetIter)
	return c.compileIterLoop(node.IsDecl, node.Kind, node.Target, node.LHS, node.Body, label)
}

// compileForAwaitOf drives the async-iteration protocol: GET_ASYNC_ITER
// prefers @@asyncIterator (wrapping plain iterables), each step's raw
// next() result is awaited before `done` is consulted, and the element
// value is awaited too, so a sync iterable of promises awaits each
// element.
//
//	<iterable>; GET_ASYNC_ITER
//	head: COPY 0; ITER_NEXT; AWAIT          ; [it, result]
//	      COPY 0; "done"; SUBSCR; JTRUE done
//	      "value"; SUBSCR; AWAIT            ; [it, value]
//	      <bind>; <body>; JUMP_BACKWARD head
//	done: POP_TOP                           ; drop the final result
//	brk:  POP_TOP                           ; drop the iterator
func (c *Compiler) compileForAwaitOf(node *ast.ForOf, label string) error {
	if err := c.compile(node.Right); err != nil {
		return err
	}
	c.emit(op.GetAsyncIter)

	savedSymbols := c.current.symbols
	c.current.symbols = savedSymbols.NewBlock()
	defer func() { c.current.symbols = savedSymbols }()

	head := c.currentPosition()
	c.emit(op.Copy, 0)
	c.emit(op.IterNext)
	c.emit(op.Await)
	c.emit(op.Copy, 0)
	c.emit(op.LoadConst, c.constant("done"))
	c.emit(op.BinarySubscr)
	exitJump := c.emit(op.PopJumpForwardIfTrue, Placeholder)
	c.emit(op.LoadConst, c.constant("value"))
	c.emit(op.BinarySubscr)
	c.emit(op.Await)

	if err := c.compileLoopBinding(node.IsDecl, node.Kind, node.Target, node.LHS); err != nil {
		return err
	}

	b := c.pushBreakable(label, true)
	b.hasIterator = true
	if err := c.compileBody(node.Body); err != nil {
		return err
	}
	continueTarget := c.currentPosition()
	c.emitJumpBackward(head)
	// The done-path lands with the final step result still stacked above
	// the iterator; break jumps land one pop later, with just the
	// iterator to drop.
	doneTarget := c.currentPosition()
	c.emit(op.PopTop)
	breakTarget := c.currentPosition()
	c.emit(op.PopTop)
	c.patchJumpTo(exitJump, doneTarget)
	c.popBreakable(b, breakTarget, continueTarget)
	return nil
}

// compileForIn enumerates own enumerable keys via GET_KEYS, then runs the
// same iterator-driven loop as for-of.
func (c *Compiler) compileForIn(node *ast.ForIn, label string) error {
	if err := c.compile(node.Right); err != nil {
		return err
	}
	c.emit(op.GetKeys)
	return c.compileIterLoop(node.IsDecl, node.Kind, node.Target, node.LHS, node.Body, label)
}

func (c *Compiler) compileIterLoop(
	isDecl bool,
	kind ast.DeclKind,
	target ast.Pattern,
	lhs ast.Expr,
	body ast.Stmt,
	label string,
) error {
	savedSymbols := c.current.symbols
	c.current.symbols = savedSymbols.NewBlock()
	defer func() { c.current.symbols = savedSymbols }()

	head := c.currentPosition()
	forIter := c.emit(op.ForIter, Placeholder, 1)

	if err := c.compileLoopBinding(isDecl, kind, target, lhs); err != nil {
		return err
	}

	b := c.pushBreakable(label, true)
	b.hasIterator = true
	if err := c.compileBody(body); err != nil {
		return err
	}
	continueTarget := c.currentPosition()
	c.emitJumpBackward(head)
	// The FOR_ITER done-path pops the iterator itself before jumping to
	// the loop end; break jumps land just before it on a cleanup that
	// pops the iterator they leave behind.
	breakTarget := c.currentPosition()
	c.emit(op.PopTop)
	end := c.currentPosition()
	c.patchJumpTo(forIter, end)
	c.popBreakable(b, breakTarget, continueTarget)
	return nil
}

// compileLoopBinding stores the element on TOS into the loop variable:
// a fresh declaration (possibly a destructuring pattern) or an existing
// assignable target.
func (c *Compiler) compileLoopBinding(isDecl bool, kind ast.DeclKind, target ast.Pattern, lhs ast.Expr) error {
	if isDecl {
		if err := c.declarePatternNames(target, kind); err != nil {
			return err
		}
		return c.compileDestructure(target, true)
	}
	switch lhs := lhs.(type) {
	case *ast.Ident:
		return c.storeName(lhs.Name, lhs.Pos(), false)
	case *ast.GetAttr:
		if err := c.compile(lhs.X); err != nil {
			return err
		}
		return c.emitMemberWrite(lhs)
	default:
		return c.formatError("invalid loop assignment target", lhs.Pos())
	}
}

// ---------------------------------------------------------------------------
// break / continue / labels

// inlineFinallies emits PopExcept plus the finally body for every try
// region between the jump and the target context, innermost first, so a
// break/continue/return never skips a pending finalizer.
func (c *Compiler) inlineFinallies(downTo int) error {
	saved := c.tryRegions
	defer func() { c.tryRegions = saved }()
	for i := len(saved) - 1; i >= downTo; i-- {
		region := saved[i]
		c.emit(op.PopExcept)
		if region.finallyBlock != nil {
			// The inlined copy runs outside its own protected region, so
			// a jump out of the copy must not re-inline it.
			c.tryRegions = saved[:i]
			if err := c.compileBlock(region.finallyBlock); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) findBreakable(label string, needLoop bool) (*breakable, int) {
	for i := len(c.breakables) - 1; i >= 0; i-- {
		b := c.breakables[i]
		if label != "" {
			if b.label == label && (!needLoop || b.isLoop) {
				return b, i
			}
			continue
		}
		if needLoop && !b.isLoop {
			continue
		}
		return b, i
	}
	return nil, -1
}

// popCrossedIterators discards the stacked iterators of every
// iterator-driven loop between the jump site and the target construct.
// The target loop's own iterator is popped at its break-cleanup site.
func (c *Compiler) popCrossedIterators(targetIdx int) {
	for i := len(c.breakables) - 1; i > targetIdx; i-- {
		if c.breakables[i].hasIterator {
			c.emit(op.PopTop)
		}
	}
}

func (c *Compiler) compileBreak(node *ast.Break) error {
	label := ""
	if node.Label != nil {
		label = node.Label.Name
	}
	b, idx := c.findBreakable(label, false)
	if b == nil {
		if label != "" {
			return c.formatError(fmt.Sprintf("undefined label %q", label), node.Pos())
		}
		return c.formatError("break statement outside of a loop or switch", node.Pos())
	}
	if err := c.inlineFinallies(b.tryDepth); err != nil {
		return err
	}
	c.popCrossedIterators(idx)
	pos := c.emit(op.JumpForward, Placeholder)
	b.breakJumps = append(b.breakJumps, pos)
	return nil
}

func (c *Compiler) compileContinue(node *ast.Continue) error {
	label := ""
	if node.Label != nil {
		label = node.Label.Name
	}
	b, idx := c.findBreakable(label, true)
	if b == nil {
		if label != "" {
			return c.formatError(fmt.Sprintf("undefined loop label %q", label), node.Pos())
		}
		return c.formatError("continue statement outside of a loop", node.Pos())
	}
	if err := c.inlineFinallies(b.tryDepth); err != nil {
		return err
	}
	c.popCrossedIterators(idx)
	pos := c.emit(op.JumpForward, Placeholder)
	b.continueJumps = append(b.continueJumps, pos)
	return nil
}

func (c *Compiler) compileLabeled(node *ast.Labeled) error {
	label := node.Label.Name
	switch stmt := node.Stmt.(type) {
	case *ast.While:
		return c.compileWhile(stmt, label)
	case *ast.DoWhile:
		return c.compileDoWhile(stmt, label)
	case *ast.For:
		return c.compileFor(stmt, label)
	case *ast.ForIn:
		return c.compileForIn(stmt, label)
	case *ast.ForOf:
		return c.compileForOf(stmt, label)
	case *ast.Switch:
		return c.compileSwitch(stmt, label)
	default:
		// Any other labelled statement is break-only.
		b := c.pushBreakable(label, false)
		if err := c.compile(node.Stmt); err != nil {
			return err
		}
		end := c.currentPosition()
		c.popBreakable(b, end, end)
		return nil
	}
}

// ---------------------------------------------------------------------------
// switch

func (c *Compiler) compileSwitch(node *ast.Switch, label string) error {
	savedSymbols := c.current.symbols
	c.current.symbols = savedSymbols.NewBlock()
	defer func() { c.current.symbols = savedSymbols }()

	if err := c.compile(node.Disc); err != nil {
		return err
	}
	b := c.pushBreakable(label, false)

	// Dispatch: each case duplicates the discriminant and compares with
	// strict equality.
	caseJumps := make([]int, 0, len(node.Cases))
	defaultIdx := -1
	for i, sc := range node.Cases {
		if sc.Test == nil {
			defaultIdx = i
			caseJumps = append(caseJumps, -1)
			continue
		}
		c.emit(op.Copy, 0)
		if err := c.compile(sc.Test); err != nil {
			return err
		}
		c.emit(op.CompareOp, uint16(op.StrictEqual))
		pos := c.emit(op.PopJumpForwardIfTrue, Placeholder)
		caseJumps = append(caseJumps, pos)
	}
	// No case matched: drop the discriminant and enter the default body
	// (or exit).
	c.emit(op.PopTop)
	noMatchJump := c.emit(op.JumpForward, Placeholder)

	// Per-case entry stubs pop the discriminant exactly once, then the
	// bodies run in order with fall-through.
	bodyJumps := make([]int, len(node.Cases))
	for i, pos := range caseJumps {
		if pos < 0 {
			continue
		}
		c.patchJump(pos)
		c.emit(op.PopTop)
		bodyJumps[i] = c.emit(op.JumpForward, Placeholder)
	}

	defaultBodyTarget := -1
	for i, sc := range node.Cases {
		if caseJumps[i] >= 0 {
			c.patchJump(bodyJumps[i])
		}
		if i == defaultIdx {
			defaultBodyTarget = c.currentPosition()
		}
		if err := c.compileStatementNodes(sc.Body, false); err != nil {
			return err
		}
	}
	end := c.currentPosition()
	if defaultIdx >= 0 {
		c.patchJumpTo(noMatchJump, defaultBodyTarget)
	} else {
		c.patchJumpTo(noMatchJump, end)
	}
	c.popBreakable(b, end, end)
	return nil
}

// ---------------------------------------------------------------------------
// try / catch / finally
//
// Layout:
//
//	PUSH_EXCEPT catch finally
//	<try body>
//	POP_EXCEPT
//	<inline finally>          ; normal completion
//	JUMP_FORWARD end
//	catch:                    ; handler transitions to in-catch
//	  <bind or pop the error>
//	  <catch body>
//	  POP_EXCEPT
//	  <inline finally>        ; normal catch completion
//	  JUMP_FORWARD end
//	finally:                  ; exception path only
//	  <finally body>
//	  END_FINALLY             ; re-raises the pending exception
//	end:
//
// break/continue/return inside the protected region inline the finally
// body at the jump site (see inlineFinallies), so every exit path runs
// each finalizer exactly once, innermost first.
func (c *Compiler) compileTry(node *ast.Try) error {
	tryStart := c.currentPosition()
	pushExcept := c.emit(op.PushExcept, Placeholder, Placeholder)

	region := &tryRegion{finallyBlock: node.FinallyBlock}
	c.tryRegions = append(c.tryRegions, region)

	// Inlined finally copies run outside the protected region, so a jump
	// out of the copy does not re-inline it.
	emitInlineFinally := func() error {
		if node.FinallyBlock == nil {
			return nil
		}
		saved := c.tryRegions
		c.tryRegions = saved[:len(saved)-1]
		err := c.compileBlock(node.FinallyBlock)
		c.tryRegions = saved
		return err
	}

	if err := c.compileBlock(node.Body); err != nil {
		return err
	}
	c.emit(op.PopExcept)
	if err := emitInlineFinally(); err != nil {
		return err
	}
	jumpEnd1 := c.emit(op.JumpForward, Placeholder)

	catchStart := 0
	catchVarIdx := -1
	var jumpEnd2 int = -1
	if node.CatchBlock != nil {
		catchStart = c.currentPosition()
		savedSymbols := c.current.symbols
		c.current.symbols = savedSymbols.NewBlock()

		if node.CatchTarget != nil {
			if ident, ok := node.CatchTarget.(*ast.Ident); ok {
				sym, err := c.current.symbols.Insert(ident.Name, scope.KindCatchParam, true)
				if err != nil {
					c.current.symbols = savedSymbols
					return c.formatError(err.Error(), ident.Pos())
				}
				if sym != nil {
					catchVarIdx = int(sym.Index())
				}
			}
			if err := c.declareCatchPattern(node.CatchTarget); err != nil {
				c.current.symbols = savedSymbols
				return err
			}
			if err := c.compileDestructure(node.CatchTarget, true); err != nil {
				c.current.symbols = savedSymbols
				return err
			}
		} else {
			c.emit(op.PopTop)
		}

		if err := c.compileStatementNodes(node.CatchBlock.Stmts, false); err != nil {
			c.current.symbols = savedSymbols
			return err
		}
		c.current.symbols = savedSymbols

		c.emit(op.PopExcept)
		if err := emitInlineFinally(); err != nil {
			return err
		}
		jumpEnd2 = c.emit(op.JumpForward, Placeholder)
	}

	c.tryRegions = c.tryRegions[:len(c.tryRegions)-1]

	finallyStart := 0
	if node.FinallyBlock != nil {
		finallyStart = c.currentPosition()
		if err := c.compileBlock(node.FinallyBlock); err != nil {
			return err
		}
		c.emit(op.EndFinally)
	}

	end := c.currentPosition()
	c.patchJump(jumpEnd1)
	if jumpEnd2 >= 0 {
		c.patchJump(jumpEnd2)
	}

	catchOffset := uint16(0)
	if node.CatchBlock != nil {
		catchOffset = uint16(catchStart - pushExcept)
	}
	finallyOffset := uint16(0)
	if node.FinallyBlock != nil {
		finallyOffset = uint16(finallyStart - pushExcept)
	}
	c.changeOperand(pushExcept+1, catchOffset)
	c.changeOperand(pushExcept+2, finallyOffset)

	c.current.AddExceptionHandler(&ExceptionHandler{
		TryStart:     tryStart,
		TryEnd:       end,
		CatchStart:   catchStart,
		FinallyStart: finallyStart,
		CatchVarIdx:  catchVarIdx,
	})
	return nil
}

// declareCatchPattern declares the bindings of a destructuring catch
// target; a plain identifier was already inserted by the caller.
func (c *Compiler) declareCatchPattern(target ast.Pattern) error {
	if _, ok := target.(*ast.Ident); ok {
		return nil
	}
	for _, ident := range patternIdents(target) {
		if _, err := c.current.symbols.Insert(ident.Name, scope.KindCatchParam, true); err != nil {
			return c.formatError(err.Error(), ident.Pos())
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// return / yield / await

func (c *Compiler) compileReturn(node *ast.Return) error {
	if c.current.IsRoot() {
		return c.formatError("return statement outside of a function", node.Pos())
	}
	if node.Value == nil {
		c.emit(op.LoadUndefined)
	} else if err := c.compile(node.Value); err != nil {
		return err
	}
	// The return value is computed before any pending finalizers run.
	if err := c.inlineFinallies(0); err != nil {
		return err
	}
	c.emit(op.ReturnValue)
	return nil
}

func (c *Compiler) compileYield(node *ast.Yield) error {
	if node.Delegate {
		return c.compileYieldDelegate(node)
	}
	if node.Arg == nil {
		c.emit(op.LoadUndefined)
	} else if err := c.compile(node.Arg); err != nil {
		return err
	}
	c.emit(op.Yield)
	return nil
}

// compileYieldDelegate drives the delegated iterable one element per
// resumption: each iteration re-enters this loop at the FOR_ITER, so the
// suspension always points back into the delegation.
func (c *Compiler) compileYieldDelegate(node *ast.Yield) error {
	if err := c.compile(node.Arg); err != nil {
		return err
	}
	c.emit(op.GetIter)
	head := c.currentPosition()
	forIter := c.emit(op.ForIter, Placeholder, 1)
	c.emit(op.YieldDelegate)
	c.emit(op.PopTop) // value sent into resume is dropped by delegation
	c.emitJumpBackward(head)
	c.patchJump(forIter)
	// The delegation's own result value.
	c.emit(op.LoadUndefined)
	return nil
}

func (c *Compiler) compileAwait(node *ast.Await) error {
	if err := c.compile(node.Arg); err != nil {
		return err
	}
	c.emit(op.Await)
	return nil
}

// ---------------------------------------------------------------------------
// classes

func (c *Compiler) compileClassValue(node *ast.ClassLit) error {
	name := ""
	if node.Name != nil {
		name = node.Name.Name
	}
	class := &Class{name: name, hasParent: node.Super != nil}

	if node.Super != nil {
		if err := c.compile(node.Super); err != nil {
			return err
		}
	}

	// Locate the constructor and partition the members.
	var ctorLit *ast.FunctionLit
	for _, member := range node.Body {
		if member.Kind != ast.ClassField && !member.Computed && !member.Static {
			if keyName, err := propertyKeyName(member.Key); err == nil && keyName == "constructor" {
				ctorLit = member.Fn
			}
		}
	}

	// Constructor closure first.
	if ctorLit != nil {
		class.hasCtor = true
		if err := c.compileMethodClosure(ctorLit, name, class, true); err != nil {
			return err
		}
	} else {
		// Synthesized empty constructor; the VM forwards construction to
		// the parent class when one exists.
		if err := c.compileFunctionBody(functionSpec{
			name: name,
			body: nil,
			pos:  node.Pos(),
			end:  node.End(),
		}); err != nil {
			return err
		}
		fn := c.lastFunctionConstant()
		class.ctor = fn
	}

	// Method and accessor closures, in declaration order.
	for _, member := range node.Body {
		if member.Kind == ast.ClassField {
			continue
		}
		keyName, err := propertyKeyName(member.Key)
		if err != nil {
			return c.formatError("computed method keys are not supported in class bodies", member.Key.Pos())
		}
		if keyName == "constructor" && !member.Static {
			continue
		}
		if err := c.compileMethodClosure(member.Fn, keyName, class, false); err != nil {
			return err
		}
		class.methods = append(class.methods, classMethod{
			name:     keyName,
			fn:       c.lastFunctionConstant(),
			isStatic: member.Static,
			isGetter: member.Kind == ast.ClassGetter,
			isSetter: member.Kind == ast.ClassSetter,
		})
	}

	// Instance-field initializer thunks.
	for _, member := range node.Body {
		if member.Kind != ast.ClassField || member.Static {
			continue
		}
		keyName, err := propertyKeyName(member.Key)
		if err != nil {
			return c.formatError("computed field keys are not supported in class bodies", member.Key.Pos())
		}
		class.fieldNames = append(class.fieldNames, keyName)
		var body []ast.Node
		if member.Init != nil {
			body = []ast.Node{&ast.Return{ReturnPos: member.Key.Pos(), Value: member.Init}}
		}
		if err := c.compileFunctionBody(functionSpec{
			name: keyName,
			body: body,
			pos:  member.Key.Pos(),
			end:  member.Key.End(),
		}); err != nil {
			return err
		}
		class.fieldInits = append(class.fieldInits, c.lastFunctionConstant())
	}

	c.emit(op.BuildClass, c.constant(class))
	return nil
}

// compileMethodClosure compiles one class method body and leaves its
// closure on the stack, recording the compiled template on the class when
// it is the constructor.
func (c *Compiler) compileMethodClosure(fn *ast.FunctionLit, name string, class *Class, isCtor bool) error {
	if err := c.compileFunctionValue(fn, name); err != nil {
		return err
	}
	if isCtor {
		class.ctor = c.lastFunctionConstant()
	}
	return nil
}

// lastFunctionConstant returns the most recently added Function constant;
// the closure emitters always add the template as the final constant.
func (c *Compiler) lastFunctionConstant() *Function {
	for i := len(c.current.constants) - 1; i >= 0; i-- {
		if fn, ok := c.current.constants[i].(*Function); ok {
			return fn
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// import / export

func (c *Compiler) compileImport(node *ast.ImportDecl) error {
	c.emit(op.ResolveModule, c.constant(node.Source.Value))
	if node.Default != nil {
		if err := c.declareName(node.Default.Name, ast.DeclConst, node.Default.Pos()); err != nil {
			return err
		}
		c.emit(op.Copy, 0)
		c.emit(op.LoadAttr, c.current.addName("default"))
		if err := c.storeName(node.Default.Name, node.Default.Pos(), true); err != nil {
			return err
		}
	}
	if node.Namespace != nil {
		if err := c.declareName(node.Namespace.Name, ast.DeclConst, node.Namespace.Pos()); err != nil {
			return err
		}
		c.emit(op.Copy, 0)
		if err := c.storeName(node.Namespace.Name, node.Namespace.Pos(), true); err != nil {
			return err
		}
	}
	for _, spec := range node.Named {
		if err := c.declareName(spec.Local.Name, ast.DeclConst, spec.Local.Pos()); err != nil {
			return err
		}
		c.emit(op.Copy, 0)
		c.emit(op.LoadAttr, c.current.addName(spec.Imported.Name))
		if err := c.storeName(spec.Local.Name, spec.Local.Pos(), true); err != nil {
			return err
		}
	}
	c.emit(op.PopTop)
	return nil
}

// compileExport evaluates the wrapped declaration or expression; binding
// the module's export table is the host loader's concern.
func (c *Compiler) compileExport(node *ast.ExportDecl) error {
	if node.Decl != nil {
		if fn, ok := node.Decl.(*ast.FunctionLit); ok && fn.Name != nil {
			if !c.current.symbols.IsDefined(fn.Name.Name) {
				if _, err := c.current.symbols.Insert(fn.Name.Name, scope.KindFunction, true); err != nil {
					return c.formatError(err.Error(), fn.Pos())
				}
			}
			return c.compileFunctionDecl(fn)
		}
		return c.compile(node.Decl)
	}
	if node.DefaultExp != nil {
		if err := c.compile(node.DefaultExp); err != nil {
			return err
		}
		c.emit(op.PopTop)
	}
	return nil
}

// ---------------------------------------------------------------------------
// emission helpers

// constant interns a value into the constant pool, deduplicating
// primitive values so repeated literals share one entry.
func (c *Compiler) constant(obj any) uint16 {
	switch obj.(type) {
	case string, float64, bool:
		for i, existing := range c.current.constants {
			if existing == obj {
				return uint16(i)
			}
		}
	}
	c.current.constants = append(c.current.constants, obj)
	return uint16(len(c.current.constants) - 1)
}

// emit appends an instruction and returns its position.
func (c *Compiler) emit(opcode op.Code, operands ...uint16) int {
	inst := make([]op.Code, 1+len(operands))
	inst[0] = opcode
	for i, operand := range operands {
		inst[i+1] = op.Code(operand)
	}
	pos := len(c.current.instructions)
	c.current.instructions = append(c.current.instructions, inst...)

	loc := c.getCurrentLocation()
	for range inst {
		c.current.locations = append(c.current.locations, loc)
	}
	return pos
}

func (c *Compiler) getCurrentLocation() bytecode.SourceLocation {
	if c.currentNode == nil {
		return bytecode.SourceLocation{}
	}
	pos := c.currentNode.Pos()
	return bytecode.SourceLocation{
		Line:   pos.LineNumber(),
		Column: pos.ColumnNumber(),
	}
}

// patchJump rewrites the forward-jump at pos to land on the current
// position.
func (c *Compiler) patchJump(pos int) {
	c.patchJumpTo(pos, c.currentPosition())
}

// patchJumpTo rewrites the forward-jump at pos to land on target.
func (c *Compiler) patchJumpTo(pos, target int) {
	delta := target - pos
	if delta < 0 || delta > int(Placeholder) {
		panic(fmt.Sprintf("compile error: invalid forward jump delta %d", delta))
	}
	c.changeOperand(pos+1, uint16(delta))
}

// emitJumpBackward emits a backward jump to target.
func (c *Compiler) emitJumpBackward(target int) {
	pos := c.currentPosition()
	delta := pos - target
	c.emit(op.JumpBackward, uint16(delta))
}

// changeOperand rewrites a single instruction word.
func (c *Compiler) changeOperand(index int, operand uint16) {
	c.current.instructions[index] = op.Code(operand)
}

func (c *Compiler) formatError(msg string, pos token.Position) error {
	return errz.New(errz.Syntax, msg, errz.SourceLocation{
		Filename: c.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   c.main.GetSourceLine(pos.LineNumber()),
	}, nil)
}

// exprToPattern reinterprets an array or object literal as a
// destructuring pattern, for assignment expressions like `[a, b] = pair`.
func exprToPattern(expr ast.Expr) (ast.Pattern, error) {
	switch expr := expr.(type) {
	case *ast.Ident:
		return expr, nil
	case *ast.Assign:
		if expr.Op != "=" {
			return nil, fmt.Errorf("invalid destructuring assignment target")
		}
		target, err := exprToPattern(expr.Target)
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentPattern{Target: target, Eq: expr.OpPos, Default: expr.Value}, nil
	case *ast.ArrayLit:
		pattern := &ast.ArrayPattern{Lbrack: expr.Lbrack, Rbrack: expr.Rbrack}
		for _, elem := range expr.Elements {
			if elem == nil {
				pattern.Elements = append(pattern.Elements, nil)
				continue
			}
			if spread, ok := elem.(*ast.Spread); ok {
				target, err := exprToPattern(spread.X)
				if err != nil {
					return nil, err
				}
				pattern.Elements = append(pattern.Elements, &ast.RestElement{
					Ellipsis: spread.Ellipsis, Target: target,
				})
				continue
			}
			target, err := exprToPattern(elem)
			if err != nil {
				return nil, err
			}
			pattern.Elements = append(pattern.Elements, target)
		}
		return pattern, nil
	case *ast.ObjectLit:
		pattern := &ast.ObjectPattern{Lbrace: expr.Lbrace, Rbrace: expr.Rbrace}
		for _, prop := range expr.Props {
			if prop.Kind == ast.PropertySpread {
				target, err := exprToPattern(prop.Value)
				if err != nil {
					return nil, err
				}
				pattern.Rest = &ast.RestElement{Target: target}
				continue
			}
			if prop.Kind != ast.PropertyInit {
				return nil, fmt.Errorf("invalid destructuring assignment target")
			}
			target, err := exprToPattern(prop.Value)
			if err != nil {
				return nil, err
			}
			pattern.Props = append(pattern.Props, ast.ObjectPatternProp{
				Key:       prop.Key,
				Computed:  prop.Computed,
				Value:     target,
				Shorthand: prop.Shorthand,
			})
		}
		return pattern, nil
	default:
		return nil, fmt.Errorf("invalid destructuring assignment target")
	}
}
