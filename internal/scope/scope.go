// Package scope builds the lexical scope tree used by the compiler to
// resolve identifiers to local slots, free (closed-over) variables, or
// globals, and to assign them a storage index ahead of code generation.
package scope

import (
	"errors"
	"fmt"
	"math"

	"github.com/gofrs/uuid"
)

// Kind categorizes how a binding entered scope, mirroring the declaration
// categories ECMAScript distinguishes for hoisting and the temporal dead
// zone: a `var` is function-scoped and initialized to undefined up front, a
// `let`/`const` is block-scoped and uninitialized until its declaration
// executes, a function declaration is hoisted with its value, and
// parameters/catch bindings are initialized on entry.
type Kind int

const (
	KindVar Kind = iota
	KindLet
	KindConst
	KindFunction
	KindArgument
	KindCatchParam
)

// Scope describes where a resolved symbol lives relative to the table that
// resolved it.
type Scope int

const (
	Global Scope = iota
	Local
	Free
)

func (s Scope) String() string {
	switch s {
	case Global:
		return "global"
	case Local:
		return "local"
	case Free:
		return "free"
	default:
		return "unknown"
	}
}

// BlankIdentifier is the identifier used to discard a binding, as in
// destructuring patterns that skip an element.
const BlankIdentifier = "_"

// IsBlankIdentifier reports whether name is the blank identifier.
func IsBlankIdentifier(name string) bool {
	return name == BlankIdentifier
}

// Symbol is one named binding in a Table.
type Symbol struct {
	id         string
	name       string
	index      uint16
	kind       Kind
	isConstant bool
	inTDZ      bool // true for let/const until their declaration executes
}

func (s *Symbol) ID() string       { return s.id }
func (s *Symbol) Name() string     { return s.name }
func (s *Symbol) Index() uint16    { return s.index }
func (s *Symbol) Kind() Kind       { return s.kind }
func (s *Symbol) IsConstant() bool { return s.isConstant }
func (s *Symbol) InTDZ() bool      { return s.inTDZ }
func (s *Symbol) ClearTDZ()        { s.inTDZ = false }

// Resolution is the result of resolving a name: which symbol it refers to,
// and whether that symbol is local to the resolving table, global, or a
// free variable captured from an enclosing function. For free variables,
// Parent is the same name's resolution in the immediately enclosing
// function: captures are transitive, so a variable used two function
// levels down is captured by every function in between, and the closure
// builder follows the Parent chain one level at a time.
type Resolution struct {
	Symbol    *Symbol
	ScopeKind Scope
	Depth     int
	FreeIndex int
	Parent    *Resolution
}

// Table tracks the bindings visible in one lexical scope. Tables nest:
// a function table's children are its block tables and nested function
// tables. Blocks share their enclosing function's index space, exactly as
// var declarations in nested blocks are hoisted to function scope in real
// ECMAScript.
type Table struct {
	id            string
	parent        *Table
	children      []*Table
	symbolsByName map[string]*Symbol
	freeByName    map[string]*Resolution
	symbols       []*Symbol
	free          []*Resolution
	isBlock       bool
}

// New returns a new root (global) scope table.
func New() *Table {
	return &Table{
		id:            "root",
		symbolsByName: map[string]*Symbol{},
		freeByName:    map[string]*Resolution{},
	}
}

// NewChild creates a table that represents a new function scope nested in t.
func (t *Table) NewChild() *Table {
	child := &Table{
		id:            fmt.Sprintf("%s.%d", t.id, len(t.children)),
		parent:        t,
		symbolsByName: map[string]*Symbol{},
		freeByName:    map[string]*Resolution{},
	}
	t.children = append(t.children, child)
	return child
}

// NewBlock creates a table representing a block nested in t (an if/for/
// while/try body, or a bare `{ }`). Blocks claim storage slots from their
// enclosing function rather than maintaining their own index space.
func (t *Table) NewBlock() *Table {
	child := t.NewChild()
	child.isBlock = true
	return child
}

// ID returns this table's dotted path from the root.
func (t *Table) ID() string { return t.id }

func (t *Table) claimIndex(s *Symbol) (uint16, error) {
	if t.isBlock {
		return t.parent.claimIndex(s)
	}
	idx := len(t.symbols)
	if idx >= math.MaxUint16 {
		return 0, errors.New("compile error: too many bindings in scope")
	}
	uidx := uint16(idx)
	t.symbols = append(t.symbols, s)
	s.index = uidx
	return uidx, nil
}

// GetFunction returns the nearest enclosing function-level table (skipping
// blocks), and false if t is the global scope.
func (t *Table) GetFunction() (*Table, bool) {
	if t.parent == nil {
		return nil, false
	}
	if t.isBlock {
		return t.parent.GetFunction()
	}
	return t, true
}

// FunctionDepth counts how many function boundaries separate t from the
// global scope (blocks do not add depth).
func (t *Table) FunctionDepth() int {
	if t.parent == nil {
		return 0
	}
	if t.isBlock {
		return t.parent.FunctionDepth()
	}
	return 1 + t.parent.FunctionDepth()
}

// Insert adds a new binding of the given kind to t. initialized controls
// whether the binding starts out of the temporal dead zone (true for var,
// function, argument, and catch-param bindings; false for let/const until
// their declaration statement runs).
func (t *Table) Insert(name string, kind Kind, initialized bool) (*Symbol, error) {
	if IsBlankIdentifier(name) {
		return nil, nil
	}
	if _, ok := t.symbolsByName[name]; ok {
		return nil, fmt.Errorf("identifier %q has already been declared", name)
	}
	id, _ := uuid.NewV4()
	s := &Symbol{
		id:         id.String(),
		name:       name,
		kind:       kind,
		isConstant: kind == KindConst,
		inTDZ:      !initialized,
	}
	if _, err := t.claimIndex(s); err != nil {
		return nil, err
	}
	t.symbolsByName[name] = s
	return s, nil
}

// IsDefined reports whether name is bound directly in t (not ancestors).
func (t *Table) IsDefined(name string) bool {
	_, ok := t.symbolsByName[name]
	return ok
}

// Get returns the symbol bound to name directly in t, if any.
func (t *Table) Get(name string) (*Symbol, bool) {
	s, ok := t.symbolsByName[name]
	return s, ok
}

// IsGlobal reports whether t is the top-level (root) scope.
func (t *Table) IsGlobal() bool {
	if t.parent == nil {
		return true
	}
	if t.isBlock {
		return t.parent.IsGlobal()
	}
	return false
}

// Resolve looks up name in t or any ancestor, returning a Resolution that
// tells the compiler whether to emit a local slot access, a free-variable
// (closure cell) access, or a global access. Captures across a function
// boundary are transitive: each function between the reference and the
// declaration records the name once in its own free list, so repeated
// references reuse the same free slot and the closure builder only ever
// reaches one frame outward.
func (t *Table) Resolve(name string) (*Resolution, bool) {
	if IsBlankIdentifier(name) {
		return nil, false
	}
	// Walk t and its enclosing blocks up to (and including) the nearest
	// function-level table. A hit inside that span is Local (or Global
	// when the span belongs to the root scope).
	cur := t
	for {
		if s, ok := cur.symbolsByName[name]; ok {
			if cur.IsGlobal() {
				return &Resolution{Symbol: s, ScopeKind: Global}, true
			}
			return &Resolution{Symbol: s, ScopeKind: Local}, true
		}
		if cur.isBlock {
			cur = cur.parent
			continue
		}
		break
	}
	// cur is now the function-level table (or the root).
	if cur.parent == nil {
		return nil, false
	}
	if rs, ok := cur.freeByName[name]; ok {
		return rs, true
	}
	parentRes, ok := cur.parent.Resolve(name)
	if !ok {
		return nil, false
	}
	if parentRes.ScopeKind == Global {
		return parentRes, true
	}
	rs := &Resolution{
		Symbol:    parentRes.Symbol,
		ScopeKind: Free,
		Depth:     parentRes.Depth + 1,
		FreeIndex: len(cur.free),
		Parent:    parentRes,
	}
	cur.freeByName[name] = rs
	cur.free = append(cur.free, rs)
	return rs, true
}

// Parent returns t's parent table, or nil at the root.
func (t *Table) Parent() *Table { return t.parent }

// LocalTable returns the nearest enclosing function-level table (t itself
// if t is not a block).
func (t *Table) LocalTable() *Table {
	current := t
	for current.isBlock {
		current = current.parent
	}
	return current
}

// Count returns the number of storage slots claimed in this function scope.
func (t *Table) Count() uint16 { return uint16(len(t.symbols)) }

// Symbol returns the symbol at the given slot index (nil for unnamed
// reserved slots, used for blank-identifier parameters).
func (t *Table) Symbol(index uint16) *Symbol { return t.symbols[index] }

// FreeCount returns how many free (captured) variables this function uses.
func (t *Table) FreeCount() uint16 { return uint16(len(t.free)) }

// Free returns the free-variable resolution at the given index.
func (t *Table) Free(index uint16) *Resolution { return t.free[index] }

// AllNames returns every name visible from t, walking up through ancestors,
// for use in "did you mean" suggestions in ReferenceError messages.
func (t *Table) AllNames() []string {
	seen := map[string]bool{}
	var names []string
	for current := t; current != nil; current = current.parent {
		for name := range current.symbolsByName {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
