package object

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/juniper-lang/juniper/op"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Cell is a store owning one entity slot. A cell created over a frame's
// local-variable slot shares that slot: stores through either the frame or
// the cell are visible to both, which is what lets a closure and its
// enclosing scope observe each other's writes. Cells also participate in
// a parent/child graph encoding liveness edges: "cell A is reachable from
// cell B" is expressed as "A is a child of B." Cells are not
// reference-counted; reachability is computed from roots on demand by a
// Heap sweep.
type Cell struct {
	id       uuid.UUID
	ref      *Object
	children []*Cell
}

// NewCell creates a cell over the given entity slot. id is stamped from a
// UUID purely for debugging/inspection; the reachability algorithm itself
// never consults it.
func NewCell(ref *Object) *Cell {
	id, err := uuid.NewV4()
	if err != nil {
		id = uuid.Nil
	}
	return &Cell{id: id, ref: ref}
}

// NewCellFor allocates a fresh slot holding value and wraps it in a cell.
func NewCellFor(value Object) *Cell {
	return NewCell(&value)
}

func (c *Cell) Type() Type { return CELL }

func (c *Cell) ID() uuid.UUID { return c.id }

// Value returns the entity currently in the cell's slot.
func (c *Cell) Value() Object {
	if c.ref == nil || *c.ref == nil {
		return Undefined
	}
	return *c.ref
}

// Set replaces the entity in the cell's slot.
func (c *Cell) Set(value Object) {
	*c.ref = value
}

// AddChild records a liveness edge: child is reachable from c.
func (c *Cell) AddChild(child *Cell) {
	if child == nil || child == c {
		return
	}
	for _, existing := range c.children {
		if existing == child {
			return
		}
	}
	c.children = append(c.children, child)
}

// Children returns the cells directly reachable from c.
func (c *Cell) Children() []*Cell {
	return c.children
}

func (c *Cell) Inspect() string {
	return fmt.Sprintf("cell(%s)", c.Value().Inspect())
}

func (c *Cell) String() string {
	return c.Inspect()
}

func (c *Cell) Interface() interface{} {
	return c.Value().Interface()
}

func (c *Cell) Equals(other Object) bool {
	o, ok := other.(*Cell)
	return ok && o == c
}

func (c *Cell) IsTruthy() bool {
	return true
}

func (c *Cell) GetAttr(name string) (Object, bool) {
	return nil, false
}

func (c *Cell) SetAttr(name string, value Object) error {
	return TypeErrorf("cell has no attribute %q", name).AsError()
}

func (c *Cell) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for cell", opType)
}

// Heap owns the full cell population of one VM context. It never frees
// cells by reference count; it frees them in batches, triggered by scope
// teardown, by running a reachability probe from the remaining roots.
type Heap struct {
	cells     map[*Cell]struct{}
	roots     map[*Cell]struct{}
	internals map[*Cell]struct{} // cells of "internal" kind, always roots
	logger    zerolog.Logger
}

// NewHeap creates an empty heap. Sweep tracing goes to the global zerolog
// logger at debug level, not to a logger attached to the VM.
func NewHeap() *Heap {
	return &Heap{
		cells:     make(map[*Cell]struct{}),
		roots:     make(map[*Cell]struct{}),
		internals: make(map[*Cell]struct{}),
		logger:    log.Logger,
	}
}

// Track registers a freshly allocated cell with the heap.
func (h *Heap) Track(c *Cell) {
	h.cells[c] = struct{}{}
}

// AddRoot marks c as a scope root: reachable for the lifetime of the scope
// that owns it.
func (h *Heap) AddRoot(c *Cell) {
	h.roots[c] = struct{}{}
}

// RemoveRoot severs a scope's root edge, e.g. on scope teardown. It does
// not free anything by itself; call Sweep to reclaim unreferenced cells.
func (h *Heap) RemoveRoot(c *Cell) {
	delete(h.roots, c)
}

// MarkInternal flags c as an "internal" kind cell, which is always treated
// as a root regardless of scope.
func (h *Heap) MarkInternal(c *Cell) {
	h.internals[c] = struct{}{}
}

// Sweep runs a reachability probe from the remaining roots and internal
// cells, then drops every cell that fails the probe. It returns the
// number of cells reclaimed.
func (h *Heap) Sweep() int {
	reachable := make(map[*Cell]struct{}, len(h.cells))
	var mark func(c *Cell)
	mark = func(c *Cell) {
		if _, ok := reachable[c]; ok {
			return
		}
		reachable[c] = struct{}{}
		for _, child := range c.children {
			mark(child)
		}
	}
	for root := range h.roots {
		mark(root)
	}
	for root := range h.internals {
		mark(root)
	}

	reclaimed := 0
	for c := range h.cells {
		if _, live := reachable[c]; !live {
			delete(h.cells, c)
			reclaimed++
		}
	}
	if reclaimed > 0 {
		h.logger.Debug().
			Int("reclaimed", reclaimed).
			Int("live", len(reachable)).
			Msg("heap sweep")
	}
	return reclaimed
}

// Len reports the number of cells currently tracked by the heap.
func (h *Heap) Len() int {
	return len(h.cells)
}
