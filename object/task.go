package object

import (
	"fmt"

	"github.com/juniper-lang/juniper/op"
)

// Task is the suspension-marker entity kind: the value a YIELD produced
// and the instruction address execution resumes at. The VM creates one
// when a coroutine suspends and unwraps it when the coroutine is resumed;
// tasks never escape to script code.
type Task struct {
	base
	value    Object
	resumePC int
}

// NewTask creates a suspension marker carrying value, resuming at resumePC.
func NewTask(value Object, resumePC int) *Task {
	if value == nil {
		value = Undefined
	}
	return &Task{value: value, resumePC: resumePC}
}

func (t *Task) Type() Type { return TASK }

// Value returns the yielded value.
func (t *Task) Value() Object { return t.value }

// ResumePC returns the instruction address to resume at.
func (t *Task) ResumePC() int { return t.resumePC }

func (t *Task) Inspect() string {
	return fmt.Sprintf("task(%s, resume=%d)", t.value.Inspect(), t.resumePC)
}

func (t *Task) String() string { return t.Inspect() }

func (t *Task) Interface() interface{} { return nil }

func (t *Task) Equals(other Object) bool { return other == t }

func (t *Task) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for task", opType)
}
