package object

import (
	"fmt"

	"github.com/juniper-lang/juniper/errz"
	"github.com/juniper-lang/juniper/op"
)

// Exception is the runtime entity kind thrown by THROW and by any opcode
// that fails: an error-type name, a message, a captured call stack, and
// an optional target cell the exception carries (e.g. a rejection value).
type Exception struct {
	*base
	kind   errz.Kind
	errVal *errz.Error
	target Object
}

func (e *Exception) Type() Type {
	return EXCEPTION
}

func (e *Exception) Inspect() string {
	return e.errVal.Error()
}

func (e *Exception) String() string {
	return e.errVal.Error()
}

func (e *Exception) Interface() interface{} {
	return e.errVal
}

func (e *Exception) Equals(other Object) bool {
	o, ok := other.(*Exception)
	if !ok {
		return false
	}
	return e.errVal.Error() == o.errVal.Error()
}

func (e *Exception) GetAttr(name string) (Object, bool) {
	switch name {
	case "name":
		return NewString(e.kind.String()), true
	case "message":
		return NewString(e.errVal.Message), true
	case "stack":
		return NewString(errz.FormatStackTrace(e.errVal.Stack)), true
	}
	return nil, false
}

func (e *Exception) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("unsupported operation %s for exception", opType)
}

// Kind returns the ECMAScript error kind this exception carries.
func (e *Exception) Kind() errz.Kind {
	return e.kind
}

// Err returns the underlying structured error.
func (e *Exception) Err() *errz.Error {
	return e.errVal
}

// Target returns the value a rejection or delegated exception carries, if
// any (distinct from the message — used by Promise rejection plumbing).
func (e *Exception) Target() Object {
	return e.target
}

// WithTarget attaches a target cell and returns e for chaining.
func (e *Exception) WithTarget(target Object) *Exception {
	e.target = target
	return e
}

// NewException wraps a structured error as an exception entity.
func NewException(err *errz.Error) *Exception {
	return &Exception{kind: err.Kind, errVal: err}
}

// NewExceptionFromGo wraps an arbitrary Go error as an InternalError
// exception, unless it already is one of ours.
func NewExceptionFromGo(err error) *Exception {
	if e, ok := err.(*errz.Error); ok {
		return NewException(e)
	}
	return NewException(errz.New(errz.Internal, err.Error(), errz.SourceLocation{}, nil))
}

func newErrorf(kind errz.Kind, format string, args ...interface{}) *Exception {
	return NewException(errz.Newf(kind, errz.SourceLocation{}, nil, format, args...))
}

// SyntaxErrorf builds a SyntaxError exception.
func SyntaxErrorf(format string, args ...interface{}) *Exception {
	return newErrorf(errz.Syntax, format, args...)
}

// TypeErrorf builds a TypeError exception.
func TypeErrorf(format string, args ...interface{}) *Exception {
	return newErrorf(errz.Type, format, args...)
}

// ReferenceErrorf builds a ReferenceError exception.
func ReferenceErrorf(format string, args ...interface{}) *Exception {
	return newErrorf(errz.Reference, format, args...)
}

// RangeErrorf builds a RangeError exception.
func RangeErrorf(format string, args ...interface{}) *Exception {
	return newErrorf(errz.Range, format, args...)
}

// URIErrorf builds a URIError exception.
func URIErrorf(format string, args ...interface{}) *Exception {
	return newErrorf(errz.URI, format, args...)
}

// InternalErrorf builds an InternalError exception, reserved for host
// programming bugs rather than script-level failures.
func InternalErrorf(format string, args ...interface{}) *Exception {
	return newErrorf(errz.Internal, format, args...)
}

// Thrown wraps an arbitrary script value as an exception entity, used when
// script code throws something that is not already an exception. The
// original value travels along as the target so `catch` can rebind it.
func Thrown(value Object) *Exception {
	if exc, ok := value.(*Exception); ok {
		return exc
	}
	exc := NewException(errz.New(errz.Generic, ToStringValue(value), errz.SourceLocation{}, nil))
	return exc.WithTarget(value)
}

var _ error = (*Exception)(nil)

// Error implements the Go error interface, so an exception entity can
// travel through functions returning (Object, error) without a wrapper.
func (e *Exception) Error() string { return e.errVal.Error() }

// Unwrap exposes the underlying structured error to errors.Is/As.
func (e *Exception) Unwrap() error { return e.errVal }

// AsError adapts an exception entity to a Go error.
func (e *Exception) AsError() error {
	return e
}

// ExceptionFromError recovers the Exception entity from an error, or wraps
// any other error as an InternalError.
func ExceptionFromError(err error) *Exception {
	if err == nil {
		return nil
	}
	if exc, ok := err.(*Exception); ok {
		return exc
	}
	return NewExceptionFromGo(err)
}

var _ fmt.Stringer = (*Exception)(nil)
