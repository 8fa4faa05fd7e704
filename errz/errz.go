// Package errz defines the structured error taxonomy this engine raises
// for every ECMAScript error kind, with source locations, a caret-style
// source snippet, and a call-stack trace for actionable diagnostics.
package errz

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind represents the category of a runtime or parse error, matching the
// built-in ECMAScript error constructors.
type Kind int

const (
	Syntax Kind = iota
	Type
	Reference
	Range
	URI
	Aggregate
	Internal
	// Generic is the plain Error kind, used for thrown non-error values
	// and `new Error(...)`.
	Generic
)

// String returns the ECMAScript constructor name for this error kind.
func (k Kind) String() string {
	switch k {
	case Syntax:
		return "SyntaxError"
	case Type:
		return "TypeError"
	case Reference:
		return "ReferenceError"
	case Range:
		return "RangeError"
	case URI:
		return "URIError"
	case Aggregate:
		return "AggregateError"
	case Internal:
		return "InternalError"
	default:
		return "Error"
	}
}

// SourceLocation identifies a position in source code for diagnostics.
type SourceLocation struct {
	Filename string
	Line     int // 1-based
	Column   int // 1-based
	Source   string
}

func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero reports whether the location was never set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// StackFrame is a single call-stack entry captured at the point an error
// was raised.
type StackFrame struct {
	Function string
	Location SourceLocation
}

func (f StackFrame) String() string {
	if f.Function != "" {
		return fmt.Sprintf("at %s (%s)", f.Function, f.Location.String())
	}
	return fmt.Sprintf("at %s", f.Location.String())
}

// FormatStackTrace renders a slice of stack frames as a human-readable trace.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace:\n")
	for _, frame := range frames {
		b.WriteString("  ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Error is a rich, structured engine error: a kind, a message, a source
// location, a call-stack snapshot, and an optional wrapped cause.
type Error struct {
	Message  string
	Kind     Kind
	Location SourceLocation
	Stack    []StackFrame
	Cause    error

	// Aggregate, when Kind == Aggregate, holds the individual errors this
	// error wraps (e.g. the parser's multi-error recovery).
	Aggregate *multierror.Error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Location.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind.String(), e.Message, e.Location.String())
}

// Unwrap returns the underlying cause, if any, so errors.Is/As work.
func (e *Error) Unwrap() error {
	return e.Cause
}

// FriendlyErrorMessage renders a multi-line diagnostic: the error header,
// a caret-annotated source snippet, and the call stack.
func (e *Error) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	if e.Location.IsZero() {
		fmt.Fprintf(&msg, "%s: %s\n", e.Kind.String(), e.Message)
	} else {
		fmt.Fprintf(&msg, "%s: %s (%s)\n", e.Kind.String(), e.Message, e.Location.String())
	}
	if e.Location.Source != "" {
		msg.WriteString(" | ")
		msg.WriteString(e.Location.Source)
		msg.WriteString("\n")
		if e.Location.Column > 0 {
			msg.WriteString(" | ")
			msg.WriteString(strings.Repeat(" ", e.Location.Column-1))
			msg.WriteString("^\n")
		}
	}
	if e.Kind == Aggregate && e.Aggregate != nil {
		for _, sub := range e.Aggregate.Errors {
			fmt.Fprintf(&msg, "  - %s\n", sub.Error())
		}
	}
	if len(e.Stack) > 0 {
		msg.WriteString("\n")
		msg.WriteString(FormatStackTrace(e.Stack))
	}
	return msg.String()
}

// New creates an Error of the given kind.
func New(kind Kind, message string, loc SourceLocation, stack []StackFrame) *Error {
	return &Error{Message: message, Kind: kind, Location: loc, Stack: stack}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, loc SourceLocation, stack []StackFrame, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Kind: kind, Location: loc, Stack: stack}
}

// NewAggregate builds an AggregateError wrapping errs, following the real
// ECMAScript AggregateError contract (used by the parser's multi-error
// recovery mode).
func NewAggregate(message string, loc SourceLocation, errs ...error) *Error {
	agg := &multierror.Error{}
	for _, e := range errs {
		agg = multierror.Append(agg, e)
	}
	return &Error{Message: message, Kind: Aggregate, Location: loc, Aggregate: agg}
}

// WithCause attaches a wrapped cause and returns e for chaining.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithStack attaches a call-stack snapshot and returns e for chaining.
func (e *Error) WithStack(stack []StackFrame) *Error {
	e.Stack = stack
	return e
}
