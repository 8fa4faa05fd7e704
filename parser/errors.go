package parser

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/juniper-lang/juniper/errz"
	"github.com/juniper-lang/juniper/internal/token"
)

// ErrorOpts holds the data a parse error is built from. All fields are
// optional, although one of Cause or Message is recommended. If Cause is
// set, Message is ignored.
type ErrorOpts struct {
	Message       string
	Cause         error
	File          string
	StartPosition token.Position
	EndPosition   token.Position
	SourceCode    string
}

// NewSyntaxError returns a SyntaxError-kind structured error carrying the
// offending source line for caret rendering.
func NewSyntaxError(opts ErrorOpts) *errz.Error {
	message := opts.Message
	if opts.Cause != nil {
		message = opts.Cause.Error()
	}
	err := errz.New(errz.Syntax, message, errz.SourceLocation{
		Filename: opts.File,
		Line:     opts.StartPosition.LineNumber(),
		Column:   opts.StartPosition.ColumnNumber(),
		Source:   opts.SourceCode,
	}, nil)
	if opts.Cause != nil {
		err = err.WithCause(opts.Cause)
	}
	return err
}

// Errors wraps every error collected in one parse, for multi-error
// reporting with error recovery.
type Errors struct {
	errs []*errz.Error
}

// NewErrors creates an Errors from the collected parse errors, or nil if
// there were none.
func NewErrors(errs []*errz.Error) *Errors {
	if len(errs) == 0 {
		return nil
	}
	return &Errors{errs: errs}
}

// Error implements the error interface, reporting the first error and the
// count of any others.
func (e *Errors) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.errs[0].Error(), len(e.errs)-1)
}

// Errors returns the underlying errors.
func (e *Errors) Errors() []*errz.Error {
	return e.errs
}

// Count returns the number of errors.
func (e *Errors) Count() int {
	return len(e.errs)
}

// First returns the first error.
func (e *Errors) First() *errz.Error {
	return e.errs[0]
}

// Multi aggregates the parse errors into one AggregateError-kind value.
func (e *Errors) Multi() *errz.Error {
	agg := errz.NewAggregate(
		fmt.Sprintf("%d parse errors", len(e.errs)),
		e.errs[0].Location,
	)
	for _, err := range e.errs {
		agg.Aggregate = multierror.Append(agg.Aggregate, err)
	}
	return agg
}

// FriendlyErrorMessage renders every collected error with its caret
// snippet, one after another.
func (e *Errors) FriendlyErrorMessage() string {
	out := ""
	for i, err := range e.errs {
		if i > 0 {
			out += "\n"
		}
		out += err.FriendlyErrorMessage()
	}
	return out
}

// Unwrap exposes the individual errors to errors.Is/As.
func (e *Errors) Unwrap() []error {
	out := make([]error, len(e.errs))
	for i, err := range e.errs {
		out[i] = err
	}
	return out
}

func tokenDescription(t token.Token) string {
	switch t.Type {
	case token.EOF:
		return "end of input"
	default:
		if t.Literal == "" {
			return string(t.Type)
		}
		fmtd := t.Literal
		if len(fmtd) > 20 {
			fmtd = fmtd[:20] + "..."
		}
		return fmt.Sprintf("%q", fmtd)
	}
}
