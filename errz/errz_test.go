package errz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	e := New(Reference, "x is not defined", SourceLocation{Filename: "a.js", Line: 1, Column: 5}, nil)
	require.Equal(t, "ReferenceError: x is not defined (a.js:1:5)", e.Error())
}

func TestErrorWithoutLocation(t *testing.T) {
	e := New(Type, "not a function", SourceLocation{}, nil)
	require.Equal(t, "TypeError: not a function", e.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := New(Internal, "wrapped", SourceLocation{}, nil).WithCause(cause)
	require.ErrorIs(t, e, cause)
}

func TestNewAggregate(t *testing.T) {
	e := NewAggregate("all promises rejected", SourceLocation{}, errors.New("a"), errors.New("b"))
	require.Equal(t, Aggregate, e.Kind)
	require.Len(t, e.Aggregate.Errors, 2)
}

func TestFriendlyErrorMessageIncludesCaret(t *testing.T) {
	e := New(Syntax, "unexpected token", SourceLocation{Filename: "a.js", Line: 3, Column: 5, Source: "let x = ;"}, nil)
	msg := e.FriendlyErrorMessage()
	require.Contains(t, msg, "let x = ;")
	require.Contains(t, msg, "^")
}

func TestFormatStackTrace(t *testing.T) {
	frames := []StackFrame{
		{Function: "foo", Location: SourceLocation{Filename: "a.js", Line: 2, Column: 1}},
		{Function: "bar", Location: SourceLocation{Filename: "a.js", Line: 10, Column: 3}},
	}
	trace := FormatStackTrace(frames)
	require.Contains(t, trace, "at foo (a.js:2:1)")
	require.Contains(t, trace, "at bar (a.js:10:3)")
}

func TestSuggestSimilar(t *testing.T) {
	candidates := []string{"length", "lengthOf", "push", "pop"}
	suggestions := SuggestSimilar("lenght", candidates)
	require.NotEmpty(t, suggestions)
	require.Equal(t, "length", suggestions[0].Value)
}

func TestFormatSuggestionsSingle(t *testing.T) {
	s := FormatSuggestions([]Suggestion{{Value: "length", Distance: 1}})
	require.Equal(t, "Did you mean 'length'?", s)
}

func TestFormatSuggestionsMultiple(t *testing.T) {
	s := FormatSuggestions([]Suggestion{{Value: "push", Distance: 1}, {Value: "pop", Distance: 2}})
	require.Equal(t, "Did you mean 'push' or 'pop'?", s)
}

func TestFormatSuggestionsEmpty(t *testing.T) {
	require.Equal(t, "", FormatSuggestions(nil))
}

func TestFormatterNoColor(t *testing.T) {
	f := NewFormatter(false)
	e := New(Range, "invalid array length", SourceLocation{Filename: "a.js", Line: 1, Column: 1, Source: "new Array(-1)"}, nil)
	out := f.Format(e)
	require.Contains(t, out, "RangeError: invalid array length")
	require.Contains(t, out, "--> a.js:1:1")
	require.Contains(t, out, "new Array(-1)")
}
