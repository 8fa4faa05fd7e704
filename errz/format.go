package errz

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders an *Error as a Rust-style multi-line diagnostic:
// a bold error header, a "--> file:line:col" pointer, the offending source
// line with a caret underneath, any AggregateError members, and the call
// stack.
type Formatter struct {
	UseColor bool
}

// NewFormatter returns a Formatter. useColor selects ANSI styling; the
// caller (typically the CLI) passes false for non-tty output.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

// Format renders err as a complete diagnostic string.
func (f *Formatter) Format(err *Error) string {
	return f.FormatWithPrefix(err, "")
}

// FormatWithPrefix renders err, indenting every line by prefix (used when
// nesting one diagnostic inside another, e.g. AggregateError members).
func (f *Formatter) FormatWithPrefix(err *Error, prefix string) string {
	bold := f.style(color.Bold)
	red := f.style(color.FgRed, color.Bold)
	cyan := f.style(color.FgCyan)
	dim := f.style(color.Faint)

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s: %s\n", prefix, red(err.Kind.String()), bold(err.Message))

	if !err.Location.IsZero() {
		fmt.Fprintf(&b, "%s%s %s\n", prefix, cyan("-->"), err.Location.String())
	}
	if err.Location.Source != "" {
		line := fmt.Sprintf("%d", err.Location.Line)
		gutter := strings.Repeat(" ", len(line))
		fmt.Fprintf(&b, "%s%s %s\n", prefix, dim(gutter+" |"), "")
		fmt.Fprintf(&b, "%s%s %s\n", prefix, dim(line+" |"), err.Location.Source)
		if err.Location.Column > 0 {
			caret := strings.Repeat(" ", err.Location.Column-1) + red("^")
			fmt.Fprintf(&b, "%s%s %s\n", prefix, dim(gutter+" |"), caret)
		}
	}
	if err.Kind == Aggregate && err.Aggregate != nil {
		for _, sub := range err.Aggregate.Errors {
			if se, ok := sub.(*Error); ok {
				b.WriteString(f.FormatWithPrefix(se, prefix+"  "))
			} else {
				fmt.Fprintf(&b, "%s  - %s\n", prefix, sub.Error())
			}
		}
	}
	if len(err.Stack) > 0 {
		b.WriteString(prefix)
		b.WriteString(FormatStackTrace(err.Stack))
	}
	return b.String()
}

func (f *Formatter) style(attrs ...color.Attribute) func(string) string {
	if !f.UseColor {
		return func(s string) string { return s }
	}
	c := color.New(attrs...)
	return func(s string) string { return c.Sprint(s) }
}
