package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/juniper-lang/juniper"
	"github.com/juniper-lang/juniper/errz"
	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/parser"
)

const prompt = "> "

// runRepl reads lines, evaluating each one as a complete program and
// printing its result. Globals persist across inputs by accumulating the
// source, the way incremental evaluation works without a resident VM.
func runRepl(ctx context.Context) error {
	bold := color.New(color.Bold)
	bold.Println("juniper - an ECMAScript engine (ctrl-d to exit)")

	var history []string
	var input strings.Builder
	fmt.Print(prompt)

	render := func() {
		fmt.Print("\r\033[K" + prompt + input.String())
	}

	return keyboard.Listen(func(key keys.Key) (bool, error) {
		switch key.Code {
		case keys.CtrlC, keys.CtrlD:
			fmt.Println()
			return true, nil
		case keys.Enter:
			fmt.Println()
			line := input.String()
			input.Reset()
			if strings.TrimSpace(line) != "" {
				history = append(history, line)
				evalLine(ctx, history)
			}
			fmt.Print(prompt)
			return false, nil
		case keys.Backspace:
			current := input.String()
			if len(current) > 0 {
				input.Reset()
				input.WriteString(current[:len(current)-1])
			}
			render()
			return false, nil
		case keys.Space:
			input.WriteRune(' ')
			render()
			return false, nil
		case keys.RuneKey:
			input.WriteString(string(key.Runes))
			render()
			return false, nil
		default:
			return false, nil
		}
	})
}

// evalLine re-evaluates the accumulated history so earlier declarations
// stay visible, printing only the newest line's value or error.
func evalLine(ctx context.Context, history []string) {
	source := strings.Join(history, "\n")
	result, err := juniper.Eval(ctx, source, juniper.WithFilename("<repl>"))
	if err != nil {
		printReplError(err)
		return
	}
	if result != nil && result != object.Undefined {
		fmt.Println(color.CyanString(result.Inspect()))
	}
}

func printReplError(err error) {
	formatter := errz.NewFormatter(!color.NoColor)
	switch err := err.(type) {
	case *parser.Errors:
		fmt.Fprint(os.Stderr, formatter.Format(err.First()))
	case *errz.Error:
		fmt.Fprint(os.Stderr, formatter.Format(err))
	case *object.Exception:
		fmt.Fprint(os.Stderr, formatter.Format(err.Err()))
	default:
		fmt.Fprintln(os.Stderr, color.RedString(err.Error()))
	}
}
