// Command juniper is the command-line entry point: it reads a source
// file (or -c code), optionally just parses or compiles it, and forwards
// to the engine. Exit code 0 for success, non-zero with a diagnostic on
// standard error for parse or runtime failures.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/juniper-lang/juniper"
	"github.com/juniper-lang/juniper/dis"
	"github.com/juniper-lang/juniper/errz"
	"github.com/juniper-lang/juniper/object"
	"github.com/juniper-lang/juniper/parser"
)

func main() {
	var noColor, showAST, showBytecode bool
	var code string
	flag.BoolVar(&noColor, "no-color", false, "Disable color output")
	flag.BoolVar(&showAST, "parse", false, "Parse only and print the syntax tree")
	flag.BoolVar(&showBytecode, "compile", false, "Compile only and print the bytecode")
	flag.StringVar(&code, "c", "", "Code to execute")
	flag.Parse()

	if noColor {
		color.NoColor = true
	}
	red := color.New(color.FgRed).SprintfFunc()

	ctx := context.Background()

	nArgs := len(flag.Args())
	if nArgs > 0 && len(code) > 0 {
		fmt.Fprintf(os.Stderr, "%s\n", red("error: cannot provide both a script file and -c input"))
		os.Exit(1)
	}
	if nArgs == 0 && len(code) == 0 {
		if err := runRepl(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", red(err.Error()))
			os.Exit(1)
		}
		return
	}

	filename := ""
	source := code
	if nArgs > 0 {
		filename = flag.Args()[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", red(err.Error()))
			os.Exit(1)
		}
		source = string(data)
	}

	opts := []juniper.Option{juniper.WithFilename(filename)}

	switch {
	case showAST:
		program, err := juniper.Parse(ctx, source, opts...)
		if err != nil {
			fail(err)
		}
		fmt.Println(program.String())
	case showBytecode:
		program, err := juniper.Compile(ctx, source, opts...)
		if err != nil {
			fail(err)
		}
		if err := dis.PrintCode(program.Code(), os.Stdout); err != nil {
			fail(err)
		}
	default:
		result, err := juniper.Eval(ctx, source, opts...)
		if err != nil {
			fail(err)
		}
		if result != nil && result != object.Undefined {
			fmt.Println(result.Inspect())
		}
	}
}

// fail prints a diagnostic for the error, using the caret-annotated
// renderer for structured engine errors, and exits non-zero.
func fail(err error) {
	formatter := errz.NewFormatter(!color.NoColor)
	switch err := err.(type) {
	case *parser.Errors:
		for _, e := range err.Errors() {
			fmt.Fprint(os.Stderr, formatter.Format(e))
		}
	case *errz.Error:
		fmt.Fprint(os.Stderr, formatter.Format(err))
	case *object.Exception:
		fmt.Fprint(os.Stderr, formatter.Format(err.Err()))
	default:
		fmt.Fprintln(os.Stderr, err.Error())
	}
	os.Exit(1)
}
