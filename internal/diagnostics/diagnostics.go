// Package diagnostics renders Forge's four error kinds (spec §7:
// LexError/ParseError/CompileError/RuntimeError) as human-readable,
// optionally colorized terminal output, gated on a real tty the way
// funvibe-funxy's cmd/lsp and pkg/cli use github.com/mattn/go-isatty
// before emitting ANSI escapes.
package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/forgelang/forge/internal/compiler"
	"github.com/forgelang/forge/internal/lexer"
	"github.com/forgelang/forge/internal/parser"
	"github.com/forgelang/forge/internal/vm"
)

const (
	red    = "\x1b[31m"
	yellow = "\x1b[33m"
	dim    = "\x1b[2m"
	reset  = "\x1b[0m"
)

// Printer renders errors to an io.Writer, colorizing only when that writer
// is a real terminal (or color is forced via config.Runtime.Color).
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter builds a Printer for w. forceColor, when non-nil, overrides
// the isatty probe (wired from config.Runtime.Color).
func NewPrinter(w io.Writer, forceColor *bool) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if forceColor != nil {
		color = *forceColor
	}
	return &Printer{w: w, color: color}
}

func (p *Printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + reset
}

// Print renders err according to its concrete type, falling back to a
// plain "error: <message>" line for anything else.
func (p *Printer) Print(err error) {
	switch e := err.(type) {
	case *lexer.Error:
		fmt.Fprintf(p.w, "%s %s%s\n", p.paint(red, "lex error:"), e.Message, p.paint(dim, fmt.Sprintf(" (%d:%d)", e.Line, e.Col)))
	case *parser.Error:
		fmt.Fprintf(p.w, "%s %s%s\n", p.paint(red, "parse error:"), e.Message, p.paint(dim, fmt.Sprintf(" (%d:%d)", e.Line, e.Col)))
	case *compiler.Error:
		fmt.Fprintf(p.w, "%s %s\n", p.paint(red, "compile error:"), e.Message)
	case *vm.RuntimeError:
		fmt.Fprintf(p.w, "%s %s\n", p.paint(red, "runtime error:"), e.Message)
		for _, f := range e.StackTrace {
			fmt.Fprintf(p.w, "  %s %s%s\n", p.paint(yellow, "at"), f.FunctionName, p.paint(dim, lineSuffix(f.Line)))
		}
	default:
		fmt.Fprintf(p.w, "%s %s\n", p.paint(red, "error:"), err.Error())
	}
}

func lineSuffix(line int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf(" (line %d)", line)
}
