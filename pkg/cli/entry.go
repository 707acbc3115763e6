// Package cli implements Forge's command-line entry point: `forge run
// <file>`, `forge repl`, `forge disasm <file>`, and `forge profile <file>`.
// It follows funvibe-funxy/pkg/cli/entry.go's own raw os.Args subcommand
// dispatch (no flag package, a handleX() bool per subcommand tried in
// order) but is far smaller since Forge has no module loader, bundler, or
// `build`/`test` subcommands of its own — those were the teacher's own
// static-binary packaging story for a statically typed language; Forge
// scripts are always interpreted by an embedding host.
package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/forgelang/forge/internal/bindgen"
	"github.com/forgelang/forge/internal/compiler"
	"github.com/forgelang/forge/internal/config"
	"github.com/forgelang/forge/internal/diagnostics"
	"github.com/forgelang/forge/internal/pipeline"
	"github.com/forgelang/forge/internal/vm"
	"github.com/forgelang/forge/pkg/embed"
)

// Main is cmd/forge/main.go's entire body.
func Main() int {
	if len(os.Args) < 2 {
		printUsage()
		return 1
	}

	switch os.Args[1] {
	case "run":
		return cmdRun(os.Args[2:])
	case "repl":
		return cmdRepl()
	case "disasm":
		return cmdDisasm(os.Args[2:])
	case "profile":
		return cmdProfile(os.Args[2:])
	case "bindgen":
		return cmdBindgen(os.Args[2:])
	case "-version", "--version", "version":
		fmt.Println("forge", config.Version)
		return 0
	case "-help", "--help", "help":
		printUsage()
		return 0
	default:
		if config.HasSourceExt(os.Args[1]) {
			return cmdRun(os.Args[1:])
		}
		fmt.Fprintf(os.Stderr, "forge: unknown command %q\n", os.Args[1])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  forge run <file.fg>       run a script
  forge repl                start an interactive session
  forge disasm <file.fg>    print compiled bytecode
  forge profile <file.fg>   run and print the JIT hot-function report
  forge bindgen <go-pkg> <namespace>   generate native bindings for a Go package
  forge version`)
}

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "forge run: missing <file.fg>")
		return 1
	}
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	rt, err := embed.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	printer := diagnostics.NewPrinter(os.Stderr, rt.ColorOverride())

	if _, err := rt.Eval(path, string(source)); err != nil {
		if exitErr, ok := err.(*vm.ExitError); ok {
			return exitErr.Code
		}
		printer.Print(err)
		return 1
	}
	return 0
}

func cmdRepl() int {
	rt, err := embed.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	printer := diagnostics.NewPrinter(os.Stderr, rt.ColorOverride())

	fmt.Println("forge", config.Version, "— interactive session, Ctrl-D to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return 0
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		result, err := rt.Eval("<repl>", line)
		if err != nil {
			printer.Print(err)
			continue
		}
		fmt.Printf("%v\n", result)
	}
}

func cmdDisasm(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "forge disasm: missing <file.fg>")
		return 1
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	ctx := pipeline.New(args[0], string(source))
	ctx = pipeline.Standard().Run(ctx)
	printer := diagnostics.NewPrinter(os.Stderr, nil)
	if len(ctx.Diagnostics) > 0 {
		printer.Print(ctx.Diagnostics[0])
		return 1
	}
	fmt.Print(compiler.Disassemble(ctx.Chunk))
	return 0
}

func cmdProfile(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "forge profile: missing <file.fg>")
		return 1
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}

	rt, err := embed.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	printer := diagnostics.NewPrinter(os.Stderr, rt.ColorOverride())
	if _, err := rt.Eval(args[0], string(source)); err != nil {
		printer.Print(err)
		return 1
	}

	for _, entry := range rt.ProfileReport() {
		fmt.Println(entry.String())
	}
	return 0
}

func cmdBindgen(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "forge bindgen: usage: forge bindgen <go-package> <namespace>")
		return 1
	}
	pkg, err := bindgen.Inspect(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	src, err := bindgen.Generate(pkg, args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		return 1
	}
	os.Stdout.Write(src)
	return 0
}
