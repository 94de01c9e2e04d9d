package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/kr/pretty"

	"simply"
)

type options struct {
	Config    string `short:"c" long:"config" description:"path to a .properties config file"`
	Verbose   bool   `short:"v" long:"verbose" description:"emit info-level diagnostics"`
	DumpAST   bool   `long:"dump-ast" description:"pretty-print the surface AST before conversion"`
	DumpIR    bool   `long:"dump-ir" description:"pretty-print the intermediate program after conversion"`
	DumpLLVM  bool   `long:"dump-llvm" description:"print the generated LLVM IR before verification"`
	Args      struct {
		Example string   `positional-arg-name:"example" description:"name of a catalogue program"`
		Ints    []string `positional-arg-name:"args" description:"integer arguments to main"`
	} `positional-args:"yes" required:"1"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	cfg, err := simply.LoadConfig(opts.Config,
		simply.WithVerbose(opts.Verbose),
		simply.WithDumpAST(opts.DumpAST),
		simply.WithDumpIR(opts.DumpIR),
		simply.WithDumpLLVM(opts.DumpLLVM),
	)
	check(err)

	entry, ok := simply.Examples()[opts.Args.Example]
	if !ok {
		fmt.Fprintf(os.Stderr, "simplyc: unknown example %q\n", opts.Args.Example)
		os.Exit(1)
	}

	args, err := parseInts(opts.Args.Ints)
	check(err)

	var diag simply.Diagnostics = simply.DiscardDiagnostics{}
	if cfg.Verbose {
		diag = simply.TerminalDiagnostics{MinSeverity: cfg.MinSeverity}
	}

	if cfg.DumpAST {
		pretty.Println(entry.Program)
	}

	check(simply.CheckProgram(entry.Program))
	simply.Stage(diag, "typecheck", "ok")

	ir := simply.ConvertProgram(entry.Program)
	simply.Stage(diag, "closure-convert", fmt.Sprintf("%d globals", len(ir.Globals)))
	if cfg.DumpIR {
		pretty.Println(ir)
	}

	module := simply.Codegen(ir, "main", cfg)
	simply.Stage(diag, "codegen", "module built")
	if cfg.DumpLLVM {
		fmt.Println(module.String())
	}

	check(simply.Verify(module))
	simply.Stage(diag, "verify", "ok")

	result, err := simply.RunProgram(module, args)
	check(err)
	simply.Stage(diag, "jit", "ok")

	fmt.Println(result)
}

func parseInts(raw []string) ([]int32, error) {
	out := make([]int32, len(raw))
	for i, s := range raw {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("simplyc: invalid integer argument %q: %w", s, err)
		}
		out[i] = int32(n)
	}
	return out, nil
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "simplyc:", err)
		os.Exit(1)
	}
}
