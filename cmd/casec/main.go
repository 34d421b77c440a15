package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/cache"
	"github.com/lhaig/casec/internal/compiler"
	"github.com/lhaig/casec/internal/config"
	"github.com/lhaig/casec/internal/diagnostic"
	"github.com/lhaig/casec/internal/formatter"
	"github.com/lhaig/casec/internal/jsexec"
	"github.com/lhaig/casec/internal/parser"
)

const usage = `casec - compiles case expressions with guards to JavaScript

Usage:
  casec build [options] <path>...      Compile .case files to .js
  casec check [-json] <path>...        Parse, lint and lower without writing output
  casec fmt [-w] <file.case>           Print (or rewrite) the file in canonical form
  casec run <file.case> <fn> [arg...]  Compile and call a function
  casec ast <file.case>                Print the parsed syntax tree

Build options:
  -o <dir>         Write output files to dir instead of next to each source
  -config <file>   Read settings from file (default: casec.yaml next to the first path)
  -json            Print a JSON report instead of diagnostics
  -no-strict       Omit the "use strict" directive

Arguments to run are source literals: 3, -1, True, "s", #(1, "a").

Examples:
  casec build hello.case               Build hello.case -> hello.js
  casec build -o dist src              Build every .case file under src into dist
  casec run hello.case main 1 True     Call main(1, true) and print the result
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch command := os.Args[1]; command {
	case "build":
		err = handleBuild(ctx, os.Args[2:])
	case "check":
		err = handleCheck(ctx, os.Args[2:])
	case "fmt":
		err = handleFmt(os.Args[2:])
	case "run":
		err = handleRun(ctx, os.Args[2:])
	case "ast":
		err = handleAST(os.Args[2:])
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// errFailed signals a failure whose diagnostics were already printed.
var errFailed = errors.New("failed")

// setup holds the shared flags of the compiling commands.
type setup struct {
	configPath string
	noStrict   bool
}

func (s *setup) register(fs *flag.FlagSet) {
	fs.StringVar(&s.configPath, "config", "", "settings file")
	fs.BoolVar(&s.noStrict, "no-strict", false, `omit "use strict"`)
}

// newCompiler loads settings and builds a compiler. The returned close
// function releases the cache.
func (s *setup) newCompiler(first string) (*compiler.Compiler, func(), error) {
	path := s.configPath
	if path == "" {
		path = filepath.Join(configDir(first), config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if s.noStrict {
		cfg.Output.Strict = false
	}

	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
	}

	c, err := compiler.New(compiler.Options{Config: cfg, Logger: logger, Cache: store})
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}
	closeFn := func() {
		if store != nil {
			store.Close()
		}
	}
	return c, closeFn, nil
}

func configDir(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

func handleBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	var s setup
	s.register(fs)
	outDir := fs.String("o", "", "output directory")
	asJSON := fs.Bool("json", false, "print a JSON report")
	if err := fs.Parse(args); err != nil {
		return errFailed
	}
	if fs.NArg() == 0 {
		return errors.New("no input file specified")
	}

	files, err := compiler.Discover(fs.Args())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", compiler.SourceExt)
	}

	c, closeFn, err := s.newCompiler(fs.Arg(0))
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := c.BuildFiles(ctx, files, *outDir)
	if err != nil {
		return err
	}

	failed := false
	reports := make([]compiler.Report, len(results))
	for i, res := range results {
		failed = failed || !res.OK()
		reports[i] = res.Report(false)
		if res.OK() {
			reports[i].OutputPath = c.OutputPath(res.File, *outDir)
		}
		if *asJSON {
			continue
		}
		printDiagnostics(res.File, res.Diagnostics)
		if res.OK() {
			fmt.Printf("Wrote %s\n", reports[i].OutputPath)
		}
	}
	if *asJSON {
		if err := compiler.WriteReports(os.Stdout, reports); err != nil {
			return err
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func handleCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	var s setup
	s.register(fs)
	asJSON := fs.Bool("json", false, "print a JSON report")
	if err := fs.Parse(args); err != nil {
		return errFailed
	}
	if fs.NArg() == 0 {
		return errors.New("no input file specified")
	}

	files, err := compiler.Discover(fs.Args())
	if err != nil {
		return err
	}
	c, closeFn, err := s.newCompiler(fs.Arg(0))
	if err != nil {
		return err
	}
	defer closeFn()

	failed := false
	var reports []compiler.Report
	for _, file := range files {
		source, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		diags, err := c.Check(ctx, file, source)
		if err != nil {
			return err
		}
		failed = failed || diags.HasErrors()
		if *asJSON {
			reports = append(reports, compiler.NewReport(file, diags))
			continue
		}
		printDiagnostics(file, diags)
	}

	if *asJSON {
		if err := compiler.WriteReports(os.Stdout, reports); err != nil {
			return err
		}
	} else if !failed {
		fmt.Println("No errors found.")
	}
	if failed {
		return errFailed
	}
	return nil
}

func handleFmt(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	write := fs.Bool("w", false, "write the result back to the file")
	if err := fs.Parse(args); err != nil {
		return errFailed
	}
	if fs.NArg() != 1 {
		return errors.New("fmt takes exactly one file")
	}
	file := fs.Arg(0)

	mod, err := parseFile(file)
	if err != nil {
		return err
	}
	out := formatter.Format(mod)
	if !*write {
		fmt.Print(out)
		return nil
	}
	return os.WriteFile(file, []byte(out), 0o644)
}

func handleRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var s setup
	s.register(fs)
	if err := fs.Parse(args); err != nil {
		return errFailed
	}
	if fs.NArg() < 2 {
		return errors.New("usage: casec run <file.case> <function> [arg...]")
	}
	file, name := fs.Arg(0), fs.Arg(1)

	source, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	c, closeFn, err := s.newCompiler(file)
	if err != nil {
		return err
	}
	defer closeFn()

	v, res, err := c.Run(ctx, file, source, name, fs.Args()[2:])
	if res != nil {
		printDiagnostics(file, res.Diagnostics)
		if !res.OK() {
			return errFailed
		}
	}
	if err != nil {
		return err
	}
	fmt.Println(jsexec.Format(v))
	return nil
}

func handleAST(args []string) error {
	if len(args) != 1 {
		return errors.New("ast takes exactly one file")
	}
	mod, err := parseFile(args[0])
	if err != nil {
		return err
	}
	fmt.Println(ast.Print(mod))
	return nil
}

// parseFile parses file, printing diagnostics on failure.
func parseFile(file string) (*ast.Module, error) {
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	p := parser.New(string(source))
	mod := p.Parse()
	if p.Diagnostics().HasErrors() {
		fmt.Fprint(os.Stderr, compiler.FormatDiagnostics(file, p.Diagnostics()))
		return nil, errFailed
	}
	return mod, nil
}

func printDiagnostics(file string, diags *diagnostic.Diagnostics) {
	fmt.Fprint(os.Stderr, compiler.FormatDiagnostics(file, diags))
}
