package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/backend"
	"github.com/lhaig/casec/internal/cache"
	"github.com/lhaig/casec/internal/config"
	"github.com/lhaig/casec/internal/diagnostic"
	"github.com/lhaig/casec/internal/ir"
	"github.com/lhaig/casec/internal/linter"
	"github.com/lhaig/casec/internal/lower"
	"github.com/lhaig/casec/internal/parser"
)

// Options configures a Compiler.
type Options struct {
	Config config.Config

	// Logger receives progress at debug level and lint findings at warn.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// Cache stores results by source and settings.
	// OPTIONAL: no caching if nil.
	Cache *cache.Store
}

// Compiler runs the pipeline: parse -> lint -> lower -> validate -> print.
// It is safe for concurrent use.
type Compiler struct {
	cfg     config.Config
	logger  *slog.Logger
	backend backend.Backend
	cache   *cache.Store
}

// Result holds the output of a compilation
type Result struct {
	File        string
	Output      string
	Module      *ir.Module // nil on errors and cache hits
	Diagnostics *diagnostic.Diagnostics
	Cached      bool
}

// OK reports whether compilation produced output.
func (r *Result) OK() bool {
	return !r.Diagnostics.HasErrors()
}

// New returns a compiler for opts.
func New(opts Options) (*Compiler, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	b, err := backend.New(opts.Config.Target, opts.Config.BackendOptions())
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{cfg: opts.Config, logger: logger, backend: b, cache: opts.Cache}, nil
}

// Backend returns the configured backend.
func (c *Compiler) Backend() backend.Backend { return c.backend }

// Compile runs the full pipeline over one source file. Failures are
// reported as diagnostics; the error is only for cancellation.
func (c *Compiler) Compile(ctx context.Context, file string, source []byte) (*Result, error) {
	return c.compile(ctx, file, source, c.cache)
}

// compile is Compile with an explicit cache; store may be nil. A cache hit
// has no lowered Module.
func (c *Compiler) compile(ctx context.Context, file string, source []byte, store *cache.Store) (*Result, error) {
	log := c.logger.With("file", file)

	var key string
	if store != nil {
		key = cache.Key(source, c.fingerprint())
		if res, ok := c.fromCache(store, log, file, key); ok {
			return res, nil
		}
	}

	res := &Result{File: file, Diagnostics: diagnostic.New()}
	mod, ok := c.front(log, res, source)
	if !ok {
		return res, nil
	}

	lowered, diags, err := c.Lower(ctx, mod)
	if err != nil {
		return nil, err
	}
	res.Diagnostics.Merge(file, diags)
	if !diags.HasErrors() && c.cfg.Verify {
		res.Diagnostics.Merge(file, validate(lowered))
	}
	if res.Diagnostics.HasErrors() {
		res.Diagnostics.Sort()
		return res, nil
	}

	res.Module = lowered
	res.Output = c.backend.Generate(lowered)
	res.Diagnostics.Sort()

	if store != nil {
		if err := store.Put(key, cache.Entry{Output: res.Output, Warnings: toCacheWarnings(res.Diagnostics)}); err != nil {
			log.Warn("cache write failed", "err", err)
		}
	}
	return res, nil
}

// Check runs the pipeline without printing. Lowering still runs so that
// its precondition failures are reported.
func (c *Compiler) Check(ctx context.Context, file string, source []byte) (*diagnostic.Diagnostics, error) {
	log := c.logger.With("file", file)
	res := &Result{File: file, Diagnostics: diagnostic.New()}
	mod, ok := c.front(log, res, source)
	if !ok {
		return res.Diagnostics, nil
	}
	lowered, diags, err := c.Lower(ctx, mod)
	if err != nil {
		return nil, err
	}
	res.Diagnostics.Merge(file, diags)
	if !diags.HasErrors() && c.cfg.Verify {
		res.Diagnostics.Merge(file, validate(lowered))
	}
	res.Diagnostics.Sort()
	return res.Diagnostics, nil
}

// front parses and lints source into res.
func (c *Compiler) front(log *slog.Logger, res *Result, source []byte) (*ast.Module, bool) {
	p := parser.New(string(source))
	mod := p.Parse()
	res.Diagnostics.Merge(res.File, p.Diagnostics())
	if p.Diagnostics().HasErrors() {
		log.Debug("parse failed", "errors", len(p.Diagnostics().Errors()))
		return nil, false
	}
	if c.cfg.Lint {
		warnings := linter.Lint(mod)
		for _, w := range warnings.All() {
			log.Warn(w.Message, "code", w.Code, "line", w.Line, "column", w.Column)
		}
		res.Diagnostics.Merge(res.File, warnings)
	}
	return mod, true
}

// Lower lowers every function of mod, up to the configured number at a
// time. Each function gets its own binding environment. Lowering failures
// are returned as diagnostics in source order; the error is only for
// cancellation.
func (c *Compiler) Lower(ctx context.Context, mod *ast.Module) (*ir.Module, *diagnostic.Diagnostics, error) {
	fns := make([]*ir.Function, len(mod.Functions))
	errs := make([]error, len(mod.Functions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.WorkerCount())
	for i, fn := range mod.Functions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fns[i], errs[i] = lower.Function(fn)
			c.logger.Debug("lowered function", "function", fn.Name, "ok", errs[i] == nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	diags := diagnostic.New()
	out := &ir.Module{}
	for i, fn := range mod.Functions {
		if errs[i] != nil {
			diags.Add(loweringDiagnostic(fn, errs[i]))
			continue
		}
		out.Functions = append(out.Functions, fns[i])
	}
	return out, diags, nil
}

// validate reports structural problems in lowered output. Any problem is
// a compiler bug, not a user error.
func validate(mod *ir.Module) *diagnostic.Diagnostics {
	diags := diagnostic.New()
	for _, p := range ir.Validate(mod) {
		diags.CodedErrorf(CodeInvalidOutput, 0, 0, "internal: invalid output: %s", p)
	}
	return diags
}

func (c *Compiler) fingerprint() string {
	return fmt.Sprintf("%s lint=%t casec=%d", c.cfg.Fingerprint(), c.cfg.Lint, cache.FormatVersion)
}

func (c *Compiler) fromCache(store *cache.Store, log *slog.Logger, file, key string) (*Result, bool) {
	entry, ok, err := store.Get(key)
	if err != nil {
		log.Warn("cache entry unreadable", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		log.Debug("cache miss", "key", key)
		return nil, false
	}
	log.Debug("cache hit", "key", key)
	res := &Result{File: file, Output: entry.Output, Diagnostics: diagnostic.New(), Cached: true}
	for _, w := range entry.Warnings {
		res.Diagnostics.Add(diagnostic.Diagnostic{
			Severity: diagnostic.Warning,
			Code:     w.Code,
			Message:  w.Message,
			Line:     w.Line,
			Column:   w.Column,
			File:     file,
			Hint:     w.Hint,
		})
	}
	return res, true
}

func toCacheWarnings(diags *diagnostic.Diagnostics) []cache.Warning {
	var out []cache.Warning
	for _, d := range diags.Warnings() {
		out = append(out, cache.Warning{Code: d.Code, Message: d.Message, Line: d.Line, Column: d.Column, Hint: d.Hint})
	}
	return out
}

// Error codes for lowering failures.
const (
	CodeEmptyCase        = "E0301"
	CodeArity            = "E0302"
	CodeDuplicateBinding = "E0303"
	CodeUnboundGuardName = "E0304"
	CodeUnbound          = "E0305"
	CodeUnsupported      = "E0306"
	CodeInvalidOutput    = "E0401"
)

// loweringDiagnostic converts a lowering failure in fn to a diagnostic.
func loweringDiagnostic(fn *ast.Function, err error) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.Error,
		Message:  fmt.Sprintf("in function '%s': %s", fn.Name, err),
		Line:     fn.Line,
		Column:   fn.Column,
	}
	var lerr *lower.Error
	if errors.As(err, &lerr) {
		if lerr.Line > 0 {
			d.Line, d.Column = lerr.Line, lerr.Column
		}
		switch {
		case errors.Is(err, lower.ErrEmptyCase):
			d.Code = CodeEmptyCase
			d.Hint = "add at least one clause"
		case errors.Is(err, lower.ErrArity):
			d.Code = CodeArity
			d.Hint = "give one pattern per subject"
		case errors.Is(err, lower.ErrDuplicateBinding):
			d.Code = CodeDuplicateBinding
			d.Hint = fmt.Sprintf("use a different name for the second '%s'", lerr.Name)
		case errors.Is(err, lower.ErrUnboundGuardName):
			d.Code = CodeUnboundGuardName
			d.Hint = fmt.Sprintf("bind '%s' in the pattern or an enclosing let", lerr.Name)
		case errors.Is(err, lower.ErrUnbound):
			d.Code = CodeUnbound
		case errors.Is(err, lower.ErrUnsupported):
			d.Code = CodeUnsupported
		}
	}
	return d
}

// FormatDiagnostics renders diagnostics for a terminal, one per line.
func FormatDiagnostics(file string, diags *diagnostic.Diagnostics) string {
	out := diags.Format(file)
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}
