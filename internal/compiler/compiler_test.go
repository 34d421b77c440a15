package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/lhaig/casec/internal/cache"
	"github.com/lhaig/casec/internal/config"
	"github.com/lhaig/casec/internal/jsexec"
)

const guardSource = `pub fn main(x, y) {
  case x {
    1 -> 1
    _ if y -> 0
  }
}
`

func newCompiler(t *testing.T, cfg config.Config, store *cache.Store) (*Compiler, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	c, err := New(Options{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Cache:  store,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c, &logs
}

func TestCompileValidProgram(t *testing.T) {
	c, _ := newCompiler(t, config.Default(), nil)
	res, err := c.Compile(context.Background(), "main.case", []byte(guardSource))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatalf("Expected no errors, got:\n%s", res.Diagnostics.Format("main.case"))
	}
	want := `"use strict";

export function main(x, y) {
  if (x === 1) {
    return 1;
  } else if (y) {
    return 0;
  } else {
    throw new Error("Bad match");
  }
}
`
	if res.Output != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, res.Output)
	}
}

func TestCompileUsesOutputOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Output = config.Output{Strict: false, Indent: 4}
	c, _ := newCompiler(t, cfg, nil)
	res, err := c.Compile(context.Background(), "main.case", []byte(guardSource))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.Output, "use strict") || !strings.Contains(res.Output, "\n        return 1;\n") {
		t.Errorf("unexpected output:\n%s", res.Output)
	}
}

func TestCompileParseError(t *testing.T) {
	c, _ := newCompiler(t, config.Default(), nil)
	res, err := c.Compile(context.Background(), "bad.case", []byte("pub fn main( {"))
	if err != nil {
		t.Fatal(err)
	}
	if res.OK() || res.Output != "" {
		t.Error("Expected parse errors and no output")
	}
	if d := res.Diagnostics.Errors()[0]; d.File != "bad.case" {
		t.Errorf("expected file on diagnostic, got %+v", d)
	}
}

func TestCompileLoweringErrors(t *testing.T) {
	source := `pub fn ok(x) {
  x
}

pub fn dup(xs) {
  case xs {
    #(a, a) -> a
  }
}

pub fn unbound(x) {
  case x {
    1 -> 1
    _ if z -> 0
  }
}
`
	c, _ := newCompiler(t, config.Default(), nil)
	res, err := c.Compile(context.Background(), "main.case", []byte(source))
	if err != nil {
		t.Fatal(err)
	}
	errs := res.Diagnostics.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got:\n%s", res.Diagnostics.Format("main.case"))
	}
	if errs[0].Code != CodeDuplicateBinding || errs[0].Line != 7 {
		t.Errorf("unexpected first error %+v", errs[0])
	}
	if errs[1].Code != CodeUnboundGuardName || errs[1].Line != 14 || errs[1].Column != 10 {
		t.Errorf("unexpected second error %+v", errs[1])
	}
	if errs[1].Hint != "bind 'z' in the pattern or an enclosing let" {
		t.Errorf("unexpected hint %q", errs[1].Hint)
	}
	if !strings.Contains(errs[1].Message, "in function 'unbound': clause 2:") {
		t.Errorf("unexpected message %q", errs[1].Message)
	}
}

func TestCompileReportsLintWarnings(t *testing.T) {
	source := `pub fn main(xs) {
  case xs {
    #(a, b) if a -> 1
    _ -> 0
  }
}
`
	c, logs := newCompiler(t, config.Default(), nil)
	res, err := c.Compile(context.Background(), "main.case", []byte(source))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() || len(res.Diagnostics.Warnings()) != 1 {
		t.Fatalf("expected one warning, got:\n%s", res.Diagnostics.Format("main.case"))
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "pattern variable 'b'") {
		t.Errorf("expected the warning to be logged, got:\n%s", logs.String())
	}

	cfg := config.Default()
	cfg.Lint = false
	c, _ = newCompiler(t, cfg, nil)
	res, _ = c.Compile(context.Background(), "main.case", []byte(source))
	if len(res.Diagnostics.Warnings()) != 0 {
		t.Error("expected no warnings with lint off")
	}
}

func TestLowerConcurrently(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "pub fn f%d(x) {\n  let x = x\n  case x {\n    %d -> x\n    _ -> 0\n  }\n}\n\n", i, i)
	}
	cfg := config.Default()
	cfg.Workers = 8
	c, _ := newCompiler(t, cfg, nil)
	res, err := c.Compile(context.Background(), "many.case", []byte(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatal(res.Diagnostics.Format("many.case"))
	}
	if len(res.Module.Functions) != 40 {
		t.Fatalf("expected 40 functions, got %d", len(res.Module.Functions))
	}
	for i, fn := range res.Module.Functions {
		if fn.Name != fmt.Sprintf("f%d", i) {
			t.Errorf("function %d out of order: %s", i, fn.Name)
		}
		// Every function starts from a fresh environment.
		if !strings.Contains(res.Output, fmt.Sprintf("export function f%d(x) {\n  let x$1 = x;\n", i)) {
			t.Errorf("unexpected output for f%d", i)
		}
	}
}

func TestLowerCancelled(t *testing.T) {
	c, _ := newCompiler(t, config.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Compile(ctx, "main.case", []byte(guardSource)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCompileCache(t *testing.T) {
	store, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	source := []byte("pub fn main(xs) {\n  case xs {\n    #(a, b) if a -> 1\n    _ -> 0\n  }\n}\n")
	c, logs := newCompiler(t, config.Default(), store)
	first, err := c.Compile(context.Background(), "main.case", source)
	if err != nil || first.Cached {
		t.Fatalf("expected a fresh compile, got cached=%v err=%v", first.Cached, err)
	}
	second, err := c.Compile(context.Background(), "main.case", source)
	if err != nil || !second.Cached {
		t.Fatalf("expected a cache hit, got cached=%v err=%v", second.Cached, err)
	}
	if second.Output != first.Output {
		t.Error("cached output differs")
	}
	if len(second.Diagnostics.Warnings()) != 1 || second.Diagnostics.Warnings()[0].File != "main.case" {
		t.Errorf("expected the lint warning to be replayed, got %v", second.Diagnostics.All())
	}
	if !strings.Contains(logs.String(), "cache hit") {
		t.Errorf("expected a cache hit log, got:\n%s", logs.String())
	}

	cfg := config.Default()
	cfg.Output.Indent = 4
	c, _ = newCompiler(t, cfg, store)
	third, _ := c.Compile(context.Background(), "main.case", source)
	if third.Cached {
		t.Error("different output settings must not hit the cache")
	}
}

func TestCheck(t *testing.T) {
	c, _ := newCompiler(t, config.Default(), nil)
	diags, err := c.Check(context.Background(), "main.case", []byte(guardSource))
	if err != nil || diags.HasErrors() {
		t.Errorf("Expected no errors, got %v:\n%s", err, diags.Format("main.case"))
	}
	diags, _ = c.Check(context.Background(), "main.case", []byte("fn f(x) {\n  case x {\n  }\n}\n"))
	if !diags.HasErrors() || diags.Errors()[0].Code != CodeEmptyCase {
		t.Errorf("Expected empty case error, got:\n%s", diags.Format("main.case"))
	}
}

func TestReportJSON(t *testing.T) {
	c, _ := newCompiler(t, config.Default(), nil)
	res, _ := c.Compile(context.Background(), "main.case", []byte("fn f(x) {\n  case x {\n    _ if q -> 1\n  }\n}\n"))

	var buf bytes.Buffer
	if err := WriteReports(&buf, []Report{res.Report(false)}); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON %s: %v", buf.String(), err)
	}
	if len(decoded) != 1 || decoded[0]["ok"] != false || decoded[0]["errors"] != float64(1) {
		t.Fatalf("unexpected report %s", buf.String())
	}
	diags := decoded[0]["diagnostics"].([]any)
	d := diags[0].(map[string]any)
	if d["severity"] != "error" || d["code"] != CodeUnboundGuardName || d["file"] != "main.case" {
		t.Errorf("unexpected diagnostic %v", d)
	}
}

func TestRun(t *testing.T) {
	c, _ := newCompiler(t, config.Default(), nil)
	source := []byte(`pub fn pick(xs, y) {
  case xs {
    #(a, "s") if a == y -> #(a, 1)
    _ -> #()
  }
}
`)
	v, _, err := c.Run(context.Background(), "main.case", source, "pick", []string{`#(3, "s")`, "3"})
	if err != nil {
		t.Fatal(err)
	}
	if jsexec.Format(v) != "[3, 1]" {
		t.Errorf("expected [3, 1], got %s", jsexec.Format(v))
	}

	if _, _, err := c.Run(context.Background(), "main.case", []byte(guardSource), "main", []string{"2", "False"}); err == nil {
		t.Error("expected Bad match")
	} else {
		var thrown *jsexec.Thrown
		if !errors.As(err, &thrown) || thrown.Message != "Bad match" {
			t.Errorf("expected Bad match, got %v", err)
		}
	}

	if _, _, err := c.Run(context.Background(), "main.case", []byte(guardSource), "main", []string{"x"}); err == nil {
		t.Error("expected an argument error")
	}
}

func TestRunWithCache(t *testing.T) {
	store, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	c, _ := newCompiler(t, config.Default(), store)
	// A build fills the cache; running afterwards must still execute.
	if res, err := c.Compile(context.Background(), "main.case", []byte(guardSource)); err != nil || !res.OK() {
		t.Fatalf("compile failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		v, res, err := c.Run(context.Background(), "main.case", []byte(guardSource), "main", []string{"1", "False"})
		if err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
		if res.Cached || jsexec.Format(v) != "1" {
			t.Errorf("run %d: expected an uncached 1, got cached=%v %s", i+1, res.Cached, jsexec.Format(v))
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1", "1"},
		{"-4", "-4"},
		{"True", "true"},
		{`"a"`, `"a"`},
		{`#(1, #(False), "x")`, `[1, [false], "x"]`},
	}
	for _, tt := range tests {
		v, err := ParseValue(tt.src)
		if err != nil {
			t.Fatalf("ParseValue(%s): %v", tt.src, err)
		}
		if got := jsexec.Format(v); got != tt.want {
			t.Errorf("ParseValue(%s) = %s, want %s", tt.src, got, tt.want)
		}
	}
	for _, bad := range []string{"x", "1 == 1", "#(", ""} {
		if _, err := ParseValue(bad); err == nil {
			t.Errorf("ParseValue(%q): expected error", bad)
		}
	}
}

func TestDiscoverAndBuildFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) string {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	a := write("a.case", guardSource)
	b := write("sub/b.case", "fn f(x) {\n  x\n}\n")
	write("sub/notes.txt", "ignored")
	write(".hidden/c.case", "ignored")

	files, err := Discover([]string{dir, a})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0] != a || files[1] != b {
		t.Fatalf("unexpected files %v", files)
	}
	if _, err := Discover([]string{filepath.Join(dir, "missing.case")}); err == nil {
		t.Error("expected an error for a missing path")
	}

	out := filepath.Join(dir, "out")
	c, _ := newCompiler(t, config.Default(), nil)
	results, err := c.BuildFiles(context.Background(), files, out)
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range results {
		if !res.OK() {
			t.Fatalf("%s failed:\n%s", res.File, res.Diagnostics.Format(res.File))
		}
	}
	data, err := os.ReadFile(filepath.Join(out, "a.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "export function main(x, y)") {
		t.Errorf("unexpected output:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(out, "b.js")); err != nil {
		t.Errorf("expected b.js: %v", err)
	}
}

func TestBuildFileWritesNothingOnError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.case")
	if err := os.WriteFile(src, []byte("fn f(x) {\n  q\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, _ := newCompiler(t, config.Default(), nil)
	out := c.OutputPath(src, "")
	if out != filepath.Join(dir, "bad.js") {
		t.Fatalf("unexpected output path %s", out)
	}
	res, err := c.BuildFile(context.Background(), src, out)
	if err != nil {
		t.Fatal(err)
	}
	if res.OK() {
		t.Fatal("expected an unbound name error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("expected no output file, stat gave %v", err)
	}
}
