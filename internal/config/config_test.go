package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
output:
  indent: 4
workers: 0
cache:
  enabled: true
log:
  level: debug
  format: json
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Indent != 4 || !cfg.Output.Strict {
		t.Errorf("unexpected output %+v", cfg.Output)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Dir != ".casec/cache" {
		t.Errorf("unexpected cache %+v", cfg.Cache)
	}
	if cfg.WorkerCount() < 1 {
		t.Errorf("expected GOMAXPROCS workers, got %d", cfg.WorkerCount())
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", level)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "colour: red\n", "colour"},
		{"unknown target", "target: cobol\n", `unknown target "cobol"`},
		{"negative indent", "output:\n  indent: -1\n", "output.indent"},
		{"negative workers", "workers: -2\n", "workers"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"cache without dir", "cache:\n  enabled: true\n  dir: \"\"\n", "cache.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil || cfg != Default() {
		t.Fatalf("missing file: got %+v, %v", cfg, err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("output:\n  strict: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Strict {
		t.Error("expected strict to be off")
	}

	if err := os.WriteFile(path, []byte("verify: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("expected error naming %s, got %v", path, err)
	}
}

func TestFingerprintTracksOutputSettings(t *testing.T) {
	a := Default()
	b := Default()
	b.Output.Indent = 4
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("expected indent to change the fingerprint")
	}
	b = Default()
	b.Log.Level = "debug"
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("log settings should not change the fingerprint")
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hidden")
	logger.Info("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("unexpected log output %q", out)
	}
}
