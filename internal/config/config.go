// Package config loads casec.yaml. Every field has a default, so a missing
// file is the same as an empty one.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lhaig/casec/internal/backend"
)

// FileName is the configuration file looked up next to the input.
const FileName = "casec.yaml"

// Config is the resolved configuration of one compilation.
type Config struct {
	Target  string `yaml:"target"`
	Output  Output `yaml:"output"`
	Verify  bool   `yaml:"verify"`
	Lint    bool   `yaml:"lint"`
	Workers int    `yaml:"workers"`
	Cache   Cache  `yaml:"cache"`
	Log     Log    `yaml:"log"`
}

// Output controls the generated text.
type Output struct {
	Strict bool `yaml:"strict"`
	Indent int  `yaml:"indent"`
}

// Cache configures the compile cache.
type Cache struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Target:  "javascript",
		Output:  Output{Strict: true, Indent: 2},
		Verify:  true,
		Lint:    true,
		Workers: 4,
		Cache:   Cache{Dir: ".casec/cache"},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are errors.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	var errs []error
	if !backend.Known(c.Target) {
		errs = append(errs, fmt.Errorf("unknown target %q (available: %s)", c.Target, strings.Join(backend.Names(), ", ")))
	}
	if c.Output.Indent < 0 {
		errs = append(errs, fmt.Errorf("output.indent must not be negative, got %d", c.Output.Indent))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir is required when the cache is enabled"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// LogLevel returns the slog level named by log.level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return level, nil
}

// WorkerCount returns the lowering concurrency; 0 means GOMAXPROCS.
func (c Config) WorkerCount() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// BackendOptions returns the output options for backend.New.
func (c Config) BackendOptions() backend.Options {
	return backend.Options{Strict: c.Output.Strict, Indent: c.Output.Indent}
}

// Fingerprint is a stable rendering of everything that affects generated
// output, used in cache keys.
func (c Config) Fingerprint() string {
	return fmt.Sprintf("target=%s strict=%t indent=%d verify=%t", c.Target, c.Output.Strict, c.Output.Indent, c.Verify)
}

// NewLogger builds the logger described by log.level and log.format.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
