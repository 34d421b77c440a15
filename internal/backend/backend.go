package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lhaig/casec/internal/ir"
)

// Options controls output layout shared by all text backends.
type Options struct {
	Strict bool // emit the strict-mode header where the target has one
	Indent int  // spaces per nesting level
}

// Backend is the interface that all code generation backends implement.
type Backend interface {
	// Name returns the backend name as used in configuration.
	Name() string
	// Extension returns the file extension of generated output, with the dot.
	Extension() string
	// Generate produces output source code from a lowered module.
	Generate(mod *ir.Module) string
}

// Factory builds a backend for the given options.
type Factory func(opts Options) Backend

var registry = map[string]Factory{
	"javascript": func(opts Options) Backend { return NewJS(opts) },
}

// New returns the named backend.
func New(name string, opts Options) (Backend, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f(opts), nil
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered backend.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}
