package backend

import (
	"github.com/lhaig/casec/internal/ir"
	"github.com/lhaig/casec/internal/jsbe"
)

// JSBackend wraps the jsbe as a Backend implementation.
type JSBackend struct {
	opts jsbe.Options
}

// NewJS returns a JavaScript backend.
func NewJS(opts Options) *JSBackend {
	return &JSBackend{opts: jsbe.Options{Strict: opts.Strict, Indent: opts.Indent}}
}

// Name returns the backend name.
func (b *JSBackend) Name() string {
	return "javascript"
}

// Extension returns ".js".
func (b *JSBackend) Extension() string {
	return ".js"
}

// Generate produces JavaScript source code from a single IR module.
func (b *JSBackend) Generate(mod *ir.Module) string {
	return jsbe.GenerateWith(mod, b.opts)
}
