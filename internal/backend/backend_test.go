package backend

import (
	"strings"
	"testing"

	"github.com/lhaig/casec/internal/ir"
)

func TestNewJavaScript(t *testing.T) {
	b, err := New("javascript", Options{Strict: true, Indent: 4})
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "javascript" || b.Extension() != ".js" {
		t.Errorf("unexpected backend %s (%s)", b.Name(), b.Extension())
	}

	mod := &ir.Module{Functions: []*ir.Function{{
		Name: "f",
		Body: []ir.Stmt{&ir.ReturnStmt{Value: &ir.IntLit{Value: 1}}},
	}}}
	want := "\"use strict\";\n\nfunction f() {\n    return 1;\n}\n"
	if got := b.Generate(mod); got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestNewUnknown(t *testing.T) {
	_, err := New("cobol", Options{})
	if err == nil || !strings.Contains(err.Error(), "javascript") {
		t.Errorf("expected unknown target error listing javascript, got %v", err)
	}
	if Known("cobol") || !Known("javascript") {
		t.Error("Known disagrees with the registry")
	}
}
