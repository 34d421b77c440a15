package pattern

import (
	"testing"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/ir"
	"github.com/lhaig/casec/internal/jsbe"
)

func render(e ir.Expr) string {
	if e == nil {
		return "<none>"
	}
	return jsbe.Expr(e)
}

func v(name string) ast.Pattern { return &ast.VariablePattern{Name: name} }

func lit(l ast.Literal) ast.Pattern { return &ast.LiteralPattern{Value: l} }

func tuple(els ...ast.Pattern) ast.Pattern { return &ast.TuplePattern{Elements: els} }

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		pattern  ast.Pattern
		test     string
		bindings map[string]string
	}{
		{"wildcard", &ast.WildcardPattern{}, "<none>", nil},
		{"named discard", &ast.WildcardPattern{Name: "_x"}, "<none>", nil},
		{"int literal", lit(ast.IntValue(1)), "x === 1", nil},
		{"negative literal", lit(ast.IntValue(-7)), "x === -7", nil},
		{"string literal", lit(ast.StringValue("hi")), `x === "hi"`, nil},
		{"bool literal", lit(ast.BoolValue(false)), "x === false", nil},
		{"variable", v("a"), "<none>", map[string]string{"a": "x"}},
		{"single tuple", tuple(v("a")), "<none>", map[string]string{"a": "x[0]"}},
		{
			"tuple of literals",
			tuple(lit(ast.IntValue(1)), &ast.WildcardPattern{}, lit(ast.BoolValue(true))),
			"x[0] === 1 && x[2] === true",
			nil,
		},
		{
			"nested tuple",
			tuple(v("a"), tuple(lit(ast.IntValue(2)), v("b")), tuple(tuple(v("c")))),
			"x[1][0] === 2",
			map[string]string{"a": "x[0]", "b": "x[1][1]", "c": "x[2][0][0]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test, bindings := Match(tt.pattern, &ir.Ident{Name: "x"})
			if got := render(test); got != tt.test {
				t.Errorf("test = %s, want %s", got, tt.test)
			}
			if len(bindings) != len(tt.bindings) {
				t.Fatalf("got %d bindings, want %d", len(bindings), len(tt.bindings))
			}
			for _, b := range bindings {
				want, ok := tt.bindings[b.Name]
				if !ok {
					t.Errorf("unexpected binding %s", b.Name)
					continue
				}
				if got := render(b.Path); got != want {
					t.Errorf("binding %s path = %s, want %s", b.Name, got, want)
				}
				if b.Generation != 0 {
					t.Errorf("binding %s has generation %d before materialization", b.Name, b.Generation)
				}
			}
		})
	}
}

// Every variable declared in a pattern is bound exactly once, in pattern
// order, at any depth.
func TestMatchBindsDeclaredVariables(t *testing.T) {
	p := v("a")
	for depth := 0; depth < 6; depth++ {
		p = tuple(&ast.WildcardPattern{}, p, v("d"+string(rune('0'+depth))))
	}

	_, bindings := Match(p, &ir.Ident{Name: "s"})
	declared := ast.PatternVariables(p)
	if len(bindings) != len(declared) {
		t.Fatalf("got %d bindings for %d declared names", len(bindings), len(declared))
	}
	for i, b := range bindings {
		if b.Name != declared[i] {
			t.Errorf("binding %d = %s, want %s", i, b.Name, declared[i])
		}
	}

	a, ok := Lookup(bindings, "a")
	if !ok {
		t.Fatal("expected binding for a")
	}
	if got := render(a.Path); got != "s[1][1][1][1][1][1]" {
		t.Errorf("a path = %s", got)
	}
}

func TestMatchAll(t *testing.T) {
	test, bindings := MatchAll(
		[]ast.Pattern{lit(ast.IntValue(1)), v("b"), tuple(lit(ast.StringValue("k")), v("c"))},
		[]ir.Expr{&ir.Ident{Name: "p"}, &ir.Ident{Name: "q"}, &ir.Ident{Name: "r"}},
	)
	if got := render(test); got != `p === 1 && r[0] === "k"` {
		t.Errorf("test = %s", got)
	}
	if len(bindings) != 2 || bindings[0].Name != "b" || bindings[1].Name != "c" {
		t.Errorf("unexpected bindings %+v", bindings)
	}
}

func TestLookupMissing(t *testing.T) {
	if _, ok := Lookup(nil, "x"); ok {
		t.Error("expected no binding in an empty list")
	}
}
