package parser

import (
	"strings"
	"testing"

	"github.com/lhaig/casec/internal/ast"
)

func parseOK(t *testing.T, input string) *ast.Module {
	t.Helper()
	p := New(input)
	mod := p.Parse()
	if p.Diagnostics().HasErrors() {
		t.Fatalf("unexpected errors: %s", p.Diagnostics().Format("test"))
	}
	return mod
}

func TestParseSimpleFunction(t *testing.T) {
	mod := parseOK(t, `pub fn main(x, y) {
  x
}`)
	if len(mod.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(mod.Functions))
	}
	fn := mod.Functions[0]
	if fn.Name != "main" || !fn.IsPublic {
		t.Errorf("expected pub fn main, got %s (public=%v)", fn.Name, fn.IsPublic)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "x" || fn.Params[1].Name != "y" {
		t.Errorf("unexpected params: %v", fn.Params)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fn.Body))
	}
	stmt, ok := fn.Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", fn.Body[0])
	}
	if v, ok := stmt.Expr.(*ast.VarRef); !ok || v.Name != "x" {
		t.Errorf("expected VarRef x, got %s", ast.Print(stmt.Expr))
	}
}

func TestParseParamAnnotations(t *testing.T) {
	mod := parseOK(t, `pub fn main(x, xs: #(Bool, Bool,  Bool), ys: List(Int)) {
  x
}`)
	params := mod.Functions[0].Params
	want := []string{"", "#(Bool, Bool, Bool)", "List(Int)"}
	for i, w := range want {
		if params[i].Type != w {
			t.Errorf("param %d: expected type %q, got %q", i, w, params[i].Type)
		}
	}
}

func TestParsePrivateFunctionAndLet(t *testing.T) {
	mod := parseOK(t, `fn helper() {
  let x = False
  x
}`)
	fn := mod.Functions[0]
	if fn.IsPublic {
		t.Error("expected private function")
	}
	let, ok := fn.Body[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("expected LetStmt, got %T", fn.Body[0])
	}
	c, ok := let.Value.(*ast.Constant)
	if !ok || c.Value != ast.BoolValue(false) {
		t.Errorf("expected let x = False, got %s", ast.Print(let.Value))
	}
}

func TestParseCaseWithGuards(t *testing.T) {
	mod := parseOK(t, `pub fn main(x, y) {
  case x {
    1 -> 1
    _ if y -> 0
  }
}`)
	stmt := mod.Functions[0].Body[0].(*ast.ExprStmt)
	c, ok := stmt.Expr.(*ast.CaseExpr)
	if !ok {
		t.Fatalf("expected CaseExpr, got %T", stmt.Expr)
	}
	if len(c.Subjects) != 1 || len(c.Clauses) != 2 {
		t.Fatalf("expected 1 subject and 2 clauses, got %d and %d", len(c.Subjects), len(c.Clauses))
	}

	first := c.Clauses[0]
	if lit, ok := first.Patterns[0].(*ast.LiteralPattern); !ok || lit.Value != ast.IntValue(1) {
		t.Errorf("expected literal pattern 1, got %s", ast.Print(first.Patterns[0]))
	}
	if first.Guard != nil {
		t.Error("expected first clause to have no guard")
	}

	second := c.Clauses[1]
	if w, ok := second.Patterns[0].(*ast.WildcardPattern); !ok || w.Name != "" {
		t.Errorf("expected bare wildcard, got %s", ast.Print(second.Patterns[0]))
	}
	if g, ok := second.Guard.(*ast.VarRef); !ok || g.Name != "y" {
		t.Errorf("expected guard y, got %v", second.Guard)
	}
	if second.Line != 4 || second.Column != 5 {
		t.Errorf("expected second clause at 4:5, got %d:%d", second.Line, second.Column)
	}
}

func TestParsePatterns(t *testing.T) {
	mod := parseOK(t, `fn f(xs) {
  case xs {
    #(x, _, _rest, -3, "s", True, #()) -> x
  }
}`)
	c := mod.Functions[0].Body[0].(*ast.ExprStmt).Expr.(*ast.CaseExpr)
	tuple, ok := c.Clauses[0].Patterns[0].(*ast.TuplePattern)
	if !ok {
		t.Fatalf("expected tuple pattern, got %T", c.Clauses[0].Patterns[0])
	}
	if len(tuple.Elements) != 7 {
		t.Fatalf("expected 7 elements, got %d", len(tuple.Elements))
	}

	if v, ok := tuple.Elements[0].(*ast.VariablePattern); !ok || v.Name != "x" {
		t.Errorf("element 0: expected variable x, got %s", ast.Print(tuple.Elements[0]))
	}
	if w, ok := tuple.Elements[1].(*ast.WildcardPattern); !ok || w.Name != "" {
		t.Errorf("element 1: expected _, got %s", ast.Print(tuple.Elements[1]))
	}
	if w, ok := tuple.Elements[2].(*ast.WildcardPattern); !ok || w.Name != "_rest" {
		t.Errorf("element 2: expected _rest discard, got %s", ast.Print(tuple.Elements[2]))
	}
	wantLits := map[int]ast.Literal{
		3: ast.IntValue(-3),
		4: ast.StringValue("s"),
		5: ast.BoolValue(true),
	}
	for i, want := range wantLits {
		lit, ok := tuple.Elements[i].(*ast.LiteralPattern)
		if !ok || lit.Value != want {
			t.Errorf("element %d: expected literal %s, got %s", i, want, ast.Print(tuple.Elements[i]))
		}
	}
	if empty, ok := tuple.Elements[6].(*ast.TuplePattern); !ok || len(empty.Elements) != 0 {
		t.Errorf("element 6: expected empty tuple, got %s", ast.Print(tuple.Elements[6]))
	}
	if names := ast.PatternVariables(tuple); len(names) != 1 || names[0] != "x" {
		t.Errorf("expected bound names [x], got %v", names)
	}
}

func TestParseMultipleSubjects(t *testing.T) {
	mod := parseOK(t, `fn f(a, b) {
  case a, b {
    1, x if x -> 1
    _, _ -> 0
  }
}`)
	c := mod.Functions[0].Body[0].(*ast.ExprStmt).Expr.(*ast.CaseExpr)
	if len(c.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(c.Subjects))
	}
	for i, cl := range c.Clauses {
		if len(cl.Patterns) != 2 {
			t.Errorf("clause %d: expected 2 patterns, got %d", i, len(cl.Patterns))
		}
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a || b && c", "Binary: ||\n  Var: a\n  Binary: &&\n    Var: b\n    Var: c\n"},
		{"a && b || c", "Binary: ||\n  Binary: &&\n    Var: a\n    Var: b\n  Var: c\n"},
		{"a == b && c", "Binary: &&\n  Binary: ==\n    Var: a\n    Var: b\n  Var: c\n"},
		{"a < b == c", "Binary: ==\n  Binary: <\n    Var: a\n    Var: b\n  Var: c\n"},
		{"a == b == c", "Binary: ==\n  Binary: ==\n    Var: a\n    Var: b\n  Var: c\n"},
		{"a == { b == c }", "Binary: ==\n  Var: a\n  Binary: ==\n    Var: b\n    Var: c\n"},
		{"t.0.1 >= 2", "Binary: >=\n  TupleAccess: .1\n    TupleAccess: .0\n      Var: t\n  Const: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, diags := ParseExpr(tt.input)
			if diags.HasErrors() {
				t.Fatalf("unexpected errors: %s", diags.Format("test"))
			}
			if got := ast.Print(expr); got != tt.expected {
				t.Errorf("Expected:\n%s\ngot:\n%s", tt.expected, got)
			}
		})
	}
}

func TestParseBlockAndGrouping(t *testing.T) {
	expr, diags := ParseExpr("{ let y = 1\n y }")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Format("test"))
	}
	block, ok := expr.(*ast.Block)
	if !ok {
		t.Fatalf("expected Block, got %T", expr)
	}
	if len(block.Body) != 2 {
		t.Errorf("expected 2 statements, got %d", len(block.Body))
	}

	expr, diags = ParseExpr("{ x }")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Format("test"))
	}
	if _, ok := expr.(*ast.VarRef); !ok {
		t.Errorf("expected grouping to yield VarRef, got %T", expr)
	}
}

func TestParseTupleLiteral(t *testing.T) {
	expr, diags := ParseExpr(`#(1, "two", #(x,),)`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Format("test"))
	}
	tuple, ok := expr.(*ast.TupleLit)
	if !ok {
		t.Fatalf("expected TupleLit, got %T", expr)
	}
	if len(tuple.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(tuple.Elements))
	}
	if inner, ok := tuple.Elements[2].(*ast.TupleLit); !ok || len(inner.Elements) != 1 {
		t.Errorf("expected nested single-element tuple, got %s", ast.Print(tuple.Elements[2]))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "non-guard construct in guard",
			input: "fn f(x) {\n  case x {\n    _ if #(x) -> 1\n  }\n}",
			want:  "guard may only use",
		},
		{
			name:  "missing arrow",
			input: "fn f(x) {\n  case x {\n    _ 1\n  }\n}",
			want:  "expected ARROW",
		},
		{
			name:  "discard used as value",
			input: "fn f(x) {\n  _x\n}",
			want:  "discarded name '_x' cannot be used",
		},
		{
			name:  "minus before non-integer",
			input: "fn f(x) {\n  -x\n}",
			want:  "only supported before an integer literal",
		},
		{
			name:  "integer overflow",
			input: "fn f() {\n  99999999999999999999\n}",
			want:  "out of range",
		},
		{
			name:  "empty function body",
			input: "fn f() {}",
			want:  "empty body",
		},
		{
			name:  "stray top-level token",
			input: "let x = 1\nfn f() { 1 }",
			want:  "at top level",
		},
		{
			name:  "bad pattern",
			input: "fn f(x) {\n  case x {\n    { -> 1\n  }\n}",
			want:  "expected pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.input)
			p.Parse()
			if !p.Diagnostics().HasErrors() {
				t.Fatal("expected errors, got none")
			}
			out := p.Diagnostics().Format("test")
			if !strings.Contains(out, tt.want) {
				t.Errorf("Expected error containing %q, got:\n%s", tt.want, out)
			}
		})
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	p := New("let x = 1\npub fn main() { 1 }")
	mod := p.Parse()
	if len(mod.Functions) != 1 || mod.Functions[0].Name != "main" {
		t.Errorf("expected parser to recover and find main, got %d functions", len(mod.Functions))
	}
}

func TestParseEmptyCaseIsAccepted(t *testing.T) {
	mod := parseOK(t, "fn f(x) {\n  case x {}\n}")
	c := mod.Functions[0].Body[0].(*ast.ExprStmt).Expr.(*ast.CaseExpr)
	if len(c.Clauses) != 0 {
		t.Errorf("expected no clauses, got %d", len(c.Clauses))
	}
}
