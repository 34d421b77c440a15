// Package pattern compiles source patterns into a JavaScript test
// expression and the extraction paths of the variables they bind.
package pattern

import (
	"fmt"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/ir"
)

// Binding records where a pattern variable's value lives. Path reads the
// value straight out of the subject; nothing is copied until the binding
// is materialized, at which point Generation is assigned.
type Binding struct {
	Name       string
	Generation uint32
	Path       ir.Expr
}

// Match compiles p against the value at path. The test is nil when the
// pattern matches unconditionally. Bindings are ordered depth-first, left
// to right.
func Match(p ast.Pattern, path ir.Expr) (ir.Expr, []Binding) {
	switch pat := p.(type) {
	case *ast.WildcardPattern:
		return nil, nil

	case *ast.LiteralPattern:
		return &ir.BinaryExpr{Left: path, Op: ir.OpStrictEq, Right: Literal(pat.Value)}, nil

	case *ast.VariablePattern:
		return nil, []Binding{{Name: pat.Name, Path: path}}

	case *ast.TuplePattern:
		var tests []ir.Expr
		var bindings []Binding
		for i, el := range pat.Elements {
			test, bs := Match(el, &ir.IndexExpr{Object: path, Index: i})
			tests = append(tests, test)
			bindings = append(bindings, bs...)
		}
		return ir.And(tests...), bindings

	default:
		panic(fmt.Sprintf("pattern: unknown pattern type %T", p))
	}
}

// MatchAll matches one pattern per subject path and joins the results in
// subject order.
func MatchAll(ps []ast.Pattern, paths []ir.Expr) (ir.Expr, []Binding) {
	if len(ps) != len(paths) {
		panic(fmt.Sprintf("pattern: %d patterns for %d subjects", len(ps), len(paths)))
	}
	var tests []ir.Expr
	var bindings []Binding
	for i, p := range ps {
		test, bs := Match(p, paths[i])
		tests = append(tests, test)
		bindings = append(bindings, bs...)
	}
	return ir.And(tests...), bindings
}

// Literal converts a source literal to its JavaScript form.
func Literal(l ast.Literal) ir.Expr {
	switch l.Kind {
	case ast.BoolLiteral:
		return &ir.BoolLit{Value: l.Bool}
	case ast.IntLiteral:
		return &ir.IntLit{Value: l.Int}
	case ast.StringLiteral:
		return &ir.StringLit{Value: l.Str}
	default:
		panic(fmt.Sprintf("pattern: unknown literal kind %d", l.Kind))
	}
}

// Lookup returns the binding for name, if the pattern bound it.
func Lookup(bindings []Binding, name string) (Binding, bool) {
	for _, b := range bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}
