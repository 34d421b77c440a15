// Package guard compiles clause guards to JavaScript expressions.
//
// Pattern variables in a guard compile to their raw extraction paths, so a
// guard can be tested before any binding is materialized. Grouping is
// conservative: a binary child is parenthesized whenever its precedence is
// less than or equal to its parent's, so `x == {y == z}` becomes
// `x === (y === z)` and `{x == y} == z` becomes `(x === y) === z`.
package guard

import (
	"fmt"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/env"
	"github.com/lhaig/casec/internal/ir"
	"github.com/lhaig/casec/internal/pattern"
)

// Precedence levels, lowest first. Top is the context of a whole guard.
const (
	PrecTop        = 0
	PrecOr         = 1
	PrecAnd        = 2
	PrecEquality   = 3
	PrecComparison = 4
	PrecLeaf       = 5
)

// Precedence returns the binding strength of a source operator.
func Precedence(op ast.BinaryOperator) int {
	switch op {
	case ast.OpOr:
		return PrecOr
	case ast.OpAnd:
		return PrecAnd
	case ast.OpEq, ast.OpNotEq:
		return PrecEquality
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		return PrecComparison
	default:
		panic(fmt.Sprintf("guard: unknown operator %d", op))
	}
}

// Operator maps a source operator to its JavaScript counterpart. Equality
// is strict.
func Operator(op ast.BinaryOperator) ir.Op {
	switch op {
	case ast.OpOr:
		return ir.OpOr
	case ast.OpAnd:
		return ir.OpAnd
	case ast.OpEq:
		return ir.OpStrictEq
	case ast.OpNotEq:
		return ir.OpStrictNotEq
	case ast.OpLt:
		return ir.OpLt
	case ast.OpLtEq:
		return ir.OpLtEq
	case ast.OpGt:
		return ir.OpGt
	case ast.OpGtEq:
		return ir.OpGtEq
	default:
		panic(fmt.Sprintf("guard: unknown operator %d", op))
	}
}

// Resolver maps a variable referenced by a guard to the expression that
// reads it.
type Resolver interface {
	Resolve(name string) (ir.Expr, bool)
}

// Scope resolves names for one clause: the clause's own pattern bindings
// come first and resolve to their extraction paths; anything else resolves
// through the environment to its current generation.
type Scope struct {
	Bindings []pattern.Binding
	Env      *env.Env
}

// Resolve implements Resolver.
func (s Scope) Resolve(name string) (ir.Expr, bool) {
	if b, ok := pattern.Lookup(s.Bindings, name); ok {
		return b.Path, true
	}
	if s.Env == nil {
		return nil, false
	}
	id, ok := s.Env.Lookup(name)
	if !ok {
		return nil, false
	}
	return &ir.Ident{Name: id}, true
}

// Unbound returns the first variable referenced by expr that r cannot
// resolve, and the reference itself.
func Unbound(expr ast.Expression, r Resolver) (*ast.VarRef, bool) {
	switch e := expr.(type) {
	case *ast.VarRef:
		if _, ok := r.Resolve(e.Name); !ok {
			return e, true
		}
		return nil, false
	case *ast.Constant:
		return nil, false
	case *ast.TupleAccess:
		return Unbound(e.Tuple, r)
	case *ast.BinaryOp:
		if ref, ok := Unbound(e.Left, r); ok {
			return ref, true
		}
		return Unbound(e.Right, r)
	default:
		panic(fmt.Sprintf("guard: %T is not a guard expression", expr))
	}
}

// Compile lowers a guard expression in a context of precedence
// parentPrec. Every variable must resolve; callers check with Unbound
// first, and an unresolved name here is a programming error.
func Compile(expr ast.Expression, r Resolver, parentPrec int) ir.Expr {
	switch e := expr.(type) {
	case *ast.VarRef:
		path, ok := r.Resolve(e.Name)
		if !ok {
			panic(fmt.Sprintf("guard: unbound variable %q", e.Name))
		}
		return path

	case *ast.Constant:
		return pattern.Literal(e.Value)

	case *ast.TupleAccess:
		return Index(Compile(e.Tuple, r, PrecLeaf), e.Index)

	case *ast.BinaryOp:
		prec := Precedence(e.Op)
		return Binary(e.Op, Compile(e.Left, r, prec), Compile(e.Right, r, prec), parentPrec)

	default:
		panic(fmt.Sprintf("guard: %T is not a guard expression", expr))
	}
}

// Index reads element i of obj. A negative integer literal is grouped so
// that the printed `-1[0]` cannot parse as `-(1[0])`.
func Index(obj ir.Expr, i int) ir.Expr {
	if n, ok := obj.(*ir.IntLit); ok && n.Value < 0 {
		obj = &ir.Group{Expr: obj}
	}
	return &ir.IndexExpr{Object: obj, Index: i}
}

// Binary combines already lowered operands, each compiled at the
// precedence of op, and groups the result when op binds no tighter than
// parentPrec.
func Binary(op ast.BinaryOperator, left, right ir.Expr, parentPrec int) ir.Expr {
	var out ir.Expr = &ir.BinaryExpr{Left: left, Op: Operator(op), Right: right}
	if Precedence(op) <= parentPrec {
		out = &ir.Group{Expr: out}
	}
	return out
}
