package jsexec

import (
	"errors"
	"fmt"

	"github.com/lhaig/casec/internal/ir"
)

var (
	// ErrReference is returned when code reads an undeclared name.
	ErrReference = errors.New("ReferenceError")
	// ErrType is returned for operations JavaScript rejects at runtime.
	ErrType = errors.New("TypeError")
)

// Env is a chain of block scopes.
type Env struct {
	parent *Env
	vars   map[string]Value
}

// NewEnv creates a scope nested in parent, which may be nil.
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: make(map[string]Value)}
}

// Define declares name in this scope.
func (e *Env) Define(name string, v Value) {
	e.vars[name] = v
}

func (e *Env) lookup(name string) (*Env, bool) {
	for sc := e; sc != nil; sc = sc.parent {
		if _, ok := sc.vars[name]; ok {
			return sc, true
		}
	}
	return nil, false
}

// Get returns the value bound to name in the nearest enclosing scope.
func (e *Env) Get(name string) (Value, error) {
	sc, ok := e.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not defined", ErrReference, name)
	}
	return sc.vars[name], nil
}

func (e *Env) set(name string, v Value) error {
	sc, ok := e.lookup(name)
	if !ok {
		return fmt.Errorf("%w: assignment to undeclared %s", ErrReference, name)
	}
	sc.vars[name] = v
	return nil
}

// Call runs fn with args. A program-level throw is returned as *Thrown.
// Missing arguments are undefined, as in JavaScript.
func Call(fn *ir.Function, args ...Value) (Value, error) {
	scope := NewEnv(nil)
	for i, p := range fn.Params {
		var v Value = Undefined{}
		if i < len(args) {
			v = args[i]
		}
		scope.Define(p, v)
	}
	v, returned, err := execBlock(fn.Body, scope)
	if err != nil {
		return nil, err
	}
	if !returned {
		return Undefined{}, nil
	}
	return v, nil
}

// CallByName finds the named function in mod and calls it.
func CallByName(mod *ir.Module, name string, args ...Value) (Value, error) {
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return Call(fn, args...)
		}
	}
	return nil, fmt.Errorf("%w: %s is not a function", ErrReference, name)
}

// execBlock runs stmts in a fresh block scope nested in parent.
func execBlock(stmts []ir.Stmt, parent *Env) (Value, bool, error) {
	scope := NewEnv(parent)
	for _, stmt := range stmts {
		v, returned, err := exec(stmt, scope)
		if err != nil || returned {
			return v, returned, err
		}
	}
	return nil, false, nil
}

func exec(stmt ir.Stmt, scope *Env) (Value, bool, error) {
	switch s := stmt.(type) {
	case *ir.LetStmt:
		v, err := Eval(s.Value, scope)
		if err != nil {
			return nil, false, err
		}
		scope.Define(s.Name, v)

	case *ir.DeclareStmt:
		scope.Define(s.Name, Undefined{})

	case *ir.AssignStmt:
		v, err := Eval(s.Value, scope)
		if err != nil {
			return nil, false, err
		}
		if err := scope.set(s.Name, v); err != nil {
			return nil, false, err
		}

	case *ir.ReturnStmt:
		v, err := Eval(s.Value, scope)
		return v, err == nil, err

	case *ir.ThrowStmt:
		return nil, false, &Thrown{Message: s.Message}

	case *ir.IfStmt:
		for _, b := range s.Branches {
			cond, err := Eval(b.Condition, scope)
			if err != nil {
				return nil, false, err
			}
			if Truthy(cond) {
				return execBlock(b.Body, scope)
			}
		}
		if s.Else != nil {
			return execBlock(s.Else, scope)
		}

	default:
		return nil, false, fmt.Errorf("jsexec: unknown statement type %T", stmt)
	}
	return nil, false, nil
}

// Eval evaluates an expression. scope may be nil for closed expressions.
func Eval(expr ir.Expr, scope *Env) (Value, error) {
	switch e := expr.(type) {
	case *ir.Ident:
		if scope == nil {
			return nil, fmt.Errorf("%w: %s is not defined", ErrReference, e.Name)
		}
		return scope.Get(e.Name)

	case *ir.IntLit:
		return e.Value, nil

	case *ir.StringLit:
		return e.Value, nil

	case *ir.BoolLit:
		return e.Value, nil

	case *ir.ArrayLit:
		elems := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := Eval(el, scope)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return NewArray(elems...), nil

	case *ir.Group:
		return Eval(e.Expr, scope)

	case *ir.IndexExpr:
		obj, err := Eval(e.Object, scope)
		if err != nil {
			return nil, err
		}
		return index(obj, e.Index)

	case *ir.BinaryExpr:
		return evalBinary(e, scope)

	default:
		return nil, fmt.Errorf("jsexec: unknown expression type %T", expr)
	}
}

func index(obj Value, i int) (Value, error) {
	switch x := obj.(type) {
	case *Array:
		if i >= 0 && i < len(x.Elems) {
			return x.Elems[i], nil
		}
		return Undefined{}, nil
	case string:
		if i >= 0 && i < len(x) {
			return x[i : i+1], nil
		}
		return Undefined{}, nil
	case Undefined:
		return nil, fmt.Errorf("%w: cannot read properties of undefined (reading '%d')", ErrType, i)
	default:
		return Undefined{}, nil
	}
}

func evalBinary(e *ir.BinaryExpr, scope *Env) (Value, error) {
	left, err := Eval(e.Left, scope)
	if err != nil {
		return nil, err
	}

	// && and || return an operand and skip the right side when decided
	switch e.Op {
	case ir.OpAnd:
		if !Truthy(left) {
			return left, nil
		}
		return Eval(e.Right, scope)
	case ir.OpOr:
		if Truthy(left) {
			return left, nil
		}
		return Eval(e.Right, scope)
	}

	right, err := Eval(e.Right, scope)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ir.OpStrictEq:
		return StrictEqual(left, right), nil
	case ir.OpStrictNotEq:
		return !StrictEqual(left, right), nil
	case ir.OpLt:
		return compare(left, right, func(c int) bool { return c < 0 }), nil
	case ir.OpLtEq:
		return compare(left, right, func(c int) bool { return c <= 0 }), nil
	case ir.OpGt:
		return compare(left, right, func(c int) bool { return c > 0 }), nil
	case ir.OpGtEq:
		return compare(left, right, func(c int) bool { return c >= 0 }), nil
	default:
		return nil, fmt.Errorf("jsexec: unknown operator %s", e.Op)
	}
}
