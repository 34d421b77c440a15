// Package lower turns source functions into the JavaScript IR. The core
// is the case orchestrator in case.go; this file lowers the function
// bodies around it and the plain expressions clause bodies evaluate to.
package lower

import (
	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/env"
	"github.com/lhaig/casec/internal/guard"
	"github.com/lhaig/casec/internal/ir"
	"github.com/lhaig/casec/internal/pattern"
)

// lowerer holds the state of one function compilation.
type lowerer struct {
	env *env.Env
}

// Module lowers every function of mod in order.
func Module(mod *ast.Module) (*ir.Module, error) {
	out := &ir.Module{}
	for _, fn := range mod.Functions {
		f, err := Function(fn)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, f)
	}
	return out, nil
}

// Function lowers one function with a fresh binding environment, so
// functions can be lowered concurrently.
func Function(fn *ast.Function) (*ir.Function, error) {
	l := &lowerer{env: env.New()}

	out := &ir.Function{
		Name:     env.Rename(fn.Name, 0),
		IsPublic: fn.IsPublic,
	}
	for _, p := range fn.Params {
		out.Params = append(out.Params, env.Rename(p.Name, l.env.Bind(p.Name)))
	}

	if len(fn.Body) == 0 {
		return nil, &Error{Kind: ErrUnsupported, Detail: "function '" + fn.Name + "' has an empty body", Line: fn.Line, Column: fn.Column}
	}
	body, err := l.lowerBody(fn.Body, returnSink())
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

// Case lowers a case expression in tail position against e. The result
// returns the value of the taken clause. On failure e is rolled back to
// its state on entry.
func Case(c *ast.CaseExpr, e *env.Env) ([]ir.Stmt, error) {
	snap := e.Snapshot()
	l := &lowerer{env: e}
	stmts, err := l.lowerCase(c, returnSink())
	if err != nil {
		e.Rollback(snap)
		return nil, err
	}
	return stmts, nil
}

// --- Sinks ---

type sinkKind int

const (
	sinkReturn  sinkKind = iota // return the value
	sinkAssign                  // assign the value to a declared local
	sinkDiscard                 // value is unused
)

// sink receives the value of every clause body of a case.
type sink struct {
	kind    sinkKind
	declare *ir.DeclareStmt
	assigns []*ir.AssignStmt
}

func returnSink() *sink { return &sink{kind: sinkReturn} }

func discardSink() *sink { return &sink{kind: sinkDiscard} }

// assignSink declares the target up front. Its name is filled in by
// setName once the clauses are lowered, so the new generation is not in
// scope inside them.
func assignSink() *sink {
	return &sink{kind: sinkAssign, declare: &ir.DeclareStmt{}}
}

func (s *sink) emit(v ir.Expr) []ir.Stmt {
	switch s.kind {
	case sinkReturn:
		return []ir.Stmt{&ir.ReturnStmt{Value: v}}
	case sinkAssign:
		a := &ir.AssignStmt{Value: v}
		s.assigns = append(s.assigns, a)
		return []ir.Stmt{a}
	default:
		return nil
	}
}

func (s *sink) setName(id string) {
	s.declare.Name = id
	for _, a := range s.assigns {
		a.Name = id
	}
}

// --- Bodies ---

// lowerBody lowers a statement sequence whose last statement's value goes
// to s.
func (l *lowerer) lowerBody(body []ast.Statement, s *sink) ([]ir.Stmt, error) {
	var out []ir.Stmt
	for i, stmt := range body {
		last := i == len(body)-1
		switch st := stmt.(type) {
		case *ast.LetStmt:
			stmts, id, err := l.lowerLet(st)
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
			if last {
				out = append(out, s.emit(&ir.Ident{Name: id})...)
			}

		case *ast.ExprStmt:
			target := s
			if !last {
				if !hasEffects(st.Expr) {
					continue
				}
				target = discardSink()
			}
			stmts, err := l.lowerInto(st.Expr, target)
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
		}
	}
	return out, nil
}

// hasEffects reports whether evaluating e for its effect alone matters.
// The only effect in the language is a case failing to match.
func hasEffects(e ast.Expression) bool {
	switch e.(type) {
	case *ast.CaseExpr, *ast.Block:
		return true
	default:
		return false
	}
}

// lowerLet lowers `let name = value` and returns the emitted identifier.
// The new generation is bound after the value is lowered, so the value
// still sees the previous one.
func (l *lowerer) lowerLet(st *ast.LetStmt) ([]ir.Stmt, string, error) {
	switch st.Value.(type) {
	case *ast.CaseExpr, *ast.Block:
		s := assignSink()
		stmts, err := l.lowerInto(st.Value, s)
		if err != nil {
			return nil, "", err
		}
		id := env.Rename(st.Name, l.env.Bind(st.Name))
		s.setName(id)
		return append([]ir.Stmt{s.declare}, stmts...), id, nil

	default:
		v, err := l.lowerExpr(st.Value, guard.PrecTop)
		if err != nil {
			return nil, "", err
		}
		id := env.Rename(st.Name, l.env.Bind(st.Name))
		return []ir.Stmt{&ir.LetStmt{Name: id, Value: v}}, id, nil
	}
}

// lowerInto lowers an expression in statement position, sending its value
// to s. Blocks close their scope when they end.
func (l *lowerer) lowerInto(e ast.Expression, s *sink) ([]ir.Stmt, error) {
	switch x := e.(type) {
	case *ast.CaseExpr:
		return l.lowerCase(x, s)

	case *ast.Block:
		snap := l.env.Snapshot()
		stmts, err := l.lowerBody(x.Body, s)
		l.env.Restore(snap)
		return stmts, err

	default:
		v, err := l.lowerExpr(e, guard.PrecTop)
		if err != nil {
			return nil, err
		}
		return s.emit(v), nil
	}
}

// --- Expressions ---

// lowerExpr lowers a plain expression in a context of precedence
// parentPrec, grouping binary operators by the same rule as guards.
func (l *lowerer) lowerExpr(e ast.Expression, parentPrec int) (ir.Expr, error) {
	switch x := e.(type) {
	case *ast.VarRef:
		id, ok := l.env.Lookup(x.Name)
		if !ok {
			return nil, &Error{Kind: ErrUnbound, Name: x.Name, Line: x.Line, Column: x.Column}
		}
		return &ir.Ident{Name: id}, nil

	case *ast.Constant:
		return pattern.Literal(x.Value), nil

	case *ast.TupleLit:
		arr := &ir.ArrayLit{}
		for _, el := range x.Elements {
			v, err := l.lowerExpr(el, guard.PrecTop)
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, v)
		}
		return arr, nil

	case *ast.TupleAccess:
		obj, err := l.lowerExpr(x.Tuple, guard.PrecLeaf)
		if err != nil {
			return nil, err
		}
		return guard.Index(obj, x.Index), nil

	case *ast.BinaryOp:
		prec := guard.Precedence(x.Op)
		left, err := l.lowerExpr(x.Left, prec)
		if err != nil {
			return nil, err
		}
		right, err := l.lowerExpr(x.Right, prec)
		if err != nil {
			return nil, err
		}
		return guard.Binary(x.Op, left, right, parentPrec), nil

	case *ast.CaseExpr:
		return nil, &Error{Kind: ErrUnsupported, Detail: "case must be in tail position or bound by let", Line: x.Line, Column: x.Column}

	case *ast.Block:
		return nil, &Error{Kind: ErrUnsupported, Detail: "block must be in tail position or bound by let", Line: x.Line, Column: x.Column}

	default:
		line, col := e.Pos()
		return nil, &Error{Kind: ErrUnsupported, Detail: "unknown expression", Line: line, Column: col}
	}
}
