package ir

import (
	"fmt"
)

// Validate checks an IR module for correctness and returns a list of error messages.
// An empty slice indicates the module is valid.
//
// Besides nil checks it enforces the scoping rules emitted code relies on:
// no identifier is declared twice in one block (parameters belong to the
// function's outermost block), every identifier read or assigned is
// declared in an enclosing block beforehand, no statement follows a
// return or throw in the same block, and every function body terminates.
func Validate(mod *Module) []string {
	var errors []string

	seenFuncs := make(map[string]bool)
	for _, fn := range mod.Functions {
		if seenFuncs[fn.Name] {
			errors = append(errors, fmt.Sprintf("duplicate function %s", fn.Name))
		}
		seenFuncs[fn.Name] = true
		errors = append(errors, validateFunction(fn)...)
	}

	return errors
}

func validateFunction(fn *Function) []string {
	var errors []string
	context := fmt.Sprintf("function %s", fn.Name)

	sc := newScope(nil)
	for _, p := range fn.Params {
		if sc.declaredHere(p) {
			errors = append(errors, fmt.Sprintf("%s: duplicate parameter %q", context, p))
		}
		sc.declare(p)
	}

	errors = append(errors, validateStmts(fn.Body, sc, context)...)
	if !Terminates(fn.Body) {
		errors = append(errors, fmt.Sprintf("%s: body may finish without returning", context))
	}
	return errors
}

// scope is one JavaScript block scope.
type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: make(map[string]bool)}
}

func (s *scope) declare(name string) { s.names[name] = true }

func (s *scope) declaredHere(name string) bool { return s.names[name] }

func (s *scope) resolve(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.names[name] {
			return true
		}
	}
	return false
}

// validateStmts checks one block. Each call gets its own scope.
func validateStmts(stmts []Stmt, sc *scope, context string) []string {
	var errors []string
	for i, stmt := range stmts {
		stmtCtx := fmt.Sprintf("%s statement %d", context, i)
		if i > 0 {
			switch stmts[i-1].(type) {
			case *ReturnStmt, *ThrowStmt:
				errors = append(errors, fmt.Sprintf("%s: unreachable after %s", stmtCtx, stmtName(stmts[i-1])))
			}
		}
		errors = append(errors, validateStmt(stmt, sc, stmtCtx)...)
	}
	return errors
}

// validateStmt checks a single statement.
func validateStmt(stmt Stmt, sc *scope, context string) []string {
	var errors []string

	switch s := stmt.(type) {
	case *LetStmt:
		if s.Value == nil {
			errors = append(errors, fmt.Sprintf("%s: LetStmt has nil Value", context))
		} else {
			errors = append(errors, validateExpr(s.Value, sc, context)...)
		}
		errors = append(errors, declare(sc, s.Name, context)...)

	case *DeclareStmt:
		errors = append(errors, declare(sc, s.Name, context)...)

	case *AssignStmt:
		if !sc.resolve(s.Name) {
			errors = append(errors, fmt.Sprintf("%s: assignment to undeclared %q", context, s.Name))
		}
		if s.Value == nil {
			errors = append(errors, fmt.Sprintf("%s: AssignStmt has nil Value", context))
		} else {
			errors = append(errors, validateExpr(s.Value, sc, context)...)
		}

	case *ReturnStmt:
		if s.Value == nil {
			errors = append(errors, fmt.Sprintf("%s: ReturnStmt has nil Value", context))
		} else {
			errors = append(errors, validateExpr(s.Value, sc, context)...)
		}

	case *ThrowStmt:
		if s.Message == "" {
			errors = append(errors, fmt.Sprintf("%s: ThrowStmt has empty Message", context))
		}

	case *IfStmt:
		if len(s.Branches) == 0 {
			errors = append(errors, fmt.Sprintf("%s: IfStmt has no branches", context))
		}
		for i, b := range s.Branches {
			branchCtx := fmt.Sprintf("%s (branch %d)", context, i)
			if b.Condition == nil {
				errors = append(errors, fmt.Sprintf("%s: nil Condition", branchCtx))
			} else {
				errors = append(errors, validateExpr(b.Condition, sc, branchCtx)...)
			}
			errors = append(errors, validateStmts(b.Body, newScope(sc), branchCtx)...)
		}
		if s.Else != nil {
			errors = append(errors, validateStmts(s.Else, newScope(sc), fmt.Sprintf("%s (else)", context))...)
		}

	default:
		errors = append(errors, fmt.Sprintf("%s: unknown statement type %T", context, stmt))
	}

	return errors
}

func declare(sc *scope, name, context string) []string {
	if name == "" {
		return []string{fmt.Sprintf("%s: declaration with empty name", context)}
	}
	if sc.declaredHere(name) {
		return []string{fmt.Sprintf("%s: %q declared twice in one block", context, name)}
	}
	sc.declare(name)
	return nil
}

// validateExpr checks an expression for validity.
func validateExpr(expr Expr, sc *scope, context string) []string {
	var errors []string

	if expr == nil {
		errors = append(errors, fmt.Sprintf("%s: nil expression", context))
		return errors
	}

	switch e := expr.(type) {
	case *Ident:
		if !sc.resolve(e.Name) {
			errors = append(errors, fmt.Sprintf("%s: %q is not declared", context, e.Name))
		}

	case *IndexExpr:
		if e.Index < 0 {
			errors = append(errors, fmt.Sprintf("%s: IndexExpr has negative Index %d", context, e.Index))
		}
		errors = append(errors, validateExpr(e.Object, sc, context)...)

	case *BinaryExpr:
		errors = append(errors, validateExpr(e.Left, sc, context)...)
		errors = append(errors, validateExpr(e.Right, sc, context)...)

	case *Group:
		errors = append(errors, validateExpr(e.Expr, sc, context)...)

	case *ArrayLit:
		for i, elem := range e.Elements {
			errors = append(errors, validateExpr(elem, sc, fmt.Sprintf("%s (element %d)", context, i))...)
		}

	case *IntLit, *StringLit, *BoolLit:
		// No validation needed for leaf nodes

	default:
		errors = append(errors, fmt.Sprintf("%s: unknown expression type %T", context, expr))
	}

	return errors
}

func stmtName(stmt Stmt) string {
	switch stmt.(type) {
	case *ReturnStmt:
		return "return"
	case *ThrowStmt:
		return "throw"
	default:
		return fmt.Sprintf("%T", stmt)
	}
}
