package linter

import (
	"fmt"
	"unicode"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/diagnostic"
)

// Warning codes.
const (
	CodeUnreachableClause = "W0301"
	CodeUnusedPatternVar  = "W0302"
	CodeConstantGuard     = "W0303"
	CodeUnusedParam       = "W0304"
	CodeUnusedVariable    = "W0305"
	CodeFunctionNaming    = "W0306"
)

// Linter performs style and best-practice checks on a parsed module.
// It reports warnings (never errors) using the diagnostic system.
type Linter struct {
	mod  *ast.Module
	diag *diagnostic.Diagnostics
}

// Lint runs all lint rules on the given module and returns diagnostics.
func Lint(mod *ast.Module) *diagnostic.Diagnostics {
	l := &Linter{
		mod:  mod,
		diag: diagnostic.New(),
	}
	l.lintFunctions()
	return l.diag
}

func (l *Linter) lintFunctions() {
	for _, fn := range l.mod.Functions {
		l.checkFunctionNaming(fn)
		l.checkUnusedParams(fn)
		l.lintStatements(fn.Body)
	}
}

// lintStatements checks a statement sequence and every case expression
// nested in it.
func (l *Linter) lintStatements(stmts []ast.Statement) {
	for i, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			// A trailing let is the value of the sequence.
			if i < len(stmts)-1 && !ast.FreeInStatements(s.Name, stmts[i+1:]) {
				l.diag.WarningWithHint(CodeUnusedVariable, s.Line, s.Column,
					fmt.Sprintf("variable '%s' is declared but never used", s.Name), "")
			}
			l.lintExpr(s.Value)
		case *ast.ExprStmt:
			l.lintExpr(s.Expr)
		}
	}
}

func (l *Linter) lintExpr(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.TupleAccess:
		l.lintExpr(e.Tuple)
	case *ast.BinaryOp:
		l.lintExpr(e.Left)
		l.lintExpr(e.Right)
	case *ast.TupleLit:
		for _, el := range e.Elements {
			l.lintExpr(el)
		}
	case *ast.Block:
		l.lintStatements(e.Body)
	case *ast.CaseExpr:
		for _, s := range e.Subjects {
			l.lintExpr(s)
		}
		l.lintCase(e)
	}
}

// --- Lint rules ---

func (l *Linter) lintCase(c *ast.CaseExpr) {
	exhausted := false
	for i, clause := range c.Clauses {
		if exhausted {
			l.diag.WarningWithHint(CodeUnreachableClause, clause.Line, clause.Column,
				fmt.Sprintf("clause %d is unreachable", i+1),
				"an earlier clause matches every value")
		}
		l.checkConstantGuard(clause, i+1)
		l.checkUnusedPatternVars(clause)
		l.lintExpr(clause.Body)

		if clause.Guard == nil && allIrrefutable(clause.Patterns) {
			exhausted = true
		}
	}
}

func allIrrefutable(ps []ast.Pattern) bool {
	for _, p := range ps {
		if !ast.Irrefutable(p) {
			return false
		}
	}
	return true
}

// checkConstantGuard warns about `if True` and `if False`.
func (l *Linter) checkConstantGuard(clause *ast.Clause, n int) {
	c, ok := clause.Guard.(*ast.Constant)
	if !ok || c.Value.Kind != ast.BoolLiteral {
		return
	}
	if c.Value.Bool {
		l.diag.WarningWithHint(CodeConstantGuard, c.Line, c.Column,
			fmt.Sprintf("guard of clause %d is always true", n), "remove the guard")
		return
	}
	l.diag.WarningWithHint(CodeConstantGuard, c.Line, c.Column,
		fmt.Sprintf("guard of clause %d is always false", n), "the clause never runs")
}

// checkUnusedPatternVars warns about pattern variables that neither the
// guard nor the body reads.
func (l *Linter) checkUnusedPatternVars(clause *ast.Clause) {
	for _, v := range patternVars(clause.Patterns) {
		if ast.FreeIn(v.Name, clause.Guard) || ast.FreeIn(v.Name, clause.Body) {
			continue
		}
		l.diag.WarningWithHint(CodeUnusedPatternVar, v.Line, v.Column,
			fmt.Sprintf("pattern variable '%s' is never used", v.Name),
			fmt.Sprintf("rename it to '_%s' to discard it", v.Name))
	}
}

func patternVars(ps []ast.Pattern) []*ast.VariablePattern {
	var out []*ast.VariablePattern
	var walk func(p ast.Pattern)
	walk = func(p ast.Pattern) {
		switch pat := p.(type) {
		case *ast.VariablePattern:
			out = append(out, pat)
		case *ast.TuplePattern:
			for _, el := range pat.Elements {
				walk(el)
			}
		}
	}
	for _, p := range ps {
		walk(p)
	}
	return out
}

// checkUnusedParams warns about parameters that are never read in the body.
func (l *Linter) checkUnusedParams(fn *ast.Function) {
	for _, p := range fn.Params {
		if !ast.FreeInStatements(p.Name, fn.Body) {
			l.diag.WarningWithHint(CodeUnusedParam, p.Line, p.Column,
				fmt.Sprintf("parameter '%s' in '%s' is never used", p.Name, fn.Name), "")
		}
	}
}

// checkFunctionNaming warns if a function name is not snake_case.
func (l *Linter) checkFunctionNaming(fn *ast.Function) {
	if !isSnakeCase(fn.Name) {
		l.diag.WarningWithHint(CodeFunctionNaming, fn.Line, fn.Column,
			fmt.Sprintf("function '%s' should use snake_case naming", fn.Name), "")
	}
}

// isSnakeCase returns true if the name follows snake_case conventions:
// lowercase letters, digits and underscores only.
func isSnakeCase(name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLower(r) && r != '_' && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
