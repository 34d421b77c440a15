package lower

import (
	"strconv"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/env"
	"github.com/lhaig/casec/internal/guard"
	"github.com/lhaig/casec/internal/ir"
	"github.com/lhaig/casec/internal/pattern"
)

// lowerCase emits the clause chain for c. Clauses are tested in source
// order and the first whose pattern test and guard hold is taken. Only
// the taken branch copies pattern variables into locals; every test reads
// the subject through extraction paths.
func (l *lowerer) lowerCase(c *ast.CaseExpr, s *sink) ([]ir.Stmt, error) {
	if len(c.Clauses) == 0 {
		return nil, &Error{Kind: ErrEmptyCase, Line: c.Line, Column: c.Column}
	}

	out, paths, err := l.subjectPaths(c.Subjects)
	if err != nil {
		return nil, err
	}

	matches, err := l.checkClauses(c, paths)
	if err != nil {
		return nil, err
	}

	chain := &ir.IfStmt{}
	for i, clause := range c.Clauses {
		test, bindings := matches[i].test, matches[i].bindings
		cond := test
		if clause.Guard != nil {
			prec := guard.PrecTop
			if test != nil {
				prec = guard.PrecAnd
			}
			sc := guard.Scope{Bindings: bindings, Env: l.env}
			cond = ir.And(test, guard.Compile(clause.Guard, sc, prec))
		}

		body, err := l.lowerClauseBody(clause, bindings, s)
		if err != nil {
			return nil, err
		}

		if cond == nil {
			// Irrefutable and unguarded: nothing after it can run.
			if len(chain.Branches) == 0 {
				return append(out, body...), nil
			}
			chain.Else = body
			return append(out, chain), nil
		}
		chain.Branches = append(chain.Branches, &ir.Branch{Condition: cond, Body: body})
	}

	chain.Else = []ir.Stmt{&ir.ThrowStmt{Message: "Bad match"}}
	return append(out, chain), nil
}

// subjectPaths returns the base path of every subject. Variables and
// tuple access over a variable are read in place; any other subject is
// evaluated once into a temporary.
func (l *lowerer) subjectPaths(subjects []ast.Expression) ([]ir.Stmt, []ir.Expr, error) {
	var stmts []ir.Stmt
	paths := make([]ir.Expr, 0, len(subjects))
	for _, subj := range subjects {
		v, err := l.lowerExpr(subj, guard.PrecTop)
		if err != nil {
			return nil, nil, err
		}
		if isPath(subj) {
			paths = append(paths, v)
			continue
		}
		tmp := l.env.Temp()
		stmts = append(stmts, &ir.LetStmt{Name: tmp, Value: v})
		paths = append(paths, &ir.Ident{Name: tmp})
	}
	return stmts, paths, nil
}

func isPath(e ast.Expression) bool {
	switch x := e.(type) {
	case *ast.VarRef:
		return true
	case *ast.TupleAccess:
		return isPath(x.Tuple)
	default:
		return false
	}
}

// clausePatterns returns one pattern per subject. With several subjects a
// clause may also give a single tuple pattern spanning all of them.
func clausePatterns(clause *ast.Clause, n, subjects int) ([]ast.Pattern, error) {
	if len(clause.Patterns) == subjects {
		return clause.Patterns, nil
	}
	if subjects > 1 && len(clause.Patterns) == 1 {
		if tp, ok := clause.Patterns[0].(*ast.TuplePattern); ok && len(tp.Elements) == subjects {
			return tp.Elements, nil
		}
	}
	return nil, &Error{
		Kind:   ErrArity,
		Clause: n,
		Detail: plural(len(clause.Patterns), "pattern") + " for " + plural(subjects, "subject"),
		Line:   clause.Line,
		Column: clause.Column,
	}
}

func checkDuplicates(clause *ast.Clause, n int, pats []ast.Pattern) error {
	seen := make(map[string]bool)
	for _, name := range ast.PatternVariables(pats...) {
		if seen[name] {
			return &Error{Kind: ErrDuplicateBinding, Clause: n, Name: name, Line: clause.Line, Column: clause.Column}
		}
		seen[name] = true
	}
	return nil
}

// clauseMatch is the matcher output for one clause.
type clauseMatch struct {
	test     ir.Expr
	bindings []pattern.Binding
}

// checkClauses enforces the preconditions of every clause, including
// clauses an earlier catch-all makes unreachable, and matches each
// clause's patterns against the subjects.
func (l *lowerer) checkClauses(c *ast.CaseExpr, paths []ir.Expr) ([]clauseMatch, error) {
	out := make([]clauseMatch, len(c.Clauses))
	for i, clause := range c.Clauses {
		n := i + 1
		pats, err := clausePatterns(clause, n, len(paths))
		if err != nil {
			return nil, err
		}
		if err := checkDuplicates(clause, n, pats); err != nil {
			return nil, err
		}
		test, bindings := pattern.MatchAll(pats, paths)
		if clause.Guard != nil {
			if err := l.checkGuard(clause, n, bindings); err != nil {
				return nil, err
			}
		}
		out[i] = clauseMatch{test: test, bindings: bindings}
	}
	return out, nil
}

// checkGuard verifies that every name the guard reads is a pattern
// variable of its clause or visible in the environment.
func (l *lowerer) checkGuard(clause *ast.Clause, n int, bindings []pattern.Binding) error {
	if !ast.IsGuard(clause.Guard) {
		line, col := clause.Guard.Pos()
		return &Error{Kind: ErrUnsupported, Clause: n, Detail: "guard is not a guard expression", Line: line, Column: col}
	}
	if ref, ok := guard.Unbound(clause.Guard, guard.Scope{Bindings: bindings, Env: l.env}); ok {
		return &Error{Kind: ErrUnboundGuardName, Clause: n, Name: ref.Name, Line: ref.Line, Column: ref.Column}
	}
	return nil
}

// lowerClauseBody materializes the bindings the guard or body use, in
// matcher order, and lowers the body after them. The bindings go out of
// view when the branch ends.
func (l *lowerer) lowerClauseBody(clause *ast.Clause, bindings []pattern.Binding, s *sink) ([]ir.Stmt, error) {
	snap := l.env.Snapshot()
	defer l.env.Restore(snap)

	var out []ir.Stmt
	for _, b := range bindings {
		if !ast.FreeIn(b.Name, clause.Guard) && !ast.FreeIn(b.Name, clause.Body) {
			continue
		}
		b.Generation = l.env.Bind(b.Name)
		out = append(out, &ir.LetStmt{Name: env.Rename(b.Name, b.Generation), Value: b.Path})
	}

	body, err := l.lowerInto(clause.Body, s)
	if err != nil {
		return nil, err
	}
	return append(out, body...), nil
}

func plural(n int, noun string) string {
	s := strconv.Itoa(n) + " " + noun
	if n != 1 {
		s += "s"
	}
	return s
}
