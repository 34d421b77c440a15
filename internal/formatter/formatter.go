package formatter

import (
	"fmt"
	"strings"

	"github.com/lhaig/casec/internal/ast"
)

// Format takes a parsed module and returns canonical source code.
// Comments are not preserved.
func Format(mod *ast.Module) string {
	f := &formatter{}
	f.formatModule(mod)
	return f.sb.String()
}

type formatter struct {
	sb     strings.Builder
	indent int
}

// --- helpers ---

func (f *formatter) emit(s string) {
	f.sb.WriteString(s)
}

func (f *formatter) emitf(format string, args ...any) {
	f.sb.WriteString(fmt.Sprintf(format, args...))
}

func (f *formatter) emitLine(s string) {
	if s == "" {
		f.sb.WriteString("\n")
	} else {
		f.sb.WriteString(f.indentStr())
		f.sb.WriteString(s)
		f.sb.WriteString("\n")
	}
}

func (f *formatter) incIndent() { f.indent++ }
func (f *formatter) decIndent() { f.indent-- }

func (f *formatter) indentStr() string {
	return strings.Repeat("  ", f.indent)
}

// --- module-level ---

func (f *formatter) formatModule(mod *ast.Module) {
	for i, fn := range mod.Functions {
		if i > 0 {
			f.emitLine("")
		}
		f.formatFunction(fn)
	}
}

func (f *formatter) formatFunction(fn *ast.Function) {
	if fn.IsPublic {
		f.emit(f.indentStr() + "pub ")
	} else {
		f.emit(f.indentStr())
	}
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name
		if p.Type != "" {
			params[i] += ": " + p.Type
		}
	}
	f.emitf("fn %s(%s) {\n", fn.Name, strings.Join(params, ", "))
	f.incIndent()
	f.formatStatements(fn.Body)
	f.decIndent()
	f.emitLine("}")
}

// --- statements ---

func (f *formatter) formatStatements(stmts []ast.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			f.emitLine(fmt.Sprintf("let %s = %s", s.Name, f.formatExpr(s.Value)))
		case *ast.ExprStmt:
			f.emitLine(f.formatExpr(s.Expr))
		}
	}
}

// --- expressions ---

func (f *formatter) formatExpr(e ast.Expression) string {
	return f.formatExprPrec(e, 0)
}

// formatExprPrec formats an expression, wrapping it in grouping braces if
// the parent binds tighter. Operators are left-associative, so a right
// child of equal precedence is wrapped too.
func (f *formatter) formatExprPrec(e ast.Expression, parentPrec int) string {
	switch expr := e.(type) {
	case *ast.BinaryOp:
		prec := precedence(expr.Op)
		left := f.formatExprPrec(expr.Left, prec)
		right := f.formatExprPrec(expr.Right, prec+1) // +1 for left-associativity
		result := fmt.Sprintf("%s %s %s", left, expr.Op, right)
		if prec < parentPrec {
			return "{ " + result + " }"
		}
		return result

	case *ast.TupleAccess:
		obj := f.formatExprPrec(expr.Tuple, postfixPrec)
		return fmt.Sprintf("%s.%d", obj, expr.Index)

	case *ast.VarRef:
		return expr.Name

	case *ast.Constant:
		s := expr.Value.String()
		if expr.Value.Kind == ast.IntLiteral && expr.Value.Int < 0 && parentPrec == postfixPrec {
			return "{ " + s + " }"
		}
		return s

	case *ast.TupleLit:
		elems := make([]string, len(expr.Elements))
		for i, elem := range expr.Elements {
			elems[i] = f.formatExpr(elem)
		}
		return fmt.Sprintf("#(%s)", strings.Join(elems, ", "))

	case *ast.Block:
		return f.formatBlock(expr)

	case *ast.CaseExpr:
		return f.formatCaseExpr(expr)

	default:
		return "<unknown>"
	}
}

func (f *formatter) formatBlock(b *ast.Block) string {
	var buf strings.Builder
	buf.WriteString("{\n")
	f.incIndent()
	for _, stmt := range b.Body {
		buf.WriteString(f.indentStr())
		switch s := stmt.(type) {
		case *ast.LetStmt:
			buf.WriteString(fmt.Sprintf("let %s = %s", s.Name, f.formatExpr(s.Value)))
		case *ast.ExprStmt:
			buf.WriteString(f.formatExpr(s.Expr))
		}
		buf.WriteString("\n")
	}
	f.decIndent()
	buf.WriteString(f.indentStr())
	buf.WriteString("}")
	return buf.String()
}

func (f *formatter) formatCaseExpr(expr *ast.CaseExpr) string {
	var buf strings.Builder
	subjects := make([]string, len(expr.Subjects))
	for i, s := range expr.Subjects {
		subjects[i] = f.formatExpr(s)
	}
	buf.WriteString("case ")
	buf.WriteString(strings.Join(subjects, ", "))
	buf.WriteString(" {\n")

	f.incIndent()
	for _, clause := range expr.Clauses {
		pats := make([]string, len(clause.Patterns))
		for i, p := range clause.Patterns {
			pats[i] = formatPattern(p)
		}
		buf.WriteString(f.indentStr())
		buf.WriteString(strings.Join(pats, ", "))
		if clause.Guard != nil {
			buf.WriteString(" if ")
			buf.WriteString(f.formatExpr(clause.Guard))
		}
		buf.WriteString(" -> ")
		buf.WriteString(f.formatExpr(clause.Body))
		buf.WriteString("\n")
	}
	f.decIndent()

	buf.WriteString(f.indentStr())
	buf.WriteString("}")
	return buf.String()
}

func formatPattern(p ast.Pattern) string {
	switch pat := p.(type) {
	case *ast.WildcardPattern:
		if pat.Name != "" {
			return pat.Name
		}
		return "_"
	case *ast.LiteralPattern:
		return pat.Value.String()
	case *ast.VariablePattern:
		return pat.Name
	case *ast.TuplePattern:
		elems := make([]string, len(pat.Elements))
		for i, el := range pat.Elements {
			elems[i] = formatPattern(el)
		}
		return fmt.Sprintf("#(%s)", strings.Join(elems, ", "))
	default:
		return "<unknown>"
	}
}

// --- operator precedence ---

// Precedence levels (higher binds tighter):
//
//	1: ||
//	2: &&
//	3: == !=
//	4: < > <= >=
//	5: .N
const postfixPrec = 5

func precedence(op ast.BinaryOperator) int {
	switch op {
	case ast.OpOr:
		return 1
	case ast.OpAnd:
		return 2
	case ast.OpEq, ast.OpNotEq:
		return 3
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		return 4
	default:
		return 0
	}
}
