package jsbe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lhaig/casec/internal/ir"
)

// Options controls the shape of the generated source.
type Options struct {
	Strict bool // emit the "use strict" header
	Indent int  // spaces per nesting level
}

// DefaultOptions returns strict mode with two-space indentation.
func DefaultOptions() Options {
	return Options{Strict: true, Indent: 2}
}

// Generate produces JavaScript source code from a single IR Module.
func Generate(mod *ir.Module) string {
	return GenerateWith(mod, DefaultOptions())
}

// GenerateWith produces JavaScript source code using opts.
func GenerateWith(mod *ir.Module, opts Options) string {
	g := &generator{unit: strings.Repeat(" ", max(opts.Indent, 0))}

	if opts.Strict {
		g.emitLine(`"use strict";`)
	}
	for i, f := range mod.Functions {
		if i > 0 || opts.Strict {
			g.emitLine("")
		}
		g.generateFunction(f)
	}

	return g.sb.String()
}

// Expr renders a single expression.
func Expr(e ir.Expr) string {
	g := &generator{}
	return g.generateExpr(e)
}

type generator struct {
	sb     strings.Builder
	indent int
	unit   string
}

func (g *generator) emit(s string) {
	g.sb.WriteString(s)
}

func (g *generator) emitf(format string, args ...any) {
	g.sb.WriteString(fmt.Sprintf(format, args...))
}

func (g *generator) emitLinef(format string, args ...any) {
	g.sb.WriteString(g.indentStr())
	g.sb.WriteString(fmt.Sprintf(format, args...))
}

func (g *generator) emitLine(s string) {
	if s == "" {
		g.sb.WriteString("\n")
	} else {
		g.sb.WriteString(g.indentStr())
		g.sb.WriteString(s)
		g.sb.WriteString("\n")
	}
}

func (g *generator) incIndent() { g.indent++ }
func (g *generator) decIndent() { g.indent-- }

func (g *generator) indentStr() string {
	return strings.Repeat(g.unit, g.indent)
}

// --- Function generation ---

func (g *generator) generateFunction(f *ir.Function) {
	if f.IsPublic {
		g.emit(g.indentStr() + "export ")
	} else {
		g.emit(g.indentStr())
	}
	g.emitf("function %s(%s) {\n", f.Name, strings.Join(f.Params, ", "))
	g.incIndent()
	g.generateStmts(f.Body)
	g.decIndent()
	g.emitLine("}")
}

// --- Statement generation ---

func (g *generator) generateStmts(stmts []ir.Stmt) {
	for _, stmt := range stmts {
		g.generateStmt(stmt)
	}
}

func (g *generator) generateStmt(s ir.Stmt) {
	switch stmt := s.(type) {
	case *ir.LetStmt:
		g.emitLinef("let %s = %s;\n", stmt.Name, g.generateExpr(stmt.Value))

	case *ir.DeclareStmt:
		g.emitLinef("let %s;\n", stmt.Name)

	case *ir.AssignStmt:
		g.emitLinef("%s = %s;\n", stmt.Name, g.generateExpr(stmt.Value))

	case *ir.ReturnStmt:
		g.emitLinef("return %s;\n", g.generateExpr(stmt.Value))

	case *ir.ThrowStmt:
		g.emitLinef("throw new Error(\"%s\");\n", escapeJSString(stmt.Message))

	case *ir.IfStmt:
		g.generateIfStmt(stmt)

	default:
		panic(fmt.Sprintf("jsbe: unknown statement type %T", s))
	}
}

func (g *generator) generateIfStmt(stmt *ir.IfStmt) {
	for i, b := range stmt.Branches {
		if i == 0 {
			g.emitLinef("if (%s) {\n", g.generateExpr(b.Condition))
		} else {
			g.emitf(" else if (%s) {\n", g.generateExpr(b.Condition))
		}
		g.incIndent()
		g.generateStmts(b.Body)
		g.decIndent()
		g.emitLinef("}")
	}

	if stmt.Else != nil {
		g.emit(" else {\n")
		g.incIndent()
		g.generateStmts(stmt.Else)
		g.decIndent()
		g.emitLine("}")
	} else {
		g.emit("\n")
	}
}

// --- Expression generation ---

func (g *generator) generateExpr(e ir.Expr) string {
	switch expr := e.(type) {
	case *ir.Ident:
		return expr.Name

	case *ir.IndexExpr:
		return fmt.Sprintf("%s[%d]", g.generateExpr(expr.Object), expr.Index)

	case *ir.IntLit:
		return strconv.FormatInt(expr.Value, 10)

	case *ir.StringLit:
		return "\"" + escapeJSString(expr.Value) + "\""

	case *ir.BoolLit:
		if expr.Value {
			return "true"
		}
		return "false"

	case *ir.ArrayLit:
		elems := make([]string, len(expr.Elements))
		for i, el := range expr.Elements {
			elems[i] = g.generateExpr(el)
		}
		return "[" + strings.Join(elems, ", ") + "]"

	case *ir.BinaryExpr:
		left := g.generateExpr(expr.Left)
		right := g.generateExpr(expr.Right)
		return fmt.Sprintf("%s %s %s", left, mapOperator(expr.Op), right)

	case *ir.Group:
		return "(" + g.generateExpr(expr.Expr) + ")"

	default:
		panic(fmt.Sprintf("jsbe: unknown expression type %T", e))
	}
}

func mapOperator(op ir.Op) string {
	switch op {
	case ir.OpStrictEq:
		return "==="
	case ir.OpStrictNotEq:
		return "!=="
	case ir.OpLt:
		return "<"
	case ir.OpGt:
		return ">"
	case ir.OpLtEq:
		return "<="
	case ir.OpGtEq:
		return ">="
	case ir.OpAnd:
		return "&&"
	case ir.OpOr:
		return "||"
	default:
		return "?"
	}
}

func escapeJSString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
