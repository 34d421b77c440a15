package ast

import (
	"strconv"
	"strings"
)

// Node is the base interface for all AST nodes
type Node interface {
	Pos() (line, col int)
}

// Statement nodes
type Statement interface {
	Node
	stmtNode()
}

// Expression nodes
type Expression interface {
	Node
	exprNode()
}

// Pattern nodes. The set is closed: Wildcard, Literal, Variable, Tuple.
type Pattern interface {
	Node
	patternNode()
}

// Module is a parsed source file.
type Module struct {
	Functions []*Function
}

func (m *Module) Pos() (int, int) {
	if len(m.Functions) > 0 {
		return m.Functions[0].Pos()
	}
	return 0, 0
}

// Function represents a function declaration. The value of the function
// is the value of its last statement.
type Function struct {
	Name     string
	IsPublic bool
	Params   []*Param
	Body     []Statement
	Line     int
	Column   int
}

func (f *Function) Pos() (int, int) { return f.Line, f.Column }

// Param represents a function parameter. Type is the annotation in
// canonical source form, or "" when there is none; it is not checked.
type Param struct {
	Name   string
	Type   string
	Line   int
	Column int
}

func (p *Param) Pos() (int, int) { return p.Line, p.Column }

// --- Statements ---

// LetStmt binds a name. Rebinding a name shadows the earlier binding.
type LetStmt struct {
	Name   string
	Value  Expression
	Line   int
	Column int
}

func (s *LetStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *LetStmt) stmtNode()       {}

// ExprStmt wraps an expression used as a statement
type ExprStmt struct {
	Expr Expression
}

func (s *ExprStmt) Pos() (int, int) { return s.Expr.Pos() }
func (s *ExprStmt) stmtNode()       {}

// --- Literals ---

// LiteralKind tags the value held by a Literal
type LiteralKind int

const (
	BoolLiteral LiteralKind = iota
	IntLiteral
	StringLiteral
)

// Literal is a constant value usable in patterns and guards.
type Literal struct {
	Kind LiteralKind
	Bool bool
	Int  int64
	Str  string
}

// BoolValue, IntValue and StringValue build literals.
func BoolValue(b bool) Literal     { return Literal{Kind: BoolLiteral, Bool: b} }
func IntValue(n int64) Literal     { return Literal{Kind: IntLiteral, Int: n} }
func StringValue(s string) Literal { return Literal{Kind: StringLiteral, Str: s} }

// String returns the literal in source syntax.
func (l Literal) String() string {
	switch l.Kind {
	case BoolLiteral:
		if l.Bool {
			return "True"
		}
		return "False"
	case IntLiteral:
		return strconv.FormatInt(l.Int, 10)
	case StringLiteral:
		return quote(l.Str)
	default:
		return "?"
	}
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

// --- Operators ---

// BinaryOperator is a boolean or comparison operator.
type BinaryOperator int

const (
	OpOr BinaryOperator = iota
	OpAnd
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
)

// String returns the operator in source syntax.
func (op BinaryOperator) String() string {
	switch op {
	case OpOr:
		return "||"
	case OpAnd:
		return "&&"
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpLt:
		return "<"
	case OpLtEq:
		return "<="
	case OpGt:
		return ">"
	case OpGtEq:
		return ">="
	default:
		return "?"
	}
}

// --- Expressions ---

// VarRef references a variable by name
type VarRef struct {
	Name   string
	Line   int
	Column int
}

func (e *VarRef) Pos() (int, int) { return e.Line, e.Column }
func (e *VarRef) exprNode()       {}

// Constant is a literal in expression position
type Constant struct {
	Value  Literal
	Line   int
	Column int
}

func (e *Constant) Pos() (int, int) { return e.Line, e.Column }
func (e *Constant) exprNode()       {}

// TupleAccess reads element Index of a tuple: t.2
type TupleAccess struct {
	Tuple  Expression
	Index  int
	Line   int
	Column int
}

func (e *TupleAccess) Pos() (int, int) { return e.Line, e.Column }
func (e *TupleAccess) exprNode()       {}

// BinaryOp represents a binary operation
type BinaryOp struct {
	Op     BinaryOperator
	Left   Expression
	Right  Expression
	Line   int
	Column int
}

func (e *BinaryOp) Pos() (int, int) { return e.Line, e.Column }
func (e *BinaryOp) exprNode()       {}

// TupleLit constructs a tuple: #(a, b)
type TupleLit struct {
	Elements []Expression
	Line     int
	Column   int
}

func (e *TupleLit) Pos() (int, int) { return e.Line, e.Column }
func (e *TupleLit) exprNode()       {}

// Block is a braced statement sequence whose value is its last statement.
// The parser only produces blocks that contain at least one let; a
// brace pair around a single expression is grouping.
type Block struct {
	Body   []Statement
	Line   int
	Column int
}

func (e *Block) Pos() (int, int) { return e.Line, e.Column }
func (e *Block) exprNode()       {}

// CaseExpr matches Subjects against each clause in order.
type CaseExpr struct {
	Subjects []Expression
	Clauses  []*Clause
	Line     int
	Column   int
}

func (e *CaseExpr) Pos() (int, int) { return e.Line, e.Column }
func (e *CaseExpr) exprNode()       {}

// Clause is one alternative of a case expression. Patterns holds one
// pattern per subject, or a single tuple pattern spanning all subjects.
// Guard is nil when the clause has none.
type Clause struct {
	Patterns []Pattern
	Guard    Expression
	Body     Expression
	Line     int
	Column   int
}

func (c *Clause) Pos() (int, int) { return c.Line, c.Column }

// --- Patterns ---

// WildcardPattern matches anything. Name keeps a discard name such as
// `_count` for printing; it is never bound.
type WildcardPattern struct {
	Name   string
	Line   int
	Column int
}

func (p *WildcardPattern) Pos() (int, int) { return p.Line, p.Column }
func (p *WildcardPattern) patternNode()    {}

// LiteralPattern matches a value strictly equal to Value
type LiteralPattern struct {
	Value  Literal
	Line   int
	Column int
}

func (p *LiteralPattern) Pos() (int, int) { return p.Line, p.Column }
func (p *LiteralPattern) patternNode()    {}

// VariablePattern matches anything and binds it to Name
type VariablePattern struct {
	Name   string
	Line   int
	Column int
}

func (p *VariablePattern) Pos() (int, int) { return p.Line, p.Column }
func (p *VariablePattern) patternNode()    {}

// TuplePattern matches a tuple element-wise
type TuplePattern struct {
	Elements []Pattern
	Line     int
	Column   int
}

func (p *TuplePattern) Pos() (int, int) { return p.Line, p.Column }
func (p *TuplePattern) patternNode()    {}

// IsGuard reports whether e is built only from guard forms: variable
// references, constants, tuple access and binary operators.
func IsGuard(e Expression) bool {
	switch g := e.(type) {
	case *VarRef, *Constant:
		return true
	case *TupleAccess:
		return IsGuard(g.Tuple)
	case *BinaryOp:
		return IsGuard(g.Left) && IsGuard(g.Right)
	default:
		return false
	}
}

// Irrefutable reports whether p matches every value of its type.
func Irrefutable(p Pattern) bool {
	switch pat := p.(type) {
	case *WildcardPattern, *VariablePattern:
		return true
	case *LiteralPattern:
		return false
	case *TuplePattern:
		for _, el := range pat.Elements {
			if !Irrefutable(el) {
				return false
			}
		}
		return true
	default:
		panic("ast: unknown pattern type")
	}
}

// PatternVariables returns the names bound by ps, depth-first, left to
// right. Duplicates are kept so callers can detect them.
func PatternVariables(ps ...Pattern) []string {
	var names []string
	var walk func(p Pattern)
	walk = func(p Pattern) {
		switch pat := p.(type) {
		case *VariablePattern:
			names = append(names, pat.Name)
		case *TuplePattern:
			for _, el := range pat.Elements {
				walk(el)
			}
		case *WildcardPattern, *LiteralPattern:
		default:
			panic("ast: unknown pattern type")
		}
	}
	for _, p := range ps {
		walk(p)
	}
	return names
}

// FreeIn reports whether name occurs free in e: referenced without being
// shadowed by an inner let or by a variable in a nested clause pattern.
func FreeIn(name string, e Expression) bool {
	switch x := e.(type) {
	case nil:
		return false
	case *VarRef:
		return x.Name == name
	case *Constant:
		return false
	case *TupleAccess:
		return FreeIn(name, x.Tuple)
	case *BinaryOp:
		return FreeIn(name, x.Left) || FreeIn(name, x.Right)
	case *TupleLit:
		for _, el := range x.Elements {
			if FreeIn(name, el) {
				return true
			}
		}
		return false
	case *Block:
		return FreeInStatements(name, x.Body)
	case *CaseExpr:
		for _, s := range x.Subjects {
			if FreeIn(name, s) {
				return true
			}
		}
		for _, c := range x.Clauses {
			if FreeInClause(name, c) {
				return true
			}
		}
		return false
	default:
		panic("ast: unknown expression type")
	}
}

// FreeInStatements reports whether name is free in a statement sequence.
// A let shadows name for the statements after it, not for its own value.
func FreeInStatements(name string, stmts []Statement) bool {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *LetStmt:
			if FreeIn(name, s.Value) {
				return true
			}
			if s.Name == name {
				return false
			}
		case *ExprStmt:
			if FreeIn(name, s.Expr) {
				return true
			}
		}
	}
	return false
}

// FreeInClause reports whether name is free in a clause's guard or body,
// excluding clauses whose patterns bind it.
func FreeInClause(name string, c *Clause) bool {
	for _, v := range PatternVariables(c.Patterns...) {
		if v == name {
			return false
		}
	}
	return FreeIn(name, c.Guard) || FreeIn(name, c.Body)
}
