// Package ir is the JavaScript target tree produced by lowering. It holds
// only the statement and expression forms lowered case expressions need;
// the printer in jsbe is responsible for concrete syntax.
package ir

// Module is one emitted JavaScript module.
type Module struct {
	Name      string
	Functions []*Function
}

// Function is a top-level function declaration.
type Function struct {
	Name     string
	IsPublic bool // exported from the module
	Params   []string
	Body     []Stmt
}

// --- Statements ---

// Stmt is the interface for all IR statement nodes.
type Stmt interface {
	stmtNode()
}

// LetStmt declares and initializes a block-scoped local: let x = v;
type LetStmt struct {
	Name  string
	Value Expr
}

func (*LetStmt) stmtNode() {}

// DeclareStmt declares a local without initializing it: let x;
type DeclareStmt struct {
	Name string
}

func (*DeclareStmt) stmtNode() {}

// AssignStmt assigns to a previously declared local.
type AssignStmt struct {
	Name  string
	Value Expr
}

func (*AssignStmt) stmtNode() {}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	Value Expr
}

func (*ReturnStmt) stmtNode() {}

// ThrowStmt throws a new Error carrying Message.
type ThrowStmt struct {
	Message string
}

func (*ThrowStmt) stmtNode() {}

// Branch is one `if`/`else if` arm.
type Branch struct {
	Condition Expr
	Body      []Stmt
}

// IfStmt is an if/else-if chain. Else is nil when there is no else branch.
type IfStmt struct {
	Branches []*Branch
	Else     []Stmt
}

func (*IfStmt) stmtNode() {}

// --- Expressions ---

// Expr is the interface for all IR expression nodes.
type Expr interface {
	exprNode()
}

// Op is a JavaScript binary operator.
type Op int

const (
	OpOr Op = iota
	OpAnd
	OpStrictEq
	OpStrictNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
)

// String returns the operator's JavaScript spelling.
func (op Op) String() string {
	switch op {
	case OpOr:
		return "||"
	case OpAnd:
		return "&&"
	case OpStrictEq:
		return "==="
	case OpStrictNotEq:
		return "!=="
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

// Ident references a local or parameter by its emitted name.
type Ident struct {
	Name string
}

func (*Ident) exprNode() {}

// IndexExpr reads a constant index: a[i]
type IndexExpr struct {
	Object Expr
	Index  int
}

func (*IndexExpr) exprNode() {}

// IntLit represents an integer literal.
type IntLit struct {
	Value int64
}

func (*IntLit) exprNode() {}

// StringLit represents a string literal.
type StringLit struct {
	Value string
}

func (*StringLit) exprNode() {}

// BoolLit represents a boolean literal.
type BoolLit struct {
	Value bool
}

func (*BoolLit) exprNode() {}

// ArrayLit represents an array literal; tuples are emitted as arrays.
type ArrayLit struct {
	Elements []Expr
}

func (*ArrayLit) exprNode() {}

// BinaryExpr represents a binary operation. The printer never adds
// parentheses on its own; grouping is explicit through Group.
type BinaryExpr struct {
	Left  Expr
	Op    Op
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// Group is a parenthesized expression.
type Group struct {
	Expr Expr
}

func (*Group) exprNode() {}

// And joins the non-nil tests with && as a left-nested chain. It returns
// nil when there is nothing to test.
func And(tests ...Expr) Expr {
	var out Expr
	for _, t := range tests {
		if t == nil {
			continue
		}
		if out == nil {
			out = t
			continue
		}
		out = &BinaryExpr{Left: out, Op: OpAnd, Right: t}
	}
	return out
}

// Terminates reports whether control never falls off the end of stmts.
func Terminates(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch s := stmts[len(stmts)-1].(type) {
	case *ReturnStmt, *ThrowStmt:
		return true
	case *IfStmt:
		if s.Else == nil || !Terminates(s.Else) {
			return false
		}
		for _, b := range s.Branches {
			if !Terminates(b.Body) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
