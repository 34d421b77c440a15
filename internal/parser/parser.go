package parser

import (
	"strconv"
	"strings"

	"github.com/lhaig/casec/internal/ast"
	"github.com/lhaig/casec/internal/diagnostic"
	"github.com/lhaig/casec/internal/lexer"
)

// New creates a new parser
func New(source string) *Parser {
	l := lexer.New(source)
	return &Parser{
		tokens: l.Tokenize(),
		pos:    0,
		diags:  diagnostic.New(),
	}
}

// Diagnostics returns the parser's diagnostics
func (p *Parser) Diagnostics() *diagnostic.Diagnostics {
	return p.diags
}

// Parse parses the token stream into a Module
func (p *Parser) Parse() *ast.Module {
	mod := &ast.Module{}
	for !p.check(lexer.EOF) {
		if p.check(lexer.PUB) || p.check(lexer.FN) {
			mod.Functions = append(mod.Functions, p.parseFunction())
			continue
		}
		tok := p.current()
		p.diags.Errorf(tok.Line, tok.Column, "unexpected %s at top level", describe(tok))
		startPos := p.pos
		p.synchronize()
		if p.pos == startPos {
			p.advance() // ensure forward progress to avoid infinite loop
		}
	}
	return mod
}

// ParseExpr parses source holding exactly one expression.
func ParseExpr(source string) (ast.Expression, *diagnostic.Diagnostics) {
	p := New(source)
	expr := p.parseExpression()
	if !p.check(lexer.EOF) {
		tok := p.current()
		p.diags.Errorf(tok.Line, tok.Column, "unexpected %s after expression", describe(tok))
	}
	return expr, p.diags
}

// parseFunction parses: [pub] fn <name>(<params>) { <stmts> }
func (p *Parser) parseFunction() *ast.Function {
	tok := p.current()
	isPublic := p.match(lexer.PUB)
	p.expect(lexer.FN)
	name := p.expect(lexer.IDENT)

	fn := &ast.Function{
		Name:     name.Literal,
		IsPublic: isPublic,
		Line:     tok.Line,
		Column:   tok.Column,
	}

	p.expect(lexer.LPAREN)
	if !p.check(lexer.RPAREN) {
		for {
			param := p.expect(lexer.IDENT)
			prm := &ast.Param{Name: param.Literal, Line: param.Line, Column: param.Column}
			if p.match(lexer.COLON) {
				prm.Type = p.parseType()
			}
			fn.Params = append(fn.Params, prm)
			if !p.match(lexer.COMMA) || p.check(lexer.RPAREN) {
				break
			}
		}
	}
	p.expect(lexer.RPAREN)

	open := p.expect(lexer.LBRACE)
	fn.Body = p.parseStatements()
	p.expect(lexer.RBRACE)
	if len(fn.Body) == 0 {
		p.diags.Errorf(open.Line, open.Column, "function '%s' has an empty body", fn.Name)
	}
	return fn
}

// parseType parses a type annotation and returns it in canonical form:
// Name | Name(<type>, ...) | #(<type>, ...)
func (p *Parser) parseType() string {
	var sb strings.Builder
	tok := p.current()
	switch {
	case p.match(lexer.HASH_PAREN):
		sb.WriteString("#(")
		sb.WriteString(p.parseTypeList())
		sb.WriteString(")")
	case p.check(lexer.IDENT):
		sb.WriteString(p.advance().Literal)
		if p.match(lexer.LPAREN) {
			sb.WriteString("(")
			sb.WriteString(p.parseTypeList())
			sb.WriteString(")")
		}
	default:
		p.diags.Errorf(tok.Line, tok.Column, "expected type, got %s", describe(tok))
		return ""
	}
	return sb.String()
}

func (p *Parser) parseTypeList() string {
	var parts []string
	for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
		startPos := p.pos
		parts = append(parts, p.parseType())
		if p.pos == startPos {
			break
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return strings.Join(parts, ", ")
}

// parseStatements parses statements up to (not including) the closing brace
func (p *Parser) parseStatements() []ast.Statement {
	var stmts []ast.Statement
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		startPos := p.pos
		if p.check(lexer.LET) {
			stmts = append(stmts, p.parseLet())
		} else {
			stmts = append(stmts, &ast.ExprStmt{Expr: p.parseExpression()})
		}
		if p.pos == startPos {
			p.advance()
		}
	}
	return stmts
}

// parseLet parses: let <name> = <expr>
func (p *Parser) parseLet() *ast.LetStmt {
	tok := p.expect(lexer.LET)
	name := p.expect(lexer.IDENT)
	if strings.HasPrefix(name.Literal, "_") {
		p.diags.Errorf(name.Line, name.Column, "cannot bind discarded name '%s' with let", name.Literal)
	}
	p.expect(lexer.ASSIGN)
	return &ast.LetStmt{
		Name:   name.Literal,
		Value:  p.parseExpression(),
		Line:   tok.Line,
		Column: tok.Column,
	}
}

// Expression parsing - precedence climbing
//
// Precedence levels (lowest to highest), all left-associative:
// 1. ||
// 2. &&
// 3. == !=
// 4. < <= > >=
// 5. postfix (.N)

const (
	precNone       = 0
	precOr         = 1
	precAnd        = 2
	precEquality   = 3
	precComparison = 4
)

func tokenPrecedence(tt lexer.TokenType) int {
	switch tt {
	case lexer.OR:
		return precOr
	case lexer.AND:
		return precAnd
	case lexer.EQ, lexer.NEQ:
		return precEquality
	case lexer.LT, lexer.LEQ, lexer.GT, lexer.GEQ:
		return precComparison
	default:
		return precNone
	}
}

func tokenOperator(tt lexer.TokenType) ast.BinaryOperator {
	switch tt {
	case lexer.OR:
		return ast.OpOr
	case lexer.AND:
		return ast.OpAnd
	case lexer.EQ:
		return ast.OpEq
	case lexer.NEQ:
		return ast.OpNotEq
	case lexer.LT:
		return ast.OpLt
	case lexer.LEQ:
		return ast.OpLtEq
	case lexer.GT:
		return ast.OpGt
	default:
		return ast.OpGtEq
	}
}

func (p *Parser) parseExpression() ast.Expression {
	return p.parsePrecedence(precOr)
}

func (p *Parser) parsePrecedence(minPrec int) ast.Expression {
	left := p.parsePostfix()

	for {
		prec := tokenPrecedence(p.current().Type)
		if prec == precNone || prec < minPrec {
			break
		}

		op := p.advance()
		right := p.parsePrecedence(prec + 1)
		left = &ast.BinaryOp{
			Op:     tokenOperator(op.Type),
			Left:   left,
			Right:  right,
			Line:   op.Line,
			Column: op.Column,
		}
	}

	return left
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for p.check(lexer.DOT) {
		dot := p.advance()
		idx := p.expect(lexer.INT_LIT)
		n, err := strconv.Atoi(idx.Literal)
		if err != nil {
			p.diags.Errorf(idx.Line, idx.Column, "invalid tuple index '%s'", idx.Literal)
		}
		expr = &ast.TupleAccess{Tuple: expr, Index: n, Line: dot.Line, Column: dot.Column}
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current()

	switch tok.Type {
	case lexer.INT_LIT, lexer.STRING_LIT, lexer.TRUE, lexer.FALSE, lexer.MINUS:
		lit, ok := p.parseLiteral()
		if !ok {
			return errorExpr(tok)
		}
		return &ast.Constant{Value: lit, Line: tok.Line, Column: tok.Column}

	case lexer.IDENT:
		p.advance()
		if strings.HasPrefix(tok.Literal, "_") {
			p.diags.Errorf(tok.Line, tok.Column, "discarded name '%s' cannot be used", tok.Literal)
		}
		return &ast.VarRef{Name: tok.Literal, Line: tok.Line, Column: tok.Column}

	case lexer.HASH_PAREN:
		p.advance()
		tuple := &ast.TupleLit{Line: tok.Line, Column: tok.Column}
		for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
			tuple.Elements = append(tuple.Elements, p.parseExpression())
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.RPAREN)
		return tuple

	case lexer.LBRACE:
		p.advance()
		body := p.parseStatements()
		p.expect(lexer.RBRACE)
		if len(body) == 0 {
			p.diags.Errorf(tok.Line, tok.Column, "empty block")
			return errorExpr(tok)
		}
		if len(body) == 1 {
			if stmt, ok := body[0].(*ast.ExprStmt); ok {
				return stmt.Expr
			}
		}
		return &ast.Block{Body: body, Line: tok.Line, Column: tok.Column}

	case lexer.CASE:
		return p.parseCase()

	default:
		p.diags.Errorf(tok.Line, tok.Column, "expected expression, got %s", describe(tok))
		p.advance()
		return errorExpr(tok)
	}
}

// parseLiteral parses INT, -INT, STRING, True or False.
func (p *Parser) parseLiteral() (ast.Literal, bool) {
	tok := p.advance()
	switch tok.Type {
	case lexer.TRUE:
		return ast.BoolValue(true), true
	case lexer.FALSE:
		return ast.BoolValue(false), true
	case lexer.STRING_LIT:
		return ast.StringValue(tok.Literal), true
	case lexer.INT_LIT:
		return p.intLiteral(tok, "")
	case lexer.MINUS:
		if !p.check(lexer.INT_LIT) {
			p.diags.Errorf(tok.Line, tok.Column, "'-' is only supported before an integer literal")
			return ast.Literal{}, false
		}
		return p.intLiteral(p.advance(), "-")
	default:
		p.diags.Errorf(tok.Line, tok.Column, "expected literal, got %s", describe(tok))
		return ast.Literal{}, false
	}
}

func (p *Parser) intLiteral(tok lexer.Token, sign string) (ast.Literal, bool) {
	n, err := strconv.ParseInt(sign+tok.Literal, 10, 64)
	if err != nil {
		p.diags.Errorf(tok.Line, tok.Column, "integer literal %s%s out of range", sign, tok.Literal)
		return ast.Literal{}, false
	}
	return ast.IntValue(n), true
}

// parseCase parses: case <expr> {, <expr>} { <clause>... }
func (p *Parser) parseCase() *ast.CaseExpr {
	tok := p.expect(lexer.CASE)
	c := &ast.CaseExpr{Line: tok.Line, Column: tok.Column}

	c.Subjects = append(c.Subjects, p.parseExpression())
	for p.match(lexer.COMMA) {
		c.Subjects = append(c.Subjects, p.parseExpression())
	}

	p.expect(lexer.LBRACE)
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		startPos := p.pos
		c.Clauses = append(c.Clauses, p.parseClause())
		if p.pos == startPos {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return c
}

// parseClause parses: <pattern> {, <pattern>} [if <guard>] -> <expr>
func (p *Parser) parseClause() *ast.Clause {
	tok := p.current()
	clause := &ast.Clause{Line: tok.Line, Column: tok.Column}

	clause.Patterns = append(clause.Patterns, p.parsePattern())
	for p.match(lexer.COMMA) {
		clause.Patterns = append(clause.Patterns, p.parsePattern())
	}

	if ifTok := p.current(); p.match(lexer.IF) {
		clause.Guard = p.parseExpression()
		if !ast.IsGuard(clause.Guard) {
			p.diags.Errorf(ifTok.Line, ifTok.Column,
				"guard may only use variables, constants, tuple access and comparison or boolean operators")
		}
	}

	p.expect(lexer.ARROW)
	clause.Body = p.parseExpression()
	return clause
}

// parsePattern parses: _ | _name | name | literal | #(<pattern>, ...)
func (p *Parser) parsePattern() ast.Pattern {
	tok := p.current()

	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		if strings.HasPrefix(tok.Literal, "_") {
			name := tok.Literal
			if name == "_" {
				name = ""
			}
			return &ast.WildcardPattern{Name: name, Line: tok.Line, Column: tok.Column}
		}
		return &ast.VariablePattern{Name: tok.Literal, Line: tok.Line, Column: tok.Column}

	case lexer.INT_LIT, lexer.STRING_LIT, lexer.TRUE, lexer.FALSE, lexer.MINUS:
		lit, _ := p.parseLiteral()
		return &ast.LiteralPattern{Value: lit, Line: tok.Line, Column: tok.Column}

	case lexer.HASH_PAREN:
		p.advance()
		tuple := &ast.TuplePattern{Line: tok.Line, Column: tok.Column}
		for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
			tuple.Elements = append(tuple.Elements, p.parsePattern())
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.RPAREN)
		return tuple

	default:
		p.diags.Errorf(tok.Line, tok.Column, "expected pattern, got %s", describe(tok))
		p.advance()
		return &ast.WildcardPattern{Line: tok.Line, Column: tok.Column}
	}
}

// errorExpr stands in for an expression that failed to parse. It is never
// lowered because the caller sees the parse diagnostics first.
func errorExpr(tok lexer.Token) ast.Expression {
	return &ast.Constant{Value: ast.BoolValue(false), Line: tok.Line, Column: tok.Column}
}
