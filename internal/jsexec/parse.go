package jsexec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lhaig/casec/internal/ir"
)

// ParseExpr parses a JavaScript expression of the emitted subset back into
// IR, using JavaScript's own precedence and left associativity. Explicit
// parentheses become ir.Group nodes.
func ParseExpr(src string) (ir.Expr, error) {
	toks, err := scan(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	e, err := p.binary(1)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tEOF {
		return nil, fmt.Errorf("jsexec: unexpected %q at offset %d", tok.text, tok.pos)
	}
	return e, nil
}

type tokKind int

const (
	tEOF tokKind = iota
	tIdent
	tNumber
	tString
	tPunct
)

type token struct {
	kind tokKind
	text string // identifier, digits, decoded string or punctuation
	pos  int
}

var puncts = []string{"===", "!==", "&&", "||", "<=", ">=", "<", ">", "(", ")", "[", "]", ",", "-"}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func scan(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isIdentStart(c):
			start := i
			for i < len(src) && (isIdentStart(src[i]) || isDigit(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tIdent, text: src[start:i], pos: start})

		case isDigit(c):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tNumber, text: src[start:i], pos: start})

		case c == '"':
			start := i
			end := i + 1
			for end < len(src) && src[end] != '"' {
				if src[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(src) {
				return nil, fmt.Errorf("jsexec: unterminated string at offset %d", start)
			}
			s, err := strconv.Unquote(src[start : end+1])
			if err != nil {
				return nil, fmt.Errorf("jsexec: bad string at offset %d: %w", start, err)
			}
			toks = append(toks, token{kind: tString, text: s, pos: start})
			i = end + 1

		default:
			matched := false
			for _, p := range puncts {
				if strings.HasPrefix(src[i:], p) {
					toks = append(toks, token{kind: tPunct, text: p, pos: i})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("jsexec: unexpected character %q at offset %d", c, i)
			}
		}
	}
	return append(toks, token{kind: tEOF, pos: len(src)}), nil
}

type exprParser struct {
	toks []token
	pos  int
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tEOF {
		p.pos++
	}
	return tok
}

func (p *exprParser) expect(text string) error {
	tok := p.next()
	if tok.kind != tPunct || tok.text != text {
		return fmt.Errorf("jsexec: expected %q, got %q at offset %d", text, tok.text, tok.pos)
	}
	return nil
}

// JavaScript precedence for the emitted operators.
var binaryOps = map[string]struct {
	prec int
	op   ir.Op
}{
	"||":  {1, ir.OpOr},
	"&&":  {2, ir.OpAnd},
	"===": {3, ir.OpStrictEq},
	"!==": {3, ir.OpStrictNotEq},
	"<":   {4, ir.OpLt},
	"<=":  {4, ir.OpLtEq},
	">":   {4, ir.OpGt},
	">=":  {4, ir.OpGtEq},
}

func (p *exprParser) binary(minPrec int) (ir.Expr, error) {
	left, err := p.postfix()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		info, ok := binaryOps[tok.text]
		if tok.kind != tPunct || !ok || info.prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.binary(info.prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ir.BinaryExpr{Left: left, Op: info.op, Right: right}
	}
}

func (p *exprParser) postfix() (ir.Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tPunct && p.peek().text == "[" {
		p.next()
		tok := p.next()
		if tok.kind != tNumber {
			return nil, fmt.Errorf("jsexec: expected index, got %q at offset %d", tok.text, tok.pos)
		}
		n, err := strconv.Atoi(tok.text)
		if err != nil {
			return nil, fmt.Errorf("jsexec: bad index %q: %w", tok.text, err)
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		e = &ir.IndexExpr{Object: e, Index: n}
	}
	return e, nil
}

func (p *exprParser) primary() (ir.Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tIdent:
		switch tok.text {
		case "true":
			return &ir.BoolLit{Value: true}, nil
		case "false":
			return &ir.BoolLit{Value: false}, nil
		}
		return &ir.Ident{Name: tok.text}, nil

	case tNumber:
		return parseInt(tok.text, tok.pos)

	case tString:
		return &ir.StringLit{Value: tok.text}, nil

	case tPunct:
		switch tok.text {
		case "-":
			num := p.next()
			if num.kind != tNumber {
				return nil, fmt.Errorf("jsexec: unary minus is only supported on integers (offset %d)", tok.pos)
			}
			return parseInt("-"+num.text, num.pos)

		case "(":
			inner, err := p.binary(1)
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return &ir.Group{Expr: inner}, nil

		case "[":
			arr := &ir.ArrayLit{}
			for !(p.peek().kind == tPunct && p.peek().text == "]") {
				el, err := p.binary(1)
				if err != nil {
					return nil, err
				}
				arr.Elements = append(arr.Elements, el)
				if p.peek().kind != tPunct || p.peek().text != "," {
					break
				}
				p.next()
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			return arr, nil
		}
	}
	if tok.kind == tEOF {
		return nil, fmt.Errorf("jsexec: unexpected end of expression")
	}
	return nil, fmt.Errorf("jsexec: unexpected %q at offset %d", tok.text, tok.pos)
}

func parseInt(text string, pos int) (ir.Expr, error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("jsexec: bad integer %q at offset %d: %w", text, pos, err)
	}
	return &ir.IntLit{Value: n}, nil
}
