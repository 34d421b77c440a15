package parser

import (
	"github.com/lhaig/casec/internal/diagnostic"
	"github.com/lhaig/casec/internal/lexer"
)

// syncTokens are tokens the parser can synchronize to after an error
var syncTokens = map[lexer.TokenType]bool{
	lexer.FN:     true,
	lexer.PUB:    true,
	lexer.LET:    true,
	lexer.RBRACE: true,
	lexer.EOF:    true,
}

// Parser holds the parser state
type Parser struct {
	tokens []lexer.Token
	pos    int
	diags  *diagnostic.Diagnostics
}

// current returns the current token
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token and returns the consumed token
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches the expected type,
// otherwise reports an error
func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	tok := p.current()
	if tok.Type != tt {
		p.diags.Errorf(tok.Line, tok.Column, "expected %s, got %s", tt, describe(tok))
		return tok
	}
	return p.advance()
}

// check returns true if the current token is of the given type
func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

// match consumes the current token if it matches, returns true if consumed
func (p *Parser) match(tt lexer.TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

// synchronize skips tokens until a sync point is found.
func (p *Parser) synchronize() {
	for !p.check(lexer.EOF) {
		if syncTokens[p.current().Type] {
			return
		}
		p.advance()
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of input"
	case lexer.ILLEGAL:
		return "illegal token '" + tok.Literal + "'"
	default:
		return tok.Type.String() + " '" + tok.Literal + "'"
	}
}
