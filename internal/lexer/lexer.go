package lexer

import "strings"

// Lexer scans case-language source code and produces tokens
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
}

// New creates a new Lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing the position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads an integer literal. There are no floats, so in
// `t.0.1` every dot is a tuple access.
func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a string literal and returns its decoded value.
func (l *Lexer) readString() (string, bool) {
	var sb strings.Builder
	for {
		l.readChar()
		if l.ch == 0 || l.ch == '\n' {
			return "", false
		}
		if l.ch == '"' {
			break
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(l.ch)
			}
			continue
		}
		sb.WriteByte(l.ch)
	}
	return sb.String(), true
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	line, col := l.line, l.column
	single := func(tt TokenType) Token {
		return Token{Type: tt, Literal: string(l.ch), Line: line, Column: col}
	}
	double := func(tt TokenType) Token {
		lit := string(l.ch) + string(l.peekChar())
		l.readChar()
		return Token{Type: tt, Literal: lit, Line: line, Column: col}
	}

	var tok Token
	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			tok = double(EQ)
		} else {
			tok = single(ASSIGN)
		}
	case '!':
		if l.peekChar() == '=' {
			tok = double(NEQ)
		} else {
			tok = single(ILLEGAL)
		}
	case '<':
		if l.peekChar() == '=' {
			tok = double(LEQ)
		} else {
			tok = single(LT)
		}
	case '>':
		if l.peekChar() == '=' {
			tok = double(GEQ)
		} else {
			tok = single(GT)
		}
	case '&':
		if l.peekChar() == '&' {
			tok = double(AND)
		} else {
			tok = single(ILLEGAL)
		}
	case '|':
		if l.peekChar() == '|' {
			tok = double(OR)
		} else {
			tok = single(ILLEGAL)
		}
	case '-':
		if l.peekChar() == '>' {
			tok = double(ARROW)
		} else {
			tok = single(MINUS)
		}
	case '#':
		if l.peekChar() == '(' {
			tok = double(HASH_PAREN)
		} else {
			tok = single(ILLEGAL)
		}
	case '/':
		if l.peekChar() == '/' {
			l.skipLineComment()
			return l.NextToken()
		}
		tok = single(ILLEGAL)
	case '(':
		tok = single(LPAREN)
	case ')':
		tok = single(RPAREN)
	case '{':
		tok = single(LBRACE)
	case '}':
		tok = single(RBRACE)
	case ',':
		tok = single(COMMA)
	case '.':
		tok = single(DOT)
	case ':':
		tok = single(COLON)
	case '"':
		str, ok := l.readString()
		if !ok {
			tok = Token{Type: ILLEGAL, Literal: "unterminated string", Line: line, Column: col}
		} else {
			tok = Token{Type: STRING_LIT, Literal: str, Line: line, Column: col}
		}
	case 0:
		return Token{Type: EOF, Literal: "", Line: line, Column: col}
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			return Token{Type: LookupIdent(ident), Literal: ident, Line: line, Column: col}
		}
		if isDigit(l.ch) {
			return Token{Type: INT_LIT, Literal: l.readNumber(), Line: line, Column: col}
		}
		tok = single(ILLEGAL)
	}

	l.readChar()
	return tok
}

// Tokenize returns all tokens from the input
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
