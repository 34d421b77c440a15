package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENT      // x, xs, _discard
	INT_LIT    // 123
	STRING_LIT // "hello"

	// Keywords
	FN
	PUB
	LET
	CASE
	IF
	TRUE  // True
	FALSE // False

	// Operators
	MINUS  // -
	EQ     // ==
	NEQ    // !=
	LT     // <
	GT     // >
	LEQ    // <=
	GEQ    // >=
	AND    // &&
	OR     // ||
	ASSIGN // =
	ARROW  // ->

	// Delimiters
	LPAREN     // (
	RPAREN     // )
	LBRACE     // {
	RBRACE     // }
	HASH_PAREN // #(
	COMMA      // ,
	DOT        // .
	COLON      // :
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

var tokenNames = map[TokenType]string{
	ILLEGAL:    "ILLEGAL",
	EOF:        "EOF",
	IDENT:      "IDENT",
	INT_LIT:    "INT_LIT",
	STRING_LIT: "STRING_LIT",
	FN:         "FN",
	PUB:        "PUB",
	LET:        "LET",
	CASE:       "CASE",
	IF:         "IF",
	TRUE:       "TRUE",
	FALSE:      "FALSE",
	MINUS:      "MINUS",
	EQ:         "EQ",
	NEQ:        "NEQ",
	LT:         "LT",
	GT:         "GT",
	LEQ:        "LEQ",
	GEQ:        "GEQ",
	AND:        "AND",
	OR:         "OR",
	ASSIGN:     "ASSIGN",
	ARROW:      "ARROW",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	HASH_PAREN: "HASH_PAREN",
	COMMA:      "COMMA",
	DOT:        "DOT",
	COLON:      "COLON",
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// keywords maps keyword strings to their token types
var keywords = map[string]TokenType{
	"fn":    FN,
	"pub":   PUB,
	"let":   LET,
	"case":  CASE,
	"if":    IF,
	"True":  TRUE,
	"False": FALSE,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
