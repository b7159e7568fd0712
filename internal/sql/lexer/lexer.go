// Package lexer tokenizes BSQL's SQL grammar (spec.md §4.3): whitespace
// insensitive, keywords case-insensitive, string content case-sensitive.
// Grounded on the pull-model Lexer.Next() design shared by
// ha1tch-tsqlparser/lexer and freeeve-machparse/lexer.
package lexer

import (
	"strings"

	"bsql/internal/sql/token"
)

// Lexer produces one token.Token at a time from an input string.
type Lexer struct {
	input string
	pos   int // current byte offset
}

// New returns a Lexer over input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		break
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }

// Next returns the next token, advancing past it. At end of input it
// returns an EOF token repeatedly.
func (l *Lexer) Next() token.Token {
	l.skipWhitespace()
	start := l.pos
	if l.pos >= len(l.input) {
		return token.Token{Kind: token.EOF, Offset: start}
	}

	c := l.input[l.pos]
	switch {
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentCont(l.input[l.pos]) {
			l.pos++
		}
		lit := l.input[start:l.pos]
		kind := token.LookupIdent(strings.ToUpper(lit))
		return token.Token{Kind: kind, Literal: lit, Offset: start}

	case isDigit(c):
		return l.lexNumber(start)

	case c == '\'':
		return l.lexString(start)

	case c == ',':
		l.pos++
		return token.Token{Kind: token.Comma, Literal: ",", Offset: start}
	case c == '(':
		l.pos++
		return token.Token{Kind: token.LParen, Literal: "(", Offset: start}
	case c == ')':
		l.pos++
		return token.Token{Kind: token.RParen, Literal: ")", Offset: start}
	case c == '*':
		l.pos++
		return token.Token{Kind: token.Star, Literal: "*", Offset: start}
	case c == ';':
		l.pos++
		return token.Token{Kind: token.Semicolon, Literal: ";", Offset: start}
	case c == '=':
		l.pos++
		return token.Token{Kind: token.Eq, Literal: "=", Offset: start}
	case c == '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token.Token{Kind: token.NotEq, Literal: "!=", Offset: start}
		}
		l.pos++
		return token.Token{Kind: token.Illegal, Literal: "!", Offset: start}
	case c == '<':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '>' {
			l.pos += 2
			return token.Token{Kind: token.NotEq, Literal: "<>", Offset: start}
		}
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token.Token{Kind: token.LtEq, Literal: "<=", Offset: start}
		}
		l.pos++
		return token.Token{Kind: token.Lt, Literal: "<", Offset: start}
	case c == '>':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token.Token{Kind: token.GtEq, Literal: ">=", Offset: start}
		}
		l.pos++
		return token.Token{Kind: token.Gt, Literal: ">", Offset: start}
	default:
		l.pos++
		return token.Token{Kind: token.Illegal, Literal: string(c), Offset: start}
	}
}

// lexNumber reads an integer or, if a '.' follows, a decimal literal. A
// leading '-' is handled by the parser as a unary operator on the
// literal, not here, matching the grammar's "signed integer" literal.
func (l *Lexer) lexNumber(start int) token.Token {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	isDecimal := false
	if l.pos < len(l.input) && l.input[l.pos] == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
		isDecimal = true
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	lit := l.input[start:l.pos]
	if isDecimal {
		return token.Token{Kind: token.Decimal, Literal: lit, Offset: start}
	}
	return token.Token{Kind: token.Int, Literal: lit, Offset: start}
}

// lexString reads a single-quoted string literal with '' as an embedded
// quote (spec.md §4.3). An unterminated string yields Illegal so the
// parser can report it with the opening quote's offset.
func (l *Lexer) lexString(start int) token.Token {
	l.pos++ // consume opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return token.Token{Kind: token.Illegal, Literal: sb.String(), Offset: start}
		}
		c := l.input[l.pos]
		if c == '\'' {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				sb.WriteByte('\'')
				l.pos += 2
				continue
			}
			l.pos++
			return token.Token{Kind: token.String, Literal: sb.String(), Offset: start}
		}
		sb.WriteByte(c)
		l.pos++
	}
}
