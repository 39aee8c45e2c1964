package syntax

import (
	"fmt"
)

// Pos is a byte offset in the source plus 1-based line/column coordinates.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// Span is a half-open interval [Start, End) in the source text.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) Len() int { return s.End.Offset - s.Start.Offset }

// Text returns the literal source covered by the span.
func (s Span) Text(source []byte) []byte {
	return source[s.Start.Offset:s.End.Offset]
}

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftBrace
	TokenRightBrace
	TokenLeftBracket
	TokenRightBracket
	TokenColon
	TokenComma
	TokenString
	TokenNumber
	TokenTrue
	TokenFalse
	TokenNull
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	case TokenLeftBracket:
		return "["
	case TokenRightBracket:
		return "]"
	case TokenColon:
		return ":"
	case TokenComma:
		return ","
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenTrue:
		return "true"
	case TokenFalse:
		return "false"
	case TokenNull:
		return "null"
	}
	return "invalid"
}

// Token is a terminal with its literal text and source span.
// Raw preserves the serialized form, including string quotes and escapes.
type Token struct {
	Type TokenType
	Raw  string
	Span Span
}

// ParseError reports a grammar violation at a source position.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

type lexer struct {
	source []byte
	pos    Pos
}

func newLexer(source []byte) *lexer {
	return &lexer{
		source: source,
		pos:    Pos{Offset: 0, Line: 1, Column: 1},
	}
}

func (l *lexer) errorf(pos Pos, format string, args ...interface{}) *ParseError {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) advance() byte {
	c := l.source[l.pos.Offset]
	l.pos.Offset++
	if c == '\n' {
		l.pos.Line++
		l.pos.Column = 1
	} else {
		l.pos.Column++
	}
	return c
}

func (l *lexer) peek() (byte, bool) {
	if l.pos.Offset >= len(l.source) {
		return 0, false
	}
	return l.source[l.pos.Offset], true
}

func (l *lexer) skipSpace() {
	for {
		c, ok := l.peek()
		if !ok || (c != ' ' && c != '\t' && c != '\r' && c != '\n') {
			return
		}
		l.advance()
	}
}

// Next returns the next token. Whitespace between tokens is skipped but fully
// recoverable from the gaps between token spans.
func (l *lexer) Next() (Token, error) {
	l.skipSpace()

	start := l.pos
	c, ok := l.peek()
	if !ok {
		return Token{Type: TokenEOF, Span: Span{Start: start, End: start}}, nil
	}

	switch c {
	case '{':
		l.advance()
		return l.token(TokenLeftBrace, start), nil
	case '}':
		l.advance()
		return l.token(TokenRightBrace, start), nil
	case '[':
		l.advance()
		return l.token(TokenLeftBracket, start), nil
	case ']':
		l.advance()
		return l.token(TokenRightBracket, start), nil
	case ':':
		l.advance()
		return l.token(TokenColon, start), nil
	case ',':
		l.advance()
		return l.token(TokenComma, start), nil
	case '"':
		return l.scanString(start)
	case 't':
		return l.scanKeyword(start, "true", TokenTrue)
	case 'f':
		return l.scanKeyword(start, "false", TokenFalse)
	case 'n':
		return l.scanKeyword(start, "null", TokenNull)
	}
	if c == '-' || (c >= '0' && c <= '9') {
		return l.scanNumber(start)
	}
	return Token{}, l.errorf(start, "unexpected character %q", c)
}

func (l *lexer) token(typ TokenType, start Pos) Token {
	return Token{
		Type: typ,
		Raw:  string(l.source[start.Offset:l.pos.Offset]),
		Span: Span{Start: start, End: l.pos},
	}
}

func (l *lexer) scanString(start Pos) (Token, error) {
	l.advance() // opening quote
	for {
		c, ok := l.peek()
		if !ok {
			return Token{}, l.errorf(start, "unterminated string")
		}
		l.advance()
		if c == '\\' {
			if _, ok := l.peek(); !ok {
				return Token{}, l.errorf(start, "unterminated escape sequence")
			}
			l.advance()
			continue
		}
		if c == '"' {
			return l.token(TokenString, start), nil
		}
		if c == '\n' {
			return Token{}, l.errorf(start, "newline in string literal")
		}
	}
}

func (l *lexer) scanNumber(start Pos) (Token, error) {
	if c, _ := l.peek(); c == '-' {
		l.advance()
	}
	digits := 0
	for {
		c, ok := l.peek()
		if !ok || c < '0' || c > '9' {
			break
		}
		l.advance()
		digits++
	}
	if digits == 0 {
		return Token{}, l.errorf(start, "malformed number")
	}
	if c, ok := l.peek(); ok && c == '.' {
		l.advance()
		frac := 0
		for {
			c, ok := l.peek()
			if !ok || c < '0' || c > '9' {
				break
			}
			l.advance()
			frac++
		}
		if frac == 0 {
			return Token{}, l.errorf(start, "malformed number")
		}
	}
	if c, ok := l.peek(); ok && (c == 'e' || c == 'E') {
		l.advance()
		if c, ok := l.peek(); ok && (c == '+' || c == '-') {
			l.advance()
		}
		exp := 0
		for {
			c, ok := l.peek()
			if !ok || c < '0' || c > '9' {
				break
			}
			l.advance()
			exp++
		}
		if exp == 0 {
			return Token{}, l.errorf(start, "malformed exponent")
		}
	}
	return l.token(TokenNumber, start), nil
}

func (l *lexer) scanKeyword(start Pos, word string, typ TokenType) (Token, error) {
	for i := 0; i < len(word); i++ {
		c, ok := l.peek()
		if !ok || c != word[i] {
			return Token{}, l.errorf(start, "unexpected literal, expected %q", word)
		}
		l.advance()
	}
	return l.token(typ, start), nil
}
