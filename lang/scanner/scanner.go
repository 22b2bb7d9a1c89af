// Package scanner tokenizes evie source text for the compiler. It is an
// external collaborator of the core (§6 of the language specification): it
// knows nothing about bytecode, only about turning characters into tokens.
package scanner

import (
	"fmt"
	"strconv"

	"github.com/evie-lang/evie/lang/token"
)

// ErrorFunc is called once per lexical error encountered while scanning, with
// the 1-based source line and a human-readable message.
type ErrorFunc func(line int, msg string)

// Scanner tokenizes a single source string. Tokens are produced lazily, one
// per call to Next, so the compiler can stay single-pass: it pulls tokens
// exactly when its Pratt parser needs to look at or consume one.
type Scanner struct {
	src []byte
	err ErrorFunc

	start int // byte offset of the token currently being scanned
	cur   int // byte offset of the next unread byte
	line  int
}

// New creates a Scanner over src. errFn is invoked for every illegal
// character or unterminated string; it may be nil to silently ignore errors
// (the ILLEGAL token returned by Next is enough for callers that just want to
// detect failure).
func New(src string, errFn ErrorFunc) *Scanner {
	return &Scanner{src: []byte(src), line: 1, err: errFn}
}

func (s *Scanner) atEnd() bool { return s.cur >= len(s.src) }

func (s *Scanner) advance() byte {
	b := s.src[s.cur]
	s.cur++
	return b
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.cur]
}

func (s *Scanner) peekNext() byte {
	if s.cur+1 >= len(s.src) {
		return 0
	}
	return s.src[s.cur+1]
}

func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.src[s.cur] != want {
		return false
	}
	s.cur++
	return true
}

func (s *Scanner) errorf(format string, args ...any) {
	if s.err != nil {
		s.err(s.line, fmt.Sprintf(format, args...))
	}
}

// Next scans and returns the next token. Calling Next after an EOF token has
// been returned keeps returning EOF tokens.
func (s *Scanner) Next() token.Token {
	s.skipWhitespaceAndComments()
	s.start = s.cur
	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LEFT_PAREN)
	case ')':
		return s.make(token.RIGHT_PAREN)
	case '{':
		return s.make(token.LEFT_BRACE)
	case '}':
		return s.make(token.RIGHT_BRACE)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case ';':
		return s.make(token.SEMICOLON)
	case '*':
		return s.make(token.STAR)
	case '/':
		return s.make(token.SLASH)
	case '!':
		if s.match('=') {
			return s.make(token.BANG_EQUAL)
		}
		return s.make(token.BANG)
	case '=':
		if s.match('=') {
			return s.make(token.EQUAL_EQUAL)
		}
		return s.make(token.EQUAL)
	case '<':
		if s.match('=') {
			return s.make(token.LESS_EQUAL)
		}
		return s.make(token.LESS)
	case '>':
		if s.match('=') {
			return s.make(token.GREATER_EQUAL)
		}
		return s.make(token.GREATER)
	case '"':
		return s.string()
	}

	s.errorf("unexpected character '%c'", c)
	return s.make(token.ILLEGAL)
}

func (s *Scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.cur++
		case '\n':
			s.line++
			s.cur++
		case '/':
			if s.peekNext() == '/' {
				for !s.atEnd() && s.peek() != '\n' {
					s.cur++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.cur++
	}
	lexeme := string(s.src[s.start:s.cur])
	if kind, ok := token.Keywords[lexeme]; ok {
		return s.make(kind)
	}
	return s.make(token.IDENT)
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.cur++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.cur++ // consume the '.'
		for isDigit(s.peek()) {
			s.cur++
		}
	}
	lexeme := string(s.src[s.start:s.cur])
	f, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		s.errorf("invalid number literal %q", lexeme)
	}
	tok := s.make(token.NUMBER)
	tok.Number = f
	return tok
}

func (s *Scanner) string() token.Token {
	startLine := s.line
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.cur++
	}
	if s.atEnd() {
		s.line = startLine
		s.errorf("unterminated string")
		return s.make(token.ILLEGAL)
	}
	literal := string(s.src[s.start+1 : s.cur])
	s.cur++ // closing quote
	tok := s.make(token.STRING)
	tok.Literal = literal
	return tok
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: string(s.src[s.start:s.cur]),
		Line:   s.line,
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
