package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evie-lang/evie/lang/scanner"
	"github.com/evie-lang/evie/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, []string) {
	t.Helper()
	var errs []string
	s := scanner.New(src, func(line int, msg string) {
		errs = append(errs, msg)
	})
	var toks []token.Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, errs
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks, errs := scanAll(t, "(){},.-+;*/! != = == < <= > >=")
	require.Empty(t, errs)
	want := []token.Kind{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.SEMICOLON, token.STAR,
		token.SLASH, token.BANG, token.BANG_EQUAL, token.EQUAL, token.EQUAL_EQUAL,
		token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		assert.Equal(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks, errs := scanAll(t, "var x = foo_bar; fun init class this")
	require.Empty(t, errs)
	assert.Equal(t, token.VAR, toks[0].Kind)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, "x", toks[1].Lexeme)
	assert.Equal(t, token.EQUAL, toks[2].Kind)
	assert.Equal(t, token.IDENT, toks[3].Kind)
	assert.Equal(t, "foo_bar", toks[3].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks, errs := scanAll(t, "123 3.14 0.5")
	require.Empty(t, errs)
	assert.Equal(t, 123.0, toks[0].Number)
	assert.Equal(t, 3.14, toks[1].Number)
	assert.Equal(t, 0.5, toks[2].Number)
}

func TestScanString(t *testing.T) {
	toks, errs := scanAll(t, `"hello world"`)
	require.Empty(t, errs)
	require.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "hello world", toks[0].Literal)
}

func TestScanUnterminatedString(t *testing.T) {
	toks, errs := scanAll(t, `"hello`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unterminated string")
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanLineTracking(t *testing.T) {
	toks, _ := scanAll(t, "var a = 1;\nvar b = 2;")
	assert.Equal(t, 1, toks[0].Line)
	// 'var b' is on line 2
	var foundB bool
	for _, tok := range toks {
		if tok.Kind == token.IDENT && tok.Lexeme == "b" {
			assert.Equal(t, 2, tok.Line)
			foundB = true
		}
	}
	assert.True(t, foundB)
}

func TestScanComments(t *testing.T) {
	toks, errs := scanAll(t, "// a comment\nvar a = 1; // trailing")
	require.Empty(t, errs)
	assert.Equal(t, token.VAR, toks[0].Kind)
}

func TestScanIllegalCharacter(t *testing.T) {
	toks, errs := scanAll(t, "var a = @;")
	require.Len(t, errs, 1)
	assert.Equal(t, token.ILLEGAL, toks[3].Kind)
}
