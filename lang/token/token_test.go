package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evie-lang/evie/lang/token"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "(", token.LEFT_PAREN.String())
	assert.Equal(t, "class", token.CLASS.String())
	assert.Equal(t, "eof", token.EOF.String())
}

func TestKeywords(t *testing.T) {
	for word, kind := range token.Keywords {
		assert.NotEqual(t, token.IDENT, kind, "keyword %q must not map to IDENT", word)
	}
	if _, ok := token.Keywords["print"]; !ok {
		t.Fatal("print must be a keyword")
	}
}

func TestTokenString(t *testing.T) {
	tok := token.Token{Kind: token.IDENT, Lexeme: "x", Line: 3}
	assert.Equal(t, "identifier 'x'", tok.String())

	tok = token.Token{Kind: token.EOF, Line: 3}
	assert.Equal(t, "eof", tok.String())
}
