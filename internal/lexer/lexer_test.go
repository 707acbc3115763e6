package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelang/forge/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeBasicExpression(t *testing.T) {
	toks, err := Tokenize(`let x = 1 + 2`)
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{token.Let, token.Ident, token.Assign, token.Int, token.Plus, token.Int, token.Eof}, kinds(toks))
}

func TestTokenizeKeywordsAndOperators(t *testing.T) {
	toks, err := Tokenize(`fn add(a, b) { return a |> b }`)
	require.NoError(t, err)
	got := kinds(toks)
	assert.Equal(t, token.Fn, got[0])
	assert.Contains(t, got, token.Pipe)
	assert.Contains(t, got, token.Return)
}

func TestTokenizeString(t *testing.T) {
	toks, err := Tokenize(`say "hello world"`)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, token.Say, toks[0].Kind)
	assert.Equal(t, token.String, toks[1].Kind)
	assert.Equal(t, "hello world", toks[1].Literal)
}

func TestTokenizeUnterminatedStringIsError(t *testing.T) {
	_, err := Tokenize(`"unterminated`)
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
}

func TestTokenizeFloat(t *testing.T) {
	toks, err := Tokenize(`3.14`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, token.Float, toks[0].Kind)
	assert.Equal(t, "3.14", toks[0].Literal)
}
