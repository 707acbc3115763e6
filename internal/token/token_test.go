package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	assert.Equal(t, Fn, LookupIdent("fn"))
	assert.Equal(t, Let, LookupIdent("let"))
	assert.Equal(t, Match, LookupIdent("match"))
	assert.Equal(t, Ident, LookupIdent("whatever"))
	assert.Equal(t, Ident, LookupIdent("say2"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "fn", Fn.String())
	assert.Equal(t, "|>", Pipe.String())
	assert.Contains(t, Kind(-1).String(), "Kind(")
}

func TestPositionString(t *testing.T) {
	p := Position{Line: 3, Col: 7, Offset: 42, Len: 1}
	assert.Equal(t, "3:7", p.String())
}

func TestTokenString(t *testing.T) {
	tok := Token{Kind: Ident, Literal: "add", Pos: Position{Line: 1, Col: 1}}
	assert.Equal(t, `IDENT("add")@1:1`, tok.String())
}
