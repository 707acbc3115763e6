package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgelang/forge/internal/token"
)

func TestProgramString(t *testing.T) {
	prog := &Program{Statements: []Statement{
		&ExpressionStatement{Tok: token.Token{}, Expr: &IntegerLiteral{Tok: token.Token{Literal: "1"}, Value: 1}},
		&ExpressionStatement{Tok: token.Token{}, Expr: &IntegerLiteral{Tok: token.Token{Literal: "2"}, Value: 2}},
	}}
	assert.Contains(t, prog.String(), "1")
	assert.Contains(t, prog.String(), "2")
}

func TestInfixExprString(t *testing.T) {
	e := &InfixExpr{
		Left:     &IntegerLiteral{Tok: token.Token{Literal: "1"}, Value: 1},
		Operator: "+",
		Right:    &IntegerLiteral{Tok: token.Token{Literal: "2"}, Value: 2},
	}
	assert.Equal(t, "(1 + 2)", e.String())
}

func TestPipeExprString(t *testing.T) {
	e := &PipeExpr{
		Value: &Identifier{Value: "nums"},
		Func:  &Identifier{Value: "sum"},
	}
	assert.Equal(t, "nums |> sum", e.String())
}

func TestConstructorPatternString(t *testing.T) {
	p := &ConstructorPattern{Name: "Some", Fields: []Pattern{&BindPattern{Name: "x"}}}
	assert.Equal(t, "Some(x)", p.String())
}
