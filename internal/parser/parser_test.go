package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelang/forge/internal/ast"
)

func TestParseLetStatement(t *testing.T) {
	prog, err := Parse(`let x = 1 + 2`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	let, ok := prog.Statements[0].(*ast.LetStatement)
	require.True(t, ok)
	assert.Equal(t, "x", let.Name)
	assert.False(t, let.Mutable)
}

func TestParseFunctionDefinition(t *testing.T) {
	prog, err := Parse(`fn add(a, b) { return a + b }`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	fn, ok := prog.Statements[0].(*ast.FunctionDefinition)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
}

func TestParseIfElse(t *testing.T) {
	prog, err := Parse(`if x > 0 { say "pos" } else { say "neg" }`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	_, ok := prog.Statements[0].(*ast.IfStatement)
	assert.True(t, ok)
}

func TestParseLambda(t *testing.T) {
	prog, err := Parse(`let double = (n) => n * 2`)
	require.NoError(t, err)
	let := prog.Statements[0].(*ast.LetStatement)
	_, ok := let.Value.(*ast.LambdaExpr)
	assert.True(t, ok)
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	_, err := Parse(`let = 5`)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
}
