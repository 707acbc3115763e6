package decorator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelang/forge/internal/ast"
	"github.com/forgelang/forge/internal/parser"
)

func fnDef(t *testing.T, src string) *ast.FunctionDefinition {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	fn, ok := prog.Statements[0].(*ast.FunctionDefinition)
	require.True(t, ok)
	return fn
}

func TestApplyNoDecoratorsReturnsOriginalBody(t *testing.T) {
	fn := fnDef(t, `fn f() { return 1 }`)
	body, err := Apply(fn)
	require.NoError(t, err)
	assert.Same(t, fn.Body, body)
}

func TestApplyRetryWrapsBody(t *testing.T) {
	fn := fnDef(t, `@retry(3) fn f() { return 1 }`)
	body, err := Apply(fn)
	require.NoError(t, err)
	require.Len(t, body.Statements, 1)
	retry, ok := body.Statements[0].(*ast.RetryBlockStatement)
	require.True(t, ok)
	assert.Same(t, fn.Body, retry.Body)
}

func TestApplyTimeoutWrapsBody(t *testing.T) {
	fn := fnDef(t, `@timeout(100) fn f() { return 1 }`)
	body, err := Apply(fn)
	require.NoError(t, err)
	require.Len(t, body.Statements, 1)
	_, ok := body.Statements[0].(*ast.TimeoutBlockStatement)
	assert.True(t, ok)
}

func TestApplySafeWrapsBody(t *testing.T) {
	fn := fnDef(t, `@safe fn f() { return 1 }`)
	body, err := Apply(fn)
	require.NoError(t, err)
	require.Len(t, body.Statements, 1)
	_, ok := body.Statements[0].(*ast.SafeBlockStatement)
	assert.True(t, ok)
}

func TestApplyStackedDecoratorsWrapInnermostFirst(t *testing.T) {
	fn := fnDef(t, `@timeout(100) @retry(3) fn f() { return 1 }`)
	body, err := Apply(fn)
	require.NoError(t, err)
	require.Len(t, body.Statements, 1)
	outer, ok := body.Statements[0].(*ast.TimeoutBlockStatement)
	require.True(t, ok)
	require.Len(t, outer.Body.Statements, 1)
	inner, ok := outer.Body.Statements[0].(*ast.RetryBlockStatement)
	require.True(t, ok)
	assert.Same(t, fn.Body, inner.Body)
}

func TestApplyRetryRequiresSingleArg(t *testing.T) {
	fn := fnDef(t, `@retry() fn f() { return 1 }`)
	_, err := Apply(fn)
	assert.Error(t, err)
}

func TestApplyUnknownDecoratorLeavesBodyUnchanged(t *testing.T) {
	fn := fnDef(t, `@deprecated fn f() { return 1 }`)
	body, err := Apply(fn)
	require.NoError(t, err)
	assert.Same(t, fn.Body, body)
}
