package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelang/forge/internal/compiler"
	"github.com/forgelang/forge/internal/parser"
)

func compile(t *testing.T, src string) *compiler.Chunk {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	chunk, err := compiler.Compile(prog)
	require.NoError(t, err)
	return chunk
}

func TestCompileArithmeticProducesCode(t *testing.T) {
	chunk := compile(t, `let x = 1 + 2 * 3`)
	assert.NotEmpty(t, chunk.Code)
	assert.Equal(t, "<main>", chunk.Name)
}

func TestCompileConstantDeduplication(t *testing.T) {
	chunk := compile(t, `let a = "shared"
let b = "shared"`)
	count := 0
	for _, c := range chunk.Constants {
		if c.Kind == compiler.ConstString && c.S == "shared" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCompileNestedFunctionProducesChildChunk(t *testing.T) {
	chunk := compile(t, `fn outer() {
  fn inner() { return 1 }
  return inner()
}`)
	assert.NotEmpty(t, chunk.Prototypes)
}

func TestDisassembleDoesNotPanic(t *testing.T) {
	chunk := compile(t, `let x = 1
say x`)
	out := compiler.Disassemble(chunk)
	assert.NotEmpty(t, out)
}
