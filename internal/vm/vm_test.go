package vm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelang/forge/internal/compiler"
	"github.com/forgelang/forge/internal/parser"
	"github.com/forgelang/forge/internal/vm"
)

func run(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	chunk, err := compiler.Compile(prog)
	require.NoError(t, err)

	m := vm.New()
	var out []string
	m.SetStdout(func(s string) { out = append(out, s) })

	proto := m.Load(chunk)
	_, err = m.Run(proto)
	require.NoError(t, err)
	return strings.Join(out, "\n")
}

func TestRunArithmetic(t *testing.T) {
	assert.Equal(t, "5", run(t, `say 2 + 3`))
}

func TestRunIntOverflowPromotesToFloat(t *testing.T) {
	out := run(t, `say 9223372036854775807 + 1`)
	assert.Contains(t, out, "e+18")
}

func TestRunOkErr(t *testing.T) {
	out := run(t, `
fn safe_div(a, b) {
  if b == 0 { return Err("divide by zero") }
  return Ok(a / b)
}
say safe_div(10, 2)
say safe_div(5, 0)
`)
	assert.Equal(t, "Ok(5)\nErr(divide by zero)", out)
}

func TestRunMapFilterReduce(t *testing.T) {
	out := run(t, `
let nums = [1, 2, 3, 4, 5, 6]
let evens = filter(nums, (n) => n % 2 == 0)
let doubled = map(evens, (n) => n * 2)
say reduce(doubled, (acc, n) => acc + n, 0)
`)
	assert.Equal(t, "24", out)
}

func TestRunClosureCapture(t *testing.T) {
	out := run(t, `
fn make_adder(n) {
  return (x) => x + n
}
let add5 = make_adder(5)
say add5(10)
`)
	assert.Equal(t, "15", out)
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	prog, err := parser.Parse(`say 1 / 0`)
	require.NoError(t, err)
	chunk, err := compiler.Compile(prog)
	require.NoError(t, err)
	m := vm.New()
	proto := m.Load(chunk)
	_, err = m.Run(proto)
	require.Error(t, err)
	var rerr *vm.RuntimeError
	require.ErrorAs(t, err, &rerr)
}
