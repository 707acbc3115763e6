// Package decorator implements the decorator-extraction boundary (spec
// §4.6): it rewrites a decorated function's body into the equivalent
// explicit retry/timeout/safe block so the compiler never needs dedicated
// opcodes for `@retry`/`@timeout`/`@safe` — they desugar to the same
// bytecode as a hand-written block (internal/compiler's
// compileRetryInto/compileTimeoutInto/compileSafeBlockInto).
package decorator

import (
	"fmt"

	"github.com/forgelang/forge/internal/ast"
)

// Apply folds fn.Decorators into fn.Body, innermost decorator first (the
// decorator closest to `fn` wraps the original body; earlier ones wrap
// that result), and returns the rewritten body. A function with no
// decorators gets its body back unchanged.
func Apply(fn *ast.FunctionDefinition) (*ast.BlockStatement, error) {
	body := fn.Body
	for i := len(fn.Decorators) - 1; i >= 0; i-- {
		d := fn.Decorators[i]
		wrapped, err := wrap(d, body)
		if err != nil {
			return nil, err
		}
		body = wrapped
	}
	return body, nil
}

func wrap(d *ast.Decorator, body *ast.BlockStatement) (*ast.BlockStatement, error) {
	switch d.Name {
	case "retry":
		if len(d.Args) != 1 {
			return nil, fmt.Errorf("@retry expects a single attempt-count argument, got %d", len(d.Args))
		}
		return single(&ast.RetryBlockStatement{Tok: d.Tok, Count: d.Args[0], Body: body}), nil
	case "timeout":
		if len(d.Args) != 1 {
			return nil, fmt.Errorf("@timeout expects a single duration argument, got %d", len(d.Args))
		}
		return single(&ast.TimeoutBlockStatement{Tok: d.Tok, Duration: d.Args[0], Body: body}), nil
	case "safe":
		return single(&ast.SafeBlockStatement{Tok: d.Tok, Body: body}), nil
	default:
		// Unknown decorators are metadata the compiler doesn't act on
		// (e.g. documentation-only tags); leave the body untouched.
		return body, nil
	}
}

func single(stmt ast.Statement) *ast.BlockStatement {
	return &ast.BlockStatement{Statements: []ast.Statement{stmt}}
}
