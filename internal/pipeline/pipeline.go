// Package pipeline chains Forge's lex/parse/compile stages behind a small
// Processor interface, the same shape funvibe-funxy's internal/pipeline
// uses to let cmd/lsp and pkg/cli share one frontend while stopping at
// different stages (an LSP only needs parse+analyze; a run only needs
// through compile).
package pipeline

import (
	"github.com/forgelang/forge/internal/ast"
	"github.com/forgelang/forge/internal/compiler"
	"github.com/forgelang/forge/internal/lexer"
	"github.com/forgelang/forge/internal/parser"
)

// Context carries a source file through the pipeline's stages. Each stage
// populates its own field and appends to Diagnostics on failure; later
// stages run only if the source survived the ones before (a nil Program
// short-circuits Compile, etc.) so a single run always reports every
// diagnostic a stage could produce, not just the first.
type Context struct {
	Filename    string
	Source      string
	Program     *ast.Program
	Chunk       *compiler.Chunk
	Diagnostics []error
}

// New builds a Context ready to run through Lex, Parse, and Compile.
func New(filename, source string) *Context {
	return &Context{Filename: filename, Source: source}
}

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline runs a fixed sequence of Processors over a Context.
type Pipeline struct {
	stages []Processor
}

// NewPipeline builds a Pipeline from stages, run in order.
func NewPipeline(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in order, continuing even after a stage adds a
// diagnostic so unrelated downstream stages (e.g. an LSP's hover support)
// still see as much of the tree as survived.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, stage := range p.stages {
		ctx = stage.Process(ctx)
	}
	return ctx
}

// ParseStage lexes and parses ctx.Source into ctx.Program.
type ParseStage struct{}

func (ParseStage) Process(ctx *Context) *Context {
	if _, err := lexer.Tokenize(ctx.Source); err != nil {
		ctx.Diagnostics = append(ctx.Diagnostics, err)
		return ctx
	}
	prog, err := parser.Parse(ctx.Source)
	if err != nil {
		ctx.Diagnostics = append(ctx.Diagnostics, err)
		return ctx
	}
	ctx.Program = prog
	return ctx
}

// CompileStage compiles ctx.Program into ctx.Chunk.
type CompileStage struct{}

func (CompileStage) Process(ctx *Context) *Context {
	if ctx.Program == nil {
		return ctx
	}
	chunk, err := compiler.Compile(ctx.Program)
	if err != nil {
		ctx.Diagnostics = append(ctx.Diagnostics, err)
		return ctx
	}
	ctx.Chunk = chunk
	return ctx
}

// Standard is the lex+parse+compile pipeline every Forge entry point runs.
func Standard() *Pipeline {
	return NewPipeline(ParseStage{}, CompileStage{})
}
