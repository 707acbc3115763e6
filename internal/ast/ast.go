// Package ast defines the Forge abstract syntax tree (spec §3.2).
package ast

import (
	"bytes"
	"strings"

	"github.com/forgelang/forge/internal/token"
)

// Node is any AST node.
type Node interface {
	TokenLiteral() string
	String() string
	Span() token.Position
}

// Statement is a Node that appears in a statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: a sequence of top-level statements.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}
func (p *Program) Span() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Span()
	}
	return token.Position{}
}
func (p *Program) String() string {
	var b bytes.Buffer
	for _, s := range p.Statements {
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	return b.String()
}

// ---- identifiers & patterns ----

type Identifier struct {
	Tok   token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Tok.Literal }
func (i *Identifier) Span() token.Position { return i.Tok.Pos }
func (i *Identifier) String() string       { return i.Value }

// Pattern is used in match arms and destructuring.
type Pattern interface {
	Node
	patternNode()
}

// WildcardPattern matches anything and binds nothing ("_").
type WildcardPattern struct{ Tok token.Token }

func (p *WildcardPattern) patternNode()        {}
func (p *WildcardPattern) TokenLiteral() string { return "_" }
func (p *WildcardPattern) Span() token.Position { return p.Tok.Pos }
func (p *WildcardPattern) String() string       { return "_" }

// BindPattern binds the matched value to Name.
type BindPattern struct {
	Tok  token.Token
	Name string
}

func (p *BindPattern) patternNode()        {}
func (p *BindPattern) TokenLiteral() string { return p.Name }
func (p *BindPattern) Span() token.Position { return p.Tok.Pos }
func (p *BindPattern) String() string       { return p.Name }

// LiteralPattern matches an exact literal expression.
type LiteralPattern struct {
	Tok   token.Token
	Value Expression
}

func (p *LiteralPattern) patternNode()        {}
func (p *LiteralPattern) TokenLiteral() string { return p.Tok.Literal }
func (p *LiteralPattern) Span() token.Position { return p.Tok.Pos }
func (p *LiteralPattern) String() string       { return p.Value.String() }

// ConstructorPattern matches a tagged variant: Name(sub0, sub1, ...).
type ConstructorPattern struct {
	Tok     token.Token
	Name    string
	Fields  []Pattern
}

func (p *ConstructorPattern) patternNode()        {}
func (p *ConstructorPattern) TokenLiteral() string { return p.Name }
func (p *ConstructorPattern) Span() token.Position { return p.Tok.Pos }
func (p *ConstructorPattern) String() string {
	parts := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		parts[i] = f.String()
	}
	return p.Name + "(" + strings.Join(parts, ", ") + ")"
}

// DestructurePattern is an object/array destructuring target used in Let.
type DestructurePattern struct {
	Tok      token.Token
	IsArray  bool
	Names    []string // for object form, the field names (or aliases)
	Rest     string   // non-empty if a "...rest" binding is present
	HasRest  bool
}

func (p *DestructurePattern) patternNode()        {}
func (p *DestructurePattern) TokenLiteral() string { return p.Tok.Literal }
func (p *DestructurePattern) Span() token.Position { return p.Tok.Pos }
func (p *DestructurePattern) String() string {
	if p.IsArray {
		return "[" + strings.Join(p.Names, ", ") + "]"
	}
	return "{" + strings.Join(p.Names, ", ") + "}"
}
