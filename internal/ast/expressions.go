package ast

import (
	"bytes"
	"strings"

	"github.com/forgelang/forge/internal/token"
)

type IntegerLiteral struct {
	Tok   token.Token
	Value int64
}

func (e *IntegerLiteral) expressionNode()      {}
func (e *IntegerLiteral) TokenLiteral() string { return e.Tok.Literal }
func (e *IntegerLiteral) Span() token.Position { return e.Tok.Pos }
func (e *IntegerLiteral) String() string       { return e.Tok.Literal }

type FloatLiteral struct {
	Tok   token.Token
	Value float64
}

func (e *FloatLiteral) expressionNode()      {}
func (e *FloatLiteral) TokenLiteral() string { return e.Tok.Literal }
func (e *FloatLiteral) Span() token.Position { return e.Tok.Pos }
func (e *FloatLiteral) String() string       { return e.Tok.Literal }

type BooleanLiteral struct {
	Tok   token.Token
	Value bool
}

func (e *BooleanLiteral) expressionNode()      {}
func (e *BooleanLiteral) TokenLiteral() string { return e.Tok.Literal }
func (e *BooleanLiteral) Span() token.Position { return e.Tok.Pos }
func (e *BooleanLiteral) String() string       { return e.Tok.Literal }

type NullLiteral struct{ Tok token.Token }

func (e *NullLiteral) expressionNode()      {}
func (e *NullLiteral) TokenLiteral() string { return "null" }
func (e *NullLiteral) Span() token.Position { return e.Tok.Pos }
func (e *NullLiteral) String() string       { return "null" }

// StringLiteral is a plain (non-interpolated) string.
type StringLiteral struct {
	Tok   token.Token
	Value string
	Raw   bool
}

func (e *StringLiteral) expressionNode()      {}
func (e *StringLiteral) TokenLiteral() string { return e.Tok.Literal }
func (e *StringLiteral) Span() token.Position { return e.Tok.Pos }
func (e *StringLiteral) String() string       { return `"` + e.Value + `"` }

// InterpolatedString is a list of literal and expression parts:
// "answer = {a + b}" -> [Lit("answer = "), Expr(a+b)].
type InterpolatedString struct {
	Tok   token.Token
	Parts []InterpPart
}

type InterpPart struct {
	Lit  string
	Expr Expression // nil when this part is a literal
}

func (e *InterpolatedString) expressionNode()      {}
func (e *InterpolatedString) TokenLiteral() string { return e.Tok.Literal }
func (e *InterpolatedString) Span() token.Position { return e.Tok.Pos }
func (e *InterpolatedString) String() string {
	var b bytes.Buffer
	b.WriteByte('"')
	for _, p := range e.Parts {
		if p.Expr != nil {
			b.WriteByte('{')
			b.WriteString(p.Expr.String())
			b.WriteByte('}')
		} else {
			b.WriteString(p.Lit)
		}
	}
	b.WriteByte('"')
	return b.String()
}

type ArrayLiteral struct {
	Tok      token.Token
	Elements []Expression
}

func (e *ArrayLiteral) expressionNode()      {}
func (e *ArrayLiteral) TokenLiteral() string { return e.Tok.Literal }
func (e *ArrayLiteral) Span() token.Position { return e.Tok.Pos }
func (e *ArrayLiteral) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type ObjectPair struct {
	Key   Expression
	Value Expression
}

type ObjectLiteral struct {
	Tok   token.Token
	Pairs []ObjectPair
}

func (e *ObjectLiteral) expressionNode()      {}
func (e *ObjectLiteral) TokenLiteral() string { return e.Tok.Literal }
func (e *ObjectLiteral) Span() token.Position { return e.Tok.Pos }
func (e *ObjectLiteral) String() string {
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = p.Key.String() + ": " + p.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// StructLiteral is `Name { field: value, ... }` (spec §4.3.5): an object
// literal plus a synthetic __type__ field, only valid when Name is
// capitalised.
type StructLiteral struct {
	Tok   token.Token
	Name  string
	Pairs []ObjectPair
}

func (e *StructLiteral) expressionNode()      {}
func (e *StructLiteral) TokenLiteral() string { return e.Name }
func (e *StructLiteral) Span() token.Position { return e.Tok.Pos }
func (e *StructLiteral) String() string {
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = p.Key.String() + ": " + p.Value.String()
	}
	return e.Name + " {" + strings.Join(parts, ", ") + "}"
}

type PrefixExpr struct {
	Tok      token.Token
	Operator string
	Right    Expression
}

func (e *PrefixExpr) expressionNode()      {}
func (e *PrefixExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *PrefixExpr) Span() token.Position { return e.Tok.Pos }
func (e *PrefixExpr) String() string       { return "(" + e.Operator + e.Right.String() + ")" }

type InfixExpr struct {
	Tok      token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (e *InfixExpr) expressionNode()      {}
func (e *InfixExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *InfixExpr) Span() token.Position { return e.Tok.Pos }
func (e *InfixExpr) String() string {
	return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
}

// PipeExpr is `value |> function`, equivalent to function(value).
type PipeExpr struct {
	Tok   token.Token
	Value Expression
	Func  Expression
}

func (e *PipeExpr) expressionNode()      {}
func (e *PipeExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *PipeExpr) Span() token.Position { return e.Tok.Pos }
func (e *PipeExpr) String() string       { return e.Value.String() + " |> " + e.Func.String() }

// TryExpr is `expr?` (spec §4.4.2's Try opcode).
type TryExpr struct {
	Tok      token.Token
	Value    Expression
}

func (e *TryExpr) expressionNode()      {}
func (e *TryExpr) TokenLiteral() string { return "?" }
func (e *TryExpr) Span() token.Position { return e.Tok.Pos }
func (e *TryExpr) String() string       { return e.Value.String() + "?" }

type FieldAccessExpr struct {
	Tok    token.Token
	Object Expression
	Field  string
}

func (e *FieldAccessExpr) expressionNode()      {}
func (e *FieldAccessExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *FieldAccessExpr) Span() token.Position { return e.Tok.Pos }
func (e *FieldAccessExpr) String() string       { return e.Object.String() + "." + e.Field }

type IndexExpr struct {
	Tok   token.Token
	Left  Expression
	Index Expression
}

func (e *IndexExpr) expressionNode()      {}
func (e *IndexExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *IndexExpr) Span() token.Position { return e.Tok.Pos }
func (e *IndexExpr) String() string       { return e.Left.String() + "[" + e.Index.String() + "]" }

type CallExpr struct {
	Tok      token.Token
	Function Expression
	Args     []Expression
}

func (e *CallExpr) expressionNode()      {}
func (e *CallExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *CallExpr) Span() token.Position { return e.Tok.Pos }
func (e *CallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Function.String() + "(" + strings.Join(parts, ", ") + ")"
}

// MethodCallExpr `obj.method(args)` desugars at compile time to a free
// function call with the receiver prepended (spec §3.2).
type MethodCallExpr struct {
	Tok      token.Token
	Receiver Expression
	Method   string
	Args     []Expression
}

func (e *MethodCallExpr) expressionNode()      {}
func (e *MethodCallExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *MethodCallExpr) Span() token.Position { return e.Tok.Pos }
func (e *MethodCallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Receiver.String() + "." + e.Method + "(" + strings.Join(parts, ", ") + ")"
}

type Param struct {
	Name     string
	TypeAnn  string
	Default  Expression
}

type LambdaExpr struct {
	Tok    token.Token
	Params []Param
	Body   *BlockStatement
}

func (e *LambdaExpr) expressionNode()      {}
func (e *LambdaExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *LambdaExpr) Span() token.Position { return e.Tok.Pos }
func (e *LambdaExpr) String() string {
	parts := make([]string, len(e.Params))
	for i, p := range e.Params {
		parts[i] = p.Name
	}
	return "fn(" + strings.Join(parts, ", ") + ") " + e.Body.String()
}

// BlockExpr is a `{ ... }` used in expression position; its value is the
// value of its last expression statement.
type BlockExpr struct {
	Tok   token.Token
	Block *BlockStatement
}

func (e *BlockExpr) expressionNode()      {}
func (e *BlockExpr) TokenLiteral() string { return e.Tok.Literal }
func (e *BlockExpr) Span() token.Position { return e.Tok.Pos }
func (e *BlockExpr) String() string       { return e.Block.String() }

type Decorator struct {
	Tok  token.Token
	Name string
	Args []Expression
	Kwargs map[string]Expression
}

func (d *Decorator) TokenLiteral() string { return d.Name }
func (d *Decorator) Span() token.Position { return d.Tok.Pos }
func (d *Decorator) String() string {
	return "@" + d.Name
}
