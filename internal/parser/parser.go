// Package parser implements Forge's recursive-descent statement parser and
// Pratt-style expression parser (spec §4.2), grounded on funvibe-funxy's
// internal/parser file split (expressions_*.go / statements_*.go) and
// precedence-table idiom.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forgelang/forge/internal/ast"
	"github.com/forgelang/forge/internal/lexer"
	"github.com/forgelang/forge/internal/token"
)

// Error is a ParseError per spec §7.
type Error struct {
	Message string
	Line    int
	Col     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Line, e.Col)
}

// precedence levels, low to high (spec §4.2).
const (
	_ int = iota
	lowest
	pipePrec
	orPrec
	andPrec
	equalsPrec
	comparePrec
	sumPrec
	productPrec
	prefixPrec
	postfixPrec
)

var precedences = map[token.Kind]int{
	token.Pipe:     pipePrec,
	token.OrOr:     orPrec,
	token.AndAnd:   andPrec,
	token.Eq:       equalsPrec,
	token.NotEq:    equalsPrec,
	token.Lt:       comparePrec,
	token.Gt:       comparePrec,
	token.LtEq:     comparePrec,
	token.GtEq:     comparePrec,
	token.Plus:     sumPrec,
	token.Minus:    sumPrec,
	token.Star:     productPrec,
	token.Slash:    productPrec,
	token.Percent:  productPrec,
	token.LParen:   postfixPrec,
	token.LBracket: postfixPrec,
	token.Dot:      postfixPrec,
	token.Question:  postfixPrec,
}

type (
	prefixParseFn func() (ast.Expression, error)
	infixParseFn  func(ast.Expression) (ast.Expression, error)
)

// Parser consumes a token slice produced by the lexer.
type Parser struct {
	toks []token.Token
	pos  int

	prefixFns map[token.Kind]prefixParseFn
	infixFns  map[token.Kind]infixParseFn
}

// Parse tokenizes and parses src into a *ast.Program.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := New(toks)
	return p.ParseProgram()
}

// New builds a Parser over a pre-scanned token slice.
func New(toks []token.Token) *Parser {
	p := &Parser{toks: toks}
	p.prefixFns = map[token.Kind]prefixParseFn{
		token.Int:       p.parseInteger,
		token.Float:     p.parseFloat,
		token.String:    p.parseString,
		token.RawString: p.parseRawString,
		token.True:      p.parseBool,
		token.False:     p.parseBool,
		token.Null:      p.parseNull,
		token.Ident:     p.parseIdentifier,
		token.Minus:     p.parsePrefix,
		token.Bang:      p.parsePrefix,
		token.Ellipsis:  p.parsePrefix,
		token.Must:      p.parsePrefix,
		token.Freeze:    p.parsePrefix,
		token.Await:     p.parsePrefix,
		token.Hold:      p.parsePrefix,
		token.LParen:    p.parseGroupedOrLambda,
		token.LBracket:  p.parseArrayLiteral,
		token.LBrace:    p.parseObjectOrBlockExpr,
		token.Fn:        p.parseLambda,
	}
	p.infixFns = map[token.Kind]infixParseFn{
		token.Plus: p.parseInfix, token.Minus: p.parseInfix,
		token.Star: p.parseInfix, token.Slash: p.parseInfix, token.Percent: p.parseInfix,
		token.Eq: p.parseInfix, token.NotEq: p.parseInfix,
		token.Lt: p.parseInfix, token.Gt: p.parseInfix, token.LtEq: p.parseInfix, token.GtEq: p.parseInfix,
		token.AndAnd: p.parseInfix, token.OrOr: p.parseInfix,
		token.Pipe:     p.parsePipe,
		token.LParen:   p.parseCall,
		token.LBracket: p.parseIndex,
		token.Dot:      p.parseDotAccessOrMethodCall,
		token.Question: p.parseTry,
	}
	return p
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}
func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, p.errorf("expected %s, got %s (%q)", k, p.cur().Kind, p.cur().Literal)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	pos := p.cur().Pos
	return &Error{Message: fmt.Sprintf(format, args...), Line: pos.Line, Col: pos.Col}
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur().Kind]; ok {
		return pr
	}
	return lowest
}

// ParseProgram parses every top-level statement until Eof.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.at(token.Eof) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog, nil
}

func (p *Parser) skipSemicolons() {
	for p.at(token.Semicolon) {
		p.advance()
	}
}

func (p *Parser) parseBlock() (*ast.BlockStatement, error) {
	tok, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	block := &ast.BlockStatement{Tok: tok}
	p.skipSemicolons()
	for !p.at(token.RBrace) && !p.at(token.Eof) {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if st != nil {
			block.Statements = append(block.Statements, st)
		}
		p.skipSemicolons()
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return block, nil
}

func unquoteEscapes(lit string) string {
	return strings.ReplaceAll(lit, "\\n", "\n")
}

func parseIntLiteral(lit string, pos token.Position) (int64, error) {
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, &Error{Message: fmt.Sprintf("invalid integer literal %q", lit), Line: pos.Line, Col: pos.Col}
	}
	return v, nil
}

func parseFloatLiteral(lit string, pos token.Position) (float64, error) {
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, &Error{Message: fmt.Sprintf("invalid float literal %q", lit), Line: pos.Line, Col: pos.Col}
	}
	return v, nil
}
