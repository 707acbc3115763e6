package parser

import (
	"github.com/forgelang/forge/internal/ast"
	"github.com/forgelang/forge/internal/lexer"
	"github.com/forgelang/forge/internal/token"
)

func (p *Parser) parseExpression(prec int) (ast.Expression, error) {
	fn, ok := p.prefixFns[p.cur().Kind]
	if !ok {
		return nil, p.errorf("unexpected token %s (%q) in expression", p.cur().Kind, p.cur().Literal)
	}
	left, err := fn()
	if err != nil {
		return nil, err
	}
	for !p.at(token.Semicolon) && prec < p.curPrecedence() {
		infix, ok := p.infixFns[p.cur().Kind]
		if !ok {
			return left, nil
		}
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseInteger() (ast.Expression, error) {
	tok := p.advance()
	v, err := parseIntLiteral(tok.Literal, tok.Pos)
	if err != nil {
		return nil, err
	}
	return &ast.IntegerLiteral{Tok: tok, Value: v}, nil
}

func (p *Parser) parseFloat() (ast.Expression, error) {
	tok := p.advance()
	v, err := parseFloatLiteral(tok.Literal, tok.Pos)
	if err != nil {
		return nil, err
	}
	return &ast.FloatLiteral{Tok: tok, Value: v}, nil
}

func (p *Parser) parseBool() (ast.Expression, error) {
	tok := p.advance()
	return &ast.BooleanLiteral{Tok: tok, Value: tok.Kind == token.True}, nil
}

func (p *Parser) parseNull() (ast.Expression, error) {
	return &ast.NullLiteral{Tok: p.advance()}, nil
}

// parseString splits a lexed string literal on `{ expr }` interpolation
// markers (spec §4.1: the lexer preserves them literally; the parser
// re-scans). A plain StringLiteral is returned when there are no markers.
func (p *Parser) parseString() (ast.Expression, error) {
	tok := p.advance()
	lit := unquoteEscapes(tok.Literal)
	parts, hasInterp, err := splitInterpolation(lit, tok.Pos)
	if err != nil {
		return nil, err
	}
	if !hasInterp {
		return &ast.StringLiteral{Tok: tok, Value: lit}, nil
	}
	return &ast.InterpolatedString{Tok: tok, Parts: parts}, nil
}

func splitInterpolation(lit string, pos token.Position) ([]ast.InterpPart, bool, error) {
	var parts []ast.InterpPart
	var buf []byte
	hasInterp := false
	i := 0
	for i < len(lit) {
		ch := lit[i]
		if ch == '{' {
			depth := 1
			j := i + 1
			for j < len(lit) && depth > 0 {
				if lit[j] == '{' {
					depth++
				} else if lit[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			if j >= len(lit) {
				return nil, false, &Error{Message: "unterminated interpolation", Line: pos.Line, Col: pos.Col}
			}
			if len(buf) > 0 {
				parts = append(parts, ast.InterpPart{Lit: string(buf)})
				buf = nil
			}
			inner := lit[i+1 : j]
			sub, err := Parse2Expression(inner)
			if err != nil {
				return nil, false, err
			}
			parts = append(parts, ast.InterpPart{Expr: sub})
			hasInterp = true
			i = j + 1
			continue
		}
		buf = append(buf, ch)
		i++
	}
	if len(buf) > 0 {
		parts = append(parts, ast.InterpPart{Lit: string(buf)})
	}
	return parts, hasInterp, nil
}

// Parse2Expression parses a standalone expression string, used to re-scan
// an interpolation body pulled out of a string literal.
func Parse2Expression(src string) (ast.Expression, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := New(toks)
	return p.parseExpression(lowest)
}

func (p *Parser) parseRawString() (ast.Expression, error) {
	tok := p.advance()
	return &ast.StringLiteral{Tok: tok, Value: tok.Literal, Raw: true}, nil
}

func (p *Parser) parseIdentifier() (ast.Expression, error) {
	tok := p.advance()
	if p.at(token.LBrace) && isUpper(tok.Literal) {
		return p.parseStructLiteral(tok)
	}
	return &ast.Identifier{Tok: tok, Value: tok.Literal}, nil
}

func isUpper(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z'
}

func (p *Parser) parsePrefix() (ast.Expression, error) {
	tok := p.advance()
	right, err := p.parseExpression(prefixPrec)
	if err != nil {
		return nil, err
	}
	return &ast.PrefixExpr{Tok: tok, Operator: tok.Literal, Right: right}, nil
}

func (p *Parser) parseInfix(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	prec := precedences[tok.Kind]
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return &ast.InfixExpr{Tok: tok, Left: left, Operator: tok.Literal, Right: right}, nil
}

func (p *Parser) parsePipe(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	right, err := p.parseExpression(pipePrec)
	if err != nil {
		return nil, err
	}
	return &ast.PipeExpr{Tok: tok, Value: left, Func: right}, nil
}

func (p *Parser) parseTry(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	return &ast.TryExpr{Tok: tok, Value: left}, nil
}

func (p *Parser) parseDotAccessOrMethodCall(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if p.at(token.LParen) {
		p.advance()
		args, err := p.parseExpressionList(token.RParen)
		if err != nil {
			return nil, err
		}
		return &ast.MethodCallExpr{Tok: tok, Receiver: left, Method: nameTok.Literal, Args: args}, nil
	}
	return &ast.FieldAccessExpr{Tok: tok, Object: left, Field: nameTok.Literal}, nil
}

func (p *Parser) parseIndex(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	idx, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	return &ast.IndexExpr{Tok: tok, Left: left, Index: idx}, nil
}

func (p *Parser) parseCall(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	args, err := p.parseExpressionList(token.RParen)
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{Tok: tok, Function: left, Args: args}, nil
}

func (p *Parser) parseExpressionList(end token.Kind) ([]ast.Expression, error) {
	var list []ast.Expression
	if p.at(end) {
		p.advance()
		return list, nil
	}
	e, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	list = append(list, e)
	for p.at(token.Comma) {
		p.advance()
		e, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if _, err := p.expect(end); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	tok := p.advance()
	elems, err := p.parseExpressionList(token.RBracket)
	if err != nil {
		return nil, err
	}
	return &ast.ArrayLiteral{Tok: tok, Elements: elems}, nil
}

// parseObjectOrBlockExpr disambiguates `{ ident: ... }` / `{ "str": ... }`
// (object literal) from a plain block expression (spec §4.2).
func (p *Parser) parseObjectOrBlockExpr() (ast.Expression, error) {
	tok := p.cur()
	looksLikeObject := (p.peek().Kind == token.Ident || p.peek().Kind == token.String) &&
		p.pos+2 < len(p.toks) && p.toks[p.pos+2].Kind == token.Colon
	if looksLikeObject || p.peek().Kind == token.RBrace {
		return p.parseObjectLiteral()
	}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.BlockExpr{Tok: tok, Block: block}, nil
}

func (p *Parser) parseObjectLiteral() (ast.Expression, error) {
	tok, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	obj := &ast.ObjectLiteral{Tok: tok}
	for !p.at(token.RBrace) {
		var key ast.Expression
		if p.at(token.String) {
			key, err = p.parseString()
		} else {
			kt, e := p.expect(token.Ident)
			if e != nil {
				return nil, e
			}
			key = &ast.StringLiteral{Tok: kt, Value: kt.Literal}
		}
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		obj.Pairs = append(obj.Pairs, ast.ObjectPair{Key: key, Value: val})
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return obj, nil
}

// parseStructLiteral parses `Name { field: value, ... }`. Called from
// parseIdentifier when Name starts uppercase and is followed by
// `{` (spec §4.2: struct-init syntax requires an uppercase identifier).
func (p *Parser) parseStructLiteral(nameTok token.Token) (ast.Expression, error) {
	lit, err := p.parseObjectLiteral()
	if err != nil {
		return nil, err
	}
	obj := lit.(*ast.ObjectLiteral)
	return &ast.StructLiteral{Tok: nameTok, Name: nameTok.Literal, Pairs: obj.Pairs}, nil
}

func (p *Parser) parseGroupedOrLambda() (ast.Expression, error) {
	// Try lambda `(a, b) => expr` by lookahead: scan to matching RParen and
	// check for `=>` immediately after.
	if p.looksLikeLambdaParams() {
		return p.parseArrowLambda()
	}
	p.advance() // (
	e, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) looksLikeLambdaParams() bool {
	depth := 0
	i := p.pos
	if p.toks[i].Kind != token.LParen {
		return false
	}
	for i < len(p.toks) {
		switch p.toks[i].Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].Kind == token.FatArrow
			}
		case token.Eof:
			return false
		}
		i++
	}
	return false
}

func (p *Parser) parseArrowLambda() (ast.Expression, error) {
	tok := p.advance() // (
	var params []ast.Param
	for !p.at(token.RParen) {
		nt, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: nt.Literal})
		if p.at(token.Comma) {
			p.advance()
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.FatArrow); err != nil {
		return nil, err
	}
	if p.at(token.LBrace) {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.LambdaExpr{Tok: tok, Params: params, Body: body}, nil
	}
	e, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	body := &ast.BlockStatement{Tok: tok, Statements: []ast.Statement{
		&ast.ExpressionStatement{Tok: tok, Expr: e},
	}}
	return &ast.LambdaExpr{Tok: tok, Params: params, Body: body}, nil
}

func (p *Parser) parseLambda() (ast.Expression, error) {
	tok := p.advance() // fn
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.LambdaExpr{Tok: tok, Params: params, Body: body}, nil
}

func (p *Parser) parseParamList() ([]ast.Param, error) {
	var params []ast.Param
	for !p.at(token.RParen) {
		nt, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		param := ast.Param{Name: nt.Literal}
		if p.at(token.Colon) {
			p.advance()
			tt, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			param.TypeAnn = tt.Literal
		}
		if p.at(token.Assign) {
			p.advance()
			def, err := p.parseExpression(lowest)
			if err != nil {
				return nil, err
			}
			param.Default = def
		}
		params = append(params, param)
		if p.at(token.Comma) {
			p.advance()
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return params, nil
}
