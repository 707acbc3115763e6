package parser

import (
	"github.com/forgelang/forge/internal/ast"
	"github.com/forgelang/forge/internal/token"
)

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Kind {
	case token.Let, token.Set:
		return p.parseLet()
	case token.Change:
		return p.parseChangeAssign()
	case token.Return:
		return p.parseReturn()
	case token.If:
		return p.parseIf()
	case token.Match:
		return p.parseMatch()
	case token.For:
		return p.parseFor()
	case token.While:
		return p.parseWhile()
	case token.Loop:
		return p.parseLoop()
	case token.Break:
		return &ast.BreakStatement{Tok: p.advance()}, nil
	case token.Continue:
		return &ast.ContinueStatement{Tok: p.advance()}, nil
	case token.Spawn:
		return p.parseSpawn()
	case token.Fn:
		return p.parseFunctionDefinition(nil)
	case token.Struct:
		return p.parseStructDefinition()
	case token.Type:
		return p.parseTypeDefinition()
	case token.Interface:
		return p.parseInterfaceDefinition()
	case token.Import:
		return p.parseImport()
	case token.At:
		return p.parseDecoratorStatement()
	case token.Try:
		return p.parseTryCatch()
	case token.When:
		return p.parseWhen()
	case token.Check:
		return p.parseCheck()
	case token.Safe:
		return p.parseSafeBlock()
	case token.Timeout:
		return p.parseTimeoutBlock()
	case token.Retry:
		return p.parseRetryBlock()
	case token.Schedule:
		return p.parseScheduleBlock()
	case token.Watch:
		return p.parseWatchBlock()
	case token.Repeat:
		return p.parseRepeat()
	case token.Grab:
		return p.parseGrab()
	case token.Say, token.Yell, token.Whisper:
		return p.parseSayStatement()
	case token.Download:
		return p.parseDownload()
	case token.Wait:
		return p.parseWait()
	case token.Semicolon:
		p.advance()
		return nil, nil
	default:
		return p.parseExpressionOrAssignStatement()
	}
}

func (p *Parser) parseLet() (ast.Statement, error) {
	tok := p.advance() // let | set
	mutable := tok.Kind == token.Set
	if p.at(token.Mut) {
		p.advance()
		mutable = true
	}
	if p.at(token.LBracket) || p.at(token.LBrace) {
		pat, err := p.parseDestructurePattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Assign); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		return &ast.DestructureStatement{Tok: tok, Pattern: pat, Value: val}, nil
	}
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	typeAnn := ""
	if p.at(token.Colon) {
		p.advance()
		tt, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		typeAnn = tt.Literal
	}
	assignKind := token.Assign
	if tok.Kind == token.Set {
		if _, err := p.expect(token.To); err != nil {
			return nil, err
		}
	} else {
		if _, err := p.expect(assignKind); err != nil {
			return nil, err
		}
	}
	val, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	return &ast.LetStatement{Tok: tok, Name: nameTok.Literal, Mutable: mutable, TypeAnn: typeAnn, Value: val}, nil
}

// parseChangeAssign handles natural-language `change x to v`.
func (p *Parser) parseChangeAssign() (ast.Statement, error) {
	tok := p.advance()
	target, err := p.parseExpression(postfixPrec + 1)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.To); err != nil {
		return nil, err
	}
	val, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	return &ast.AssignStatement{Tok: tok, Target: target, Operator: "=", Value: val}, nil
}

func (p *Parser) parseDestructurePattern() (*ast.DestructurePattern, error) {
	tok := p.cur()
	if p.at(token.LBracket) {
		p.advance()
		pat := &ast.DestructurePattern{Tok: tok, IsArray: true}
		for !p.at(token.RBracket) {
			if p.at(token.Ellipsis) {
				p.advance()
				nt, err := p.expect(token.Ident)
				if err != nil {
					return nil, err
				}
				pat.Rest = nt.Literal
				pat.HasRest = true
			} else {
				nt, err := p.expect(token.Ident)
				if err != nil {
					return nil, err
				}
				pat.Names = append(pat.Names, nt.Literal)
			}
			if p.at(token.Comma) {
				p.advance()
			}
		}
		_, err := p.expect(token.RBracket)
		return pat, err
	}
	p.advance() // {
	pat := &ast.DestructurePattern{Tok: tok, IsArray: false}
	for !p.at(token.RBrace) {
		if p.at(token.Ellipsis) {
			p.advance()
			nt, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			pat.Rest = nt.Literal
			pat.HasRest = true
		} else {
			nt, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			pat.Names = append(pat.Names, nt.Literal)
		}
		if p.at(token.Comma) {
			p.advance()
		}
	}
	_, err := p.expect(token.RBrace)
	return pat, err
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	tok := p.advance()
	if p.at(token.Semicolon) || p.at(token.RBrace) || p.at(token.Eof) {
		return &ast.ReturnStatement{Tok: tok}, nil
	}
	val, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Tok: tok, Value: val}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	tok := p.advance()
	cond, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	cons, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Tok: tok, Condition: cond, Consequence: cons}
	if p.at(token.Else) {
		p.advance()
		if p.at(token.If) {
			alt, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Alternative = alt
		} else {
			alt, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Alternative = alt
		}
	}
	return stmt, nil
}

func (p *Parser) parseMatch() (ast.Statement, error) {
	tok := p.advance()
	subject, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	m := &ast.MatchStatement{Tok: tok, Subject: subject}
	p.skipSemicolons()
	for !p.at(token.RBrace) {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		var guard ast.Expression
		if p.at(token.If) {
			p.advance()
			guard, err = p.parseExpression(lowest)
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.FatArrow); err != nil {
			return nil, err
		}
		var body *ast.BlockStatement
		if p.at(token.LBrace) {
			body, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		} else {
			e, err := p.parseExpression(lowest)
			if err != nil {
				return nil, err
			}
			body = &ast.BlockStatement{Tok: tok, Statements: []ast.Statement{&ast.ExpressionStatement{Tok: tok, Expr: e}}}
		}
		m.Arms = append(m.Arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body})
		if p.at(token.Comma) {
			p.advance()
		}
		p.skipSemicolons()
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Parser) parsePattern() (ast.Pattern, error) {
	tok := p.cur()
	switch {
	case tok.Kind == token.Ident && tok.Literal == "_":
		p.advance()
		return &ast.WildcardPattern{Tok: tok}, nil
	case tok.Kind == token.Ident && isUpper(tok.Literal):
		p.advance()
		cp := &ast.ConstructorPattern{Tok: tok, Name: tok.Literal}
		if p.at(token.LParen) {
			p.advance()
			for !p.at(token.RParen) {
				sub, err := p.parsePattern()
				if err != nil {
					return nil, err
				}
				cp.Fields = append(cp.Fields, sub)
				if p.at(token.Comma) {
					p.advance()
				}
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		}
		return cp, nil
	case tok.Kind == token.Ident:
		p.advance()
		return &ast.BindPattern{Tok: tok, Name: tok.Literal}, nil
	default:
		lit, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		return &ast.LiteralPattern{Tok: tok, Value: lit}, nil
	}
}

func (p *Parser) parseFor() (ast.Statement, error) {
	tok := p.advance()
	first, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	stmt := &ast.ForStatement{Tok: tok, ValName: first.Literal}
	if p.at(token.Comma) {
		p.advance()
		second, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		stmt.KeyName = first.Literal
		stmt.ValName = second.Literal
	}
	if _, err := p.expect(token.In); err != nil {
		return nil, err
	}
	iter, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	stmt.Iterable = iter
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	tok := p.advance()
	cond, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Tok: tok, Condition: cond, Body: body}, nil
}

func (p *Parser) parseLoop() (ast.Statement, error) {
	tok := p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.LoopStatement{Tok: tok, Body: body}, nil
}

func (p *Parser) parseSpawn() (ast.Statement, error) {
	tok := p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.SpawnStatement{Tok: tok, Body: body}, nil
}

func (p *Parser) parseFunctionDefinition(decorators []*ast.Decorator) (ast.Statement, error) {
	tok := p.advance() // fn
	async := false
	if p.at(token.Async) {
		async = true
		p.advance()
	}
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	retType := ""
	if p.at(token.Arrow) {
		p.advance()
		rt, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		retType = rt.Literal
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDefinition{
		Tok: tok, Name: nameTok.Literal, Params: params, ReturnType: retType,
		Body: body, Decorators: decorators, Async: async,
	}, nil
}

func (p *Parser) parseStructDefinition() (ast.Statement, error) {
	tok := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	def := &ast.StructDefinition{Tok: tok, Name: nameTok.Literal}
	for !p.at(token.RBrace) {
		fnt, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		typeAnn := ""
		if p.at(token.Colon) {
			p.advance()
			tt, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			typeAnn = tt.Literal
		}
		def.Fields = append(def.Fields, ast.StructField{Name: fnt.Literal, TypeAnn: typeAnn})
		if p.at(token.Comma) {
			p.advance()
		}
	}
	_, err = p.expect(token.RBrace)
	return def, err
}

// parseTypeDefinition handles `type Shape = Circle(Int) | Square(Int)`.
func (p *Parser) parseTypeDefinition() (ast.Statement, error) {
	tok := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	def := &ast.TypeDefinition{Tok: tok, Name: nameTok.Literal}
	for {
		vt, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		variant := ast.TypeVariant{Name: vt.Literal}
		if p.at(token.LParen) {
			p.advance()
			for !p.at(token.RParen) {
				ft, err := p.expect(token.Ident)
				if err != nil {
					return nil, err
				}
				variant.Fields = append(variant.Fields, ft.Literal)
				if p.at(token.Comma) {
					p.advance()
				}
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		}
		def.Variants = append(def.Variants, variant)
		if p.cur().Kind == token.Gt && p.peek().Kind == token.Gt {
			// tolerate accidental >> from a mis-lexed pipe; unreachable in practice
		}
		if p.at(token.OrOr) {
			p.advance()
			continue
		}
		if p.cur().Literal == "|" {
			p.advance()
			continue
		}
		break
	}
	return def, nil
}

func (p *Parser) parseInterfaceDefinition() (ast.Statement, error) {
	tok := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	def := &ast.InterfaceDefinition{Tok: tok, Name: nameTok.Literal}
	for !p.at(token.RBrace) {
		mt, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		method := ast.InterfaceMethod{Name: mt.Literal}
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		for !p.at(token.RParen) {
			pt, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			method.Params = append(method.Params, pt.Literal)
			if p.at(token.Comma) {
				p.advance()
			}
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		def.Methods = append(def.Methods, method)
		p.skipSemicolons()
	}
	_, err = p.expect(token.RBrace)
	return def, err
}

func (p *Parser) parseImport() (ast.Statement, error) {
	tok := p.advance()
	pathTok, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	stmt := &ast.ImportStatement{Tok: tok, Path: pathTok.Literal}
	if p.at(token.LBrace) {
		p.advance()
		for !p.at(token.RBrace) {
			nt, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			stmt.Names = append(stmt.Names, nt.Literal)
			if p.at(token.Comma) {
				p.advance()
			}
		}
		if _, err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseDecorators() ([]*ast.Decorator, error) {
	var decorators []*ast.Decorator
	for p.at(token.At) {
		tok := p.advance()
		nameTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		dec := &ast.Decorator{Tok: tok, Name: nameTok.Literal, Kwargs: map[string]ast.Expression{}}
		if p.at(token.LParen) {
			p.advance()
			namedSeen := false
			for !p.at(token.RParen) {
				if p.cur().Kind == token.Ident && p.peek().Kind == token.Colon {
					kt := p.advance()
					p.advance() // :
					val, err := p.parseExpression(lowest)
					if err != nil {
						return nil, err
					}
					dec.Kwargs[kt.Literal] = val
					namedSeen = true
				} else {
					if namedSeen {
						return nil, p.errorf("positional argument after named argument")
					}
					val, err := p.parseExpression(lowest)
					if err != nil {
						return nil, err
					}
					dec.Args = append(dec.Args, val)
				}
				if p.at(token.Comma) {
					p.advance()
				}
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		}
		decorators = append(decorators, dec)
	}
	return decorators, nil
}

func (p *Parser) parseDecoratorStatement() (ast.Statement, error) {
	tok := p.cur()
	decorators, err := p.parseDecorators()
	if err != nil {
		return nil, err
	}
	if p.at(token.Fn) {
		return p.parseFunctionDefinition(decorators)
	}
	return &ast.DecoratorStatement{Tok: tok, Decorators: decorators}, nil
}

func (p *Parser) parseTryCatch() (ast.Statement, error) {
	tok := p.advance()
	tryBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Catch); err != nil {
		return nil, err
	}
	varTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	catchBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.TryCatchStatement{Tok: tok, Try: tryBlock, Catch: ast.CatchClause{VarName: varTok.Literal, Body: catchBlock}}, nil
}

// parseWhen handles the natural-language guard chain:
//
//	when { cond1 { ... } cond2 { ... } unless { ... } }
func (p *Parser) parseWhen() (ast.Statement, error) {
	tok := p.advance()
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	w := &ast.WhenStatement{Tok: tok}
	for !p.at(token.RBrace) {
		if p.at(token.Unless) {
			p.advance()
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			w.Arms = append(w.Arms, ast.WhenArm{Body: body})
			continue
		}
		cond, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		w.Arms = append(w.Arms, ast.WhenArm{Condition: cond, Body: body})
	}
	_, err := p.expect(token.RBrace)
	return w, err
}

func (p *Parser) parseCheck() (ast.Statement, error) {
	tok := p.advance()
	cond, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	var msg ast.Expression
	if p.at(token.Comma) {
		p.advance()
		msg, err = p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
	}
	return &ast.CheckStatement{Tok: tok, Condition: cond, Message: msg}, nil
}

func (p *Parser) parseSafeBlock() (ast.Statement, error) {
	tok := p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.SafeBlockStatement{Tok: tok, Body: body}, nil
}

func (p *Parser) parseTimeoutBlock() (ast.Statement, error) {
	tok := p.advance()
	dur, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.TimeoutBlockStatement{Tok: tok, Duration: dur, Body: body}, nil
}

func (p *Parser) parseRetryBlock() (ast.Statement, error) {
	tok := p.advance()
	cnt, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.RetryBlockStatement{Tok: tok, Count: cnt, Body: body}, nil
}

func (p *Parser) parseScheduleBlock() (ast.Statement, error) {
	tok := p.advance()
	when, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ScheduleBlockStatement{Tok: tok, When: when, Body: body}, nil
}

func (p *Parser) parseWatchBlock() (ast.Statement, error) {
	tok := p.advance()
	subj, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WatchBlockStatement{Tok: tok, Subject: subj, Body: body}, nil
}

// parseRepeat desugars `repeat N times { body }` to
// `for _ in range(N) { body }` (spec §4.2).
func (p *Parser) parseRepeat() (ast.Statement, error) {
	tok := p.advance()
	count, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Times); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	rangeCall := &ast.CallExpr{Tok: tok, Function: &ast.Identifier{Tok: tok, Value: "range"}, Args: []ast.Expression{count}}
	return &ast.ForStatement{Tok: tok, ValName: "_", Iterable: rangeCall, Body: body}, nil
}

// parseGrab desugars `grab x from URL` to `let x = fetch(URL)`.
func (p *Parser) parseGrab() (ast.Statement, error) {
	tok := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.From); err != nil {
		return nil, err
	}
	url, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	call := &ast.CallExpr{Tok: tok, Function: &ast.Identifier{Tok: tok, Value: "fetch"}, Args: []ast.Expression{url}}
	return &ast.LetStatement{Tok: tok, Name: nameTok.Literal, Value: call}, nil
}

// parseSayStatement desugars `say/yell/whisper expr` to a call of the
// like-named builtin.
func (p *Parser) parseSayStatement() (ast.Statement, error) {
	tok := p.advance()
	arg, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	call := &ast.CallExpr{Tok: tok, Function: &ast.Identifier{Tok: tok, Value: tok.Literal}, Args: []ast.Expression{arg}}
	return &ast.ExpressionStatement{Tok: tok, Expr: call}, nil
}

// parseDownload desugars `download url to dest` to `http.download(url, dest)`.
func (p *Parser) parseDownload() (ast.Statement, error) {
	tok := p.advance()
	url, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.To); err != nil {
		return nil, err
	}
	dest, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	fn := &ast.FieldAccessExpr{Tok: tok, Object: &ast.Identifier{Tok: tok, Value: "http"}, Field: "download"}
	call := &ast.CallExpr{Tok: tok, Function: fn, Args: []ast.Expression{url, dest}}
	return &ast.ExpressionStatement{Tok: tok, Expr: call}, nil
}

// parseWait desugars `wait N seconds` to `wait(N)`.
func (p *Parser) parseWait() (ast.Statement, error) {
	tok := p.advance()
	dur, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if p.at(token.Seconds) {
		p.advance()
	}
	call := &ast.CallExpr{Tok: tok, Function: &ast.Identifier{Tok: tok, Value: "wait"}, Args: []ast.Expression{dur}}
	return &ast.ExpressionStatement{Tok: tok, Expr: call}, nil
}

// parseExpressionOrAssignStatement parses a plain expression statement,
// upgrading it to an AssignStatement if followed by `=` or a compound
// assignment operator.
func (p *Parser) parseExpressionOrAssignStatement() (ast.Statement, error) {
	tok := p.cur()
	expr, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case token.Assign:
		p.advance()
		val, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStatement{Tok: tok, Target: expr, Operator: "=", Value: val}, nil
	case token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign:
		opTok := p.advance()
		val, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStatement{Tok: tok, Target: expr, Operator: opTok.Literal, Value: val}, nil
	}
	return &ast.ExpressionStatement{Tok: tok, Expr: expr}, nil
}
