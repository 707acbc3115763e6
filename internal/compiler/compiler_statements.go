package compiler

import (
	"github.com/forgelang/forge/internal/ast"
)

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	line := stmt.Span().Line
	switch s := stmt.(type) {
	case *ast.LetStatement:
		return c.compileLet(s)
	case *ast.DestructureStatement:
		return c.compileDestructure(s)
	case *ast.AssignStatement:
		return c.compileAssign(s)
	case *ast.ExpressionStatement:
		if s.Expr == nil {
			return nil
		}
		mark := c.mark()
		dst, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(s.Expr, dst); err != nil {
			return err
		}
		c.freeTo(mark)
		return nil
	case *ast.ReturnStatement:
		if s.Value == nil {
			c.emit(OpReturnNull, 0, 0, 0, line)
			return nil
		}
		mark := c.mark()
		dst, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(s.Value, dst); err != nil {
			return err
		}
		c.emit(OpReturn, dst, 0, 0, line)
		c.freeTo(mark)
		return nil
	case *ast.BlockStatement:
		return c.compileBlock(s)
	case *ast.IfStatement:
		return c.compileIf(s)
	case *ast.MatchStatement:
		_, err := c.compileMatch(s, nil)
		return err
	case *ast.ForStatement:
		return c.compileFor(s)
	case *ast.WhileStatement:
		return c.compileWhile(s)
	case *ast.LoopStatement:
		return c.compileLoop(s)
	case *ast.BreakStatement:
		return c.compileBreak(s)
	case *ast.ContinueStatement:
		return c.compileContinue(s)
	case *ast.SpawnStatement:
		return c.compileSpawn(s)
	case *ast.FunctionDefinition:
		return c.compileFunctionDefinition(s)
	case *ast.StructDefinition, *ast.InterfaceDefinition, *ast.TypeDefinition:
		// Pure metadata: field/variant shape was already gathered in the
		// pre-pass (collectVariants); nothing to emit.
		return nil
	case *ast.ImportStatement:
		// Module resolution happens before compilation (pkg/embed wires
		// imported chunks' globals into this one); nothing to emit here.
		return nil
	case *ast.DecoratorStatement:
		// Decorators attached to a function definition are folded into its
		// body by internal/decorator.Apply inside compileFunctionDefinition;
		// a bare DecoratorStatement means decorators preceded something
		// other than `fn`, which has no defined effect.
		return nil
	case *ast.TryCatchStatement:
		return c.compileTryCatch(s)
	case *ast.WhenStatement:
		return c.compileWhen(s)
	case *ast.CheckStatement:
		return c.compileCheck(s)
	case *ast.SafeBlockStatement:
		mark := c.mark()
		dst, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileSafeBlockInto(s, dst); err != nil {
			return err
		}
		c.freeTo(mark)
		return nil
	case *ast.TimeoutBlockStatement:
		mark := c.mark()
		dst, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileTimeoutInto(s, dst); err != nil {
			return err
		}
		c.freeTo(mark)
		return nil
	case *ast.RetryBlockStatement:
		mark := c.mark()
		dst, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileRetryInto(s, dst); err != nil {
			return err
		}
		c.freeTo(mark)
		return nil
	case *ast.ScheduleBlockStatement:
		return c.compileBlock(s.Body)
	case *ast.WatchBlockStatement:
		return c.compileBlock(s.Body)
	default:
		return errf("compiler: unsupported statement %T", stmt)
	}
}

func (c *Compiler) compileBlock(b *ast.BlockStatement) error {
	mark := c.enterScope()
	defer c.leaveScope(mark)
	for _, st := range b.Statements {
		if err := c.compileStatement(st); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileLet(s *ast.LetStatement) error {
	dst, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(s.Value, dst); err != nil {
		return err
	}
	c.fs.locals = append(c.fs.locals, local{name: s.Name, depth: c.fs.scopeDepth, register: dst, mutable: s.Mutable})
	return nil
}

func (c *Compiler) compileDestructure(s *ast.DestructureStatement) error {
	mark := c.mark()
	srcReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(s.Value, srcReg); err != nil {
		return err
	}
	line := s.Span().Line
	p := s.Pattern
	if p.IsArray {
		for i, name := range p.Names {
			dst, err := c.allocRegister()
			if err != nil {
				return err
			}
			idxReg, err := c.allocRegister()
			if err != nil {
				return err
			}
			idxConst := c.fs.chunk.AddIntConstant(int64(i))
			c.emitABx(OpLoadConst, idxReg, idxConst, line)
			c.emit(OpGetIndex, dst, srcReg, idxReg, line)
			c.fs.locals = append(c.fs.locals, local{name: name, depth: c.fs.scopeDepth, register: dst, mutable: true})
		}
	} else {
		for _, name := range p.Names {
			dst, err := c.allocRegister()
			if err != nil {
				return err
			}
			keyConst := c.fs.chunk.AddStringConstant(name)
			c.emit(OpGetField, dst, srcReg, uint8(keyConst), line)
			c.fs.locals = append(c.fs.locals, local{name: name, depth: c.fs.scopeDepth, register: dst, mutable: true})
		}
	}
	_ = mark
	return nil
}

func (c *Compiler) compileAssign(s *ast.AssignStatement) error {
	line := s.Span().Line
	valExpr := s.Value
	if s.Operator != "=" {
		base := s.Operator[:1]
		valExpr = &ast.InfixExpr{Tok: s.Tok, Left: s.Target, Operator: base, Right: s.Value}
	}
	switch target := s.Target.(type) {
	case *ast.Identifier:
		if l, ok := c.resolveLocal(c.fs, target.Value); ok {
			if !l.mutable {
				return errf("cannot assign to immutable binding %q", target.Value)
			}
			reg := l.register
			return c.compileExpression(valExpr, reg)
		}
		if idx, ok := c.resolveUpvalue(c.fs, target.Value); ok {
			mark := c.mark()
			tmp, err := c.allocRegister()
			if err != nil {
				return err
			}
			if err := c.compileExpression(valExpr, tmp); err != nil {
				return err
			}
			c.emit(OpSetUpvalue, tmp, uint8(idx), 0, line)
			c.freeTo(mark)
			return nil
		}
		mark := c.mark()
		tmp, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(valExpr, tmp); err != nil {
			return err
		}
		nameConst := c.fs.chunk.AddStringConstant(target.Value)
		c.emitABx(OpSetGlobal, tmp, nameConst, line)
		c.freeTo(mark)
		return nil
	case *ast.FieldAccessExpr:
		mark := c.mark()
		objReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(target.Object, objReg); err != nil {
			return err
		}
		valReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(valExpr, valReg); err != nil {
			return err
		}
		keyConst := c.fs.chunk.AddStringConstant(target.Field)
		// SetField encodes the field-name constant in B, value register in C (spec §6.1.1).
		c.emit(OpSetField, objReg, uint8(keyConst), valReg, line)
		c.freeTo(mark)
		return nil
	case *ast.IndexExpr:
		mark := c.mark()
		objReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(target.Left, objReg); err != nil {
			return err
		}
		idxReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(target.Index, idxReg); err != nil {
			return err
		}
		valReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(valExpr, valReg); err != nil {
			return err
		}
		c.emit(OpSetIndex, objReg, idxReg, valReg, line)
		c.freeTo(mark)
		return nil
	default:
		return errf("invalid assignment target %T", s.Target)
	}
}

func (c *Compiler) compileIf(s *ast.IfStatement) error {
	line := s.Span().Line
	mark := c.mark()
	condReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(s.Condition, condReg); err != nil {
		return err
	}
	jfAt := c.emitASBx(OpJumpIfFalse, condReg, 0, line)
	c.freeTo(mark)
	if err := c.compileBlock(s.Consequence); err != nil {
		return err
	}
	if s.Alternative != nil {
		jAt := c.emitASBx(OpJump, 0, 0, line)
		c.fs.chunk.PatchJump(jfAt)
		if err := c.compileStatement(s.Alternative); err != nil {
			return err
		}
		c.fs.chunk.PatchJump(jAt)
	} else {
		c.fs.chunk.PatchJump(jfAt)
	}
	return nil
}

// compileMatch compiles a match statement. When dst is non-nil, the
// matched arm's value is stored there (match used as an expression);
// otherwise each arm's body executes for effect only.
func (c *Compiler) compileMatch(s *ast.MatchStatement, dst *uint8) (uint8, error) {
	line := s.Span().Line
	mark := c.mark()
	subjReg, err := c.allocRegister()
	if err != nil {
		return 0, err
	}
	if err := c.compileExpression(s.Subject, subjReg); err != nil {
		return 0, err
	}

	var resultReg uint8
	if dst != nil {
		resultReg = *dst
	}

	var endJumps []int
	for i, arm := range s.Arms {
		isLast := i == len(s.Arms)-1
		bodyScope := c.enterScope()
		skipAt, err := c.compilePatternTest(arm.Pattern, subjReg)
		if err != nil {
			return 0, err
		}
		if arm.Guard != nil {
			gMark := c.mark()
			gReg, err := c.allocRegister()
			if err != nil {
				return 0, err
			}
			if err := c.compileExpression(arm.Guard, gReg); err != nil {
				return 0, err
			}
			extraSkip := c.emitASBx(OpJumpIfFalse, gReg, 0, line)
			c.freeTo(gMark)
			skipAt = append(skipAt, extraSkip)
		}
		if dst != nil {
			if err := c.compileBlockInto(arm.Body, resultReg); err != nil {
				return 0, err
			}
		} else {
			if err := c.compileBlock(arm.Body); err != nil {
				return 0, err
			}
		}
		c.leaveScope(bodyScope)
		if !isLast {
			endJumps = append(endJumps, c.emitASBx(OpJump, 0, 0, line))
		}
		for _, at := range skipAt {
			c.fs.chunk.PatchJump(at)
		}
		if isLast {
			// non-exhaustive match: no pattern matched and this was the
			// last arm falls through here only if its own test failed too.
		}
	}
	for _, at := range endJumps {
		c.fs.chunk.PatchJump(at)
	}
	c.freeTo(mark)
	if dst != nil {
		return resultReg, nil
	}
	return 0, nil
}

// compilePatternTest emits code testing subjReg against pat, binding any
// identifiers in the enclosing scope, and returns the list of jump sites to
// patch to the "arm did not match" landing pad.
func (c *Compiler) compilePatternTest(pat ast.Pattern, subjReg uint8) ([]int, error) {
	line := pat.Span().Line
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return nil, nil
	case *ast.BindPattern:
		c.fs.locals = append(c.fs.locals, local{name: p.Name, depth: c.fs.scopeDepth, register: subjReg, mutable: false})
		return nil, nil
	case *ast.LiteralPattern:
		mark := c.mark()
		litReg, err := c.allocRegister()
		if err != nil {
			return nil, err
		}
		if err := c.compileExpression(p.Value, litReg); err != nil {
			return nil, err
		}
		cmpReg, err := c.allocRegister()
		if err != nil {
			return nil, err
		}
		c.emit(OpEq, cmpReg, subjReg, litReg, line)
		skip := c.emitASBx(OpJumpIfFalse, cmpReg, 0, line)
		c.freeTo(mark)
		return []int{skip}, nil
	case *ast.ConstructorPattern:
		mark := c.mark()
		variantReg, err := c.allocRegister()
		if err != nil {
			return nil, err
		}
		variantKeyConst := c.fs.chunk.AddStringConstant("__variant__")
		c.emit(OpGetField, variantReg, subjReg, uint8(variantKeyConst), line)
		nameReg, err := c.allocRegister()
		if err != nil {
			return nil, err
		}
		nameConst := c.fs.chunk.AddStringConstant(p.Name)
		c.emitABx(OpLoadConst, nameReg, nameConst, line)
		cmpReg, err := c.allocRegister()
		if err != nil {
			return nil, err
		}
		c.emit(OpEq, cmpReg, variantReg, nameReg, line)
		skip := c.emitASBx(OpJumpIfFalse, cmpReg, 0, line)
		c.freeTo(mark)
		skips := []int{skip}
		for i, sub := range p.Fields {
			fieldReg, err := c.allocRegister()
			if err != nil {
				return nil, err
			}
			c.emit(OpExtractField, fieldReg, subjReg, uint8(i), line)
			subSkips, err := c.compilePatternTest(sub, fieldReg)
			if err != nil {
				return nil, err
			}
			skips = append(skips, subSkips...)
		}
		return skips, nil
	default:
		return nil, errf("compiler: unsupported pattern %T", pat)
	}
}

// compileBlockInto compiles a block whose final expression statement's
// value should land in dst (used by match-as-expression and the *Block
// expression forms).
func (c *Compiler) compileBlockInto(b *ast.BlockStatement, dst uint8) error {
	mark := c.enterScope()
	defer c.leaveScope(mark)
	for i, st := range b.Statements {
		if i == len(b.Statements)-1 {
			if es, ok := st.(*ast.ExpressionStatement); ok && es.Expr != nil {
				if err := c.compileExpression(es.Expr, dst); err != nil {
					return err
				}
				continue
			}
		}
		if err := c.compileStatement(st); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileFor(s *ast.ForStatement) error {
	line := s.Span().Line
	outerMark := c.mark()
	iterReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(s.Iterable, iterReg); err != nil {
		return err
	}
	idxReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	zeroConst := c.fs.chunk.AddIntConstant(0)
	c.emitABx(OpLoadConst, idxReg, zeroConst, line)

	lenReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emit(OpLen, lenReg, iterReg, 0, line)

	c.fs.loops = append(c.fs.loops, loopContext{headIP: len(c.fs.chunk.Code)})

	condReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emit(OpLt, condReg, idxReg, lenReg, line)
	exitAt := c.emitASBx(OpJumpIfFalse, condReg, 0, line)

	bodyMark := c.enterScope()
	valReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emit(OpGetIndex, valReg, iterReg, idxReg, line)
	c.fs.locals = append(c.fs.locals, local{name: s.ValName, depth: c.fs.scopeDepth, register: valReg, mutable: false})
	if s.KeyName != "" {
		keyReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		c.emit(OpMove, keyReg, idxReg, 0, line)
		c.fs.locals = append(c.fs.locals, local{name: s.KeyName, depth: c.fs.scopeDepth, register: keyReg, mutable: false})
	}
	for _, st := range s.Body.Statements {
		if err := c.compileStatement(st); err != nil {
			return err
		}
	}
	c.leaveScope(bodyMark)

	loopCtx := c.fs.loops[len(c.fs.loops)-1]
	contTarget := len(c.fs.chunk.Code)

	oneConst := c.fs.chunk.AddIntConstant(1)
	oneMark := c.mark()
	oneReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emitABx(OpLoadConst, oneReg, oneConst, line)
	c.emit(OpAdd, idxReg, idxReg, oneReg, line)
	c.freeTo(oneMark)

	backOffset := loopCtx.headIP - (len(c.fs.chunk.Code) + 1)
	c.emitASBx(OpLoop, 0, int16(backOffset), line)
	c.fs.chunk.PatchJump(exitAt)

	for _, at := range loopCtx.breakPatches {
		c.fs.chunk.PatchJump(at)
	}
	_ = contTarget
	c.fs.loops = c.fs.loops[:len(c.fs.loops)-1]
	c.freeTo(outerMark)
	return nil
}

func (c *Compiler) compileWhile(s *ast.WhileStatement) error {
	line := s.Span().Line
	outerMark := c.mark()
	headIP := len(c.fs.chunk.Code)
	c.fs.loops = append(c.fs.loops, loopContext{headIP: headIP})

	condMark := c.mark()
	condReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(s.Condition, condReg); err != nil {
		return err
	}
	exitAt := c.emitASBx(OpJumpIfFalse, condReg, 0, line)
	c.freeTo(condMark)

	if err := c.compileBlock(s.Body); err != nil {
		return err
	}

	loopCtx := c.fs.loops[len(c.fs.loops)-1]
	backOffset := loopCtx.headIP - (len(c.fs.chunk.Code) + 1)
	c.emitASBx(OpLoop, 0, int16(backOffset), line)
	c.fs.chunk.PatchJump(exitAt)
	for _, at := range loopCtx.breakPatches {
		c.fs.chunk.PatchJump(at)
	}
	c.fs.loops = c.fs.loops[:len(c.fs.loops)-1]
	c.freeTo(outerMark)
	return nil
}

func (c *Compiler) compileLoop(s *ast.LoopStatement) error {
	line := s.Span().Line
	headIP := len(c.fs.chunk.Code)
	c.fs.loops = append(c.fs.loops, loopContext{headIP: headIP})
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	loopCtx := c.fs.loops[len(c.fs.loops)-1]
	backOffset := loopCtx.headIP - (len(c.fs.chunk.Code) + 1)
	c.emitASBx(OpLoop, 0, int16(backOffset), line)
	for _, at := range loopCtx.breakPatches {
		c.fs.chunk.PatchJump(at)
	}
	c.fs.loops = c.fs.loops[:len(c.fs.loops)-1]
	return nil
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) error {
	if len(c.fs.loops) == 0 {
		return errf("'break' outside of a loop")
	}
	at := c.emitASBx(OpJump, 0, 0, s.Span().Line)
	top := len(c.fs.loops) - 1
	c.fs.loops[top].breakPatches = append(c.fs.loops[top].breakPatches, at)
	return nil
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) error {
	if len(c.fs.loops) == 0 {
		return errf("'continue' outside of a loop")
	}
	line := s.Span().Line
	head := c.fs.loops[len(c.fs.loops)-1].headIP
	offset := head - (len(c.fs.chunk.Code) + 1)
	c.emitASBx(OpLoop, 0, int16(offset), line)
	return nil
}

// compileSpawn compiles the body into a zero-arg closure and emits Spawn,
// which currently invokes it synchronously (spec §5).
func (c *Compiler) compileSpawn(s *ast.SpawnStatement) error {
	line := s.Span().Line
	child := NewChunk("<spawn>")
	childFS := &funcState{enclosing: c.fs, chunk: child}
	savedFS := c.fs
	c.fs = childFS
	for _, st := range s.Body.Statements {
		if err := c.compileStatement(st); err != nil {
			c.fs = savedFS
			return err
		}
	}
	c.emit(OpReturnNull, 0, 0, 0, line)
	child.MaxRegisters = c.fs.nextRegister
	c.fs = savedFS

	protoIdx := c.fs.chunk.AddPrototype(child)
	mark := c.mark()
	closReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emitABx(OpClosure, closReg, protoIdx, line)
	for _, uv := range childFS.upvalues {
		_ = uv
	}
	c.emit(OpSpawn, closReg, 0, 0, line)
	c.freeTo(mark)
	return nil
}
