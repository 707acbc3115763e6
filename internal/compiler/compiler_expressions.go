package compiler

import (
	"github.com/forgelang/forge/internal/ast"
	"github.com/forgelang/forge/internal/decorator"
)

// compileExpression compiles expr so that its value ends up in register dst
// (spec §4.3.2: every expression targets a destination register chosen by
// its parent).
func (c *Compiler) compileExpression(expr ast.Expression, dst uint8) error {
	line := expr.Span().Line
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		k := c.fs.chunk.AddIntConstant(e.Value)
		c.emitABx(OpLoadConst, dst, k, line)
	case *ast.FloatLiteral:
		k := c.fs.chunk.AddFloatConstant(e.Value)
		c.emitABx(OpLoadConst, dst, k, line)
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(OpLoadTrue, dst, 0, 0, line)
		} else {
			c.emit(OpLoadFalse, dst, 0, 0, line)
		}
	case *ast.NullLiteral:
		c.emit(OpLoadNull, dst, 0, 0, line)
	case *ast.StringLiteral:
		k := c.fs.chunk.AddStringConstant(e.Value)
		c.emitABx(OpLoadConst, dst, k, line)
	case *ast.InterpolatedString:
		return c.compileInterpolatedString(e, dst)
	case *ast.ArrayLiteral:
		return c.compileArrayLiteral(e, dst)
	case *ast.ObjectLiteral:
		return c.compileObjectLiteral(e, dst)
	case *ast.StructLiteral:
		return c.compileStructLiteral(e, dst)
	case *ast.PrefixExpr:
		return c.compilePrefix(e, dst)
	case *ast.InfixExpr:
		return c.compileInfix(e, dst)
	case *ast.PipeExpr:
		call := &ast.CallExpr{Tok: e.Tok, Function: e.Func, Args: []ast.Expression{e.Value}}
		return c.compileExpression(call, dst)
	case *ast.TryExpr:
		if err := c.compileExpression(e.Value, dst); err != nil {
			return err
		}
		c.emit(OpTry, dst, 0, 0, line)
	case *ast.FieldAccessExpr:
		mark := c.mark()
		objReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(e.Object, objReg); err != nil {
			return err
		}
		keyConst := c.fs.chunk.AddStringConstant(e.Field)
		c.emit(OpGetField, dst, objReg, uint8(keyConst), line)
		c.freeTo(mark)
	case *ast.IndexExpr:
		mark := c.mark()
		objReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(e.Left, objReg); err != nil {
			return err
		}
		idxReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(e.Index, idxReg); err != nil {
			return err
		}
		c.emit(OpGetIndex, dst, objReg, idxReg, line)
		c.freeTo(mark)
	case *ast.CallExpr:
		return c.compileCall(e, dst, false)
	case *ast.MethodCallExpr:
		call := &ast.CallExpr{
			Tok:      e.Tok,
			Function: &ast.Identifier{Tok: e.Tok, Value: e.Method},
			Args:     append([]ast.Expression{e.Receiver}, e.Args...),
		}
		return c.compileCall(call, dst, false)
	case *ast.LambdaExpr:
		return c.compileLambda(e.Params, e.Body, "<lambda>", dst)
	case *ast.BlockExpr:
		return c.compileBlockInto(e.Block, dst)
	case *ast.Identifier:
		return c.compileIdentifier(e, dst)
	case *ast.MatchStatement:
		d := dst
		_, err := c.compileMatch(e, &d)
		return err
	case *ast.SafeBlockStatement:
		return c.compileSafeBlockInto(e, dst)
	case *ast.TimeoutBlockStatement:
		return c.compileTimeoutInto(e, dst)
	case *ast.RetryBlockStatement:
		return c.compileRetryInto(e, dst)
	default:
		return errf("compiler: unsupported expression %T", expr)
	}
	return nil
}

func (c *Compiler) compileIdentifier(id *ast.Identifier, dst uint8) error {
	line := id.Span().Line
	if l, ok := c.resolveLocal(c.fs, id.Value); ok {
		if l.register != dst {
			c.emit(OpMove, dst, l.register, 0, line)
		}
		return nil
	}
	if idx, ok := c.resolveUpvalue(c.fs, id.Value); ok {
		c.emit(OpGetUpvalue, dst, uint8(idx), 0, line)
		return nil
	}
	nameConst := c.fs.chunk.AddStringConstant(id.Value)
	c.emitABx(OpGetGlobal, dst, nameConst, line)
	return nil
}

func (c *Compiler) compilePrefix(e *ast.PrefixExpr, dst uint8) error {
	line := e.Span().Line
	if err := c.compileExpression(e.Right, dst); err != nil {
		return err
	}
	switch e.Operator {
	case "-":
		c.emit(OpNeg, dst, dst, 0, line)
	case "!", "not":
		c.emit(OpNot, dst, dst, 0, line)
	default:
		return errf("compiler: unsupported prefix operator %q", e.Operator)
	}
	return nil
}

var infixOps = map[string]OpCode{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"==": OpEq, "!=": OpNotEq, "<": OpLt, ">": OpGt, "<=": OpLtEq, ">=": OpGtEq,
	"&&": OpAnd, "||": OpOr, "and": OpAnd, "or": OpOr,
}

func (c *Compiler) compileInfix(e *ast.InfixExpr, dst uint8) error {
	line := e.Span().Line
	op, ok := infixOps[e.Operator]
	if !ok {
		return errf("compiler: unsupported infix operator %q", e.Operator)
	}
	mark := c.mark()
	lReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(e.Left, lReg); err != nil {
		return err
	}
	rReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(e.Right, rReg); err != nil {
		return err
	}
	c.emit(op, dst, lReg, rReg, line)
	c.freeTo(mark)
	return nil
}

func (c *Compiler) compileInterpolatedString(e *ast.InterpolatedString, dst uint8) error {
	line := e.Span().Line
	if len(e.Parts) == 0 {
		k := c.fs.chunk.AddStringConstant("")
		c.emitABx(OpLoadConst, dst, k, line)
		return nil
	}
	mark := c.mark()
	base, err := c.allocRegister()
	if err != nil {
		return err
	}
	for i, part := range e.Parts {
		var reg uint8
		if i == 0 {
			reg = base
		} else {
			reg, err = c.allocRegister()
			if err != nil {
				return err
			}
		}
		if part.Expr != nil {
			if err := c.compileExpression(part.Expr, reg); err != nil {
				return err
			}
		} else {
			k := c.fs.chunk.AddStringConstant(part.Lit)
			c.emitABx(OpLoadConst, reg, k, line)
		}
	}
	c.emit(OpInterpolate, dst, base, uint8(len(e.Parts)), line)
	c.freeTo(mark)
	return nil
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral, dst uint8) error {
	line := e.Span().Line
	c.emit(OpNewArray, dst, 0, 0, line)
	mark := c.mark()
	for i, el := range e.Elements {
		idxReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		idxConst := c.fs.chunk.AddIntConstant(int64(i))
		c.emitABx(OpLoadConst, idxReg, idxConst, line)
		valReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(el, valReg); err != nil {
			return err
		}
		c.emit(OpSetIndex, dst, idxReg, valReg, line)
		c.freeTo(mark)
	}
	return nil
}

// staticKeyName extracts a literal field name from an object-literal key
// position: either a bare identifier (shorthand `key: value` syntax) or a
// plain string literal.
func staticKeyName(e ast.Expression) (string, bool) {
	switch k := e.(type) {
	case *ast.Identifier:
		return k.Value, true
	case *ast.StringLiteral:
		return k.Value, true
	}
	return "", false
}

func (c *Compiler) compileObjectLiteral(e *ast.ObjectLiteral, dst uint8) error {
	line := e.Span().Line
	c.emit(OpNewObject, dst, 0, 0, line)
	mark := c.mark()
	for _, pair := range e.Pairs {
		name, ok := staticKeyName(pair.Key)
		if !ok {
			return errf("compiler: object literal keys must be identifiers or string literals")
		}
		keyConst := c.fs.chunk.AddStringConstant(name)
		valReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(pair.Value, valReg); err != nil {
			return err
		}
		c.emit(OpSetField, dst, uint8(keyConst), valReg, line)
		c.freeTo(mark)
	}
	return nil
}

func (c *Compiler) compileStructLiteral(e *ast.StructLiteral, dst uint8) error {
	line := e.Span().Line
	c.emit(OpNewObject, dst, 0, 0, line)
	mark := c.mark()
	typeConst := c.fs.chunk.AddStringConstant(e.Name)
	typeReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emitABx(OpLoadConst, typeReg, typeConst, line)
	typeKeyConst := c.fs.chunk.AddStringConstant("__type__")
	c.emit(OpSetField, dst, uint8(typeKeyConst), typeReg, line)
	c.freeTo(mark)
	for _, pair := range e.Pairs {
		name, ok := staticKeyName(pair.Key)
		if !ok {
			return errf("compiler: struct literal keys must be identifiers")
		}
		keyConst := c.fs.chunk.AddStringConstant(name)
		valReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(pair.Value, valReg); err != nil {
			return err
		}
		c.emit(OpSetField, dst, uint8(keyConst), valReg, line)
		c.freeTo(mark)
	}
	return nil
}

// compileCall compiles a call expression, recognising tagged-variant
// constructor calls (spec §4.3.5) before falling back to an ordinary Call.
// protected marks the call as one the VM must guard against a runtime error,
// yielding a Result-shaped object (__variant__ "Ok"/"Err") in dst instead of
// propagating the error (used by try/catch and safe blocks).
func (c *Compiler) compileCall(e *ast.CallExpr, dst uint8, protected bool) error {
	line := e.Span().Line
	if id, ok := e.Function.(*ast.Identifier); ok {
		if info, isVariant := c.variants[id.Value]; isVariant {
			return c.compileConstructorCall(id.Value, info, e.Args, dst)
		}
	}
	mark := c.mark()
	base, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(e.Function, base); err != nil {
		return err
	}
	for _, arg := range e.Args {
		argReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(arg, argReg); err != nil {
			return err
		}
	}
	flag := uint8(0)
	if protected {
		flag = 1
	}
	c.emit(OpCall, base, uint8(len(e.Args)), flag, line)
	if base != dst {
		c.emit(OpMove, dst, base, 0, line)
	}
	c.freeTo(mark)
	return nil
}

func (c *Compiler) compileConstructorCall(name string, info variantInfo, args []ast.Expression, dst uint8) error {
	if len(args) != info.fields {
		return errf("variant %q expects %d field(s), got %d", name, info.fields, len(args))
	}
	line := 0
	c.emit(OpNewObject, dst, 0, 0, line)
	mark := c.mark()
	setMeta := func(key, val string) error {
		keyConst := c.fs.chunk.AddStringConstant(key)
		valConst := c.fs.chunk.AddStringConstant(val)
		reg, err := c.allocRegister()
		if err != nil {
			return err
		}
		c.emitABx(OpLoadConst, reg, valConst, line)
		c.emit(OpSetField, dst, uint8(keyConst), reg, line)
		c.freeTo(mark)
		return nil
	}
	if err := setMeta("__type__", info.sumType); err != nil {
		return err
	}
	if err := setMeta("__variant__", name); err != nil {
		return err
	}
	for i, arg := range args {
		fieldName := itoaSmall(i)
		keyConst := c.fs.chunk.AddStringConstant(fieldName)
		valReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(arg, valReg); err != nil {
			return err
		}
		c.emit(OpSetField, dst, uint8(keyConst), valReg, line)
		c.freeTo(mark)
	}
	return nil
}

// itoaSmall avoids pulling in strconv for the handful of single-digit
// positional field names constructor calls need.
func itoaSmall(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	buf := []byte{}
	for i > 0 {
		buf = append([]byte{digits[i%10]}, buf...)
		i /= 10
	}
	return string(buf)
}

// compileLambda compiles params+body into a child Chunk and emits a Closure
// instruction loading it into dst (spec §4.3.3).
func (c *Compiler) compileLambda(params []ast.Param, body *ast.BlockStatement, name string, dst uint8) error {
	child := NewChunk(name)
	child.Arity = len(params)
	childFS := &funcState{enclosing: c.fs, chunk: child}
	savedFS := c.fs
	c.fs = childFS

	for _, p := range params {
		if _, err := c.declareLocal(p.Name, true); err != nil {
			c.fs = savedFS
			return err
		}
	}
	for _, st := range body.Statements {
		if err := c.compileStatement(st); err != nil {
			c.fs = savedFS
			return err
		}
	}
	c.emit(OpReturnNull, 0, 0, 0, 0)
	child.MaxRegisters = c.fs.nextRegister
	if child.MaxRegisters > maxRegisters {
		c.fs = savedFS
		return errf("function %q exceeds maximum register count", name)
	}
	if err := child.ValidateJumps(); err != nil {
		c.fs = savedFS
		return err
	}
	c.fs = savedFS

	protoIdx := c.fs.chunk.AddPrototype(child)
	c.emitABx(OpClosure, dst, protoIdx, 0)
	return nil
}

func (c *Compiler) compileFunctionDefinition(s *ast.FunctionDefinition) error {
	dst, err := c.allocRegister()
	if err != nil {
		return err
	}
	body, err := decorator.Apply(s)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	if err := c.compileLambda(s.Params, body, s.Name, dst); err != nil {
		return err
	}
	c.fs.locals = append(c.fs.locals, local{name: s.Name, depth: c.fs.scopeDepth, register: dst, mutable: false})
	nameConst := c.fs.chunk.AddStringConstant(s.Name)
	c.emitABx(OpSetGlobal, dst, nameConst, s.Span().Line)
	return nil
}

// resultVariantEq emits code testing whether reg holds a Result object
// tagged with the given variant ("Ok" or "Err"), leaving a boolean in cmp.
func (c *Compiler) resultVariantEq(reg uint8, variant string, line int) (cmp uint8, err error) {
	mark := c.mark()
	variantReg, err := c.allocRegister()
	if err != nil {
		return 0, err
	}
	variantKeyConst := c.fs.chunk.AddStringConstant("__variant__")
	c.emit(OpGetField, variantReg, reg, uint8(variantKeyConst), line)
	litReg, err := c.allocRegister()
	if err != nil {
		return 0, err
	}
	litConst := c.fs.chunk.AddStringConstant(variant)
	c.emitABx(OpLoadConst, litReg, litConst, line)
	cmpReg, err := c.allocRegister()
	if err != nil {
		return 0, err
	}
	c.emit(OpEq, cmpReg, variantReg, litReg, line)
	_ = mark
	return cmpReg, nil
}

// compileSafeBlockInto runs Body as a protected call and stores the
// resulting Result-shaped object (Ok(value) or Err(message)) in dst (Open
// Question decision #1 in DESIGN.md).
func (c *Compiler) compileSafeBlockInto(s *ast.SafeBlockStatement, dst uint8) error {
	call := &ast.CallExpr{Tok: s.Tok, Function: &ast.LambdaExpr{Tok: s.Tok, Body: s.Body}}
	return c.compileCall(call, dst, true)
}

// compileTryCatch runs Try as a protected call; if the result is an
// Err-variant Result, Catch.VarName is bound to it and Catch.Body runs.
func (c *Compiler) compileTryCatch(s *ast.TryCatchStatement) error {
	line := s.Span().Line
	mark := c.mark()
	resultReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	call := &ast.CallExpr{Tok: s.Tok, Function: &ast.LambdaExpr{Tok: s.Tok, Body: s.Try}}
	if err := c.compileCall(call, resultReg, true); err != nil {
		return err
	}
	cmpReg, err := c.resultVariantEq(resultReg, "Err", line)
	if err != nil {
		return err
	}
	skipAt := c.emitASBx(OpJumpIfFalse, cmpReg, 0, line)

	scope := c.enterScope()
	c.fs.locals = append(c.fs.locals, local{name: s.Catch.VarName, depth: c.fs.scopeDepth, register: resultReg, mutable: false})
	for _, st := range s.Catch.Body.Statements {
		if err := c.compileStatement(st); err != nil {
			return err
		}
	}
	c.leaveScope(scope)

	c.fs.chunk.PatchJump(skipAt)
	c.freeTo(mark)
	return nil
}

func (c *Compiler) compileWhen(s *ast.WhenStatement) error {
	line := s.Span().Line
	var endJumps []int
	for i, arm := range s.Arms {
		if arm.Condition == nil {
			if err := c.compileBlock(arm.Body); err != nil {
				return err
			}
			break
		}
		mark := c.mark()
		condReg, err := c.allocRegister()
		if err != nil {
			return err
		}
		if err := c.compileExpression(arm.Condition, condReg); err != nil {
			return err
		}
		jfAt := c.emitASBx(OpJumpIfFalse, condReg, 0, line)
		c.freeTo(mark)
		if err := c.compileBlock(arm.Body); err != nil {
			return err
		}
		if i != len(s.Arms)-1 {
			endJumps = append(endJumps, c.emitASBx(OpJump, 0, 0, line))
		}
		c.fs.chunk.PatchJump(jfAt)
	}
	for _, at := range endJumps {
		c.fs.chunk.PatchJump(at)
	}
	return nil
}

// compileCheck raises a runtime error via the __check_fail__ native when
// Condition is false (spec's `check cond, "message"` assertion form).
func (c *Compiler) compileCheck(s *ast.CheckStatement) error {
	line := s.Span().Line
	mark := c.mark()
	condReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(s.Condition, condReg); err != nil {
		return err
	}
	passAt := c.emitASBx(OpJumpIfTrue, condReg, 0, line)

	fnReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	nameConst := c.fs.chunk.AddStringConstant("__check_fail__")
	c.emitABx(OpGetGlobal, fnReg, nameConst, line)
	argReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if s.Message != nil {
		if err := c.compileExpression(s.Message, argReg); err != nil {
			return err
		}
	} else {
		defConst := c.fs.chunk.AddStringConstant("check failed")
		c.emitABx(OpLoadConst, argReg, defConst, line)
	}
	c.emit(OpCall, fnReg, 1, 0, line)

	c.fs.chunk.PatchJump(passAt)
	c.freeTo(mark)
	return nil
}

// compileTimeoutInto runs Body as a protected+timed call (Call flag 2); the
// VM checks Duration against wall-clock elapsed time at each Loop back-edge
// inside the callee (Open Question decision #2), returning Err("timeout")
// if exceeded.
func (c *Compiler) compileTimeoutInto(s *ast.TimeoutBlockStatement, dst uint8) error {
	line := s.Span().Line
	mark := c.mark()
	closReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileLambda(nil, s.Body, "<timeout>", closReg); err != nil {
		return err
	}
	durReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(s.Duration, durReg); err != nil {
		return err
	}
	// Call flag 2: protected + deadline-checked, duration passed as arg0.
	c.emit(OpCall, closReg, 1, 2, line)
	if closReg != dst {
		c.emit(OpMove, dst, closReg, 0, line)
	}
	c.freeTo(mark)
	return nil
}

// compileRetryInto retries Body up to Count times while it yields an
// Err-variant Result, binding dst to the first Ok or the final Err (Open
// Question decision #2).
func (c *Compiler) compileRetryInto(s *ast.RetryBlockStatement, dst uint8) error {
	line := s.Span().Line
	mark := c.mark()
	closReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileLambda(nil, s.Body, "<retry>", closReg); err != nil {
		return err
	}
	remainingReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	if err := c.compileExpression(s.Count, remainingReg); err != nil {
		return err
	}

	headIP := len(c.fs.chunk.Code)
	innerMark := c.mark()
	callReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emit(OpMove, callReg, closReg, 0, line)
	c.emit(OpCall, callReg, 0, 1, line)

	isErrReg, err := c.resultVariantEq(callReg, "Err", line)
	if err != nil {
		return err
	}
	doneAt := c.emitASBx(OpJumpIfFalse, isErrReg, 0, line) // Ok -> done

	oneConst := c.fs.chunk.AddIntConstant(1)
	oneReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emitABx(OpLoadConst, oneReg, oneConst, line)
	c.emit(OpSub, remainingReg, remainingReg, oneReg, line)

	zeroConst := c.fs.chunk.AddIntConstant(0)
	zeroReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emitABx(OpLoadConst, zeroReg, zeroConst, line)
	haveMoreReg, err := c.allocRegister()
	if err != nil {
		return err
	}
	c.emit(OpGt, haveMoreReg, remainingReg, zeroReg, line)
	exhaustedAt := c.emitASBx(OpJumpIfFalse, haveMoreReg, 0, line)

	backOffset := headIP - (len(c.fs.chunk.Code) + 1)
	c.emitASBx(OpLoop, 0, int16(backOffset), line)

	c.fs.chunk.PatchJump(exhaustedAt)
	c.fs.chunk.PatchJump(doneAt)
	c.emit(OpMove, dst, callReg, 0, line)
	c.freeTo(innerMark)
	c.freeTo(mark)
	return nil
}
