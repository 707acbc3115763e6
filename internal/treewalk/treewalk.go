// Package treewalk implements the tree-walk fallback backend (spec §2/§4.6):
// it evaluates a Forge *ast.Program directly against internal/vm.Value,
// without a compile step, for the cases a bytecode compile isn't worth it
// (one-shot scripts, `FORGE_BACKEND=tree forge run`, debugging a compiler
// regression by comparing its output against the reference interpreter).
// It shares internal/vm.Heap/Value/Machine for builtins and GC so a value
// built under one backend is exchangeable with the other, and mirrors
// funvibe-funxy's internal/backend.Backend split between its VM and
// tree-walk evaluator.
package treewalk

import (
	"fmt"

	"github.com/forgelang/forge/internal/ast"
	"github.com/forgelang/forge/internal/compiler"
	"github.com/forgelang/forge/internal/decorator"
	"github.com/forgelang/forge/internal/vm"
)

// Interpreter walks an *ast.Program against a shared *vm.Machine (heap,
// globals, natives) rather than a compiled chunk.
type Interpreter struct {
	m *vm.Machine
}

// New builds an Interpreter sharing m's heap, globals, and native builtins.
func New(m *vm.Machine) *Interpreter {
	return &Interpreter{m: m}
}

// environment is a lexical scope chain of Forge bindings.
type environment struct {
	vars   map[string]vm.Value
	parent *environment
}

func newEnv(parent *environment) *environment {
	return &environment{vars: map[string]vm.Value{}, parent: parent}
}

func (e *environment) get(name string) (vm.Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return vm.Value{}, false
}

func (e *environment) set(name string, v vm.Value) {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}

func (e *environment) define(name string, v vm.Value) { e.vars[name] = v }

// control-flow signals, carried as Go errors so every statement evaluator
// can just propagate err upward without a separate return channel.
type breakSignal struct{}
type continueSignal struct{}
type returnSignal struct{ value vm.Value }

func (breakSignal) Error() string    { return "break outside a loop" }
func (continueSignal) Error() string { return "continue outside a loop" }
func (returnSignal) Error() string   { return "return outside a function" }

// Run evaluates prog top to bottom in a fresh global environment, returning
// the value of the last expression statement (spec §4.3.1's block-value
// convention, same as the compiler's compileBlockInto).
func (in *Interpreter) Run(prog *ast.Program) (vm.Value, error) {
	env := newEnv(nil)
	var last vm.Value
	for _, stmt := range prog.Statements {
		v, err := in.evalStatement(stmt, env)
		if err != nil {
			if rs, ok := err.(returnSignal); ok {
				return rs.value, nil
			}
			return vm.NullValue(), err
		}
		last = v
	}
	return last, nil
}

func (in *Interpreter) evalStatement(stmt ast.Statement, env *environment) (vm.Value, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return in.eval(s.Expr, env)
	case *ast.LetStatement:
		v, err := in.eval(s.Value, env)
		if err != nil {
			return vm.Value{}, err
		}
		if s.Destructure != nil {
			return vm.NullValue(), in.bindDestructure(s.Destructure, v, env)
		}
		env.define(s.Name, v)
		return vm.NullValue(), nil
	case *ast.AssignStatement:
		return in.evalAssign(s, env)
	case *ast.BlockStatement:
		return in.evalBlock(s, newEnv(env))
	case *ast.IfStatement:
		return in.evalIf(s, env)
	case *ast.WhileStatement:
		return vm.NullValue(), in.evalWhile(s, env)
	case *ast.ForStatement:
		return vm.NullValue(), in.evalFor(s, env)
	case *ast.LoopStatement:
		return vm.NullValue(), in.evalLoop(s, env)
	case *ast.BreakStatement:
		return vm.Value{}, breakSignal{}
	case *ast.ContinueStatement:
		return vm.Value{}, continueSignal{}
	case *ast.ReturnStatement:
		var v vm.Value
		if s.Value != nil {
			var err error
			v, err = in.eval(s.Value, env)
			if err != nil {
				return vm.Value{}, err
			}
		} else {
			v = vm.NullValue()
		}
		return vm.Value{}, returnSignal{value: v}
	case *ast.FunctionDefinition:
		fn, err := in.makeFunction(s, env)
		if err != nil {
			return vm.Value{}, err
		}
		env.define(s.Name, fn)
		return vm.NullValue(), nil
	case *ast.StructDefinition, *ast.InterfaceDefinition, *ast.TypeDefinition, *ast.ImportStatement, *ast.DecoratorStatement:
		return vm.NullValue(), nil
	default:
		return vm.Value{}, fmt.Errorf("treewalk: unsupported statement %T", stmt)
	}
}

func (in *Interpreter) evalBlock(b *ast.BlockStatement, env *environment) (vm.Value, error) {
	var last vm.Value
	for _, stmt := range b.Statements {
		v, err := in.evalStatement(stmt, env)
		if err != nil {
			return vm.Value{}, err
		}
		last = v
	}
	return last, nil
}

func (in *Interpreter) evalIf(s *ast.IfStatement, env *environment) (vm.Value, error) {
	cond, err := in.eval(s.Condition, env)
	if err != nil {
		return vm.Value{}, err
	}
	if cond.Truthy() {
		return in.evalBlock(s.Consequence, newEnv(env))
	}
	if s.Alternative != nil {
		return in.evalStatement(s.Alternative, env)
	}
	return vm.NullValue(), nil
}

func (in *Interpreter) evalWhile(s *ast.WhileStatement, env *environment) error {
	for {
		cond, err := in.eval(s.Condition, env)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}
		if _, err := in.evalBlock(s.Body, newEnv(env)); err != nil {
			if _, ok := err.(breakSignal); ok {
				return nil
			}
			if _, ok := err.(continueSignal); ok {
				continue
			}
			return err
		}
	}
}

func (in *Interpreter) evalLoop(s *ast.LoopStatement, env *environment) error {
	for {
		if _, err := in.evalBlock(s.Body, newEnv(env)); err != nil {
			if _, ok := err.(breakSignal); ok {
				return nil
			}
			if _, ok := err.(continueSignal); ok {
				continue
			}
			return err
		}
	}
}

func (in *Interpreter) evalFor(s *ast.ForStatement, env *environment) error {
	iterable, err := in.eval(s.Iterable, env)
	if err != nil {
		return err
	}
	if iterable.Kind != vm.KindObj {
		return fmt.Errorf("treewalk: for-loop expects an array")
	}
	obj := in.m.Heap().Get(iterable.Obj)
	if obj == nil || obj.Kind != vm.ObjArray {
		return fmt.Errorf("treewalk: for-loop expects an array")
	}
	for i, el := range obj.Arr {
		loopEnv := newEnv(env)
		if s.KeyName != "" {
			loopEnv.define(s.KeyName, vm.IntValue(int64(i)))
		}
		loopEnv.define(s.ValName, el)
		if _, err := in.evalBlock(s.Body, loopEnv); err != nil {
			if _, ok := err.(breakSignal); ok {
				return nil
			}
			if _, ok := err.(continueSignal); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func (in *Interpreter) evalAssign(s *ast.AssignStatement, env *environment) (vm.Value, error) {
	v, err := in.eval(s.Value, env)
	if err != nil {
		return vm.Value{}, err
	}
	if ident, ok := s.Target.(*ast.Identifier); ok {
		if s.Operator != "=" {
			cur, ok := env.get(ident.Value)
			if !ok {
				return vm.Value{}, fmt.Errorf("treewalk: undefined variable %q", ident.Value)
			}
			v, err = in.applyCompound(s.Operator, cur, v)
			if err != nil {
				return vm.Value{}, err
			}
		}
		env.set(ident.Value, v)
		return v, nil
	}
	return vm.Value{}, fmt.Errorf("treewalk: unsupported assignment target %T", s.Target)
}

func (in *Interpreter) applyCompound(op string, cur, rhs vm.Value) (vm.Value, error) {
	switch op {
	case "+=":
		return in.m.Arith(compiler.OpAdd, cur, rhs)
	case "-=":
		return in.m.Arith(compiler.OpSub, cur, rhs)
	case "*=":
		return in.m.Arith(compiler.OpMul, cur, rhs)
	case "/=":
		return in.m.Arith(compiler.OpDiv, cur, rhs)
	}
	return vm.Value{}, fmt.Errorf("treewalk: unsupported compound operator %s", op)
}

func (in *Interpreter) bindDestructure(p *ast.DestructurePattern, v vm.Value, env *environment) error {
	if v.Kind != vm.KindObj {
		return fmt.Errorf("treewalk: cannot destructure a %s value", v.TypeName(in.m.Heap()))
	}
	obj := in.m.Heap().Get(v.Obj)
	if obj == nil {
		return fmt.Errorf("treewalk: cannot destructure a freed value")
	}
	if p.IsArray {
		if obj.Kind != vm.ObjArray {
			return fmt.Errorf("treewalk: array destructuring expects an array")
		}
		for i, name := range p.Names {
			if i < len(obj.Arr) {
				env.define(name, obj.Arr[i])
			} else {
				env.define(name, vm.NullValue())
			}
		}
		if p.HasRest {
			rest := obj.Arr[min(len(p.Names), len(obj.Arr)):]
			env.define(p.Rest, in.m.Heap().NewArray(append([]vm.Value(nil), rest...)))
		}
		return nil
	}
	if obj.Kind != vm.ObjObject {
		return fmt.Errorf("treewalk: object destructuring expects an object")
	}
	for _, name := range p.Names {
		if fv, ok := obj.Flds[name]; ok {
			env.define(name, fv)
		} else {
			env.define(name, vm.NullValue())
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// eval evaluates expr to a vm.Value. It covers the core expression forms
// (spec §3.2); pattern-matching and the try/safe/timeout/retry block
// expressions are VM-only (internal/compiler's codegen for those is
// substantially more involved than this fallback backend is worth
// duplicating) and report an explicit unsupported error instead of
// silently misbehaving.
func (in *Interpreter) eval(expr ast.Expression, env *environment) (vm.Value, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return vm.IntValue(e.Value), nil
	case *ast.FloatLiteral:
		return vm.FloatValue(e.Value), nil
	case *ast.BooleanLiteral:
		return vm.BoolValue(e.Value), nil
	case *ast.NullLiteral:
		return vm.NullValue(), nil
	case *ast.StringLiteral:
		return in.m.Heap().NewString(e.Value), nil
	case *ast.InterpolatedString:
		var b []byte
		for _, p := range e.Parts {
			if p.Expr == nil {
				b = append(b, p.Lit...)
				continue
			}
			v, err := in.eval(p.Expr, env)
			if err != nil {
				return vm.Value{}, err
			}
			b = append(b, vm.ToString(in.m.Heap(), v)...)
		}
		return in.m.Heap().NewString(string(b)), nil
	case *ast.Identifier:
		if v, ok := env.get(e.Value); ok {
			return v, nil
		}
		if v, ok := in.m.GetGlobal(e.Value); ok {
			return v, nil
		}
		return vm.Value{}, fmt.Errorf("treewalk: undefined identifier %q", e.Value)
	case *ast.ArrayLiteral:
		out := make([]vm.Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := in.eval(el, env)
			if err != nil {
				return vm.Value{}, err
			}
			out[i] = v
		}
		return in.m.Heap().NewArray(out), nil
	case *ast.ObjectLiteral:
		ref, obj := in.m.Heap().NewObject()
		for _, p := range e.Pairs {
			key, err := in.objectKey(p.Key, env)
			if err != nil {
				return vm.Value{}, err
			}
			v, err := in.eval(p.Value, env)
			if err != nil {
				return vm.Value{}, err
			}
			obj.Flds[key] = v
		}
		return ref, nil
	case *ast.StructLiteral:
		ref, obj := in.m.Heap().NewObject()
		obj.Flds["__type__"] = in.m.Heap().NewString(e.Name)
		for _, p := range e.Pairs {
			key, err := in.objectKey(p.Key, env)
			if err != nil {
				return vm.Value{}, err
			}
			v, err := in.eval(p.Value, env)
			if err != nil {
				return vm.Value{}, err
			}
			obj.Flds[key] = v
		}
		return ref, nil
	case *ast.PrefixExpr:
		return in.evalPrefix(e, env)
	case *ast.InfixExpr:
		return in.evalInfix(e, env)
	case *ast.PipeExpr:
		fn, err := in.eval(e.Func, env)
		if err != nil {
			return vm.Value{}, err
		}
		arg, err := in.eval(e.Value, env)
		if err != nil {
			return vm.Value{}, err
		}
		return in.m.Invoke(fn, []vm.Value{arg})
	case *ast.FieldAccessExpr:
		obj, err := in.eval(e.Object, env)
		if err != nil {
			return vm.Value{}, err
		}
		return in.m.GetIndex(obj, in.m.Heap().NewString(e.Field))
	case *ast.IndexExpr:
		left, err := in.eval(e.Left, env)
		if err != nil {
			return vm.Value{}, err
		}
		idx, err := in.eval(e.Index, env)
		if err != nil {
			return vm.Value{}, err
		}
		return in.m.GetIndex(left, idx)
	case *ast.CallExpr:
		fn, err := in.eval(e.Function, env)
		if err != nil {
			return vm.Value{}, err
		}
		args, err := in.evalArgs(e.Args, env)
		if err != nil {
			return vm.Value{}, err
		}
		return in.m.Invoke(fn, args)
	case *ast.MethodCallExpr:
		recv, err := in.eval(e.Receiver, env)
		if err != nil {
			return vm.Value{}, err
		}
		fn, ok := in.m.GetGlobal(e.Method)
		if !ok {
			return vm.Value{}, fmt.Errorf("treewalk: undefined method %q", e.Method)
		}
		args, err := in.evalArgs(e.Args, env)
		if err != nil {
			return vm.Value{}, err
		}
		return in.m.Invoke(fn, append([]vm.Value{recv}, args...))
	case *ast.LambdaExpr:
		return in.makeFunction(&ast.FunctionDefinition{Params: e.Params, Body: e.Body}, env)
	case *ast.BlockExpr:
		return in.evalBlock(e.Block, newEnv(env))
	default:
		return vm.Value{}, fmt.Errorf("treewalk: unsupported expression %T in tree-walk backend", expr)
	}
}

func (in *Interpreter) objectKey(key ast.Expression, env *environment) (string, error) {
	if ident, ok := key.(*ast.Identifier); ok {
		return ident.Value, nil
	}
	v, err := in.eval(key, env)
	if err != nil {
		return "", err
	}
	return vm.ToString(in.m.Heap(), v), nil
}

func (in *Interpreter) evalArgs(args []ast.Expression, env *environment) ([]vm.Value, error) {
	out := make([]vm.Value, len(args))
	for i, a := range args {
		v, err := in.eval(a, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (in *Interpreter) evalPrefix(e *ast.PrefixExpr, env *environment) (vm.Value, error) {
	v, err := in.eval(e.Right, env)
	if err != nil {
		return vm.Value{}, err
	}
	switch e.Operator {
	case "-":
		switch v.Kind {
		case vm.KindInt:
			return vm.IntValue(-v.I), nil
		case vm.KindFloat:
			return vm.FloatValue(-v.F), nil
		}
		return vm.Value{}, fmt.Errorf("treewalk: cannot negate a %s value", v.TypeName(in.m.Heap()))
	case "!":
		return vm.BoolValue(!v.Truthy()), nil
	}
	return vm.Value{}, fmt.Errorf("treewalk: unsupported prefix operator %s", e.Operator)
}

func (in *Interpreter) evalInfix(e *ast.InfixExpr, env *environment) (vm.Value, error) {
	if e.Operator == "&&" {
		l, err := in.eval(e.Left, env)
		if err != nil {
			return vm.Value{}, err
		}
		if !l.Truthy() {
			return l, nil
		}
		return in.eval(e.Right, env)
	}
	if e.Operator == "||" {
		l, err := in.eval(e.Left, env)
		if err != nil {
			return vm.Value{}, err
		}
		if l.Truthy() {
			return l, nil
		}
		return in.eval(e.Right, env)
	}
	l, err := in.eval(e.Left, env)
	if err != nil {
		return vm.Value{}, err
	}
	r, err := in.eval(e.Right, env)
	if err != nil {
		return vm.Value{}, err
	}
	switch e.Operator {
	case "+", "-", "*", "/", "%":
		return in.m.Arith(arithOp(e.Operator), l, r)
	case "<", ">", "<=", ">=":
		return in.m.Compare(compareOp(e.Operator), l, r)
	case "==":
		return vm.BoolValue(vm.Equal(in.m.Heap(), l, r)), nil
	case "!=":
		return vm.BoolValue(!vm.Equal(in.m.Heap(), l, r)), nil
	}
	return vm.Value{}, fmt.Errorf("treewalk: unsupported infix operator %s", e.Operator)
}

func arithOp(op string) compiler.OpCode {
	switch op {
	case "+":
		return compiler.OpAdd
	case "-":
		return compiler.OpSub
	case "*":
		return compiler.OpMul
	case "/":
		return compiler.OpDiv
	default:
		return compiler.OpMod
	}
}

func compareOp(op string) compiler.OpCode {
	switch op {
	case "<":
		return compiler.OpLt
	case ">":
		return compiler.OpGt
	case "<=":
		return compiler.OpLtEq
	default:
		return compiler.OpGtEq
	}
}

// makeFunction wraps a tree-walk closure (params + body + defining
// environment) as a vm.NativeFunc so it slots into the same call path as
// any other callable Value, and is indistinguishable to `type()`/equality
// from a host-registered builtin.
func (in *Interpreter) makeFunction(fn *ast.FunctionDefinition, defEnv *environment) (vm.Value, error) {
	body, err := decorator.Apply(fn)
	if err != nil {
		return vm.Value{}, err
	}
	params := fn.Params
	return in.m.Heap().NewNative(func(m *vm.Machine, args []vm.Value) (vm.Value, error) {
		callEnv := newEnv(defEnv)
		for i, p := range params {
			if i < len(args) {
				callEnv.define(p.Name, args[i])
			} else {
				callEnv.define(p.Name, vm.NullValue())
			}
		}
		v, err := in.evalBlock(body, callEnv)
		if err != nil {
			if rs, ok := err.(returnSignal); ok {
				return rs.value, nil
			}
			return vm.Value{}, err
		}
		return v, nil
	}), nil
}
