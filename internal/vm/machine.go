package vm

import (
	"fmt"
	"time"

	"github.com/forgelang/forge/internal/compiler"
)

// Machine is the register VM (spec §4.4): a flat register array sliced into
// per-call windows, a mark-sweep Heap, and a global table shared by every
// loaded chunk. One Machine corresponds to one embedded script instance
// (pkg/embed wraps exactly one).
type Machine struct {
	heap      *Heap
	registers []Value
	frames    []*Frame
	globals   map[string]Value

	out func(string)
}

func New() *Machine {
	return NewWithHeap(NewHeap())
}

// NewWithHeap builds a Machine over a caller-provided Heap, letting an
// embedder tune GC pressure via vm.NewHeapWithThreshold (wired from
// config.Runtime.GCInitialThreshold) before any code runs.
func NewWithHeap(h *Heap) *Machine {
	m := &Machine{
		heap:      h,
		registers: make([]Value, maxRegisters),
		globals:   map[string]Value{},
		out:       func(s string) { fmt.Println(s) },
	}
	m.installBuiltins()
	return m
}

// SetStdout overrides where say/yell/whisper write (pkg/embed wires this to
// the host's own writer).
func (m *Machine) SetStdout(fn func(string)) { m.out = fn }
func (m *Machine) Stdout(s string)           { m.out(s) }

func (m *Machine) SetGlobal(name string, v Value) { m.globals[name] = v }
func (m *Machine) GetGlobal(name string) (Value, bool) {
	v, ok := m.globals[name]
	return v, ok
}

func (m *Machine) Heap() *Heap { return m.heap }

// Load converts a compiled *compiler.Chunk tree into a runtime *Prototype
// tree, interning string/number constants onto the Machine's heap.
func (m *Machine) Load(chunk *compiler.Chunk) *Prototype {
	proto := &Prototype{
		Name:         chunk.Name,
		Arity:        chunk.Arity,
		Code:         chunk.Code,
		Lines:        chunk.Lines,
		MaxRegisters: chunk.MaxRegisters,
	}
	for _, uv := range chunk.UpvalueSources {
		proto.UpvalueInfo = append(proto.UpvalueInfo, UpvalueInfo{FromParentLocal: uv.FromParentLocal, Index: uv.Index})
	}
	for _, k := range chunk.Constants {
		proto.Constants = append(proto.Constants, m.constantToValue(k))
	}
	for _, child := range chunk.Prototypes {
		proto.Prototypes = append(proto.Prototypes, m.Load(child))
	}
	return proto
}

func (m *Machine) constantToValue(k compiler.Constant) Value {
	switch k.Kind {
	case compiler.ConstInt:
		return IntValue(k.I)
	case compiler.ConstFloat:
		return FloatValue(k.F)
	case compiler.ConstBool:
		return BoolValue(k.B)
	case compiler.ConstNull:
		return NullValue()
	case compiler.ConstString:
		return m.heap.NewString(k.S)
	}
	return NullValue()
}

// Run executes proto as the program's entry point (the "<main>" chunk), with
// no captured upvalues.
func (m *Machine) Run(proto *Prototype) (Value, error) {
	clo := &Closure{Proto: proto}
	return m.invoke(m.heap.NewClosure(clo), nil, false, false, 0)
}

// invoke calls callee (a Closure or NativeFunction value) with args,
// optionally guarding the call per the protected/timeout calling convention
// (OpCall's C operand; spec decisions recorded in DESIGN.md).
// Invoke exposes invoke to other in-module packages (internal/treewalk's
// CallExpr evaluation, internal/modules' native registrations calling back
// into Forge closures for callback-style APIs).
func (m *Machine) Invoke(callee Value, args []Value) (Value, error) {
	return m.invoke(callee, args, false, false, 0)
}

func (m *Machine) invoke(callee Value, args []Value, protected, withDeadline bool, durationSeconds float64) (Value, error) {
	if callee.Kind != KindObj {
		return NullValue(), m.newError("attempt to call a non-function value")
	}
	obj := m.heap.Get(callee.Obj)
	if obj == nil {
		return NullValue(), m.newError("attempt to call a freed value")
	}

	var result Value
	var err error
	switch obj.Kind {
	case ObjNativeFunction:
		result, err = obj.Nat(m, args)
	case ObjClosure:
		result, err = m.callClosure(obj.Clo, args, withDeadline, durationSeconds)
	default:
		return NullValue(), m.newError("attempt to call a %s value", obj.Kind)
	}

	if !protected {
		return result, err
	}
	if err != nil {
		if rerr, ok := err.(*RuntimeError); ok {
			return m.newResult("Err", m.heap.NewString(rerr.Message)), nil
		}
		return m.newResult("Err", m.heap.NewString(err.Error())), nil
	}
	return m.newResult("Ok", result), nil
}

func (m *Machine) newResult(variant string, payload Value) Value {
	v, obj := m.heap.NewObject()
	obj.Flds["__type__"] = m.heap.NewString("Result")
	obj.Flds["__variant__"] = m.heap.NewString(variant)
	obj.Flds["0"] = payload
	return v
}

func (m *Machine) callClosure(clo *Closure, args []Value, withDeadline bool, durationSeconds float64) (Value, error) {
	return m.callClosureTiered(clo, args, withDeadline, durationSeconds, false)
}

// InvokeHot is callClosure's internal/jit entry point: skipGC is true only
// once the type pre-pass (jit.IsHeapFree) has proven proto's bytecode
// contains no HeapTouching instruction, so it is safe to skip this call's
// GC-pressure check entirely (spec §4.5's promoted-function fast path).
func (m *Machine) InvokeHot(callee Value, args []Value) (Value, error) {
	if callee.Kind != KindObj {
		return NullValue(), m.newError("attempt to call a non-function value")
	}
	obj := m.heap.Get(callee.Obj)
	if obj == nil || obj.Kind != ObjClosure {
		return m.Invoke(callee, args)
	}
	return m.callClosureTiered(obj.Clo, args, false, 0, true)
}

func (m *Machine) callClosureTiered(clo *Closure, args []Value, withDeadline bool, durationSeconds float64, skipGC bool) (Value, error) {
	if len(m.frames) >= maxFrames {
		return NullValue(), m.newError("stack overflow: exceeded %d nested calls", maxFrames)
	}
	base := len(m.frames) * frameStride
	frame := newFrame(clo, base)
	for i := 0; i < clo.Proto.Arity && i < len(args); i++ {
		m.registers[base+i] = args[i]
	}
	for i := len(args); i < clo.Proto.Arity; i++ {
		m.registers[base+i] = NullValue()
	}
	if withDeadline {
		frame.HasDeadline = true
		frame.Deadline = time.Now().Add(time.Duration(durationSeconds * float64(time.Second)))
	}
	m.frames = append(m.frames, frame)
	defer func() { m.frames = m.frames[:len(m.frames)-1] }()

	if !skipGC && m.heap.ShouldCollect() {
		m.heap.Collect(m.liveRoots())
	}
	return m.run(frame)
}

// liveRoots returns every register currently in scope across all active
// frames, for the GC's mark phase (spec §4.4.5).
func (m *Machine) liveRoots() []Value {
	if len(m.frames) == 0 {
		return nil
	}
	top := m.frames[len(m.frames)-1]
	hi := top.Base + frameStride
	roots := append([]Value{}, m.registers[:hi]...)
	for name := range m.globals {
		roots = append(roots, m.globals[name])
	}
	for _, f := range m.frames {
		if f.Closure != nil {
			for _, up := range f.Closure.Upvalues {
				if up != nil {
					roots = append(roots, up.Value)
				}
			}
		}
	}
	return roots
}

// run executes frame's bytecode to completion, returning its Return/ReturnNull
// value.
func (m *Machine) run(frame *Frame) (Value, error) {
	proto := frame.Closure.Proto
	regs := m.registers
	base := frame.Base

	for {
		if frame.IP >= len(proto.Code) {
			return NullValue(), nil
		}
		instr := proto.Code[frame.IP]
		op := compiler.DecodeOp(instr)
		a := compiler.DecodeA(instr)
		b := compiler.DecodeB(instr)
		cc := compiler.DecodeC(instr)
		frame.IP++

		switch op {
		case compiler.OpLoadConst:
			regs[base+int(a)] = proto.Constants[compiler.DecodeBx(instr)]
		case compiler.OpLoadNull:
			regs[base+int(a)] = NullValue()
		case compiler.OpLoadTrue:
			regs[base+int(a)] = BoolValue(true)
		case compiler.OpLoadFalse:
			regs[base+int(a)] = BoolValue(false)
		case compiler.OpMove:
			regs[base+int(a)] = regs[base+int(b)]

		case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpMod:
			v, err := m.arith(op, regs[base+int(b)], regs[base+int(cc)])
			if err != nil {
				return NullValue(), err
			}
			regs[base+int(a)] = v
		case compiler.OpNeg:
			v := regs[base+int(b)]
			switch v.Kind {
			case KindInt:
				regs[base+int(a)] = IntValue(-v.I)
			case KindFloat:
				regs[base+int(a)] = FloatValue(-v.F)
			default:
				return NullValue(), m.newError("cannot negate a %s value", v.TypeName(m.heap))
			}

		case compiler.OpEq:
			regs[base+int(a)] = BoolValue(Equal(m.heap, regs[base+int(b)], regs[base+int(cc)]))
		case compiler.OpNotEq:
			regs[base+int(a)] = BoolValue(!Equal(m.heap, regs[base+int(b)], regs[base+int(cc)]))
		case compiler.OpLt, compiler.OpGt, compiler.OpLtEq, compiler.OpGtEq:
			v, err := m.compare(op, regs[base+int(b)], regs[base+int(cc)])
			if err != nil {
				return NullValue(), err
			}
			regs[base+int(a)] = v
		case compiler.OpAnd:
			regs[base+int(a)] = BoolValue(regs[base+int(b)].Truthy() && regs[base+int(cc)].Truthy())
		case compiler.OpOr:
			regs[base+int(a)] = BoolValue(regs[base+int(b)].Truthy() || regs[base+int(cc)].Truthy())
		case compiler.OpNot:
			regs[base+int(a)] = BoolValue(!regs[base+int(b)].Truthy())

		case compiler.OpGetGlobal:
			name := proto.Constants[compiler.DecodeBx(instr)]
			v, ok := m.globals[m.heap.Get(name.Obj).Str]
			if !ok {
				return NullValue(), m.newError("undefined name %q", m.heap.Get(name.Obj).Str)
			}
			regs[base+int(a)] = v
		case compiler.OpSetGlobal:
			name := proto.Constants[compiler.DecodeBx(instr)]
			m.globals[m.heap.Get(name.Obj).Str] = regs[base+int(a)]

		case compiler.OpJump:
			frame.IP += int(compiler.DecodeSBx(instr))
		case compiler.OpJumpIfFalse:
			if !regs[base+int(a)].Truthy() {
				frame.IP += int(compiler.DecodeSBx(instr))
			}
		case compiler.OpJumpIfTrue:
			if regs[base+int(a)].Truthy() {
				frame.IP += int(compiler.DecodeSBx(instr))
			}
		case compiler.OpLoop:
			if frame.HasDeadline && time.Now().After(frame.Deadline) {
				return NullValue(), m.newError("timeout")
			}
			frame.IP += int(compiler.DecodeSBx(instr))

		case compiler.OpCall:
			callee := regs[base+int(a)]
			argc := int(b)
			args := make([]Value, argc)
			copy(args, regs[base+int(a)+1:base+int(a)+1+argc])
			flag := cc
			var result Value
			var err error
			switch flag {
			case 0:
				result, err = m.invoke(callee, args, false, false, 0)
			case 1:
				result, err = m.invoke(callee, args, true, false, 0)
			case 2:
				dur := 0.0
				if argc > 0 && args[0].Kind == KindInt {
					dur = float64(args[0].I)
				} else if argc > 0 && args[0].Kind == KindFloat {
					dur = args[0].F
				}
				result, err = m.invoke(callee, args, true, true, dur)
			}
			if err != nil {
				return NullValue(), err
			}
			regs[base+int(a)] = result

		case compiler.OpReturn:
			return regs[base+int(a)], nil
		case compiler.OpReturnNull:
			return NullValue(), nil

		case compiler.OpClosure:
			childProto := proto.Prototypes[compiler.DecodeBx(instr)]
			clo := &Closure{Proto: childProto}
			for _, info := range childProto.UpvalueInfo {
				if info.FromParentLocal {
					clo.Upvalues = append(clo.Upvalues, m.captureLocal(frame, info.Index))
				} else {
					clo.Upvalues = append(clo.Upvalues, frame.Closure.Upvalues[info.Index])
				}
			}
			regs[base+int(a)] = m.heap.NewClosure(clo)
		case compiler.OpGetUpvalue:
			regs[base+int(a)] = frame.Closure.Upvalues[b].Value
		case compiler.OpSetUpvalue:
			frame.Closure.Upvalues[b].Value = regs[base+int(a)]

		case compiler.OpNewArray:
			regs[base+int(a)] = m.heap.NewArray(nil)
		case compiler.OpNewObject:
			v, _ := m.heap.NewObject()
			regs[base+int(a)] = v
		case compiler.OpGetField:
			obj := m.heap.Get(regs[base+int(b)].Obj)
			if obj == nil || obj.Kind != ObjObject {
				return NullValue(), m.newError("cannot access a field on a %s value", regs[base+int(b)].TypeName(m.heap))
			}
			key := m.heap.Get(proto.Constants[cc].Obj).Str
			if v, ok := obj.Flds[key]; ok {
				regs[base+int(a)] = v
			} else {
				regs[base+int(a)] = NullValue()
			}
		case compiler.OpSetField:
			obj := m.heap.Get(regs[base+int(a)].Obj)
			if obj == nil || obj.Kind != ObjObject {
				return NullValue(), m.newError("cannot set a field on a %s value", regs[base+int(a)].TypeName(m.heap))
			}
			key := m.heap.Get(proto.Constants[b].Obj).Str
			obj.Flds[key] = regs[base+int(cc)]
		case compiler.OpGetIndex:
			v, err := m.getIndex(regs[base+int(b)], regs[base+int(cc)])
			if err != nil {
				return NullValue(), err
			}
			regs[base+int(a)] = v
		case compiler.OpSetIndex:
			if err := m.setIndex(regs[base+int(a)], regs[base+int(b)], regs[base+int(cc)]); err != nil {
				return NullValue(), err
			}

		case compiler.OpConcat:
			s := ToString(m.heap, regs[base+int(b)]) + ToString(m.heap, regs[base+int(cc)])
			regs[base+int(a)] = m.heap.NewString(s)
		case compiler.OpInterpolate:
			s := ""
			for i := 0; i < int(cc); i++ {
				s += ToString(m.heap, regs[base+int(b)+i])
			}
			regs[base+int(a)] = m.heap.NewString(s)
		case compiler.OpLen:
			v, err := builtinLen(m, []Value{regs[base+int(b)]})
			if err != nil {
				return NullValue(), err
			}
			regs[base+int(a)] = v

		case compiler.OpTry:
			obj := m.heap.Get(regs[base+int(a)].Obj)
			typeObj := typeField(m.heap, obj)
			if obj == nil || obj.Kind != ObjObject || typeObj == nil || typeObj.Str != "Result" {
				return NullValue(), m.newError("Try requires a Result")
			}
			variantObj := m.heap.Get(obj.Flds["__variant__"].Obj)
			if variantObj != nil && variantObj.Str == "Err" {
				return regs[base+int(a)], nil
			}
			regs[base+int(a)] = obj.Flds["0"]
		case compiler.OpSpawn:
			if _, err := m.invoke(regs[base+int(a)], nil, false, false, 0); err != nil {
				return NullValue(), err
			}
		case compiler.OpExtractField:
			obj := m.heap.Get(regs[base+int(b)].Obj)
			if obj == nil {
				return NullValue(), m.newError("cannot extract a field from a non-object value")
			}
			regs[base+int(a)] = obj.Flds[itoaSmall(int(cc))]

		default:
			return NullValue(), m.newError("unimplemented opcode %s", op)
		}
	}
}

func typeField(h *Heap, obj *Object) *Object {
	if obj == nil {
		return nil
	}
	t, ok := obj.Flds["__type__"]
	if !ok || t.Kind != KindObj {
		return nil
	}
	return h.Get(t.Obj)
}

// captureLocal finds or creates the open upvalue boxing frame's register
// index, so sibling closures created from the same frame share one cell.
func (m *Machine) captureLocal(frame *Frame, index int) *Upvalue {
	if up, ok := frame.openUpvalues[index]; ok {
		return up
	}
	up := m.heap.NewUpvalue(m.registers[frame.Base+index])
	frame.openUpvalues[index] = up
	return up
}
