// Package vm implements the register-based bytecode machine (spec §3.4,
// §4.4): a tagged Value union over a mark-sweep managed heap, call frames
// sliced out of a flat register array, and a dispatch loop over
// internal/compiler's instruction encoding. Structure and naming follow
// funvibe-funxy's internal/vm package; the heap/Value representation is
// ported from original_source/src/vm/value.rs since spec.md pins Value's
// exact variant set.
package vm

import (
	"fmt"
	"math"
)

// ValueKind tags a Value's active variant.
type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindFloat
	KindBool
	KindNull
	KindObj
)

// Value is the tagged runtime value every register holds (spec §3.4).
type Value struct {
	Kind ValueKind
	I    int64
	F    float64
	B    bool
	Obj  GcRef
}

func IntValue(i int64) Value   { return Value{Kind: KindInt, I: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, F: f} }
func BoolValue(b bool) Value   { return Value{Kind: KindBool, B: b} }
func NullValue() Value         { return Value{Kind: KindNull} }
func ObjValue(r GcRef) Value   { return Value{Kind: KindObj, Obj: r} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindNull:
		return false
	case KindInt:
		return v.I != 0
	case KindFloat:
		return v.F != 0
	default:
		return true
	}
}

func (v Value) TypeName(h *Heap) string {
	switch v.Kind {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindNull:
		return "Null"
	case KindObj:
		obj := h.Get(v.Obj)
		if obj == nil {
			return "Object"
		}
		return obj.Kind.String()
	}
	return "Unknown"
}

// ObjKind tags a heap object's shape (spec §3.4).
type ObjKind uint8

const (
	ObjString ObjKind = iota
	ObjArray
	ObjObject
	ObjFunction
	ObjClosure
	ObjNativeFunction
	ObjUpvalue
)

func (k ObjKind) String() string {
	switch k {
	case ObjString:
		return "String"
	case ObjArray:
		return "Array"
	case ObjObject:
		return "Object"
	case ObjFunction:
		return "Function"
	case ObjClosure:
		return "Closure"
	case ObjNativeFunction:
		return "NativeFunction"
	case ObjUpvalue:
		return "Upvalue"
	}
	return "Unknown"
}

// Object is one heap-allocated value. Only the field matching Kind is live.
type Object struct {
	Kind ObjKind

	Str   string
	Arr   []Value
	Flds  map[string]Value
	Proto *Prototype     // ObjFunction
	Clo   *Closure       // ObjClosure
	Nat   NativeFunc     // ObjNativeFunction
	Up    *Upvalue       // ObjUpvalue

	marked bool
}

// Prototype is an executable function body: a thin runtime wrapper around a
// *compiler.Chunk (kept as an opaque pointer here to avoid a dependency
// cycle; machine.go populates it from compiler.Chunk at load time).
type Prototype struct {
	Name         string
	Arity        int
	Code         []uint32
	Constants    []Value
	Lines        []int
	MaxRegisters int
	UpvalueInfo  []UpvalueInfo
	Prototypes   []*Prototype
}

type UpvalueInfo struct {
	FromParentLocal bool
	Index           int
}

// Closure pairs a Prototype with its captured upvalues.
type Closure struct {
	Proto    *Prototype
	Upvalues []*Upvalue
}

// Upvalue is a boxed cell shared between closures capturing the same
// binding (spec §3.4/§4.3.3).
type Upvalue struct {
	Value Value
}

// NativeFunc is a host/builtin function exposed to bytecode (spec §4.6).
type NativeFunc func(m *Machine, args []Value) (Value, error)

// Equal implements structural equality for ==/!= (spec §4.4.4): deep for
// arrays/objects by value, identity for closures/native functions.
func Equal(h *Heap, a, b Value) bool {
	if a.Kind != b.Kind {
		// Int/Float cross-kind comparisons are never equal by design: the
		// language keeps Int and Float as distinct tags (spec §3.4).
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.I == b.I
	case KindFloat:
		return a.F == b.F
	case KindBool:
		return a.B == b.B
	case KindNull:
		return true
	case KindObj:
		return objEqual(h, h.Get(a.Obj), h.Get(b.Obj))
	}
	return false
}

func objEqual(h *Heap, a, b *Object) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ObjString:
		return a.Str == b.Str
	case ObjArray:
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !Equal(h, a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	case ObjObject:
		if len(a.Flds) != len(b.Flds) {
			return false
		}
		for k, v := range a.Flds {
			ov, ok := b.Flds[k]
			if !ok || !Equal(h, v, ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ToString renders v for Concat/Interpolate/say-family builtins.
func ToString(h *Heap, v Value) string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		if math.IsInf(v.F, 1) {
			return "inf"
		}
		if math.IsInf(v.F, -1) {
			return "-inf"
		}
		return fmt.Sprintf("%g", v.F)
	case KindBool:
		return fmt.Sprintf("%t", v.B)
	case KindNull:
		return "null"
	case KindObj:
		obj := h.Get(v.Obj)
		if obj == nil {
			return "<freed>"
		}
		switch obj.Kind {
		case ObjString:
			return obj.Str
		case ObjArray:
			parts := make([]string, len(obj.Arr))
			for i, el := range obj.Arr {
				parts[i] = ToString(h, el)
			}
			return "[" + joinComma(parts) + "]"
		case ObjObject:
			return objectToString(h, obj)
		case ObjClosure, ObjFunction:
			return "<function>"
		case ObjNativeFunction:
			return "<native function>"
		default:
			return "<object>"
		}
	}
	return "?"
}

func objectToString(h *Heap, obj *Object) string {
	if variant, ok := obj.Flds["__variant__"]; ok && variant.Kind == KindObj {
		name := ToString(h, variant)
		var fields []string
		for i := 0; ; i++ {
			f, ok := obj.Flds[itoaSmall(i)]
			if !ok {
				break
			}
			fields = append(fields, ToString(h, f))
		}
		return name + "(" + joinComma(fields) + ")"
	}
	parts := make([]string, 0, len(obj.Flds))
	for k, v := range obj.Flds {
		if k == "__type__" || k == "__variant__" {
			continue
		}
		parts = append(parts, k+": "+ToString(h, v))
	}
	return "{" + joinComma(parts) + "}"
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func itoaSmall(i int) string {
	digits := "0123456789"
	if i < 10 && i >= 0 {
		return string(digits[i])
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf []byte
	for i > 0 {
		buf = append([]byte{digits[i%10]}, buf...)
		i /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}
