package vm

import (
	"math"
	"math/bits"

	"github.com/forgelang/forge/internal/compiler"
)

// arith implements Add/Sub/Mul/Div/Mod. Int+Int stays Int unless the result
// overflows 64 bits, in which case it promotes to Float (Open Question
// decision #3 in DESIGN.md); any Float operand promotes the whole
// computation to Float.
// Arith exposes arith to other in-module packages (internal/treewalk's
// compound-assignment desugaring) that need the same Int/Float promotion
// rules without duplicating them.
func (m *Machine) Arith(op compiler.OpCode, l, r Value) (Value, error) {
	return m.arith(op, l, r)
}

func (m *Machine) arith(op compiler.OpCode, l, r Value) (Value, error) {
	if l.Kind == KindInt && r.Kind == KindInt {
		return m.arithInt(op, l.I, r.I)
	}
	lf, ok1 := asFloat(l)
	rf, ok2 := asFloat(r)
	if !ok1 || !ok2 {
		return Value{}, m.newError("cannot apply %s to %s and %s", arithName(op), l.TypeName(m.heap), r.TypeName(m.heap))
	}
	switch op {
	case compiler.OpAdd:
		return FloatValue(lf + rf), nil
	case compiler.OpSub:
		return FloatValue(lf - rf), nil
	case compiler.OpMul:
		return FloatValue(lf * rf), nil
	case compiler.OpDiv:
		if rf == 0 {
			return Value{}, m.newError("division by zero")
		}
		return FloatValue(lf / rf), nil
	case compiler.OpMod:
		if rf == 0 {
			return Value{}, m.newError("division by zero")
		}
		return FloatValue(math.Mod(lf, rf)), nil
	}
	return Value{}, m.newError("unsupported arithmetic operator")
}

func (m *Machine) arithInt(op compiler.OpCode, l, r int64) (Value, error) {
	switch op {
	case compiler.OpAdd:
		sum, _ := bits.Add64(uint64(l), uint64(r), 0)
		if overflowedAdd(l, r, int64(sum)) {
			return FloatValue(float64(l) + float64(r)), nil
		}
		return IntValue(int64(sum)), nil
	case compiler.OpSub:
		diff := l - r
		if overflowedSub(l, r, diff) {
			return FloatValue(float64(l) - float64(r)), nil
		}
		return IntValue(diff), nil
	case compiler.OpMul:
		hi, lo := bits.Mul64(absU64(l), absU64(r))
		if hi != 0 || lo > math.MaxInt64 {
			return FloatValue(float64(l) * float64(r)), nil
		}
		return IntValue(l * r), nil
	case compiler.OpDiv:
		if r == 0 {
			return Value{}, m.newError("division by zero")
		}
		if l%r == 0 {
			return IntValue(l / r), nil
		}
		return FloatValue(float64(l) / float64(r)), nil
	case compiler.OpMod:
		if r == 0 {
			return Value{}, m.newError("division by zero")
		}
		return IntValue(l % r), nil
	}
	return Value{}, m.newError("unsupported arithmetic operator")
}

func overflowedAdd(l, r, sum int64) bool {
	return ((l > 0 && r > 0 && sum < 0) || (l < 0 && r < 0 && sum > 0))
}

func overflowedSub(l, r, diff int64) bool {
	return ((l >= 0 && r < 0 && diff < 0) || (l < 0 && r > 0 && diff > 0))
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func asFloat(v Value) (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I), true
	case KindFloat:
		return v.F, true
	}
	return 0, false
}

func arithName(op compiler.OpCode) string {
	switch op {
	case compiler.OpAdd:
		return "+"
	case compiler.OpSub:
		return "-"
	case compiler.OpMul:
		return "*"
	case compiler.OpDiv:
		return "/"
	case compiler.OpMod:
		return "%"
	}
	return "?"
}

// Compare exposes compare to other in-module packages the same way Arith
// exposes arith.
func (m *Machine) Compare(op compiler.OpCode, l, r Value) (Value, error) {
	return m.compare(op, l, r)
}

// compare implements Lt/Gt/LtEq/GtEq for numeric operands.
func (m *Machine) compare(op compiler.OpCode, l, r Value) (Value, error) {
	lf, ok1 := asFloat(l)
	rf, ok2 := asFloat(r)
	if !ok1 || !ok2 {
		return Value{}, m.newError("cannot compare %s and %s", l.TypeName(m.heap), r.TypeName(m.heap))
	}
	switch op {
	case compiler.OpLt:
		return BoolValue(lf < rf), nil
	case compiler.OpGt:
		return BoolValue(lf > rf), nil
	case compiler.OpLtEq:
		return BoolValue(lf <= rf), nil
	case compiler.OpGtEq:
		return BoolValue(lf >= rf), nil
	}
	return Value{}, m.newError("unsupported comparison operator")
}

// GetIndex exposes getIndex to other in-module packages (internal/treewalk).
func (m *Machine) GetIndex(obj, idx Value) (Value, error) { return m.getIndex(obj, idx) }

// SetIndex exposes setIndex to other in-module packages (internal/treewalk).
func (m *Machine) SetIndex(obj, idx, val Value) error { return m.setIndex(obj, idx, val) }

// getIndex implements Array[int] and Object[string-key] (spec §4.4.4).
func (m *Machine) getIndex(obj, idx Value) (Value, error) {
	if obj.Kind != KindObj {
		return Value{}, m.newError("cannot index a %s value", obj.TypeName(m.heap))
	}
	o := m.heap.Get(obj.Obj)
	switch o.Kind {
	case ObjArray:
		if idx.Kind != KindInt {
			return Value{}, m.newError("array index must be an integer")
		}
		if idx.I < 0 || int(idx.I) >= len(o.Arr) {
			return Value{}, m.newError("array index %d out of range (length %d)", idx.I, len(o.Arr))
		}
		return o.Arr[idx.I], nil
	case ObjObject:
		key := ToString(m.heap, idx)
		if v, ok := o.Flds[key]; ok {
			return v, nil
		}
		return NullValue(), nil
	case ObjString:
		if idx.Kind != KindInt || idx.I < 0 || int(idx.I) >= len(o.Str) {
			return Value{}, m.newError("string index out of range")
		}
		return m.heap.NewString(string(o.Str[idx.I])), nil
	}
	return Value{}, m.newError("cannot index a %s value", o.Kind)
}

// setIndex implements Array[int] = v and Object[string-key] = v, growing
// arrays to fit a positive in-bounds-or-append index.
func (m *Machine) setIndex(obj, idx, val Value) error {
	if obj.Kind != KindObj {
		return m.newError("cannot index-assign a %s value", obj.TypeName(m.heap))
	}
	o := m.heap.Get(obj.Obj)
	switch o.Kind {
	case ObjArray:
		if idx.Kind != KindInt || idx.I < 0 {
			return m.newError("array index must be a non-negative integer")
		}
		i := int(idx.I)
		for i >= len(o.Arr) {
			o.Arr = append(o.Arr, NullValue())
		}
		o.Arr[i] = val
		return nil
	case ObjObject:
		o.Flds[ToString(m.heap, idx)] = val
		return nil
	}
	return m.newError("cannot index-assign a %s value", o.Kind)
}
