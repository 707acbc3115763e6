package vm

import (
	"sort"

	"github.com/google/uuid"
)

// RegisterNative installs a host/builtin function under name, reachable
// from bytecode as an ordinary global (spec §4.6).
func (m *Machine) RegisterNative(name string, fn NativeFunc) {
	m.globals[name] = m.heap.NewNative(fn)
}

// installBuiltins registers the full §6.3 builtin surface: output,
// introspection, collection helpers, the Option/Result prelude, assertions,
// and a couple of host utilities (uuid, exit).
func (m *Machine) installBuiltins() {
	m.RegisterNative("say", builtinSay)
	m.RegisterNative("yell", builtinYell)
	m.RegisterNative("whisper", builtinWhisper)
	m.RegisterNative("wait", builtinWait)

	m.RegisterNative("len", builtinLen)
	m.RegisterNative("range", builtinRange)
	m.RegisterNative("str", builtinStr)
	m.RegisterNative("int", builtinInt)
	m.RegisterNative("float", builtinFloat)
	m.RegisterNative("type", builtinType)

	m.RegisterNative("push", builtinPush)
	m.RegisterNative("pop", builtinPop)
	m.RegisterNative("keys", builtinKeys)
	m.RegisterNative("values", builtinValues)
	m.RegisterNative("entries", builtinEntries)
	m.RegisterNative("from_entries", builtinFromEntries)
	m.RegisterNative("contains", builtinContains)
	m.RegisterNative("enumerate", builtinEnumerate)
	m.RegisterNative("map", builtinMap)
	m.RegisterNative("filter", builtinFilter)
	m.RegisterNative("reduce", builtinReduce)
	m.RegisterNative("sort", builtinSort)
	m.RegisterNative("reverse", builtinReverse)
	m.RegisterNative("find", builtinFind)
	m.RegisterNative("flat_map", builtinFlatMap)
	m.RegisterNative("pick", builtinPick)
	m.RegisterNative("omit", builtinOmit)
	m.RegisterNative("merge", builtinMerge)
	m.RegisterNative("get", builtinGet)
	m.RegisterNative("has_key", builtinHasKey)

	m.RegisterNative("Ok", builtinOk)
	m.RegisterNative("Err", builtinErr)
	m.RegisterNative("Some", builtinSome)
	m.RegisterNative("None", builtinNone)
	m.RegisterNative("is_ok", builtinIsOk)
	m.RegisterNative("is_err", builtinIsErr)
	m.RegisterNative("is_some", builtinIsSome)
	m.RegisterNative("is_none", builtinIsNone)
	m.RegisterNative("unwrap", builtinUnwrap)
	m.RegisterNative("unwrap_or", builtinUnwrapOr)

	m.RegisterNative("assert", builtinAssert)
	m.RegisterNative("assert_eq", builtinAssertEq)
	m.RegisterNative("__check_fail__", builtinCheckFail)

	m.RegisterNative("uuid", builtinUUID)
	m.RegisterNative("exit", builtinExit)
}

func builtinSay(m *Machine, args []Value) (Value, error)     { return builtinPrint(m, args, "") }
func builtinYell(m *Machine, args []Value) (Value, error)    { return builtinPrint(m, args, "!! ") }
func builtinWhisper(m *Machine, args []Value) (Value, error) { return builtinPrint(m, args, "") }

func builtinPrint(m *Machine, args []Value, prefix string) (Value, error) {
	if len(args) == 0 {
		return NullValue(), nil
	}
	m.Stdout(prefix + ToString(m.heap, args[0]))
	return NullValue(), nil
}

func builtinWait(m *Machine, args []Value) (Value, error) {
	// wait(n) parses and compiles to a real call; since Spawn/Schedule
	// remain synchronous passthroughs (spec §9 Non-goals exclude a real
	// scheduler), wait is a no-op rather than an actual sleep, so a
	// single-threaded embedder never blocks inside the VM by accident.
	return NullValue(), nil
}

func argCountErr(m *Machine, name string, want, got int) error {
	return m.newError("%s() expects %d argument(s), got %d", name, want, got)
}

func builtinLen(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "len", 1, len(args))
	}
	v := args[0]
	if v.Kind != KindObj {
		return NullValue(), m.newError("len() expects an array, string, or object")
	}
	obj := m.heap.Get(v.Obj)
	switch obj.Kind {
	case ObjArray:
		return IntValue(int64(len(obj.Arr))), nil
	case ObjString:
		return IntValue(int64(len(obj.Str))), nil
	case ObjObject:
		return IntValue(int64(len(obj.Flds))), nil
	}
	return NullValue(), m.newError("len() expects an array, string, or object")
}

func builtinRange(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 || args[0].Kind != KindInt {
		return NullValue(), m.newError("range() expects a single integer argument")
	}
	n := args[0].I
	out := make([]Value, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, IntValue(i))
	}
	return m.heap.NewArray(out), nil
}

func builtinStr(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "str", 1, len(args))
	}
	return m.heap.NewString(ToString(m.heap, args[0])), nil
}

func builtinInt(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "int", 1, len(args))
	}
	switch v := args[0]; v.Kind {
	case KindInt:
		return v, nil
	case KindFloat:
		return IntValue(int64(v.F)), nil
	case KindBool:
		if v.B {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	case KindObj:
		obj := m.heap.Get(v.Obj)
		if obj != nil && obj.Kind == ObjString {
			n, err := parseInt(obj.Str)
			if err != nil {
				return NullValue(), m.newError("int(): cannot parse %q as an integer", obj.Str)
			}
			return IntValue(n), nil
		}
	}
	return NullValue(), m.newError("int() cannot convert %s", args[0].TypeName(m.heap))
}

func builtinFloat(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "float", 1, len(args))
	}
	switch v := args[0]; v.Kind {
	case KindFloat:
		return v, nil
	case KindInt:
		return FloatValue(float64(v.I)), nil
	case KindObj:
		obj := m.heap.Get(v.Obj)
		if obj != nil && obj.Kind == ObjString {
			f, err := parseFloat(obj.Str)
			if err != nil {
				return NullValue(), m.newError("float(): cannot parse %q as a float", obj.Str)
			}
			return FloatValue(f), nil
		}
	}
	return NullValue(), m.newError("float() cannot convert %s", args[0].TypeName(m.heap))
}

func builtinType(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "type", 1, len(args))
	}
	return m.heap.NewString(args[0].TypeName(m.heap)), nil
}

func asArray(m *Machine, v Value, who string) (*Object, error) {
	if v.Kind != KindObj {
		return nil, m.newError("%s() expects an array", who)
	}
	obj := m.heap.Get(v.Obj)
	if obj == nil || obj.Kind != ObjArray {
		return nil, m.newError("%s() expects an array", who)
	}
	return obj, nil
}

func asObject(m *Machine, v Value, who string) (*Object, error) {
	if v.Kind != KindObj {
		return nil, m.newError("%s() expects an object", who)
	}
	obj := m.heap.Get(v.Obj)
	if obj == nil || obj.Kind != ObjObject {
		return nil, m.newError("%s() expects an object", who)
	}
	return obj, nil
}

func builtinPush(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "push", 2, len(args))
	}
	obj, err := asArray(m, args[0], "push")
	if err != nil {
		return NullValue(), err
	}
	obj.Arr = append(obj.Arr, args[1])
	return args[0], nil
}

func builtinPop(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "pop", 1, len(args))
	}
	obj, err := asArray(m, args[0], "pop")
	if err != nil {
		return NullValue(), err
	}
	if len(obj.Arr) == 0 {
		return NullValue(), nil
	}
	last := obj.Arr[len(obj.Arr)-1]
	obj.Arr = obj.Arr[:len(obj.Arr)-1]
	return last, nil
}

func builtinKeys(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "keys", 1, len(args))
	}
	obj, err := asObject(m, args[0], "keys")
	if err != nil {
		return NullValue(), err
	}
	ks := sortedKeys(obj.Flds)
	out := make([]Value, len(ks))
	for i, k := range ks {
		out[i] = m.heap.NewString(k)
	}
	return m.heap.NewArray(out), nil
}

func builtinValues(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "values", 1, len(args))
	}
	obj, err := asObject(m, args[0], "values")
	if err != nil {
		return NullValue(), err
	}
	ks := sortedKeys(obj.Flds)
	out := make([]Value, len(ks))
	for i, k := range ks {
		out[i] = obj.Flds[k]
	}
	return m.heap.NewArray(out), nil
}

func builtinEntries(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "entries", 1, len(args))
	}
	obj, err := asObject(m, args[0], "entries")
	if err != nil {
		return NullValue(), err
	}
	ks := sortedKeys(obj.Flds)
	out := make([]Value, len(ks))
	for i, k := range ks {
		out[i] = m.heap.NewArray([]Value{m.heap.NewString(k), obj.Flds[k]})
	}
	return m.heap.NewArray(out), nil
}

func builtinFromEntries(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "from_entries", 1, len(args))
	}
	arr, err := asArray(m, args[0], "from_entries")
	if err != nil {
		return NullValue(), err
	}
	v, out := m.heap.NewObject()
	for _, entry := range arr.Arr {
		pair, perr := asArray(m, entry, "from_entries")
		if perr != nil || len(pair.Arr) != 2 {
			return NullValue(), m.newError("from_entries() expects an array of [key, value] pairs")
		}
		out.Flds[ToString(m.heap, pair.Arr[0])] = pair.Arr[1]
	}
	return v, nil
}

func builtinContains(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "contains", 2, len(args))
	}
	if args[0].Kind != KindObj {
		return NullValue(), m.newError("contains() expects an array, string, or object")
	}
	obj := m.heap.Get(args[0].Obj)
	switch obj.Kind {
	case ObjArray:
		for _, el := range obj.Arr {
			if Equal(m.heap, el, args[1]) {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	case ObjString:
		needle := ToString(m.heap, args[1])
		return BoolValue(stringContains(obj.Str, needle)), nil
	case ObjObject:
		_, ok := obj.Flds[ToString(m.heap, args[1])]
		return BoolValue(ok), nil
	}
	return NullValue(), m.newError("contains() expects an array, string, or object")
}

func builtinEnumerate(m *Machine, args []Value) (Value, error) {
	arr, err := asArray(m, args[0], "enumerate")
	if err != nil {
		return NullValue(), err
	}
	out := make([]Value, len(arr.Arr))
	for i, el := range arr.Arr {
		out[i] = m.heap.NewArray([]Value{IntValue(int64(i)), el})
	}
	return m.heap.NewArray(out), nil
}

func builtinMap(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "map", 2, len(args))
	}
	arr, err := asArray(m, args[0], "map")
	if err != nil {
		return NullValue(), err
	}
	out := make([]Value, len(arr.Arr))
	for i, el := range arr.Arr {
		r, err := m.invoke(args[1], []Value{el}, false, false, 0)
		if err != nil {
			return NullValue(), err
		}
		out[i] = r
	}
	return m.heap.NewArray(out), nil
}

func builtinFilter(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "filter", 2, len(args))
	}
	arr, err := asArray(m, args[0], "filter")
	if err != nil {
		return NullValue(), err
	}
	var out []Value
	for _, el := range arr.Arr {
		r, err := m.invoke(args[1], []Value{el}, false, false, 0)
		if err != nil {
			return NullValue(), err
		}
		if r.Truthy() {
			out = append(out, el)
		}
	}
	return m.heap.NewArray(out), nil
}

func builtinReduce(m *Machine, args []Value) (Value, error) {
	if len(args) != 3 {
		return NullValue(), argCountErr(m, "reduce", 3, len(args))
	}
	arr, err := asArray(m, args[0], "reduce")
	if err != nil {
		return NullValue(), err
	}
	acc := args[2]
	for _, el := range arr.Arr {
		acc, err = m.invoke(args[1], []Value{acc, el}, false, false, 0)
		if err != nil {
			return NullValue(), err
		}
	}
	return acc, nil
}

func builtinSort(m *Machine, args []Value) (Value, error) {
	arr, err := asArray(m, args[0], "sort")
	if err != nil {
		return NullValue(), err
	}
	out := append([]Value(nil), arr.Arr...)
	var sortErr error
	less := func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		if len(args) == 2 {
			r, err := m.invoke(args[1], []Value{out[i], out[j]}, false, false, 0)
			if err != nil {
				sortErr = err
				return false
			}
			return r.Kind == KindInt && r.I < 0
		}
		lf, _ := asFloat(out[i])
		rf, _ := asFloat(out[j])
		if out[i].Kind == KindInt || out[i].Kind == KindFloat {
			return lf < rf
		}
		return ToString(m.heap, out[i]) < ToString(m.heap, out[j])
	}
	sort.SliceStable(out, less)
	if sortErr != nil {
		return NullValue(), sortErr
	}
	return m.heap.NewArray(out), nil
}

func builtinReverse(m *Machine, args []Value) (Value, error) {
	arr, err := asArray(m, args[0], "reverse")
	if err != nil {
		return NullValue(), err
	}
	out := make([]Value, len(arr.Arr))
	for i, el := range arr.Arr {
		out[len(out)-1-i] = el
	}
	return m.heap.NewArray(out), nil
}

func builtinFind(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "find", 2, len(args))
	}
	arr, err := asArray(m, args[0], "find")
	if err != nil {
		return NullValue(), err
	}
	for _, el := range arr.Arr {
		r, err := m.invoke(args[1], []Value{el}, false, false, 0)
		if err != nil {
			return NullValue(), err
		}
		if r.Truthy() {
			return el, nil
		}
	}
	return NullValue(), nil
}

func builtinFlatMap(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "flat_map", 2, len(args))
	}
	arr, err := asArray(m, args[0], "flat_map")
	if err != nil {
		return NullValue(), err
	}
	var out []Value
	for _, el := range arr.Arr {
		r, err := m.invoke(args[1], []Value{el}, false, false, 0)
		if err != nil {
			return NullValue(), err
		}
		if r.Kind == KindObj {
			if sub := m.heap.Get(r.Obj); sub != nil && sub.Kind == ObjArray {
				out = append(out, sub.Arr...)
				continue
			}
		}
		out = append(out, r)
	}
	return m.heap.NewArray(out), nil
}

func builtinPick(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "pick", 2, len(args))
	}
	obj, err := asObject(m, args[0], "pick")
	if err != nil {
		return NullValue(), err
	}
	keys, err := asArray(m, args[1], "pick")
	if err != nil {
		return NullValue(), err
	}
	v, out := m.heap.NewObject()
	for _, k := range keys.Arr {
		key := ToString(m.heap, k)
		if val, ok := obj.Flds[key]; ok {
			out.Flds[key] = val
		}
	}
	return v, nil
}

func builtinOmit(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "omit", 2, len(args))
	}
	obj, err := asObject(m, args[0], "omit")
	if err != nil {
		return NullValue(), err
	}
	keys, err := asArray(m, args[1], "omit")
	if err != nil {
		return NullValue(), err
	}
	omitted := map[string]bool{}
	for _, k := range keys.Arr {
		omitted[ToString(m.heap, k)] = true
	}
	v, out := m.heap.NewObject()
	for k, val := range obj.Flds {
		if !omitted[k] {
			out.Flds[k] = val
		}
	}
	return v, nil
}

func builtinMerge(m *Machine, args []Value) (Value, error) {
	if len(args) < 1 {
		return NullValue(), m.newError("merge() expects at least 1 argument")
	}
	v, out := m.heap.NewObject()
	for _, a := range args {
		obj, err := asObject(m, a, "merge")
		if err != nil {
			return NullValue(), err
		}
		for k, val := range obj.Flds {
			out.Flds[k] = val
		}
	}
	return v, nil
}

func builtinGet(m *Machine, args []Value) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return NullValue(), m.newError("get() expects 2 or 3 arguments, got %d", len(args))
	}
	obj, err := asObject(m, args[0], "get")
	if err != nil {
		return NullValue(), err
	}
	if v, ok := obj.Flds[ToString(m.heap, args[1])]; ok {
		return v, nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return NullValue(), nil
}

func builtinHasKey(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "has_key", 2, len(args))
	}
	obj, err := asObject(m, args[0], "has_key")
	if err != nil {
		return NullValue(), err
	}
	_, ok := obj.Flds[ToString(m.heap, args[1])]
	return BoolValue(ok), nil
}

// newTagged builds an Option/Result-shaped tagged object matching the
// encoding OpTry and compileMatch expect (spec §4.3.4/§4.4.3): __type__,
// __variant__, and positional fields named "0", "1", ...
func (m *Machine) newTagged(typ, variant string, fields ...Value) Value {
	v, obj := m.heap.NewObject()
	obj.Flds["__type__"] = m.heap.NewString(typ)
	obj.Flds["__variant__"] = m.heap.NewString(variant)
	for i, f := range fields {
		obj.Flds[itoaSmall(i)] = f
	}
	return v
}

func taggedVariant(m *Machine, v Value) (string, *Object, bool) {
	if v.Kind != KindObj {
		return "", nil, false
	}
	obj := m.heap.Get(v.Obj)
	if obj == nil || obj.Kind != ObjObject {
		return "", nil, false
	}
	variantVal, ok := obj.Flds["__variant__"]
	if !ok {
		return "", nil, false
	}
	variantObj := m.heap.Get(variantVal.Obj)
	if variantObj == nil {
		return "", nil, false
	}
	return variantObj.Str, obj, true
}

func builtinOk(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "Ok", 1, len(args))
	}
	return m.newTagged("Result", "Ok", args[0]), nil
}

func builtinErr(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "Err", 1, len(args))
	}
	return m.newTagged("Result", "Err", args[0]), nil
}

func builtinSome(m *Machine, args []Value) (Value, error) {
	if len(args) != 1 {
		return NullValue(), argCountErr(m, "Some", 1, len(args))
	}
	return m.newTagged("Option", "Some", args[0]), nil
}

func builtinNone(m *Machine, args []Value) (Value, error) {
	if len(args) != 0 {
		return NullValue(), argCountErr(m, "None", 0, len(args))
	}
	return m.newTagged("Option", "None"), nil
}

func builtinIsOk(m *Machine, args []Value) (Value, error) {
	variant, _, ok := taggedVariant(m, args[0])
	return BoolValue(ok && variant == "Ok"), nil
}

func builtinIsErr(m *Machine, args []Value) (Value, error) {
	variant, _, ok := taggedVariant(m, args[0])
	return BoolValue(ok && variant == "Err"), nil
}

func builtinIsSome(m *Machine, args []Value) (Value, error) {
	variant, _, ok := taggedVariant(m, args[0])
	return BoolValue(ok && variant == "Some"), nil
}

func builtinIsNone(m *Machine, args []Value) (Value, error) {
	variant, _, ok := taggedVariant(m, args[0])
	return BoolValue(ok && variant == "None"), nil
}

func builtinUnwrap(m *Machine, args []Value) (Value, error) {
	variant, obj, ok := taggedVariant(m, args[0])
	if !ok {
		return NullValue(), m.newError("unwrap() expects a Result or Option value")
	}
	switch variant {
	case "Ok", "Some":
		return obj.Flds["0"], nil
	case "Err":
		return NullValue(), m.newError("unwrap() called on an Err: %s", ToString(m.heap, obj.Flds["0"]))
	case "None":
		return NullValue(), m.newError("unwrap() called on None")
	}
	return NullValue(), m.newError("unwrap() expects a Result or Option value")
}

func builtinUnwrapOr(m *Machine, args []Value) (Value, error) {
	if len(args) != 2 {
		return NullValue(), argCountErr(m, "unwrap_or", 2, len(args))
	}
	variant, obj, ok := taggedVariant(m, args[0])
	if !ok {
		return NullValue(), m.newError("unwrap_or() expects a Result or Option value")
	}
	switch variant {
	case "Ok", "Some":
		return obj.Flds["0"], nil
	default:
		return args[1], nil
	}
}

func builtinAssert(m *Machine, args []Value) (Value, error) {
	if len(args) < 1 {
		return NullValue(), m.newError("assert() expects at least 1 argument")
	}
	if !args[0].Truthy() {
		msg := "assertion failed"
		if len(args) > 1 {
			msg = ToString(m.heap, args[1])
		}
		return NullValue(), m.newError("%s", msg)
	}
	return NullValue(), nil
}

func builtinAssertEq(m *Machine, args []Value) (Value, error) {
	if len(args) < 2 {
		return NullValue(), m.newError("assert_eq() expects at least 2 arguments")
	}
	if !Equal(m.heap, args[0], args[1]) {
		msg := m.newError("assertion failed: %s != %s", ToString(m.heap, args[0]), ToString(m.heap, args[1]))
		if len(args) > 2 {
			return NullValue(), m.newError("%s: %s", ToString(m.heap, args[2]), msg.Message)
		}
		return NullValue(), msg
	}
	return NullValue(), nil
}

func builtinCheckFail(m *Machine, args []Value) (Value, error) {
	msg := "check failed"
	if len(args) > 0 {
		msg = ToString(m.heap, args[0])
	}
	return NullValue(), m.newError("%s", msg)
}

func builtinUUID(m *Machine, args []Value) (Value, error) {
	return m.heap.NewString(uuid.NewString()), nil
}

func builtinExit(m *Machine, args []Value) (Value, error) {
	code := 0
	if len(args) > 0 && args[0].Kind == KindInt {
		code = int(args[0].I)
	}
	return NullValue(), &ExitError{Code: code}
}
