// Package host implements the embedding boundary spec §4.6 calls out:
// registering Go values/functions as VM globals, and bridging values
// across the Go/Forge boundary in both directions. It is grounded on
// funvibe-funxy's pkg/embed Binding/Marshaller split, just narrowed to
// internal/vm.Value's five-variant union instead of Funxy's typed object
// model.
package host

import (
	"fmt"
	"reflect"

	"github.com/forgelang/forge/internal/vm"
)

// ToValue converts a Go value into a vm.Value allocated on h.
func ToValue(h *vm.Heap, v interface{}) (vm.Value, error) {
	switch x := v.(type) {
	case nil:
		return vm.NullValue(), nil
	case vm.Value:
		return x, nil
	case bool:
		return vm.BoolValue(x), nil
	case int:
		return vm.IntValue(int64(x)), nil
	case int64:
		return vm.IntValue(x), nil
	case float64:
		return vm.FloatValue(x), nil
	case string:
		return h.NewString(x), nil
	case []interface{}:
		elems := make([]vm.Value, len(x))
		for i, el := range x {
			cv, err := ToValue(h, el)
			if err != nil {
				return vm.Value{}, err
			}
			elems[i] = cv
		}
		return h.NewArray(elems), nil
	case map[string]interface{}:
		ref, obj := h.NewObject()
		for k, el := range x {
			cv, err := ToValue(h, el)
			if err != nil {
				return vm.Value{}, err
			}
			obj.Flds[k] = cv
		}
		return ref, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]vm.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			cv, err := ToValue(h, rv.Index(i).Interface())
			if err != nil {
				return vm.Value{}, err
			}
			elems[i] = cv
		}
		return h.NewArray(elems), nil
	case reflect.Map:
		ref, obj := h.NewObject()
		for _, k := range rv.MapKeys() {
			cv, err := ToValue(h, rv.MapIndex(k).Interface())
			if err != nil {
				return vm.Value{}, err
			}
			obj.Flds[fmt.Sprint(k.Interface())] = cv
		}
		return ref, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return vm.IntValue(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		return vm.FloatValue(rv.Float()), nil
	case reflect.String:
		return h.NewString(rv.String()), nil
	case reflect.Bool:
		return vm.BoolValue(rv.Bool()), nil
	}
	return vm.Value{}, fmt.Errorf("host: cannot bridge Go value of type %T into Forge", v)
}

// FromValue converts a vm.Value back into a Go value (generic shape:
// int64/float64/bool/string/nil/[]interface{}/map[string]interface{}).
func FromValue(h *vm.Heap, v vm.Value) (interface{}, error) {
	switch v.Kind {
	case vm.KindNull:
		return nil, nil
	case vm.KindBool:
		return v.B, nil
	case vm.KindInt:
		return v.I, nil
	case vm.KindFloat:
		return v.F, nil
	case vm.KindObj:
		obj := h.Get(v.Obj)
		if obj == nil {
			return nil, fmt.Errorf("host: dangling object reference")
		}
		switch obj.Kind {
		case vm.ObjString:
			return obj.Str, nil
		case vm.ObjArray:
			out := make([]interface{}, len(obj.Arr))
			for i, el := range obj.Arr {
				cv, err := FromValue(h, el)
				if err != nil {
					return nil, err
				}
				out[i] = cv
			}
			return out, nil
		case vm.ObjObject:
			out := make(map[string]interface{}, len(obj.Flds))
			for k, el := range obj.Flds {
				cv, err := FromValue(h, el)
				if err != nil {
					return nil, err
				}
				out[k] = cv
			}
			return out, nil
		default:
			return nil, fmt.Errorf("host: cannot bridge a %s value out of Forge", obj.Kind)
		}
	}
	return nil, fmt.Errorf("host: unknown value kind")
}

// WrapFunc reflects over a Go function and returns a vm.NativeFunc that
// marshals arguments in, calls fn, and marshals its (single, or
// value-plus-error) return back out. fn's signature is validated eagerly
// so a mismatched binding fails when WrapFunc is called, not at first call.
func WrapFunc(fn interface{}) (vm.NativeFunc, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("host: WrapFunc expects a function, got %T", fn)
	}
	t := rv.Type()
	if t.NumOut() > 2 {
		return nil, fmt.Errorf("host: bound function must return at most (value, error)")
	}
	returnsErr := t.NumOut() == 2
	if returnsErr && !t.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		return nil, fmt.Errorf("host: bound function's second return value must be error")
	}

	return func(m *vm.Machine, args []vm.Value) (vm.Value, error) {
		if !t.IsVariadic() && len(args) != t.NumIn() {
			return vm.NullValue(), fmt.Errorf("host: expected %d arguments, got %d", t.NumIn(), len(args))
		}
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			goVal, err := FromValue(m.Heap(), a)
			if err != nil {
				return vm.NullValue(), err
			}
			argType := t.In(i)
			if i >= t.NumIn()-1 && t.IsVariadic() {
				argType = t.In(t.NumIn() - 1).Elem()
			}
			in[i] = coerce(goVal, argType)
		}
		out := rv.Call(in)
		if returnsErr {
			if errVal := out[1].Interface(); errVal != nil {
				return vm.NullValue(), errVal.(error)
			}
		}
		if t.NumOut() == 0 {
			return vm.NullValue(), nil
		}
		return ToValue(m.Heap(), out[0].Interface())
	}, nil
}

// coerce adapts a loosely-typed Go value (as produced by FromValue) to the
// exact type a bound function's parameter declares, covering the common
// int64-vs-int and nil-vs-interface mismatches marshalling introduces.
func coerce(v interface{}, target reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(target)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().ConvertibleTo(target) && rv.Type().Kind() != reflect.Slice && rv.Type().Kind() != reflect.Map {
		return rv.Convert(target)
	}
	if !rv.Type().AssignableTo(target) && target.Kind() == reflect.Interface {
		return rv
	}
	return rv
}
