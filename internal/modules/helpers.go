package modules

import (
	"fmt"

	"github.com/forgelang/forge/internal/vm"
)

// arrayElems returns the backing slice of an array Value, or an error
// naming who rejected it.
func arrayElems(m *vm.Machine, v vm.Value, who string) ([]vm.Value, error) {
	if v.Kind != vm.KindObj {
		return nil, fmt.Errorf("%s expects an array", who)
	}
	obj := m.Heap().Get(v.Obj)
	if obj == nil || obj.Kind != vm.ObjArray {
		return nil, fmt.Errorf("%s expects an array", who)
	}
	return obj.Arr, nil
}

// objectFields returns the backing field map of an object Value, or an
// error naming who rejected it.
func objectFields(m *vm.Machine, v vm.Value, who string) (map[string]vm.Value, error) {
	if v.Kind != vm.KindObj {
		return nil, fmt.Errorf("%s expects an object", who)
	}
	obj := m.Heap().Get(v.Obj)
	if obj == nil || obj.Kind != vm.ObjObject {
		return nil, fmt.Errorf("%s expects an object", who)
	}
	return obj.Flds, nil
}
