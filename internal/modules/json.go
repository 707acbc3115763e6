package modules

import (
	"encoding/json"
	"fmt"

	"github.com/forgelang/forge/internal/host"
	"github.com/forgelang/forge/internal/vm"
)

// InstallJSON registers the `json` namespace: json.parse(str) and
// json.stringify(value[, indent]).
func InstallJSON(m *vm.Machine) {
	namespace(m, "json", map[string]vm.NativeFunc{
		"parse":     jsonParse,
		"stringify": jsonStringify,
	})
}

func jsonParse(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("json.parse() expects 1 argument, got %d", len(args))
	}
	src := vm.ToString(m.Heap(), args[0])
	var decoded interface{}
	if err := json.Unmarshal([]byte(src), &decoded); err != nil {
		return vm.NullValue(), fmt.Errorf("json.parse(): %w", err)
	}
	return host.ToValue(m.Heap(), decoded)
}

func jsonStringify(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return vm.NullValue(), fmt.Errorf("json.stringify() expects 1 or 2 arguments, got %d", len(args))
	}
	goVal, err := host.FromValue(m.Heap(), args[0])
	if err != nil {
		return vm.NullValue(), err
	}
	var out []byte
	if len(args) == 2 && args[1].Truthy() {
		out, err = json.MarshalIndent(goVal, "", "  ")
	} else {
		out, err = json.Marshal(goVal)
	}
	if err != nil {
		return vm.NullValue(), fmt.Errorf("json.stringify(): %w", err)
	}
	return m.Heap().NewString(string(out)), nil
}
