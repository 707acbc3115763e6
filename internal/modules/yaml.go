package modules

import (
	"fmt"

	"github.com/forgelang/forge/internal/host"
	"github.com/forgelang/forge/internal/vm"
	"gopkg.in/yaml.v3"
)

// InstallYAML registers the `yaml` namespace: yaml.parse(str) and
// yaml.stringify(value).
func InstallYAML(m *vm.Machine) {
	namespace(m, "yaml", map[string]vm.NativeFunc{
		"parse":     yamlParse,
		"stringify": yamlStringify,
	})
}

func yamlParse(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("yaml.parse() expects 1 argument, got %d", len(args))
	}
	var decoded interface{}
	if err := yaml.Unmarshal([]byte(vm.ToString(m.Heap(), args[0])), &decoded); err != nil {
		return vm.NullValue(), fmt.Errorf("yaml.parse(): %w", err)
	}
	return host.ToValue(m.Heap(), normalizeYAML(decoded))
}

// normalizeYAML rewrites map[string]interface{} keys that yaml.v3 may
// decode as map[interface{}]interface{} in nested documents into plain
// string-keyed maps so host.ToValue can bridge them.
func normalizeYAML(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return x
	}
}

func yamlStringify(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("yaml.stringify() expects 1 argument, got %d", len(args))
	}
	goVal, err := host.FromValue(m.Heap(), args[0])
	if err != nil {
		return vm.NullValue(), err
	}
	out, err := yaml.Marshal(goVal)
	if err != nil {
		return vm.NullValue(), fmt.Errorf("yaml.stringify(): %w", err)
	}
	return m.Heap().NewString(string(out)), nil
}
