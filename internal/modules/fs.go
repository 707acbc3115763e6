package modules

import (
	"fmt"
	"os"

	"github.com/forgelang/forge/internal/vm"
)

// InstallFS registers the `fs` namespace: read_file, write_file, exists,
// list_dir, remove — a thin wrapper over stdlib os, scoped to whatever
// filesystem permissions the host process runs with. Embedders wanting a
// sandbox should not call InstallFS and instead expose a narrower surface
// through internal/host themselves.
func InstallFS(m *vm.Machine) {
	namespace(m, "fs", map[string]vm.NativeFunc{
		"read_file":  fsReadFile,
		"write_file": fsWriteFile,
		"exists":     fsExists,
		"list_dir":   fsListDir,
		"remove":     fsRemove,
	})
}

func fsReadFile(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("fs.read_file() expects 1 argument, got %d", len(args))
	}
	data, err := os.ReadFile(vm.ToString(m.Heap(), args[0]))
	if err != nil {
		return vm.NullValue(), fmt.Errorf("fs.read_file(): %w", err)
	}
	return m.Heap().NewString(string(data)), nil
}

func fsWriteFile(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return vm.NullValue(), fmt.Errorf("fs.write_file() expects 2 arguments, got %d", len(args))
	}
	path := vm.ToString(m.Heap(), args[0])
	content := vm.ToString(m.Heap(), args[1])
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return vm.NullValue(), fmt.Errorf("fs.write_file(): %w", err)
	}
	return vm.NullValue(), nil
}

func fsExists(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("fs.exists() expects 1 argument, got %d", len(args))
	}
	_, err := os.Stat(vm.ToString(m.Heap(), args[0]))
	return vm.BoolValue(err == nil), nil
}

func fsListDir(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("fs.list_dir() expects 1 argument, got %d", len(args))
	}
	entries, err := os.ReadDir(vm.ToString(m.Heap(), args[0]))
	if err != nil {
		return vm.NullValue(), fmt.Errorf("fs.list_dir(): %w", err)
	}
	elems := make([]vm.Value, len(entries))
	for i, e := range entries {
		elems[i] = m.Heap().NewString(e.Name())
	}
	return m.Heap().NewArray(elems), nil
}

func fsRemove(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("fs.remove() expects 1 argument, got %d", len(args))
	}
	if err := os.Remove(vm.ToString(m.Heap(), args[0])); err != nil {
		return vm.NullValue(), fmt.Errorf("fs.remove(): %w", err)
	}
	return vm.NullValue(), nil
}
