// Package modules registers Forge's host-module surface (spec's domain
// stack: http, json, csv, yaml, regex, crypto, fs, db, rpc) as namespaced
// global objects, each field a native function built with internal/host's
// Go<->Value bridging. This plays the role funvibe-funxy's internal/modules
// virtual packages play for Funxy's `import "web/http"` statements, but
// Forge has no static import resolution (spec's Non-goals exclude a module
// system), so every namespace is simply installed as a global object at VM
// construction time.
package modules

import "github.com/forgelang/forge/internal/vm"

// Install registers every built-in module namespace on m's globals. An
// embedder that wants a smaller attack surface (e.g. no filesystem access
// for untrusted scripts) can call the individual Install* functions instead.
func Install(m *vm.Machine) {
	InstallJSON(m)
	InstallCSV(m)
	InstallYAML(m)
	InstallRegex(m)
	InstallCrypto(m)
	InstallFS(m)
	InstallHTTP(m)
	InstallDB(m)
	InstallRPC(m)
}

// namespace builds an object Value whose fields are native functions, and
// registers it as a global under name.
func namespace(m *vm.Machine, name string, fns map[string]vm.NativeFunc) {
	ref, obj := m.Heap().NewObject()
	for fname, fn := range fns {
		obj.Flds[fname] = m.Heap().NewNative(fn)
	}
	m.SetGlobal(name, ref)
}
