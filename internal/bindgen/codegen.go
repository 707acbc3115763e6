package bindgen

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"
)

// Generate renders pkg's bindable functions into a standalone Go source
// file that registers each one as a Forge native via host.WrapFunc,
// following funvibe-funxy/internal/ext/codegen.go's text/template +
// go/format.Source idiom (render unformatted, then gofmt the result).
func Generate(pkg *Package, genPackage string) ([]byte, error) {
	var buf bytes.Buffer
	if err := codegenTmpl.Execute(&buf, struct {
		GenPackage string
		Pkg        *Package
	}{genPackage, pkg}); err != nil {
		return nil, fmt.Errorf("bindgen: rendering %s: %w", pkg.ImportPath, err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("bindgen: formatting generated bindings for %s: %w", pkg.ImportPath, err)
	}
	return out, nil
}

var codegenTmpl = template.Must(template.New("bindgen").Parse(`// Code generated by internal/bindgen from {{.Pkg.ImportPath}}. DO NOT EDIT.

package {{.GenPackage}}

import (
	src "{{.Pkg.ImportPath}}"

	"github.com/forgelang/forge/internal/host"
	"github.com/forgelang/forge/internal/vm"
)

// Install registers every bindable export of {{.Pkg.ImportPath}} as a field
// of a namespace object and binds that object to the global namespaceName.
func Install(m *vm.Machine, namespaceName string) error {
	fns := map[string]interface{}{
{{- range .Pkg.Funcs}}
		"{{.Name}}": src.{{.Name}},
{{- end}}
	}
	ref, obj := m.Heap().NewObject()
	for name, fn := range fns {
		native, err := host.WrapFunc(fn)
		if err != nil {
			return err
		}
		obj.Flds[name] = m.Heap().NewNative(native)
	}
	m.SetGlobal(namespaceName, ref)
	return nil
}
`))
