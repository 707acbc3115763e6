// Package bindgen inspects a Go package with golang.org/x/tools/go/packages
// and generates a small Go source file registering every exported function
// as a Forge native via internal/host.WrapFunc. This is a narrowed
// descendant of funvibe-funxy's internal/ext/inspector.go+codegen.go: the
// teacher resolves a full funxy.yaml binding DSL with generics/type-binding
// support, but Forge's host bridge (internal/host) only needs the function
// surface, so this package drops the YAML spec layer and the
// type/const/generic-instantiation machinery entirely and keeps only the
// go/packages-driven inspection and text/template-driven codegen idiom.
package bindgen

import (
	"fmt"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"
)

// Func describes one exported, bindable package-level function in the
// inspected package; Inspect skips methods, so Receiver is always empty.
type Func struct {
	Name       string
	Receiver   string // empty for package-level functions
	ParamTypes []string
	ResultTypes []string
}

// Package holds every bindable Func found in a single Go package.
type Package struct {
	ImportPath string
	Funcs      []Func
}

// Inspect loads pkgPath (e.g. "strings") with full type information and
// returns every exported top-level function whose signature is simple
// enough to bind: no type parameters, at most one trailing error result,
// matching funvibe-funxy's inspector.go's own eligibility filter.
func Inspect(pkgPath string) (*Package, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax}
	pkgs, err := packages.Load(cfg, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("bindgen: loading %s: %w", pkgPath, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("bindgen: package %s not found", pkgPath)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("bindgen: %s: %v", pkgPath, pkgs[0].Errors[0])
	}
	pkg := pkgs[0]

	result := &Package{ImportPath: pkg.PkgPath}
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}
		fn, ok := obj.(*types.Func)
		if !ok {
			continue
		}
		sig, ok := fn.Type().(*types.Signature)
		if !ok || sig.TypeParams() != nil || sig.Recv() != nil {
			continue
		}
		if res := sig.Results(); res.Len() > 2 || (res.Len() == 2 && res.At(1).Type().String() != "error") {
			continue
		}
		result.Funcs = append(result.Funcs, Func{
			Name:        fn.Name(),
			ParamTypes:  tupleStrings(sig.Params()),
			ResultTypes: tupleStrings(sig.Results()),
		})
	}
	sort.Slice(result.Funcs, func(i, j int) bool { return result.Funcs[i].Name < result.Funcs[j].Name })
	return result, nil
}

func tupleStrings(t *types.Tuple) []string {
	out := make([]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		out[i] = t.At(i).Type().String()
	}
	return out
}
