package modules

import (
	"fmt"
	"regexp"

	"github.com/forgelang/forge/internal/vm"
)

// InstallRegex registers the `regex` namespace: regex.match, regex.find_all,
// regex.replace, and regex.split, all backed by stdlib regexp (RE2).
func InstallRegex(m *vm.Machine) {
	namespace(m, "regex", map[string]vm.NativeFunc{
		"match":    regexMatch,
		"find_all": regexFindAll,
		"replace":  regexReplace,
		"split":    regexSplit,
	})
}

func compileArg(m *vm.Machine, v vm.Value) (*regexp.Regexp, error) {
	pattern := vm.ToString(m.Heap(), v)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}

func regexMatch(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return vm.NullValue(), fmt.Errorf("regex.match() expects 2 arguments, got %d", len(args))
	}
	re, err := compileArg(m, args[0])
	if err != nil {
		return vm.NullValue(), err
	}
	return vm.BoolValue(re.MatchString(vm.ToString(m.Heap(), args[1]))), nil
}

func regexFindAll(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return vm.NullValue(), fmt.Errorf("regex.find_all() expects 2 arguments, got %d", len(args))
	}
	re, err := compileArg(m, args[0])
	if err != nil {
		return vm.NullValue(), err
	}
	matches := re.FindAllString(vm.ToString(m.Heap(), args[1]), -1)
	elems := make([]vm.Value, len(matches))
	for i, s := range matches {
		elems[i] = m.Heap().NewString(s)
	}
	return m.Heap().NewArray(elems), nil
}

func regexReplace(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 3 {
		return vm.NullValue(), fmt.Errorf("regex.replace() expects 3 arguments, got %d", len(args))
	}
	re, err := compileArg(m, args[0])
	if err != nil {
		return vm.NullValue(), err
	}
	replaced := re.ReplaceAllString(vm.ToString(m.Heap(), args[1]), vm.ToString(m.Heap(), args[2]))
	return m.Heap().NewString(replaced), nil
}

func regexSplit(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 2 {
		return vm.NullValue(), fmt.Errorf("regex.split() expects 2 arguments, got %d", len(args))
	}
	re, err := compileArg(m, args[0])
	if err != nil {
		return vm.NullValue(), err
	}
	parts := re.Split(vm.ToString(m.Heap(), args[1]), -1)
	elems := make([]vm.Value, len(parts))
	for i, s := range parts {
		elems[i] = m.Heap().NewString(s)
	}
	return m.Heap().NewArray(elems), nil
}
