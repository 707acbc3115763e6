package jit

import "github.com/forgelang/forge/internal/vm"

// Tier wires a Profiler to a *vm.Machine: every call through it is counted,
// and once a function crosses the hot threshold and the type pre-pass
// clears its bytecode, subsequent calls go through Machine.InvokeHot
// instead of Machine.Invoke (spec §4.5's promotion).
type Tier struct {
	m         *vm.Machine
	profiler  *Profiler
	promoted  map[*vm.Prototype]bool
	heapFree  map[*vm.Prototype]bool
}

// NewTier builds a Tier over m, profiling enabled per profiler.IsEnabled().
func NewTier(m *vm.Machine, profiler *Profiler) *Tier {
	return &Tier{m: m, profiler: profiler, promoted: map[*vm.Prototype]bool{}, heapFree: map[*vm.Prototype]bool{}}
}

// Call invokes callee, profiling it by its closure's prototype name and
// promoting it to Machine.InvokeHot once it is both hot and heap-free.
func (t *Tier) Call(callee vm.Value, args []vm.Value) (vm.Value, error) {
	proto := t.prototypeOf(callee)
	if proto == nil {
		return t.m.Invoke(callee, args)
	}

	t.profiler.EnterFunction(proto.Name)
	defer t.profiler.ExitFunction()

	if t.shouldPromote(proto) {
		return t.m.InvokeHot(callee, args)
	}
	return t.m.Invoke(callee, args)
}

func (t *Tier) prototypeOf(v vm.Value) *vm.Prototype {
	if v.Kind != vm.KindObj {
		return nil
	}
	obj := t.m.Heap().Get(v.Obj)
	if obj == nil || obj.Kind != vm.ObjClosure {
		return nil
	}
	return obj.Clo.Proto
}

func (t *Tier) shouldPromote(proto *vm.Prototype) bool {
	if t.promoted[proto] {
		return true
	}
	if !t.profiler.IsHot(proto.Name) {
		return false
	}
	free, cached := t.heapFree[proto]
	if !cached {
		free = IsHeapFree(proto)
		t.heapFree[proto] = free
	}
	if free {
		t.promoted[proto] = true
	}
	return free
}

// Report surfaces the profiler's hot-function report for the `forge
// profile` subcommand.
func (t *Tier) Report() []Entry { return t.profiler.Report() }
