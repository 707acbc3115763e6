// Package embed is Forge's host-embedding facade: construct a Runtime,
// Bind Go values into it, Eval source or Call a bound Forge function, and
// read results back as plain Go values. It plays the role
// funvibe-funxy/pkg/embed/vm.go plays for that language's embedders, but
// its Binding is narrowed to (name, Go value) since Forge's dynamically
// typed Value union has no typesystem.Type to carry alongside it.
package embed

import (
	"fmt"
	"reflect"

	"github.com/forgelang/forge/internal/config"
	"github.com/forgelang/forge/internal/host"
	"github.com/forgelang/forge/internal/jit"
	"github.com/forgelang/forge/internal/modules"
	"github.com/forgelang/forge/internal/pipeline"
	"github.com/forgelang/forge/internal/treewalk"
	"github.com/forgelang/forge/internal/vm"
)

// Runtime embeds one Forge VM instance plus whichever backend (bytecode
// VM or tree-walker) config.Runtime.Backend selects for Eval, and a
// jit.Tier that Call routes through.
type Runtime struct {
	cfg     config.Runtime
	machine *vm.Machine
	tier    *jit.Tier
	walker  *treewalk.Interpreter
	pipe    *pipeline.Pipeline
}

// Option customizes a Runtime at construction time.
type Option func(*config.Runtime)

// WithBackend overrides config.Runtime.Backend ("vm" or "tree").
func WithBackend(name string) Option {
	return func(rt *config.Runtime) { rt.Backend = name }
}

// WithoutJIT disables hot-path promotion regardless of the environment.
func WithoutJIT() Option {
	return func(rt *config.Runtime) { rt.DisableJIT = true }
}

// New loads config.Runtime from the environment (overridden by opts),
// builds a *vm.Machine sized per its GC threshold, installs every domain
// module namespace, and wires a jit.Tier over it.
func New(opts ...Option) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("embed: loading config: %w", err)
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	heap := vm.NewHeapWithThreshold(cfg.GCInitialThreshold)
	m := vm.NewWithHeap(heap)
	modules.Install(m)

	profiler := jit.NewProfiler(cfg.JITThreshold, !cfg.DisableJIT)
	return &Runtime{
		cfg:     cfg,
		machine: m,
		tier:    jit.NewTier(m, profiler),
		walker:  treewalk.New(m),
		pipe:    pipeline.Standard(),
	}, nil
}

// Machine exposes the underlying *vm.Machine for callers that need direct
// VM access (e.g. the CLI's disassembler subcommand).
func (r *Runtime) Machine() *vm.Machine { return r.machine }

// ColorOverride returns config.Runtime.Color, forwarded to
// diagnostics.NewPrinter so FORGE_COLOR is honored from the CLI.
func (r *Runtime) ColorOverride() *bool { return r.cfg.Color }

// ProfileReport surfaces the jit.Tier's hot-function report, sorted by
// total time spent, for the `forge profile` subcommand. It covers only
// calls made through Call; calls made while Eval runs a script are not
// recorded.
func (r *Runtime) ProfileReport() []jit.Entry { return r.tier.Report() }

// Bind registers a Go value as a global under name. Functions are wrapped
// with internal/host.WrapFunc into natives; everything else is converted
// once with internal/host.ToValue.
func (r *Runtime) Bind(name string, value interface{}) error {
	if fn, ok := asFunc(value); ok {
		native, err := host.WrapFunc(fn)
		if err != nil {
			return fmt.Errorf("embed: binding %q: %w", name, err)
		}
		r.machine.SetGlobal(name, r.machine.Heap().NewNative(native))
		return nil
	}
	v, err := host.ToValue(r.machine.Heap(), value)
	if err != nil {
		return fmt.Errorf("embed: binding %q: %w", name, err)
	}
	r.machine.SetGlobal(name, v)
	return nil
}

func asFunc(value interface{}) (interface{}, bool) {
	if value == nil {
		return nil, false
	}
	if _, ok := value.(vm.Value); ok {
		return nil, false
	}
	return value, reflect.TypeOf(value).Kind() == reflect.Func
}

// Eval compiles and runs source under name (used only for diagnostics),
// selecting the tree-walk or bytecode backend per r.cfg.Backend. The
// bytecode runs through Machine.Run directly, not through the jit.Tier,
// so calls made inside the script are neither profiled nor promoted.
func (r *Runtime) Eval(name, source string) (interface{}, error) {
	ctx := pipeline.New(name, source)
	ctx = r.pipe.Run(ctx)
	if len(ctx.Diagnostics) > 0 {
		return nil, ctx.Diagnostics[0]
	}

	var result vm.Value
	var err error
	if r.cfg.Backend == "tree" {
		result, err = r.walker.Run(ctx.Program)
	} else {
		proto := r.machine.Load(ctx.Chunk)
		result, err = r.machine.Run(proto)
	}
	if err != nil {
		return nil, err
	}
	return host.FromValue(r.machine.Heap(), result)
}

// Call invokes a previously bound or script-defined global function by
// name with args converted via internal/host, routing through the
// jit.Tier so repeated Calls are profiled and become eligible for hot-path
// promotion.
func (r *Runtime) Call(name string, args ...interface{}) (interface{}, error) {
	callee, ok := r.machine.GetGlobal(name)
	if !ok {
		return nil, fmt.Errorf("embed: no global function %q", name)
	}
	vmArgs := make([]vm.Value, len(args))
	for i, a := range args {
		v, err := host.ToValue(r.machine.Heap(), a)
		if err != nil {
			return nil, fmt.Errorf("embed: converting argument %d to %q: %w", i, name, err)
		}
		vmArgs[i] = v
	}
	result, err := r.tier.Call(callee, vmArgs)
	if err != nil {
		return nil, err
	}
	return host.FromValue(r.machine.Heap(), result)
}
