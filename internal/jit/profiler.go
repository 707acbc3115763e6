// Package jit implements the hot-function tier spec §4.5 describes: a
// call-count Profiler (ported from original_source/src/vm/jit/profiler.rs's
// HOT_THRESHOLD/FunctionStats/enter_function/exit_function/is_hot/report),
// and a type pre-pass (original_source/src/vm/jit/type_analysis.rs) that
// promotes a hot, heap-allocation-free function to a specialized
// fast-dispatch path.
//
// It does not emit native machine code the way
// _examples/other_examples/33950481_launix-de-memcp__scm-jit.go.go's
// OptimizeForValues does (mmap'd PROT_EXEC pages filled with hand-assembled
// x86-64): that requires architecture-specific instruction selection and
// register allocation disproportionate to this tier's slice of the spec,
// and ties the VM to GOARCH=amd64. Instead, a promoted function's hot loop
// runs through Machine.InvokeHot, which goes straight to the closure call
// and skips the GC-pressure check on every call (the interpreter's main
// per-call overhead) once type_analysis has proven the function never
// touches the heap — this is the same "eliminate the parts the type
// analysis proved unnecessary" idea runtime.rs's JIT trampoline applies,
// just landing in the bytecode tier instead of a native one.
package jit

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// FunctionStats tracks one function's call count and cumulative time inside
// it, mirroring profiler.rs's FunctionStats.
type FunctionStats struct {
	CallCount int64
	TotalTime time.Duration
}

type callEntry struct {
	name  string
	start time.Time
}

// Profiler is a call-count/duration tracker gating hot-function promotion.
// Disabled by default (EnterFunction/ExitFunction become no-ops) so a
// release embedding pays nothing for profiling it never asked for.
type Profiler struct {
	mu        sync.Mutex
	threshold int64
	enabled   bool
	stats     map[string]*FunctionStats
	stack     []callEntry
}

// NewProfiler builds a Profiler with the given hot-call threshold (wired
// from config.Runtime.JITThreshold, spec §4.5's HOT_THRESHOLD).
func NewProfiler(threshold int, enabled bool) *Profiler {
	if threshold <= 0 {
		threshold = 100
	}
	return &Profiler{threshold: int64(threshold), enabled: enabled, stats: map[string]*FunctionStats{}}
}

func (p *Profiler) IsEnabled() bool { return p.enabled }

func (p *Profiler) EnterFunction(name string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.stats[name]; !ok {
		p.stats[name] = &FunctionStats{}
	}
	p.stats[name].CallCount++
	p.stack = append(p.stack, callEntry{name: name, start: time.Now()})
}

func (p *Profiler) ExitFunction() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.stack) == 0 {
		return
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if s, ok := p.stats[top.name]; ok {
		s.TotalTime += time.Since(top.start)
	}
}

// IsHot reports whether name has crossed the profiler's call-count
// threshold, making it eligible for internal/jit promotion.
func (p *Profiler) IsHot(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[name]
	return ok && s.CallCount >= p.threshold
}

func (p *Profiler) CallCount(name string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.stats[name]; ok {
		return s.CallCount
	}
	return 0
}

// Report returns every profiled function's stats sorted by total time
// descending, the same ordering profiler.rs's report() produces, for the
// `forge profile` CLI subcommand (SPEC_FULL.md §4).
func (p *Profiler) Report() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := make([]Entry, 0, len(p.stats))
	for name, s := range p.stats {
		entries = append(entries, Entry{Name: name, Stats: *s})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Stats.TotalTime > entries[j].Stats.TotalTime })
	return entries
}

// Entry is one Report() row.
type Entry struct {
	Name  string
	Stats FunctionStats
}

func (e Entry) String() string {
	return fmt.Sprintf("%-24s calls=%-8d time=%s", e.Name, e.Stats.CallCount, e.Stats.TotalTime)
}
