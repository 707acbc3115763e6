package jit

import (
	"github.com/forgelang/forge/internal/compiler"
	"github.com/forgelang/forge/internal/vm"
)

// IsHeapFree runs the type pre-pass (original_source/src/vm/jit/
// type_analysis.rs): a function is eligible for hot-path promotion only if
// neither it nor any closure literal nested inside it executes a
// HeapTouching opcode, since those are exactly the operations whose
// correctness depends on the GC having run recently enough.
func IsHeapFree(p *vm.Prototype) bool {
	for _, instr := range p.Code {
		if compiler.DecodeOp(instr).HeapTouching() {
			return false
		}
	}
	for _, child := range p.Prototypes {
		if !IsHeapFree(child) {
			return false
		}
	}
	return true
}
