package compiler

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
)

// ConstKind tags a Chunk.Constants entry, mirroring original_source's
// Constant enum (bytecode.rs).
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstNull
	ConstString
)

// Constant is one deduplicated constant-pool entry.
type Constant struct {
	Kind ConstKind
	I    int64
	F    float64
	B    bool
	S    string
}

// Chunk is one compiled function body (spec §3.3): the module itself is the
// Chunk named "<main>".
type Chunk struct {
	Name           string
	Arity          int
	Code           []uint32
	Constants      []Constant
	Lines          []int
	MaxRegisters   int
	UpvalueCount   int
	UpvalueSources []UpvalueSource
	Prototypes     []*Chunk
}

// UpvalueSource records, for one upvalue, whether it is captured from the
// enclosing frame's local register window or from one of the enclosing
// closure's own upvalues (needed when capturing through more than one
// nesting level).
type UpvalueSource struct {
	FromParentLocal bool
	Index           int
}

func NewChunk(name string) *Chunk {
	return &Chunk{Name: name}
}

// AddConstant appends or reuses a constant, satisfying the dedup contract
// of spec §6.2 / testable property #5 (add_constant(x) is idempotent).
func (c *Chunk) AddConstant(k Constant) uint16 {
	for i, existing := range c.Constants {
		if constEqual(existing, k) {
			return uint16(i)
		}
	}
	if len(c.Constants) >= 1<<16 {
		panic("constant pool overflow")
	}
	c.Constants = append(c.Constants, k)
	return uint16(len(c.Constants) - 1)
}

func constEqual(a, b Constant) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ConstInt:
		return a.I == b.I
	case ConstFloat:
		// -0.0 == 0.0 for dedup purposes; NaN is never deduplicated with
		// itself (spec §6.2).
		if math.IsNaN(a.F) || math.IsNaN(b.F) {
			return false
		}
		return a.F == b.F
	case ConstBool:
		return a.B == b.B
	case ConstNull:
		return true
	case ConstString:
		return a.S == b.S
	}
	return false
}

func (c *Chunk) AddIntConstant(v int64) uint16      { return c.AddConstant(Constant{Kind: ConstInt, I: v}) }
func (c *Chunk) AddFloatConstant(v float64) uint16  { return c.AddConstant(Constant{Kind: ConstFloat, F: v}) }
func (c *Chunk) AddBoolConstant(v bool) uint16      { return c.AddConstant(Constant{Kind: ConstBool, B: v}) }
func (c *Chunk) AddNullConstant() uint16            { return c.AddConstant(Constant{Kind: ConstNull}) }
func (c *Chunk) AddStringConstant(v string) uint16  { return c.AddConstant(Constant{Kind: ConstString, S: v}) }

// Emit appends one instruction word and its source line, returning the
// instruction's index (used for jump patching).
func (c *Chunk) Emit(instr uint32, line int) int {
	c.Code = append(c.Code, instr)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// PatchJump rewrites the sBx field of a previously-emitted jump instruction
// so it lands on the current end of Code (spec §4.3.4:
// offset = target − instruction_index − 1).
func (c *Chunk) PatchJump(at int) {
	target := len(c.Code)
	offset := target - at - 1
	if offset < math.MinInt16 || offset > math.MaxInt16 {
		panic(fmt.Sprintf("jump offset %d out of range", offset))
	}
	instr := c.Code[at]
	op := DecodeOp(instr)
	a := DecodeA(instr)
	c.Code[at] = EncodeASBx(op, a, int16(offset))
}

// AddPrototype registers a child Chunk and returns its Bx index for a
// Closure instruction.
func (c *Chunk) AddPrototype(child *Chunk) uint16 {
	c.Prototypes = append(c.Prototypes, child)
	return uint16(len(c.Prototypes) - 1)
}

// TrackMaxRegister updates the chunk's high-water mark for register use.
func (c *Chunk) TrackMaxRegister(r int) {
	if r > c.MaxRegisters {
		c.MaxRegisters = r
	}
}

// ValidateJumps checks testable property #1: every jump target lies in
// [0, len(code)).
func (c *Chunk) ValidateJumps() error {
	for i, instr := range c.Code {
		op := DecodeOp(instr)
		if op == OpJump || op == OpJumpIfFalse || op == OpJumpIfTrue || op == OpLoop {
			sbx := int(DecodeSBx(instr))
			target := i + 1 + sbx
			if target < 0 || target >= len(c.Code) {
				return fmt.Errorf("jump at %d targets out-of-range instruction %d", i, target)
			}
		}
	}
	return nil
}

// AllPrototypesSorted returns prototypes in a stable, deterministic order
// (used by the disassembler); grounded on the teacher's use of
// golang.org/x/exp/slices for small ordered views over compiler state.
func (c *Chunk) AllPrototypesSorted() []*Chunk {
	out := slices.Clone(c.Prototypes)
	return out
}
