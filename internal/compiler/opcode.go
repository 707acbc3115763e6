// Package compiler turns a parsed *ast.Program into register-machine
// bytecode (spec §3.3, §4.3, §6.1). The instruction encoding is ported
// close to verbatim from original_source/src/vm/bytecode.rs, since spec.md
// pins the bit layout exactly ("Implementations must honour this layout")
// and no pack example (all stack machines) could ground a register
// encoding; file layout and naming follow funvibe-funxy's own
// internal/vm compiler split.
package compiler

// OpCode is the 8-bit opcode occupying the most-significant byte of each
// 32-bit instruction word (spec §3.3/§6.1).
type OpCode uint8

const (
	OpLoadConst OpCode = iota
	OpLoadNull
	OpLoadTrue
	OpLoadFalse
	OpMove

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	OpEq
	OpNotEq
	OpLt
	OpGt
	OpLtEq
	OpGtEq
	OpAnd
	OpOr
	OpNot

	OpGetGlobal
	OpSetGlobal

	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpLoop

	OpCall
	OpReturn
	OpReturnNull

	OpClosure
	OpGetUpvalue
	OpSetUpvalue

	OpNewArray
	OpNewObject
	OpGetField
	OpSetField
	OpGetIndex
	OpSetIndex

	OpConcat
	OpInterpolate
	OpLen

	OpTry
	OpSpawn
	OpExtractField
)

var opNames = [...]string{
	OpLoadConst: "LoadConst", OpLoadNull: "LoadNull", OpLoadTrue: "LoadTrue", OpLoadFalse: "LoadFalse",
	OpMove: "Move",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod", OpNeg: "Neg",
	OpEq: "Eq", OpNotEq: "NotEq", OpLt: "Lt", OpGt: "Gt", OpLtEq: "LtEq", OpGtEq: "GtEq",
	OpAnd: "And", OpOr: "Or", OpNot: "Not",
	OpGetGlobal: "GetGlobal", OpSetGlobal: "SetGlobal",
	OpJump: "Jump", OpJumpIfFalse: "JumpIfFalse", OpJumpIfTrue: "JumpIfTrue", OpLoop: "Loop",
	OpCall: "Call", OpReturn: "Return", OpReturnNull: "ReturnNull",
	OpClosure: "Closure", OpGetUpvalue: "GetUpvalue", OpSetUpvalue: "SetUpvalue",
	OpNewArray: "NewArray", OpNewObject: "NewObject",
	OpGetField: "GetField", OpSetField: "SetField", OpGetIndex: "GetIndex", OpSetIndex: "SetIndex",
	OpConcat: "Concat", OpInterpolate: "Interpolate", OpLen: "Len",
	OpTry: "Try", OpSpawn: "Spawn", OpExtractField: "ExtractField",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "UNKNOWN"
}

// HeapTouching reports whether op is one of the opcodes the JIT
// type-analysis pre-pass must reject (spec §4.5.1).
func (op OpCode) HeapTouching() bool {
	switch op {
	case OpNewArray, OpNewObject, OpGetField, OpSetField, OpGetIndex, OpSetIndex,
		OpConcat, OpLen, OpInterpolate, OpSpawn, OpExtractField, OpTry:
		return true
	}
	return false
}

// Instruction encoding/decoding: op:8|a:8|b:8|c:8, or op:8|a:8|Bx:16, or
// op:8|a:8|sBx:16 (little-endian 32-bit word per spec §6.1).

// EncodeABC packs a three-register instruction.
func EncodeABC(op OpCode, a, b, c uint8) uint32 {
	return uint32(op)<<24 | uint32(a)<<16 | uint32(b)<<8 | uint32(c)
}

// EncodeABx packs an instruction with a 16-bit unsigned immediate.
func EncodeABx(op OpCode, a uint8, bx uint16) uint32 {
	return uint32(op)<<24 | uint32(a)<<16 | uint32(bx)
}

// EncodeASBx packs an instruction with a 16-bit signed immediate.
func EncodeASBx(op OpCode, a uint8, sbx int16) uint32 {
	return uint32(op)<<24 | uint32(a)<<16 | uint32(uint16(sbx))
}

func DecodeOp(instr uint32) OpCode { return OpCode(instr >> 24) }
func DecodeA(instr uint32) uint8   { return uint8(instr >> 16) }
func DecodeB(instr uint32) uint8   { return uint8(instr >> 8) }
func DecodeC(instr uint32) uint8   { return uint8(instr) }
func DecodeBx(instr uint32) uint16 { return uint16(instr) }
func DecodeSBx(instr uint32) int16 { return int16(uint16(instr)) }
