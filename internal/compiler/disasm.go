package compiler

import (
	"fmt"
	"strings"
)

// Disassemble renders a Chunk and its prototypes as human-readable text,
// grounded on funvibe-funxy's internal/vm/disasm.go textual dump format; a
// supplemented feature (SPEC_FULL.md §4) exposed via `forge disasm`.
func Disassemble(c *Chunk) string {
	var b strings.Builder
	disassembleInto(&b, c, 0)
	return b.String()
}

func disassembleInto(b *strings.Builder, c *Chunk, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s== %s (arity=%d, registers=%d, upvalues=%d) ==\n", indent, c.Name, c.Arity, c.MaxRegisters, c.UpvalueCount)
	for i, instr := range c.Code {
		line := 0
		if i < len(c.Lines) {
			line = c.Lines[i]
		}
		op := DecodeOp(instr)
		a := DecodeA(instr)
		switch op {
		case OpLoadConst:
			bx := DecodeBx(instr)
			fmt.Fprintf(b, "%s%4d  %-14s r%-3d const[%d] %s  ; line %d\n", indent, i, op, a, bx, describeConstant(c, bx), line)
		case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpLoop:
			sbx := DecodeSBx(instr)
			fmt.Fprintf(b, "%s%4d  %-14s r%-3d -> %d  ; line %d\n", indent, i, op, a, i+1+int(sbx), line)
		case OpClosure:
			bx := DecodeBx(instr)
			fmt.Fprintf(b, "%s%4d  %-14s r%-3d proto[%d]  ; line %d\n", indent, i, op, a, bx, line)
		case OpGetGlobal, OpSetGlobal:
			bx := DecodeBx(instr)
			fmt.Fprintf(b, "%s%4d  %-14s r%-3d global[%d]  ; line %d\n", indent, i, op, a, bx, line)
		default:
			bb := DecodeB(instr)
			cc := DecodeC(instr)
			fmt.Fprintf(b, "%s%4d  %-14s r%-3d r%-3d r%-3d  ; line %d\n", indent, i, op, a, bb, cc, line)
		}
	}
	for i, proto := range c.Prototypes {
		fmt.Fprintf(b, "%s-- proto[%d] --\n", indent, i)
		disassembleInto(b, proto, depth+1)
	}
}

func describeConstant(c *Chunk, idx uint16) string {
	if int(idx) >= len(c.Constants) {
		return "?"
	}
	k := c.Constants[idx]
	switch k.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", k.I)
	case ConstFloat:
		return fmt.Sprintf("%g", k.F)
	case ConstBool:
		return fmt.Sprintf("%t", k.B)
	case ConstNull:
		return "null"
	case ConstString:
		return fmt.Sprintf("%q", k.S)
	}
	return "?"
}
