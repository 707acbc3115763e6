package compiler

import (
	"fmt"

	"github.com/forgelang/forge/internal/ast"
)

// Error is a CompileError per spec §4.3.6/§7.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func errf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

const maxRegisters = 256

// local is one permanently-allocated register binding within a function
// scope (spec §4.3.1/§4.3.2).
type local struct {
	name     string
	depth    int
	register uint8
	mutable  bool
}

// upvalueRef records how one upvalue of the chunk being compiled is
// captured (spec §4.3.3).
type upvalueRef struct {
	name            string
	fromParentLocal bool // true: capture enclosing frame's local register; false: capture enclosing closure's own upvalue
	index           int
}

// loopContext tracks pending break jumps and the loop head for `continue`
// (spec §4.3.4).
type loopContext struct {
	headIP      int
	breakPatches []int
}

// funcState is one function's compilation state: register allocator,
// locals, upvalues, and chunk under construction.
type funcState struct {
	enclosing *funcState
	chunk     *Chunk

	nextRegister int
	scopeDepth   int
	locals       []local
	upvalues     []upvalueRef

	loops []loopContext
}

// variantInfo records a tagged-variant constructor's parent sum-type name
// and positional field count, gathered in a pre-pass over the program
// (spec §4.3.5).
type variantInfo struct {
	sumType string
	fields  int
}

// Compiler compiles one *ast.Program (or nested function literal) to a
// tree of Chunks (spec §4.3).
type Compiler struct {
	fs       *funcState
	variants map[string]variantInfo
}

func New() *Compiler {
	return &Compiler{variants: map[string]variantInfo{}}
}

// Compile compiles an entire program into the root "<main>" Chunk.
func Compile(prog *ast.Program) (*Chunk, error) {
	c := New()
	return c.CompileProgram(prog)
}

func (c *Compiler) CompileProgram(prog *ast.Program) (*Chunk, error) {
	c.collectVariants(prog.Statements)

	root := NewChunk("<main>")
	c.fs = &funcState{chunk: root}

	for _, stmt := range prog.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(OpReturnNull, 0, 0, 0, 0)
	root.MaxRegisters = c.fs.nextRegister
	if root.MaxRegisters > maxRegisters {
		return nil, errf("function %q exceeds maximum register count (%d > %d)", root.Name, root.MaxRegisters, maxRegisters)
	}
	if err := root.ValidateJumps(); err != nil {
		return nil, err
	}
	return root, nil
}

func (c *Compiler) collectVariants(stmts []ast.Statement) {
	for _, s := range stmts {
		if td, ok := s.(*ast.TypeDefinition); ok {
			for _, v := range td.Variants {
				c.variants[v.Name] = variantInfo{sumType: td.Name, fields: len(v.Fields)}
			}
		}
	}
}

// ---- register allocation helpers (spec §4.3.1) ----

func (c *Compiler) allocRegister() (uint8, error) {
	if c.fs.nextRegister >= maxRegisters {
		return 0, errf("register overflow: function exceeds %d registers", maxRegisters)
	}
	r := uint8(c.fs.nextRegister)
	c.fs.nextRegister++
	c.fs.chunk.TrackMaxRegister(c.fs.nextRegister)
	return r, nil
}

func (c *Compiler) freeTo(mark int) {
	c.fs.nextRegister = mark
}

func (c *Compiler) mark() int { return c.fs.nextRegister }

func (c *Compiler) enterScope() int {
	c.fs.scopeDepth++
	return c.mark()
}

func (c *Compiler) leaveScope(mark int) {
	depth := c.fs.scopeDepth
	for len(c.fs.locals) > 0 && c.fs.locals[len(c.fs.locals)-1].depth == depth {
		c.fs.locals = c.fs.locals[:len(c.fs.locals)-1]
	}
	c.fs.scopeDepth--
	c.freeTo(mark)
}

func (c *Compiler) declareLocal(name string, mutable bool) (uint8, error) {
	reg, err := c.allocRegister()
	if err != nil {
		return 0, err
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: c.fs.scopeDepth, register: reg, mutable: mutable})
	return reg, nil
}

func (c *Compiler) resolveLocal(fs *funcState, name string) (*local, bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return &fs.locals[i], true
		}
	}
	return nil, false
}

// resolveUpvalue recursively resolves name as an upvalue by walking
// enclosing function states (spec §4.3.3), adding an upvalue entry to every
// intermediate chunk on the way.
func (c *Compiler) resolveUpvalue(fs *funcState, name string) (int, bool) {
	if fs.enclosing == nil {
		return 0, false
	}
	if l, ok := c.resolveLocal(fs.enclosing, name); ok {
		return c.addUpvalue(fs, name, true, int(l.register)), true
	}
	if idx, ok := c.resolveUpvalue(fs.enclosing, name); ok {
		return c.addUpvalue(fs, name, false, idx), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(fs *funcState, name string, fromParentLocal bool, index int) int {
	for i, uv := range fs.upvalues {
		if uv.name == name && uv.fromParentLocal == fromParentLocal && uv.index == index {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{name: name, fromParentLocal: fromParentLocal, index: index})
	fs.chunk.UpvalueCount = len(fs.upvalues)
	fs.chunk.UpvalueSources = append(fs.chunk.UpvalueSources, UpvalueSource{FromParentLocal: fromParentLocal, Index: index})
	return len(fs.upvalues) - 1
}

func (c *Compiler) emit(op OpCode, a, b, cc uint8, line int) int {
	return c.fs.chunk.Emit(EncodeABC(op, a, b, cc), line)
}

func (c *Compiler) emitABx(op OpCode, a uint8, bx uint16, line int) int {
	return c.fs.chunk.Emit(EncodeABx(op, a, bx), line)
}

func (c *Compiler) emitASBx(op OpCode, a uint8, sbx int16, line int) int {
	return c.fs.chunk.Emit(EncodeASBx(op, a, sbx), line)
}
