package compiler

import "github.com/strand-lang/strand/lang/value"

// chunk accumulates the bytecode, line table and constant pool for a single
// function while it is being compiled. Once compilation of that function
// finishes, its contents are copied into the function's immutable
// value.Function (Code/Lines/Consts fields).
type chunk struct {
	code  []byte
	lines []int32

	consts     []value.Value
	constIndex map[value.Value]uint16
}

func newChunk() *chunk {
	return &chunk{constIndex: make(map[value.Value]uint16)}
}

// emitByte appends a single raw byte with its source line.
func (c *chunk) emitByte(b byte, line int) {
	c.code = append(c.code, b)
	c.lines = append(c.lines, int32(line))
}

// emitOp appends an opcode with no operand.
func (c *chunk) emitOp(op Opcode, line int) int {
	pos := len(c.code)
	c.emitByte(byte(op), line)
	return pos
}

// emitU16 appends a big-endian uint16 operand.
func (c *chunk) emitU16(v uint16, line int) {
	c.emitByte(byte(v>>8), line)
	c.emitByte(byte(v), line)
}

// emitOpU16 appends an opcode followed by a uint16 operand (used by CONST,
// GET_LOCAL, jumps, etc.)
func (c *chunk) emitOpU16(op Opcode, arg uint16, line int) int {
	pos := len(c.code)
	c.emitByte(byte(op), line)
	c.emitU16(arg, line)
	return pos
}

func (c *chunk) emitOpU8(op Opcode, arg byte, line int) int {
	pos := len(c.code)
	c.emitByte(byte(op), line)
	c.emitByte(arg, line)
	return pos
}

// addConstant interns v into the constant pool, reusing an existing entry
// for an equal value (so two occurrences of the literal 3.5, or of the same
// global name, share one slot).
func (c *chunk) addConstant(v value.Value) uint16 {
	if idx, ok := c.constIndex[v]; ok {
		return idx
	}
	idx := uint16(len(c.consts))
	c.consts = append(c.consts, v)
	c.constIndex[v] = idx
	return idx
}

// patchJumpHere rewrites the i16 operand at the given jump instruction's
// operand offset so that it lands on the current end of the chunk -- used
// for forward jumps (if/elif/else, short-circuit and/or, match cases,
// ITER_NEXT's exhaustion branch) once the jump target is known.
func (c *chunk) patchJumpHere(operandOffset int) {
	target := len(c.code)
	offset := int32(target - (operandOffset + 2))
	c.code[operandOffset] = byte(uint16(offset) >> 8)
	c.code[operandOffset+1] = byte(uint16(offset))
}

// emitLoop appends a LOOP instruction jumping back to loopStart.
func (c *chunk) emitLoop(loopStart int, line int) {
	c.emitByte(byte(LOOP), line)
	offset := int32(len(c.code) + 2 - loopStart)
	c.emitU16(uint16(offset), line)
}
