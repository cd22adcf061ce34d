package compiler

import (
	"fmt"
	"io"
)

// Disassemble writes a human-readable listing of every instruction in c to
// w, preceded by a "== name ==" header. It backs the `clox disassemble` CLI
// command and is also used directly by compiler tests.
func Disassemble(w io.Writer, c *Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < c.Count(); {
		offset = DisassembleInstruction(w, c, offset)
	}
}

// DisassembleInstruction writes one instruction at offset to w and returns
// the offset of the next instruction.
func DisassembleInstruction(w io.Writer, c *Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OP_CONSTANT:
		return constantInstr(w, op, c, offset)
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_UPVALUE, OP_SET_UPVALUE, OP_CALL:
		return byteInstr(w, op, c, offset)
	case OP_GET_GLOBAL, OP_DEFINE_GLOBAL, OP_SET_GLOBAL,
		OP_GET_PROPERTY, OP_SET_PROPERTY, OP_GET_SUPER,
		OP_CLASS, OP_METHOD:
		return constantInstr(w, op, c, offset)
	case OP_JUMP, OP_JUMP_IF_FALSE:
		return jumpInstr(w, op, 1, c, offset)
	case OP_LOOP:
		return jumpInstr(w, op, -1, c, offset)
	case OP_INVOKE, OP_SUPER_INVOKE:
		return invokeInstr(w, op, c, offset)
	case OP_CLOSURE:
		return closureInstr(w, c, offset)
	default:
		return simpleInstr(w, op, offset)
	}
}

func simpleInstr(w io.Writer, op OpCode, offset int) int {
	fmt.Fprintf(w, "%s\n", op)
	return offset + 1
}

func byteInstr(w io.Writer, op OpCode, c *Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func constantInstr(w io.Writer, op OpCode, c *Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%v'\n", op, idx, constantValue(c, int(idx)))
	return offset + 2
}

func invokeInstr(w io.Writer, op OpCode, c *Chunk, offset int) int {
	idx := c.Code[offset+1]
	argc := c.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%v'\n", op, argc, idx, constantValue(c, int(idx)))
	return offset + 3
}

func jumpInstr(w io.Writer, op OpCode, sign int, c *Chunk, offset int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func closureInstr(w io.Writer, c *Chunk, offset int) int {
	idx := c.Code[offset+1]
	offset += 2
	fmt.Fprintf(w, "%-16s %4d '%v'\n", OP_CLOSURE, idx, constantValue(c, int(idx)))

	if proto, ok := c.Constants[idx].(*FunctionProto); ok {
		for i := 0; i < proto.UpvalueCount; i++ {
			isLocal := c.Code[offset]
			index := c.Code[offset+1]
			offset += 2
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(w, "%04d    |                     %s %d\n", offset-2, kind, index)
		}
	}
	return offset
}

func constantValue(c *Chunk, idx int) any {
	if idx < 0 || idx >= len(c.Constants) {
		return "?"
	}
	v := c.Constants[idx]
	if proto, ok := v.(*FunctionProto); ok {
		name := proto.Name
		if name == "" {
			name = "<script>"
		}
		return fmt.Sprintf("<fn %s>", name)
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return v
}
