package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/clox/lang/compiler"
)

func TestDisassembleListsEveryInstruction(t *testing.T) {
	proto, err := compiler.Compile([]byte(`print 1 + 2;`))
	require.NoError(t, err)

	var buf bytes.Buffer
	compiler.Disassemble(&buf, proto.Chunk, "test chunk")

	out := buf.String()
	assert.Contains(t, out, "== test chunk ==")
	assert.Contains(t, out, "OP_CONSTANT")
	assert.Contains(t, out, "OP_ADD")
	assert.Contains(t, out, "OP_PRINT")
	assert.Contains(t, out, "OP_RETURN")
}

func TestDisassembleInstructionAdvancesByOperandWidth(t *testing.T) {
	proto, err := compiler.Compile([]byte(`1;`))
	require.NoError(t, err)

	var buf bytes.Buffer
	next := compiler.DisassembleInstruction(&buf, proto.Chunk, 0)
	assert.Equal(t, 2, next) // OP_CONSTANT takes a one-byte operand
}
