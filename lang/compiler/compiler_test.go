package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/clox/lang/compiler"
)

func TestCompileSimpleExpression(t *testing.T) {
	proto, err := compiler.Compile([]byte(`print 1 + 2 * 3;`))
	require.NoError(t, err)
	require.NotNil(t, proto)

	ops := opcodes(proto.Chunk)
	assert.Equal(t, []compiler.OpCode{
		compiler.OP_CONSTANT,
		compiler.OP_CONSTANT,
		compiler.OP_CONSTANT,
		compiler.OP_MULTIPLY,
		compiler.OP_ADD,
		compiler.OP_PRINT,
		compiler.OP_NIL,
		compiler.OP_RETURN,
	}, ops)
}

func TestCompileGlobalVariable(t *testing.T) {
	proto, err := compiler.Compile([]byte(`var x = 1; x = 2;`))
	require.NoError(t, err)

	ops := opcodes(proto.Chunk)
	assert.Contains(t, ops, compiler.OP_DEFINE_GLOBAL)
	assert.Contains(t, ops, compiler.OP_SET_GLOBAL)
}

func TestCompileLocalVariable(t *testing.T) {
	proto, err := compiler.Compile([]byte(`{ var x = 1; print x; }`))
	require.NoError(t, err)

	ops := opcodes(proto.Chunk)
	assert.Contains(t, ops, compiler.OP_GET_LOCAL)
	assert.NotContains(t, ops, compiler.OP_DEFINE_GLOBAL)
}

func TestCompileFunctionEmitsClosure(t *testing.T) {
	proto, err := compiler.Compile([]byte(`
		fun outer() {
			var x = 1;
			fun inner() { return x; }
			return inner;
		}
	`))
	require.NoError(t, err)

	ops := opcodes(proto.Chunk)
	assert.Contains(t, ops, compiler.OP_CLOSURE)

	var nested *compiler.FunctionProto
	for _, c := range proto.Chunk.Constants {
		if fp, ok := c.(*compiler.FunctionProto); ok {
			nested = fp
		}
	}
	require.NotNil(t, nested)
	assert.Equal(t, "outer", nested.Name)

	var inner *compiler.FunctionProto
	for _, c := range nested.Chunk.Constants {
		if fp, ok := c.(*compiler.FunctionProto); ok {
			inner = fp
		}
	}
	require.NotNil(t, inner)
	assert.Equal(t, "inner", inner.Name)
	innerOps := opcodes(inner.Chunk)
	assert.Contains(t, innerOps, compiler.OP_GET_UPVALUE)
}

func TestCompileClassWithSuperclass(t *testing.T) {
	proto, err := compiler.Compile([]byte(`
		class A { greet() { return "a"; } }
		class B < A {
			greet() { return super.greet(); }
		}
	`))
	require.NoError(t, err)

	ops := opcodes(proto.Chunk)
	assert.Contains(t, ops, compiler.OP_CLASS)
	assert.Contains(t, ops, compiler.OP_INHERIT)
	assert.Contains(t, ops, compiler.OP_METHOD)
}

func TestCompileErrorsAreCollected(t *testing.T) {
	_, err := compiler.Compile([]byte(`var = 1;`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[line 1]")
}

func TestCompileSelfInheritanceIsError(t *testing.T) {
	_, err := compiler.Compile([]byte(`class A < A {}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't inherit from itself")
}

func TestCompileReturnOutsideFunctionIsError(t *testing.T) {
	_, err := compiler.Compile([]byte(`return 1;`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return from top-level code")
}

func opcodes(c *compiler.Chunk) []compiler.OpCode {
	var ops []compiler.OpCode
	for offset := 0; offset < c.Count(); {
		op := compiler.OpCode(c.Code[offset])
		ops = append(ops, op)
		offset = advance(c, op, offset)
	}
	return ops
}

// advance returns the offset of the instruction following the one at
// offset, mirroring the operand widths documented in opcode.go.
func advance(c *compiler.Chunk, op compiler.OpCode, offset int) int {
	switch op {
	case compiler.OP_CONSTANT, compiler.OP_GET_LOCAL, compiler.OP_SET_LOCAL,
		compiler.OP_GET_GLOBAL, compiler.OP_DEFINE_GLOBAL, compiler.OP_SET_GLOBAL,
		compiler.OP_GET_UPVALUE, compiler.OP_SET_UPVALUE,
		compiler.OP_GET_PROPERTY, compiler.OP_SET_PROPERTY, compiler.OP_GET_SUPER,
		compiler.OP_CALL, compiler.OP_CLASS, compiler.OP_METHOD:
		return offset + 2
	case compiler.OP_JUMP, compiler.OP_JUMP_IF_FALSE, compiler.OP_LOOP:
		return offset + 3
	case compiler.OP_INVOKE, compiler.OP_SUPER_INVOKE:
		return offset + 3
	case compiler.OP_CLOSURE:
		idx := c.Code[offset+1]
		n := offset + 2
		if proto, ok := c.Constants[idx].(*compiler.FunctionProto); ok {
			n += 2 * proto.UpvalueCount
		}
		return n
	default:
		return offset + 1
	}
}
