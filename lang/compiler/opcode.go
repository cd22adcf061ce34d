package compiler

import "fmt"

// OpCode is a single bytecode instruction tag. Each opcode occupies exactly
// one byte in a Chunk's code stream; the operand widths below are the
// wire-level contract the compiler and the machine must agree on.
type OpCode uint8

//nolint:revive
const (
	OP_CONSTANT OpCode = iota // CONSTANT n           push constants[n]
	OP_NIL                    // NIL                  push nil
	OP_TRUE                   // TRUE                 push true
	OP_FALSE                  // FALSE                push false
	OP_POP                    // POP                  pop

	OP_GET_LOCAL // GET_LOCAL n          push frame.slots[n]
	OP_SET_LOCAL // SET_LOCAL n          frame.slots[n] = peek(0)

	OP_GET_GLOBAL    // GET_GLOBAL n         push globals[names[n]]
	OP_DEFINE_GLOBAL // DEFINE_GLOBAL n      globals[names[n]] = pop()
	OP_SET_GLOBAL    // SET_GLOBAL n         globals[names[n]] = peek(0)

	OP_GET_UPVALUE // GET_UPVALUE n        push *upvalues[n]
	OP_SET_UPVALUE // SET_UPVALUE n        *upvalues[n] = peek(0)

	OP_GET_PROPERTY // GET_PROPERTY n       instance.<names[n]>
	OP_SET_PROPERTY // SET_PROPERTY n       instance.<names[n]> = value
	OP_GET_SUPER    // GET_SUPER n          bound super method <names[n]>

	OP_EQUAL
	OP_GREATER
	OP_LESS

	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE

	OP_NOT
	OP_NEGATE

	OP_PRINT

	OP_JUMP          // JUMP hi lo           ip += offset
	OP_JUMP_IF_FALSE // JUMP_IF_FALSE hi lo  if falsey(peek(0)) { ip += offset }
	OP_LOOP          // LOOP hi lo           ip -= offset

	OP_CALL // CALL argc            invoke callable at stack[-argc-1]

	OP_INVOKE       // INVOKE n argc        fused GET_PROPERTY+CALL
	OP_SUPER_INVOKE // SUPER_INVOKE n argc  fused GET_SUPER+CALL

	OP_CLOSURE // CLOSURE n [islocal index]*upvalueCount

	OP_CLOSE_UPVALUE
	OP_RETURN

	OP_CLASS   // CLASS n
	OP_INHERIT // INHERIT
	OP_METHOD  // METHOD n

	opCodeCount
)

var opCodeNames = [...]string{
	OP_CONSTANT:      "OP_CONSTANT",
	OP_NIL:           "OP_NIL",
	OP_TRUE:          "OP_TRUE",
	OP_FALSE:         "OP_FALSE",
	OP_POP:           "OP_POP",
	OP_GET_LOCAL:     "OP_GET_LOCAL",
	OP_SET_LOCAL:     "OP_SET_LOCAL",
	OP_GET_GLOBAL:    "OP_GET_GLOBAL",
	OP_DEFINE_GLOBAL: "OP_DEFINE_GLOBAL",
	OP_SET_GLOBAL:    "OP_SET_GLOBAL",
	OP_GET_UPVALUE:   "OP_GET_UPVALUE",
	OP_SET_UPVALUE:   "OP_SET_UPVALUE",
	OP_GET_PROPERTY:  "OP_GET_PROPERTY",
	OP_SET_PROPERTY:  "OP_SET_PROPERTY",
	OP_GET_SUPER:     "OP_GET_SUPER",
	OP_EQUAL:         "OP_EQUAL",
	OP_GREATER:       "OP_GREATER",
	OP_LESS:          "OP_LESS",
	OP_ADD:           "OP_ADD",
	OP_SUBTRACT:      "OP_SUBTRACT",
	OP_MULTIPLY:      "OP_MULTIPLY",
	OP_DIVIDE:        "OP_DIVIDE",
	OP_NOT:           "OP_NOT",
	OP_NEGATE:        "OP_NEGATE",
	OP_PRINT:         "OP_PRINT",
	OP_JUMP:          "OP_JUMP",
	OP_JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	OP_LOOP:          "OP_LOOP",
	OP_CALL:          "OP_CALL",
	OP_INVOKE:        "OP_INVOKE",
	OP_SUPER_INVOKE:  "OP_SUPER_INVOKE",
	OP_CLOSURE:       "OP_CLOSURE",
	OP_CLOSE_UPVALUE: "OP_CLOSE_UPVALUE",
	OP_RETURN:        "OP_RETURN",
	OP_CLASS:         "OP_CLASS",
	OP_INHERIT:       "OP_INHERIT",
	OP_METHOD:        "OP_METHOD",
}

func (op OpCode) String() string {
	if op < opCodeCount {
		if s := opCodeNames[op]; s != "" {
			return s
		}
	}
	return fmt.Sprintf("illegal opcode (%d)", op)
}
