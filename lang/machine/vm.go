package machine

import (
	"fmt"
	"io"
	"os"

	"github.com/loxlang/clox/lang/compiler"
)

// FramesMax and StackMax are the VM's fixed-capacity call-frame and
// value-stack sizes, with no dynamic growth: a call past FramesMax is a
// runtime "Stack overflow." error, and a push past StackMax panics.
const (
	FramesMax = 64
	StackMax  = FramesMax * 256
)

// InterpretResult is the outcome of a top-level Interpret call: ok, a
// compile-time error, or a runtime error, each mapping to a distinct
// process exit code at the CLI boundary.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// CallFrame is one activation record: the closure being run, its
// instruction pointer into that closure's chunk, and the base index into
// the VM's value stack where its locals (including the receiver/callee
// slot 0) begin.
type CallFrame struct {
	closure *ObjClosure
	ip      int
	slots   int
}

// VM is the bytecode interpreter: a fixed-size frame stack, a fixed-size
// value stack, the globals and string-intern tables, the open-upvalue
// chain, and the allocation/GC bookkeeping of gc.go. Following the
// teacher's Thread convention, all state lives on this struct rather than
// in package globals, so nothing prevents running more than one VM in a
// process.
type VM struct {
	frames     [FramesMax]CallFrame
	frameCount int

	stack    [StackMax]Value
	stackTop int

	globals      *Table
	strings      *Table
	openUpvalues *ObjUpvalue
	initString   *ObjString

	objects        Obj
	bytesAllocated int
	nextGC         int
	grayStack      []Obj

	// Stdout and Stderr receive `print` output and runtime error reports,
	// respectively. Defaulted to os.Stdout/os.Stderr by New.
	Stdout io.Writer
	Stderr io.Writer

	// StressGC runs a full collection before every single allocation,
	// trading all performance for maximum odds of surfacing a missing root.
	StressGC bool

	// Trace prints the value stack and the disassembly of each instruction
	// to Stderr immediately before it executes.
	Trace bool

	// HeapGrowthFactor multiplies bytesAllocated to pick the next collection
	// threshold; defaultHeapGrowthFactor is used when this is <= 1.
	HeapGrowthFactor float64
}

// New returns a freshly initialized VM ready for repeated Interpret calls.
func New() *VM {
	vm := &VM{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		nextGC: 1024 * 1024,
	}
	vm.globals = NewTable()
	vm.strings = NewTable()
	vm.initString = vm.internString("init")
	vm.defineNatives()
	return vm
}

// Interpret compiles and runs source as a fresh top-level program.
func (vm *VM) Interpret(source []byte) InterpretResult {
	proto, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintln(vm.Stderr, err)
		return InterpretCompileError
	}

	fn := vm.newFunction(nil, proto)
	vm.push(ObjValue(fn))
	closure := vm.newClosure(fn)
	vm.pop()
	vm.push(ObjValue(closure))
	vm.callClosure(closure, 0)

	return vm.run()
}

func (vm *VM) push(v Value) {
	if vm.stackTop >= StackMax {
		panic("value stack overflow")
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

// printStack writes the current value stack, bottom to top, as part of
// --trace output.
func (vm *VM) printStack() {
	fmt.Fprint(vm.Stderr, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.Stderr, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(vm.Stderr)
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// run is the central dispatch loop, executing the current top frame (and
// whatever frames are pushed by calls within it) until it returns to the
// caller of Interpret or hits a runtime error.
func (vm *VM) run() InterpretResult {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Function.Proto.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() uint16 {
		hi := readByte()
		lo := readByte()
		return uint16(hi)<<8 | uint16(lo)
	}
	readConstant := func() Value {
		return frame.closure.Function.Constants[readByte()]
	}
	readString := func() *ObjString {
		return readConstant().AsObj().(*ObjString)
	}

	for {
		if vm.Trace {
			vm.printStack()
			compiler.DisassembleInstruction(vm.Stderr, frame.closure.Function.Proto.Chunk, frame.ip)
		}

		op := compiler.OpCode(readByte())

		switch op {
		case compiler.OP_CONSTANT:
			vm.push(readConstant())

		case compiler.OP_NIL:
			vm.push(Nil)
		case compiler.OP_TRUE:
			vm.push(True)
		case compiler.OP_FALSE:
			vm.push(False)
		case compiler.OP_POP:
			vm.pop()

		case compiler.OP_GET_LOCAL:
			slot := readByte()
			vm.push(vm.stack[frame.slots+int(slot)])
		case compiler.OP_SET_LOCAL:
			slot := readByte()
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case compiler.OP_GET_GLOBAL:
			name := readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}
			vm.push(v)
		case compiler.OP_DEFINE_GLOBAL:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case compiler.OP_SET_GLOBAL:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}

		case compiler.OP_GET_UPVALUE:
			slot := readByte()
			vm.push(vm.upvalueValue(frame.closure.Upvalues[slot]))
		case compiler.OP_SET_UPVALUE:
			slot := readByte()
			vm.setUpvalueValue(frame.closure.Upvalues[slot], vm.peek(0))

		case compiler.OP_GET_PROPERTY:
			if !vm.peek(0).IsObj() {
				vm.runtimeError("Only instances have properties.")
				return InterpretRuntimeError
			}
			inst, ok := vm.peek(0).AsObj().(*ObjInstance)
			if !ok {
				vm.runtimeError("Only instances have properties.")
				return InterpretRuntimeError
			}
			name := readString()
			if v, ok := inst.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if !vm.bindMethod(inst.Class, name) {
				return InterpretRuntimeError
			}

		case compiler.OP_SET_PROPERTY:
			inst, ok := vm.peek(1).AsObj().(*ObjInstance)
			if !vm.peek(1).IsObj() || !ok {
				vm.runtimeError("Only instances have fields.")
				return InterpretRuntimeError
			}
			name := readString()
			inst.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case compiler.OP_GET_SUPER:
			name := readString()
			superclass := vm.pop().AsObj().(*ObjClass)
			if !vm.bindMethod(superclass, name) {
				return InterpretRuntimeError
			}

		case compiler.OP_EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolValue(ValuesEqual(a, b)))
		case compiler.OP_GREATER:
			if !vm.binaryNumberOp(func(a, b float64) Value { return BoolValue(a > b) }) {
				return InterpretRuntimeError
			}
		case compiler.OP_LESS:
			if !vm.binaryNumberOp(func(a, b float64) Value { return BoolValue(a < b) }) {
				return InterpretRuntimeError
			}

		case compiler.OP_ADD:
			if !vm.add() {
				return InterpretRuntimeError
			}
		case compiler.OP_SUBTRACT:
			if !vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a - b) }) {
				return InterpretRuntimeError
			}
		case compiler.OP_MULTIPLY:
			if !vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a * b) }) {
				return InterpretRuntimeError
			}
		case compiler.OP_DIVIDE:
			if !vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a / b) }) {
				return InterpretRuntimeError
			}

		case compiler.OP_NOT:
			vm.push(BoolValue(vm.pop().IsFalsey()))
		case compiler.OP_NEGATE:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
				return InterpretRuntimeError
			}
			vm.push(NumberValue(-vm.pop().AsNumber()))

		case compiler.OP_PRINT:
			fmt.Fprintln(vm.Stdout, vm.pop().String())

		case compiler.OP_JUMP:
			offset := readShort()
			frame.ip += int(offset)
		case compiler.OP_JUMP_IF_FALSE:
			offset := readShort()
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}
		case compiler.OP_LOOP:
			offset := readShort()
			frame.ip -= int(offset)

		case compiler.OP_CALL:
			argc := int(readByte())
			if !vm.callValue(vm.peek(argc), argc) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OP_INVOKE:
			method := readString()
			argc := int(readByte())
			if !vm.invoke(method, argc) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OP_SUPER_INVOKE:
			method := readString()
			argc := int(readByte())
			superclass := vm.pop().AsObj().(*ObjClass)
			if !vm.invokeFromClass(superclass, method, argc) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OP_CLOSURE:
			fn := readConstant().AsObj().(*ObjFunction)
			closure := vm.newClosure(fn)
			vm.push(ObjValue(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case compiler.OP_CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case compiler.OP_RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OP_CLASS:
			vm.push(ObjValue(vm.newClass(readString())))

		case compiler.OP_INHERIT:
			superVal := vm.peek(1)
			superclass, ok := superVal.AsObj().(*ObjClass)
			if !superVal.IsObj() || !ok {
				vm.runtimeError("Superclass must be a class.")
				return InterpretRuntimeError
			}
			subclass := vm.peek(0).AsObj().(*ObjClass)
			AddAll(superclass.Methods, subclass.Methods)
			vm.pop() // subclass

		case compiler.OP_METHOD:
			vm.defineMethod(readString())

		default:
			panic(fmt.Sprintf("unhandled opcode %s", op))
		}
	}
}

func (vm *VM) binaryNumberOp(fn func(a, b float64) Value) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(fn(a, b))
	return true
}

func (vm *VM) add() bool {
	bv, av := vm.peek(0), vm.peek(1)
	switch {
	case av.IsObj() && bv.IsObj():
		as, aok := av.AsObj().(*ObjString)
		bs, bok := bv.AsObj().(*ObjString)
		if aok && bok {
			vm.pop()
			vm.pop()
			// string concatenation allocates a brand new string, so it must
			// keep both operands reachable on the stack until the result is
			// interned and pushed back, in case that allocation triggers a GC.
			vm.push(ObjValue(as))
			vm.push(ObjValue(bs))
			result := vm.internString(as.Chars + bs.Chars)
			vm.pop()
			vm.pop()
			vm.push(ObjValue(result))
			return true
		}
	case av.IsNumber() && bv.IsNumber():
		b := vm.pop().AsNumber()
		a := vm.pop().AsNumber()
		vm.push(NumberValue(a + b))
		return true
	}
	return vm.runtimeError("Operands must be two numbers or two strings.")
}

func (vm *VM) callValue(callee Value, argc int) bool {
	if !callee.IsObj() {
		return vm.runtimeError("Can only call functions and classes.")
	}
	switch c := callee.AsObj().(type) {
	case *ObjClosure:
		return vm.callClosure(c, argc)
	case *ObjClass:
		vm.stack[vm.stackTop-argc-1] = ObjValue(vm.newInstance(c))
		if initializer, ok := c.Methods.Get(vm.initString); ok {
			return vm.callClosure(initializer.AsObj().(*ObjClosure), argc)
		}
		if argc != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argc)
		}
		return true
	case *ObjBoundMethod:
		vm.stack[vm.stackTop-argc-1] = c.Receiver
		return vm.callClosure(c.Method, argc)
	case *ObjNative:
		result, err := c.Fn(argc, vm.stack[vm.stackTop-argc:vm.stackTop])
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stackTop -= argc + 1
		vm.push(result)
		return true
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) callClosure(closure *ObjClosure, argc int) bool {
	if argc != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if vm.frameCount == FramesMax {
		return vm.runtimeError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argc - 1
	return true
}

func (vm *VM) invoke(name *ObjString, argc int) bool {
	receiver := vm.peek(argc)
	inst, ok := receiver.AsObj().(*ObjInstance)
	if !receiver.IsObj() || !ok {
		vm.runtimeError("Only instances have methods.")
		return false
	}
	if v, ok := inst.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argc-1] = v
		return vm.callValue(v, argc)
	}
	return vm.invokeFromClass(inst.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argc int) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.callClosure(method.AsObj().(*ObjClosure), argc)
}

func (vm *VM) bindMethod(class *ObjClass, name *ObjString) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	bound := vm.newBoundMethod(vm.peek(0), method.AsObj().(*ObjClosure))
	vm.pop()
	vm.push(ObjValue(bound))
	return true
}

func (vm *VM) defineMethod(name *ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsObj().(*ObjClass)
	class.Methods.Set(name, method)
	vm.pop()
}

// upvalueValue and setUpvalueValue read/write an upvalue's current value,
// whether it is still open (live on the value stack) or has been closed
// (copied inline into the upvalue itself).
func (vm *VM) upvalueValue(uv *ObjUpvalue) Value {
	if uv.IsClosed {
		return uv.Closed
	}
	return vm.stack[uv.Slot]
}

func (vm *VM) setUpvalueValue(uv *ObjUpvalue, v Value) {
	if uv.IsClosed {
		uv.Closed = v
	} else {
		vm.stack[uv.Slot] = v
	}
}

// captureUpvalue returns the open upvalue for the given stack slot, reusing
// an existing one if the sorted-by-descending-slot open list already has
// it, so the same slot never gets two distinct open upvalues.
func (vm *VM) captureUpvalue(slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	uv := vm.openUpvalues
	for uv != nil && uv.Slot > slot {
		prev = uv
		uv = uv.NextOpen
	}
	if uv != nil && uv.Slot == slot {
		return uv
	}

	created := vm.newUpvalue(slot)
	created.NextOpen = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above the given stack slot,
// copying its value inline so it survives the slots it pointed into being
// reused or popped.
func (vm *VM) closeUpvalues(fromSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= fromSlot {
		uv := vm.openUpvalues
		uv.Closed = vm.stack[uv.Slot]
		uv.IsClosed = true
		vm.openUpvalues = uv.NextOpen
	}
}

// runtimeError writes a formatted runtime error, with an innermost-first
// stack trace, to Stderr and resets the VM's stacks. It always returns
// false so callers can write `return vm.runtimeError(...)`.
func (vm *VM) runtimeError(format string, args ...any) bool {
	fmt.Fprintf(vm.Stderr, format+"\n", args...)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := fn.Proto.Chunk.Lines[frame.ip-1]
		if fn.Name == nil {
			fmt.Fprintf(vm.Stderr, "[line %d] in script\n", line)
		} else {
			fmt.Fprintf(vm.Stderr, "[line %d] in %s()\n", line, fn.Name.Chars)
		}
	}

	vm.resetStack()
	return false
}
