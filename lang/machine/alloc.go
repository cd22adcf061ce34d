package machine

import "github.com/loxlang/clox/lang/compiler"

// This file is the only place new heap objects come into existence. Every
// constructor registers its object with the collector via vm.track before
// handing back the pointer, so nothing is ever reachable from Go code
// without also being reachable from the GC's allocation list.

// internString returns the canonical *ObjString for chars, allocating and
// interning a new one only if the intern table does not already have a
// match, so that two equal strings always share one *ObjString.
func (vm *VM) internString(chars string) *ObjString {
	hash := fnv1a32(chars)
	if s := vm.strings.FindString(chars, hash); s != nil {
		return s
	}
	s := &ObjString{Chars: chars, Hash: hash}
	vm.track(s, len(chars))
	vm.strings.Set(s, Nil)
	return s
}

func (vm *VM) newFunction(name *ObjString, proto *compiler.FunctionProto) *ObjFunction {
	f := &ObjFunction{
		Arity:        proto.Arity,
		UpvalueCount: proto.UpvalueCount,
		Name:         name,
		Proto:        proto,
	}
	vm.track(f, 0)
	// f isn't reachable from any other root yet, and materializing a nested
	// function constant can itself allocate (and so trigger a collection)
	// before f's own Constants slice is filled in, so keep f on the stack
	// for the duration the same way add() protects its operands.
	vm.push(ObjValue(f))
	f.Constants = make([]Value, len(proto.Chunk.Constants))
	for i, c := range proto.Chunk.Constants {
		f.Constants[i] = vm.materializeConstant(c)
	}
	vm.pop()
	return f
}

// materializeConstant converts a Chunk's raw constant-pool entry (a
// compile-time float64, string or nested *compiler.FunctionProto) into a
// runtime Value, recursively loading any nested function and interning any
// string, so that by the time a closure is created every constant it can
// reference is already a first-class Value.
func (vm *VM) materializeConstant(c any) Value {
	switch c := c.(type) {
	case float64:
		return NumberValue(c)
	case string:
		return ObjValue(vm.internString(c))
	case *compiler.FunctionProto:
		name := (*ObjString)(nil)
		if c.Name != "" {
			name = vm.internString(c.Name)
		}
		return ObjValue(vm.newFunction(name, c))
	default:
		panic("unreachable constant kind in chunk")
	}
}

func (vm *VM) newUpvalue(slot int) *ObjUpvalue {
	uv := &ObjUpvalue{Slot: slot}
	vm.track(uv, 0)
	return uv
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	vm.track(c, 0)
	return c
}

func (vm *VM) newClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: NewTable()}
	vm.track(c, 0)
	return c
}

func (vm *VM) newInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewTable()}
	vm.track(i, 0)
	return i
}

func (vm *VM) newBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	vm.track(b, 0)
	return b
}

func (vm *VM) newNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	vm.track(n, 0)
	return n
}
