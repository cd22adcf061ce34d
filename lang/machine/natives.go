package machine

import "time"

// vmStart is the reference instant for clock(), captured once when the
// package is initialized.
var vmStart = time.Now()

// defineNatives installs every native function into the VM's globals table.
// clock() is the only one defined so far.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", clockNative)
}

func (vm *VM) defineNative(name string, fn NativeFn) {
	native := vm.newNative(name, fn)
	// push/pop around the Set so the native and its name string stay
	// reachable if defining it is itself what tips the VM into a collection.
	vm.push(ObjValue(vm.internString(name)))
	vm.push(ObjValue(native))
	vm.globals.Set(vm.stack[vm.stackTop-2].AsObj().(*ObjString), vm.stack[vm.stackTop-1])
	vm.pop()
	vm.pop()
}

// clockNative returns the number of seconds elapsed since the process
// started (vmStart, shared by every VM in the process),
// mirroring clox's use of C's clock() as its one native function.
func clockNative(argc int, args []Value) (Value, error) {
	return NumberValue(time.Since(vmStart).Seconds()), nil
}
