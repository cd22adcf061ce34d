package machine

import "reflect"

// This file implements a straight-line stop-the-world mark-sweep collector:
// a mark phase (push every root onto a gray worklist, draining it by
// blackening each object's own references) followed by two sweeps, the
// intern table first (it holds only weak references to strings) and then
// the intrusive object list. Collection triggers when bytesAllocated
// crosses nextGC, which is grown by HeapGrowthFactor after each run; when
// StressGC is set a collection runs before every allocation regardless of
// the threshold, to shake out missing roots during development.

const defaultHeapGrowthFactor = 2.0

// track records a freshly allocated object on the VM's intrusive allocation
// list and in its byte count, possibly triggering a collection first
// (always under stress-GC, otherwise once the threshold is crossed). The
// collection runs before o is linked in, so the fresh, not yet rooted o can
// never be swept off the list.
func (vm *VM) track(o Obj, size int) {
	vm.bytesAllocated += size
	if vm.StressGC || vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}

	h := o.header()
	h.next = vm.objects
	vm.objects = o
}

func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.strings.removeUnmarked()
	vm.sweep()

	growth := vm.HeapGrowthFactor
	if growth <= 1 {
		growth = defaultHeapGrowthFactor
	}
	vm.nextGC = int(float64(vm.bytesAllocated) * growth)
	if vm.nextGC < 1024 {
		vm.nextGC = 1024
	}
}

// markRoots marks everything directly reachable: the value stack, every call
// frame's closure, the open upvalue chain, the globals table and the
// canonical "init" string.
func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		vm.markObject(uv)
	}
	vm.markTable(vm.globals)
	vm.markObject(vm.initString)
}

func (vm *VM) markValue(v Value) {
	if v.IsObj() {
		vm.markObject(v.AsObj())
	}
}

func (vm *VM) markTable(t *Table) {
	t.each(func(key *ObjString, value Value) {
		vm.markObject(key)
		vm.markValue(value)
	})
}

// markObject adds o to the gray worklist the first time it is seen. nil is
// accepted silently, including a nil pointer of a concrete object type,
// since several references (e.g. the top-level script function's Name, or
// a not-yet-initialized initString) may be nil at collection time.
func (vm *VM) markObject(o Obj) {
	if o == nil || reflect.ValueOf(o).IsNil() {
		return
	}
	h := o.header()
	if h.marked {
		return
	}
	h.marked = true
	vm.grayStack = append(vm.grayStack, o)
}

// traceReferences drains the gray worklist, blackening each object by
// marking everything it points to.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		o := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(o)
	}
}

func (vm *VM) blacken(o Obj) {
	switch o := o.(type) {
	case *ObjString, *ObjNative:
		// no outgoing references
	case *ObjUpvalue:
		vm.markValue(o.Closed)
	case *ObjFunction:
		vm.markObject(o.Name)
		for _, c := range o.Constants {
			vm.markValue(c)
		}
	case *ObjClosure:
		vm.markObject(o.Function)
		for _, uv := range o.Upvalues {
			vm.markObject(uv)
		}
	case *ObjClass:
		vm.markObject(o.Name)
		vm.markTable(o.Methods)
	case *ObjInstance:
		vm.markObject(o.Class)
		vm.markTable(o.Fields)
	case *ObjBoundMethod:
		vm.markValue(o.Receiver)
		vm.markObject(o.Method)
	}
}

// sweep walks the intrusive allocation list, freeing (unlinking) every
// object that was not marked and clearing the mark bit on every survivor so
// the next collection starts clean.
func (vm *VM) sweep() {
	var prev Obj
	obj := vm.objects
	for obj != nil {
		h := obj.header()
		if h.marked {
			h.marked = false
			prev = obj
			obj = h.next
			continue
		}
		unreached := obj
		obj = h.next
		if prev != nil {
			prev.header().next = obj
		} else {
			vm.objects = obj
		}
		// Go's GC reclaims the memory once unreachable; only the byte count
		// that track charged for it (string contents) is given back here.
		if s, ok := unreached.(*ObjString); ok {
			vm.bytesAllocated -= len(s.Chars)
		}
	}
}
