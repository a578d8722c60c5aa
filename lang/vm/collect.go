package vm

import (
	"github.com/strand-lang/strand/lang/gc"
	"github.com/strand-lang/strand/lang/value"
)

// maybeCollect runs a collection if the heap has crossed its next
// threshold. It is called at the top of every dispatch iteration: the
// value stack is never mid-mutation between instructions, so this is
// always a safe point to trace from.
func (vm *VM) maybeCollect() {
	if !vm.gc.ShouldCollect() {
		return
	}
	vm.gc.Collect(vm.markRoots)
}

func markValue(v value.Value, mark func(gc.Traceable)) {
	if v.IsObj() {
		if obj := v.AsObject(); obj != nil {
			mark(obj)
		}
	}
}

// markRoots marks every reference the VM itself holds directly: the live
// portion of the value stack, every active frame's closure, every open
// upvalue, every in-flight ITER_PUSH iterator, and the globals table.
// Interned strings are reachable only through these, never roots themselves
// (see gc.Collector.Collect).
func (vm *VM) markRoots(mark func(gc.Traceable)) {
	for i := 0; i < vm.sp; i++ {
		markValue(vm.stack[i], mark)
	}
	for i := range vm.frames {
		mark(vm.frames[i].closure)
	}
	for _, uv := range vm.openUpvalues {
		mark(uv)
	}
	for _, it := range vm.iterators {
		it.mark(mark)
	}
	vm.globals.Iter(func(_ string, v value.Value) bool {
		markValue(v, mark)
		return false
	})
}
