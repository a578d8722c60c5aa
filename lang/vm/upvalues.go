package vm

import "github.com/strand-lang/strand/lang/value"

// captureUpvalue returns the open upvalue for absolute stack slot, reusing
// an existing one if CLOSURE has already captured that slot from a sibling
// closure created earlier in the same scope (e.g. two inner functions both
// closing over the same loop variable must share one cell).
func (vm *VM) captureUpvalue(slot int) *value.Upvalue {
	for _, uv := range vm.openUpvalues {
		if uv.IsOpen() && uv.Slot() == slot {
			return uv
		}
	}
	uv := value.NewOpenUpvalue(vm.gc, slot, &vm.stack[slot])
	vm.openUpvalues = append(vm.openUpvalues, uv)
	return uv
}

// closeUpvalue closes the single open upvalue tracking slot, if any. Used
// by CLOSE_UPVAL when a block-scoped local that was captured goes out of
// scope.
func (vm *VM) closeUpvalue(slot int) {
	for i, uv := range vm.openUpvalues {
		if uv.IsOpen() && uv.Slot() == slot {
			uv.Close()
			vm.openUpvalues = append(vm.openUpvalues[:i], vm.openUpvalues[i+1:]...)
			return
		}
	}
}

// closeUpvaluesFrom closes every open upvalue tracking a slot >= minSlot,
// called when a function frame returns: its parameters and top-level
// locals are never wrapped in an explicit block scope (so no per-variable
// CLOSE_UPVAL was emitted for them), yet any of them may still have been
// captured by a closure created inside the function body.
func (vm *VM) closeUpvaluesFrom(minSlot int) {
	kept := vm.openUpvalues[:0]
	for _, uv := range vm.openUpvalues {
		if uv.IsOpen() && uv.Slot() >= minSlot {
			uv.Close()
			continue
		}
		kept = append(kept, uv)
	}
	vm.openUpvalues = kept
}
