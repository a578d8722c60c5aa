package vm

import "github.com/strand-lang/strand/lang/value"

// call dispatches callee with argc arguments already sitting on the value
// stack directly above it (the CALL opcode's and CallValue's shared
// convention). For a closure this pushes a new frame and returns; the
// caller's dispatch loop picks up execution there. For a native function
// the call runs to completion immediately and the result replaces
// callee+args in place.
func (vm *VM) call(callee value.Value, argc int) *RuntimeError {
	base := vm.sp - argc - 1
	if !callee.IsObj() {
		return vm.newError(NotCallable, "value of type %s is not callable", callee.TypeName())
	}
	switch obj := callee.AsObject().(type) {
	case *value.Closure:
		if argc != obj.Fn.Arity {
			return vm.newError(Arity, "%s expected %d argument(s), got %d", obj.Name(), obj.Fn.Arity, argc)
		}
		if len(vm.frames) >= vm.cfg.CallDepthMax {
			return vm.newError(CallDepthExceeded, "call depth exceeded")
		}
		vm.frames = append(vm.frames, frame{closure: obj, ip: 0, base: base})
		return nil
	case *value.NativeFn:
		if obj.Arity() >= 0 && argc != obj.Arity() {
			return vm.newError(Arity, "%s expected %d argument(s), got %d", obj.Name(), obj.Arity(), argc)
		}
		args := append([]value.Value(nil), vm.stack[base+1:vm.sp]...)
		result, err := obj.Call(vm.env(), args)
		vm.sp = base
		if err != nil {
			if rerr, ok := err.(*RuntimeError); ok {
				if rerr.Line == 0 && rerr.CallTrace == nil {
					rerr.Line = vm.currentLine()
					rerr.CallTrace = vm.callTrace()
				}
				return rerr
			}
			return vm.newError(UserThrown, "%s", err.Error())
		}
		return vm.push(result)
	default:
		return vm.newError(NotCallable, "value of type %s is not callable", callee.TypeName())
	}
}
