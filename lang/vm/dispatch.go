package vm

import (
	"github.com/strand-lang/strand/lang/compiler"
	"github.com/strand-lang/strand/lang/value"
)

// run is the fetch/decode/dispatch loop. It executes instructions from the
// top frame until either:
//   - the active frame count drops back to stopDepth (used by CallValue to
//     run just one reentrant call to completion and hand the result back
//     to the native caller that invoked it), or
//   - the top-level script's HALT instruction fires (stopDepth == -1, which
//     len(vm.frames) can never equal, so only HALT can end that run).
//
// Any RuntimeError aborts the whole run immediately: the language has no
// try/catch construct, so an uncaught error always unwinds to the host.
func (vm *VM) run(stopDepth int) (value.Value, *RuntimeError) {
	for {
		if len(vm.frames) == stopDepth {
			return vm.pop(), nil
		}
		vm.maybeCollect()

		fr := &vm.frames[len(vm.frames)-1]
		code := fr.closure.Fn.Code
		op := compiler.Opcode(code[fr.ip])
		fr.ip++

		switch op {
		case compiler.NOP:

		case compiler.CONST:
			idx := vm.readU16(fr)
			if rerr := vm.push(fr.closure.Fn.Consts[idx]); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.NIL:
			if rerr := vm.push(value.Nil); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.TRUE:
			if rerr := vm.push(value.Bool(true)); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.FALSE:
			if rerr := vm.push(value.Bool(false)); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.INT_SMALL:
			imm := int8(code[fr.ip])
			fr.ip++
			if rerr := vm.push(value.Int(int64(imm))); rerr != nil {
				return value.Nil, rerr
			}

		case compiler.GET_LOCAL:
			slot := vm.readU16(fr)
			if rerr := vm.push(vm.stack[fr.base+int(slot)]); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.SET_LOCAL:
			slot := vm.readU16(fr)
			vm.stack[fr.base+int(slot)] = vm.pop()

		case compiler.GET_UPVAL:
			idx := vm.readU16(fr)
			if rerr := vm.push(fr.closure.Upvalues[idx].Get()); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.SET_UPVAL:
			idx := vm.readU16(fr)
			fr.closure.Upvalues[idx].Set(vm.pop())
		case compiler.CLOSE_UPVAL:
			slot := vm.readU16(fr)
			vm.closeUpvalue(fr.base + int(slot))
			vm.pop()

		case compiler.GET_GLOBAL:
			name := vm.constString(fr, vm.readU16(fr))
			v, ok := vm.globals.Get(name.Go())
			if !ok {
				return value.Nil, vm.newError(UndefinedName, "undefined name: %s", name.Go())
			}
			if rerr := vm.push(v); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.SET_GLOBAL:
			name := vm.constString(fr, vm.readU16(fr))
			if _, ok := vm.globals.Get(name.Go()); !ok {
				return value.Nil, vm.newError(UndefinedName, "undefined name: %s", name.Go())
			}
			vm.globals.Put(name.Go(), vm.pop())
		case compiler.DEF_GLOBAL:
			name := vm.constString(fr, vm.readU16(fr))
			vm.globals.Put(name.Go(), vm.pop())

		case compiler.ADD:
			b, a := vm.pop(), vm.pop()
			r, err := value.Add(vm.strings, a, b)
			if err != nil {
				return value.Nil, vm.newError(classifyArithErr(err), "%s", err.Error())
			}
			if rerr := vm.push(r); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.SUB:
			if rerr := vm.binNumeric(value.Sub); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.MUL:
			if rerr := vm.binNumeric(value.Mul); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.DIV:
			if rerr := vm.binNumeric(value.Div); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.MOD:
			if rerr := vm.binNumeric(value.Mod); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.NEG:
			a := vm.pop()
			r, err := value.Neg(a)
			if err != nil {
				return value.Nil, vm.newError(classifyArithErr(err), "%s", err.Error())
			}
			if rerr := vm.push(r); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.NOT:
			a := vm.pop()
			if rerr := vm.push(value.Bool(!a.Truthy())); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.EQ:
			b, a := vm.pop(), vm.pop()
			if rerr := vm.push(value.Bool(value.Equals(a, b))); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.NEQ:
			b, a := vm.pop(), vm.pop()
			if rerr := vm.push(value.Bool(!value.Equals(a, b))); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.LT, compiler.LE, compiler.GT, compiler.GE:
			b, a := vm.pop(), vm.pop()
			cmp, err := value.Compare(a, b)
			if err != nil {
				return value.Nil, vm.newError(classifyArithErr(err), "%s", err.Error())
			}
			var result bool
			switch op {
			case compiler.LT:
				result = cmp < 0
			case compiler.LE:
				result = cmp <= 0
			case compiler.GT:
				result = cmp > 0
			case compiler.GE:
				result = cmp >= 0
			}
			if rerr := vm.push(value.Bool(result)); rerr != nil {
				return value.Nil, rerr
			}

		case compiler.JUMP:
			offset := vm.readI16(fr)
			fr.ip += offset
		case compiler.JUMP_IF_FALSE:
			offset := vm.readI16(fr)
			cond := vm.pop()
			if !cond.Truthy() {
				fr.ip += offset
			}
		case compiler.LOOP:
			back := int(vm.readU16(fr))
			fr.ip -= back

		case compiler.CALL:
			argc := int(code[fr.ip])
			fr.ip++
			callee := vm.peek(argc)
			if rerr := vm.call(callee, argc); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.RETURN:
			result := vm.pop()
			old := vm.frames[len(vm.frames)-1]
			vm.closeUpvaluesFrom(old.base)
			vm.sp = old.base
			vm.frames = vm.frames[:len(vm.frames)-1]
			if rerr := vm.push(result); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.HALT:
			return vm.pop(), nil

		case compiler.CLOSURE:
			funcIdx := vm.readU16(fr)
			n := int(code[fr.ip])
			fr.ip++
			upvals := make([]*value.Upvalue, n)
			for i := 0; i < n; i++ {
				isLocal := code[fr.ip] != 0
				fr.ip++
				idx := vm.readU16(fr)
				if isLocal {
					upvals[i] = vm.captureUpvalue(fr.base + int(idx))
				} else {
					upvals[i] = fr.closure.Upvalues[idx]
				}
			}
			childFn, _ := fr.closure.Fn.Consts[funcIdx].AsObject().(*value.Function)
			cl := value.NewClosure(vm.gc, childFn, upvals)
			if rerr := vm.push(value.Obj(cl)); rerr != nil {
				return value.Nil, rerr
			}

		case compiler.ARRAY:
			n := int(vm.readU16(fr))
			elems := append([]value.Value(nil), vm.stack[vm.sp-n:vm.sp]...)
			vm.sp -= n
			arr := value.NewArray(vm.gc, elems)
			if rerr := vm.push(value.Obj(arr)); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.DICT:
			n := int(vm.readU16(fr))
			base := vm.sp - 2*n
			d := value.NewDict(vm.gc, n)
			for i := 0; i < n; i++ {
				d.Set(vm.stack[base+2*i], vm.stack[base+2*i+1])
			}
			vm.sp = base
			if rerr := vm.push(value.Obj(d)); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.INDEX_GET:
			idx := vm.pop()
			container := vm.pop()
			v, rerr := vm.indexGet(container, idx)
			if rerr != nil {
				return value.Nil, rerr
			}
			if rerr := vm.push(v); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.INDEX_SET:
			result := vm.pop() // the assignment's DUP copy
			val := vm.pop()
			idx := vm.pop()
			container := vm.pop()
			if rerr := vm.indexSet(container, idx, val); rerr != nil {
				return value.Nil, rerr
			}
			vm.push(result)
		case compiler.MEMBER_GET:
			name := vm.constString(fr, vm.readU16(fr))
			obj := vm.pop()
			v, rerr := vm.memberGet(obj, name)
			if rerr != nil {
				return value.Nil, rerr
			}
			if rerr := vm.push(v); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.MEMBER_SET:
			name := vm.constString(fr, vm.readU16(fr))
			result := vm.pop() // the assignment's DUP copy
			val := vm.pop()
			obj := vm.pop()
			if rerr := vm.memberSet(obj, name, val); rerr != nil {
				return value.Nil, rerr
			}
			vm.push(result)

		case compiler.RANGE:
			hi := vm.pop()
			lo := vm.pop()
			if !lo.IsInt() || !hi.IsInt() {
				return value.Nil, vm.newError(TypeMismatch, "range bounds must be ints, got %s and %s", lo.TypeName(), hi.TypeName())
			}
			var elems []value.Value
			for n := lo.AsInt(); n <= hi.AsInt(); n++ {
				elems = append(elems, value.Int(n))
			}
			arr := value.NewArray(vm.gc, elems)
			if rerr := vm.push(value.Obj(arr)); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.ARRAY_LEN:
			top := vm.peek(0)
			if arr, ok := top.AsObject().(*value.Array); ok {
				if rerr := vm.push(value.Int(int64(arr.Len()))); rerr != nil {
					return value.Nil, rerr
				}
			} else {
				// sentinel length no literal pattern count can ever equal, so
				// a non-array subject simply fails the shape check.
				if rerr := vm.push(value.Int(-1)); rerr != nil {
					return value.Nil, rerr
				}
			}

		case compiler.ITER_PUSH:
			v := vm.pop()
			it, rerr := vm.newIterator(v)
			if rerr != nil {
				return value.Nil, rerr
			}
			vm.iterators = append(vm.iterators, it)
		case compiler.ITER_NEXT:
			rel := vm.readI16(fr)
			top := vm.iterators[len(vm.iterators)-1]
			v, ok := top.next()
			if !ok {
				vm.iterators = vm.iterators[:len(vm.iterators)-1]
				fr.ip += rel
				continue
			}
			if rerr := vm.push(v); rerr != nil {
				return value.Nil, rerr
			}
		case compiler.ITER_POP:
			vm.iterators = vm.iterators[:len(vm.iterators)-1]

		case compiler.POP:
			vm.pop()
		case compiler.DUP:
			if rerr := vm.push(vm.peek(0)); rerr != nil {
				return value.Nil, rerr
			}

		default:
			return value.Nil, vm.newError(UserThrown, "illegal opcode %s", op)
		}
	}
}

func (vm *VM) readU16(fr *frame) uint16 {
	code := fr.closure.Fn.Code
	v := uint16(code[fr.ip])<<8 | uint16(code[fr.ip+1])
	fr.ip += 2
	return v
}

func (vm *VM) readI16(fr *frame) int {
	return int(int16(vm.readU16(fr)))
}

func (vm *VM) constString(fr *frame, idx uint16) *value.String {
	s, _ := fr.closure.Fn.Consts[idx].AsObject().(*value.String)
	return s
}

// binNumeric pops two operands, applies op, and pushes the result -- the
// shared shape of SUB/MUL/DIV/MOD, which (unlike ADD) never need the
// intern table.
func (vm *VM) binNumeric(op func(a, b value.Value) (value.Value, error)) *RuntimeError {
	b, a := vm.pop(), vm.pop()
	r, err := op(a, b)
	if err != nil {
		return vm.newError(classifyArithErr(err), "%s", err.Error())
	}
	return vm.push(r)
}
