package vm

import (
	"github.com/strand-lang/strand/lang/gc"
	"github.com/strand-lang/strand/lang/value"
)

// iterator is the general `for v in iterable do` protocol's runtime
// counterpart: arrays, dicts, strings, and ranges (themselves materialized
// as arrays by the RANGE opcode) all iterate through the same ITER_PUSH/
// ITER_NEXT/ITER_POP sequence, so the dispatch loop never special-cases a
// container kind.
type iterator interface {
	// next returns the next value and true, or an undefined value and false
	// once the iterator is exhausted.
	next() (value.Value, bool)
	// mark traces whatever this iterator holds that the value stack no
	// longer does -- a transient iterable (e.g. a literal array or a
	// RANGE-materialized array) is reachable only through the active
	// iterator for the duration of the loop, so it must root it.
	mark(mark func(gc.Traceable))
}

type arrayIterator struct {
	arr *value.Array
	i   int
}

func (it *arrayIterator) mark(mark func(gc.Traceable)) {
	mark(it.arr)
}

func (it *arrayIterator) next() (value.Value, bool) {
	if it.i >= it.arr.Len() {
		return value.Nil, false
	}
	v, _ := it.arr.Get(int64(it.i))
	it.i++
	return v, true
}

// dictIterator snapshots the dict's keys at ITER_PUSH time, so mutating the
// dict from within the loop body never perturbs the iteration itself.
type dictIterator struct {
	keys []value.Value
	i    int
}

func (it *dictIterator) mark(mark func(gc.Traceable)) {
	for _, k := range it.keys {
		markValue(k, mark)
	}
}

func (it *dictIterator) next() (value.Value, bool) {
	if it.i >= len(it.keys) {
		return value.Nil, false
	}
	v := it.keys[it.i]
	it.i++
	return v, true
}

// stringIterator yields one interned one-byte string per byte of s, chosen
// to match the String object's "length, bytes" content rather than decoding
// runes, since String itself is defined as a byte sequence.
type stringIterator struct {
	chars []value.Value
	i     int
}

func newStringIterator(vm *VM, s *value.String) *stringIterator {
	raw := s.Go()
	chars := make([]value.Value, len(raw))
	for i := 0; i < len(raw); i++ {
		chars[i] = value.Obj(vm.strings.Intern(raw[i : i+1]))
	}
	return &stringIterator{chars: chars}
}

func (it *stringIterator) mark(mark func(gc.Traceable)) {
	for _, c := range it.chars {
		markValue(c, mark)
	}
}

func (it *stringIterator) next() (value.Value, bool) {
	if it.i >= len(it.chars) {
		return value.Nil, false
	}
	v := it.chars[it.i]
	it.i++
	return v, true
}

// newIterator builds the runtime iterator for ITER_PUSH over v, or a
// type_mismatch error if v cannot be iterated.
func (vm *VM) newIterator(v value.Value) (iterator, *RuntimeError) {
	if obj, ok := v.AsObject().(*value.Array); ok {
		return &arrayIterator{arr: obj}, nil
	}
	if obj, ok := v.AsObject().(*value.Dict); ok {
		keys := make([]value.Value, 0, obj.Len())
		obj.Iter(func(k, _ value.Value) bool {
			keys = append(keys, k)
			return false
		})
		return &dictIterator{keys: keys}, nil
	}
	if obj, ok := v.AsObject().(*value.String); ok {
		return newStringIterator(vm, obj), nil
	}
	return nil, vm.newError(TypeMismatch, "value of type %s is not iterable", v.TypeName())
}
