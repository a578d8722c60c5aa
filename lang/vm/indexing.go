package vm

import "github.com/strand-lang/strand/lang/value"

// indexGet implements the INDEX_GET opcode: a[i] over an array (by
// position, negative indices counting from the end), a dict (by exact
// key), or a string (by byte position, yielding a one-byte interned
// string). Subscripting a dict with an absent key is an error distinct
// from member access on the same dict, which instead yields nil.
func (vm *VM) indexGet(container, index value.Value) (value.Value, *RuntimeError) {
	switch obj := container.AsObject().(type) {
	case *value.Array:
		if !index.IsInt() {
			return value.Nil, vm.newError(TypeMismatch, "array index must be an int, got %s", index.TypeName())
		}
		v, err := obj.Get(index.AsInt())
		if err != nil {
			return value.Nil, vm.newError(IndexOutOfRange, "%s", err.Error())
		}
		return v, nil
	case *value.Dict:
		v, ok := obj.Get(index)
		if !ok {
			return value.Nil, vm.newError(KeyMissing, "key not found: %s", index.String())
		}
		return v, nil
	case *value.String:
		if !index.IsInt() {
			return value.Nil, vm.newError(TypeMismatch, "string index must be an int, got %s", index.TypeName())
		}
		n, ok := normalizeStringIndex(index.AsInt(), obj.Len())
		if !ok {
			return value.Nil, vm.newError(IndexOutOfRange, "index out of range: %d (len %d)", index.AsInt(), obj.Len())
		}
		return value.Obj(vm.strings.Intern(obj.Go()[n : n+1])), nil
	default:
		return value.Nil, vm.newError(TypeMismatch, "value of type %s is not indexable", container.TypeName())
	}
}

func normalizeStringIndex(i int64, length int) (int, bool) {
	n := int(i)
	if i < 0 {
		n = length + int(i)
	}
	if n < 0 || n >= length {
		return 0, false
	}
	return n, true
}

// indexSet implements INDEX_SET: a[i] = v over an array or dict. Strings
// are immutable, so indexing into one on the left of an assignment is a
// type error.
func (vm *VM) indexSet(container, index, val value.Value) *RuntimeError {
	switch obj := container.AsObject().(type) {
	case *value.Array:
		if !index.IsInt() {
			return vm.newError(TypeMismatch, "array index must be an int, got %s", index.TypeName())
		}
		if err := obj.Set(index.AsInt(), val); err != nil {
			return vm.newError(IndexOutOfRange, "%s", err.Error())
		}
		return nil
	case *value.Dict:
		obj.Set(index, val)
		return nil
	default:
		return vm.newError(TypeMismatch, "value of type %s does not support index assignment", container.TypeName())
	}
}

// memberGet implements MEMBER_GET (obj.name): dict field access that
// yields nil for an absent key rather than raising key_missing, the way
// a loosely-typed record field read is expected to behave.
func (vm *VM) memberGet(obj value.Value, name *value.String) (value.Value, *RuntimeError) {
	d, ok := obj.AsObject().(*value.Dict)
	if !ok {
		return value.Nil, vm.newError(TypeMismatch, "value of type %s has no member %q", obj.TypeName(), name.Go())
	}
	v, found := d.Get(value.Obj(name))
	if !found {
		return value.Nil, nil
	}
	return v, nil
}

func (vm *VM) memberSet(obj value.Value, name *value.String, val value.Value) *RuntimeError {
	d, ok := obj.AsObject().(*value.Dict)
	if !ok {
		return vm.newError(TypeMismatch, "value of type %s has no member %q", obj.TypeName(), name.Go())
	}
	d.Set(value.Obj(name), val)
	return nil
}
