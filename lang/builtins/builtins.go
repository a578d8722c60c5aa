// Package builtins implements the handful of native functions the core
// language invokes structurally -- print, len, push, and a small set of
// conversions -- registered against a VM through the same uniform
// NativeFunc convention any embedder's own built-ins would use.
package builtins

import (
	"fmt"

	"github.com/strand-lang/strand/lang/value"
	"github.com/strand-lang/strand/lang/vm"
)

// Register installs every built-in this package defines onto v. Call
// before compiling or running any source against it.
func Register(v *vm.VM) {
	v.RegisterBuiltin("print", -1, builtinPrint)
	v.RegisterBuiltin("len", 1, builtinLen)
	v.RegisterBuiltin("push", 2, builtinPush)
	v.RegisterBuiltin("str", 1, builtinStr)
	v.RegisterBuiltin("int", 1, builtinInt)
	v.RegisterBuiltin("float", 1, builtinFloat)
	v.RegisterBuiltin("type", 1, builtinType)
	v.RegisterBuiltin("keys", 1, builtinKeys)
}

func typeMismatchf(format string, args ...any) error {
	return vm.NewRuntimeError(vm.TypeMismatch, format, args...)
}

func builtinPrint(env *value.Env, args []value.Value) (value.Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(env.Stdout, " ")
		}
		fmt.Fprint(env.Stdout, a.String())
	}
	fmt.Fprintln(env.Stdout)
	return value.Nil, nil
}

func builtinLen(_ *value.Env, args []value.Value) (value.Value, error) {
	v := args[0]
	switch obj := v.AsObject().(type) {
	case *value.Array:
		return value.Int(int64(obj.Len())), nil
	case *value.Dict:
		return value.Int(int64(obj.Len())), nil
	case *value.String:
		return value.Int(int64(obj.Len())), nil
	default:
		return value.Nil, typeMismatchf("len() expects an array, dict or string, got %s", v.TypeName())
	}
}

func builtinPush(_ *value.Env, args []value.Value) (value.Value, error) {
	arr, ok := args[0].AsObject().(*value.Array)
	if !ok {
		return value.Nil, typeMismatchf("push() expects an array as its first argument, got %s", args[0].TypeName())
	}
	arr.Push(args[1])
	return args[0], nil
}

func builtinStr(env *value.Env, args []value.Value) (value.Value, error) {
	v := args[0]
	if s, ok := v.AsObject().(*value.String); ok {
		return value.Obj(s), nil
	}
	return value.Obj(env.Strings.Intern(v.String())), nil
}

func builtinType(env *value.Env, args []value.Value) (value.Value, error) {
	return value.Obj(env.Strings.Intern(args[0].TypeName())), nil
}

func builtinInt(_ *value.Env, args []value.Value) (value.Value, error) {
	v := args[0]
	switch {
	case v.IsInt():
		return v, nil
	case v.IsFloat():
		return value.Int(int64(v.AsFloat())), nil
	default:
		if s, ok := v.AsObject().(*value.String); ok {
			var n int64
			if _, err := fmt.Sscanf(s.Go(), "%d", &n); err != nil {
				return value.Nil, typeMismatchf("int(): cannot parse %q as an integer", s.Go())
			}
			return value.Int(n), nil
		}
		return value.Nil, typeMismatchf("int() expects a number or string, got %s", v.TypeName())
	}
}

func builtinFloat(_ *value.Env, args []value.Value) (value.Value, error) {
	v := args[0]
	switch {
	case v.IsFloat():
		return v, nil
	case v.IsInt():
		return value.Float(float64(v.AsInt())), nil
	default:
		if s, ok := v.AsObject().(*value.String); ok {
			var f float64
			if _, err := fmt.Sscanf(s.Go(), "%g", &f); err != nil {
				return value.Nil, typeMismatchf("float(): cannot parse %q as a float", s.Go())
			}
			return value.Float(f), nil
		}
		return value.Nil, typeMismatchf("float() expects a number or string, got %s", v.TypeName())
	}
}

// builtinKeys returns a dict's keys as a fresh array, in iteration order
// (unspecified, same as the `for k in dict do` protocol).
func builtinKeys(env *value.Env, args []value.Value) (value.Value, error) {
	d, ok := args[0].AsObject().(*value.Dict)
	if !ok {
		return value.Nil, typeMismatchf("keys() expects a dict, got %s", args[0].TypeName())
	}
	var keys []value.Value
	d.Iter(func(k, _ value.Value) bool {
		keys = append(keys, k)
		return false
	})
	return value.Obj(value.NewArray(env.Collector, keys)), nil
}
