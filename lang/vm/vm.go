// Package vm implements the fetch/decode/dispatch loop over compiled
// bytecode: an explicit value stack shared by every active call frame, a
// call-frame stack, the globals table, the open-upvalue list, and the
// built-in registry. It is the single-threaded interpreter tying the
// compiler and value/gc packages together into a runnable program.
package vm

import (
	"io"
	"os"

	"github.com/dolthub/swiss"

	"github.com/strand-lang/strand/lang/compiler"
	"github.com/strand-lang/strand/lang/gc"
	"github.com/strand-lang/strand/lang/value"
)

// Config controls a VM's resource limits and construction-time wiring:
// stack and call-depth ceilings, the GC's heap growth behavior, and where
// built-ins send program output.
type Config struct {
	StackMax     int
	CallDepthMax int
	HeapInitial  int64
	HeapGrowth   float64
	MinHeap      int64
	Stdout       io.Writer
}

func (c Config) withDefaults() Config {
	if c.StackMax == 0 {
		c.StackMax = 16384
	}
	if c.CallDepthMax == 0 {
		c.CallDepthMax = 1024
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	return c
}

// VM is one independent interpreter instance: its heap, stack, globals and
// built-in registry are private to it, so multiple VMs may coexist in the
// same process without cross-VM references.
type VM struct {
	cfg Config

	// stack is preallocated at its final size and never reallocated: an
	// open value.Upvalue holds a raw *value.Value into this slice, and a
	// slice-growing append would leave it dangling.
	stack []value.Value
	sp    int

	frames []frame

	// globals holds both top-level let/const/fn bindings and every
	// registered built-in: RegisterBuiltin installs natives into the same
	// table DEF_GLOBAL writes to, so CALL never needs to special-case a
	// "builtin" callable kind.
	globals *swiss.Map[string, value.Value]

	openUpvalues []*value.Upvalue

	iterators []iterator

	gc      *gc.Collector
	strings *value.Table
}

// New constructs a VM ready to have built-ins registered and then run
// compiled functions. The collector is created here, not as a process-wide
// singleton, so each VM owns an independent heap.
func New(cfg Config) *VM {
	cfg = cfg.withDefaults()
	vm := &VM{
		cfg:     cfg,
		stack:   make([]value.Value, cfg.StackMax),
		globals: swiss.NewMap[string, value.Value](64),
	}
	vm.gc = gc.New(gc.Config{
		InitialThreshold: cfg.HeapInitial,
		GrowthFactor:     cfg.HeapGrowth,
		MinHeap:          cfg.MinHeap,
		OnFree: func(obj gc.Traceable) {
			if s, ok := obj.(*value.String); ok {
				vm.strings.Remove(s)
			}
		},
	})
	vm.strings = value.NewTable(vm.gc)
	return vm
}

// RegisterBuiltin installs a native function under name, reachable both
// from a CALL on a GET_GLOBAL-resolved value and from the compiler's
// global-fallback name resolution. Must be called before any source
// compiled against this VM is run.
func (vm *VM) RegisterBuiltin(name string, arity int, fn value.NativeFunc) {
	nf := value.NewNativeFn(vm.gc, name, arity, fn)
	vm.globals.Put(name, value.Obj(nf))
}

// env builds the Env passed to every native call, binding Call back to this
// VM's own call dispatch so built-ins can invoke Strand-level callables
// without the value package needing to import vm.
func (vm *VM) env() *value.Env {
	return &value.Env{
		Collector: vm.gc,
		Strings:   vm.strings,
		Stdout:    vm.cfg.Stdout,
		Call: func(callee value.Value, args []value.Value) (value.Value, error) {
			return vm.CallValue(callee, args)
		},
	}
}

// Compile compiles source into a top-level script function using this VM's
// collector and intern table, so constants created during compilation (and
// heap objects allocated while running it) share one heap.
func (vm *VM) Compile(source []byte, name string) (*value.Function, []compiler.Diagnostic) {
	return compiler.Compile(source, name, vm.gc, vm.strings)
}

// Run executes a compiled top-level script to completion (its HALT
// instruction), returning the value left on the stack at that point, or the
// first RuntimeError the program raised.
//
// The top-level script is not entered through the ordinary CALL
// convention: Compile never reserves the implicit "callee" slot 0 that
// compileFunctionBody sets aside for every nested function (there is no
// caller pushing the script itself as an argument), so its frame starts at
// base 0 with an empty stack beneath it, rather than with the closure
// occupying slot 0.
func (vm *VM) Run(fn *value.Function) (value.Value, *RuntimeError) {
	cl := value.NewClosure(vm.gc, fn, nil)
	vm.frames = append(vm.frames, frame{closure: cl, ip: 0, base: 0})
	result, rerr := vm.run(-1)
	if rerr != nil {
		vm.closeUpvaluesFrom(0)
		vm.iterators = vm.iterators[:0]
		vm.sp = 0
	}
	vm.frames = vm.frames[:0]
	return result, rerr
}

func (vm *VM) push(v value.Value) *RuntimeError {
	if vm.sp >= len(vm.stack) {
		return vm.newError(StackOverflow, "stack overflow")
	}
	vm.stack[vm.sp] = v
	vm.sp++
	return nil
}

func (vm *VM) pop() value.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distanceFromTop int) value.Value {
	return vm.stack[vm.sp-1-distanceFromTop]
}

// CallValue implements the general call convention used both by native
// built-ins that call back into Strand code and by any future embedding
// API. args are pushed as a fresh call, dispatched, and -- for a Strand
// closure -- the dispatch loop runs just long enough to return from that
// one call.
func (vm *VM) CallValue(callee value.Value, args []value.Value) (value.Value, error) {
	if rerr := vm.push(callee); rerr != nil {
		return value.Nil, rerr
	}
	for _, a := range args {
		if rerr := vm.push(a); rerr != nil {
			return value.Nil, rerr
		}
	}
	depthBefore := len(vm.frames)
	if rerr := vm.call(callee, len(args)); rerr != nil {
		return value.Nil, rerr
	}
	if len(vm.frames) == depthBefore {
		// a native call: call() already replaced callee+args with the single
		// result, nothing further to dispatch.
		return vm.pop(), nil
	}
	result, rerr := vm.run(depthBefore)
	if rerr != nil {
		return value.Nil, rerr
	}
	return result, nil
}
