package value

import (
	"fmt"

	"github.com/strand-lang/strand/lang/gc"
)

// UpvalueDesc describes how a closure captures one free variable: either by
// lifting a local slot of the immediately enclosing function (IsLocal),
// or by reusing an upvalue the enclosing closure already captured at Index.
type UpvalueDesc struct {
	IsLocal bool
	Index   int
}

// Function is the compiled, immutable template for one function body: its
// bytecode, constant pool, debug line table, and enough shape information
// (arity, upvalue descriptors) for the VM to build a Closure over it. It is
// itself a heap object (so recursive/mutually-recursive functions and
// functions stored in globals are collected like anything else), but it
// never changes after the compiler finishes emitting it.
type Function struct {
	gc.Header

	Name     string
	Arity    int
	Code     []byte
	Lines    []int32 // Lines[pc] is the source line of the instruction at pc
	Consts   []Value // constant pool; strings and floats are always pooled
	Upvalues []UpvalueDesc
	MaxStack int
	NumLocal int
}

var _ Object = (*Function)(nil)

// NewFunction allocates and registers an empty Function template; the
// compiler fills in its fields as it emits bytecode.
func NewFunction(c *gc.Collector, name string) *Function {
	f := &Function{Header: gc.NewHeader("function"), Name: name}
	c.Register(f, 64)
	return f
}

func (f *Function) GCHeader() *gc.Header { return &f.Header }
func (f *Function) Trace(mark func(gc.Traceable)) {
	for _, v := range f.Consts {
		markValue(v, mark)
	}
}
func (f *Function) Type() string { return "function" }
func (f *Function) String() string {
	if f.Name == "" {
		return "<function>"
	}
	return fmt.Sprintf("<function %s>", f.Name)
}
