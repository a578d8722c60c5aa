package value

import (
	"io"

	"github.com/strand-lang/strand/lang/gc"
)

// Env is the execution context passed to every native function call. It
// exposes exactly what a built-in needs -- the collector (to allocate new
// heap objects), the intern table (to build strings), stdout, and a
// callback to invoke a Strand-level callable -- without the value package
// needing to import the vm package that owns the call stack; the VM builds
// a fresh Env for each native call, with Env.Call bound to its own
// CallValue.
type Env struct {
	Collector *gc.Collector
	Strings   *Table
	Stdout    io.Writer
	Call      func(callee Value, args []Value) (Value, error)
}

// NativeFunc is the uniform C-style function pointer convention built-ins
// are invoked through: a read-only slice of argument roots in, a single
// result or error out.
type NativeFunc func(env *Env, args []Value) (Value, error)

// NativeFn wraps a Go function as a callable Strand value.
type NativeFn struct {
	gc.Header

	name  string
	arity int // -1 means variadic
	fn    NativeFunc
}

var _ Object = (*NativeFn)(nil)

// NewNativeFn allocates and registers a native function value. arity of -1
// marks the function as variadic (e.g. print).
func NewNativeFn(c *gc.Collector, name string, arity int, fn NativeFunc) *NativeFn {
	n := &NativeFn{Header: gc.NewHeader("native"), name: name, arity: arity, fn: fn}
	c.Register(n, 32)
	return n
}

func (n *NativeFn) GCHeader() *gc.Header          { return &n.Header }
func (n *NativeFn) Trace(mark func(gc.Traceable)) {} // natives hold no Strand heap refs of their own
func (n *NativeFn) Type() string                  { return "native function" }
func (n *NativeFn) String() string                { return "<native " + n.name + ">" }
func (n *NativeFn) Name() string                  { return n.name }
func (n *NativeFn) Arity() int                    { return n.arity }

// Call invokes the wrapped Go function.
func (n *NativeFn) Call(env *Env, args []Value) (Value, error) {
	return n.fn(env, args)
}
