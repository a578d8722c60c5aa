package value

import "github.com/strand-lang/strand/lang/gc"

// Closure pairs a compiled Function with the concrete Upvalue cells it
// captured at creation time. Closures, not bare Functions, are what flows
// through the VM's stack and call convention: even a function with no free
// variables is wrapped in a (upvalue-less) Closure so CALL has one uniform
// callable shape to dispatch on.
type Closure struct {
	gc.Header

	Fn       *Function
	Upvalues []*Upvalue
}

var _ Object = (*Closure)(nil)

func NewClosure(c *gc.Collector, fn *Function, upvalues []*Upvalue) *Closure {
	cl := &Closure{Header: gc.NewHeader("closure"), Fn: fn, Upvalues: upvalues}
	c.Register(cl, int64(24+8*len(upvalues)))
	return cl
}

func (c *Closure) GCHeader() *gc.Header { return &c.Header }
func (c *Closure) Trace(mark func(gc.Traceable)) {
	mark(c.Fn)
	for _, uv := range c.Upvalues {
		mark(uv)
	}
}
func (c *Closure) Type() string   { return "function" }
func (c *Closure) String() string { return c.Fn.String() }
func (c *Closure) Name() string   { return c.Fn.Name }
func (c *Closure) Arity() int     { return c.Fn.Arity }
