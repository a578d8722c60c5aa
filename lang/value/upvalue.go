package value

import "github.com/strand-lang/strand/lang/gc"

// Upvalue is a cell referencing a variable captured from an enclosing
// scope. While Open, it points at a live slot on the VM's value stack
// (shared with whatever local it closes over); once Closed, it owns the
// value directly. The transition is monotone: Open -> Closed, never back.
type Upvalue struct {
	gc.Header

	slot   int // stack slot this upvalue tracks while open; used for dedup
	closed bool
	ptr    *Value // points into the stack while open, or &owned once closed
	owned  Value
}

var _ Object = (*Upvalue)(nil)

// NewOpenUpvalue allocates an upvalue aliasing the VM stack slot at index
// slot (stackSlot is a pointer to that stack element). It registers the
// upvalue with c.
func NewOpenUpvalue(c *gc.Collector, slot int, stackSlot *Value) *Upvalue {
	u := &Upvalue{Header: gc.NewHeader("upvalue"), slot: slot, ptr: stackSlot}
	c.Register(u, 32)
	return u
}

func (u *Upvalue) GCHeader() *gc.Header { return &u.Header }
func (u *Upvalue) Trace(mark func(gc.Traceable)) {
	markValue(*u.ptr, mark)
}
func (u *Upvalue) Type() string   { return "upvalue" }
func (u *Upvalue) String() string { return "<upvalue>" }

// Slot returns the stack slot this upvalue was opened over. Meaningless
// once Closed.
func (u *Upvalue) Slot() int { return u.slot }

// IsOpen reports whether the upvalue still aliases a live stack slot.
func (u *Upvalue) IsOpen() bool { return !u.closed }

// Get returns the upvalue's current value, whether open or closed.
func (u *Upvalue) Get() Value { return *u.ptr }

// Set stores v into the upvalue's current storage, whether open or closed.
func (u *Upvalue) Set(v Value) { *u.ptr = v }

// Close detaches the upvalue from the stack, copying its current value into
// owned storage. It is a programming error to call Close twice; the caller
// (the VM's frame-return / block-exit logic) is responsible for only
// closing upvalues once, by tracking the open list by slot.
func (u *Upvalue) Close() {
	if u.closed {
		return
	}
	u.owned = *u.ptr
	u.ptr = &u.owned
	u.closed = true
}
