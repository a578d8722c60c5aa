package value

import (
	"fmt"
	"strings"

	"github.com/strand-lang/strand/lang/gc"
)

// Array is a mutable, contiguous, growable sequence of Values.
type Array struct {
	gc.Header
	elems []Value
}

var _ Object = (*Array)(nil)

// NewArray allocates an array with the given initial elements (copied) and
// registers it with c.
func NewArray(c *gc.Collector, elems []Value) *Array {
	a := &Array{Header: gc.NewHeader("array"), elems: append([]Value(nil), elems...)}
	c.Register(a, int64(24+16*len(elems)))
	return a
}

func (a *Array) GCHeader() *gc.Header { return &a.Header }
func (a *Array) Trace(mark func(gc.Traceable)) {
	for _, v := range a.elems {
		markValue(v, mark)
	}
}
func (a *Array) Type() string { return "array" }

func (a *Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range a.elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		if s, ok := v.AsObject().(*String); ok && v.IsObj() {
			sb.WriteByte('"')
			sb.WriteString(s.s)
			sb.WriteByte('"')
		} else {
			sb.WriteString(v.String())
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array) Len() int { return len(a.elems) }

// NormalizeIndex resolves a possibly-negative, from-end index against the
// array's current length. It returns the resolved index and whether it
// lies in range.
func (a *Array) NormalizeIndex(i int64) (int, bool) {
	return normalizeIndex(i, len(a.elems))
}

func normalizeIndex(i int64, length int) (int, bool) {
	n := int(i)
	if i < 0 {
		n = length + int(i)
	}
	if n < 0 || n >= length {
		return 0, false
	}
	return n, true
}

func (a *Array) Get(i int64) (Value, error) {
	n, ok := a.NormalizeIndex(i)
	if !ok {
		return Nil, fmt.Errorf("index out of range: %d (len %d)", i, len(a.elems))
	}
	return a.elems[n], nil
}

func (a *Array) Set(i int64, v Value) error {
	n, ok := a.NormalizeIndex(i)
	if !ok {
		return fmt.Errorf("index out of range: %d (len %d)", i, len(a.elems))
	}
	a.elems[n] = v
	return nil
}

// Push appends v to the array, growing its backing storage as needed. Used
// by the push() built-in.
func (a *Array) Push(v Value) {
	a.elems = append(a.elems, v)
}

// Elems returns the array's backing slice. Callers must treat it as
// read-only unless they own the array (e.g. the VM implementing INDEX_SET).
func (a *Array) Elems() []Value { return a.elems }
