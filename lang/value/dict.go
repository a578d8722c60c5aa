package value

import (
	"strings"

	"github.com/dolthub/swiss"

	"github.com/strand-lang/strand/lang/gc"
)

// Dict is a mutable hash table from Value keys to Value values. Keys may be
// any hashable value (string, int, float or bool); in practice the surface
// language only ever constructs dicts keyed by strings or numbers. Backed
// by dolthub/swiss for the same reason as the interned-string table: low
// per-entry overhead versus Go's builtin map, and it handles Value (a plain
// comparable struct) as a key type without extra wrapping.
//
// Key equality here is exact (same Kind and same bits/identity), not the
// promoting numeric equality used by the == operator: d[1] and d[1.0] are
// therefore distinct entries. This matches how the underlying hash table
// actually compares keys and avoids a second, slower key-normalization pass
// on every access.
type Dict struct {
	gc.Header
	m *swiss.Map[Value, Value]
}

var _ Object = (*Dict)(nil)

// NewDict allocates a dict with room for at least size entries.
func NewDict(c *gc.Collector, size int) *Dict {
	d := &Dict{Header: gc.NewHeader("dict"), m: swiss.NewMap[Value, Value](uint32(size))}
	c.Register(d, int64(32+32*size))
	return d
}

func (d *Dict) GCHeader() *gc.Header { return &d.Header }
func (d *Dict) Trace(mark func(gc.Traceable)) {
	d.m.Iter(func(k, v Value) bool {
		markValue(k, mark)
		markValue(v, mark)
		return false
	})
}
func (d *Dict) Type() string { return "dict" }

func (d *Dict) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	d.m.Iter(func(k, v Value) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(k.String())
		sb.WriteString(": ")
		sb.WriteString(v.String())
		return false
	})
	sb.WriteByte('}')
	return sb.String()
}

func (d *Dict) Len() int { return d.m.Count() }

// Get returns the value for k and whether it was present -- used by member
// access (which maps a missing key to nil) and by subscript access (which
// raises key_missing).
func (d *Dict) Get(k Value) (Value, bool) {
	return d.m.Get(k)
}

func (d *Dict) Set(k, v Value) {
	d.m.Put(k, v)
}

func (d *Dict) Delete(k Value) {
	d.m.Delete(k)
}

// Iter calls fn for every key/value pair, in unspecified order. Iteration
// stops early if fn returns true.
func (d *Dict) Iter(fn func(k, v Value) bool) {
	d.m.Iter(fn)
}
