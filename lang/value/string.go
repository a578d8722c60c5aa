package value

import (
	"github.com/dolthub/swiss"

	"github.com/strand-lang/strand/lang/gc"
)

// String is an immutable, interned heap string. Two Strings with equal
// content are always the same pointer: Equals and the VM's EQ opcode can
// therefore compare strings by identity.
type String struct {
	gc.Header
	s string
}

var (
	_ Object       = (*String)(nil)
	_ gc.Traceable = (*String)(nil)
)

func (s *String) GCHeader() *gc.Header           { return &s.Header }
func (s *String) Trace(mark func(gc.Traceable))  {} // leaf object, no outgoing references
func (s *String) Type() string                   { return "string" }
func (s *String) String() string                 { return s.s }
func (s *String) Go() string                     { return s.s }
func (s *String) Len() int                       { return len(s.s) }

// Table interns strings so that equal content always yields the same
// *String pointer. It is VM-local: each VM owns exactly one Table (see the
// "explicit VM context, not singletons" design note), backed by a
// dolthub/swiss hash table for its low per-entry overhead relative to Go's
// builtin map.
type Table struct {
	m *swiss.Map[string, *String]
	c *gc.Collector
}

// NewTable creates an empty intern table backed by collector c. c is used
// to register newly interned strings as heap objects.
func NewTable(c *gc.Collector) *Table {
	return &Table{m: swiss.NewMap[string, *String](64), c: c}
}

// Intern returns the canonical *String for s, allocating and registering a
// new one with the collector if this is the first time s has been seen.
func (t *Table) Intern(s string) *String {
	if v, ok := t.m.Get(s); ok {
		return v
	}
	v := &String{Header: gc.NewHeader("string"), s: s}
	t.c.Register(v, int64(24+len(s)))
	t.m.Put(s, v)
	return v
}

// Remove evicts a string from the table. Called by the collector's OnFree
// hook during sweep, before the string's memory becomes unreachable, so
// that a later Intern call for the same content allocates a fresh string
// rather than returning a dangling entry.
func (t *Table) Remove(s *String) {
	t.m.Delete(s.s)
}

// Len reports the number of distinct interned strings, for diagnostics and
// tests.
func (t *Table) Len() int { return t.m.Count() }

// Concat interns the concatenation of two strings, per the "string + string
// -> concatenated interned string" arithmetic rule.
func (t *Table) Concat(a, b *String) *String {
	return t.Intern(a.s + b.s)
}
