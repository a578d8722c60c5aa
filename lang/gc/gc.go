// Package gc implements a stop-the-world, tri-color mark-and-sweep garbage
// collector over an intrusive "all objects" list. It knows nothing about the
// shape of any particular heap object: the value layer supplies that via the
// Traceable interface, and the VM supplies the root set at collection time.
// This keeps collector mechanics (the allocation watermark, the gray
// worklist, the sweep) independent of language-specific value semantics, so
// an embedder could in principle reuse the collector across multiple VM
// instances, each with its own Collector (see the "explicit VM context"
// design note: no process-wide singleton state lives here).
package gc

// Header is embedded as the first field of every heap object. It links the
// object into the collector's intrusive all-objects list and records its
// tri-color mark state between collections.
type Header struct {
	next   Traceable
	marked bool
	kind   string
}

// Kind returns the short name of the object's kind, used only for
// diagnostics (e.g. heap dumps, stress-test assertions).
func (h *Header) Kind() string { return h.kind }

// Traceable is implemented by every heap object kind (strings, arrays,
// dicts, functions, closures, upvalues, native functions, ...). GCHeader
// exposes the embedded Header for list linkage and marking. Trace must
// invoke mark on every Traceable the receiver directly references -- array
// elements, dict keys/values, a closure's function and upvalues, and so on.
// Trace is never called concurrently with allocation.
type Traceable interface {
	GCHeader() *Header
	Trace(mark func(Traceable))
}

// NewHeader returns a Header ready for insertion into a Collector, tagged
// with kind for diagnostics. Object constructors call this once and embed
// the result.
func NewHeader(kind string) Header {
	return Header{kind: kind}
}

// Stats summarizes a single collection for logging and tests.
type Stats struct {
	BytesBefore int64
	BytesAfter  int64
	Freed       int
	Survived    int
	NextGC      int64
}

// Config controls the collector's growth behavior.
type Config struct {
	// InitialThreshold is the bytes_allocated value that triggers the first
	// collection.
	InitialThreshold int64
	// GrowthFactor scales bytes_allocated (post-collection) to produce the
	// next threshold. The reference value is 2.
	GrowthFactor float64
	// MinHeap is a floor under the computed next threshold, so tiny live
	// sets don't trigger collections every few allocations.
	MinHeap int64
	// OnFree, if set, is invoked for every object about to be freed during
	// sweep, before it is unlinked. The value layer uses this to evict dead
	// entries from the interned-string table.
	OnFree func(Traceable)
}

const (
	defaultGrowthFactor = 2.0
	defaultMinHeap      = 1 << 20 // 1 MiB
	defaultThreshold    = 1 << 20
)

// Collector owns the intrusive all-objects list, the allocation watermark,
// and the gray worklist used during marking. It is not safe for concurrent
// use: the VM that owns it is single-threaded and runs collections only at
// allocation safe points.
type Collector struct {
	cfg Config

	head           Traceable // head of the intrusive all-objects list
	bytesAllocated int64
	nextGC         int64

	gray []Traceable // gray worklist, reused across collections

	collections int
	lastStats   Stats
}

// New creates a Collector with the given configuration, filling in the
// documented defaults for zero-valued fields.
func New(cfg Config) *Collector {
	if cfg.GrowthFactor <= 1 {
		cfg.GrowthFactor = defaultGrowthFactor
	}
	if cfg.MinHeap <= 0 {
		cfg.MinHeap = defaultMinHeap
	}
	if cfg.InitialThreshold <= 0 {
		cfg.InitialThreshold = defaultThreshold
	}
	return &Collector{cfg: cfg, nextGC: cfg.InitialThreshold}
}

// Register links obj into the all-objects list and accounts for size bytes
// against the allocation watermark. Every object constructor in the value
// layer must call this exactly once, immediately after allocating. size is
// an estimate (e.g. header + backing storage); it need not be exact.
func (c *Collector) Register(obj Traceable, size int64) {
	h := obj.GCHeader()
	h.next = c.head
	h.marked = false
	c.head = obj
	c.bytesAllocated += size
}

// ShouldCollect reports whether bytes_allocated has crossed next_gc. The VM
// calls this at every allocation safe point and runs Collect when true.
func (c *Collector) ShouldCollect() bool {
	return c.bytesAllocated >= c.nextGC
}

// BytesAllocated returns the current allocation watermark.
func (c *Collector) BytesAllocated() int64 { return c.bytesAllocated }

// LastStats returns the Stats recorded by the most recent Collect call.
func (c *Collector) LastStats() Stats { return c.lastStats }

// Collect runs one full mark-and-sweep cycle. roots is called once with the
// mark function the collector wants used to seed the gray worklist; the
// caller (the VM) is responsible for invoking mark on every root reference:
// the value stack, every live frame's slot window, every open upvalue, the
// globals table, and the built-in registry. Interned strings are *not*
// roots -- they are reachable only through live references, exactly like
// any other string, and unreachable interned entries are reclaimed by
// sweep via OnFree.
//
// No allocation may happen during the callback or during Collect itself;
// doing so would corrupt the gray worklist mid-trace.
func (c *Collector) Collect(roots func(mark func(Traceable))) Stats {
	before := c.bytesAllocated
	c.gray = c.gray[:0]

	mark := func(obj Traceable) {
		if obj == nil {
			return
		}
		h := obj.GCHeader()
		if h.marked {
			return
		}
		h.marked = true
		c.gray = append(c.gray, obj)
	}
	roots(mark)

	for len(c.gray) > 0 {
		obj := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		obj.Trace(mark)
	}

	freed, survived, bytesAfter := c.sweep()

	c.nextGC = int64(float64(bytesAfter) * c.cfg.GrowthFactor)
	if c.nextGC < c.cfg.MinHeap {
		c.nextGC = c.cfg.MinHeap
	}
	c.bytesAllocated = bytesAfter
	c.collections++

	stats := Stats{
		BytesBefore: before,
		BytesAfter:  bytesAfter,
		Freed:       freed,
		Survived:    survived,
		NextGC:      c.nextGC,
	}
	c.lastStats = stats
	return stats
}

// sweep walks the intrusive list, unlinking and "freeing" (letting Go's own
// GC reclaim) every unmarked object, and resets the mark bit on survivors.
// It returns the count of freed and surviving objects and a rough estimate
// of bytes still live (based on surviving object count only, since exact
// per-object size isn't tracked post-allocation -- sufficient for
// driving the growth heuristic, not for exact accounting).
func (c *Collector) sweep() (freed, survived int, bytesLive int64) {
	var newHead Traceable
	var tail Traceable

	obj := c.head
	for obj != nil {
		h := obj.GCHeader()
		next := h.next
		if h.marked {
			h.marked = false
			h.next = nil
			if newHead == nil {
				newHead = obj
			} else {
				tail.GCHeader().next = obj
			}
			tail = obj
			survived++
		} else {
			if c.cfg.OnFree != nil {
				c.cfg.OnFree(obj)
			}
			freed++
		}
		obj = next
	}
	c.head = newHead
	// crude per-object cost used only to rescale next_gc proportionally to
	// what's still reachable.
	const approxObjBytes = 48
	return freed, survived, int64(survived) * approxObjBytes
}

// Walk calls fn for every object currently in the all-objects list, in
// sweep order. Intended for diagnostics and tests (e.g. asserting that a
// known-reachable set of strings survived a collection), not for use by the
// VM's hot path.
func (c *Collector) Walk(fn func(Traceable)) {
	for obj := c.head; obj != nil; obj = obj.GCHeader().next {
		fn(obj)
	}
}

// Live returns the number of objects currently registered (both surviving a
// prior sweep and allocated since), for tests and stress-check assertions.
func (c *Collector) Live() int {
	n := 0
	c.Walk(func(Traceable) { n++ })
	return n
}
