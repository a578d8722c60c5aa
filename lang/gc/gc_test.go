package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strand-lang/strand/lang/gc"
)

// node is a minimal Traceable used to exercise the collector without
// depending on the value package.
type node struct {
	gc.Header
	refs []*node
}

func newNode(c *gc.Collector) *node {
	n := &node{Header: gc.NewHeader("node")}
	c.Register(n, 16)
	return n
}

func (n *node) GCHeader() *gc.Header { return &n.Header }
func (n *node) Trace(mark func(gc.Traceable)) {
	for _, r := range n.refs {
		mark(r)
	}
}

func TestReachableSurvives(t *testing.T) {
	c := gc.New(gc.Config{})
	root := newNode(c)
	child := newNode(c)
	root.refs = append(root.refs, child)
	grandchild := newNode(c)
	child.refs = append(child.refs, grandchild)

	c.Collect(func(mark func(gc.Traceable)) { mark(root) })
	require.Equal(t, 3, c.Live())
}

func TestUnreachableIsFreed(t *testing.T) {
	c := gc.New(gc.Config{})
	root := newNode(c)
	garbage := newNode(c)
	_ = garbage

	stats := c.Collect(func(mark func(gc.Traceable)) { mark(root) })
	require.Equal(t, 1, stats.Freed)
	require.Equal(t, 1, stats.Survived)
	require.Equal(t, 1, c.Live())
}

func TestNoFloatingGarbageAcrossTwoCollections(t *testing.T) {
	c := gc.New(gc.Config{})
	root := newNode(c)
	_ = newNode(c) // unreachable

	first := c.Collect(func(mark func(gc.Traceable)) { mark(root) })
	require.Equal(t, 1, first.Freed)

	// no new allocations between collections: nothing left to free.
	second := c.Collect(func(mark func(gc.Traceable)) { mark(root) })
	require.Equal(t, 0, second.Freed)
	require.Equal(t, 1, second.Survived)
}

func TestOnFreeCallback(t *testing.T) {
	var freed []string
	c := gc.New(gc.Config{OnFree: func(t gc.Traceable) {
		freed = append(freed, t.GCHeader().Kind())
	}})
	root := newNode(c)
	_ = newNode(c)

	c.Collect(func(mark func(gc.Traceable)) { mark(root) })
	require.Equal(t, []string{"node"}, freed)
}

func TestShouldCollectThreshold(t *testing.T) {
	c := gc.New(gc.Config{InitialThreshold: 32, MinHeap: 1})
	require.False(t, c.ShouldCollect())
	newNode(c)
	newNode(c)
	require.True(t, c.ShouldCollect())
}
