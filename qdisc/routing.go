package qdisc

import "sync"

// routeEntry is one step of a pre-computed enqueue trajectory: the parent
// node at this level, the index of the chosen child under it, and that
// child's handle.
type routeEntry struct {
	parent   Classful
	childIdx int
	handle   Handle
}

// RoutingPath is a pooled, reusable vector describing the trajectory from a
// root classful node down to a selected leaf. TryFindRoute appends to it as
// it descends; once a leaf is found, the classful contract walks the
// recorded entries to pre-arm emptiness tracking (willEnqueueFromRoutingPath
// on every node along the path) before committing the enqueue on the leaf.
type RoutingPath struct {
	entries []routeEntry
	leaf    Classless
}

// routingPathPool recycles RoutingPath values across TryEnqueueByHandle
// calls, the way the reference design calls for a "pooled vector": the path
// is purely scratch space for the duration of one routing attempt.
var routingPathPool = sync.Pool{
	New: func() any { return &RoutingPath{} },
}

// AcquireRoutingPath returns a reset RoutingPath from the pool.
func AcquireRoutingPath() *RoutingPath {
	p := routingPathPool.Get().(*RoutingPath)
	p.entries = p.entries[:0]
	p.leaf = nil
	return p
}

// Release returns p to the pool. Callers must not use p after releasing it.
func (p *RoutingPath) Release() {
	p.entries = p.entries[:0]
	p.leaf = nil
	routingPathPool.Put(p)
}

func (p *RoutingPath) push(parent Classful, childIdx int, handle Handle) {
	p.entries = append(p.entries, routeEntry{parent: parent, childIdx: childIdx, handle: handle})
}

// Leaf returns the final leaf reference a completed route resolved to, or
// nil if the route is still being built.
func (p *RoutingPath) Leaf() Classless { return p.leaf }

// setLeaf records the terminal leaf for a completed route.
func (p *RoutingPath) setLeaf(leaf Classless) { p.leaf = leaf }

// empty reports whether the route has not recorded any hop yet.
func (p *RoutingPath) empty() bool { return len(p.entries) == 0 && p.leaf == nil }
