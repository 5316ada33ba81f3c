package qdisc

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/justapithecus/qdisc/workload"
)

// structSnapshot is the copy-on-write child set a classful node reads on its
// dequeue hot path. Structural mutation (TryAddChild/TryRemoveChild) builds
// a new snapshot under structMu and swaps the pointer; every reader sees a
// consistent view without taking any lock.
type structSnapshot struct {
	children    []Node
	priorities  []int
	handleIndex map[Handle]int
}

// Inner is a classful qdisc: an ordered set of children (child 0 always the
// node's own anonymous local leaf), an optional classification predicate,
// and an emptiness-tracking bit per child. It implements both the RR and
// strict-priority scheduling policies, in either the lock-free bitmap or
// the mutex-guarded locking emptiness-tracker variant, selected at
// construction (§4.5/§4.6: "why two variants per policy").
type Inner struct {
	handle     Handle
	kind       Kind
	variant    Variant
	predicate  Predicate
	maxWorkers int

	localQueue *Leaf
	tracker    emptinessTracker

	structMu sync.Mutex
	snap     atomic.Pointer[structSnapshot]

	rrIndex      atomic.Uint64
	lastDequeued []atomic.Int32

	parent        parentNotifier
	indexInParent int

	metrics MetricsSink
}

// NewInner creates a classful node. maxWorkers bounds the per-worker
// "last-dequeued" backtracking cache and must match the worker pool size
// that will dequeue from this subtree. predicate may be nil, in which case
// the node's local queue accepts anything not claimed by a child (acts as
// the tree's catch-all).
func NewInner(handle Handle, kind Kind, variant Variant, maxWorkers int, predicate Predicate) (*Inner, error) {
	if maxWorkers <= 0 {
		return nil, workload.NewArgumentError(workload.ArgInvalidCapacity, "max_concurrency must be positive, got %d", maxWorkers)
	}
	local := NewLeaf(handle) // the local queue carries the node's own handle identity (§3.2)
	c := &Inner{
		handle:       handle,
		kind:         kind,
		variant:      variant,
		predicate:    predicate,
		maxWorkers:   maxWorkers,
		localQueue:   local,
		tracker:      newTracker(variant),
		lastDequeued: make([]atomic.Int32, maxWorkers),
	}
	for i := range c.lastDequeued {
		c.lastDequeued[i].Store(-1)
	}
	local.setParent(c, 0)
	c.snap.Store(&structSnapshot{
		children:    []Node{local},
		priorities:  []int{0},
		handleIndex: map[Handle]int{handle: 0},
	})
	c.tracker.Grow(1)
	return c, nil
}

func (c *Inner) Handle() Handle { return c.handle }

func (c *Inner) setParent(p parentNotifier, idx int) {
	c.parent = p
	c.indexInParent = idx
}

// rootNotifierAdapter wraps a caller-supplied WorkAvailableNotifier so it can
// sit in the parentNotifier slot a root node otherwise leaves nil. childIdx
// notifications above the root carry no further routing information, so the
// adapter discards it and just signals "something is available."
type rootNotifierAdapter struct {
	notify WorkAvailableNotifier
}

func (a *rootNotifierAdapter) onChildScheduled(int) { a.notify.WorkAvailable() }

// AttachRoot wires n as this node's wake-up notifier. Call it once, on the
// tree's root node, before starting a worker pool against it; it lets the
// scheduler learn about new work without polling. Calling it on a non-root
// node overwrites whatever parent it already had.
func (c *Inner) AttachRoot(n WorkAvailableNotifier) {
	c.parent = &rootNotifierAdapter{notify: n}
	c.indexInParent = 0
}

// AttachMetrics wires m to receive this node's dequeue-path counters
// (guard-CAS retries, backtrack-cache hits, round-robin rotations). It does
// not propagate to children; call it on every classful node whose activity
// should be observed.
func (c *Inner) AttachMetrics(m MetricsSink) {
	c.metrics = m
}

// onChildScheduled implements parentNotifier: a child (or the local queue)
// just became non-empty. Flip the bit and keep walking up.
func (c *Inner) onChildScheduled(childIdx int) {
	c.tracker.Set(childIdx, true)
	if c.parent != nil {
		c.parent.onChildScheduled(c.indexInParent)
	}
}

// CanClassify reports whether state would be accepted by this node's own
// predicate or, recursively, by a classful descendant.
func (c *Inner) CanClassify(state ClassifyState) bool {
	if c.predicate == nil || c.predicate(state) {
		return true
	}
	snap := c.snap.Load()
	for _, ch := range snap.children {
		if cf, ok := ch.(*Inner); ok {
			if cf.CanClassify(state) {
				return true
			}
		}
	}
	return false
}

// enqueueLocal commits w to this node's own local queue.
func (c *Inner) enqueueLocal(w *workload.Workload) error {
	return c.localQueue.Enqueue(w)
}

// TryEnqueue recursively classifies state, preferring this node's own
// predicate, then descending into classful children in registration order.
// A workload matching nothing falls back to the local queue so enqueue
// never silently drops work.
func (c *Inner) TryEnqueue(state ClassifyState, w *workload.Workload) error {
	if c.predicate != nil && c.predicate(state) {
		return c.enqueueLocal(w)
	}
	snap := c.snap.Load()
	for _, ch := range snap.children {
		if cf, ok := ch.(*Inner); ok && cf.CanClassify(state) {
			return cf.TryEnqueue(state, w)
		}
	}
	return c.enqueueLocal(w)
}

// TryEnqueueByHandle routes directly to the child (or descendant) whose
// handle is h, bypassing classification entirely.
func (c *Inner) TryEnqueueByHandle(h Handle, w *workload.Workload) error {
	snap := c.snap.Load()
	if idx, ok := snap.handleIndex[h]; ok {
		child := snap.children[idx]
		switch n := child.(type) {
		case *Inner:
			return n.enqueueLocal(w)
		case Classless:
			return n.Enqueue(w)
		}
	}

	path := AcquireRoutingPath()
	defer path.Release()
	if !c.TryFindRoute(h, path) {
		return workload.NewArgumentError(workload.ArgInvalidIndex, "no node with handle %d in this subtree", h)
	}
	for _, e := range path.entries {
		if n, ok := e.parent.(*Inner); ok {
			n.willEnqueueFromRoutingPath(e.childIdx)
		}
	}
	return path.Leaf().Enqueue(w)
}

// TryFindRoute searches this subtree depth-first for a node with handle h,
// recording each hop taken. It rolls back hops from branches that do not
// lead to h.
func (c *Inner) TryFindRoute(h Handle, path *RoutingPath) bool {
	snap := c.snap.Load()
	for i, ch := range snap.children {
		if ch.Handle() == h {
			path.push(c, i, h)
			if n, ok := ch.(*Inner); ok {
				path.setLeaf(n.localQueue)
			} else if leaf, ok := ch.(Classless); ok {
				path.setLeaf(leaf)
			}
			return true
		}
	}
	for i, ch := range snap.children {
		n, ok := ch.(*Inner)
		if !ok {
			continue
		}
		before := len(path.entries)
		path.push(c, i, ch.Handle())
		if n.TryFindRoute(h, path) {
			return true
		}
		path.entries = path.entries[:before]
	}
	return false
}

// willEnqueueFromRoutingPath pre-arms childIdx's emptiness bit ahead of the
// leaf commit, so a concurrent dequeue walking this node cannot observe it
// as empty between the routing decision and the leaf's own
// onChildScheduled notification.
func (c *Inner) willEnqueueFromRoutingPath(childIdx int) {
	c.tracker.Set(childIdx, true)
}

// TryAddChild registers child, rejecting a nil child, the reserved zero
// handle, and a handle/priority collision with an existing sibling. For a
// StrictPriority node, priority[0] (0 when omitted) must be unique.
func (c *Inner) TryAddChild(child Node, priority ...int) error {
	if child == nil {
		return workload.NewArgumentError(workload.ArgNilChild, "nil child")
	}
	h := child.Handle()
	if h == ZeroHandle {
		return workload.NewArgumentError(workload.ArgZeroHandle, "zero handle is reserved for the local queue")
	}
	prio := 0
	if len(priority) > 0 {
		prio = priority[0]
	}

	c.structMu.Lock()
	defer c.structMu.Unlock()

	old := c.snap.Load()
	if _, exists := old.handleIndex[h]; exists {
		return workload.NewArgumentError(workload.ArgDuplicateHandle, "duplicate handle %d", h)
	}
	if c.kind == StrictPriority {
		// old.priorities[0] is the local queue's seeded placeholder, not a
		// real registered priority; a new child is free to claim priority 0.
		for _, p := range old.priorities[1:] {
			if p == prio {
				return workload.NewArgumentError(workload.ArgDuplicatePriority, "duplicate priority %d", prio)
			}
		}
	}

	newChildren := append(append([]Node{}, old.children...), child)
	newPriorities := append(append([]int{}, old.priorities...), prio)
	insertIdx := len(newChildren) - 1

	if c.kind == StrictPriority {
		// Lower priority numbers drain first (priority 1 outranks priority
		// 2): keep children[1:] sorted ascending by priority (index 0 is
		// permanently the local queue and never moves, regardless of what
		// priority a registered child carries). The new entry starts at the
		// tail and bubbles left past any higher-numbered sibling.
		for insertIdx > 1 && newPriorities[insertIdx-1] > newPriorities[insertIdx] {
			newChildren[insertIdx-1], newChildren[insertIdx] = newChildren[insertIdx], newChildren[insertIdx-1]
			newPriorities[insertIdx-1], newPriorities[insertIdx] = newPriorities[insertIdx], newPriorities[insertIdx-1]
			insertIdx--
		}
	}

	newHandleIndex := make(map[Handle]int, len(newChildren))
	for i, ch := range newChildren {
		ch.setParent(c, i)
		newHandleIndex[ch.Handle()] = i
	}

	c.snap.Store(&structSnapshot{children: newChildren, priorities: newPriorities, handleIndex: newHandleIndex})
	c.tracker.InsertAt(insertIdx, false)
	c.resetWorkerCaches()
	return nil
}

// TryRemoveChild waits up to timeout for child to drain, then detaches it,
// moving any residual workload (a race against the wait) into this node's
// own local queue before it disappears from the tree.
func (c *Inner) TryRemoveChild(child Node, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for !child.IsEmpty() {
		if time.Now().After(deadline) {
			return workload.NewSchedulingError("child did not drain within timeout", nil)
		}
		time.Sleep(time.Millisecond)
	}

	c.structMu.Lock()
	defer c.structMu.Unlock()

	old := c.snap.Load()
	idx, ok := old.handleIndex[child.Handle()]
	if !ok {
		return workload.NewArgumentError(workload.ArgInvalidIndex, "child %d not found", child.Handle())
	}

	switch n := child.(type) {
	case *Leaf:
		n.drainInto(c.localQueue)
	case *Inner:
		n.localQueue.drainInto(c.localQueue)
	}
	if !c.localQueue.IsEmpty() {
		c.onChildScheduled(0)
	}

	newChildren := make([]Node, 0, len(old.children)-1)
	newPriorities := make([]int, 0, len(old.priorities)-1)
	for i, ch := range old.children {
		if i == idx {
			continue
		}
		newChildren = append(newChildren, ch)
		newPriorities = append(newPriorities, old.priorities[i])
	}
	newHandleIndex := make(map[Handle]int, len(newChildren))
	for i, ch := range newChildren {
		ch.setParent(c, i)
		newHandleIndex[ch.Handle()] = i
	}

	c.snap.Store(&structSnapshot{children: newChildren, priorities: newPriorities, handleIndex: newHandleIndex})
	c.tracker.RemoveAt(idx)
	c.resetWorkerCaches()
	return nil
}

func (c *Inner) resetWorkerCaches() {
	for i := range c.lastDequeued {
		c.lastDequeued[i].Store(-1)
	}
}

// tryChildDequeue attempts to dequeue from child idx and, on success,
// records it as workerID's last-dequeued child for future backtracking.
func (c *Inner) tryChildDequeue(idx, workerID int) (*workload.Workload, bool) {
	snap := c.snap.Load()
	if idx < 0 || idx >= len(snap.children) {
		return nil, false
	}
	w, ok := snap.children[idx].TryDequeue(workerID, true)
	if ok {
		c.recordLastDequeued(workerID, idx)
	}
	return w, ok
}

func (c *Inner) recordLastDequeued(workerID, idx int) {
	if workerID >= 0 && workerID < len(c.lastDequeued) {
		c.lastDequeued[workerID].Store(int32(idx))
	}
}

// TryDequeue tries the worker's cached last-dequeued child first (when
// backTrack is set and the cache is populated), then falls back to this
// node's scheduling policy.
func (c *Inner) TryDequeue(workerID int, backTrack bool) (*workload.Workload, bool) {
	if backTrack && workerID >= 0 && workerID < len(c.lastDequeued) {
		if idx := int(c.lastDequeued[workerID].Load()); idx >= 0 {
			if w, ok := c.tryChildDequeue(idx, workerID); ok {
				if c.metrics != nil {
					c.metrics.IncBacktrackHit()
				}
				return w, true
			}
		}
	}
	switch c.kind {
	case StrictPriority:
		return c.dequeueStrictPriority(workerID)
	default:
		return c.dequeueRoundRobin(workerID)
	}
}

// TryPeek returns the first peekable workload found scanning children in
// registration order. Unlike TryDequeue it does not honor rotation or
// priority order; it exists only to support best-effort inspection.
func (c *Inner) TryPeek() (*workload.Workload, bool) {
	snap := c.snap.Load()
	for _, ch := range snap.children {
		if w, ok := ch.TryPeek(); ok {
			return w, true
		}
	}
	return nil, false
}

// TryRemove searches every child's subtree for w.
func (c *Inner) TryRemove(w *workload.Workload) bool {
	snap := c.snap.Load()
	for _, ch := range snap.children {
		if ch.TryRemove(w) {
			return true
		}
	}
	return false
}

// Children returns a snapshot of the node's current children in
// registration order.
func (c *Inner) Children() []Node {
	snap := c.snap.Load()
	out := make([]Node, len(snap.children))
	copy(out, snap.children)
	return out
}

// Kind reports the node's scheduling policy.
func (c *Inner) Kind() Kind { return c.kind }

// IsEmpty reports the node's current belief, from its emptiness tracker,
// about whether its subtree holds any workload.
func (c *Inner) IsEmpty() bool { return c.tracker.IsEmpty() }

// BestEffortCount sums children's best-effort counts.
func (c *Inner) BestEffortCount() int {
	snap := c.snap.Load()
	total := 0
	for _, ch := range snap.children {
		total += ch.BestEffortCount()
	}
	return total
}

// ChildEmptinessBits returns a snapshot of the node's emptiness-tracker bit
// per child, in the same order as Children. It is for introspection only
// (telemetry export, CLI inspect): never used on the dequeue hot path, and
// never guaranteed to agree with a concurrently running enqueue/dequeue.
func (c *Inner) ChildEmptinessBits() []bool {
	snap := c.snap.Load()
	out := make([]bool, len(snap.children))
	for i := range snap.children {
		v, _ := c.tracker.Get(i)
		out[i] = v
	}
	return out
}

// OnWorkerTerminated clears workerID's cache entry and forwards to every
// child.
func (c *Inner) OnWorkerTerminated(workerID int) {
	if workerID >= 0 && workerID < len(c.lastDequeued) {
		c.lastDequeued[workerID].Store(-1)
	}
	snap := c.snap.Load()
	for _, ch := range snap.children {
		ch.OnWorkerTerminated(workerID)
	}
}

var (
	_ Classful  = (*Inner)(nil)
	_ Node      = (*Inner)(nil)
)
