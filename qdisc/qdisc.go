// Package qdisc implements the classful/classless scheduling tree: leaf
// (classless) FIFO queues, classful inner nodes with round-robin and
// strict-priority policies, and the routing-path machinery used to commit an
// enqueue across several levels in one traversal.
package qdisc

import (
	"time"

	"github.com/justapithecus/qdisc/workload"
)

// Handle is an opaque, caller-assigned, equality-comparable node identifier.
// Two children under the same parent must carry distinct handles. The zero
// Handle is reserved for anonymous internal queues (a classful node's own
// local leaf) and is never valid as a user-supplied child handle.
type Handle uint64

// ZeroHandle is the reserved handle for anonymous local queues.
const ZeroHandle Handle = 0

// ClassifyState is the caller-supplied value a classful node's predicate
// inspects to decide whether a workload belongs in its local queue or
// should be routed to a child. Its shape is a contract between the caller
// and whatever predicate was registered; the tree itself treats it opaquely.
type ClassifyState any

// Predicate decides whether state belongs to the node that owns it.
type Predicate func(state ClassifyState) bool

// parentNotifier is the capability a child needs on its parent to report
// "I just became non-empty." It is the only direction child->parent
// back-reference in the tree; parents hold children by value/slice, never
// the reverse, so there is no shared-ownership cycle, just this one
// notification hook.
type parentNotifier interface {
	onChildScheduled(childIdx int)
}

// MetricsSink is the narrow set of counters a classful node reports against
// during dequeue, satisfied by *metrics.Collector without qdisc importing
// that package's concrete type. A node with no sink attached simply skips
// the increments.
type MetricsSink interface {
	IncGuardCASRetry()
	IncBacktrackHit()
	IncRoundRobinRotate(handle uint64)
}

// WorkAvailableNotifier is the capability a scheduler attaches to a tree's
// root via Inner.AttachRoot to learn "some workload, somewhere in this tree,
// just became dequeueable." It is the external analogue of parentNotifier,
// exposed so a package outside qdisc can observe root-level wake-ups without
// reaching into the unexported notifier chain.
type WorkAvailableNotifier interface {
	WorkAvailable()
}

// Node is the capability set every qdisc tree node exposes, per §9's
// "dynamic dispatch across qdisc variants" design note: classless leaves and
// classful inner nodes both satisfy it, and the scheduler/parent classful
// nodes talk to children only through this interface.
type Node interface {
	// Handle returns the node's caller-assigned identifier (ZeroHandle for
	// an anonymous local queue).
	Handle() Handle

	// TryDequeue attempts to remove and return the next workload this node
	// (or its subtree) would hand to workerID. backTrack requests that,
	// where applicable, the worker's previously-successful child be tried
	// first.
	TryDequeue(workerID int, backTrack bool) (*workload.Workload, bool)

	// TryPeek returns the next workload without removing it, where
	// supported.
	TryPeek() (*workload.Workload, bool)

	// TryRemove best-effort removes w from this node's subtree. Returns
	// false if the node cannot support removal or w was not found.
	TryRemove(w *workload.Workload) bool

	// IsEmpty reports whether this node's subtree currently holds no
	// workload, to the node's best knowledge.
	IsEmpty() bool

	// BestEffortCount returns an approximate count of workloads held in
	// this node's subtree; never guaranteed exact under concurrent access.
	BestEffortCount() int

	// OnWorkerTerminated clears any per-worker caches for workerID and
	// forwards the notification to every child.
	OnWorkerTerminated(workerID int)

	// setParent wires the child->parent notification hook and records the
	// child's index under its parent, used by onChildScheduled. Called by
	// NewInner (for the local queue), TryAddChild, and TryRemoveChild.
	setParent(p parentNotifier, idx int)
}

// Classless is the capability a leaf (FIFO queue) node adds on top of Node.
type Classless interface {
	Node
	// Enqueue appends w to the leaf's ordered container, then notifies the
	// parent chain via onChildScheduled.
	Enqueue(w *workload.Workload) error
}

// Classful is the capability a classful (routing) inner node adds on top of
// Node.
type Classful interface {
	Node

	// CanClassify reports whether state would be accepted somewhere in this
	// node's subtree (its own predicate, or recursively, a descendant's).
	CanClassify(state ClassifyState) bool

	// TryEnqueue recursively classifies state and commits w into whichever
	// leaf accepts it.
	TryEnqueue(state ClassifyState, w *workload.Workload) error

	// TryEnqueueByHandle routes directly to the child whose handle is h,
	// without running any predicate.
	TryEnqueueByHandle(h Handle, w *workload.Workload) error

	// TryFindRoute searches this subtree for a node with handle h and, on
	// success, appends the traversal to path.
	TryFindRoute(h Handle, path *RoutingPath) bool

	// TryAddChild registers child under this node. child's handle must be
	// unique among existing children (ZeroHandle is rejected here; it is
	// reserved for the node's own local queue). When this node's Kind is
	// StrictPriority, priority (0 when omitted) must be unique among
	// siblings; it is ignored for RoundRobin.
	TryAddChild(child Node, priority ...int) error

	// TryRemoveChild waits up to timeout for child to become empty, then
	// detaches it, draining any residual workload into the node's own local
	// queue first.
	TryRemoveChild(child Node, timeout time.Duration) error

	// Children returns a snapshot of the node's current children in
	// registration order (index 0 is always the anonymous local queue). For
	// introspection only (telemetry, CLI inspect); never used on the
	// dequeue hot path.
	Children() []Node

	// Kind reports the node's scheduling policy.
	Kind() Kind
}

// Kind selects a classful node's scheduling policy.
type Kind int

const (
	RoundRobin Kind = iota
	StrictPriority
)

func (k Kind) String() string {
	switch k {
	case RoundRobin:
		return "round_robin"
	case StrictPriority:
		return "strict_priority"
	default:
		return "unknown"
	}
}

// Variant selects a classful node's emptiness-tracking implementation: the
// lock-free bitmap (scales to high worker counts) or the simpler
// mutex-guarded bit vector (§4.6 "why two variants per policy").
type Variant int

const (
	BitmapVariant Variant = iota
	LockingVariant
)

func (v Variant) String() string {
	switch v {
	case BitmapVariant:
		return "bitmap"
	case LockingVariant:
		return "locking"
	default:
		return "unknown"
	}
}
