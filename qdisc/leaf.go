package qdisc

import (
	"sync"

	"github.com/justapithecus/qdisc/workload"
)

// Leaf is a classless qdisc: a plain FIFO container of workloads with
// thread-safe enqueue/dequeue and no children of its own. It is both the
// tree's user-facing leaf node and the anonymous "local queue" every
// classful node owns at child index 0.
type Leaf struct {
	handle Handle

	mu    sync.Mutex
	items []*workload.Workload

	parent        parentNotifier
	indexInParent int
}

// NewLeaf creates an empty classless leaf identified by handle.
func NewLeaf(handle Handle) *Leaf {
	return &Leaf{handle: handle}
}

func (l *Leaf) Handle() Handle { return l.handle }

func (l *Leaf) setParent(p parentNotifier, idx int) {
	l.parent = p
	l.indexInParent = idx
}

// Enqueue appends w, binds it to this leaf (so a later Cancel can ask the
// leaf to remove it), then notifies the parent chain that this leaf just
// became non-empty.
func (l *Leaf) Enqueue(w *workload.Workload) error {
	if !w.Bind(l) {
		return workload.NewArgumentError(workload.ArgInvalidIndex, "workload is not in a bindable state")
	}
	l.mu.Lock()
	l.items = append(l.items, w)
	l.mu.Unlock()
	if l.parent != nil {
		l.parent.onChildScheduled(l.indexInParent)
	}
	return nil
}

// TryDequeue pops the oldest workload and transitions it Scheduled->Running.
// If the popped workload is already terminal (it was soft-canceled while
// still queued) or the transition races with a concurrent cancellation, the
// item is dropped and TryDequeue reports failure; the caller backtracks to
// another child rather than retrying this leaf itself.
func (l *Leaf) TryDequeue(workerID int, backTrack bool) (*workload.Workload, bool) {
	l.mu.Lock()
	if len(l.items) == 0 {
		l.mu.Unlock()
		return nil, false
	}
	w := l.items[0]
	l.items = l.items[1:]
	l.mu.Unlock()

	if w.State().Terminal() {
		return nil, false
	}
	if !w.StartRunning() {
		return nil, false
	}
	return w, true
}

// TryPeek returns the oldest workload without removing it.
func (l *Leaf) TryPeek() (*workload.Workload, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) == 0 {
		return nil, false
	}
	return l.items[0], true
}

// TryRemove implements workload.Binding: a linear best-effort search and
// splice. Called both directly (cancellation before running) and by a
// classful parent draining a child before detaching it.
func (l *Leaf) TryRemove(w *workload.Workload) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if it == w {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Leaf) IsEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items) == 0
}

func (l *Leaf) BestEffortCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// OnWorkerTerminated is a no-op: leaves carry no per-worker cache.
func (l *Leaf) OnWorkerTerminated(workerID int) {}

// drainInto moves every residual item into dst, rebinding each so a later
// Cancel targets the right leaf. Used by TryRemoveChild.
func (l *Leaf) drainInto(dst *Leaf) {
	l.mu.Lock()
	items := l.items
	l.items = nil
	l.mu.Unlock()

	for _, w := range items {
		w.Rebind(dst)
	}

	dst.mu.Lock()
	dst.items = append(dst.items, items...)
	dst.mu.Unlock()
}

var _ Classless = (*Leaf)(nil)
