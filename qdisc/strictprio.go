package qdisc

import "github.com/justapithecus/qdisc/workload"

// dequeueStrictPriority implements strict-priority dequeue: children are
// stored sorted ascending by priority number (TryAddChild keeps the
// invariant, with index 0 permanently pinned to the local queue), so a
// left-to-right scan visits the lowest priority number — the highest actual
// priority — first, and never advances past a non-empty child there. Like
// dequeueRoundRobin, this one code path serves both the bitmap and locking
// variants.
func (c *Inner) dequeueStrictPriority(workerID int) (*workload.Workload, bool) {
	for {
		snap := c.snap.Load()
		n := len(snap.children)
		if n == 0 || c.tracker.IsEmpty() {
			return nil, false
		}

		progressed := false
		for i := 0; i < n; i++ {
			value, token := c.tracker.Get(i)
			if !value {
				continue
			}
			progressed = true

			if w, ok := c.tryChildDequeue(i, workerID); ok {
				return w, true
			}

			if c.tracker.TryClearGuarded(i, token) {
				continue
			}
			if c.metrics != nil {
				c.metrics.IncGuardCASRetry()
			}
			if v2, t2 := c.tracker.Get(i); v2 {
				if w2, ok2 := c.tryChildDequeue(i, workerID); ok2 {
					return w2, true
				}
				c.tracker.TryClearGuarded(i, t2)
			}
		}
		if !progressed {
			return nil, false
		}
	}
}
