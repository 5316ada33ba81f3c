package qdisc

import "github.com/justapithecus/qdisc/workload"

// dequeueRoundRobin implements §4.5: children (including the local queue at
// index 0) are visited in rotation via a monotonic index,
// fetch-and-increment-modulo-n. The same code path serves both the bitmap
// and locking variants — they differ only in what emptinessTracker
// implementation c.tracker holds.
func (c *Inner) dequeueRoundRobin(workerID int) (*workload.Workload, bool) {
	for {
		snap := c.snap.Load()
		n := len(snap.children)
		if n == 0 || c.tracker.IsEmpty() {
			return nil, false
		}

		i := int(c.rrIndex.Add(1)-1) % n
		if i < 0 {
			i += n
		}
		if c.metrics != nil {
			c.metrics.IncRoundRobinRotate(uint64(c.handle))
		}

		value, token := c.tracker.Get(i)
		if !value {
			continue
		}

		if w, ok := c.tryChildDequeue(i, workerID); ok {
			return w, true
		}

		if c.tracker.TryClearGuarded(i, token) {
			continue
		}
		// Another writer set the bit since we observed token. Re-sample and
		// give this child one more try before moving on.
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
}
