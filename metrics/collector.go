// Package metrics provides process-lifetime metrics collection for a
// scheduler instance.
//
// The Collector accumulates counters for the life of a Scheduler. It is a
// leaf package with no internal dependencies, mirroring the teacher's
// run-scoped collector but counting workload lifecycle transitions and
// qdisc dequeue activity instead of run/executor/ingestion events.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all collected metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Workload lifecycle
	WorkloadsScheduled int64
	WorkloadsCompleted int64
	WorkloadsFaulted   int64
	WorkloadsCanceled  int64

	// Dequeue path
	DequeueAttempts   int64
	DequeueSuccesses  int64
	GuardCASRetries   int64
	BacktrackHits     int64
	RoundRobinRotates map[uint64]int64

	// Dimensions (informational, set at construction)
	SchedulerID string
	PoolSize    int
}

// Collector accumulates metrics for the life of a scheduler.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	workloadsScheduled int64
	workloadsCompleted int64
	workloadsFaulted   int64
	workloadsCanceled  int64

	dequeueAttempts  int64
	dequeueSuccesses int64
	guardCASRetries  int64
	backtrackHits    int64
	rrRotates        map[uint64]int64

	schedulerID string
	poolSize    int
}

// NewCollector creates a Collector carrying the scheduler's identity and
// configured pool size as informational dimensions.
func NewCollector(schedulerID string, poolSize int) *Collector {
	return &Collector{
		rrRotates:   make(map[uint64]int64),
		schedulerID: schedulerID,
		poolSize:    poolSize,
	}
}

// --- Workload lifecycle ---

// IncWorkloadScheduled records a workload entering the Scheduled state.
func (c *Collector) IncWorkloadScheduled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.workloadsScheduled++
	c.mu.Unlock()
}

// IncWorkloadCompleted records a workload reaching RanToCompletion.
func (c *Collector) IncWorkloadCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.workloadsCompleted++
	c.mu.Unlock()
}

// IncWorkloadFaulted records a workload reaching Faulted.
func (c *Collector) IncWorkloadFaulted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.workloadsFaulted++
	c.mu.Unlock()
}

// IncWorkloadCanceled records a workload reaching Canceled.
func (c *Collector) IncWorkloadCanceled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.workloadsCanceled++
	c.mu.Unlock()
}

// --- Dequeue path ---

// IncDequeueAttempt records a worker calling TryDequeue, regardless of
// outcome.
func (c *Collector) IncDequeueAttempt() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dequeueAttempts++
	c.mu.Unlock()
}

// IncDequeueSuccess records a TryDequeue call that returned a workload.
func (c *Collector) IncDequeueSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dequeueSuccesses++
	c.mu.Unlock()
}

// IncGuardCASRetry records a failed guarded CAS on an emptiness tracker bit
// that forced a resample of the child's state.
func (c *Collector) IncGuardCASRetry() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.guardCASRetries++
	c.mu.Unlock()
}

// IncBacktrackHit records a worker's per-worker last-dequeued cache paying
// off on the next dequeue.
func (c *Collector) IncBacktrackHit() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.backtrackHits++
	c.mu.Unlock()
}

// IncRoundRobinRotate records a round-robin rotation index advance for the
// qdisc identified by handle.
func (c *Collector) IncRoundRobinRotate(handle uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rrRotates[handle]++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rotates := make(map[uint64]int64, len(c.rrRotates))
	for k, v := range c.rrRotates {
		rotates[k] = v
	}

	return Snapshot{
		WorkloadsScheduled: c.workloadsScheduled,
		WorkloadsCompleted: c.workloadsCompleted,
		WorkloadsFaulted:   c.workloadsFaulted,
		WorkloadsCanceled:  c.workloadsCanceled,

		DequeueAttempts:   c.dequeueAttempts,
		DequeueSuccesses:  c.dequeueSuccesses,
		GuardCASRetries:   c.guardCASRetries,
		BacktrackHits:     c.backtrackHits,
		RoundRobinRotates: rotates,

		SchedulerID: c.schedulerID,
		PoolSize:    c.poolSize,
	}
}
