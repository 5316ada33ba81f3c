package metrics

import "testing"

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("sched-1", 4)

	c.IncWorkloadScheduled()
	c.IncWorkloadScheduled()
	c.IncWorkloadCompleted()
	c.IncWorkloadFaulted()
	c.IncWorkloadCanceled()
	c.IncWorkloadCanceled()
	c.IncDequeueAttempt()
	c.IncDequeueAttempt()
	c.IncDequeueSuccess()
	c.IncGuardCASRetry()
	c.IncGuardCASRetry()
	c.IncGuardCASRetry()
	c.IncBacktrackHit()
	c.IncRoundRobinRotate(1)
	c.IncRoundRobinRotate(1)
	c.IncRoundRobinRotate(2)

	s := c.Snapshot()

	if s.WorkloadsScheduled != 2 {
		t.Errorf("WorkloadsScheduled = %d, want 2", s.WorkloadsScheduled)
	}
	if s.WorkloadsCompleted != 1 {
		t.Errorf("WorkloadsCompleted = %d, want 1", s.WorkloadsCompleted)
	}
	if s.WorkloadsFaulted != 1 {
		t.Errorf("WorkloadsFaulted = %d, want 1", s.WorkloadsFaulted)
	}
	if s.WorkloadsCanceled != 2 {
		t.Errorf("WorkloadsCanceled = %d, want 2", s.WorkloadsCanceled)
	}
	if s.DequeueAttempts != 2 {
		t.Errorf("DequeueAttempts = %d, want 2", s.DequeueAttempts)
	}
	if s.DequeueSuccesses != 1 {
		t.Errorf("DequeueSuccesses = %d, want 1", s.DequeueSuccesses)
	}
	if s.GuardCASRetries != 3 {
		t.Errorf("GuardCASRetries = %d, want 3", s.GuardCASRetries)
	}
	if s.BacktrackHits != 1 {
		t.Errorf("BacktrackHits = %d, want 1", s.BacktrackHits)
	}
	if s.RoundRobinRotates[1] != 2 {
		t.Errorf("RoundRobinRotates[1] = %d, want 2", s.RoundRobinRotates[1])
	}
	if s.RoundRobinRotates[2] != 1 {
		t.Errorf("RoundRobinRotates[2] = %d, want 1", s.RoundRobinRotates[2])
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("sched-42", 8)
	s := c.Snapshot()

	if s.SchedulerID != "sched-42" {
		t.Errorf("SchedulerID = %q, want %q", s.SchedulerID, "sched-42")
	}
	if s.PoolSize != 8 {
		t.Errorf("PoolSize = %d, want 8", s.PoolSize)
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("sched-1", 1)
	c.IncWorkloadScheduled()
	c.IncRoundRobinRotate(1)

	s1 := c.Snapshot()

	c.IncWorkloadCompleted()
	c.IncRoundRobinRotate(1)
	c.IncRoundRobinRotate(1)

	if s1.WorkloadsCompleted != 0 {
		t.Errorf("s1.WorkloadsCompleted = %d, want 0 (snapshot should be frozen)", s1.WorkloadsCompleted)
	}
	if s1.RoundRobinRotates[1] != 1 {
		t.Errorf("s1.RoundRobinRotates[1] = %d, want 1 (snapshot should be frozen)", s1.RoundRobinRotates[1])
	}

	s2 := c.Snapshot()
	if s2.WorkloadsCompleted != 1 {
		t.Errorf("s2.WorkloadsCompleted = %d, want 1", s2.WorkloadsCompleted)
	}
	if s2.RoundRobinRotates[1] != 3 {
		t.Errorf("s2.RoundRobinRotates[1] = %d, want 3", s2.RoundRobinRotates[1])
	}
}

func TestCollector_SnapshotRotatesMapIsolation(t *testing.T) {
	c := NewCollector("sched-1", 1)
	c.IncRoundRobinRotate(1)

	s := c.Snapshot()
	s.RoundRobinRotates[1] = 999
	s.RoundRobinRotates[2] = 1

	s2 := c.Snapshot()
	if s2.RoundRobinRotates[1] != 1 {
		t.Errorf("RoundRobinRotates[1] = %d, want 1 (collector should be isolated from snapshot mutation)", s2.RoundRobinRotates[1])
	}
	if _, exists := s2.RoundRobinRotates[2]; exists {
		t.Error("RoundRobinRotates should not contain key added after snapshot")
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	c.IncWorkloadScheduled()
	c.IncWorkloadCompleted()
	c.IncWorkloadFaulted()
	c.IncWorkloadCanceled()
	c.IncDequeueAttempt()
	c.IncDequeueSuccess()
	c.IncGuardCASRetry()
	c.IncBacktrackHit()
	c.IncRoundRobinRotate(1)

	s := c.Snapshot()
	if s.WorkloadsScheduled != 0 {
		t.Errorf("nil collector snapshot WorkloadsScheduled = %d, want 0", s.WorkloadsScheduled)
	}
	if s.RoundRobinRotates != nil {
		t.Errorf("nil collector snapshot RoundRobinRotates should be nil, got %v", s.RoundRobinRotates)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("sched-1", 4)
	const goroutines = 10
	const iterations = 1000

	done := make(chan struct{}, goroutines)
	for range goroutines {
		go func() {
			defer func() { done <- struct{}{} }()
			for range iterations {
				c.IncDequeueAttempt()
				c.IncDequeueSuccess()
				c.IncRoundRobinRotate(1)
			}
		}()
	}
	for range goroutines {
		<-done
	}

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.DequeueAttempts != want {
		t.Errorf("DequeueAttempts = %d, want %d", s.DequeueAttempts, want)
	}
	if s.DequeueSuccesses != want {
		t.Errorf("DequeueSuccesses = %d, want %d", s.DequeueSuccesses, want)
	}
	if s.RoundRobinRotates[1] != want {
		t.Errorf("RoundRobinRotates[1] = %d, want %d", s.RoundRobinRotates[1], want)
	}
}

func TestCollector_ZeroValueSnapshot(t *testing.T) {
	c := NewCollector("sched-1", 1)
	s := c.Snapshot()

	if s.WorkloadsScheduled != 0 || s.WorkloadsCompleted != 0 || s.WorkloadsFaulted != 0 || s.WorkloadsCanceled != 0 {
		t.Error("fresh collector should have zero workload lifecycle counters")
	}
	if s.DequeueAttempts != 0 || s.DequeueSuccesses != 0 || s.GuardCASRetries != 0 || s.BacktrackHits != 0 {
		t.Error("fresh collector should have zero dequeue counters")
	}
	if len(s.RoundRobinRotates) != 0 {
		t.Errorf("fresh collector RoundRobinRotates should be empty, got %v", s.RoundRobinRotates)
	}
}
