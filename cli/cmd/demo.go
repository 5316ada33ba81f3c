package cmd

import (
	"context"
	"time"

	"github.com/justapithecus/qdisc/config"
	"github.com/justapithecus/qdisc/log"
	"github.com/justapithecus/qdisc/metrics"
	"github.com/justapithecus/qdisc/scheduler"
	"github.com/justapithecus/qdisc/workload"
)

// buildDemoScheduler loads a topology file and wires a Scheduler over it,
// the shared setup used by both the run and stats commands. It also returns
// the loaded topology so callers can read informational fields (e.g. the
// root handle, used by run's telemetry export) without re-parsing the file.
func buildDemoScheduler(schedulerID, path string) (*scheduler.Scheduler, *metrics.Collector, *config.Topology, error) {
	top, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	root, err := config.Build(*top, top.PoolSize, demoPredicates)
	if err != nil {
		return nil, nil, nil, err
	}

	collector := metrics.NewCollector(schedulerID, top.PoolSize)
	sched := scheduler.New(root, scheduler.Config{
		SchedulerID: schedulerID,
		PoolSize:    top.PoolSize,
		Logger:      log.NewLogger(log.Context{SchedulerID: schedulerID, PoolSize: top.PoolSize}),
		Collector:   collector,
	})
	return sched, collector, top, nil
}

// submitDemoWorkloads submits count trivial workloads, cycling an int
// classification state so a demo topology's even/odd predicates have
// something to route, falling back to the root's own local queue for
// anything unclaimed.
func submitDemoWorkloads(sched *scheduler.Scheduler, count int) []*workload.Workload {
	workloads := make([]*workload.Workload, count)
	for i := range count {
		n := i
		w := workload.New(func(ctx context.Context) (any, error) {
			select {
			case <-time.After(time.Duration(5+n%10) * time.Millisecond):
				return n, nil
			case <-ctx.Done():
				return nil, workload.ErrCanceled
			}
		})
		workloads[i] = w
		_ = sched.Submit(n, w)
	}
	return workloads
}

// waitAll blocks until every workload in ws has reached a terminal state or
// the deadline elapses.
func waitAll(ws []*workload.Workload, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for _, w := range ws {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), remaining)
		w.Wait(ctx, remaining)
		cancel()
	}
}
