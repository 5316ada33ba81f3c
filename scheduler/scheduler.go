// Package scheduler implements the fixed-size worker pool that drives a
// qdisc tree: each worker repeatedly dequeues from the tree's root, runs the
// workload it receives, and lets the workload's own continuation list
// handle completion notification.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justapithecus/qdisc/log"
	"github.com/justapithecus/qdisc/metrics"
	"github.com/justapithecus/qdisc/qdisc"
	"github.com/justapithecus/qdisc/workload"
)

// Root is the capability a scheduler needs from the tree it drives: the
// full classful surface (so Submit/SubmitByHandle can route through it)
// plus AttachRoot to receive wake-up notifications. *qdisc.Inner satisfies
// it.
type Root interface {
	qdisc.Classful
	AttachRoot(n qdisc.WorkAvailableNotifier)
}

// idleBackoff is the fixed sleep between failed dequeue attempts before a
// worker parks on the wake signal. The reference design calls for "back
// off; if quiescent, park"; a single short sleep before parking is enough
// headroom for a racing enqueue's onChildScheduled to land without every
// worker immediately blocking on an empty tree.
const idleBackoff = 200 * time.Microsecond

// Config bundles a Scheduler's identity and dependencies.
type Config struct {
	// SchedulerID identifies this scheduler instance in logs and metrics.
	SchedulerID string
	// PoolSize is the fixed number of workers; must be positive.
	PoolSize int
	// Logger receives lifecycle and fault records. A nil Logger is replaced
	// with one writing to the process's default output.
	Logger *log.Logger
	// Collector receives counters. A nil Collector is safe to use (all
	// increment methods are nil-receiver safe) and simply discards them.
	Collector *metrics.Collector
}

// Scheduler owns a fixed worker pool and the root of a qdisc tree.
type Scheduler struct {
	root Root
	cfg  Config
	log  *log.Logger
	mx   *metrics.Collector

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup

	running atomic.Bool
}

// New creates a Scheduler over root, attaching itself as root's wake-up
// notifier. root must be the tree's root node; attaching a non-root node
// overwrites whatever parent notifier it already had.
func New(root Root, cfg Config) *Scheduler {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 1
	}
	l := cfg.Logger
	if l == nil {
		l = log.NewLogger(log.Context{SchedulerID: cfg.SchedulerID, PoolSize: cfg.PoolSize})
	}
	s := &Scheduler{
		root: root,
		cfg:  cfg,
		log:  l,
		mx:   cfg.Collector,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	root.AttachRoot(s)
	if attacher, ok := root.(interface{ AttachMetrics(qdisc.MetricsSink) }); ok && cfg.Collector != nil {
		attacher.AttachMetrics(cfg.Collector)
	}
	return s
}

// WorkAvailable implements qdisc.WorkAvailableNotifier. It is called from
// deep inside the tree's enqueue path, so it never blocks: a full wake
// channel already means some worker will wake up and re-scan.
func (s *Scheduler) WorkAvailable() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start launches PoolSize workers. It returns immediately; workers run
// until ctx is done or Stop is called. Calling Start twice on the same
// Scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.log.Info("scheduler starting", map[string]any{"pool_size": s.cfg.PoolSize})
	for i := 0; i < s.cfg.PoolSize; i++ {
		s.wg.Add(1)
		go s.workerLoop(ctx, i)
	}
}

// Stop signals every worker to exit and blocks until they have all
// returned, calling OnWorkerTerminated up the tree for each.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.log.Info("scheduler stopped", nil)
}

// Submit classifies and enqueues w into the tree rooted at s.root.
func (s *Scheduler) Submit(state qdisc.ClassifyState, w *workload.Workload) error {
	if err := s.root.TryEnqueue(state, w); err != nil {
		return err
	}
	s.mx.IncWorkloadScheduled()
	return nil
}

// SubmitByHandle enqueues w directly into the child identified by h,
// bypassing classification.
func (s *Scheduler) SubmitByHandle(h qdisc.Handle, w *workload.Workload) error {
	if err := s.root.TryEnqueueByHandle(h, w); err != nil {
		return err
	}
	s.mx.IncWorkloadScheduled()
	return nil
}

func (s *Scheduler) workerLoop(ctx context.Context, workerID int) {
	defer s.wg.Done()
	wlog := s.log.WithWorker(workerID)
	defer func() {
		s.root.OnWorkerTerminated(workerID)
		wlog.Debug("worker exited", nil)
	}()

	idle := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		s.mx.IncDequeueAttempt()
		w, ok := s.root.TryDequeue(workerID, true)
		if !ok {
			// First miss: back off briefly. A second consecutive miss parks
			// on the wake signal (a nil channel never fires).
			var backoff <-chan time.Time
			if !idle {
				backoff = time.After(idleBackoff)
			}
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-backoff:
				idle = true
				continue
			case <-s.wake:
				idle = false
				continue
			}
		}
		idle = false

		s.mx.IncDequeueSuccess()
		w.Run()
		s.recordOutcome(w, wlog)
	}
}

func (s *Scheduler) recordOutcome(w *workload.Workload, wlog *log.Logger) {
	outcome, detail := workload.ClassifyWorkload(w)
	switch outcome {
	case workload.OutcomeCompleted:
		s.mx.IncWorkloadCompleted()
	case workload.OutcomeFaulted:
		s.mx.IncWorkloadFaulted()
		wlog.Warn("workload faulted", map[string]any{"workload_id": w.ID, "detail": detail})
	case workload.OutcomeCanceled:
		s.mx.IncWorkloadCanceled()
	}
}
