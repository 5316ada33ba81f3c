package notify

import (
	"context"
	"sync"
	"time"

	"github.com/justapithecus/qdisc/log"
)

// dispatchTimeout bounds a single background Notify call so a stalled
// downstream endpoint cannot pile up goroutines indefinitely.
const dispatchTimeout = 15 * time.Second

// Dispatcher queues notify events on a buffered channel and delivers them to
// a Notifier from a single background goroutine, so a scheduler worker
// calling Dispatch never blocks on network I/O.
type Dispatcher struct {
	notifier Notifier
	log      *log.Logger

	queue chan *Event
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewDispatcher starts a Dispatcher with the given queue depth. A full queue
// causes Dispatch to drop the event rather than block the caller.
func NewDispatcher(notifier Notifier, queueDepth int, logger *log.Logger) *Dispatcher {
	if queueDepth <= 0 {
		queueDepth = 64
	}
	d := &Dispatcher{
		notifier: notifier,
		log:      logger,
		queue:    make(chan *Event, queueDepth),
		done:     make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case ev := <-d.queue:
			ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
			if err := d.notifier.Notify(ctx, ev); err != nil && d.log != nil {
				d.log.Warn("notify dispatch failed", map[string]any{
					"workload_id": ev.WorkloadID,
					"error":       err.Error(),
				})
			}
			cancel()
		case <-d.done:
			return
		}
	}
}

// Dispatch enqueues ev for background delivery. Non-blocking: if the queue
// is full the event is dropped, since notification is explicitly
// advisory-only and never feeds back into scheduling.
func (d *Dispatcher) Dispatch(ev *Event) {
	select {
	case d.queue <- ev:
	default:
		if d.log != nil {
			d.log.Warn("notify queue full, dropping event", map[string]any{"workload_id": ev.WorkloadID})
		}
	}
}

// Close stops the background goroutine, draining no further queued events,
// and closes the underlying notifier.
func (d *Dispatcher) Close() error {
	close(d.done)
	d.wg.Wait()
	return d.notifier.Close()
}
