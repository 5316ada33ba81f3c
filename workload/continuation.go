package workload

import "sync"

// Continuation is one action registered against a workload's completion.
//
//   - Dispatch == nil: the action runs inline, synchronously, on the thread
//     that completes the workload (or, if added after completion, on the
//     adding thread).
//   - Dispatch != nil: the action is posted through Dispatch instead of run
//     directly — the Go stand-in for the reference design's "dispatch to
//     thread pool" / "dispatch to captured synchronization context"
//     wrappers, both of which reduce to "post this closure somewhere else."
//   - ScheduleBefore requests front-of-list placement, mirroring the
//     reference design's Wait-style continuations that want to run before
//     ordinary continuations added earlier.
type Continuation struct {
	Action         func()
	Dispatch       func(func())
	ScheduleBefore bool

	// token identifies a continuation for later removal (e.g. Wait's
	// one-shot signal). Func values are not comparable in Go, so remove()
	// matches on this instead of on Action itself.
	token any
}

func (c Continuation) run() {
	if c.Dispatch != nil {
		c.Dispatch(c.Action)
		return
	}
	c.Action()
}

// contState is the continuation list's state tag. The reference design
// describes a single atomic word moving null -> action -> list -> sentinel;
// this implementation keeps the same one-shot state machine under a mutex
// (an explicitly sanctioned alternative per the design notes) rather than a
// lock-free tagged union, trading a short critical section for much simpler
// Add/Complete code.
type contState uint8

const (
	contEmpty contState = iota
	contPending
	contDone
)

// continuationList is the per-workload continuation sink. Zero value is
// ready to use.
type continuationList struct {
	mu    sync.Mutex
	state contState
	items []Continuation
}

// add registers a continuation. If the list has already reached contDone
// (the workload is terminal), the continuation runs immediately on the
// calling goroutine and add reports ranInline == true.
func (c *continuationList) add(cont Continuation) (ranInline bool) {
	c.mu.Lock()
	if c.state == contDone {
		c.mu.Unlock()
		cont.run()
		return true
	}
	if cont.ScheduleBefore {
		c.items = append([]Continuation{cont}, c.items...)
	} else {
		c.items = append(c.items, cont)
	}
	c.state = contPending
	c.mu.Unlock()
	return false
}

// removeToken drops the first continuation whose token equals tok, if the
// list has not already completed. Used by Wait to clean up its one-shot
// signal continuation when a timeout or cancellation fires first.
func (c *continuationList) removeToken(tok any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == contDone {
		return
	}
	for i, it := range c.items {
		if it.token == tok {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// complete transitions the list to contDone exactly once and runs every
// stored continuation, in insertion order, exactly once. Safe to call
// concurrently; only the first caller's transition takes effect.
func (c *continuationList) complete() {
	c.mu.Lock()
	if c.state == contDone {
		c.mu.Unlock()
		return
	}
	c.state = contDone
	items := c.items
	c.items = nil
	c.mu.Unlock()

	for _, it := range items {
		it.run()
	}
}
