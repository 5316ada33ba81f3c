// Package workload implements the awaitable unit of deferred computation
// scheduled by a qdisc tree: its state machine, cancellation protocol, and
// continuation list.
package workload

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is a workload's position in its lifecycle. All transitions are CAS
// on a single status word; status is the sole source of truth.
type State int32

const (
	Created State = iota
	Scheduled
	CancellationRequested
	Running
	RanToCompletion
	Faulted
	Canceled
)

// Terminal reports whether s is one of the three terminal states.
func (s State) Terminal() bool {
	return s == RanToCompletion || s == Faulted || s == Canceled
}

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Scheduled:
		return "scheduled"
	case CancellationRequested:
		return "cancellation_requested"
	case Running:
		return "running"
	case RanToCompletion:
		return "ran_to_completion"
	case Faulted:
		return "faulted"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Binding is the capability a bound qdisc leaf exposes back to a workload so
// that Cancel can attempt a best-effort removal before the workload starts
// running. It is the only back-reference a workload keeps toward its
// current qdisc: one direction of a cyclic parent/child relationship,
// exercised only for this one notification.
type Binding interface {
	// TryRemove attempts to remove w from the leaf it was enqueued into.
	// Best-effort: returns false if the leaf does not support removal or the
	// workload has already been dequeued.
	TryRemove(w *Workload) bool
}

// Config bundles the per-workload ambient-capture choices from §3.3: whether
// continuations capture and resume on an ambient context, and whether to
// flow it at all. Both flags are recorded on the workload at construction;
// ContinueWith, Run, and Wait do not read them, so neither flag changes
// which context a continuation observes or which goroutine runs it.
type Config struct {
	CaptureContext      bool
	FlowExecutionContext bool
}

// Func is a workload body. It receives a context that is canceled once
// cooperative cancellation has been requested (the workload has moved to
// CancellationRequested); honoring it by returning ErrCanceled (or a wrapped
// form) drives the workload to Canceled instead of Faulted.
type Func func(ctx context.Context) (result any, err error)

// Workload is a deferred unit of computation with a state machine, an
// optional result/exception slot, an optional external cancellation signal,
// a continuation slot, and a current-qdisc back-reference.
type Workload struct {
	ID string

	state  atomic.Int32
	bound  atomic.Bool
	binding atomic.Pointer[Binding]

	run Func
	cfg Config

	ctx    context.Context
	cancel context.CancelCauseFunc

	resultMu sync.Mutex
	result   any
	err      error

	cont continuationList
}

// New creates a workload wrapping fn. The returned workload starts in
// Created; it has no qdisc binding and no result until it is bound,
// scheduled, and run.
func New(fn Func, opts ...Option) *Workload {
	cfg := Config{CaptureContext: true, FlowExecutionContext: true}
	for _, o := range opts {
		o(&cfg)
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	w := &Workload{
		ID:     uuid.NewString(),
		run:    fn,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	w.state.Store(int32(Created))
	return w
}

// Option configures a Workload at construction.
type Option func(*Config)

// WithCaptureContext sets Config.CaptureContext (see Config). Default true.
func WithCaptureContext(capture bool) Option {
	return func(c *Config) { c.CaptureContext = capture }
}

// WithFlowExecutionContext sets Config.FlowExecutionContext (see Config).
// Default true.
func WithFlowExecutionContext(flow bool) Option {
	return func(c *Config) { c.FlowExecutionContext = flow }
}

// State returns the current state.
func (w *Workload) State() State { return State(w.state.Load()) }

// cas attempts a single CAS from `from` to `to`.
func (w *Workload) cas(from, to State) bool {
	return w.state.CompareAndSwap(int32(from), int32(to))
}

// Bind transitions Created -> Scheduled on successful bind to a qdisc leaf,
// recording b so Cancel can later ask it to remove the workload. Returns
// false if the workload was not in Created (already bound, or canceled
// before it could be).
func (w *Workload) Bind(b Binding) bool {
	if !w.cas(Created, Scheduled) {
		return false
	}
	w.binding.Store(&b)
	w.bound.Store(true)
	return true
}

// Rebind swaps the qdisc back-reference without touching state. Used when a
// classful node moves a residual workload into a different leaf (e.g.
// draining a child being removed into the node's own local queue); the
// workload is already Scheduled and Bind would reject it.
func (w *Workload) Rebind(b Binding) {
	w.binding.Store(&b)
}

// Unbind clears the qdisc back-reference. Once unbound (because the
// workload started running, or was removed), rebinding is never attempted;
// this is a one-way latch, not a toggle.
func (w *Workload) Unbind() {
	w.binding.Store(nil)
}

// StartRunning transitions Scheduled -> Running on dequeue-and-execute.
// Returns false if the workload is not in Scheduled (e.g. it was already
// canceled), which the scheduler treats as a scheduling inconsistency.
func (w *Workload) StartRunning() bool {
	if !w.cas(Scheduled, Running) {
		return false
	}
	w.Unbind()
	return true
}

// FailScheduling transitions Scheduled -> Faulted when the scheduler
// observes an impossible state during dispatch (§7 "state error" kind). It
// never applies to body errors.
func (w *Workload) FailScheduling(cause error) bool {
	if !w.cas(Scheduled, Faulted) {
		return false
	}
	w.setResult(nil, NewSchedulingError("invalid state observed during dispatch", cause))
	w.cont.complete()
	return true
}

// RequestCancel is the external cancellation callback. Before Running it is
// precise and race-free: Scheduled -> Canceled, with a best-effort removal
// from the bound qdisc leaf. After execution has started it only requests
// cooperative cancellation (Running -> CancellationRequested); the body is
// responsible for honoring it via ctx.Done()/the Func's ctx argument.
// Cancellation never unwinds a running body forcibly.
func (w *Workload) RequestCancel() {
	for {
		cur := w.State()
		switch cur {
		case Created, Scheduled:
			if !w.cas(cur, Canceled) {
				continue
			}
			if bp := w.binding.Load(); bp != nil {
				(*bp).TryRemove(w)
			}
			w.Unbind()
			w.setResult(nil, ErrCanceled)
			w.cancel(ErrCanceled)
			w.cont.complete()
			return
		case Running:
			if !w.cas(cur, CancellationRequested) {
				continue
			}
			w.cancel(ErrCanceled)
			return
		default:
			// Already CancellationRequested or terminal: nothing to do.
			return
		}
	}
}

// Cancel is an alias for RequestCancel matching the §6 external interface
// name.
func (w *Workload) Cancel() { w.RequestCancel() }

// CancellationRequestedSignal returns the context passed to the workload
// body, canceled once RequestCancel has fired.
func (w *Workload) CancellationRequestedSignal() context.Context { return w.ctx }

// Run executes the body synchronously on the calling goroutine (the
// scheduler's worker), transitioning Running -> a terminal state. The
// caller must have already moved the workload into Running via
// StartRunning. Any panic from the body is recovered and captured as a
// FaultError rather than propagating to the worker.
func (w *Workload) Run() {
	result, err := w.invoke()
	switch {
	case err != nil && isCooperativeCancel(err):
		w.state.Store(int32(Canceled))
		w.setResult(nil, ErrCanceled)
	case err != nil:
		w.state.Store(int32(Faulted))
		if fe, ok := err.(*FaultError); ok && fe.Recovered {
			w.setResult(nil, fe)
		} else {
			w.setResult(nil, NewFaultError(err, false))
		}
	default:
		w.state.Store(int32(RanToCompletion))
		w.setResult(result, nil)
	}
	w.cont.complete()
}

func isCooperativeCancel(err error) bool {
	return err == ErrCanceled || (func() bool {
		for u := err; u != nil; {
			if u == ErrCanceled {
				return true
			}
			unwrapper, ok := u.(interface{ Unwrap() error })
			if !ok {
				return false
			}
			u = unwrapper.Unwrap()
		}
		return false
	})()
}

func (w *Workload) invoke() (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = NewFaultError(rerr, true)
			} else {
				err = NewFaultError(nil, true)
			}
		}
	}()
	return w.run(w.ctx)
}

func (w *Workload) setResult(result any, err error) {
	w.resultMu.Lock()
	w.result = result
	w.err = err
	w.resultMu.Unlock()
}

// Result returns the stored result and error once the workload has reached
// a terminal state. Called before termination, both are nil.
func (w *Workload) Result() (any, error) {
	w.resultMu.Lock()
	defer w.resultMu.Unlock()
	return w.result, w.err
}

// ContinueWith registers a continuation that runs exactly once: inline on
// the completer's thread if dispatch is nil, or through dispatch otherwise.
// If the workload is already terminal, the continuation runs immediately,
// inline, on the calling goroutine.
func (w *Workload) ContinueWith(action func(), dispatch func(func())) {
	w.cont.add(Continuation{Action: action, Dispatch: dispatch})
}

// waitSpinIterations is the reference design's ~35-iteration spin budget
// before falling back to a blocking wait. A single-core host gets 1
// iteration in the reference design; runtime.NumCPU() stands in for that
// here.
const waitSpinIterations = 35

// Wait blocks until the workload reaches a terminal state, ctx is done, or
// timeout elapses (timeout <= 0 means no timeout). It returns true iff the
// workload terminated within the window. It first spins briefly (useful
// when completion is imminent), then registers a one-shot signal
// continuation and blocks on it.
func (w *Workload) Wait(ctx context.Context, timeout time.Duration) bool {
	if w.State().Terminal() {
		return true
	}
	spins := waitSpinIterations
	if runtime.NumCPU() == 1 {
		spins = 1
	}
	if spins > 1 {
		for i := 0; i < spins; i++ {
			if w.State().Terminal() {
				return true
			}
		}
	}
	if w.State().Terminal() {
		return true
	}

	done := make(chan struct{})
	var once sync.Once
	signal := func() { once.Do(func() { close(done) }) }
	tok := new(int)
	w.cont.add(Continuation{Action: signal, ScheduleBefore: true, token: tok})

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-done:
		return true
	case <-timeoutCh:
		w.cont.removeToken(tok)
		return w.State().Terminal()
	case <-ctx.Done():
		w.cont.removeToken(tok)
		return w.State().Terminal()
	}
}
