package workload

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeBinding struct{ removed bool }

func (f *fakeBinding) TryRemove(w *Workload) bool {
	f.removed = true
	return true
}

func TestLifecycleCompletion(t *testing.T) {
	w := New(func(ctx context.Context) (any, error) {
		return 42, nil
	})
	if w.State() != Created {
		t.Fatalf("expected Created, got %s", w.State())
	}
	if !w.Bind(&fakeBinding{}) {
		t.Fatal("expected Bind to succeed from Created")
	}
	if w.State() != Scheduled {
		t.Fatalf("expected Scheduled, got %s", w.State())
	}
	if !w.StartRunning() {
		t.Fatal("expected StartRunning to succeed from Scheduled")
	}
	w.Run()
	if w.State() != RanToCompletion {
		t.Fatalf("expected RanToCompletion, got %s", w.State())
	}
	result, err := w.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Fatalf("expected 42, got %v", result)
	}
}

func TestCancelBeforeRunningYieldsCanceledNoExecution(t *testing.T) {
	ran := false
	w := New(func(ctx context.Context) (any, error) {
		ran = true
		return nil, nil
	})
	b := &fakeBinding{}
	w.Bind(b)
	w.Cancel()

	if w.State() != Canceled {
		t.Fatalf("expected Canceled, got %s", w.State())
	}
	if !b.removed {
		t.Fatal("expected best-effort removal from the bound qdisc")
	}
	if ran {
		t.Fatal("expected body not to execute after pre-run cancellation")
	}
	if ok := w.Wait(context.Background(), time.Second); !ok {
		t.Fatal("expected Wait to return true on an already-terminal workload")
	}

	fired := false
	w.ContinueWith(func() { fired = true }, nil)
	if !fired {
		t.Fatal("expected continuation to fire for an already-canceled workload")
	}
}

func TestCooperativeCancellationAfterStart(t *testing.T) {
	w := New(func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ErrCanceled
	})
	w.Bind(&fakeBinding{})
	w.StartRunning()

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	w.Cancel()
	<-done

	if w.State() != Canceled {
		t.Fatalf("expected Canceled after cooperative cancellation, got %s", w.State())
	}
	_, err := w.Result()
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestBodyErrorYieldsFaulted(t *testing.T) {
	sentinel := errors.New("boom")
	w := New(func(ctx context.Context) (any, error) {
		return nil, sentinel
	})
	w.Bind(&fakeBinding{})
	w.StartRunning()
	w.Run()

	if w.State() != Faulted {
		t.Fatalf("expected Faulted, got %s", w.State())
	}
	_, err := w.Result()
	if !IsFaultError(err) {
		t.Fatalf("expected FaultError, got %v", err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestBodyPanicYieldsFaulted(t *testing.T) {
	w := New(func(ctx context.Context) (any, error) {
		panic(errors.New("kaboom"))
	})
	w.Bind(&fakeBinding{})
	w.StartRunning()
	w.Run()

	if w.State() != Faulted {
		t.Fatalf("expected Faulted after panic, got %s", w.State())
	}
	_, err := w.Result()
	var fe *FaultError
	if !errors.As(err, &fe) || !fe.Recovered {
		t.Fatalf("expected a recovered FaultError, got %v", err)
	}
}

func TestContinuationRunsExactlyOnceForMultipleRegistrations(t *testing.T) {
	w := New(func(ctx context.Context) (any, error) { return nil, nil })
	w.Bind(&fakeBinding{})
	w.StartRunning()

	count := 0
	for i := 0; i < 3; i++ {
		w.ContinueWith(func() { count++ }, nil)
	}
	w.Run()

	if count != 3 {
		t.Fatalf("expected each of 3 continuations to run exactly once, got %d", count)
	}

	// A continuation added after completion runs inline immediately and
	// does not re-run any earlier continuation.
	w.ContinueWith(func() { count++ }, nil)
	if count != 4 {
		t.Fatalf("expected post-completion continuation to run inline, got count=%d", count)
	}
}

func TestWaitTimesOutOnPendingWorkload(t *testing.T) {
	release := make(chan struct{})
	w := New(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	w.Bind(&fakeBinding{})
	w.StartRunning()
	go w.Run()

	if ok := w.Wait(context.Background(), 10*time.Millisecond); ok {
		t.Fatal("expected Wait to time out on a pending workload")
	}
	close(release)
	if ok := w.Wait(context.Background(), time.Second); !ok {
		t.Fatal("expected Wait to succeed once the workload completes")
	}
}

func TestFailSchedulingTransitionsToFaulted(t *testing.T) {
	w := New(func(ctx context.Context) (any, error) { return nil, nil })
	w.Bind(&fakeBinding{})

	if !w.FailScheduling(errors.New("impossible dequeue state")) {
		t.Fatal("expected FailScheduling to succeed from Scheduled")
	}
	if w.State() != Faulted {
		t.Fatalf("expected Faulted, got %s", w.State())
	}
	_, err := w.Result()
	if !IsSchedulingError(err) {
		t.Fatalf("expected SchedulingError, got %v", err)
	}
}
