package workload

import "testing"

func TestContinuationListRunsOnceInOrder(t *testing.T) {
	var list continuationList
	var order []int

	list.add(Continuation{Action: func() { order = append(order, 1) }})
	list.add(Continuation{Action: func() { order = append(order, 2) }})
	list.complete()
	list.complete() // second completion must not re-run anything

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected [1 2], got %v", order)
	}
}

func TestContinuationScheduleBeforeOrdering(t *testing.T) {
	var list continuationList
	var order []string

	list.add(Continuation{Action: func() { order = append(order, "normal") }})
	list.add(Continuation{Action: func() { order = append(order, "priority") }, ScheduleBefore: true})
	list.complete()

	if len(order) != 2 || order[0] != "priority" || order[1] != "normal" {
		t.Fatalf("expected [priority normal], got %v", order)
	}
}

func TestContinuationAddedAfterCompletionRunsInline(t *testing.T) {
	var list continuationList
	list.complete()

	ran := false
	inline := list.add(Continuation{Action: func() { ran = true }})
	if !inline {
		t.Fatal("expected add after completion to report inline execution")
	}
	if !ran {
		t.Fatal("expected continuation added after completion to run immediately")
	}
}

func TestContinuationRemoveToken(t *testing.T) {
	var list continuationList
	tok := new(int)
	ran := false
	list.add(Continuation{Action: func() { ran = true }, token: tok})
	list.removeToken(tok)
	list.complete()

	if ran {
		t.Fatal("expected removed continuation not to run")
	}
}
