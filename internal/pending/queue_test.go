package pending

import "testing"

func TestPushDropsOldestOnOverflow(t *testing.T) {
	var evicted []int
	q := New[int](3, func(v int) { evicted = append(evicted, v) })

	q.Push(1)
	q.Push(2)
	q.Push(3)
	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}

	q.Push(4)
	if q.Len() != 3 {
		t.Fatalf("expected len to stay at capacity 3, got %d", q.Len())
	}
	if len(evicted) != 1 || evicted[0] != 1 {
		t.Fatalf("expected eviction of oldest item (1), got %v", evicted)
	}
}

func TestFlushWhileStopsOnSendFailure(t *testing.T) {
	q := New[int](5, nil)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	var sent []int
	predicate := func() bool { return true }
	send := func(v int) bool {
		if v == 2 {
			return false
		}
		sent = append(sent, v)
		return true
	}

	q.FlushWhile(predicate, send)

	if len(sent) != 1 || sent[0] != 1 {
		t.Fatalf("expected only item 1 to have sent, got %v", sent)
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 items remaining (failed item pushed back to front), got %d", q.Len())
	}
}

func TestFlushWhileRespectsPredicate(t *testing.T) {
	q := New[int](5, nil)
	q.Push(1)
	q.Push(2)

	called := false
	q.FlushWhile(func() bool { return false }, func(int) bool {
		called = true
		return true
	})

	if called {
		t.Fatal("send should never be called when predicate is false")
	}
	if q.Len() != 2 {
		t.Fatalf("expected queue untouched, got len %d", q.Len())
	}
}

func TestEmpty(t *testing.T) {
	q := New[int](2, nil)
	if !q.Empty() {
		t.Fatal("expected new queue to be empty")
	}
	q.Push(1)
	if q.Empty() {
		t.Fatal("expected non-empty queue after push")
	}
}
