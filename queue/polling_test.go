package queue

import (
	"testing"
	"time"
)

func TestPolling_TryGetEmpty(t *testing.T) {
	q := NewPolling[int]("idle")
	v, ok := q.TryGet()
	if ok {
		t.Fatalf("expected no item, got %v", v)
	}
}

func TestPolling_FIFO(t *testing.T) {
	q := NewPolling[int]("fifo")
	for _, n := range []int{1, 2, 3} {
		q.Put(n)
	}
	if q.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", q.Len())
	}
	for _, want := range []int{1, 2, 3} {
		got, ok := q.TryGet()
		if !ok {
			t.Fatal("expected item")
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
	if _, ok := q.TryGet(); ok {
		t.Error("expected empty queue after draining")
	}
}

func TestPolling_PutNeverBlocks(t *testing.T) {
	q := NewPolling[int]("unbounded")
	for i := 0; i < 10_000; i++ {
		q.Put(i)
	}
	if q.Len() != 10_000 {
		t.Errorf("expected 10000 items, got %d", q.Len())
	}
}

func TestPolling_ConcurrentPutObserved(t *testing.T) {
	q := NewPolling[string]("concurrent")

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Put("late")
	}()

	polls := 0
	deadline := time.After(time.Second)
	for {
		if v, ok := q.TryGet(); ok {
			if v != "late" {
				t.Fatalf("expected %q, got %q", "late", v)
			}
			break
		}
		polls++
		select {
		case <-deadline:
			t.Fatal("never observed the concurrent put")
		case <-time.After(time.Millisecond):
		}
	}
	if polls == 0 {
		t.Error("expected at least one empty poll before the item arrived")
	}
}
