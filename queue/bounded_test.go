package queue

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/flowkit/errors"
)

func appCode(t *testing.T, err error) errors.ErrorCode {
	t.Helper()
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestNewBounded_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := NewBounded[int]("bad", capacity)
		if err == nil {
			t.Fatalf("expected error for capacity %d", capacity)
		}
		if code := appCode(t, err); code != errors.ErrCodeInvalidConfig {
			t.Errorf("expected INVALID_CONFIG, got %s", code)
		}
	}
}

func TestNewBounded_InvalidConsumers(t *testing.T) {
	_, err := NewBounded[int]("bad", 1, WithConsumers(0))
	if err == nil {
		t.Fatal("expected error for zero consumers")
	}
}

func TestBounded_FIFO(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("fifo", 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{1, 2, 3} {
		if err := q.Put(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range []int{1, 2, 3} {
		got, ok, err := q.Get(ctx)
		if err != nil || !ok {
			t.Fatalf("Get() = (%v, %v, %v)", got, ok, err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
		q.TaskDone()
	}
}

func TestBounded_PutBlocksWhenFull(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("full", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Put(ctx, 1); err != nil {
		t.Fatal(err)
	}

	unblocked := make(chan error, 1)
	go func() {
		unblocked <- q.Put(ctx, 2)
	}()

	select {
	case err := <-unblocked:
		t.Fatalf("second put should have blocked, returned %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if _, _, err := q.Get(ctx); err != nil {
		t.Fatal(err)
	}
	q.TaskDone()

	select {
	case err := <-unblocked:
		if err != nil {
			t.Fatalf("put failed after space freed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("put never unblocked after space freed")
	}
}

func TestBounded_BackpressureBound(t *testing.T) {
	ctx := context.Background()
	const capacity = 2
	q, err := NewBounded[int]("bound", capacity)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			if err := q.Put(ctx, i); err != nil {
				t.Errorf("put %d: %v", i, err)
				return
			}
		}
	}()

	for i := 0; i < 10; i++ {
		if depth := q.Len(); depth > capacity {
			t.Fatalf("buffer depth %d exceeds capacity %d", depth, capacity)
		}
		if _, _, err := q.Get(ctx); err != nil {
			t.Fatal(err)
		}
		q.TaskDone()
	}
	wg.Wait()
}

func TestBounded_GetBlocksUntilPut(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[string]("empty", 1)
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan string, 1)
	go func() {
		v, ok, err := q.Get(ctx)
		if err != nil || !ok {
			t.Errorf("Get() = (%v, %v, %v)", v, ok, err)
		}
		q.TaskDone()
		got <- v
	}()

	select {
	case v := <-got:
		t.Fatalf("get should have blocked on empty queue, returned %q", v)
	case <-time.After(50 * time.Millisecond):
	}

	if err := q.Put(ctx, "work"); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-got:
		if v != "work" {
			t.Errorf("expected %q, got %q", "work", v)
		}
	case <-time.After(time.Second):
		t.Fatal("get never observed the put")
	}
}

func TestBounded_PutAfterClose(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("closed", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Close(ctx); err != nil {
		t.Fatal(err)
	}
	err = q.Put(ctx, 1)
	if err == nil {
		t.Fatal("expected error for put after close")
	}
	if code := appCode(t, err); code != errors.ErrCodeQueueClosed {
		t.Errorf("expected QUEUE_CLOSED, got %s", code)
	}
}

func TestBounded_DoubleClose(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("dup", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Close(ctx); err != nil {
		t.Fatal(err)
	}
	err = q.Close(ctx)
	if err == nil {
		t.Fatal("expected error for second close")
	}
	if code := appCode(t, err); code != errors.ErrCodeQueueDoubleClose {
		t.Errorf("expected QUEUE_DOUBLE_CLOSE, got %s", code)
	}
	if q.Len() != 1 {
		t.Errorf("second close must not enqueue another marker, depth = %d", q.Len())
	}
}

func TestBounded_CloseDeliversEndOfStreamOnce(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("eos", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Put(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(ctx); err != nil {
		t.Fatal(err)
	}

	v, ok, err := q.Get(ctx)
	if err != nil || !ok || v != 7 {
		t.Fatalf("Get() = (%v, %v, %v), want (7, true, nil)", v, ok, err)
	}
	q.TaskDone()

	_, ok, err = q.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected end-of-stream after last item")
	}
	q.TaskDone()

	if q.Len() != 0 {
		t.Errorf("marker must not be re-enqueued, depth = %d", q.Len())
	}
}

func TestBounded_MultiConsumerClose(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("fanin", 4, WithConsumers(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 2 {
		t.Fatalf("expected one marker per consumer, depth = %d", q.Len())
	}
	for i := 0; i < 2; i++ {
		_, ok, err := q.Get(ctx)
		if err != nil || ok {
			t.Fatalf("consumer %d: expected end-of-stream, got (%v, %v)", i, ok, err)
		}
		q.TaskDone()
	}
}

func TestBounded_CloseResumesAfterCancel(t *testing.T) {
	// A Close cut short by its context must leave the queue closed to puts
	// but retryable, so the remaining markers can still be enqueued once
	// consumers free buffer space.
	ctx := context.Background()
	q, err := NewBounded[int]("partial", 2, WithConsumers(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Put(ctx, 1); err != nil {
		t.Fatal(err)
	}

	expired, cancel := context.WithCancel(ctx)
	cancel()
	// One marker fits, the second finds the queue full and hits the context.
	if err := q.Close(expired); !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if q.Len() != 2 {
		t.Fatalf("expected item plus first marker buffered, depth = %d", q.Len())
	}

	if err := q.Put(ctx, 2); err == nil {
		t.Fatal("queue must stay closed to puts after a cancelled close")
	}

	v, ok, err := q.Get(ctx)
	if err != nil || !ok || v != 1 {
		t.Fatalf("Get() = (%v, %v, %v), want (1, true, nil)", v, ok, err)
	}
	q.TaskDone()

	// Retry finishes the protocol; only then is another close a misuse.
	if err := q.Close(ctx); err != nil {
		t.Fatalf("retried close failed: %v", err)
	}
	if q.Len() != 2 {
		t.Fatalf("expected one marker per consumer, depth = %d", q.Len())
	}
	err = q.Close(ctx)
	if code := appCode(t, err); code != errors.ErrCodeQueueDoubleClose {
		t.Errorf("expected QUEUE_DOUBLE_CLOSE, got %s", code)
	}

	for i := 0; i < 2; i++ {
		_, ok, err := q.Get(ctx)
		if err != nil || ok {
			t.Fatalf("consumer %d: expected end-of-stream, got (%v, %v)", i, ok, err)
		}
		q.TaskDone()
	}
	if err := q.Join(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestBounded_JoinWaitsForTaskDone(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("join", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Put(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, _, err := q.Get(ctx); err != nil {
		t.Fatal(err)
	}

	joined := make(chan error, 1)
	go func() {
		joined <- q.Join(ctx)
	}()

	// Item is dequeued but not acknowledged: join must still wait.
	select {
	case err := <-joined:
		t.Fatalf("join returned before TaskDone: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	q.TaskDone()
	select {
	case err := <-joined:
		if err != nil {
			t.Fatalf("join failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("join never returned after TaskDone")
	}
}

func TestBounded_JoinTimeout(t *testing.T) {
	q, err := NewBounded[int]("stuck", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Put(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = q.Join(ctx)
	if err == nil {
		t.Fatal("expected join timeout")
	}
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeJoinTimeout {
		t.Errorf("expected JOIN_TIMEOUT, got %s", appErr.Code)
	}
	if !appErr.Retryable {
		t.Error("join timeout should be retryable")
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Error("expected context.DeadlineExceeded as cause")
	}
}

func TestBounded_PutCancelledWhileBlocked(t *testing.T) {
	q, err := NewBounded[int]("cancel", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Put(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	unblocked := make(chan error, 1)
	go func() {
		unblocked <- q.Put(ctx, 2)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-unblocked:
		if !stderrors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked put never observed cancellation")
	}
}

func TestBounded_GetCancelledWhileBlocked(t *testing.T) {
	q, err := NewBounded[int]("cancel-get", 1)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	unblocked := make(chan error, 1)
	go func() {
		_, _, err := q.Get(ctx)
		unblocked <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-unblocked:
		if !stderrors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked get never observed cancellation")
	}
}

func TestBounded_TaskDoneUnderflowPanics(t *testing.T) {
	q, err := NewBounded[int]("panic", 1)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic on TaskDone underflow")
		}
	}()
	q.TaskDone()
}

func TestBounded_Each(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("each", 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{1, 2, 3} {
		if err := q.Put(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.Close(ctx); err != nil {
		t.Fatal(err)
	}

	var got []int
	if err := q.Each(ctx, func(n int) error {
		got = append(got, n)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 items, got %v", got)
	}
	if q.Unfinished() != 0 {
		t.Errorf("expected all work acknowledged, unfinished = %d", q.Unfinished())
	}
	if err := q.Join(ctx); err != nil {
		t.Errorf("join after full drain: %v", err)
	}
}

func TestBounded_EachAcknowledgesOnError(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("each-err", 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Put(ctx, 1); err != nil {
		t.Fatal(err)
	}

	boom := stderrors.New("boom")
	err = q.Each(ctx, func(int) error { return boom })
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	// The failed item must still be acknowledged so Join reflects reality.
	if q.Unfinished() != 0 {
		t.Errorf("expected failed item acknowledged, unfinished = %d", q.Unfinished())
	}
}

func TestUnbounded_PutNeverBlocks(t *testing.T) {
	ctx := context.Background()
	q, err := NewUnbounded[int]("tail")
	if err != nil {
		t.Fatal(err)
	}
	if q.Cap() != 0 {
		t.Fatalf("expected capacity 0, got %d", q.Cap())
	}
	for i := 0; i < 5000; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	if q.Len() != 5000 {
		t.Errorf("expected 5000 buffered, got %d", q.Len())
	}
	if err := q.Close(ctx); err != nil {
		t.Fatal(err)
	}

	var got int
	if err := q.Each(ctx, func(int) error { got++; return nil }); err != nil {
		t.Fatal(err)
	}
	if got != 5000 {
		t.Errorf("expected 5000 items drained, got %d", got)
	}
	if err := q.Join(ctx); err != nil {
		t.Errorf("join after drain: %v", err)
	}
}

func TestUnbounded_CloseNeverBlocks(t *testing.T) {
	q, err := NewUnbounded[int]("tail")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		done <- q.Close(context.Background())
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("close blocked on an unbounded queue")
	}
}

func TestBounded_StateTransitions(t *testing.T) {
	ctx := context.Background()
	q, err := NewBounded[int]("state", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := q.State(); got != StateOpen {
		t.Errorf("expected open, got %s", got)
	}

	if err := q.Put(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if got := q.State(); got != StateClosing {
		t.Errorf("expected closing, got %s", got)
	}

	if _, _, err := q.Get(ctx); err != nil {
		t.Fatal(err)
	}
	q.TaskDone()
	if _, ok, _ := q.Get(ctx); ok {
		t.Fatal("expected end-of-stream")
	}
	q.TaskDone()
	if got := q.State(); got != StateDrained {
		t.Errorf("expected drained, got %s", got)
	}
}
