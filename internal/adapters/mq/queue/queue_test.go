package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type pending struct {
	Name string
	ID   int64
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue[pending](WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, pending{Name: "Alpha", ID: 1}) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	item := <-q.Dequeue(ctx)
	if item.Name != "Alpha" {
		t.Errorf("expected Alpha, got %v", item.Name)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue[pending](WithCapacity(5))
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		if !q.Enqueue(ctx, pending{ID: i}) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	for want := int64(1); want <= 5; want++ {
		got := <-q.Dequeue(ctx)
		if got.ID != want {
			t.Fatalf("expected id %d, got %d", want, got.ID)
		}
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue[pending](WithCapacity(2))
	ctx := context.Background()

	if q.Cap() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Cap())
	}
	if !q.Enqueue(ctx, pending{ID: 1}) || !q.Enqueue(ctx, pending{ID: 2}) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, pending{ID: 3}) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewInMemoryQueue[pending](WithCapacity(0), WithCapacity(-3))
	if q.Cap() != defaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultQueueCapacity, q.Cap())
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue[pending](WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if !q.Enqueue(context.Background(), pending{ID: 1}) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, pending{ID: 2}) {
		t.Error("expected enqueue to fail on a full queue with a cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue[pending](WithCapacity(100))
	ctx := context.Background()
	producers := 10
	perProducer := 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				item := pending{Name: fmt.Sprintf("pilot-%d-%d", id, j)}
				for !q.Enqueue(ctx, item) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	consumed := make(chan string, producers*perProducer)
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for item := range q.Dequeue(ctx) {
				consumed <- item.Name
			}
		}()
	}

	wg.Wait()
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	consumers.Wait()

	if got := len(consumed); got != producers*perProducer {
		t.Errorf("expected %d consumed items, got %d", producers*perProducer, got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_Drain(t *testing.T) {
	q := NewInMemoryQueue[pending](WithCapacity(4))
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		q.Enqueue(ctx, pending{ID: i})
	}
	if got := q.Drain(); len(got) != 3 || got[0].ID != 1 || got[2].ID != 3 {
		t.Fatalf("unexpected drain result %+v", got)
	}
	if got := q.Drain(); len(got) != 0 {
		t.Fatalf("expected empty drain, got %+v", got)
	}

	q.Enqueue(ctx, pending{ID: 9})
	_ = q.Close()
	if got := q.Drain(); len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("expected buffered item after close, got %+v", got)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue[pending](WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, pending{ID: 1}) || !q.Enqueue(ctx, pending{ID: 2}) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, pending{ID: 3}) {
		t.Error("expected enqueue to fail after closing")
	}

	// buffered items are still delivered before the channel closes
	var got []int64
	timeout := time.After(100 * time.Millisecond)
	items := q.Dequeue(ctx)
	for done := false; !done; {
		select {
		case item, ok := <-items:
			if !ok {
				done = true
				continue
			}
			got = append(got, item.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
	if len(got) != 2 {
		t.Errorf("expected 2 drained items, got %v", got)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
