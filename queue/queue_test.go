package queue_test

import (
	"sync"
	"testing"
	"time"

	"github.com/batchresize/engine/queue"
)

func TestPushPop_FIFOOrder(t *testing.T) {
	q := queue.New(8)
	for i := 0; i < 5; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		if !ok || v.(int) != i {
			t.Fatalf("Pop() = (%v, %v), want (%d, true)", v, ok, i)
		}
	}
}

func TestPush_BlocksWhenFull(t *testing.T) {
	q := queue.New(1)
	if err := q.Push("a"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	pushed := make(chan struct{})
	go func() {
		q.Push("b")
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("Push should have blocked on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Pop()
	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("Push did not unblock after a Pop freed capacity")
	}
}

func TestPop_BlocksWhenEmpty(t *testing.T) {
	q := queue.New(4)
	popped := make(chan interface{})
	go func() {
		v, _ := q.Pop()
		popped <- v
	}()

	select {
	case <-popped:
		t.Fatal("Pop should have blocked on an empty queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Push(42)
	select {
	case v := <-popped:
		if v.(int) != 42 {
			t.Fatalf("got %v, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after a Push")
	}
}

func TestSetDone_DrainsThenFails(t *testing.T) {
	q := queue.New(8)
	q.Push(1)
	q.Push(2)
	q.SetDone()

	for _, want := range []int{1, 2} {
		v, ok := q.Pop()
		if !ok || v.(int) != want {
			t.Fatalf("Pop() = (%v, %v), want (%d, true)", v, ok, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop on a drained, done queue should return ok=false")
	}
}

func TestSetDone_RejectsFurtherPush(t *testing.T) {
	q := queue.New(8)
	q.SetDone()
	if err := q.Push(1); err == nil {
		t.Fatal("Push after SetDone should fail")
	}
}

func TestSetDone_UnblocksWaitingPop(t *testing.T) {
	q := queue.New(4)
	popped := make(chan bool)
	go func() {
		_, ok := q.Pop()
		popped <- ok
	}()

	select {
	case <-popped:
		t.Fatal("Pop should still be blocked")
	case <-time.After(50 * time.Millisecond):
	}

	q.SetDone()
	select {
	case ok := <-popped:
		if ok {
			t.Fatal("Pop on an empty, newly-done queue should return ok=false")
		}
	case <-time.After(time.Second):
		t.Fatal("SetDone did not unblock the waiting Pop")
	}
}

func TestSizeAwareCapacity_ClampsToBounds(t *testing.T) {
	cases := []struct {
		budget, avg int64
		want        int
	}{
		{1000, 1000, 4},     // computed 1 -> clamp to min 4
		{0, 1000, 4},
		{1_000_000_000, 1, 256}, // huge ratio -> clamp to max 256
		{1000, 0, 32},           // avg <= 0 -> default
		{1000, -5, 32},
		{100, 10, 10},
	}
	for _, c := range cases {
		got := queue.SizeAwareCapacity(c.budget, c.avg)
		if got != c.want {
			t.Fatalf("SizeAwareCapacity(%d, %d) = %d, want %d", c.budget, c.avg, got, c.want)
		}
	}
}

func TestConcurrentProducersConsumers_NoLoss(t *testing.T) {
	q := queue.New(16)
	const n = 500
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Push(i)
		}
		q.SetDone()
	}()

	received := 0
	for {
		_, ok := q.Pop()
		if !ok {
			break
		}
		received++
	}
	wg.Wait()
	if received != n {
		t.Fatalf("received %d items, want %d", received, n)
	}
}
