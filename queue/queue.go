// Package queue implements the bounded FIFO that sits between two
// pipeline stages. It is the source of the pipeline's end-to-end
// backpressure: Push blocks while the queue is full, Pop blocks while it
// is empty, and once the producer calls SetDone, draining proceeds until
// empty and then every further Pop fails instead of blocking forever.
package queue

import (
	"sync"

	apperrors "github.com/batchresize/engine/errors"
)

// Queue is a bounded, thread-safe FIFO of interface{} values. The zero
// value is not usable; use New.
type Queue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items    []interface{}
	capacity int
	done     bool
}

// New returns an empty Queue bounded at capacity items. A non-positive
// capacity falls back to the spec default of 32.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 32
	}
	q := &Queue{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push blocks until there is room, then enqueues v. Returns
// apperrors.ErrQueueDone without enqueuing if SetDone was already called —
// a producer must never push after declaring itself done.
func (q *Queue) Push(v interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity && !q.done {
		q.notFull.Wait()
	}
	if q.done {
		return apperrors.ErrQueueDone
	}
	q.items = append(q.items, v)
	q.notEmpty.Signal()
	return nil
}

// Pop blocks until an item is available or the queue is done and drained.
// ok is false only in the latter case — a fully-drained, done queue — at
// which point the consumer should stop pulling.
func (q *Queue) Pop() (v interface{}, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.done {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	v = q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return v, true
}

// SetDone marks the queue closed: pending items still drain via Pop, but
// no further Push succeeds and Pop on an empty, done queue returns
// (nil, false) instead of blocking. Idempotent.
func (q *Queue) SetDone() {
	q.mu.Lock()
	q.done = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Len reports the current number of queued items. For metrics/tests; not
// safe to use for flow-control decisions (TOCTOU against concurrent
// Push/Pop).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// SizeAwareCapacity computes a queue capacity from a per-item byte budget:
// clamp(budgetBytes / avgItemBytes, 4, 256). Nothing in the module calls
// it; a caller can use the result as config.Config.QueueCapacity.
// avgItemBytes <= 0 falls back to the 32-item default rather than dividing
// by zero.
func SizeAwareCapacity(budgetBytes int64, avgItemBytes int64) int {
	if avgItemBytes <= 0 {
		return 32
	}
	n := int(budgetBytes / avgItemBytes)
	if n < 4 {
		return 4
	}
	if n > 256 {
		return 256
	}
	return n
}
