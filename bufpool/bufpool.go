// Package bufpool implements the per-worker byte-buffer freelist used by the
// decode and encode pipeline stages (and by each single-image resize on the
// worker-pool path) to avoid re-allocating a buffer for every image. Each
// decode and encode worker owns exactly one Pool, so pools are not shared
// across goroutines there; Acquire/Release still take the Pool's mutex on
// every call, so a shared Pool is also safe.
package bufpool

import "sync"

// defaultCapacity is the maximum number of retained buffers per pool
// (spec.md §4.6).
const defaultCapacity = 32

// entry is one retained buffer, keyed by its allocated capacity rather than
// its last reported length.
type entry struct {
	buf []byte
}

// Pool is a bounded freelist of []byte buffers. The zero value is not
// usable; call New.
type Pool struct {
	mu         sync.Mutex
	entries    []entry
	maxEntries int
}

// New returns an empty Pool bounded at maxEntries retained buffers. A
// non-positive maxEntries falls back to the spec default of 32.
func New(maxEntries int) *Pool {
	if maxEntries <= 0 {
		maxEntries = defaultCapacity
	}
	return &Pool{maxEntries: maxEntries}
}

// Acquire returns a buffer with length size, reusing a pooled buffer whose
// capacity is >= size if one exists (first-fit over the retained entries),
// otherwise allocating a new one. The returned slice's contents are not
// zeroed; callers overwrite every byte they care about (decode/resize both
// do).
func (p *Pool) Acquire(size int) []byte {
	p.mu.Lock()
	for i, e := range p.entries {
		if cap(e.buf) >= size {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			p.mu.Unlock()
			return e.buf[:size]
		}
	}
	p.mu.Unlock()
	return make([]byte, size)
}

// Release returns buf to the pool for reuse. If the pool is already at
// capacity, buf is dropped (left for GC) rather than growing the pool
// unbounded.
func (p *Pool) Release(buf []byte) {
	if buf == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) >= p.maxEntries {
		return
	}
	p.entries = append(p.entries, entry{buf: buf})
}

// Len reports the number of buffers currently retained. Exposed for tests
// and metrics, not part of the hot path.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
