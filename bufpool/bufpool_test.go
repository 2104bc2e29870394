package bufpool_test

import (
	"testing"

	"github.com/batchresize/engine/bufpool"
)

func TestAcquireRelease_Reuse(t *testing.T) {
	p := bufpool.New(4)
	buf := p.Acquire(1024)
	if len(buf) != 1024 {
		t.Fatalf("len = %d, want 1024", len(buf))
	}
	p.Release(buf)
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}

	reused := p.Acquire(512)
	if len(reused) != 512 {
		t.Fatalf("len = %d, want 512", len(reused))
	}
	if p.Len() != 0 {
		t.Fatalf("Len() = %d after reuse, want 0", p.Len())
	}
}

func TestAcquire_LargerThanAnyPooledAllocatesFresh(t *testing.T) {
	p := bufpool.New(4)
	p.Release(make([]byte, 16))
	buf := p.Acquire(1024)
	if len(buf) != 1024 || cap(buf) < 1024 {
		t.Fatalf("got len=%d cap=%d, want a fresh 1024-byte buffer", len(buf), cap(buf))
	}
	// the too-small buffer should still be in the pool, untouched
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (small buffer left behind)", p.Len())
	}
}

func TestRelease_BoundedAtCapacity(t *testing.T) {
	p := bufpool.New(2)
	p.Release(make([]byte, 8))
	p.Release(make([]byte, 8))
	p.Release(make([]byte, 8)) // dropped, pool already at capacity
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (bounded)", p.Len())
	}
}

func TestRelease_NilIsNoop(t *testing.T) {
	p := bufpool.New(4)
	p.Release(nil)
	if p.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", p.Len())
	}
}

func TestNew_NonPositiveFallsBackToDefault(t *testing.T) {
	p := bufpool.New(0)
	for i := 0; i < 40; i++ {
		p.Release(make([]byte, 8))
	}
	if p.Len() != 32 {
		t.Fatalf("Len() = %d, want 32 (default bound)", p.Len())
	}
}

func TestAcquireRelease_SeparatePoolsDontShareState(t *testing.T) {
	a := bufpool.New(4)
	b := bufpool.New(4)
	a.Release(make([]byte, 64))
	if b.Len() != 0 {
		t.Fatalf("pool b.Len() = %d, want 0 (pools must not share state)", b.Len())
	}
}
