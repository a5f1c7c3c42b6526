package supervisor

import "sync/atomic"

// Barrier is a single-use start barrier of fixed arity: every caller of
// Wait blocks until the last one arrives, then all are released together.
// Unlike sync.WaitGroup (where Done doesn't block the caller), Barrier's
// Wait both signals arrival and blocks on release — giving every worker and
// the sampler a common clock zero (spec.md §4.3, §5).
type Barrier struct {
	arity   int32
	arrived int32
	release chan struct{}
}

// NewBarrier returns a Barrier that releases once n goroutines have called
// Wait.
func NewBarrier(n int) *Barrier {
	return &Barrier{arity: int32(n), release: make(chan struct{})}
}

// Wait blocks the calling goroutine until arity goroutines have called
// Wait, then returns for all of them at once. Calling Wait more than arity
// times is a programming error (the barrier is single-use).
func (b *Barrier) Wait() {
	if atomic.AddInt32(&b.arrived, 1) == b.arity {
		close(b.release)
		return
	}
	<-b.release
}
