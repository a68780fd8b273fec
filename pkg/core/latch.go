package core

import (
	"context"

	"go.uber.org/atomic"
)

// Latch is a countdown synchronization object: it is created with a count,
// each finished participant counts it down once, and waiters are released
// when the count reaches zero.
type Latch struct {
	remaining atomic.Int64
	done      chan struct{}
}

// NewLatch creates a latch waiting for count completions. A latch created
// with a count of zero or less is already open.
func NewLatch(count int) *Latch {
	l := &Latch{done: make(chan struct{})}
	l.remaining.Store(int64(count))
	if count <= 0 {
		close(l.done)
	}
	return l
}

// CountDown records one completion. Counting down past zero panics, since it
// means some participant reported twice.
func (l *Latch) CountDown() {
	switch n := l.remaining.Dec(); {
	case n == 0:
		close(l.done)
	case n < 0:
		panic("core: Latch counted down past zero")
	}
}

// Remaining returns the number of completions still outstanding
func (l *Latch) Remaining() int {
	n := l.remaining.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Done returns a channel closed once the count reaches zero
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the count reaches zero or ctx ends
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
