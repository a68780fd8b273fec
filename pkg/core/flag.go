package core

import (
	"go.uber.org/atomic"
)

const (
	flagFree int32 = 0
	flagHeld int32 = 1
)

// AtomicFlag is a single memory-backed boolean mutated only through atomic
// read-modify-write operations. The zero value is free.
type AtomicFlag struct {
	state atomic.Int32
}

// TestAndSet stores set (true for held) and returns whether the flag was held
// before the store. The read and the store are one indivisible operation.
func (f *AtomicFlag) TestAndSet(set bool) bool {
	next := flagFree
	if set {
		next = flagHeld
	}
	return f.state.Swap(next) == flagHeld
}

// CompareAndSet moves the flag from old to next if it currently equals old
func (f *AtomicFlag) CompareAndSet(old, next bool) bool {
	return f.state.CompareAndSwap(toState(old), toState(next))
}

// Clear marks the flag free
func (f *AtomicFlag) Clear() {
	f.state.Store(flagFree)
}

// IsSet reports whether the flag is currently held. The answer can be stale
// as soon as it is returned.
func (f *AtomicFlag) IsSet() bool {
	return f.state.Load() == flagHeld
}

func toState(held bool) int32 {
	if held {
		return flagHeld
	}
	return flagFree
}
