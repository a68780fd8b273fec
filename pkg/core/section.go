package core

import "sync"

// AtomicSection makes a short sequence of lock-state writes appear
// indivisible to every other caller entering the same section. It stands in
// for masking local preemption around the writes. The zero value is ready to
// use.
//
//	defer section.Enter()()
type AtomicSection struct {
	mu sync.Mutex
}

// NewAtomicSection creates a new section
func NewAtomicSection() *AtomicSection {
	return &AtomicSection{}
}

// Enter begins the section and returns the function that ends it. The
// returned function must be called exactly once on every exit path.
func (s *AtomicSection) Enter() (exit func()) {
	s.mu.Lock()
	return s.mu.Unlock
}

// Do runs fn inside the section
func (s *AtomicSection) Do(fn func()) {
	defer s.Enter()()
	fn()
}
