package stoplight

import (
	"context"
	"fmt"
	"strings"

	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/utils"
)

// RetryFunc is told about every rolled back acquisition attempt
type RetryFunc func(conflict *ExclusiveLock, attempt int)

// LockSet acquires and releases an ordered list of locks as one unit.
//
// Every acquisition attempt runs inside the AtomicSection and walks the
// locks in order. When it meets a lock that is already held it releases the
// locks it took during that attempt before leaving the section, so no other
// caller of the section ever sees the set partially held. The attempt is
// then repeated from the first lock once the conflicting lock is released.
type LockSet struct {
	section *core.AtomicSection
	locks   []*ExclusiveLock
	onRetry RetryFunc
}

// NewLockSet creates a set over locks, acquired in the given order. It panics
// on a nil section, a nil lock, a repeated lock or an empty list, all of
// which are programming errors.
func NewLockSet(section *core.AtomicSection, locks ...*ExclusiveLock) *LockSet {
	if section == nil {
		panic("stoplight: LockSet needs an AtomicSection")
	}
	if len(locks) == 0 {
		panic("stoplight: LockSet needs at least one lock")
	}

	seen := make(map[*ExclusiveLock]bool, len(locks))
	for _, l := range locks {
		mustLock(l)
		if seen[l] {
			panic(fmt.Sprintf("stoplight: lock %s appears twice in LockSet", l.name))
		}
		seen[l] = true
	}

	return &LockSet{
		section: section,
		locks:   append([]*ExclusiveLock(nil), locks...),
	}
}

// OnRetry registers fn to be called after each rolled back attempt
func (s *LockSet) OnRetry(fn RetryFunc) *LockSet {
	s.onRetry = fn
	return s
}

// Locks returns the locks in acquisition order
func (s *LockSet) Locks() []*ExclusiveLock {
	return append([]*ExclusiveLock(nil), s.locks...)
}

// Len returns the number of locks in the set
func (s *LockSet) Len() int {
	return len(s.locks)
}

// TryAcquire makes one all-or-nothing attempt. On failure it returns the
// first lock found held and the signal its release will close.
func (s *LockSet) TryAcquire(task core.TaskID) (bool, *ExclusiveLock, error) {
	ok, conflict, _, err := s.attempt(task)
	return ok, conflict, err
}

func (s *LockSet) attempt(task core.TaskID) (bool, *ExclusiveLock, <-chan struct{}, error) {
	defer s.section.Enter()()

	for i, l := range s.locks {
		ok, signal, err := l.tryAcquire(task)
		if ok {
			continue
		}

		for _, taken := range s.locks[:i] {
			taken.release()
		}
		if err != nil {
			return false, nil, nil, err
		}
		return false, l, signal, nil
	}

	return true, nil, nil, nil
}

// Acquire blocks until task holds every lock of the set. While waiting the
// task holds none of them.
func (s *LockSet) Acquire(ctx context.Context, task core.TaskID) error {
	for attempt := 1; ; attempt++ {
		ok, conflict, signal, err := s.attempt(task)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if s.onRetry != nil {
			s.onRetry(conflict, attempt)
		}

		if err := conflict.wait(ctx, signal); err != nil {
			return err
		}
	}
}

// Release frees every lock of the set in one step. Nothing is released
// unless task holds all of them.
func (s *LockSet) Release(task core.TaskID) error {
	defer s.section.Enter()()

	var notHeld []string
	for _, l := range s.locks {
		if !l.IsHeldBy(task) {
			notHeld = append(notHeld, l.name)
		}
	}
	if len(notHeld) > 0 {
		return utils.NewLockError(utils.CodeNotOwner, "lock set is not fully held by the releasing task", strings.Join(notHeld, ",")).
			WithDetail("task", task.Short())
	}

	for _, l := range s.locks {
		l.release()
	}
	return nil
}

// HeldBy reports whether task holds every lock of the set
func (s *LockSet) HeldBy(task core.TaskID) bool {
	defer s.section.Enter()()

	for _, l := range s.locks {
		if !l.IsHeldBy(task) {
			return false
		}
	}
	return true
}

// String lists the lock names in order
func (s *LockSet) String() string {
	names := make([]string, len(s.locks))
	for i, l := range s.locks {
		names[i] = l.name
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// DoubleAcquire acquires a and b as one unit
func DoubleAcquire(ctx context.Context, section *core.AtomicSection, task core.TaskID, a, b *ExclusiveLock) error {
	return NewLockSet(section, a, b).Acquire(ctx, task)
}

// TripleAcquire acquires a, b and c as one unit
func TripleAcquire(ctx context.Context, section *core.AtomicSection, task core.TaskID, a, b, c *ExclusiveLock) error {
	return NewLockSet(section, a, b, c).Acquire(ctx, task)
}

// DoubleRelease releases a and b as one unit
func DoubleRelease(section *core.AtomicSection, task core.TaskID, a, b *ExclusiveLock) error {
	return NewLockSet(section, a, b).Release(task)
}

// TripleRelease releases a, b and c as one unit
func TripleRelease(section *core.AtomicSection, task core.TaskID, a, b, c *ExclusiveLock) error {
	return NewLockSet(section, a, b, c).Release(task)
}
