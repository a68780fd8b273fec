package stoplight

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/utils"
)

// WaitStrategy decides how a task waits after finding a lock held
type WaitStrategy interface {
	// Wait returns when it is worth trying the lock again. released is closed
	// by the next release of the lock that was found held.
	Wait(ctx context.Context, released <-chan struct{}) error

	// Name identifies the strategy in configuration and reports
	Name() string
}

// BlockingWait parks the waiting task until the lock is released
type BlockingWait struct{}

// Wait blocks on the release signal
func (BlockingWait) Wait(ctx context.Context, released <-chan struct{}) error {
	select {
	case <-released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name implements WaitStrategy
func (BlockingWait) Name() string { return StrategyBlock }

// YieldWait retries after yielding the processor, without waiting for any
// notification. This is the spin and yield discipline.
type YieldWait struct {
	Scheduler core.Scheduler
}

// Wait yields once
func (w YieldWait) Wait(ctx context.Context, _ <-chan struct{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.Scheduler != nil {
		w.Scheduler.Yield()
	} else {
		runtime.Gosched()
	}
	return nil
}

// Name implements WaitStrategy
func (YieldWait) Name() string { return StrategyYield }

// Wait strategy names
const (
	StrategyBlock = "block"
	StrategyYield = "yield"
)

// NewWaitStrategy returns the strategy registered under name
func NewWaitStrategy(name string, scheduler core.Scheduler) (WaitStrategy, error) {
	switch name {
	case "", StrategyBlock:
		return BlockingWait{}, nil
	case StrategyYield:
		return YieldWait{Scheduler: scheduler}, nil
	default:
		return nil, utils.NewConfigurationError("unknown wait strategy").WithDetail("strategy", name)
	}
}

// LockOption configures an ExclusiveLock
type LockOption func(*ExclusiveLock)

// WithWaitStrategy sets how tasks wait for the lock
func WithWaitStrategy(strategy WaitStrategy) LockOption {
	return func(l *ExclusiveLock) {
		if strategy != nil {
			l.strategy = strategy
		}
	}
}

// ExclusiveLock is a mutual exclusion lock that remembers which task holds
// it. Only the holder may release it. Waiters are woken on every release.
type ExclusiveLock struct {
	name     string
	flag     core.AtomicFlag
	owner    atomic.Pointer[core.TaskID]
	strategy WaitStrategy

	waiters   atomic.Int32
	destroyed atomic.Bool

	// mu also orders Destroy against tryAcquire
	mu       sync.Mutex
	released chan struct{}
}

// NewExclusiveLock creates a free lock. The name is for diagnostics only.
func NewExclusiveLock(name string, opts ...LockOption) *ExclusiveLock {
	l := &ExclusiveLock{
		name:     name,
		strategy: BlockingWait{},
		released: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func mustLock(l *ExclusiveLock) {
	if l == nil {
		panic(utils.ErrNilLock)
	}
}

// Name returns the diagnostic name
func (l *ExclusiveLock) Name() string {
	mustLock(l)
	return l.name
}

// Strategy returns the lock's wait strategy
func (l *ExclusiveLock) Strategy() WaitStrategy {
	mustLock(l)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.strategy
}

// UseScheduler makes a yield strategy yield through scheduler. Other
// strategies are left alone. Call it before tasks start waiting on the lock.
func (l *ExclusiveLock) UseScheduler(scheduler core.Scheduler) {
	mustLock(l)
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.strategy.(YieldWait); ok {
		w.Scheduler = scheduler
		l.strategy = w
	}
}

func (l *ExclusiveLock) broadcastRelease() {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.released)
	l.released = make(chan struct{})
}

// tryAcquire makes one test-and-set attempt. On failure it also returns the
// signal that the current holder's release will close.
// Holding mu keeps Destroy out from between the destroyed check and the
// test-and-set.
func (l *ExclusiveLock) tryAcquire(task core.TaskID) (bool, <-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.destroyed.Load() {
		return false, nil, utils.NewLockError(utils.CodeLockDestroyed, "lock has been destroyed", l.name)
	}

	signal := l.released
	if l.flag.TestAndSet(true) {
		if owner := l.owner.Load(); owner != nil && *owner == task {
			return false, nil, utils.NewLockError(utils.CodeAlreadyOwned, "lock is already held by the acquiring task", l.name)
		}
		return false, signal, nil
	}

	l.owner.Store(&task)
	return true, nil, nil
}

// TryAcquire makes a single attempt and reports whether task now holds the lock
func (l *ExclusiveLock) TryAcquire(task core.TaskID) bool {
	mustLock(l)
	ok, _, _ := l.tryAcquire(task)
	return ok
}

// Acquire blocks until task holds the lock. It fails only when ctx ends,
// when the lock is destroyed, or when task already holds the lock.
func (l *ExclusiveLock) Acquire(ctx context.Context, task core.TaskID) error {
	mustLock(l)
	for {
		ok, signal, err := l.tryAcquire(task)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := l.wait(ctx, signal); err != nil {
			return err
		}
	}
}

// wait suspends the caller with the lock's strategy, counting it as a waiter
// for Destroy.
func (l *ExclusiveLock) wait(ctx context.Context, signal <-chan struct{}) error {
	l.waiters.Inc()
	defer l.waiters.Dec()

	if err := l.Strategy().Wait(ctx, signal); err != nil {
		return utils.NewCancelledError(l.name, err)
	}
	return nil
}

// Release frees the lock. Only the task that acquired it may release it.
func (l *ExclusiveLock) Release(task core.TaskID) error {
	mustLock(l)
	if !l.IsHeldBy(task) {
		return utils.NewLockError(utils.CodeNotOwner, "lock is not held by the releasing task", l.name).
			WithDetail("task", task.Short())
	}
	l.release()
	return nil
}

// release clears owner and flag, in that order, then wakes waiters. The
// caller has already checked ownership.
func (l *ExclusiveLock) release() {
	l.owner.Store(nil)
	l.flag.Clear()
	l.broadcastRelease()
}

// IsHeld reports whether any task holds the lock
func (l *ExclusiveLock) IsHeld() bool {
	mustLock(l)
	return l.flag.IsSet()
}

// IsHeldBy reports whether task holds the lock
func (l *ExclusiveLock) IsHeldBy(task core.TaskID) bool {
	mustLock(l)
	owner := l.owner.Load()
	return owner != nil && *owner == task
}

// Holder returns the holding task, if any
func (l *ExclusiveLock) Holder() (core.TaskID, bool) {
	mustLock(l)
	owner := l.owner.Load()
	if owner == nil {
		return core.NoTask, false
	}
	return *owner, true
}

// Waiters returns the number of tasks currently waiting for the lock
func (l *ExclusiveLock) Waiters() int {
	mustLock(l)
	return int(l.waiters.Load())
}

// Destroy retires the lock. It fails while any task is waiting on it. A held
// lock is released first. Later acquisitions fail with LOCK_DESTROYED.
func (l *ExclusiveLock) Destroy() error {
	mustLock(l)
	if n := l.waiters.Load(); n > 0 {
		return utils.NewLockError(utils.CodeLockBusy, "lock still has waiting tasks", l.name).
			WithDetail("waiters", n)
	}

	l.mu.Lock()
	if !l.destroyed.CompareAndSwap(false, true) {
		l.mu.Unlock()
		return nil
	}
	held := l.flag.IsSet()
	l.mu.Unlock()

	if held {
		l.release()
	}
	return nil
}

// String returns the lock name with its holder
func (l *ExclusiveLock) String() string {
	if l == nil {
		return "<nil lock>"
	}
	if holder, ok := l.Holder(); ok {
		return l.name + "@" + holder.Short()
	}
	return l.name
}
