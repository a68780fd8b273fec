package stoplight

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/anggasct/stoplight/pkg/core"
)

func newLocks(names ...string) []*ExclusiveLock {
	locks := make([]*ExclusiveLock, len(names))
	for i, name := range names {
		locks[i] = NewExclusiveLock(name)
	}
	return locks
}

func TestLockSet_DoubleAcquireRelease(t *testing.T) {
	section := core.NewAtomicSection()
	locks := newLocks("A", "B")
	task := core.NewTaskID()

	require.NoError(t, DoubleAcquire(context.Background(), section, task, locks[0], locks[1]))
	assert.True(t, locks[0].IsHeldBy(task))
	assert.True(t, locks[1].IsHeldBy(task))

	require.NoError(t, DoubleRelease(section, task, locks[0], locks[1]))
	assert.False(t, locks[0].IsHeld())
	assert.False(t, locks[1].IsHeld())
}

func TestLockSet_TripleAcquireRelease(t *testing.T) {
	section := core.NewAtomicSection()
	locks := newLocks("A", "B", "C")
	task := core.NewTaskID()

	require.NoError(t, TripleAcquire(context.Background(), section, task, locks[0], locks[1], locks[2]))
	for _, l := range locks {
		assert.True(t, l.IsHeldBy(task), l.Name())
	}

	require.NoError(t, TripleRelease(section, task, locks[0], locks[1], locks[2]))
	for _, l := range locks {
		assert.False(t, l.IsHeld(), l.Name())
	}
}

func TestLockSet_TryAcquireRollsBack(t *testing.T) {
	section := core.NewAtomicSection()
	locks := newLocks("A", "B", "C")
	other, task := core.NewTaskID(), core.NewTaskID()

	require.NoError(t, locks[1].Acquire(context.Background(), other))

	set := NewLockSet(section, locks...)
	ok, conflict, err := set.TryAcquire(task)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, locks[1], conflict)

	assert.False(t, locks[0].IsHeld(), "lock taken before the conflict is rolled back")
	assert.False(t, locks[2].IsHeld())
	assert.True(t, locks[1].IsHeldBy(other))
}

func TestLockSet_WaitsForConflict(t *testing.T) {
	section := core.NewAtomicSection()
	locks := newLocks("A", "B", "C")
	other, task := core.NewTaskID(), core.NewTaskID()

	require.NoError(t, locks[2].Acquire(context.Background(), other))

	var retries atomic.Int32
	set := NewLockSet(section, locks...).OnRetry(func(conflict *ExclusiveLock, attempt int) {
		assert.Same(t, locks[2], conflict)
		retries.Inc()
	})

	done := make(chan error, 1)
	go func() { done <- set.Acquire(context.Background(), task) }()

	WaitForWaiters(t, locks[2], 1, time.Second)
	assert.False(t, NewLockSet(section, locks[0]).HeldBy(task), "a waiting task holds nothing")
	assert.False(t, NewLockSet(section, locks[1]).HeldBy(task))

	require.NoError(t, locks[2].Release(other))
	require.NoError(t, <-done)

	assert.True(t, set.HeldBy(task))
	assert.GreaterOrEqual(t, int(retries.Load()), 1)
	require.NoError(t, set.Release(task))
}

func TestLockSet_ReleaseRequiresEveryLock(t *testing.T) {
	section := core.NewAtomicSection()
	locks := newLocks("A", "B")
	task, other := core.NewTaskID(), core.NewTaskID()

	set := NewLockSet(section, locks...)
	require.NoError(t, set.Acquire(context.Background(), task))

	err := set.Release(other)
	require.Error(t, err)
	assert.True(t, IsNotOwner(err))
	assert.True(t, set.HeldBy(task), "nothing is released on a failed release")

	require.NoError(t, locks[1].Release(task))
	err = set.Release(task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock: B")
	assert.True(t, locks[0].IsHeldBy(task))

	require.NoError(t, locks[0].Release(task))
}

func TestLockSet_Cancel(t *testing.T) {
	section := core.NewAtomicSection()
	locks := newLocks("A", "B")
	other, task := core.NewTaskID(), core.NewTaskID()
	require.NoError(t, locks[1].Acquire(context.Background(), other))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewLockSet(section, locks...).Acquire(ctx, task)
	assert.True(t, IsCancelled(err))
	assert.False(t, locks[0].IsHeld())
}

func TestLockSet_InvalidSets(t *testing.T) {
	section := core.NewAtomicSection()
	l := NewExclusiveLock("A")

	assert.Panics(t, func() { NewLockSet(nil, l) })
	assert.Panics(t, func() { NewLockSet(section) })
	assert.Panics(t, func() { NewLockSet(section, l, nil) })
	assert.Panics(t, func() { NewLockSet(section, l, l) })
}

func TestLockSet_String(t *testing.T) {
	set := NewLockSet(core.NewAtomicSection(), newLocks("NW", "SW", "SE")...)
	assert.Equal(t, "{NW, SW, SE}", set.String())
	assert.Equal(t, 3, set.Len())
	assert.Len(t, set.Locks(), 3)
}

// Tasks take random overlapping subsets of four locks in random order. No
// lock is ever held by two tasks, and every task finishes.
func TestLockSet_OverlappingSetsStress(t *testing.T) {
	section := core.NewAtomicSection()
	locks := newLocks("NW", "NE", "SE", "SW")
	var holders [4]atomic.Int32

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			task := core.NewTaskID()

			for round := 0; round < 40; round++ {
				perm := rng.Perm(4)[:1+rng.Intn(3)]
				picked := make([]*ExclusiveLock, len(perm))
				for k, idx := range perm {
					picked[k] = locks[idx]
				}

				set := NewLockSet(section, picked...)
				if err := set.Acquire(ctx, task); err != nil {
					t.Error(err)
					return
				}
				for _, idx := range perm {
					if holders[idx].Inc() != 1 {
						t.Errorf("lock %d held twice", idx)
					}
				}
				for _, idx := range perm {
					holders[idx].Dec()
				}
				if err := set.Release(task); err != nil {
					t.Error(err)
					return
				}
			}
		}(int64(i + 1))
	}
	wg.Wait()

	for _, l := range locks {
		assert.False(t, l.IsHeld(), l.Name())
	}
}
