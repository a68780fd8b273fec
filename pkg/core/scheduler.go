package core

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/anggasct/stoplight/pkg/utils"
)

// TaskFunc is the body of a spawned task
type TaskFunc func(ctx context.Context) error

// Scheduler is the host facility used to run concurrent tasks
type Scheduler interface {
	// Spawn starts task concurrently. A returned error means the task was
	// never started.
	Spawn(task TaskFunc) error

	// Yield gives other tasks a chance to run
	Yield()

	// Wait blocks until every spawned task has returned and reports the
	// first task error
	Wait() error
}

// GoroutineScheduler runs each task on its own goroutine inside an errgroup.
// The first failing task cancels the context handed to the others.
type GoroutineScheduler struct {
	group   *errgroup.Group
	ctx     context.Context
	limit   int
	spawned atomic.Int64
}

// NewGoroutineScheduler creates a scheduler bound to ctx. A positive limit
// caps the number of tasks alive at once; spawning beyond it fails instead
// of queueing.
func NewGoroutineScheduler(ctx context.Context, limit int) *GoroutineScheduler {
	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	return &GoroutineScheduler{
		group: group,
		ctx:   groupCtx,
		limit: limit,
	}
}

// Spawn starts task on a new goroutine
func (s *GoroutineScheduler) Spawn(task TaskFunc) error {
	if task == nil {
		return utils.NewSpawnError("nil task", nil)
	}

	if !s.group.TryGo(func() error { return task(s.ctx) }) {
		return utils.NewSpawnError(
			fmt.Sprintf("task limit of %d reached", s.limit), nil,
		).WithDetail("spawned", s.spawned.Load())
	}

	s.spawned.Inc()
	return nil
}

// Yield hands the processor to another goroutine
func (s *GoroutineScheduler) Yield() {
	runtime.Gosched()
}

// Wait joins every spawned task
func (s *GoroutineScheduler) Wait() error {
	return s.group.Wait()
}

// Spawned returns how many tasks were started
func (s *GoroutineScheduler) Spawned() int {
	return int(s.spawned.Load())
}

// Context returns the context handed to spawned tasks
func (s *GoroutineScheduler) Context() context.Context {
	return s.ctx
}
