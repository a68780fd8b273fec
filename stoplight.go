// Package stoplight coordinates cars crossing a four-quadrant intersection.
//
// Each quadrant is guarded by an ExclusiveLock. A car holds every quadrant of
// its route before it enters and gives them all back together when it
// leaves. A LockSet acquires its locks as one unit: an attempt that meets a
// held lock rolls back everything it took, so a waiting car never holds part
// of its route and the crossing protocol cannot deadlock.
package stoplight

import (
	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/observers"
	"github.com/anggasct/stoplight/pkg/utils"
)

// Core types
type (
	// TaskID identifies the task that owns a lock
	TaskID = core.TaskID

	// AtomicFlag is a test-and-set flag
	AtomicFlag = core.AtomicFlag

	// AtomicSection makes a group of lock operations indivisible
	AtomicSection = core.AtomicSection

	// Latch is a countdown join
	Latch = core.Latch

	// Scheduler spawns and yields tasks
	Scheduler = core.Scheduler

	// TaskFunc is the body of a spawned task
	TaskFunc = core.TaskFunc

	// GoroutineScheduler runs tasks on goroutines in an errgroup
	GoroutineScheduler = core.GoroutineScheduler

	// Quadrant is one exclusive zone of the intersection
	Quadrant = core.Quadrant

	// Direction is the side a car approaches from
	Direction = core.Direction

	// Maneuver is what a car does inside the intersection
	Maneuver = core.Maneuver

	// Car is one actor crossing the intersection
	Car = core.Car

	// Route is the ordered quadrant list of a maneuver
	Route = core.Route

	// Observer receives crossing events
	Observer = core.Observer

	// ExtendedObserver receives the optional crossing events as well
	ExtendedObserver = core.ExtendedObserver

	// BaseObserver implements every observer method as a no-op
	BaseObserver = core.BaseObserver
)

// Re-export observer types
type (
	// LoggingObserver writes crossing events to a structured logger
	LoggingObserver = observers.LoggingObserver

	// MetricsObserver collects counts and timings about a run
	MetricsObserver = observers.MetricsObserver

	// ValidationObserver checks traces against the crossing rules
	ValidationObserver = observers.ValidationObserver
)

// Re-export error types
type (
	// IntersectionError is the error type of every failing operation
	IntersectionError = utils.IntersectionError

	// ErrorCollector collects multiple errors during validation or processing
	ErrorCollector = utils.ErrorCollector
)

// Re-export constants
const (
	NW = core.NW
	NE = core.NE
	SE = core.SE
	SW = core.SW

	North = core.North
	East  = core.East
	South = core.South
	West  = core.West

	Left     = core.Left
	Straight = core.Straight
	Right    = core.Right
)

// Re-export core functions
var (
	// NewTaskID creates a fresh task identity
	NewTaskID = core.NewTaskID

	// NewAtomicSection creates an atomic section
	NewAtomicSection = core.NewAtomicSection

	// NewLatch creates a countdown latch
	NewLatch = core.NewLatch

	// NewGoroutineScheduler creates a goroutine scheduler bound to a context
	NewGoroutineScheduler = core.NewGoroutineScheduler

	// NewCar creates a car with a fresh task identity
	NewCar = core.NewCar

	// ParseQuadrant parses a quadrant name
	ParseQuadrant = core.ParseQuadrant

	// ParseDirection parses a direction name
	ParseDirection = core.ParseDirection

	// ParseManeuver parses a maneuver name
	ParseManeuver = core.ParseManeuver
)

// Re-export observer constructors
var (
	// NewLoggingObserver creates a logging observer on the process-wide logger
	NewLoggingObserver = observers.NewDefaultLoggingObserver

	// NewCustomLoggingObserver creates a logging observer on a given logger
	NewCustomLoggingObserver = observers.NewLoggingObserver

	// NewValidationObserver creates a new validation observer
	NewValidationObserver = observers.NewValidationObserver

	// NewMetricsObserver creates a new metrics observer
	NewMetricsObserver = observers.NewMetricsObserver
)

// Re-export error constructors and variables
var (
	// ErrNilLock is raised when a nil lock is handed to a lock operation
	ErrNilLock = utils.ErrNilLock

	// ErrNotOwner is returned when a task releases a lock it does not hold
	ErrNotOwner = utils.ErrNotOwner

	// ErrAlreadyOwned is returned when a task acquires a lock it already holds
	ErrAlreadyOwned = utils.ErrAlreadyOwned

	// ErrLockBusy is returned when destroying a lock that still has waiters
	ErrLockBusy = utils.ErrLockBusy

	// ErrLockDestroyed is returned when acquiring a destroyed lock
	ErrLockDestroyed = utils.ErrLockDestroyed

	// ErrSpawnFailed is returned when the scheduler refuses a new task
	ErrSpawnFailed = utils.ErrSpawnFailed

	// ErrRouteNotFound is returned when no route exists for a direction and maneuver
	ErrRouteNotFound = utils.ErrRouteNotFound

	// ErrInvalidRoute is returned when a route table entry is malformed
	ErrInvalidRoute = utils.ErrInvalidRoute

	// ErrConfiguration is returned for invalid configuration
	ErrConfiguration = utils.ErrConfiguration

	// ErrCancelled is returned when a wait is abandoned because its context ended
	ErrCancelled = utils.ErrCancelled

	// NewErrorCollector creates a new error collector
	NewErrorCollector = utils.NewErrorCollector
)
