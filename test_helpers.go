package stoplight

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anggasct/stoplight/pkg/core"
)

// TraceKind names the kind of a recorded crossing event
type TraceKind string

const (
	TraceApproach TraceKind = "approach"
	TraceEnter    TraceKind = "enter"
	TraceQuadrant TraceKind = "quadrant"
	TraceFinish   TraceKind = "finish"
	TraceRetry    TraceKind = "retry"
	TraceRelease  TraceKind = "release"
	TraceError    TraceKind = "error"
)

// TraceEvent is one event captured by TestObserver
type TraceEvent struct {
	Kind     TraceKind
	Car      core.Car
	Route    core.Route
	Quadrant core.Quadrant
	Attempt  int
	Err      error
}

// TestObserver is a mock observer for testing that captures all observer events
type TestObserver struct {
	mutex    sync.RWMutex
	Events   []TraceEvent
	Started  []int
	Finished []int
}

// NewTestObserver creates a new test observer
func NewTestObserver() *TestObserver {
	return &TestObserver{
		Events: make([]TraceEvent, 0),
	}
}

func (o *TestObserver) record(event TraceEvent) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Events = append(o.Events, event)
}

// Observer interface implementations
func (o *TestObserver) OnEnter(car core.Car, route core.Route) {
	o.record(TraceEvent{Kind: TraceEnter, Car: car, Route: route})
}

func (o *TestObserver) OnQuadrant(car core.Car, quadrant core.Quadrant) {
	o.record(TraceEvent{Kind: TraceQuadrant, Car: car, Quadrant: quadrant})
}

func (o *TestObserver) OnFinish(car core.Car) {
	o.record(TraceEvent{Kind: TraceFinish, Car: car})
}

// ExtendedObserver interface implementations
func (o *TestObserver) OnApproach(car core.Car, route core.Route) {
	o.record(TraceEvent{Kind: TraceApproach, Car: car, Route: route})
}

func (o *TestObserver) OnRetry(car core.Car, conflict core.Quadrant, attempt int) {
	o.record(TraceEvent{Kind: TraceRetry, Car: car, Quadrant: conflict, Attempt: attempt})
}

func (o *TestObserver) OnRelease(car core.Car, route core.Route) {
	o.record(TraceEvent{Kind: TraceRelease, Car: car, Route: route})
}

func (o *TestObserver) OnError(err error, car core.Car) {
	o.record(TraceEvent{Kind: TraceError, Car: car, Err: err})
}

func (o *TestObserver) OnSimulationStarted(cars int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Started = append(o.Started, cars)
}

func (o *TestObserver) OnSimulationFinished(completed int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Finished = append(o.Finished, completed)
}

// Helper methods for test assertions
func (o *TestObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Events = nil
	o.Started = nil
	o.Finished = nil
}

// EventsFor returns the events of one car, in the order they were recorded
func (o *TestObserver) EventsFor(carID int) []TraceEvent {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var events []TraceEvent
	for _, e := range o.Events {
		if e.Car.ID == carID {
			events = append(events, e)
		}
	}
	return events
}

// Count returns how many events of kind were recorded
func (o *TestObserver) Count(kind TraceKind) int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	n := 0
	for _, e := range o.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Trace renders a car's enter, quadrant and finish events as strings such as
// "enter", "NW", "SW", "finish"
func (o *TestObserver) Trace(carID int) []string {
	var trace []string
	for _, e := range o.EventsFor(carID) {
		switch e.Kind {
		case TraceEnter, TraceFinish:
			trace = append(trace, string(e.Kind))
		case TraceQuadrant:
			trace = append(trace, e.Quadrant.String())
		}
	}
	return trace
}

// Test intersection builders

// CreateTestIntersection creates an intersection with the default routes and
// a recording observer
func CreateTestIntersection(t *testing.T, opts ...IntersectionOption) (*Intersection, *TestObserver) {
	t.Helper()
	observer := NewTestObserver()
	x, err := NewIntersection(append(opts, WithObserver(observer))...)
	if err != nil {
		t.Fatalf("Failed to create intersection: %v", err)
	}
	return x, observer
}

// Test assertions and utilities

// AssertTrace checks a car's recorded trace
func AssertTrace(t *testing.T, observer *TestObserver, carID int, expected ...string) {
	t.Helper()
	trace := observer.Trace(carID)
	if len(trace) != len(expected) {
		t.Errorf("Expected trace %v for car %d, got %v", expected, carID, trace)
		return
	}
	for i := range expected {
		if trace[i] != expected[i] {
			t.Errorf("Expected trace %v for car %d, got %v", expected, carID, trace)
			return
		}
	}
}

// AssertAllFree checks that no quadrant is held
func AssertAllFree(t *testing.T, x *Intersection) {
	t.Helper()
	if occupied := x.Occupancy(); len(occupied) != 0 {
		t.Errorf("Expected every quadrant free, got %v", occupied)
	}
}

// WaitForWaiters polls until l has at least n waiters or the timeout passes
func WaitForWaiters(t *testing.T, l *ExclusiveLock, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for l.Waiters() < n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d waiters on %s, got %d", n, l.Name(), l.Waiters())
		}
		time.Sleep(time.Millisecond)
	}
}

// CrossAsync runs x.Cross on a new goroutine and returns its result channel
func CrossAsync(ctx context.Context, x *Intersection, car core.Car) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- x.Cross(ctx, car)
	}()
	return done
}
