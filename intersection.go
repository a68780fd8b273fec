package stoplight

import (
	"context"
	"fmt"

	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/utils"
)

// Intersection owns one lock per quadrant and runs the crossing protocol
type Intersection struct {
	section   *core.AtomicSection
	quadrants map[core.Quadrant]*ExclusiveLock
	byLock    map[*ExclusiveLock]core.Quadrant
	routes    *RouteTable
	ranked    bool
	order     *RouteTable
	observers *core.ObserverManager
}

// IntersectionOption configures an Intersection
type IntersectionOption func(*Intersection)

// WithRoutes replaces the default route table
func WithRoutes(routes *RouteTable) IntersectionOption {
	return func(x *Intersection) {
		if routes != nil {
			x.routes = routes
		}
	}
}

// WithRankedAcquisition makes cars take their quadrants in global rank order
// rather than in the order they pass them. Traces still follow the route.
func WithRankedAcquisition(ranked bool) IntersectionOption {
	return func(x *Intersection) {
		x.ranked = ranked
	}
}

// WithObserver registers an observer for every crossing
func WithObserver(observer core.Observer) IntersectionOption {
	return func(x *Intersection) {
		x.observers.AddObserver(observer)
	}
}

// WithQuadrantLockOptions applies lock options to all four quadrant locks
func WithQuadrantLockOptions(opts ...LockOption) IntersectionOption {
	return func(x *Intersection) {
		for _, l := range x.quadrants {
			for _, opt := range opts {
				opt(l)
			}
		}
	}
}

// NewIntersection creates the four quadrant locks and validates the routes
func NewIntersection(opts ...IntersectionOption) (*Intersection, error) {
	x := &Intersection{
		section:   core.NewAtomicSection(),
		quadrants: make(map[core.Quadrant]*ExclusiveLock, len(core.AllQuadrants)),
		byLock:    make(map[*ExclusiveLock]core.Quadrant, len(core.AllQuadrants)),
		routes:    DefaultRouteTable(),
		observers: core.NewObserverManager(),
	}

	for _, q := range core.AllQuadrants {
		l := NewExclusiveLock(q.String())
		x.quadrants[q] = l
		x.byLock[l] = q
	}

	for _, opt := range opts {
		opt(x)
	}

	if err := x.routes.Validate(); err != nil {
		return nil, fmt.Errorf("route table: %w", err)
	}

	x.order = x.routes
	if x.ranked {
		x.order = x.routes.Ranked()
	}

	return x, nil
}

// AddObserver registers an observer. Observers must be added before cars
// start crossing.
func (x *Intersection) AddObserver(observer core.Observer) {
	x.observers.AddObserver(observer)
}

// Observers returns the intersection's observer manager
func (x *Intersection) Observers() *core.ObserverManager {
	return x.observers
}

// Section returns the section guarding multi-quadrant lock changes
func (x *Intersection) Section() *core.AtomicSection {
	return x.section
}

// Routes returns the route table in use
func (x *Intersection) Routes() *RouteTable {
	return x.routes
}

// Lock returns the lock guarding quadrant q
func (x *Intersection) Lock(q core.Quadrant) *ExclusiveLock {
	return x.quadrants[q]
}

// UseScheduler hands scheduler to every quadrant lock, so yield waits go
// through the scheduler running the cars
func (x *Intersection) UseScheduler(scheduler core.Scheduler) {
	for _, l := range x.quadrants {
		l.UseScheduler(scheduler)
	}
}

// Route returns the route for a car
func (x *Intersection) Route(car core.Car) (core.Route, error) {
	route, err := x.routes.Lookup(car.Direction, car.Maneuver)
	if err != nil {
		if ie, ok := err.(*utils.IntersectionError); ok {
			ie.WithCar(car.ID)
		}
		return core.Route{}, err
	}
	return route, nil
}

// LockSet returns the lock set a car must hold for route
func (x *Intersection) LockSet(route core.Route) *LockSet {
	order := route.Quadrants
	if ordered, err := x.order.Lookup(route.Direction, route.Maneuver); err == nil {
		order = ordered.Quadrants
	}

	locks := make([]*ExclusiveLock, len(order))
	for i, q := range order {
		locks[i] = x.quadrants[q]
	}
	return NewLockSet(x.section, locks...)
}

// Cross runs the whole protocol for one car: hold every quadrant of its
// route, pass them in order, then release them together.
func (x *Intersection) Cross(ctx context.Context, car core.Car) error {
	route, err := x.Route(car)
	if err != nil {
		x.observers.NotifyError(err, car)
		return err
	}

	set := x.LockSet(route).OnRetry(func(conflict *ExclusiveLock, attempt int) {
		x.observers.NotifyRetry(car, x.byLock[conflict], attempt)
	})

	x.observers.NotifyApproach(car, route)

	if err := set.Acquire(ctx, car.Task); err != nil {
		wrapped := fmt.Errorf("car %d acquiring %s: %w", car.ID, set, err)
		x.observers.NotifyError(wrapped, car)
		return wrapped
	}

	x.observers.NotifyEnter(car, route)
	for _, q := range route.Quadrants {
		x.observers.NotifyQuadrant(car, q)
	}
	x.observers.NotifyFinish(car)

	if err := set.Release(car.Task); err != nil {
		wrapped := fmt.Errorf("car %d releasing %s: %w", car.ID, set, err)
		x.observers.NotifyError(wrapped, car)
		return wrapped
	}
	x.observers.NotifyRelease(car, route)

	return nil
}

// Occupancy returns the holder of each held quadrant. The snapshot is taken
// inside the section, so it never shows part of a car's route.
func (x *Intersection) Occupancy() map[core.Quadrant]core.TaskID {
	defer x.section.Enter()()

	occupied := make(map[core.Quadrant]core.TaskID)
	for q, l := range x.quadrants {
		if holder, ok := l.Holder(); ok {
			occupied[q] = holder
		}
	}
	return occupied
}

// Close destroys the quadrant locks. It fails if any car is still waiting.
func (x *Intersection) Close() error {
	collector := utils.NewErrorCollector()
	for _, q := range core.AllQuadrants {
		collector.Add(x.quadrants[q].Destroy())
	}
	return collector.Err()
}
