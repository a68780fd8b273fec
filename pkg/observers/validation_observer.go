package observers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/anggasct/stoplight/pkg/core"
)

type crossing struct {
	car    core.Car
	route  core.Route
	passed int
}

// ValidationObserver checks every trace against the crossing rules: no two
// cars inside the same quadrant, quadrants passed in route order, and every
// quadrant of the route passed before the car finishes.
//
// Occupancy is claimed on OnEnter and cleared on OnFinish. Both are sent while
// the car still holds its locks, so a correct run never reports a violation.
type ValidationObserver struct {
	occupants      map[core.Quadrant]core.Car
	crossings      map[core.TaskID]*crossing
	expectedRoutes map[string]bool
	takenRoutes    map[string]bool
	violations     []string
	mutex          sync.RWMutex
}

// NewValidationObserver creates a new validation observer
func NewValidationObserver() *ValidationObserver {
	return &ValidationObserver{
		occupants:      make(map[core.Quadrant]core.Car),
		crossings:      make(map[core.TaskID]*crossing),
		expectedRoutes: make(map[string]bool),
		takenRoutes:    make(map[string]bool),
		violations:     make([]string, 0),
	}
}

// AddExpectedRoute marks a route that the run is expected to exercise
func (o *ValidationObserver) AddExpectedRoute(direction core.Direction, maneuver core.Maneuver) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.expectedRoutes[core.RouteKey(direction, maneuver)] = true
}

func (o *ValidationObserver) violate(format string, args ...interface{}) {
	o.violations = append(o.violations, fmt.Sprintf(format, args...))
}

// OnEnter claims the route's quadrants for car
func (o *ValidationObserver) OnEnter(car core.Car, route core.Route) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.takenRoutes[route.Key()] = true

	if _, busy := o.crossings[car.Task]; busy {
		o.violate("%s entered again before finishing", car)
	}
	o.crossings[car.Task] = &crossing{car: car, route: route}

	for _, q := range route.Quadrants {
		if other, held := o.occupants[q]; held && other.Task != car.Task {
			o.violate("%s entered %s while %s was inside it", car, q, other)
		}
		o.occupants[q] = car
	}
}

// OnQuadrant checks that car passes its quadrants in route order
func (o *ValidationObserver) OnQuadrant(car core.Car, quadrant core.Quadrant) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	c, ok := o.crossings[car.Task]
	if !ok {
		o.violate("%s reached %s without entering", car, quadrant)
		return
	}

	if c.passed >= len(c.route.Quadrants) || c.route.Quadrants[c.passed] != quadrant {
		o.violate("%s reached %s out of route order %v", car, quadrant, c.route.Quadrants)
	}
	c.passed++
}

// OnFinish checks the whole route was passed and frees its quadrants
func (o *ValidationObserver) OnFinish(car core.Car) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	c, ok := o.crossings[car.Task]
	if !ok {
		o.violate("%s finished without entering", car)
		return
	}
	delete(o.crossings, car.Task)

	if c.passed != len(c.route.Quadrants) {
		o.violate("%s finished after %d of %d quadrants", car, c.passed, len(c.route.Quadrants))
	}

	for _, q := range c.route.Quadrants {
		if occupant, held := o.occupants[q]; held && occupant.Task == car.Task {
			delete(o.occupants, q)
		}
	}
}

// OnApproach implements ExtendedObserver
func (o *ValidationObserver) OnApproach(car core.Car, route core.Route) {}

// OnRetry implements ExtendedObserver
func (o *ValidationObserver) OnRetry(car core.Car, conflict core.Quadrant, attempt int) {}

// OnRelease implements ExtendedObserver
func (o *ValidationObserver) OnRelease(car core.Car, route core.Route) {}

// OnError implements ExtendedObserver. Failed crossings are not rule
// violations; they are reported by the caller.
func (o *ValidationObserver) OnError(err error, car core.Car) {}

// OnSimulationStarted implements ExtendedObserver
func (o *ValidationObserver) OnSimulationStarted(cars int) {}

// OnSimulationFinished flags cars that entered but never finished
func (o *ValidationObserver) OnSimulationFinished(completed int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	for _, c := range o.crossings {
		o.violate("%s never left the intersection", c.car)
	}
}

// GetViolations returns all validation violations
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUntakenRoutes returns expected routes that no car took, sorted
func (o *ValidationObserver) GetUntakenRoutes() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var untaken []string
	for route := range o.expectedRoutes {
		if !o.takenRoutes[route] {
			untaken = append(untaken, route)
		}
	}
	sort.Strings(untaken)
	return untaken
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset resets the validation state
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.occupants = make(map[core.Quadrant]core.Car)
	o.crossings = make(map[core.TaskID]*crossing)
	o.takenRoutes = make(map[string]bool)
	o.violations = make([]string, 0)
}
