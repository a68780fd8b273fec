package core

import "fmt"

// Observer represents an entity that observes cars crossing the intersection
type Observer interface {
	// Required methods

	// OnEnter is called once a car holds every quadrant of its route
	OnEnter(car Car, route Route)

	// OnQuadrant is called for each quadrant the car passes, in route order
	OnQuadrant(car Car, quadrant Quadrant)

	// OnFinish is called when the car has left the last quadrant
	OnFinish(car Car)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnApproach is called before the car starts acquiring its route
	OnApproach(car Car, route Route)

	// OnRetry is called when an acquisition attempt found conflict held and
	// rolled back
	OnRetry(car Car, conflict Quadrant, attempt int)

	// OnRelease is called after the car released its whole route
	OnRelease(car Car, route Route)

	// OnError is called when a crossing fails
	OnError(err error, car Car)

	// OnSimulationStarted is called before the first car is spawned
	OnSimulationStarted(cars int)

	// OnSimulationFinished is called after every car completed or failed
	OnSimulationFinished(completed int)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnEnter implements the required Observer method
func (o *BaseObserver) OnEnter(car Car, route Route) {}

// OnQuadrant implements the required Observer method
func (o *BaseObserver) OnQuadrant(car Car, quadrant Quadrant) {}

// OnFinish implements the required Observer method
func (o *BaseObserver) OnFinish(car Car) {}

// OnApproach implements the optional ExtendedObserver method
func (o *BaseObserver) OnApproach(car Car, route Route) {}

// OnRetry implements the optional ExtendedObserver method
func (o *BaseObserver) OnRetry(car Car, conflict Quadrant, attempt int) {}

// OnRelease implements the optional ExtendedObserver method
func (o *BaseObserver) OnRelease(car Car, route Route) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver) OnError(err error, car Car) {}

// OnSimulationStarted implements the optional ExtendedObserver method
func (o *BaseObserver) OnSimulationStarted(cars int) {}

// OnSimulationFinished implements the optional ExtendedObserver method
func (o *BaseObserver) OnSimulationFinished(completed int) {}

// ObserverManager fans trace events out to a collection of observers.
// Observers are registered before cars start; notifications may then arrive
// from many goroutines at once, so observers must be safe for concurrent use.
type ObserverManager struct {
	observers []Observer
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	if observer == nil {
		return
	}
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager) Len() int {
	return len(om.observers)
}

// each calls fn for every observer, isolating the caller from observer panics.
// A panic is reported to the observer's OnError when it has one.
func (om *ObserverManager) each(method string, car Car, fn func(Observer)) {
	for _, observer := range om.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if extObs, ok := observer.(ExtendedObserver); ok {
						func() {
							defer func() { recover() }()
							extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r), car)
						}()
					}
				}
			}()
			fn(observer)
		}()
	}
}

// eachExtended is each restricted to ExtendedObservers
func (om *ObserverManager) eachExtended(method string, car Car, fn func(ExtendedObserver)) {
	om.each(method, car, func(observer Observer) {
		if extObs, ok := observer.(ExtendedObserver); ok {
			fn(extObs)
		}
	})
}

// NotifyEnter notifies all observers that car holds its route
func (om *ObserverManager) NotifyEnter(car Car, route Route) {
	om.each("OnEnter", car, func(o Observer) { o.OnEnter(car, route) })
}

// NotifyQuadrant notifies all observers that car is in quadrant
func (om *ObserverManager) NotifyQuadrant(car Car, quadrant Quadrant) {
	om.each("OnQuadrant", car, func(o Observer) { o.OnQuadrant(car, quadrant) })
}

// NotifyFinish notifies all observers that car finished crossing
func (om *ObserverManager) NotifyFinish(car Car) {
	om.each("OnFinish", car, func(o Observer) { o.OnFinish(car) })
}

// NotifyApproach notifies all observers that car is about to acquire route
func (om *ObserverManager) NotifyApproach(car Car, route Route) {
	om.eachExtended("OnApproach", car, func(o ExtendedObserver) { o.OnApproach(car, route) })
}

// NotifyRetry notifies all observers of a rolled back acquisition attempt
func (om *ObserverManager) NotifyRetry(car Car, conflict Quadrant, attempt int) {
	om.eachExtended("OnRetry", car, func(o ExtendedObserver) { o.OnRetry(car, conflict, attempt) })
}

// NotifyRelease notifies all observers that car released route
func (om *ObserverManager) NotifyRelease(car Car, route Route) {
	om.eachExtended("OnRelease", car, func(o ExtendedObserver) { o.OnRelease(car, route) })
}

// NotifyError notifies all observers of a failed crossing
func (om *ObserverManager) NotifyError(err error, car Car) {
	for _, observer := range om.observers {
		if extObs, ok := observer.(ExtendedObserver); ok {
			func() {
				defer func() { recover() }()
				extObs.OnError(err, car)
			}()
		}
	}
}

// NotifySimulationStarted notifies all observers that a run is starting
func (om *ObserverManager) NotifySimulationStarted(cars int) {
	om.eachExtended("OnSimulationStarted", Car{}, func(o ExtendedObserver) { o.OnSimulationStarted(cars) })
}

// NotifySimulationFinished notifies all observers that a run is over
func (om *ObserverManager) NotifySimulationFinished(completed int) {
	om.eachExtended("OnSimulationFinished", Car{}, func(o ExtendedObserver) { o.OnSimulationFinished(completed) })
}
