package observers

import (
	"sync"
	"time"

	"github.com/anggasct/stoplight/pkg/core"
)

// MetricsObserver collects counts and timings about a run
type MetricsObserver struct {
	routeCounts    map[string]int
	quadrantVisits map[core.Quadrant]int
	retryCounts    map[core.Quadrant]int
	approaches     int
	finished       int
	errorCount     int
	active         int
	maxActive      int
	waitTime       time.Duration
	crossTime      time.Duration
	approachedAt   map[core.TaskID]time.Time
	enteredAt      map[core.TaskID]time.Time
	mutex          sync.RWMutex
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{}
	o.reset()
	return o
}

func (o *MetricsObserver) reset() {
	o.routeCounts = make(map[string]int)
	o.quadrantVisits = make(map[core.Quadrant]int)
	o.retryCounts = make(map[core.Quadrant]int)
	o.approachedAt = make(map[core.TaskID]time.Time)
	o.enteredAt = make(map[core.TaskID]time.Time)
	o.approaches = 0
	o.finished = 0
	o.errorCount = 0
	o.active = 0
	o.maxActive = 0
	o.waitTime = 0
	o.crossTime = 0
}

// OnApproach records the start of the car's wait
func (o *MetricsObserver) OnApproach(car core.Car, route core.Route) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.approaches++
	o.approachedAt[car.Task] = time.Now()
}

// OnEnter records route usage and the time spent waiting
func (o *MetricsObserver) OnEnter(car core.Car, route core.Route) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	now := time.Now()
	o.routeCounts[route.Key()]++
	if at, ok := o.approachedAt[car.Task]; ok {
		o.waitTime += now.Sub(at)
		delete(o.approachedAt, car.Task)
	}
	o.enteredAt[car.Task] = now

	o.active++
	if o.active > o.maxActive {
		o.maxActive = o.active
	}
}

// OnQuadrant records quadrant entries
func (o *MetricsObserver) OnQuadrant(car core.Car, quadrant core.Quadrant) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.quadrantVisits[quadrant]++
}

// OnFinish records completed crossings
func (o *MetricsObserver) OnFinish(car core.Car) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.finished++
	o.active--
	if at, ok := o.enteredAt[car.Task]; ok {
		o.crossTime += time.Since(at)
		delete(o.enteredAt, car.Task)
	}
}

// OnRetry records which quadrant forced a retry
func (o *MetricsObserver) OnRetry(car core.Car, conflict core.Quadrant, attempt int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.retryCounts[conflict]++
}

// OnRelease implements ExtendedObserver
func (o *MetricsObserver) OnRelease(car core.Car, route core.Route) {}

// OnError records error metrics
func (o *MetricsObserver) OnError(err error, car core.Car) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.errorCount++
	delete(o.approachedAt, car.Task)
}

// OnSimulationStarted implements ExtendedObserver
func (o *MetricsObserver) OnSimulationStarted(cars int) {}

// OnSimulationFinished implements ExtendedObserver
func (o *MetricsObserver) OnSimulationFinished(completed int) {}

// GetRouteCounts returns how many cars took each route, keyed by
// "Direction/Maneuver"
func (o *MetricsObserver) GetRouteCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int, len(o.routeCounts))
	for route, count := range o.routeCounts {
		result[route] = count
	}
	return result
}

// GetQuadrantVisits returns how many cars passed each quadrant
func (o *MetricsObserver) GetQuadrantVisits() map[core.Quadrant]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[core.Quadrant]int, len(o.quadrantVisits))
	for q, count := range o.quadrantVisits {
		result[q] = count
	}
	return result
}

// GetRetryCounts returns how many retries each quadrant caused
func (o *MetricsObserver) GetRetryCounts() map[core.Quadrant]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[core.Quadrant]int, len(o.retryCounts))
	for q, count := range o.retryCounts {
		result[q] = count
	}
	return result
}

// GetRetries returns the total number of rolled back attempts
func (o *MetricsObserver) GetRetries() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	total := 0
	for _, count := range o.retryCounts {
		total += count
	}
	return total
}

// GetApproaches returns the number of cars that started acquiring a route
func (o *MetricsObserver) GetApproaches() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.approaches
}

// GetFinished returns the number of completed crossings
func (o *MetricsObserver) GetFinished() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.finished
}

// GetErrorCount returns the number of errors
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount
}

// GetMaxConcurrent returns the most cars seen inside the intersection at once
func (o *MetricsObserver) GetMaxConcurrent() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.maxActive
}

// GetWaitTime returns the total time cars spent between approach and entry
func (o *MetricsObserver) GetWaitTime() time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.waitTime
}

// GetCrossTime returns the total time cars spent holding their routes
func (o *MetricsObserver) GetCrossTime() time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.crossTime
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.reset()
}
