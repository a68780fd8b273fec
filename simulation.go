package stoplight

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/observers"
	"github.com/anggasct/stoplight/pkg/utils"
)

// DefaultCars is the number of cars a simulation spawns unless told otherwise
const DefaultCars = 20

// RouteChoice is a direction and maneuver picked for one car
type RouteChoice struct {
	Direction core.Direction
	Maneuver  core.Maneuver
}

// Picker chooses where each car comes from and where it goes
type Picker interface {
	Pick(car int) RouteChoice
}

// RandomPicker picks direction and maneuver uniformly and independently
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker creates a picker with a fixed seed. A zero seed is replaced
// by the current time.
func NewRandomPicker(seed int64) *RandomPicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPicker{rng: rand.New(rand.NewSource(seed))}
}

// Pick implements Picker
func (p *RandomPicker) Pick(car int) RouteChoice {
	p.mu.Lock()
	defer p.mu.Unlock()

	return RouteChoice{
		Direction: core.AllDirections[p.rng.Intn(len(core.AllDirections))],
		Maneuver:  core.AllManeuvers[p.rng.Intn(len(core.AllManeuvers))],
	}
}

// FixedPicker hands out its choices in order, car 1 getting the first, and
// wraps around when there are more cars than choices
type FixedPicker []RouteChoice

// Pick implements Picker
func (p FixedPicker) Pick(car int) RouteChoice {
	if len(p) == 0 {
		return RouteChoice{core.North, core.Straight}
	}
	i := (car - 1) % len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// EveryRoute returns a FixedPicker covering all twelve routes once
func EveryRoute() FixedPicker {
	choices := make(FixedPicker, 0, len(core.AllDirections)*len(core.AllManeuvers))
	for _, d := range core.AllDirections {
		for _, m := range core.AllManeuvers {
			choices = append(choices, RouteChoice{d, m})
		}
	}
	return choices
}

// Report summarises one simulation run
type Report struct {
	RunID           string
	Cars            int
	Spawned         int
	Completed       int
	Strategy        string
	Ranked          bool
	RouteCounts     map[string]int
	QuadrantEntries map[core.Quadrant]int
	Retries         int
	MaxConcurrent   int
	WaitTime        time.Duration
	Elapsed         time.Duration
	Violations      []string
	Errors          []string
}

// OK reports whether every car crossed and no rule was broken
func (r *Report) OK() bool {
	return r.Completed == r.Cars && len(r.Violations) == 0 && len(r.Errors) == 0
}

// Simulation spawns cars at an intersection and waits for all of them
type Simulation struct {
	intersection *Intersection
	cars         int
	maxTasks     int
	picker       Picker
	metrics      *observers.MetricsObserver
	validation   *observers.ValidationObserver
}

// NewSimulation creates a simulation of cars random cars at intersection.
// The simulation registers its own metrics and validation observers.
func NewSimulation(intersection *Intersection, cars int) *Simulation {
	s := &Simulation{
		intersection: intersection,
		cars:         cars,
		picker:       NewRandomPicker(0),
		metrics:      observers.NewMetricsObserver(),
		validation:   observers.NewValidationObserver(),
	}
	intersection.AddObserver(s.metrics)
	intersection.AddObserver(s.validation)
	return s
}

// Intersection returns the simulated intersection
func (s *Simulation) Intersection() *Intersection {
	return s.intersection
}

// Metrics returns the simulation's metrics observer
func (s *Simulation) Metrics() *observers.MetricsObserver {
	return s.metrics
}

// Validation returns the simulation's validation observer
func (s *Simulation) Validation() *observers.ValidationObserver {
	return s.validation
}

// Run spawns every car and returns once all of them have crossed or failed.
//
// A car that cannot be spawned is fatal: the cars already running are
// cancelled and joined, and the spawn error is returned. Errors of individual
// crossings are listed in the report and the first one is returned.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	if s.cars < 0 {
		return nil, utils.NewConfigurationError("car count must not be negative").WithDetail("cars", s.cars)
	}

	s.metrics.Reset()
	s.validation.Reset()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		scheduler = core.NewGoroutineScheduler(runCtx, s.maxTasks)
		latch     = core.NewLatch(s.cars)
		completed atomic.Int64
		errs      = utils.NewErrorCollector()
		errsMu    sync.Mutex
		notify    = s.intersection.Observers()
		start     = time.Now()
	)

	s.intersection.UseScheduler(scheduler)
	notify.NotifySimulationStarted(s.cars)

	var spawnErr error
	for id := 1; id <= s.cars; id++ {
		id := id
		err := scheduler.Spawn(func(ctx context.Context) error {
			defer latch.CountDown()

			choice := s.picker.Pick(id)
			car := core.NewCar(id, choice.Direction, choice.Maneuver)
			if err := s.intersection.Cross(ctx, car); err != nil {
				errsMu.Lock()
				errs.Add(err)
				errsMu.Unlock()
				return err
			}

			completed.Inc()
			return nil
		})
		if err != nil {
			if ie, ok := err.(*utils.IntersectionError); ok {
				ie.WithCar(id)
			}
			spawnErr = err
			cancel()
			for rest := id; rest <= s.cars; rest++ {
				latch.CountDown()
			}
			break
		}
	}

	// The latch is the join. Waiting on the scheduler afterwards only collects
	// the first task error.
	_ = latch.Wait(context.Background())
	taskErr := scheduler.Wait()

	notify.NotifySimulationFinished(int(completed.Load()))

	report := &Report{
		RunID:           uuid.NewString(),
		Cars:            s.cars,
		Spawned:         scheduler.Spawned(),
		Completed:       int(completed.Load()),
		Strategy:        s.intersection.Lock(core.NW).Strategy().Name(),
		Ranked:          s.intersection.ranked,
		RouteCounts:     s.metrics.GetRouteCounts(),
		QuadrantEntries: s.metrics.GetQuadrantVisits(),
		Retries:         s.metrics.GetRetries(),
		MaxConcurrent:   s.metrics.GetMaxConcurrent(),
		WaitTime:        s.metrics.GetWaitTime(),
		Elapsed:         time.Since(start),
		Violations:      s.validation.GetViolations(),
	}
	for _, err := range errs.GetErrors() {
		report.Errors = append(report.Errors, err.Error())
	}

	if spawnErr != nil {
		return report, fmt.Errorf("spawning cars: %w", spawnErr)
	}
	if taskErr != nil {
		return report, taskErr
	}
	return report, nil
}
