package stoplight

import (
	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/utils"
)

// SimulationBuilder assembles an Intersection and a Simulation with a fluent
// interface:
//
//	sim, err := stoplight.NewSimulationBuilder().
//	    WithCars(20).
//	    WithWaitStrategy(stoplight.StrategyYield).
//	    WithSeed(7).
//	    Build()
type SimulationBuilder struct {
	cars      int
	strategy  string
	maxTasks  int
	seed      int64
	ranked    bool
	routes    *RouteTable
	picker    Picker
	observers []core.Observer
	errs      *utils.ErrorCollector
}

// NewSimulationBuilder creates a builder holding the defaults: twenty cars,
// blocking waits and the default route table
func NewSimulationBuilder() *SimulationBuilder {
	return &SimulationBuilder{
		cars:     DefaultCars,
		strategy: StrategyBlock,
		errs:     utils.NewErrorCollector(),
	}
}

// WithCars sets how many cars are spawned
func (b *SimulationBuilder) WithCars(n int) *SimulationBuilder {
	if n < 0 {
		b.errs.Add(utils.NewConfigurationError("car count must not be negative").WithDetail("cars", n))
		return b
	}
	b.cars = n
	return b
}

// WithWaitStrategy selects how cars wait for a busy quadrant, by name
func (b *SimulationBuilder) WithWaitStrategy(name string) *SimulationBuilder {
	b.strategy = name
	return b
}

// WithMaxTasks caps the number of cars alive at once. Zero means no cap.
func (b *SimulationBuilder) WithMaxTasks(n int) *SimulationBuilder {
	if n < 0 {
		b.errs.Add(utils.NewConfigurationError("task limit must not be negative").WithDetail("max_tasks", n))
		return b
	}
	b.maxTasks = n
	return b
}

// WithSeed seeds the random picker. Zero picks a time based seed.
func (b *SimulationBuilder) WithSeed(seed int64) *SimulationBuilder {
	b.seed = seed
	return b
}

// WithRankedAcquisition makes cars take quadrants in global rank order
func (b *SimulationBuilder) WithRankedAcquisition(ranked bool) *SimulationBuilder {
	b.ranked = ranked
	return b
}

// WithRoutes replaces the route table
func (b *SimulationBuilder) WithRoutes(routes *RouteTable) *SimulationBuilder {
	b.routes = routes
	return b
}

// WithPicker replaces the random picker, typically with a FixedPicker
func (b *SimulationBuilder) WithPicker(picker Picker) *SimulationBuilder {
	b.picker = picker
	return b
}

// WithObserver registers an extra observer
func (b *SimulationBuilder) WithObserver(observer core.Observer) *SimulationBuilder {
	if observer != nil {
		b.observers = append(b.observers, observer)
	}
	return b
}

// FromConfig applies every setting of config
func (b *SimulationBuilder) FromConfig(config Config) *SimulationBuilder {
	b.WithCars(config.Cars).
		WithWaitStrategy(config.WaitStrategy).
		WithMaxTasks(config.MaxTasks).
		WithSeed(config.Seed).
		WithRankedAcquisition(config.RankedOrder)

	if len(config.Routes) > 0 {
		routes, err := config.RouteTable()
		if err != nil {
			b.errs.Add(err)
			return b
		}
		b.WithRoutes(routes)
	}
	return b
}

// Build validates the settings and creates the simulation
func (b *SimulationBuilder) Build() (*Simulation, error) {
	errs := utils.NewErrorCollector()
	for _, err := range b.errs.GetErrors() {
		errs.Add(err)
	}

	strategy, err := NewWaitStrategy(b.strategy, nil)
	if err != nil {
		errs.Add(err)
	}
	if errs.HasErrors() {
		return nil, errs
	}

	opts := []IntersectionOption{
		WithRankedAcquisition(b.ranked),
		WithQuadrantLockOptions(WithWaitStrategy(strategy)),
	}
	if b.routes != nil {
		opts = append(opts, WithRoutes(b.routes))
	}
	for _, observer := range b.observers {
		opts = append(opts, WithObserver(observer))
	}

	intersection, err := NewIntersection(opts...)
	if err != nil {
		return nil, err
	}

	sim := NewSimulation(intersection, b.cars)
	sim.maxTasks = b.maxTasks
	sim.picker = b.picker
	if sim.picker == nil {
		sim.picker = NewRandomPicker(b.seed)
	}
	return sim, nil
}
