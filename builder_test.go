package stoplight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/stoplight/pkg/core"
)

func TestSimulationBuilder(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		sim, err := NewSimulationBuilder().Build()
		require.NoError(t, err)

		assert.Equal(t, DefaultCars, sim.cars)
		assert.Equal(t, 0, sim.maxTasks)
		assert.IsType(t, &RandomPicker{}, sim.picker)
		assert.Equal(t, StrategyBlock, sim.Intersection().Lock(core.NW).Strategy().Name())
		assert.Equal(t, 2, sim.Intersection().Observers().Len())
	})

	t.Run("every quadrant gets the strategy", func(t *testing.T) {
		sim, err := NewSimulationBuilder().WithWaitStrategy(StrategyYield).Build()
		require.NoError(t, err)

		for _, q := range core.AllQuadrants {
			assert.Equal(t, StrategyYield, sim.Intersection().Lock(q).Strategy().Name(), q.String())
		}
	})

	t.Run("invalid settings are collected", func(t *testing.T) {
		_, err := NewSimulationBuilder().
			WithCars(-1).
			WithMaxTasks(-1).
			WithWaitStrategy("spin-forever").
			Build()
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))

		var collector *ErrorCollector
		require.ErrorAs(t, err, &collector)
		assert.Len(t, collector.GetErrors(), 3)
	})

	t.Run("build twice reports each problem once", func(t *testing.T) {
		b := NewSimulationBuilder().WithCars(-1).WithWaitStrategy("spin-forever")

		for i := 0; i < 2; i++ {
			_, err := b.Build()
			var collector *ErrorCollector
			require.ErrorAs(t, err, &collector)
			assert.Len(t, collector.GetErrors(), 2)
		}
	})

	t.Run("invalid routes", func(t *testing.T) {
		_, err := NewSimulationBuilder().WithRoutes(NewRouteTable(DefaultRoutes[:1])).Build()
		require.Error(t, err)
		assert.True(t, IsRouteError(err))
	})

	t.Run("custom routes and picker", func(t *testing.T) {
		routes := DefaultRouteTable().Ranked()
		observer := NewTestObserver()
		sim, err := NewSimulationBuilder().
			WithCars(2).
			WithRoutes(routes).
			WithPicker(FixedPicker{{core.South, core.Left}}).
			WithObserver(observer).
			WithObserver(nil).
			Build()
		require.NoError(t, err)
		assert.Same(t, routes, sim.Intersection().Routes())

		_, err = sim.Run(context.Background())
		require.NoError(t, err)
		AssertTrace(t, observer, 1, "enter", "NW", "NE", "SE", "finish")
	})

	t.Run("from config", func(t *testing.T) {
		config := DefaultConfig()
		config.Cars = 6
		config.MaxTasks = 10
		config.Seed = 11
		config.WaitStrategy = StrategyYield
		config.RankedOrder = true
		config.Routes = []RouteConfig{{Direction: "north", Maneuver: "right", Quadrants: []string{"NW"}}}

		sim, err := NewSimulationBuilder().FromConfig(config).Build()
		require.NoError(t, err)

		assert.Equal(t, 6, sim.cars)
		assert.Equal(t, 10, sim.maxTasks)
		assert.True(t, sim.Intersection().ranked)
		assert.Equal(t, StrategyYield, sim.Intersection().Lock(core.SE).Strategy().Name())

		report, err := sim.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 6, report.Completed)
	})

	t.Run("from invalid config", func(t *testing.T) {
		config := DefaultConfig()
		config.Routes = []RouteConfig{{Direction: "north", Maneuver: "left", Quadrants: []string{"NW"}}}

		_, err := NewSimulationBuilder().FromConfig(config).Build()
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})
}
