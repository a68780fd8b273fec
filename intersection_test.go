package stoplight

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/stoplight/pkg/core"
)

func TestIntersection_NorthStraight(t *testing.T) {
	x, observer := CreateTestIntersection(t)
	car := core.NewCar(1, core.North, core.Straight)

	require.NoError(t, x.Cross(context.Background(), car))

	AssertTrace(t, observer, 1, "enter", "NW", "SW", "finish")
	AssertAllFree(t, x)

	events := observer.EventsFor(1)
	require.Len(t, events, 6)
	assert.Equal(t, TraceApproach, events[0].Kind)
	assert.Equal(t, "approaching from North going South", events[1].Route.Heading())
	assert.Equal(t, TraceRelease, events[5].Kind)
	assert.Zero(t, observer.Count(TraceRetry))
}

func TestIntersection_EveryRoute(t *testing.T) {
	x, observer := CreateTestIntersection(t)

	for i, choice := range EveryRoute() {
		car := core.NewCar(i+1, choice.Direction, choice.Maneuver)
		require.NoError(t, x.Cross(context.Background(), car))

		route, err := x.Route(car)
		require.NoError(t, err)
		expected := []string{"enter"}
		for _, q := range route.Quadrants {
			expected = append(expected, q.String())
		}
		AssertTrace(t, observer, car.ID, append(expected, "finish")...)
	}

	assert.Equal(t, 12, observer.Count(TraceFinish))
	AssertAllFree(t, x)
}

func TestIntersection_DisjointRoutes(t *testing.T) {
	x, observer := CreateTestIntersection(t)
	north := core.NewCar(1, core.North, core.Straight)
	south := core.NewCar(2, core.South, core.Straight)

	northRoute, err := x.Route(north)
	require.NoError(t, err)
	held := x.LockSet(northRoute)
	require.NoError(t, held.Acquire(context.Background(), north.Task))

	select {
	case err := <-CrossAsync(context.Background(), x, south):
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("South/Straight should not wait for North/Straight")
	}

	AssertTrace(t, observer, 2, "enter", "SE", "NE", "finish")
	assert.Zero(t, observer.Count(TraceRetry))
	require.NoError(t, held.Release(north.Task))
}

func TestIntersection_OverlappingLeftTurns(t *testing.T) {
	x, observer := CreateTestIntersection(t)
	north := core.NewCar(1, core.North, core.Left)
	east := core.NewCar(2, core.East, core.Left)

	northRoute, err := x.Route(north)
	require.NoError(t, err)
	held := x.LockSet(northRoute)
	require.NoError(t, held.Acquire(context.Background(), north.Task))

	done := CrossAsync(context.Background(), x, east)
	WaitForWaiters(t, x.Lock(core.NW), 1, time.Second)

	occupied := x.Occupancy()
	assert.Len(t, occupied, 3)
	for q, task := range occupied {
		assert.Equal(t, north.Task, task, "quadrant %s", q)
	}
	assert.NotContains(t, occupied, core.NE, "the waiting car holds none of its quadrants")

	require.NoError(t, held.Release(north.Task))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("East/Left should cross once North/Left has left")
	}

	AssertTrace(t, observer, 2, "enter", "NE", "NW", "SW", "finish")

	var retries []TraceEvent
	for _, e := range observer.EventsFor(2) {
		if e.Kind == TraceRetry {
			retries = append(retries, e)
		}
	}
	require.NotEmpty(t, retries)
	assert.Equal(t, core.NW, retries[0].Quadrant)
	assert.Equal(t, 1, retries[0].Attempt)
	AssertAllFree(t, x)
}

func TestIntersection_OccupancyNeverShowsPartialRoute(t *testing.T) {
	x, observer := CreateTestIntersection(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	routes := make(map[core.TaskID][]core.Quadrant)
	var cars []core.Car
	for round := 0; round < 20; round++ {
		for _, choice := range EveryRoute() {
			car := core.NewCar(len(cars)+1, choice.Direction, choice.Maneuver)
			route, err := x.Route(car)
			require.NoError(t, err)
			routes[car.Task] = route.Quadrants
			cars = append(cars, car)
		}
	}

	stop := make(chan struct{})
	sampled := make(chan []string, 1)
	go func() {
		var partial []string
		for {
			select {
			case <-stop:
				sampled <- partial
				return
			default:
			}

			held := make(map[core.TaskID]int)
			for _, task := range x.Occupancy() {
				held[task]++
			}
			for task, n := range held {
				if want := len(routes[task]); n != want {
					partial = append(partial, fmt.Sprintf("%s holds %d of %d quadrants", task.Short(), n, want))
				}
			}
		}
	}()

	var results []<-chan error
	for _, car := range cars {
		results = append(results, CrossAsync(ctx, x, car))
	}
	for _, done := range results {
		assert.NoError(t, <-done)
	}
	close(stop)

	assert.Empty(t, <-sampled)
	assert.Equal(t, len(cars), observer.Count(TraceFinish))
	AssertAllFree(t, x)
}

func TestIntersection_UseScheduler(t *testing.T) {
	x, _ := CreateTestIntersection(t, WithQuadrantLockOptions(WithWaitStrategy(YieldWait{})))
	scheduler := &countingScheduler{GoroutineScheduler: core.NewGoroutineScheduler(context.Background(), 0)}
	x.UseScheduler(scheduler)

	for _, q := range core.AllQuadrants {
		strategy, ok := x.Lock(q).Strategy().(YieldWait)
		require.True(t, ok, q.String())
		assert.Same(t, scheduler, strategy.Scheduler, q.String())
	}

	blocker := core.NewCar(1, core.North, core.Right)
	car := core.NewCar(2, core.North, core.Straight)
	blockerRoute, err := x.Route(blocker)
	require.NoError(t, err)
	held := x.LockSet(blockerRoute)
	require.NoError(t, held.Acquire(context.Background(), blocker.Task))

	done := CrossAsync(context.Background(), x, car)
	deadline := time.Now().Add(time.Second)
	for scheduler.yields.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected the waiting car to yield through the scheduler")
		}
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, held.Release(blocker.Task))
	require.NoError(t, <-done)
	AssertAllFree(t, x)
}

func TestIntersection_OppositeOrderPairsDoNotDeadlock(t *testing.T) {
	for _, ranked := range []bool{false, true} {
		x, observer := CreateTestIntersection(t, WithRankedAcquisition(ranked))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		var results []<-chan error
		id := 0
		for round := 0; round < 25; round++ {
			for _, d := range []core.Direction{core.North, core.South, core.East, core.West} {
				id++
				results = append(results, CrossAsync(ctx, x, core.NewCar(id, d, core.Left)))
			}
		}
		for _, done := range results {
			assert.NoError(t, <-done)
		}
		cancel()

		assert.Equal(t, id, observer.Count(TraceFinish))
		AssertAllFree(t, x)
	}
}

func TestIntersection_RankedAcquisition(t *testing.T) {
	x, observer := CreateTestIntersection(t, WithRankedAcquisition(true))
	car := core.NewCar(1, core.South, core.Left)

	route, err := x.Route(car)
	require.NoError(t, err)
	assert.Equal(t, "{NW, NE, SE}", x.LockSet(route).String())

	require.NoError(t, x.Cross(context.Background(), car))
	AssertTrace(t, observer, 1, "enter", "SE", "NE", "NW", "finish")
}

func TestIntersection_UnknownRoute(t *testing.T) {
	x, observer := CreateTestIntersection(t)
	car := core.Car{ID: 7, Task: core.NewTaskID(), Direction: core.Direction(9), Maneuver: core.Left}

	err := x.Cross(context.Background(), car)
	require.Error(t, err)
	assert.True(t, IsRouteError(err))
	assert.Contains(t, err.Error(), "car: 7")
	assert.Equal(t, 1, observer.Count(TraceError))
	assert.Zero(t, observer.Count(TraceEnter))
}

func TestIntersection_InvalidRouteTable(t *testing.T) {
	_, err := NewIntersection(WithRoutes(NewRouteTable(DefaultRoutes[:6])))
	require.Error(t, err)
	assert.True(t, IsRouteError(err))
}

func TestIntersection_CancelledCar(t *testing.T) {
	x, observer := CreateTestIntersection(t)
	blocker := core.NewCar(1, core.West, core.Right)
	car := core.NewCar(2, core.North, core.Straight)

	blockerRoute, err := x.Route(blocker)
	require.NoError(t, err)
	held := x.LockSet(blockerRoute)
	require.NoError(t, held.Acquire(context.Background(), blocker.Task))

	ctx, cancel := context.WithCancel(context.Background())
	done := CrossAsync(ctx, x, car)
	WaitForWaiters(t, x.Lock(core.SW), 1, time.Second)
	cancel()

	err = <-done
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, 1, observer.Count(TraceError))
	assert.Zero(t, observer.Count(TraceEnter))

	require.NoError(t, held.Release(blocker.Task))
	AssertAllFree(t, x)
}

func TestIntersection_Close(t *testing.T) {
	x, _ := CreateTestIntersection(t)
	holder := core.NewCar(1, core.North, core.Right)
	car := core.NewCar(2, core.North, core.Straight)

	route, err := x.Route(holder)
	require.NoError(t, err)
	held := x.LockSet(route)
	require.NoError(t, held.Acquire(context.Background(), holder.Task))

	ctx, cancel := context.WithCancel(context.Background())
	done := CrossAsync(ctx, x, car)
	WaitForWaiters(t, x.Lock(core.NW), 1, time.Second)

	err = x.Close()
	assert.ErrorIs(t, err, ErrLockBusy)

	cancel()
	<-done
	require.NoError(t, x.Close())

	err = x.Cross(context.Background(), core.NewCar(3, core.East, core.Right))
	assert.ErrorIs(t, err, ErrLockDestroyed)
}

func TestIntersection_Accessors(t *testing.T) {
	x, _ := CreateTestIntersection(t)

	assert.NotNil(t, x.Section())
	assert.Equal(t, 1, x.Observers().Len())
	assert.Len(t, x.Routes().Routes(), 12)
	for _, q := range core.AllQuadrants {
		assert.Equal(t, q.String(), x.Lock(q).Name())
	}

	x.AddObserver(NewTestObserver())
	assert.Equal(t, 2, x.Observers().Len())
}
