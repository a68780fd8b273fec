package core_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anggasct/stoplight/pkg/core"
)

type recordingObserver struct {
	core.BaseObserver
	mu     sync.Mutex
	events []string
	errors []error
}

func (o *recordingObserver) add(event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) OnEnter(car core.Car, route core.Route) { o.add("enter " + route.Key()) }
func (o *recordingObserver) OnQuadrant(car core.Car, q core.Quadrant) { o.add(q.String()) }
func (o *recordingObserver) OnFinish(car core.Car) { o.add("finish") }
func (o *recordingObserver) OnRetry(car core.Car, q core.Quadrant, attempt int) {
	o.add("retry " + q.String())
}
func (o *recordingObserver) OnError(err error, car core.Car) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, err)
}

type basicObserver struct {
	count int
}

func (o *basicObserver) OnEnter(car core.Car, route core.Route) { o.count++ }
func (o *basicObserver) OnQuadrant(car core.Car, q core.Quadrant) { o.count++ }
func (o *basicObserver) OnFinish(car core.Car) { o.count++ }

type panickingObserver struct {
	core.BaseObserver
}

func (o *panickingObserver) OnQuadrant(car core.Car, q core.Quadrant) {
	panic("observer bug")
}

func TestObserverManager(t *testing.T) {
	car := core.NewCar(1, core.North, core.Straight)
	route := core.Route{Direction: core.North, Maneuver: core.Straight, Quadrants: []core.Quadrant{core.NW, core.SW}}

	t.Run("fans out in registration order", func(t *testing.T) {
		om := core.NewObserverManager()
		rec := &recordingObserver{}
		basic := &basicObserver{}
		om.AddObserver(rec)
		om.AddObserver(basic)
		om.AddObserver(nil)
		assert.Equal(t, 2, om.Len())

		om.NotifyEnter(car, route)
		om.NotifyQuadrant(car, core.NW)
		om.NotifyQuadrant(car, core.SW)
		om.NotifyFinish(car)
		om.NotifyRetry(car, core.NW, 1)

		assert.Equal(t, []string{"enter North/Straight", "NW", "SW", "finish", "retry NW"}, rec.events)
		assert.Equal(t, 4, basic.count, "basic observers only see required events")
	})

	t.Run("remove observer", func(t *testing.T) {
		om := core.NewObserverManager()
		rec := &recordingObserver{}
		om.AddObserver(rec)
		om.RemoveObserver(rec)
		assert.Equal(t, 0, om.Len())

		om.NotifyFinish(car)
		assert.Empty(t, rec.events)
	})

	t.Run("panics are isolated", func(t *testing.T) {
		om := core.NewObserverManager()
		bad := &panickingObserver{}
		rec := &recordingObserver{}
		om.AddObserver(bad)
		om.AddObserver(rec)

		assert.NotPanics(t, func() { om.NotifyQuadrant(car, core.NW) })
		assert.Equal(t, []string{"NW"}, rec.events)
	})

	t.Run("panic is reported to the panicking observer", func(t *testing.T) {
		om := core.NewObserverManager()
		rec := &panicRecorder{}
		om.AddObserver(rec)

		om.NotifyQuadrant(car, core.SE)
		if assert.Len(t, rec.errors, 1) {
			assert.Contains(t, rec.errors[0].Error(), "observer panic in OnQuadrant")
		}
	})
}

type panicRecorder struct {
	recordingObserver
}

func (o *panicRecorder) OnQuadrant(car core.Car, q core.Quadrant) {
	panic("bad quadrant")
}
