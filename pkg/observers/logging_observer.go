// Package observers provides observers for monitoring cars crossing the
// intersection
package observers

import (
	"log/slog"
	"strings"

	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/logging"
)

// LoggingObserver writes every crossing event to a structured logger.
//
// Entering, passing and leaving are logged at INFO and make up the trace of
// the run. Approaches, retries and releases are DEBUG. Failures are ERROR.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a logging observer on logger. A nil logger means
// the process-wide one from pkg/logging.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = logging.WithComponent("intersection")
	}
	return &LoggingObserver{logger: logger}
}

// NewDefaultLoggingObserver creates a logging observer on the process-wide logger
func NewDefaultLoggingObserver() *LoggingObserver {
	return NewLoggingObserver(nil)
}

func (o *LoggingObserver) car(car core.Car) *slog.Logger {
	return o.logger.With("car", car.ID, "task", car.Task.Short())
}

func quadrantList(quadrants []core.Quadrant) string {
	names := make([]string, len(quadrants))
	for i, q := range quadrants {
		names[i] = q.String()
	}
	return strings.Join(names, ",")
}

// OnEnter logs that the car holds its route
func (o *LoggingObserver) OnEnter(car core.Car, route core.Route) {
	o.car(car).Info("entered intersection", "heading", route.Heading(), "quadrants", quadrantList(route.Quadrants))
}

// OnQuadrant logs each quadrant the car passes
func (o *LoggingObserver) OnQuadrant(car core.Car, quadrant core.Quadrant) {
	o.car(car).Info("in quadrant", "quadrant", quadrant.String())
}

// OnFinish logs that the car left the intersection
func (o *LoggingObserver) OnFinish(car core.Car) {
	o.car(car).Info("left intersection", "exit", car.Maneuver.Exit(car.Direction).String())
}

// OnApproach logs the car arriving
func (o *LoggingObserver) OnApproach(car core.Car, route core.Route) {
	o.car(car).Debug("approaching", "heading", route.Heading())
}

// OnRetry logs a rolled back acquisition attempt
func (o *LoggingObserver) OnRetry(car core.Car, conflict core.Quadrant, attempt int) {
	o.car(car).Debug("quadrant busy, retrying", "conflict", conflict.String(), "attempt", attempt)
}

// OnRelease logs the route being released
func (o *LoggingObserver) OnRelease(car core.Car, route core.Route) {
	o.car(car).Debug("released route", "quadrants", quadrantList(route.Quadrants))
}

// OnError logs errors
func (o *LoggingObserver) OnError(err error, car core.Car) {
	if car.ID == 0 {
		o.logger.Error("crossing failed", "error", err)
		return
	}
	o.car(car).Error("crossing failed", "error", err)
}

// OnSimulationStarted logs the start of a run
func (o *LoggingObserver) OnSimulationStarted(cars int) {
	o.logger.Info("simulation started", "cars", cars)
}

// OnSimulationFinished logs the end of a run
func (o *LoggingObserver) OnSimulationFinished(completed int) {
	o.logger.Info("simulation finished", "completed", completed)
}
