package stoplight

import (
	"fmt"

	"github.com/anggasct/stoplight/pkg/core"
	"github.com/anggasct/stoplight/pkg/utils"
)

// RouteSpec is the quadrant list for one direction and maneuver, as data
type RouteSpec struct {
	Direction core.Direction
	Maneuver  core.Maneuver
	Quadrants []core.Quadrant
}

// DefaultRoutes is the quadrant table for a right-hand-traffic four-way
// intersection. Each list is in the order the car passes the quadrants.
var DefaultRoutes = []RouteSpec{
	{core.North, core.Straight, []core.Quadrant{core.NW, core.SW}},
	{core.North, core.Left, []core.Quadrant{core.NW, core.SW, core.SE}},
	{core.North, core.Right, []core.Quadrant{core.NW}},

	{core.East, core.Straight, []core.Quadrant{core.NE, core.NW}},
	{core.East, core.Left, []core.Quadrant{core.NE, core.NW, core.SW}},
	{core.East, core.Right, []core.Quadrant{core.NE}},

	{core.South, core.Straight, []core.Quadrant{core.SE, core.NE}},
	{core.South, core.Left, []core.Quadrant{core.SE, core.NE, core.NW}},
	{core.South, core.Right, []core.Quadrant{core.SE}},

	{core.West, core.Straight, []core.Quadrant{core.SW, core.SE}},
	{core.West, core.Left, []core.Quadrant{core.SW, core.SE, core.NE}},
	{core.West, core.Right, []core.Quadrant{core.SW}},
}

type routeKey struct {
	direction core.Direction
	maneuver  core.Maneuver
}

// RouteTable maps a direction and maneuver to the quadrants the car must hold
type RouteTable struct {
	routes map[routeKey]core.Route
}

// NewRouteTable builds a table from specs. Later specs replace earlier ones
// for the same direction and maneuver. The table is not validated; call
// Validate before use.
func NewRouteTable(specs []RouteSpec) *RouteTable {
	t := &RouteTable{routes: make(map[routeKey]core.Route, len(specs))}
	for _, spec := range specs {
		t.routes[routeKey{spec.Direction, spec.Maneuver}] = core.Route{
			Direction: spec.Direction,
			Maneuver:  spec.Maneuver,
			Quadrants: append([]core.Quadrant(nil), spec.Quadrants...),
		}
	}
	return t
}

// DefaultRouteTable returns a table holding DefaultRoutes
func DefaultRouteTable() *RouteTable {
	return NewRouteTable(DefaultRoutes)
}

// Lookup returns the route for a direction and maneuver
func (t *RouteTable) Lookup(direction core.Direction, maneuver core.Maneuver) (core.Route, error) {
	route, ok := t.routes[routeKey{direction, maneuver}]
	if !ok {
		return core.Route{}, utils.NewRouteError(utils.CodeRouteNotFound, "route not found", direction.String(), maneuver.String())
	}
	route.Quadrants = append([]core.Quadrant(nil), route.Quadrants...)
	return route, nil
}

// Routes returns every route ordered by direction then maneuver
func (t *RouteTable) Routes() []core.Route {
	routes := make([]core.Route, 0, len(t.routes))
	for _, d := range core.AllDirections {
		for _, m := range core.AllManeuvers {
			if route, err := t.Lookup(d, m); err == nil {
				routes = append(routes, route)
			}
		}
	}
	return routes
}

// Validate checks that every direction and maneuver has a route with the
// right number of distinct, valid quadrants. All problems are reported.
func (t *RouteTable) Validate() error {
	collector := utils.NewErrorCollector()

	for key := range t.routes {
		if !key.direction.Valid() || !key.maneuver.Valid() {
			collector.Add(utils.NewRouteError(utils.CodeInvalidRoute, "unknown direction or maneuver",
				key.direction.String(), key.maneuver.String()))
		}
	}

	for _, d := range core.AllDirections {
		for _, m := range core.AllManeuvers {
			route, ok := t.routes[routeKey{d, m}]
			if !ok {
				collector.Add(utils.NewRouteError(utils.CodeRouteNotFound, "route not found", d.String(), m.String()))
				continue
			}

			if got, want := len(route.Quadrants), m.QuadrantCount(); got != want {
				collector.Add(utils.NewRouteError(utils.CodeInvalidRoute,
					fmt.Sprintf("route crosses %d quadrants, want %d", got, want), d.String(), m.String()))
			}

			seen := make(map[core.Quadrant]bool, len(route.Quadrants))
			for _, q := range route.Quadrants {
				if !q.Valid() {
					collector.Add(utils.NewRouteError(utils.CodeInvalidRoute,
						fmt.Sprintf("invalid quadrant %d", int(q)), d.String(), m.String()))
					continue
				}
				if seen[q] {
					collector.Add(utils.NewRouteError(utils.CodeInvalidRoute,
						fmt.Sprintf("quadrant %s listed twice", q), d.String(), m.String()))
				}
				seen[q] = true
			}
		}
	}

	return collector.Err()
}

// Overlap returns the quadrants shared by a and b, in a's order
func Overlap(a, b core.Route) []core.Quadrant {
	var shared []core.Quadrant
	for _, q := range a.Quadrants {
		if b.Contains(q) {
			shared = append(shared, q)
		}
	}
	return shared
}

// OrderConflict records two routes that acquire the same two quadrants in
// opposite order. Taken one lock at a time, such a pair can deadlock.
type OrderConflict struct {
	A, B          core.Route
	First, Second core.Quadrant
}

// String describes the conflict
func (c OrderConflict) String() string {
	return fmt.Sprintf("%s takes %s before %s, %s takes %s before %s",
		c.A.Key(), c.First, c.Second, c.B.Key(), c.Second, c.First)
}

// OrderConflicts checks every pair of routes and returns each pair that
// orders two shared quadrants differently. An empty result means the table
// is consistent with one global acquisition order.
func (t *RouteTable) OrderConflicts() []OrderConflict {
	routes := t.Routes()
	var conflicts []OrderConflict

	for i := 0; i < len(routes); i++ {
		for j := i + 1; j < len(routes); j++ {
			a, b := routes[i], routes[j]
			shared := Overlap(a, b)
			for x := 0; x < len(shared); x++ {
				for y := x + 1; y < len(shared); y++ {
					if position(b, shared[x]) > position(b, shared[y]) {
						conflicts = append(conflicts, OrderConflict{A: a, B: b, First: shared[x], Second: shared[y]})
					}
				}
			}
		}
	}

	return conflicts
}

func position(r core.Route, q core.Quadrant) int {
	for i, rq := range r.Quadrants {
		if rq == q {
			return i
		}
	}
	return -1
}

// Ranked returns a copy of the table with every route sorted by quadrant
// rank. A ranked table never has order conflicts.
func (t *RouteTable) Ranked() *RouteTable {
	specs := make([]RouteSpec, 0, len(t.routes))
	for key, route := range t.routes {
		quadrants := append([]core.Quadrant(nil), route.Quadrants...)
		for i := 1; i < len(quadrants); i++ {
			for j := i; j > 0 && quadrants[j] < quadrants[j-1]; j-- {
				quadrants[j], quadrants[j-1] = quadrants[j-1], quadrants[j]
			}
		}
		specs = append(specs, RouteSpec{key.direction, key.maneuver, quadrants})
	}
	return NewRouteTable(specs)
}
