package core

import (
	"fmt"
	"strings"
)

// Quadrant is one of the four exclusive zones of the intersection. The
// numeric order is the global rank NW < NE < SE < SW.
type Quadrant int

const (
	NW Quadrant = iota
	NE
	SE
	SW
)

// AllQuadrants lists every quadrant in rank order
var AllQuadrants = []Quadrant{NW, NE, SE, SW}

var quadrantNames = [...]string{"NW", "NE", "SE", "SW"}

// String returns the quadrant's short name
func (q Quadrant) String() string {
	if !q.Valid() {
		return fmt.Sprintf("Quadrant(%d)", int(q))
	}
	return quadrantNames[q]
}

// Valid reports whether q names one of the four quadrants
func (q Quadrant) Valid() bool {
	return q >= NW && q <= SW
}

// ParseQuadrant parses a quadrant name, case-insensitively
func ParseQuadrant(s string) (Quadrant, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range quadrantNames {
		if n == name {
			return Quadrant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown quadrant %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (q Quadrant) MarshalText() ([]byte, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("invalid quadrant %d", int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (q *Quadrant) UnmarshalText(text []byte) error {
	parsed, err := ParseQuadrant(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Direction is the side of the intersection a car approaches from
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// AllDirections lists the four approaches
var AllDirections = []Direction{North, East, South, West}

var directionNames = [...]string{"North", "East", "South", "West"}

// String returns the direction's name
func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Valid reports whether d names one of the four approaches
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// Opposite returns the direction across the intersection
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Left returns the direction reached by turning left when approaching from d
func (d Direction) Left() Direction {
	return (d + 1) % 4
}

// Right returns the direction reached by turning right when approaching from d
func (d Direction) Right() Direction {
	return (d + 3) % 4
}

// ParseDirection parses "north", "N" and similar spellings
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range directionNames {
		full := strings.ToLower(n)
		if name == full || name == full[:1] {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(strings.ToLower(d.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Maneuver is the path a car takes through the intersection
type Maneuver int

const (
	Left Maneuver = iota
	Straight
	Right
)

// AllManeuvers lists the three maneuvers
var AllManeuvers = []Maneuver{Left, Straight, Right}

var maneuverNames = [...]string{"Left", "Straight", "Right"}

// String returns the maneuver's name
func (m Maneuver) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Maneuver(%d)", int(m))
	}
	return maneuverNames[m]
}

// Valid reports whether m is a known maneuver
func (m Maneuver) Valid() bool {
	return m >= Left && m <= Right
}

// QuadrantCount returns how many quadrants the maneuver crosses
func (m Maneuver) QuadrantCount() int {
	switch m {
	case Left:
		return 3
	case Straight:
		return 2
	case Right:
		return 1
	default:
		return 0
	}
}

// Exit returns the direction a car leaves towards after performing m
func (m Maneuver) Exit(from Direction) Direction {
	switch m {
	case Left:
		return from.Left()
	case Right:
		return from.Right()
	default:
		return from.Opposite()
	}
}

// ParseManeuver parses "left", "straight" or "right"
func ParseManeuver(s string) (Maneuver, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range maneuverNames {
		if name == strings.ToLower(n) {
			return Maneuver(i), nil
		}
	}
	return 0, fmt.Errorf("unknown maneuver %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m Maneuver) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid maneuver %d", int(m))
	}
	return []byte(strings.ToLower(m.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Maneuver) UnmarshalText(text []byte) error {
	parsed, err := ParseManeuver(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Car is one actor crossing the intersection
type Car struct {
	ID        int
	Task      TaskID
	Direction Direction
	Maneuver  Maneuver
}

// NewCar creates a car with a fresh task identity
func NewCar(id int, direction Direction, maneuver Maneuver) Car {
	return Car{
		ID:        id,
		Task:      NewTaskID(),
		Direction: direction,
		Maneuver:  maneuver,
	}
}

// String returns a short description used in traces
func (c Car) String() string {
	return fmt.Sprintf("car %d (%s %s)", c.ID, c.Direction, c.Maneuver)
}

// Route is the ordered list of quadrants a maneuver must hold
type Route struct {
	Direction Direction
	Maneuver  Maneuver
	Quadrants []Quadrant
}

// Heading describes the route the way a driver would
func (r Route) Heading() string {
	return fmt.Sprintf("approaching from %s going %s", r.Direction, r.Maneuver.Exit(r.Direction))
}

// Contains reports whether the route crosses q
func (r Route) Contains(q Quadrant) bool {
	for _, rq := range r.Quadrants {
		if rq == q {
			return true
		}
	}
	return false
}

// Key returns a stable "Direction/Maneuver" label
func (r Route) Key() string {
	return RouteKey(r.Direction, r.Maneuver)
}

// RouteKey returns the label for a direction and maneuver pair
func RouteKey(d Direction, m Maneuver) string {
	return d.String() + "/" + m.String()
}
