package core

import (
	"time"

	"github.com/google/uuid"

	"pigeonflight/pkg/geo"
	"pigeonflight/pkg/route"
	"pigeonflight/pkg/sim"
	"pigeonflight/pkg/terrain"
)

// Simulation is everything one run owns. It is created per init and never
// shared between runs.
type Simulation struct {
	ID      string
	Start   geo.Point
	End     geo.Point
	Grid    *route.Grid
	Route   route.Result
	State   sim.FlightState
	Trail   *geo.Trail
	Ticks   int
	Created time.Time
}

// courseWindow is how many recent positions the reported course spans.
const courseWindow = 10

// NewSimulation plans the route and releases a pigeon at start.
func NewSimulation(start, end geo.Point, m terrain.Model) *Simulation {
	grid := route.BuildGrid(start, end, m)
	trail := geo.NewTrail(courseWindow)
	trail.Push(start)
	return &Simulation{
		ID:      uuid.NewString(),
		Start:   start,
		End:     end,
		Grid:    grid,
		Route:   route.Search(start, end, grid),
		State:   sim.NewFlightState(start),
		Trail:   trail,
		Created: time.Now(),
	}
}

// Summary describes a finished run.
type Summary struct {
	RunID    string          `json:"run_id"`
	Outcome  route.Outcome   `json:"route_outcome"`
	Waypoint int             `json:"waypoints"`
	Ticks    int             `json:"ticks"`
	Arrived  bool            `json:"arrived"`
	Dropped  int64           `json:"dropped"`
	FlownM   float64         `json:"flown_m"`
	Course   float64         `json:"course"`
	Final    sim.FlightState `json:"final"`
	Elapsed  time.Duration   `json:"elapsed_ns"`
}

func (s *Simulation) summary() Summary {
	return Summary{
		RunID:    s.ID,
		Outcome:  s.Route.Outcome,
		Waypoint: len(s.Route.Path),
		Ticks:    s.Ticks,
		Arrived:  s.State.Arrived(),
		FlownM:   s.Trail.Distance(),
		Course:   s.Trail.Course(geo.Bearing(s.Start, s.End)),
		Final:    s.State,
		Elapsed:  time.Since(s.Created),
	}
}
