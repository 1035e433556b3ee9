package sim

import (
	"pigeonflight/pkg/geo"
	"pigeonflight/pkg/terrain"
)

// Update is the observable result of one flying tick.
type Update struct {
	Position  geo.Point
	Speed     float64
	Energy    float64
	Elevation float64
}

// Step advances the pigeon one tick toward end. It returns the next state, the
// update to publish, and whether the pigeon is still flying. When the pigeon
// is within ArrivalRange of end (or has already arrived) the returned state is
// StageArrived, the update is zero and flying is false.
func Step(s FlightState, end geo.Point, m terrain.Model) (FlightState, Update, bool) {
	if s.Arrived() || geo.Distance(s.Position, end) < ArrivalRange {
		s.Stage = StageArrived
		return s, Update{}, false
	}

	heading := geo.Bearing(s.Position, end)
	elev := m.Elevation(s.Position.Lat, s.Position.Lon)
	wind := m.WindAt(s.Position.Lat, s.Position.Lon)

	next := s
	next.Velocity = Accelerate(s.Velocity, AirDensity(elev))
	speed := GroundSpeed(next.Velocity, wind.Along(heading), s.Energy)
	next.Position = geo.DestinationPoint(s.Position, speed*DT, heading)
	next.Energy = s.Energy - EnergyDecay

	return next, Update{
		Position:  next.Position,
		Speed:     speed,
		Energy:    next.Energy,
		Elevation: elev,
	}, true
}
