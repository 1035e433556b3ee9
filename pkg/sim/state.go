// Package sim steps a single homing pigeon toward its destination.
package sim

import "pigeonflight/pkg/geo"

// Stage is the flight phase of a pigeon.
type Stage string

const (
	// StageFlying is the initial stage; the pigeon is still en route.
	StageFlying Stage = "flying"
	// StageArrived is terminal.
	StageArrived Stage = "arrived"
)

const (
	// InitialVelocity is the airspeed at release, m/s.
	InitialVelocity = 18.0
	// InitialEnergy is a full reserve.
	InitialEnergy = 100.0
)

// FlightState is the full simulation state of one pigeon. It is a value; Step
// never mutates its input.
type FlightState struct {
	Position geo.Point `json:"position"`
	Velocity float64   `json:"velocity"`
	Energy   float64   `json:"energy"`
	Stage    Stage     `json:"stage"`
}

// NewFlightState releases a fresh pigeon at start.
func NewFlightState(start geo.Point) FlightState {
	return FlightState{
		Position: start,
		Velocity: InitialVelocity,
		Energy:   InitialEnergy,
		Stage:    StageFlying,
	}
}

// Arrived reports whether the pigeon has reached the terminal stage.
func (s FlightState) Arrived() bool {
	return s.Stage == StageArrived
}
