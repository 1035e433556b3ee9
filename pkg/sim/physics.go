package sim

import "math"

// Physical constants of the flight model.
const (
	DT           = 1.0   // seconds per tick
	Mass         = 0.4   // kg
	DragCoeff    = 0.9   // Cd
	Area         = 0.05  // m²
	BaseThrust   = 6.0   // N
	SeaLevelRho  = 1.225 // kg/m³
	ScaleHeight  = 8000.0
	MinGround    = 8.0  // m/s, ground speed floor
	EnergyDecay  = 0.02 // per tick
	ArrivalRange = 50.0 // meters
)

// AirDensity is a linear density-altitude model. It goes negative above
// ScaleHeight and is deliberately not clamped.
func AirDensity(elevation float64) float64 {
	return SeaLevelRho * (1 - elevation/ScaleHeight)
}

// Drag returns the drag force for the given air density and airspeed.
func Drag(density, velocity float64) float64 {
	return 0.5 * density * DragCoeff * Area * velocity * velocity
}

// Accelerate applies one explicit Euler step of thrust against drag.
func Accelerate(velocity, density float64) float64 {
	accel := (BaseThrust - Drag(density, velocity)) / Mass
	return velocity + accel*DT
}

// FatigueFactor maps energy in [0,100] to a speed multiplier in [0.5,1].
// Values outside that range are not clamped.
func FatigueFactor(energy float64) float64 {
	return 0.5 + energy/200
}

// GroundSpeed combines airspeed and tailwind, scaled by fatigue and floored.
func GroundSpeed(velocity, tailwind, energy float64) float64 {
	return math.Max(MinGround, (velocity+tailwind)*FatigueFactor(energy))
}
