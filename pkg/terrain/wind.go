package terrain

import "math"

// Wind is a wind sample. Direction is a compass bearing in degrees and is
// projected onto the flight heading as-is (no from/to flip).
type Wind struct {
	Speed     float64 `json:"speed"`     // m/s
	Direction float64 `json:"direction"` // degrees
}

// WindAt returns the synthetic wind field. lat/lon are fed to the trig
// functions unconverted, which gives a fast-varying pattern.
func WindAt(lat, lon float64) Wind {
	return Wind{
		Speed:     5 + 3*math.Sin(lat),
		Direction: 45 + 30*math.Cos(lon),
	}
}

// Along returns the wind component along heading (degrees). Positive values push the flyer forward.
func (w Wind) Along(heading float64) float64 {
	return w.Speed * math.Cos(toRad(w.Direction-heading))
}
