// Package terrain provides the synthetic elevation and wind fields the route
// search and flight model run against. Nothing here reads external data.
package terrain

import "math"

const (
	// SeaLatitude is the latitude below which the whole world is sea.
	SeaLatitude = 30.0
	// MountainElevation is the height (m) above which a cell is impassable for route search.
	MountainElevation = 1500.0
	// ridgeAmplitude scales the synthetic ridge pattern.
	ridgeAmplitude = 800.0
)

// Model is the terrain/weather field consumed by the grid, the search and the flight model.
type Model interface {
	// Elevation returns terrain height in meters at lat/lon (degrees).
	Elevation(lat, lon float64) float64
	// WindAt returns the wind sample at lat/lon (degrees).
	WindAt(lat, lon float64) Wind
}

// Synthetic is the deterministic built-in terrain. The zero value is ready to use.
type Synthetic struct{}

// Elevation implements Model.
func (Synthetic) Elevation(lat, lon float64) float64 {
	return Elevation(lat, lon)
}

// WindAt implements Model.
func (Synthetic) WindAt(lat, lon float64) Wind {
	return WindAt(lat, lon)
}

// Elevation returns the synthetic height in meters. Everything south of
// SeaLatitude is sea (0). Elsewhere the ridges follow
// 800·|sin(3·lat) + cos(2·lon)| with the scaled angles taken in degrees.
func Elevation(lat, lon float64) float64 {
	if lat < SeaLatitude {
		return 0
	}
	return ridgeAmplitude * math.Abs(math.Sin(toRad(3*lat))+math.Cos(toRad(2*lon)))
}

// IsSea reports whether an elevation is sea.
func IsSea(elev float64) bool {
	return elev <= 0
}

// IsMountain reports whether an elevation blocks route search. Flight may still cross it.
func IsMountain(elev float64) bool {
	return elev > MountainElevation
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
