// Package geo provides spherical-Earth geodesy helpers.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000

var (
	// ErrNotFinite is returned for NaN or infinite coordinates.
	ErrNotFinite = errors.New("coordinate is not a finite number")
	// ErrOutOfRange is returned for coordinates outside the valid lat/lng range.
	ErrOutOfRange = errors.New("coordinate out of range")
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Validate reports whether p is a usable coordinate.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return ErrNotFinite
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrOutOfRange, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v", ErrOutOfRange, p.Lon)
	}
	return nil
}

func toRad(deg float64) float64 { return deg * (math.Pi / 180.0) }

func toDeg(rad float64) float64 { return rad * (180.0 / math.Pi) }

// Distance calculates the Haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	dLat := toRad(p2.Lat - p1.Lat)
	dLon := toRad(p2.Lon - p1.Lon)
	lat1 := toRad(p1.Lat)
	lat2 := toRad(p2.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// DestinationPoint calculates the destination point from a start point, given distance (in meters) and bearing (in degrees).
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	delta := distMeters / EarthRadius
	lat1 := toRad(start.Lat)
	lon1 := toRad(start.Lon)
	brng := toRad(bearing)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return Point{
		Lat: toDeg(lat2),
		Lon: toDeg(lon2),
	}
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees, in [0, 360).
func Bearing(p1, p2 Point) float64 {
	lat1 := toRad(p1.Lat)
	lat2 := toRad(p2.Lat)
	dLon := toRad(p2.Lon - p1.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := toDeg(math.Atan2(y, x))

	if brng < 0 {
		brng += 360.0
	}
	// atan2 can return exactly -0 or a tiny negative that rounds to 360
	if brng >= 360.0 {
		brng -= 360.0
	}
	return brng
}
