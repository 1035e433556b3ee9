package route

import (
	"math"

	"pigeonflight/pkg/geo"
)

// keyScale quantizes coordinates to 0.01° (about 1.1 km). Points that share a
// key are the same vertex for cost and predecessor bookkeeping.
const keyScale = 100

// Key is a coordinate rounded to two decimal degrees.
type Key struct {
	Lat int
	Lon int
}

// KeyOf quantizes p.
func KeyOf(p geo.Point) Key {
	return Key{
		Lat: int(math.Round(p.Lat * keyScale)),
		Lon: int(math.Round(p.Lon * keyScale)),
	}
}
