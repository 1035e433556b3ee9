package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Bounds returns the axis-aligned box spanned by two points.
func Bounds(a, b Point) orb.Bound {
	return orb.MultiPoint{a.orb(), b.orb()}.Bound()
}

// orb uses [lon, lat] order
func (p Point) orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// PathLength sums the great-circle length of consecutive legs in meters.
func PathLength(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// PathFeatureCollection renders a path as a GeoJSON LineString plus
// "start" and "end" point features. props are attached to the line.
func PathFeatureCollection(path []Point, props map[string]any) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(path) == 0 {
		return fc
	}

	line := make(orb.LineString, 0, len(path))
	for _, p := range path {
		line = append(line, p.orb())
	}
	lf := geojson.NewFeature(line)
	for k, v := range props {
		lf.Properties[k] = v
	}
	lf.Properties["role"] = "route"
	fc.Append(lf)

	start := geojson.NewFeature(path[0].orb())
	start.Properties["role"] = "start"
	fc.Append(start)

	end := geojson.NewFeature(path[len(path)-1].orb())
	end.Properties["role"] = "end"
	fc.Append(end)

	return fc
}
