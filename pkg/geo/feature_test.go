package geo

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds(t *testing.T) {
	b := Bounds(Point{Lat: 31.5, Lon: 30.2}, Point{Lat: 31.0, Lon: 29.8})

	assert.Equal(t, orb.Point{29.8, 31.0}, b.Min)
	assert.Equal(t, orb.Point{30.2, 31.5}, b.Max)
}

func TestPathLength(t *testing.T) {
	path := []Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}
	assert.InDelta(t, 2*Distance(path[0], path[1]), PathLength(path), 1e-6)
	assert.Zero(t, PathLength(path[:1]))
	assert.Zero(t, PathLength(nil))
}

func TestPathFeatureCollection(t *testing.T) {
	path := []Point{{Lat: 31, Lon: 30}, {Lat: 31.1, Lon: 30}, {Lat: 31.5, Lon: 30}}

	fc := PathFeatureCollection(path, map[string]any{"outcome": "found"})
	require.Len(t, fc.Features, 3)

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok, "first feature should be a LineString")
	require.Len(t, line, 3)
	// GeoJSON order is [lon, lat]
	assert.Equal(t, 30.0, line[1][0])
	assert.Equal(t, 31.1, line[1][1])
	assert.Equal(t, "found", fc.Features[0].Properties["outcome"])
	assert.Equal(t, "route", fc.Features[0].Properties["role"])
	assert.Equal(t, "start", fc.Features[1].Properties["role"])
	assert.Equal(t, "end", fc.Features[2].Properties["role"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	back, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Len(t, back.Features, 3)
}

func TestPathFeatureCollection_Empty(t *testing.T) {
	fc := PathFeatureCollection(nil, nil)
	assert.Empty(t, fc.Features)
}
