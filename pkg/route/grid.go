// Package route builds the traversable lattice between two points and runs
// the A* search over it.
package route

import (
	"math"

	"pigeonflight/pkg/geo"
	"pigeonflight/pkg/terrain"
)

const (
	// GridStep is the lattice spacing in degrees on both axes.
	GridStep = 0.1

	// adjacencyTolerance absorbs float error in lattice coordinates (31.2-31.1 > 0.1).
	adjacencyTolerance = 1e-9
	// edgeTolerance is the fraction of a step within which a box edge still counts as on-lattice.
	edgeTolerance = 1e-6
)

// Node is a traversable lattice cell.
type Node struct {
	geo.Point
	Elevation float64 `json:"elevation"`
}

type cell struct{ i, j int }

// Grid holds the land cells inside the bounding box of a search, in lattice
// order (latitude ascending, then longitude ascending).
type Grid struct {
	Nodes []Node

	origin geo.Point
	step   float64
	cells  map[cell]int
}

// BuildGrid enumerates the lattice over the box spanned by start and end and
// keeps every point whose elevation is above sea level. No connectivity check
// is done; an all-sea box gives an empty grid.
func BuildGrid(start, end geo.Point, model terrain.Model) *Grid {
	box := geo.Bounds(start, end)
	minLat, maxLat := box.Min[1], box.Max[1]
	minLon, maxLon := box.Min[0], box.Max[0]

	g := &Grid{
		origin: geo.Point{Lat: minLat, Lon: minLon},
		step:   GridStep,
		cells:  make(map[cell]int),
	}

	nLat := int(math.Floor((maxLat-minLat)/GridStep + edgeTolerance))
	nLon := int(math.Floor((maxLon-minLon)/GridStep + edgeTolerance))

	for i := 0; i <= nLat; i++ {
		lat := minLat + float64(i)*GridStep
		for j := 0; j <= nLon; j++ {
			lon := minLon + float64(j)*GridStep
			elev := model.Elevation(lat, lon)
			if terrain.IsSea(elev) {
				continue
			}
			g.cells[cell{i, j}] = len(g.Nodes)
			g.Nodes = append(g.Nodes, Node{Point: geo.Point{Lat: lat, Lon: lon}, Elevation: elev})
		}
	}
	return g
}

// Len returns the number of land cells.
func (g *Grid) Len() int {
	return len(g.Nodes)
}

// Neighbors returns every node whose latitude and longitude both lie within
// one step of p, in lattice order. p itself is included when it is a node.
func (g *Grid) Neighbors(p geo.Point) []Node {
	if len(g.Nodes) == 0 {
		return nil
	}
	fi := (p.Lat - g.origin.Lat) / g.step
	fj := (p.Lon - g.origin.Lon) / g.step
	iLo, iHi := int(math.Floor(fi-1-edgeTolerance)), int(math.Ceil(fi+1+edgeTolerance))
	jLo, jHi := int(math.Floor(fj-1-edgeTolerance)), int(math.Ceil(fj+1+edgeTolerance))

	var out []Node
	for i := iLo; i <= iHi; i++ {
		for j := jLo; j <= jHi; j++ {
			idx, ok := g.cells[cell{i, j}]
			if !ok {
				continue
			}
			n := g.Nodes[idx]
			if Adjacent(p, n.Point) {
				out = append(out, n)
			}
		}
	}
	return out
}

// Adjacent reports whether a and b are within one grid step on both axes.
func Adjacent(a, b geo.Point) bool {
	return math.Abs(a.Lat-b.Lat) <= GridStep+adjacencyTolerance &&
		math.Abs(a.Lon-b.Lon) <= GridStep+adjacencyTolerance
}
