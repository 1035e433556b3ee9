package route

import (
	"slices"

	"pigeonflight/pkg/geo"
	"pigeonflight/pkg/terrain"
)

// GoalRadius is how close (m) the search must get to the end point to stop.
const GoalRadius = 1000.0

// Outcome describes how a search terminated.
type Outcome string

const (
	// OutcomeFound means a lattice path reached the goal radius.
	OutcomeFound Outcome = "found"
	// OutcomeFallback means the open set ran dry and the direct [start, end] path was returned.
	OutcomeFallback Outcome = "fallback"
)

// Result is the outcome of a single search.
type Result struct {
	Path     []geo.Point `json:"path"`
	Outcome  Outcome     `json:"outcome"`
	Expanded int         `json:"expanded"`
}

// FindPath returns the route from start to end over grid.
func FindPath(start, end geo.Point, grid *Grid) []geo.Point {
	return Search(start, end, grid).Path
}

// Search runs A* from start toward end. start is a synthetic seed and need
// not be a grid node. Step cost and heuristic are both great-circle distance.
// Cells above the mountain threshold are never entered. If the open set
// empties before reaching GoalRadius of end, the result is the direct
// two-point path.
func Search(start, end geo.Point, grid *Grid) Result {
	open := newOpenSet()
	cost := map[Key]float64{}
	came := map[Key]geo.Point{}

	startKey := KeyOf(start)
	cost[startKey] = 0
	open.push(Node{Point: start}, startKey, geo.Distance(start, end))

	expanded := 0
	for open.Len() > 0 {
		current := open.pop()
		expanded++

		if geo.Distance(current.node.Point, end) < GoalRadius {
			return Result{
				Path:     reconstruct(came, current.node.Point),
				Outcome:  OutcomeFound,
				Expanded: expanded,
			}
		}

		g := cost[current.key]
		for _, n := range grid.Neighbors(current.node.Point) {
			if terrain.IsMountain(n.Elevation) {
				continue
			}
			tentative := g + geo.Distance(current.node.Point, n.Point)

			k := KeyOf(n.Point)
			if prev, seen := cost[k]; seen && tentative >= prev {
				continue
			}
			came[k] = current.node.Point
			cost[k] = tentative

			if member, ok := open.members[k]; ok {
				open.update(member, tentative+geo.Distance(member.node.Point, end))
				continue
			}
			open.push(n, k, tentative+geo.Distance(n.Point, end))
		}
	}

	return Result{
		Path:     []geo.Point{start, end},
		Outcome:  OutcomeFallback,
		Expanded: expanded,
	}
}

func reconstruct(came map[Key]geo.Point, last geo.Point) []geo.Point {
	path := []geo.Point{last}
	cur := last
	// bounded by the number of recorded predecessors
	for range len(came) {
		prev, ok := came[KeyOf(cur)]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	slices.Reverse(path)
	return path
}
