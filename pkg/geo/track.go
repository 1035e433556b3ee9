package geo

// Trail records a flown track. It keeps the total distance and a short
// window of recent points for the course over ground. Not safe for
// concurrent use.
type Trail struct {
	window []Point
	size   int
	total  float64
	n      int
}

// NewTrail creates a trail whose course is taken over the last window points.
func NewTrail(window int) *Trail {
	if window < 2 {
		window = 2
	}
	return &Trail{size: window}
}

// Push appends p.
func (t *Trail) Push(p Point) {
	if len(t.window) > 0 {
		t.total += Distance(t.window[len(t.window)-1], p)
	}
	t.window = append(t.window, p)
	if len(t.window) > t.size {
		t.window = t.window[1:]
	}
	t.n++
}

// Len is the number of points pushed.
func (t *Trail) Len() int {
	return t.n
}

// Distance is the flown length in meters.
func (t *Trail) Distance() float64 {
	return t.total
}

// Course is the bearing from the oldest to the newest point in the window,
// or fallback when fewer than two points were pushed.
func (t *Trail) Course(fallback float64) float64 {
	if len(t.window) < 2 {
		return fallback
	}
	return Bearing(t.window[0], t.window[len(t.window)-1])
}
