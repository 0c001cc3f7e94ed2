package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Polyline is an open, ordered sequence of points.
type Polyline []r2.Vec

// Length returns the sum of segment lengths.
func (l Polyline) Length() float64 {
	total := 0.0
	for i := 1; i < len(l); i++ {
		total += r2.Norm(r2.Sub(l[i], l[i-1]))
	}
	return total
}

// Reverse returns a copy of the polyline with the point order reversed.
func (l Polyline) Reverse() Polyline {
	n := len(l)
	rev := make(Polyline, n)
	for i, v := range l {
		rev[n-1-i] = v
	}
	return rev
}

// DistanceTo returns the shortest distance from pt to any segment of the polyline.
// A single-point polyline measures point distance; an empty one returns +Inf.
func (l Polyline) DistanceTo(pt r2.Vec) float64 {
	switch len(l) {
	case 0:
		return math.Inf(1)
	case 1:
		return r2.Norm(r2.Sub(pt, l[0]))
	}
	best := math.Inf(1)
	for i := 1; i < len(l); i++ {
		best = math.Min(best, DistanceToSegment(pt, l[i-1], l[i]))
	}
	return best
}

// DistanceToSegment returns the distance from pt to the segment a-b.
func DistanceToSegment(pt, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Norm2(ab)
	if l2 < 1e-24 {
		return r2.Norm(r2.Sub(pt, a))
	}
	t := r2.Dot(r2.Sub(pt, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Norm(r2.Sub(pt, Lerp(a, b, t)))
}

// Lerp returns the linear interpolation between a and b at t in [0,1].
func Lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// IsFinite reports whether both coordinates are finite.
func IsFinite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
