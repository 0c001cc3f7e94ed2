package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Polygon is a closed site outline defined by its vertices in order.
type Polygon struct {
	Vertices []r2.Vec `json:"vertices"`
}

// NewPolygon creates a polygon from a list of vertices.
func NewPolygon(pts ...r2.Vec) Polygon {
	return Polygon{Vertices: pts}
}

// Rect returns the axis-aligned rectangle [x0,x1]×[y0,y1] in counterclockwise order.
func Rect(x0, y0, x1, y1 float64) Polygon {
	return NewPolygon(
		r2.Vec{X: x0, Y: y0},
		r2.Vec{X: x1, Y: y0},
		r2.Vec{X: x1, Y: y1},
		r2.Vec{X: x0, Y: y1},
	)
}

// IsEmpty returns true if the polygon has fewer than 3 vertices.
func (p Polygon) IsEmpty() bool {
	return len(p.Vertices) < 3
}

// Edge returns the i-th edge as (start, end). Wraps around.
func (p Polygon) Edge(i int) (r2.Vec, r2.Vec) {
	n := len(p.Vertices)
	return p.Vertices[i%n], p.Vertices[(i+1)%n]
}

// SignedArea returns the signed area using the shoelace formula.
// Positive for counterclockwise winding, negative for clockwise.
func (p Polygon) SignedArea() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += r2.Cross(p.Vertices[i], p.Vertices[j])
	}
	return area / 2
}

// Area returns the unsigned area of the polygon.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// BoundingBox returns the axis-aligned bounding box of the vertices.
func (p Polygon) BoundingBox() r2.Box {
	if len(p.Vertices) == 0 {
		return r2.Box{}
	}
	box := r2.Box{Min: p.Vertices[0], Max: p.Vertices[0]}
	for _, v := range p.Vertices[1:] {
		box.Min.X = math.Min(box.Min.X, v.X)
		box.Min.Y = math.Min(box.Min.Y, v.Y)
		box.Max.X = math.Max(box.Max.X, v.X)
		box.Max.Y = math.Max(box.Max.Y, v.Y)
	}
	return box
}

// Contains returns true if the point is inside the polygon using ray casting.
func (p Polygon) Contains(pt r2.Vec) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi := p.Vertices[i]
		vj := p.Vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// DistanceToEdge returns the distance from pt to the nearest polygon edge.
func (p Polygon) DistanceToEdge(pt r2.Vec) float64 {
	if len(p.Vertices) == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for i := range p.Vertices {
		a, b := p.Edge(i)
		best = math.Min(best, DistanceToSegment(pt, a, b))
	}
	return best
}

// ExitPoint returns the point where the segment from inside to outside crosses
// the polygon boundary. If no edge intersects the segment, inside is returned.
func (p Polygon) ExitPoint(inside, outside r2.Vec) r2.Vec {
	bestT := math.Inf(1)
	for i := range p.Vertices {
		a, b := p.Edge(i)
		if t, ok := segmentIntersection(inside, outside, a, b); ok && t < bestT {
			bestT = t
		}
	}
	if math.IsInf(bestT, 1) {
		return inside
	}
	return Lerp(inside, outside, bestT)
}

// segmentIntersection returns the parameter t along p0->p1 where it crosses q0->q1.
func segmentIntersection(p0, p1, q0, q1 r2.Vec) (float64, bool) {
	d := r2.Sub(p1, p0)
	e := r2.Sub(q1, q0)
	denom := r2.Cross(d, e)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	w := r2.Sub(q0, p0)
	t := r2.Cross(w, e) / denom
	u := r2.Cross(w, d) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}
