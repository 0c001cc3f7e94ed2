// Package streamline integrates the major eigenvector of a direction field into
// polylines that serve as road centerlines.
package streamline

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/tensorfield"
)

// DirectionField is the part of tensorfield.Field the tracer needs.
type DirectionField interface {
	EigenDirection(p r2.Vec, which tensorfield.Which) (r2.Vec, float64)
}

// Tracer holds the integration parameters.
type Tracer struct {
	// Step is the integration step length in site units.
	Step float64
	// MaxSteps bounds the number of integration steps per direction.
	MaxSteps int
	// MinAnisotropy stops a trace once the flow is no longer well defined.
	MinAnisotropy float64
}

// DefaultTracer returns a tracer suited to sites measured in metres.
func DefaultTracer() Tracer {
	return Tracer{Step: 5, MaxSteps: 400, MinAnisotropy: 0.05}
}

// Trace follows the major direction from seed until it leaves the boundary, runs
// out of steps, or reaches a region of low anisotropy. The returned polyline
// always starts at seed; a seed outside the boundary yields just that point.
func (t Tracer) Trace(seed r2.Vec, field DirectionField, boundary geometry.Polygon) geometry.Polyline {
	dir, aniso := field.EigenDirection(seed, tensorfield.Major)
	if !boundary.Contains(seed) || aniso < t.MinAnisotropy {
		return geometry.Polyline{seed}
	}
	return t.trace(seed, dir, field, boundary)
}

// TraceBidirectional traces forwards and backwards from seed and joins both
// halves into a single polyline running through the seed.
func (t Tracer) TraceBidirectional(seed r2.Vec, field DirectionField, boundary geometry.Polygon) geometry.Polyline {
	dir, aniso := field.EigenDirection(seed, tensorfield.Major)
	if !boundary.Contains(seed) || aniso < t.MinAnisotropy {
		return geometry.Polyline{seed}
	}
	forward := t.trace(seed, dir, field, boundary)
	backward := t.trace(seed, r2.Scale(-1, dir), field, boundary)

	joined := make(geometry.Polyline, 0, len(forward)+len(backward)-1)
	joined = append(joined, backward.Reverse()...)
	return append(joined, forward[1:]...)
}

func (t Tracer) trace(seed, initial r2.Vec, field DirectionField, boundary geometry.Polygon) geometry.Polyline {
	line := geometry.Polyline{seed}
	if t.Step <= 0 {
		return line
	}

	p, prev := seed, initial
	for i := 0; i < t.MaxSteps; i++ {
		// Midpoint integration; each sample takes the sign closest to the
		// previous heading since eigenvectors have no orientation.
		d1, a1 := field.EigenDirection(p, tensorfield.Major)
		d1 = align(d1, prev)
		mid := r2.Add(p, r2.Scale(t.Step/2, d1))
		d2, _ := field.EigenDirection(mid, tensorfield.Major)
		d2 = align(d2, d1)
		next := r2.Add(p, r2.Scale(t.Step, d2))

		if !geometry.IsFinite(next) || !geometry.IsFinite(d2) {
			return line
		}
		if a1 < t.MinAnisotropy {
			return line
		}
		if !boundary.Contains(next) {
			return append(line, boundary.ExitPoint(p, next))
		}
		line = append(line, next)
		// Closed loops around tangential centres.
		if i > 2 && r2.Norm(r2.Sub(next, seed)) < t.Step/2 {
			return line
		}
		p, prev = next, d2
	}
	return line
}

func align(v, ref r2.Vec) r2.Vec {
	if r2.Dot(v, ref) < 0 {
		return r2.Scale(-1, v)
	}
	return v
}
