// Package roadnet assembles road centerlines by seeding streamlines over a site.
package roadnet

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/streamline"
	"github.com/siteforge/layout-optimizer/pkg/tensorfield"
)

// Road is a traced centerline with at least two points.
type Road struct {
	Path geometry.Polyline `json:"path"`
}

// Length returns the road length.
func (r Road) Length() float64 {
	return r.Path.Length()
}

// Params controls seeding and filtering.
type Params struct {
	// SeedSpacing is the pitch of the seed grid laid over the bounding box.
	SeedSpacing float64
	// MinAnisotropy is the threshold below which seeds are skipped.
	MinAnisotropy float64
	// MinRoadLength drops traced roads shorter than this.
	MinRoadLength float64
	// MinSeparation drops seeds closer than this to an already accepted road.
	// Zero disables the check.
	MinSeparation float64
	// MaxRoads caps the number of roads returned. Zero means unlimited.
	MaxRoads int
	// Tracer is used to integrate each seed.
	Tracer streamline.Tracer
}

// DefaultParams returns parameters for a site measured in metres.
func DefaultParams() Params {
	return Params{
		SeedSpacing:   40,
		MinAnisotropy: 0.1,
		MinRoadLength: 20,
		MinSeparation: 20,
		Tracer:        streamline.DefaultTracer(),
	}
}

// Seed is a candidate seed point and the anisotropy measured there.
type Seed struct {
	Point      r2.Vec
	Anisotropy float64
}

// Seeds lays a regular grid over the boundary's bounding box and returns the
// points inside the boundary whose anisotropy exceeds minAnisotropy.
func Seeds(field *tensorfield.Field, boundary geometry.Polygon, spacing, minAnisotropy float64) []Seed {
	if boundary.IsEmpty() || spacing <= 0 || math.IsNaN(spacing) {
		return nil
	}
	box := boundary.BoundingBox()
	var seeds []Seed
	for y := box.Min.Y + spacing/2; y < box.Max.Y; y += spacing {
		for x := box.Min.X + spacing/2; x < box.Max.X; x += spacing {
			p := r2.Vec{X: x, Y: y}
			if !boundary.Contains(p) {
				continue
			}
			a := field.Anisotropy(p)
			if a <= minAnisotropy {
				continue
			}
			seeds = append(seeds, Seed{Point: p, Anisotropy: a})
		}
	}
	return seeds
}

// Generate traces a road from every admissible seed and keeps the ones at least
// MinRoadLength long. An empty boundary or a uniformly isotropic field yields
// no roads.
func Generate(field *tensorfield.Field, boundary geometry.Polygon, params Params) []Road {
	var roads []Road
	for _, s := range Seeds(field, boundary, params.SeedSpacing, params.MinAnisotropy) {
		if params.MaxRoads > 0 && len(roads) >= params.MaxRoads {
			break
		}
		if params.MinSeparation > 0 && nearAny(roads, s.Point, params.MinSeparation) {
			continue
		}
		path := params.Tracer.TraceBidirectional(s.Point, field, boundary)
		if len(path) < 2 || path.Length() < params.MinRoadLength {
			continue
		}
		roads = append(roads, Road{Path: path})
	}
	return roads
}

// TotalLength sums the length of all roads.
func TotalLength(roads []Road) float64 {
	total := 0.0
	for _, r := range roads {
		total += r.Length()
	}
	return total
}

// DistanceToNearest returns the distance from p to the closest road, or +Inf
// when there are none.
func DistanceToNearest(roads []Road, p r2.Vec) float64 {
	best := math.Inf(1)
	for _, r := range roads {
		best = math.Min(best, r.Path.DistanceTo(p))
	}
	return best
}

func nearAny(roads []Road, p r2.Vec, dist float64) bool {
	return DistanceToNearest(roads, p) < dist
}
