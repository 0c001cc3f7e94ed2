package genotype

import (
	"math"

	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

// DecayRange bounds the decay radius genes of every basis field.
type DecayRange struct {
	Min float64
	Max float64
}

// Bounds returns per-gene bounds for a chromosome of the given layout on a site.
// Centers and building positions range over the site's bounding box;
// orientations over [0, π) since both road directions and rectangular
// footprints repeat every half turn.
func Bounds(layout Layout, site geometry.Polygon, decay DecayRange) []framework.Bounds {
	box := site.BoundingBox()
	x := framework.Bounds{L: box.Min.X, H: box.Max.X}
	y := framework.Bounds{L: box.Min.Y, H: box.Max.Y}
	angle := framework.Bounds{L: 0, H: math.Pi}
	radius := framework.Bounds{L: decay.Min, H: decay.Max}
	kind := framework.Bounds{L: -0.5, H: float64(layout.BuildingTypes) - 0.5}

	out := make([]framework.Bounds, 0, layout.Length())
	out = appendRepeated(out, layout.Grid, x, y)
	out = appendRepeated(out, layout.Grid, angle)
	out = appendRepeated(out, layout.Grid, radius)
	out = appendRepeated(out, layout.Radial, x, y)
	out = appendRepeated(out, layout.Radial, radius)
	out = appendRepeated(out, layout.Buildings, x, y)
	out = appendRepeated(out, layout.Buildings, kind)
	return appendRepeated(out, layout.Buildings, angle)
}

func appendRepeated(dst []framework.Bounds, n int, group ...framework.Bounds) []framework.Bounds {
	for i := 0; i < n; i++ {
		dst = append(dst, group...)
	}
	return dst
}
