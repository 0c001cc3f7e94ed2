package sitelayout

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/siteforge/layout-optimizer/pkg/genotype"
	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

// maxGridRefinements bounds how often gridCells shrinks its pitch looking for
// enough cells inside the site.
const maxGridRefinements = 8

// GridSampler returns a sampler that draws field genes uniformly but spreads
// buildings over a jittered grid of cells inside the site, so initial layouts
// start out mostly contained and separated.
func GridSampler(layout genotype.Layout, site geometry.Polygon) framework.Sampler {
	cells, pitch := gridCells(site, layout.Buildings)
	offset := 4*layout.Grid + 3*layout.Radial

	return func(rng *rand.Rand, bounds []framework.Bounds, n int) [][]float64 {
		out := framework.UniformSampler(rng, bounds, n)
		if len(cells) == 0 {
			return out
		}
		for _, vars := range out {
			if len(vars) < offset+2*layout.Buildings {
				continue
			}
			perm := rng.Perm(len(cells))
			for i := 0; i < layout.Buildings; i++ {
				c := cells[perm[i%len(perm)]]
				p := r2.Vec{X: c.X + (rng.Float64()-0.5)*pitch/2, Y: c.Y + (rng.Float64()-0.5)*pitch/2}
				if !site.Contains(p) {
					p = c
				}
				vars[offset+2*i], vars[offset+2*i+1] = p.X, p.Y
			}
		}
		return out
	}
}

// gridCells lays a square grid over the site and returns the cell centres
// inside it, refining the pitch until there are at least n of them.
func gridCells(site geometry.Polygon, n int) ([]r2.Vec, float64) {
	if n <= 0 || site.IsEmpty() {
		return nil, 0
	}
	box := site.BoundingBox()
	pitch := math.Sqrt(site.Area() / float64(n))
	var cells []r2.Vec
	for range maxGridRefinements {
		if !(pitch > 0) {
			return nil, 0
		}
		cells = cells[:0]
		for y := box.Min.Y + pitch/2; y < box.Max.Y; y += pitch {
			for x := box.Min.X + pitch/2; x < box.Max.X; x += pitch {
				if p := (r2.Vec{X: x, Y: y}); site.Contains(p) {
					cells = append(cells, p)
				}
			}
		}
		if len(cells) >= n {
			break
		}
		pitch *= 0.8
	}
	return cells, pitch
}
