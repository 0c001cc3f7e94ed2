// Package genotype packs road-field parameters and a building layout into the
// flat chromosome the genetic operators work on, and decodes it back.
//
// Chromosome layout, in order:
//
//	grid centers       2G
//	grid orientations   G
//	grid decay radii    G
//	radial centers     2R
//	radial decay radii  R
//	building positions 2N
//	building types      N
//	building orientations N
package genotype

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/roadnet"
	"github.com/siteforge/layout-optimizer/pkg/tensorfield"
)

// ErrLengthMismatch is returned when a chromosome does not match its Layout.
var ErrLengthMismatch = errors.New("chromosome length does not match layout")

// Layout describes the shape of a chromosome. The chromosome is not
// self-describing, so the same Layout must be used to encode and decode.
type Layout struct {
	Grid      int
	Radial    int
	Buildings int
	// BuildingTypes is the number of building type codes; decoded types fall in
	// [0, BuildingTypes).
	BuildingTypes int
	// TangentialRadial makes every radial field circle its center.
	TangentialRadial bool
}

// Length returns the chromosome length, 4G + 3R + 4N.
func (l Layout) Length() int {
	return 4*l.Grid + 3*l.Radial + 4*l.Buildings
}

// Validate checks that the counts are usable.
func (l Layout) Validate() error {
	if l.Grid < 0 || l.Radial < 0 || l.Buildings < 0 {
		return fmt.Errorf("negative field or building count in layout %+v", l)
	}
	if l.Buildings > 0 && l.BuildingTypes < 1 {
		return fmt.Errorf("layout with %d buildings needs at least one building type", l.Buildings)
	}
	return nil
}

// FieldParams holds the numeric parameters of the basis fields.
type FieldParams struct {
	GridCenters   []r2.Vec
	GridThetas    []float64
	GridDecays    []float64
	RadialCenters []r2.Vec
	RadialDecays  []float64
}

// BuildingLayout holds index-aligned building attributes: building i is at
// Positions[i], has type Types[i] and orientation Orientations[i].
type BuildingLayout struct {
	Positions    []r2.Vec
	Types        []int
	Orientations []float64
}

// Len returns the number of buildings.
func (b BuildingLayout) Len() int {
	return len(b.Positions)
}

// Composite is the structured projection of a chromosome. It is rebuilt from
// the flat vector whenever needed and never written back into it.
type Composite struct {
	Layout    Layout
	Field     FieldParams
	Buildings BuildingLayout
}

// Decode reconstructs a Composite from a flat chromosome.
func Decode(v []float64, layout Layout) (*Composite, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if len(v) != layout.Length() {
		return nil, fmt.Errorf("%w: got %d genes, want %d for G=%d R=%d N=%d",
			ErrLengthMismatch, len(v), layout.Length(), layout.Grid, layout.Radial, layout.Buildings)
	}

	r := reader{v: v}
	c := &Composite{Layout: layout}
	c.Field.GridCenters = r.points(layout.Grid)
	c.Field.GridThetas = r.floats(layout.Grid)
	c.Field.GridDecays = r.floats(layout.Grid)
	c.Field.RadialCenters = r.points(layout.Radial)
	c.Field.RadialDecays = r.floats(layout.Radial)
	c.Buildings.Positions = r.points(layout.Buildings)
	c.Buildings.Types = make([]int, layout.Buildings)
	for i, t := range r.floats(layout.Buildings) {
		c.Buildings.Types[i] = typeCode(t, layout.BuildingTypes)
	}
	c.Buildings.Orientations = r.floats(layout.Buildings)
	return c, nil
}

// Encode flattens the composite into a chromosome.
func (c *Composite) Encode() []float64 {
	out := make([]float64, 0, c.Layout.Length())
	out = appendPoints(out, c.Field.GridCenters)
	out = append(out, c.Field.GridThetas...)
	out = append(out, c.Field.GridDecays...)
	out = appendPoints(out, c.Field.RadialCenters)
	out = append(out, c.Field.RadialDecays...)
	out = appendPoints(out, c.Buildings.Positions)
	for _, t := range c.Buildings.Types {
		out = append(out, float64(t))
	}
	return append(out, c.Buildings.Orientations...)
}

// DirectionField builds the tensor field described by the field parameters.
func (c *Composite) DirectionField() *tensorfield.Field {
	basis := make([]tensorfield.BasisField, 0, c.Layout.Grid+c.Layout.Radial)
	for i, center := range c.Field.GridCenters {
		basis = append(basis, tensorfield.Grid(center, c.Field.GridThetas[i], c.Field.GridDecays[i]))
	}
	for i, center := range c.Field.RadialCenters {
		basis = append(basis, tensorfield.Radial(center, c.Field.RadialDecays[i], c.Layout.TangentialRadial))
	}
	return tensorfield.New(basis...)
}

// Resolve generates the road network for the site and returns it together with
// the building layout, which is passed through unchanged.
func (c *Composite) Resolve(boundary geometry.Polygon, params roadnet.Params) ([]roadnet.Road, BuildingLayout) {
	return roadnet.Generate(c.DirectionField(), boundary, params), c.Buildings
}

// FieldGenes returns the prefix of a chromosome that encodes the direction
// field. Two chromosomes with equal field genes resolve to the same roads.
func FieldGenes(v []float64, layout Layout) []float64 {
	n := 4*layout.Grid + 3*layout.Radial
	if n > len(v) {
		n = len(v)
	}
	return v[:n]
}

func typeCode(v float64, types int) int {
	if math.IsNaN(v) {
		return 0
	}
	t := int(math.Round(v))
	if t < 0 {
		return 0
	}
	if types > 0 && t >= types {
		return types - 1
	}
	return t
}

type reader struct {
	v   []float64
	pos int
}

func (r *reader) floats(n int) []float64 {
	out := make([]float64, n)
	copy(out, r.v[r.pos:r.pos+n])
	r.pos += n
	return out
}

func (r *reader) points(n int) []r2.Vec {
	out := make([]r2.Vec, n)
	for i := range out {
		out[i] = r2.Vec{X: r.v[r.pos], Y: r.v[r.pos+1]}
		r.pos += 2
	}
	return out
}

func appendPoints(dst []float64, pts []r2.Vec) []float64 {
	for _, p := range pts {
		dst = append(dst, p.X, p.Y)
	}
	return dst
}
