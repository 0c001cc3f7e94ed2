package sitelayout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/siteforge/layout-optimizer/pkg/genotype"
	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
	"github.com/siteforge/layout-optimizer/pkg/roadnet"
)

// Objective indexes of SiteEvaluator.
const (
	ObjectiveCost = iota
	ObjectiveAccessibility
	ObjectiveAdjacency
	ObjectiveGreenRatio
	numObjectives
)

// Constraint indexes of SiteEvaluator.
const (
	ConstraintContainment = iota
	ConstraintSetback
	ConstraintSeparation
	ConstraintRoadAccess
	numConstraints
)

// ErrUnknownBuildingType is returned for type codes without a BuildingType.
var ErrUnknownBuildingType = errors.New("unknown building type")

// BuildingType is a rectangular footprint with a construction cost.
type BuildingType struct {
	Name  string
	Width float64
	Depth float64
	Cost  float64
}

// SiteEvaluator is the built-in FitnessEvaluator. Its objectives are negated
// construction cost, negated mean building-to-road distance, negated mean
// distance to the nearest neighbouring building and the unbuilt share of the
// site. Its constraints are footprint containment, boundary setback, building
// separation and road access.
//
// Footprints are rectangles centred on the building position with Width along
// the orientation; separation uses their circumscribed circles.
type SiteEvaluator struct {
	Types []BuildingType

	RoadCostPerMetre   float64
	RoadWidth          float64
	MinSeparation      float64
	Setback            float64
	RoadAccessDistance float64

	// Tolerance is subtracted from every constraint in generation 0 and shrinks
	// linearly to zero at ToleranceGenerations.
	Tolerance            float64
	ToleranceGenerations int
}

var _ FitnessEvaluator = &SiteEvaluator{}

func (e *SiteEvaluator) NumObjectives() int {
	return numObjectives
}

func (e *SiteEvaluator) NumConstraints() int {
	return numConstraints
}

func (e *SiteEvaluator) ObjectiveNames() []string {
	return []string{"cost", "accessibility", "adjacency", "greenRatio"}
}

func (e *SiteEvaluator) Evaluate(ctx context.Context, boundary geometry.Polygon, roads []roadnet.Road, buildings genotype.BuildingLayout) ([]float64, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if boundary.IsEmpty() {
		return nil, nil, fmt.Errorf("empty site boundary")
	}
	for i, t := range buildings.Types {
		if t < 0 || t >= len(e.Types) {
			return nil, nil, fmt.Errorf("%w: building %d has type %d, %d types known", ErrUnknownBuildingType, i, t, len(e.Types))
		}
	}

	box := boundary.BoundingBox()
	// Stands in for the distance to a road when there are none.
	diagonal := r2.Norm(r2.Sub(box.Max, box.Min))
	roadLength := roadnet.TotalLength(roads)

	objectives := make([]float64, numObjectives)
	constraints := make([]float64, numConstraints)

	cost := roadLength * e.RoadCostPerMetre
	builtArea := roadLength * e.RoadWidth
	access := 0.0
	for i, pos := range buildings.Positions {
		t := e.Types[buildings.Types[i]]
		cost += t.Cost
		builtArea += t.Width * t.Depth

		d := math.Min(roadnet.DistanceToNearest(roads, pos), diagonal)
		access += d
		constraints[ConstraintRoadAccess] += math.Max(0, d-e.RoadAccessDistance)

		for _, corner := range footprint(pos, buildings.Orientations[i], t) {
			edge := boundary.DistanceToEdge(corner)
			if !boundary.Contains(corner) {
				constraints[ConstraintContainment] += edge
				continue
			}
			constraints[ConstraintSetback] += math.Max(0, e.Setback-edge)
		}
	}
	constraints[ConstraintSeparation] = e.separation(buildings)

	n := float64(buildings.Len())
	objectives[ObjectiveCost] = -cost
	objectives[ObjectiveGreenRatio] = math.Max(0, 1-builtArea/boundary.Area())
	if n > 0 {
		objectives[ObjectiveAccessibility] = -access / n
	}
	if n > 1 {
		objectives[ObjectiveAdjacency] = -meanNearestNeighbour(buildings.Positions)
	}

	if tol := e.tolerance(framework.GenerationFromContext(ctx)); tol > 0 {
		for i := range constraints {
			constraints[i] -= tol
		}
	}
	return objectives, constraints, nil
}

// tolerance is the constraint relaxation for a generation; gen < 0 means the
// generation is unknown and gets none.
func (e *SiteEvaluator) tolerance(gen int) float64 {
	if e.Tolerance <= 0 || e.ToleranceGenerations <= 0 || gen < 0 || gen >= e.ToleranceGenerations {
		return 0
	}
	return e.Tolerance * (1 - float64(gen)/float64(e.ToleranceGenerations))
}

func (e *SiteEvaluator) separation(buildings genotype.BuildingLayout) float64 {
	total := 0.0
	for i := range buildings.Positions {
		ri := circumradius(e.Types[buildings.Types[i]])
		for j := i + 1; j < buildings.Len(); j++ {
			rj := circumradius(e.Types[buildings.Types[j]])
			d := r2.Norm(r2.Sub(buildings.Positions[i], buildings.Positions[j]))
			total += math.Max(0, e.MinSeparation+ri+rj-d)
		}
	}
	return total
}

// footprint returns the corners of a building counterclockwise.
func footprint(center r2.Vec, theta float64, t BuildingType) [4]r2.Vec {
	u := r2.Scale(t.Width/2, r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)})
	v := r2.Scale(t.Depth/2, r2.Vec{X: -math.Sin(theta), Y: math.Cos(theta)})
	return [4]r2.Vec{
		r2.Sub(r2.Sub(center, u), v),
		r2.Sub(r2.Add(center, u), v),
		r2.Add(r2.Add(center, u), v),
		r2.Add(r2.Sub(center, u), v),
	}
}

func circumradius(t BuildingType) float64 {
	return math.Hypot(t.Width, t.Depth) / 2
}

func meanNearestNeighbour(pts []r2.Vec) float64 {
	total := 0.0
	for i, p := range pts {
		best := math.Inf(1)
		for j, q := range pts {
			if i != j {
				best = math.Min(best, r2.Norm(r2.Sub(p, q)))
			}
		}
		total += best
	}
	return total / float64(len(pts))
}
